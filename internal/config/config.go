package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AdapterMode string

const (
	ModeMock AdapterMode = "mock"
	ModeReal AdapterMode = "real"
)

// RemoteConfig 包含遠端獎品/spin/註冊服務的設定。
type RemoteConfig struct {
	Mode       AdapterMode `mapstructure:"mode"`
	BaseURL    string      `mapstructure:"baseUrl"`
	APIKey     string      `mapstructure:"apiKey"`
	TimeoutSec int         `mapstructure:"timeoutSec"`
	// DailyLimit 與 WinPercent 只在 mock 模式下使用。
	DailyLimit int `mapstructure:"dailyLimit"`
	WinPercent int `mapstructure:"winPercent"`
}

// RedisConfig 包含訪客身分儲存的設定。Addr 為空時改用記憶體儲存。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// DatabaseConfig 包含資料庫的設定。Driver 為空時不記錄 spin 歷史。
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// GameConfig 包含遊戲流程的時間與行為設定，單位為毫秒或秒。
type GameConfig struct {
	AnimationMs        int    `mapstructure:"animationMs"`
	SettleMs           int    `mapstructure:"settleMs"`
	NotificationMs     int    `mapstructure:"notificationMs"`
	NotificationTickMs int    `mapstructure:"notificationTickMs"`
	PromptDelayMs      int    `mapstructure:"promptDelayMs"`
	ModalDelayMs       int    `mapstructure:"modalDelayMs"`
	SpinTimeoutSec     int    `mapstructure:"spinTimeoutSec"`
	SignupTimeoutSec   int    `mapstructure:"signupTimeoutSec"`
	IdentityKey        string `mapstructure:"identityKey"`
}

// DefaultGameConfig 回傳所有欄位都是預設值的 GameConfig。
func DefaultGameConfig() GameConfig {
	return GameConfig{
		AnimationMs:        4000,
		SettleMs:           200,
		NotificationMs:     5000,
		NotificationTickMs: 50,
		PromptDelayMs:      1000,
		ModalDelayMs:       500,
		SpinTimeoutSec:     10,
		SignupTimeoutSec:   10,
		IdentityKey:        "visitorId",
	}
}

// WithDefaults 以預設值補上為 0 的欄位。
func (g GameConfig) WithDefaults() GameConfig {
	d := DefaultGameConfig()
	if g.AnimationMs <= 0 {
		g.AnimationMs = d.AnimationMs
	}
	if g.SettleMs <= 0 {
		g.SettleMs = d.SettleMs
	}
	if g.NotificationMs <= 0 {
		g.NotificationMs = d.NotificationMs
	}
	if g.NotificationTickMs <= 0 {
		g.NotificationTickMs = d.NotificationTickMs
	}
	if g.PromptDelayMs <= 0 {
		g.PromptDelayMs = d.PromptDelayMs
	}
	if g.ModalDelayMs <= 0 {
		g.ModalDelayMs = d.ModalDelayMs
	}
	if g.SpinTimeoutSec <= 0 {
		g.SpinTimeoutSec = d.SpinTimeoutSec
	}
	if g.SignupTimeoutSec <= 0 {
		g.SignupTimeoutSec = d.SignupTimeoutSec
	}
	if g.IdentityKey == "" {
		g.IdentityKey = d.IdentityKey
	}
	return g
}

// Animation 回傳輪盤轉動時間。
func (g GameConfig) Animation() time.Duration {
	return ms(g.AnimationMs)
}

func (g GameConfig) Settle() time.Duration {
	return ms(g.SettleMs)
}

func (g GameConfig) Notification() time.Duration {
	return ms(g.NotificationMs)
}

func (g GameConfig) NotificationTick() time.Duration {
	return ms(g.NotificationTickMs)
}

func (g GameConfig) PromptDelay() time.Duration {
	return ms(g.PromptDelayMs)
}

func (g GameConfig) ModalDelay() time.Duration {
	return ms(g.ModalDelayMs)
}

func (g GameConfig) SpinTimeout() time.Duration {
	return time.Duration(g.SpinTimeoutSec) * time.Second
}

func (g GameConfig) SignupTimeout() time.Duration {
	return time.Duration(g.SignupTimeoutSec) * time.Second
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// WebsocketConfig 包含 WebSocket 伺服器的設定。
type WebsocketConfig struct {
	Port            int            `mapstructure:"port"`
	WriteWaitSec    int            `mapstructure:"writeWaitSec"`
	PongWaitSec     int            `mapstructure:"pongWaitSec"`
	MaxMessageSize  int64          `mapstructure:"maxMessageSize"`
	ReadBufferSize  int            `mapstructure:"readBufferSize"`
	WriteBufferSize int            `mapstructure:"writeBufferSize"`
	SendBufferSize  int            `mapstructure:"sendBufferSize"`
	AllowedOrigins  []string       `mapstructure:"allowedOrigins"`
	Remote          RemoteConfig   `mapstructure:"remote"`
	Redis           RedisConfig    `mapstructure:"redis"`
	Database        DatabaseConfig `mapstructure:"database"`
	Game            GameConfig     `mapstructure:"game"`
}

// APIConfig 包含 API 伺服器的設定，與 WebsocketConfig 共用同一份設定檔。
type APIConfig struct {
	Port     int            `mapstructure:"apiPort"`
	Database DatabaseConfig `mapstructure:"database"`
}

// LoadConfig 從指定路徑載入設定檔。
//
// 參數說明：
//   - configPath: string, 設定檔所在的目錄路徑。
//   - env: string, 環境名稱 (e.g., "local", "dev", "prod")。
//
// 回傳值：
//   - *T: 載入的設定物件。
//   - error: 如果載入失敗，則返回錯誤。
//
// 環境變數可覆蓋巢狀設定，例如 REMOTE_BASEURL 對應 remote.baseUrl。
func LoadConfig[T any](configPath string, env string) (*T, error) {
	v := viper.New()
	v.AddConfigPath(configPath)

	// 例如 env="local" -> config.local.yaml
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("無法讀取設定檔: %w", err)
	}

	var config T
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("無法解析設定檔: %w", err)
	}

	return &config, nil
}
