package wss

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoSubscriber 把收到的訊息原封不動送回去，並回報連線事件。
type echoSubscriber struct {
	connected    chan Client
	disconnected chan Client
}

func newEchoSubscriber() *echoSubscriber {
	return &echoSubscriber{
		connected:    make(chan Client, 4),
		disconnected: make(chan Client, 4),
	}
}

func (s *echoSubscriber) OnConnect(client Client)    { s.connected <- client }
func (s *echoSubscriber) OnDisconnect(client Client) { s.disconnected <- client }
func (s *echoSubscriber) OnMessage(client Client, message []byte) {
	_ = client.SendMessage("echo:" + string(message))
}

func startServer(t *testing.T, ctx context.Context, cfg *Config) (*Server, *echoSubscriber, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(ctx, cfg, logger)
	sub := newEchoSubscriber()
	srv.Register(sub)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, sub, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		var zero T
		return zero
	}
}

func TestServer_EchoRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv, sub, url := startServer(t, ctx, &Config{})

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"User-Agent": []string{"wheel-test"}})
	require.NoError(t, err)
	defer conn.Close()

	client := waitFor(t, sub.connected)
	assert.NotEmpty(t, client.ID())
	assert.False(t, client.Closed())
	assert.Equal(t, "wheel-test", client.UserAgent())
	assert.Equal(t, 1, srv.Len())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "echo:hello", string(msg))
}

func TestServer_SendAfterDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv, sub, url := startServer(t, ctx, &Config{})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	client := waitFor(t, sub.connected)

	client.SetTag("visitor", "abc")
	value, ok := client.GetTag("visitor")
	assert.True(t, ok)
	assert.Equal(t, "abc", value)

	require.NoError(t, conn.Close())
	gone := waitFor(t, sub.disconnected)
	assert.Equal(t, client.ID(), gone.ID())
	assert.Equal(t, 0, srv.Len())
	assert.True(t, client.Closed())
	assert.ErrorIs(t, client.SendMessage("late"), ErrConnectionClosed)
}

func TestServer_ShutdownKicksClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv, sub, url := startServer(t, ctx, &Config{})

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitFor(t, sub.connected)

	cancel()
	waitFor(t, sub.disconnected)
	waitFor(t, srv.Done())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseNormalClosure, closeErr.Code)
}

func TestServer_RejectsUnknownOrigin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, _, url := startServer(t, ctx, &Config{AllowedOrigins: []string{"wheel.example.com"}})

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://wheel.example.com"}})
	require.NoError(t, err)
	conn.Close()
}

func TestConfig_Defaults(t *testing.T) {
	c := Config{PongWait: 10 * time.Second}.withDefaults()
	assert.Equal(t, 9*time.Second, c.PingPeriod)
	assert.Equal(t, defaultWriteWait, c.WriteWait)
	assert.Equal(t, int64(defaultMaxMessageSize), c.MaxMessageSize)
	assert.Equal(t, defaultSendBufferSize, c.SendBufferSize)
}
