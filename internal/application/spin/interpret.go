package spin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/shopspring/decimal"
)

// 遠端服務使用的結果標籤
const (
	tagWin   = "win"
	tagLose  = "lose"
	tagLimit = "limit"
	tagError = "error"
)

// Interpret 將遠端服務的原始回應解讀為 SpinOutcome。
//
// Params:
//   - raw: domain.SpinResult, 遠端服務回傳的結果。
//   - catalog: domain.Catalog, 目前載入的獎品目錄。
//
// Returns:
//   - domain.SpinOutcome: Win 必須同時有標籤與可在目錄中找到的獎品，Lose 不可帶獎品，
//     其餘形狀一律視為 RateLimited 或 Failed。
func Interpret(raw domain.SpinResult, catalog domain.Catalog) domain.SpinOutcome {
	switch strings.ToLower(strings.TrimSpace(raw.Tag())) {
	case tagWin:
		if raw.Prize == nil || raw.Prize.ID == "" {
			return domain.Failed("win without prize", fmt.Errorf("%w: win without prize", domain.ErrMalformed))
		}
		idx := catalog.IndexOf(raw.Prize.ID)
		if idx < 0 {
			return domain.Failed("prize not in catalog", fmt.Errorf("%w: %s", domain.ErrPrizeNotInCatalog, raw.Prize.ID))
		}
		prize := catalog[idx]
		return domain.Win(prize, walletAmount(raw, prize))

	case tagLose:
		if raw.Prize != nil {
			return domain.Failed("lose with prize", fmt.Errorf("%w: lose with prize %s", domain.ErrMalformed, raw.Prize.ID))
		}
		return domain.Lose()

	case tagLimit:
		return domain.RateLimited(raw.Message)

	case tagError:
		return domain.Failed(raw.Message, domain.ErrSpinRejected)

	default:
		return domain.Failed("unknown result", fmt.Errorf("%w: result %q", domain.ErrMalformed, raw.Tag()))
	}
}

// walletAmount 依序採用獎品上的金額、回應頂層的金額，最後才從獎品顯示值解析。
func walletAmount(raw domain.SpinResult, prize domain.Prize) decimal.Decimal {
	if raw.Prize != nil && raw.Prize.WalletAmount.Valid {
		return raw.Prize.WalletAmount.Decimal
	}
	if raw.WalletAmount.Valid {
		return raw.WalletAmount.Decimal
	}
	if prize.WalletAmount.Valid {
		return prize.WalletAmount.Decimal
	}
	if raw.Prize != nil && raw.Prize.Value != "" {
		return domain.ParseValueAmount(raw.Prize.Value)
	}
	return domain.ParseValueAmount(prize.Value)
}

// classifyError 將呼叫遠端服務時的錯誤轉成 Failed 結果。
func classifyError(err error) domain.SpinOutcome {
	switch {
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		if !errors.Is(err, domain.ErrTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		}
		return domain.Failed("timeout", err)
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrMalformed):
		return domain.Failed("transport", err)
	default:
		return domain.Failed("transport", fmt.Errorf("%w: %w", domain.ErrTransport, err))
	}
}
