package spin

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInterpret_WalletAmountPrecedence(t *testing.T) {
	catalog := domain.Catalog{{ID: "p1", Value: "₹500"}}
	amount := func(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }

	tests := []struct {
		name string
		raw  domain.SpinResult
		want int64
	}{
		{
			name: "prize wallet amount",
			raw:  domain.SpinResult{Result: "win", Prize: &domain.Prize{ID: "p1", WalletAmount: amount(700)}, WalletAmount: amount(800)},
			want: 700,
		},
		{
			name: "top level wallet amount",
			raw:  domain.SpinResult{Result: "win", Prize: &domain.Prize{ID: "p1"}, WalletAmount: amount(800)},
			want: 800,
		},
		{
			name: "parsed from response value",
			raw:  domain.SpinResult{Result: "win", Prize: &domain.Prize{ID: "p1", Value: "₹250"}},
			want: 250,
		},
		{
			name: "parsed from catalog value",
			raw:  domain.SpinResult{Status: "WIN", Prize: &domain.Prize{ID: "p1"}},
			want: 500,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Interpret(tt.raw, catalog)
			assert.Equal(t, domain.OutcomeWin, outcome.Kind)
			assert.Equal(t, "p1", outcome.Prize.ID)
			assert.True(t, decimal.NewFromInt(tt.want).Equal(outcome.WalletAmount), "got %s", outcome.WalletAmount)
		})
	}
}

func TestInterpret_Shapes(t *testing.T) {
	catalog := domain.Catalog{{ID: "p1"}}

	assert.Equal(t, domain.OutcomeLose, Interpret(domain.SpinResult{Result: "lose"}, catalog).Kind)

	limited := Interpret(domain.SpinResult{Status: "limit", Message: "come back tomorrow"}, catalog)
	assert.Equal(t, domain.OutcomeRateLimited, limited.Kind)
	assert.Equal(t, "come back tomorrow", limited.Message)

	assert.ErrorIs(t, Interpret(domain.SpinResult{Result: "win"}, catalog).Err, domain.ErrMalformed)
	assert.ErrorIs(t, Interpret(domain.SpinResult{Result: "win", Prize: &domain.Prize{ID: "zz"}}, catalog).Err, domain.ErrPrizeNotInCatalog)
	assert.ErrorIs(t, Interpret(domain.SpinResult{Result: "jackpot"}, catalog).Err, domain.ErrMalformed)
	assert.ErrorIs(t, Interpret(domain.SpinResult{}, catalog).Err, domain.ErrMalformed)
	assert.ErrorIs(t, Interpret(domain.SpinResult{Status: "error", Message: "x"}, catalog).Err, domain.ErrSpinRejected)
}

func TestClassifyError(t *testing.T) {
	assert.ErrorIs(t, classifyError(context.DeadlineExceeded).Err, domain.ErrTimeout)
	assert.ErrorIs(t, classifyError(fmt.Errorf("%w: slow", domain.ErrTimeout)).Err, domain.ErrTimeout)
	assert.ErrorIs(t, classifyError(errors.New("boom")).Err, domain.ErrTransport)
	assert.ErrorIs(t, classifyError(domain.ErrTransport).Err, domain.ErrTransport)
	assert.Equal(t, domain.OutcomeFailed, classifyError(errors.New("boom")).Kind)
}
