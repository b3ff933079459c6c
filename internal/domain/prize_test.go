package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCatalog_IndexOf(t *testing.T) {
	catalog := Catalog{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}

	assert.Equal(t, 0, catalog.IndexOf("p1"))
	assert.Equal(t, 2, catalog.IndexOf("p3"))
	assert.Equal(t, -1, catalog.IndexOf("missing"))
	assert.Equal(t, -1, Catalog(nil).IndexOf("p1"))
}

func TestParseValueAmount(t *testing.T) {
	tests := []struct {
		value string
		want  int64
	}{
		{"₹500", 500},
		{"Rs. 1,000 voucher", 1000},
		{"Free coffee", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.True(t, decimal.NewFromInt(tt.want).Equal(ParseValueAmount(tt.value)))
		})
	}
}

func TestSignupResponse_Duplicate(t *testing.T) {
	assert.True(t, SignupResponse{StatusCode: 409}.Duplicate())
	assert.True(t, SignupResponse{Code: "user_exists"}.Duplicate())
	assert.False(t, SignupResponse{StatusCode: 400, Code: "INVALID_EMAIL"}.Duplicate())
}

func TestSignupResponse_AccountID(t *testing.T) {
	assert.Equal(t, "u1", SignupResponse{UserID: "u1", Data: &AccountStats{ID: "u2"}}.AccountID())
	assert.Equal(t, "u2", SignupResponse{Data: &AccountStats{ID: "u2"}}.AccountID())
	assert.Equal(t, "", SignupResponse{}.AccountID())
}

func TestSpinResult_Tag(t *testing.T) {
	assert.Equal(t, "win", SpinResult{Result: "win", Status: "lose"}.Tag())
	assert.Equal(t, "limit", SpinResult{Status: "limit"}.Tag())
}
