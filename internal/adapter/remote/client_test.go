package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/v1/", "secret", time.Second)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestClient_PrizesArray(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1"+PathPrizes, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `[{"_id":"p1","name":"Voucher","value":"₹100"},{"id":"p2","name":"Coupon","value":"₹200","walletAmount":200}]`)
	})

	catalog, err := c.Prizes(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, "p1", catalog[0].ID)
	assert.Equal(t, "₹100", catalog[0].Value)
	assert.False(t, catalog[0].WalletAmount.Valid)
	assert.Equal(t, "p2", catalog[1].ID)
	assert.True(t, decimal.NewFromInt(200).Equal(catalog[1].WalletAmount.Decimal))
}

func TestClient_PrizesKeyedKeepsDocumentOrder(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"zeta":{"_id":"p9","name":"Z"},"alpha":{"name":"A"},"mid":{"id":"p5","name":"M"}}`)
	})

	catalog, err := c.Prizes(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 3)
	assert.Equal(t, []string{"p9", "alpha", "p5"}, []string{catalog[0].ID, catalog[1].ID, catalog[2].ID})
}

func TestClient_PrizesWrapped(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":[{"_id":"p1"}]}`)
	})

	catalog, err := c.Prizes(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "p1", catalog[0].ID)
}

func TestClient_PrizesMalformed(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `"nope"`)
	})

	_, err := c.Prizes(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformed)
}

func TestClient_PrizesServerError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, `{}`)
	})

	_, err := c.Prizes(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_RegisterVisitor(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "abc123", body["visitorId"])
		writeJSON(w, http.StatusOK, `{"walletAmount":250.5,"message":"welcome back"}`)
	})

	info, err := c.RegisterVisitor(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("250.5").Equal(info.WalletAmount))
	assert.Equal(t, "welcome back", info.Message)
}

func TestClient_Spin(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, res domain.SpinResult)
	}{
		{
			name:   "win with mongo id",
			status: http.StatusOK,
			body:   `{"status":"win","prize":{"_id":"p3","value":"₹500"},"walletAmount":500}`,
			check: func(t *testing.T, res domain.SpinResult) {
				assert.Equal(t, "win", res.Tag())
				require.NotNil(t, res.Prize)
				assert.Equal(t, "p3", res.Prize.ID)
				assert.True(t, decimal.NewFromInt(500).Equal(res.WalletAmount.Decimal))
			},
		},
		{
			name:   "lose",
			status: http.StatusOK,
			body:   `{"result":"lose"}`,
			check: func(t *testing.T, res domain.SpinResult) {
				assert.Equal(t, "lose", res.Tag())
				assert.Nil(t, res.Prize)
			},
		},
		{
			name:   "limit as 429",
			status: http.StatusTooManyRequests,
			body:   `{"status":"limit","message":"Daily limit reached"}`,
			check: func(t *testing.T, res domain.SpinResult) {
				assert.Equal(t, "limit", res.Tag())
				assert.Equal(t, "Daily limit reached", res.Message)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1"+PathSpin, r.URL.Path)
				writeJSON(w, tt.status, tt.body)
			})
			res, err := c.Spin(context.Background(), "abc123")
			require.NoError(t, err)
			tt.check(t, res)
		})
	}
}

func TestClient_SpinTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Spin(ctx, "abc123")
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestClient_SpinUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", time.Second)
	_, err := c.Spin(context.Background(), "abc123")
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestClient_Signup(t *testing.T) {
	var got domain.SignupPayload
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, `{"success":true,"data":{"id":"acc-1","walletAmount":500,"totalWins":1,"totalLoses":0}}`)
	})

	resp, err := c.Signup(context.Background(), domain.SignupPayload{
		Name:         "Asha",
		Mobile:       "9876543210",
		VisitorID:    "abc123",
		WalletAmount: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "acc-1", resp.AccountID())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "9876543210", got.Mobile)
	assert.Equal(t, "abc123", got.VisitorID)
}

func TestClient_SignupDuplicate(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"success":true,"message":"User already exists"}`)
	})

	resp, err := c.Signup(context.Background(), domain.SignupPayload{})
	require.NoError(t, err)
	assert.False(t, resp.Success, "error statuses never count as success")
	assert.True(t, resp.Duplicate())
	assert.Equal(t, "User already exists", resp.Message)
}
