package session_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joe_shih/spin-wheel/internal/adapter/remote/mock"
	"github.com/joe_shih/spin-wheel/internal/adapter/store"
	"github.com/joe_shih/spin-wheel/internal/application/session"
	"github.com/joe_shih/spin-wheel/internal/application/signup"
	"github.com/joe_shih/spin-wheel/internal/application/spin"
	"github.com/joe_shih/spin-wheel/internal/domain"
	"github.com/joe_shih/spin-wheel/internal/domain/signaltest"
	"github.com/joe_shih/spin-wheel/pkg/schedule"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const animation = 4 * time.Second

// fixedRNG 永遠回傳同一個數字 (取餘數)
type fixedRNG int

func (r fixedRNG) IntN(n int) int { return int(r) % n }

type fixture struct {
	clock  *schedule.FakeClock
	rec    *signaltest.Recorder
	store  *store.MemoryStore
	remote *mock.Service
	deps   session.Deps
	sess   *session.Session
}

func newFixture(t *testing.T, winPercent int) *fixture {
	t.Helper()
	f := &fixture{
		clock: schedule.NewFakeClock(),
		rec:   &signaltest.Recorder{},
		store: store.NewMemoryStore(),
		// 2 < winPercent 決定輸贏，2 % 6 選中 p3 (₹500)
		remote: mock.NewService(mock.WithRNG(fixedRNG(2)), mock.WithWinPercent(winPercent)),
	}
	f.deps = session.Deps{
		Store:  f.store,
		Remote: f.remote,
		Clock:  f.clock,
		RNG:    fixedRNG(1),
		Settings: session.Settings{
			Animation:  animation,
			ModalDelay: 500 * time.Millisecond,
		},
	}
	f.sess = f.newSession("s1")
	t.Cleanup(f.sess.Close)
	return f
}

func (f *fixture) newSession(id string) *session.Session {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return session.New(id, "device-1", f.deps, f.rec, logger)
}

// spinToRest 送出 spin、等待遠端回應並讓動畫跑完。
func (f *fixture) spinToRest(t *testing.T) {
	t.Helper()
	require.NoError(t, f.sess.Spin(context.Background()))
	f.sess.Wait()
	f.clock.Advance(animation)
	require.Equal(t, spin.StateIdle, f.sess.SpinState())
}

func (f *fixture) lastCard(t *testing.T) domain.PayloadOutcomeCard {
	t.Helper()
	payload, ok := f.rec.Last(domain.ActionOutcomeCard)
	require.True(t, ok)
	return payload.(domain.PayloadOutcomeCard)
}

func TestSession_StartWithoutIdentity(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	require.NoError(t, f.sess.Start(ctx))

	ready, ok := f.rec.Last(domain.ActionSessionReady)
	require.True(t, ok)
	assert.Equal(t, domain.PayloadSessionReady{SessionID: "s1", DeviceToken: "device-1"}, ready)

	prizes, ok := f.rec.Last(domain.ActionPrizes)
	require.True(t, ok)
	assert.Len(t, prizes.(domain.PayloadPrizes).Prizes, len(mock.DefaultPrizes()))
	assert.Equal(t, 0, f.rec.Count(domain.ActionIdentityPrompt))

	f.clock.Advance(time.Second)
	prompt, ok := f.rec.Last(domain.ActionIdentityPrompt)
	require.True(t, ok)
	assert.True(t, prompt.(domain.PayloadIdentityPrompt).Visible)
}

func TestSession_WinFunnel(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	require.NoError(t, f.sess.Start(ctx))

	_, err := f.sess.SubmitVisitorID(ctx, "  abc123 ")
	require.NoError(t, err)
	assert.Equal(t, "abc123", f.sess.Visitor().ID)

	f.spinToRest(t)
	card := f.lastCard(t)
	assert.Equal(t, "win", card.Kind)
	assert.Equal(t, "You won ₹500 in your 99Gift Wallet!", card.Headline)
	assert.Equal(t, "Your prize will be added after signup.", card.Detail)
	assert.True(t, decimal.NewFromInt(500).Equal(f.sess.Visitor().WalletAmount))

	assert.ErrorIs(t, f.sess.Spin(ctx), domain.ErrScreenBusy, "card is still shown")

	require.NoError(t, f.sess.ClaimPrize())
	assert.Equal(t, 1, f.rec.Count(domain.ActionOutcomeCardHidden))
	assert.Equal(t, signup.StateHidden, f.sess.SignupState())

	f.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, signup.StateEditing, f.sess.SignupState())
	assert.ErrorIs(t, f.sess.Spin(ctx), domain.ErrScreenBusy)

	resp, err := f.sess.SubmitSignup(ctx, domain.SignupForm{Name: "Asha", Phone: "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, signup.StateSucceeded, f.sess.SignupState())

	visitor := f.sess.Visitor()
	assert.True(t, visitor.Registered)
	assert.Equal(t, resp.AccountID(), visitor.ID)
	assert.True(t, decimal.NewFromInt(500).Equal(visitor.WalletAmount))

	f.sess.CloseSuccess()
	assert.Equal(t, signup.StateHidden, f.sess.SignupState())
	assert.NoError(t, f.sess.Spin(ctx))
	f.sess.Wait()
}

func TestSession_LoseCardRestartsFunnel(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	require.NoError(t, f.sess.Start(ctx))
	_, err := f.sess.SubmitVisitorID(ctx, "abc123")
	require.NoError(t, err)

	f.spinToRest(t)
	assert.Equal(t, "lose", f.lastCard(t).Kind)

	require.NoError(t, f.sess.CloseCard(ctx))
	assert.False(t, f.sess.Visitor().HasIdentity())
	_, found, err := f.store.Get(ctx, "device-1:visitorId")
	require.NoError(t, err)
	assert.False(t, found)

	prompt, ok := f.rec.Last(domain.ActionIdentityPrompt)
	require.True(t, ok)
	assert.True(t, prompt.(domain.PayloadIdentityPrompt).Visible)
}

func TestSession_SpinWithoutIdentityBlocks(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	require.NoError(t, f.sess.Start(ctx))

	assert.ErrorIs(t, f.sess.Spin(ctx), domain.ErrIdentityRequired)
	assert.Equal(t, spin.StateBlocked, f.sess.SpinState())

	_, err := f.sess.SubmitVisitorID(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, spin.StateIdle, f.sess.SpinState())
}

func TestSession_ClaimWithoutWinCard(t *testing.T) {
	f := newFixture(t, 0)
	require.NoError(t, f.sess.Start(context.Background()))

	assert.ErrorIs(t, f.sess.ClaimPrize(), domain.ErrScreenBusy)
}

func TestSession_CloseSignupCancelsPendingForm(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	require.NoError(t, f.sess.Start(ctx))
	_, err := f.sess.SubmitVisitorID(ctx, "abc123")
	require.NoError(t, err)
	f.spinToRest(t)

	require.NoError(t, f.sess.ClaimPrize())
	require.NoError(t, f.sess.CloseSignup())
	f.clock.Advance(time.Second)
	assert.Equal(t, signup.StateHidden, f.sess.SignupState())
}

func TestSession_RestoresStoredIdentity(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	require.NoError(t, f.sess.Start(ctx))
	_, err := f.sess.SubmitVisitorID(ctx, "abc123")
	require.NoError(t, err)
	f.sess.Close()

	reloaded := f.newSession("s2")
	defer reloaded.Close()
	require.NoError(t, reloaded.Start(ctx))
	assert.Equal(t, "abc123", reloaded.Visitor().ID)
}

func TestSession_Reset(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	require.NoError(t, f.sess.Start(ctx))
	_, err := f.sess.SubmitVisitorID(ctx, "abc123")
	require.NoError(t, err)
	f.spinToRest(t)

	require.NoError(t, f.sess.Reset(ctx))
	assert.False(t, f.sess.Visitor().HasIdentity())
	assert.Equal(t, spin.StateIdle, f.sess.SpinState())
	assert.Equal(t, signup.StateHidden, f.sess.SignupState())
	assert.Equal(t, 1, f.rec.Count(domain.ActionOutcomeCardHidden))
	assert.ErrorIs(t, f.sess.ClaimPrize(), domain.ErrScreenBusy)
}

func TestSession_CloseStopsTimers(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	require.NoError(t, f.sess.Start(ctx))

	f.sess.Close()
	f.clock.Advance(2 * time.Second)

	assert.Equal(t, 0, f.rec.Count(domain.ActionIdentityPrompt))
	assert.ErrorIs(t, f.sess.Spin(ctx), domain.ErrSessionClosed)
	assert.ErrorIs(t, f.sess.Start(ctx), domain.ErrSessionClosed)
}

func TestSession_SpinRefusedBeforeSignupOpens(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	require.NoError(t, f.sess.Start(ctx))
	_, err := f.sess.SubmitVisitorID(ctx, "abc123")
	require.NoError(t, err)
	f.spinToRest(t)

	require.NoError(t, f.sess.ClaimPrize())
	f.clock.Advance(200 * time.Millisecond)
	assert.ErrorIs(t, f.sess.Spin(ctx), domain.ErrScreenBusy, "signup form is about to open")
	assert.Equal(t, spin.StateIdle, f.sess.SpinState())

	f.clock.Advance(300 * time.Millisecond)
	assert.Equal(t, signup.StateEditing, f.sess.SignupState())
	assert.Equal(t, spin.StateIdle, f.sess.SpinState())
	assert.Equal(t, 1, f.rec.Count(domain.ActionOutcomeCard))
}

func TestSession_SuccessModalFollowsDelay(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()
	require.NoError(t, f.sess.Start(ctx))
	_, err := f.sess.SubmitVisitorID(ctx, "abc123")
	require.NoError(t, err)
	f.spinToRest(t)
	require.NoError(t, f.sess.ClaimPrize())
	f.clock.Advance(500 * time.Millisecond)

	_, err = f.sess.SubmitSignup(ctx, domain.SignupForm{Name: "Asha", Phone: "9876543210"})
	require.NoError(t, err)
	modal, ok := f.rec.Last(domain.ActionSuccessModal)
	assert.False(t, ok && modal.(domain.PayloadSuccessModal).Visible)

	f.clock.Advance(500 * time.Millisecond)
	modal, ok = f.rec.Last(domain.ActionSuccessModal)
	require.True(t, ok)
	assert.True(t, modal.(domain.PayloadSuccessModal).Visible)
}
