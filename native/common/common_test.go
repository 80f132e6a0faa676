package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := map[error]Kind{
		fmt.Errorf("%w: zero amount", ErrPrecondition): KindPrecondition,
		fmt.Errorf("%w: nope", ErrUnauthorized):        KindAuthorization,
		fmt.Errorf("wrapped: %w", ErrModulePaused):      KindState,
		fmt.Errorf("%w: listing", ErrNotFound):          KindNotFound,
		fmt.Errorf("%w: insufficient", ErrTransfer):     KindTransfer,
		errors.New("boom"):                              KindInternal,
	}
	for err, want := range cases {
		require.Equal(t, want, KindOf(err), err.Error())
	}
	require.Equal(t, "not_found", KindNotFound.String())
}

func TestCallerAuth(t *testing.T) {
	alice := [20]byte{1}
	bob := [20]byte{2}
	auth := CallerAuth{Caller: alice}
	require.NoError(t, auth.RequireAuth(alice))
	require.ErrorIs(t, auth.RequireAuth(bob), ErrUnauthorized)
	require.ErrorIs(t, CallerAuth{}.RequireAuth([20]byte{}), ErrUnauthorized)
	require.ErrorIs(t, DenyAll{}.RequireAuth(alice), ErrUnauthorized)
}

func TestGuard(t *testing.T) {
	set := NewPauseSet([]string{" Auction ", ""})
	require.ErrorIs(t, Guard(set, "auction"), ErrModulePaused)
	require.True(t, IsPaused(Guard(set, "AUCTION")))
	require.NoError(t, Guard(set, "crowdfund"))
	require.NoError(t, Guard(nil, "auction"))
	require.NoError(t, Guard(set, ""))
}
