package escrow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"escrowchain/native/common"
)

func TestStorefrontPurchase(t *testing.T) {
	h := newHarness(t)
	reg := h.registry()
	s := h.storefront(reg)
	id := h.mint(reg, owner)

	require.NoError(t, h.apply(func() error {
		_, err := s.List(owner, id, big.NewInt(750))
		return err
	}))
	require.Equal(t, EventTypeStorefrontListed, h.lastEventType())

	err := h.apply(func() error { return s.Purchase(owner, owner, id, testToken) })
	require.ErrorIs(t, err, ErrOwnerPurchase)
	err = h.apply(func() error { return s.Purchase(owner, dave, id, testToken) })
	require.ErrorIs(t, err, common.ErrTransfer)
	listing, err := s.Listing(id)
	require.NoError(t, err)
	require.Equal(t, int64(750), listing.Price.Int64())
	requireHolder(t, reg, id, owner)

	require.NoError(t, h.apply(func() error { return s.Purchase(owner, alice, id, testToken) }))
	h.requireBalance(alice, 9_250)
	h.requireBalance(owner, 10_750)
	h.requireBalance(s.Account(), 0)
	requireHolder(t, reg, id, alice)
	require.Equal(t, EventTypeStorefrontSold, h.lastEventType())

	_, err = s.Listing(id)
	require.ErrorIs(t, err, ErrListingNotFound)
}

func TestStorefrontListAndDelist(t *testing.T) {
	h := newHarness(t)
	reg := h.registry()
	s := h.storefront(reg)
	id := h.mint(reg, owner)

	listAt := func(from [20]byte, tokenID uint64, price int64) error {
		return h.apply(func() error {
			_, err := s.List(from, tokenID, big.NewInt(price))
			return err
		})
	}
	require.ErrorIs(t, listAt(owner, id, 0), ErrAmountNotPositive)
	require.ErrorIs(t, listAt(bob, id, 10), ErrNotAssetOwner)
	require.ErrorIs(t, listAt(owner, 0, 10), ErrZeroAssetID)
	require.NoError(t, listAt(owner, id, 10))
	require.ErrorIs(t, listAt(owner, id, 10), ErrAlreadyListed)

	err := h.apply(func() error { return s.Delist(bob, id) })
	require.ErrorIs(t, err, ErrOwnerOrAdmin)
	require.NoError(t, h.apply(func() error { return s.Delist(admin, id) }))
	require.Equal(t, EventTypeStorefrontDelisted, h.lastEventType())

	err = h.apply(func() error { return s.Purchase(owner, alice, id, testToken) })
	require.ErrorIs(t, err, ErrListingNotFound)
	requireHolder(t, reg, id, owner)
}

func TestStorefrontRejectsStaleOwner(t *testing.T) {
	h := newHarness(t)
	reg := h.registry()
	s := h.storefront(reg)
	id := h.mint(reg, owner)
	require.NoError(t, h.apply(func() error {
		_, err := s.List(owner, id, big.NewInt(10))
		return err
	}))

	// Custody moved outside the storefront; the listing can no longer settle.
	require.NoError(t, h.apply(func() error { return reg.Transfer(owner, carol, id) }))
	err := h.apply(func() error { return s.Purchase(owner, alice, id, testToken) })
	require.ErrorIs(t, err, ErrNotAssetOwner)
	h.requireBalance(alice, 10_000)

	err = h.apply(func() error { return s.Purchase(owner, alice, id, "OTHER") })
	require.ErrorIs(t, err, ErrTokenMismatch)
}
