package escrow

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"escrowchain/native/common"
	"escrowchain/native/registry"
)

const expiration = 1_000

func list(h *harness, a *Auction, from [20]byte, id uint64, reserve int64) error {
	return h.apply(func() error {
		_, err := a.List(from, id, big.NewInt(reserve), expiration)
		return err
	})
}

func bid(h *harness, a *Auction, from [20]byte, id uint64, amount int64) error {
	return h.apply(func() error {
		_, err := a.Bid(from, id, big.NewInt(amount), testToken)
		return err
	})
}

func settle(h *harness, a *Auction, seller [20]byte, id uint64) (Phase, error) {
	var outcome Phase
	err := h.apply(func() error {
		var err error
		outcome, err = a.Settle(seller, id, testToken)
		return err
	})
	return outcome, err
}

func newAuction(t *testing.T) (*harness, *registry.Engine, *Auction, uint64) {
	t.Helper()
	h := newHarness(t)
	reg := h.registry()
	a := h.auction(reg)
	id := h.mint(reg, owner)
	return h, reg, a, id
}

func requireHolder(t *testing.T, reg *registry.Engine, id uint64, want [20]byte) {
	t.Helper()
	got, err := reg.OwnerOf(id)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAuctionOutbidRefundsAndSettles(t *testing.T) {
	h, reg, a, id := newAuction(t)
	require.NoError(t, list(h, a, owner, id, 100))
	require.Equal(t, EventTypeAuctionListed, h.lastEventType())

	require.NoError(t, bid(h, a, alice, id, 150))
	h.requireBalance(a.Account(), 150)

	err := bid(h, a, bob, id, 120)
	require.ErrorIs(t, err, ErrBidTooLow)
	require.ErrorIs(t, err, common.ErrState)
	h.requireBalance(a.Account(), 150)

	require.NoError(t, bid(h, a, bob, id, 200))
	h.requireBalance(alice, 10_000)
	h.requireBalance(bob, 9_800)
	h.requireBalance(a.Account(), 200)
	require.Equal(t, EventTypeAuctionBid, h.lastEventType())

	listing, err := a.Listing(id)
	require.NoError(t, err)
	require.Equal(t, bob, listing.Highest.Bidder)
	require.Len(t, listing.Bids, 2)
	require.Equal(t, bob, listing.Bids[0].Bidder)
	require.Equal(t, alice, listing.Bids[1].Bidder)

	h.now = expiration + 1
	outcome, err := settle(h, a, owner, id)
	require.NoError(t, err)
	require.Equal(t, PhaseSucceeded, outcome)
	h.requireBalance(owner, 10_200)
	h.requireBalance(a.Account(), 0)
	requireHolder(t, reg, id, bob)
	require.Equal(t, EventTypeAuctionSettled, h.lastEventType())

	_, err = a.Listing(id)
	require.ErrorIs(t, err, ErrListingNotFound)
	phase, err := a.Phase(id)
	require.NoError(t, err)
	require.Equal(t, PhaseUnlisted, phase)
}

func TestAuctionDelistBeforeBids(t *testing.T) {
	h, reg, a, id := newAuction(t)
	require.NoError(t, list(h, a, owner, id, 100))

	require.NoError(t, h.apply(func() error { return a.Delist(owner, id, testToken) }))
	h.requireBalance(a.Account(), 0)
	h.requireBalance(owner, 10_000)
	requireHolder(t, reg, id, owner)
	_, err := a.Listing(id)
	require.ErrorIs(t, err, ErrListingNotFound)
	require.Equal(t, EventTypeAuctionDelisted, h.lastEventType())

	// The asset can be listed again once delisted.
	require.NoError(t, list(h, a, owner, id, 100))
}

func TestAuctionAdminDelistRefundsBidder(t *testing.T) {
	h, reg, a, id := newAuction(t)
	require.NoError(t, list(h, a, owner, id, 100))
	require.NoError(t, bid(h, a, alice, id, 300))

	err := h.apply(func() error { return a.Delist(stranger, id, testToken) })
	require.ErrorIs(t, err, ErrOwnerOrAdmin)

	require.NoError(t, h.apply(func() error { return a.Delist(admin, id, testToken) }))
	h.requireBalance(alice, 10_000)
	h.requireBalance(a.Account(), 0)
	requireHolder(t, reg, id, owner)
	escrowed, err := a.Escrowed(id)
	require.NoError(t, err)
	require.Zero(t, escrowed.Sign())

	err = h.apply(func() error { return a.Delist(admin, id, testToken) })
	require.ErrorIs(t, err, ErrListingNotFound)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestAuctionListRules(t *testing.T) {
	h, reg, a, id := newAuction(t)

	require.ErrorIs(t, list(h, a, alice, id, 100), ErrNotAssetOwner)
	require.ErrorIs(t, list(h, a, owner, 0, 100), ErrZeroAssetID)
	require.ErrorIs(t, list(h, a, a.Account(), id, 100), ErrProgramAccount)
	err := h.apply(func() error {
		_, err := a.List(owner, id, big.NewInt(1), h.now)
		return err
	})
	require.ErrorIs(t, err, ErrInvalidExpiration)

	require.NoError(t, list(h, a, owner, id, 100))
	require.ErrorIs(t, list(h, a, owner, id, 100), ErrAlreadyListed)

	other := h.mint(reg, alice)
	a.SetAuthorizer(common.CallerAuth{Caller: owner})
	require.ErrorIs(t, list(h, a, alice, other, 10), common.ErrUnauthorized)
}

func TestAuctionBidRules(t *testing.T) {
	h, _, a, id := newAuction(t)
	require.ErrorIs(t, bid(h, a, alice, id, 150), ErrListingNotFound)
	require.NoError(t, list(h, a, owner, id, 100))

	require.ErrorIs(t, bid(h, a, owner, id, 150), ErrOwnerBid)
	require.ErrorIs(t, bid(h, a, a.Account(), id, 150), ErrProgramAccount)
	require.ErrorIs(t, bid(h, a, alice, 0, 150), ErrZeroAssetID)
	require.ErrorIs(t, bid(h, a, alice, id, 50), ErrBelowReserve)
	err := h.apply(func() error {
		_, err := a.Bid(alice, id, big.NewInt(150), "OTHER")
		return err
	})
	require.ErrorIs(t, err, ErrTokenMismatch)

	h.now = expiration
	require.NoError(t, bid(h, a, alice, id, 150))
	h.now = expiration + 1
	require.ErrorIs(t, bid(h, a, bob, id, 500), ErrAuctionExpired)
}

func TestAuctionFailedPullRestoresPreviousBid(t *testing.T) {
	h, _, a, id := newAuction(t)
	require.NoError(t, list(h, a, owner, id, 10))
	require.NoError(t, bid(h, a, alice, id, 50))

	err := bid(h, a, dave, id, 500)
	require.ErrorIs(t, err, common.ErrTransfer)

	listing, err := a.Listing(id)
	require.NoError(t, err)
	require.Equal(t, alice, listing.Highest.Bidder)
	require.Equal(t, int64(50), listing.Highest.Price.Int64())
	h.requireBalance(alice, 9_950)
	h.requireBalance(dave, 100)
	h.requireBalance(a.Account(), 50)
	escrowed, err := a.Escrowed(id)
	require.NoError(t, err)
	require.Equal(t, int64(50), escrowed.Int64())
}

func TestAuctionSettleRules(t *testing.T) {
	h, reg, a, id := newAuction(t)
	require.NoError(t, list(h, a, owner, id, 10))

	_, err := settle(h, a, owner, id)
	require.ErrorIs(t, err, ErrAuctionRunning)

	h.now = expiration
	_, err = settle(h, a, alice, id)
	require.ErrorIs(t, err, ErrListingOwnerMismatch)

	outcome, err := settle(h, a, owner, id)
	require.NoError(t, err)
	require.Equal(t, PhaseExpired, outcome)
	requireHolder(t, reg, id, owner)
	h.requireBalance(owner, 10_000)

	_, err = settle(h, a, owner, id)
	require.ErrorIs(t, err, ErrListingNotFound)
}

func TestAuctionInitializeOnce(t *testing.T) {
	h, _, a, _ := newAuction(t)
	err := h.apply(func() error { return a.Initialize("other", alice, testToken) })
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	cfg, err := a.Config()
	require.NoError(t, err)
	require.Equal(t, "art", cfg.Registry)
	require.Equal(t, admin, cfg.Admin)
	require.Equal(t, testToken, cfg.Token)

	fresh := NewAuction("empty")
	fresh.SetState(h.state)
	fresh.SetBank(h.bank)
	fresh.SetRegistryLookup(a.registries)
	require.ErrorIs(t, fresh.Initialize("", admin, testToken), ErrRegistryRequired)
	require.ErrorIs(t, fresh.Initialize("missing", admin, testToken), common.ErrNotFound)
	require.ErrorIs(t, fresh.Initialize("art", admin, "NOPE"), ErrUnsupportedToken)
	_, err = fresh.Listing(1)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestMarketsRejectSoulBoundRegistry(t *testing.T) {
	h := newHarness(t)
	badges := registry.NewEngine(registry.KindSBT, "badges")
	badges.SetState(h.state)
	badges.SetAuthorizer(allowAll)
	require.NoError(t, h.apply(func() error { return badges.Initialize(admin, "Badges", "BDG") }))

	a := NewAuction("house")
	a.SetState(h.state)
	a.SetBank(h.bank)
	a.SetAuthorizer(allowAll)
	a.SetEmitter(h.events)
	a.SetNowFunc(h.clock)
	a.SetRegistryLookup(lookupFor(badges))
	err := h.apply(func() error { return a.Initialize("badges", admin, testToken) })
	require.ErrorIs(t, err, ErrRegistryNotTransferable)
	require.ErrorIs(t, err, common.ErrPrecondition)
	_, err = a.Config()
	require.ErrorIs(t, err, ErrNotInitialized)

	s := NewStorefront("shop")
	s.SetState(h.state)
	s.SetBank(h.bank)
	s.SetAuthorizer(allowAll)
	s.SetRegistryLookup(lookupFor(badges))
	err = h.apply(func() error { return s.Initialize("badges", admin, testToken) })
	require.ErrorIs(t, err, ErrRegistryNotTransferable)
}

// Every accepted bid strictly exceeds the previous highest, and custody
// always equals the single live claim of the highest bidder.
func TestAuctionBidMonotonicityAndConservation(t *testing.T) {
	h, _, a, id := newAuction(t)
	require.NoError(t, list(h, a, owner, id, 1))
	rng := rand.New(rand.NewSource(11))
	bidders := [][20]byte{alice, bob, carol}

	highest := int64(0)
	for i := 0; i < 60; i++ {
		from := bidders[rng.Intn(len(bidders))]
		amount := int64(rng.Intn(3_000) + 1)
		err := bid(h, a, from, id, amount)
		if amount <= highest {
			require.ErrorIs(t, err, ErrBidTooLow)
		} else if err == nil {
			highest = amount
		} else {
			require.ErrorIs(t, err, common.ErrTransfer)
		}

		custody := h.balance(a.Account())
		escrowed, err := a.Escrowed(id)
		require.NoError(t, err)
		require.Equal(t, custody.String(), escrowed.String())
		require.Equal(t, highest, custody.Int64())
	}

	listing, err := a.Listing(id)
	require.NoError(t, err)
	for i := 1; i < len(listing.Bids); i++ {
		require.Equal(t, 1, listing.Bids[i-1].Price.Cmp(listing.Bids[i].Price))
	}

	total := new(big.Int)
	for _, acct := range append(bidders, owner) {
		total.Add(total, h.balance(acct))
	}
	total.Add(total, h.balance(a.Account()))
	require.Equal(t, int64(40_000), total.Int64())
}
