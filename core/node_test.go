package core

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"escrowchain/config"
	"escrowchain/core/events"
	"escrowchain/core/state"
	"escrowchain/native/common"
	"escrowchain/native/escrow"
	"escrowchain/native/registry"
	"escrowchain/storage"
)

var (
	recipient = [20]byte{0x7E}
	alice     = [20]byte{0xA1}
	bob       = [20]byte{0xB0}
	seller    = [20]byte{0x5E}
)

type recorder struct {
	events []events.Event
}

func (r *recorder) Emit(evt events.Event) { r.events = append(r.events, evt) }

func (r *recorder) types() []string {
	out := make([]string, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.EventType())
	}
	return out
}

func newTestNode(t *testing.T, db storage.Database) (*Node, *ManualClock, *recorder) {
	t.Helper()
	node, err := NewNode(db)
	require.NoError(t, err)
	clock := NewManualClock(100)
	node.SetClock(clock)
	rec := new(recorder)
	node.SetEmitter(rec)

	applied, err := node.ApplyGenesis(context.Background(),
		[]config.Token{{Symbol: "ESC", Name: "Escrow Coin", Decimals: 18}},
		[]config.GenesisAllocation{
			{Account: alice, Token: "ESC", Amount: big.NewInt(1_000)},
			{Account: bob, Token: "ESC", Amount: big.NewInt(1_000)},
		})
	require.NoError(t, err)
	require.True(t, applied)
	return node, clock, rec
}

func balanceOf(t *testing.T, node *Node, account [20]byte) int64 {
	t.Helper()
	var bal *big.Int
	require.NoError(t, node.View(context.Background(), func(tx *Tx) error {
		var err error
		bal, err = tx.Bank().Balance("ESC", account)
		return err
	}))
	return bal.Int64()
}

func TestGenesisAppliesOnce(t *testing.T) {
	node, _, _ := newTestNode(t, storage.NewMemDB())
	applied, err := node.ApplyGenesis(context.Background(),
		[]config.Token{{Symbol: "ESC", Name: "Escrow Coin"}},
		[]config.GenesisAllocation{{Account: alice, Token: "ESC", Amount: big.NewInt(5)}})
	require.NoError(t, err)
	require.False(t, applied)
	require.Equal(t, int64(1_000), balanceOf(t, node, alice))
}

func TestExecuteCommitsAndDelivers(t *testing.T) {
	node, clock, rec := newTestNode(t, storage.NewMemDB())
	ctx := context.Background()

	call := Call{Module: "crowdfund", Method: "initialize", Caller: recipient}
	require.NoError(t, node.Execute(ctx, call, func(tx *Tx) error {
		return tx.Crowdfund("launch").Initialize(recipient, 500, big.NewInt(1_500), "ESC")
	}))
	require.NoError(t, node.Execute(ctx, Call{Module: "crowdfund", Method: "deposit", Caller: alice}, func(tx *Tx) error {
		return tx.Crowdfund("launch").Deposit(alice, big.NewInt(400))
	}))
	require.Equal(t, int64(600), balanceOf(t, node, alice))
	require.Contains(t, rec.types(), escrow.EventTypeCrowdfundDeposited)
	require.Contains(t, rec.types(), events.TypeTransfer)

	clock.Set(600)
	require.NoError(t, node.Execute(ctx, Call{Module: "crowdfund", Method: "withdraw", Caller: alice}, func(tx *Tx) error {
		_, err := tx.Crowdfund("launch").Withdraw(alice)
		return err
	}))
	require.Equal(t, int64(1_000), balanceOf(t, node, alice))
}

func TestExecuteDiscardsFailedOperation(t *testing.T) {
	node, _, rec := newTestNode(t, storage.NewMemDB())
	ctx := context.Background()
	require.NoError(t, node.Execute(ctx, Call{Module: "crowdfund", Caller: recipient}, func(tx *Tx) error {
		return tx.Crowdfund("launch").Initialize(recipient, 500, big.NewInt(1_500), "ESC")
	}))
	delivered := len(rec.events)

	boom := errors.New("boom")
	err := node.Execute(ctx, Call{Module: "crowdfund", Method: "deposit", Caller: alice}, func(tx *Tx) error {
		if err := tx.Crowdfund("launch").Deposit(alice, big.NewInt(400)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Len(t, rec.events, delivered)
	require.Equal(t, int64(1_000), balanceOf(t, node, alice))

	require.NoError(t, node.View(ctx, func(tx *Tx) error {
		claim, err := tx.Crowdfund("launch").Balance(alice)
		require.Zero(t, claim.Sign())
		return err
	}))
}

func TestExecuteActsOnlyForCaller(t *testing.T) {
	node, _, _ := newTestNode(t, storage.NewMemDB())
	ctx := context.Background()
	require.NoError(t, node.Execute(ctx, Call{Module: "crowdfund", Caller: recipient}, func(tx *Tx) error {
		return tx.Crowdfund("launch").Initialize(recipient, 500, big.NewInt(1_500), "ESC")
	}))

	err := node.Execute(ctx, Call{Module: "crowdfund", Method: "deposit", Caller: bob}, func(tx *Tx) error {
		return tx.Crowdfund("launch").Deposit(alice, big.NewInt(1))
	})
	require.ErrorIs(t, err, common.ErrUnauthorized)

	err = node.View(ctx, func(tx *Tx) error {
		return tx.Crowdfund("launch").Deposit(alice, big.NewInt(1))
	})
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestExecuteHonoursPauses(t *testing.T) {
	node, _, _ := newTestNode(t, storage.NewMemDB())
	node.SetPauses(common.NewPauseSet([]string{"Auction"}))
	err := node.Execute(context.Background(), Call{Module: "auction", Method: "list", Caller: seller}, func(tx *Tx) error {
		return nil
	})
	require.ErrorIs(t, err, common.ErrModulePaused)
	require.Equal(t, common.KindState, common.KindOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, node.Execute(ctx, Call{Module: "crowdfund"}, func(*Tx) error { return nil }), context.Canceled)
}

func TestAuctionThroughNode(t *testing.T) {
	node, clock, _ := newTestNode(t, storage.NewMemDB())
	ctx := context.Background()

	var tokenID uint64
	require.NoError(t, node.Execute(ctx, Call{Module: "registry", Caller: seller}, func(tx *Tx) error {
		reg := tx.Registry(registry.KindNFT, "art")
		if err := reg.Initialize(seller, "Art", "ART"); err != nil {
			return err
		}
		var err error
		tokenID, err = reg.Mint(seller, "ipfs://art/1")
		return err
	}))
	require.NoError(t, node.Execute(ctx, Call{Module: "auction", Caller: seller}, func(tx *Tx) error {
		a := tx.Auction("house")
		if err := a.Initialize("nft/art", seller, "ESC"); err != nil {
			return err
		}
		_, err := a.List(seller, tokenID, big.NewInt(10), 200)
		return err
	}))
	require.NoError(t, node.Execute(ctx, Call{Module: "auction", Method: "bid", Caller: alice}, func(tx *Tx) error {
		_, err := tx.Auction("house").Bid(alice, tokenID, big.NewInt(50), "ESC")
		return err
	}))

	clock.Set(201)
	require.NoError(t, node.Execute(ctx, Call{Module: "auction", Method: "settle", Caller: bob}, func(tx *Tx) error {
		_, err := tx.Auction("house").Settle(seller, tokenID, "ESC")
		return err
	}))
	require.Equal(t, int64(950), balanceOf(t, node, alice))
	require.Equal(t, int64(50), balanceOf(t, node, seller))
	require.NoError(t, node.View(ctx, func(tx *Tx) error {
		owner, err := tx.Registry(registry.KindNFT, "art").OwnerOf(tokenID)
		require.Equal(t, alice, owner)
		return err
	}))
}

func TestRegistryByName(t *testing.T) {
	node, _, _ := newTestNode(t, storage.NewMemDB())
	require.NoError(t, node.View(context.Background(), func(tx *Tx) error {
		eng, err := tx.RegistryByName("sbt/badges")
		require.NoError(t, err)
		require.Equal(t, registry.KindSBT, eng.Kind())
		_, err = tx.RegistryByName("badges")
		require.ErrorIs(t, err, common.ErrPrecondition)
		_, err = tx.RegistryByName("coin/x")
		require.ErrorIs(t, err, common.ErrPrecondition)
		return nil
	}))
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	db, err := storage.NewLevelDB(path)
	require.NoError(t, err)
	node, _, _ := newTestNode(t, db)
	require.NoError(t, node.Execute(context.Background(), Call{Module: "bank", Caller: alice}, func(tx *Tx) error {
		return tx.Bank().Transfer("ESC", alice, bob, big.NewInt(250))
	}))
	db.Close()

	reopened, err := storage.NewLevelDB(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, state.EnsureStateVersion(reopened, false))
	again, err := NewNode(reopened)
	require.NoError(t, err)
	require.Equal(t, int64(750), balanceOf(t, again, alice))
	require.Equal(t, int64(1_250), balanceOf(t, again, bob))
}

func TestClocks(t *testing.T) {
	manual := NewManualClock(10)
	manual.Set(5)
	require.Equal(t, uint64(10), manual.Now())
	require.Equal(t, uint64(15), manual.Advance(5))

	mono := NewMonotonicClock()
	first := mono.Now()
	require.GreaterOrEqual(t, mono.Now(), first)
}
