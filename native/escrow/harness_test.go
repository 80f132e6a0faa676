package escrow

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"escrowchain/core/events"
	"escrowchain/core/state"
	"escrowchain/native/bank"
	"escrowchain/native/common"
	"escrowchain/native/registry"
	"escrowchain/storage"
)

const testToken = "ESC"

var (
	admin     = [20]byte{0xAD}
	owner     = [20]byte{0x0E}
	recipient = [20]byte{0x7E}
	alice     = [20]byte{0xA1}
	bob       = [20]byte{0xB0}
	carol     = [20]byte{0xC0}
	dave      = [20]byte{0xDA}
	stranger  = [20]byte{0x5A}
)

var allowAll = common.AuthorizerFunc(func([20]byte) error { return nil })

// harness mimics the host: a shared overlay committed after every successful
// operation and discarded after every failed one.
type harness struct {
	t      *testing.T
	state  *state.Manager
	bank   *bank.Gateway
	events *events.Buffer
	now    uint64

	// emitted collects events flushed by committed operations.
	emitted []events.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := state.NewManager(storage.NewMemDB())
	require.NoError(t, st.RegisterToken(testToken, "Escrow Coin", 18))
	gw := bank.NewGateway(st)
	for _, acct := range [][20]byte{admin, owner, recipient, alice, bob, carol, stranger} {
		require.NoError(t, gw.Credit(testToken, acct, big.NewInt(10_000)))
	}
	require.NoError(t, gw.Credit(testToken, dave, big.NewInt(100)))
	require.NoError(t, st.Commit())
	return &harness{t: t, state: st, bank: gw, events: new(events.Buffer), now: 100}
}

func (h *harness) clock() uint64 { return h.now }

func (h *harness) apply(fn func() error) error {
	h.t.Helper()
	if err := fn(); err != nil {
		h.state.Discard()
		h.events.Discard()
		return err
	}
	require.NoError(h.t, h.state.Commit())
	h.events.Flush(events.EmitterFunc(func(evt events.Event) {
		h.emitted = append(h.emitted, evt)
	}))
	return nil
}

func (h *harness) balance(account [20]byte) *big.Int {
	h.t.Helper()
	bal, err := h.bank.Balance(testToken, account)
	require.NoError(h.t, err)
	return bal
}

func (h *harness) requireBalance(account [20]byte, want int64) {
	h.t.Helper()
	require.Equal(h.t, big.NewInt(want).String(), h.balance(account).String())
}

func (h *harness) lastEventType() string {
	h.t.Helper()
	require.NotEmpty(h.t, h.emitted)
	return h.emitted[len(h.emitted)-1].EventType()
}

func (h *harness) crowdfund(id string, deadline uint64, target int64) *Crowdfund {
	h.t.Helper()
	cf := NewCrowdfund(id)
	cf.SetState(h.state)
	cf.SetBank(h.bank)
	cf.SetAuthorizer(allowAll)
	cf.SetEmitter(h.events)
	cf.SetNowFunc(h.clock)
	require.NoError(h.t, h.apply(func() error {
		return cf.Initialize(recipient, deadline, big.NewInt(target), testToken)
	}))
	return cf
}

func (h *harness) registry() *registry.Engine {
	h.t.Helper()
	reg := registry.NewEngine(registry.KindNFT, "art")
	reg.SetState(h.state)
	reg.SetAuthorizer(allowAll)
	require.NoError(h.t, h.apply(func() error { return reg.Initialize(admin, "Art", "ART") }))
	return reg
}

func (h *harness) mint(reg *registry.Engine, to [20]byte) uint64 {
	h.t.Helper()
	var id uint64
	require.NoError(h.t, h.apply(func() error {
		var err error
		id, err = reg.Mint(to, fmt.Sprintf("ipfs://%x", to[:1]))
		return err
	}))
	return id
}

func lookupFor(reg *registry.Engine) RegistryLookup {
	return func(id string) (CustodyRegistry, error) {
		if id != reg.ID() {
			return nil, fmt.Errorf("%w: registry %q", common.ErrNotFound, id)
		}
		return reg, nil
	}
}

func (h *harness) auction(reg *registry.Engine) *Auction {
	h.t.Helper()
	a := NewAuction("house")
	a.SetState(h.state)
	a.SetBank(h.bank)
	a.SetAuthorizer(allowAll)
	a.SetEmitter(h.events)
	a.SetNowFunc(h.clock)
	a.SetRegistryLookup(lookupFor(reg))
	require.NoError(h.t, h.apply(func() error { return a.Initialize(reg.ID(), admin, testToken) }))
	return a
}

func (h *harness) storefront(reg *registry.Engine) *Storefront {
	h.t.Helper()
	s := NewStorefront("shop")
	s.SetState(h.state)
	s.SetBank(h.bank)
	s.SetAuthorizer(allowAll)
	s.SetEmitter(h.events)
	s.SetNowFunc(h.clock)
	s.SetRegistryLookup(lookupFor(reg))
	require.NoError(h.t, h.apply(func() error { return s.Initialize(reg.ID(), admin, testToken) }))
	return s
}
