package core

import (
	"fmt"
	"strings"

	"escrowchain/core/events"
	"escrowchain/core/state"
	"escrowchain/native/bank"
	"escrowchain/native/common"
	"escrowchain/native/escrow"
	"escrowchain/native/registry"
)

// Tx is the view one operation gets of the ledger. Every engine it hands out
// shares the same overlay, clock reading, authorizer and event buffer, so the
// operation commits or discards as a unit.
type Tx struct {
	state   *state.Manager
	bank    *bank.Gateway
	emitter events.Emitter
	auth    common.Authorizer
	caller  [20]byte
	now     uint64
}

func newTx(manager *state.Manager, emitter events.Emitter, auth common.Authorizer, caller [20]byte, now uint64) *Tx {
	gateway := bank.NewGateway(manager)
	gateway.SetEmitter(emitter)
	return &Tx{
		state:   manager,
		bank:    gateway,
		emitter: emitter,
		auth:    auth,
		caller:  caller,
		now:     now,
	}
}

// Now is the ledger time fixed for the whole operation.
func (tx *Tx) Now() uint64 { return tx.now }

// Caller is the authenticated identity, zero for views.
func (tx *Tx) Caller() [20]byte { return tx.caller }

// State exposes the operation overlay.
func (tx *Tx) State() *state.Manager { return tx.state }

// Bank returns the value-transfer gateway bound to the overlay.
func (tx *Tx) Bank() *bank.Gateway { return tx.bank }

func (tx *Tx) clock() uint64 { return tx.now }

// Crowdfund returns the controller for the named crowdfunding instance.
func (tx *Tx) Crowdfund(id string) *escrow.Crowdfund {
	cf := escrow.NewCrowdfund(id)
	cf.SetState(tx.state)
	cf.SetBank(tx.bank)
	cf.SetAuthorizer(tx.auth)
	cf.SetEmitter(tx.emitter)
	cf.SetNowFunc(tx.clock)
	return cf
}

// Auction returns the controller for the named auction house.
func (tx *Tx) Auction(id string) *escrow.Auction {
	a := escrow.NewAuction(id)
	a.SetState(tx.state)
	a.SetBank(tx.bank)
	a.SetAuthorizer(tx.auth)
	a.SetEmitter(tx.emitter)
	a.SetNowFunc(tx.clock)
	a.SetRegistryLookup(tx.lookupRegistry)
	return a
}

// Storefront returns the controller for the named storefront.
func (tx *Tx) Storefront(id string) *escrow.Storefront {
	s := escrow.NewStorefront(id)
	s.SetState(tx.state)
	s.SetBank(tx.bank)
	s.SetAuthorizer(tx.auth)
	s.SetEmitter(tx.emitter)
	s.SetNowFunc(tx.clock)
	s.SetRegistryLookup(tx.lookupRegistry)
	return s
}

// Registry returns the custody registry engine for a collection.
func (tx *Tx) Registry(kind registry.Kind, id string) *registry.Engine {
	eng := registry.NewEngine(kind, id)
	eng.SetState(tx.state)
	eng.SetAuthorizer(tx.auth)
	eng.SetEmitter(tx.emitter)
	return eng
}

// RegistryByName resolves "<kind>/<id>" (for example "nft/art").
func (tx *Tx) RegistryByName(name string) (*registry.Engine, error) {
	kindText, id, ok := strings.Cut(strings.TrimSpace(name), "/")
	if !ok || strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: registry name %q must be <kind>/<id>", common.ErrPrecondition, name)
	}
	kind, err := registry.ParseKind(kindText)
	if err != nil {
		return nil, err
	}
	return tx.Registry(kind, id), nil
}

// lookupRegistry backs the market programs. The engine it returns carries no
// caller authority; programs move custody only through TransferCustody.
func (tx *Tx) lookupRegistry(name string) (escrow.CustodyRegistry, error) {
	eng, err := tx.RegistryByName(name)
	if err != nil {
		return nil, err
	}
	eng.SetAuthorizer(common.DenyAll{})
	return eng, nil
}
