package escrow

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"escrowchain/core/events"
	"escrowchain/core/types"
	"escrowchain/crypto"
	"escrowchain/native/common"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVAppend(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

type valueGateway interface {
	Supports(token string) bool
	Balance(token string, account [20]byte) (*big.Int, error)
	Transfer(token string, from, to [20]byte, amount *big.Int) error
}

// CustodyRegistry is the asset custody surface the market programs depend on.
type CustodyRegistry interface {
	IsOwner(account [20]byte, tokenID uint64) (bool, error)
	TransferCustody(from, to [20]byte, tokenID uint64) error
	// Transferable reports whether custody of the registry's assets can move.
	Transferable() bool
}

// RegistryLookup resolves the registry named in a market configuration.
type RegistryLookup func(id string) (CustodyRegistry, error)

type programEvent struct {
	evt *types.Event
}

func (p programEvent) EventType() string {
	if p.evt == nil {
		return ""
	}
	return p.evt.Type
}

func (p programEvent) Event() *types.Event { return p.evt }

// program carries the collaborators shared by every lifecycle controller.
type program struct {
	kind    string
	id      string
	state   engineState
	bank    valueGateway
	auth    common.Authorizer
	emitter events.Emitter
	nowFn   func() uint64
}

func newProgram(kind, id string) program {
	return program{
		kind:    kind,
		id:      strings.TrimSpace(id),
		auth:    common.DenyAll{},
		emitter: events.NoopEmitter{},
		nowFn:   wallClock,
	}
}

func wallClock() uint64 { return uint64(time.Now().Unix()) }

// SetState configures the state backend used by the program.
func (p *program) SetState(state engineState) { p.state = state }

// SetBank configures the value-transfer gateway.
func (p *program) SetBank(bank valueGateway) { p.bank = bank }

// SetAuthorizer configures the capability check applied to acting accounts.
func (p *program) SetAuthorizer(auth common.Authorizer) {
	if auth == nil {
		p.auth = common.DenyAll{}
		return
	}
	p.auth = auth
}

// SetEmitter configures the event emitter used by the program. Passing nil
// resets the emitter to a no-op implementation.
func (p *program) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		p.emitter = events.NoopEmitter{}
		return
	}
	p.emitter = emitter
}

// SetNowFunc overrides the time source. The host reads its clock once per
// operation and passes a constant function so now never moves mid-operation.
func (p *program) SetNowFunc(now func() uint64) {
	if now == nil {
		p.nowFn = wallClock
		return
	}
	p.nowFn = now
}

// ID returns the program instance identifier.
func (p *program) ID() string { return p.id }

// Account is the custody account holding the program's escrowed value.
func (p *program) Account() [20]byte { return ProgramAccount(p.kind, p.id) }

// ProgramAccount derives the custody account of a program instance.
func ProgramAccount(kind, id string) [20]byte {
	return crypto.DeriveAccount("program/" + kind + "/" + strings.TrimSpace(id))
}

func (p *program) key(parts ...string) []byte {
	return []byte(p.prefix() + strings.Join(parts, "/"))
}

func (p *program) prefix() string {
	return p.kind + "/" + p.id + "/"
}

func (p *program) now() uint64 {
	if p.nowFn == nil {
		return wallClock()
	}
	return p.nowFn()
}

func (p *program) emit(evt *types.Event) {
	if p.emitter == nil || evt == nil {
		return
	}
	p.emitter.Emit(programEvent{evt: evt})
}

func (p *program) ready() error {
	if p.state == nil {
		return fmt.Errorf("%s: state not configured", p.kind)
	}
	if p.bank == nil {
		return fmt.Errorf("%s: value gateway not configured", p.kind)
	}
	if p.id == "" {
		return fmt.Errorf("%w: program id required", common.ErrPrecondition)
	}
	return nil
}

// loadConfig reads the singleton configuration. ok is false when the
// instance has never been initialised.
func (p *program) loadConfig(out interface{}) (bool, error) {
	if err := p.ready(); err != nil {
		return false, err
	}
	return p.state.KVGet(p.key("config"), out)
}

func (p *program) requireUninitialized() error {
	exists, err := p.loadConfig(nil)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}
	return nil
}

// storeConfig writes the singleton configuration exactly once.
func (p *program) storeConfig(cfg interface{}) error {
	exists, err := p.state.KVGet(p.key("config"), nil)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}
	return p.state.KVPut(p.key("config"), cfg)
}

func (p *program) requireAuth(account [20]byte) error {
	if p.auth == nil {
		return common.DenyAll{}.RequireAuth(account)
	}
	return p.auth.RequireAuth(account)
}

func (p *program) custody(token string) (*big.Int, error) {
	return p.bank.Balance(token, p.Account())
}

func requirePositive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountNotPositive
	}
	return nil
}

func sameToken(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
