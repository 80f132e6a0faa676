package registry

import (
	"fmt"
	"strconv"
	"strings"

	"escrowchain/core/events"
	"escrowchain/crypto"
	"escrowchain/native/common"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// Engine is the asset custody registry for one collection. The same engine
// serves NFT and SBT collections; the kind decides whether custody can move.
type Engine struct {
	state   engineState
	kind    Kind
	id      string
	auth    common.Authorizer
	emitter events.Emitter
}

// NewEngine creates a registry engine for the named collection.
func NewEngine(kind Kind, id string) *Engine {
	return &Engine{
		kind:    kind,
		id:      strings.TrimSpace(id),
		auth:    common.DenyAll{},
		emitter: events.NoopEmitter{},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAuthorizer configures the capability check applied to acting accounts.
func (e *Engine) SetAuthorizer(auth common.Authorizer) {
	if auth == nil {
		e.auth = common.DenyAll{}
		return
	}
	e.auth = auth
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Kind returns the collection kind.
func (e *Engine) Kind() Kind { return e.kind }

// Transferable reports whether tokens of this collection can change holder.
func (e *Engine) Transferable() bool { return e.kind.Transferable() }

// ID returns the collection identifier.
func (e *Engine) ID() string { return e.id }

// Account is the registry's own account. Burned and never-minted tokens are
// reported as held by it.
func (e *Engine) Account() [20]byte {
	return crypto.DeriveAccount("registry/" + e.kind.String() + "/" + e.id)
}

func (e *Engine) key(parts ...string) []byte {
	return []byte("registry/" + e.kind.String() + "/" + e.id + "/" + strings.Join(parts, "/"))
}

func (e *Engine) tokenKey(tokenID uint64) []byte {
	return e.key("token", strconv.FormatUint(tokenID, 10))
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return fmt.Errorf("registry: state not configured")
	}
	if !e.kind.Valid() {
		return fmt.Errorf("%w: invalid registry kind", common.ErrPrecondition)
	}
	if e.id == "" {
		return fmt.Errorf("%w: registry id required", common.ErrPrecondition)
	}
	return nil
}

func (e *Engine) requireInitialized() error {
	if err := e.ready(); err != nil {
		return err
	}
	ok, err := e.state.KVGet(e.key("admin"), nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotInitialized
	}
	return nil
}

// Initialize records the admin and collection metadata. It may run once.
func (e *Engine) Initialize(admin [20]byte, name, symbol string) error {
	if err := e.ready(); err != nil {
		return err
	}
	exists, err := e.state.KVGet(e.key("admin"), nil)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}
	meta := Metadata{Name: strings.TrimSpace(name), Symbol: strings.TrimSpace(symbol)}
	if meta.Name == "" || meta.Symbol == "" {
		return ErrEmptyMetadata
	}
	if err := e.state.KVPut(e.key("admin"), admin); err != nil {
		return err
	}
	return e.state.KVPut(e.key("meta"), &meta)
}

// Admin returns the account recorded at initialisation.
func (e *Engine) Admin() ([20]byte, error) {
	var admin [20]byte
	if err := e.requireInitialized(); err != nil {
		return admin, err
	}
	_, err := e.state.KVGet(e.key("admin"), &admin)
	return admin, err
}

// Metadata returns the collection name and symbol.
func (e *Engine) Metadata() (*Metadata, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	meta := new(Metadata)
	if _, err := e.state.KVGet(e.key("meta"), meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// Mint issues the next token id to the caller-authorised account.
func (e *Engine) Mint(to [20]byte, uri string) (uint64, error) {
	if err := e.requireInitialized(); err != nil {
		return 0, err
	}
	if err := e.auth.RequireAuth(to); err != nil {
		return 0, err
	}
	if to == e.Account() {
		return 0, ErrRegistryAccount
	}
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return 0, ErrEmptyURI
	}
	var counter uint64
	if _, err := e.state.KVGet(e.key("counter"), &counter); err != nil {
		return 0, err
	}
	counter++
	if err := e.state.KVPut(e.tokenKey(counter), &Detail{Owner: to, URI: uri}); err != nil {
		return 0, err
	}
	if err := e.state.KVPut(e.key("counter"), counter); err != nil {
		return 0, err
	}
	e.emitter.Emit(newRegistryEvent(EventTypeMinted, e, counter, map[string]string{
		"to":  crypto.FormatAccount(to),
		"uri": uri,
	}))
	return counter, nil
}

// Detail returns the stored record. Unknown ids report the registry account as
// owner and an empty URI.
func (e *Engine) Detail(tokenID uint64) (*Detail, error) {
	if err := e.requireInitialized(); err != nil {
		return nil, err
	}
	detail := new(Detail)
	ok, err := e.state.KVGet(e.tokenKey(tokenID), detail)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Detail{Owner: e.Account()}, nil
	}
	return detail, nil
}

// OwnerOf returns the custody holder of tokenID.
func (e *Engine) OwnerOf(tokenID uint64) ([20]byte, error) {
	detail, err := e.Detail(tokenID)
	if err != nil {
		return [20]byte{}, err
	}
	return detail.Owner, nil
}

// IsOwner reports whether account currently holds tokenID.
func (e *Engine) IsOwner(account [20]byte, tokenID uint64) (bool, error) {
	if tokenID == 0 {
		return false, nil
	}
	owner, err := e.OwnerOf(tokenID)
	if err != nil {
		return false, err
	}
	return owner == account && owner != e.Account(), nil
}

func (e *Engine) requireHolder(account [20]byte, tokenID uint64) (*Detail, error) {
	if tokenID == 0 {
		return nil, ErrZeroTokenID
	}
	if account == e.Account() {
		return nil, ErrRegistryAccount
	}
	detail, err := e.Detail(tokenID)
	if err != nil {
		return nil, err
	}
	if detail.Owner == e.Account() {
		return nil, ErrTokenNotFound
	}
	if detail.Owner != account {
		return nil, ErrNotOwner
	}
	return detail, nil
}

// Burn returns custody of tokenID to the registry account and clears its URI.
func (e *Engine) Burn(owner [20]byte, tokenID uint64) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.auth.RequireAuth(owner); err != nil {
		return err
	}
	if !e.kind.Transferable() {
		return ErrNonTransferable
	}
	detail, err := e.requireHolder(owner, tokenID)
	if err != nil {
		return err
	}
	detail.Owner = e.Account()
	detail.URI = ""
	if err := e.state.KVPut(e.tokenKey(tokenID), detail); err != nil {
		return err
	}
	e.emitter.Emit(newRegistryEvent(EventTypeBurned, e, tokenID, map[string]string{
		"owner": crypto.FormatAccount(owner),
	}))
	return nil
}

// Transfer moves tokenID from the authorised holder to another account.
func (e *Engine) Transfer(from, to [20]byte, tokenID uint64) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if err := e.auth.RequireAuth(from); err != nil {
		return err
	}
	return e.TransferCustody(from, to, tokenID)
}

// TransferCustody moves tokenID between accounts on behalf of a program that
// has already validated the movement. The holder check still applies.
func (e *Engine) TransferCustody(from, to [20]byte, tokenID uint64) error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	if !e.kind.Transferable() {
		return ErrNonTransferable
	}
	detail, err := e.requireHolder(from, tokenID)
	if err != nil {
		return err
	}
	if to == ([20]byte{}) {
		return fmt.Errorf("%w: recipient required", common.ErrPrecondition)
	}
	detail.Owner = to
	if err := e.state.KVPut(e.tokenKey(tokenID), detail); err != nil {
		return err
	}
	e.emitter.Emit(newRegistryEvent(EventTypeTransferred, e, tokenID, map[string]string{
		"from": crypto.FormatAccount(from),
		"to":   crypto.FormatAccount(to),
	}))
	return nil
}
