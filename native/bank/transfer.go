package bank

import (
	"fmt"
	"math/big"
	"strings"

	"escrowchain/core/events"
	"escrowchain/native/common"
)

type balanceState interface {
	Balance(addr []byte, symbol string) (*big.Int, error)
	SetBalance(addr []byte, symbol string, amount *big.Int) error
	TokenExists(symbol string) bool
}

// Gateway moves fungible value between accounts. Programs hold value in their
// own custody account and use the gateway for every inbound or outbound
// movement; any error it returns is fatal to the calling operation.
type Gateway struct {
	state   balanceState
	emitter events.Emitter
}

// NewGateway binds a gateway to the provided balance store.
func NewGateway(state balanceState) *Gateway {
	return &Gateway{state: state, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the emitter receiving transfer events. Passing nil
// resets it to a no-op implementation.
func (g *Gateway) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		g.emitter = events.NoopEmitter{}
		return
	}
	g.emitter = emitter
}

func (g *Gateway) normalize(token string) (string, error) {
	if g == nil || g.state == nil {
		return "", fmt.Errorf("%w: bank state not configured", common.ErrTransfer)
	}
	normalized := strings.ToUpper(strings.TrimSpace(token))
	if normalized == "" || !g.state.TokenExists(normalized) {
		return "", fmt.Errorf("%w: unsupported token %q", common.ErrTransfer, token)
	}
	return normalized, nil
}

// Supports reports whether token is a registered value asset.
func (g *Gateway) Supports(token string) bool {
	_, err := g.normalize(token)
	return err == nil
}

// Balance returns the account's holdings of token.
func (g *Gateway) Balance(token string, account [20]byte) (*big.Int, error) {
	normalized, err := g.normalize(token)
	if err != nil {
		return nil, err
	}
	return g.state.Balance(account[:], normalized)
}

// Transfer debits from and credits to. A zero amount is a no-op so programs can
// pay out drained balances without special casing.
func (g *Gateway) Transfer(token string, from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("%w: negative transfer amount", common.ErrTransfer)
	}
	normalized, err := g.normalize(token)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	fromBal, err := g.state.Balance(from[:], normalized)
	if err != nil {
		return fmt.Errorf("%w: load sender balance: %v", common.ErrTransfer, err)
	}
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: insufficient %s balance: have %s, need %s", common.ErrTransfer, normalized, fromBal, amount)
	}
	toBal, err := g.state.Balance(to[:], normalized)
	if err != nil {
		return fmt.Errorf("%w: load recipient balance: %v", common.ErrTransfer, err)
	}
	if err := g.state.SetBalance(from[:], normalized, new(big.Int).Sub(fromBal, amount)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransfer, err)
	}
	if err := g.state.SetBalance(to[:], normalized, new(big.Int).Add(toBal, amount)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransfer, err)
	}
	g.emitter.Emit(events.Transfer{Asset: normalized, From: from, To: to, Amount: new(big.Int).Set(amount)})
	return nil
}

// Credit mints amount into account. It is reserved for genesis allocations.
func (g *Gateway) Credit(token string, account [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: credit amount must be positive", common.ErrPrecondition)
	}
	normalized, err := g.normalize(token)
	if err != nil {
		return err
	}
	current, err := g.state.Balance(account[:], normalized)
	if err != nil {
		return err
	}
	return g.state.SetBalance(account[:], normalized, new(big.Int).Add(current, amount))
}
