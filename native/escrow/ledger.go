package escrow

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

// claimLedger maps participants to their outstanding claim under one prefix.
// Only the program controllers hold a ledger.
type claimLedger struct {
	state  engineState
	prefix string
}

func newClaimLedger(state engineState, prefix string) claimLedger {
	return claimLedger{state: state, prefix: prefix}
}

func (l claimLedger) claimKey(account [20]byte) []byte {
	return []byte(l.prefix + "claim/" + hex.EncodeToString(account[:]))
}

func (l claimLedger) indexKey() []byte {
	return []byte(l.prefix + "participants")
}

// Get returns the recorded claim, zero when none exists.
func (l claimLedger) Get(account [20]byte) (*big.Int, error) {
	amount := new(big.Int)
	ok, err := l.state.KVGet(l.claimKey(account), amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return amount, nil
}

// Set overwrites the claim. Setting zero removes the entry.
func (l claimLedger) Set(account [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return l.Clear(account)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("escrow: negative claim")
	}
	if err := l.state.KVPut(l.claimKey(account), amount); err != nil {
		return err
	}
	return l.state.KVAppend(l.indexKey(), account[:])
}

// Add increases the claim by delta and returns the new value.
func (l claimLedger) Add(account [20]byte, delta *big.Int) (*big.Int, error) {
	current, err := l.Get(account)
	if err != nil {
		return nil, err
	}
	next := new(big.Int).Add(current, delta)
	if err := l.Set(account, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Clear zeroes the claim so a second withdrawal finds nothing.
func (l claimLedger) Clear(account [20]byte) error {
	return l.state.KVDelete(l.claimKey(account))
}

// Participants lists every account that ever held a claim under the prefix.
func (l claimLedger) Participants() ([][20]byte, error) {
	var raw [][]byte
	if err := l.state.KVGetList(l.indexKey(), &raw); err != nil {
		return nil, err
	}
	out := make([][20]byte, 0, len(raw))
	for _, entry := range raw {
		var account [20]byte
		copy(account[:], entry)
		out = append(out, account)
	}
	return out, nil
}

// Total sums the live claims.
func (l claimLedger) Total() (*big.Int, error) {
	participants, err := l.Participants()
	if err != nil {
		return nil, err
	}
	total := big.NewInt(0)
	for _, account := range participants {
		claim, err := l.Get(account)
		if err != nil {
			return nil, err
		}
		total.Add(total, claim)
	}
	return total, nil
}
