package core

import (
	"context"
	"fmt"

	"escrowchain/config"
	"escrowchain/core/state"
)

var genesisMarkerKey = []byte("genesis/applied")

// ApplyGenesis registers the configured value assets and credits the
// allocations. It runs once per database; later calls report false and leave
// state untouched.
func (n *Node) ApplyGenesis(ctx context.Context, tokens []config.Token, allocs []config.GenesisAllocation) (bool, error) {
	applied := false
	err := n.Execute(ctx, Call{Module: "genesis", Method: "apply"}, func(tx *Tx) error {
		done, err := tx.State().KVHas(genesisMarkerKey)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		for _, token := range tokens {
			if err := tx.State().RegisterToken(token.Symbol, token.Name, token.Decimals); err != nil {
				return fmt.Errorf("genesis: %w", err)
			}
		}
		for _, alloc := range allocs {
			if err := tx.Bank().Credit(alloc.Token, alloc.Account, alloc.Amount); err != nil {
				return fmt.Errorf("genesis: credit %s: %w", alloc.Token, err)
			}
		}
		if err := tx.State().SetStateVersion(state.StateVersion); err != nil {
			return err
		}
		applied = true
		return tx.State().KVPut(genesisMarkerKey, uint64(tx.Now()))
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
