package events

import (
	"math/big"

	"escrowchain/core/types"
	"escrowchain/crypto"
)

const (
	// TypeTransfer is emitted for every non-zero balance movement performed by
	// the value-transfer gateway.
	TypeTransfer = "bank.transfer"
)

type Transfer struct {
	Asset  string
	From   [20]byte
	To     [20]byte
	Amount *big.Int
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	attrs := map[string]string{}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	attrs["from"] = crypto.FormatAccount(e.From)
	attrs["to"] = crypto.FormatAccount(e.To)
	attrs["amount"] = formatAmount(e.Amount)
	return &types.Event{Type: TypeTransfer, Attributes: attrs}
}
