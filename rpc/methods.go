package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"escrowchain/core"
	"escrowchain/crypto"
	"escrowchain/native/common"
)

// call is the per-request context handed to method handlers.
type call struct {
	server *Server
	ctx    context.Context
	req    *RPCRequest
	method string
	module string
	caller [20]byte
}

type methodSpec struct {
	auth    bool
	handler func(*call) (interface{}, error)
}

var methods = map[string]methodSpec{
	"crowdfund_initialize": {auth: true, handler: handleCrowdfundInitialize},
	"crowdfund_deposit":    {auth: true, handler: handleCrowdfundDeposit},
	"crowdfund_withdraw":   {auth: true, handler: handleCrowdfundWithdraw},
	"crowdfund_get":        {handler: handleCrowdfundGet},
	"crowdfund_balance":    {handler: handleCrowdfundBalance},

	"auction_initialize": {auth: true, handler: handleAuctionInitialize},
	"auction_list":       {auth: true, handler: handleAuctionList},
	"auction_bid":        {auth: true, handler: handleAuctionBid},
	"auction_settle":     {auth: true, handler: handleAuctionSettle},
	"auction_delist":     {auth: true, handler: handleAuctionDelist},
	"auction_get":        {handler: handleAuctionGet},

	"storefront_initialize": {auth: true, handler: handleStorefrontInitialize},
	"storefront_list":       {auth: true, handler: handleStorefrontList},
	"storefront_delist":     {auth: true, handler: handleStorefrontDelist},
	"storefront_purchase":   {auth: true, handler: handleStorefrontPurchase},
	"storefront_get":        {handler: handleStorefrontGet},

	"registry_initialize": {auth: true, handler: handleRegistryInitialize},
	"registry_mint":       {auth: true, handler: handleRegistryMint},
	"registry_burn":       {auth: true, handler: handleRegistryBurn},
	"registry_transfer":   {auth: true, handler: handleRegistryTransfer},
	"registry_get":        {handler: handleRegistryGet},

	"bank_balance":  {handler: handleBankBalance},
	"bank_transfer": {auth: true, handler: handleBankTransfer},

	"events_list":   {handler: handleEventsList},
	"events_export": {handler: handleEventsExport},
}

// Methods lists the registered JSON-RPC method names.
func Methods() []string {
	out := make([]string, 0, len(methods))
	for name := range methods {
		out = append(out, name)
	}
	return out
}

func (c *call) decode(out interface{}) error {
	if len(c.req.Params) == 0 {
		return invalidParams("params required")
	}
	if err := json.Unmarshal(c.req.Params[0], out); err != nil {
		return invalidParams("%v", err)
	}
	return nil
}

func (c *call) execute(fn func(*core.Tx) error) error {
	return c.server.node.Execute(c.ctx, core.Call{Module: c.module, Method: c.method, Caller: c.caller}, fn)
}

func (c *call) view(fn func(*core.Tx) error) error {
	return c.server.node.View(c.ctx, fn)
}

func invalidParams(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", common.ErrPrecondition, fmt.Sprintf(format, args...))
}

func requireProgramID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalidParams("id required")
	}
	return id, nil
}

func parseAccount(field, raw string) ([20]byte, error) {
	account, err := crypto.ParseAccount(strings.TrimSpace(raw))
	if err != nil {
		return account, invalidParams("%s: %v", field, err)
	}
	return account, nil
}

// parseAccountOr parses raw, or returns fallback when raw is blank.
func parseAccountOr(field, raw string, fallback [20]byte) ([20]byte, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	return parseAccount(field, raw)
}

func parseAmount(field, raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, invalidParams("%s must be a base-10 integer", field)
	}
	return amount, nil
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
