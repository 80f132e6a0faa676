package rpc

import (
	"encoding/json"
)

// RPCRequest is a JSON-RPC 2.0 request. Every method takes a single object
// as its first positional parameter.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type programParams struct {
	ID string `json:"id"`
}

type crowdfundInitializeParams struct {
	ID        string `json:"id"`
	Recipient string `json:"recipient"`
	Deadline  uint64 `json:"deadline"`
	Target    string `json:"target"`
	Token     string `json:"token"`
}

type crowdfundDepositParams struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

type crowdfundWithdrawParams struct {
	ID string `json:"id"`
	To string `json:"to,omitempty"`
}

type crowdfundBalanceParams struct {
	ID   string `json:"id"`
	User string `json:"user"`
}

type marketInitializeParams struct {
	ID       string `json:"id"`
	Registry string `json:"registry"`
	Admin    string `json:"admin,omitempty"`
	Token    string `json:"token"`
}

type auctionListParams struct {
	ID         string `json:"id"`
	TokenID    uint64 `json:"tokenId"`
	Reserve    string `json:"reserve"`
	Expiration uint64 `json:"expiration"`
}

type auctionBidParams struct {
	ID      string `json:"id"`
	TokenID uint64 `json:"tokenId"`
	Amount  string `json:"amount"`
	Token   string `json:"token"`
}

type auctionSettleParams struct {
	ID      string `json:"id"`
	TokenID uint64 `json:"tokenId"`
	Owner   string `json:"owner,omitempty"`
	Token   string `json:"token"`
}

type listingParams struct {
	ID      string  `json:"id"`
	TokenID *uint64 `json:"tokenId,omitempty"`
	Token   string  `json:"token,omitempty"`
}

type storefrontListParams struct {
	ID      string `json:"id"`
	TokenID uint64 `json:"tokenId"`
	Price   string `json:"price"`
}

type storefrontPurchaseParams struct {
	ID      string `json:"id"`
	TokenID uint64 `json:"tokenId"`
	Owner   string `json:"owner"`
	Token   string `json:"token"`
}

type registryInitializeParams struct {
	Registry string `json:"registry"`
	Admin    string `json:"admin,omitempty"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
}

type registryMintParams struct {
	Registry string `json:"registry"`
	To       string `json:"to,omitempty"`
	URI      string `json:"uri"`
}

type registryTokenParams struct {
	Registry string  `json:"registry"`
	TokenID  *uint64 `json:"tokenId,omitempty"`
	To       string  `json:"to,omitempty"`
}

type bankBalanceParams struct {
	Address string `json:"address"`
	Token   string `json:"token"`
}

type bankTransferParams struct {
	To     string `json:"to"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type eventsListParams struct {
	Type    string `json:"type,omitempty"`
	Program string `json:"program,omitempty"`
	AfterID uint64 `json:"afterId,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Format  string `json:"format,omitempty"`
}

type crowdfundJSON struct {
	ID           string   `json:"id"`
	Account      string   `json:"account"`
	Recipient    string   `json:"recipient"`
	Deadline     uint64   `json:"deadline"`
	Started      uint64   `json:"started"`
	Target       string   `json:"target"`
	Token        string   `json:"token"`
	State        string   `json:"state"`
	Custody      string   `json:"custody"`
	Deposited    string   `json:"deposited"`
	Disbursed    string   `json:"disbursed"`
	Swept        string   `json:"swept"`
	Participants []string `json:"participants"`
}

type marketJSON struct {
	ID       string `json:"id"`
	Account  string `json:"account"`
	Registry string `json:"registry"`
	Admin    string `json:"admin"`
	Token    string `json:"token"`
}

type bidJSON struct {
	Bidder string `json:"bidder"`
	Price  string `json:"price"`
	At     uint64 `json:"at"`
}

type auctionListingJSON struct {
	ID         string    `json:"id"`
	TokenID    uint64    `json:"tokenId"`
	Owner      string    `json:"owner"`
	Reserve    string    `json:"reserve"`
	Expiration uint64    `json:"expiration"`
	Phase      string    `json:"phase"`
	Highest    *bidJSON  `json:"highest,omitempty"`
	Escrowed   string    `json:"escrowed"`
	Bids       []bidJSON `json:"bids"`
}

type saleListingJSON struct {
	ID      string `json:"id"`
	TokenID uint64 `json:"tokenId"`
	Owner   string `json:"owner"`
	Price   string `json:"price"`
}

type registryJSON struct {
	Registry string `json:"registry"`
	Account  string `json:"account"`
	Admin    string `json:"admin"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
}

type tokenJSON struct {
	Registry string `json:"registry"`
	TokenID  uint64 `json:"tokenId"`
	Owner    string `json:"owner"`
	URI      string `json:"uri"`
}

type amountResult struct {
	Amount string `json:"amount"`
}

type phaseResult struct {
	Phase string `json:"phase"`
}

type mintResult struct {
	Registry string `json:"registry"`
	TokenID  uint64 `json:"tokenId"`
}

type balanceResult struct {
	Address string `json:"address"`
	Token   string `json:"token"`
	Balance string `json:"balance"`
}

type eventJSON struct {
	ID         uint64            `json:"id"`
	Type       string            `json:"type"`
	Program    string            `json:"program"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  int64             `json:"createdAt"`
}

type exportResult struct {
	Format   string `json:"format"`
	Count    int    `json:"count"`
	Data     string `json:"data"`
	Checksum string `json:"checksum"`
}

type okResult struct {
	OK bool `json:"ok"`
}
