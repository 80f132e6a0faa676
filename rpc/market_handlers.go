package rpc

import (
	"escrowchain/core"
	"escrowchain/crypto"
	"escrowchain/native/escrow"
)

func marketView(id string, account [20]byte, cfg *escrow.MarketConfig) *marketJSON {
	return &marketJSON{
		ID:       id,
		Account:  crypto.FormatAccount(account),
		Registry: cfg.Registry,
		Admin:    crypto.FormatAccount(cfg.Admin),
		Token:    cfg.Token,
	}
}

func bidView(b escrow.Bid) bidJSON {
	return bidJSON{Bidder: crypto.FormatAccount(b.Bidder), Price: formatAmount(b.Price), At: b.At}
}

func handleAuctionInitialize(c *call) (interface{}, error) {
	var params marketInitializeParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	admin, err := parseAccountOr("admin", params.Admin, c.caller)
	if err != nil {
		return nil, err
	}
	var out *marketJSON
	err = c.execute(func(tx *core.Tx) error {
		auction := tx.Auction(id)
		if err := auction.Initialize(params.Registry, admin, params.Token); err != nil {
			return err
		}
		cfg, err := auction.Config()
		if err != nil {
			return err
		}
		out = marketView(id, auction.Account(), cfg)
		return nil
	})
	return out, err
}

func handleAuctionList(c *call) (interface{}, error) {
	var params auctionListParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	reserve, err := parseAmount("reserve", params.Reserve)
	if err != nil {
		return nil, err
	}
	var out *auctionListingJSON
	err = c.execute(func(tx *core.Tx) error {
		if _, err := tx.Auction(id).List(c.caller, params.TokenID, reserve, params.Expiration); err != nil {
			return err
		}
		view, err := auctionListingView(tx, id, params.TokenID)
		out = view
		return err
	})
	return out, err
}

func handleAuctionBid(c *call) (interface{}, error) {
	var params auctionBidParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return nil, err
	}
	var out *auctionListingJSON
	err = c.execute(func(tx *core.Tx) error {
		if _, err := tx.Auction(id).Bid(c.caller, params.TokenID, amount, params.Token); err != nil {
			return err
		}
		view, err := auctionListingView(tx, id, params.TokenID)
		out = view
		return err
	})
	return out, err
}

func handleAuctionSettle(c *call) (interface{}, error) {
	var params auctionSettleParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	owner, err := parseAccountOr("owner", params.Owner, c.caller)
	if err != nil {
		return nil, err
	}
	var phase escrow.Phase
	err = c.execute(func(tx *core.Tx) error {
		var err error
		phase, err = tx.Auction(id).Settle(owner, params.TokenID, params.Token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return phaseResult{Phase: phase.String()}, nil
}

func handleAuctionDelist(c *call) (interface{}, error) {
	var params auctionSettleParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	err = c.execute(func(tx *core.Tx) error {
		return tx.Auction(id).Delist(c.caller, params.TokenID, params.Token)
	})
	if err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

// handleAuctionGet returns the house configuration, or one listing when a
// tokenId is supplied.
func handleAuctionGet(c *call) (interface{}, error) {
	var params listingParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	var out interface{}
	err = c.view(func(tx *core.Tx) error {
		auction := tx.Auction(id)
		if params.TokenID == nil {
			cfg, err := auction.Config()
			if err != nil {
				return err
			}
			out = marketView(id, auction.Account(), cfg)
			return nil
		}
		view, err := auctionListingView(tx, id, *params.TokenID)
		out = view
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func auctionListingView(tx *core.Tx, id string, tokenID uint64) (*auctionListingJSON, error) {
	auction := tx.Auction(id)
	listing, err := auction.Listing(tokenID)
	if err != nil {
		return nil, err
	}
	phase, err := auction.Phase(tokenID)
	if err != nil {
		return nil, err
	}
	escrowed, err := auction.Escrowed(tokenID)
	if err != nil {
		return nil, err
	}
	out := &auctionListingJSON{
		ID:         id,
		TokenID:    listing.TokenID,
		Owner:      crypto.FormatAccount(listing.Owner),
		Reserve:    formatAmount(listing.Reserve),
		Expiration: listing.Expiration,
		Phase:      phase.String(),
		Escrowed:   formatAmount(escrowed),
		Bids:       make([]bidJSON, 0, len(listing.Bids)),
	}
	if listing.HasRealBid(auction.Account()) {
		highest := bidView(listing.Highest)
		out.Highest = &highest
	}
	for _, b := range listing.Bids {
		out.Bids = append(out.Bids, bidView(b))
	}
	return out, nil
}

func handleStorefrontInitialize(c *call) (interface{}, error) {
	var params marketInitializeParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	admin, err := parseAccountOr("admin", params.Admin, c.caller)
	if err != nil {
		return nil, err
	}
	var out *marketJSON
	err = c.execute(func(tx *core.Tx) error {
		store := tx.Storefront(id)
		if err := store.Initialize(params.Registry, admin, params.Token); err != nil {
			return err
		}
		cfg, err := store.Config()
		if err != nil {
			return err
		}
		out = marketView(id, store.Account(), cfg)
		return nil
	})
	return out, err
}

func handleStorefrontList(c *call) (interface{}, error) {
	var params storefrontListParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	price, err := parseAmount("price", params.Price)
	if err != nil {
		return nil, err
	}
	var out *saleListingJSON
	err = c.execute(func(tx *core.Tx) error {
		listing, err := tx.Storefront(id).List(c.caller, params.TokenID, price)
		if err != nil {
			return err
		}
		out = saleListingView(id, listing)
		return nil
	})
	return out, err
}

func handleStorefrontDelist(c *call) (interface{}, error) {
	var params listingParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	if params.TokenID == nil {
		return nil, invalidParams("tokenId required")
	}
	err = c.execute(func(tx *core.Tx) error {
		return tx.Storefront(id).Delist(c.caller, *params.TokenID)
	})
	if err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func handleStorefrontPurchase(c *call) (interface{}, error) {
	var params storefrontPurchaseParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	owner, err := parseAccount("owner", params.Owner)
	if err != nil {
		return nil, err
	}
	err = c.execute(func(tx *core.Tx) error {
		return tx.Storefront(id).Purchase(owner, c.caller, params.TokenID, params.Token)
	})
	if err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func handleStorefrontGet(c *call) (interface{}, error) {
	var params listingParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	id, err := requireProgramID(params.ID)
	if err != nil {
		return nil, err
	}
	var out interface{}
	err = c.view(func(tx *core.Tx) error {
		store := tx.Storefront(id)
		if params.TokenID == nil {
			cfg, err := store.Config()
			if err != nil {
				return err
			}
			out = marketView(id, store.Account(), cfg)
			return nil
		}
		listing, err := store.Listing(*params.TokenID)
		if err != nil {
			return err
		}
		out = saleListingView(id, listing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func saleListingView(id string, listing *escrow.SaleListing) *saleListingJSON {
	return &saleListingJSON{
		ID:      id,
		TokenID: listing.TokenID,
		Owner:   crypto.FormatAccount(listing.Owner),
		Price:   formatAmount(listing.Price),
	}
}
