package escrow

import (
	"math/big"
	"strconv"

	"escrowchain/core/types"
	"escrowchain/crypto"
)

const (
	EventTypeCrowdfundInitialized = "crowdfund.initialized"
	EventTypeCrowdfundDeposited   = "crowdfund.deposited"
	EventTypeCrowdfundWithdrawn   = "crowdfund.withdrawn"

	EventTypeAuctionListed   = "auction.listed"
	EventTypeAuctionBid      = "auction.bid"
	EventTypeAuctionSettled  = "auction.settled"
	EventTypeAuctionDelisted = "auction.delisted"

	EventTypeStorefrontListed   = "storefront.listed"
	EventTypeStorefrontSold     = "storefront.sold"
	EventTypeStorefrontDelisted = "storefront.delisted"
)

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newProgramEvent(eventType string, p *program, attrs map[string]string) *types.Event {
	out := map[string]string{"program": p.id}
	for k, v := range attrs {
		out[k] = v
	}
	return &types.Event{Type: eventType, Attributes: out}
}

func crowdfundInitializedEvent(p *program, cfg *CrowdfundConfig) *types.Event {
	return newProgramEvent(EventTypeCrowdfundInitialized, p, map[string]string{
		"recipient": crypto.FormatAccount(cfg.Recipient),
		"deadline":  strconv.FormatUint(cfg.Deadline, 10),
		"target":    amountString(cfg.Target),
		"token":     cfg.Token,
	})
}

func crowdfundDepositedEvent(p *program, depositor [20]byte, amount, claim *big.Int) *types.Event {
	return newProgramEvent(EventTypeCrowdfundDeposited, p, map[string]string{
		"depositor": crypto.FormatAccount(depositor),
		"amount":    amountString(amount),
		"claim":     amountString(claim),
	})
}

func crowdfundWithdrawnEvent(p *program, to [20]byte, amount *big.Int, phase Phase) *types.Event {
	return newProgramEvent(EventTypeCrowdfundWithdrawn, p, map[string]string{
		"to":     crypto.FormatAccount(to),
		"amount": amountString(amount),
		"phase":  phase.String(),
	})
}

func listingAttrs(tokenID uint64, owner [20]byte) map[string]string {
	return map[string]string{
		"tokenId": strconv.FormatUint(tokenID, 10),
		"owner":   crypto.FormatAccount(owner),
	}
}

func auctionListedEvent(p *program, l *Listing) *types.Event {
	attrs := listingAttrs(l.TokenID, l.Owner)
	attrs["reserve"] = amountString(l.Reserve)
	attrs["expiration"] = strconv.FormatUint(l.Expiration, 10)
	return newProgramEvent(EventTypeAuctionListed, p, attrs)
}

func auctionBidEvent(p *program, l *Listing, refunded *Bid) *types.Event {
	attrs := listingAttrs(l.TokenID, l.Owner)
	attrs["bidder"] = crypto.FormatAccount(l.Highest.Bidder)
	attrs["price"] = amountString(l.Highest.Price)
	if refunded != nil {
		attrs["refunded"] = crypto.FormatAccount(refunded.Bidder)
		attrs["refundAmount"] = amountString(refunded.Price)
	}
	return newProgramEvent(EventTypeAuctionBid, p, attrs)
}

func auctionSettledEvent(p *program, l *Listing, outcome Phase) *types.Event {
	attrs := listingAttrs(l.TokenID, l.Owner)
	attrs["outcome"] = outcome.String()
	if outcome == PhaseSucceeded {
		attrs["winner"] = crypto.FormatAccount(l.Highest.Bidder)
		attrs["price"] = amountString(l.Highest.Price)
	}
	return newProgramEvent(EventTypeAuctionSettled, p, attrs)
}

func auctionDelistedEvent(p *program, l *Listing, by [20]byte, refunded *Bid) *types.Event {
	attrs := listingAttrs(l.TokenID, l.Owner)
	attrs["by"] = crypto.FormatAccount(by)
	if refunded != nil {
		attrs["refunded"] = crypto.FormatAccount(refunded.Bidder)
		attrs["refundAmount"] = amountString(refunded.Price)
	}
	return newProgramEvent(EventTypeAuctionDelisted, p, attrs)
}

func storefrontListedEvent(p *program, l *SaleListing) *types.Event {
	attrs := listingAttrs(l.TokenID, l.Owner)
	attrs["price"] = amountString(l.Price)
	return newProgramEvent(EventTypeStorefrontListed, p, attrs)
}

func storefrontSoldEvent(p *program, l *SaleListing, buyer [20]byte) *types.Event {
	attrs := listingAttrs(l.TokenID, l.Owner)
	attrs["buyer"] = crypto.FormatAccount(buyer)
	attrs["price"] = amountString(l.Price)
	return newProgramEvent(EventTypeStorefrontSold, p, attrs)
}

func storefrontDelistedEvent(p *program, l *SaleListing, by [20]byte) *types.Event {
	attrs := listingAttrs(l.TokenID, l.Owner)
	attrs["by"] = crypto.FormatAccount(by)
	return newProgramEvent(EventTypeStorefrontDelisted, p, attrs)
}
