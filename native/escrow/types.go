package escrow

import (
	"fmt"
	"math/big"

	"escrowchain/native/common"
)

// Phase is the lifecycle state of a program or listing. It is never stored;
// DerivePhase and DeriveListingPhase recompute it from current facts.
type Phase uint8

const (
	PhaseRunning Phase = iota
	PhaseSucceeded
	PhaseFailed
	PhaseUnlisted
)

// PhaseExpired names the failed terminal phase of an auction listing.
const PhaseExpired = PhaseFailed

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	case PhaseUnlisted:
		return "unlisted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further deposits or bids are accepted.
func (p Phase) Terminal() bool { return p == PhaseSucceeded || p == PhaseFailed }

// CrowdfundConfig is written once by Initialize and never mutated.
type CrowdfundConfig struct {
	Recipient [20]byte
	Deadline  uint64
	Started   uint64
	Target    *big.Int
	Token     string
}

// Clone returns a deep copy of the configuration.
func (c *CrowdfundConfig) Clone() *CrowdfundConfig {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Target = cloneBigInt(c.Target)
	return &clone
}

// Totals tracks value that entered and left custody over the program's life.
// Disbursed counts every payout; Swept counts only payouts to the recipient.
type Totals struct {
	Deposited *big.Int
	Disbursed *big.Int
	Swept     *big.Int `rlp:"optional"`
}

// MarketConfig is shared by the auction and storefront programs: the custody
// registry holding listed assets, the admin allowed to delist, and the value
// asset bids and prices are denominated in.
type MarketConfig struct {
	Registry string
	Admin    [20]byte
	Token    string
}

// Bid is a single accepted bid.
type Bid struct {
	Bidder [20]byte
	Price  *big.Int
	At     uint64
}

// Listing is an active auction for one asset. Highest starts as the sentinel
// holder (the program account at price zero) until a real bid arrives.
type Listing struct {
	TokenID    uint64
	Owner      [20]byte
	Reserve    *big.Int
	Expiration uint64
	Highest    Bid
	// Bids holds every accepted bid, most recent first.
	Bids       []Bid
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	clone.Reserve = cloneBigInt(l.Reserve)
	clone.Highest.Price = cloneBigInt(l.Highest.Price)
	clone.Bids = make([]Bid, len(l.Bids))
	for i, bid := range l.Bids {
		clone.Bids[i] = Bid{Bidder: bid.Bidder, Price: cloneBigInt(bid.Price), At: bid.At}
	}
	return &clone
}

// HasRealBid reports whether the highest bid belongs to someone other than
// the sentinel program account.
func (l *Listing) HasRealBid(program [20]byte) bool {
	if l == nil {
		return false
	}
	return l.Highest.Bidder != program && l.Highest.Price != nil && l.Highest.Price.Sign() > 0
}

// SaleListing is a fixed-price storefront offer.
type SaleListing struct {
	TokenID uint64
	Owner   [20]byte
	Price   *big.Int
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

var (
	ErrAlreadyInitialized = fmt.Errorf("%w: already initialized", common.ErrState)
	ErrNotInitialized     = fmt.Errorf("%w: not initialized", common.ErrState)

	ErrAmountNotPositive = fmt.Errorf("%w: amount must be positive", common.ErrPrecondition)
	ErrInvalidRecipient  = fmt.Errorf("%w: recipient required", common.ErrPrecondition)
	ErrUnsupportedToken  = fmt.Errorf("%w: unsupported value asset", common.ErrPrecondition)
	ErrTokenMismatch     = fmt.Errorf("%w: value asset does not match program", common.ErrPrecondition)
	ErrProgramAccount    = fmt.Errorf("%w: sender can not be the program account", common.ErrPrecondition)
	ErrZeroAssetID       = fmt.Errorf("%w: asset id can not be zero", common.ErrPrecondition)
	ErrInvalidExpiration = fmt.Errorf("%w: expiration must be in the future", common.ErrPrecondition)
	ErrInvalidDeadline   = fmt.Errorf("%w: deadline must be in the future", common.ErrPrecondition)
	ErrRegistryRequired  = fmt.Errorf("%w: registry required", common.ErrPrecondition)

	ErrRegistryNotTransferable = fmt.Errorf("%w: registry assets can not change custody", common.ErrPrecondition)

	ErrRecipientDeposit     = fmt.Errorf("%w: recipient may not deposit", common.ErrUnauthorized)
	ErrRecipientOnly        = fmt.Errorf("%w: fund was successful, only the recipient may withdraw", common.ErrUnauthorized)
	ErrRecipientBarred      = fmt.Errorf("%w: fund has failed, the recipient may not withdraw", common.ErrUnauthorized)
	ErrNotAssetOwner        = fmt.Errorf("%w: sender does not hold the asset", common.ErrUnauthorized)
	ErrOwnerBid             = fmt.Errorf("%w: listing owner can not bid", common.ErrUnauthorized)
	ErrOwnerOrAdmin         = fmt.Errorf("%w: only the owner or admin can delist", common.ErrUnauthorized)
	ErrListingOwnerMismatch = fmt.Errorf("%w: account is not the listing owner", common.ErrUnauthorized)
	ErrOwnerPurchase        = fmt.Errorf("%w: owner can not purchase its own listing", common.ErrUnauthorized)

	ErrFundingRunning = fmt.Errorf("%w: funding is still running", common.ErrState)
	ErrFundingClosed  = fmt.Errorf("%w: funding is not running", common.ErrState)
	ErrAlreadyListed  = fmt.Errorf("%w: asset already listed", common.ErrState)
	ErrAuctionExpired = fmt.Errorf("%w: the auction has expired", common.ErrState)
	ErrAuctionRunning = fmt.Errorf("%w: auction has not expired yet", common.ErrState)
	ErrBidTooLow      = fmt.Errorf("%w: bid price must be greater than highest bid", common.ErrState)
	ErrBelowReserve   = fmt.Errorf("%w: bid price is below the reserve", common.ErrState)

	ErrListingNotFound = fmt.Errorf("%w: asset not listed", common.ErrNotFound)
	ErrNoClaim         = fmt.Errorf("%w: nothing to withdraw", common.ErrNotFound)
)
