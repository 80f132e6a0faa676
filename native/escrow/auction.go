package escrow

import (
	"fmt"
	"math/big"
	"strconv"

	"escrowchain/native/common"
)

const kindAuction = "auction"

// Auction sells registry assets to the highest bidder. Bid value is held in
// the program's custody account; the previous highest bidder is refunded in
// the same operation that accepts a higher bid.
type Auction struct {
	market
}

// NewAuction creates the controller for one auction house instance.
func NewAuction(id string) *Auction {
	return &Auction{market: newMarket(kindAuction, id)}
}

// Initialize records the registry, admin and value asset. It may run once.
func (a *Auction) Initialize(registry string, admin [20]byte, token string) error {
	_, err := a.initialize(registry, admin, token)
	return err
}

func (a *Auction) claims(tokenID uint64) claimLedger {
	return newClaimLedger(a.state, a.prefix()+"listing/"+strconv.FormatUint(tokenID, 10)+"/")
}

func (a *Auction) loadListing(tokenID uint64) (*Listing, error) {
	listing := new(Listing)
	ok, err := a.state.KVGet(a.listingKey(tokenID), listing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return listing, nil
}

func (a *Auction) requireListing(tokenID uint64) (*Listing, error) {
	if tokenID == 0 {
		return nil, ErrListingNotFound
	}
	listing, err := a.loadListing(tokenID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// List opens an auction for tokenID. The highest bid starts as the program
// account at price zero.
func (a *Auction) List(owner [20]byte, tokenID uint64, reserve *big.Int, expiration uint64) (*Listing, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	if err := a.requireAuth(owner); err != nil {
		return nil, err
	}
	if err := a.checkSeller(owner, tokenID); err != nil {
		return nil, err
	}
	reg, err := a.resolve(cfg.Registry)
	if err != nil {
		return nil, err
	}
	if err := a.requireHolder(reg, owner, tokenID); err != nil {
		return nil, err
	}
	existing, err := a.loadListing(tokenID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyListed
	}
	if reserve == nil {
		reserve = big.NewInt(0)
	}
	if reserve.Sign() < 0 {
		return nil, fmt.Errorf("%w: reserve must not be negative", common.ErrPrecondition)
	}
	if expiration <= a.now() {
		return nil, ErrInvalidExpiration
	}
	listing := &Listing{
		TokenID:    tokenID,
		Owner:      owner,
		Reserve:    new(big.Int).Set(reserve),
		Expiration: expiration,
		Highest:    Bid{Bidder: a.Account(), Price: big.NewInt(0)},
		Bids:       []Bid{},
	}
	if err := a.state.KVPut(a.listingKey(tokenID), listing); err != nil {
		return nil, err
	}
	a.emit(auctionListedEvent(&a.program, listing))
	return listing.Clone(), nil
}

// Bid places amount on tokenID. The amount must exceed the current highest
// bid and meet the reserve. A real previous bidder is refunded before the new
// amount is pulled into custody.
func (a *Auction) Bid(bidder [20]byte, tokenID uint64, amount *big.Int, token string) (*Listing, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}
	if err := a.requireAuth(bidder); err != nil {
		return nil, err
	}
	if err := a.checkToken(cfg, token); err != nil {
		return nil, err
	}
	if bidder == a.Account() {
		return nil, ErrProgramAccount
	}
	if tokenID == 0 {
		return nil, ErrZeroAssetID
	}
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	listing, err := a.requireListing(tokenID)
	if err != nil {
		return nil, err
	}
	if bidder == listing.Owner {
		return nil, ErrOwnerBid
	}
	now := a.now()
	if now > listing.Expiration {
		return nil, ErrAuctionExpired
	}
	if amount.Cmp(listing.Highest.Price) <= 0 {
		return nil, ErrBidTooLow
	}
	if amount.Cmp(listing.Reserve) < 0 {
		return nil, ErrBelowReserve
	}

	var refunded *Bid
	if listing.HasRealBid(a.Account()) {
		previous := listing.Highest
		refunded = &Bid{Bidder: previous.Bidder, Price: new(big.Int).Set(previous.Price)}
	}
	bid := Bid{Bidder: bidder, Price: new(big.Int).Set(amount), At: now}
	listing.Highest = bid
	listing.Bids = append([]Bid{bid}, listing.Bids...)
	if err := a.state.KVPut(a.listingKey(tokenID), listing); err != nil {
		return nil, err
	}

	ledger := a.claims(tokenID)
	if refunded != nil {
		if err := ledger.Clear(refunded.Bidder); err != nil {
			return nil, err
		}
	}
	if err := ledger.Set(bidder, amount); err != nil {
		return nil, err
	}
	if refunded != nil {
		if err := a.bank.Transfer(cfg.Token, a.Account(), refunded.Bidder, refunded.Price); err != nil {
			return nil, err
		}
	}
	if err := a.bank.Transfer(cfg.Token, bidder, a.Account(), amount); err != nil {
		return nil, err
	}
	a.emit(auctionBidEvent(&a.program, listing, refunded))
	return listing.Clone(), nil
}

// Settle closes an auction at or after its expiration. With a real bid the
// owner is paid from custody and the asset moves to the winner. Without one
// the listing closes as expired and nothing moves. The outcome is returned.
func (a *Auction) Settle(owner [20]byte, tokenID uint64, token string) (Phase, error) {
	cfg, err := a.Config()
	if err != nil {
		return PhaseUnlisted, err
	}
	if err := a.checkToken(cfg, token); err != nil {
		return PhaseUnlisted, err
	}
	if err := a.checkSeller(owner, tokenID); err != nil {
		return PhaseUnlisted, err
	}
	listing, err := a.requireListing(tokenID)
	if err != nil {
		return PhaseUnlisted, err
	}
	if owner != listing.Owner {
		return PhaseUnlisted, ErrListingOwnerMismatch
	}
	outcome := DeriveListingPhase(listing, a.Account(), a.now())
	if outcome == PhaseRunning {
		return outcome, ErrAuctionRunning
	}
	if err := a.state.KVDelete(a.listingKey(tokenID)); err != nil {
		return outcome, err
	}
	if outcome == PhaseSucceeded {
		reg, err := a.resolve(cfg.Registry)
		if err != nil {
			return outcome, err
		}
		if err := a.requireHolder(reg, owner, tokenID); err != nil {
			return outcome, err
		}
		winner := listing.Highest
		if err := a.claims(tokenID).Clear(winner.Bidder); err != nil {
			return outcome, err
		}
		if err := a.bank.Transfer(cfg.Token, a.Account(), owner, winner.Price); err != nil {
			return outcome, err
		}
		if err := reg.TransferCustody(owner, winner.Bidder, tokenID); err != nil {
			return outcome, err
		}
	}
	a.emit(auctionSettledEvent(&a.program, listing, outcome))
	return outcome, nil
}

// Delist cancels a listing before settlement. Only the owner or the admin
// may delist. A real highest bidder is refunded; asset custody is unchanged.
func (a *Auction) Delist(caller [20]byte, tokenID uint64, token string) error {
	cfg, err := a.Config()
	if err != nil {
		return err
	}
	if err := a.requireAuth(caller); err != nil {
		return err
	}
	if err := a.checkToken(cfg, token); err != nil {
		return err
	}
	listing, err := a.requireListing(tokenID)
	if err != nil {
		return err
	}
	if caller != listing.Owner && caller != cfg.Admin {
		return ErrOwnerOrAdmin
	}
	if err := a.state.KVDelete(a.listingKey(tokenID)); err != nil {
		return err
	}
	var refunded *Bid
	if listing.HasRealBid(a.Account()) && listing.Highest.Bidder != listing.Owner {
		refunded = &listing.Highest
		if err := a.claims(tokenID).Clear(refunded.Bidder); err != nil {
			return err
		}
		if err := a.bank.Transfer(cfg.Token, a.Account(), refunded.Bidder, refunded.Price); err != nil {
			return err
		}
	}
	a.emit(auctionDelistedEvent(&a.program, listing, caller, refunded))
	return nil
}

// Listing returns the active listing for tokenID.
func (a *Auction) Listing(tokenID uint64) (*Listing, error) {
	if _, err := a.Config(); err != nil {
		return nil, err
	}
	return a.requireListing(tokenID)
}

// Phase derives the listing phase. Absent listings are Unlisted.
func (a *Auction) Phase(tokenID uint64) (Phase, error) {
	if _, err := a.Config(); err != nil {
		return PhaseUnlisted, err
	}
	listing, err := a.loadListing(tokenID)
	if err != nil {
		return PhaseUnlisted, err
	}
	return DeriveListingPhase(listing, a.Account(), a.now()), nil
}

// Escrowed sums the outstanding bid claims held for tokenID.
func (a *Auction) Escrowed(tokenID uint64) (*big.Int, error) {
	if _, err := a.Config(); err != nil {
		return nil, err
	}
	return a.claims(tokenID).Total()
}
