package escrow

import "math/big"

const kindStorefront = "storefront"

// Storefront sells registry assets at a fixed price. The buyer pays the
// owner directly so the program never holds value.
type Storefront struct {
	market
}

// NewStorefront creates the controller for one storefront instance.
func NewStorefront(id string) *Storefront {
	return &Storefront{market: newMarket(kindStorefront, id)}
}

// Initialize records the registry, admin and value asset. It may run once.
func (s *Storefront) Initialize(registry string, admin [20]byte, token string) error {
	_, err := s.initialize(registry, admin, token)
	return err
}

func (s *Storefront) loadListing(tokenID uint64) (*SaleListing, error) {
	if tokenID == 0 {
		return nil, nil
	}
	listing := new(SaleListing)
	ok, err := s.state.KVGet(s.listingKey(tokenID), listing)
	if err != nil || !ok {
		return nil, err
	}
	return listing, nil
}

// List offers tokenID for price.
func (s *Storefront) List(owner [20]byte, tokenID uint64, price *big.Int) (*SaleListing, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	if err := s.requireAuth(owner); err != nil {
		return nil, err
	}
	if err := s.checkSeller(owner, tokenID); err != nil {
		return nil, err
	}
	if err := requirePositive(price); err != nil {
		return nil, err
	}
	reg, err := s.resolve(cfg.Registry)
	if err != nil {
		return nil, err
	}
	if err := s.requireHolder(reg, owner, tokenID); err != nil {
		return nil, err
	}
	existing, err := s.loadListing(tokenID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyListed
	}
	listing := &SaleListing{TokenID: tokenID, Owner: owner, Price: new(big.Int).Set(price)}
	if err := s.state.KVPut(s.listingKey(tokenID), listing); err != nil {
		return nil, err
	}
	s.emit(storefrontListedEvent(&s.program, listing))
	return listing, nil
}

// Delist withdraws an offer. Only the owner or the admin may delist.
func (s *Storefront) Delist(caller [20]byte, tokenID uint64) error {
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	if err := s.requireAuth(caller); err != nil {
		return err
	}
	listing, err := s.loadListing(tokenID)
	if err != nil {
		return err
	}
	if listing == nil {
		return ErrListingNotFound
	}
	if caller != listing.Owner && caller != cfg.Admin {
		return ErrOwnerOrAdmin
	}
	if err := s.state.KVDelete(s.listingKey(tokenID)); err != nil {
		return err
	}
	s.emit(storefrontDelistedEvent(&s.program, listing, caller))
	return nil
}

// Purchase pays the listed price from buyer to owner, moves custody to the
// buyer and removes the listing.
func (s *Storefront) Purchase(owner, buyer [20]byte, tokenID uint64, token string) error {
	cfg, err := s.Config()
	if err != nil {
		return err
	}
	if err := s.requireAuth(buyer); err != nil {
		return err
	}
	if err := s.checkToken(cfg, token); err != nil {
		return err
	}
	if err := s.checkSeller(owner, tokenID); err != nil {
		return err
	}
	if buyer == s.Account() {
		return ErrProgramAccount
	}
	listing, err := s.loadListing(tokenID)
	if err != nil {
		return err
	}
	if listing == nil {
		return ErrListingNotFound
	}
	if listing.Owner != owner {
		return ErrListingOwnerMismatch
	}
	if buyer == owner {
		return ErrOwnerPurchase
	}
	reg, err := s.resolve(cfg.Registry)
	if err != nil {
		return err
	}
	if err := s.requireHolder(reg, owner, tokenID); err != nil {
		return err
	}
	if err := s.state.KVDelete(s.listingKey(tokenID)); err != nil {
		return err
	}
	if err := s.bank.Transfer(cfg.Token, buyer, owner, listing.Price); err != nil {
		return err
	}
	if err := reg.TransferCustody(owner, buyer, tokenID); err != nil {
		return err
	}
	s.emit(storefrontSoldEvent(&s.program, listing, buyer))
	return nil
}

// Listing returns the active offer for tokenID.
func (s *Storefront) Listing(tokenID uint64) (*SaleListing, error) {
	if _, err := s.Config(); err != nil {
		return nil, err
	}
	listing, err := s.loadListing(tokenID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}
	return listing, nil
}
