package escrow

import "math/big"

// DerivePhase computes the crowdfunding phase from its configuration, the
// custody balance and the current ledger time. It has no side effects.
func DerivePhase(cfg *CrowdfundConfig, custody *big.Int, now uint64) Phase {
	if cfg == nil {
		return PhaseUnlisted
	}
	if now < cfg.Deadline {
		return PhaseRunning
	}
	if custody != nil && cfg.Target != nil && custody.Cmp(cfg.Target) >= 0 {
		return PhaseSucceeded
	}
	return PhaseFailed
}

// DeriveListingPhase computes the phase of an auction listing. A nil listing
// is Unlisted; after expiration a real highest bid settles as Succeeded and
// a sentinel-only listing as Expired.
func DeriveListingPhase(l *Listing, program [20]byte, now uint64) Phase {
	if l == nil {
		return PhaseUnlisted
	}
	if now < l.Expiration {
		return PhaseRunning
	}
	if l.HasRealBid(program) {
		return PhaseSucceeded
	}
	return PhaseExpired
}
