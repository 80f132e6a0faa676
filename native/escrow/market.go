package escrow

import (
	"fmt"
	"strconv"
	"strings"

	"escrowchain/native/common"
)

// market is the part shared by the auction and storefront controllers: a
// configuration naming the custody registry, the admin and the value asset.
type market struct {
	program
	registries RegistryLookup
}

func newMarket(kind, id string) market {
	return market{program: newProgram(kind, id)}
}

// SetRegistryLookup configures how registry names resolve to custody
// registries.
func (m *market) SetRegistryLookup(lookup RegistryLookup) { m.registries = lookup }

// Config returns the stored market configuration.
func (m *market) Config() (*MarketConfig, error) {
	cfg := new(MarketConfig)
	ok, err := m.loadConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

// Admin returns the account allowed to delist any listing.
func (m *market) Admin() ([20]byte, error) {
	cfg, err := m.Config()
	if err != nil {
		return [20]byte{}, err
	}
	return cfg.Admin, nil
}

func (m *market) initialize(registry string, admin [20]byte, token string) (*MarketConfig, error) {
	if err := m.requireUninitialized(); err != nil {
		return nil, err
	}
	registry = strings.TrimSpace(registry)
	if registry == "" {
		return nil, ErrRegistryRequired
	}
	if admin == ([20]byte{}) {
		return nil, fmt.Errorf("%w: admin required", common.ErrPrecondition)
	}
	token = strings.ToUpper(strings.TrimSpace(token))
	if !m.bank.Supports(token) {
		return nil, ErrUnsupportedToken
	}
	if _, err := m.resolve(registry); err != nil {
		return nil, err
	}
	cfg := &MarketConfig{Registry: registry, Admin: admin, Token: token}
	if err := m.storeConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (m *market) resolve(registry string) (CustodyRegistry, error) {
	if m.registries == nil {
		return nil, fmt.Errorf("%s: registry lookup not configured", m.kind)
	}
	reg, err := m.registries(registry)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, fmt.Errorf("%w: registry %q", common.ErrNotFound, registry)
	}
	if !reg.Transferable() {
		return nil, fmt.Errorf("%w: registry %q", ErrRegistryNotTransferable, registry)
	}
	return reg, nil
}

// requireHolder checks the external registry still records account as the
// holder of tokenID.
func (m *market) requireHolder(reg CustodyRegistry, account [20]byte, tokenID uint64) error {
	held, err := reg.IsOwner(account, tokenID)
	if err != nil {
		return err
	}
	if !held {
		return ErrNotAssetOwner
	}
	return nil
}

// checkSeller applies the argument checks every listing operation shares.
func (m *market) checkSeller(owner [20]byte, tokenID uint64) error {
	if owner == m.Account() {
		return ErrProgramAccount
	}
	if tokenID == 0 {
		return ErrZeroAssetID
	}
	return nil
}

func (m *market) checkToken(cfg *MarketConfig, token string) error {
	if !sameToken(cfg.Token, token) {
		return ErrTokenMismatch
	}
	return nil
}

func (m *market) listingKey(tokenID uint64) []byte {
	return m.key("listing", strconv.FormatUint(tokenID, 10))
}
