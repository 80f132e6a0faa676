package rpc

import (
	"strings"

	"escrowchain/core"
	"escrowchain/crypto"
	"escrowchain/native/registry"
)

func registryName(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return "", invalidParams("registry required")
	}
	return name, nil
}

func handleRegistryInitialize(c *call) (interface{}, error) {
	var params registryInitializeParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	name, err := registryName(params.Registry)
	if err != nil {
		return nil, err
	}
	admin, err := parseAccountOr("admin", params.Admin, c.caller)
	if err != nil {
		return nil, err
	}
	var out *registryJSON
	err = c.execute(func(tx *core.Tx) error {
		eng, err := tx.RegistryByName(name)
		if err != nil {
			return err
		}
		if err := eng.Initialize(admin, params.Name, params.Symbol); err != nil {
			return err
		}
		view, err := registryView(name, eng)
		out = view
		return err
	})
	return out, err
}

func handleRegistryMint(c *call) (interface{}, error) {
	var params registryMintParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	name, err := registryName(params.Registry)
	if err != nil {
		return nil, err
	}
	to, err := parseAccountOr("to", params.To, c.caller)
	if err != nil {
		return nil, err
	}
	var tokenID uint64
	err = c.execute(func(tx *core.Tx) error {
		eng, err := tx.RegistryByName(name)
		if err != nil {
			return err
		}
		tokenID, err = eng.Mint(to, params.URI)
		return err
	})
	if err != nil {
		return nil, err
	}
	return mintResult{Registry: name, TokenID: tokenID}, nil
}

func handleRegistryBurn(c *call) (interface{}, error) {
	var params registryTokenParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	name, err := registryName(params.Registry)
	if err != nil {
		return nil, err
	}
	if params.TokenID == nil {
		return nil, invalidParams("tokenId required")
	}
	err = c.execute(func(tx *core.Tx) error {
		eng, err := tx.RegistryByName(name)
		if err != nil {
			return err
		}
		return eng.Burn(c.caller, *params.TokenID)
	})
	if err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

func handleRegistryTransfer(c *call) (interface{}, error) {
	var params registryTokenParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	name, err := registryName(params.Registry)
	if err != nil {
		return nil, err
	}
	if params.TokenID == nil {
		return nil, invalidParams("tokenId required")
	}
	to, err := parseAccount("to", params.To)
	if err != nil {
		return nil, err
	}
	err = c.execute(func(tx *core.Tx) error {
		eng, err := tx.RegistryByName(name)
		if err != nil {
			return err
		}
		return eng.Transfer(c.caller, to, *params.TokenID)
	})
	if err != nil {
		return nil, err
	}
	return okResult{OK: true}, nil
}

// handleRegistryGet returns collection metadata, or a token record when a
// tokenId is supplied.
func handleRegistryGet(c *call) (interface{}, error) {
	var params registryTokenParams
	if err := c.decode(&params); err != nil {
		return nil, err
	}
	name, err := registryName(params.Registry)
	if err != nil {
		return nil, err
	}
	var out interface{}
	err = c.view(func(tx *core.Tx) error {
		eng, err := tx.RegistryByName(name)
		if err != nil {
			return err
		}
		if params.TokenID == nil {
			view, err := registryView(name, eng)
			out = view
			return err
		}
		detail, err := eng.Detail(*params.TokenID)
		if err != nil {
			return err
		}
		out = &tokenJSON{
			Registry: name,
			TokenID:  *params.TokenID,
			Owner:    crypto.FormatAccount(detail.Owner),
			URI:      detail.URI,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func registryView(name string, eng *registry.Engine) (*registryJSON, error) {
	admin, err := eng.Admin()
	if err != nil {
		return nil, err
	}
	meta, err := eng.Metadata()
	if err != nil {
		return nil, err
	}
	return &registryJSON{
		Registry: name,
		Account:  crypto.FormatAccount(eng.Account()),
		Admin:    crypto.FormatAccount(admin),
		Name:     meta.Name,
		Symbol:   meta.Symbol,
	}, nil
}
