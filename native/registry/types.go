package registry

import (
	"fmt"
	"strings"

	"escrowchain/native/common"
)

// Kind selects the token semantics served by an Engine. Both kinds share the
// mint / ownership surface; only NFTs can change hands after minting.
type Kind uint8

const (
	KindNFT Kind = iota + 1
	KindSBT
)

func (k Kind) String() string {
	switch k {
	case KindNFT:
		return "nft"
	case KindSBT:
		return "sbt"
	default:
		return "unknown"
	}
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool { return k == KindNFT || k == KindSBT }

// Transferable reports whether tokens of this kind may be burned or moved.
func (k Kind) Transferable() bool { return k == KindNFT }

// ParseKind maps "nft" / "sbt" onto a Kind.
func ParseKind(raw string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "nft":
		return KindNFT, nil
	case "sbt":
		return KindSBT, nil
	default:
		return 0, fmt.Errorf("%w: unknown registry kind %q", common.ErrPrecondition, raw)
	}
}

// Metadata is the collection-level description stored at initialisation.
type Metadata struct {
	Name   string
	Symbol string
}

// Detail records the custody holder and URI of a single token.
type Detail struct {
	Owner [20]byte
	URI   string
}

var (
	ErrAlreadyInitialized = fmt.Errorf("%w: registry already initialized", common.ErrState)
	ErrNotInitialized     = fmt.Errorf("%w: registry not initialized", common.ErrState)
	ErrEmptyURI           = fmt.Errorf("%w: token uri can not be empty", common.ErrPrecondition)
	ErrEmptyMetadata      = fmt.Errorf("%w: name and symbol are required", common.ErrPrecondition)
	ErrRegistryAccount    = fmt.Errorf("%w: sender can not be the registry account", common.ErrPrecondition)
	ErrZeroTokenID        = fmt.Errorf("%w: token id can not be zero", common.ErrPrecondition)
	ErrNotOwner           = fmt.Errorf("%w: account does not hold the token", common.ErrUnauthorized)
	ErrTokenNotFound      = fmt.Errorf("%w: token does not exist", common.ErrNotFound)
	ErrNonTransferable    = fmt.Errorf("%w: soul-bound tokens can not move", common.ErrState)
)
