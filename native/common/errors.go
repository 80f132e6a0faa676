package common

import "errors"

// Error kinds shared by every program. Module errors wrap exactly one of these
// so callers can classify failures with errors.Is.
var (
	ErrPrecondition = errors.New("precondition violation")
	ErrUnauthorized = errors.New("authorization failure")
	ErrState        = errors.New("state violation")
	ErrNotFound     = errors.New("not found")
	ErrTransfer     = errors.New("external transfer failure")
)

// Kind classifies an error into the shared taxonomy.
type Kind uint8

const (
	KindInternal Kind = iota
	KindPrecondition
	KindAuthorization
	KindState
	KindNotFound
	KindTransfer
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindTransfer:
		return "transfer"
	default:
		return "internal"
	}
}

// KindOf reports the taxonomy kind wrapped by err, or KindInternal when it
// wraps none of them.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrPrecondition):
		return KindPrecondition
	case errors.Is(err, ErrUnauthorized):
		return KindAuthorization
	case errors.Is(err, ErrState):
		return KindState
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTransfer):
		return KindTransfer
	default:
		return KindInternal
	}
}
