package common

import "fmt"

// Authorizer is the capability check consulted before an operation acts on
// behalf of an account. It either grants or denies the identity.
type Authorizer interface {
	RequireAuth(account [20]byte) error
}

// CallerAuth grants exactly one authenticated identity.
type CallerAuth struct {
	Caller [20]byte
}

// RequireAuth implements Authorizer.
func (c CallerAuth) RequireAuth(account [20]byte) error {
	if c.Caller == ([20]byte{}) || account != c.Caller {
		return fmt.Errorf("%w: caller may not act for account %x", ErrUnauthorized, account)
	}
	return nil
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(account [20]byte) error

// RequireAuth implements Authorizer.
func (f AuthorizerFunc) RequireAuth(account [20]byte) error { return f(account) }

// DenyAll rejects every identity. It is the default for read-only contexts.
type DenyAll struct{}

// RequireAuth implements Authorizer.
func (DenyAll) RequireAuth(account [20]byte) error {
	return fmt.Errorf("%w: no authenticated caller", ErrUnauthorized)
}
