package domain

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// AddressLength is the size of an account key in bytes.
const AddressLength = 32

// ErrMalformedAddress is returned when an address string does not decode
// to exactly AddressLength bytes.
var ErrMalformedAddress = errors.New("malformed address")

// Address identifies an account on the ledger.
// Text form is base58, the same encoding wallets use for ed25519 public keys.
type Address [AddressLength]byte

// ZeroAddress is the null account. It can never own a token or be approved.
var ZeroAddress Address

// ParseAddress decodes a base58 address.
func ParseAddress(s string) (Address, error) {
	var a Address
	if s == "" {
		return a, ErrMalformedAddress
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("%w: %v", ErrMalformedAddress, err)
	}
	if len(raw) != AddressLength {
		return a, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedAddress, len(raw), AddressLength)
	}
	copy(a[:], raw)
	return a, nil
}

// MustParseAddress is ParseAddress for constants and tests. Panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes copies a 32-byte key into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformedAddress, len(b), AddressLength)
	}
	copy(a[:], b)
	return a, nil
}

// String returns the base58 form.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// IsZero reports whether a is the null account.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// IsOnCurve reports whether the address is a valid ed25519 point,
// i.e. it can be the public key of a wallet keypair.
func (a Address) IsOnCurve() bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
