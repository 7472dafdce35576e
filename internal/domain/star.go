package domain

import (
	"math"
	"strconv"
)

// TokenID identifies one minted star. Assigned once by the caller, never reused.
type TokenID uint64

// MaxTokenID is the largest id every storage backend can hold.
const MaxTokenID TokenID = math.MaxInt64

// String returns the decimal form.
func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseTokenID parses a decimal token id.
func ParseTokenID(s string) (TokenID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return TokenID(v), nil
}

// Presentation prefixes for coordinate fields. Readers depend on these byte-for-byte.
const (
	PrefixRA  = "ra_"
	PrefixDec = "dec_"
	PrefixMag = "mag_"
)

// Coordinates is the fingerprint of a star: the exact strings supplied at creation.
// Two stars are the same iff all three components are equal. No normalization.
type Coordinates struct {
	RA  string // right ascension
	Dec string // declination
	Mag string // magnitude
}

// Star is the immutable metadata stored for a minted token.
type Star struct {
	TokenID     TokenID
	Name        string
	Story       string
	Coordinates Coordinates
	CreatedAt   int64 // unix ms
}

// StarInfo is the presentation tuple returned by tokenIdToStarInfo.
type StarInfo struct {
	Name  string `json:"name"`
	Story string `json:"story"`
	RA    string `json:"ra"`
	Dec   string `json:"dec"`
	Mag   string `json:"mag"`
}

// Info returns the presentation tuple with prefixed coordinates.
func (s *Star) Info() StarInfo {
	return StarInfo{
		Name:  s.Name,
		Story: s.Story,
		RA:    PrefixRA + s.Coordinates.RA,
		Dec:   PrefixDec + s.Coordinates.Dec,
		Mag:   PrefixMag + s.Coordinates.Mag,
	}
}
