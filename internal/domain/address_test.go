package domain

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress_RoundTrip(t *testing.T) {
	pub := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{7}, ed25519.SeedSize)).Public().(ed25519.PublicKey)
	a, err := AddressFromBytes(pub)
	require.NoError(t, err)

	parsed, err := ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
	assert.True(t, parsed.IsOnCurve())
	assert.False(t, parsed.IsZero())
}

func TestParseAddress_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"invalid alphabet", "0OIl"},
		{"too short", "3yZe7d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.input)
			assert.ErrorIs(t, err, ErrMalformedAddress)
		})
	}
}

func TestZeroAddress(t *testing.T) {
	assert.Equal(t, "11111111111111111111111111111111", ZeroAddress.String())

	parsed, err := ParseAddress(ZeroAddress.String())
	require.NoError(t, err)
	assert.True(t, parsed.IsZero())
}

func TestAddress_IsOnCurve(t *testing.T) {
	var offCurve Address
	offCurve[0] = 2 // y = 2 has no matching x
	assert.False(t, offCurve.IsOnCurve())
}

func TestAddress_JSON(t *testing.T) {
	a := MustParseAddress("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")

	data, err := json.Marshal(struct {
		Owner Address `json:"owner"`
	}{a})
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"}`, string(data))

	var out struct {
		Owner Address `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, a, out.Owner)

	assert.Error(t, json.Unmarshal([]byte(`{"owner":"nope"}`), &out))
}

func TestAddressFromBytes_Length(t *testing.T) {
	_, err := AddressFromBytes(make([]byte, 31))
	assert.ErrorIs(t, err, ErrMalformedAddress)
}
