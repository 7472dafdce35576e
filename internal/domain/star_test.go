package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStar_Info(t *testing.T) {
	s := &Star{
		TokenID: 1,
		Name:    "Awesome Star",
		Story:   "Found it",
		Coordinates: Coordinates{
			RA:  "032.155",
			Dec: "121.874",
			Mag: "245.978",
		},
	}

	assert.Equal(t, StarInfo{
		Name:  "Awesome Star",
		Story: "Found it",
		RA:    "ra_032.155",
		Dec:   "dec_121.874",
		Mag:   "mag_245.978",
	}, s.Info())
}

func TestStar_InfoEmptyCoordinates(t *testing.T) {
	s := &Star{TokenID: 2}

	info := s.Info()
	assert.Equal(t, "ra_", info.RA)
	assert.Equal(t, "dec_", info.Dec)
	assert.Equal(t, "mag_", info.Mag)
}

func TestParseTokenID(t *testing.T) {
	id, err := ParseTokenID("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, TokenID(1<<64-1), id)
	assert.Equal(t, "18446744073709551615", id.String())

	for _, bad := range []string{"", "-1", "1.5", "abc", "18446744073709551616"} {
		_, err := ParseTokenID(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseLamports(t *testing.T) {
	v, err := ParseLamports("1000000000")
	require.NoError(t, err)
	assert.Equal(t, LamportsPerSOL, v)
	assert.Equal(t, "1000000000", v.String())

	_, err = ParseLamports("1e9")
	assert.Error(t, err)
}

func TestEvent_JSON(t *testing.T) {
	price := Lamports(42)
	from, to := Address{1}, Address{2}
	e := Event{ID: "e1", Type: EventStarSold, TokenID: 9, From: &from, To: &to, Price: &price, Timestamp: 5}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":"42"`)
	assert.NotContains(t, string(data), `"operator"`)

	var back Event
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, e, back)
}

func TestTransferEvent(t *testing.T) {
	to := Address{3}
	e := TransferEvent(ZeroAddress, to, 4)

	assert.Equal(t, EventTransfer, e.Type)
	require.NotNil(t, e.From)
	assert.True(t, e.From.IsZero())
	assert.Equal(t, to, *e.To)
}
