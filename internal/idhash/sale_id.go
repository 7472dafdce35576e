package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"star-notary/internal/domain"
)

// ComputeSaleID computes a deterministic sale_id using SHA256.
// Formula: SHA256(token_id|seller|buyer|price|seq)
// seq is the number of sales already recorded for the token, so a star
// sold twice between the same parties at the same price still gets distinct ids.
// Returns hex-encoded hash (64 characters).
func ComputeSaleID(
	tokenID domain.TokenID,
	seller domain.Address,
	buyer domain.Address,
	price domain.Lamports,
	seq int,
) string {
	data := fmt.Sprintf("%d|%s|%s|%d|%d",
		uint64(tokenID),
		seller.String(),
		buyer.String(),
		uint64(price),
		seq,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeFingerprint computes a hex SHA256 of a star's coordinates.
// Formula: SHA256(len(ra):ra|len(dec):dec|len(mag):mag)
// Length prefixes keep ("a|b","c","d") and ("a","b|c","d") apart.
func ComputeFingerprint(c domain.Coordinates) string {
	data := fmt.Sprintf("%d:%s|%d:%s|%d:%s",
		len(c.RA), c.RA,
		len(c.Dec), c.Dec,
		len(c.Mag), c.Mag,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
