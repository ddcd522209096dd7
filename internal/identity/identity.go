// Package identity computes the deduplication key and the near-duplicate
// analysis tags for review records.
package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"ReviewScanner/internal/domain"
	"ReviewScanner/internal/timeparse"
)

// fallbackPrefix marks synthetic record ids assigned upstream when the real
// one was missing; they are not stable and must not be used for identity.
const fallbackPrefix = "FALLBACK-"

// contentHashLimit bounds how much normalized text feeds the near-dup hash.
const contentHashLimit = 200

// Key returns the stable identity key for a record.
//
// Records carrying a genuine upstream id are keyed by (entity, id). Without
// one the key hashes the full-precision timestamp together with rating, title,
// and body, so records differing only by seconds stay distinct: near-duplicate
// is not duplicate.
func Key(r domain.Review) string {
	id := strings.TrimSpace(r.RecordID)
	if id != "" && !strings.HasPrefix(id, fallbackPrefix) {
		return r.EntityID + "|" + id
	}

	payload := strings.Join([]string{
		r.EntityID,
		r.TimestampRaw,
		ratingString(r.Rating),
		strings.TrimSpace(r.Title),
		strings.TrimSpace(r.Body),
	}, "|")
	sum := sha1.Sum([]byte(payload))
	return r.EntityID + "|SHA1-" + hex.EncodeToString(sum[:])
}

// Tag computes the near-duplicate markers: the minute-floored timestamp bucket
// and a hash of the normalized title+body prefix. The bucket is empty when the
// timestamp cannot be parsed; the hash is always produced.
func Tag(r domain.Review) (minuteBucket, contentHash string) {
	if ts, ok := timeparse.Parse(r.TimestampRaw); ok {
		minuteBucket = timeparse.FloorMinute(ts).Format("2006-01-02T15:04:05")
	}

	canon := canonical(r.Title + " | " + r.Body)
	if runes := []rune(canon); len(runes) > contentHashLimit {
		canon = string(runes[:contentHashLimit])
	}
	sum := sha1.Sum([]byte(canon))
	return minuteBucket, hex.EncodeToString(sum[:])
}

// Apply fills the derived tag fields on a record in place.
func Apply(r *domain.Review) {
	r.NearDupMinBucket, r.ContentHash200 = Tag(*r)
}

func canonical(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func ratingString(rating *float64) string {
	if rating == nil {
		return ""
	}
	return strconv.FormatFloat(*rating, 'g', -1, 64)
}
