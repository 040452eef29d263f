// Package knowledge provides read-only knowledge base backends keyed by
// claim fingerprint.
package knowledge

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// DefaultConfidence is used when a record carries no confidence
const DefaultConfidence = 0.8

// Record is a knowledge base entry for one claim
type Record struct {
	Claim      string   `json:"claim,omitempty" yaml:"claim,omitempty"`
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Verified   bool     `json:"verified" yaml:"verified"`
}

// ConfidenceOrDefault returns the stored confidence or DefaultConfidence
func (r Record) ConfidenceOrDefault() float64 {
	if r.Confidence == nil {
		return DefaultConfidence
	}
	return *r.Confidence
}

// Store looks up knowledge base records. Implementations must be safe for
// concurrent use and must not be mutated through this interface.
type Store interface {
	Lookup(fingerprint string) (Record, bool)
}

// Fingerprint returns the hex MD5 digest of the trimmed, lower-cased claim
func Fingerprint(claim string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(claim))))
	return hex.EncodeToString(sum[:])
}

// MapStore is an in-memory store keyed by fingerprint
type MapStore map[string]Record

// NewMapStore indexes records by the fingerprint of their claim text
func NewMapStore(records ...Record) MapStore {
	m := make(MapStore, len(records))
	for _, r := range records {
		m[Fingerprint(r.Claim)] = r
	}
	return m
}

// Lookup implements Store
func (m MapStore) Lookup(fingerprint string) (Record, bool) {
	r, ok := m[fingerprint]
	return r, ok
}
