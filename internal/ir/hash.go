package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm migration.
const (
	DomainRecord = "traiter/record/v1"
	DomainTrait  = "traiter/trait/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordID computes the content-addressed ID of an input text.
// Two records with the same field and text share an ID.
func RecordID(field, text string) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"field": field,
		"text":  text,
	})
	if err != nil {
		return "", fmt.Errorf("RecordID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// TraitID computes the content-addressed ID of a trait extracted from a
// record. Re-running the same grammar over the same record yields the same
// IDs, which makes store writes idempotent.
func TraitID(recordID string, t Trait) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"record_id": recordID,
		"trait":     t.canonicalObject(),
	})
	if err != nil {
		return "", fmt.Errorf("TraitID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrait, canonical), nil
}

// MustRecordID is like RecordID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecordID(field, text string) string {
	id, err := RecordID(field, text)
	if err != nil {
		panic(err)
	}
	return id
}
