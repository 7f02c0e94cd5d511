package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainTrace = "vexharness/trace/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TraceDigest is the content address of a trace: the domain-separated
// SHA-256 of its canonical JSON. Traces that compare equal element by
// element have the same digest, so 10 and 10.0 hash alike.
func TraceDigest(t Trace) (string, error) {
	canonical, err := t.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("TraceDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// MustTraceDigest is like TraceDigest but panics on error.
// Use only in tests or when the trace is known to be valid.
func MustTraceDigest(t Trace) string {
	d, err := TraceDigest(t)
	if err != nil {
		panic(err)
	}
	return d
}
