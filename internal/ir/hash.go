package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainFD       = "armstrong/fd/v1"
	DomainSnapshot = "armstrong/snapshot/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FDID computes the content-addressed ID of an FD.
// Only LHS and RHS participate, matching FD identity.
func FDID(fd FD) string {
	return hashWithDomain(DomainFD, []byte(fd.Key()))
}

// SnapshotHash computes a hash over a set of FDs that does not depend on
// their order or metadata. Two working sets holding the same dependencies
// hash equal.
func SnapshotHash(fds []FD) (string, error) {
	ids := make([]string, len(fds))
	for i, fd := range fds {
		ids[i] = FDID(fd)
	}
	slices.Sort(ids)
	canonical, err := MarshalCanonical(slices.Compact(ids))
	if err != nil {
		return "", fmt.Errorf("SnapshotHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}
