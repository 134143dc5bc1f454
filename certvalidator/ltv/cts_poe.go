package ltv

import (
	"crypto/sha256"
	"time"
)

// POEManagerStore adapts a POEManager, which is keyed by raw data hash, to
// the certificate-ID-keyed POEStore the sliding engine consults. The lookup
// key is the SHA-256 digest of the ID string's bytes, so a proof of existence
// is found only if it was recorded with that digest as its data hash; a proof
// recorded for a certificate's DER bytes or its fingerprint bytes is not found.
type POEManagerStore struct {
	manager *POEManager
}

// NewPOEManagerStore wraps an existing POEManager.
func NewPOEManagerStore(manager *POEManager) *POEManagerStore {
	return &POEManagerStore{manager: manager}
}

func (s *POEManagerStore) keyFor(certID string) []byte {
	sum := sha256.Sum256([]byte(certID))
	return sum[:]
}

// HasCertificatePOE reports whether the wrapped manager holds a proof of
// existence for certID that is valid at or before "at".
func (s *POEManagerStore) HasCertificatePOE(certID string, at time.Time) bool {
	if s.manager == nil {
		return false
	}
	for _, poe := range s.manager.GetBefore(s.keyFor(certID), at.Add(time.Nanosecond)) {
		if poe.IsValidAt(at) {
			return true
		}
	}
	return false
}

// staticPOEStore is a POEStore backed by a fixed set of (certID, time)
// pairs, useful for tests and for callers that only ever need "POE exists
// from this instant onward" semantics without the full POEManager machinery.
type staticPOEStore struct {
	earliest map[string]time.Time
}

// NewStaticPOEStore builds a POEStore from a map of certificate ID to the
// earliest instant a proof of existence is available for it.
func NewStaticPOEStore(earliest map[string]time.Time) POEStore {
	cp := make(map[string]time.Time, len(earliest))
	for k, v := range earliest {
		cp[k] = v
	}
	return &staticPOEStore{earliest: cp}
}

func (s *staticPOEStore) HasCertificatePOE(certID string, at time.Time) bool {
	t, ok := s.earliest[certID]
	if !ok {
		return false
	}
	return !t.After(at)
}
