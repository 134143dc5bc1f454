package ltv

import (
	"fmt"
	"time"
)

// CanonicalAlgorithmID builds the lookup key a ValidationPolicy's algorithm
// expiration catalogue is keyed by for an encryption algorithm: "<name>-<bits>"
// when a key length is known and bare "<name>" when it is zero. The lookup is
// exact, so a catalogue entry keyed by the bare name applies only to views
// whose key length is unknown, not to every key size of that algorithm.
// Digest algorithms are keyed by CanonicalDigestID.
func CanonicalAlgorithmID(a AlgoWithKeyLength) string {
	if a.KeyLengthBits > 0 {
		return fmt.Sprintf("%s-%d", a.Name, a.KeyLengthBits)
	}
	return a.Name
}

// CanonicalDigestID returns a digest algorithm name unchanged as its catalogue
// key. No case folding or OID-to-name mapping is applied, so "sha256",
// "SHA256" and "2.16.840.1.101.3.4.2.1" are three different keys. It exists
// separately from CanonicalAlgorithmID because digest algorithms never carry
// a key length component.
func CanonicalDigestID(name string) string {
	return name
}

// algorithmExpiration looks up the expiration date for a canonical algorithm
// ID. A missing catalogue entry means the algorithm never expires under the
// active policy, reported as ok == false.
func algorithmExpiration(policy ValidationPolicy, canonicalID string) (at time.Time, ok bool) {
	return policy.AlgorithmExpiration(canonicalID)
}
