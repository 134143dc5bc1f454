package ltv

import (
	"time"

	"github.com/dssgo/ltv/sign/ades"
)

// Indication is the top-level outcome of a control-time sliding run, using the
// same small vocabulary as the wider AdES validation process (clause 4 of the
// applicable ETSI signature validation standard). CTS itself only ever
// produces Valid or Indeterminate; Failed is reserved for sibling processes
// such as the multi-value constraint checks in sign/validation. String()
// renders the ETSI EN 319 102-1 wire tokens sign/ades defines, rather than a
// second, parallel vocabulary.
type Indication int

const (
	IndicationValid Indication = iota
	IndicationIndeterminate
	IndicationFailed
)

// String returns the ETSI EN 319 102-1 wire form of the indication.
func (i Indication) String() string {
	switch i {
	case IndicationValid:
		return ades.IndicationPassed
	case IndicationIndeterminate:
		return ades.IndicationIndeterminate
	case IndicationFailed:
		return ades.IndicationFailed
	default:
		return "unknown"
	}
}

// SubIndication refines an Indeterminate (or Failed) indication. CTS only
// ever sets NoPOE; the remaining members exist so the conclusion type can be
// shared with sibling processes without a second enum.
type SubIndication int

const (
	SubIndicationNone SubIndication = iota
	SubIndicationNoPOE
	SubIndicationSigConstraintsFailure
)

func (s SubIndication) String() string {
	switch s {
	case SubIndicationNoPOE:
		return ades.SubIndicationGenericNoPoE
	case SubIndicationSigConstraintsFailure:
		return ades.SubIndicationSigConstraintsFailure
	default:
		return ""
	}
}

// TrustServiceStatusClass is the closed set of buckets the trust-service
// status classifier maps an opaque status URI onto (clause 5.5.3 of
// ETSI TS 119 612 distinguishes finer-grained values than CTS cares about).
type TrustServiceStatusClass int

const (
	TrustServiceStatusOther TrustServiceStatusClass = iota
	TrustServiceStatusUnderSupervision
	TrustServiceStatusSupervisionInCessation
	TrustServiceStatusAccredited
)

func (c TrustServiceStatusClass) String() string {
	switch c {
	case TrustServiceStatusUnderSupervision:
		return "under_supervision"
	case TrustServiceStatusSupervisionInCessation:
		return "supervision_in_cessation"
	case TrustServiceStatusAccredited:
		return "accredited"
	default:
		return "other"
	}
}

// Recognized reports whether the status class is one of the three the
// sliding process treats as a live, trustworthy trust service.
func (c TrustServiceStatusClass) Recognized() bool {
	return c == TrustServiceStatusUnderSupervision ||
		c == TrustServiceStatusSupervisionInCessation ||
		c == TrustServiceStatusAccredited
}

// AlgoWithKeyLength is a signature (encryption) algorithm identifier paired
// with the key length it was used at, e.g. ("RSA", 2048). Digest algorithms
// carry no key length and leave KeyLengthBits at zero.
type AlgoWithKeyLength struct {
	Name         string
	KeyLengthBits int
}

// RevocationView is the read-only slice of a revocation object (a CRL entry
// or an OCSP response) the sliding engine needs. Constructing one from a raw
// CRL/OCSP response is outside CTS's scope; see certvalidator/revinfo.
type RevocationView struct {
	// IssuingTime is when the revocation status information was produced.
	IssuingTime time.Time

	// DigestAlgo and EncryptionAlgo describe the algorithm used to sign the
	// revocation status information itself.
	DigestAlgo    string
	EncryptionAlgo AlgoWithKeyLength

	// Revoked is true when this revocation record marks the certificate as
	// revoked (as opposed to merely attesting it was checked and found good).
	Revoked bool

	// RevocationDate is meaningful only when Revoked is true.
	RevocationDate time.Time
}

// CertificateView is the read-only slice of diagnostic data the sliding
// engine needs for one certificate in the chain. All fields are populated
// once by the diagnostic-data loader; CTS never mutates one.
type CertificateView struct {
	ID string

	// Trusted marks a certificate as a trust anchor; the engine skips every
	// other check for it.
	Trusted bool

	NotBefore time.Time
	NotAfter  time.Time

	// TrustServiceStatus and TrustServiceEndDate are only meaningful for the
	// signing certificate when it is itself the trust anchor (the DSS
	// convention of a self-issued, directly-trusted signing certificate).
	TrustServiceStatus  string
	TrustServiceEndDate time.Time

	DigestAlgo    string
	EncryptionAlgo AlgoWithKeyLength

	Revocation *RevocationView
}

// HasRevocation reports whether a revocation record was attached to this
// view. A nil Revocation means "diagnostic data has no opinion", which makes
// CTS_DRIE fail with NoPOE.
func (c *CertificateView) HasRevocation() bool {
	return c.Revocation != nil
}

// Chain is an ordered sequence of certificate IDs as found in the signature's
// certificate path. By contract element 0 is the signing certificate and the
// last element is a trust anchor.
type Chain []string

// SigningCertificateID returns the chain's first element, or "" for an empty
// chain.
func (c Chain) SigningCertificateID() string {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Reversed returns a new slice with the trust anchor first and the signing
// certificate last -- the order clause 9.2.2.4 processes the chain in.
func (c Chain) Reversed() Chain {
	out := make(Chain, len(c))
	for i, id := range c {
		out[len(c)-1-i] = id
	}
	return out
}

// DiagnosticData resolves certificate IDs to their read-only views. A
// missing ID must yield a sentinel "unknown" view rather than nil or an
// error -- such a view can never legitimately appear in a well-formed chain,
// so CTS is not required to special-case it.
type DiagnosticData interface {
	LookupCertificate(id string) *CertificateView
}

// ValidationPolicy exposes the two policy knobs the sliding engine consults.
// Loading a policy document (trust-list ingestion, XML/JSON parsing, ...) is
// explicitly outside CTS's scope; see config.ValidationPolicyConfig for one
// concrete loader.
type ValidationPolicy interface {
	MaxRevocationFreshness() time.Duration
	AlgorithmExpiration(canonicalID string) (time.Time, bool)
}

// POEStore answers whether proof of existence for a certificate is available
// at or before a given instant. Implementations may be backed by archive
// timestamps, previously validated signatures, or (see cts_poe.go) a
// POEManager.
type POEStore interface {
	HasCertificatePOE(certID string, at time.Time) bool
}

// Conclusion is everything a control-time sliding run produces.
type Conclusion struct {
	Indication    Indication
	SubIndication SubIndication
	ControlTime   time.Time
	Trace         *ReportFragment
}
