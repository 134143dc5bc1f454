package ltv

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"time"

	"github.com/jonboulle/clockwork"
)

// CertificateID derives the stable identifier the CTS engine uses for a
// certificate from its DER encoding. Using the raw bytes rather than the
// subject/serial pair avoids any ambiguity between reissued certificates
// that share a serial number.
func CertificateID(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}

func certID(cert *x509.Certificate) string {
	return CertificateID(cert)
}

// canonicalCertAlgos derives the digest and (encryption, key length) pair a
// certificate was signed with.
func canonicalCertAlgos(cert *x509.Certificate) (digest string, enc AlgoWithKeyLength) {
	digest = digestNameForSignatureAlgorithm(cert.SignatureAlgorithm)

	name := "unknown"
	bits := 0
	switch pub := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		name = "RSA"
		bits = pub.N.BitLen()
	case *ecdsa.PublicKey:
		name = "ECDSA"
		bits = pub.Curve.Params().BitSize
	default:
		if cert.SignatureAlgorithm == x509.PureEd25519 {
			name = "Ed25519"
		}
	}
	return digest, AlgoWithKeyLength{Name: name, KeyLengthBits: bits}
}

// digestNameForSignatureAlgorithm maps an x509 signature algorithm to the
// bare digest name used as a catalogue key.
func digestNameForSignatureAlgorithm(algo x509.SignatureAlgorithm) string {
	switch algo {
	case x509.MD5WithRSA:
		return "md5"
	case x509.SHA1WithRSA, x509.DSAWithSHA1, x509.ECDSAWithSHA1:
		return "sha1"
	case x509.SHA256WithRSA, x509.DSAWithSHA256, x509.ECDSAWithSHA256, x509.SHA256WithRSAPSS:
		return "sha256"
	case x509.SHA384WithRSA, x509.ECDSAWithSHA384, x509.SHA384WithRSAPSS:
		return "sha384"
	case x509.SHA512WithRSA, x509.ECDSAWithSHA512, x509.SHA512WithRSAPSS:
		return "sha512"
	case x509.PureEd25519:
		return "none"
	default:
		return "unknown"
	}
}

// pathDiagnosticData adapts a ValidationPath plus the revocation and POE
// data already gathered by a TimeSlideContext into the read-only views the
// abstract engine consults. It is built once per Run and never mutated.
type pathDiagnosticData struct {
	views map[string]*CertificateView
}

func (d *pathDiagnosticData) LookupCertificate(id string) *CertificateView {
	if v, ok := d.views[id]; ok {
		return v
	}
	return &CertificateView{ID: id}
}

// revocationViewForCert finds the best (most recently issued) CRL or OCSP
// response in ctx that speaks to cert's revocation status, mirroring the
// candidate gathering GatherPrimaFacieRevinfo performs for the concrete
// checker, and converts it to a RevocationView.
func revocationViewForCert(ctx *TimeSlideContext, cert *x509.Certificate) *RevocationView {
	var best *RevinfoContainer
	var bestRevoked bool
	var bestRevokedAt time.Time

	for _, c := range ctx.CRLs {
		if c.Container == nil || c.Container.IssuerCert == nil {
			continue
		}
		if !certIssuerMatches(cert, c.Container.IssuerCert) {
			continue
		}
		if best == nil || (c.Container.IssuanceDate != nil && best.IssuanceDate != nil && c.Container.IssuanceDate.After(*best.IssuanceDate)) {
			best = c.Container
			bestRevoked, bestRevokedAt = crlMarksRevoked(c.CRL, cert)
		}
	}

	for _, o := range ctx.OCSPs {
		if o.OCSPResponse == nil || o.OCSPResponse.IssuerCert == nil {
			continue
		}
		if !certIssuerMatches(cert, o.OCSPResponse.IssuerCert) {
			continue
		}
		if best == nil || (o.OCSPResponse.IssuanceDate != nil && best.IssuanceDate != nil && o.OCSPResponse.IssuanceDate.After(*best.IssuanceDate)) {
			best = o.OCSPResponse
			// A parsed OCSP response's revocation verdict is outside this
			// bridge's scope; treat OCSP-sourced revinfo as "checked, not
			// revoked" here.
			bestRevoked, bestRevokedAt = false, time.Time{}
		}
	}

	if best == nil || best.IssuanceDate == nil {
		return nil
	}

	digest, enc := canonicalAlgoNamesFromString(best.SignatureAlgorithm)
	return &RevocationView{
		IssuingTime:    *best.IssuanceDate,
		DigestAlgo:     digest,
		EncryptionAlgo: enc,
		Revoked:        bestRevoked,
		RevocationDate: bestRevokedAt,
	}
}

func certIssuerMatches(cert, issuer *x509.Certificate) bool {
	return cert.CheckSignatureFrom(issuer) == nil
}

func crlMarksRevoked(crl *x509.RevocationList, cert *x509.Certificate) (bool, time.Time) {
	if crl == nil {
		return false, time.Time{}
	}
	for _, entry := range crl.RevokedCertificateEntries {
		if entry.SerialNumber != nil && cert.SerialNumber != nil && entry.SerialNumber.Cmp(cert.SerialNumber) == 0 {
			return true, entry.RevocationTime
		}
	}
	return false, time.Time{}
}

// canonicalAlgoNamesFromString splits a "SHA256-RSA"-shaped algorithm label,
// as stored on RevinfoContainer, into digest and (encryption, key length)
// parts. Key length is not recoverable from the label alone and is left at
// zero, so the encryption part is looked up under its bare name only.
func canonicalAlgoNamesFromString(label string) (digest string, enc AlgoWithKeyLength) {
	if label == "" {
		return "unknown", AlgoWithKeyLength{Name: "unknown"}
	}
	for i := 0; i < len(label); i++ {
		if label[i] == '-' {
			return label[:i], AlgoWithKeyLength{Name: label[i+1:]}
		}
	}
	return label, AlgoWithKeyLength{Name: "unknown"}
}

// policyFromTrustPolicy adapts a CertRevTrustPolicy plus an algorithm
// expiration catalogue into the ValidationPolicy the abstract engine
// consults.
type policyFromTrustPolicy struct {
	freshness   time.Duration
	expirations map[string]time.Time
}

func (p *policyFromTrustPolicy) MaxRevocationFreshness() time.Duration {
	return p.freshness
}

func (p *policyFromTrustPolicy) AlgorithmExpiration(canonicalID string) (time.Time, bool) {
	t, ok := p.expirations[canonicalID]
	return t, ok
}

// NewValidationPolicyFromTrustPolicy builds a ValidationPolicy for the
// abstract engine from the concrete trust/freshness policy and an algorithm
// expiration catalogue (canonical ID -> expiration date), e.g. one sourced
// from a trust service list's SvcInfoExt or a local validation-constraints
// document.
func NewValidationPolicyFromTrustPolicy(trust *CertRevTrustPolicy, expirations map[string]time.Time) ValidationPolicy {
	freshness := DefaultRevocationFreshness().MaxCRLAge
	if trust != nil && trust.FreshnessPolicy != nil {
		freshness = trust.FreshnessPolicy.MaxCRLAge
	}
	return &policyFromTrustPolicy{freshness: freshness, expirations: expirations}
}

// BuildDiagnosticData walks path plus the revocation/trust-service data held
// in ctx and produces the DiagnosticData + Chain the abstract engine needs
// to run over this path. trustServiceStatus/trustServiceEndDate describe the
// signing certificate's trust service, when it is itself a directly trusted
// anchor (clause 9.2.2.4 step 2's special case); pass "" / zero time when
// not applicable.
func BuildDiagnosticData(path *ValidationPath, ctx *TimeSlideContext, trustServiceStatus string, trustServiceEndDate time.Time) (DiagnosticData, Chain) {
	data := &pathDiagnosticData{views: make(map[string]*CertificateView)}

	certs := path.AllCerts()
	chain := make(Chain, 0, len(certs))

	// AllCerts returns trust-anchor-first; the chain contract wants
	// signing-certificate-first, so build it leaf-first.
	for i := len(certs) - 1; i >= 0; i-- {
		chain = append(chain, certID(certs[i]))
	}

	for _, cert := range certs {
		id := certID(cert)
		digest, enc := canonicalCertAlgos(cert)
		view := &CertificateView{
			ID:         id,
			Trusted:    cert.Equal(path.TrustAnchor),
			NotBefore:  cert.NotBefore,
			NotAfter:   cert.NotAfter,
			DigestAlgo: digest,
			EncryptionAlgo: enc,
			Revocation: revocationViewForCert(ctx, cert),
		}
		if id == certID(path.Leaf()) {
			view.TrustServiceStatus = trustServiceStatus
			view.TrustServiceEndDate = trustServiceEndDate
		}
		data.views[id] = view
	}

	return data, chain
}

// RunControlTimeSliding runs the abstract control-time sliding engine over a
// concrete ValidationPath, adapting its ValidationPath/TimeSlideContext data
// into the engine's DiagnosticData/ValidationPolicy/POEStore collaborators.
// This is the preferred entry point for new callers; TimeSlideWithDefaults
// remains for callers that only have the legacy concrete checker available.
func RunControlTimeSliding(path *ValidationPath, ctx *TimeSlideContext, now time.Time, expirations map[string]time.Time) Conclusion {
	diag, chain := BuildDiagnosticData(path, ctx, "", time.Time{})
	policy := NewValidationPolicyFromTrustPolicy(ctx.RevTrustPolicy, expirations)
	poe := NewPOEManagerStore(ctx.POEManager)

	engine := &Engine{
		DiagnosticData: diag,
		Policy:         policy,
		POE:            poe,
		Clock:          clockwork.NewFakeClockAt(now),
		Metrics:        noOpCTSMetrics{},
	}
	return engine.Run(chain)
}
