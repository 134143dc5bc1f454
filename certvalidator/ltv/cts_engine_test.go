package ltv

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

var t0 = time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

type mapDiagnosticData map[string]*CertificateView

func (m mapDiagnosticData) LookupCertificate(id string) *CertificateView {
	if v, ok := m[id]; ok {
		return v
	}
	return &CertificateView{ID: id}
}

type testPolicy struct {
	freshness   time.Duration
	expirations map[string]time.Time
}

func (p *testPolicy) MaxRevocationFreshness() time.Duration { return p.freshness }

func (p *testPolicy) AlgorithmExpiration(canonicalID string) (time.Time, bool) {
	t, ok := p.expirations[canonicalID]
	return t, ok
}

func defaultPolicy() *testPolicy {
	return &testPolicy{freshness: 24 * time.Hour, expirations: map[string]time.Time{}}
}

func runEngine(chain Chain, diag DiagnosticData, policy ValidationPolicy, poe POEStore, now time.Time) Conclusion {
	e := &Engine{
		DiagnosticData: diag,
		Policy:         policy,
		POE:            poe,
		Clock:          clockwork.NewFakeClockAt(now),
		Metrics:        noOpCTSMetrics{},
	}
	return e.Run(chain)
}

func validCert(id string, notBefore, notAfter time.Time) *CertificateView {
	return &CertificateView{
		ID:             id,
		NotBefore:      notBefore,
		NotAfter:       notAfter,
		DigestAlgo:     "sha256",
		EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048},
	}
}

// TestHappyPath covers spec scenario 1: every certificate has fresh, in-scope
// revocation information and the trust anchor is recognized; control-time
// never moves.
func TestHappyPath(t *testing.T) {
	root := validCert("root", t0.Add(-10*365*24*time.Hour), t0.Add(10*365*24*time.Hour))
	root.Trusted = true

	ca := validCert("ca", t0.Add(-365*24*time.Hour), t0.Add(365*24*time.Hour))
	ca.Revocation = &RevocationView{IssuingTime: t0.Add(-1 * time.Hour), DigestAlgo: "sha256", EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048}}

	ee := validCert("ee", t0.Add(-30*24*time.Hour), t0.Add(30*24*time.Hour))
	ee.Revocation = &RevocationView{IssuingTime: t0.Add(-1 * time.Hour), DigestAlgo: "sha256", EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048}}

	diag := mapDiagnosticData{"root": root, "ca": ca, "ee": ee}
	chain := Chain{"ee", "ca", "root"}
	poe := NewStaticPOEStore(map[string]time.Time{"ee": t0.Add(-48 * time.Hour), "ca": t0.Add(-48 * time.Hour)})

	c := runEngine(chain, diag, defaultPolicy(), poe, t0)

	if c.Indication != IndicationValid {
		t.Fatalf("indication = %s, want valid", c.Indication)
	}
	if !c.ControlTime.Equal(t0) {
		t.Fatalf("control-time = %s, want %s", c.ControlTime, t0)
	}
}

// TestStaleRevocation covers spec scenario 2: the EE revocation is older than
// the freshness policy allows, so control-time slides to its issuance time.
func TestStaleRevocation(t *testing.T) {
	root := validCert("root", t0.Add(-10*365*24*time.Hour), t0.Add(10*365*24*time.Hour))
	root.Trusted = true

	ca := validCert("ca", t0.Add(-365*24*time.Hour), t0.Add(365*24*time.Hour))
	ca.Revocation = &RevocationView{IssuingTime: t0.Add(-1 * time.Hour), DigestAlgo: "sha256", EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048}}

	staleAt := t0.Add(-48 * time.Hour)
	ee := validCert("ee", t0.Add(-30*24*time.Hour), t0.Add(30*24*time.Hour))
	ee.Revocation = &RevocationView{IssuingTime: staleAt, DigestAlgo: "sha256", EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048}}

	diag := mapDiagnosticData{"root": root, "ca": ca, "ee": ee}
	chain := Chain{"ee", "ca", "root"}
	poe := NewStaticPOEStore(map[string]time.Time{"ee": staleAt.Add(-time.Hour), "ca": t0.Add(-48 * time.Hour)})

	c := runEngine(chain, diag, defaultPolicy(), poe, t0)

	if c.Indication != IndicationValid {
		t.Fatalf("indication = %s, want valid", c.Indication)
	}
	if !c.ControlTime.Equal(staleAt) {
		t.Fatalf("control-time = %s, want %s", c.ControlTime, staleAt)
	}
}

// TestRevokedEE covers spec scenario 3: the EE's revocation record marks it
// revoked, sliding control-time to the revocation date.
func TestRevokedEE(t *testing.T) {
	root := validCert("root", t0.Add(-10*365*24*time.Hour), t0.Add(10*365*24*time.Hour))
	root.Trusted = true

	ca := validCert("ca", t0.Add(-365*24*time.Hour), t0.Add(365*24*time.Hour))
	ca.Revocation = &RevocationView{IssuingTime: t0.Add(-1 * time.Hour), DigestAlgo: "sha256", EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048}}

	revokedAt := t0.Add(-10 * time.Hour)
	ee := validCert("ee", t0.Add(-30*24*time.Hour), t0.Add(30*24*time.Hour))
	ee.Revocation = &RevocationView{
		IssuingTime:    t0.Add(-1 * time.Hour),
		DigestAlgo:     "sha256",
		EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048},
		Revoked:        true,
		RevocationDate: revokedAt,
	}

	diag := mapDiagnosticData{"root": root, "ca": ca, "ee": ee}
	chain := Chain{"ee", "ca", "root"}
	poe := NewStaticPOEStore(map[string]time.Time{"ee": t0.Add(-48 * time.Hour), "ca": t0.Add(-48 * time.Hour)})

	c := runEngine(chain, diag, defaultPolicy(), poe, t0)

	if c.Indication != IndicationValid {
		t.Fatalf("indication = %s, want valid", c.Indication)
	}
	if !c.ControlTime.Equal(revokedAt) {
		t.Fatalf("control-time = %s, want %s", c.ControlTime, revokedAt)
	}
}

// TestMissingRevocationOnCA covers spec scenario 4: the CA has no revocation
// record at all, failing CTS_DRIE.
func TestMissingRevocationOnCA(t *testing.T) {
	root := validCert("root", t0.Add(-10*365*24*time.Hour), t0.Add(10*365*24*time.Hour))
	root.Trusted = true

	ca := validCert("ca", t0.Add(-365*24*time.Hour), t0.Add(365*24*time.Hour))

	ee := validCert("ee", t0.Add(-30*24*time.Hour), t0.Add(30*24*time.Hour))
	ee.Revocation = &RevocationView{IssuingTime: t0.Add(-1 * time.Hour), DigestAlgo: "sha256", EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048}}

	diag := mapDiagnosticData{"root": root, "ca": ca, "ee": ee}
	chain := Chain{"ee", "ca", "root"}
	poe := NewStaticPOEStore(map[string]time.Time{"ee": t0.Add(-48 * time.Hour)})

	c := runEngine(chain, diag, defaultPolicy(), poe, t0)

	if c.Indication != IndicationIndeterminate || c.SubIndication != SubIndicationNoPOE {
		t.Fatalf("conclusion = %s/%s, want indeterminate/no_poe", c.Indication, c.SubIndication)
	}

	var last *ConstraintRecord
	c.Trace.Walk(func(f *ReportFragment) {
		for i := range f.Constraints {
			last = &f.Constraints[i]
		}
	})
	if last == nil || last.Tag != TagDRIE || last.Status != ConstraintFailed {
		t.Fatalf("last constraint = %+v, want %s failed", last, TagDRIE)
	}
}

// TestAlgorithmExpired covers spec scenario 5: the EE's certificate digest
// algorithm expired before the current control-time, pulling it back.
func TestAlgorithmExpired(t *testing.T) {
	root := validCert("root", t0.Add(-10*365*24*time.Hour), t0.Add(10*365*24*time.Hour))
	root.Trusted = true

	ca := validCert("ca", t0.Add(-365*24*time.Hour), t0.Add(365*24*time.Hour))
	ca.Revocation = &RevocationView{IssuingTime: t0.Add(-1 * time.Hour), DigestAlgo: "sha256", EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048}}

	expiresAt := t0.Add(-5 * time.Hour)
	ee := validCert("ee", t0.Add(-30*24*time.Hour), t0.Add(30*24*time.Hour))
	ee.DigestAlgo = "sha1"
	ee.Revocation = &RevocationView{IssuingTime: t0.Add(-1 * time.Hour), DigestAlgo: "sha256", EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048}}

	diag := mapDiagnosticData{"root": root, "ca": ca, "ee": ee}
	chain := Chain{"ee", "ca", "root"}
	poe := NewStaticPOEStore(map[string]time.Time{"ee": t0.Add(-48 * time.Hour), "ca": t0.Add(-48 * time.Hour)})

	policy := defaultPolicy()
	policy.expirations[CanonicalDigestID("sha1")] = expiresAt

	c := runEngine(chain, diag, policy, poe, t0)

	if c.Indication != IndicationValid {
		t.Fatalf("indication = %s, want valid", c.Indication)
	}
	if !c.ControlTime.Equal(expiresAt) {
		t.Fatalf("control-time = %s, want %s", c.ControlTime, expiresAt)
	}
}

// TestBrokenTrustAnchor covers spec scenario 6: the signing certificate is
// itself the trust anchor with an unrecognized trust-service status, sliding
// control-time to its service end-date.
func TestBrokenTrustAnchor(t *testing.T) {
	endDate := t0.Add(-30 * 24 * time.Hour)
	anchor := validCert("anchor", t0.Add(-10*365*24*time.Hour), t0.Add(10*365*24*time.Hour))
	anchor.TrustServiceStatus = "urn:example:status:other"
	anchor.TrustServiceEndDate = endDate
	anchor.Revocation = &RevocationView{
		IssuingTime:    endDate.Add(-time.Hour),
		DigestAlgo:     "sha256",
		EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048},
	}

	diag := mapDiagnosticData{"anchor": anchor}
	chain := Chain{"anchor"}
	poe := NewStaticPOEStore(map[string]time.Time{"anchor": endDate.Add(-48 * time.Hour)})

	c := runEngine(chain, diag, defaultPolicy(), poe, t0)

	if c.Indication != IndicationValid {
		t.Fatalf("indication = %s, want valid", c.Indication)
	}
	if !c.ControlTime.Equal(endDate) {
		t.Fatalf("control-time = %s, want %s", c.ControlTime, endDate)
	}
}

// TestMonotoneSlideAndBounded is a lightweight property check: across a
// chain with a stale CA and a revoked EE, the final control-time does not
// exceed now and equals the EE's revocation date, which lies before the
// point the CA's stale revocation data slides to.
func TestMonotoneSlideAndBounded(t *testing.T) {
	root := validCert("root", t0.Add(-10*365*24*time.Hour), t0.Add(10*365*24*time.Hour))
	root.Trusted = true

	staleAt := t0.Add(-72 * time.Hour)
	ca := validCert("ca", t0.Add(-365*24*time.Hour), t0.Add(365*24*time.Hour))
	ca.Revocation = &RevocationView{IssuingTime: staleAt, DigestAlgo: "sha256", EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048}}

	revokedAt := staleAt.Add(-time.Hour)
	ee := validCert("ee", t0.Add(-30*24*time.Hour), t0.Add(30*24*time.Hour))
	ee.Revocation = &RevocationView{
		IssuingTime:    staleAt.Add(-2 * time.Hour),
		DigestAlgo:     "sha256",
		EncryptionAlgo: AlgoWithKeyLength{Name: "RSA", KeyLengthBits: 2048},
		Revoked:        true,
		RevocationDate: revokedAt,
	}

	diag := mapDiagnosticData{"root": root, "ca": ca, "ee": ee}
	chain := Chain{"ee", "ca", "root"}
	poe := NewStaticPOEStore(map[string]time.Time{"ee": staleAt.Add(-72 * time.Hour), "ca": staleAt.Add(-72 * time.Hour)})

	c := runEngine(chain, diag, defaultPolicy(), poe, t0)

	if c.ControlTime.After(t0) {
		t.Fatalf("control-time %s exceeds now %s", c.ControlTime, t0)
	}
	if !c.ControlTime.Equal(revokedAt) {
		t.Fatalf("control-time = %s, want %s", c.ControlTime, revokedAt)
	}
}

// TestEarlyReturnExclusivity checks that a run failing at CTS_DRIE records
// exactly one failed constraint in its trace.
func TestEarlyReturnExclusivity(t *testing.T) {
	root := validCert("root", t0.Add(-10*365*24*time.Hour), t0.Add(10*365*24*time.Hour))
	root.Trusted = true

	ca := validCert("ca", t0.Add(-365*24*time.Hour), t0.Add(365*24*time.Hour))

	diag := mapDiagnosticData{"root": root, "ca": ca}
	chain := Chain{"ca", "root"}
	poe := NewStaticPOEStore(map[string]time.Time{})

	c := runEngine(chain, diag, defaultPolicy(), poe, t0)

	failed := 0
	c.Trace.Walk(func(f *ReportFragment) {
		for _, rec := range f.Constraints {
			if rec.Status == ConstraintFailed {
				failed++
			}
		}
	})
	if failed != 1 {
		t.Fatalf("failed constraint count = %d, want 1", failed)
	}
}
