package ltv

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Message tags for every constraint the control-time sliding process
// evaluates, named after the clause 9.2.2 steps they implement.
const (
	// CTS_WITSS: "Was the trust anchor's trust service status checked".
	TagWITSS = "CTS_WITSS"
	// CTS_DRIE: "Does revocation information exist".
	TagDRIE = "CTS_DRIE"
	// CTS_ICNEAIDORSI: "Is the certificate not expired at the issuance
	// date of the revocation status information".
	TagICNEAIDORSI = "CTS_ICNEAIDORSI"
	// CTS_IIDORSIBCT: "Is the issuance date of the revocation status
	// information before control-time".
	TagIIDORSIBCT = "CTS_IIDORSIBCT"
	// CTS_DSOPCPOEOC: "Does the set of POEs contain a proof of existence".
	TagDSOPCPOEOC = "CTS_DSOPCPOEOC"
	// CTS_SCT: "Set control-time".
	TagSCT = "CTS_SCT"
	// Algorithm-expiration sub-checks run within the CTS_SCT step, one per
	// (token, property) combination.
	TagAlgoCertDigest = "CTS_CTSTETOCSA_DIGEST"
	TagAlgoCertEnc    = "CTS_CTSTETOCSA_ENC"
	TagAlgoRevDigest  = "CTS_CTSTETORSA_DIGEST"
	TagAlgoRevEnc     = "CTS_CTSTETORSA_ENC"
)

// Engine runs the control-time sliding process over a certificate chain. It
// is stateless between calls to Run and safe to reuse, but a single Run
// executes on the calling goroutine with no internal concurrency, mirroring
// clause 9.2.2.4's single-threaded, single-shot contract.
type Engine struct {
	DiagnosticData DiagnosticData
	Policy         ValidationPolicy
	POE            POEStore

	// Clock supplies "now" for the initial control-time; defaults to
	// clockwork.NewRealClock() when nil.
	Clock clockwork.Clock

	// Metrics receives per-run and per-constraint telemetry; defaults to a
	// no-op sink when nil.
	Metrics ctsMetricsSink
}

// NewEngine builds an Engine with the required collaborators and the real
// system clock.
func NewEngine(diag DiagnosticData, policy ValidationPolicy, poe POEStore) *Engine {
	return &Engine{
		DiagnosticData: diag,
		Policy:         policy,
		POE:            poe,
		Clock:          clockwork.NewRealClock(),
		Metrics:        noOpCTSMetrics{},
	}
}

func (e *Engine) clock() clockwork.Clock {
	if e.Clock != nil {
		return e.Clock
	}
	return clockwork.NewRealClock()
}

func (e *Engine) metrics() ctsMetricsSink {
	if e.Metrics != nil {
		return e.Metrics
	}
	return noOpCTSMetrics{}
}

// Run executes the sliding process over chain, starting control-time at the
// engine clock's current instant (clause 9.2.2.4 step 1) and walking the
// chain from the trust anchor to the signing certificate (step 2).
func (e *Engine) Run(chain Chain) Conclusion {
	if len(chain) == 0 {
		panic("ltv: Run called with an empty chain")
	}

	start := e.clock().Now()
	trace := NewReportFragment("control-time-sliding")

	signingCertID := chain.SigningCertificateID()
	controlTime := start

	certsVisited := 0
	for _, certID := range chain.Reversed() {
		certsVisited++
		fragment := trace.Child(certID)

		view := e.DiagnosticData.LookupCertificate(certID)

		if view.Trusted {
			continue
		}

		if certID == signingCertID {
			controlTime = e.checkTrustServiceStatus(view, fragment, controlTime, start)
		}

		conclusion, handled := e.checkRevocationPresence(view, fragment, start)
		if handled {
			e.metrics().RecordRun(conclusion, start, e.clock().Now().Sub(start), certsVisited)
			conclusion.Trace = trace
			return conclusion
		}

		revocation := view.Revocation

		conclusion, handled = e.checkRevocationInScope(view, revocation, fragment, start)
		if handled {
			e.metrics().RecordRun(conclusion, start, e.clock().Now().Sub(start), certsVisited)
			conclusion.Trace = trace
			return conclusion
		}

		conclusion, handled = e.checkRevocationBeforeControlTime(revocation, fragment, controlTime, start)
		if handled {
			e.metrics().RecordRun(conclusion, start, e.clock().Now().Sub(start), certsVisited)
			conclusion.Trace = trace
			return conclusion
		}

		conclusion, handled = e.checkPOE(certID, revocation, fragment, controlTime, start)
		if handled {
			e.metrics().RecordRun(conclusion, start, e.clock().Now().Sub(start), certsVisited)
			conclusion.Trace = trace
			return conclusion
		}

		controlTime = e.slideControlTime(view, revocation, fragment, controlTime, start)
	}

	result := Conclusion{
		Indication:  IndicationValid,
		ControlTime: controlTime,
		Trace:       trace,
	}
	e.metrics().RecordRun(result, start, e.clock().Now().Sub(start), certsVisited)
	return result
}

// checkTrustServiceStatus implements clause 9.2.2.4 step 2's special case for
// the signing certificate: verify its trust service is, or historically was,
// a recognized status. A non-recognized status with a known end date slides
// control-time back to that date.
func (e *Engine) checkTrustServiceStatus(view *CertificateView, fragment *ReportFragment, controlTime, at time.Time) time.Time {
	class := ClassifyTrustServiceStatus(view.TrustServiceStatus)
	fragment.OK(TagWITSS, fmt.Sprintf("trust service status=%q", view.TrustServiceStatus), at)
	e.metrics().RecordConstraint(TagWITSS, ConstraintOK)

	if class.Recognized() {
		return controlTime
	}

	if view.TrustServiceStatus == "" {
		fragment.OK(TagWITSS, "trust service status is unknown", at)
		e.metrics().RecordConstraint(TagWITSS, ConstraintOK)
		return controlTime
	}

	fragment.AddConstraint(TagWITSS, ConstraintOK,
		fmt.Sprintf("trust service status %q not recognized, sliding control-time to its end date", view.TrustServiceStatus), at)
	e.metrics().RecordConstraint(TagWITSS, ConstraintOK)
	return view.TrustServiceEndDate
}

// checkRevocationPresence implements CTS_DRIE: revocation status information
// must exist for the certificate at all.
func (e *Engine) checkRevocationPresence(view *CertificateView, fragment *ReportFragment, at time.Time) (Conclusion, bool) {
	if view.HasRevocation() {
		fragment.OK(TagDRIE, "revocation data available", at)
		e.metrics().RecordConstraint(TagDRIE, ConstraintOK)
		return Conclusion{}, false
	}
	fragment.Fail(TagDRIE, "no revocation data available", at)
	e.metrics().RecordConstraint(TagDRIE, ConstraintFailed)
	return Conclusion{Indication: IndicationIndeterminate, SubIndication: SubIndicationNoPOE, ControlTime: at}, true
}

// checkRevocationInScope implements CTS_ICNEAIDORSI: the revocation status
// information's issuance time must fall within the certificate's validity
// period, otherwise it says nothing trustworthy about this certificate.
func (e *Engine) checkRevocationInScope(view *CertificateView, revocation *RevocationView, fragment *ReportFragment, at time.Time) (Conclusion, bool) {
	if revocation.IssuingTime.Before(view.NotBefore) || revocation.IssuingTime.After(view.NotAfter) {
		fragment.Fail(TagICNEAIDORSI, "revocation issuance time outside certificate validity period", at)
		e.metrics().RecordConstraint(TagICNEAIDORSI, ConstraintFailed)
		return Conclusion{Indication: IndicationIndeterminate, SubIndication: SubIndicationNoPOE, ControlTime: at}, true
	}
	fragment.OK(TagICNEAIDORSI, "revocation issuance time in scope", at)
	e.metrics().RecordConstraint(TagICNEAIDORSI, ConstraintOK)
	return Conclusion{}, false
}

// checkRevocationBeforeControlTime implements CTS_IIDORSIBCT: the revocation
// status information must have been issued before the current control-time.
func (e *Engine) checkRevocationBeforeControlTime(revocation *RevocationView, fragment *ReportFragment, controlTime, at time.Time) (Conclusion, bool) {
	if !revocation.IssuingTime.Before(controlTime) {
		fragment.Fail(TagIIDORSIBCT, fmt.Sprintf("revocation issuing time %s not before control-time %s", revocation.IssuingTime, controlTime), at)
		e.metrics().RecordConstraint(TagIIDORSIBCT, ConstraintFailed)
		return Conclusion{Indication: IndicationIndeterminate, SubIndication: SubIndicationNoPOE, ControlTime: controlTime}, true
	}
	fragment.OK(TagIIDORSIBCT, "revocation issuing time before control-time", at)
	e.metrics().RecordConstraint(TagIIDORSIBCT, ConstraintOK)
	return Conclusion{}, false
}

// checkPOE implements CTS_DSOPCPOEOC: proof of existence of the certificate
// and its revocation status information must be available at or before
// control-time.
func (e *Engine) checkPOE(certID string, revocation *RevocationView, fragment *ReportFragment, controlTime, at time.Time) (Conclusion, bool) {
	poeExists := e.POE.HasCertificatePOE(certID, controlTime)
	if !poeExists || revocation.IssuingTime.After(controlTime) {
		fragment.Fail(TagDSOPCPOEOC, "no proof of existence at or before control-time", at)
		e.metrics().RecordConstraint(TagDSOPCPOEOC, ConstraintFailed)
		return Conclusion{Indication: IndicationIndeterminate, SubIndication: SubIndicationNoPOE, ControlTime: controlTime}, true
	}
	fragment.OK(TagDSOPCPOEOC, "proof of existence available", at)
	e.metrics().RecordConstraint(TagDSOPCPOEOC, ConstraintOK)
	return Conclusion{}, false
}

// slideControlTime implements CTS_SCT: the revoked branch moves control-time
// to the revocation date; the not-revoked branch moves it to the revocation
// status information's issuance time if that information is stale past the
// policy's freshness threshold. Either branch may then be pulled further
// back by the algorithm-expiration checks.
func (e *Engine) slideControlTime(view *CertificateView, revocation *RevocationView, fragment *ReportFragment, controlTime, at time.Time) time.Time {
	// The certificate is revoked exactly when the revocation status
	// information says so. (An earlier inverted reading of this flag was
	// corrected: a revoked certificate must pull control-time back to its
	// revocation date, not skip that step.)
	revoked := revocation.Revoked

	if revoked {
		controlTime = revocation.RevocationDate
		fragment.AddConstraint(TagSCT, ConstraintOK, fmt.Sprintf("certificate revoked, control-time set to revocation date %s", controlTime), at)
		e.metrics().RecordConstraint(TagSCT, ConstraintOK)
	} else {
		freshnessGap := controlTime.Sub(revocation.IssuingTime)
		if freshnessGap > e.Policy.MaxRevocationFreshness() {
			controlTime = revocation.IssuingTime
			fragment.AddConstraint(TagSCT, ConstraintOK, fmt.Sprintf("revocation information stale (gap %s), control-time set to issuance time %s", freshnessGap, controlTime), at)
			e.metrics().RecordConstraint(TagSCT, ConstraintOK)
		} else {
			fragment.AddConstraint(TagSCT, ConstraintOK, "revocation information fresh, control-time unchanged", at)
			e.metrics().RecordConstraint(TagSCT, ConstraintOK)
		}
	}

	controlTime = e.applyAlgorithmExpiration(CanonicalDigestID(view.DigestAlgo), TagAlgoCertDigest, "certificate digest algorithm", fragment, controlTime, at)
	controlTime = e.applyAlgorithmExpiration(CanonicalAlgorithmID(view.EncryptionAlgo), TagAlgoCertEnc, "certificate encryption algorithm", fragment, controlTime, at)
	controlTime = e.applyAlgorithmExpiration(CanonicalDigestID(revocation.DigestAlgo), TagAlgoRevDigest, "revocation digest algorithm", fragment, controlTime, at)
	controlTime = e.applyAlgorithmExpiration(CanonicalAlgorithmID(revocation.EncryptionAlgo), TagAlgoRevEnc, "revocation encryption algorithm", fragment, controlTime, at)

	return controlTime
}

// applyAlgorithmExpiration implements clause 9.2.2.4 step 2-d for a single
// algorithm: when the algorithm's catalogued expiration date is before the
// current control-time, control-time slides back to that expiration date.
func (e *Engine) applyAlgorithmExpiration(canonicalID, tag, label string, fragment *ReportFragment, controlTime, at time.Time) time.Time {
	expiration, ok := algorithmExpiration(e.Policy, canonicalID)
	if !ok {
		return controlTime
	}
	if controlTime.After(expiration) {
		fragment.AddConstraint(tag, ConstraintOK, fmt.Sprintf("%s %q expired %s, control-time set to expiration date", label, canonicalID, expiration), at)
		e.metrics().RecordConstraint(tag, ConstraintOK)
		return expiration
	}
	fragment.AddConstraint(tag, ConstraintOK, fmt.Sprintf("%s %q not expired", label, canonicalID), at)
	e.metrics().RecordConstraint(tag, ConstraintOK)
	return controlTime
}
