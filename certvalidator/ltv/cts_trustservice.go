package ltv

import "github.com/dssgo/ltv/sign/validation/qualified"

// ClassifyTrustServiceStatus maps a trust service status URI, as published in
// a Trusted List (ETSI TS 119 612) and copied into diagnostic data, onto one
// of the four buckets the sliding process distinguishes: the three recognized
// statuses and Other. Both the current
// namespace and the historical eSignature Directive 1999/93/EC namespace are
// recognized, since a certificate issued years ago may carry a status the
// trust list only ever expressed in the historical form.
func ClassifyTrustServiceStatus(statusURI string) TrustServiceStatusClass {
	switch statusURI {
	case qualified.StatusUnderSupervisionURI, qualified.StatusUnderSupervisionURIHistorical:
		return TrustServiceStatusUnderSupervision
	case qualified.StatusSupervisionInCessationURI, qualified.StatusSupervisionInCessationURIHist:
		return TrustServiceStatusSupervisionInCessation
	case qualified.StatusAccreditedURI, qualified.StatusAccreditedURIHistorical:
		return TrustServiceStatusAccredited
	default:
		return TrustServiceStatusOther
	}
}
