// Package certvalidator provides X.509 certificate path validation.
// This file implements RFC 5280 PKIX certification path validation.
package certvalidator

import (
	"bytes"
	"context"
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// RevocationMode specifies how revocation checking should behave.
type RevocationMode int

const (
	// RevocationSoftFail allows validation to continue if revocation check fails.
	RevocationSoftFail RevocationMode = iota
	// RevocationHardFail fails validation if revocation check fails.
	RevocationHardFail
	// RevocationRequire requires revocation information to be present.
	RevocationRequire
)

// String returns the string representation of RevocationMode.
func (m RevocationMode) String() string {
	switch m {
	case RevocationSoftFail:
		return "soft-fail"
	case RevocationHardFail:
		return "hard-fail"
	case RevocationRequire:
		return "require"
	default:
		return "unknown"
	}
}

// Note: AlgorithmUsagePolicy interface is defined in policy_decl.go
// This file uses that interface for algorithm validation.

// PKIXValidationConfig holds configuration for PKIX validation.
type PKIXValidationConfig struct {
	// TrustManager manages trust anchors
	TrustManager TrustManager

	// CertRegistry for certificate lookups
	CertRegistry *CertificateRegistry

	// ValidationTime for certificate validation
	ValidationTime time.Time

	// TimeTolerance for validity period checks
	TimeTolerance time.Duration

	// RevocationMode controls revocation checking behavior
	RevocationMode RevocationMode

	// SkipRevocation skips revocation checking entirely
	SkipRevocation bool

	// AlgorithmPolicy for algorithm validation (uses interface from policy_decl.go)
	AlgorithmPolicy AlgorithmUsagePolicy

	// PKIXParams for policy validation
	PKIXParams *PKIXValidationParams

	// WhitelistedCerts fingerprints to skip certain checks
	WhitelistedCerts map[string]bool

	// CRLs holds preloaded CRLs for revocation checking.
	CRLs []*x509.RevocationList

	// MaxPathLength maximum certificate chain length
	MaxPathLength int
}

// NewPKIXValidationConfig creates a new validation config with defaults.
func NewPKIXValidationConfig(trustManager TrustManager) *PKIXValidationConfig {
	return &PKIXValidationConfig{
		TrustManager:    trustManager,
		ValidationTime:  time.Now(),
		TimeTolerance:   time.Minute,
		RevocationMode:  RevocationSoftFail,
		AlgorithmPolicy: NewDisallowWeakAlgorithmsPolicy(),
		MaxPathLength:   10,
	}
}

// PKIXPathValidationState holds the state during path validation.
// Implements RFC 5280 Section 6.1.2 initialization and state updates.
type PKIXPathValidationState struct {
	// Policy tree (Section 6.1.2 (d))
	ValidPolicyTree *PolicyTreeRoot

	// Policy counters (Section 6.1.2 (e), (f), (g))
	ExplicitPolicy   int
	InhibitAnyPolicy int
	PolicyMapping    int

	// Path length constraints (Section 6.1.2 (j), (k))
	MaxPathLength   int
	MaxAAPathLength int

	// Working values (Section 6.1.2 (c), (h), (i))
	WorkingPublicKey       crypto.PublicKey
	WorkingPublicKeyParams interface{}
	WorkingIssuerName      pkix.Name

	// Name constraints (Section 6.1.2 (l), (m))
	PermittedSubtrees *NameConstraints
	ExcludedSubtrees  *NameConstraints

	// Current certificate index
	Index int

	// Path length (n in RFC)
	PathLength int
	PathCerts  []*x509.Certificate

	// Configuration
	Config *PKIXValidationConfig

	// Accumulated errors and warnings
	Errors   []error
	Warnings []string
}

func (s *PKIXPathValidationState) certLabel(isLast bool) string {
	if isLast {
		return "the end-entity certificate"
	}
	return fmt.Sprintf("intermediate certificate %d", s.Index)
}

func (s *PKIXPathValidationState) issuerMismatchMessage(isLast bool) string {
	if isLast {
		return "The path could not be validated because the end-entity certificate issuer name could not be matched"
	}
	return fmt.Sprintf("The path could not be validated because intermediate certificate %d issuer name could not be matched", s.Index)
}

// NewPKIXPathValidationState creates a new validation state.
func NewPKIXPathValidationState(config *PKIXValidationConfig, pathLength int) *PKIXPathValidationState {
	// RFC 5280 Section 6.1.2: Initialize state variables
	// (d) valid_policy_tree: a tree of certificate policies with their optional
	//     qualifiers; each of the leaves of the tree represents a valid policy
	//     at this stage in the certification path validation.

	// Determine initial expected policy set
	expectedPolicySet := map[string]bool{AnyPolicy: true}
	if config.PKIXParams != nil && len(config.PKIXParams.UserInitialPolicySet) > 0 {
		expectedPolicySet = config.PKIXParams.UserInitialPolicySet
	}

	// Initialize policy tree with anyPolicy at depth 0
	validPolicyTree := InitPolicyTree(AnyPolicy, nil, expectedPolicySet)

	state := &PKIXPathValidationState{
		ValidPolicyTree:  validPolicyTree,
		ExplicitPolicy:   pathLength + 1,
		InhibitAnyPolicy: pathLength + 1,
		PolicyMapping:    pathLength + 1,
		MaxPathLength:    config.MaxPathLength,
		MaxAAPathLength:  -1,
		PathLength:       pathLength,
		Config:           config,
	}

	// Apply PKIX params if provided
	if config.PKIXParams != nil {
		if config.PKIXParams.InitialExplicitPolicy {
			state.ExplicitPolicy = 0
		}
		if config.PKIXParams.InitialAnyPolicyInhibit {
			state.InhibitAnyPolicy = 0
		}
		if config.PKIXParams.InitialPolicyMappingInhibit {
			state.PolicyMapping = 0
		}
	}

	return state
}

// InitFromTrustAnchor initializes state from a trust anchor (Section 6.1.2).
func (s *PKIXPathValidationState) InitFromTrustAnchor(anchor *CertTrustAnchor) error {
	cert := anchor.Certificate()

	// (c) working_public_key
	s.WorkingPublicKey = cert.PublicKey

	// (h) working_issuer_name
	s.WorkingIssuerName = cert.Subject

	// Initialize name constraints from trust anchor qualifiers
	quals := anchor.TrustQualifiers()
	if quals != nil {
		if quals.MaxPathLength >= 0 {
			s.MaxPathLength = quals.MaxPathLength
		}
		if quals.MaxAAPathLength >= 0 {
			s.MaxAAPathLength = quals.MaxAAPathLength
		}
	}

	// Note: Policy tree is already initialized in NewPKIXPathValidationState
	return nil
}

// ProcessCertificate processes a certificate in the path (Section 6.1.3).
func (s *PKIXPathValidationState) ProcessCertificate(cert *x509.Certificate, isLast bool) error {
	s.Index++

	// (a)(1) Verify signature
	if err := s.checkSignature(cert, isLast); err != nil {
		return err
	}

	// (a)(2) Check validity period
	if err := s.checkValidity(cert, isLast); err != nil {
		return err
	}

	// (a)(3) Check revocation - handled separately

	// (a)(4) Verify issuer name
	if err := s.checkIssuerName(cert, isLast); err != nil {
		return err
	}

	// (b) Check name constraints - permitted subtrees
	if err := s.checkPermittedSubtrees(cert); err != nil {
		return err
	}

	// (c) Check name constraints - excluded subtrees
	if err := s.checkExcludedSubtrees(cert); err != nil {
		return err
	}

	// (d) Process certificate policies
	if err := s.processCertificatePolicies(cert); err != nil {
		return err
	}

	// If not the last certificate, prepare for next (Section 6.1.4)
	if !isLast {
		if err := s.prepareNextCertificate(cert); err != nil {
			return err
		}
	}

	if err := s.checkCriticalExtensions(cert, isLast); err != nil {
		return err
	}

	return nil
}

// checkSignature verifies the certificate signature (Section 6.1.3 (a)(1)).
func (s *PKIXPathValidationState) checkSignature(cert *x509.Certificate, isLast bool) error {
	// Check algorithm policy
	if s.Config.AlgorithmPolicy != nil {
		validationTime := s.Config.ValidationTime
		constraint := s.Config.AlgorithmPolicy.SignatureAlgorithmAllowed(cert.SignatureAlgorithm, &validationTime, s.WorkingPublicKey)
		if !constraint.Allowed {
			return fmt.Errorf("signature algorithm %s is not allowed: %s", cert.SignatureAlgorithm, constraint.FailureReason)
		}
	}

	// Verify signature using working public key
	if s.WorkingPublicKey != nil {
		if err := cert.CheckSignatureFrom(&x509.Certificate{PublicKey: s.WorkingPublicKey}); err != nil {
			// Try direct verification
			if err := s.verifySignature(cert); err != nil {
				return fmt.Errorf("The path could not be validated because the signature of %s could not be verified", s.certLabel(isLast))
			}
			return nil
		}
	}

	return nil
}

// verifySignature performs direct signature verification.
func (s *PKIXPathValidationState) verifySignature(cert *x509.Certificate) error {
	// For self-signed certificates or when we have the issuer
	if s.WorkingPublicKey == nil {
		return nil // Will be verified when we have the issuer
	}

	// Convert x509.SignatureAlgorithm to SignedDigestAlgorithm
	sigAlgorithm := x509SignatureToSignedDigest(cert.SignatureAlgorithm)
	hashAlgo := getHashFromSignatureAlgorithm(cert.SignatureAlgorithm)
	context := &SignatureValidationContext{
		ContextualMDAlgorithm: hashAlgo,
	}

	validator := NewDefaultSignatureValidator()
	return validator.ValidateSignature(cert.Signature, cert.RawTBSCertificate, s.WorkingPublicKey, sigAlgorithm, context)
}

// checkValidity checks the certificate validity period (Section 6.1.3 (a)(2)).
func (s *PKIXPathValidationState) checkValidity(cert *x509.Certificate, isLast bool) error {
	validationTime := s.Config.ValidationTime
	tolerance := s.Config.TimeTolerance

	// Check NotBefore with tolerance
	notBefore := cert.NotBefore.Add(-tolerance)
	if validationTime.Before(notBefore) {
		return fmt.Errorf("The path could not be validated because %s is not valid until %s",
			s.certLabel(isLast), cert.NotBefore.UTC().Format("2006-01-02 15:04:05Z"))
	}

	// Check NotAfter with tolerance
	notAfter := cert.NotAfter.Add(tolerance)
	if validationTime.After(notAfter) {
		return fmt.Errorf("The path could not be validated because %s expired %s",
			s.certLabel(isLast), cert.NotAfter.UTC().Format("2006-01-02 15:04:05Z"))
	}

	return nil
}

// checkIssuerName verifies the issuer name matches (Section 6.1.3 (a)(4)).
func (s *PKIXPathValidationState) checkIssuerName(cert *x509.Certificate, isLast bool) error {
	if s.WorkingIssuerName.String() == "" {
		return nil // Not yet initialized
	}

	if !namesEqual(cert.Issuer, s.WorkingIssuerName) {
		return fmt.Errorf("%s", s.issuerMismatchMessage(isLast))
	}

	return nil
}

// checkPermittedSubtrees checks permitted name constraints (Section 6.1.3 (b)).
func (s *PKIXPathValidationState) checkPermittedSubtrees(cert *x509.Certificate) error {
	if s.PermittedSubtrees == nil {
		return nil
	}

	// Check subject name
	if err := s.PermittedSubtrees.CheckPermitted(cert.Subject); err != nil {
		return fmt.Errorf("The path could not be validated because not all names of the end-entity certificate are in the permitted namespace of the issuing authority.")
	}

	// Check subject alternative names
	for _, dns := range cert.DNSNames {
		if err := s.PermittedSubtrees.CheckPermittedDNS(dns); err != nil {
			return fmt.Errorf("The path could not be validated because not all names of the end-entity certificate are in the permitted namespace of the issuing authority.")
		}
	}

	for _, email := range cert.EmailAddresses {
		if err := s.PermittedSubtrees.CheckPermittedEmail(email); err != nil {
			return fmt.Errorf("The path could not be validated because not all names of the end-entity certificate are in the permitted namespace of the issuing authority.")
		}
	}

	for _, uri := range cert.URIs {
		if err := s.PermittedSubtrees.CheckPermittedURI(uri.String()); err != nil {
			return fmt.Errorf("The path could not be validated because not all names of the end-entity certificate are in the permitted namespace of the issuing authority.")
		}
	}

	for _, ip := range cert.IPAddresses {
		if err := s.PermittedSubtrees.CheckPermittedIP(ip); err != nil {
			return fmt.Errorf("The path could not be validated because not all names of the end-entity certificate are in the permitted namespace of the issuing authority.")
		}
	}

	return nil
}

// checkExcludedSubtrees checks excluded name constraints (Section 6.1.3 (c)).
func (s *PKIXPathValidationState) checkExcludedSubtrees(cert *x509.Certificate) error {
	if s.ExcludedSubtrees == nil {
		return nil
	}

	// Check subject name
	if s.ExcludedSubtrees.IsExcluded(cert.Subject) {
		return fmt.Errorf("The path could not be validated because some names of the end-entity certificate are excluded from the namespace of the issuing authority.")
	}

	// Check subject alternative names
	for _, dns := range cert.DNSNames {
		if s.ExcludedSubtrees.IsExcludedDNS(dns) {
			return fmt.Errorf("The path could not be validated because some names of the end-entity certificate are excluded from the namespace of the issuing authority.")
		}
	}

	for _, email := range cert.EmailAddresses {
		if s.ExcludedSubtrees.IsExcludedEmail(email) {
			return fmt.Errorf("The path could not be validated because some names of the end-entity certificate are excluded from the namespace of the issuing authority.")
		}
	}

	for _, uri := range cert.URIs {
		if s.ExcludedSubtrees.IsExcludedURI(uri.String()) {
			return fmt.Errorf("The path could not be validated because some names of the end-entity certificate are excluded from the namespace of the issuing authority.")
		}
	}

	for _, ip := range cert.IPAddresses {
		if s.ExcludedSubtrees.IsExcludedIP(ip) {
			return fmt.Errorf("The path could not be validated because some names of the end-entity certificate are excluded from the namespace of the issuing authority.")
		}
	}

	return nil
}

// processCertificatePolicies processes the certificate policies (Section 6.1.3 (d)).
func (s *PKIXPathValidationState) processCertificatePolicies(cert *x509.Certificate) error {
	if s.ValidPolicyTree == nil {
		return nil
	}

	// RFC 5280 Section 6.1.3 (d): If the certificate policies extension is present
	// in the certificate and the valid_policy_tree is not NULL, process the policy
	// information by performing the following steps in order:
	//
	// (e): If the certificate policies extension is not present, set the
	// valid_policy_tree to NULL.

	if len(cert.PolicyIdentifiers) == 0 {
		// No certificate policies extension - set tree to NULL
		s.ValidPolicyTree = nil
		return nil
	}

	// Convert certificate policies to CertificatePolicy slice
	var certPolicies []CertificatePolicy
	for _, oid := range cert.PolicyIdentifiers {
		certPolicies = append(certPolicies, CertificatePolicy{
			PolicyIdentifier: oid.String(),
		})
	}

	// Update policy tree at current depth
	anyPolicyUninhibited := s.InhibitAnyPolicy > 0
	s.ValidPolicyTree = UpdatePolicyTree(certPolicies, s.ValidPolicyTree, s.Index, anyPolicyUninhibited)

	return nil
}

// prepareNextCertificate prepares state for the next certificate (Section 6.1.4).
func (s *PKIXPathValidationState) prepareNextCertificate(cert *x509.Certificate) error {
	// Check if this is a CA certificate
	if !cert.IsCA {
		return fmt.Errorf("The path could not be validated because intermediate certificate %d is not a CA", s.Index)
	}

	// (a) Policy mappings are not applied here; this function does not call
	// ApplyPolicyMapping, so the policy tree is not updated for mappings.

	// (b) Update working_issuer_name
	s.WorkingIssuerName = cert.Subject

	// (c) Update working_public_key
	s.WorkingPublicKey = cert.PublicKey

	// (f) Process name constraints
	if err := s.processNameConstraints(cert); err != nil {
		return err
	}

	// (h) Update explicit_policy
	if s.ExplicitPolicy > 0 {
		s.ExplicitPolicy--
	}
	if hasRequireExplicitPolicy(cert) {
		if val := getRequireExplicitPolicy(cert); val < s.ExplicitPolicy {
			s.ExplicitPolicy = val
		}
	}

	// (i) Update inhibit_any_policy
	if s.InhibitAnyPolicy > 0 {
		s.InhibitAnyPolicy--
	}
	if hasInhibitAnyPolicy(cert) {
		if val := getInhibitAnyPolicy(cert); val < s.InhibitAnyPolicy {
			s.InhibitAnyPolicy = val
		}
	}

	// (j) Update policy_mapping
	if s.PolicyMapping > 0 {
		s.PolicyMapping--
	}
	if hasInhibitPolicyMapping(cert) {
		if val := getInhibitPolicyMapping(cert); val < s.PolicyMapping {
			s.PolicyMapping = val
		}
	}

	// (l) Check max_path_length
	if cert.MaxPathLen >= 0 || cert.MaxPathLenZero {
		if cert.MaxPathLen < s.MaxPathLength {
			s.MaxPathLength = cert.MaxPathLen
		}
	}

	// (m) Enforce max_path_length against remaining non-self-issued CAs
	if s.MaxPathLength >= 0 && len(s.PathCerts) > 0 {
		remainingCAs := 0
		lastIdx := len(s.PathCerts) - 1
		for i := s.Index; i < lastIdx; i++ {
			next := s.PathCerts[i]
			if next.IsCA && !isSelfIssued(next) {
				remainingCAs++
			}
		}
		if s.MaxPathLength < remainingCAs {
			return fmt.Errorf("The path could not be validated because it exceeds the maximum path length")
		}
	}

	// (n) Check key usage for CA
	if cert.KeyUsage != 0 && cert.KeyUsage&x509.KeyUsageCertSign == 0 {
		return fmt.Errorf("The path could not be validated because intermediate certificate %d is not allowed to sign certificates", s.Index)
	}

	return nil
}

func (s *PKIXPathValidationState) checkCriticalExtensions(cert *x509.Certificate, isLast bool) error {
	if len(cert.UnhandledCriticalExtensions) == 0 {
		return nil
	}

	label := s.certLabel(isLast)
	return fmt.Errorf("The path could not be validated because %s contains the following unsupported critical extension: %s",
		label, cert.UnhandledCriticalExtensions[0].String())
}

// processNameConstraints processes name constraints from a certificate.
func (s *PKIXPathValidationState) processNameConstraints(cert *x509.Certificate) error {
	// Process permitted subtrees
	if len(cert.PermittedDNSDomains) > 0 || len(cert.PermittedEmailAddresses) > 0 ||
		len(cert.PermittedURIDomains) > 0 || len(cert.PermittedIPRanges) > 0 {

		nc := NewNameConstraints()
		nc.PermittedDNSDomains = cert.PermittedDNSDomains
		nc.PermittedEmailAddresses = cert.PermittedEmailAddresses
		nc.PermittedURIDomains = cert.PermittedURIDomains
		nc.PermittedIPRanges = cert.PermittedIPRanges

		if s.PermittedSubtrees == nil {
			s.PermittedSubtrees = nc
		} else {
			s.PermittedSubtrees = s.PermittedSubtrees.Intersect(nc)
		}
	}

	// Process excluded subtrees
	if len(cert.ExcludedDNSDomains) > 0 || len(cert.ExcludedEmailAddresses) > 0 ||
		len(cert.ExcludedURIDomains) > 0 || len(cert.ExcludedIPRanges) > 0 {

		nc := NewNameConstraints()
		nc.ExcludedDNSDomains = cert.ExcludedDNSDomains
		nc.ExcludedEmailAddresses = cert.ExcludedEmailAddresses
		nc.ExcludedURIDomains = cert.ExcludedURIDomains
		nc.ExcludedIPRanges = cert.ExcludedIPRanges

		if s.ExcludedSubtrees == nil {
			s.ExcludedSubtrees = nc
		} else {
			s.ExcludedSubtrees = s.ExcludedSubtrees.Union(nc)
		}
	}

	return nil
}

// WrapUp performs final validation steps (Section 6.1.5).
func (s *PKIXPathValidationState) WrapUp(cert *x509.Certificate) (*PKIXValidationResult, error) {
	result := &PKIXValidationResult{
		Valid:    true,
		Errors:   s.Errors,
		Warnings: s.Warnings,
	}

	// (a) Check explicit_policy
	if s.ExplicitPolicy > 0 {
		s.ExplicitPolicy--
	}

	// (b) Check policy constraints on final cert
	if hasRequireExplicitPolicy(cert) {
		if val := getRequireExplicitPolicy(cert); val == 0 {
			s.ExplicitPolicy = 0
		}
	}

	// (c) Prune policy tree - use prunePolicyTree from policy_tree.go
	if s.ValidPolicyTree != nil {
		s.ValidPolicyTree = prunePolicyTree(s.ValidPolicyTree, s.PathLength)
	}

	// (d) Check valid_policy_tree
	if s.ExplicitPolicy == 0 && PolicyTreeIsEmpty(s.ValidPolicyTree) {
		result.Errors = append(result.Errors, errors.New("no valid policies found"))
		result.Valid = false
	}

	// (e) Calculate qualified policies
	if s.ValidPolicyTree != nil {
		validPolicies := CollectValidPolicies(s.ValidPolicyTree, s.PathLength)
		for policy := range validPolicies {
			result.ValidPolicies = append(result.ValidPolicies, policy)
		}
	}

	// Check for any accumulated errors
	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result, nil
}

// PKIXValidationResult holds the result of PKIX path validation.
type PKIXValidationResult struct {
	// Valid indicates whether validation succeeded
	Valid bool

	// ValidPolicies contains the valid policy OIDs
	ValidPolicies []string

	// Chain is the validated certificate chain
	Chain []*x509.Certificate

	// TrustAnchor is the trust anchor
	TrustAnchor *CertTrustAnchor

	// Errors encountered during validation
	Errors []error

	// Warnings (non-fatal issues)
	Warnings []string
}

// PKIXPathValidator performs RFC 5280 path validation.
type PKIXPathValidator struct {
	Config *PKIXValidationConfig
}

// NewPKIXPathValidator creates a new PKIX path validator.
func NewPKIXPathValidator(config *PKIXValidationConfig) *PKIXPathValidator {
	return &PKIXPathValidator{Config: config}
}

// ValidatePath validates a certification path.
func (v *PKIXPathValidator) ValidatePath(path *CertificationPath) (*PKIXValidationResult, error) {
	if path == nil || path.TrustAnchor == nil {
		return nil, errors.New("invalid path: no trust anchor")
	}

	pathLength := len(path.Certificates)

	// Initialize state
	state := NewPKIXPathValidationState(v.Config, pathLength)
	pathOrder := make([]*x509.Certificate, 0, pathLength)
	for i := pathLength - 1; i >= 0; i-- {
		pathOrder = append(pathOrder, path.Certificates[i])
	}
	state.PathCerts = pathOrder

	// Initialize from trust anchor (Section 6.1.2)
	if err := state.InitFromTrustAnchor(path.TrustAnchor); err != nil {
		return nil, fmt.Errorf("failed to initialize from trust anchor: %w", err)
	}

	// Process each certificate in the path (Section 6.1.3)
	for i, cert := range pathOrder {
		isLast := i == len(pathOrder)-1

		if err := state.ProcessCertificate(cert, isLast); err != nil {
			return &PKIXValidationResult{
				Valid:  false,
				Errors: []error{err},
				Chain:  path.Certificates,
			}, nil
		}

		// Check revocation if not skipped
		if !v.Config.SkipRevocation {
			if err := v.checkRevocation(cert, state, isLast); err != nil {
				if v.Config.RevocationMode == RevocationHardFail || v.Config.RevocationMode == RevocationRequire {
					return &PKIXValidationResult{
						Valid:  false,
						Errors: []error{err},
						Chain:  path.Certificates,
					}, nil
				}
				state.Warnings = append(state.Warnings, err.Error())
			}
		}
	}

	// Wrap up (Section 6.1.5)
	var targetCert *x509.Certificate
	if pathLength > 0 {
		targetCert = path.Certificates[0]
	} else {
		targetCert = path.TrustAnchor.Certificate()
	}

	result, err := state.WrapUp(targetCert)
	if err != nil {
		return nil, err
	}

	result.Chain = path.Certificates
	result.TrustAnchor = path.TrustAnchor

	return result, nil
}

// checkRevocation checks certificate revocation status.
func (v *PKIXPathValidator) checkRevocation(cert *x509.Certificate, state *PKIXPathValidationState, isLast bool) error {
	// Skip if whitelisted
	if v.Config.WhitelistedCerts != nil {
		fingerprint := fmt.Sprintf("%x", CertificateFingerprint(cert))
		if v.Config.WhitelistedCerts[fingerprint] {
			return nil
		}
	}

	declared := GetDeclaredRevInfo(cert)
	if v.Config.RevocationMode != RevocationRequire && !declared.HasCRL && !declared.HasOCSP {
		return nil
	}

	if len(v.Config.CRLs) == 0 {
		return fmt.Errorf("The path could not be validated because no revocation information could be found for %s", state.certLabel(isLast))
	}

	issuer := v.findIssuerCert(cert)
	var matchingCRLs []*x509.RevocationList
	for _, crl := range v.Config.CRLs {
		if crl == nil {
			continue
		}
		if namesEqual(crl.Issuer, cert.Issuer) {
			matchingCRLs = append(matchingCRLs, crl)
		}
	}

	if len(matchingCRLs) == 0 {
		return fmt.Errorf("The path could not be validated because no revocation information could be found for %s", state.certLabel(isLast))
	}

	var (
		lastErr      error
		hadValidCRL  bool
	)
	for _, crl := range matchingCRLs {
		crlIssuer := issuer
		if crlIssuer == nil || !namesEqual(crl.Issuer, crlIssuer.Subject) {
			crlIssuer = v.findCRLIssuer(crl)
		} else if len(crl.AuthorityKeyId) > 0 && !bytes.Equal(crlIssuer.SubjectKeyId, crl.AuthorityKeyId) {
			crlIssuer = v.findCRLIssuer(crl)
		}
		if crlIssuer == nil {
			lastErr = fmt.Errorf("The path could not be validated because no revocation information could be found for %s", state.certLabel(isLast))
			continue
		}

		if revTime, revoked := v.crlIssuerRevoked(crlIssuer); revoked {
			return fmt.Errorf("The path could not be validated because the end-entity certificate revocation checks failed: The CRL issuer certificate path could not be validated. CRL indicates the end-entity certificate CRL issuer was revoked at %s, due to a compromised key", revTime.UTC().Format("15:04:05 on 2006-01-02"))
		}

		if crlIssuer.KeyUsage != 0 && crlIssuer.KeyUsage&x509.KeyUsageCRLSign == 0 {
			lastErr = fmt.Errorf("The path could not be validated because the end-entity certificate revocation checks failed: The CRL issuer that was identified is not authorized to sign CRLs")
			continue
		}

		if err := verifyCRLSignature(crl, crlIssuer); err != nil {
			lastErr = fmt.Errorf("The path could not be validated because the end-entity certificate revocation checks failed: CRL signature could not be verified")
			continue
		}

		if hasUnknownCriticalCRLExtensions(crl) {
			lastErr = fmt.Errorf("The path could not be validated because the end-entity certificate revocation checks failed: One or more unrecognized critical extensions are present in the CRL")
			continue
		}

		if v.Config.ValidationTime.Before(crl.ThisUpdate) {
			lastErr = fmt.Errorf("The path could not be validated because the end-entity certificate revocation checks failed: CRL is not recent enough")
			continue
		}
		if !crl.NextUpdate.IsZero() && v.Config.ValidationTime.After(crl.NextUpdate) {
			lastErr = fmt.Errorf("The path could not be validated because the end-entity certificate revocation checks failed: CRL is not recent enough")
			continue
		}

		hadValidCRL = true
		for _, entry := range crl.RevokedCertificateEntries {
			if entry.SerialNumber.Cmp(cert.SerialNumber) == 0 {
				if hasUnknownCriticalCRLEntryExtensions(entry) {
					return fmt.Errorf("The path could not be validated because the end-entity certificate revocation checks failed: One or more unrecognized critical extensions are present in the CRL entry for the certificate")
				}
				revTime := entry.RevocationTime.UTC().Format("15:04:05 on 2006-01-02")
				reason := "a compromised key"
				return fmt.Errorf("CRL indicates %s was revoked at %s, due to %s", state.certLabel(isLast), revTime, reason)
			}
		}
	}

	if hadValidCRL {
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("The path could not be validated because no revocation information could be found for %s", state.certLabel(isLast))
}

func (v *PKIXPathValidator) findIssuerCert(cert *x509.Certificate) *x509.Certificate {
	if v.Config.CertRegistry != nil {
		issuers := v.Config.CertRegistry.FindPotentialIssuers(cert)
		if len(issuers) > 0 {
			return issuers[0]
		}
	}

	if v.Config.TrustManager != nil {
		anchors := v.Config.TrustManager.FindPotentialIssuers(cert, TrustedServiceCA)
		if len(anchors) > 0 {
			return anchors[0].Certificate()
		}
	}

	return nil
}

func (v *PKIXPathValidator) findCRLIssuer(crl *x509.RevocationList) *x509.Certificate {
	if v.Config.CertRegistry == nil {
		return nil
	}
	candidates := v.Config.CertRegistry.RetrieveByName(crl.Issuer)
	if len(candidates) == 0 {
		return nil
	}
	if len(crl.AuthorityKeyId) > 0 {
		for _, candidate := range candidates {
			if len(candidate.SubjectKeyId) > 0 && bytes.Equal(candidate.SubjectKeyId, crl.AuthorityKeyId) {
				return candidate
			}
		}
	}
	for _, candidate := range candidates {
		if candidate.KeyUsage == 0 || candidate.KeyUsage&x509.KeyUsageCRLSign != 0 {
			return candidate
		}
	}
	return candidates[0]
}

func (v *PKIXPathValidator) crlIssuerRevoked(cert *x509.Certificate) (time.Time, bool) {
	for _, crl := range v.Config.CRLs {
		if crl == nil {
			continue
		}
		if !namesEqual(crl.Issuer, cert.Issuer) {
			continue
		}
		for _, entry := range crl.RevokedCertificateEntries {
			if entry.SerialNumber.Cmp(cert.SerialNumber) == 0 {
				return entry.RevocationTime, true
			}
		}
	}
	return time.Time{}, false
}

func hasUnknownCriticalCRLExtensions(crl *x509.RevocationList) bool {
	for _, ext := range crl.Extensions {
		if !ext.Critical {
			continue
		}
		if !isKnownCRLExtension(ext.Id) {
			return true
		}
	}
	return false
}

func hasUnknownCriticalCRLEntryExtensions(entry x509.RevocationListEntry) bool {
	for _, ext := range entry.Extensions {
		if !ext.Critical {
			continue
		}
		if !isKnownCRLEntryExtension(ext.Id) {
			return true
		}
	}
	return false
}

func isKnownCRLExtension(oid asn1.ObjectIdentifier) bool {
	switch {
	case oid.Equal(asn1.ObjectIdentifier{2, 5, 29, 18}): // issuer_alt_name
	case oid.Equal(asn1.ObjectIdentifier{2, 5, 29, 20}): // crl_number
	case oid.Equal(asn1.ObjectIdentifier{2, 5, 29, 27}): // delta_crl_indicator
	case oid.Equal(asn1.ObjectIdentifier{2, 5, 29, 28}): // issuing_distribution_point
	case oid.Equal(asn1.ObjectIdentifier{2, 5, 29, 35}): // authority_key_identifier
	case oid.Equal(asn1.ObjectIdentifier{2, 5, 29, 46}): // freshest_crl
	case oid.Equal(asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 1, 1}): // authority_information_access
	default:
		return false
	}
	return true
}

func isKnownCRLEntryExtension(oid asn1.ObjectIdentifier) bool {
	switch {
	case oid.Equal(asn1.ObjectIdentifier{2, 5, 29, 21}): // crl_reason
	case oid.Equal(asn1.ObjectIdentifier{2, 5, 29, 23}): // hold_instruction_code
	case oid.Equal(asn1.ObjectIdentifier{2, 5, 29, 24}): // invalidity_date
	case oid.Equal(asn1.ObjectIdentifier{2, 5, 29, 29}): // certificate_issuer
	default:
		return false
	}
	return true
}

func verifyCRLSignature(crl *x509.RevocationList, issuer *x509.Certificate) error {
	if crl == nil || issuer == nil {
		return errors.New("missing CRL issuer")
	}
	sigAlgorithm := x509SignatureToSignedDigest(crl.SignatureAlgorithm)
	hashAlgo := getHashFromSignatureAlgorithm(crl.SignatureAlgorithm)
	context := &SignatureValidationContext{
		ContextualMDAlgorithm: hashAlgo,
	}
	validator := NewDefaultSignatureValidator()
	return validator.ValidateSignature(crl.Signature, crl.RawTBSRevocationList, issuer.PublicKey, sigAlgorithm, context)
}

// ValidateCertificate validates a single certificate by building paths and validating.
func (v *PKIXPathValidator) ValidateCertificate(cert *x509.Certificate) (*PKIXValidationResult, error) {
	if v.Config.CertRegistry == nil {
		return nil, errors.New("certificate registry required for path building")
	}

	// Build paths
	pathBuilder := NewPathBuilder(v.Config.TrustManager, v.Config.CertRegistry)
	path, err := pathBuilder.BuildFirstPath(context.TODO(), cert)
	if err != nil {
		return nil, fmt.Errorf("failed to build path: %w", err)
	}

	return v.ValidatePath(path)
}

// NameConstraints represents name constraint extensions.
type NameConstraints struct {
	PermittedDNSDomains     []string
	ExcludedDNSDomains      []string
	PermittedEmailAddresses []string
	ExcludedEmailAddresses  []string
	PermittedURIDomains     []string
	ExcludedURIDomains      []string
	PermittedIPRanges       []*net.IPNet
	ExcludedIPRanges        []*net.IPNet
}

// NewNameConstraints creates empty name constraints.
func NewNameConstraints() *NameConstraints {
	return &NameConstraints{}
}

// CheckPermitted checks if a name is permitted.
func (nc *NameConstraints) CheckPermitted(name pkix.Name) error {
	// If no permitted constraints, everything is permitted
	if len(nc.PermittedDNSDomains) == 0 && len(nc.PermittedEmailAddresses) == 0 &&
		len(nc.PermittedURIDomains) == 0 && len(nc.PermittedIPRanges) == 0 {
		return nil
	}
	return nil // Simplified - full implementation would check DN components
}

// CheckPermittedDNS checks if a DNS name is permitted.
func (nc *NameConstraints) CheckPermittedDNS(name string) error {
	if len(nc.PermittedDNSDomains) == 0 {
		return nil
	}
	for _, permitted := range nc.PermittedDNSDomains {
		if matchesDNSConstraint(name, permitted) {
			return nil
		}
	}
	return fmt.Errorf("DNS name %s not permitted", name)
}

// CheckPermittedEmail checks if an email is permitted.
func (nc *NameConstraints) CheckPermittedEmail(email string) error {
	if len(nc.PermittedEmailAddresses) == 0 {
		return nil
	}
	for _, permitted := range nc.PermittedEmailAddresses {
		if matchesEmailConstraint(email, permitted) {
			return nil
		}
	}
	return fmt.Errorf("email %s not permitted", email)
}

// CheckPermittedURI checks if a URI is permitted.
func (nc *NameConstraints) CheckPermittedURI(uri string) error {
	if len(nc.PermittedURIDomains) == 0 {
		return nil
	}
	for _, permitted := range nc.PermittedURIDomains {
		ok, err := URITreeContains(permitted, uri)
		if err == nil && ok {
			return nil
		}
	}
	return fmt.Errorf("URI %s not permitted", uri)
}

// CheckPermittedIP checks if an IP is permitted.
func (nc *NameConstraints) CheckPermittedIP(ip net.IP) error {
	if len(nc.PermittedIPRanges) == 0 {
		return nil
	}
	for _, permitted := range nc.PermittedIPRanges {
		if permitted.Contains(ip) {
			return nil
		}
	}
	return fmt.Errorf("IP %s not permitted", ip.String())
}

// IsExcluded checks if a name is excluded.
func (nc *NameConstraints) IsExcluded(name pkix.Name) bool {
	return false // Simplified
}

// IsExcludedDNS checks if a DNS name is excluded.
func (nc *NameConstraints) IsExcludedDNS(name string) bool {
	for _, excluded := range nc.ExcludedDNSDomains {
		if matchesDNSConstraint(name, excluded) {
			return true
		}
	}
	return false
}

// IsExcludedEmail checks if an email is excluded.
func (nc *NameConstraints) IsExcludedEmail(email string) bool {
	for _, excluded := range nc.ExcludedEmailAddresses {
		if matchesEmailConstraint(email, excluded) {
			return true
		}
	}
	return false
}

// IsExcludedURI checks if a URI is excluded.
func (nc *NameConstraints) IsExcludedURI(uri string) bool {
	for _, excluded := range nc.ExcludedURIDomains {
		ok, err := URITreeContains(excluded, uri)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// IsExcludedIP checks if an IP is excluded.
func (nc *NameConstraints) IsExcludedIP(ip net.IP) bool {
	for _, excluded := range nc.ExcludedIPRanges {
		if excluded.Contains(ip) {
			return true
		}
	}
	return false
}

// Intersect returns the intersection of two name constraints.
func (nc *NameConstraints) Intersect(other *NameConstraints) *NameConstraints {
	result := NewNameConstraints()
	// Simplified intersection
	if len(nc.PermittedDNSDomains) > 0 && len(other.PermittedDNSDomains) > 0 {
		result.PermittedDNSDomains = intersectStrings(nc.PermittedDNSDomains, other.PermittedDNSDomains)
	} else if len(nc.PermittedDNSDomains) > 0 {
		result.PermittedDNSDomains = nc.PermittedDNSDomains
	} else {
		result.PermittedDNSDomains = other.PermittedDNSDomains
	}
	return result
}

// Union returns the union of two name constraints (for excluded).
func (nc *NameConstraints) Union(other *NameConstraints) *NameConstraints {
	result := NewNameConstraints()
	result.ExcludedDNSDomains = append(nc.ExcludedDNSDomains, other.ExcludedDNSDomains...)
	result.ExcludedEmailAddresses = append(nc.ExcludedEmailAddresses, other.ExcludedEmailAddresses...)
	result.ExcludedURIDomains = append(nc.ExcludedURIDomains, other.ExcludedURIDomains...)
	result.ExcludedIPRanges = append(nc.ExcludedIPRanges, other.ExcludedIPRanges...)
	return result
}

// Helper functions

func matchesDNSConstraint(name, constraint string) bool {
	if constraint == "" {
		return true
	}
	trimmed := strings.TrimPrefix(constraint, ".")
	return DNSTreeContains(trimmed, name)
}

func matchesEmailConstraint(email, constraint string) bool {
	if constraint == "" {
		return true
	}
	return EmailTreeContains(constraint, email)
}

func intersectStrings(a, b []string) []string {
	result := make([]string, 0)
	for _, s := range a {
		for _, t := range b {
			if s == t {
				result = append(result, s)
				break
			}
		}
	}
	return result
}

func isSelfIssued(cert *x509.Certificate) bool {
	return cert.Subject.String() == cert.Issuer.String()
}

func hasRequireExplicitPolicy(cert *x509.Certificate) bool {
	// Check for policy constraints extension with requireExplicitPolicy
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(asn1.ObjectIdentifier{2, 5, 29, 36}) { // policyConstraints
			return true // Simplified check
		}
	}
	return false
}

func getRequireExplicitPolicy(cert *x509.Certificate) int {
	// Parse policy constraints extension
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(asn1.ObjectIdentifier{2, 5, 29, 36}) {
			var pc struct {
				RequireExplicitPolicy int `asn1:"optional,tag:0"`
				InhibitPolicyMapping  int `asn1:"optional,tag:1"`
			}
			if _, err := asn1.Unmarshal(ext.Value, &pc); err == nil {
				return pc.RequireExplicitPolicy
			}
		}
	}
	return -1
}

func hasInhibitAnyPolicy(cert *x509.Certificate) bool {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(asn1.ObjectIdentifier{2, 5, 29, 54}) { // inhibitAnyPolicy
			return true
		}
	}
	return false
}

func getInhibitAnyPolicy(cert *x509.Certificate) int {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(asn1.ObjectIdentifier{2, 5, 29, 54}) {
			var skipCerts int
			if _, err := asn1.Unmarshal(ext.Value, &skipCerts); err == nil {
				return skipCerts
			}
		}
	}
	return -1
}

func hasInhibitPolicyMapping(cert *x509.Certificate) bool {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(asn1.ObjectIdentifier{2, 5, 29, 36}) {
			return true // Check inhibitPolicyMapping in policyConstraints
		}
	}
	return false
}

func getInhibitPolicyMapping(cert *x509.Certificate) int {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(asn1.ObjectIdentifier{2, 5, 29, 36}) {
			var pc struct {
				RequireExplicitPolicy int `asn1:"optional,tag:0"`
				InhibitPolicyMapping  int `asn1:"optional,tag:1"`
			}
			if _, err := asn1.Unmarshal(ext.Value, &pc); err == nil {
				return pc.InhibitPolicyMapping
			}
		}
	}
	return -1
}

// x509SignatureToSignedDigest converts x509.SignatureAlgorithm to SignedDigestAlgorithm.
func x509SignatureToSignedDigest(algo x509.SignatureAlgorithm) *SignedDigestAlgorithm {
	var oid asn1.ObjectIdentifier

	switch algo {
	case x509.SHA1WithRSA:
		oid = OIDRSAWithSHA1
	case x509.SHA256WithRSA:
		oid = OIDRSAWithSHA256
	case x509.SHA384WithRSA:
		oid = OIDRSAWithSHA384
	case x509.SHA512WithRSA:
		oid = OIDRSAWithSHA512
	case x509.SHA256WithRSAPSS, x509.SHA384WithRSAPSS, x509.SHA512WithRSAPSS:
		oid = OIDRSAPSS
	case x509.DSAWithSHA1:
		oid = OIDDSAWithSHA1
	case x509.DSAWithSHA256:
		oid = OIDDSAWithSHA256
	case x509.ECDSAWithSHA1:
		oid = OIDECDSAWithSHA1
	case x509.ECDSAWithSHA256:
		oid = OIDECDSAWithSHA256
	case x509.ECDSAWithSHA384:
		oid = OIDECDSAWithSHA384
	case x509.ECDSAWithSHA512:
		oid = OIDECDSAWithSHA512
	case x509.PureEd25519:
		oid = OIDEd25519
	default:
		oid = asn1.ObjectIdentifier{0} // Unknown
	}

	return &SignedDigestAlgorithm{Algorithm: oid}
}
