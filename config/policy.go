package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dssgo/ltv/certvalidator/ltv"
)

// AlgorithmExpirationEntry pins one algorithm (or algorithm+key-length
// combination) to the date after which it is no longer considered reliable.
type AlgorithmExpirationEntry struct {
	// Algorithm is the canonical algorithm ID, e.g. "sha1" or "RSA-1024".
	Algorithm string `yaml:"algorithm"`

	// ExpiresOn is the date the algorithm stopped being considered reliable.
	ExpiresOn time.Time `yaml:"expires-on"`
}

// ValidationPolicyConfig is a YAML-loadable implementation of
// ltv.ValidationPolicy. Loading a trust-list-derived policy document (rather
// than this static file) is left to the caller; this type only covers the
// two knobs the control-time sliding engine itself consults.
type ValidationPolicyConfig struct {
	// MaxRevocationFreshnessDuration bounds how old revocation status
	// information may be before it is considered stale.
	MaxRevocationFreshnessDuration time.Duration `yaml:"max-revocation-freshness"`

	// AlgorithmExpirations is the expiration catalogue, keyed implicitly by
	// the Algorithm field of each entry.
	AlgorithmExpirations []AlgorithmExpirationEntry `yaml:"algorithm-expirations"`

	expirations map[string]time.Time
}

// policyYAML mirrors ValidationPolicyConfig's on-disk shape; MaxRevocationFreshnessDuration
// is expressed as a Go duration string in YAML (e.g. "2160h") since yaml.v3
// has no native time.Duration support.
type policyYAML struct {
	MaxRevocationFreshness string                     `yaml:"max-revocation-freshness"`
	AlgorithmExpirations   []AlgorithmExpirationEntry `yaml:"algorithm-expirations"`
}

// LoadValidationPolicy reads a YAML validation policy document from path.
func LoadValidationPolicy(path string) (*ValidationPolicyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("reading validation policy: %v", err), Err: err}
	}

	var raw policyYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("parsing validation policy: %v", err), Err: err}
	}

	freshness, err := time.ParseDuration(raw.MaxRevocationFreshness)
	if err != nil {
		return nil, NewConfigError("max-revocation-freshness", fmt.Sprintf("invalid duration: %v", err))
	}

	cfg := &ValidationPolicyConfig{
		MaxRevocationFreshnessDuration: freshness,
		AlgorithmExpirations:           raw.AlgorithmExpirations,
	}
	cfg.index()
	return cfg, nil
}

// DefaultValidationPolicy returns a permissive policy: a one-month revocation
// freshness window and MD5, SHA-1 and RSA-1024 pinned to their well-known ETSI-recognized
// expiration dates, which is enough for the common case without requiring a
// trust-list-derived catalogue.
func DefaultValidationPolicy() *ValidationPolicyConfig {
	cfg := &ValidationPolicyConfig{
		MaxRevocationFreshnessDuration: 30 * 24 * time.Hour,
		AlgorithmExpirations: []AlgorithmExpirationEntry{
			{Algorithm: "md5", ExpiresOn: time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)},
			{Algorithm: "sha1", ExpiresOn: time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)},
			{Algorithm: "RSA-1024", ExpiresOn: time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	cfg.index()
	return cfg
}

func (c *ValidationPolicyConfig) index() {
	c.expirations = make(map[string]time.Time, len(c.AlgorithmExpirations))
	for _, e := range c.AlgorithmExpirations {
		c.expirations[e.Algorithm] = e.ExpiresOn
	}
}

// MaxRevocationFreshness implements ltv.ValidationPolicy.
func (c *ValidationPolicyConfig) MaxRevocationFreshness() time.Duration {
	return c.MaxRevocationFreshnessDuration
}

// AlgorithmExpiration implements ltv.ValidationPolicy.
func (c *ValidationPolicyConfig) AlgorithmExpiration(canonicalID string) (time.Time, bool) {
	if c.expirations == nil {
		c.index()
	}
	t, ok := c.expirations[canonicalID]
	return t, ok
}

var _ ltv.ValidationPolicy = (*ValidationPolicyConfig)(nil)
