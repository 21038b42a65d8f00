package p256k

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

// SecurityLevel grades a configuration.
type SecurityLevel string

const (
	SecurityLevelLow    SecurityLevel = "low"
	SecurityLevelMedium SecurityLevel = "medium"
	SecurityLevelHigh   SecurityLevel = "high"
)

// ValidationResult contains the result of configuration validation
type ValidationResult struct {
	Valid           bool          `json:"valid"`
	SecurityLevel   SecurityLevel `json:"security_level"`
	Warnings        []string      `json:"warnings,omitempty"`
	Errors          []string      `json:"errors,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:           true,
		SecurityLevel:   SecurityLevelHigh,
		Warnings:        []string{},
		Errors:          []string{},
		Recommendations: []string{},
	}
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.SecurityLevel = SecurityLevelLow
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(recommendation, format string, args ...interface{}) {
	if r.SecurityLevel == SecurityLevelHigh {
		r.SecurityLevel = SecurityLevelMedium
	}
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
	if recommendation != "" {
		r.Recommendations = append(r.Recommendations, recommendation)
	}
}

// Config holds per-call options for signing, verification and the
// algorithm signers.
type Config struct {
	// Format is the serialization used for keys produced by signers and
	// recovery.
	Format Format
	// AuxRand, when set, is the 32 bytes of BIP340 auxiliary randomness.
	// When nil, fresh random bytes are drawn for every signature.
	AuxRand []byte
	// LowS rejects ECDSA signatures with s > n/2 during verification.
	LowS bool
	// StrictMessage requires Schnorr messages to be exactly 32 bytes.
	StrictMessage bool
	// Audit receives signing, verification and key agreement events.
	Audit AuditEventHandler
	// KeepKeyOrder aggregates MuSig2 keys in the order given instead of
	// the sorted order.
	KeepKeyOrder bool
	// Rand supplies auxiliary randomness and MuSig2 nonce seeds.
	Rand io.Reader
}

// DefaultConfig returns compressed keys, random auxiliary data, permissive
// S values, variable-length Schnorr messages and no audit output.
func DefaultConfig() *Config {
	return &Config{
		Format: Compressed,
		Audit:  &NullAuditHandler{},
		Rand:   rand.Reader,
	}
}

// Option modifies a Config.
type Option func(*Config)

// WithAuxRand fixes the BIP340 auxiliary randomness. The bytes are copied.
func WithAuxRand(aux []byte) Option {
	return func(c *Config) {
		c.AuxRand = append([]byte{}, aux...)
	}
}

// WithLowS enables the low-S rule for ECDSA verification.
func WithLowS() Option {
	return func(c *Config) {
		c.LowS = true
	}
}

// WithStrictMessage restricts Schnorr messages to 32 bytes.
func WithStrictMessage() Option {
	return func(c *Config) {
		c.StrictMessage = true
	}
}

// WithFormat selects the public key serialization.
func WithFormat(format Format) Option {
	return func(c *Config) {
		c.Format = format
	}
}

// WithAuditHandler routes events to handler.
func WithAuditHandler(handler AuditEventHandler) Option {
	return func(c *Config) {
		c.Audit = handler
	}
}

// WithKeyOrder keeps MuSig2 signer keys in the order given.
func WithKeyOrder() Option {
	return func(c *Config) {
		c.KeepKeyOrder = true
	}
}

// WithRand replaces crypto/rand as the source of auxiliary randomness and
// nonce seeds.
func WithRand(r io.Reader) Option {
	return func(c *Config) {
		c.Rand = r
	}
}

func newConfig(opts []Option) *Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks the configuration and grades it.
func (c *Config) Validate() *ValidationResult {
	result := newValidationResult()

	if c.Format.Length() == 0 {
		result.fail("unknown public key format %d", int(c.Format))
	}

	if c.AuxRand != nil {
		if len(c.AuxRand) != 32 {
			result.fail("auxiliary randomness must be 32 bytes, got %d", len(c.AuxRand))
		} else {
			result.warn("omit WithAuxRand outside of test vectors so every signature gets fresh randomness",
				"fixed auxiliary randomness makes Schnorr nonces depend on the key and message only")
		}
	}

	if c.Audit == nil {
		result.fail("audit handler cannot be nil")
	}

	if c.Rand == nil {
		result.fail("randomness source cannot be nil")
	} else if c.Rand != rand.Reader {
		result.warn("use crypto/rand outside of test vectors",
			"custom randomness source in use")
	}

	if !c.LowS {
		result.Recommendations = append(result.Recommendations,
			"enable WithLowS where signatures must not be malleable")
	}

	return result
}

// Err converts a failed validation into ErrInvalidConfiguration.
func (c *Config) Err() error {
	result := c.Validate()
	if result.Valid {
		return nil
	}
	return ErrInvalidConfiguration.WithDetails("%s", strings.Join(result.Errors, "; "))
}
