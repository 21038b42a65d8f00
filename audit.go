package p256k

import (
	"crypto/rand"
	"fmt"
	"time"
)

// AuditEventType represents the type of audit event
type AuditEventType string

const (
	AuditEventSignature           AuditEventType = "signature"
	AuditEventVerificationFailure AuditEventType = "verification_failure"
	AuditEventKeyAgreement        AuditEventType = "key_agreement"
	AuditEventError               AuditEventType = "error"
)

// AuditEventReason represents why an event occurred
type AuditEventReason string

const (
	ReasonSign          AuditEventReason = "sign"
	ReasonVerify        AuditEventReason = "verify"
	ReasonRecover       AuditEventReason = "recover"
	ReasonKeyAgreement  AuditEventReason = "key_agreement"
	ReasonInvalidInput  AuditEventReason = "invalid_input"
	ReasonInvalidConfig AuditEventReason = "invalid_configuration"
)

// Algorithm names used in audit events.
const (
	AlgorithmECDSA            = "ecdsa"
	AlgorithmECDSARecoverable = "ecdsa-recoverable"
	AlgorithmSchnorr          = "schnorr-bip340"
	AlgorithmECDH             = "ecdh"
	AlgorithmMuSig2           = "musig2"
)

// AuditEvent represents a single audit event. It never carries secret
// material: keys appear only as public keys, messages only by size.
type AuditEvent struct {
	// Event metadata
	EventID   string           `json:"event_id"`
	Timestamp time.Time        `json:"timestamp"`
	EventType AuditEventType   `json:"event_type"`
	Reason    AuditEventReason `json:"reason"`

	Algorithm string `json:"algorithm,omitempty"`
	PublicKey string `json:"public_key,omitempty"`
	Format    string `json:"format,omitempty"`

	// Success/failure information
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// SignatureEvent describes a produced signature.
type SignatureEvent struct {
	AuditEvent

	MessageSize   int `json:"message_size"`
	SignatureSize int `json:"signature_size"`
}

// VerificationFailureEvent describes a signature that did not verify.
type VerificationFailureEvent struct {
	AuditEvent

	FailureReason string `json:"failure_reason"`
	MessageSize   int    `json:"message_size"`
}

// AuditEventHandler receives events from signers, validators and key
// agreement. Applications implement it to record events as they need.
type AuditEventHandler interface {
	// OnSignature is called after a signature has been produced
	OnSignature(event *SignatureEvent)

	// OnVerificationFailure is called when a signature does not verify
	OnVerificationFailure(event *VerificationFailureEvent)

	// OnKeyAgreement is called after an ECDH shared secret has been derived
	OnKeyAgreement(event *AuditEvent)

	// OnError is called when an operation fails
	OnError(event *AuditEvent)
}

// NullAuditHandler is a no-op implementation of AuditEventHandler
type NullAuditHandler struct{}

func (n *NullAuditHandler) OnSignature(event *SignatureEvent)                     {}
func (n *NullAuditHandler) OnVerificationFailure(event *VerificationFailureEvent) {}
func (n *NullAuditHandler) OnKeyAgreement(event *AuditEvent)                      {}
func (n *NullAuditHandler) OnError(event *AuditEvent)                             {}

// AuditEventBuilder helps construct audit events with proper defaults
type AuditEventBuilder struct {
	event *AuditEvent
}

// NewAuditEventBuilder creates a new audit event builder
func NewAuditEventBuilder(eventType AuditEventType, reason AuditEventReason) *AuditEventBuilder {
	return &AuditEventBuilder{
		event: &AuditEvent{
			EventID:   generateEventID(),
			Timestamp: time.Now(),
			EventType: eventType,
			Reason:    reason,
			Success:   true,
			Metadata:  make(map[string]interface{}),
		},
	}
}

// WithAlgorithm sets the algorithm name
func (b *AuditEventBuilder) WithAlgorithm(algorithm string) *AuditEventBuilder {
	b.event.Algorithm = algorithm
	return b
}

// WithPublicKey records the public key involved in the event
func (b *AuditEventBuilder) WithPublicKey(pub *PublicKey) *AuditEventBuilder {
	if pub != nil {
		b.event.PublicKey = pub.String()
		b.event.Format = pub.Format().String()
	}
	return b
}

// WithXonlyKey records an x-only key involved in the event
func (b *AuditEventBuilder) WithXonlyKey(key *XonlyKey) *AuditEventBuilder {
	if key != nil {
		b.event.PublicKey = key.String()
		b.event.Format = "xonly"
	}
	return b
}

// WithError marks the event as failed and sets error information
func (b *AuditEventBuilder) WithError(err error) *AuditEventBuilder {
	b.event.Success = false
	if err != nil {
		b.event.Error = err.Error()
	}
	return b
}

// WithMetadata adds metadata to the event
func (b *AuditEventBuilder) WithMetadata(key string, value interface{}) *AuditEventBuilder {
	b.event.Metadata[key] = value
	return b
}

// Build returns the constructed audit event
func (b *AuditEventBuilder) Build() *AuditEvent {
	return b.event
}

// BuildSignature returns a SignatureEvent
func (b *AuditEventBuilder) BuildSignature(messageSize, signatureSize int) *SignatureEvent {
	return &SignatureEvent{
		AuditEvent:    *b.event,
		MessageSize:   messageSize,
		SignatureSize: signatureSize,
	}
}

// BuildVerificationFailure returns a VerificationFailureEvent
func (b *AuditEventBuilder) BuildVerificationFailure(failureReason string, messageSize int) *VerificationFailureEvent {
	b.event.Success = false
	return &VerificationFailureEvent{
		AuditEvent:    *b.event,
		FailureReason: failureReason,
		MessageSize:   messageSize,
	}
}

// generateEventID combines a timestamp with 4 random bytes so that events
// created in the same microsecond still differ.
func generateEventID() string {
	timestamp := time.Now().Format("20060102150405.000000")

	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return fmt.Sprintf("%s.%d", timestamp, time.Now().UnixNano()%10000)
	}

	return fmt.Sprintf("%s.%x", timestamp, randomBytes)
}

// auditError reports err through handler and returns it unchanged.
func auditError(handler AuditEventHandler, reason AuditEventReason, algorithm string, pub *PublicKey, err error) error {
	if handler != nil && err != nil {
		handler.OnError(NewAuditEventBuilder(AuditEventError, reason).
			WithAlgorithm(algorithm).
			WithPublicKey(pub).
			WithError(err).
			Build())
	}
	return err
}
