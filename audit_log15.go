package p256k

import (
	"github.com/inconshreveable/log15"
)

// LogAuditHandler writes audit events to a log15 logger. Failures are
// logged at warn level, everything else at debug.
type LogAuditHandler struct {
	log log15.Logger
}

// NewLogAuditHandler wraps logger. A nil logger gets a default one tagged
// with module=p256k.
func NewLogAuditHandler(logger log15.Logger) *LogAuditHandler {
	if logger == nil {
		logger = log15.New("module", "p256k")
	}
	return &LogAuditHandler{log: logger}
}

func eventContext(event *AuditEvent, extra ...interface{}) []interface{} {
	ctx := []interface{}{
		"id", event.EventID,
		"type", string(event.EventType),
		"reason", string(event.Reason),
	}
	if event.Algorithm != "" {
		ctx = append(ctx, "algorithm", event.Algorithm)
	}
	if event.PublicKey != "" {
		ctx = append(ctx, "pubkey", event.PublicKey, "format", event.Format)
	}
	if event.Error != "" {
		ctx = append(ctx, "err", event.Error)
	}
	for k, v := range event.Metadata {
		ctx = append(ctx, k, v)
	}
	return append(ctx, extra...)
}

func (h *LogAuditHandler) OnSignature(event *SignatureEvent) {
	h.log.Debug("signature produced", eventContext(&event.AuditEvent,
		"msgsize", event.MessageSize, "sigsize", event.SignatureSize)...)
}

func (h *LogAuditHandler) OnVerificationFailure(event *VerificationFailureEvent) {
	h.log.Warn("signature rejected", eventContext(&event.AuditEvent,
		"failure", event.FailureReason, "msgsize", event.MessageSize)...)
}

func (h *LogAuditHandler) OnKeyAgreement(event *AuditEvent) {
	h.log.Debug("shared secret derived", eventContext(event)...)
}

func (h *LogAuditHandler) OnError(event *AuditEvent) {
	h.log.Warn("operation failed", eventContext(event)...)
}
