// Package p256k provides secp256k1 keys, signatures and key agreement on
// top of btcec.
//
// Secret material lives in SecureBytes and is only exposed through scoped
// callbacks. All generator multiplications go through a process-wide
// randomized Context obtained from SharedContext.
//
// Supported operations:
//
//   - ECDSA with RFC 6979 nonces, low-S output and optional low-S
//     enforcement on verification (WithLowS)
//   - recoverable ECDSA and public key recovery
//   - BIP340 Schnorr over 32-byte digests or messages of any length, with
//     explicit or fresh auxiliary randomness
//   - BIP327 MuSig2 multi-signatures, either step by step or through a
//     two-round MuSigSession
//   - ECDH in compressed, uncompressed, raw x and hashed forms
//   - public key combination and BIP341 style tweaking
//   - strict DER signatures and SEC1 ECPrivateKey import and export
//
// Signers and validators for each algorithm implement the generic Signer
// and Validator interfaces and report to an AuditEventHandler; see
// LogAuditHandler for a log15 backed one.
package p256k
