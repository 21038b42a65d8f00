package p256k

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// Header byte layout of btcec compact signatures: 27 + recovery id, plus 4
// when the signer's key is compressed.
const (
	compactMagicOffset   = 27
	compactCompressedBit = 4
	maxRecoveryID        = 3
)

// RecoverableSignature is an ECDSA signature plus the recovery id that
// selects the signer's public key among the candidates for (r, s).
// Its byte form is r || s || recid.
type RecoverableSignature struct {
	sig   ECDSASignature
	recID byte
}

// ParseRecoverableSignature decodes the 65-byte r || s || recid form.
func ParseRecoverableSignature(b []byte) (*RecoverableSignature, error) {
	if len(b) != RecoverableSignatureSize {
		return nil, ErrIncorrectParameterSize.WithDetails("recoverable signature must be %d bytes, got %d", RecoverableSignatureSize, len(b))
	}
	return NewRecoverableSignature(b[:CompactSignatureSize], b[CompactSignatureSize])
}

// NewRecoverableSignature combines a 64-byte compact signature with a
// recovery id in [0, 3].
func NewRecoverableSignature(compact []byte, recID byte) (*RecoverableSignature, error) {
	if len(compact) != CompactSignatureSize {
		return nil, ErrIncorrectParameterSize.WithDetails("compact signature must be %d bytes, got %d", CompactSignatureSize, len(compact))
	}
	if recID > maxRecoveryID {
		return nil, ErrUnderlyingCrypto.WithDetails("recovery id %d is out of range", recID)
	}
	rec := &RecoverableSignature{recID: recID}
	if err := setCompactScalars(&rec.sig.r, &rec.sig.s, compact); err != nil {
		return nil, err
	}
	return rec, nil
}

// Bytes returns the 65-byte r || s || recid form.
func (rs *RecoverableSignature) Bytes() []byte {
	return append(rs.sig.Compact(), rs.recID)
}

// Compact returns the 64-byte r || s part.
func (rs *RecoverableSignature) Compact() []byte {
	return rs.sig.Compact()
}

// RecoveryID returns the recovery id in [0, 3].
func (rs *RecoverableSignature) RecoveryID() byte {
	return rs.recID
}

// Normalize drops the recovery id and returns the plain signature in
// low-S form.
func (rs *RecoverableSignature) Normalize() *ECDSASignature {
	return rs.sig.Normalize()
}

func (rs *RecoverableSignature) String() string {
	return hex.EncodeToString(rs.Bytes())
}

// btcecCompact returns the header || r || s layout RecoverCompact expects.
func (rs *RecoverableSignature) btcecCompact() []byte {
	out := make([]byte, 1, 1+CompactSignatureSize)
	out[0] = compactMagicOffset + compactCompressedBit + rs.recID
	return append(out, rs.sig.Compact()...)
}

// SignRecoverable signs a 32-byte digest and records the recovery id.
func (k *PrivateKey) SignRecoverable(digest []byte) (*RecoverableSignature, error) {
	if len(digest) != DigestSize {
		return nil, ErrIncorrectParameterSize.WithDetails("digest must be %d bytes, got %d", DigestSize, len(digest))
	}

	var compact []byte
	err := k.withSigningKey(func(priv *btcec.PrivateKey) error {
		compact = ecdsa.SignCompact(priv, digest, true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	recID := compact[0] - compactMagicOffset - compactCompressedBit
	return NewRecoverableSignature(compact[1:], recID)
}

// SignRecoverableData signs SHA-256(data).
func (k *PrivateKey) SignRecoverableData(data []byte) (*RecoverableSignature, error) {
	digest := HashData(data)
	return k.SignRecoverable(digest[:])
}

// RecoverPublicKey reconstructs the signer's key from a 32-byte digest and a
// recoverable signature, serialized in format. Recovery succeeds only for a
// signature that verifies against the returned key.
func RecoverPublicKey(digest []byte, sig *RecoverableSignature, format Format) (*PublicKey, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	if len(digest) != DigestSize {
		return nil, ErrIncorrectParameterSize.WithDetails("digest must be %d bytes, got %d", DigestSize, len(digest))
	}
	if sig == nil {
		return nil, ErrUnderlyingCrypto.WithDetails("nil signature")
	}
	key, _, err := ecdsa.RecoverCompact(sig.btcecCompact(), digest)
	if err != nil {
		return nil, ErrUnderlyingCrypto.WithDetails("public key recovery failed").WithCause(err)
	}
	return newPublicKey(key, format)
}

// RecoverPublicKeyFromData recovers the signer's key for SHA-256(data).
func RecoverPublicKeyFromData(data []byte, sig *RecoverableSignature, format Format) (*PublicKey, error) {
	digest := HashData(data)
	return RecoverPublicKey(digest[:], sig, format)
}

// VerifyRecoverable checks the signature part of sig against the digest.
func (p *PublicKey) VerifyRecoverable(sig *RecoverableSignature, digest []byte, opts ...Option) bool {
	if sig == nil {
		return false
	}
	return p.VerifyECDSA(&sig.sig, digest, opts...)
}
