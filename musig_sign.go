package p256k

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr/musig2"
)

// MuSigPartialSignature is one signer's 32-byte share s_i of the final
// signature.
type MuSigPartialSignature struct {
	s btcec.ModNScalar
}

// ParseMuSigPartialSignature parses a 32-byte scalar below the group order.
func ParseMuSigPartialSignature(b []byte) (*MuSigPartialSignature, error) {
	if len(b) != MuSigPartialSignatureSize {
		return nil, ErrIncorrectParameterSize.WithDetails("partial signature must be %d bytes, got %d", MuSigPartialSignatureSize, len(b))
	}
	sig := &MuSigPartialSignature{}
	if overflow := sig.s.SetByteSlice(b); overflow {
		return nil, ErrUnderlyingCrypto.WithDetails("partial signature is not below the group order")
	}
	return sig, nil
}

// Bytes returns the 32-byte big-endian scalar.
func (p *MuSigPartialSignature) Bytes() []byte {
	var out [MuSigPartialSignatureSize]byte
	p.s.PutBytes(&out)
	return out[:]
}

// Equal compares the scalars.
func (p *MuSigPartialSignature) Equal(other *MuSigPartialSignature) bool {
	return other != nil && p.s.Equals(&other.s)
}

func (p *MuSigPartialSignature) String() string {
	return hex.EncodeToString(p.Bytes())
}

// MuSigPartialSign produces this key's partial signature over a 32-byte
// digest for the aggregate key. secNonce is consumed whether or not signing
// succeeds. The share is checked against the signer's own public nonce
// before it is returned.
func (k *PrivateKey) MuSigPartialSign(digest []byte, secNonce *MuSigSecretNonce, aggNonce *MuSigAggregateNonce, key *MuSigAggregateKey, opts ...Option) (*MuSigPartialSignature, error) {
	cfg := newConfig(opts)
	if err := cfg.Err(); err != nil {
		return nil, err
	}
	if len(digest) != DigestSize {
		return nil, auditError(cfg.Audit, ReasonInvalidInput, AlgorithmMuSig2, k.publicKey,
			ErrIncorrectParameterSize.WithDetails("digest must be %d bytes, got %d", DigestSize, len(digest)))
	}
	if secNonce == nil || aggNonce == nil || key == nil {
		return nil, auditError(cfg.Audit, ReasonInvalidInput, AlgorithmMuSig2, k.publicKey,
			ErrIncorrectParameterSize.WithDetails("secret nonce, aggregate nonce and aggregate key are required"))
	}
	msg := [DigestSize]byte(digest)

	var psig *musig2.PartialSignature
	err := secNonce.consume(func(sec [muSigSecretNonceSize]byte) error {
		return k.withSigningKey(func(priv *btcec.PrivateKey) error {
			var err error
			psig, err = musig2.Sign(sec, priv, aggNonce.b, key.keys, msg, key.signOptions()...)
			if err != nil {
				return ErrUnderlyingCrypto.WithDetails("musig2 partial signing failed").WithCause(err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, auditError(cfg.Audit, ReasonSign, AlgorithmMuSig2, k.publicKey, err)
	}

	sig := &MuSigPartialSignature{}
	sig.s.Set(psig.S)
	cfg.Audit.OnSignature(NewAuditEventBuilder(AuditEventSignature, ReasonSign).
		WithAlgorithm(AlgorithmMuSig2).
		WithPublicKey(k.publicKey).
		WithMetadata("partial", true).
		BuildSignature(len(digest), MuSigPartialSignatureSize))
	return sig, nil
}

// VerifyPartialSignature checks one signer's share against that signer's
// public nonce. It names the signer at fault when the aggregate signature
// would not verify. Malformed input reports false.
func (k *MuSigAggregateKey) VerifyPartialSignature(sig *MuSigPartialSignature, pubNonce *MuSigPublicNonce, aggNonce *MuSigAggregateNonce, signer *PublicKey, digest []byte, opts ...Option) bool {
	cfg := newConfig(opts)
	if cfg.Err() != nil {
		return false
	}
	builder := NewAuditEventBuilder(AuditEventVerificationFailure, ReasonVerify).
		WithAlgorithm(AlgorithmMuSig2).
		WithPublicKey(signer)
	reject := func(reason string) bool {
		cfg.Audit.OnVerificationFailure(builder.BuildVerificationFailure(reason, len(digest)))
		return false
	}

	if sig == nil || pubNonce == nil || aggNonce == nil || signer == nil {
		return reject("missing input")
	}
	if len(digest) != DigestSize {
		return reject("digest length")
	}
	if !k.contains(signer) {
		return reject("signer is not part of the aggregate key")
	}

	s := new(btcec.ModNScalar).Set(&sig.s)
	psig := &musig2.PartialSignature{S: s}
	if !psig.Verify(pubNonce.b, aggNonce.b, k.keys, signer.key, [DigestSize]byte(digest), k.signOptions()...) {
		return reject("partial signature equation")
	}
	return true
}

// AggregateSignatures sums the partial signatures into a BIP340 signature
// that verifies under XonlyKey. The result is verified before it is
// returned; a failure means at least one share is bad, which
// VerifyPartialSignature identifies.
func (k *MuSigAggregateKey) AggregateSignatures(aggNonce *MuSigAggregateNonce, digest []byte, partials []*MuSigPartialSignature, opts ...Option) (*SchnorrSignature, error) {
	cfg := newConfig(opts)
	if err := cfg.Err(); err != nil {
		return nil, err
	}
	if len(digest) != DigestSize {
		return nil, ErrIncorrectParameterSize.WithDetails("digest must be %d bytes, got %d", DigestSize, len(digest))
	}
	if aggNonce == nil || len(partials) == 0 {
		return nil, ErrIncorrectParameterSize.WithDetails("aggregate nonce and at least one partial signature are required")
	}
	msg := [DigestSize]byte(digest)

	r, err := aggNonce.signingNonce(k, msg)
	if err != nil {
		return nil, err
	}

	shares := make([]*musig2.PartialSignature, len(partials))
	for i, partial := range partials {
		if partial == nil {
			return nil, ErrIncorrectParameterSize.WithDetails("partial signature %d is nil", i)
		}
		shares[i] = &musig2.PartialSignature{S: new(btcec.ModNScalar).Set(&partial.s), R: r}
	}

	var combineOpts []musig2.CombineOption
	if len(k.tweaks) > 0 {
		combineOpts = append(combineOpts, musig2.WithTweakedCombine(msg, k.keys, k.tweaks, false))
	}
	final := musig2.CombineSigs(r, shares, combineOpts...)

	if !final.Verify(msg[:], k.final.key) {
		return nil, auditError(cfg.Audit, ReasonSign, AlgorithmMuSig2, k.final,
			ErrUnderlyingCrypto.WithDetails("aggregate signature does not verify"))
	}

	sig := &SchnorrSignature{}
	copy(sig.b[:], final.Serialize())
	cfg.Audit.OnSignature(NewAuditEventBuilder(AuditEventSignature, ReasonSign).
		WithAlgorithm(AlgorithmMuSig2).
		WithXonlyKey(k.final.xonly).
		WithMetadata("signers", len(k.signers)).
		BuildSignature(len(digest), SchnorrSignatureSize))
	return sig, nil
}
