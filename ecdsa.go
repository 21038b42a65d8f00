package p256k

import (
	"encoding/hex"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/canopy-network/canopy/lib/p256k/asn1"
)

// ECDSASignature is an (r, s) pair with both values in [1, n-1].
type ECDSASignature struct {
	r, s btcec.ModNScalar
}

// ParseDERSignature decodes a strict DER ECDSA signature:
// SEQUENCE { r INTEGER, s INTEGER }. Any encoding that is not canonical DER
// fails with ErrParse; values outside [1, n-1] fail with ErrUnderlyingCrypto.
func ParseDERSignature(der []byte) (*ECDSASignature, error) {
	root, err := asn1.Parse(der)
	if err != nil {
		return nil, ErrParse.WithDetails("ECDSA signature").WithCause(err)
	}
	fields, err := root.Sequence()
	if err != nil {
		return nil, ErrParse.WithDetails("ECDSA signature").WithCause(err)
	}
	if len(fields) != 2 {
		return nil, ErrParse.WithDetails("ECDSA signature has %d fields, expected 2", len(fields))
	}

	sig := &ECDSASignature{}
	for i, target := range []*btcec.ModNScalar{&sig.r, &sig.s} {
		value, err := fields[i].Integer()
		if err != nil {
			return nil, ErrParse.WithDetails("ECDSA signature").WithCause(err)
		}
		if value.Sign() < 0 {
			return nil, ErrParse.WithDetails("ECDSA signature has a negative component")
		}
		if err := setSignatureScalar(target, value); err != nil {
			return nil, err
		}
	}
	return sig, nil
}

func setSignatureScalar(target *btcec.ModNScalar, value *big.Int) error {
	if value.BitLen() > 256 {
		return ErrUnderlyingCrypto.WithDetails("signature component is not below the group order")
	}
	var b [32]byte
	value.FillBytes(b[:])
	if overflow := target.SetBytes(&b); overflow != 0 {
		return ErrUnderlyingCrypto.WithDetails("signature component is not below the group order")
	}
	if target.IsZero() {
		return ErrUnderlyingCrypto.WithDetails("signature component is zero")
	}
	return nil
}

// ParseCompactSignature decodes the 64-byte r || s form.
func ParseCompactSignature(b []byte) (*ECDSASignature, error) {
	if len(b) != CompactSignatureSize {
		return nil, ErrIncorrectParameterSize.WithDetails("compact signature must be %d bytes, got %d", CompactSignatureSize, len(b))
	}
	sig := &ECDSASignature{}
	if err := setCompactScalars(&sig.r, &sig.s, b); err != nil {
		return nil, err
	}
	return sig, nil
}

func setCompactScalars(r, s *btcec.ModNScalar, b []byte) error {
	if r.SetByteSlice(b[:32]) || r.IsZero() {
		return ErrUnderlyingCrypto.WithDetails("signature r is out of range")
	}
	if s.SetByteSlice(b[32:64]) || s.IsZero() {
		return ErrUnderlyingCrypto.WithDetails("signature s is out of range")
	}
	return nil
}

// DER returns the minimal DER encoding.
func (sig *ECDSASignature) DER() []byte {
	var r, s [32]byte
	sig.r.PutBytes(&r)
	sig.s.PutBytes(&s)
	der, err := asn1.Marshal(asn1.NewSequence(
		asn1.NewIntegerFromBytes(r[:]),
		asn1.NewIntegerFromBytes(s[:]),
	))
	if err != nil {
		// Two INTEGER children always serialize.
		panic(err)
	}
	return der
}

// Compact returns the 64-byte r || s encoding.
func (sig *ECDSASignature) Compact() []byte {
	out := make([]byte, CompactSignatureSize)
	sig.r.PutBytesUnchecked(out[:32])
	sig.s.PutBytesUnchecked(out[32:])
	return out
}

// IsLowS reports whether s <= n/2.
func (sig *ECDSASignature) IsLowS() bool {
	return !sig.s.IsOverHalfOrder()
}

// Normalize returns the signature with s replaced by n-s when s > n/2.
// Both forms verify; only the low form passes WithLowS.
func (sig *ECDSASignature) Normalize() *ECDSASignature {
	out := &ECDSASignature{r: sig.r, s: sig.s}
	if out.s.IsOverHalfOrder() {
		out.s.Negate()
	}
	return out
}

// Equal compares both components.
func (sig *ECDSASignature) Equal(other *ECDSASignature) bool {
	return other != nil && sig.r.Equals(&other.r) && sig.s.Equals(&other.s)
}

func (sig *ECDSASignature) String() string {
	return hex.EncodeToString(sig.Compact())
}

func (sig *ECDSASignature) toBtcec() *ecdsa.Signature {
	return ecdsa.NewSignature(&sig.r, &sig.s)
}

// SignECDSA signs a 32-byte digest. Nonces are derived per RFC 6979 and the
// result is always in low-S form.
func (k *PrivateKey) SignECDSA(digest []byte) (*ECDSASignature, error) {
	rec, err := k.SignRecoverable(digest)
	if err != nil {
		return nil, err
	}
	return rec.Normalize(), nil
}

// SignECDSAData signs SHA-256(data).
func (k *PrivateKey) SignECDSAData(data []byte) (*ECDSASignature, error) {
	digest := HashData(data)
	return k.SignECDSA(digest[:])
}

// VerifyECDSA checks sig against a 32-byte digest. A digest of the wrong
// length never verifies.
//
// With WithLowS a signature whose s exceeds n/2 is rejected even though it
// is mathematically valid.
func (p *PublicKey) VerifyECDSA(sig *ECDSASignature, digest []byte, opts ...Option) bool {
	return p.verifyECDSA(sig, digest, newConfig(opts).LowS)
}

func (p *PublicKey) verifyECDSA(sig *ECDSASignature, digest []byte, lowS bool) bool {
	if sig == nil || len(digest) != DigestSize {
		return false
	}
	if lowS && !sig.IsLowS() {
		return false
	}
	return sig.toBtcec().Verify(digest, p.key)
}

// VerifyECDSAData checks sig against SHA-256(data).
func (p *PublicKey) VerifyECDSAData(sig *ECDSASignature, data []byte, opts ...Option) bool {
	digest := HashData(data)
	return p.VerifyECDSA(sig, digest[:], opts...)
}
