package p256k

import (
	"encoding/hex"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
)

// SchnorrSignature is a 64-byte BIP340 signature x(R) || s.
type SchnorrSignature struct {
	b [SchnorrSignatureSize]byte
}

// ParseSchnorrSignature wraps 64 signature bytes. Range checks happen
// during verification, where a bad value simply does not verify.
func ParseSchnorrSignature(b []byte) (*SchnorrSignature, error) {
	if len(b) != SchnorrSignatureSize {
		return nil, ErrIncorrectParameterSize.WithDetails("schnorr signature must be %d bytes, got %d", SchnorrSignatureSize, len(b))
	}
	sig := &SchnorrSignature{}
	copy(sig.b[:], b)
	return sig, nil
}

// Bytes returns a copy of the signature.
func (sig *SchnorrSignature) Bytes() []byte {
	out := make([]byte, SchnorrSignatureSize)
	copy(out, sig.b[:])
	return out
}

// Equal compares the signature bytes.
func (sig *SchnorrSignature) Equal(other *SchnorrSignature) bool {
	return other != nil && sig.b == other.b
}

func (sig *SchnorrSignature) String() string {
	return hex.EncodeToString(sig.b[:])
}

// SignSchnorr signs SHA-256(data). This is not BIP340: a BIP340 verifier
// given the original data instead of its SHA-256 will reject the signature.
// Use SignSchnorrDigest with a tagged hash or SignSchnorrMessage for
// interoperable signatures.
func (k *PrivateKey) SignSchnorr(data []byte, opts ...Option) (*SchnorrSignature, error) {
	digest := HashData(data)
	return k.SignSchnorrDigest(digest[:], opts...)
}

// SignSchnorrDigest signs a 32-byte digest, normally a BIP340 tagged hash.
func (k *PrivateKey) SignSchnorrDigest(digest []byte, opts ...Option) (*SchnorrSignature, error) {
	if len(digest) != DigestSize {
		return nil, ErrIncorrectParameterSize.WithDetails("digest must be %d bytes, got %d", DigestSize, len(digest))
	}
	return k.SignSchnorrMessage(digest, opts...)
}

// SignSchnorrMessage signs msg as given. Without WithStrictMessage any length
// is accepted; with it msg must be 32 bytes. Unless WithAuxRand is supplied,
// 32 fresh random bytes are bound into the nonce.
func (k *PrivateKey) SignSchnorrMessage(msg []byte, opts ...Option) (*SchnorrSignature, error) {
	return k.signSchnorr(msg, newConfig(opts))
}

func (k *PrivateKey) signSchnorr(msg []byte, cfg *Config) (*SchnorrSignature, error) {
	if cfg.AuxRand != nil && len(cfg.AuxRand) != 32 {
		return nil, ErrIncorrectParameterSize.WithDetails("auxiliary randomness must be 32 bytes, got %d", len(cfg.AuxRand))
	}
	if err := cfg.Err(); err != nil {
		return nil, err
	}
	if cfg.StrictMessage && len(msg) != DigestSize {
		return nil, ErrIncorrectParameterSize.WithDetails("strict message must be %d bytes, got %d", DigestSize, len(msg))
	}

	var aux [32]byte
	defer clear(aux[:])
	if cfg.AuxRand != nil {
		copy(aux[:], cfg.AuxRand)
	} else if _, err := io.ReadFull(cfg.Rand, aux[:]); err != nil {
		return nil, ErrUnderlyingCrypto.WithDetails("reading auxiliary randomness").WithCause(err)
	}

	var sig *SchnorrSignature
	err := withScalar(k.key, func(d *btcec.ModNScalar) error {
		var err error
		sig, err = signBIP340(d, msg, &aux)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// VerifySchnorr checks a signature made by SignSchnorr over data.
func (x *XonlyKey) VerifySchnorr(sig *SchnorrSignature, data []byte) bool {
	digest := HashData(data)
	return x.VerifySchnorrDigest(sig, digest[:])
}

// VerifySchnorrDigest checks a signature over a 32-byte digest. A digest of
// any other length does not verify.
func (x *XonlyKey) VerifySchnorrDigest(sig *SchnorrSignature, digest []byte) bool {
	if len(digest) != DigestSize {
		return false
	}
	return x.VerifySchnorrMessage(sig, digest)
}

// VerifySchnorrMessage checks a BIP340 signature over msg of any length.
func (x *XonlyKey) VerifySchnorrMessage(sig *SchnorrSignature, msg []byte) bool {
	if sig == nil {
		return false
	}
	return verifyBIP340(&x.x, msg, sig)
}

// VerifySchnorrBytes parses a 32-byte x-only key and a 64-byte signature
// and verifies them over msg. Malformed input is reported as false, the
// same as a signature that does not verify.
func VerifySchnorrBytes(xonly, sig, msg []byte) bool {
	key, err := ParseXonlyKey(xonly)
	if err != nil {
		return false
	}
	parsed, err := ParseSchnorrSignature(sig)
	if err != nil {
		return false
	}
	return key.VerifySchnorrMessage(parsed, msg)
}
