package p256k

import (
	"crypto/sha256"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/hkdf"
)

// SharedSecret is the output of an ECDH key agreement. Its bytes are kept
// in a SecureBytes and compared only in constant time.
type SharedSecret struct {
	secret *SecureBytes
}

// SharedSecret multiplies pub by the private scalar and returns the
// resulting point serialized in format: the parity byte and x for
// Compressed (33 bytes), or 0x04, x and y for Uncompressed (65 bytes).
func (k *PrivateKey) SharedSecret(pub *PublicKey, format Format, opts ...Option) (*SharedSecret, error) {
	cfg := newConfig(opts)
	if err := cfg.Err(); err != nil {
		return nil, err
	}
	if err := format.validate(); err != nil {
		return nil, auditError(cfg.Audit, ReasonKeyAgreement, AlgorithmECDH, pub, err)
	}
	if pub == nil {
		return nil, auditError(cfg.Audit, ReasonInvalidInput, AlgorithmECDH, nil,
			ErrUnderlyingCrypto.WithDetails("nil public key"))
	}

	var out []byte
	err := withScalar(k.key, func(d *btcec.ModNScalar) error {
		var point, result btcec.JacobianPoint
		pub.key.AsJacobian(&point)
		btcec.ScalarMultNonConst(d, &point, &result)
		if isInfinity(&result) {
			return ErrUnderlyingCrypto.WithDetails("shared point is the point at infinity")
		}
		result.ToAffine()

		out = make([]byte, format.Length())
		if format == Compressed {
			out[0] = 0x02 | byte(result.Y.IsOddBit())
		} else {
			out[0] = 0x04
			result.Y.PutBytesUnchecked(out[33:])
		}
		result.X.PutBytesUnchecked(out[1:33])
		result.X.Zero()
		result.Y.Zero()
		return nil
	})
	if err != nil {
		return nil, auditError(cfg.Audit, ReasonKeyAgreement, AlgorithmECDH, pub, err)
	}

	cfg.Audit.OnKeyAgreement(NewAuditEventBuilder(AuditEventKeyAgreement, ReasonKeyAgreement).
		WithAlgorithm(AlgorithmECDH).
		WithPublicKey(pub).
		WithMetadata("output_format", format.String()).
		Build())
	return newSharedSecretOwned(out), nil
}

// RawSharedSecret returns the 32-byte x coordinate of the shared point, the
// form used by most ECDH test vectors.
func (k *PrivateKey) RawSharedSecret(pub *PublicKey) (*SharedSecret, error) {
	if pub == nil {
		return nil, ErrUnderlyingCrypto.WithDetails("nil public key")
	}
	var out []byte
	err := k.withSigningKey(func(priv *btcec.PrivateKey) error {
		out = btcec.GenerateSharedSecret(priv, pub.key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newSharedSecretOwned(out), nil
}

// HashedSharedSecret returns SHA-256 of the compressed shared point, the
// default output of libsecp256k1's ECDH.
func (k *PrivateKey) HashedSharedSecret(pub *PublicKey) (*SharedSecret, error) {
	point, err := k.SharedSecret(pub, Compressed)
	if err != nil {
		return nil, err
	}
	defer point.Zeroize()

	var digest [32]byte
	point.WithBytes(func(b []byte) {
		digest = sha256.Sum256(b)
	})
	secret := NewSecureBytes(digest[:])
	clear(digest[:])
	return &SharedSecret{secret: secret}, nil
}

func newSharedSecretOwned(b []byte) *SharedSecret {
	return &SharedSecret{secret: newSecureBytes(b)}
}

// NewSharedSecret wraps existing shared secret bytes, for example from a
// test vector. Valid lengths are 32, 33 and 65.
func NewSharedSecret(b []byte) (*SharedSecret, error) {
	switch len(b) {
	case RawSharedSecretSize, CompressedPublicKeySize, UncompressedPublicKeySize:
	default:
		return nil, ErrIncorrectParameterSize.WithDetails("shared secret must be 32, 33 or 65 bytes, got %d", len(b))
	}
	return &SharedSecret{secret: NewSecureBytes(b)}, nil
}

// Len returns the length of the secret.
func (s *SharedSecret) Len() int {
	return s.secret.Len()
}

// WithBytes calls fn with a read-only view of the secret.
func (s *SharedSecret) WithBytes(fn func(b []byte)) {
	s.secret.WithBytes(fn)
}

// Equal compares two secrets in constant time.
func (s *SharedSecret) Equal(other *SharedSecret) bool {
	return other != nil && s.secret.Equal(other.secret)
}

// EqualBytes compares the secret with b in constant time.
func (s *SharedSecret) EqualBytes(b []byte) bool {
	return s.secret.EqualBytes(b)
}

// DeriveKey expands the secret into n bytes of key material with
// HKDF-SHA256.
func (s *SharedSecret) DeriveKey(salt, info []byte, n int) (*SecureBytes, error) {
	if n <= 0 || n > 255*sha256.Size {
		return nil, ErrIncorrectParameterSize.WithDetails("cannot derive %d bytes with HKDF-SHA256", n)
	}
	out := make([]byte, n)
	var err error
	s.secret.WithBytes(func(b []byte) {
		_, err = io.ReadFull(hkdf.New(sha256.New, b, salt, info), out)
	})
	if err != nil {
		clear(out)
		return nil, ErrUnderlyingCrypto.WithDetails("HKDF expansion failed").WithCause(err)
	}
	return newSecureBytes(out), nil
}

// Zeroize overwrites the secret.
func (s *SharedSecret) Zeroize() {
	s.secret.Zeroize()
}

func (s *SharedSecret) String() string {
	return "SharedSecret(" + s.secret.String() + ")"
}
