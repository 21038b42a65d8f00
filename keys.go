package p256k

import (
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// maxKeyGenerationAttempts bounds NewPrivateKey. A random 32-byte string is
// an invalid scalar with probability about 2^-128.
const maxKeyGenerationAttempts = 8

// PrivateKey is a secp256k1 secret scalar together with its public key.
// The public key, x-only key and parity are derived once in the constructor
// and never change.
type PrivateKey struct {
	key       *SecureBytes
	publicKey *PublicKey
}

// NewPrivateKey generates a random private key whose public key is
// serialized in format.
func NewPrivateKey(format Format) (*PrivateKey, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 0; attempt < maxKeyGenerationAttempts; attempt++ {
		key, err := NewRandomSecureBytes(PrivateKeySize)
		if err != nil {
			return nil, err
		}
		priv, err := newPrivateKey(key, format)
		if err == nil {
			return priv, nil
		}
		key.Zeroize()
		if !errors.Is(err, ErrUnderlyingCrypto) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// PrivateKeyFromBytes imports a 32-byte big-endian scalar. The length is
// checked before any curve operation; the value must lie in [1, n-1].
// b is copied and may be cleared by the caller afterwards.
func PrivateKeyFromBytes(b []byte, format Format) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, ErrIncorrectKeySize.WithDetails("private key must be %d bytes, got %d", PrivateKeySize, len(b))
	}
	if err := format.validate(); err != nil {
		return nil, err
	}
	key := NewSecureBytes(b)
	priv, err := newPrivateKey(key, format)
	if err != nil {
		key.Zeroize()
		return nil, err
	}
	return priv, nil
}

func newPrivateKey(key *SecureBytes, format Format) (*PrivateKey, error) {
	var pub *PublicKey
	err := withScalar(key, func(d *btcec.ModNScalar) error {
		var err error
		pub, err = newPublicKey(SharedContext().publicKey(d), format)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: key, publicKey: pub}, nil
}

// withScalar decodes the secret into a scalar for the duration of fn and
// zeroes every temporary copy afterwards.
func withScalar(key *SecureBytes, fn func(d *btcec.ModNScalar) error) error {
	var d btcec.ModNScalar
	defer d.Zero()

	var overflow bool
	key.WithBytes(func(b []byte) {
		overflow = d.SetByteSlice(b)
	})
	if overflow {
		return ErrUnderlyingCrypto.WithDetails("private key is not below the group order")
	}
	if d.IsZero() {
		return ErrUnderlyingCrypto.WithDetails("private key is zero")
	}
	return fn(&d)
}

// withSigningKey exposes the key as a btcec private key for fn.
func (k *PrivateKey) withSigningKey(fn func(priv *btcec.PrivateKey) error) error {
	return withScalar(k.key, func(d *btcec.ModNScalar) error {
		priv := secp256k1.NewPrivateKey(d)
		defer priv.Zero()
		return fn(priv)
	})
}

// privateKeyFromScalar wraps a freshly computed scalar. d is not retained.
func privateKeyFromScalar(d *btcec.ModNScalar, format Format) (*PrivateKey, error) {
	if d.IsZero() {
		return nil, ErrUnderlyingCrypto.WithDetails("resulting private key is zero")
	}
	var b [PrivateKeySize]byte
	d.PutBytes(&b)
	key := NewSecureBytes(b[:])
	clear(b[:])
	return newPrivateKey(key, format)
}

// PublicKey returns the public key derived at construction.
func (k *PrivateKey) PublicKey() *PublicKey {
	return k.publicKey
}

// XonlyKey returns the x-only form of the public key.
func (k *PrivateKey) XonlyKey() *XonlyKey {
	return k.publicKey.xonly
}

// Format returns the format of the derived public key.
func (k *PrivateKey) Format() Format {
	return k.publicKey.format
}

// Bytes returns a copy of the 32-byte secret. The caller owns the copy and
// should clear it when done.
func (k *PrivateKey) Bytes() []byte {
	out := make([]byte, PrivateKeySize)
	k.key.WithBytes(func(b []byte) {
		copy(out, b)
	})
	return out
}

// WithBytes calls fn with a read-only view of the secret.
func (k *PrivateKey) WithBytes(fn func(b []byte)) {
	k.key.WithBytes(fn)
}

// Equal compares the secrets in constant time.
func (k *PrivateKey) Equal(other *PrivateKey) bool {
	if other == nil {
		return false
	}
	return k.key.Equal(other.key)
}

// Negate returns the key for -d, whose public key is the negation of
// this key's public key.
func (k *PrivateKey) Negate() (*PrivateKey, error) {
	var neg *PrivateKey
	err := withScalar(k.key, func(d *btcec.ModNScalar) error {
		var n btcec.ModNScalar
		defer n.Zero()
		n.NegateVal(d)
		var err error
		neg, err = privateKeyFromScalar(&n, k.Format())
		return err
	})
	return neg, err
}

// Zeroize overwrites the secret. The key must not be used afterwards.
func (k *PrivateKey) Zeroize() {
	k.key.Zeroize()
}

// String never reveals the secret.
func (k *PrivateKey) String() string {
	return "PrivateKey(" + k.publicKey.String() + ")"
}

// PublicKey is a secp256k1 point with its canonical serialization in one
// format and its x-only form.
type PublicKey struct {
	key    *btcec.PublicKey
	bytes  []byte
	format Format
	xonly  *XonlyKey
}

func newPublicKey(key *btcec.PublicKey, format Format) (*PublicKey, error) {
	var b []byte
	switch format {
	case Compressed:
		b = key.SerializeCompressed()
	case Uncompressed:
		b = key.SerializeUncompressed()
	default:
		return nil, format.validate()
	}

	compressed := key.SerializeCompressed()
	xonly := &XonlyKey{parity: int(compressed[0] & 1)}
	copy(xonly.x[:], compressed[1:])

	return &PublicKey{key: key, bytes: b, format: format, xonly: xonly}, nil
}

// ParsePublicKey parses a SEC1 encoded public key. The length must match
// format; the bytes are re-serialized canonically.
func ParsePublicKey(b []byte, format Format) (*PublicKey, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	if len(b) != format.Length() {
		return nil, ErrIncorrectKeySize.WithDetails("%s public key must be %d bytes, got %d", format, format.Length(), len(b))
	}
	key, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, ErrUnderlyingCrypto.WithDetails("invalid public key").WithCause(err)
	}
	return newPublicKey(key, format)
}

// Bytes returns a copy of the serialized key.
func (p *PublicKey) Bytes() []byte {
	return append([]byte(nil), p.bytes...)
}

// Format returns the serialization format of Bytes.
func (p *PublicKey) Format() Format {
	return p.format
}

// SerializeAs returns the key serialized in format.
func (p *PublicKey) SerializeAs(format Format) ([]byte, error) {
	switch format {
	case Compressed:
		return p.key.SerializeCompressed(), nil
	case Uncompressed:
		return p.key.SerializeUncompressed(), nil
	default:
		return nil, format.validate()
	}
}

// WithFormat returns the same point serialized in format.
func (p *PublicKey) WithFormat(format Format) (*PublicKey, error) {
	if format == p.format {
		return p, nil
	}
	return newPublicKey(p.key, format)
}

// XonlyKey returns the x coordinate and parity of the point.
func (p *PublicKey) XonlyKey() *XonlyKey {
	return p.xonly
}

// Equal reports whether both keys are the same point, regardless of format.
func (p *PublicKey) Equal(other *PublicKey) bool {
	if other == nil {
		return false
	}
	return p.key.IsEqual(other.key)
}

// Negate returns -P in the same format.
func (p *PublicKey) Negate() *PublicKey {
	var point btcec.JacobianPoint
	p.key.AsJacobian(&point)
	point.Y.Negate(1).Normalize()
	neg, _ := newPublicKey(btcec.NewPublicKey(&point.X, &point.Y), p.format)
	return neg
}

func (p *PublicKey) String() string {
	return hex.EncodeToString(p.bytes)
}

// XonlyKey is the 32-byte x coordinate of a point plus the parity of its y
// coordinate. It is only obtained from a PublicKey, so the parity is always
// known.
type XonlyKey struct {
	x      [XonlyKeySize]byte
	parity int
}

// ParseXonlyKey lifts a 32-byte x coordinate to the point with even y, as
// BIP340 does, and returns its x-only form with parity 0.
func ParseXonlyKey(b []byte) (*XonlyKey, error) {
	if len(b) != XonlyKeySize {
		return nil, ErrIncorrectKeySize.WithDetails("x-only key must be %d bytes, got %d", XonlyKeySize, len(b))
	}
	var compressed [CompressedPublicKeySize]byte
	compressed[0] = secp256k1.PubKeyFormatCompressedEven
	copy(compressed[1:], b)
	pub, err := ParsePublicKey(compressed[:], Compressed)
	if err != nil {
		return nil, err
	}
	return pub.xonly, nil
}

// Bytes returns a copy of the x coordinate.
func (x *XonlyKey) Bytes() []byte {
	out := make([]byte, XonlyKeySize)
	copy(out, x.x[:])
	return out
}

// Parity is 1 when the source point has an odd y coordinate.
func (x *XonlyKey) Parity() int {
	return x.parity
}

// PublicKey reconstructs the source point in format.
func (x *XonlyKey) PublicKey(format Format) (*PublicKey, error) {
	var compressed [CompressedPublicKeySize]byte
	compressed[0] = secp256k1.PubKeyFormatCompressedEven | byte(x.parity)
	copy(compressed[1:], x.x[:])
	key, err := btcec.ParsePubKey(compressed[:])
	if err != nil {
		return nil, ErrUnderlyingCrypto.WithCause(err)
	}
	return newPublicKey(key, format)
}

// Equal compares x coordinate and parity.
func (x *XonlyKey) Equal(other *XonlyKey) bool {
	return other != nil && x.x == other.x && x.parity == other.parity
}

func (x *XonlyKey) String() string {
	return hex.EncodeToString(x.x[:])
}

// evenPoint returns the point with this x coordinate and even y.
func (x *XonlyKey) evenPoint() (*btcec.PublicKey, error) {
	var fx, fy btcec.FieldVal
	if overflow := fx.SetByteSlice(x.x[:]); overflow {
		return nil, ErrUnderlyingCrypto.WithDetails("x coordinate is not below the field prime")
	}
	if !secp256k1.DecompressY(&fx, false, &fy) {
		return nil, ErrUnderlyingCrypto.WithDetails("x coordinate is not on the curve")
	}
	fy.Normalize()
	return btcec.NewPublicKey(&fx, &fy), nil
}
