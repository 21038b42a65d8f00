package p256k

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

func parseTweak(tweak []byte, t *btcec.ModNScalar) error {
	if len(tweak) != TweakSize {
		return ErrIncorrectParameterSize.WithDetails("tweak must be %d bytes, got %d", TweakSize, len(tweak))
	}
	if overflow := t.SetByteSlice(tweak); overflow {
		return ErrUnderlyingCrypto.WithDetails("tweak is not below the group order")
	}
	return nil
}

// Add returns the key for d + tweak.
func (k *PrivateKey) Add(tweak []byte) (*PrivateKey, error) {
	var t btcec.ModNScalar
	if err := parseTweak(tweak, &t); err != nil {
		return nil, err
	}
	var out *PrivateKey
	err := withScalar(k.key, func(d *btcec.ModNScalar) error {
		var sum btcec.ModNScalar
		defer sum.Zero()
		sum.Add2(d, &t)
		var err error
		out, err = privateKeyFromScalar(&sum, k.Format())
		return err
	})
	return out, err
}

// Multiply returns the key for d * tweak. A zero tweak is rejected.
func (k *PrivateKey) Multiply(tweak []byte) (*PrivateKey, error) {
	var t btcec.ModNScalar
	if err := parseTweak(tweak, &t); err != nil {
		return nil, err
	}
	if t.IsZero() {
		return nil, ErrUnderlyingCrypto.WithDetails("tweak is zero")
	}
	var out *PrivateKey
	err := withScalar(k.key, func(d *btcec.ModNScalar) error {
		var product btcec.ModNScalar
		defer product.Zero()
		product.Mul2(d, &t)
		var err error
		out, err = privateKeyFromScalar(&product, k.Format())
		return err
	})
	return out, err
}

// AddXonly tweaks the key the way BIP341 tweaks an internal key: the secret
// is first negated when the public key has odd y, so the result matches
// XonlyKey.Add on the x-only public key.
func (k *PrivateKey) AddXonly(tweak []byte) (*PrivateKey, error) {
	var t btcec.ModNScalar
	if err := parseTweak(tweak, &t); err != nil {
		return nil, err
	}
	var out *PrivateKey
	err := withScalar(k.key, func(d *btcec.ModNScalar) error {
		var sum btcec.ModNScalar
		defer sum.Zero()
		sum.Set(d)
		if k.publicKey.xonly.parity == 1 {
			sum.Negate()
		}
		sum.Add(&t)
		var err error
		out, err = privateKeyFromScalar(&sum, k.Format())
		return err
	})
	return out, err
}

// TapTweak applies the BIP341 taproot tweak
// t = TaggedHash("TapTweak", x(P) || merkleRoot). merkleRoot is empty for a
// key-path-only output.
func (k *PrivateKey) TapTweak(merkleRoot []byte) (*PrivateKey, error) {
	t := taggedHash(tagTapTweak, k.publicKey.xonly.x[:], merkleRoot)
	return k.AddXonly(t[:])
}

// Add returns P + tweak*G in format.
func (p *PublicKey) Add(tweak []byte, format Format) (*PublicKey, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	var t btcec.ModNScalar
	if err := parseTweak(tweak, &t); err != nil {
		return nil, err
	}
	return addTweak(p.key, &t, format)
}

// Multiply returns tweak*P in format. A zero tweak is rejected.
func (p *PublicKey) Multiply(tweak []byte, format Format) (*PublicKey, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	var t btcec.ModNScalar
	if err := parseTweak(tweak, &t); err != nil {
		return nil, err
	}
	if t.IsZero() {
		return nil, ErrUnderlyingCrypto.WithDetails("tweak is zero")
	}
	var point, result btcec.JacobianPoint
	p.key.AsJacobian(&point)
	btcec.ScalarMultNonConst(&t, &point, &result)
	return publicKeyFromJacobian(&result, format)
}

func addTweak(key *btcec.PublicKey, t *btcec.ModNScalar, format Format) (*PublicKey, error) {
	var point, tweakPoint, result btcec.JacobianPoint
	key.AsJacobian(&point)
	btcec.ScalarBaseMultNonConst(t, &tweakPoint)
	btcec.AddNonConst(&point, &tweakPoint, &result)
	return publicKeyFromJacobian(&result, format)
}

// Add lifts x to the point with even y and returns that point plus
// tweak*G in format.
func (x *XonlyKey) Add(tweak []byte, format Format) (*PublicKey, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	var t btcec.ModNScalar
	if err := parseTweak(tweak, &t); err != nil {
		return nil, err
	}
	even, err := x.evenPoint()
	if err != nil {
		return nil, err
	}
	return addTweak(even, &t, format)
}

// CheckTweakAdd reports whether x, including its parity, is the result of
// internal.Add(tweak). Malformed input reports false.
func (x *XonlyKey) CheckTweakAdd(internal *XonlyKey, tweak []byte) bool {
	if internal == nil {
		return false
	}
	tweaked, err := internal.Add(tweak, Compressed)
	if err != nil {
		return false
	}
	return tweaked.xonly.Equal(x)
}

// TapTweak returns the BIP341 output key for this internal key.
func (x *XonlyKey) TapTweak(merkleRoot []byte) (*XonlyKey, error) {
	t := taggedHash(tagTapTweak, x.x[:], merkleRoot)
	out, err := x.Add(t[:], Compressed)
	if err != nil {
		return nil, err
	}
	return out.xonly, nil
}
