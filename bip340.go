package p256k

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// signBIP340 produces a BIP340 signature of msg under the secret scalar d
// with 32 bytes of auxiliary randomness. 32-byte messages are signed by
// btcec's schnorr package; other lengths go through signBIP340Variable.
func signBIP340(secret *btcec.ModNScalar, msg []byte, aux *[32]byte) (*SchnorrSignature, error) {
	if aux == nil {
		return nil, ErrUnderlyingCrypto.WithDetails("missing auxiliary randomness")
	}
	if len(msg) != DigestSize {
		return signBIP340Variable(secret, msg, aux)
	}

	priv := secp256k1.NewPrivateKey(secret)
	defer priv.Zero()
	signed, err := schnorr.Sign(priv, msg, schnorr.CustomNonce(*aux))
	if err != nil {
		return nil, ErrUnderlyingCrypto.WithDetails("schnorr signing failed").WithCause(err)
	}
	sig := &SchnorrSignature{}
	copy(sig.b[:], signed.Serialize())
	return sig, nil
}

// signBIP340Variable is BIP340 signing for messages of any length, which
// btcec does not accept:
//
//	d  = d' if P has even y, n-d' otherwise
//	t  = bytes(d) xor H_aux(a)
//	k' = H_nonce(t || x(P) || m) mod n
//	k  = k' if R = k'G has even y, n-k' otherwise
//	e  = H_challenge(x(R) || x(P) || m) mod n
//	sig = x(R) || bytes(k + e*d mod n)
func signBIP340Variable(secret *btcec.ModNScalar, msg []byte, aux *[32]byte) (*SchnorrSignature, error) {
	ctx := SharedContext()

	var d btcec.ModNScalar
	defer d.Zero()
	d.Set(secret)

	var p btcec.JacobianPoint
	ctx.scalarBaseMult(&d, &p)
	if p.Y.IsOdd() {
		d.Negate()
	}

	var dBytes, px [32]byte
	defer clear(dBytes[:])
	d.PutBytes(&dBytes)
	p.X.PutBytes(&px)

	mask := taggedHash(tagBIP340Aux, aux[:])
	var t [32]byte
	defer clear(t[:])
	for i := range t {
		t[i] = dBytes[i] ^ mask[i]
	}

	nonce := taggedHash(tagBIP340Nonce, t[:], px[:], msg)
	defer clear(nonce[:])

	var k btcec.ModNScalar
	defer k.Zero()
	k.SetBytes(&nonce)
	if k.IsZero() {
		return nil, ErrUnderlyingCrypto.WithDetails("schnorr nonce is zero")
	}

	var r btcec.JacobianPoint
	ctx.scalarBaseMult(&k, &r)
	if r.Y.IsOdd() {
		k.Negate()
	}

	var rx [32]byte
	r.X.PutBytes(&rx)

	challenge := taggedHash(tagBIP340Challenge, rx[:], px[:], msg)
	var e btcec.ModNScalar
	e.SetBytes(&challenge)

	var s btcec.ModNScalar
	s.Mul2(&e, &d).Add(&k)

	sig := &SchnorrSignature{}
	copy(sig.b[:32], rx[:])
	s.PutBytesUnchecked(sig.b[32:])

	if !verifyBIP340Variable(&px, msg, sig) {
		return nil, ErrUnderlyingCrypto.WithDetails("produced schnorr signature does not verify")
	}
	return sig, nil
}

// verifyBIP340 checks sig against the x-only key px and msg. 32-byte
// messages are verified by btcec's schnorr package.
func verifyBIP340(px *[32]byte, msg []byte, sig *SchnorrSignature) bool {
	if len(msg) != DigestSize {
		return verifyBIP340Variable(px, msg, sig)
	}
	pub, err := schnorr.ParsePubKey(px[:])
	if err != nil {
		return false
	}
	parsed, err := schnorr.ParseSignature(sig.b[:])
	if err != nil {
		return false
	}
	return parsed.Verify(msg, pub)
}

// verifyBIP340Variable is BIP340 verification for messages of any length:
// R = sG - eP must be finite, have even y and x(R) = r.
func verifyBIP340Variable(px *[32]byte, msg []byte, sig *SchnorrSignature) bool {
	pub := &XonlyKey{x: *px}
	p, err := pub.evenPoint()
	if err != nil {
		return false
	}

	var r btcec.FieldVal
	if overflow := r.SetByteSlice(sig.b[:32]); overflow {
		return false
	}
	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(sig.b[32:]); overflow {
		return false
	}

	challenge := taggedHash(tagBIP340Challenge, sig.b[:32], px[:], msg)
	var e btcec.ModNScalar
	e.SetBytes(&challenge)
	e.Negate()

	var pj, sg, ep, result btcec.JacobianPoint
	p.AsJacobian(&pj)
	btcec.ScalarBaseMultNonConst(&s, &sg)
	btcec.ScalarMultNonConst(&e, &pj, &ep)
	btcec.AddNonConst(&sg, &ep, &result)

	if isInfinity(&result) {
		return false
	}
	result.ToAffine()
	if result.Y.IsOdd() {
		return false
	}
	return result.X.Equals(&r)
}
