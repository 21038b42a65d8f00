package p256k

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

// Combine returns the point sum of p and others, serialized in format.
func (p *PublicKey) Combine(others []*PublicKey, format Format) (*PublicKey, error) {
	keys := make([]*PublicKey, 0, len(others)+1)
	keys = append(keys, p)
	keys = append(keys, others...)
	return CombinePublicKeys(format, keys...)
}

// CombinePublicKeys returns the point sum of keys, serialized in format.
// The result does not depend on the order of keys. An empty or nil input,
// or a sum equal to the point at infinity, fails with ErrUnderlyingCrypto.
func CombinePublicKeys(format Format, keys ...*PublicKey) (*PublicKey, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrUnderlyingCrypto.WithDetails("no public keys to combine")
	}

	var sum btcec.JacobianPoint
	for i, key := range keys {
		if key == nil {
			return nil, ErrUnderlyingCrypto.WithDetails("public key %d is nil", i)
		}
		var point, next btcec.JacobianPoint
		key.key.AsJacobian(&point)
		btcec.AddNonConst(&sum, &point, &next)
		sum = next
	}
	return publicKeyFromJacobian(&sum, format)
}

// publicKeyFromJacobian converts a result point, rejecting infinity.
func publicKeyFromJacobian(point *btcec.JacobianPoint, format Format) (*PublicKey, error) {
	if isInfinity(point) {
		return nil, ErrUnderlyingCrypto.WithDetails("result is the point at infinity")
	}
	point.ToAffine()
	return newPublicKey(btcec.NewPublicKey(&point.X, &point.Y), format)
}

func isInfinity(point *btcec.JacobianPoint) bool {
	return (point.X.IsZero() && point.Y.IsZero()) || point.Z.IsZero()
}
