package p256k

import (
	"crypto/rand"
	"errors"
	"io"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
)

// maxBlindingAttempts bounds the draws from the entropy source. A uniformly
// random 32-byte string lands outside [1, n) with probability about 2^-128.
const maxBlindingAttempts = 8

// Context is the process-wide randomized handle used for every generator
// multiplication. It holds a random blinding scalar b and the precomputed
// point -bG so that kG is always evaluated as (k+b)G + (-bG).
//
// A Context is immutable once created and safe for concurrent use.
type Context struct {
	blind      btcec.ModNScalar
	blindPoint btcec.JacobianPoint
}

var (
	sharedContext     *Context
	sharedContextOnce sync.Once
)

// SharedContext returns the process-wide context, creating and randomizing
// it on first use. Concurrent first callers block until initialization has
// finished. Failure to gather entropy leaves no safe mode of operation, so it
// panics with ErrContextInitialization.
func SharedContext() *Context {
	sharedContextOnce.Do(func() {
		ctx, err := newContext(rand.Reader)
		if err != nil {
			panic(ErrContextInitialization.WithCause(err))
		}
		sharedContext = ctx
	})
	return sharedContext
}

func newContext(entropy io.Reader) (*Context, error) {
	var seed [32]byte
	defer clear(seed[:])

	for attempt := 0; attempt < maxBlindingAttempts; attempt++ {
		if _, err := io.ReadFull(entropy, seed[:]); err != nil {
			return nil, err
		}

		ctx := &Context{}
		if overflow := ctx.blind.SetBytes(&seed); overflow != 0 || ctx.blind.IsZero() {
			ctx.blind.Zero()
			continue
		}

		var negated btcec.ModNScalar
		negated.NegateVal(&ctx.blind)
		btcec.ScalarBaseMultNonConst(&negated, &ctx.blindPoint)
		ctx.blindPoint.ToAffine()
		negated.Zero()
		return ctx, nil
	}
	return nil, errors.New("entropy source did not yield a valid blinding scalar")
}

// scalarBaseMult stores kG in result, in affine form.
func (c *Context) scalarBaseMult(k *btcec.ModNScalar, result *btcec.JacobianPoint) {
	var blinded btcec.ModNScalar
	blinded.Add2(k, &c.blind)
	defer blinded.Zero()

	var point btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&blinded, &point)
	btcec.AddNonConst(&point, &c.blindPoint, result)
	result.ToAffine()
}

// publicKey derives the public point for the secret scalar k.
func (c *Context) publicKey(k *btcec.ModNScalar) *btcec.PublicKey {
	var point btcec.JacobianPoint
	c.scalarBaseMult(k, &point)
	return btcec.NewPublicKey(&point.X, &point.Y)
}
