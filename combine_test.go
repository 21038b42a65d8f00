package p256k

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinePublicKeys(t *testing.T) {
	a := mustRandomKey(t)
	b := mustRandomKey(t)
	c := mustRandomKey(t)

	abc, err := CombinePublicKeys(Compressed, a.PublicKey(), b.PublicKey(), c.PublicKey())
	require.NoError(t, err)

	for _, order := range [][]*PublicKey{
		{c.PublicKey(), b.PublicKey(), a.PublicKey()},
		{b.PublicKey(), a.PublicKey(), c.PublicKey()},
	} {
		got, err := CombinePublicKeys(Compressed, order...)
		require.NoError(t, err)
		assert.Equal(t, abc.Bytes(), got.Bytes())
	}

	viaMethod, err := a.PublicKey().Combine([]*PublicKey{b.PublicKey(), c.PublicKey()}, Uncompressed)
	require.NoError(t, err)
	assert.Len(t, viaMethod.Bytes(), UncompressedPublicKeySize)
	assert.True(t, viaMethod.Equal(abc))

	// (a + b)G must equal aG + bG.
	sum, err := a.Add(b.Bytes())
	require.NoError(t, err)
	ab, err := a.PublicKey().Combine([]*PublicKey{b.PublicKey()}, Compressed)
	require.NoError(t, err)
	assert.Equal(t, sum.PublicKey().Bytes(), ab.Bytes())

	single, err := CombinePublicKeys(Compressed, a.PublicKey())
	require.NoError(t, err)
	assert.True(t, single.Equal(a.PublicKey()))
}

func TestCombineDoubling(t *testing.T) {
	one := mustPrivateKey(t, scalarBytes(1))
	two := mustPrivateKey(t, scalarBytes(2))

	doubled, err := CombinePublicKeys(Compressed, one.PublicKey(), one.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, two.PublicKey().Bytes(), doubled.Bytes())
}

func TestCombinePublicKeysErrors(t *testing.T) {
	a := mustRandomKey(t)

	_, err := CombinePublicKeys(Compressed)
	assert.ErrorIs(t, err, ErrUnderlyingCrypto)

	_, err = CombinePublicKeys(Compressed, a.PublicKey(), nil)
	assert.ErrorIs(t, err, ErrUnderlyingCrypto)

	_, err = CombinePublicKeys(Compressed, a.PublicKey(), a.PublicKey().Negate())
	assert.ErrorIs(t, err, ErrUnderlyingCrypto)

	_, err = CombinePublicKeys(Format(2), a.PublicKey())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
