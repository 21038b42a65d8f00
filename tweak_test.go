package p256k

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrivateAndPublicTweaksAgree(t *testing.T) {
	key := mustRandomKey(t)
	tweak := HashData([]byte("tweak"))

	added, err := key.Add(tweak[:])
	require.NoError(t, err)
	pubAdded, err := key.PublicKey().Add(tweak[:], Compressed)
	require.NoError(t, err)
	assert.Equal(t, added.PublicKey().Bytes(), pubAdded.Bytes())

	multiplied, err := key.Multiply(tweak[:])
	require.NoError(t, err)
	pubMultiplied, err := key.PublicKey().Multiply(tweak[:], Uncompressed)
	require.NoError(t, err)
	assert.True(t, multiplied.PublicKey().Equal(pubMultiplied))
	assert.Len(t, pubMultiplied.Bytes(), UncompressedPublicKeySize)
}

func TestMultiplyByOne(t *testing.T) {
	key := mustRandomKey(t)

	same, err := key.Multiply(scalarBytes(1))
	require.NoError(t, err)
	assert.True(t, same.Equal(key))

	pub, err := key.PublicKey().Multiply(scalarBytes(1), Compressed)
	require.NoError(t, err)
	assert.True(t, pub.Equal(key.PublicKey()))
}

func TestTweakErrors(t *testing.T) {
	key := mustRandomKey(t)
	pub := key.PublicKey()

	short := make([]byte, 31)
	overflow := mustHex(t, groupOrder)
	zero := make([]byte, TweakSize)

	_, err := key.Add(short)
	assert.ErrorIs(t, err, ErrIncorrectParameterSize)
	_, err = key.Add(overflow)
	assert.ErrorIs(t, err, ErrUnderlyingCrypto)
	_, err = key.Multiply(zero)
	assert.ErrorIs(t, err, ErrUnderlyingCrypto)
	_, err = pub.Add(short, Compressed)
	assert.ErrorIs(t, err, ErrIncorrectParameterSize)
	_, err = pub.Multiply(zero, Compressed)
	assert.ErrorIs(t, err, ErrUnderlyingCrypto)
	_, err = pub.Multiply(mustHex(t, strings.Repeat("ff", 32)), Compressed)
	assert.ErrorIs(t, err, ErrUnderlyingCrypto)
	_, err = pub.Add(zero, Format(3))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	// d + (n - d) = 0
	neg, err := key.Negate()
	require.NoError(t, err)
	_, err = key.Add(neg.Bytes())
	assert.ErrorIs(t, err, ErrUnderlyingCrypto)
	_, err = pub.Add(neg.Bytes(), Compressed)
	assert.ErrorIs(t, err, ErrUnderlyingCrypto)
}

func TestXonlyTweak(t *testing.T) {
	for i := 0; i < 4; i++ {
		key := mustRandomKey(t)
		tweak := HashData([]byte{byte(i)})

		tweakedKey, err := key.AddXonly(tweak[:])
		require.NoError(t, err)
		tweakedPub, err := key.XonlyKey().Add(tweak[:], Compressed)
		require.NoError(t, err)
		assert.True(t, tweakedKey.PublicKey().Equal(tweakedPub))

		assert.True(t, tweakedPub.XonlyKey().CheckTweakAdd(key.XonlyKey(), tweak[:]))
		other := HashData([]byte("other"))
		assert.False(t, tweakedPub.XonlyKey().CheckTweakAdd(key.XonlyKey(), other[:]))
		assert.False(t, tweakedPub.XonlyKey().CheckTweakAdd(nil, tweak[:]))
		assert.False(t, tweakedPub.XonlyKey().CheckTweakAdd(key.XonlyKey(), tweak[:20]))
	}
}

func TestTapTweak(t *testing.T) {
	key := mustRandomKey(t)
	merkleRoot := bytes.Repeat([]byte{0xab}, 32)

	for _, root := range [][]byte{nil, merkleRoot} {
		outputKey, err := key.TapTweak(root)
		require.NoError(t, err)
		outputXonly, err := key.XonlyKey().TapTweak(root)
		require.NoError(t, err)
		assert.True(t, outputKey.XonlyKey().Equal(outputXonly))

		expected := TaggedHash("TapTweak", key.XonlyKey().Bytes(), root)
		assert.True(t, outputXonly.CheckTweakAdd(key.XonlyKey(), expected[:]))

		digest := HashData([]byte("key path spend"))
		sig, err := outputKey.SignSchnorrDigest(digest[:])
		require.NoError(t, err)
		assert.True(t, outputXonly.VerifySchnorrDigest(sig, digest[:]))
	}
}
