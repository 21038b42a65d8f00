package p256k

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureBytes(t *testing.T) {
	src := []byte{0xde, 0xad, 0xbe, 0xef}
	s := NewSecureBytes(src)
	src[0] = 0x00

	assert.Equal(t, 4, s.Len())
	assert.True(t, s.EqualBytes([]byte{0xde, 0xad, 0xbe, 0xef}))
	assert.False(t, s.EqualBytes([]byte{0xde, 0xad, 0xbe}))

	clone := s.Clone()
	assert.True(t, clone.Equal(s))
	clone.Zeroize()
	assert.False(t, clone.Equal(s))
	assert.Equal(t, 4, clone.Len())
	assert.True(t, clone.EqualBytes(make([]byte, 4)))
	assert.False(t, s.Equal(nil))

	s.WithBytes(func(b []byte) {
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)
	})
}

func TestSecureBytesRedaction(t *testing.T) {
	s := NewSecureBytes([]byte{0xde, 0xad, 0xbe, 0xef})
	for _, out := range []string{s.String(), fmt.Sprintf("%v", s), fmt.Sprintf("%#v", s), fmt.Sprint(s)} {
		assert.Equal(t, "SecureBytes(4 bytes)", out)
	}
}

func TestNewRandomSecureBytes(t *testing.T) {
	a, err := NewRandomSecureBytes(32)
	require.NoError(t, err)
	b, err := NewRandomSecureBytes(32)
	require.NoError(t, err)
	assert.Equal(t, 32, a.Len())
	assert.False(t, a.Equal(b))

	empty, err := NewRandomSecureBytes(0)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	_, err = NewRandomSecureBytes(-1)
	assert.ErrorIs(t, err, ErrIncorrectParameterSize)
}
