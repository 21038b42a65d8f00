package p256k

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"runtime"
)

// SecureBytes owns a fixed-length buffer of secret material. The buffer is
// never handed out by reference except for the duration of a WithBytes
// callback, copies are always deep, and the contents are overwritten with
// zeros by Zeroize or, at the latest, when the value is garbage collected.
type SecureBytes struct {
	b []byte
}

func newSecureBytes(b []byte) *SecureBytes {
	s := &SecureBytes{b: b}
	runtime.SetFinalizer(s, (*SecureBytes).Zeroize)
	return s
}

// NewSecureBytes copies src into a new SecureBytes. The caller keeps
// ownership of src and should clear it once it is no longer needed.
func NewSecureBytes(src []byte) *SecureBytes {
	b := make([]byte, len(src))
	copy(b, src)
	return newSecureBytes(b)
}

// NewRandomSecureBytes returns n bytes drawn from crypto/rand.
func NewRandomSecureBytes(n int) (*SecureBytes, error) {
	if n < 0 {
		return nil, ErrIncorrectParameterSize.WithDetails("negative length %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		clear(b)
		return nil, ErrUnderlyingCrypto.WithDetails("reading random bytes").WithCause(err)
	}
	return newSecureBytes(b), nil
}

// Len returns the fixed length of the buffer.
func (s *SecureBytes) Len() int {
	return len(s.b)
}

// WithBytes calls fn with a read-only view of the secret. fn must not
// modify the slice or retain it after returning.
func (s *SecureBytes) WithBytes(fn func(b []byte)) {
	fn(s.b)
	runtime.KeepAlive(s)
}

// Equal compares two buffers in constant time with respect to their contents.
func (s *SecureBytes) Equal(other *SecureBytes) bool {
	if other == nil {
		return false
	}
	eq := subtle.ConstantTimeCompare(s.b, other.b) == 1
	runtime.KeepAlive(s)
	runtime.KeepAlive(other)
	return eq
}

// EqualBytes compares the buffer with b in constant time.
func (s *SecureBytes) EqualBytes(b []byte) bool {
	eq := subtle.ConstantTimeCompare(s.b, b) == 1
	runtime.KeepAlive(s)
	return eq
}

// Clone returns an independent deep copy.
func (s *SecureBytes) Clone() *SecureBytes {
	c := NewSecureBytes(s.b)
	runtime.KeepAlive(s)
	return c
}

// Zeroize overwrites the buffer with zeros. The length is unchanged.
func (s *SecureBytes) Zeroize() {
	clear(s.b)
	runtime.KeepAlive(s.b)
}

// String never reveals the secret.
func (s *SecureBytes) String() string {
	return fmt.Sprintf("SecureBytes(%d bytes)", len(s.b))
}

// GoString keeps %#v from printing the buffer.
func (s *SecureBytes) GoString() string {
	return s.String()
}
