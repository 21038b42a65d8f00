package p256k

import "fmt"

// Byte lengths of the encodings handled by this package.
const (
	PrivateKeySize            = 32
	CompressedPublicKeySize   = 33
	UncompressedPublicKeySize = 65
	XonlyKeySize              = 32
	DigestSize                = 32
	TweakSize                 = 32
	CompactSignatureSize      = 64
	RecoverableSignatureSize  = 65
	SchnorrSignatureSize      = 64
	MaxDERSignatureSize       = 72
	RawSharedSecretSize       = 32
)

// Format selects the SEC1 serialization of a public key.
type Format int

const (
	// Compressed is the 33-byte form: 0x02 or 0x03 followed by x.
	Compressed Format = iota
	// Uncompressed is the 65-byte form: 0x04 followed by x and y.
	Uncompressed
)

// Length returns the serialized size of a public key in this format, or 0
// for an unknown format.
func (f Format) Length() int {
	switch f {
	case Compressed:
		return CompressedPublicKeySize
	case Uncompressed:
		return UncompressedPublicKeySize
	default:
		return 0
	}
}

func (f Format) String() string {
	switch f {
	case Compressed:
		return "compressed"
	case Uncompressed:
		return "uncompressed"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

func (f Format) validate() error {
	if f.Length() == 0 {
		return ErrInvalidConfiguration.WithDetails("unknown public key format %d", int(f))
	}
	return nil
}
