package p256k

import (
	"encoding/hex"
	"io"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr/musig2"
)

// Byte lengths of the MuSig2 encodings.
const (
	MuSigPublicNonceSize      = musig2.PubNonceSize
	MuSigAggregateNonceSize   = musig2.PubNonceSize
	MuSigPartialSignatureSize = 32
	muSigSecretNonceSize      = musig2.SecNonceSize
)

// MuSigPublicNonce is a signer's round 1 contribution: two compressed
// points R1 || R2.
type MuSigPublicNonce struct {
	b [MuSigPublicNonceSize]byte
}

// ParseMuSigPublicNonce parses 66 bytes holding two valid compressed points.
func ParseMuSigPublicNonce(b []byte) (*MuSigPublicNonce, error) {
	if len(b) != MuSigPublicNonceSize {
		return nil, ErrIncorrectParameterSize.WithDetails("public nonce must be %d bytes, got %d", MuSigPublicNonceSize, len(b))
	}
	for half := 0; half < 2; half++ {
		point := b[half*CompressedPublicKeySize : (half+1)*CompressedPublicKeySize]
		if _, err := btcec.ParsePubKey(point); err != nil {
			return nil, ErrUnderlyingCrypto.WithDetails("public nonce point %d is invalid", half+1).WithCause(err)
		}
	}
	nonce := &MuSigPublicNonce{}
	copy(nonce.b[:], b)
	return nonce, nil
}

// Bytes returns a copy of the nonce.
func (n *MuSigPublicNonce) Bytes() []byte {
	return append([]byte(nil), n.b[:]...)
}

// Equal compares the nonce bytes.
func (n *MuSigPublicNonce) Equal(other *MuSigPublicNonce) bool {
	return other != nil && n.b == other.b
}

func (n *MuSigPublicNonce) String() string {
	return hex.EncodeToString(n.b[:])
}

// MuSigSecretNonce holds k1 || k2 || pk for exactly one partial signature.
// The first signing attempt clears it, successful or not, and any later
// attempt fails with ErrNonceReuse. It has no serialized form.
type MuSigSecretNonce struct {
	mu     sync.Mutex
	b      *SecureBytes
	signer *PublicKey
	used   bool
}

func newMuSigSecretNonce(b []byte, signer *PublicKey) *MuSigSecretNonce {
	return &MuSigSecretNonce{b: NewSecureBytes(b), signer: signer}
}

// Signer returns the public key the nonce was generated for.
func (n *MuSigSecretNonce) Signer() *PublicKey {
	return n.signer
}

// Used reports whether the nonce has been consumed.
func (n *MuSigSecretNonce) Used() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.used
}

// consume hands the nonce to fn once and clears it before returning.
func (n *MuSigSecretNonce) consume(fn func(sec [muSigSecretNonceSize]byte) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.used {
		return ErrNonceReuse
	}
	n.used = true

	var sec [muSigSecretNonceSize]byte
	defer clear(sec[:])
	n.b.WithBytes(func(b []byte) {
		copy(sec[:], b)
	})
	n.b.Zeroize()
	return fn(sec)
}

func (n *MuSigSecretNonce) String() string {
	return "MuSigSecretNonce(" + n.signer.String() + ")"
}

// MuSigNonceInputs are optional values mixed into nonce generation on top
// of the random seed. BIP327 recommends passing each one that is already
// known when the nonce is drawn.
type MuSigNonceInputs struct {
	// SecretKey must belong to the signer.
	SecretKey *PrivateKey
	// AggregateKey is the key the session will sign for.
	AggregateKey *MuSigAggregateKey
	// Message is the 32-byte digest to be signed.
	Message []byte
	// ExtraInput is any additional session data.
	ExtraInput []byte
}

// fullReader turns short reads into errors.
type fullReader struct {
	r io.Reader
}

func (f fullReader) Read(p []byte) (int, error) {
	return io.ReadFull(f.r, p)
}

// GenerateMuSigNonce draws a fresh nonce pair for signer. inputs may be nil.
// The secret half must be used for at most one partial signature; the
// public half is sent to every other signer.
func GenerateMuSigNonce(signer *PublicKey, inputs *MuSigNonceInputs, opts ...Option) (*MuSigSecretNonce, *MuSigPublicNonce, error) {
	cfg := newConfig(opts)
	if err := cfg.Err(); err != nil {
		return nil, nil, err
	}
	if signer == nil {
		return nil, nil, ErrIncorrectKeySize.WithDetails("signer key is nil")
	}

	genOpts := []musig2.NonceGenOption{
		musig2.WithPublicKey(signer.key),
		musig2.WithCustomRand(fullReader{r: cfg.Rand}),
	}
	var secretKey *PrivateKey
	if inputs != nil {
		if inputs.AggregateKey != nil {
			genOpts = append(genOpts, musig2.WithNonceCombinedKeyAux(inputs.AggregateKey.final.key))
		}
		if inputs.Message != nil {
			if len(inputs.Message) != DigestSize {
				return nil, nil, ErrIncorrectParameterSize.WithDetails("nonce message must be %d bytes, got %d", DigestSize, len(inputs.Message))
			}
			genOpts = append(genOpts, musig2.WithNonceMessageAux([DigestSize]byte(inputs.Message)))
		}
		if len(inputs.ExtraInput) > 0 {
			genOpts = append(genOpts, musig2.WithNonceAuxInput(inputs.ExtraInput))
		}
		secretKey = inputs.SecretKey
	}

	var nonces *musig2.Nonces
	generate := func() error {
		var err error
		nonces, err = musig2.GenNonces(genOpts...)
		return err
	}

	var err error
	if secretKey != nil {
		if !secretKey.PublicKey().Equal(signer) {
			return nil, nil, ErrIncorrectKeySize.WithDetails("secret key does not belong to signer %s", signer)
		}
		err = secretKey.withSigningKey(func(priv *btcec.PrivateKey) error {
			genOpts = append(genOpts, musig2.WithNonceSecretKeyAux(priv))
			return generate()
		})
	} else {
		err = generate()
	}
	if err != nil {
		return nil, nil, ErrUnderlyingCrypto.WithDetails("generating musig2 nonce").WithCause(err)
	}
	defer clear(nonces.SecNonce[:])

	return newMuSigSecretNonce(nonces.SecNonce[:], signer), &MuSigPublicNonce{b: nonces.PubNonce}, nil
}

// MuSigAggregateNonce is the per-half sum of all signers' public nonces.
// Either half may be the point at infinity, encoded as 33 zero bytes.
type MuSigAggregateNonce struct {
	b [MuSigAggregateNonceSize]byte
}

// ParseMuSigAggregateNonce parses 66 bytes holding two compressed points,
// each of which may instead be 33 zero bytes.
func ParseMuSigAggregateNonce(b []byte) (*MuSigAggregateNonce, error) {
	if len(b) != MuSigAggregateNonceSize {
		return nil, ErrIncorrectParameterSize.WithDetails("aggregate nonce must be %d bytes, got %d", MuSigAggregateNonceSize, len(b))
	}
	for half := 0; half < 2; half++ {
		point := b[half*CompressedPublicKeySize : (half+1)*CompressedPublicKeySize]
		if isZero(point) {
			continue
		}
		if _, err := btcec.ParsePubKey(point); err != nil {
			return nil, ErrUnderlyingCrypto.WithDetails("aggregate nonce point %d is invalid", half+1).WithCause(err)
		}
	}
	nonce := &MuSigAggregateNonce{}
	copy(nonce.b[:], b)
	return nonce, nil
}

// AggregateMuSigNonces sums the public nonces of every signer in the
// session. The order does not matter.
func AggregateMuSigNonces(nonces []*MuSigPublicNonce) (*MuSigAggregateNonce, error) {
	if len(nonces) == 0 {
		return nil, ErrIncorrectParameterSize.WithDetails("at least one public nonce is required")
	}
	pub := make([][MuSigPublicNonceSize]byte, len(nonces))
	for i, nonce := range nonces {
		if nonce == nil {
			return nil, ErrIncorrectParameterSize.WithDetails("public nonce %d is nil", i)
		}
		pub[i] = nonce.b
	}
	agg, err := musig2.AggregateNonces(pub)
	if err != nil {
		return nil, ErrUnderlyingCrypto.WithDetails("aggregating public nonces").WithCause(err)
	}
	return &MuSigAggregateNonce{b: agg}, nil
}

// Bytes returns a copy of the nonce.
func (n *MuSigAggregateNonce) Bytes() []byte {
	return append([]byte(nil), n.b[:]...)
}

// Equal compares the nonce bytes.
func (n *MuSigAggregateNonce) Equal(other *MuSigAggregateNonce) bool {
	return other != nil && n.b == other.b
}

func (n *MuSigAggregateNonce) String() string {
	return hex.EncodeToString(n.b[:])
}

// signingNonce derives the session nonce for key and msg:
//
//	b = H_noncecoef(aggnonce || x(Q) || m)
//	R = R1 + b*R2, or G when that sum is infinity
func (n *MuSigAggregateNonce) signingNonce(key *MuSigAggregateKey, msg [DigestSize]byte) (*btcec.PublicKey, error) {
	coef := taggedHash(tagMuSigNonceCoef, n.b[:], key.final.xonly.x[:], msg[:])
	var b btcec.ModNScalar
	b.SetBytes(&coef)

	r1, err := btcec.ParseJacobian(n.b[:CompressedPublicKeySize])
	if err != nil {
		return nil, ErrUnderlyingCrypto.WithDetails("aggregate nonce point 1 is invalid").WithCause(err)
	}
	r2, err := btcec.ParseJacobian(n.b[CompressedPublicKeySize:])
	if err != nil {
		return nil, ErrUnderlyingCrypto.WithDetails("aggregate nonce point 2 is invalid").WithCause(err)
	}

	var blinded, r btcec.JacobianPoint
	btcec.ScalarMultNonConst(&b, &r2, &blinded)
	btcec.AddNonConst(&r1, &blinded, &r)
	if isInfinity(&r) {
		btcec.GeneratorJacobian(&r)
	}
	r.ToAffine()
	return btcec.NewPublicKey(&r.X, &r.Y), nil
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
