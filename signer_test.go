package p256k

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signAndValidate[S any](t *testing.T, signer Signer[S], validator Validator[S]) {
	t.Helper()

	data := []byte("generic signer")
	sig, err := signer.Sign(data)
	require.NoError(t, err)
	assert.True(t, validator.Verify(sig, data))
	assert.False(t, validator.Verify(sig, []byte("other data")))

	digest := HashData([]byte("digest"))
	sig, err = signer.SignDigest(digest[:])
	require.NoError(t, err)
	assert.True(t, validator.VerifyDigest(sig, digest[:]))
	assert.False(t, validator.VerifyDigest(sig, data))
}

func TestSigners(t *testing.T) {
	key := mustRandomKey(t)
	handler := newRecordingHandler()
	audit := WithAuditHandler(handler)

	ecdsaSigner, err := NewECDSASigner(key, audit)
	require.NoError(t, err)
	ecdsaValidator, err := NewECDSAValidator(key.PublicKey(), audit, WithLowS())
	require.NoError(t, err)
	signAndValidate[*ECDSASignature](t, ecdsaSigner, ecdsaValidator)

	recSigner, err := NewRecoverableSigner(key, audit)
	require.NoError(t, err)
	recValidator, err := NewRecoverableValidator(key.PublicKey(), audit)
	require.NoError(t, err)
	signAndValidate[*RecoverableSignature](t, recSigner, recValidator)

	schnorrSigner, err := NewSchnorrSigner(key, audit)
	require.NoError(t, err)
	schnorrValidator, err := NewSchnorrValidator(key.XonlyKey(), audit)
	require.NoError(t, err)
	signAndValidate[*SchnorrSignature](t, schnorrSigner, schnorrValidator)

	assert.Len(t, handler.signatures, 6)
	assert.Len(t, handler.verificationFailures, 6)
	assert.Empty(t, handler.errors)

	algorithms := make(map[string]int)
	for _, event := range handler.signatures {
		algorithms[event.Algorithm]++
		assert.Equal(t, key.PublicKey().String(), event.PublicKey)
	}
	assert.Equal(t, map[string]int{
		AlgorithmECDSA:            2,
		AlgorithmECDSARecoverable: 2,
		AlgorithmSchnorr:          2,
	}, algorithms)
}

func TestSignerFormat(t *testing.T) {
	key := mustRandomKey(t)
	signer, err := NewECDSASigner(key, WithFormat(Uncompressed))
	require.NoError(t, err)
	assert.Len(t, signer.PublicKey().Bytes(), UncompressedPublicKeySize)
	assert.True(t, signer.PublicKey().Equal(key.PublicKey()))
}

func TestSignerConstructorErrors(t *testing.T) {
	key := mustRandomKey(t)

	_, err := NewECDSASigner(nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = NewRecoverableSigner(key, WithFormat(Format(8)))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = NewSchnorrSigner(key, WithAuxRand(make([]byte, 8)))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = NewSchnorrSigner(key, WithAuditHandler(nil))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewECDSAValidator(nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = NewRecoverableValidator(nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = NewSchnorrValidator(nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = NewSchnorrValidator(key.XonlyKey(), WithAuxRand(nil))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestSignerReportsErrors(t *testing.T) {
	key := mustRandomKey(t)
	handler := newRecordingHandler()

	ecdsaSigner, err := NewECDSASigner(key, WithAuditHandler(handler))
	require.NoError(t, err)
	_, err = ecdsaSigner.SignDigest([]byte("short"))
	assert.ErrorIs(t, err, ErrIncorrectParameterSize)

	schnorrSigner, err := NewSchnorrSigner(key, WithAuditHandler(handler), WithStrictMessage())
	require.NoError(t, err)
	_, err = schnorrSigner.SignMessage([]byte("not 32 bytes"))
	assert.ErrorIs(t, err, ErrIncorrectParameterSize)
	_, err = schnorrSigner.SignDigest(nil)
	assert.ErrorIs(t, err, ErrIncorrectParameterSize)

	require.Len(t, handler.errors, 3)
	assert.Empty(t, handler.signatures)
	for _, event := range handler.errors {
		assert.Equal(t, ReasonSign, event.Reason)
		assert.False(t, event.Success)
	}
}

func TestECDSAValidatorLowS(t *testing.T) {
	key := mustRandomKey(t)
	digest := HashData([]byte("low s"))
	sig, err := key.SignECDSA(digest[:])
	require.NoError(t, err)
	high := &ECDSASignature{r: sig.r, s: sig.s}
	high.s.Negate()

	permissive, err := NewECDSAValidator(key.PublicKey())
	require.NoError(t, err)
	assert.True(t, permissive.VerifyDigest(high, digest[:]))

	handler := newRecordingHandler()
	strict, err := NewECDSAValidator(key.PublicKey(), WithLowS(), WithAuditHandler(handler))
	require.NoError(t, err)
	assert.False(t, strict.VerifyDigest(high, digest[:]))
	assert.True(t, strict.VerifyDigest(sig, digest[:]))

	require.Len(t, handler.verificationFailures, 1)
	assert.Equal(t, "signature is not in low-S form", handler.verificationFailures[0].FailureReason)
	assert.Equal(t, AlgorithmECDSA, handler.verificationFailures[0].Algorithm)
}

func TestRecoverableValidatorRejectsOtherKey(t *testing.T) {
	key := mustRandomKey(t)
	other := mustRandomKey(t)
	handler := newRecordingHandler()

	signer, err := NewRecoverableSigner(key)
	require.NoError(t, err)
	sig, err := signer.Sign([]byte("who signed"))
	require.NoError(t, err)

	validator, err := NewRecoverableValidator(other.PublicKey(), WithAuditHandler(handler))
	require.NoError(t, err)
	assert.False(t, validator.Verify(sig, []byte("who signed")))
	assert.False(t, validator.Verify(nil, []byte("who signed")))

	require.Len(t, handler.verificationFailures, 2)
	assert.Equal(t, "recovered a different public key", handler.verificationFailures[0].FailureReason)
	assert.Equal(t, "public key recovery failed", handler.verificationFailures[1].FailureReason)
	assert.NotEmpty(t, handler.verificationFailures[1].Error)
}

func TestSchnorrSignerMessages(t *testing.T) {
	key := mustPrivateKey(t, mustHex(t, bip340Vectors[0].secretKey))
	signer, err := NewSchnorrSigner(key, WithAuxRand(make([]byte, 32)))
	require.NoError(t, err)
	assert.Equal(t, bip340Vectors[0].publicKey, signer.XonlyKey().String())

	sig, err := signer.SignDigest(make([]byte, 32))
	require.NoError(t, err)
	assert.Equal(t, bip340Vectors[0].signature, sig.String())

	validator, err := NewSchnorrValidator(signer.XonlyKey())
	require.NoError(t, err)
	msg := bytes.Repeat([]byte("variable "), 7)
	sig, err = signer.SignMessage(msg)
	require.NoError(t, err)
	assert.True(t, validator.VerifyMessage(sig, msg))

	strict, err := NewSchnorrValidator(signer.XonlyKey(), WithStrictMessage())
	require.NoError(t, err)
	assert.False(t, strict.VerifyMessage(sig, msg))
}
