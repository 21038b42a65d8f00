package p256k

// Signer produces signatures of type S with a fixed private key.
// The algorithm is chosen by the concrete type the caller instantiates.
type Signer[S any] interface {
	// Sign signs SHA-256(data)
	Sign(data []byte) (S, error)
	// SignDigest signs a 32-byte digest
	SignDigest(digest []byte) (S, error)
	// PublicKey returns the verification key
	PublicKey() *PublicKey
}

// Validator checks signatures of type S against a fixed public key.
type Validator[S any] interface {
	// Verify checks sig over SHA-256(data)
	Verify(sig S, data []byte) bool
	// VerifyDigest checks sig over a 32-byte digest
	VerifyDigest(sig S, digest []byte) bool
}

var (
	_ Signer[*ECDSASignature]          = (*ECDSASigner)(nil)
	_ Signer[*RecoverableSignature]    = (*RecoverableSigner)(nil)
	_ Signer[*SchnorrSignature]        = (*SchnorrSigner)(nil)
	_ Validator[*ECDSASignature]       = (*ECDSAValidator)(nil)
	_ Validator[*RecoverableSignature] = (*RecoverableValidator)(nil)
	_ Validator[*SchnorrSignature]     = (*SchnorrValidator)(nil)
)

// signerBase holds what every signer shares.
type signerBase struct {
	key       *PrivateKey
	publicKey *PublicKey
	cfg       *Config
}

func newSignerBase(key *PrivateKey, opts []Option) (signerBase, error) {
	cfg := newConfig(opts)
	if err := cfg.Err(); err != nil {
		return signerBase{}, err
	}
	if key == nil {
		return signerBase{}, ErrInvalidConfiguration.WithDetails("private key cannot be nil")
	}
	pub, err := key.PublicKey().WithFormat(cfg.Format)
	if err != nil {
		return signerBase{}, err
	}
	return signerBase{key: key, publicKey: pub, cfg: cfg}, nil
}

// PublicKey returns the signer's public key in the configured format.
func (b *signerBase) PublicKey() *PublicKey {
	return b.publicKey
}

func (b *signerBase) report(algorithm string, messageSize int, signature []byte, err error) {
	if err != nil {
		auditError(b.cfg.Audit, ReasonSign, algorithm, b.publicKey, err)
		return
	}
	b.cfg.Audit.OnSignature(NewAuditEventBuilder(AuditEventSignature, ReasonSign).
		WithAlgorithm(algorithm).
		WithPublicKey(b.publicKey).
		BuildSignature(messageSize, len(signature)))
}

// ECDSASigner produces low-S ECDSA signatures.
type ECDSASigner struct {
	signerBase
}

// NewECDSASigner returns a signer for key.
func NewECDSASigner(key *PrivateKey, opts ...Option) (*ECDSASigner, error) {
	base, err := newSignerBase(key, opts)
	if err != nil {
		return nil, err
	}
	return &ECDSASigner{signerBase: base}, nil
}

func (s *ECDSASigner) Sign(data []byte) (*ECDSASignature, error) {
	digest := HashData(data)
	return s.sign(digest[:], len(data))
}

func (s *ECDSASigner) SignDigest(digest []byte) (*ECDSASignature, error) {
	return s.sign(digest, len(digest))
}

func (s *ECDSASigner) sign(digest []byte, messageSize int) (*ECDSASignature, error) {
	sig, err := s.key.SignECDSA(digest)
	if err != nil {
		s.report(AlgorithmECDSA, messageSize, nil, err)
		return nil, err
	}
	s.report(AlgorithmECDSA, messageSize, sig.DER(), nil)
	return sig, nil
}

// RecoverableSigner produces ECDSA signatures with a recovery id.
type RecoverableSigner struct {
	signerBase
}

// NewRecoverableSigner returns a signer for key.
func NewRecoverableSigner(key *PrivateKey, opts ...Option) (*RecoverableSigner, error) {
	base, err := newSignerBase(key, opts)
	if err != nil {
		return nil, err
	}
	return &RecoverableSigner{signerBase: base}, nil
}

func (s *RecoverableSigner) Sign(data []byte) (*RecoverableSignature, error) {
	digest := HashData(data)
	return s.sign(digest[:], len(data))
}

func (s *RecoverableSigner) SignDigest(digest []byte) (*RecoverableSignature, error) {
	return s.sign(digest, len(digest))
}

func (s *RecoverableSigner) sign(digest []byte, messageSize int) (*RecoverableSignature, error) {
	sig, err := s.key.SignRecoverable(digest)
	if err != nil {
		s.report(AlgorithmECDSARecoverable, messageSize, nil, err)
		return nil, err
	}
	s.report(AlgorithmECDSARecoverable, messageSize, sig.Bytes(), nil)
	return sig, nil
}

// SchnorrSigner produces BIP340 signatures. Sign hashes data with SHA-256
// first and is therefore not BIP340 compatible; SignDigest and SignMessage
// are.
type SchnorrSigner struct {
	signerBase
}

// NewSchnorrSigner returns a signer for key.
func NewSchnorrSigner(key *PrivateKey, opts ...Option) (*SchnorrSigner, error) {
	base, err := newSignerBase(key, opts)
	if err != nil {
		return nil, err
	}
	return &SchnorrSigner{signerBase: base}, nil
}

// XonlyKey returns the key BIP340 verifiers use.
func (s *SchnorrSigner) XonlyKey() *XonlyKey {
	return s.key.XonlyKey()
}

func (s *SchnorrSigner) Sign(data []byte) (*SchnorrSignature, error) {
	digest := HashData(data)
	return s.sign(digest[:], len(data))
}

func (s *SchnorrSigner) SignDigest(digest []byte) (*SchnorrSignature, error) {
	if len(digest) != DigestSize {
		err := ErrIncorrectParameterSize.WithDetails("digest must be %d bytes, got %d", DigestSize, len(digest))
		s.report(AlgorithmSchnorr, len(digest), nil, err)
		return nil, err
	}
	return s.sign(digest, len(digest))
}

// SignMessage signs msg as given, honoring WithStrictMessage.
func (s *SchnorrSigner) SignMessage(msg []byte) (*SchnorrSignature, error) {
	return s.sign(msg, len(msg))
}

func (s *SchnorrSigner) sign(msg []byte, messageSize int) (*SchnorrSignature, error) {
	sig, err := s.key.signSchnorr(msg, s.cfg)
	if err != nil {
		s.report(AlgorithmSchnorr, messageSize, nil, err)
		return nil, err
	}
	s.report(AlgorithmSchnorr, messageSize, sig.b[:], nil)
	return sig, nil
}

type validatorBase struct {
	cfg *Config
}

func newValidatorBase(opts []Option) (validatorBase, error) {
	cfg := newConfig(opts)
	if err := cfg.Err(); err != nil {
		return validatorBase{}, err
	}
	return validatorBase{cfg: cfg}, nil
}

func (b *validatorBase) rejected(builder *AuditEventBuilder, algorithm, reason string, messageSize int) bool {
	b.cfg.Audit.OnVerificationFailure(builder.WithAlgorithm(algorithm).BuildVerificationFailure(reason, messageSize))
	return false
}

// ECDSAValidator verifies ECDSA signatures, applying WithLowS if configured.
type ECDSAValidator struct {
	validatorBase
	key *PublicKey
}

// NewECDSAValidator returns a validator for key.
func NewECDSAValidator(key *PublicKey, opts ...Option) (*ECDSAValidator, error) {
	if key == nil {
		return nil, ErrInvalidConfiguration.WithDetails("public key cannot be nil")
	}
	base, err := newValidatorBase(opts)
	if err != nil {
		return nil, err
	}
	return &ECDSAValidator{validatorBase: base, key: key}, nil
}

func (v *ECDSAValidator) Verify(sig *ECDSASignature, data []byte) bool {
	digest := HashData(data)
	return v.verify(sig, digest[:], len(data))
}

func (v *ECDSAValidator) VerifyDigest(sig *ECDSASignature, digest []byte) bool {
	return v.verify(sig, digest, len(digest))
}

func (v *ECDSAValidator) verify(sig *ECDSASignature, digest []byte, messageSize int) bool {
	if v.key.verifyECDSA(sig, digest, v.cfg.LowS) {
		return true
	}
	reason := "signature does not verify"
	if sig != nil && v.cfg.LowS && !sig.IsLowS() {
		reason = "signature is not in low-S form"
	}
	return v.rejected(NewAuditEventBuilder(AuditEventVerificationFailure, ReasonVerify).WithPublicKey(v.key),
		AlgorithmECDSA, reason, messageSize)
}

// RecoverableValidator accepts a recoverable signature when the key it
// recovers to is the expected key.
type RecoverableValidator struct {
	validatorBase
	key *PublicKey
}

// NewRecoverableValidator returns a validator for key.
func NewRecoverableValidator(key *PublicKey, opts ...Option) (*RecoverableValidator, error) {
	if key == nil {
		return nil, ErrInvalidConfiguration.WithDetails("public key cannot be nil")
	}
	base, err := newValidatorBase(opts)
	if err != nil {
		return nil, err
	}
	return &RecoverableValidator{validatorBase: base, key: key}, nil
}

func (v *RecoverableValidator) Verify(sig *RecoverableSignature, data []byte) bool {
	digest := HashData(data)
	return v.verify(sig, digest[:], len(data))
}

func (v *RecoverableValidator) VerifyDigest(sig *RecoverableSignature, digest []byte) bool {
	return v.verify(sig, digest, len(digest))
}

func (v *RecoverableValidator) verify(sig *RecoverableSignature, digest []byte, messageSize int) bool {
	builder := NewAuditEventBuilder(AuditEventVerificationFailure, ReasonRecover).WithPublicKey(v.key)
	if sig != nil && v.cfg.LowS && !sig.sig.IsLowS() {
		return v.rejected(builder, AlgorithmECDSARecoverable, "signature is not in low-S form", messageSize)
	}
	recovered, err := RecoverPublicKey(digest, sig, v.key.Format())
	if err != nil {
		return v.rejected(builder.WithError(err), AlgorithmECDSARecoverable, "public key recovery failed", messageSize)
	}
	if !recovered.Equal(v.key) {
		return v.rejected(builder, AlgorithmECDSARecoverable, "recovered a different public key", messageSize)
	}
	return true
}

// SchnorrValidator verifies BIP340 signatures against an x-only key.
// Malformed input never panics or errors; it simply does not verify.
type SchnorrValidator struct {
	validatorBase
	key *XonlyKey
}

// NewSchnorrValidator returns a validator for key.
func NewSchnorrValidator(key *XonlyKey, opts ...Option) (*SchnorrValidator, error) {
	if key == nil {
		return nil, ErrInvalidConfiguration.WithDetails("x-only key cannot be nil")
	}
	base, err := newValidatorBase(opts)
	if err != nil {
		return nil, err
	}
	return &SchnorrValidator{validatorBase: base, key: key}, nil
}

func (v *SchnorrValidator) Verify(sig *SchnorrSignature, data []byte) bool {
	return v.check(v.key.VerifySchnorr(sig, data), len(data))
}

func (v *SchnorrValidator) VerifyDigest(sig *SchnorrSignature, digest []byte) bool {
	return v.check(v.key.VerifySchnorrDigest(sig, digest), len(digest))
}

// VerifyMessage checks sig over msg as given.
func (v *SchnorrValidator) VerifyMessage(sig *SchnorrSignature, msg []byte) bool {
	if v.cfg.StrictMessage && len(msg) != DigestSize {
		return v.check(false, len(msg))
	}
	return v.check(v.key.VerifySchnorrMessage(sig, msg), len(msg))
}

func (v *SchnorrValidator) check(ok bool, messageSize int) bool {
	if ok {
		return true
	}
	return v.rejected(NewAuditEventBuilder(AuditEventVerificationFailure, ReasonVerify).WithXonlyKey(v.key),
		AlgorithmSchnorr, "signature does not verify", messageSize)
}
