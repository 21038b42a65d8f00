package p256k

// SigningCommitment is a signer's round 1 message: its public nonce.
type SigningCommitment struct {
	Signer *PublicKey
	Nonce  *MuSigPublicNonce
}

// SigningResponse is a signer's round 2 message: its partial signature.
type SigningResponse struct {
	Signer    *PublicKey
	Signature *MuSigPartialSignature
}

// MuSigSession drives one signer through a two-round MuSig2 signing of a
// single digest. Round1 produces this signer's commitment, ProcessRound1
// collects everyone else's, Round2 produces the partial signature and
// ProcessRound2 collects the rest and returns the final signature.
// A session is used once and is not safe for concurrent use.
type MuSigSession struct {
	key    *PrivateKey
	aggKey *MuSigAggregateKey
	digest []byte
	opts   []Option

	// Round 1 state
	secNonce    *MuSigSecretNonce
	commitments map[string]*SigningCommitment

	// Round 2 state
	aggNonce  *MuSigAggregateNonce
	responses map[string]*SigningResponse
}

// NewMuSigSession starts a session for key over a 32-byte digest. key must
// be one of the aggregate key's signers, and every signer key must be
// distinct.
func NewMuSigSession(key *PrivateKey, aggKey *MuSigAggregateKey, digest []byte, opts ...Option) (*MuSigSession, error) {
	cfg := newConfig(opts)
	if err := cfg.Err(); err != nil {
		return nil, err
	}
	if key == nil || aggKey == nil {
		return nil, ErrSessionState.WithDetails("private key and aggregate key are required")
	}
	if len(digest) != DigestSize {
		return nil, ErrIncorrectParameterSize.WithDetails("digest must be %d bytes, got %d", DigestSize, len(digest))
	}

	seen := make(map[string]bool, len(aggKey.signers))
	for _, signer := range aggKey.signers {
		id := signerID(signer)
		if seen[id] {
			return nil, ErrSessionState.WithDetails("signer %s appears more than once", signer)
		}
		seen[id] = true
	}
	if !seen[signerID(key.PublicKey())] {
		return nil, ErrSessionState.WithDetails("our key %s is not a signer", key.PublicKey())
	}

	return &MuSigSession{
		key:         key,
		aggKey:      aggKey,
		digest:      append([]byte(nil), digest...),
		opts:        opts,
		commitments: make(map[string]*SigningCommitment),
		responses:   make(map[string]*SigningResponse),
	}, nil
}

func signerID(pub *PublicKey) string {
	return string(pub.key.SerializeCompressed())
}

// Round1 generates our nonce and returns the commitment to broadcast.
func (s *MuSigSession) Round1() (*SigningCommitment, error) {
	if s.secNonce != nil {
		return nil, ErrSessionState.WithDetails("round 1 already started")
	}
	secNonce, pubNonce, err := GenerateMuSigNonce(s.key.PublicKey(), &MuSigNonceInputs{
		SecretKey:    s.key,
		AggregateKey: s.aggKey,
		Message:      s.digest,
	}, s.opts...)
	if err != nil {
		return nil, err
	}
	s.secNonce = secNonce

	commitment := &SigningCommitment{Signer: s.key.PublicKey(), Nonce: pubNonce}
	s.commitments[signerID(commitment.Signer)] = commitment
	return commitment, nil
}

// ProcessRound1 records the other signers' commitments. Once every signer
// has committed the aggregate nonce is fixed.
func (s *MuSigSession) ProcessRound1(commitments []*SigningCommitment) error {
	if s.secNonce == nil {
		return ErrSessionState.WithDetails("round 1 not started")
	}
	for _, commitment := range commitments {
		if commitment == nil || commitment.Signer == nil {
			return ErrSessionState.WithDetails("commitment without a signer")
		}
		id := signerID(commitment.Signer)
		if _, exists := s.commitments[id]; exists {
			return ErrSessionState.WithDetails("commitment from signer %s already exists", commitment.Signer)
		}
		if !s.aggKey.contains(commitment.Signer) {
			return ErrSessionState.WithDetails("unexpected commitment from signer %s", commitment.Signer)
		}
		if commitment.Nonce == nil {
			return ErrSessionState.WithDetails("nil nonce from signer %s", commitment.Signer)
		}
		s.commitments[id] = commitment
	}

	if len(s.commitments) != len(s.aggKey.signers) {
		return ErrSessionState.WithDetails("missing commitments: expected %d, got %d", len(s.aggKey.signers), len(s.commitments))
	}

	nonces := make([]*MuSigPublicNonce, 0, len(s.aggKey.signers))
	for _, signer := range s.aggKey.signers {
		nonces = append(nonces, s.commitments[signerID(signer)].Nonce)
	}
	aggNonce, err := AggregateMuSigNonces(nonces)
	if err != nil {
		return err
	}
	s.aggNonce = aggNonce
	return nil
}

// AggregateNonce returns the combined nonce once round 1 is complete.
func (s *MuSigSession) AggregateNonce() *MuSigAggregateNonce {
	return s.aggNonce
}

// Round2 produces our partial signature. It can succeed only once.
func (s *MuSigSession) Round2() (*SigningResponse, error) {
	if s.aggNonce == nil {
		return nil, ErrSessionState.WithDetails("round 1 not completed")
	}
	sig, err := s.key.MuSigPartialSign(s.digest, s.secNonce, s.aggNonce, s.aggKey, s.opts...)
	if err != nil {
		return nil, err
	}

	response := &SigningResponse{Signer: s.key.PublicKey(), Signature: sig}
	s.responses[signerID(response.Signer)] = response
	return response, nil
}

// ProcessRound2 verifies the other signers' partial signatures and returns
// the aggregate Schnorr signature. A bad share is reported with the signer
// that produced it.
func (s *MuSigSession) ProcessRound2(responses []*SigningResponse) (*SchnorrSignature, error) {
	if _, ok := s.responses[signerID(s.key.PublicKey())]; !ok {
		return nil, ErrSessionState.WithDetails("round 2 not completed")
	}
	for _, response := range responses {
		if response == nil || response.Signer == nil {
			return nil, ErrSessionState.WithDetails("response without a signer")
		}
		id := signerID(response.Signer)
		commitment, ok := s.commitments[id]
		if !ok {
			return nil, ErrSessionState.WithDetails("unexpected response from signer %s", response.Signer)
		}
		if _, exists := s.responses[id]; exists {
			return nil, ErrSessionState.WithDetails("response from signer %s already exists", response.Signer)
		}
		if !s.aggKey.VerifyPartialSignature(response.Signature, commitment.Nonce, s.aggNonce, response.Signer, s.digest, s.opts...) {
			return nil, ErrUnderlyingCrypto.WithDetails("invalid partial signature from signer %s", response.Signer)
		}
		s.responses[id] = response
	}

	if len(s.responses) != len(s.aggKey.signers) {
		return nil, ErrSessionState.WithDetails("missing responses: expected %d, got %d", len(s.aggKey.signers), len(s.responses))
	}

	partials := make([]*MuSigPartialSignature, 0, len(s.aggKey.signers))
	for _, signer := range s.aggKey.signers {
		partials = append(partials, s.responses[signerID(signer)].Signature)
	}
	return s.aggKey.AggregateSignatures(s.aggNonce, s.digest, partials, s.opts...)
}
