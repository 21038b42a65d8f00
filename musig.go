package p256k

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr/musig2"
)

// MuSigAggregateKey is the BIP327 aggregate of a set of signer keys together
// with the tweaks applied to it so far, in order. Values are immutable;
// tweaking returns a new key.
type MuSigAggregateKey struct {
	signers  []*PublicKey
	keys     []*btcec.PublicKey
	tweaks   []musig2.KeyTweakDesc
	final    *PublicKey
	internal *PublicKey
}

// AggregateMuSigKeys combines signer keys with BIP327 KeyAgg. The keys are
// sorted first unless WithKeyOrder is given, in which case every signer
// must pass them in the same order. A key may appear more than once.
func AggregateMuSigKeys(keys []*PublicKey, opts ...Option) (*MuSigAggregateKey, error) {
	cfg := newConfig(opts)
	if err := cfg.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrIncorrectParameterSize.WithDetails("at least one signer key is required")
	}

	signers := make([]*PublicKey, len(keys))
	for i, key := range keys {
		if key == nil {
			return nil, ErrIncorrectKeySize.WithDetails("signer key %d is nil", i)
		}
		pub, err := key.WithFormat(cfg.Format)
		if err != nil {
			return nil, err
		}
		signers[i] = pub
	}
	if !cfg.KeepKeyOrder {
		sort.SliceStable(signers, func(i, j int) bool {
			return bytes.Compare(signers[i].key.SerializeCompressed(), signers[j].key.SerializeCompressed()) < 0
		})
	}
	return newMuSigAggregateKey(signers, nil, cfg.Format)
}

func newMuSigAggregateKey(signers []*PublicKey, tweaks []musig2.KeyTweakDesc, format Format) (*MuSigAggregateKey, error) {
	keys := make([]*btcec.PublicKey, len(signers))
	for i, signer := range signers {
		keys[i] = signer.key
	}

	agg, _, _, err := musig2.AggregateKeys(keys, false, musig2.WithKeyTweaks(tweaks...))
	if err != nil {
		return nil, ErrUnderlyingCrypto.WithDetails("aggregating signer keys").WithCause(err)
	}
	final, err := newPublicKey(agg.FinalKey, format)
	if err != nil {
		return nil, err
	}
	internal, err := newPublicKey(agg.PreTweakedKey, format)
	if err != nil {
		return nil, err
	}
	return &MuSigAggregateKey{
		signers:  signers,
		keys:     keys,
		tweaks:   tweaks,
		final:    final,
		internal: internal,
	}, nil
}

// PublicKey returns the aggregate key with all tweaks applied.
func (k *MuSigAggregateKey) PublicKey() *PublicKey {
	return k.final
}

// XonlyKey returns the x-only form of PublicKey, the key that verifies the
// final Schnorr signature.
func (k *MuSigAggregateKey) XonlyKey() *XonlyKey {
	return k.final.xonly
}

// InternalKey returns the aggregate before any tweak, the BIP341 internal
// key when the aggregate is used as a taproot output.
func (k *MuSigAggregateKey) InternalKey() *PublicKey {
	return k.internal
}

// Signers returns the signer keys in aggregation order.
func (k *MuSigAggregateKey) Signers() []*PublicKey {
	return append([]*PublicKey(nil), k.signers...)
}

// Tweaked reports whether any tweak has been applied.
func (k *MuSigAggregateKey) Tweaked() bool {
	return len(k.tweaks) > 0
}

// Add applies a plain tweak: Q' = Q + tweak*G.
func (k *MuSigAggregateKey) Add(tweak []byte) (*MuSigAggregateKey, error) {
	return k.tweak(tweak, false)
}

// AddXonly applies an x-only tweak: Q is replaced by the point with the
// same x and even y before tweak*G is added, as BIP341 does.
func (k *MuSigAggregateKey) AddXonly(tweak []byte) (*MuSigAggregateKey, error) {
	return k.tweak(tweak, true)
}

// TapTweak applies the BIP341 taproot tweak for merkleRoot to the current
// key. merkleRoot is empty for a key-path-only output.
func (k *MuSigAggregateKey) TapTweak(merkleRoot []byte) (*MuSigAggregateKey, error) {
	t := taggedHash(tagTapTweak, k.final.xonly.x[:], merkleRoot)
	return k.AddXonly(t[:])
}

func (k *MuSigAggregateKey) tweak(tweak []byte, xonly bool) (*MuSigAggregateKey, error) {
	var t btcec.ModNScalar
	if err := parseTweak(tweak, &t); err != nil {
		return nil, err
	}
	desc := musig2.KeyTweakDesc{IsXOnly: xonly}
	copy(desc.Tweak[:], tweak)

	tweaks := make([]musig2.KeyTweakDesc, len(k.tweaks), len(k.tweaks)+1)
	copy(tweaks, k.tweaks)
	return newMuSigAggregateKey(k.signers, append(tweaks, desc), k.final.format)
}

// contains reports whether pub is one of the signer keys.
func (k *MuSigAggregateKey) contains(pub *PublicKey) bool {
	for _, signer := range k.signers {
		if signer.Equal(pub) {
			return true
		}
	}
	return false
}

func (k *MuSigAggregateKey) signOptions() []musig2.SignOption {
	if len(k.tweaks) == 0 {
		return nil
	}
	return []musig2.SignOption{musig2.WithTweaks(k.tweaks...)}
}
