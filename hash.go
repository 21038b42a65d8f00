package p256k

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2/schnorr/musig2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// BIP340, BIP341 and BIP327 hash tags.
var (
	tagBIP340Aux       = chainhash.TagBIP0340Aux
	tagBIP340Nonce     = chainhash.TagBIP0340Nonce
	tagBIP340Challenge = chainhash.TagBIP0340Challenge
	tagTapTweak        = chainhash.TagTapTweak
	tagMuSigNonceCoef  = musig2.NonceBlindTag
)

// HashData returns SHA-256(data). It is the pre-hash used by the *Data
// signing entry points.
func HashData(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// TaggedHash returns the BIP340 tagged hash
// SHA-256(SHA-256(tag) || SHA-256(tag) || msgs...).
func TaggedHash(tag string, msgs ...[]byte) [32]byte {
	return [32]byte(*chainhash.TaggedHash([]byte(tag), msgs...))
}

func taggedHash(tag []byte, msgs ...[]byte) [32]byte {
	return [32]byte(*chainhash.TaggedHash(tag, msgs...))
}
