package p256k

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// AddressSize is the length of an account address derived from a key.
const AddressSize = 20

// Address is the last 20 bytes of Keccak-256(x || y), the account address
// Ethereum derives from a secp256k1 public key.
type Address [AddressSize]byte

// Address derives the account address of the key. The serialization
// format of p does not matter.
func (p *PublicKey) Address() Address {
	uncompressed := p.key.SerializeUncompressed()

	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(uncompressed[1:])
	hash := hasher.Sum(nil)

	var addr Address
	copy(addr[:], hash[32-AddressSize:])
	return addr
}

// RecoverAddress recovers the signer's address from a 32-byte digest and a
// recoverable signature.
func RecoverAddress(digest []byte, sig *RecoverableSignature) (Address, error) {
	pub, err := RecoverPublicKey(digest, sig, Uncompressed)
	if err != nil {
		return Address{}, err
	}
	return pub.Address(), nil
}

// Keccak256 returns the legacy Keccak-256 digest of data, the pre-hash
// Ethereum signs.
func Keccak256(data ...[]byte) [32]byte {
	hasher := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hasher.Write(d)
	}
	var out [32]byte
	hasher.Sum(out[:0])
	return out
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}
