package p256k

import (
	encasn1 "encoding/asn1"
	"math/big"

	"github.com/canopy-network/canopy/lib/p256k/asn1"
)

const sec1Version = 1

// OIDSecp256k1 is the named-curve identifier 1.3.132.0.10.
var OIDSecp256k1 = encasn1.ObjectIdentifier{1, 3, 132, 0, 10}

// SEC1PrivateKey is the ECPrivateKey structure of SEC 1 section C.4:
//
//	ECPrivateKey ::= SEQUENCE {
//	  version        INTEGER { ecPrivkeyVer1(1) },
//	  privateKey     OCTET STRING,
//	  parameters [0] EXPLICIT OBJECT IDENTIFIER OPTIONAL,
//	  publicKey  [1] EXPLICIT BIT STRING OPTIONAL
//	}
//
// Only secp256k1 keys are accepted: privateKey is 32 bytes and the curve,
// when present, must be OIDSecp256k1.
type SEC1PrivateKey struct {
	PrivateKey []byte
	CurveOID   encasn1.ObjectIdentifier
	PublicKey  []byte
}

// ParseSEC1PrivateKey decodes a DER ECPrivateKey. Any deviation from the
// structure fails with ErrParse; nothing is returned partially.
func ParseSEC1PrivateKey(der []byte) (*SEC1PrivateKey, error) {
	root, err := asn1.Parse(der)
	if err != nil {
		return nil, ErrParse.WithDetails("SEC1 private key").WithCause(err)
	}
	fields, err := root.Sequence()
	if err != nil {
		return nil, ErrParse.WithDetails("SEC1 private key").WithCause(err)
	}
	if len(fields) < 2 || len(fields) > 4 {
		return nil, ErrParse.WithDetails("SEC1 private key has %d fields, expected 2 to 4", len(fields))
	}

	version, err := fields[0].Int64()
	if err != nil {
		return nil, ErrParse.WithDetails("SEC1 version").WithCause(err)
	}
	if version != sec1Version {
		return nil, ErrParse.WithDetails("unsupported SEC1 version %d", version)
	}

	privateKey, err := fields[1].OctetString()
	if err != nil {
		return nil, ErrParse.WithDetails("SEC1 private key octets").WithCause(err)
	}
	if len(privateKey) != PrivateKeySize {
		return nil, ErrParse.WithDetails("SEC1 private key is %d bytes, expected %d", len(privateKey), PrivateKeySize)
	}

	key := &SEC1PrivateKey{PrivateKey: privateKey}
	next := 2

	if next < len(fields) && fields[next].Tag == asn1.ContextSpecific(0) {
		inner, err := fields[next].Explicit(0)
		if err != nil {
			return nil, ErrParse.WithDetails("SEC1 parameters").WithCause(err)
		}
		oid, err := inner.ObjectIdentifier()
		if err != nil {
			return nil, ErrParse.WithDetails("SEC1 parameters").WithCause(err)
		}
		if !oid.Equal(OIDSecp256k1) {
			return nil, ErrParse.WithDetails("unsupported curve %s", oid)
		}
		key.CurveOID = oid
		next++
	}

	if next < len(fields) && fields[next].Tag == asn1.ContextSpecific(1) {
		inner, err := fields[next].Explicit(1)
		if err != nil {
			return nil, ErrParse.WithDetails("SEC1 public key").WithCause(err)
		}
		bits, err := inner.BitString()
		if err != nil {
			return nil, ErrParse.WithDetails("SEC1 public key").WithCause(err)
		}
		if bits.BitLength%8 != 0 {
			return nil, ErrParse.WithDetails("SEC1 public key is not a whole number of bytes")
		}
		key.PublicKey = bits.Bytes
		next++
	}

	if next != len(fields) {
		return nil, ErrParse.WithDetails("unexpected SEC1 field with tag 0x%02x", uint8(fields[next].Tag))
	}
	return key, nil
}

// Marshal encodes the key as DER, always with version 1.
func (k *SEC1PrivateKey) Marshal() ([]byte, error) {
	if len(k.PrivateKey) != PrivateKeySize {
		return nil, ErrParse.WithDetails("SEC1 private key is %d bytes, expected %d", len(k.PrivateKey), PrivateKeySize)
	}
	version, err := asn1.NewInteger(big.NewInt(sec1Version))
	if err != nil {
		return nil, ErrParse.WithCause(err)
	}
	fields := []*asn1.Node{version, asn1.NewOctetString(k.PrivateKey)}

	if k.CurveOID != nil {
		if !k.CurveOID.Equal(OIDSecp256k1) {
			return nil, ErrParse.WithDetails("unsupported curve %s", k.CurveOID)
		}
		oid, err := asn1.NewObjectIdentifier(k.CurveOID)
		if err != nil {
			return nil, ErrParse.WithDetails("SEC1 parameters").WithCause(err)
		}
		fields = append(fields, asn1.NewExplicit(0, oid))
	}
	if k.PublicKey != nil {
		fields = append(fields, asn1.NewExplicit(1, asn1.NewBitString(k.PublicKey)))
	}

	der, err := asn1.Marshal(asn1.NewSequence(fields...))
	if err != nil {
		return nil, ErrParse.WithCause(err)
	}
	return der, nil
}

// Zeroize clears the private key bytes.
func (k *SEC1PrivateKey) Zeroize() {
	clear(k.PrivateKey)
}

// PrivateKeyFromSEC1 decodes a DER ECPrivateKey into a PrivateKey. When the
// structure carries a public key it must match the private key.
func PrivateKeyFromSEC1(der []byte, format Format) (*PrivateKey, error) {
	sec1, err := ParseSEC1PrivateKey(der)
	if err != nil {
		return nil, err
	}
	defer sec1.Zeroize()

	key, err := PrivateKeyFromBytes(sec1.PrivateKey, format)
	if err != nil {
		return nil, err
	}
	if sec1.PublicKey != nil {
		pub, err := parseSEC1PublicKey(sec1.PublicKey)
		if err != nil {
			key.Zeroize()
			return nil, ErrParse.WithDetails("SEC1 public key").WithCause(err)
		}
		if !pub.Equal(key.PublicKey()) {
			key.Zeroize()
			return nil, ErrParse.WithDetails("SEC1 public key does not match the private key")
		}
	}
	return key, nil
}

func parseSEC1PublicKey(b []byte) (*PublicKey, error) {
	switch len(b) {
	case CompressedPublicKeySize:
		return ParsePublicKey(b, Compressed)
	case UncompressedPublicKeySize:
		return ParsePublicKey(b, Uncompressed)
	default:
		return nil, ErrIncorrectKeySize.WithDetails("public key of %d bytes", len(b))
	}
}

// MarshalSEC1 encodes the key as a DER ECPrivateKey with the secp256k1 OID
// and the uncompressed public key.
func (k *PrivateKey) MarshalSEC1() ([]byte, error) {
	sec1 := &SEC1PrivateKey{
		PrivateKey: k.Bytes(),
		CurveOID:   OIDSecp256k1,
		PublicKey:  k.publicKey.key.SerializeUncompressed(),
	}
	defer sec1.Zeroize()
	return sec1.Marshal()
}
