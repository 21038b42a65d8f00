package p256k

import (
	"bytes"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bip340Vector struct {
	secretKey string
	publicKey string
	auxRand   string
	message   string
	signature string
	valid     bool
}

var bip340Vectors = []bip340Vector{
	{
		secretKey: "0000000000000000000000000000000000000000000000000000000000000003",
		publicKey: "f9308a019258c31049344f85f89d5229b531c845836f99b08601f113bce036f9",
		auxRand:   "0000000000000000000000000000000000000000000000000000000000000000",
		message:   "0000000000000000000000000000000000000000000000000000000000000000",
		signature: "e907831f80848d1069a5371b402410364bdf1c5f8307b0084c55f1ce2dca8215" +
			"25f66a4a85ea8b71e482a74f382d2ce5ebeee8fdb2172f477df4900d310536c0",
		valid: true,
	},
	{
		secretKey: "b7e151628aed2a6abf7158809cf4f3c762e7160f38b4da56a784d9045190cfef",
		publicKey: "dff1d77f2a671c5f36183726db2341be58feae1da2deced843240f7b502ba659",
		auxRand:   "0000000000000000000000000000000000000000000000000000000000000001",
		message:   "243f6a8885a308d313198a2e03707344a4093822299f31d0082efa98ec4e6c89",
		signature: "6896bd60eeae296db48a229ff71dfe071bde413e6d43f917dc8dcf8c78de3341" +
			"8906d11ac976abccb20b091292bff4ea897efcb639ea871cfa95f6de339e4b0a",
		valid: true,
	},
	{
		secretKey: "c90fdaa22168c234c4c6628b80dc1cd129024e088a67cc74020bbea63b14e5c9",
		publicKey: "dd308afec5777e13121fa72b9cc1b7cc0139715309b086c960e18fd969774eb8",
		auxRand:   "c87aa53824b4d7ae2eb035a2b5bbbccc080e76cdc6d1692c4b0b62d798e6d906",
		message:   "7e2d58d8b3bcdf1abadec7829054f90dda9805aab56c77333024b9d0a508b75c",
		signature: "5831aaeed7b44bb74e5eab94ba9d4294c49bcf2a60728d8b4c200f50dd313c1b" +
			"ab745879a5ad954a72c45a91c3a51d3c7adea98d82f8481e0e1e03674a6f3fb7",
		valid: true,
	},
	{
		// test fails if msg is reduced modulo p or n
		secretKey: "0b432b2677937381aef05bb02a66ecd012773062cf3fa2549e44f58ed2401710",
		publicKey: "25d1dff95105f5253c4022f628a996ad3a0d95fbf21d468a1b33f8c160d8f517",
		auxRand:   "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		message:   "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff",
		signature: "7eb0509757e246f19449885651611cb965ecc1a187dd51b64fda1edc9637d5ec" +
			"97582b9cb13db3933705b32ba982af5af25fd78881ebb32771fc5922efc66ea3",
		valid: true,
	},
	{
		// needs the low bits of r to be zero
		publicKey: "d69c3509bb99e412e68b0fe8544e72837dfa30746d8be2aa65975f29d22dc7b9",
		message:   "4df3c3f68fcc83b27e9d42c90431a72499f17875c81a599b566c9889b9696703",
		signature: "00000000000000000000003b78ce563f89a0ed9414f5aa28ad0d96d6795f9c63" +
			"76afb1548af603b3eb45c9f8207dee1060cb71c04e80f593060b07d28308d7f4",
		valid: true,
	},
	{
		// public key not on the curve
		publicKey: "eefdea4cdb677750a420fee807eacf21eb9898ae79b9768766e4faa04a2d4a34",
		message:   "243f6a8885a308d313198a2e03707344a4093822299f31d0082efa98ec4e6c89",
		signature: "6cff5c3ba86c69ea4b7376f31a9bcb4f74c1976089b2d9963da2e5543e177769" +
			"69e89b4c5564d00349106b8497785dd7d1d713a8ae82b32fa79d5f7fc407d39b",
	},
	{
		// has_even_y(R) is false
		publicKey: "dff1d77f2a671c5f36183726db2341be58feae1da2deced843240f7b502ba659",
		message:   "243f6a8885a308d313198a2e03707344a4093822299f31d0082efa98ec4e6c89",
		signature: "fff97bd5755eeea420453a14355235d382f6472f8568a18b2f057a1460297556" +
			"3cc27944640ac607cd107ae10923d9ef7a73c643e166be5ebeafa34b1ac553e2",
	},
	{
		// negated message
		publicKey: "dff1d77f2a671c5f36183726db2341be58feae1da2deced843240f7b502ba659",
		message:   "243f6a8885a308d313198a2e03707344a4093822299f31d0082efa98ec4e6c89",
		signature: "1fa62e331edbc21c394792d2ab1100a7b432b013df3f6ff4f99fcb33e0e1515f" +
			"28890b3edb6e7189b630448b515ce4f8622a954cfe545735aaea5134fccdb2bd",
	},
	{
		// negated s
		publicKey: "dff1d77f2a671c5f36183726db2341be58feae1da2deced843240f7b502ba659",
		message:   "243f6a8885a308d313198a2e03707344a4093822299f31d0082efa98ec4e6c89",
		signature: "6cff5c3ba86c69ea4b7376f31a9bcb4f74c1976089b2d9963da2e5543e177769" +
			"961764b3aa9b2ffcb6ef947b6887a226e8d7c93e00c5ed0c1834ff0d0c2e6da6",
	},
	{
		// sG - eP is infinite, x(inf) taken as 0
		publicKey: "dff1d77f2a671c5f36183726db2341be58feae1da2deced843240f7b502ba659",
		message:   "243f6a8885a308d313198a2e03707344a4093822299f31d0082efa98ec4e6c89",
		signature: "0000000000000000000000000000000000000000000000000000000000000000" +
			"123dda8328af9c23a94c1feecfd123ba4fb73476f0d594dcb65c6425bd186051",
	},
	{
		// sG - eP is infinite, x(inf) taken as 1
		publicKey: "dff1d77f2a671c5f36183726db2341be58feae1da2deced843240f7b502ba659",
		message:   "243f6a8885a308d313198a2e03707344a4093822299f31d0082efa98ec4e6c89",
		signature: "0000000000000000000000000000000000000000000000000000000000000001" +
			"7615fbaf5ae28864013c099742deadb4dba87f11ac6754f93780d5a1837cf197",
	},
	{
		// r is not an x coordinate on the curve
		publicKey: "dff1d77f2a671c5f36183726db2341be58feae1da2deced843240f7b502ba659",
		message:   "243f6a8885a308d313198a2e03707344a4093822299f31d0082efa98ec4e6c89",
		signature: "4a298dacae57395a15d0795ddbfd1dcb564da82b0f269bc70a74f8220429ba1d" +
			"69e89b4c5564d00349106b8497785dd7d1d713a8ae82b32fa79d5f7fc407d39b",
	},
	{
		// r equals the field size
		publicKey: "dff1d77f2a671c5f36183726db2341be58feae1da2deced843240f7b502ba659",
		message:   "243f6a8885a308d313198a2e03707344a4093822299f31d0082efa98ec4e6c89",
		signature: "fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f" +
			"69e89b4c5564d00349106b8497785dd7d1d713a8ae82b32fa79d5f7fc407d39b",
	},
	{
		// s equals the group order
		publicKey: "dff1d77f2a671c5f36183726db2341be58feae1da2deced843240f7b502ba659",
		message:   "243f6a8885a308d313198a2e03707344a4093822299f31d0082efa98ec4e6c89",
		signature: "6cff5c3ba86c69ea4b7376f31a9bcb4f74c1976089b2d9963da2e5543e177769" +
			"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141",
	},
	{
		// public key exceeds the field size
		publicKey: "fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc30",
		message:   "243f6a8885a308d313198a2e03707344a4093822299f31d0082efa98ec4e6c89",
		signature: "6cff5c3ba86c69ea4b7376f31a9bcb4f74c1976089b2d9963da2e5543e177769" +
			"69e89b4c5564d00349106b8497785dd7d1d713a8ae82b32fa79d5f7fc407d39b",
	},
	{
		// empty message
		secretKey: "0340034003400340034003400340034003400340034003400340034003400340",
		publicKey: "778caa53b4393ac467774d09497a87224bf9fab6f6e68b23086497324d6fd117",
		auxRand:   "0000000000000000000000000000000000000000000000000000000000000000",
		message:   "",
		signature: "71535db165ecd9fbbc046e5ffaea61186bb6ad436732fccc25291a55895464cf" +
			"6069ce26bf03466228f19a3a62db8a649f2d560fac652827d1af0574e427ab63",
		valid: true,
	},
	{
		// 1-byte message
		secretKey: "0340034003400340034003400340034003400340034003400340034003400340",
		publicKey: "778caa53b4393ac467774d09497a87224bf9fab6f6e68b23086497324d6fd117",
		auxRand:   "0000000000000000000000000000000000000000000000000000000000000000",
		message:   "11",
		signature: "08a20a0afef64124649232e0693c583ab1b9934ae63b4c3511f3ae1134c6a303" +
			"ea3173bfea6683bd101fa5aa5dbc1996fe7cacfc5a577d33ec14564cec2bacbf",
		valid: true,
	},
	{
		// 17-byte message
		secretKey: "0340034003400340034003400340034003400340034003400340034003400340",
		publicKey: "778caa53b4393ac467774d09497a87224bf9fab6f6e68b23086497324d6fd117",
		auxRand:   "0000000000000000000000000000000000000000000000000000000000000000",
		message:   "0102030405060708090a0b0c0d0e0f1011",
		signature: "5130f39a4059b43bc7cac09a19ece52b5d8699d1a71e3c52da9afdb6b50ac370" +
			"c4a482b77bf960f8681540e25b6771ece1e5a37fd80e5a51897c5566a97ea5a5",
		valid: true,
	},
	{
		// 100-byte message
		secretKey: "0340034003400340034003400340034003400340034003400340034003400340",
		publicKey: "778caa53b4393ac467774d09497a87224bf9fab6f6e68b23086497324d6fd117",
		auxRand:   "0000000000000000000000000000000000000000000000000000000000000000",
		message:   strings.Repeat("99", 100),
		signature: "403b12b0d8555a344175ea7ec746566303321e5dbfa8be6f091635163eca79a8" +
			"585ed3e3170807e7c03b720fc54c7b23897fcba0e9d0b4a06894cfd249f22367",
		valid: true,
	},
}

func TestBIP340Vectors(t *testing.T) {
	for i, v := range bip340Vectors {
		msg := mustHex(t, v.message)
		sig := mustHex(t, v.signature)

		assert.Equal(t, v.valid, VerifySchnorrBytes(mustHex(t, v.publicKey), sig, msg), "vector %d", i)

		if v.secretKey == "" {
			continue
		}
		key := mustPrivateKey(t, mustHex(t, v.secretKey))
		assert.Equal(t, v.publicKey, key.XonlyKey().String(), "vector %d", i)

		got, err := key.SignSchnorrMessage(msg, WithAuxRand(mustHex(t, v.auxRand)))
		require.NoError(t, err, "vector %d", i)
		assert.Equal(t, v.signature, got.String(), "vector %d", i)
	}
}

func TestVerifySchnorrGeneratorVector(t *testing.T) {
	xonly, err := ParseXonlyKey(mustHex(t, bip340Vectors[0].publicKey))
	require.NoError(t, err)
	sig, err := ParseSchnorrSignature(mustHex(t, bip340Vectors[0].signature))
	require.NoError(t, err)

	assert.True(t, xonly.VerifySchnorrDigest(sig, make([]byte, 32)))
	assert.True(t, xonly.VerifySchnorrMessage(sig, make([]byte, 32)))
	assert.False(t, xonly.VerifySchnorrDigest(sig, make([]byte, 31)))
}

func TestSchnorrMatchesBtcec(t *testing.T) {
	raw := mustHex(t, "c90fdaa22168c234c4c6628b80dc1cd129024e088a67cc74020bbea63b14e5c9")
	key := mustPrivateKey(t, raw)
	priv, pub := btcec.PrivKeyFromBytes(raw)
	digest := TaggedHash("p256k/test", []byte("oracle"))

	var aux [32]byte
	copy(aux[:], bytes.Repeat([]byte{0x5a}, 32))

	ours, err := key.SignSchnorrDigest(digest[:], WithAuxRand(aux[:]))
	require.NoError(t, err)
	theirs, err := schnorr.Sign(priv, digest[:], schnorr.CustomNonce(aux))
	require.NoError(t, err)
	assert.Equal(t, theirs.Serialize(), ours.Bytes())

	parsed, err := schnorr.ParseSignature(ours.Bytes())
	require.NoError(t, err)
	assert.True(t, parsed.Verify(digest[:], pub))

	fresh, err := schnorr.Sign(priv, digest[:])
	require.NoError(t, err)
	assert.True(t, VerifySchnorrBytes(key.XonlyKey().Bytes(), fresh.Serialize(), digest[:]))
}

func TestSchnorrVariableLengthMessages(t *testing.T) {
	key := mustRandomKey(t)
	xonly := key.XonlyKey()

	for _, n := range []int{0, 1, 31, 32, 33, 100, 1024} {
		msg := bytes.Repeat([]byte{byte(n)}, n)
		sig, err := key.SignSchnorrMessage(msg)
		require.NoError(t, err, "length %d", n)
		assert.True(t, xonly.VerifySchnorrMessage(sig, msg), "length %d", n)
		assert.False(t, xonly.VerifySchnorrMessage(sig, append(msg, 0)), "length %d", n)

		_, err = key.SignSchnorrMessage(msg, WithStrictMessage())
		if n == DigestSize {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, ErrIncorrectParameterSize, "length %d", n)
		}
	}
}

func TestSchnorrAuxRand(t *testing.T) {
	key := mustRandomKey(t)
	digest := HashData([]byte("aux"))

	a, err := key.SignSchnorrDigest(digest[:])
	require.NoError(t, err)
	b, err := key.SignSchnorrDigest(digest[:])
	require.NoError(t, err)
	assert.False(t, a.Equal(b), "fresh auxiliary randomness must change the nonce")
	assert.True(t, key.XonlyKey().VerifySchnorrDigest(a, digest[:]))
	assert.True(t, key.XonlyKey().VerifySchnorrDigest(b, digest[:]))

	aux := bytes.Repeat([]byte{0x01}, 32)
	c, err := key.SignSchnorrDigest(digest[:], WithAuxRand(aux))
	require.NoError(t, err)
	d, err := key.SignSchnorrDigest(digest[:], WithAuxRand(aux))
	require.NoError(t, err)
	assert.True(t, c.Equal(d))

	_, err = key.SignSchnorrDigest(digest[:], WithAuxRand(aux[:31]))
	assert.ErrorIs(t, err, ErrIncorrectParameterSize)
	_, err = key.SignSchnorrDigest(digest[:16])
	assert.ErrorIs(t, err, ErrIncorrectParameterSize)
}

func TestSignSchnorrHashesData(t *testing.T) {
	key := mustRandomKey(t)
	data := []byte("not a digest")

	sig, err := key.SignSchnorr(data)
	require.NoError(t, err)
	assert.True(t, key.XonlyKey().VerifySchnorr(sig, data))

	digest := HashData(data)
	assert.True(t, key.XonlyKey().VerifySchnorrDigest(sig, digest[:]))
	assert.False(t, key.XonlyKey().VerifySchnorrMessage(sig, data))
}

func TestSchnorrOddKey(t *testing.T) {
	// Signing must negate the secret when the public key has odd y.
	for {
		key := mustRandomKey(t)
		if key.XonlyKey().Parity() == 0 {
			continue
		}
		digest := HashData([]byte("odd"))
		sig, err := key.SignSchnorrDigest(digest[:])
		require.NoError(t, err)
		assert.True(t, key.XonlyKey().VerifySchnorrDigest(sig, digest[:]))

		parsed, err := ParseXonlyKey(key.XonlyKey().Bytes())
		require.NoError(t, err)
		assert.True(t, parsed.VerifySchnorrDigest(sig, digest[:]))
		return
	}
}

func TestSchnorrVerifyFailsClosed(t *testing.T) {
	v := bip340Vectors[0]
	pub := mustHex(t, v.publicKey)
	sig := mustHex(t, v.signature)
	msg := mustHex(t, v.message)

	flipped := bytes.Clone(sig)
	flipped[63] ^= 0x01

	fieldPrime := mustHex(t, "fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f")
	rOverflow := append(bytes.Clone(fieldPrime), sig[32:]...)
	sOverflow := append(bytes.Clone(sig[:32]), mustHex(t, groupOrder)...)

	cases := map[string]struct{ pub, sig, msg []byte }{
		"flipped s":     {pub, flipped, msg},
		"r = p":         {pub, rOverflow, msg},
		"s = n":         {pub, sOverflow, msg},
		"short sig":     {pub, sig[:63], msg},
		"long sig":      {pub, append(bytes.Clone(sig), 0), msg},
		"short key":     {pub[:31], sig, msg},
		"key x = p":     {fieldPrime, sig, msg},
		"other message": {pub, sig, mustHex(t, strings.Repeat("01", 32))},
		"empty":         {nil, nil, nil},
	}
	for name, c := range cases {
		assert.False(t, VerifySchnorrBytes(c.pub, c.sig, c.msg), name)
	}

	xonly, err := ParseXonlyKey(pub)
	require.NoError(t, err)
	assert.False(t, xonly.VerifySchnorrMessage(nil, msg))

	_, err = ParseSchnorrSignature(sig[:10])
	assert.ErrorIs(t, err, ErrIncorrectParameterSize)
}

func TestSignBIP340RequiresAuxRand(t *testing.T) {
	var d btcec.ModNScalar
	d.SetInt(3)

	_, err := signBIP340(&d, make([]byte, 32), nil)
	assert.ErrorIs(t, err, ErrUnderlyingCrypto)

	_, err = signBIP340(&d, make([]byte, 5), nil)
	assert.ErrorIs(t, err, ErrUnderlyingCrypto)
}
