package asn1

import (
	encasn1 "encoding/asn1"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
)

// NewSequence returns a SEQUENCE node holding children in order.
func NewSequence(children ...*Node) *Node {
	return &Node{Tag: TagSequence, Children: children}
}

// NewExplicit returns an EXPLICIT [tagNumber] node wrapping child.
func NewExplicit(tagNumber uint8, child *Node) *Node {
	return &Node{Tag: ContextSpecific(tagNumber), Children: []*Node{child}}
}

// NewOctetString returns an OCTET STRING node. The content is copied.
func NewOctetString(content []byte) *Node {
	return &Node{Tag: TagOctetString, Content: append([]byte{}, content...)}
}

// NewInteger returns an INTEGER node for a non-negative value.
func NewInteger(value *big.Int) (*Node, error) {
	if value.Sign() < 0 {
		return nil, syntaxError("negative INTEGER values are not supported")
	}
	content := value.Bytes()
	if len(content) == 0 || content[0]&0x80 != 0 {
		content = append([]byte{0x00}, content...)
	}
	return &Node{Tag: TagInteger, Content: content}, nil
}

// NewIntegerFromBytes returns an INTEGER node for the unsigned big-endian
// value in b.
func NewIntegerFromBytes(b []byte) *Node {
	node, _ := NewInteger(new(big.Int).SetBytes(b))
	return node
}

// NewObjectIdentifier returns an OBJECT IDENTIFIER node.
func NewObjectIdentifier(oid encasn1.ObjectIdentifier) (*Node, error) {
	var b cryptobyte.Builder
	b.AddASN1ObjectIdentifier(oid)
	encoded, err := b.Bytes()
	if err != nil {
		return nil, syntaxErrorf("invalid OBJECT IDENTIFIER %v: %v", oid, err)
	}
	return Parse(encoded)
}

// NewBitString returns a BIT STRING node with no unused bits.
func NewBitString(content []byte) *Node {
	return &Node{Tag: TagBitString, Content: append([]byte{0x00}, content...)}
}

// Marshal serializes the node tree in DER.
func Marshal(n *Node) ([]byte, error) {
	var b cryptobyte.Builder
	if err := addNode(&b, n, 0); err != nil {
		return nil, err
	}
	out, err := b.Bytes()
	if err != nil {
		return nil, syntaxErrorf("serialization failed: %v", err)
	}
	return out, nil
}

func addNode(b *cryptobyte.Builder, n *Node, depth int) error {
	if n == nil {
		return syntaxError("nil node")
	}
	if depth > maxDepth {
		return syntaxError("maximum nesting depth exceeded")
	}

	if n.IsConstructed() {
		if n.IsContextSpecific() && len(n.Children) != 1 {
			return syntaxErrorf("explicit tag [%d] must wrap exactly one element", n.TagNumber())
		}
		var childErr error
		b.AddASN1(n.Tag, func(child *cryptobyte.Builder) {
			for _, c := range n.Children {
				if childErr = addNode(child, c, depth+1); childErr != nil {
					return
				}
			}
		})
		return childErr
	}

	switch n.Tag {
	case TagInteger:
		if err := checkInteger(n.Content); err != nil {
			return err
		}
	case TagOctetString, TagObjectIdentifier, TagBitString:
	default:
		return syntaxErrorf("unsupported tag 0x%02x", uint8(n.Tag))
	}
	b.AddASN1(n.Tag, func(child *cryptobyte.Builder) {
		child.AddBytes(n.Content)
	})
	return nil
}
