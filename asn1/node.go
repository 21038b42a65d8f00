// Package asn1 implements a small, strict DER parser and serializer.
//
// The parser turns a DER stream into a tree of Nodes. Only the universal
// types needed by secp256k1 key and signature encodings are accepted
// (SEQUENCE, INTEGER, OCTET STRING, OBJECT IDENTIFIER and BIT STRING) plus
// constructed context-specific tags used for EXPLICIT tagging. Any encoding
// that is not the unique DER form, such as a long-form length that fits in
// short form, an indefinite length or a padded INTEGER, is rejected.
package asn1

import (
	encasn1 "encoding/asn1"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Tag is the identifier octet of a DER element.
type Tag = cbasn1.Tag

// Universal tags accepted by the parser.
const (
	TagInteger          = cbasn1.INTEGER
	TagBitString        = cbasn1.BIT_STRING
	TagOctetString      = cbasn1.OCTET_STRING
	TagObjectIdentifier = cbasn1.OBJECT_IDENTIFIER
	TagSequence         = cbasn1.SEQUENCE
)

const (
	classContextSpecific = 0x80
	classMask            = 0xc0
	constructedBit       = 0x20
	tagNumberMask        = 0x1f
)

// ContextSpecific returns the constructed context-specific tag [n].
func ContextSpecific(n uint8) Tag {
	return Tag(n).ContextSpecific().Constructed()
}

// Node is a parsed DER element. Primitive elements carry their content
// octets; constructed elements carry their children.
type Node struct {
	Tag      Tag
	Content  []byte
	Children []*Node

	// encoded holds the complete element (identifier, length and content)
	// as it appeared in the input. Typed accessors re-read it.
	encoded []byte
}

// IsConstructed reports whether the element is constructed.
func (n *Node) IsConstructed() bool {
	return uint8(n.Tag)&constructedBit != 0
}

// IsContextSpecific reports whether the element carries a context-specific tag.
func (n *Node) IsContextSpecific() bool {
	return uint8(n.Tag)&classMask == classContextSpecific
}

// TagNumber returns the tag number without class and constructed bits.
func (n *Node) TagNumber() uint8 {
	return uint8(n.Tag) & tagNumberMask
}

// Parse decodes exactly one DER element from der. Trailing bytes are an error.
func Parse(der []byte) (*Node, error) {
	input := cryptobyte.String(der)
	node, err := parseElement(&input, 0)
	if err != nil {
		return nil, err
	}
	if !input.Empty() {
		return nil, syntaxError("trailing data after top-level element")
	}
	return node, nil
}

// maxDepth bounds recursion on adversarial nesting.
const maxDepth = 16

func parseElement(input *cryptobyte.String, depth int) (*Node, error) {
	if depth > maxDepth {
		return nil, syntaxError("maximum nesting depth exceeded")
	}

	var element cryptobyte.String
	var tag cbasn1.Tag
	// ReadAnyASN1Element rejects indefinite lengths, non-minimal lengths
	// and high tag numbers.
	if !input.ReadAnyASN1Element(&element, &tag) {
		return nil, syntaxError("invalid element encoding")
	}

	encoded := []byte(element)
	var content cryptobyte.String
	if !element.ReadASN1(&content, tag) {
		return nil, syntaxError("invalid element encoding")
	}

	node := &Node{Tag: tag, encoded: encoded}

	if node.IsContextSpecific() {
		if !node.IsConstructed() {
			return nil, syntaxErrorf("primitive context-specific tag [%d] is not supported", node.TagNumber())
		}
		child, err := parseElement(&content, depth+1)
		if err != nil {
			return nil, err
		}
		if !content.Empty() {
			return nil, syntaxErrorf("explicit tag [%d] must wrap exactly one element", node.TagNumber())
		}
		node.Children = []*Node{child}
		return node, nil
	}

	switch tag {
	case TagSequence:
		for !content.Empty() {
			child, err := parseElement(&content, depth+1)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		}
		return node, nil

	case TagInteger:
		if err := checkInteger(content); err != nil {
			return nil, err
		}
	case TagOctetString:
	case TagObjectIdentifier:
		var oid encasn1.ObjectIdentifier
		check := cryptobyte.String(encoded)
		if !check.ReadASN1ObjectIdentifier(&oid) {
			return nil, syntaxError("invalid OBJECT IDENTIFIER")
		}
	case TagBitString:
		var bits encasn1.BitString
		check := cryptobyte.String(encoded)
		if !check.ReadASN1BitString(&bits) {
			return nil, syntaxError("invalid BIT STRING")
		}
	default:
		return nil, syntaxErrorf("unsupported tag 0x%02x", uint8(tag))
	}

	node.Content = []byte(content)
	return node, nil
}

// checkInteger enforces the minimal two's complement encoding DER requires.
func checkInteger(content []byte) error {
	if len(content) == 0 {
		return syntaxError("empty INTEGER")
	}
	if len(content) > 1 {
		if content[0] == 0x00 && content[1]&0x80 == 0 {
			return syntaxError("INTEGER has redundant leading zero")
		}
		if content[0] == 0xff && content[1]&0x80 != 0 {
			return syntaxError("INTEGER has redundant leading 0xff")
		}
	}
	return nil
}

// element returns the DER encoding of n, serializing nodes that were built
// rather than parsed.
func (n *Node) element() []byte {
	if n.encoded == nil {
		n.encoded, _ = Marshal(n)
	}
	return n.encoded
}

func (n *Node) expect(tag Tag, name string) error {
	if n.Tag != tag {
		return syntaxErrorf("expected %s, found tag 0x%02x", name, uint8(n.Tag))
	}
	return nil
}

// Integer returns the value of an INTEGER node.
func (n *Node) Integer() (*big.Int, error) {
	if err := n.expect(TagInteger, "INTEGER"); err != nil {
		return nil, err
	}
	value := new(big.Int)
	input := cryptobyte.String(n.element())
	if !input.ReadASN1Integer(value) {
		return nil, syntaxError("invalid INTEGER")
	}
	return value, nil
}

// Int64 returns the value of an INTEGER node that fits in an int64.
func (n *Node) Int64() (int64, error) {
	if err := n.expect(TagInteger, "INTEGER"); err != nil {
		return 0, err
	}
	var value int64
	input := cryptobyte.String(n.element())
	if !input.ReadASN1Integer(&value) {
		return 0, syntaxError("INTEGER does not fit in 64 bits")
	}
	return value, nil
}

// OctetString returns the content of an OCTET STRING node.
func (n *Node) OctetString() ([]byte, error) {
	if err := n.expect(TagOctetString, "OCTET STRING"); err != nil {
		return nil, err
	}
	return append([]byte(nil), n.Content...), nil
}

// ObjectIdentifier returns the value of an OBJECT IDENTIFIER node.
func (n *Node) ObjectIdentifier() (encasn1.ObjectIdentifier, error) {
	if err := n.expect(TagObjectIdentifier, "OBJECT IDENTIFIER"); err != nil {
		return nil, err
	}
	var oid encasn1.ObjectIdentifier
	input := cryptobyte.String(n.element())
	if !input.ReadASN1ObjectIdentifier(&oid) {
		return nil, syntaxError("invalid OBJECT IDENTIFIER")
	}
	return oid, nil
}

// BitString returns the value of a BIT STRING node.
func (n *Node) BitString() (encasn1.BitString, error) {
	if err := n.expect(TagBitString, "BIT STRING"); err != nil {
		return encasn1.BitString{}, err
	}
	var bits encasn1.BitString
	input := cryptobyte.String(n.element())
	if !input.ReadASN1BitString(&bits) {
		return encasn1.BitString{}, syntaxError("invalid BIT STRING")
	}
	return bits, nil
}

// Explicit unwraps an EXPLICIT [tagNumber] node and returns the wrapped element.
func (n *Node) Explicit(tagNumber uint8) (*Node, error) {
	if n.Tag != ContextSpecific(tagNumber) {
		return nil, syntaxErrorf("expected explicit tag [%d], found tag 0x%02x", tagNumber, uint8(n.Tag))
	}
	if len(n.Children) != 1 {
		return nil, syntaxErrorf("explicit tag [%d] must wrap exactly one element", tagNumber)
	}
	return n.Children[0], nil
}

// Sequence returns the children of a SEQUENCE node.
func (n *Node) Sequence() ([]*Node, error) {
	if err := n.expect(TagSequence, "SEQUENCE"); err != nil {
		return nil, err
	}
	return n.Children, nil
}
