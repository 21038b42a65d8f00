package asn1

import "fmt"

// SyntaxError describes DER input that is not a valid, canonical encoding of
// a supported structure.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return "asn1: syntax error: " + e.Msg
}

func syntaxError(msg string) error {
	return &SyntaxError{Msg: msg}
}

func syntaxErrorf(format string, args ...interface{}) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...)}
}
