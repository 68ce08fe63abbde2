package registration

import (
	"crypto/rand"
	"math/big"
)

// CodeLength is the number of characters in a generated check-in code.
const CodeLength = 8

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CodeGenerator produces check-in codes.  Codes only need to be unique
// within an event; stores report collisions so the caller can draw again.
type CodeGenerator interface {
	NewCode() (string, error)
}

// RandomCodes draws CodeLength characters from 0-9A-Z using crypto/rand.
type RandomCodes struct{}

// NewCode implements CodeGenerator.
func (RandomCodes) NewCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, CodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// CodeFunc adapts a plain function to CodeGenerator.
type CodeFunc func() (string, error)

// NewCode implements CodeGenerator.
func (f CodeFunc) NewCode() (string, error) { return f() }
