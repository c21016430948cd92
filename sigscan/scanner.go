// Package sigscan finds byte signatures with wildcards in a buffer.
//
// Each signature is reduced once to its longest run of literal bytes, the
// needle. The scanner searches the buffer for every needle occurrence and
// verifies the full signature around it, so the cost is one exact substring
// search per signature plus a short comparison per candidate.
package sigscan

import (
	"bytes"
	"errors"
)

// DefaultWildcard is used when a scanner is created with an empty wildcard.
const DefaultWildcard = "?"

// Scanner matches a set of signatures against one buffer. It is consumed by
// Scan: the buffer and signatures are dropped afterwards.
type Scanner struct {
	buf        []byte
	signatures []*Signature
	wildcard   string
	consumed   bool
}

// New copies buf and prepares a scanner whose signatures use wildcard for
// any-byte tokens.
func New(buf []byte, wildcard string) *Scanner {
	if wildcard == "" {
		wildcard = DefaultWildcard
	}
	return &Scanner{
		buf:      bytes.Clone(buf),
		wildcard: wildcard,
	}
}

// AddSignature parses and registers a signature. Blank text is ignored.
func (s *Scanner) AddSignature(text string) error {
	sig, err := Parse(text, s.wildcard)
	if errors.Is(err, ErrEmpty) {
		return nil
	}
	if err != nil {
		return err
	}
	s.signatures = append(s.signatures, sig)
	return nil
}

// Add registers an already parsed signature.
func (s *Scanner) Add(sig *Signature) {
	if sig != nil {
		s.signatures = append(s.signatures, sig)
	}
}

// Len returns the number of registered signatures.
func (s *Scanner) Len() int {
	return len(s.signatures)
}

// Scan returns the start offset of every match of every signature. The
// order of offsets is not meaningful. A consumed scanner returns nil.
func (s *Scanner) Scan() []int {
	if s.consumed {
		return nil
	}
	var offsets []int
	for _, sig := range s.signatures {
		offsets = scanOne(s.buf, sig, offsets)
	}
	s.buf = nil
	s.signatures = nil
	s.consumed = true
	return offsets
}

func scanOne(buf []byte, sig *Signature, out []int) []int {
	needle, offset := sig.Needle()
	size := sig.Len()
	for from := 0; from+len(needle) <= len(buf); {
		i := bytes.Index(buf[from:], needle)
		if i < 0 {
			break
		}
		i += from
		from = i + 1

		start := i - offset
		if start < 0 || start+size > len(buf) {
			continue
		}
		if sig.Match(buf[start : start+size]) {
			out = append(out, start)
		}
	}
	return out
}

// Scan is a one-shot helper over New, AddSignature and Scan.
func Scan(buf []byte, wildcard string, signatures ...string) ([]int, error) {
	s := New(buf, wildcard)
	for _, text := range signatures {
		if err := s.AddSignature(text); err != nil {
			return nil, err
		}
	}
	return s.Scan(), nil
}

// Find returns the start offsets of sig in buf without copying buf.
func Find(buf []byte, sig *Signature) []int {
	return scanOne(buf, sig, nil)
}
