package sigscan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmpty means the signature text holds no tokens.
	ErrEmpty = errors.New("empty signature")
	// ErrBadToken means a token is neither a hex byte nor the wildcard.
	ErrBadToken = errors.New("bad signature token")
	// ErrNoNeedle means every token is a wildcard, leaving nothing to search for.
	ErrNoNeedle = errors.New("signature has no literal bytes")
)

type token struct {
	value byte
	wild  bool
}

// Signature is a parsed byte pattern. Tokens are literal bytes or
// wildcards that match any byte.
type Signature struct {
	tokens   []token
	wildcard string
	needle   []byte
	offset   int
}

// Parse reads whitespace separated tokens, each a hex byte such as "4B" or
// the wildcard string.
func Parse(text, wildcard string) (*Signature, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, ErrEmpty
	}
	sig := &Signature{
		tokens:   make([]token, len(fields)),
		wildcard: wildcard,
	}
	for i, f := range fields {
		if f == wildcard {
			sig.tokens[i].wild = true
			continue
		}
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %q at position %d", ErrBadToken, f, i)
		}
		sig.tokens[i].value = byte(v)
	}
	if err := sig.pickNeedle(); err != nil {
		return nil, err
	}
	return sig, nil
}

// MustParse is Parse for signatures known at compile time.
func MustParse(text, wildcard string) *Signature {
	sig, err := Parse(text, wildcard)
	if err != nil {
		panic(fmt.Sprintf("sigscan: %q: %v", text, err))
	}
	return sig
}

// pickNeedle selects the run of consecutive literal tokens with the most
// tokens, the earliest one on ties. Its position in the signature is the
// offset: every literal and every wildcard before it counts one.
func (s *Signature) pickNeedle() error {
	bestStart, bestLen := -1, 0
	runStart := -1
	for i := 0; i <= len(s.tokens); i++ {
		if i < len(s.tokens) && !s.tokens[i].wild {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			if n := i - runStart; n > bestLen {
				bestStart, bestLen = runStart, n
			}
			runStart = -1
		}
	}
	if bestLen == 0 {
		return ErrNoNeedle
	}
	s.needle = make([]byte, bestLen)
	for i := range s.needle {
		s.needle[i] = s.tokens[bestStart+i].value
	}
	s.offset = bestStart
	return nil
}

// Len returns the number of tokens.
func (s *Signature) Len() int {
	return len(s.tokens)
}

// Needle returns the literal run driving the search and its offset from the
// start of the signature.
func (s *Signature) Needle() ([]byte, int) {
	return s.needle, s.offset
}

// Match reports whether b, which must be exactly Len bytes, agrees with
// every literal token.
func (s *Signature) Match(b []byte) bool {
	if len(b) != len(s.tokens) {
		return false
	}
	for i, t := range s.tokens {
		if !t.wild && t.value != b[i] {
			return false
		}
	}
	return true
}

// Decimal renders the signature with decimal byte values,
// e.g. "255 227 ? 75".
func (s *Signature) Decimal() string {
	return s.render(func(b byte) string { return strconv.Itoa(int(b)) })
}

// String renders the signature in its canonical hex form.
func (s *Signature) String() string {
	return s.render(func(b byte) string { return fmt.Sprintf("%02X", b) })
}

func (s *Signature) render(lit func(byte) string) string {
	parts := make([]string, len(s.tokens))
	for i, t := range s.tokens {
		if t.wild {
			parts[i] = s.wildcard
		} else {
			parts[i] = lit(t.value)
		}
	}
	return strings.Join(parts, " ")
}
