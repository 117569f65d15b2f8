package macros

import (
	"errors"
	"strings"

	"github.com/nickwells/location.mod/location"
)

const (
	refStart   = '@'
	braceOpen  = '{'
	braceClose = '}'
	escapedAt  = "@@"
)

// Substitute searches the line for macro references and replaces them with
// the corresponding text. It works in three stages, each making a single
// left-to-right scan over the result of the one before:
//
//  1. bare references: an '@' followed by one or more word characters
//     where the '@' is at the start of the line or follows a character
//     which is not '@' and which is not part of an earlier reference. The
//     name is the longest run of word characters after the '@'.
//  2. bracketed references: '@{' followed by one or more characters other
//     than '}' and then '}'. Everything between the braces is used as the
//     name, even if it is not a valid macro name.
//  3. escapes: each pair of '@' characters is replaced by a single '@' so
//     that "@@" becomes "@" and "@@@@" becomes "@@".
//
// The text of a bare reference is seen by the later stages but a stage
// never scans its own replacement text.
//
// If any macro cannot be found an error is returned and no part of the
// line is returned.
func (e *Expander) Substitute(line string, loc *location.L) (string, error) {
	if strings.IndexByte(line, refStart) < 0 {
		return line, nil
	}

	s, err := e.expandBare(line, loc)
	if err != nil {
		return "", e.unboundIn(err, line)
	}

	s, err = e.expandBracketed(s, loc)
	if err != nil {
		return "", e.unboundIn(err, line)
	}

	return strings.ReplaceAll(s, escapedAt, "@"), nil
}

// expandBare replaces the '@name' references. The character before the
// '@' must not itself be an '@' and must not have been used by the previous
// reference, so in "@a@b" only "@a" is a reference.
func (e *Expander) expandBare(line string, loc *location.L) (string, error) {
	var b strings.Builder
	b.Grow(len(line))

	p := 0
	for j := p; j < len(line); j++ {
		if line[j] != refStart {
			continue
		}
		if j > 0 && (j-1 < p || line[j-1] == refStart) {
			continue
		}

		n := wordLen(line[j+1:])
		if n == 0 {
			continue
		}

		val, err := e.Find(line[j+1:j+1+n], loc)
		if err != nil {
			return "", err
		}

		b.WriteString(line[p:j])
		b.WriteString(val)
		p = j + 1 + n
		j = p - 1
	}
	b.WriteString(line[p:])

	return b.String(), nil
}

// expandBracketed replaces the '@{name}' references
func (e *Expander) expandBracketed(s string, loc *location.L) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	p := 0
	for j := p; j+1 < len(s); j++ {
		if s[j] != refStart || s[j+1] != braceOpen {
			continue
		}

		k := strings.IndexByte(s[j+2:], braceClose)
		if k < 0 {
			break // no '}' anywhere after this so no more references
		}
		if k == 0 {
			continue
		}

		val, err := e.Find(s[j+2:j+2+k], loc)
		if err != nil {
			return "", err
		}

		b.WriteString(s[p:j])
		b.WriteString(val)
		p = j + 2 + k + 1
		j = p - 1
	}
	b.WriteString(s[p:])

	return b.String(), nil
}

// unboundIn records the line being expanded in any UnboundMacroError
func (e *Expander) unboundIn(err error, line string) error {
	var ume *UnboundMacroError
	if errors.As(err, &ume) {
		ume.Line = line
	}

	return err
}

// isWordChar reports whether the byte is a letter, a digit or an underscore
func isWordChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// wordLen returns the length of the leading run of word characters in s
func wordLen(s string) int {
	for i := 0; i < len(s); i++ {
		if !isWordChar(s[i]) {
			return i
		}
	}

	return len(s)
}
