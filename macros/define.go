package macros

import "strings"

const (
	defStart = '!'
	defSep   = '='
)

// ParseDefinition reports whether the line is a macro definition and, if
// so, returns the macro name and value. A definition must start (in the
// very first column) with '!' followed immediately by one or more word
// characters, then '=' and then a value whose first character is a word
// character. The name and value are trimmed of surrounding white space;
// any white space within the value is kept.
func ParseDefinition(line string) (name, value string, ok bool) {
	if len(line) == 0 || line[0] != defStart {
		return "", "", false
	}

	end := 1 + wordLen(line[1:])
	if end == 1 || end >= len(line) || line[end] != defSep {
		return "", "", false
	}

	value = line[end+1:]
	if len(value) == 0 || !isWordChar(value[0]) {
		return "", "", false
	}

	return strings.TrimSpace(line[1:end]), strings.TrimSpace(value), true
}

// Define records the macro if the line is a macro definition (see
// ParseDefinition) and reports whether it was. The line should already
// have had any macro references expanded.
func (e *Expander) Define(line string) bool {
	name, value, ok := ParseDefinition(line)
	if !ok {
		return false
	}
	e.AddMacro(name, value)

	return true
}
