package macros

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nickwells/location.mod/location"
)

// ErrUnboundMacro is wrapped by every error reporting a reference to a
// macro that has not been defined. It can be tested for with errors.Is.
var ErrUnboundMacro = errors.New("macro not defined")

// UnboundMacroError records the details of a reference to a macro which has
// not been defined and could not be found in any macro directory. It holds
// enough to let the caller report where processing stopped.
type UnboundMacroError struct {
	// Name is the macro name as it was written in the reference
	Name string
	// Where is the location of the line (as given by location.L.String);
	// it is empty if no location was given
	Where string
	// LineNum is the line number (starting at 1), or 0 if not known
	LineNum int
	// Line is the raw text of the line being expanded
	Line string
	// Dirs are the macro directories which were searched
	Dirs []string
}

func newUnboundMacroError(name string, loc *location.L, dirs []string,
) *UnboundMacroError {
	err := &UnboundMacroError{
		Name: name,
		Dirs: dirs,
	}
	if loc != nil {
		err.Where = loc.String()
		err.LineNum = int(loc.Idx())
	}

	return err
}

// Error returns the error message in the form
//
//	Macro 'XXX' at src:3 was not found
//
// followed by the macro directories if any were searched
func (e *UnboundMacroError) Error() string {
	errStr := fmt.Sprintf("Macro '%s'", e.Name)
	if e.Where != "" {
		errStr += " at " + e.Where
	}
	errStr += " was not found"

	if len(e.Dirs) == 1 {
		errStr += " in the macro directory: " + e.Dirs[0]
	} else if len(e.Dirs) > 1 {
		errStr += " in any of the macro directories: " +
			strings.Join(e.Dirs, ", ")
	}

	return errStr
}

// Unwrap returns ErrUnboundMacro
func (e *UnboundMacroError) Unwrap() error {
	return ErrUnboundMacro
}
