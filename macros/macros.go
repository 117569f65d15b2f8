package macros

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nickwells/check.mod/v2/check"
	"github.com/nickwells/filecheck.mod/filecheck"
	"github.com/nickwells/location.mod/location"
)

// Expander records the macro definitions and expands macro references
//
// You should create a new Expander with New. Macros are added either by
// passing definition lines to ProcessLine (or Define) or directly with
// AddMacro. If you want macros which have not been defined to be read from
// files in macro directories then give the directories when the Expander is
// created.
//
// An Expander is not safe for concurrent use.
type Expander struct {
	mMap      map[string]string
	fileCache map[string]string
	mDirs     []string
	suffixes  []string
	logger    *slog.Logger
}

type OptFunc func(e *Expander) error

// New creates a new Expander object with an empty set of macros.
func New(opts ...OptFunc) (*Expander, error) {
	e := &Expander{
		mMap:      make(map[string]string),
		fileCache: make(map[string]string),
		mDirs:     make([]string, 0),
		suffixes:  []string{""},
		logger:    slog.New(discardHandler{}),
	}

	for _, o := range opts {
		if err := o(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Dirs returns an OptFunc that will add the directory names to the,
// initially empty, set of directories to be searched for macros that have
// not been defined. Each of the passed values must be a directory, an error
// will be returned if not and none of the passed values will be added.
func Dirs(dirs ...string) OptFunc {
	return func(e *Expander) error {
		if len(dirs) == 0 {
			return errors.New("at least one macros directory must be passed")
		}

		es := filecheck.Provisos{
			Checks:    []check.FileInfo{check.FileInfoIsDir},
			Existence: filecheck.MustExist,
		}
		for _, dir := range dirs {
			err := es.StatusCheck(dir)
			if err != nil {
				return err
			}
		}

		e.mDirs = append(e.mDirs, dirs...)
		return nil
	}
}

// Suffix returns an OptFunc that will add a suffix to the list of strings to
// be tried as suffixes when searching the macro directories. Any suffix must
// be complete and include the separator (if any). For instance ".txt". The
// suffixes are tried in the order they are added and there is always a
// first, empty suffix so that a macro name will always match a file with the
// exact same name.
func Suffix(suffix string) OptFunc {
	return func(e *Expander) error {
		e.suffixes = append(e.suffixes, suffix)

		return nil
	}
}

// Logger returns an OptFunc that sets the logger used to report macro
// definitions and directory lookups at debug level. A nil logger is an
// error.
func Logger(l *slog.Logger) OptFunc {
	return func(e *Expander) error {
		if l == nil {
			return errors.New("the logger must not be nil")
		}
		e.logger = l

		return nil
	}
}

// AddMacro will add a named macro to the macro map which can subsequently
// be used to substitute into a string. Any previous value is replaced.
func (e *Expander) AddMacro(name, value string) {
	e.logger.Debug("macro defined",
		slog.String("name", name),
		slog.String("value", value),
		slog.Bool("redefined", e.has(name)))
	e.mMap[name] = value
}

func (e *Expander) has(name string) bool {
	_, ok := e.mMap[name]
	return ok
}

// Find returns the text for the named macro. If it has not been defined and
// there are macro directories to be searched then it will search for a
// matching file name and returns the contents if it finds it. If no
// matching macro is found an *UnboundMacroError is returned; the loc may be
// nil.
func (e *Expander) Find(mName string, loc *location.L) (string, error) {
	if macro, ok := e.mMap[mName]; ok {
		return macro, nil
	}

	if macro, ok := e.findInDirs(mName); ok {
		return macro, nil
	}

	return "", newUnboundMacroError(mName, loc, e.mDirs)
}

// findInDirs searches the macro directories for a file holding the macro
// value. Values found are cached but are not added to the defined macros.
// Only names made entirely of word characters are searched for so that a
// bracketed name cannot refer to a file outside the macro directories.
func (e *Expander) findInDirs(mName string) (string, bool) {
	if mName == "" || wordLen(mName) != len(mName) {
		return "", false
	}

	if macro, ok := e.fileCache[mName]; ok {
		return macro, true
	}

	for _, fd := range e.mDirs {
		for _, suffix := range e.suffixes {
			fName := filepath.Join(fd, mName+suffix)
			macro, err := os.ReadFile(fName)
			if err != nil {
				continue
			}
			e.logger.Debug("macro read from file",
				slog.String("name", mName),
				slog.String("file", fName))

			val := strings.TrimSuffix(string(macro), "\n")
			val = strings.TrimSuffix(val, "\r")
			e.fileCache[mName] = val
			return val, true
		}
	}

	return "", false
}

// ProcessLine expands any macro references in the line and then, if the
// result is a macro definition, records the definition. It returns the
// line to be written and true, or, if the line was a definition, an empty
// string and false. If a reference cannot be resolved the error is returned
// and the line should not be written.
func (e *Expander) ProcessLine(line string, loc *location.L) (string, bool, error) {
	expanded, err := e.Substitute(line, loc)
	if err != nil {
		return "", false, err
	}

	if e.Define(expanded) {
		return "", false, nil
	}

	return expanded, true, nil
}

// Len returns the number of macros that have been defined
func (e *Expander) Len() int {
	return len(e.mMap)
}

// Names returns the names of the defined macros in sorted order
func (e *Expander) Names() []string {
	names := make([]string, 0, len(e.mMap))
	for name := range e.mMap {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Dump writes the defined macros to the writer, one per line, sorted by
// name. The name is left aligned in a field at least 15 wide.
func (e *Expander) Dump(w io.Writer) error {
	for _, name := range e.Names() {
		_, err := fmt.Fprintf(w, "%-15s= %s\n", name, e.mMap[name])
		if err != nil {
			return err
		}
	}

	return nil
}

// String returns the text that Dump would write
func (e *Expander) String() string {
	var b strings.Builder
	_ = e.Dump(&b)

	return b.String()
}

// discardHandler is a slog.Handler that drops every record
type discardHandler struct{}

func (discardHandler) Enabled(_ context.Context, _ slog.Level) bool { return false }
func (discardHandler) Handle(_ context.Context, _ slog.Record) error { return nil }
func (d discardHandler) WithAttrs(_ []slog.Attr) slog.Handler       { return d }
func (d discardHandler) WithGroup(_ string) slog.Handler            { return d }
