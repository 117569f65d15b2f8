package macros

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nickwells/location.mod/location"
)

// Filter reads lines from r, processes each of them with ProcessLine and
// writes the resulting lines to w. Definition lines are not written. The
// src is used to name the source of the lines in any error. Each line is
// written with the same line terminator it was read with so a final line
// with no terminator is written without one.
//
// Processing stops at the first error, which is returned. Any lines
// processed before the failing line will already have been written.
func (e *Expander) Filter(ctx context.Context, r io.Reader, w io.Writer, src string) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	loc := location.New(src)

	for {
		if err := ctx.Err(); err != nil {
			return flush(bw, err)
		}

		text, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return flush(bw, fmt.Errorf("reading %s: %w", src, readErr))
		}
		if text == "" && readErr == io.EOF {
			break
		}

		loc.Incr()
		line, eol := splitEOL(text)

		out, emit, err := e.ProcessLine(line, loc)
		if err != nil {
			return flush(bw, err)
		}
		if emit {
			if _, err := bw.WriteString(out + eol); err != nil {
				return err
			}
		}

		if readErr == io.EOF {
			break
		}
	}

	return flush(bw, nil)
}

// FilterString runs Filter over the lines in the string and returns the
// text that would be written.
func (e *Expander) FilterString(text string) (string, error) {
	var b strings.Builder
	err := e.Filter(context.Background(), strings.NewReader(text), &b, "string")

	return b.String(), err
}

// splitEOL separates the line terminator, if any, from the line
func splitEOL(text string) (line, eol string) {
	if strings.HasSuffix(text, "\r\n") {
		return text[:len(text)-2], "\r\n"
	}
	if strings.HasSuffix(text, "\n") {
		return text[:len(text)-1], "\n"
	}

	return text, ""
}

// flush writes any buffered output and returns err, or the flush error if
// err is nil
func flush(bw *bufio.Writer, err error) error {
	if fErr := bw.Flush(); err == nil {
		return fErr
	}

	return err
}
