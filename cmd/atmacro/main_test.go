package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

// runCmd runs the program with the given args and stdin and returns the
// exit status and the text written to stdout and stderr
func runCmd(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()

	color.NoColor = true

	var stdout, stderr bytes.Buffer
	exit := func(code int) {
		t.Fatalf("unexpected call to exit(%d), stderr: %s", code, stderr.String())
	}

	code := run(context.Background(), exit, args,
		strings.NewReader(stdin), &stdout, &stderr)

	return code, stdout.String(), stderr.String()
}

// writeFile creates a file in a temporary directory and returns its name
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	fName := filepath.Join(dir, name)
	if err := os.WriteFile(fName, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return fName
}

func TestRunStdin(t *testing.T) {
	code, out, errOut := runCmd(t, "!animal=dog\nthis is my @animal\n")
	if code != 0 {
		t.Fatalf("expected exit status 0, got %d: %s", code, errOut)
	}
	if out != "this is my dog\n" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestRunFiles(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "defs", "!plant=tree\n")
	f2 := writeFile(t, dir, "text", "a @plant\n")

	code, out, errOut := runCmd(t, "", f1, f2)
	if code != 0 {
		t.Fatalf("expected exit status 0, got %d: %s", code, errOut)
	}
	if out != "a tree\n" {
		t.Errorf("definitions should carry across files, got: %q", out)
	}
}

func TestRunDefine(t *testing.T) {
	code, out, errOut := runCmd(t, "@greeting, @{who}!\n",
		"-D", "greeting=hello", "--define", "who=world, again")
	if code != 0 {
		t.Fatalf("expected exit status 0, got %d: %s", code, errOut)
	}
	if out != "hello, world, again!\n" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestRunBadDefine(t *testing.T) {
	code, out, errOut := runCmd(t, "text\n", "-D", "=nope")
	if code != 1 {
		t.Errorf("expected exit status 1, got %d", code)
	}
	if out != "" {
		t.Errorf("nothing should be written, got %q", out)
	}
	if !strings.Contains(errOut, "bad macro definition") {
		t.Errorf("expected a bad definition message, got: %s", errOut)
	}
}

func TestRunUnbound(t *testing.T) {
	code, out, errOut := runCmd(t,
		"first\n!plant=tree\n my favorite plant is a @plantation\nnever\n")
	if code != 1 {
		t.Errorf("expected exit status 1, got %d", code)
	}
	if out != "first\n" {
		t.Errorf("only the lines before the error should be written, got %q",
			out)
	}

	for _, exp := range []string{
		strings.Repeat("=", 50),
		"error in line: 3\n",
		"> my favorite plant is a @plantation\n",
		"text filtering stopped..",
		"Macro 'plantation' at stdin:3 was not found",
	} {
		if !strings.Contains(errOut, exp) {
			t.Errorf("the report should contain %q, got:\n%s", exp, errOut)
		}
	}
}

func TestRunDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sig.txt", "-- best wishes\n")

	code, out, errOut := runCmd(t, "@sig\n", "-d", dir, "--suffix", ".txt")
	if code != 0 {
		t.Fatalf("expected exit status 0, got %d: %s", code, errOut)
	}
	if out != "-- best wishes\n" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestRunDump(t *testing.T) {
	code, _, errOut := runCmd(t, "!b=2\n!a=1\n", "--dump")
	if code != 0 {
		t.Fatalf("expected exit status 0, got %d: %s", code, errOut)
	}

	exp := "a              = 1\nb              = 2\n"
	if errOut != exp {
		t.Errorf("expected dump:\n%q\ngot:\n%q", exp, errOut)
	}
}

func TestRunDebugLog(t *testing.T) {
	code, _, errOut := runCmd(t, "!a=1\n", "--log-level", "debug")
	if code != 0 {
		t.Fatalf("expected exit status 0, got %d: %s", code, errOut)
	}
	if !strings.Contains(errOut, "macro defined") {
		t.Errorf("expected the definition to be logged, got: %s", errOut)
	}
}

func TestRunBadFlag(t *testing.T) {
	color.NoColor = true

	var stdout, stderr bytes.Buffer
	exitCode := -1
	exit := func(code int) { exitCode = code }

	code := run(context.Background(), exit, []string{"--nonesuch"},
		strings.NewReader(""), &stdout, &stderr)
	if code != 1 {
		t.Errorf("expected exit status 1, got %d", code)
	}
	if exitCode <= 0 {
		t.Errorf("expected exit to be called with a failure status, got %d",
			exitCode)
	}
	if !strings.Contains(stderr.String(), "--nonesuch") {
		t.Errorf("the error should name the bad flag, got: %s", stderr.String())
	}
}
