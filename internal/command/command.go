// Copyright 2024 The nativebuild Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package command runs external tools and reports their failures with the
// command line and exit status that produced them.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// maxStderr bounds how much of a failing command's stderr is kept.
const maxStderr = 4 << 10

// Error is returned when an external command exits with a non-zero status
// or could not be started at all.
type Error struct {
	Args     []string // argv, including the executable
	Dir      string
	ExitCode int // -1 if the process never ran or was killed by a signal
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", Line(e.Args), e.ExitCode)
	if e.ExitCode < 0 && e.Err != nil {
		msg = fmt.Sprintf("%s: %v", Line(e.Args), e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Line renders args as a single shell-like command line.
func Line(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quote(arg)
	}
	return strings.Join(quoted, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`*?[]{}()<>|&;#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Options controls where a command's output goes.
type Options struct {
	Dir    string
	Env    []string // nil inherits the current environment
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes name with args and waits for it to finish. Output is streamed
// to opts.Stdout and opts.Stderr; the tail of stderr is also kept for the
// returned *Error.
func Run(ctx context.Context, opts Options, name string, args ...string) error {
	_, err := run(ctx, opts, false, name, args...)
	return err
}

// Output executes name with args and returns its standard output.
func Output(ctx context.Context, opts Options, name string, args ...string) (string, error) {
	return run(ctx, opts, true, name, args...)
}

func run(ctx context.Context, opts Options, capture bool, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir
	cmd.Env = opts.Env

	var stdout bytes.Buffer
	stderr := &tailBuffer{max: maxStderr}
	switch {
	case capture:
		cmd.Stdout = &stdout
	case opts.Stdout != nil:
		cmd.Stdout = opts.Stdout
	}
	cmd.Stderr = stderr
	if opts.Stderr != nil {
		cmd.Stderr = io.MultiWriter(opts.Stderr, stderr)
	}

	if err := cmd.Run(); err != nil {
		cerr := &Error{
			Args:     append([]string{name}, args...),
			Dir:      opts.Dir,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cerr.ExitCode = exitErr.ExitCode()
		}
		return "", cerr
	}
	return stdout.String(), nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf []byte
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
