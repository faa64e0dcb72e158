//go:build mage

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/magefile/mage/mg"
)

// invocation describes a go toolchain command. Output is echoed when stream is set
// or mage runs verbose, and printed only on failure otherwise.
type invocation struct {
	args   []string
	stream bool
}

type runOption func(*invocation)

func withArgs(args ...string) runOption {
	return func(r *invocation) { r.args = args }
}

func withStream() runOption {
	return func(r *invocation) { r.stream = true }
}

func executeCmd(command string, options ...runOption) (string, error) {
	r := invocation{}
	for _, o := range options {
		o(&r)
	}
	echo := r.stream || mg.Verbose()

	fmt.Printf("Executing: %s %s\n", command, strings.Join(r.args, " "))

	var out bytes.Buffer
	var w io.Writer = &out
	errW := w
	if echo {
		w = io.MultiWriter(&out, os.Stdout)
		errW = io.MultiWriter(&out, os.Stderr)
	}

	cmd := exec.Command(command, r.args...)
	cmd.Stdout, cmd.Stderr = w, errW
	if err := cmd.Run(); err != nil {
		if !echo {
			fmt.Fprintf(os.Stderr, "%s %s failed:\n%s\n", command, strings.Join(r.args, " "), out.String())
		}
		return "", fmt.Errorf("error executing %s: %w", command, err)
	}
	return out.String(), nil
}

// Runs go mod tidy so the module graph matches the imports.
func (Build) Tidy() error {
	if _, err := executeCmd("go", withArgs("mod", "tidy")); err != nil {
		return fmt.Errorf("failed to run go mod tidy: %w", err)
	}
	return nil
}
