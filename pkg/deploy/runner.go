// Package deploy drives the external build and deploy tools and sequences
// the optional seeding pass that follows a successful deployment.
package deploy

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// CommandRunner is the seam between this package and the external toolchain.
// The production implementation shells out; tests never exec.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct {
	dir    string
	logger *log.Logger
}

// NewExecRunner returns a CommandRunner that executes commands in the given
// working directory, streaming stderr to the logger.
func NewExecRunner(dir string, logger *log.Logger) CommandRunner {
	return &execRunner{
		dir:    dir,
		logger: log.New(logger.Writer(), "[toolchain] ", log.LstdFlags),
	}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.logger.Printf("running %s %s", name, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.dir
	cmd.Stderr = r.logger.Writer()

	return cmd.Output()
}

// splitCommand separates an argv-style command into its binary and leading
// arguments.
func splitCommand(command []string) (string, []string, error) {
	if len(command) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}

	return command[0], command[1:], nil
}
