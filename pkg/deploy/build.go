package deploy

import (
	"context"
	"fmt"
	"log"

	"github.com/pkg/errors"
)

var ErrBuildFailed = fmt.Errorf("build failed")

// Builder invokes the external compiler toolchain once per run. Success is
// exit code zero; anything else surfaces the tool's error with no retry.
type Builder struct {
	runner  CommandRunner
	command []string
	logger  *log.Logger
}

func NewBuilder(runner CommandRunner, command []string, logger *log.Logger) *Builder {
	return &Builder{
		runner:  runner,
		command: command,
		logger:  log.New(logger.Writer(), "[builder] ", log.LstdFlags),
	}
}

func (b *Builder) Build(ctx context.Context) error {
	name, args, err := splitCommand(b.command)
	if err != nil {
		return errors.Wrap(ErrBuildFailed, err.Error())
	}

	b.logger.Println("building program artifacts ...")

	if _, err := b.runner.Run(ctx, name, args...); err != nil {
		return errors.Wrap(ErrBuildFailed, err.Error())
	}

	return nil
}
