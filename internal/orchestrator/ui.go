package orchestrator

import (
	"io"

	"github.com/compozy/gitdeploy/internal/console"
)

// UI is what the orchestrators need from the operator console.
type UI interface {
	console.Prompter
	Out() io.Writer
	ErrOut() io.Writer
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
}
