package processor

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/docintake/docintake-backend/pkg/logger"
)

// Runner executes an external command. It lets tests stub the OCR engine.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	log *logger.Logger
}

// NewExecRunner creates a Runner backed by os/exec
func NewExecRunner(log *logger.Logger) *ExecRunner {
	return &ExecRunner{log: log}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		r.log.Error().Err(err).
			Str("cmd", name).
			Str("args", strings.Join(args, " ")).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("stderr", truncate(errb.String(), 8<<10)).
			Msg("exec failed")
	} else {
		r.log.Debug().
			Str("cmd", name).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Int("stdout_bytes", out.Len()).
			Msg("exec ok")
	}

	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
