package processing

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// transformFlag is the fixed niimath operation applied to every image.
const transformFlag = "-ceil"

// Runner executes one image transformation. Implementations return the
// captured standard output and error streams; a non-nil error means the
// tool did not exit cleanly.
type Runner interface {
	Run(ctx context.Context, inputPath, outputPath string) (stdout, stderr string, err error)
}

// ExecRunner invokes the external niimath binary synchronously. The
// invocation blocks the calling request for its full duration, bounded
// only by the configured timeout.
type ExecRunner struct {
	binPath string
	timeout time.Duration
}

func NewExecRunner(binPath string, timeout time.Duration) *ExecRunner {
	return &ExecRunner{
		binPath: binPath,
		timeout: timeout,
	}
}

func (r *ExecRunner) Run(ctx context.Context, inputPath, outputPath string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// niimath <input_file> -ceil <output_file>
	cmd := exec.CommandContext(ctx, r.binPath, inputPath, transformFlag, outputPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
