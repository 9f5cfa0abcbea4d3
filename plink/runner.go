// Package plink drives the external plink binary: scoring a weight table
// against a binary fileset, subsetting a fileset to a variant list, and
// recoding genotypes as additive dosages. The engine treats plink as a black
// box reached only through these invocations.
package plink

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrScorerFailure wraps every failure mode of the external scorer: a
// missing binary, a non-zero exit, or exceeding the per-invocation deadline.
var ErrScorerFailure = errors.New("external scorer failed")

// Runner invokes plink synchronously, one command at a time.
type Runner struct {
	// Exec is the plink binary, resolved via PATH unless absolute.
	Exec string

	// Timeout bounds each invocation. Zero means wait forever.
	Timeout time.Duration

	// Log, when set, receives each command line at debug level.
	Log logrus.FieldLogger
}

func NewRunner(execPath string, timeout time.Duration, log logrus.FieldLogger) *Runner {
	if execPath == "" {
		execPath = "plink"
	}

	return &Runner{Exec: execPath, Timeout: timeout, Log: log}
}

// Score runs --score over a weight table whose columns are variant ID,
// allele, and weight, with a header row. It returns the path of the
// per-sample score file plink produced.
func (r *Runner) Score(ctx context.Context, bfilePath, weightPath, outPrefix string) (string, error) {
	args := []string{
		"--bfile", bfilePath,
		"--score", weightPath, "1", "2", "3", "header",
		"--out", outPrefix,
	}

	if err := r.run(ctx, args); err != nil {
		return "", err
	}

	return outPrefix + ".profile", nil
}

// ExtractBED subsets a fileset to the variants named in snpListPath (one ID
// per line), writing a new binary fileset at outPrefix.
func (r *Runner) ExtractBED(ctx context.Context, bfilePath, snpListPath, outPrefix string) (string, error) {
	args := []string{
		"--bfile", bfilePath,
		"--extract", snpListPath,
		"--make-bed",
		"--out", outPrefix,
	}

	if err := r.run(ctx, args); err != nil {
		return "", err
	}

	return outPrefix, nil
}

// RecodeAdditive rewrites a fileset as an additive dosage table, returning
// the path of the .raw file plink produced.
func (r *Runner) RecodeAdditive(ctx context.Context, bfilePath, outPrefix string) (string, error) {
	args := []string{
		"--bfile", bfilePath,
		"--recode", "A",
		"--out", outPrefix,
	}

	if err := r.run(ctx, args); err != nil {
		return "", err
	}

	return outPrefix + ".raw", nil
}

func (r *Runner) run(ctx context.Context, args []string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	if r.Log != nil {
		r.Log.WithField("command", r.Exec+" "+strings.Join(args, " ")).Debug("invoking scorer")
	}

	out, err := exec.CommandContext(ctx, r.Exec, args...).CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s: %v", ErrScorerFailure, r.Exec, ctxErr)
		}

		return fmt.Errorf("%w: %s: %v: %s", ErrScorerFailure, r.Exec, err, tail(out))
	}

	return nil
}

// tail keeps the end of the scorer's combined output, which is where plink
// puts its complaint.
func tail(out []byte) string {
	const max = 512

	s := strings.TrimSpace(string(out))
	if len(s) > max {
		s = "..." + s[len(s)-max:]
	}

	return s
}
