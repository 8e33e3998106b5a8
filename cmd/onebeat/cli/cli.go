// Package cli implements the onebeatctl subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/odyssey-erp/onebeat/internal/onebeat"
	"github.com/odyssey-erp/onebeat/internal/onebeat/export"
	"github.com/odyssey-erp/onebeat/internal/onebeat/replenish"
	"github.com/odyssey-erp/onebeat/internal/transfer"
)

// Exit codes shared by every subcommand.
const (
	ExitOK      = 0
	ExitUsage   = 1
	ExitFailure = 2
	ExitBusy    = 3
	ExitPartial = 10
)

// Preparer builds export datasets.
type Preparer interface {
	Prepare(ctx context.Context, req onebeat.Request) (*onebeat.Dataset, error)
}

// Replenisher consumes the latest recommendation file.
type Replenisher interface {
	Run(ctx context.Context, companyID int64) (replenish.Result, error)
}

// BufferImporter applies buffer update files.
type BufferImporter interface {
	ImportBufferUpdates(ctx context.Context, companyID int64, r io.Reader) (onebeat.UpdateReport, error)
}

// Deps are the services the commands drive. Nil members disable the
// commands that need them.
type Deps struct {
	Service   Preparer
	Assembler *export.Assembler
	Remote    transfer.Remote
	Importer  Replenisher
	Buffers   BufferImporter
}

// OneBeatCLI runs the OneBeat operational commands.
type OneBeatCLI struct {
	deps Deps
}

// NewOneBeatCLI constructs the helper.
func NewOneBeatCLI(deps Deps) *OneBeatCLI {
	return &OneBeatCLI{deps: deps}
}

type streams struct {
	stdout io.Writer
	stderr io.Writer
}

func newStreams(stdout, stderr io.Writer) streams {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return streams{stdout: stdout, stderr: stderr}
}

func (s streams) failf(code int, format string, args ...any) int {
	_, _ = fmt.Fprintf(s.stderr, format+"\n", args...)
	return code
}

// exitFor maps domain errors onto exit codes.
func exitFor(err error) int {
	switch {
	case errors.Is(err, onebeat.ErrConfiguration), errors.Is(err, onebeat.ErrInvalidWindow):
		return ExitUsage
	case errors.Is(err, onebeat.ErrExportInProgress):
		return ExitBusy
	}
	return ExitFailure
}

func parseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", raw, loc)
}
