package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/odyssey-erp/onebeat/internal/onebeat/replenish"
)

// ReplenishOptions configures the replenish command.
type ReplenishOptions struct {
	CompanyID  int64
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// ReplenishSummary is the JSON output of the replenish command.
type ReplenishSummary struct {
	File    string   `json:"file"`
	Orders  []string `json:"orders"`
	Skipped []string `json:"skipped"`
}

// ReplenishCommand imports the latest recommendation file. A missing file
// exits cleanly.
func (c *OneBeatCLI) ReplenishCommand(ctx context.Context, opts ReplenishOptions) int {
	s := newStreams(opts.Stdout, opts.Stderr)
	if c.deps.Importer == nil {
		return s.failf(ExitUsage, "replenish: not configured")
	}
	if opts.CompanyID <= 0 {
		return s.failf(ExitUsage, "replenish: --company is required and must be positive")
	}
	res, err := c.deps.Importer.Run(ctx, opts.CompanyID)
	if errors.Is(err, replenish.ErrNoReplenishmentFile) {
		_, _ = fmt.Fprintln(s.stdout, "No replenishment file found.")
		return ExitOK
	}
	summary := ReplenishSummary{File: res.File, Orders: []string{}, Skipped: res.Skipped}
	for _, po := range res.Orders {
		summary.Orders = append(summary.Orders, po.Number)
	}
	if err != nil {
		if len(summary.Orders) > 0 {
			_, _ = fmt.Fprintf(s.stderr, "replenish: %d order(s) created before failure, %s kept\n", len(summary.Orders), res.File)
		}
		return s.failf(exitFor(err), "replenish: %v", err)
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(s.stdout).Encode(summary); err != nil {
			return s.failf(ExitFailure, "replenish: encode json: %v", err)
		}
	} else {
		_, _ = fmt.Fprintf(s.stdout, "Consumed %s: %d purchase order(s) created\n", summary.File, len(summary.Orders))
		for _, number := range summary.Orders {
			_, _ = fmt.Fprintf(s.stdout, " - %s\n", number)
		}
		if len(summary.Skipped) > 0 {
			_, _ = fmt.Fprintf(s.stdout, "Skipped SKUs: %v\n", summary.Skipped)
		}
	}
	if len(summary.Skipped) > 0 {
		return ExitPartial
	}
	return ExitOK
}

// BuffersOptions configures the buffers command.
type BuffersOptions struct {
	CompanyID int64
	// Path is a local sku;location;buffer file, "-" reads stdin.
	Path       string
	Stdin      io.Reader
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// BuffersSummary is the JSON output of the buffers command.
type BuffersSummary struct {
	Updated int `json:"updated"`
	Missing int `json:"missing"`
}

// BuffersCommand applies a buffer update file.
func (c *OneBeatCLI) BuffersCommand(ctx context.Context, opts BuffersOptions) int {
	s := newStreams(opts.Stdout, opts.Stderr)
	if c.deps.Buffers == nil {
		return s.failf(ExitUsage, "buffers: not configured")
	}
	if opts.CompanyID <= 0 {
		return s.failf(ExitUsage, "buffers: --company is required and must be positive")
	}
	var in io.Reader
	switch opts.Path {
	case "":
		return s.failf(ExitUsage, "buffers: --file is required")
	case "-":
		in = opts.Stdin
		if in == nil {
			in = os.Stdin
		}
	default:
		f, err := os.Open(opts.Path)
		if err != nil {
			return s.failf(ExitUsage, "buffers: %v", err)
		}
		defer f.Close()
		in = f
	}
	report, err := c.deps.Buffers.ImportBufferUpdates(ctx, opts.CompanyID, in)
	if err != nil {
		return s.failf(exitFor(err), "buffers: %v", err)
	}
	summary := BuffersSummary{Updated: report.Updated, Missing: report.Missing}
	if opts.JSONOutput {
		if err := json.NewEncoder(s.stdout).Encode(summary); err != nil {
			return s.failf(ExitFailure, "buffers: encode json: %v", err)
		}
	} else {
		_, _ = fmt.Fprintf(s.stdout, "Buffers updated: %d, missing: %d\n", summary.Updated, summary.Missing)
	}
	if summary.Missing > 0 {
		return ExitPartial
	}
	return ExitOK
}
