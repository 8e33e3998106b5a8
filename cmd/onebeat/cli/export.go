package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/odyssey-erp/onebeat/internal/onebeat"
)

// ExportOptions configures the export command.
type ExportOptions struct {
	CompanyID int64
	// Start and Stop accept RFC3339 or YYYY-MM-DD (UTC). Both empty
	// exports the last day.
	Start    string
	Stop     string
	Timezone string
	// OutDir writes the files locally. Empty uploads them to the remote.
	OutDir     string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// ExportSummary is the JSON output of the export command.
type ExportSummary struct {
	RunID       string   `json:"run_id"`
	CompanyCode string   `json:"company_code"`
	Start       string   `json:"start"`
	Stop        string   `json:"stop"`
	Files       []string `json:"files"`
	Unresolved  int      `json:"unresolved_locations"`
	Leaked      int      `json:"leaked_pairs"`
}

// ExportCommand renders the four reports for one company.
func (c *OneBeatCLI) ExportCommand(ctx context.Context, opts ExportOptions) int {
	s := newStreams(opts.Stdout, opts.Stderr)
	if c.deps.Service == nil || c.deps.Assembler == nil {
		return s.failf(ExitUsage, "export: not configured")
	}
	if opts.CompanyID <= 0 {
		return s.failf(ExitUsage, "export: --company is required and must be positive")
	}
	start, err := parseTimestamp(opts.Start, time.UTC)
	if err != nil {
		return s.failf(ExitUsage, "export: invalid --start %q", opts.Start)
	}
	stop, err := parseTimestamp(opts.Stop, time.UTC)
	if err != nil {
		return s.failf(ExitUsage, "export: invalid --stop %q", opts.Stop)
	}
	if start.IsZero() != stop.IsZero() {
		return s.failf(ExitUsage, "export: --start and --stop must be given together")
	}
	if opts.OutDir == "" && c.deps.Remote == nil {
		return s.failf(ExitUsage, "export: no remote configured, pass --out")
	}

	req := onebeat.Request{CompanyID: opts.CompanyID, Timezone: opts.Timezone}
	if !start.IsZero() {
		req.Window = onebeat.Window{Start: start, Stop: stop}
	}
	ds, err := c.deps.Service.Prepare(ctx, req)
	if err != nil {
		return s.failf(exitFor(err), "export: %v", err)
	}
	files, err := c.deps.Assembler.RenderAll(ds)
	if err != nil {
		return s.failf(exitFor(err), "export: %v", err)
	}
	summary := ExportSummary{
		RunID:       ds.RunID,
		CompanyCode: ds.CompanyCode,
		Start:       ds.Window.Start.Format(time.RFC3339),
		Stop:        ds.Window.Stop.Format(time.RFC3339),
		Unresolved:  len(ds.Resolution.Unresolved),
	}
	if ds.Snapshot != nil {
		summary.Leaked = len(ds.Snapshot.Leaked)
	}
	for _, f := range files {
		if opts.OutDir != "" {
			if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
				return s.failf(ExitFailure, "export: %v", err)
			}
			err = os.WriteFile(filepath.Join(opts.OutDir, f.Name), f.Data, 0o644)
		} else {
			err = c.deps.Remote.Upload(ctx, f.Name, f.Data)
		}
		if err != nil {
			return s.failf(ExitFailure, "export: write %s: %v", f.Name, err)
		}
		summary.Files = append(summary.Files, f.Name)
	}

	if opts.JSONOutput {
		if err := json.NewEncoder(s.stdout).Encode(summary); err != nil {
			return s.failf(ExitFailure, "export: encode json: %v", err)
		}
		return ExitOK
	}
	_, _ = fmt.Fprintf(s.stdout, "Export %s for company %d (%s) window %s .. %s\n",
		summary.RunID, opts.CompanyID, summary.CompanyCode, summary.Start, summary.Stop)
	for _, name := range summary.Files {
		_, _ = fmt.Fprintf(s.stdout, " - %s\n", name)
	}
	if summary.Unresolved > 0 || summary.Leaked > 0 {
		_, _ = fmt.Fprintf(s.stdout, "Warnings: %d unresolved location(s), %d leaked pair(s)\n", summary.Unresolved, summary.Leaked)
	}
	return ExitOK
}
