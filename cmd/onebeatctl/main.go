package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/odyssey-erp/onebeat/cmd/onebeat/cli"
	"github.com/odyssey-erp/onebeat/internal/app"
	"github.com/odyssey-erp/onebeat/internal/platform/db"
)

const usage = `usage: onebeatctl <command> [flags]

commands:
  export     render the four OneBeat reports for a company
  replenish  create purchase orders from the latest sku_ro_*.csv file
  buffers    apply a sku;location;buffer update file
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return cli.ExitUsage
	}
	_ = godotenv.Load()

	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	company := fs.Int64("company", 0, "company id")
	jsonOut := fs.Bool("json", false, "print a JSON summary")

	var start, stop, tz, out, file *string
	switch cmd {
	case "export":
		start = fs.String("start", "", "window start (RFC3339 or YYYY-MM-DD)")
		stop = fs.String("stop", "", "window stop, exclusive (RFC3339 or YYYY-MM-DD)")
		tz = fs.String("tz", "", "override the company timezone")
		out = fs.String("out", "", "write files to this directory instead of the remote")
	case "replenish":
	case "buffers":
		file = fs.String("file", "", "buffer update file, - for stdin")
	case "help", "-h", "--help":
		_, _ = fmt.Fprint(stdout, usage)
		return cli.ExitOK
	default:
		_, _ = fmt.Fprintf(stderr, "onebeatctl: unknown command %q\n%s", cmd, usage)
		return cli.ExitUsage
	}
	if err := fs.Parse(rest); err != nil {
		return cli.ExitUsage
	}

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	cfg, err := app.LoadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "onebeatctl: load config: %v\n", err)
		return cli.ExitUsage
	}
	logger := app.NewLogger(cfg)
	pool, err := db.New(ctx, cfg.PoolConfig("onebeatctl"))
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		return cli.ExitFailure
	}
	defer pool.Close()

	ob, err := app.NewOneBeat(ctx, cfg, pool, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "onebeatctl: %v\n", err)
		return cli.ExitUsage
	}
	defer func() {
		if err := ob.Close(); err != nil {
			logger.Warn("close remotes", slog.Any("error", err))
		}
	}()

	c := cli.NewOneBeatCLI(cli.Deps{
		Service:   ob.Service,
		Assembler: ob.Assembler,
		Remote:    ob.Outbox,
		Importer:  ob.Importer,
		Buffers:   ob.Importer,
	})
	switch cmd {
	case "export":
		return c.ExportCommand(ctx, cli.ExportOptions{
			CompanyID: *company, Start: *start, Stop: *stop, Timezone: *tz, OutDir: *out,
			JSONOutput: *jsonOut, Stdout: stdout, Stderr: stderr,
		})
	case "replenish":
		return c.ReplenishCommand(ctx, cli.ReplenishOptions{CompanyID: *company, JSONOutput: *jsonOut, Stdout: stdout, Stderr: stderr})
	default:
		return c.BuffersCommand(ctx, cli.BuffersOptions{CompanyID: *company, Path: *file, JSONOutput: *jsonOut, Stdout: stdout, Stderr: stderr})
	}
}
