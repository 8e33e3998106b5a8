package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/onebeat/internal/inventory"
	"github.com/odyssey-erp/onebeat/internal/onebeat"
	"github.com/odyssey-erp/onebeat/internal/onebeat/export"
	"github.com/odyssey-erp/onebeat/internal/onebeat/replenish"
	"github.com/odyssey-erp/onebeat/internal/procurement"
	"github.com/odyssey-erp/onebeat/internal/transfer"
)

// OneBeat bundles the services shared by the server, worker and CLI.
type OneBeat struct {
	Inventory   *inventory.Repository
	Service     *onebeat.Service
	Assembler   *export.Assembler
	Procurement *procurement.Service
	Importer    *replenish.Importer
	// Outbox receives rendered reports, Inbox holds recommendation files.
	Outbox transfer.Remote
	Inbox  transfer.Remote

	gcs *storage.Client
}

// Options maps configuration onto dataset options.
func (c OneBeatConfig) Options() onebeat.Options {
	return onebeat.Options{
		DefaultBuffer:        c.DefaultBuffer,
		AllCombinations:      c.AllCombinations,
		SeedOriginIDs:        c.SeedOrigins,
		SeedDestinationIDs:   c.SeedDestinations,
		ProductionLocationID: c.ProductionLocationID,
	}
}

// NewOneBeat wires repositories, services and remotes.
func NewOneBeat(ctx context.Context, cfg *Config, pool *pgxpool.Pool, logger *slog.Logger) (*OneBeat, error) {
	if cfg == nil {
		return nil, fmt.Errorf("onebeat: config required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := export.SchemaByName(cfg.Schema)
	if err != nil {
		return nil, err
	}
	ob := &OneBeat{Assembler: export.NewAssembler(schema)}
	if err := ob.openRemotes(ctx, cfg.OneBeatConfig); err != nil {
		return nil, err
	}

	ob.Inventory = inventory.NewRepository(pool)
	registry := onebeat.NewRegistry(onebeat.NewStore(pool), logger.With(slog.String("component", "buffers")))
	ob.Service = onebeat.NewService(ob.Inventory, registry, cfg.Options(), logger.With(slog.String("component", "onebeat")))
	ob.Procurement = procurement.NewService(procurement.NewRepository(pool), logger.With(slog.String("component", "procurement")))
	ob.Importer = replenish.NewImporter(ob.Inbox, ob.Inventory, ob.Procurement, ob.Service, logger.With(slog.String("component", "replenish")))
	return ob, nil
}

func (ob *OneBeat) openRemotes(ctx context.Context, cfg OneBeatConfig) error {
	switch strings.ToLower(cfg.Remote) {
	case "gcs":
		client, err := transfer.NewGCSClient(ctx, cfg.GCSCredentials)
		if err != nil {
			return fmt.Errorf("onebeat: gcs client: %w", err)
		}
		ob.gcs = client
		outbox, err := transfer.NewGCS(client, cfg.GCSBucket, cfg.GCSPrefix)
		if err != nil {
			return err
		}
		inboxPrefix := cfg.GCSInboxPrefix
		if inboxPrefix == "" {
			inboxPrefix = cfg.GCSPrefix
		}
		inbox, err := transfer.NewGCS(client, cfg.GCSBucket, inboxPrefix)
		if err != nil {
			return err
		}
		ob.Outbox, ob.Inbox = outbox, inbox
	default:
		outbox, err := transfer.NewDir(cfg.RemoteDir)
		if err != nil {
			return err
		}
		ob.Outbox, ob.Inbox = outbox, outbox
		if cfg.InboxDir != "" {
			inbox, err := transfer.NewDir(cfg.InboxDir)
			if err != nil {
				return err
			}
			ob.Inbox = inbox
		}
	}
	return nil
}

// Close releases remote clients.
func (ob *OneBeat) Close() error {
	if ob == nil || ob.gcs == nil {
		return nil
	}
	return ob.gcs.Close()
}
