package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/securebank/securebank-init/internal/config"
	"github.com/securebank/securebank-init/internal/crypto"
	seclog "github.com/securebank/securebank-init/internal/log"
	"github.com/securebank/securebank-init/internal/seed"
	"github.com/securebank/securebank-init/internal/storage"
)

type bootstrapOptions struct {
	ConfigPath   string
	DatabasePath *string
	Atomic       *bool
	Env          map[string]string
	Out          io.Writer
	LogOut       io.Writer
}

func runBootstrap(ctx context.Context, opts bootstrapOptions) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: opts.ConfigPath,
		Env:        opts.Env,
		Flags: config.FlagOverrides{
			DatabasePath: opts.DatabasePath,
			SeedAtomic:   opts.Atomic,
		},
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser, err := seclog.New(seclog.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	}, opts.LogOut)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logCloser.Close() }()

	cards, err := crypto.NewCardCipher(cfg.Card.Key)
	if err != nil {
		return fmt.Errorf("init card cipher: %w", err)
	}
	defer cards.Destroy()
	if cfg.UsesDefaultCardKey() {
		logger.Warn("card data is sealed with the built-in demo key; set SECUREBANK_CARD_KEY outside of demos")
	}

	store, err := storage.Open(ctx, storage.Options{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
		JournalMode: cfg.Database.JournalMode,
		CardCipher:  cards,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("error opening database", "path", cfg.Database.Path, "error", err)
		return err
	}
	logger.Info("connected to sqlite database", "path", store.Path())
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
			err = errors.Join(err, closeErr)
		}
	}()

	report, err := storage.EnsureSchema(ctx, store, storage.SchemaOptions{
		Strict: cfg.Seed.Atomic,
		Logger: logger,
	})
	if err != nil {
		logger.Error("schema provisioning failed", "error", err)
		return fmt.Errorf("provision schema: %w", err)
	}
	logSchemaReport(logger, report)

	loader, err := seed.NewLoader(store, seed.DemoDataset(), seed.Options{
		Atomic:           cfg.Seed.Atomic,
		PasswordCost:     cfg.Seed.PasswordCost,
		BatchParallelism: cfg.Seed.BatchParallelism,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("prepare seed: %w", err)
	}
	result, err := loader.Run(ctx)
	if err != nil {
		logger.Error("seeding failed", "error", err)
		return err
	}
	if result.Partial() {
		logger.Warn("demo data seeded with failures", "failures", len(result.Failures), "skipped", result.Skipped)
	}

	return printSummary(opts.Out, result)
}

func logSchemaReport(logger *slog.Logger, report storage.SchemaReport) {
	if !report.Complete() {
		logger.Warn("schema provisioned with failed steps",
			"tables", len(report.Tables),
			"indexes", len(report.Indexes),
			"failed", len(report.Failed),
		)
		return
	}
	logger.Info("all tables and indexes created", "tables", len(report.Tables), "indexes", len(report.Indexes))
}

func printSummary(out io.Writer, result seed.Result) error {
	if out == nil {
		return nil
	}
	status := "Demo data inserted."
	if result.AlreadySeeded {
		status = "Demo data already present."
	}
	_, err := fmt.Fprintf(out,
		"%s\nDatabase initialization complete!\n\nDemo credentials:\n  Email: %s\n  Password: %s\n",
		status, seed.DemoEmail, seed.DemoPassword,
	)
	return err
}
