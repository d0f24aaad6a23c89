package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/cinepos/internal/flagx"
)

var (
	valuedFlags = []string{
		"-d", "-driver", "-seats", "-products", "-data", "-l",
		"-redis", "-lock-ttl", "-s3-bucket",
	}
	switchFlags = []string{"-m", "-grid"}
)

// parseFlags populates Config fields from command-line flags.
//
// args is filtered with flagx.Filter first so flags owned by other
// components (such as -c) do not make parsing fail.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.Filter(args, valuedFlags, switchFlags)

	fs := flag.NewFlagSet("cinepos", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.DatabaseDriver, "driver", cfg.DatabaseDriver, "database driver (sqlite|pgx)")
	fs.BoolVar(&cfg.InMemory, "m", cfg.InMemory, "in-memory sqlite database")
	fs.StringVar(&cfg.SeatsFile, "seats", cfg.SeatsFile, "CSV seat feed")
	fs.StringVar(&cfg.ProductsFile, "products", cfg.ProductsFile, "CSV product feed")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "output directory for receipts and exports")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address for distributed locks")
	fs.DurationVar(&cfg.LockTTL, "lock-ttl", cfg.LockTTL, "distributed lock lifetime")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "S3 bucket for receipts")
	fs.BoolVar(&cfg.InitGrid, "grid", cfg.InitGrid, "seed the seat grid when empty")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	return nil
}
