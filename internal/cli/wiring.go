package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/cinepos/internal/config"
	"github.com/dmitrijs2005/cinepos/internal/export"
	"github.com/dmitrijs2005/cinepos/internal/feeds"
	"github.com/dmitrijs2005/cinepos/internal/locks"
	"github.com/dmitrijs2005/cinepos/internal/logging"
	"github.com/dmitrijs2005/cinepos/internal/services"
)

// newRedisClient is a seam for tests.
var newRedisClient = func(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// newLocker picks the Redis locker when an address is configured and the
// in-process keyed mutex otherwise. The returned func closes the client.
func newLocker(ctx context.Context, cfg *config.Config, log logging.Logger) (locks.Locker, func() error, error) {
	if cfg.RedisAddr == "" {
		return locks.NewKeyedMutex(), nil, nil
	}

	client := newRedisClient(cfg.RedisAddr)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}

	log.Info(ctx, "using redis locks", "addr", cfg.RedisAddr, "ttl", cfg.LockTTL)
	return locks.NewRedisLocker(client, cfg.LockTTL, log.With("component", "locks")), client.Close, nil
}

// newExporter always writes receipts under the data directory and also
// archives them to S3 when a bucket is configured.
func newExporter(ctx context.Context, cfg *config.Config) (services.ReceiptExporter, error) {
	file := export.NewFileExporter(cfg.DataDir)
	if cfg.S3Bucket == "" {
		return file, nil
	}

	s3, err := export.NewS3Exporter(ctx, export.S3Config{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
	})
	if err != nil {
		return nil, err
	}
	return export.Multi(file, s3), nil
}

// bootstrap fills the catalogue: the seat and product feeds, then the
// default grid if no seat exists yet. Bad feed records are skipped; a
// missing feed file is fatal.
func (a *App) bootstrap(ctx context.Context) error {
	if path := a.config.SeatsFile; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("seats feed: %w", err)
		}
		defer f.Close()
		if _, err := a.seats.LoadFromFeed(ctx, feeds.Seats(f)); err != nil {
			return fmt.Errorf("seats feed %s: %w", path, err)
		}
	}

	if a.config.InitGrid {
		if _, err := a.seats.EnsureGrid(ctx); err != nil {
			return fmt.Errorf("seat grid: %w", err)
		}
	}

	if path := a.config.ProductsFile; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("products feed: %w", err)
		}
		defer f.Close()
		if _, err := a.products.LoadFromFeed(ctx, feeds.Products(f)); err != nil {
			return fmt.Errorf("products feed %s: %w", path, err)
		}
	}
	return nil
}
