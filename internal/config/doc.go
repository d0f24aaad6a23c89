// Package config loads runtime configuration for the cinepos CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string         database DSN (file path for sqlite, URL for pgx)
//	-driver string    database driver: sqlite or pgx
//	-m                keep the sqlite database in memory
//	-seats string     CSV seat feed loaded at startup
//	-products string  CSV product feed loaded at startup
//	-data string      directory for receipts and seat exports
//	-l string         log level: debug, info, warn, error
//	-redis string     redis address for distributed locks
//	-lock-ttl string  lifetime of a distributed lock, e.g. "10s"
//	-s3-bucket string bucket receiving a copy of every receipt
//	-grid             seed the A1–E7 seat grid when no seats exist
//
// # JSON schema
//
// The JSON loader uses timex.Duration for lock_ttl, so the value can be either
// a string like "10s" or integer nanoseconds:
//
//	{
//	  "database_driver": "sqlite",
//	  "database_dsn": "cinepos.db",
//	  "in_memory": false,
//	  "seats_file": "seats.csv",
//	  "products_file": "products.csv",
//	  "data_dir": "data",
//	  "log_level": "info",
//	  "redis_addr": "",
//	  "lock_ttl": "10s",
//	  "s3_bucket": "",
//	  "s3_region": "us-east-1",
//	  "s3_base_endpoint": "",
//	  "s3_access_key": "",
//	  "s3_secret_key": "",
//	  "init_grid": true
//	}
//
// Keys missing from the file keep their previous value.
package config
