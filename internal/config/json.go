package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cinepos/internal/flagx"
	"github.com/dmitrijs2005/cinepos/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from zero values so a partial file only
// overrides what it names.
type JsonConfig struct {
	DatabaseDriver *string         `json:"database_driver"`
	DatabaseDSN    *string         `json:"database_dsn"`
	InMemory       *bool           `json:"in_memory"`
	SeatsFile      *string         `json:"seats_file"`
	ProductsFile   *string         `json:"products_file"`
	DataDir        *string         `json:"data_dir"`
	InitGrid       *bool           `json:"init_grid"`
	LogLevel       *string         `json:"log_level"`
	RedisAddr      *string         `json:"redis_addr"`
	LockTTL        *timex.Duration `json:"lock_ttl"`
	S3Bucket       *string         `json:"s3_bucket"`
	S3Region       *string         `json:"s3_region"`
	S3BaseEndpoint *string         `json:"s3_base_endpoint"`
	S3AccessKey    *string         `json:"s3_access_key"`
	S3SecretKey    *string         `json:"s3_secret_key"`
}

// parseJson overlays cfg with values loaded from the JSON file named by
// -c/-config in args. Without such a flag it leaves cfg untouched.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.DatabaseDriver, jc.DatabaseDriver)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setBool(&cfg.InMemory, jc.InMemory)
	setString(&cfg.SeatsFile, jc.SeatsFile)
	setString(&cfg.ProductsFile, jc.ProductsFile)
	setString(&cfg.DataDir, jc.DataDir)
	setBool(&cfg.InitGrid, jc.InitGrid)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	if jc.LockTTL != nil {
		cfg.LockTTL = jc.LockTTL.Duration
	}
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
