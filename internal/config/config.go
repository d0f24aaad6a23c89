package config

import "time"

// Config holds runtime settings for the cinepos CLI.
type Config struct {
	DatabaseDriver string
	DatabaseDSN    string
	InMemory       bool

	SeatsFile    string
	ProductsFile string
	DataDir      string
	InitGrid     bool

	LogLevel string

	// RedisAddr enables distributed locking when non-empty; otherwise
	// locks are held in-process.
	RedisAddr string
	// LockTTL is the Redis lease; it is renewed every LockTTL/3 while held.
	LockTTL   time.Duration

	// S3Bucket enables receipt archiving when non-empty.
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "cinepos.db"
	c.InMemory = false
	c.SeatsFile = ""
	c.ProductsFile = ""
	c.DataDir = "data"
	c.InitGrid = true
	c.LogLevel = "info"
	c.RedisAddr = ""
	c.LockTTL = 10 * time.Second
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.S3AccessKey = ""
	c.S3SecretKey = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags from args (if present). Later
// sources take precedence over earlier ones.
//
// args excludes the program name, as in os.Args[1:].
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
