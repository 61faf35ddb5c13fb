package config

import (
	"fmt"
	"strings"
)

// Storage drivers accepted by StorageConfig.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// StorageConfig selects the record store backing the contract collections.
// It is embedded by every command that opens the repository.
type StorageConfig struct {
	Driver      string `env:"CONTRACTDESK_STORAGE_DRIVER" envDefault:"sqlite"`
	DBPath      string `env:"CONTRACTDESK_DB_PATH" envDefault:"data/contractdesk.db"`
	PostgresURL string `env:"CONTRACTDESK_POSTGRES_URL"`
}

// Normalize lowercases the driver and validates driver-specific settings.
func (c *StorageConfig) Normalize() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	c.DBPath = strings.TrimSpace(c.DBPath)
	c.PostgresURL = strings.TrimSpace(c.PostgresURL)
	switch c.Driver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("storage: db path is required for %s", DriverSQLite)
		}
	case DriverPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("storage: postgres url is required for %s", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage: unknown driver %q", c.Driver)
	}
	return nil
}
