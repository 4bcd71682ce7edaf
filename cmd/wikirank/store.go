package main

import (
	"context"
	"time"

	"github.com/kailas-cloud/wikirank/internal/config"
	"github.com/kailas-cloud/wikirank/internal/db"
	"github.com/kailas-cloud/wikirank/internal/db/driver"
)

// openStore creates the store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	return driver.Open(ctx, driver.Config{
		Driver:         cfg.Driver,
		URI:            cfg.URI,
		Addrs:          cfg.Addrs,
		Username:       cfg.Username,
		Password:       cfg.Password,
		Database:       cfg.Name,
		Collection:     cfg.Collection,
		KeyPrefix:      cfg.KeyPrefix,
		Path:           cfg.Path,
		ConnectTimeout: time.Duration(cfg.ReadinessTimeout) * time.Second,
	})
}
