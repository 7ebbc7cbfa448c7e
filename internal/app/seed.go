package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/simp-lee/sitesapi/internal/config"
	"github.com/simp-lee/sitesapi/internal/domain"
	"github.com/simp-lee/sitesapi/internal/module/site"
)

// Seed migrates the sites table and imports the JSON array of sites read
// from r. With replace set, existing rows with the same siteId are
// overwritten; otherwise a duplicate aborts the whole import.
func Seed(ctx context.Context, cfg *config.Config, r io.Reader, replace bool) (int, error) {
	if cfg == nil {
		return 0, errors.New("config is nil")
	}

	sites, err := DecodeSites(r)
	if err != nil {
		return 0, err
	}

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return 0, fmt.Errorf("setup logger: %w", err)
	}
	defer func() {
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return 0, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if err := config.CloseDatabase(db); err != nil {
			log.Error("database close error", slog.Any("error", err))
		}
	}()

	if err := config.Migrate(db, &domain.Site{}); err != nil {
		return 0, err
	}

	svc := site.NewSiteService(site.NewSiteRepository(db), cfg.Pagination.PageOptions())
	n, err := svc.ImportSites(ctx, sites, replace)
	if err != nil {
		return 0, fmt.Errorf("import sites: %w", err)
	}

	log.InfoContext(ctx, "sites imported", slog.Int("count", n), slog.Bool("replace", replace))
	return n, nil
}

// DecodeSites reads a JSON array of sites. Unknown fields are rejected so a
// misspelled key does not silently import an empty value.
func DecodeSites(r io.Reader) ([]domain.Site, error) {
	if r == nil {
		return nil, errors.New("sites input is nil")
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var sites []domain.Site
	if err := dec.Decode(&sites); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("decode sites: input is empty")
		}
		return nil, fmt.Errorf("decode sites: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode sites: unexpected data after the array")
	}
	return sites, nil
}
