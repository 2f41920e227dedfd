package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/DanLeiria/cribs/internal/database"
	"github.com/DanLeiria/cribs/internal/dataset"
	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/preprocess"
)

// resolveVariant falls back to the configured split variant when name is empty
func resolveVariant(name string) (preprocess.Variant, error) {
	if name == "" {
		name = app.cfg.Split.Variant
	}
	return preprocess.ParseVariant(name)
}

func loadCleaned(v preprocess.Variant) (*models.Table, error) {
	path, err := app.cfg.PathFor(v.String())
	if err != nil {
		return nil, err
	}
	t, err := dataset.ReadCSV(path, models.ColID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w (run 'cribs preprocess' first)", v, err)
	}
	return t, nil
}

func openDatabase() (*database.Database, error) {
	db, err := database.NewDatabase(app.cfg.Paths.Database)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
