package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanLeiria/cribs/internal/compare"
	"github.com/DanLeiria/cribs/internal/training"
)

const rawHeader = "Type,District,City,Price,TotalArea,LivingArea,TotalRooms,NumberOfBedrooms,Garage,EnergyCertificate,ConstructionYear,NumberOfBathrooms"

// writeFixture creates a raw file with fifteen land listings in Porto and in Lisboa and a
// config pointing every path into dir
func writeFixture(t *testing.T, dir string) string {
	t.Helper()

	var raw strings.Builder
	raw.WriteString(rawHeader + "\n")
	for i := 1; i <= 30; i++ {
		district := "Porto"
		if i%2 == 0 {
			district = "Lisboa"
		}
		fmt.Fprintf(&raw, "Land,%s,%s,%d,10,,,,,No Certificate,,\n", district, district, 1000+i)
	}
	rawPath := filepath.Join(dir, "raw", "raw-data.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(rawPath), 0755))
	require.NoError(t, os.WriteFile(rawPath, []byte(raw.String()), 0644))

	cfg := fmt.Sprintf(`
paths:
  raw: %[1]s/raw/raw-data.csv
  unified: %[1]s/clean/cleaned-data.csv
  buildings: %[1]s/clean/buildings-data.csv
  land: %[1]s/clean/land-data.csv
  house: %[1]s/clean/house-data.csv
  apartment: %[1]s/clean/apartment-data.csv
  database: %[1]s/cross-val/folds.db
  report: %[1]s/report/districts.geojson
logging:
  level: error
`, dir)
	cfgPath := filepath.Join(dir, "cribs.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	return cfgPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if app.closeLog != nil {
		require.NoError(t, app.closeLog())
		app.closeLog = nil
	}
	return out.String(), err
}

func TestCommands_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFixture(t, dir)

	out, err := execute(t, "run", "--config", cfgPath, "--folds", "3")
	require.NoError(t, err, out)
	assert.Contains(t, out, "saved partition")
	assert.FileExists(t, filepath.Join(dir, "clean", "land-data.csv"))
	assert.FileExists(t, filepath.Join(dir, "cross-val", "folds.db"))

	out, err = execute(t, "train", "--config", cfgPath)
	require.NoError(t, err, out)
	var report training.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Folds, 3)
	assert.Equal(t, -1, report.Holdout.Fold)
	assert.Equal(t, 6, report.Holdout.ValidationSize)

	out, err = execute(t, "train", "--config", cfgPath, "--list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "RECORDS")
	assert.Contains(t, out, "30")

	queryPath := filepath.Join(dir, "query.json")
	require.NoError(t, os.WriteFile(queryPath, []byte(`{"City": "Porto", "AreaAssigned": 10, "Price": 1008}`), 0644))
	out, err = execute(t, "compare", "--config", cfgPath, "-f", queryPath)
	require.NoError(t, err, out)
	var cmp compare.Comparison
	require.NoError(t, json.Unmarshal([]byte(out), &cmp))
	assert.Equal(t, 15, cmp.Matches)
	assert.Equal(t, 100.8, cmp.PricePerSqm)

	out, err = execute(t, "report", "--config", cfgPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Wrote 2 districts")
	assert.FileExists(t, filepath.Join(dir, "report", "districts.geojson"))
}

func TestCommands_Errors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFixture(t, dir)

	_, err := execute(t, "split", "--config", cfgPath, "--variant", "castle")
	assert.ErrorContains(t, err, "unknown pipeline variant")

	_, err = execute(t, "split", "--config", cfgPath, "--variant", "house")
	assert.ErrorContains(t, err, "run 'cribs preprocess' first")

	_, err = execute(t, "preprocess", "--config", filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}
