package main

import (
	"io/fs"
	"slices"
	"strings"
	"testing"
)

func TestEmbeddedMigrations(t *testing.T) {
	sub, err := migrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	files, err := fs.Glob(sub, "*.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"001_scan_runs.up.sql", "002_exchange_rates.up.sql"}
	if !slices.Equal(files, want) {
		t.Fatalf("migrations = %v, want %v", files, want)
	}

	tables := map[string]string{
		"001_scan_runs.up.sql":      "scan_runs",
		"002_exchange_rates.up.sql": "exchange_rates",
	}
	for file, table := range tables {
		sql, err := fs.ReadFile(sub, file)
		if err != nil {
			t.Fatalf("%s: %v", file, err)
		}
		if !strings.Contains(string(sql), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("%s does not create %s", file, table)
		}
	}
}
