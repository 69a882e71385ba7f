package database

import (
	"slices"
	"testing"
	"testing/fstest"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_exchange_rates.up.sql":  {Data: []byte("CREATE TABLE exchange_rates ();")},
		"001_scan_runs.up.sql":       {Data: []byte("CREATE TABLE scan_runs ();")},
		"001_scan_runs.down.sql":     {Data: []byte("DROP TABLE scan_runs;")},
		"README.md":                  {Data: []byte("notes")},
		"archive/000_old.up.sql":     {Data: []byte("SELECT 1;")},
		"003_scan_runs_index.up.sql": {Data: []byte("CREATE INDEX ...;")},
	}

	tests := []struct {
		name    string
		applied map[string]bool
		want    []string
	}{
		{
			name:    "fresh database",
			applied: map[string]bool{},
			want:    []string{"001_scan_runs.up.sql", "002_exchange_rates.up.sql", "003_scan_runs_index.up.sql"},
		},
		{
			name:    "partially applied",
			applied: map[string]bool{"001_scan_runs.up.sql": true},
			want:    []string{"002_exchange_rates.up.sql", "003_scan_runs_index.up.sql"},
		},
		{
			name: "up to date",
			applied: map[string]bool{
				"001_scan_runs.up.sql":       true,
				"002_exchange_rates.up.sql":  true,
				"003_scan_runs_index.up.sql": true,
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pendingMigrations(fsys, tt.applied)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("pending = %v, want %v", got, tt.want)
			}
		})
	}
}
