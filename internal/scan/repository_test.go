package scan

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if _, err := repo.GetLatest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetLatest on empty repo: err = %v, want ErrNotFound", err)
	}

	for i := range 3 {
		id, err := repo.Save(ctx, Run{Total: i})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if id != int64(i+1) {
			t.Errorf("id = %d, want %d", id, i+1)
		}
	}

	latest, err := repo.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if latest.ID != 3 {
		t.Errorf("latest ID = %d, want 3", latest.ID)
	}

	byID, err := repo.GetByID(ctx, 2)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.Total != 1 {
		t.Errorf("run 2 Total = %d, want 1", byID.Total)
	}
	if _, err := repo.GetByID(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(42): err = %v, want ErrNotFound", err)
	}

	runs, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != 3 || runs[1].ID != 2 {
		t.Errorf("List(2) ids = %v, want [3 2]", ids(runs))
	}

	all, _ := repo.List(ctx, 0)
	if len(all) != 3 {
		t.Errorf("List(0) = %d runs, want 3", len(all))
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, 30},
		{0, 30},
		{10, 10},
		{365, 365},
		{1000, 365},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func ids(runs []Run) []int64 {
	out := make([]int64, len(runs))
	for i, r := range runs {
		out[i] = r.ID
	}
	return out
}
