package source

import (
	"context"
	"errors"
	"testing"

	"github.com/mtlprog/carfinder/internal/domain"
)

type failingFetcher struct{ name string }

func (f failingFetcher) Name() string { return f.name }

func (f failingFetcher) FetchListings(context.Context) ([]domain.Listing, error) {
	return nil, errors.New("blocked")
}

func TestStaticReturnsCopy(t *testing.T) {
	s := NewStatic("demo", SampleListings())

	first, err := s.FetchListings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first[0].Title = "changed"

	second, _ := s.FetchListings(context.Background())
	if second[0].Title != "2021 Ford F-150" {
		t.Errorf("Static leaked its backing slice: %q", second[0].Title)
	}
}

func TestSampleListingsValid(t *testing.T) {
	for _, l := range SampleListings() {
		if err := l.Validate(); err != nil {
			t.Errorf("%s: %v", l.Title, err)
		}
	}
}

func TestMultiSkipsFailingSource(t *testing.T) {
	m := NewMulti(failingFetcher{name: "Kijiji"}, NewStatic("demo", SampleListings()))

	listings, err := m.FetchListings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 3 {
		t.Errorf("listings = %d, want 3", len(listings))
	}
	if m.Name() != "Kijiji+demo" {
		t.Errorf("Name = %q", m.Name())
	}
}

func TestMultiAllFail(t *testing.T) {
	m := NewMulti(failingFetcher{name: "a"}, failingFetcher{name: "b"})

	if _, err := m.FetchListings(context.Background()); err == nil {
		t.Fatal("expected error when every source fails")
	}
}

func TestMultiKeepsSourceOrder(t *testing.T) {
	a := NewStatic("a", []domain.Listing{{Title: "first"}})
	b := NewStatic("b", []domain.Listing{{Title: "second"}, {Title: "third"}})

	listings, err := NewMulti(a, b).FetchListings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{listings[0].Title, listings[1].Title, listings[2].Title}
	if got[0] != "first" || got[1] != "second" || got[2] != "third" {
		t.Errorf("order = %v", got)
	}
}
