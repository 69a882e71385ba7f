package currency

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		expense string
		rate    string
		want    string
	}{
		{"confirmed F-150", "39000", "2000", "0.73", "29930"},
		{"fallback CR-V", "27000", "2000", "0.73", "21170"},
		{"no expense", "10000", "0", "0.5", "5000"},
		{"zero price", "0", "2000", "0.73", "1460"},
		{"fractional price", "12345.67", "0", "0.73", "9012.3391"},
		{"rate of one", "500", "250", "1", "750"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(
				decimal.RequireFromString(tt.price),
				decimal.RequireFromString(tt.expense),
				decimal.RequireFromString(tt.rate),
			)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("Normalize(%s, %s, %s) = %s, want %s", tt.price, tt.expense, tt.rate, got, want)
			}
		})
	}
}

// The multiply convention is pinned: a CAD→USD rate is below one and
// converting must make the USD amount smaller than the CAD amount.
func TestDefaultRateMultiplies(t *testing.T) {
	if !DefaultCADToUSD.LessThan(decimal.NewFromInt(1)) {
		t.Fatalf("DefaultCADToUSD = %s, want a CAD→USD rate below 1", DefaultCADToUSD)
	}
	cad := decimal.NewFromInt(10000)
	usd := Normalize(cad, decimal.Zero, DefaultCADToUSD)
	if !usd.Equal(decimal.NewFromInt(7300)) {
		t.Errorf("10000 CAD = %s USD, want 7300", usd)
	}
}

func TestInvertRate(t *testing.T) {
	got := InvertRate(decimal.RequireFromString("1.25"))
	if !got.Equal(decimal.RequireFromString("0.8")) {
		t.Errorf("InvertRate(1.25) = %s, want 0.8", got)
	}

	if got := InvertRate(decimal.Zero); !got.IsZero() {
		t.Errorf("InvertRate(0) = %s, want 0", got)
	}
	if got := InvertRate(decimal.NewFromInt(-2)); !got.IsZero() {
		t.Errorf("InvertRate(-2) = %s, want 0", got)
	}
}

func TestKmToMiles(t *testing.T) {
	tests := []struct {
		km   int
		want int
	}{
		{0, 0},
		{100, 62},
		{84500, 52506},
		{160934, 100000},
	}

	for _, tt := range tests {
		if got := KmToMiles(tt.km); got != tt.want {
			t.Errorf("KmToMiles(%d) = %d, want %d", tt.km, got, tt.want)
		}
	}
}
