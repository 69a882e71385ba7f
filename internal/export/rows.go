package export

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/carfinder/internal/domain"
)

const (
	sheetAccepted = "ACCEPTED"
	sheetAll      = "ALL"
)

var resultHeader = []any{
	"Title", "Source", "Price CAD", "Price USD", "Value USD", "Profit USD",
	"Required USD", "Confidence", "Miles", "Accepted", "Dealer", "VIN", "URL",
}

// buildRows renders results as spreadsheet rows, header first.
// Money columns are numbers; missing values are empty cells.
func buildRows(results []domain.ValuationResult) [][]any {
	data := make([][]any, 0, len(results)+1)
	data = append(data, resultHeader)
	return append(data, lo.Map(results, func(res domain.ValuationResult, _ int) []any {
		return []any{
			res.Listing.Title,
			res.Listing.Source,
			toFloat(res.Listing.PriceLocal),
			toFloat(res.PriceTarget),
			ptrFloat(res.Value),
			ptrFloat(res.Profit),
			toFloat(res.RequiredProfit),
			string(res.Confidence),
			ptrInt(res.MileageMiles),
			res.Accepted,
			res.Listing.Dealer,
			domain.NormalizeVIN(res.Listing.VIN),
			res.Listing.URL,
		}
	})...)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}

func ptrInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
