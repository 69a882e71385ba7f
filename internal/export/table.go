package export

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mtlprog/carfinder/internal/domain"
)

// RenderTable prints the accepted listings of report as a table, followed
// by a one-line summary of the batch.
func RenderTable(w io.Writer, report domain.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Title", "Source", "Price CAD", "Price USD", "MMR USD", "Profit", "Required", "Confidence", "Mileage", "Dealer", "URL"})

	for _, res := range report.AcceptedResults() {
		t.AppendRow(table.Row{
			res.Listing.Title,
			res.Listing.Source,
			domain.FormatMoney(res.Listing.PriceLocal),
			domain.FormatMoney(res.PriceTarget),
			domain.FormatMoneyPtr(res.Value),
			domain.FormatMoneyPtr(res.Profit),
			domain.FormatMoney(res.RequiredProfit),
			string(res.Confidence),
			mileage(res.Listing.MileageKm, res.MileageMiles),
			res.Listing.Dealer,
			res.Listing.URL,
		})
	}
	t.Render()

	fmt.Fprintln(w, Summary(report))
}

// Summary describes a batch in one line.
func Summary(report domain.Report) string {
	return fmt.Sprintf("%d listings: %d accepted, %d dropped, %d unknown, %d confirmed, %d estimated (rate %s)",
		report.Total, report.Accepted, report.Dropped, report.Unknown,
		report.Confirmed, report.Estimated, report.ConversionRate.String())
}

// mileage renders "50000 km / 31069 mi", or "-" when unknown.
func mileage(km, miles *int) string {
	if km == nil || miles == nil {
		return "-"
	}
	return fmt.Sprintf("%d km / %d mi", *km, *miles)
}
