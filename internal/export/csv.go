// Package export renders reports and vouchers into downloadable
// documents.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// dateLayout is the human-readable form used in export headers.
const dateLayout = "Jan 02, 2006"

// ReportCSV renders a report as CSV: a summary block followed by the
// per-category expense breakdown. rng may be nil for an all-time
// report.
func ReportCSV(rep core.Report, rng *core.DateRange) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"Financial Report"},
		{},
	}

	if period := formatPeriod(rng); period != "" {
		records = append(records,
			[]string{fmt.Sprintf("Period: %s", period)},
			[]string{},
		)
	}

	records = append(records,
		[]string{"Summary"},
		[]string{"Total Income", core.FormatUSD(rep.TotalIncome)},
		[]string{"Total Expenses", core.FormatUSD(rep.TotalExpenses)},
		[]string{"Net Income", core.FormatUSD(rep.NetIncome)},
	)

	if len(rep.ExpensesByCategory) > 0 {
		records = append(records,
			[]string{},
			[]string{"Expense Breakdown"},
			[]string{"Category", "Amount", "Transactions"},
		)
		for _, group := range rep.ExpensesByCategory {
			records = append(records, []string{
				group.Category,
				core.FormatUSD(group.Amount),
				fmt.Sprintf("%d", group.Count),
			})
		}
	}

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportFilename names the download after the export instant.
func ReportFilename(ext string, now time.Time) string {
	return fmt.Sprintf("financial-report-%d.%s", now.UnixMilli(), ext)
}

func formatPeriod(rng *core.DateRange) string {
	if rng == nil || rng.From.IsZero() {
		return ""
	}
	if rng.To.IsZero() {
		return fmt.Sprintf("From %s", rng.From.Format(dateLayout))
	}
	return fmt.Sprintf("%s - %s", rng.From.Format(dateLayout), rng.To.Format(dateLayout))
}
