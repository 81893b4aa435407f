package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"fintrack/internal/core"
)

// Brand palette used across generated documents.
var (
	brandGreen = [3]int{21, 128, 61}
	footerGray = [3]int{107, 114, 128}
	textDark   = [3]int{17, 24, 39}
)

// VoucherPDF renders a single voucher as an A4 document: brand header,
// voucher and transaction detail blocks, highlighted amount box and a
// footer naming the owner.
func VoucherPDF(v core.Voucher, ownerName, ownerEmail string, now time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Header band
	pdf.SetFillColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.Rect(0, 0, 210, 30, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.Text(20, 20, "FINTRACK")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(150, 20, "Transaction Voucher")

	pdf.SetTextColor(textDark[0], textDark[1], textDark[2])
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(20, 50, "VOUCHER DETAILS")
	pdf.SetDrawColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.SetLineWidth(0.5)
	pdf.Line(20, 55, 190, 55)

	pdf.SetFontSize(10)
	details := [][2]string{
		{"Voucher Number:", v.VoucherNumber},
		{"Date:", v.Date.Format(dateLayout)},
		{"Type:", strings.ToUpper(string(v.Type))},
		{"Status:", strings.ToUpper(string(v.Status))},
	}
	y := 70.0
	for _, d := range details {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Text(20, y, d[0])
		pdf.SetFont("Helvetica", "", 10)
		pdf.Text(70, y, d[1])
		y += 8
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(20, y+15, "TRANSACTION DETAILS")
	pdf.Line(20, y+20, 190, y+20)
	y += 35

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(20, y, "Title:")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(20, y+8, v.Title)
	y += 20

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(20, y, "Description:")
	pdf.SetFont("Helvetica", "", 12)
	lines := pdf.SplitText(v.Description, 150)
	for i, line := range lines {
		pdf.Text(20, y+8+float64(i)*6, line)
	}
	y += 8 + float64(len(lines))*6

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(20, y, "Category:")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(70, y, strings.ToUpper(v.Category))
	y += 15

	// Amount box
	pdf.SetFillColor(248, 250, 252)
	pdf.Rect(20, y, 170, 25, "F")
	pdf.Rect(20, y, 170, 25, "D")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(25, y+10, "AMOUNT:")
	pdf.SetFontSize(18)
	pdf.SetTextColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.Text(25, y+20, core.FormatUSD(v.Amount))

	// Footer
	y += 50
	pdf.SetTextColor(footerGray[0], footerGray[1], footerGray[2])
	pdf.SetFont("Helvetica", "", 8)
	if ownerName != "" || ownerEmail != "" {
		pdf.Text(20, y, "Generated for:")
		if ownerName != "" {
			pdf.Text(20, y+5, ownerName)
		}
		if ownerEmail != "" {
			pdf.Text(20, y+10, ownerEmail)
		}
	}
	pdf.Text(20, y+20, fmt.Sprintf("Generated on: %s", now.Format("Jan 02, 2006 15:04")))
	pdf.Text(20, y+25, "This is a computer-generated voucher and does not require a signature.")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render voucher pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// VoucherFilename names the download after the voucher number.
func VoucherFilename(v core.Voucher) string {
	return fmt.Sprintf("voucher-%s.pdf", v.VoucherNumber)
}

// ReportPDF renders a report as an A4 document mirroring the CSV
// layout: summary block first, then the expense breakdown.
func ReportPDF(rep core.Report, rng *core.DateRange) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetTextColor(textDark[0], textDark[1], textDark[2])
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(20, 30, "Financial Report")

	if period := formatPeriod(rng); period != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(20, 45, period)
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(20, 65, "Summary")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(20, 80, fmt.Sprintf("Total Income: %s", core.FormatUSD(rep.TotalIncome)))
	pdf.Text(20, 95, fmt.Sprintf("Total Expenses: %s", core.FormatUSD(rep.TotalExpenses)))
	pdf.Text(20, 110, fmt.Sprintf("Net Income: %s", core.FormatUSD(rep.NetIncome)))

	if len(rep.ExpensesByCategory) > 0 {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.Text(20, 135, "Expense Breakdown")
		pdf.SetFont("Helvetica", "", 12)
		y := 150.0
		for _, group := range rep.ExpensesByCategory {
			if y > 270 {
				pdf.AddPage()
				y = 30
			}
			pdf.Text(20, y, fmt.Sprintf("%s: %s (%d transactions)",
				group.Category, core.FormatUSD(group.Amount), group.Count))
			y += 15
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}
