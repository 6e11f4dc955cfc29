package payroll

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

// PayslipStore persists a rendered payslip and returns the URL it is served from.
type PayslipStore interface {
	Save(ctx context.Context, name string, content []byte) (string, error)
}

type fileStore struct {
	dir     string
	baseURL string
}

// NewFileStore writes payslips under dir; baseURL is the public prefix the
// static file route serves dir from.
func NewFileStore(dir, baseURL string) PayslipStore {
	return &fileStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *fileStore) Save(ctx context.Context, name string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create payslip dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), content, 0o644); err != nil {
		return "", fmt.Errorf("write payslip %s: %w", name, err)
	}
	return s.baseURL + "/" + name, nil
}

func payslipFileName(period PayrollPeriod, record PayrollRecord) string {
	return fmt.Sprintf("payslip_%04d%02d_%s.pdf", period.Year, period.Month, record.ID)
}

func payslipLines(period PayrollPeriod, record PayrollRecord) []string {
	row := func(label string, v decimal.Decimal) string {
		return fmt.Sprintf("%-22s %15s", label, v.StringFixed(2))
	}

	lines := []string{
		fmt.Sprintf("Payslip %04d-%02d", period.Year, period.Month),
		fmt.Sprintf("Period: %s to %s", period.StartDate.Format(dateLayout), period.EndDate.Format(dateLayout)),
		fmt.Sprintf("Employee: %s %s", record.EmployeeNumber, record.EmployeeName),
		"",
		"Earnings",
		row("Base salary", record.BaseSalary),
		row("Housing allowance", record.HousingAllowance),
		row("Transport allowance", record.TransportAllowance),
		row("Other allowances", record.OtherAllowances),
		row("Bonuses", record.Bonuses),
		row("Gross salary", record.GrossSalary),
		"",
		"Deductions",
		row("Social insurance", record.SocialInsurance),
		row("Loan installment", record.LoanDeduction),
		row(fmt.Sprintf("Absence (%d days)", record.AbsentDays), record.AbsenceDeduction),
		row(fmt.Sprintf("Late (%d min)", record.LateMinutes), record.LateDeduction),
		row("Total deductions", record.TotalDeductions),
		"",
		row("Net salary", record.NetSalary),
	}
	if record.PaymentDate != nil {
		lines = append(lines, "Paid on "+record.PaymentDate.Format(dateLayout))
	}
	if record.NetFloored {
		lines = append(lines, "Deductions exceeded gross salary; net pay was set to zero.")
	}
	return lines
}

// buildSimplePayslipPDF renders lines as a single-page PDF with the
// built-in Courier font.
func buildSimplePayslipPDF(lines []string) ([]byte, error) {
	if len(lines) == 0 {
		lines = []string{"Payslip"}
	}

	var content strings.Builder
	content.WriteString("BT\n/F1 11 Tf\n14 TL\n50 800 Td\n")
	for i, line := range lines {
		escaped := pdfEscape(line)
		if i == 0 {
			content.WriteString(fmt.Sprintf("(%s) Tj\n", escaped))
			continue
		}
		content.WriteString(fmt.Sprintf("T* (%s) Tj\n", escaped))
	}
	content.WriteString("ET")

	stream := content.String()
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>\nendobj\n",
		"4 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>\nendobj\n",
		fmt.Sprintf("5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream),
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects)+1)
	offsets = append(offsets, 0)

	for _, obj := range objects {
		offsets = append(offsets, out.Len())
		out.WriteString(obj)
	}

	xrefStart := out.Len()
	out.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)))
	out.WriteString("0000000000 65535 f \n")
	for i := 1; i < len(offsets); i++ {
		out.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	out.WriteString(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(offsets), xrefStart))

	return out.Bytes(), nil
}

func pdfEscape(v string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)")
	return replacer.Replace(v)
}
