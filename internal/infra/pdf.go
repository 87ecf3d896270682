package infra

// Receipt PDF generation using go-pdf/fpdf. Produces an A7-size thermal-style
// ticket: company header, sale number and timestamp, item table, loyalty
// discount line when applicable, tax and bold total.

import (
	"fmt"
	"os"
	"path/filepath"

	"novapos/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateReceiptPDF writes a PDF receipt for a completed sale into
// storagePath (created if needed) and returns the absolute file path.
func GenerateReceiptPDF(sale *model.Sale, companyName, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("receipt_%s.pdf", sale.SaleNumber)
	filePath := filepath.Join(storagePath, fileName)

	// A7 ≈ 74mm × 105mm — close to thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, companyName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sales receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, sale.SaleNumber, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	col1 := contentW * 0.52 // product name
	col2 := contentW * 0.16 // qty
	col3 := contentW * 0.32 // line total

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 4, "Item", "", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 4, "Qty", "", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 4, "Total", "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range sale.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		if len(name) > 24 {
			name = name[:24]
		}
		pdf.CellFormat(col1, 4, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 4, fmt.Sprintf("%d", item.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 4, item.Total.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	pdf.CellFormat(col1+col2, 4, "Subtotal", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 4, sale.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")

	if sale.Discount.IsPositive() {
		pdf.CellFormat(col1+col2, 4, "Loyalty discount", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 4, "-"+sale.Discount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.CellFormat(col1+col2, 4, "VAT 19%", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 4, sale.Tax.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, sale.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.Ln(2)
	pdf.CellFormat(contentW, 4, "Payment: "+sale.PaymentMethod, "", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}
