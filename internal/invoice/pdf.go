// Package invoice renders purchase invoices as PDF documents.
package invoice

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"storefront/internal/domain"
)

// Layout in points on an A4 portrait page.
const (
	pageW     = 595.0
	pageLimit = 800.0
	margin    = 40.0
	rowH      = 100.0
	thumb     = 90.0

	colName     = margin + 100
	colPrice    = margin + 260
	colQty      = margin + 340
	colSubtotal = margin + 420
)

type Options struct {
	LogoPath  string // drawn in the header when the file exists
	ImagesDir string // where item images are looked up
}

// Render writes inv as a PDF to w and returns the number of pages.
// Missing or unreadable images are skipped, never fatal.
func Render(w io.Writer, inv domain.Invoice, opt Options) (int, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// header band
	pdf.SetFillColor(40, 116, 240)
	pdf.Rect(0, 0, pageW, 60, "F")
	if opt.LogoPath != "" {
		drawImage(pdf, opt.LogoPath, margin, 5, 50)
	}
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(255, 255, 255)
	title := tr("Purchase Invoice")
	pdf.Text(pageW/2-pdf.GetStringWidth(title)/2, 40, title)

	y := margin + 80
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFontSize(12)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(margin, y, tr("Customer details:"))
	y += 20

	keys := make([]string, 0, len(inv.Customer))
	for k := range inv.Customer {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Text(margin+10, y, tr(capitalize(k)+":"))
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(margin+120, y, tr(fit(pdf, inv.Customer[k], pageW-margin*2-120)))
		y += 18
	}

	y = tableHeader(pdf, tr, y)
	for _, it := range inv.Cart {
		if y+rowH > pageLimit {
			pdf.AddPage()
			y = tableHeader(pdf, tr, margin)
		}
		if it.Image != "" && opt.ImagesDir != "" {
			drawImage(pdf, filepath.Join(opt.ImagesDir, filepath.Base(it.Image)), margin, y, thumb)
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.Text(colName, y+25, tr(fit(pdf, it.Name, colPrice-colName-10)))
		pdf.SetFont("Helvetica", "", 11)
		pdf.Text(colPrice, y+25, money(it.Price))
		pdf.Text(colQty, y+25, strconv.Itoa(it.Quantity))
		pdf.Text(colSubtotal, y+25, money(it.Subtotal()))

		y += rowH
		pdf.SetDrawColor(200, 200, 200)
		pdf.SetLineWidth(0.5)
		pdf.Line(margin, y, pageW-margin, y)
		y += 5
	}

	if y+50 > pageLimit {
		pdf.AddPage()
		y = margin
	}
	y += 10
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(margin+370, y, tr("Total: "+money(inv.Total)))
	y += 30
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(margin, y, tr("Thank you for your purchase!"))

	pages := pdf.PageNo()
	return pages, pdf.Output(w)
}

func tableHeader(pdf *fpdf.Fpdf, tr func(string) string, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.Rect(margin, y, pageW-margin*2, 25, "F")
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(colName, y+17, tr("Product"))
	pdf.Text(colPrice, y+17, tr("Price"))
	pdf.Text(colQty, y+17, tr("Quantity"))
	pdf.Text(colSubtotal, y+17, tr("Subtotal"))
	return y + 30
}

// drawImage places a square image when the file exists and fpdf can decode
// it; failures are cleared so the rest of the document still renders.
func drawImage(pdf *fpdf.Fpdf, path string, x, y, size float64) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		return
	}
	if st, err := os.Stat(path); err != nil || !st.Mode().IsRegular() {
		return
	}
	pdf.ImageOptions(path, x, y, size, size, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	if !pdf.Ok() {
		pdf.ClearError()
	}
}

func money(v float64) string { return "$" + strconv.FormatFloat(v, 'f', 2, 64) }

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// fit truncates s so it renders within width at the current font.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	rs := []rune(s)
	for len(rs) > 0 && pdf.GetStringWidth(string(rs)+"...") > width {
		rs = rs[:len(rs)-1]
	}
	return string(rs) + "..."
}
