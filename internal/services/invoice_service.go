package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/url"
	"os"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/invoice"
	"storefront/internal/media"
	"storefront/internal/validate"
)

// InvoiceResult is what the client needs to fetch or share a new invoice.
type InvoiceResult struct {
	File        string `json:"archivo"`
	Link        string `json:"linkPublico"`
	WhatsAppURL string `json:"urlWhatsApp,omitempty"`
}

type InvoiceService struct {
	Files    *media.Store // uploads directory, served under /uploads
	Layout   invoice.Options
	WhatsApp string // destination number for the share link; empty disables it
	Now      func() time.Time
}

func NewInvoiceService(files *media.Store, layout invoice.Options, whatsapp string) *InvoiceService {
	return &InvoiceService{Files: files, Layout: layout, WhatsApp: whatsapp, Now: time.Now}
}

// Create renders the invoice, stores the PDF with a JSON copy of the order
// next to it and returns public links built on baseURL.
func (s *InvoiceService) Create(inv domain.Invoice, baseURL string) (InvoiceResult, error) {
	if len(inv.Cart) == 0 {
		return InvoiceResult{}, inputErr("the cart is empty")
	}
	inv.Total = 0
	for i, it := range inv.Cart {
		if it.Price < 0 {
			return InvoiceResult{}, inputErr("item %d: price must not be negative", i+1)
		}
		if it.Quantity <= 0 {
			return InvoiceResult{}, inputErr("item %d: quantity must be a positive integer", i+1)
		}
		inv.Total += it.Subtotal()
	}
	if inv.Customer == nil {
		inv.Customer = map[string]string{}
	}
	now := s.Now()
	inv.IssuedAt = now.UTC()

	var buf bytes.Buffer
	if _, err := invoice.Render(&buf, inv, s.Layout); err != nil {
		return InvoiceResult{}, fmt.Errorf("render invoice: %w", err)
	}
	sidecar, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return InvoiceResult{}, err
	}

	name := fmt.Sprintf("purchase_%s_%d.pdf", validate.SafeName(inv.Customer["nombre"]), now.UnixMilli())
	if err := s.Files.WriteFile(name, buf.Bytes()); err != nil {
		return InvoiceResult{}, err
	}
	if err := s.Files.WriteFile(sidecarName(name), sidecar); err != nil {
		_ = s.Files.Remove(name)
		return InvoiceResult{}, err
	}

	res := InvoiceResult{File: name, Link: publicURL(baseURL, name)}
	if s.WhatsApp != "" {
		msg := "Hola! Aquí está mi compra en pdf: " + res.Link
		res.WhatsAppURL = "https://wa.me/" + s.WhatsApp + "?text=" + strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
	}
	return res, nil
}

// List returns stored invoice PDFs, newest first.
func (s *InvoiceService) List(baseURL string) ([]domain.InvoiceFile, error) {
	files, err := s.Files.List(".pdf")
	if err != nil {
		return nil, err
	}
	out := make([]domain.InvoiceFile, 0, len(files))
	for _, f := range files {
		out = append(out, domain.InvoiceFile{
			Name:   f.Name,
			URL:    publicURL(baseURL, f.Name),
			Date:   f.ModTime,
			SizeKB: fmt.Sprintf("%.2f", float64(f.Size)/1024),
		})
	}
	return out, nil
}

// Delete removes an invoice PDF and its JSON copy. A missing PDF returns
// os.ErrNotExist; a missing JSON copy is ignored.
func (s *InvoiceService) Delete(name string) error {
	name, ok := validate.FileName(name)
	if !ok || !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return inputErr("invalid invoice name")
	}
	if err := s.Files.Remove(name); err != nil {
		return err
	}
	if err := s.Files.Remove(sidecarName(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// UploadPDF stores a client-supplied PDF and returns its public URL.
func (s *InvoiceService) UploadPDF(fh *multipart.FileHeader, baseURL string) (string, error) {
	if fh == nil {
		return "", inputErr("no PDF file received")
	}
	mt, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil || mt != "application/pdf" {
		return "", inputErr("only PDF files are allowed")
	}
	name, err := s.Files.Save(fh, "documento", ".pdf")
	if err != nil {
		return "", err
	}
	return publicURL(baseURL, name), nil
}

func sidecarName(pdf string) string {
	return pdf[:len(pdf)-len(".pdf")] + ".json"
}

func publicURL(baseURL, name string) string {
	return baseURL + "/uploads/" + url.PathEscape(name)
}
