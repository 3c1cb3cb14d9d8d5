// Package ticketdoc renders tickets as QR images and printable PDFs.
package ticketdoc

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

const qrSize = 300

type Renderer struct {
	currency string
}

func NewRenderer(currency string) Renderer {
	return Renderer{currency: currency}
}

func (r Renderer) QRCode(payload string) ([]byte, error) {
	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	png, err := qr.PNG(qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR to PNG: %w", err)
	}
	return png, nil
}

func (r Renderer) PDF(ticket entities.Ticket, event entities.Event) ([]byte, error) {
	png, err := r.QRCode(ticket.QRPayload)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle(ticket.Code, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, pdf.UnicodeTranslatorFromDescriptor("")(event.Title), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		"Ticket: " + ticket.Code,
		"Starts: " + event.StartsAt.Format("02 Jan 2006 15:04 MST"),
		"Ends: " + event.EndsAt.Format("02 Jan 2006 15:04 MST"),
		fmt.Sprintf("Admits: %d", ticket.Quantity),
		"Price: " + entities.FormatAmount(ticket.Price, r.currency),
	}
	for _, line := range lines {
		pdf.CellFormat(0, 7, line, "", 1, "L", false, 0, "")
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("qr", 39, pdf.GetY()+6, 70, 70, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render ticket PDF: %w", err)
	}
	return buf.Bytes(), nil
}
