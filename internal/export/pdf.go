package export

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pictophone/pictophone/internal/images"
	"github.com/pictophone/pictophone/internal/models"
)

const (
	pageMargin    = 15.0
	titleHeight   = 12.0
	headingHeight = 8.0
	lineHeight    = 5.5
	blockGap      = 4.0
)

// Result summarizes one export.
type Result struct {
	Pages          int
	ImagesEmbedded int
	ImagesSkipped  int
}

// Exporter walks rendered records and emits a paginated PDF: a title block,
// then per record a heading, the image scaled to the content width, and the
// description text. Images are re-fetched at export time since generated
// image URLs may be short-lived.
type Exporter struct {
	fetcher *images.Fetcher
}

// NewExporter creates a new exporter
func NewExporter() *Exporter {
	return &Exporter{
		fetcher: images.NewFetcher(),
	}
}

// Filename returns the timestamped artifact name
func Filename(now time.Time) string {
	return fmt.Sprintf("pictophone_%s.pdf", now.Format("2006-01-02_15-04-05"))
}

// Export writes the document for the given records to w. An image that cannot
// be fetched or converted is skipped and export continues; the document is
// still produced.
func (e *Exporter) Export(records []models.Record, w io.Writer) (*Result, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	left, top, right, bottom := pdf.GetMargins()
	contentW := pageW - left - right
	usableBottom := pageH - bottom
	maxImageH := pageH - top - bottom - headingHeight - blockGap

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, titleHeight, "Pictophone", "", 1, "C", false, 0, "")
	pdf.Ln(blockGap)

	result := &Result{}
	for _, rec := range records {
		// Heading
		ensureSpace(pdf, headingHeight+blockGap, usableBottom)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, headingHeight, headingFor(rec), "", 1, "L", false, 0, "")
		pdf.Ln(1)

		// Image
		if !rec.Image.IsZero() {
			if err := e.placeImage(pdf, rec, contentW, maxImageH, usableBottom, left); err != nil {
				slog.Warn("Skipping image in export", "round", rec.Index, "error", err)
				// An embed rejection leaves the document in an error state
				// that silently drops every later block; reset it so the
				// rest of the export still renders.
				pdf.ClearError()
				result.ImagesSkipped++
			} else {
				result.ImagesEmbedded++
			}
		}

		// Description, skipped when absent (the final round has none on purpose)
		if text := descriptionFor(rec); text != "" {
			pdf.SetFont("Helvetica", "", 11)
			need := float64(len(pdf.SplitText(text, contentW))) * lineHeight
			// Start on a fresh page when the block fits one but not the
			// remaining space. Longer blocks flow across pages.
			if pdf.GetY()+need > usableBottom && need <= usableBottom-top {
				pdf.AddPage()
			}
			pdf.MultiCell(contentW, lineHeight, text, "", "L", false)
		}

		pdf.Ln(blockGap)
	}

	result.Pages = pdf.PageCount()

	if err := pdf.Output(w); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return result, nil
}

// placeImage fetches, converts, scales, and embeds one record's image
func (e *Exporter) placeImage(pdf *fpdf.Fpdf, rec models.Record, contentW, maxImageH, usableBottom, left float64) error {
	data, err := e.fetcher.Fetch(rec.Image)
	if err != nil {
		return err
	}
	data, format, err := images.EnsureEmbeddable(data)
	if err != nil {
		return err
	}
	pxW, pxH, err := images.Dimensions(data)
	if err != nil {
		return err
	}

	// Scale to content width preserving aspect ratio, capped to one page.
	dispW := contentW
	dispH := dispW * float64(pxH) / float64(pxW)
	if dispH > maxImageH {
		dispH = maxImageH
		dispW = dispH * float64(pxW) / float64(pxH)
	}

	ensureSpace(pdf, dispH, usableBottom)

	name := fmt.Sprintf("round-%d", rec.Index)
	opts := fpdf.ImageOptions{ImageType: strings.ToUpper(format)}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	pdf.ImageOptions(name, left, pdf.GetY(), dispW, dispH, true, opts, 0, "")
	if pdf.Err() {
		return fmt.Errorf("failed to embed image: %s", pdf.Error())
	}
	pdf.Ln(2)
	return nil
}

// ensureSpace starts a fresh page when the next block would overflow the
// remaining vertical space
func ensureSpace(pdf *fpdf.Fpdf, need, usableBottom float64) {
	if pdf.GetY()+need > usableBottom {
		pdf.AddPage()
	}
}

func headingFor(rec models.Record) string {
	heading := fmt.Sprintf("Round %d", rec.Index)
	if rec.Terminal {
		heading += " (final)"
	}
	if rec.Status == models.StatusFailed {
		heading += " (failed)"
	}
	return heading
}

// descriptionFor returns the text block for a record: the description when
// present, otherwise the failure detail, otherwise nothing
func descriptionFor(rec models.Record) string {
	if rec.Description != "" {
		return rec.Description
	}
	if rec.DescriptionError != "" {
		return "Description failed: " + rec.DescriptionError
	}
	if rec.ImageError != "" {
		return "Image failed: " + rec.ImageError
	}
	return ""
}
