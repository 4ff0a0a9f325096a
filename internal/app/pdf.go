package app

import (
    "bufio"
    "strings"

    "github.com/jung-kurt/gofpdf"

    "github.com/hyperifyio/resumeflow/internal/display"
)

// writeResultPDF renders the final display into a minimal PDF: the status
// line, then the extracted text and the structured JSON as monospaced
// blocks. Core fonts cover Latin-1 only; other runes are replaced.
func writeResultPDF(s display.Snapshot, m manifest, outPath string) error {
    pdf := gofpdf.New("P", "mm", "A4", "")
    tr := pdf.UnicodeTranslatorFromDescriptor("")
    pdf.AddPage()

    pdf.SetFont("Helvetica", "B", 14)
    pdf.CellFormat(0, 8, tr("Resume parsing result"), "", 1, "L", false, 0, "")
    pdf.SetFont("Helvetica", "", 10)
    if m.File != "" {
        pdf.CellFormat(0, 6, tr("File: "+m.File), "", 1, "L", false, 0, "")
    }
    if m.ResumeID != "" {
        pdf.CellFormat(0, 6, tr("Resume ID: "+m.ResumeID), "", 1, "L", false, 0, "")
    }
    if s.Status.IsError {
        pdf.SetTextColor(180, 0, 0)
    }
    pdf.CellFormat(0, 6, tr("Status: "+s.Status.Text), "", 1, "L", false, 0, "")
    pdf.SetTextColor(0, 0, 0)

    section := func(title, body string) {
        if strings.TrimSpace(body) == "" {
            return
        }
        pdf.Ln(4)
        pdf.SetFont("Helvetica", "B", 12)
        pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
        pdf.SetFont("Courier", "", 9)
        // Render line by line to avoid huge paragraphs
        scanner := bufio.NewScanner(strings.NewReader(body))
        scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
        for scanner.Scan() {
            line := scanner.Text()
            if strings.TrimSpace(line) == "" {
                pdf.Ln(4)
                continue
            }
            pdf.MultiCell(0, 4.5, tr(line), "", "L", false)
        }
    }
    section("Extracted text", s.Raw)
    section("Structured JSON", s.Structured)

    return pdf.OutputFileAndClose(outPath)
}
