package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/beuysscout/InsightTool-v2/internal/domain"
)

type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// GenerateReport renders a de-identified session report: the organised
// transcript plus the session's themes. Callers only invoke this for
// themed sessions, so everything written here has already been through
// redaction.
func (s *PDFService) GenerateReport(project domain.Project, session domain.Session, themes domain.SessionThemes, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure report directory: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Session %s", session.ID), false)
	pdf.SetAuthor("InsightTool", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, fmt.Sprintf("%s - Participant %s", project.Name, session.ParticipantID))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().Format("02 Jan 2006 15:04")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Redactions applied: %d", session.AnonymisationLog.AutoRedacted))
	pdf.Ln(12)

	if session.Organised != nil {
		for _, mapping := range session.Organised.SectionMappings {
			s.writeHeading(pdf, fmt.Sprintf("%s (%s)", mapping.SectionName, mapping.CoverageStatus))
			for _, mt := range mapping.MappedTurns {
				s.writeTurnLine(pdf, mt.Timestamp, mt.Speaker, mt.Text)
			}
			if mapping.CoverageNotes != "" {
				pdf.SetFont("Helvetica", "I", 11)
				pdf.MultiCell(0, 6, mapping.CoverageNotes, "", "L", false)
			}
			pdf.Ln(4)
		}

		if len(session.Organised.OffScriptTurns) > 0 {
			s.writeHeading(pdf, "Off-script responses")
			for _, turn := range session.Organised.OffScriptTurns {
				s.writeTurnLine(pdf, turn.Timestamp, turn.Speaker, turn.Text)
			}
			pdf.Ln(4)
		}
	}

	s.writeHeading(pdf, "Themes")
	for _, theme := range themes.Themes {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 6, fmt.Sprintf("%s [%s]", theme.Name, theme.Status), "", "L", false)
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 6, theme.Description, "", "L", false)
		for _, ev := range theme.Evidence {
			quote := fmt.Sprintf("- \"%s\" (turn %d", ev.Quote, ev.TurnIndex)
			if ev.GuideSection != "" {
				quote += ", " + ev.GuideSection
			}
			quote += ")"
			pdf.MultiCell(0, 6, quote, "", "L", false)
		}
		if strings.TrimSpace(theme.ResearcherNotes) != "" {
			pdf.SetFont("Helvetica", "I", 11)
			pdf.MultiCell(0, 6, fmt.Sprintf("Notes: %s", theme.ResearcherNotes), "", "L", false)
		}
		pdf.Ln(4)
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func (s *PDFService) writeHeading(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, title)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
}

func (s *PDFService) writeTurnLine(pdf *gofpdf.Fpdf, timestamp, speaker, text string) {
	line := ""
	if timestamp != "" {
		line = fmt.Sprintf("[%s] ", timestamp)
	}
	line += fmt.Sprintf("%s: %s", speaker, text)
	pdf.MultiCell(0, 6, line, "", "L", false)
}
