package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"quizhub-service/internal/analytics"
	"quizhub-service/internal/domain"
)

// ErrUnsupportedFormat is returned when no export sink is registered for the
// requested format.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ExportSink renders an already-masked report into a downloadable document.
// JSON and CSV sinks ship in-repo; richer formats (excel) are external
// collaborators registered at wiring time.
type ExportSink interface {
	ContentType() string
	Render(r analytics.Report) ([]byte, error)
}

// Exporter applies masking and hands the report to the sink for the format.
type Exporter struct {
	reports *AnalyticsService
	sinks   map[string]ExportSink
}

func NewExporter(reports *AnalyticsService) *Exporter {
	return &Exporter{
		reports: reports,
		sinks: map[string]ExportSink{
			"json": JSONSink{},
			"csv":  CSVSink{},
		},
	}
}

// Register adds or replaces the sink for a format (e.g. an excel renderer).
func (e *Exporter) Register(format string, sink ExportSink) {
	e.sinks[format] = sink
}

// Export returns the rendered document and its content type. Masking happens
// before serialization, so a sink can never see real learner identities for
// non-admin viewers.
func (e *Exporter) Export(ctx context.Context, quizID, format string, role domain.Role) ([]byte, string, error) {
	sink, ok := e.sinks[format]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	report, err := e.reports.GetReport(ctx, quizID, role)
	if err != nil {
		return nil, "", err
	}
	doc, err := sink.Render(report)
	if err != nil {
		return nil, "", fmt.Errorf("render %s export: %w", format, err)
	}
	return doc, sink.ContentType(), nil
}

// JSONSink renders the report as indented JSON.
type JSONSink struct{}

func (JSONSink) ContentType() string { return "application/json" }

func (JSONSink) Render(r analytics.Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// CSVSink renders the performance matrix as a flat CSV table: one row per
// participant, one column per question plus the summary columns.
type CSVSink struct{}

func (CSVSink) ContentType() string { return "text/csv" }

func (CSVSink) Render(r analytics.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"user", "total_score", "percentage", "time_taken", "completed_at"}
	for _, q := range r.PerformanceMatrix.Questions {
		header = append(header, q.Text)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range r.PerformanceMatrix.Rows {
		timeTaken := ""
		if row.TimeTaken != nil {
			timeTaken = strconv.Itoa(*row.TimeTaken)
		}
		record := []string{
			row.UserName,
			strconv.Itoa(row.TotalScore),
			strconv.FormatFloat(row.Percentage, 'f', 2, 64),
			timeTaken,
			row.CompletedAt.Format("2006-01-02 15:04:05"),
		}
		for _, cell := range row.Cells {
			switch {
			case cell == nil:
				record = append(record, "")
			case cell.IsCorrect:
				record = append(record, "correct")
			default:
				record = append(record, "incorrect")
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
