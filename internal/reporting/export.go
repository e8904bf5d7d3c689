package reporting

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dstech-dashboard/internal/analytics/application"
	"dstech-dashboard/internal/observability/metrics"
)

var (
	// ErrUnknownFormat is returned for unsupported export formats.
	ErrUnknownFormat = errors.New("reporting: unknown format")
	// ErrUnknownDataset is returned for unknown CSV datasets.
	ErrUnknownDataset = errors.New("reporting: unknown dataset")
)

// Format is an export file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatZIP  Format = "zip"
)

// ParseFormat validates a format name.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatPDF, FormatXLSX, FormatCSV, FormatZIP:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, value)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatZIP:
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// Document is a rendered report file.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Render builds a document of the report in format. dataset selects the
// CSV section and is ignored by other formats.
func Render(r application.Report, format Format, dataset string) (Document, error) {
	start := time.Now()
	body, err := render(r, format, dataset)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveReportExport(string(format), result, time.Since(start))
	if err != nil {
		return Document{}, err
	}
	return Document{
		ID:          uuid.NewString(),
		Name:        FileName(r, format, dataset),
		Format:      format,
		ContentType: format.ContentType(),
		Body:        body,
		CreatedAt:   r.GeneratedAt,
	}, nil
}

func render(r application.Report, format Format, dataset string) ([]byte, error) {
	switch format {
	case FormatPDF:
		return BuildPDF(r)
	case FormatXLSX:
		return BuildXLSX(r)
	case FormatCSV:
		return BuildCSV(r, dataset)
	case FormatZIP:
		return BuildBundle(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// FileName names an export after its inclusive first and last day, e.g.
// relatorio_dstech_20240301_20240307.pdf.
func FileName(r application.Report, format Format, dataset string) string {
	last := r.Period.End.Add(-1)
	name := fmt.Sprintf("relatorio_dstech_%s_%s", r.Period.Start.Format("20060102"), last.Format("20060102"))
	if r.ClientID != 0 {
		name += fmt.Sprintf("_cliente%d", r.ClientID)
	}
	if format == FormatCSV {
		if dataset == "" {
			dataset = DefaultCSVDataset
		}
		name += "_" + dataset
	}
	return name + "." + string(format)
}
