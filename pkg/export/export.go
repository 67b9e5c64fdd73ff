package export

import (
	"fmt"
	"strings"
	"time"
)

// Format names a supported export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat validates a user supplied format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Dataset defines tabular export content.
type Dataset struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Headers     []string
	Rows        []map[string]string
}

// File is a rendered export ready to be streamed.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// Renderer turns a dataset into a file body.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
}

// Build renders data with the renderer matching format and names the file
// after base.
func Build(format Format, base string, data Dataset) (*File, error) {
	var (
		renderer    Renderer
		contentType string
	)
	switch format {
	case FormatCSV:
		renderer, contentType = NewCSVExporter(), "text/csv"
	case FormatPDF:
		renderer, contentType = NewPDFExporter(), "application/pdf"
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	body, err := renderer.Render(data)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:        fmt.Sprintf("%s.%s", base, format),
		ContentType: contentType,
		Body:        body,
	}, nil
}
