package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:       "Compliance overview",
		Subtitle:    "Acme Logistics",
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Headers:     []string{"Category", "Owner", "Status"},
		Rows: []map[string]string{
			{"Category": "PERSONNEL", "Owner": "w-1", "Status": "APPROVED"},
			{"Category": "BASIC_INFORMATION", "Status": "DRAFT"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Category,Owner,Status\nPERSONNEL,w-1,APPROVED\nBASIC_INFORMATION,,DRAFT\n", string(out))
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestBuildPDF(t *testing.T) {
	file, err := Build(FormatPDF, "overview-sf-1", sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "overview-sf-1.pdf", file.Name)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 90))
	assert.Equal(t, "abcde...", truncate("abcdefghijklmnop", 13))
}
