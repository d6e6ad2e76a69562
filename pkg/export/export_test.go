package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Enrollment roster",
		Headers: []string{"Student", "Class", "Payment"},
		Rows: []map[string]string{
			{"Student": "Ana", "Class": "Pottery", "Payment": "paid"},
			{"Student": "Ben", "Class": "Watercolor, Level 1", "Payment": "pending"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Class,Payment", string(lines[0]))
	assert.Equal(t, `Ben,"Watercolor, Level 1",pending`, string(lines[2]))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
