package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	data := Dataset{
		Headers: []string{"Student", "Date", "Start", "End"},
		Rows: []map[string]string{
			{"Student": "Avi Cohen", "Date": "2025-09-01", "Start": "09:00", "End": "09:15"},
			{"Student": "Sara Levi", "Date": "2025-09-01", "Start": "09:15", "End": "09:30"},
		},
	}

	out, err := exporter.Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Student,Date,Start,End\nAvi Cohen,2025-09-01,09:00,09:15\nSara Levi,2025-09-01,09:15,09:30\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"Student", "Start"},
		Rows:    []map[string]string{{"Student": "Avi Cohen", "Start": "09:00"}},
	}, "call sheet")
	require.NoError(t, err)
	assert.True(t, len(out) > 0)
	assert.Equal(t, "%PDF", string(out[:4]))
}
