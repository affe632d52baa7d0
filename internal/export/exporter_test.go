package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/clinicops/clinic-crm/internal/records"
)

func TestWriteXLSX(t *testing.T) {
	recs := []records.UnifiedRecord{
		{Name: "Asha", Phone: "555", Service: "Cleaning", Price: 200, Date: "2024-01-03", Time: "09:00", Status: "Complete", Source: "dashboard"},
		{Name: "Ravi", Phone: "556", Service: "Checkup", Price: 0, Date: "2024-01-01", Time: "10:00", Status: "Pending", Source: "whatsapp"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter().WriteXLSX(&buf, recs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Patients")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Name", rows[0][0])
	require.Equal(t, "Asha", rows[1][0])
	require.Equal(t, "200", rows[1][4])
	require.Equal(t, "whatsapp", rows[2][8])
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter().WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Patients")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
