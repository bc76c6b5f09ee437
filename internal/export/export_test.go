package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jobstreet-applied/internal/chrono"
	"jobstreet-applied/internal/records"
	"jobstreet-applied/lib/configuration"
	"jobstreet-applied/lib/jobstore"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var exportTime = time.Date(2024, time.May, 10, 9, 30, 15, 0, chrono.Jakarta())

func sampleResult() records.Result {
	first := records.NewJobRecord()
	first.ID = 1
	first.Title = "Backend Engineer"
	first.Company = "PT Maju"
	first.Salary = "Rp 10.000.000"
	first.URL = "https://id.jobstreet.com/id/job/1"
	first.ApplicantCount = records.Applicants(42)
	first.StatusHistory = []records.StatusEvent{
		{Status: "Lamaran terkirim", UpdatedAt: "1 Mar 2024"},
		{Status: "Lamaran dilihat", UpdatedAt: "4 Mar 2024"},
	}
	first.RetrievedAt = exportTime

	second := records.NewJobRecord()
	second.ID = 2
	second.Title = "Data <Analyst> & Co"
	second.RetrievedAt = exportTime

	return records.Result{
		Records:     []records.JobRecord{first, second},
		TotalJobs:   2,
		CompletedAt: exportTime,
	}
}

func newExporter(t testing.TB) (Exporter, string) {
	dir := filepath.Join(t.TempDir(), "exports")
	return New(Options{
		Dir:   dir,
		Clock: chrono.FixedTime(exportTime),
		RunID: "run-1",
	}), dir
}

func readCSV(t testing.TB, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportAllFormats(t *testing.T) {
	ctx := context.Background()
	e, dir := newExporter(t)
	result := sampleResult()

	written, err := e.Export(ctx, result, []string{"json", "csv", "xlsx", "sqlite"})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "jobstreet_jobs_20240510_093015.json"),
		filepath.Join(dir, "jobstreet_jobs_20240510_093015.csv"),
		filepath.Join(dir, "jobstreet_jobs_20240510_093015.xlsx"),
		filepath.Join(dir, "jobstreet_jobs_20240510_093015.db"),
	}, written)

	t.Run("json", func(t *testing.T) {
		data, err := os.ReadFile(written[0])
		require.NoError(t, err)
		require.Contains(t, string(data), `"title": "Data <Analyst> & Co"`)
		require.Contains(t, string(data), `"applicant_count": "N/A"`)

		back, err := ReadJSON(written[0])
		require.NoError(t, err)
		if diff := cmp.Diff(result.Records, back); diff != "" {
			t.Fatalf("json round trip differs (-want +got):\n%s", diff)
		}
	})

	t.Run("csv", func(t *testing.T) {
		rows := readCSV(t, written[1])
		require.Len(t, rows, 3)
		header := rows[0]
		require.Equal(t, "applicant_count", header[0])
		require.Equal(t, "applied_at", header[1])
		require.IsIncreasing(t, header)

		row := map[string]string{}
		for i, column := range header {
			row[column] = rows[1][i]
		}
		require.Equal(t, "42", row["applicant_count"])
		require.Equal(t, "1 Mar 2024", row["applied_at"])
		require.Equal(t, "Lamaran dilihat", row["current_status"])
		require.Equal(t, "4 Mar 2024", row["status_updated_at"])
		require.Equal(t, "Rp 10.000.000", row["salary"])
		require.NotContains(t, header, "status_history")
	})

	t.Run("xlsx", func(t *testing.T) {
		f, err := excelize.OpenFile(written[2])
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(sheetName)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		require.Equal(t, readCSV(t, written[1])[0], rows[0])
	})

	t.Run("sqlite", func(t *testing.T) {
		conn, err := configuration.Database{File: written[3]}.OpenDB()
		require.NoError(t, err)
		defer conn.Close()
		stored, err := jobstore.NewStore(conn).Pull(ctx, "run-1")
		require.NoError(t, err)
		require.Equal(t, 2, stored.TotalJobs)
		require.Equal(t, "Backend Engineer", stored.Records[0].Title)
		require.Len(t, stored.Records[0].StatusHistory, 2)
	})
}

func TestExportEmptyResult(t *testing.T) {
	e, _ := newExporter(t)

	written, err := e.Export(context.Background(), records.Result{}, []string{"json", "csv"})
	require.NoError(t, err)
	require.Len(t, written, 2)

	data, err := os.ReadFile(written[0])
	require.NoError(t, err)
	require.JSONEq(t, `{"message": "No Data. Check log for details."}`, string(data))

	back, err := ReadJSON(written[0])
	require.NoError(t, err)
	require.Empty(t, back)

	require.Equal(t, [][]string{{NoData}}, readCSV(t, written[1]))
}

func TestExportJoinsFailures(t *testing.T) {
	e, _ := newExporter(t)

	written, err := e.Export(context.Background(), sampleResult(), []string{"yaml", "json", "parquet"})
	require.Len(t, written, 1)
	require.ErrorContains(t, err, `export yaml: unknown export format "yaml"`)
	require.ErrorContains(t, err, `export parquet: unknown export format "parquet"`)
}

func TestReadJSONRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"records": 1}`), 0644))
	_, err := ReadJSON(path)
	require.Error(t, err)
}
