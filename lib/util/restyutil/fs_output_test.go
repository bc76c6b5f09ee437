package restyutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	out.Write("/id/job/123.html", "<html></html>")

	contents, err := os.ReadFile(filepath.Join(dir, "_id_job_123.html"))
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(contents))
}
