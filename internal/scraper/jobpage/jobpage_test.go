package jobpage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const listing = `<html><body>
<h1>Backend Engineer</h1>
<span data-automation="job-detail-classifications"><a href="/c">Teknologi Informasi &amp; Komunikasi</a></span>
<span data-automation="job-detail-work-type"><a href="/w">Full time</a></span>
<div><span>Posted 5d ago</span></div>
</body></html>`

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/id/job/123" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("content-type", "text/html")
		w.Write([]byte(listing))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{})

	info, err := client.Fetch(context.Background(), server.URL+"/id/job/123")
	require.NoError(t, err)
	require.Equal(t, Info{
		Classification: "Teknologi Informasi & Komunikasi",
		WorkType:       "Full time",
		Posted:         "Posted 5d ago",
	}, info)

	_, err = client.Fetch(context.Background(), server.URL+"/id/job/missing")
	require.Error(t, err)
}
