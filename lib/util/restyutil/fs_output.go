package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-resty/resty/v2"
)

// Output receives raw response bodies for offline inspection.
type Output interface {
	Write(id string, contents string)
}

type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (o FilesystemOutput) Write(id string, contents string) {
	name := unsafeChars.ReplaceAllString(id, "_")
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write response dump", "id", id, "err", err)
	}
}

// DumpResponses writes every successful response body to output, the file
// is named after the request path.
func DumpResponses(client *resty.Client, output Output) {
	if output == nil {
		return
	}
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := res.Request.RawRequest.URL.Path + ".html"
		output.Write(id, string(res.Body()))
		return nil
	})
}
