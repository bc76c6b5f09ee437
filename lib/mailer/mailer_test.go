package mailer

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jobstreet-applied/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type fakeSMTP struct {
	config Config
	web    string
}

func setupSMTP(t *testing.T) fakeSMTP {
	testcontainers.SkipIfProviderIsNotHealthy(t)

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025/tcp", "1080/tcp"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		err := container.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	smtpPort, err := container.MappedPort(ctx, "1025")
	require.NoError(t, err)
	webPort, err := container.MappedPort(ctx, "1080")
	require.NoError(t, err)

	return fakeSMTP{
		config: Config{
			Host:     host,
			Port:     smtpPort.Int(),
			From:     "scraper@email.com",
			Password: "default",
		},
		web: fmt.Sprintf("http://%s:%s", host, webPort.Port()),
	}
}

func TestSendExports(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:mailer")
	defer cleanup()
	server := setupSMTP(t)

	dir := t.TempDir()
	attachment := filepath.Join(dir, "jobstreet_jobs_20240510_093015.json")
	require.NoError(t, os.WriteFile(attachment, []byte(`[]`), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := ExportMessage([]string{"bob@email.com"}, 3, []string{attachment})
	require.Equal(t, "JobStreet applied jobs (3)", msg.Subject)
	require.NoError(t, New(server.config).Send(ctx, msg))

	res, err := resty.New().R().
		SetContext(ctx).
		Get(server.web + "/messages/1.plain")
	require.NoError(t, err)
	require.Contains(t, res.String(), "finished with 3 jobs")
	require.Contains(t, res.String(), "jobstreet_jobs_20240510_093015.json")
}

func TestSendMissingAttachment(t *testing.T) {
	m := New(Config{Host: "localhost", Port: 1, From: "scraper@email.com"})
	err := m.Send(context.Background(), Message{
		To:          []string{"bob@email.com"},
		Attachments: []string{filepath.Join(t.TempDir(), "missing.csv")},
	})
	require.ErrorContains(t, err, "attach")
}
