package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type waits struct {
	ShortMs int `json:"short_ms"`
	LongMs  int `json:"long_ms"`
}

type testConfig struct {
	Email    string `json:"email"`
	Headless bool   `json:"headless"`
	Waits    waits  `json:"waits"`
}

func TestReadInto(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")

	err := os.WriteFile(name, []byte(`{
		// comments are allowed
		email: "budi@example.com",
		waits: { short_ms: 1000 },
	}`), 0600)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(LocalPath(name), []byte(`{ headless: true, waits: { long_ms: 5000 } }`), 0600)
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig{Waits: waits{ShortMs: 3000, LongMs: 20000}}
	err = ReadInto(name, &cfg)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Email:    "budi@example.com",
		Headless: true,
		Waits:    waits{ShortMs: 1000, LongMs: 5000},
	}, cfg)
}

func TestReadIntoMissing(t *testing.T) {
	cfg := testConfig{Email: "keep@example.com"}
	err := ReadInto(filepath.Join(t.TempDir(), "config.json5"), &cfg)
	require.True(t, os.IsNotExist(err))
	require.Equal(t, "keep@example.com", cfg.Email)
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, filepath.Join("a", "config.local.json5"), LocalPath(filepath.Join("a", "config.json5")))
	require.Equal(t, "telemetry.local.json5", LocalPath("telemetry.json5"))
}
