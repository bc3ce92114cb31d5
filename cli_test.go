package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"product_advisor/internal/storage"
	"product_advisor/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig writes a config pointing at a temporary catalog and clears
// environment overrides that would select Redis or a remote model.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"LLM_API_KEY", "LLM_PROVIDER", "REDIS_URL", "CATALOG_DB_PATH", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	cfg := "log:\n  level: error\n" +
		"llm:\n  provider: openai\n  api_key: \"\"\n" +
		"catalog:\n  db_path: " + filepath.Join(dir, "catalog.db") + "\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"product-advisor"}, args...))
	return out.String(), err
}

func TestSeedCommand(t *testing.T) {
	configPath := setupTestConfig(t)
	seeded, err := storage.SeedProducts()
	require.NoError(t, err)

	out, err := runCLI(t, "", "--config", configPath, "seed")
	require.NoError(t, err)

	var resp map[string]int
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, len(seeded), resp["inserted"])

	out, err = runCLI(t, "", "--config", configPath, "seed")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Zero(t, resp["inserted"])
}

func TestSeedCommandFromFile(t *testing.T) {
	configPath := setupTestConfig(t)
	file := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, storage.ExportProducts(file, []pkg.ProductRecord{{Name: "Only One", Category: "laptop", Price: 500}}))

	out, err := runCLI(t, "", "--config", configPath, "seed", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, `"inserted": 1`)
}

func TestSearchCommand(t *testing.T) {
	configPath := setupTestConfig(t)

	out, err := runCLI(t, "", "--config", configPath, "search", "--budget", "300", "--category", "laptop")
	require.NoError(t, err)

	var products []pkg.ProductRecord
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "HP Chromebook 14", products[0].Name)

	out, err = runCLI(t, "", "--config", configPath, "search", "--budget", "50", "--category", "Audio")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestExportCommand(t *testing.T) {
	configPath := setupTestConfig(t)
	_, err := runCLI(t, "", "--config", configPath, "seed")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "out", "catalog.json")
	_, err = runCLI(t, "", "--config", configPath, "export", "--out", file)
	require.NoError(t, err)

	products, err := storage.LoadProducts(file)
	require.NoError(t, err)
	seeded, err := storage.SeedProducts()
	require.NoError(t, err)
	assert.Len(t, products, len(seeded))
}

func TestChatCommand(t *testing.T) {
	configPath := setupTestConfig(t)

	out, err := runCLI(t, "hello\nI need a laptop under $1000 for gaming with 16GB RAM\nquit\nignored\n",
		"--config", configPath, "chat", "--session", "cli-test")
	require.NoError(t, err)

	assert.Contains(t, out, "Session cli-test (backend: pattern)")
	assert.Contains(t, out, "What's your budget range?")
	assert.Contains(t, out, "laptop(s) that match your needs")
	assert.NotContains(t, out, "ignored")
}

func TestNewApplicationPatternBackend(t *testing.T) {
	configPath := setupTestConfig(t)

	app, err := newApplication(context.Background(), configPath, true)
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "pattern", app.advisor.Backend())
	n, err := app.catalog.Count(context.Background())
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestNewApplicationInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0644))

	_, err := newApplication(context.Background(), path, false)
	assert.Error(t, err)
}

func TestToolCommand(t *testing.T) {
	configPath := setupTestConfig(t)

	out, err := runCLI(t, "", "--config", configPath, "tool", "--list")
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"product_search", "price_lookup"}, names)

	out, err = runCLI(t, "", "--config", configPath, "tool", "product_search", `{"category": "Audio", "budget": 150}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Portable Bluetooth Speaker")
	assert.NotContains(t, out, "Premium Wireless Headphones")

	out, err = runCLI(t, "", "--config", configPath, "tool", "price_lookup", `{"name": "framework"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "$1049.00")

	_, err = runCLI(t, "", "--config", configPath, "tool", "checkout")
	assert.Error(t, err)
}

func TestChatReset(t *testing.T) {
	configPath := setupTestConfig(t)

	out, err := runCLI(t, "for gaming under $900\nreset\nquit\n",
		"--config", configPath, "chat", "--session", "cli-reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Session cleared. What are you looking for?")
}
