package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finmind/internal/assistant"
	"finmind/internal/config"
	flog "finmind/internal/log"
)

// cleanEnv pins the settings the commands validate so the host environment
// cannot leak in.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DATA_BACKEND", "AMQP_URL", "GOOGLE_SPREADSHEET_ID",
		"SENTIMENT_CATALOG_PATH", "SYNC_INTERVAL", "SESSION_TTL", "CHAT_REPLY_DELAY",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAskOneShot(t *testing.T) {
	cleanEnv(t)
	out, err := run(t, "", "ask", "help", "me", "budget")
	require.NoError(t, err)
	assert.Contains(t, out, "85% of your monthly budget")
	assert.NotContains(t, out, assistant.Greeting)
}

func TestAskInteractive(t *testing.T) {
	cleanEnv(t)
	out, err := run(t, "debt\n\n   \nwhat's the weather\nquit\nsavings\n", "ask")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "FinMind: "+assistant.Greeting))
	assert.Contains(t, out, "avalanche method")
	assert.Contains(t, out, assistant.Fallback)
	assert.NotContains(t, out, "50/30/20")
	assert.Equal(t, 3, strings.Count(out, "FinMind: "))
}

func TestAskInteractiveEOF(t *testing.T) {
	cleanEnv(t)
	out, err := run(t, "invest", "ask")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "FinMind: "))
}

func TestQuoteCatalog(t *testing.T) {
	cleanEnv(t)
	out, err := run(t, "", "quote")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "SYMBOL"))
	assert.True(t, strings.HasPrefix(lines[1], "AAPL"))
	assert.Contains(t, lines[1], "$175.43")
	assert.Contains(t, lines[1], "+2.3%")
	assert.Contains(t, lines[1], "Bullish")
	assert.Contains(t, lines[2], "-1.2%")
	assert.Contains(t, lines[2], "Neutral")
}

func TestQuoteSymbols(t *testing.T) {
	cleanEnv(t)
	out, err := run(t, "", "quote", "btc", "--json")
	require.NoError(t, err)

	var got []struct {
		Record struct {
			Symbol string `json:"symbol"`
		} `json:"record"`
		Label string            `json:"label"`
		Price []json.RawMessage `json:"price_series"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "BTC", got[0].Record.Symbol)
	assert.Equal(t, "Neutral", got[0].Label)
	assert.Len(t, got[0].Price, 5)

	_, err = run(t, "", "quote", "AAP")
	assert.ErrorContains(t, err, "unknown symbol")
}

func TestQuoteCustomCatalog(t *testing.T) {
	cleanEnv(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
assets:
  - symbol: NVDA
    name: NVIDIA Corp.
    price: "120.50"
    change: "-0.4"
    sentiment: "0.55"
    volume: 41.0M
`), 0o600))
	t.Setenv("SENTIMENT_CATALOG_PATH", path)

	out, err := run(t, "", "quote")
	require.NoError(t, err)
	assert.Contains(t, out, "NVDA")
	assert.NotContains(t, out, "AAPL")
}

func TestInvalidConfigFails(t *testing.T) {
	cleanEnv(t)
	t.Setenv("DATA_BACKEND", "postgres")
	_, err := run(t, "", "quote")
	assert.ErrorContains(t, err, "invalid data backend")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cleanEnv(t)
	cfg := config.Load()
	cfg.Port = "0"
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "finmind.db")
	return cfg
}

func quietLogger() *flog.Logger {
	return flog.New(flog.Config{Output: &bytes.Buffer{}})
}

func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestRunServeStopsOnCancel(t *testing.T) {
	for _, backendType := range []string{config.BackendMemory, config.BackendSQLite} {
		t.Run(backendType, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.DataBackend = backendType
			require.NoError(t, runServe(cancelledContext(), cfg, quietLogger(), true))
		})
	}
}

func TestRunServeRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataBackend = "postgres"
	assert.ErrorContains(t, runServe(cancelledContext(), cfg, quietLogger(), true), "invalid backend type")
}

func TestRunWorkerStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, runWorker(cancelledContext(), cfg, quietLogger()))
	_, err := os.Stat(cfg.SQLiteDBPath)
	assert.NoError(t, err)
}

func TestRunWorkerRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataBackend = "postgres"
	assert.ErrorContains(t, runWorker(cancelledContext(), cfg, quietLogger()), "invalid backend type")
}
