package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	table := NewTable()

	mp, ok := table.Lookup("claude-3-5-haiku-20241022")
	require.True(t, ok, "expected haiku pricing in the built-in table")
	assert.Equal(t, 0.80, mp.InputPricePerMillion)
	assert.Equal(t, 4.00, mp.OutputPricePerMillion)

	_, ok = table.Lookup("gpt-nonexistent")
	assert.False(t, ok, "unknown model should not be found")
}

func TestCostDeterministic(t *testing.T) {
	table := NewTable()

	first := table.Cost("claude-sonnet-4-20250514", 1200, 800)
	second := table.Cost("claude-sonnet-4-20250514", 1200, 800)
	assert.Equal(t, first, second, "cost computation must be deterministic")

	// 1200 input @ $3/M + 800 output @ $15/M
	want := 1200.0/1_000_000.0*3.00 + 800.0/1_000_000.0*15.00
	assert.InDelta(t, want, first, 1e-12)
}

func TestCostUnknownModel(t *testing.T) {
	table := NewTable()
	assert.Zero(t, table.Cost("unknown-model", 1000, 1000))
}

func TestOutputTokenRate(t *testing.T) {
	table := NewTable()

	assert.InDelta(t, 4.00/1_000_000.0, table.OutputTokenRate("claude-3-5-haiku-20241022"), 1e-15)
	assert.Zero(t, table.OutputTokenRate("unknown-model"), "unknown model rate should be 0")
}

func TestOverridesMissingFile(t *testing.T) {
	table, err := NewTableWithOverrides(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err, "missing overrides file should not be an error")

	_, ok := table.Lookup("claude-3-5-haiku-20241022")
	assert.True(t, ok, "built-in defaults should survive a missing overrides file")
}

func TestOverridesMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")

	overrides := `version: "1.0"
models:
  - model: claude-3-5-haiku-20241022
    input_price_per_million: 1.00
    output_price_per_million: 5.00
  - model: local-llama
    input_price_per_million: 0.00
    output_price_per_million: 0.00
`
	require.NoError(t, os.WriteFile(path, []byte(overrides), 0o644))

	table, err := NewTableWithOverrides(path)
	require.NoError(t, err)

	mp, ok := table.Lookup("claude-3-5-haiku-20241022")
	require.True(t, ok, "haiku should still be present")
	assert.Equal(t, 1.00, mp.InputPricePerMillion, "override not applied")

	_, ok = table.Lookup("local-llama")
	assert.True(t, ok, "new user model should be added to the table")

	// Non-overridden models keep built-in rates
	opus, _ := table.Lookup("claude-opus-4-20250514")
	assert.Equal(t, 75.00, opus.OutputPricePerMillion)
}

func TestOverridesMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models: {not: [valid"), 0o644))

	_, err := NewTableWithOverrides(path)
	assert.Error(t, err, "malformed overrides should fail loudly")
}
