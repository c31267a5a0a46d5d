// Package pricing holds the static per-model pricing table used to derive
// invocation costs from token counts. The table is immutable once built:
// lookups are safe for concurrent use without locking.
package pricing

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ModelPricing contains pricing information for a specific model.
type ModelPricing struct {
	// Model is the model identifier (e.g., "claude-3-5-haiku-20241022").
	Model string `yaml:"model" json:"model"`

	// InputPricePerMillion is the cost per million input tokens in USD.
	InputPricePerMillion float64 `yaml:"input_price_per_million" json:"input_price_per_million"`

	// OutputPricePerMillion is the cost per million output tokens in USD.
	OutputPricePerMillion float64 `yaml:"output_price_per_million" json:"output_price_per_million"`

	// EffectiveDate is when this pricing became effective.
	EffectiveDate time.Time `yaml:"effective_date" json:"effective_date"`
}

// Table is an immutable pricing lookup built once at process start.
type Table struct {
	byModel map[string]ModelPricing
	models  []ModelPricing
}

// overridesFile is the YAML shape of a user pricing overrides file.
type overridesFile struct {
	Version string         `yaml:"version"`
	Models  []ModelPricing `yaml:"models"`
}

// NewTable builds a pricing table from the built-in defaults.
func NewTable() *Table {
	return newTable(builtInPricing())
}

// NewTableWithOverrides builds a pricing table from the built-in defaults
// merged with a user overrides file. A missing file is not an error; the
// built-in defaults apply unchanged.
func NewTableWithOverrides(path string) (*Table, error) {
	models := builtInPricing()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newTable(models), nil
		}
		return nil, fmt.Errorf("failed to read pricing overrides: %w", err)
	}

	var overrides overridesFile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse pricing overrides: %w", err)
	}

	models = mergePricing(models, overrides.Models)
	return newTable(models), nil
}

func newTable(models []ModelPricing) *Table {
	byModel := make(map[string]ModelPricing, len(models))
	for _, mp := range models {
		byModel[mp.Model] = mp
	}
	return &Table{byModel: byModel, models: models}
}

// mergePricing merges user pricing over built-in defaults.
// User pricing takes precedence for matching model IDs.
func mergePricing(builtIn, user []ModelPricing) []ModelPricing {
	userByModel := make(map[string]ModelPricing, len(user))
	for _, mp := range user {
		userByModel[mp.Model] = mp
	}

	merged := make([]ModelPricing, 0, len(builtIn)+len(user))
	for _, mp := range builtIn {
		if userMP, ok := userByModel[mp.Model]; ok {
			merged = append(merged, userMP)
			delete(userByModel, mp.Model)
		} else {
			merged = append(merged, mp)
		}
	}

	// User models not present in the built-in table
	for _, mp := range user {
		if _, ok := userByModel[mp.Model]; ok {
			merged = append(merged, mp)
		}
	}

	return merged
}

// Lookup returns pricing for a specific model.
// The second return value is false when the model is unknown.
func (t *Table) Lookup(model string) (ModelPricing, bool) {
	mp, ok := t.byModel[model]
	return mp, ok
}

// Models returns a copy of all pricing entries.
func (t *Table) Models() []ModelPricing {
	out := make([]ModelPricing, len(t.models))
	copy(out, t.models)
	return out
}

// Cost computes the USD cost of an invocation from its token counts.
// The computation is deterministic: the same model and token counts always
// produce the same cost. Unknown models cost zero.
func (t *Table) Cost(model string, tokensIn, tokensOut int) float64 {
	mp, ok := t.byModel[model]
	if !ok {
		return 0
	}

	inputCost := float64(tokensIn) / 1_000_000.0 * mp.InputPricePerMillion
	outputCost := float64(tokensOut) / 1_000_000.0 * mp.OutputPricePerMillion
	return inputCost + outputCost
}

// OutputTokenRate returns the per-token output cost for a model in USD.
// Used for proactive budget-to-token-ceiling computations.
func (t *Table) OutputTokenRate(model string) float64 {
	mp, ok := t.byModel[model]
	if !ok {
		return 0
	}
	return mp.OutputPricePerMillion / 1_000_000.0
}
