package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pricing holds the static billing tables: per-model credit multipliers
// and per-plan credit caps. It is loaded once at startup and injected into
// the usage meter; nothing mutates it at runtime.
type Pricing struct {
	// ModelMultipliers maps a model identifier to the weight applied to
	// its native units (tokens, characters). Unknown models weigh 1.
	ModelMultipliers map[string]float64 `yaml:"model_multipliers"`

	// PlanLimits maps a plan identifier to its credit cap per billing
	// period. Plans not listed here fall back to DefaultLimit.
	PlanLimits map[string]int64 `yaml:"plan_limits"`

	// DefaultLimit is the credit cap for free-tier users and users on an
	// unrecognized plan.
	DefaultLimit int64 `yaml:"default_limit"`
}

// DefaultPricing returns the built-in tables used when no pricing file is
// configured.
func DefaultPricing() Pricing {
	return Pricing{
		ModelMultipliers: map[string]float64{
			"gpt-5-mini": 1,
			"gpt-5":      12,
			"tts-1":      0.5,
			"tts-1-hd":   1,
		},
		PlanLimits: map[string]int64{
			"starter": 500_000,
			"pro":     2_000_000,
		},
		DefaultLimit: 100_000,
	}
}

// LoadPricing reads pricing tables from a YAML file, or returns the
// defaults when path is empty. Fields absent from the file keep their
// default values.
func LoadPricing(path string) (Pricing, error) {
	p := DefaultPricing()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Pricing{}, fmt.Errorf("read pricing file: %w", err)
	}

	var loaded Pricing
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Pricing{}, fmt.Errorf("parse pricing file: %w", err)
	}

	if loaded.ModelMultipliers != nil {
		p.ModelMultipliers = loaded.ModelMultipliers
	}
	if loaded.PlanLimits != nil {
		p.PlanLimits = loaded.PlanLimits
	}
	if loaded.DefaultLimit > 0 {
		p.DefaultLimit = loaded.DefaultLimit
	}

	return p, nil
}
