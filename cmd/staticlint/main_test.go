package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzers(t *testing.T) {
	names := func(cfg *Config) map[string]bool {
		m := make(map[string]bool)
		for _, a := range analyzers(cfg) {
			m[a.Name] = true
		}
		return m
	}

	base := names(&Config{})
	assert.True(t, base["exitinmain"])
	assert.True(t, base["errcheck"])
	assert.True(t, base["printf"])
	assert.False(t, base["SA1000"])

	withChecks := names(&Config{Staticcheck: []string{"SA1000", "ST1005", "S1002", "QF1003", "unknown"}})
	assert.True(t, withChecks["SA1000"])
	assert.True(t, withChecks["ST1005"])
	assert.True(t, withChecks["S1002"])
	assert.True(t, withChecks["QF1003"])
	assert.Len(t, withChecks, len(base)+4)
}

func TestLoadConfig_Embedded(t *testing.T) {
	cfg, err := loadConfig()
	if assert.NoError(t, err) {
		assert.Contains(t, cfg.Staticcheck, "SA1000")
	}
}
