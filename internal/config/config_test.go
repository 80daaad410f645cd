package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_ExplicitMissingFileIsError(t *testing.T) {
	cfg, err := Load("/nonexistent/path/does/not/exist.yaml")
	assert.Error(t, err)
	_ = cfg
}

func TestLoad_NoConfigFilePresent(t *testing.T) {
	cfg, err := Load("")
	assert.NoError(t, err)
	assert.Equal(t, Defaults().TargetReduction, cfg.TargetReduction)
	assert.Equal(t, Defaults().BatchSize, cfg.BatchSize)
}

func TestQuiescenceDelay(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, int64(500), cfg.QuiescenceDelay().Milliseconds())
}
