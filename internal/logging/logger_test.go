package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithOutput_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("warn", &buf)

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Str("symbol", "LUMI.TA").Msg("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "LUMI.TA")
}

func TestParseLevel_UnknownDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("verbose", &buf)

	log.Debug().Msg("debug line")
	assert.Empty(t, buf.String())
	log.Info().Msg("info line")
	assert.Contains(t, buf.String(), "info line")
}

func TestNewSilent_DiscardsEverything(t *testing.T) {
	log := NewSilent()
	assert.NotPanics(t, func() { log.Error().Msg("nowhere") })
}
