package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	p, err := Load()
	require.NoError(t, err)

	assert.Contains(t, p.Classify, "{{TYPES}}")
	assert.Contains(t, p.ExtractGeneral, "{{CURRENCY_LIST}}")
	assert.Contains(t, p.ExtractHotel, "guest")
	assert.Contains(t, p.Summarize, "{{RATE_INFO}}")
}

func TestExtractFallsBackToGeneral(t *testing.T) {
	p, err := Load()
	require.NoError(t, err)

	assert.Equal(t, p.ExtractHotel, p.Extract("hotel"))
	assert.Equal(t, p.ExtractGeneral, p.Extract("general"))
	assert.Equal(t, p.ExtractGeneral, p.Extract("something-else"))
}

func TestRender(t *testing.T) {
	out := Render("types: {{TYPES}}, again: {{TYPES}}, rate: {{RATE_INFO}}", map[string]string{
		"TYPES":     "hotel, taxi",
		"RATE_INFO": "1 USD = 0.86 Euro",
	})

	assert.Equal(t, "types: hotel, taxi, again: hotel, taxi, rate: 1 USD = 0.86 Euro", out)
	assert.False(t, strings.Contains(out, "{{"))
}
