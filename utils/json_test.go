package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONFromCodeBlock(t *testing.T) {
	response := "Here is the result:\n```json\n{\"invoice_type\": \"hotel\"}\n```\nDone."

	assert.Equal(t, `{"invoice_type": "hotel"}`, ExtractJSON(response))
}

func TestExtractJSONFromGenericCodeBlock(t *testing.T) {
	response := "```\n{\"total_amount\": \"42.00\"}\n```"

	assert.Equal(t, `{"total_amount": "42.00"}`, ExtractJSON(response))
}

func TestExtractJSONRaw(t *testing.T) {
	response := `{"currency": "EUR", "description": "Taxi {airport}"}`

	assert.Equal(t, response, ExtractJSON(response))
}

func TestExtractJSONEmbeddedInProse(t *testing.T) {
	response := `The classification is {"invoice_type": "taxi", "reasoning": "mentions a cab ride"} as shown.`

	assert.Equal(t, `{"invoice_type": "taxi", "reasoning": "mentions a cab ride"}`, ExtractJSON(response))
}

func TestExtractJSONHandlesBracesInStrings(t *testing.T) {
	response := `{"description": "Hotel {Four Seasons}", "currency": "USD"}`

	assert.Equal(t, response, ExtractJSON(response))
}

func TestExtractJSONNoObject(t *testing.T) {
	assert.Equal(t, "", ExtractJSON("no json here"))
	assert.Equal(t, "", ExtractJSON(`{"unterminated": "object"`))
}
