package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"```json\n{\"invoice_type\": \"taxi\", \"class_probs\": {\"taxi\": 0.95}, \"reasoning\": \"mentions a cab ride\"}\n```",
	}}
	classifier := NewInvoiceClassifier(llm, testPrompts(t), testRegistry(t), testLogger())

	result, err := classifier.Classify(context.Background(), "# Taxi Receipt\nFare: 23.50 EUR")
	require.NoError(t, err)

	assert.Equal(t, "taxi", result.InvoiceType)
	assert.Equal(t, "mentions a cab ride", result.Reasoning)
	require.Len(t, llm.calls, 1)
	assert.Contains(t, llm.calls[0].system, "taxi")
	assert.Equal(t, "# Taxi Receipt\nFare: 23.50 EUR", llm.calls[0].user)
}

func TestClassifyNormalizesType(t *testing.T) {
	llm := &fakeLLM{responses: []string{`{"invoice_type": " Hotel "}`}}
	classifier := NewInvoiceClassifier(llm, testPrompts(t), testRegistry(t), testLogger())

	result, err := classifier.Classify(context.Background(), "Hotel Adler, 2 nights")
	require.NoError(t, err)

	assert.Equal(t, "hotel", result.InvoiceType)
}

func TestClassifyDefaultsToUnknownOnBadResponse(t *testing.T) {
	cases := []string{
		"I cannot classify this document.",
		`{"invoice_type": "spaceship"}`,
		`{"invoice_type": `,
	}

	for _, response := range cases {
		llm := &fakeLLM{responses: []string{response}}
		classifier := NewInvoiceClassifier(llm, testPrompts(t), testRegistry(t), testLogger())

		result, err := classifier.Classify(context.Background(), "some document")
		require.NoError(t, err, "response %q", response)
		assert.Equal(t, InvoiceTypeUnknown, result.InvoiceType, "response %q", response)
	}
}

func TestClassifyPropagatesLLMError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("api unavailable")}
	classifier := NewInvoiceClassifier(llm, testPrompts(t), testRegistry(t), testLogger())

	_, err := classifier.Classify(context.Background(), "some document")
	assert.ErrorContains(t, err, "classification request failed")
}
