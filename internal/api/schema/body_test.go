package schema

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Text    string `json:"text" required:"true"`
	Count   *int   `json:"count" min:"1" max:"8"`
	Seed    int    `json:"seed"`
	Options struct {
		Retries *uint `json:"retries" required:"true" max:"5"`
	} `json:"options"`
}

func unmarshal(t *testing.T, body string) (*testPayload, []*Error) {
	request := httptest.NewRequest("POST", "/", strings.NewReader(body))
	payload, errs, err := UnmarshalBody[testPayload](request)
	require.NoError(t, err)
	return payload, errs
}

func errorTypes(errs []*Error) []string {
	types := make([]string, 0, len(errs))
	for _, err := range errs {
		types = append(types, err.Type+":"+err.Details["parameter"].(string))
	}
	return types
}

func TestUnmarshalBody(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		payload, errs := unmarshal(t, `{"text":"a red fox","count":4,"options":{"retries":2}}`)

		assert.Empty(t, errs)
		require.NotNil(t, payload)
		assert.Equal(t, "a red fox", payload.Text)
		assert.Equal(t, 4, *payload.Count)
		assert.Equal(t, uint(2), *payload.Options.Retries)
	})

	t.Run("missing parameters", func(t *testing.T) {
		_, errs := unmarshal(t, `{"text":"   "}`)

		assert.ElementsMatch(t, []string{
			"validation.requestBody.parameter.missing:text",
			"validation.requestBody.parameter.missing:options.retries",
		}, errorTypes(errs))
	})

	t.Run("numbers out of range", func(t *testing.T) {
		_, errs := unmarshal(t, `{"text":"fox","count":9,"options":{"retries":6}}`)

		assert.ElementsMatch(t, []string{
			"validation.requestBody.parameter.number.outOfRange:count",
			"validation.requestBody.parameter.number.outOfRange:options.retries",
		}, errorTypes(errs))
	})

	t.Run("invalid types", func(t *testing.T) {
		_, errs := unmarshal(t, `{"text":"fox","count":"four"}`)

		require.Len(t, errs, 1)
		assert.Equal(t, "validation.requestBody.parameter.invalidType", errs[0].Type)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, errs := unmarshal(t, `{"text":`)

		require.Len(t, errs, 1)
		assert.Equal(t, "validation.requestBody.invalidJSON", errs[0].Type)
	})

	t.Run("oversized body", func(t *testing.T) {
		_, errs := unmarshal(t, `{"text":"`+strings.Repeat("a", MaxBodySize)+`"}`)

		require.Len(t, errs, 1)
		assert.Equal(t, "validation.requestBody.tooLarge", errs[0].Type)
	})
}

func TestBuildListResponse(t *testing.T) {
	response := BuildListResponse[string](50, nil)

	assert.Equal(t, uint64(50), response.Limit)
	assert.Zero(t, response.IncludedCount)
	assert.NotNil(t, response.Data)
}
