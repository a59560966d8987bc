package validation

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryNumber(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		required bool
		want     int64
		errType  string
	}{
		{name: "default", query: "", want: 10},
		{name: "given", query: "?n=25", want: 25},
		{name: "missing", query: "", required: true, errType: "validation.query.parameter.missing"},
		{name: "not a number", query: "?n=ten", errType: "validation.query.parameter.invalidType"},
		{name: "too small", query: "?n=0", errType: "validation.query.parameter.number.outOfRange"},
		{name: "too large", query: "?n=101", errType: "validation.query.parameter.number.outOfRange"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/"+c.query, nil)

			got, err := QueryNumber(request, "n", c.required, 10, 1, 100)

			if c.errType != "" {
				require.NotNil(t, err)
				assert.Equal(t, c.errType, err.Type)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestQueryLimit(t *testing.T) {
	limit, err := QueryLimit(httptest.NewRequest("GET", "/", nil), 50)
	assert.Nil(t, err)
	assert.Equal(t, uint64(50), limit)

	_, err = QueryLimit(httptest.NewRequest("GET", "/?limit=501", nil), 50)
	assert.NotNil(t, err)
}
