package resilience

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestGenerationError_Unwrap(t *testing.T) {
	base := eris.New("provider exploded")
	err := NewGenerationError("selection", base)

	assert.Contains(t, err.Error(), "selection")
	assert.True(t, errors.Is(err, base))

	var ge *GenerationError
	assert.True(t, errors.As(err, &ge))
	assert.Equal(t, "selection", ge.Stage)
}

func TestSearchError_Unwrap(t *testing.T) {
	base := eris.New("timeout")
	err := NewSearchError("capital of France", base)

	assert.Contains(t, err.Error(), "capital of France")

	var se *SearchError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, "capital of France", se.Query)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit_transient", NewTransientError(eris.New("throttled"), 429), true},
		{"wrapped_transient", eris.Wrap(NewTransientError(eris.New("x"), 503), "outer"), true},
		{"status_429_text", eris.New("tavily: unexpected status 429: slow down"), true},
		{"status_503_text", eris.New("jina: status 503: unavailable"), true},
		{"io_timeout_text", eris.New("dial tcp: i/o timeout"), true},
		{"plain_error", eris.New("malformed output"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 400, 401, 404, 422} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}
