package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("URL is required"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("Unauthorized"), http.StatusUnauthorized},
		{"not found", NotFound("Download not found"), http.StatusNotFound},
		{"conflict", Conflict("Cannot delete default path"), http.StatusConflict},
		{"internal", Internal(errors.New("db down")), http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("cancel: %w", Conflict("already completed")), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessageHidesInternalDetail(t *testing.T) {
	err := Internal(errors.New("pq: password authentication failed"))
	assert.Equal(t, "Internal server error", Message(err))
	assert.Equal(t, "Internal server error", Message(errors.New("raw")))
	assert.Equal(t, "Download not found", Message(NotFound("Download not found")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, KindInternal))
	assert.False(t, Is(nil, KindInternal))
}
