package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapToHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", &ValidationError{Details: []string{`"name" is required`}}, http.StatusUnprocessableEntity},
		{"conflict", ErrConflict, http.StatusConflict},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"sender not registered", ErrSenderNotRegistered, http.StatusNotFound},
		{"wrapped storage failure", fmt.Errorf("%w: closed", ErrStorageUnavailable), http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, MapToHTTPStatus(tt.err))
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	req := require.New(t)
	err := &ValidationError{Details: []string{`"to" is required`, `"text" is required`}}
	req.Equal(`validation failed: "to" is required; "text" is required`, err.Error())
}
