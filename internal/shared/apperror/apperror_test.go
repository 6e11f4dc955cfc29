package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go-backoffice/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsAfterWithCause(t *testing.T) {
	sentinel := apperror.New(apperror.CodeInvalidState, "bad state", http.StatusConflict)
	wrapped := fmt.Errorf("approve: %w", sentinel.WithCause(errors.New("row locked")))

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.Contains(t, wrapped.Error(), "row locked")
	assert.False(t, errors.Is(wrapped, apperror.ErrNotFound))
}

func TestToHTTP(t *testing.T) {
	t.Run("app error keeps status and details", func(t *testing.T) {
		err := apperror.New(apperror.CodeConflict, "dup", http.StatusConflict).WithDetails(map[string]int{"year": 2026})

		httpErr := apperror.ToHTTP(fmt.Errorf("create: %w", err))

		assert.Equal(t, http.StatusConflict, httpErr.Status)
		assert.Equal(t, apperror.CodeConflict, httpErr.Code)
		assert.Equal(t, map[string]int{"year": 2026}, httpErr.Details)
	})

	t.Run("unknown error becomes internal", func(t *testing.T) {
		httpErr := apperror.ToHTTP(errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
		assert.Equal(t, apperror.CodeInternalError, httpErr.Code)
	})
}
