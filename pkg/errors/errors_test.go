package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("move: %w", Clone(ErrConflict, "room busy"))
	got := FromError(wrapped)
	assert.Equal(t, "CONFLICT", got.Code)
	assert.Equal(t, "room busy", got.Message)

	got = FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "course not found")
	assert.Equal(t, "course not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromStore(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    string
		status  int
		message string
	}{
		{"no rows", sql.ErrNoRows, "NOT_FOUND", http.StatusNotFound, "course not found"},
		{"wrapped no rows", fmt.Errorf("find course: %w", sql.ErrNoRows), "NOT_FOUND", http.StatusNotFound, "course not found"},
		{"unique", &pq.Error{Code: "23505"}, "CONFLICT", http.StatusConflict, "course already exists"},
		{"foreign key", &pq.Error{Code: "23503"}, "VALIDATION_ERROR", http.StatusBadRequest, "course references a missing record"},
		{"other", errors.New("connection reset"), "INTERNAL_ERROR", http.StatusInternalServerError, "failed to create course"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromStore(tc.err, "course", "create")
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.message, got.Message)
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestFromStorePassesTypedErrorsThrough(t *testing.T) {
	typed := Clone(ErrForbidden, "not your session")
	assert.Same(t, typed, FromStore(typed, "timetable entry", "load"))
	assert.Nil(t, FromStore(nil, "course", "load"))
}
