package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestFromStore(t *testing.T) {
	known := Conflict("category.create", "A category with this name already exists")

	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil stays nil",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "coded error passes through",
			err:         fmt.Errorf("tx fn: %w", known),
			wantCode:    ECONFLICT,
			wantMessage: "A category with this name already exists",
		},
		{
			name:        "no rows is not found",
			err:         fmt.Errorf("get: %w", pgx.ErrNoRows),
			wantCode:    ENOTFOUND,
			wantMessage: "Resource not found",
		},
		{
			name:        "foreign key violation is invalid",
			err:         &pgconn.PgError{Code: "23503"},
			wantCode:    EINVALID,
			wantMessage: "Foreign key constraint failed",
		},
		{
			name:        "unique violation is conflict",
			err:         fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}),
			wantCode:    ECONFLICT,
			wantMessage: "Resource already exists",
		},
		{
			name:        "anything else is internal with context",
			err:         errors.New("connection reset"),
			wantCode:    EINTERNAL,
			wantMessage: "An error occurred while creating product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromStore(tt.err, "product.create", "creating product")
			assert.Equal(t, tt.wantCode, Code(got))
			assert.Equal(t, tt.wantMessage, Message(got))
		})
	}
}

func TestFromStore_KeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := FromStore(cause, "category.update", "updating category")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "category.update", Op(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestMessage_UnknownErrorIsHidden(t *testing.T) {
	msg := Message(errors.New("dial tcp 10.0.0.3:5432: i/o timeout"))
	assert.Equal(t, "An internal error occurred. Please try again later.", msg)
	assert.Equal(t, EINTERNAL, Code(errors.New("x")))
}

func TestSentinelsMatchWithErrorsIs(t *testing.T) {
	sentinel := &Error{Code: EINVALID, Message: "a category cannot be its own parent"}
	wrapped := fmt.Errorf("validate parent: %w", sentinel)

	assert.ErrorIs(t, wrapped, sentinel)
	assert.True(t, Is(wrapped, EINVALID))
}
