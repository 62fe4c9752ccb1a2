package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindInternal},
		{"unknown", errors.New("boom"), KindInternal},
		{"validation", ErrInvalidQuantity, KindValidation},
		{"wrapped validation", fmt.Errorf("%w: name is required", ErrInvalidInput), KindValidation},
		{"conflict", ErrOutOfStock, KindStateConflict},
		{"wrapped conflict", fmt.Errorf("cancel: %w", ErrAlreadyCancelled), KindStateConflict},
		{"not found", ErrDesignNotFound, KindNotFound},
		{"authorization", ErrNotOwner, KindAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "state_conflict", KindStateConflict.String())
	assert.Equal(t, "internal", Kind(99).String())
}
