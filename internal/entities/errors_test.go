package entities_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yagnesh-3/Fira-sub001/internal/entities"
)

func TestKindOfAndCodeOf(t *testing.T) {
	testCases := []struct {
		Name string
		Err  error
		Kind error
		Code string
	}{
		{
			Name: "coded error",
			Err:  entities.ErrSoldOut,
			Kind: entities.ErrConflict,
			Code: "sold_out",
		},
		{
			Name: "wrapped coded error",
			Err:  fmt.Errorf("2024-05-01 is blocked: %w", entities.ErrVenueUnavailable),
			Kind: entities.ErrConflict,
			Code: "venue_unavailable",
		},
		{
			Name: "already decided is already processed",
			Err:  entities.ErrAlreadyDecided,
			Kind: entities.ErrAlreadyProcessed,
			Code: "already_decided",
		},
		{
			Name: "formatted kind",
			Err:  entities.Errorf(entities.ErrForbidden, "not yours"),
			Kind: entities.ErrForbidden,
			Code: "forbidden",
		},
		{
			Name: "not found",
			Err:  fmt.Errorf("loading: %w", entities.Errorf(entities.ErrNotFound, "booking %d", 1)),
			Kind: entities.ErrNotFound,
			Code: "not_found",
		},
		{
			Name: "unclassified",
			Err:  errors.New("connection reset"),
			Kind: nil,
			Code: "internal_error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Kind, entities.KindOf(tc.Err))
			assert.Equal(t, tc.Code, entities.CodeOf(tc.Err))
		})
	}
}

func TestErrorf_KeepsMessage(t *testing.T) {
	err := entities.Errorf(entities.ErrValidation, "quantity must be at least %d", 1)

	assert.EqualError(t, err, "quantity must be at least 1: validation error")
	assert.ErrorIs(t, err, entities.ErrValidation)
}
