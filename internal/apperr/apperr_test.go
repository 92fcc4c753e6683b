package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("Classified", func(t *testing.T) {
		err := fmt.Errorf("placing order: %w", New(NotFound, "Book 1 not found"))
		assert.Equal(t, NotFound, KindOf(err))
	})

	t.Run("Unclassified", func(t *testing.T) {
		assert.Equal(t, Internal, KindOf(errors.New("connection reset")))
	})
}

func TestError_Is(t *testing.T) {
	sentinel := New(InvalidState, "Payment must be PAID before confirming order")
	wrapped := Wrap(InvalidState, sentinel.Message, errors.New("cause"))

	assert.ErrorIs(t, wrapped, sentinel)
	assert.NotErrorIs(t, wrapped, New(InvalidInput, sentinel.Message))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		InvalidInput:    http.StatusBadRequest,
		InvalidState:    http.StatusBadRequest,
		NotFound:        http.StatusNotFound,
		Forbidden:       http.StatusForbidden,
		Unauthenticated: http.StatusUnauthorized,
		Internal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind.String())
	}
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Cart is empty", PublicMessage(New(InvalidInput, "Cart is empty")))
	assert.Equal(t, "Server error", PublicMessage(errors.New("pq: relation \"orders\" does not exist")))
	assert.Equal(t, "Server error", PublicMessage(Wrap(Internal, "db down", errors.New("x"))))
}
