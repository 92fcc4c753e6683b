package order

import (
	"testing"

	"bookheaven-be/internal/apperr"

	"github.com/stretchr/testify/assert"
)

func TestPermissive_AllowsAnyEdge(t *testing.T) {
	p := Permissive{}
	assert.NoError(t, p.Allow(StatusCompleted, StatusOrderReceived))
	assert.NoError(t, p.Allow(StatusCancelled, StatusPreparing))
}

func TestStrict_Allow(t *testing.T) {
	p := Strict{}

	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusOrderReceived, StatusPaymentConfirmed, true},
		{StatusPaymentConfirmed, StatusPreparing, true},
		{StatusPreparing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusCompleted, StatusRefunded, true},
		{StatusOrderReceived, StatusCompleted, false},
		{StatusRefunded, StatusOrderReceived, false},
		{StatusShipped, StatusCancelled, false},
		{StatusPreparing, StatusPreparing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := p.Allow(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, apperr.InvalidState, apperr.KindOf(err))
		})
	}
}

func TestPolicyFor(t *testing.T) {
	assert.IsType(t, Strict{}, PolicyFor("strict"))
	assert.IsType(t, Permissive{}, PolicyFor("permissive"))
	assert.IsType(t, Permissive{}, PolicyFor(""))
}
