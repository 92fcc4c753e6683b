package auth

import (
	"context"

	"bookheaven-be/internal/apperr"
)

type Action string

const (
	ActionPlaceOrder    Action = "order:place"
	ActionListOrders    Action = "order:list"
	ActionGetOrder      Action = "order:get"
	ActionCancelOrder   Action = "order:cancel"
	ActionUpdateStatus  Action = "order:update_status"
	ActionUpdatePayment Action = "order:update_payment"
	ActionDeleteOrder   Action = "order:delete"
	ActionReadLibrary   Action = "library:read"
)

var (
	ErrUnauthenticated = apperr.New(apperr.Unauthenticated, "Unauthorized")
	ErrForbidden       = apperr.New(apperr.Forbidden, "Forbidden")
)

var anyRole = []Role{RoleUser, RoleAdmin}

// policy is the single source of which roles may perform which action.
var policy = map[Action][]Role{
	ActionPlaceOrder:    anyRole,
	ActionListOrders:    anyRole,
	ActionCancelOrder:   anyRole,
	ActionReadLibrary:   anyRole,
	ActionGetOrder:      {RoleAdmin},
	ActionUpdateStatus:  {RoleAdmin},
	ActionUpdatePayment: {RoleAdmin},
	ActionDeleteOrder:   {RoleAdmin},
}

// Authorize checks a against the policy table. Unknown actions are denied.
func Authorize(a Actor, action Action) error {
	for _, r := range policy[action] {
		if a.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// Require resolves the actor on ctx and authorizes action for it.
func Require(ctx context.Context, action Action) (Actor, error) {
	a, ok := ActorFromContext(ctx)
	if !ok {
		return Actor{}, ErrUnauthenticated
	}
	if err := Authorize(a, action); err != nil {
		return Actor{}, err
	}
	return a, nil
}
