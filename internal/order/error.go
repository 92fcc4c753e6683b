package order

import (
	"bookheaven-be/internal/apperr"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart       = apperr.New(apperr.InvalidInput, "Cart is empty")
	ErrMissingFields   = apperr.New(apperr.InvalidInput, "Shipping address, shipping fee, payment method, and total amount are required")
	ErrInvalidQuantity = apperr.New(apperr.InvalidInput, "Item quantity must be at least 1")
	ErrTotalMismatch   = apperr.New(apperr.InvalidInput, "Calculated total amount doesn't match provided amount")
	ErrInvalidStatus   = apperr.New(apperr.InvalidInput, "Invalid order status")
	ErrInvalidPayment  = apperr.New(apperr.InvalidInput, "Invalid payment status")

	ErrOrderNotFound = apperr.New(apperr.NotFound, "Order not found")
	ErrUserNotFound  = apperr.New(apperr.NotFound, "User not found")

	ErrPaymentNotConfirmed = apperr.New(apperr.InvalidState, "Payment must be PAID before confirming order")
	ErrNotCancellable      = apperr.New(apperr.InvalidState, "Order cannot be canceled after it has been shipped")
)

func errBookNotFound(id uuid.UUID) error {
	return apperr.Newf(apperr.NotFound, "Book %s not found", id)
}

func errIllegalTransition(from, to Status) error {
	return apperr.Newf(apperr.InvalidState, "Order cannot move from %s to %s", from, to)
}
