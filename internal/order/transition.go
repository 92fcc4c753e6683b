package order

// TransitionPolicy decides whether an order may move between two statuses.
// The payment guard on PAYMENT_CONFIRMED applies regardless of policy.
type TransitionPolicy interface {
	Allow(from, to Status) error
}

// Permissive accepts every edge, including leaving terminal states.
type Permissive struct{}

func (Permissive) Allow(Status, Status) error { return nil }

// Strict only accepts the edges in allowedTransitions.
type Strict struct{}

var allowedTransitions = map[Status][]Status{
	StatusOrderReceived:    {StatusPaymentConfirmed, StatusCancelled},
	StatusPaymentConfirmed: {StatusPreparing, StatusCancelled, StatusRefunded},
	StatusPreparing:        {StatusReadyForPickup, StatusShipped, StatusCancelled, StatusRefunded},
	StatusReadyForPickup:   {StatusPickedUp, StatusCancelled, StatusRefunded},
	StatusPickedUp:         {StatusCompleted, StatusRefunded},
	StatusShipped:          {StatusDelivered},
	StatusDelivered:        {StatusCompleted, StatusRefunded},
	StatusCompleted:        {StatusRefunded},
	StatusCancelled:        {StatusRefunded},
}

func (Strict) Allow(from, to Status) error {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return nil
		}
	}
	return errIllegalTransition(from, to)
}

// PolicyFor maps a configured policy name to its implementation; anything
// but "strict" is permissive.
func PolicyFor(name string) TransitionPolicy {
	if name == "strict" {
		return Strict{}
	}
	return Permissive{}
}
