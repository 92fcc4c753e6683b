package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"bookheaven-be/internal/apperr"
	"bookheaven-be/internal/auth"
	"bookheaven-be/internal/book"
	"bookheaven-be/internal/events"
	"bookheaven-be/internal/lock"
	"bookheaven-be/internal/logger"
	"bookheaven-be/internal/metrics"
	"bookheaven-be/internal/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Service interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error)
	ListOrders(ctx context.Context) ([]*OrderDetail, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetail, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Order, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, payment PaymentStatus) (*Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo        Repository
	books       book.Repository
	users       user.Repository
	locker      lock.Locker
	publisher   events.Publisher
	metrics     *metrics.OrderMetrics
	transitions TransitionPolicy
	now         func() time.Time
}

func NewService(
	repo Repository,
	books book.Repository,
	users user.Repository,
	locker lock.Locker,
	publisher events.Publisher,
	m *metrics.OrderMetrics,
	transitions TransitionPolicy,
) Service {
	return newService(repo, books, users, locker, publisher, m, transitions)
}

func newService(
	repo Repository,
	books book.Repository,
	users user.Repository,
	locker lock.Locker,
	publisher events.Publisher,
	m *metrics.OrderMetrics,
	transitions TransitionPolicy,
) *service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if m == nil {
		m = metrics.NewOrderMetrics()
	}
	if transitions == nil {
		transitions = Permissive{}
	}
	return &service{
		repo:        repo,
		books:       books,
		users:       users,
		locker:      locker,
		publisher:   publisher,
		metrics:     m,
		transitions: transitions,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// PlaceOrder validates the cart against current catalog prices and persists
// the order, then records it on the account. The two writes are independent:
// if the second fails the order stays persisted.
func (s *service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	defer metrics.StartTimer().ObserveTo(&s.metrics.PlaceLatency)

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
	)

	actor, err := auth.Require(ctx, auth.ActionPlaceOrder)
	if err != nil {
		return nil, err
	}

	items, err := s.priceItems(ctx, in)
	if err != nil {
		s.metrics.Rejected.Inc()
		log.Info("order rejected", zap.Error(err))
		return nil, err
	}

	now := s.now()
	payment := PaymentUnpaid
	if in.PaymentMethod == PaymentMethodCOD {
		payment = PaymentPending
	}

	o := &Order{
		ID:              uuid.New(),
		UserID:          actor.UserID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		ShippingFee:     in.ShippingFee.String(),
		PaymentMethod:   in.PaymentMethod,
		TotalAmount:     in.TotalAmount.Decimal,
		Status:          StatusOrderReceived,
		Payment:         payment,
		History:         []StatusChange{{Status: StatusOrderReceived, ChangedBy: actor.UserID, ChangedAt: now}},
		CreatedAt:       now,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to save order", err)
	}
	log = log.With(zap.String("order_id", o.ID.String()))

	summary := user.OrderSummary{OrderID: o.ID, Status: string(o.Status), PlacedAt: now}
	if err := s.users.AppendOrderSummary(ctx, actor.UserID, summary); err != nil {
		log.Error("order saved but account summary was not written", zap.Error(err))
		return nil, apperr.Wrap(apperr.Internal, "failed to record order on account", err)
	}

	s.metrics.Placed.Inc()
	s.publish(ctx, events.Event{
		Type:    events.OrderPlaced,
		OrderID: o.ID,
		UserID:  o.UserID,
		ActorID: actor.UserID,
		Status:  string(o.Status),
		Payment: string(o.Payment),
	})

	log.Info("order placed", zap.String("total", o.TotalAmount.String()))
	return o, nil
}

// priceItems runs the placement checks in order, first violation wins, and
// returns the line items priced from the catalog.
func (s *service) priceItems(ctx context.Context, in PlaceOrderInput) ([]LineItem, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if strings.TrimSpace(in.ShippingAddress) == "" ||
		!in.ShippingFee.Valid || in.ShippingFee.Decimal.IsZero() ||
		strings.TrimSpace(in.PaymentMethod) == "" ||
		!in.TotalAmount.Valid || in.TotalAmount.Decimal.IsZero() {
		return nil, ErrMissingFields
	}

	ids := make([]uuid.UUID, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		ids = append(ids, it.BookID)
	}

	catalog, err := s.books.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to load books", err)
	}

	subtotal := decimal.Zero
	items := make([]LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		b, ok := catalog[it.BookID]
		if !ok {
			return nil, errBookNotFound(it.BookID)
		}
		subtotal = subtotal.Add(b.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		items = append(items, LineItem{BookID: b.ID, Quantity: it.Quantity, Price: b.Price})
	}

	if !subtotal.Add(in.ShippingFee.Decimal).Equal(in.TotalAmount.Decimal) {
		return nil, ErrTotalMismatch
	}
	return items, nil
}

// ListOrders returns every order to admins, and to anyone else the orders
// their account summaries reference, in summary order.
func (s *service) ListOrders(ctx context.Context) ([]*OrderDetail, error) {
	actor, err := auth.Require(ctx, auth.ActionListOrders)
	if err != nil {
		return nil, err
	}

	var orders []*Order
	if actor.IsAdmin() {
		orders, err = s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		summaries, err := s.users.ListOrderSummaries(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}

		ids := make([]uuid.UUID, len(summaries))
		for i, sm := range summaries {
			ids[i] = sm.OrderID
		}
		byID, err := s.repo.ListByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}

		for _, sm := range summaries {
			// Summaries can outlive their order; skip the dangling ones.
			if o, ok := byID[sm.OrderID]; ok {
				orders = append(orders, o)
			}
		}
	}

	return s.details(ctx, orders)
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetail, error) {
	if _, err := auth.Require(ctx, auth.ActionGetOrder); err != nil {
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := s.details(ctx, []*Order{o})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// details joins orders with their owners and books. The two lookups are
// independent and run concurrently.
func (s *service) details(ctx context.Context, orders []*Order) ([]*OrderDetail, error) {
	out := make([]*OrderDetail, 0, len(orders))
	if len(orders) == 0 {
		return out, nil
	}

	var userIDs, bookIDs []uuid.UUID
	seenUsers := map[uuid.UUID]bool{}
	seenBooks := map[uuid.UUID]bool{}
	for _, o := range orders {
		if !seenUsers[o.UserID] {
			seenUsers[o.UserID] = true
			userIDs = append(userIDs, o.UserID)
		}
		for _, it := range o.Items {
			if !seenBooks[it.BookID] {
				seenBooks[it.BookID] = true
				bookIDs = append(bookIDs, it.BookID)
			}
		}
	}

	var (
		accounts map[uuid.UUID]*user.Account
		books    map[uuid.UUID]*book.Book
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.users.GetByIDs(gctx, userIDs)
		return err
	})
	g.Go(func() error {
		var err error
		books, err = s.books.GetByIDs(gctx, bookIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, o := range orders {
		d := &OrderDetail{Order: o, User: accounts[o.UserID], Items: make([]ItemDetail, len(o.Items))}
		for i, it := range o.Items {
			d.Items[i] = ItemDetail{LineItem: it, Book: books[it.BookID]}
		}
		out = append(out, d)
	}
	return out, nil
}

// UpdateStatus moves an order to status and records the change. Moving to
// PAYMENT_CONFIRMED requires a PAID order and grants the order's books to
// the owner's library.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Order, error) {
	defer metrics.StartTimer().ObserveTo(&s.metrics.StatusLatency)

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", id.String()),
	)

	actor, err := auth.Require(ctx, auth.ActionUpdateStatus)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if status == StatusPaymentConfirmed && o.Payment != PaymentPaid {
		return nil, ErrPaymentNotConfirmed
	}
	if err := s.transitions.Allow(o.Status, status); err != nil {
		return nil, err
	}

	change := StatusChange{Status: status, ChangedBy: actor.UserID, ChangedAt: s.now()}
	if err := s.repo.UpdateStatus(ctx, id, change); err != nil {
		return nil, err
	}
	from := o.Status
	o.Status = status
	o.UpdatedAt = change.ChangedAt
	o.History = append(o.History, change)
	s.metrics.StatusChanges.Inc()

	s.syncSummary(ctx, o.UserID, id, status)
	s.publish(ctx, events.Event{
		Type:    events.OrderStatusChanged,
		OrderID: id,
		UserID:  o.UserID,
		ActorID: actor.UserID,
		Status:  string(status),
	})
	log.Info("order status updated", zap.String("from", string(from)), zap.String("to", string(status)))

	if status == StatusPaymentConfirmed {
		if err := s.grantLibrary(ctx, o, actor); err != nil {
			return nil, err
		}
	}

	return o, nil
}

// grantLibrary adds every book of o that has content and is not yet owned to
// the owner's library. Repeated calls grant nothing new.
func (s *service) grantLibrary(ctx context.Context, o *Order, actor auth.Actor) error {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "grantLibrary"),
		zap.String("order_id", o.ID.String()),
		zap.String("user_id", o.UserID.String()),
	)

	if _, err := s.users.GetByID(ctx, o.UserID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			log.Warn("order owner no longer exists")
			return ErrUserNotFound
		}
		return err
	}

	library, err := s.users.ListLibrary(ctx, o.UserID)
	if err != nil {
		return err
	}
	owned := make(map[uuid.UUID]bool, len(library))
	for _, e := range library {
		owned[e.BookID] = true
	}

	var candidates []uuid.UUID
	for _, it := range o.Items {
		if owned[it.BookID] {
			continue
		}
		owned[it.BookID] = true
		candidates = append(candidates, it.BookID)
	}
	if len(candidates) == 0 {
		return nil
	}

	books, err := s.books.GetByIDs(ctx, candidates)
	if err != nil {
		return err
	}

	now := s.now()
	var (
		entries []user.LibraryEntry
		granted []uuid.UUID
	)
	for _, id := range candidates {
		b, ok := books[id]
		if !ok || !b.HasContent() {
			continue
		}
		entries = append(entries, user.LibraryEntry{BookID: id, BookFile: *b.BookFile, PurchasedAt: now})
		granted = append(granted, id)
	}
	if len(entries) == 0 {
		return nil
	}

	added, err := s.users.AddLibraryEntries(ctx, o.UserID, entries)
	if err != nil {
		return err
	}
	if added == 0 {
		return nil
	}

	s.metrics.LibraryGrants.Add(uint64(added))
	s.publish(ctx, events.Event{
		Type:    events.LibraryGranted,
		OrderID: o.ID,
		UserID:  o.UserID,
		ActorID: actor.UserID,
		BookIDs: granted,
	})
	log.Info("library entries granted", zap.Int("count", added))
	return nil
}

// UpdatePayment sets the payment status. It neither records history nor
// grants library access.
func (s *service) UpdatePayment(ctx context.Context, id uuid.UUID, payment PaymentStatus) (*Order, error) {
	actor, err := auth.Require(ctx, auth.ActionUpdatePayment)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payment != PaymentPending && payment != PaymentPaid {
		return nil, ErrInvalidPayment
	}

	if err := s.repo.UpdatePayment(ctx, id, payment); err != nil {
		return nil, err
	}
	o.Payment = payment
	o.UpdatedAt = s.now()
	s.metrics.PaymentUpdates.Inc()

	s.publish(ctx, events.Event{
		Type:    events.OrderPaymentUpdated,
		OrderID: id,
		UserID:  o.UserID,
		ActorID: actor.UserID,
		Payment: string(payment),
	})
	return o, nil
}

// CancelOrder lets any authenticated account cancel an order that has not
// shipped yet.
func (s *service) CancelOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	actor, err := auth.Require(ctx, auth.ActionCancelOrder)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, actor.UserID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if o.Status == StatusShipped || o.Status == StatusDelivered {
		return nil, ErrNotCancellable
	}

	change := StatusChange{Status: StatusCancelled, ChangedBy: actor.UserID, ChangedAt: s.now()}
	if err := s.repo.UpdateStatus(ctx, id, change); err != nil {
		return nil, err
	}
	o.Status = StatusCancelled
	o.UpdatedAt = change.ChangedAt
	o.History = append(o.History, change)
	s.metrics.Cancelled.Inc()

	s.syncSummary(ctx, actor.UserID, id, StatusCancelled)
	s.publish(ctx, events.Event{
		Type:    events.OrderCancelled,
		OrderID: id,
		UserID:  o.UserID,
		ActorID: actor.UserID,
		Status:  string(StatusCancelled),
	})
	return o, nil
}

// DeleteOrder removes the order and pulls it from the owner's summaries.
func (s *service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	actor, err := auth.Require(ctx, auth.ActionDeleteOrder)
	if err != nil {
		return err
	}

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.users.RemoveOrderSummary(ctx, o.UserID, id); err != nil {
		logger.FromCtx(ctx).Error("order deleted but account summary was not removed",
			zap.String("order_id", id.String()),
			zap.String("user_id", o.UserID.String()),
			zap.Error(err),
		)
		return apperr.Wrap(apperr.Internal, "failed to remove order from account", err)
	}
	s.metrics.Deleted.Inc()

	s.publish(ctx, events.Event{
		Type:    events.OrderDeleted,
		OrderID: id,
		UserID:  o.UserID,
		ActorID: actor.UserID,
	})
	return nil
}

func (s *service) lock(ctx context.Context, id uuid.UUID) (func(), error) {
	unlock, err := s.locker.Lock(ctx, "order:"+id.String())
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to lock order", err)
	}
	return unlock, nil
}

// syncSummary mirrors a status change onto the account summary. A failure
// leaves the summary stale and is only logged.
func (s *service) syncSummary(ctx context.Context, userID, orderID uuid.UUID, status Status) {
	matched, err := s.users.UpdateOrderSummaryStatus(ctx, userID, orderID, string(status))
	if err != nil {
		logger.FromCtx(ctx).Warn("failed to sync order summary",
			zap.String("order_id", orderID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return
	}
	if !matched {
		logger.FromCtx(ctx).Debug("account holds no summary for order",
			zap.String("order_id", orderID.String()),
			zap.String("user_id", userID.String()),
		)
	}
}

func (s *service) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = s.now()
	if err := s.publisher.Publish(ctx, e); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish order event",
			zap.String("type", string(e.Type)),
			zap.String("order_id", e.OrderID.String()),
			zap.Error(err),
		)
	}
}
