package order

import (
	"context"
	"sync"

	"bookheaven-be/internal/book"
	"bookheaven-be/internal/events"
	"bookheaven-be/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, o *Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]*Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Order, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*Order), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange) error {
	return m.Called(ctx, id, change).Error(0)
}

func (m *MockRepository) UpdatePayment(ctx context.Context, id uuid.UUID, payment PaymentStatus) error {
	return m.Called(ctx, id, payment).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockBookRepository struct {
	mock.Mock
}

func (m *MockBookRepository) GetByID(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*book.Book), args.Error(1)
}

func (m *MockBookRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*book.Book, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*book.Book), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Account), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.Account, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*user.Account), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*user.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Account), args.Error(1)
}

func (m *MockUserRepository) AppendOrderSummary(ctx context.Context, userID uuid.UUID, s user.OrderSummary) error {
	return m.Called(ctx, userID, s).Error(0)
}

func (m *MockUserRepository) UpdateOrderSummaryStatus(ctx context.Context, userID, orderID uuid.UUID, status string) (bool, error) {
	args := m.Called(ctx, userID, orderID, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) RemoveOrderSummary(ctx context.Context, userID, orderID uuid.UUID) error {
	return m.Called(ctx, userID, orderID).Error(0)
}

func (m *MockUserRepository) ListOrderSummaries(ctx context.Context, userID uuid.UUID) ([]user.OrderSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.OrderSummary), args.Error(1)
}

func (m *MockUserRepository) ListLibrary(ctx context.Context, userID uuid.UUID) ([]user.LibraryEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]user.LibraryEntry), args.Error(1)
}

func (m *MockUserRepository) AddLibraryEntries(ctx context.Context, userID uuid.UUID, entries []user.LibraryEntry) (int, error) {
	args := m.Called(ctx, userID, entries)
	return args.Int(0), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// countingLocker records which keys were taken and how many were released.
type countingLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
	err      error
}

func (l *countingLocker) Lock(_ context.Context, key string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}
