package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/davidogiale/lizzy-han-house-of-fashion-sub000/internal/entity"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	items  map[string][]domain.OrderItem

	createErr error
	// casHook runs before each UpdateStatusIf, letting tests interleave a
	// concurrent writer between a caller's read and its CAS.
	casHook func()
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[string]*domain.Order),
		items:  make(map[string][]domain.OrderItem),
	}
}

func (r *fakeOrderRepo) put(o *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
		cp.UpdatedAt = cp.CreatedAt
	}
	r.orders[o.ID] = &cp
}

func (r *fakeOrderRepo) CreateWithItems(_ context.Context, o *domain.Order, items []domain.OrderItem) error {
	if r.createErr != nil {
		// Atomic: nothing persists on failure.
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.orders[o.ID] = &cp
	r.items[o.ID] = append([]domain.OrderItem(nil), items...)
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) ItemsByOrder(_ context.Context, orderID string) ([]domain.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.OrderItem(nil), r.items[orderID]...), nil
}

func (r *fakeOrderRepo) ListByUser(_ context.Context, userID string, _ int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatusIf(_ context.Context, id string, from, to domain.Status) (bool, error) {
	if r.casHook != nil {
		r.casHook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeOrderRepo) status(id string) domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Status
}

func (r *fakeOrderRepo) updatedAt(id string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].UpdatedAt
}

type fakeCartRepo struct {
	items    []domain.CartItem
	cleared  bool
	clearErr error
	readErr  error
}

func (r *fakeCartRepo) ItemsForUser(context.Context, string) ([]domain.CartItem, error) {
	if r.readErr != nil {
		return nil, r.readErr
	}
	return r.items, nil
}

func (r *fakeCartRepo) Clear(context.Context, string) error {
	if r.clearErr != nil {
		return r.clearErr
	}
	r.cleared = true
	r.items = nil
	return nil
}

type fakeGateway struct {
	mu        sync.Mutex
	initErr   error
	initCalls []InitializePayment
	verifyErr error
	// transactions by reference, as the gateway would report them
	transactions map[string]*GatewayTransaction
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{transactions: make(map[string]*GatewayTransaction)}
}

func (g *fakeGateway) Initialize(_ context.Context, in InitializePayment) (*PaymentSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls = append(g.initCalls, in)
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &PaymentSession{
		AuthorizationURL: "https://checkout.example/" + in.Reference,
		AccessCode:       "ac_" + in.Reference,
		Reference:        in.Reference,
	}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (*GatewayTransaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	tx, ok := g.transactions[reference]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

type fakeIdem struct {
	mu     sync.Mutex
	locks  map[string]bool
	values map[string]string
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{locks: make(map[string]bool), values: make(map[string]string)}
}

func (s *fakeIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope + ":" + key
	if s.locks[k] {
		return false, nil
	}
	s.locks[k] = true
	return true, nil
}

func (s *fakeIdem) Unlock(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, scope+":"+key)
	return nil
}

func (s *fakeIdem) Remember(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[scope+":"+key] = value
	return nil
}

func (s *fakeIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[scope+":"+key]
	return v, ok, nil
}

type fakeStatusPublisher struct {
	mu   sync.Mutex
	msgs []StatusChangedMsg
	err  error
}

func (p *fakeStatusPublisher) PublishStatusChanged(_ context.Context, msg StatusChangedMsg) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

type fakeCreatedPublisher struct {
	msgs []CreatedMsg
}

func (p *fakeCreatedPublisher) PublishCreated(_ context.Context, msg CreatedMsg) error {
	p.msgs = append(p.msgs, msg)
	return nil
}

var errBoom = errors.New("boom")
