package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	models "marketplace/model"

	"github.com/shopspring/decimal"
)

// ErrMissingReference is returned by the memory store where a SQL backend
// would report a foreign key violation.
var ErrMissingReference = errors.New("referenced row does not exist")

type stockKey struct{ product, seller string }

type lineKey struct{ order, product, seller string }

type memLine struct {
	line models.CartLine
	seq  uint64
}

type memState struct {
	plans    map[int]models.Plan
	sellers  map[string]models.Seller
	products map[string]models.Product
	stocks   map[stockKey]models.Stock
	orders   map[string]models.Order
	lines    map[lineKey]memLine
	seq      uint64
}

func newMemState() *memState {
	return &memState{
		plans:    map[int]models.Plan{},
		sellers:  map[string]models.Seller{},
		products: map[string]models.Product{},
		stocks:   map[stockKey]models.Stock{},
		orders:   map[string]models.Order{},
		lines:    map[lineKey]memLine{},
	}
}

func (m *memState) clone() *memState {
	c := &memState{
		plans:    make(map[int]models.Plan, len(m.plans)),
		sellers:  make(map[string]models.Seller, len(m.sellers)),
		products: make(map[string]models.Product, len(m.products)),
		stocks:   make(map[stockKey]models.Stock, len(m.stocks)),
		orders:   make(map[string]models.Order, len(m.orders)),
		lines:    make(map[lineKey]memLine, len(m.lines)),
		seq:      m.seq,
	}
	for k, v := range m.plans {
		c.plans[k] = v
	}
	for k, v := range m.sellers {
		c.sellers[k] = v
	}
	for k, v := range m.products {
		c.products[k] = v
	}
	for k, v := range m.stocks {
		c.stocks[k] = v
	}
	for k, v := range m.orders {
		c.orders[k] = v
	}
	for k, v := range m.lines {
		c.lines[k] = v
	}
	return c
}

// MemoryStore keeps every table in process memory. One mutex is held for
// the whole unit of work, so transactions are fully serialised; fn works
// on a copy that replaces the live state only when fn succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(ctx, &memTx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemoryStore) Close() error { return nil }

type memTx struct {
	st *memState
}

func (t *memTx) InsertPlan(_ context.Context, p models.Plan) error {
	if _, ok := t.st.plans[p.ID]; ok {
		return fmt.Errorf("%w: plan %d", ErrDuplicate, p.ID)
	}
	t.st.plans[p.ID] = p
	return nil
}

func (t *memTx) GetPlan(_ context.Context, planID int) (*models.Plan, error) {
	p, ok := t.st.plans[planID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *memTx) ListPlans(_ context.Context) ([]models.Plan, error) {
	out := make([]models.Plan, 0, len(t.st.plans))
	for _, p := range t.st.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) InsertSeller(_ context.Context, s models.Seller) error {
	if _, ok := t.st.sellers[s.ID]; ok {
		return fmt.Errorf("%w: seller %s", ErrDuplicate, s.ID)
	}
	if _, ok := t.st.plans[s.PlanID]; !ok {
		return fmt.Errorf("%w: plan %d", ErrMissingReference, s.PlanID)
	}
	t.st.sellers[s.ID] = s
	return nil
}

func (t *memTx) LockSeller(_ context.Context, sellerID string) (*models.Seller, error) {
	s, ok := t.st.sellers[sellerID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (t *memTx) UpdateSeller(_ context.Context, s models.Seller) error {
	cur, ok := t.st.sellers[s.ID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := t.st.plans[s.PlanID]; !ok {
		return fmt.Errorf("%w: plan %d", ErrMissingReference, s.PlanID)
	}
	cur.SessionCount = s.SessionCount
	cur.PlanID = s.PlanID
	t.st.sellers[s.ID] = cur
	return nil
}

func (t *memTx) InsertProduct(_ context.Context, p models.Product) error {
	if _, ok := t.st.products[p.ID]; ok {
		return fmt.Errorf("%w: product %s", ErrDuplicate, p.ID)
	}
	t.st.products[p.ID] = p
	return nil
}

func (t *memTx) GetProduct(_ context.Context, productID string) (*models.Product, error) {
	p, ok := t.st.products[productID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *memTx) InsertStock(_ context.Context, s models.Stock) error {
	if s.Count < 0 {
		return ErrNegativeStock
	}
	k := stockKey{s.ProductID, s.SellerID}
	if _, ok := t.st.stocks[k]; ok {
		return fmt.Errorf("%w: stock %s/%s", ErrDuplicate, s.ProductID, s.SellerID)
	}
	if _, ok := t.st.products[s.ProductID]; !ok {
		return fmt.Errorf("%w: product %s", ErrMissingReference, s.ProductID)
	}
	if _, ok := t.st.sellers[s.SellerID]; !ok {
		return fmt.Errorf("%w: seller %s", ErrMissingReference, s.SellerID)
	}
	t.st.stocks[k] = s
	return nil
}

func (t *memTx) LockStock(_ context.Context, productID, sellerID string) (*models.Stock, error) {
	s, ok := t.st.stocks[stockKey{productID, sellerID}]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (t *memTx) UpdateStock(_ context.Context, s models.Stock) error {
	if s.Count < 0 {
		return ErrNegativeStock
	}
	k := stockKey{s.ProductID, s.SellerID}
	if _, ok := t.st.stocks[k]; !ok {
		return ErrNotFound
	}
	t.st.stocks[k] = s
	return nil
}

func (t *memTx) ReservedAmount(_ context.Context, productID, sellerID string) (int, error) {
	total := 0
	for k, l := range t.st.lines {
		if k.product != productID || k.seller != sellerID {
			continue
		}
		if o, ok := t.st.orders[k.order]; ok && o.Status == models.StatusCreated {
			total += l.line.Amount
		}
	}
	return total, nil
}

func (t *memTx) InsertOrder(_ context.Context, o models.Order) error {
	if _, ok := t.st.orders[o.ID]; ok {
		return fmt.Errorf("%w: order %s", ErrDuplicate, o.ID)
	}
	if o.Status == models.StatusCreated {
		for _, cur := range t.st.orders {
			if cur.CustomerID == o.CustomerID && cur.Status == models.StatusCreated {
				return fmt.Errorf("%w: customer %s already has an open order", ErrConflict, o.CustomerID)
			}
		}
	}
	o.Lines = nil
	t.st.orders[o.ID] = o
	return nil
}

func (t *memTx) LockOpenOrder(_ context.Context, customerID string) (*models.Order, error) {
	for _, o := range t.st.orders {
		if o.CustomerID == customerID && o.Status == models.StatusCreated {
			return &o, nil
		}
	}
	return nil, nil
}

func (t *memTx) LockOrder(_ context.Context, orderID string) (*models.Order, error) {
	o, ok := t.st.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (t *memTx) UpdateOrder(_ context.Context, o models.Order) error {
	if _, ok := t.st.orders[o.ID]; !ok {
		return ErrNotFound
	}
	o.Lines = nil
	t.st.orders[o.ID] = o
	return nil
}

func (t *memTx) ListCartLines(_ context.Context, orderID string) ([]models.CartLine, error) {
	var held []memLine
	for k, l := range t.st.lines {
		if k.order == orderID {
			held = append(held, l)
		}
	}
	sort.Slice(held, func(i, j int) bool { return held[i].seq < held[j].seq })
	out := make([]models.CartLine, 0, len(held))
	for _, l := range held {
		out = append(out, l.line)
	}
	return out, nil
}

func (t *memTx) GetCartLine(_ context.Context, orderID, productID, sellerID string) (*models.CartLine, error) {
	l, ok := t.st.lines[lineKey{orderID, productID, sellerID}]
	if !ok {
		return nil, nil
	}
	return &l.line, nil
}

func (t *memTx) InsertCartLine(_ context.Context, l models.CartLine) error {
	k := lineKey{l.OrderID, l.ProductID, l.SellerID}
	if _, ok := t.st.lines[k]; ok {
		return fmt.Errorf("%w: cart line %s/%s/%s", ErrDuplicate, l.OrderID, l.ProductID, l.SellerID)
	}
	if _, ok := t.st.orders[l.OrderID]; !ok {
		return fmt.Errorf("%w: order %s", ErrMissingReference, l.OrderID)
	}
	if _, ok := t.st.stocks[stockKey{l.ProductID, l.SellerID}]; !ok {
		if _, ok := t.st.products[l.ProductID]; !ok {
			return fmt.Errorf("%w: product %s", ErrMissingReference, l.ProductID)
		}
	}
	t.st.seq++
	t.st.lines[k] = memLine{line: l, seq: t.st.seq}
	return nil
}

func (t *memTx) UpdateCartLine(_ context.Context, l models.CartLine) error {
	k := lineKey{l.OrderID, l.ProductID, l.SellerID}
	cur, ok := t.st.lines[k]
	if !ok {
		return ErrNotFound
	}
	cur.line.Amount = l.Amount
	t.st.lines[k] = cur
	return nil
}

func (t *memTx) DeleteCartLine(_ context.Context, orderID, productID, sellerID string) error {
	k := lineKey{orderID, productID, sellerID}
	if _, ok := t.st.lines[k]; !ok {
		return ErrNotFound
	}
	delete(t.st.lines, k)
	return nil
}

func (t *memTx) OrderWeight(_ context.Context, orderID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for k, l := range t.st.lines {
		if k.order != orderID {
			continue
		}
		p, ok := t.st.products[k.product]
		if !ok {
			continue
		}
		total = total.Add(p.Weight.Mul(decimal.NewFromInt(int64(l.line.Amount))))
	}
	return total, nil
}

var _ Store = (*MemoryStore)(nil)
var _ Tx = (*memTx)(nil)
