package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"github.com/shopspring/decimal"
)

type orderRow struct {
	ID          uint
	CustomerID  uint
	OrderDate   time.Time
	TotalAmount decimal.Decimal
}

type state struct {
	customers map[uint]model.Customer
	products  map[uint]model.Product
	orders    map[uint]orderRow
	links     map[uint][]uint

	nextCustomerID uint
	nextProductID  uint
	nextOrderID    uint
}

func newState() *state {
	return &state{
		customers: make(map[uint]model.Customer),
		products:  make(map[uint]model.Product),
		orders:    make(map[uint]orderRow),
		links:     make(map[uint][]uint),
	}
}

func (s *state) clone() *state {
	c := &state{
		customers:      make(map[uint]model.Customer, len(s.customers)),
		products:       make(map[uint]model.Product, len(s.products)),
		orders:         make(map[uint]orderRow, len(s.orders)),
		links:          make(map[uint][]uint, len(s.links)),
		nextCustomerID: s.nextCustomerID,
		nextProductID:  s.nextProductID,
		nextOrderID:    s.nextOrderID,
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.links {
		c.links[k] = append([]uint(nil), v...)
	}
	return c
}

// Store 以記憶體實作 repository.Store, 供測試與本機開發使用
// 交易會複製整份狀態, 成功後才替換, 同一時間只有一個交易
type Store struct {
	mu    *sync.Mutex // 交易內為 nil, 外層已持有鎖
	st    *state
	nowFn func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFn = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		mu:    &sync.Mutex{},
		st:    newState(),
		nowFn: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) ExecTx(ctx context.Context, fn func(tx repository.Store) error) error {
	unlock := s.lock()
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.st.clone()
	if err := fn(&Store{st: work, nowFn: s.nowFn}); err != nil {
		return err
	}
	*s.st = *work
	return nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	defer s.lock()()

	for _, c := range s.st.customers {
		if c.Email == customer.Email {
			return repository.ErrDuplicateEmail
		}
	}
	s.st.nextCustomerID++
	customer.ID = s.st.nextCustomerID
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = s.nowFn()
	}
	s.st.customers[customer.ID] = copyCustomer(*customer)
	return nil
}

func (s *Store) GetCustomerByID(ctx context.Context, id uint) (*model.Customer, error) {
	defer s.lock()()

	c, ok := s.st.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyCustomer(c)
	return &out, nil
}

func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	defer s.lock()()

	for _, c := range s.st.customers {
		if c.Email == email {
			out := copyCustomer(c)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	defer s.lock()()

	out := make([]model.Customer, 0, len(s.st.customers))
	for _, id := range sortedKeys(s.st.customers) {
		out = append(out, copyCustomer(s.st.customers[id]))
	}
	return out, nil
}

func (s *Store) CountCustomers(ctx context.Context) (int64, error) {
	defer s.lock()()
	return int64(len(s.st.customers)), nil
}

func (s *Store) CreateProduct(ctx context.Context, product *model.Product) error {
	defer s.lock()()

	s.st.nextProductID++
	product.ID = s.st.nextProductID
	if product.CreatedAt.IsZero() {
		now := s.nowFn()
		product.CreatedAt = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	s.st.products[product.ID] = *product
	return nil
}

func (s *Store) GetProductByID(ctx context.Context, id uint) (*model.Product, error) {
	defer s.lock()()

	p, ok := s.st.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	defer s.lock()()

	wanted := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := make([]model.Product, 0, len(wanted))
	for _, id := range sortedKeys(s.st.products) {
		if _, ok := wanted[id]; ok {
			out = append(out, s.st.products[id])
		}
	}
	return out, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]model.Product, error) {
	defer s.lock()()

	out := make([]model.Product, 0, len(s.st.products))
	for _, id := range sortedKeys(s.st.products) {
		out = append(out, s.st.products[id])
	}
	return out, nil
}

func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	defer s.lock()()
	return int64(len(s.st.products)), nil
}

func (s *Store) ListProductsStockBelow(ctx context.Context, threshold int) ([]model.Product, error) {
	defer s.lock()()

	out := make([]model.Product, 0)
	for _, id := range sortedKeys(s.st.products) {
		if p := s.st.products[id]; p.Stock < threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) AddProductStock(ctx context.Context, id uint, quantity int) (int, error) {
	defer s.lock()()

	p, ok := s.st.products[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	p.Stock += quantity
	s.st.products[id] = p
	return p.Stock, nil
}

func (s *Store) CreateOrder(ctx context.Context, order *model.Order) error {
	defer s.lock()()

	if _, ok := s.st.customers[order.CustomerID]; !ok {
		return repository.ErrNotFound
	}
	productIDs := order.ProductIDs()
	for _, id := range productIDs {
		if _, ok := s.st.products[id]; !ok {
			return repository.ErrNotFound
		}
	}

	s.st.nextOrderID++
	order.ID = s.st.nextOrderID
	s.st.orders[order.ID] = orderRow{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		OrderDate:   order.OrderDate,
		TotalAmount: order.TotalAmount,
	}
	s.st.links[order.ID] = productIDs
	return nil
}

func (s *Store) GetOrderByID(ctx context.Context, id uint) (*model.Order, error) {
	defer s.lock()()

	row, ok := s.st.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o := s.st.hydrate(row)
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.listOrders(func(orderRow) bool { return true }), nil
}

func (s *Store) ListOrdersSince(ctx context.Context, since time.Time) ([]model.Order, error) {
	return s.listOrders(func(r orderRow) bool { return !r.OrderDate.Before(since) }), nil
}

func (s *Store) listOrders(keep func(orderRow) bool) []model.Order {
	defer s.lock()()

	out := make([]model.Order, 0)
	for _, id := range sortedKeys(s.st.orders) {
		if row := s.st.orders[id]; keep(row) {
			out = append(out, s.st.hydrate(row))
		}
	}
	return out
}

func (s *Store) CountOrders(ctx context.Context) (int64, error) {
	defer s.lock()()
	return int64(len(s.st.orders)), nil
}

func (s *Store) SumOrderRevenue(ctx context.Context) (decimal.Decimal, error) {
	defer s.lock()()

	total := decimal.Zero
	for _, row := range s.st.orders {
		total = total.Add(row.TotalAmount)
	}
	return total, nil
}

func (s *state) hydrate(row orderRow) model.Order {
	o := model.Order{
		ID:          row.ID,
		CustomerID:  row.CustomerID,
		Customer:    copyCustomer(s.customers[row.CustomerID]),
		OrderDate:   row.OrderDate,
		TotalAmount: row.TotalAmount,
	}
	for _, pid := range s.links[row.ID] {
		o.Products = append(o.Products, s.products[pid])
	}
	return o
}

func copyCustomer(c model.Customer) model.Customer {
	if c.Phone != nil {
		phone := *c.Phone
		c.Phone = &phone
	}
	c.Orders = nil
	return c
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

var _ repository.Store = (*Store)(nil)
