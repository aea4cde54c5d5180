package service

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/event"
	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository/memory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, evts ...event.Event) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

type countingObserver struct {
	outcomes map[string][]string
}

func (o *countingObserver) ObserveMutation(operation, outcome string) {
	if o.outcomes == nil {
		o.outcomes = make(map[string][]string)
	}
	o.outcomes[operation] = append(o.outcomes[operation], outcome)
}

// faults 可以注入到 faultyStore 的錯誤, 交易內外共用
type faults struct {
	createCustomerErr   error
	createCustomerAfter int
	creates             int
	hideEmails          bool
	listStockErr        error
}

// faultyStore 包住 memory store, 模擬資料庫錯誤與並行寫入
type faultyStore struct {
	repository.Store
	f *faults
}

func (s *faultyStore) ExecTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.ExecTx(ctx, func(tx repository.Store) error {
		return fn(&faultyStore{Store: tx, f: s.f})
	})
}

func (s *faultyStore) CreateCustomer(ctx context.Context, c *model.Customer) error {
	s.f.creates++
	if s.f.createCustomerErr != nil && s.f.creates > s.f.createCustomerAfter {
		return s.f.createCustomerErr
	}
	return s.Store.CreateCustomer(ctx, c)
}

func (s *faultyStore) GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	if s.f.hideEmails {
		return nil, repository.ErrNotFound
	}
	return s.Store.GetCustomerByEmail(ctx, email)
}

func (s *faultyStore) ListProductsStockBelow(ctx context.Context, threshold int) ([]model.Product, error) {
	if s.f.listStockErr != nil {
		return nil, s.f.listStockErr
	}
	return s.Store.ListProductsStockBelow(ctx, threshold)
}

// serviceSuite 各 service 測試共用的環境
type serviceSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	store     *memory.Store
	publisher *mockPublisher
	observer  *countingObserver
}

func (suite *serviceSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	suite.store = memory.NewStore(memory.WithClock(suite.clock))
	suite.publisher = new(mockPublisher)
	suite.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	suite.observer = &countingObserver{}
}

func (suite *serviceSuite) clock() time.Time {
	return suite.now
}

func (suite *serviceSuite) opts() []Option {
	return []Option{WithClock(suite.clock), WithPublisher(suite.publisher), WithObserver(suite.observer)}
}

func (suite *serviceSuite) customerCount() int64 {
	n, err := suite.store.CountCustomers(suite.ctx)
	suite.Require().NoError(err)
	return n
}

func (suite *serviceSuite) orderCount() int64 {
	n, err := suite.store.CountOrders(suite.ctx)
	suite.Require().NoError(err)
	return n
}

// publishedTypes 依序列出所有發布過的事件類型
func (suite *serviceSuite) publishedTypes() []event.EventType {
	var types []event.EventType
	for _, call := range suite.publisher.Calls {
		for _, evt := range call.Arguments.Get(1).([]event.Event) {
			types = append(types, evt.Type())
		}
	}
	return types
}
