package service

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"github.com/RoyceAzure/lab/crm/internal/pkg/fault"
	"github.com/shopspring/decimal"
)

type OrderStats struct {
	TotalCount   int64
	TotalRevenue decimal.Decimal
}

type IQueryService interface {
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	// since 為 nil 時回傳全部
	ListOrders(ctx context.Context, since *time.Time) ([]model.Order, error)
	CountCustomers(ctx context.Context) (int64, error)
	CountProducts(ctx context.Context) (int64, error)
	OrderStats(ctx context.Context) (*OrderStats, error)
}

// QueryService 唯讀查詢, 錯誤一律包成 fault.Internal
type QueryService struct {
	store repository.Store
}

func NewQueryService(store repository.Store) *QueryService {
	if store == nil {
		panic("query service dependency store is nil")
	}
	return &QueryService{store: store}
}

func (q *QueryService) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	customers, err := q.store.ListCustomers(ctx)
	if err != nil {
		return nil, fault.Internalf(err, "list customers")
	}
	return customers, nil
}

func (q *QueryService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := q.store.ListProducts(ctx)
	if err != nil {
		return nil, fault.Internalf(err, "list products")
	}
	return products, nil
}

func (q *QueryService) ListOrders(ctx context.Context, since *time.Time) ([]model.Order, error) {
	var (
		orders []model.Order
		err    error
	)
	if since != nil {
		orders, err = q.store.ListOrdersSince(ctx, *since)
	} else {
		orders, err = q.store.ListOrders(ctx)
	}
	if err != nil {
		return nil, fault.Internalf(err, "list orders")
	}
	return orders, nil
}

func (q *QueryService) CountCustomers(ctx context.Context) (int64, error) {
	n, err := q.store.CountCustomers(ctx)
	if err != nil {
		return 0, fault.Internalf(err, "count customers")
	}
	return n, nil
}

func (q *QueryService) CountProducts(ctx context.Context) (int64, error) {
	n, err := q.store.CountProducts(ctx)
	if err != nil {
		return 0, fault.Internalf(err, "count products")
	}
	return n, nil
}

func (q *QueryService) OrderStats(ctx context.Context) (*OrderStats, error) {
	stats := &OrderStats{}
	err := q.store.ExecTx(ctx, func(tx repository.Store) error {
		n, err := tx.CountOrders(ctx)
		if err != nil {
			return err
		}
		revenue, err := tx.SumOrderRevenue(ctx)
		if err != nil {
			return err
		}
		stats.TotalCount = n
		stats.TotalRevenue = revenue
		return nil
	})
	if err != nil {
		return nil, fault.Internalf(err, "order stats")
	}
	return stats, nil
}

var _ IQueryService = (*QueryService)(nil)
