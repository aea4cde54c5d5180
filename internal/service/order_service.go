package service

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/event"
	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"github.com/RoyceAzure/lab/crm/internal/pkg/fault"
	"github.com/RoyceAzure/lab/crm/internal/validation"
)

const (
	opCreateOrder = "createOrder"

	MsgOrderCreated = "Order created."
)

type OrderInput struct {
	CustomerID uint
	ProductIDs []uint
	// nil 時使用寫入當下時間
	OrderDate *time.Time
}

type IOrderService interface {
	CreateOrder(ctx context.Context, in OrderInput) (*Payload[model.Order], error)
}

type OrderService struct {
	baseService
}

func NewOrderService(store repository.Store, opts ...Option) *OrderService {
	return &OrderService{baseService: newBaseService(store, opts...)}
}

/*
CreateOrder 檢查順序: 客戶存在 -> 至少一個商品 -> 所有商品存在 -> 金額不超出上限
重複的商品 id 只計價一次
金額在建立當下依商品單價計算, 之後價格異動不影響既有訂單
錯誤:
  - fault.Internal: 資料庫錯誤
*/
func (s *OrderService) CreateOrder(ctx context.Context, in OrderInput) (*Payload[model.Order], error) {
	var (
		order    *model.Order
		rejectF  *fault.Fault
		errAbort = errors.New("order rejected")
	)

	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		customer, err := tx.GetCustomerByID(ctx, in.CustomerID)
		if errors.Is(err, repository.ErrNotFound) {
			rejectF = fault.New(fault.NotFound, validation.MsgInvalidCustomer)
			return errAbort
		}
		if err != nil {
			return err
		}

		ids := validation.NonEmptyProductIDs(uniqueIDs(in.ProductIDs))
		if !ids.OK() {
			rejectF = ids.Fault()
			return errAbort
		}

		found, err := tx.GetProductsByIDs(ctx, ids.Value())
		if err != nil {
			return err
		}
		products := validation.ProductsExist(ids.Value(), found)
		if !products.OK() {
			rejectF = products.Fault()
			return errAbort
		}

		total := validation.TotalFits(model.SumPrices(products.Value()))
		if !total.OK() {
			rejectF = total.Fault()
			return errAbort
		}

		orderDate := s.now()
		if in.OrderDate != nil {
			orderDate = *in.OrderDate
		}
		order = &model.Order{
			CustomerID:  customer.ID,
			Customer:    *customer,
			Products:    products.Value(),
			OrderDate:   orderDate,
			TotalAmount: total.Value(),
		}
		return tx.CreateOrder(ctx, order)
	})

	switch {
	case err == nil:
	case errors.Is(err, errAbort):
		return rejected[model.Order](&s.baseService, opCreateOrder, rejectF)
	case errors.Is(err, repository.ErrNotFound):
		// 驗證後參照才消失, 由 foreign key 擋下
		return rejected[model.Order](&s.baseService, opCreateOrder, fault.New(fault.NotFound, validation.MsgInvalidProductIDs))
	default:
		return nil, s.internal(ctx, opCreateOrder, err)
	}

	s.publish(ctx, event.NewOrderCreatedEvent(order, s.now()))
	return succeeded(&s.baseService, opCreateOrder, order, MsgOrderCreated)
}

var _ IOrderService = (*OrderService)(nil)
