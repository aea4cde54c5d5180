package service

import (
	"context"
	"fmt"

	"github.com/RoyceAzure/lab/crm/internal/constants"
	"github.com/RoyceAzure/lab/crm/internal/domain/event"
	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
)

const opUpdateLowStockProducts = "updateLowStockProducts"

type RestockResult struct {
	Success  bool
	Message  string
	Products []model.Product
}

type IStockService interface {
	UpdateLowStockProducts(ctx context.Context) (*RestockResult, error)
}

type StockService struct {
	baseService
	threshold int
	quantity  int
}

func NewStockService(store repository.Store, opts ...Option) *StockService {
	return &StockService{
		baseService: newBaseService(store, opts...),
		threshold:   constants.LowStockThreshold,
		quantity:    constants.RestockQuantity,
	}
}

// UpdateLowStockProducts 庫存 < 10 的商品各補 10
// 每次呼叫每個商品只讀取與更新一次, 重複呼叫會持續增加
func (s *StockService) UpdateLowStockProducts(ctx context.Context) (*RestockResult, error) {
	var updated []model.Product

	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		low, err := tx.ListProductsStockBelow(ctx, s.threshold)
		if err != nil {
			return err
		}

		updated = make([]model.Product, 0, len(low))
		for _, p := range low {
			newStock, err := tx.AddProductStock(ctx, p.ID, s.quantity)
			if err != nil {
				return err
			}
			p.Stock = newStock
			updated = append(updated, p)
		}
		return nil
	})
	if err != nil {
		return nil, s.internal(ctx, opUpdateLowStockProducts, err)
	}

	now := s.now()
	evts := make([]event.Event, 0, len(updated))
	for i := range updated {
		evts = append(evts, event.NewProductRestockedEvent(&updated[i], s.quantity, now))
	}
	s.publish(ctx, evts...)
	s.observer.ObserveMutation(opUpdateLowStockProducts, "success")

	return &RestockResult{
		Success:  true,
		Message:  fmt.Sprintf("%d products updated at %s", len(updated), now.Format(constants.LogSinkTimeFormat)),
		Products: updated,
	}, nil
}

var _ IStockService = (*StockService)(nil)
