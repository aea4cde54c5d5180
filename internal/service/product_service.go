package service

import (
	"context"

	"github.com/RoyceAzure/lab/crm/internal/domain/event"
	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"github.com/RoyceAzure/lab/crm/internal/validation"
	"github.com/shopspring/decimal"
)

const (
	opCreateProduct = "createProduct"

	MsgProductCreated = "Product created."
)

type ProductInput struct {
	Name  string
	Price decimal.Decimal
	// nil 時預設 0
	Stock *int
}

type IProductService interface {
	CreateProduct(ctx context.Context, in ProductInput) (*Payload[model.Product], error)
}

type ProductService struct {
	baseService
}

func NewProductService(store repository.Store, opts ...Option) *ProductService {
	return &ProductService{baseService: newBaseService(store, opts...)}
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput) (*Payload[model.Product], error) {
	stock := 0
	if in.Stock != nil {
		stock = *in.Stock
	}

	name := validation.RequiredName(in.Name)
	f := validation.FirstFault(
		validation.PositivePrice(in.Price).Fault,
		validation.PriceFits(in.Price).Fault,
		validation.NonNegativeStock(stock).Fault,
		name.Fault,
	)
	if f != nil {
		return rejected[model.Product](&s.baseService, opCreateProduct, f)
	}

	product := &model.Product{
		Name:  name.Value(),
		Price: in.Price,
		Stock: stock,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, s.internal(ctx, opCreateProduct, err)
	}

	s.publish(ctx, event.NewProductCreatedEvent(product, s.now()))
	return succeeded(&s.baseService, opCreateProduct, product, MsgProductCreated)
}

var _ IProductService = (*ProductService)(nil)
