package event

import (
	"strconv"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	CustomerCreatedEventName  EventType = "customer.created"
	ProductCreatedEventName   EventType = "product.created"
	ProductRestockedEventName EventType = "product.restocked"
	OrderCreatedEventName     EventType = "order.created"
)

type Event interface {
	Type() EventType
	GetID() string
	GetAggregateID() string
}

type BaseEvent struct {
	EventID     string    `json:"eventId"`
	AggregateID string    `json:"aggregateId"`
	CreatedAt   time.Time `json:"createdAt"`
	EventType   EventType `json:"eventType"`
}

func newBase(t EventType, aggregateID uint, now time.Time) BaseEvent {
	return BaseEvent{
		EventID:     uuid.New().String(),
		AggregateID: strconv.FormatUint(uint64(aggregateID), 10),
		CreatedAt:   now,
		EventType:   t,
	}
}

func (e *BaseEvent) GetID() string          { return e.EventID }
func (e *BaseEvent) GetAggregateID() string { return e.AggregateID }
func (e *BaseEvent) Type() EventType        { return e.EventType }

type CustomerCreatedEvent struct {
	BaseEvent
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewCustomerCreatedEvent(c *model.Customer, now time.Time) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseEvent: newBase(CustomerCreatedEventName, c.ID, now),
		Name:      c.Name,
		Email:     c.Email,
	}
}

type ProductCreatedEvent struct {
	BaseEvent
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

func NewProductCreatedEvent(p *model.Product, now time.Time) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseEvent: newBase(ProductCreatedEventName, p.ID, now),
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
	}
}

type ProductRestockedEvent struct {
	BaseEvent
	Added    int `json:"added"`
	NewStock int `json:"newStock"`
}

func NewProductRestockedEvent(p *model.Product, added int, now time.Time) *ProductRestockedEvent {
	return &ProductRestockedEvent{
		BaseEvent: newBase(ProductRestockedEventName, p.ID, now),
		Added:     added,
		NewStock:  p.Stock,
	}
}

type OrderCreatedEvent struct {
	BaseEvent
	CustomerID  uint            `json:"customerId"`
	ProductIDs  []uint          `json:"productIds"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	OrderDate   time.Time       `json:"orderDate"`
}

func NewOrderCreatedEvent(o *model.Order, now time.Time) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseEvent:   newBase(OrderCreatedEventName, o.ID, now),
		CustomerID:  o.CustomerID,
		ProductIDs:  o.ProductIDs(),
		TotalAmount: o.TotalAmount,
		OrderDate:   o.OrderDate,
	}
}
