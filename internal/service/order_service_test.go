package service

import (
	"testing"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/event"
	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/pkg/fault"
	"github.com/RoyceAzure/lab/crm/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type OrderServiceTestSuite struct {
	serviceSuite
	svc      *OrderService
	customer *model.Customer
}

func TestOrderService(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (suite *OrderServiceTestSuite) SetupTest() {
	suite.serviceSuite.SetupTest()
	suite.svc = NewOrderService(suite.store, suite.opts()...)

	payload, err := NewCustomerService(suite.store).CreateCustomer(suite.ctx, CustomerInput{Name: "Ada", Email: "ada@example.com"})
	suite.Require().NoError(err)
	suite.customer = payload.Record
}

func (suite *OrderServiceTestSuite) product(name, price string, stock int) *model.Product {
	payload, err := NewProductService(suite.store).CreateProduct(suite.ctx, ProductInput{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: &stock,
	})
	suite.Require().NoError(err)
	suite.Require().True(payload.Success)
	return payload.Record
}

func (suite *OrderServiceTestSuite) TestCreateOrder_Scenario() {
	widget := suite.product("Widget", "9.99", 2)

	payload, err := suite.svc.CreateOrder(suite.ctx, OrderInput{
		CustomerID: suite.customer.ID,
		ProductIDs: []uint{widget.ID},
	})
	suite.Require().NoError(err)
	suite.Require().True(payload.Success, payload.Message)
	suite.Equal(MsgOrderCreated, payload.Message)
	suite.True(decimal.RequireFromString("9.99").Equal(payload.Record.TotalAmount))
	suite.Equal("ada@example.com", payload.Record.Customer.Email)
	suite.Equal(suite.now, payload.Record.OrderDate)

	stored, err := suite.store.GetOrderByID(suite.ctx, payload.Record.ID)
	suite.Require().NoError(err)
	suite.Equal([]uint{widget.ID}, stored.ProductIDs())
	suite.Contains(suite.publishedTypes(), event.OrderCreatedEventName)
}

// 金額為各商品單價的精確加總, 沒有浮點誤差
func (suite *OrderServiceTestSuite) TestCreateOrder_ExactDecimalTotal() {
	a := suite.product("A", "0.10", 1)
	b := suite.product("B", "0.20", 1)
	c := suite.product("C", "99999.99", 1)

	payload, err := suite.svc.CreateOrder(suite.ctx, OrderInput{
		CustomerID: suite.customer.ID,
		ProductIDs: []uint{a.ID, b.ID, c.ID},
	})
	suite.Require().NoError(err)
	suite.Require().True(payload.Success)
	suite.Equal("100000.29", payload.Record.TotalAmount.StringFixed(2))
}

func (suite *OrderServiceTestSuite) TestCreateOrder_DuplicateIDsPricedOnce() {
	widget := suite.product("Widget", "9.99", 2)

	payload, err := suite.svc.CreateOrder(suite.ctx, OrderInput{
		CustomerID: suite.customer.ID,
		ProductIDs: []uint{widget.ID, widget.ID, widget.ID},
	})
	suite.Require().NoError(err)
	suite.Require().True(payload.Success)
	suite.True(decimal.RequireFromString("9.99").Equal(payload.Record.TotalAmount))
	suite.Len(payload.Record.Products, 1)
}

func (suite *OrderServiceTestSuite) TestCreateOrder_ExplicitDate() {
	widget := suite.product("Widget", "1.00", 2)
	when := time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)

	payload, err := suite.svc.CreateOrder(suite.ctx, OrderInput{
		CustomerID: suite.customer.ID,
		ProductIDs: []uint{widget.ID},
		OrderDate:  &when,
	})
	suite.Require().NoError(err)
	suite.Equal(when, payload.Record.OrderDate)
}

// 單價合法但加總超出 numeric(10,2) 時以驗證錯誤拒絕, 不寫入
func (suite *OrderServiceTestSuite) TestCreateOrder_TotalOutOfRange() {
	a := suite.product("A", "99999999.99", 1)
	b := suite.product("B", "99999999.99", 1)

	payload, err := suite.svc.CreateOrder(suite.ctx, OrderInput{
		CustomerID: suite.customer.ID,
		ProductIDs: []uint{a.ID, b.ID},
	})
	suite.Require().NoError(err)
	suite.False(payload.Success)
	suite.Nil(payload.Record)
	suite.Equal(fault.Validation, payload.Kind)
	suite.Equal(validation.MsgTotalOutOfRange, payload.Message)
	suite.Zero(suite.orderCount())
	suite.NotContains(suite.publishedTypes(), event.OrderCreatedEventName)
}

func (suite *OrderServiceTestSuite) TestCreateOrder_Rejected() {
	widget := suite.product("Widget", "9.99", 2)

	testCases := []struct {
		name  string
		input OrderInput
		kind  fault.Kind
		msg   string
	}{
		{
			name:  "unknown customer",
			input: OrderInput{CustomerID: 999, ProductIDs: []uint{widget.ID}},
			kind:  fault.NotFound,
			msg:   validation.MsgInvalidCustomer,
		},
		{
			name:  "customer checked before products",
			input: OrderInput{CustomerID: 999},
			kind:  fault.NotFound,
			msg:   validation.MsgInvalidCustomer,
		},
		{
			name:  "no products",
			input: OrderInput{CustomerID: suite.customer.ID},
			kind:  fault.Validation,
			msg:   validation.MsgNoProducts,
		},
		{
			name:  "unknown product",
			input: OrderInput{CustomerID: suite.customer.ID, ProductIDs: []uint{widget.ID, 404}},
			kind:  fault.NotFound,
			msg:   validation.MsgInvalidProductIDs,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			payload, err := suite.svc.CreateOrder(suite.ctx, tc.input)
			suite.Require().NoError(err)
			suite.False(payload.Success)
			suite.Nil(payload.Record)
			suite.Equal(tc.kind, payload.Kind)
			suite.Equal(tc.msg, payload.Message)
		})
	}

	suite.Zero(suite.orderCount())
}
