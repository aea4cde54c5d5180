package service

import (
	"testing"

	"github.com/RoyceAzure/lab/crm/internal/pkg/fault"
	"github.com/RoyceAzure/lab/crm/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ProductServiceTestSuite struct {
	serviceSuite
	svc *ProductService
}

func TestProductService(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}

func (suite *ProductServiceTestSuite) SetupTest() {
	suite.serviceSuite.SetupTest()
	suite.svc = NewProductService(suite.store, suite.opts()...)
}

func intPtr(i int) *int { return &i }

func (suite *ProductServiceTestSuite) TestCreateProduct_DefaultStock() {
	payload, err := suite.svc.CreateProduct(suite.ctx, ProductInput{Name: "Widget", Price: decimal.RequireFromString("9.99")})
	suite.Require().NoError(err)
	suite.Require().True(payload.Success)
	suite.Equal(MsgProductCreated, payload.Message)
	suite.Equal(0, payload.Record.Stock)
	suite.True(decimal.RequireFromString("9.99").Equal(payload.Record.Price))

	stored, err := suite.store.GetProductByID(suite.ctx, payload.Record.ID)
	suite.Require().NoError(err)
	suite.Equal("Widget", stored.Name)
}

func (suite *ProductServiceTestSuite) TestCreateProduct_Rejected() {
	testCases := []struct {
		name  string
		input ProductInput
		msg   string
	}{
		{
			name:  "zero price",
			input: ProductInput{Name: "Widget", Price: decimal.Zero},
			msg:   validation.MsgPriceNotPositive,
		},
		{
			name:  "negative price",
			input: ProductInput{Name: "Widget", Price: decimal.RequireFromString("-0.01")},
			msg:   validation.MsgPriceNotPositive,
		},
		{
			name:  "too many decimals",
			input: ProductInput{Name: "Widget", Price: decimal.RequireFromString("1.005")},
			msg:   validation.MsgPriceOutOfRange,
		},
		{
			name:  "negative stock",
			input: ProductInput{Name: "Widget", Price: decimal.NewFromInt(1), Stock: intPtr(-1)},
			msg:   validation.MsgStockNegative,
		},
		{
			name:  "price checked before stock",
			input: ProductInput{Name: "Widget", Price: decimal.NewFromInt(-1), Stock: intPtr(-1)},
			msg:   validation.MsgPriceNotPositive,
		},
		{
			name:  "missing name",
			input: ProductInput{Price: decimal.NewFromInt(1)},
			msg:   validation.MsgNameRequired,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			payload, err := suite.svc.CreateProduct(suite.ctx, tc.input)
			suite.Require().NoError(err)
			suite.False(payload.Success)
			suite.Nil(payload.Record)
			suite.Equal(fault.Validation, payload.Kind)
			suite.Equal(tc.msg, payload.Message)
		})
	}

	products, err := suite.store.ListProducts(suite.ctx)
	suite.Require().NoError(err)
	suite.Empty(products)
}
