package validation

import (
	"strings"
	"testing"

	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/pkg/fault"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	testCases := []struct {
		email string
		ok    bool
	}{
		{"ada@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"ops@localhost", true},
		{"", false},
		{"not-an-email", false},
		{"a@b", false},
		{"Ada <ada@example.com>", false},
		{"ada@example.com ", false},
		{"a b@example.com", false},
		{"ada@-bad.com", false},
		{"ada@@example.com", false},
		{"@example.com", false},
	}

	for _, tc := range testCases {
		t.Run(tc.email, func(t *testing.T) {
			r := ValidEmail(tc.email)
			assert.Equal(t, tc.ok, r.OK())
			if !tc.ok {
				require.NotNil(t, r.Fault())
				assert.Equal(t, fault.Validation, r.Fault().Kind)
				assert.Equal(t, MsgInvalidEmail, r.Fault().Message)
			}
		})
	}
}

func TestValidPhone(t *testing.T) {
	testCases := []struct {
		phone string
		ok    bool
	}{
		{"", true},
		{"+1234567890", true},
		{"+123456789012345", true},
		{"123-456-7890", true},
		{"+123456789", false},
		{"+1234567890123456", false},
		{"1234567890", false},
		{"123-4567-890", false},
		{"phone", false},
	}

	for _, tc := range testCases {
		t.Run(tc.phone, func(t *testing.T) {
			r := ValidPhone(tc.phone)
			assert.Equal(t, tc.ok, r.OK())
			if !tc.ok {
				assert.Equal(t, MsgInvalidPhone, r.Fault().Message)
			}
		})
	}
}

func TestEmailAvailable(t *testing.T) {
	assert.True(t, EmailAvailable("ada@example.com", nil).OK())

	r := EmailAvailable("ada@example.com", &model.Customer{ID: 1, Email: "ada@example.com"})
	require.False(t, r.OK())
	assert.Equal(t, fault.Conflict, r.Fault().Kind)
	assert.Equal(t, MsgEmailExists, r.Fault().Message)
}

func TestRequiredName(t *testing.T) {
	r := RequiredName("  Ada  ")
	require.True(t, r.OK())
	assert.Equal(t, "Ada", r.Value())

	assert.False(t, RequiredName("   ").OK())
	assert.False(t, RequiredName(strings.Repeat("x", 101)).OK())
	assert.True(t, RequiredName(strings.Repeat("é", 100)).OK())
}

func TestPriceRules(t *testing.T) {
	testCases := []struct {
		price    string
		positive bool
		fits     bool
	}{
		{"9.99", true, true},
		{"0.01", true, true},
		{"0", false, true},
		{"-1.50", false, true},
		{"1.999", true, false},
		{"99999999.99", true, true},
		{"100000000", true, false},
	}

	for _, tc := range testCases {
		t.Run(tc.price, func(t *testing.T) {
			d := decimal.RequireFromString(tc.price)
			assert.Equal(t, tc.positive, PositivePrice(d).OK())
			assert.Equal(t, tc.fits, PriceFits(d).OK())
		})
	}
}

func TestTotalFits(t *testing.T) {
	assert.True(t, TotalFits(decimal.RequireFromString("99999999.99")).OK())

	r := TotalFits(decimal.RequireFromString("199999999.98"))
	require.False(t, r.OK())
	assert.Equal(t, fault.Validation, r.Fault().Kind)
	assert.Equal(t, MsgTotalOutOfRange, r.Fault().Message)
}

func TestNonNegativeStock(t *testing.T) {
	assert.True(t, NonNegativeStock(0).OK())
	assert.True(t, NonNegativeStock(15).OK())

	r := NonNegativeStock(-1)
	require.False(t, r.OK())
	assert.Equal(t, MsgStockNegative, r.Fault().Message)
}

func TestProductsExist(t *testing.T) {
	found := []model.Product{
		{ID: 2, Name: "Gadget"},
		{ID: 1, Name: "Widget"},
	}

	r := ProductsExist([]uint{1, 2}, found)
	require.True(t, r.OK())
	require.Len(t, r.Value(), 2)
	assert.Equal(t, "Widget", r.Value()[0].Name)
	assert.Equal(t, "Gadget", r.Value()[1].Name)

	r = ProductsExist([]uint{1, 3}, found)
	require.False(t, r.OK())
	assert.Equal(t, fault.NotFound, r.Fault().Kind)
	assert.Equal(t, MsgInvalidProductIDs, r.Fault().Message)
}

func TestNonEmptyProductIDs(t *testing.T) {
	assert.True(t, NonEmptyProductIDs([]uint{1}).OK())
	r := NonEmptyProductIDs(nil)
	require.False(t, r.OK())
	assert.Equal(t, MsgNoProducts, r.Fault().Message)
}

func TestFirstFault(t *testing.T) {
	calls := 0
	f := FirstFault(
		func() *fault.Fault { calls++; return ValidEmail("ada@example.com").Fault() },
		func() *fault.Fault { calls++; return ValidPhone("bad").Fault() },
		func() *fault.Fault { calls++; return NonNegativeStock(-1).Fault() },
	)
	require.NotNil(t, f)
	assert.Equal(t, MsgInvalidPhone, f.Message)
	assert.Equal(t, 2, calls)

	assert.Nil(t, FirstFault(func() *fault.Fault { return nil }))
	assert.NoError(t, ValidEmail("ada@example.com").Err())
}
