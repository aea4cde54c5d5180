package validation

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/pkg/fault"
	"github.com/shopspring/decimal"
)

const (
	MsgInvalidEmail      = "Invalid email format."
	MsgEmailExists       = "Email already exists."
	MsgInvalidPhone      = "Invalid phone format. Use +1234567890 or 123-456-7890."
	MsgNameRequired      = "Name is required."
	MsgNameTooLong       = "Name must be at most 100 characters."
	MsgPriceNotPositive  = "Price must be positive."
	MsgPriceOutOfRange   = "Price must have at most 8 digits before and 2 after the decimal point."
	MsgStockNegative     = "Stock cannot be negative."
	MsgInvalidCustomer   = "Invalid customer ID."
	MsgNoProducts        = "At least one product must be selected."
	MsgInvalidProductIDs = "One or more invalid product IDs."
	MsgTotalOutOfRange   = "Order total must have at most 8 digits before the decimal point."
)

var (
	phonePattern  = regexp.MustCompile(`^(\+\d{10,15}|\d{3}-\d{3}-\d{4})$`)
	domainPattern = regexp.MustCompile(`(?i)^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)

	// price 與 total_amount 都是 numeric(10,2)
	maxAmount = decimal.New(1, 8)
)

func ValidEmail(email string) Result[string] {
	if !isEmail(email) {
		return Reject[string](fault.Validation, MsgInvalidEmail)
	}
	return Pass(email)
}

func isEmail(s string) bool {
	if s == "" || len(s) > 254 || strings.TrimSpace(s) != s {
		return false
	}
	// 只接受單純的 addr-spec, 不接受 "Name <addr>"
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	if local == "" || len(local) > 64 {
		return false
	}
	if strings.EqualFold(domain, "localhost") {
		return true
	}
	return domainPattern.MatchString(domain)
}

// ValidPhone 空字串視為未填
func ValidPhone(phone string) Result[string] {
	if phone == "" {
		return Pass(phone)
	}
	if !phonePattern.MatchString(phone) {
		return Reject[string](fault.Validation, MsgInvalidPhone)
	}
	return Pass(phone)
}

// EmailAvailable holder 為目前持有此 email 的客戶, 沒有則為 nil
func EmailAvailable(email string, holder *model.Customer) Result[string] {
	if holder != nil {
		return Reject[string](fault.Conflict, MsgEmailExists)
	}
	return Pass(email)
}

func RequiredName(name string) Result[string] {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Reject[string](fault.Validation, MsgNameRequired)
	}
	if utf8.RuneCountInString(trimmed) > model.CustomerNameMaxLen {
		return Reject[string](fault.Validation, MsgNameTooLong)
	}
	return Pass(trimmed)
}

func PositivePrice(price decimal.Decimal) Result[decimal.Decimal] {
	if !price.IsPositive() {
		return Reject[decimal.Decimal](fault.Validation, MsgPriceNotPositive)
	}
	return Pass(price)
}

// PriceFits 價格需能存入 numeric(10,2)
func PriceFits(price decimal.Decimal) Result[decimal.Decimal] {
	if !price.Equal(price.Round(2)) || price.Abs().GreaterThanOrEqual(maxAmount) {
		return Reject[decimal.Decimal](fault.Validation, MsgPriceOutOfRange)
	}
	return Pass(price)
}

// TotalFits 訂單金額需能存入 total_amount
func TotalFits(total decimal.Decimal) Result[decimal.Decimal] {
	if total.GreaterThanOrEqual(maxAmount) {
		return Reject[decimal.Decimal](fault.Validation, MsgTotalOutOfRange)
	}
	return Pass(total)
}

func NonNegativeStock(stock int) Result[int] {
	if stock < 0 {
		return Reject[int](fault.Validation, MsgStockNegative)
	}
	return Pass(stock)
}

func NonEmptyProductIDs(ids []uint) Result[[]uint] {
	if len(ids) == 0 {
		return Reject[[]uint](fault.Validation, MsgNoProducts)
	}
	return Pass(ids)
}

// ProductsExist 所有 id 都要能對應到 found 內的商品, 任一缺少整批失敗
// 回傳的商品依 ids 順序排列
func ProductsExist(ids []uint, found []model.Product) Result[[]model.Product] {
	byID := make(map[uint]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	products := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return Reject[[]model.Product](fault.NotFound, MsgInvalidProductIDs)
		}
		products = append(products, p)
	}
	return Pass(products)
}
