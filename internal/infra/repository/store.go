package repository

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound 依 id 或 email 查無資料
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail commit 時違反 customers.email 唯一索引
	ErrDuplicateEmail = errors.New("duplicate customer email")
)

// Store 統一的資料存取介面
// ExecTx 內的 fn 拿到的是綁定在同一交易的 Store, 在交易內再呼叫 ExecTx 會開啟巢狀範圍(savepoint),
// 巢狀範圍失敗只回滾自己
type Store interface {
	ExecTx(ctx context.Context, fn func(tx Store) error) error

	ICustomerRepository
	IProductRepository
	IOrderRepository
}

type ICustomerRepository interface {
	// 錯誤:
	//   - ErrDuplicateEmail: email 已被使用
	CreateCustomer(ctx context.Context, customer *model.Customer) error
	// 錯誤:
	//   - ErrNotFound
	GetCustomerByID(ctx context.Context, id uint) (*model.Customer, error)
	// 錯誤:
	//   - ErrNotFound
	GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	CountCustomers(ctx context.Context) (int64, error)
}

type IProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, id uint) (*model.Product, error)
	// 不存在的 id 直接略過, 由呼叫端比對
	GetProductsByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	CountProducts(ctx context.Context) (int64, error)
	// 依 id 排序, 在交易內呼叫時會鎖定資料列
	ListProductsStockBelow(ctx context.Context, threshold int) ([]model.Product, error)
	// 回傳更新後庫存
	AddProductStock(ctx context.Context, id uint, quantity int) (int, error)
}

type IOrderRepository interface {
	// 同一步寫入 order, order_products 關聯與 total_amount
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, id uint) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListOrdersSince(ctx context.Context, since time.Time) ([]model.Order, error)
	CountOrders(ctx context.Context) (int64, error)
	SumOrderRevenue(ctx context.Context) (decimal.Decimal, error)
}
