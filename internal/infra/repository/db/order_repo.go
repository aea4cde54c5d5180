package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateOrder - order 與 order_products 在同一個交易內寫入
// 商品不 upsert, 只寫關聯
func (d *DbDao) CreateOrder(ctx context.Context, order *model.Order) error {
	err := d.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}

		links := make([]model.OrderProduct, 0, len(order.Products))
		for _, p := range order.Products {
			links = append(links, model.OrderProduct{OrderID: order.ID, ProductID: p.ID})
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
	return translateError(err)
}

func (d *DbDao) preloaded(ctx context.Context) *gorm.DB {
	return d.conn(ctx).
		Preload("Customer").
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("products.id")
		})
}

// Read - 根據ID查詢訂單
func (d *DbDao) GetOrderByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := d.preloaded(ctx).First(&order, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// Read - 查詢所有訂單
func (d *DbDao) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := d.preloaded(ctx).Order("orders.id").Find(&orders).Error
	return orders, translateError(err)
}

// Read - order_date >= since
func (d *DbDao) ListOrdersSince(ctx context.Context, since time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := d.preloaded(ctx).
		Where("order_date >= ?", since).
		Order("orders.id").
		Find(&orders).Error
	return orders, translateError(err)
}

func (d *DbDao) CountOrders(ctx context.Context) (int64, error) {
	var n int64
	err := d.conn(ctx).Model(&model.Order{}).Count(&n).Error
	return n, translateError(err)
}

func (d *DbDao) SumOrderRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := d.conn(ctx).Model(&model.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Row().
		Scan(&total)
	return total, translateError(err)
}
