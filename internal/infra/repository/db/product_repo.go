package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateProduct created_at 是 date 欄位, 回傳的紀錄同樣只保留日期
func (d *DbDao) CreateProduct(ctx context.Context, product *model.Product) error {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	product.CreatedAt = dateOnly(product.CreatedAt)
	return translateError(d.conn(ctx).Create(product).Error)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (d *DbDao) GetProductByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := d.conn(ctx).First(&product, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

func (d *DbDao) GetProductsByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	products := make([]model.Product, 0, len(ids))
	if len(ids) == 0 {
		return products, nil
	}
	err := d.conn(ctx).Where("id IN ?", ids).Order("id").Find(&products).Error
	return products, translateError(err)
}

func (d *DbDao) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := d.conn(ctx).Order("id").Find(&products).Error
	return products, translateError(err)
}

func (d *DbDao) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := d.conn(ctx).Model(&model.Product{}).Count(&n).Error
	return n, translateError(err)
}

// ListProductsStockBelow SELECT ... FOR UPDATE, 交易結束前其他補貨流程會等待
func (d *DbDao) ListProductsStockBelow(ctx context.Context, threshold int) ([]model.Product, error) {
	var products []model.Product
	err := d.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("stock < ?", threshold).
		Order("id").
		Find(&products).Error
	return products, translateError(err)
}

func (d *DbDao) AddProductStock(ctx context.Context, id uint, quantity int) (int, error) {
	var product model.Product
	result := d.conn(ctx).Model(&product).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "stock"}}}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, repository.ErrNotFound
	}
	return product.Stock, nil
}
