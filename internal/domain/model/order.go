package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order 建立後不可變, TotalAmount 只在建立時計算一次
type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CustomerID  uint            `gorm:"not null;index" json:"customer_id"`
	Customer    Customer        `gorm:"foreignKey:CustomerID" json:"customer"`
	Products    []Product       `gorm:"many2many:order_products;" json:"products"`
	OrderDate   time.Time       `gorm:"not null;index" json:"order_date"`
	TotalAmount decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"total_amount"`
}

// OrderProduct order 與 product 的關聯表, 與 order 同一交易寫入
type OrderProduct struct {
	OrderID   uint `gorm:"primaryKey"`
	ProductID uint `gorm:"primaryKey"`
}

func (OrderProduct) TableName() string {
	return "order_products"
}

// ProductIDs 依關聯順序回傳商品 id
func (o *Order) ProductIDs() []uint {
	ids := make([]uint, 0, len(o.Products))
	for _, p := range o.Products {
		ids = append(ids, p.ID)
	}
	return ids
}
