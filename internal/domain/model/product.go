package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"not null;type:varchar(100)" json:"name"`
	Price     decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"price"`
	Stock     int             `gorm:"not null;default:0" json:"stock"`
	CreatedAt time.Time       `gorm:"not null;type:date;default:CURRENT_DATE" json:"created_at"`
}

// SumPrices 訂單金額 = 各商品單價加總, 每個商品計價一次
func SumPrices(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price)
	}
	return total
}
