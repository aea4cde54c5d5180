package model

import "time"

const (
	CustomerNameMaxLen  = 100
	CustomerPhoneMaxLen = 17
)

type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null;type:varchar(100)" json:"name"`
	Email     string    `gorm:"uniqueIndex:customers_email_key;not null;type:varchar(254)" json:"email"`
	Phone     *string   `gorm:"type:varchar(17)" json:"phone,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	Orders    []Order   `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
}

// PhoneOrEmpty 未填電話時回傳空字串
func (c *Customer) PhoneOrEmpty() string {
	if c.Phone == nil {
		return ""
	}
	return *c.Phone
}
