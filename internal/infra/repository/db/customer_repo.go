package db

import (
	"context"

	"github.com/RoyceAzure/lab/crm/internal/domain/model"
)

// CreateCustomer email 重複時回傳 repository.ErrDuplicateEmail
func (d *DbDao) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	return translateError(d.conn(ctx).Omit("Orders").Create(customer).Error)
}

func (d *DbDao) GetCustomerByID(ctx context.Context, id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := d.conn(ctx).First(&customer, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &customer, nil
}

func (d *DbDao) GetCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	var customer model.Customer
	if err := d.conn(ctx).Where("email = ?", email).First(&customer).Error; err != nil {
		return nil, translateError(err)
	}
	return &customer, nil
}

func (d *DbDao) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	err := d.conn(ctx).Order("id").Find(&customers).Error
	return customers, translateError(err)
}

func (d *DbDao) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := d.conn(ctx).Model(&model.Customer{}).Count(&n).Error
	return n, translateError(err)
}
