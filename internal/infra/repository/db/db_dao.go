package db

import (
	"context"

	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"gorm.io/gorm"
)

// DbDao postgres 版本的 repository.Store
type DbDao struct {
	*gorm.DB
}

func NewDbDao(conn *gorm.DB) *DbDao {
	return &DbDao{
		DB: conn,
	}
}

// ExecTx 在交易中執行 fn
// DbDao 本身已在交易中時, gorm 會改用 savepoint, fn 失敗只回滾到該 savepoint
func (d *DbDao) ExecTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DbDao{DB: tx})
	})
}

func (d *DbDao) conn(ctx context.Context) *gorm.DB {
	return d.DB.WithContext(ctx)
}

// Close 關閉底層連線池
func (d *DbDao) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *DbDao) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

var _ repository.Store = (*DbDao)(nil)
