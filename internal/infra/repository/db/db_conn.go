package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// BuildDSN key=value 格式, 給 gorm 使用
func BuildDSN(dbname, host, port, user, pas, sslmode string) string {
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=%s", user, pas, host, port, dbname, sslmode)
}

// GetDbConn sql log 導向 zerolog, 只輸出慢查詢與錯誤
func GetDbConn(dsn string, logger *zerolog.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{}
	if logger != nil {
		cfg.Logger = gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}
	return db, nil
}
