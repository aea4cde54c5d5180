package constants

import "time"

const (
	// 庫存低於此值才補貨
	LowStockThreshold = 10
	// 每次補貨數量
	RestockQuantity = 10
	// 訂單提醒回溯天數
	DefaultReminderLookbackDays = 7

	// job log 時間格式
	LogSinkTimeFormat   = "2006-01-02 15:04:05"
	HeartbeatTimeFormat = "02/01/2006-15:04:05"

	DefaultShutdownTimeout = 30 * time.Second
)

type ENV string

const (
	Debug ENV = "debug"
	Dev   ENV = "development"
	Stag  ENV = "staging"
	Prod  ENV = "production"
)

type StoreDriver string

const (
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverMemory   StoreDriver = "memory"
)

type RequestID string

const (
	RequestIDKey    RequestID = "request_id"
	RequestIDHeader           = "X-Request-ID"
)
