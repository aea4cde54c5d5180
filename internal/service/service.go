package service

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/event"
	"github.com/RoyceAzure/lab/crm/internal/domain/model"
	"github.com/RoyceAzure/lab/crm/internal/infra/repository"
	"github.com/RoyceAzure/lab/crm/internal/pkg/fault"
	"github.com/rs/zerolog"
)

// Payload mutation 回傳結果
// Success 為 false 時 Record 為 nil, Kind 標示失敗分類
type Payload[T any] struct {
	Record  *T
	Success bool
	Message string
	Kind    fault.Kind
}

// EventPublisher 交易成功後發布領域事件
type EventPublisher interface {
	Publish(ctx context.Context, evts ...event.Event) error
}

// MutationObserver 記錄 mutation 結果, outcome 為 success 或 fault kind
type MutationObserver interface {
	ObserveMutation(operation, outcome string)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...event.Event) error { return nil }

type noopObserver struct{}

func (noopObserver) ObserveMutation(string, string) {}

type baseService struct {
	store     repository.Store
	publisher EventPublisher
	observer  MutationObserver
	now       func() time.Time
}

type Option func(*baseService)

func WithPublisher(p EventPublisher) Option {
	return func(b *baseService) {
		if p != nil {
			b.publisher = p
		}
	}
}

func WithObserver(o MutationObserver) Option {
	return func(b *baseService) {
		if o != nil {
			b.observer = o
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *baseService) {
		b.now = now
	}
}

func newBaseService(store repository.Store, opts ...Option) baseService {
	if store == nil {
		panic("service dependency store is nil")
	}
	b := baseService{
		store:     store,
		publisher: noopPublisher{},
		observer:  noopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// publish 發布失敗只記 log, 不影響已 commit 的結果
func (b *baseService) publish(ctx context.Context, evts ...event.Event) {
	if len(evts) == 0 {
		return
	}
	if err := b.publisher.Publish(ctx, evts...); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("event_type", string(evts[0].Type())).Int("count", len(evts)).Msg("publish domain event failed")
	}
}

// internal 記錄基礎設施錯誤並包成 fault.Internal, 細節不回給呼叫端
func (b *baseService) internal(ctx context.Context, op string, err error) error {
	b.observer.ObserveMutation(op, fault.Internal.String())
	zerolog.Ctx(ctx).Error().Err(err).Str("operation", op).Msg("mutation failed")
	return fault.Internalf(err, "%s failed", op)
}

func succeeded[T any](b *baseService, op string, rec *T, msg string) (*Payload[T], error) {
	b.observer.ObserveMutation(op, "success")
	return &Payload[T]{Record: rec, Success: true, Message: msg}, nil
}

func rejected[T any](b *baseService, op string, f *fault.Fault) (*Payload[T], error) {
	b.observer.ObserveMutation(op, f.Kind.String())
	return &Payload[T]{Success: false, Message: f.Message, Kind: f.Kind}, nil
}

func findCustomerByEmail(ctx context.Context, store repository.Store, email string) (*model.Customer, error) {
	c, err := store.GetCustomerByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// uniqueIDs 去除重複 id, 保留第一次出現的順序
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
