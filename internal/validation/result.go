package validation

import "github.com/RoyceAzure/lab/crm/internal/pkg/fault"

// Result 規則檢查結果, 通過時帶值, 失敗時帶 fault
type Result[T any] struct {
	value T
	fault *fault.Fault
}

func Pass[T any](v T) Result[T] {
	return Result[T]{value: v}
}

func Reject[T any](kind fault.Kind, msg string) Result[T] {
	return Result[T]{fault: fault.New(kind, msg)}
}

func (r Result[T]) OK() bool {
	return r.fault == nil
}

func (r Result[T]) Value() T {
	return r.value
}

// Fault 通過時為 nil
func (r Result[T]) Fault() *fault.Fault {
	return r.fault
}

// Err 方便與 error 流程銜接, 通過時回傳 nil interface
func (r Result[T]) Err() error {
	if r.fault == nil {
		return nil
	}
	return r.fault
}

// FirstFault 依序執行檢查, 回傳第一個失敗
func FirstFault(checks ...func() *fault.Fault) *fault.Fault {
	for _, check := range checks {
		if f := check(); f != nil {
			return f
		}
	}
	return nil
}
