package fault

import (
	"errors"
	"fmt"
)

// Kind 錯誤分類
type Kind int

const (
	// Internal 基礎設施錯誤(db, transport), 不對外揭露細節
	Internal Kind = iota
	// Validation 使用者可修正的輸入錯誤
	Validation
	// Conflict 唯一性衝突, commit 前檢查或 commit 時 constraint 皆屬此類
	Conflict
	// NotFound 參照的 customer / product 不存在
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "VALIDATION"
	case Conflict:
		return "CONFLICT"
	case NotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}

type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func New(kind Kind, msg string) *Fault {
	return &Fault{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Fault {
	return &Fault{Kind: kind, Message: msg, Err: err}
}

// Internalf 包裝基礎設施錯誤
func Internalf(err error, format string, args ...any) *Fault {
	return &Fault{Kind: Internal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 未分類的錯誤一律視為 Internal
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return Internal
}

// IsUserFacing 是否可以把訊息直接回給呼叫端
func IsUserFacing(err error) bool {
	return err != nil && KindOf(err) != Internal
}
