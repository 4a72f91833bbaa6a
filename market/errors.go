package market

import (
	"errors"
	"fmt"
)

// Kind 是錯誤的機器可讀分類
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindForbidden    Kind = "FORBIDDEN"
	KindConflict     Kind = "CONFLICT"
	KindDuplicateBid Kind = "DUPLICATE_BID"
	KindValidation   Kind = "VALIDATION"
	KindTransient    Kind = "TRANSIENT"
)

// 用於 errors.Is 比對的哨兵錯誤
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrDuplicateBid = &Error{Kind: KindDuplicateBid}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrTransient    = &Error{Kind: KindTransient}
)

// Error 是業務邏輯回傳給呼叫者的錯誤
// Message 是可以直接顯示給使用者的訊息，Err 保存底層原因(不對外公開)
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s, err=%v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 只比較 Kind，DUPLICATE_BID 同時也是 CONFLICT
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind == t.Kind {
		return true
	}
	return e.Kind == KindDuplicateBid && t.Kind == KindConflict
}

func newError(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

func NotFound(op, message string) *Error {
	return newError(KindNotFound, op, message)
}

func Forbidden(op, message string) *Error {
	return newError(KindForbidden, op, message)
}

func Conflict(op, message string) *Error {
	return newError(KindConflict, op, message)
}

func DuplicateBid(op, message string) *Error {
	return newError(KindDuplicateBid, op, message)
}

func Validation(op, message string) *Error {
	return newError(KindValidation, op, message)
}

// Transient 包裝儲存層暫時性的錯誤，呼叫者可以重試整個操作
func Transient(op string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Message: "Storage is temporarily unavailable, please retry", Err: err}
}

// KindOf 取得錯誤的分類，不是 *Error 時回傳空字串
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
