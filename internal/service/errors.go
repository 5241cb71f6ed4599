package service

import "errors"

// Kind - категория ошибки сервиса
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindAuthorization Kind = "authorization"
	KindTiming        Kind = "timing"
	KindStorage       Kind = "storage"
)

// Error - типизированный результат неудачной операции.
// errors.Is(err, ErrConflict) совпадает с любой ошибкой категории,
// errors.Is(err, ErrSlotTaken) - только с конкретной.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind) + " error"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrTiming        = &Error{Kind: KindTiming}
	ErrStorage       = &Error{Kind: KindStorage}
)

var (
	ErrEventNotFound       = &Error{Kind: KindValidation, Message: "event not found"}
	ErrEventCancelled      = &Error{Kind: KindValidation, Message: "event is cancelled"}
	ErrTeacherNotInEvent   = &Error{Kind: KindValidation, Message: "teacher is not part of the event"}
	ErrSlotIndexOutOfRange = &Error{Kind: KindValidation, Message: "slot index out of range"}
	ErrSlotNotFound        = &Error{Kind: KindValidation, Message: "slot not found"}
	ErrBuildingNotFound    = &Error{Kind: KindValidation, Message: "building not found"}
	ErrUserNotFound        = &Error{Kind: KindValidation, Message: "user not found"}

	ErrSlotTaken        = &Error{Kind: KindConflict, Message: "slot taken"}
	ErrEventHasBookings = &Error{Kind: KindConflict, Message: "event has active bookings"}
	ErrTelegramInUse    = &Error{Kind: KindConflict, Message: "telegram account already linked"}

	ErrForbidden        = &Error{Kind: KindAuthorization, Message: "action not permitted"}
	ErrNotSlotOwner     = &Error{Kind: KindAuthorization, Message: "slot belongs to another parent"}
	ErrAccountNotLinked = &Error{Kind: KindAuthorization, Message: "telegram account is not linked"}

	ErrSlotClosed      = &Error{Kind: KindTiming, Message: "slot closed"}
	ErrTooLateToCancel = &Error{Kind: KindTiming, Message: "too late to cancel"}
)

func invalid(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func storageError(op string, err error) error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// IsRetryable сообщает, что операцию можно повторить позже
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage)
}

// KindOf возвращает категорию ошибки или пустую строку
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
