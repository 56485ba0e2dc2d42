// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях сервиса.
// Эти ошибки позволяют обработчикам различать типы проблем
// и возвращать клиенту стабильный код вместо внутренних деталей.
package common

import "errors"

// Ошибки валидации — отклоняются ДО любых изменений в БД.
var (
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrStakeTooSmall — ставка меньше минимальной
	ErrStakeTooSmall = errors.New("ставка меньше минимальной")
	// ErrInvalidOutcome — гонщик не существует или не принимает ставки
	ErrInvalidOutcome = errors.New("некорректный гонщик для ставки")
	// ErrAmountTooSmall — сумма платежа меньше минимальной
	ErrAmountTooSmall = errors.New("сумма меньше минимальной")
	// ErrEmptyDestination — не указаны реквизиты для вывода
	ErrEmptyDestination = errors.New("не указаны реквизиты для вывода")
)

// Ошибки баланса
var (
	// ErrInsufficientBalance — недостаточно средств на счёте
	ErrInsufficientBalance = errors.New("недостаточно средств на счёте")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrUserBanned — пользователь заблокирован
	ErrUserBanned = errors.New("пользователь заблокирован")
)

// Конфликты — изменений нет, повтор с актуальным состоянием безопасен.
var (
	// ErrBetNotFound — ставка не найдена
	ErrBetNotFound = errors.New("ставка не найдена")
	// ErrBetAlreadySettled — ставка уже рассчитана или отменена
	ErrBetAlreadySettled = errors.New("ставка уже обработана")
	// ErrPaymentNotFound — платёж с таким референсом не найден
	ErrPaymentNotFound = errors.New("платёж не найден")
	// ErrPaymentConflict — платёж уже в противоположном терминальном статусе
	ErrPaymentConflict = errors.New("платёж уже обработан с другим результатом")
	// ErrNoPendingBets — нет активных ставок для расчёта
	ErrNoPendingBets = errors.New("нет активных ставок")
)

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)

// Транзиентные ошибки хранилища — клиент может безопасно повторить запрос:
// атомарная единица либо закоммитилась целиком, либо не закоммитилась вовсе.
var (
	// ErrLockTimeout — не дождались блокировки строки баланса/ставки
	ErrLockTimeout = errors.New("операция занята, повторите попытку")
)

// Стабильные коды ошибок для API. Клиент опирается на код, не на текст.
const (
	CodeValidation        = "validation_error"
	CodeInsufficientFunds = "insufficient_funds"
	CodeNotFound          = "not_found"
	CodeAlreadySettled    = "already_settled"
	CodeDuplicatePayment  = "duplicate_payment"
	CodeNotAdmin          = "forbidden"
	CodeWrongPassword     = "wrong_password"
	CodeTooManyAttempts   = "too_many_attempts"
	CodeRetryLater        = "retry_later"
	CodeInternal          = "internal_error"
)

// ErrorCode возвращает стабильный код для известной ошибки.
// Неизвестные ошибки схлопываются в internal_error — внутренности наружу не утекают.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrStakeTooSmall),
		errors.Is(err, ErrInvalidOutcome),
		errors.Is(err, ErrAmountTooSmall),
		errors.Is(err, ErrEmptyDestination):
		return CodeValidation
	case errors.Is(err, ErrInsufficientBalance):
		return CodeInsufficientFunds
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrBetNotFound),
		errors.Is(err, ErrPaymentNotFound),
		errors.Is(err, ErrNoPendingBets):
		return CodeNotFound
	case errors.Is(err, ErrBetAlreadySettled):
		return CodeAlreadySettled
	case errors.Is(err, ErrPaymentConflict):
		return CodeDuplicatePayment
	case errors.Is(err, ErrNotAdmin), errors.Is(err, ErrUserBanned):
		return CodeNotAdmin
	case errors.Is(err, ErrWrongPassword):
		return CodeWrongPassword
	case errors.Is(err, ErrTooManyAttempts):
		return CodeTooManyAttempts
	case errors.Is(err, ErrLockTimeout):
		return CodeRetryLater
	default:
		return CodeInternal
	}
}
