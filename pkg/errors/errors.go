package errors

import (
	"errors"
	"fmt"
)

const (
	InternalServerError = "internal server error"
	BadRequest          = "bad request"
	NotFound            = "not_found"
	Conflict            = "conflict"

	BadRequestCode          = 400
	NotFoundErrorCode       = 404
	ConflictErrorCode       = 409
	InternalServerErrorCode = 500
)

// AppError представляет собой стандартизированную структуру ошибки,
// которая уходит клиенту (REST ответ или ERROR пакет).
type AppError struct {
	Code         int    `json:"code"`    // HTTP-подобный код
	Message      string `json:"message"` // Сообщение для клиента
	Err          error  `json:"-"`       // Внутренняя ошибка, не для клиента
	IsUserFacing bool   `json:"-"`       // Можно ли показывать `Err`
}

func (a *AppError) Error() string {
	if a == nil {
		return ""
	}
	if a.Err != nil {
		return fmt.Sprintf("%s (code: %d): %v", a.Message, a.Code, a.Err)
	}
	return fmt.Sprintf("%s (code: %d)", a.Message, a.Code)
}

func (a *AppError) Unwrap() error {
	if a == nil {
		return nil
	}
	return a.Err
}

// ClientMessage возвращает текст, который безопасно отправлять в UI.
func (a *AppError) ClientMessage() string {
	if a.IsUserFacing && a.Err != nil {
		return a.Message + ": " + a.Err.Error()
	}
	return a.Message
}

// NewAppError создает новый экземпляр AppError.
func NewAppError(code int, message string, err error, isUserFacing bool) *AppError {
	return &AppError{
		Code:         code,
		Message:      message,
		Err:          err,
		IsUserFacing: isUserFacing,
	}
}

// Validation оборачивает ошибку проверки входных данных (код 400).
func Validation(message string, err error) *AppError {
	if err == nil {
		err = ErrPacketValidation
	} else {
		err = fmt.Errorf("%w: %w", ErrPacketValidation, err)
	}
	return NewAppError(BadRequestCode, message, err, true)
}

// Таксономия ошибок ядра станции.
var (
	ErrDeviceOpen        = errors.New("device open failed")
	ErrTransientRead     = errors.New("transient serial read error")
	ErrProtocolParse     = errors.New("unrecognized device response")
	ErrPacketValidation  = errors.New("packet validation failed")
	ErrHandlerExecution  = errors.New("packet handler failed")
	ErrScriptCompilation = errors.New("script compilation failed")
	ErrScriptExecution   = errors.New("script execution failed")
	ErrLinkClosed        = errors.New("device link already closed")
	ErrLinkNotStarted    = errors.New("device link not started")
	ErrUnknownCommand    = errors.New("unknown station command")
	ErrCameraNotFound    = errors.New("camera not found")
	ErrRunNotFound       = errors.New("scan run not found")
	ErrDataNotFound      = errors.New("data not found")
)

// CodeOf возвращает код для ERROR пакета: AppError сохраняет свой код,
// остальные ошибки считаются внутренними.
func CodeOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	return InternalServerErrorCode
}

// MessageOf возвращает сообщение для ERROR пакета.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ClientMessage()
	}
	if err == nil {
		return InternalServerError
	}
	return err.Error()
}
