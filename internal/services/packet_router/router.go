package packet_router

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/metrics"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

// HandlerFunc обрабатывает один пакет. data - весь пакет, включая поле type.
type HandlerFunc func(packetType string, data map[string]interface{}) error

// Registry - обработчики по типу пакета. Заполняется один раз при старте.
type Registry map[string]HandlerFunc

// Router - единая точка входа для пакетов от UI. Доменной логики не содержит.
type Router struct {
	registry    Registry
	fallback    HandlerFunc
	broadcaster interfaces.Broadcaster
	logger      *logging.Logger
	metrics     *metrics.Metrics
}

func NewRouter(registry Registry, broadcaster interfaces.Broadcaster, logger *logging.Logger, m *metrics.Metrics) *Router {
	r := &Router{
		registry:    make(Registry, len(registry)),
		broadcaster: broadcaster,
		logger:      logger.WithPrefix("ROUTER"),
		metrics:     m,
	}
	for t, h := range registry {
		r.registry[t] = h
	}
	r.fallback = r.logUnknown
	return r
}

func (r *Router) logUnknown(packetType string, data map[string]interface{}) error {
	r.logger.Warn("No handler for packet", "type", packetType, "fields", len(data))
	return nil
}

// Types возвращает зарегистрированные типы пакетов.
func (r *Router) Types() []string {
	types := make([]string, 0, len(r.registry))
	for t := range r.registry {
		types = append(types, t)
	}
	return types
}

// ToErrorPacket превращает ошибку в ERROR пакет. AppError сохраняет свой код, остальное - 500.
func ToErrorPacket(err error) models.ErrorPacket {
	return models.NewErrorPacket(appErrors.CodeOf(err), appErrors.MessageOf(err))
}

func (r *Router) fail(packetType, outcome string, err error) {
	r.metrics.Packet(packetType, outcome)
	r.broadcaster.SendAllJSON(ToErrorPacket(err))
}

// HandlePacket разбирает и обрабатывает один пакет. Ошибки не возвращаются вызывающему,
// а рассылаются клиентам как ERROR пакет.
func (r *Router) HandlePacket(raw []byte) {
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		r.logger.Warn("Malformed packet", "error", err)
		r.fail("invalid", "invalid", appErrors.Validation("Invalid JSON packet", err))
		return
	}

	rawType, ok := data["type"]
	if !ok {
		r.logger.Warn("Packet without type")
		r.fail("invalid", "invalid", appErrors.Validation("Packet type is required", nil))
		return
	}
	packetType, ok := rawType.(string)
	if !ok || packetType == "" {
		r.logger.Warn("Packet type is not a string", "type", rawType)
		r.fail("invalid", "invalid", appErrors.Validation("Packet type must be a non-empty string", nil))
		return
	}

	label := packetType
	handler, ok := r.registry[packetType]
	if !ok {
		handler, label = r.fallback, "unknown"
	}

	r.logger.Debug("Dispatching packet", "type", packetType)
	if err := r.invoke(handler, packetType, data); err != nil {
		r.logger.Error("Packet handler failed", "type", packetType, "error", err)
		r.fail(label, "error", err)
		return
	}
	r.metrics.Packet(label, "ok")
}

func (r *Router) invoke(handler HandlerFunc, packetType string, data map[string]interface{}) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprint(rec)
			err = appErrors.NewAppError(appErrors.InternalServerErrorCode, msg,
				fmt.Errorf("%w: panic: %s", appErrors.ErrHandlerExecution, msg), false)
		}
	}()

	if err := handler(packetType, data); err != nil {
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return appErrors.NewAppError(appErrors.InternalServerErrorCode, err.Error(),
			fmt.Errorf("%w: %w", appErrors.ErrHandlerExecution, err), false)
	}
	return nil
}
