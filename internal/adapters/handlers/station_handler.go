package handlers

import (
	"net/http"

	"github.com/iwtcode/transferStation/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GetPosition возвращает текущие координаты столика.
// @Summary Позиция столика
// @Description Запрашивает у станции координаты X, Y и Z.
// @Tags Station
// @Produce json
// @Success 200 {object} models.PositionResponse "Текущая позиция"
// @Failure 500 {object} models.ErrorResponse "Станция не ответила"
// @Router /station/position [get]
func (h *Handler) GetPosition(c *gin.Context) {
	pos, err := h.usecase.GetPosition()
	if err != nil {
		h.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.PositionResponse{Status: "ok", Position: *pos})
}

// SendCommand отправляет станции сырую команду.
// @Summary Отправить команду
// @Description Отправляет строку протокола станции (например, GETPOSX) и возвращает ответ, если транспорт синхронный.
// @Tags Station
// @Accept json
// @Produce json
// @Param input body models.CommandRequest true "Команда станции"
// @Success 200 {object} models.CommandResponse "Ответ станции"
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 500 {object} models.ErrorResponse "Ошибка отправки"
// @Router /station/command [post]
func (h *Handler) SendCommand(c *gin.Context) {
	var req models.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	h.logger.Info("Sending raw command", "command", req.Command)
	response, err := h.usecase.SendCommand(req.Command)
	if err != nil {
		h.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CommandResponse{Status: "ok", Command: req.Command, Response: response})
}

// GetCommandHistory возвращает всю историю отправленных команд.
// @Summary История команд
// @Tags Station
// @Produce json
// @Success 200 {object} models.CommandHistoryResponse "История команд"
// @Router /station/history/commands [get]
func (h *Handler) GetCommandHistory(c *gin.Context) {
	c.JSON(http.StatusOK, models.CommandHistoryResponse{Status: "ok", Data: h.usecase.GetCommandHistory()})
}

// GetResponseHistory возвращает всю историю ответов станции.
// @Summary История ответов
// @Tags Station
// @Produce json
// @Success 200 {object} models.ResponseHistoryResponse "История ответов"
// @Router /station/history/responses [get]
func (h *Handler) GetResponseHistory(c *gin.Context) {
	c.JSON(http.StatusOK, models.ResponseHistoryResponse{Status: "ok", Data: h.usecase.GetResponseHistory()})
}
