package handlers

import (
	"net/http"

	"github.com/iwtcode/transferStation/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// StartScan компилирует и запускает растровое сканирование.
// @Summary Запустить сканирование
// @Description Строит змейку по областям запроса и запускает ее в фоне. Итог приходит в websocket как TRACE_OVER_RESULT.
// @Tags Scans
// @Accept json
// @Produce json
// @Param input body models.ScanRequest true "Параметры сканирования"
// @Success 200 {object} models.StartScanResponse "Запуск создан"
// @Failure 400 {object} models.ErrorResponse "Ошибка компиляции сценария"
// @Router /scans [post]
func (h *Handler) StartScan(c *gin.Context) {
	var req models.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	run, err := h.usecase.StartScan(req)
	if err != nil {
		h.FromError(c, err)
		return
	}

	h.logger.Info("Scan started", "runID", run.RunID, "steps", run.TotalSteps)
	c.JSON(http.StatusOK, models.StartScanResponse{Status: "ok", Run: run})
}

// GetScans возвращает активные и сохраненные запуски.
// @Summary Список запусков
// @Tags Scans
// @Produce json
// @Success 200 {object} models.GetScansResponse "Запуски"
// @Failure 500 {object} models.ErrorResponse "Ошибка хранилища"
// @Router /scans [get]
func (h *Handler) GetScans(c *gin.Context) {
	stored, err := h.usecase.GetStoredScans()
	if err != nil {
		h.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.GetScansResponse{
		Status: "ok",
		Active: h.usecase.GetActiveScans(),
		Stored: stored,
	})
}

// CancelScan отменяет запуск по RunID или все активные запуски.
// @Summary Отменить сканирование
// @Tags Scans
// @Accept json
// @Produce json
// @Param input body models.RunRequest false "ID запуска; пустой отменяет все"
// @Success 200 {object} models.CancelScanResponse "Отмененные запуски"
// @Failure 404 {object} models.ErrorResponse "Запуск не найден"
// @Router /scans/cancel [post]
func (h *Handler) CancelScan(c *gin.Context) {
	var req models.RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err, "Invalid request payload")
			return
		}
	}

	cancelled, err := h.usecase.CancelScan(req.RunID)
	if err != nil {
		h.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CancelScanResponse{Status: "ok", Cancelled: cancelled})
}

// PauseScans ставит на паузу все сценарии.
// @Summary Пауза
// @Tags Scans
// @Produce json
// @Success 200 {object} models.MessageResponse "Пауза включена"
// @Router /scans/pause [post]
func (h *Handler) PauseScans(c *gin.Context) {
	h.usecase.PauseAll()
	h.broadcaster.SendAllJSON(models.PausePacket{Type: models.PacketPauseResponse, Paused: true})
	c.JSON(http.StatusOK, models.MessageResponse{Status: "ok", Message: "All scans paused"})
}

// ResumeScans снимает паузу.
// @Summary Продолжить
// @Tags Scans
// @Produce json
// @Success 200 {object} models.MessageResponse "Пауза снята"
// @Router /scans/resume [post]
func (h *Handler) ResumeScans(c *gin.Context) {
	h.usecase.ResumeAll()
	h.broadcaster.SendAllJSON(models.PausePacket{Type: models.PacketPauseResponse, Paused: false})
	c.JSON(http.StatusOK, models.MessageResponse{Status: "ok", Message: "All scans resumed"})
}
