package models

// ErrorResponse представляет стандартный ответ с ошибкой.
type ErrorResponse struct {
	Status string `json:"status" example:"error"`
	Error  struct {
		Code    int    `json:"code" example:"404"`
		Message string `json:"message" example:"Сценарий не найден"`
	} `json:"error"`
}

// MessageResponse представляет стандартный успешный ответ с сообщением.
type MessageResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"Scan paused"`
}

// PositionResponse представляет текущие координаты столика.
type PositionResponse struct {
	Status   string   `json:"status" example:"ok"`
	Position Position `json:"position"`
}

// CommandResponse представляет результат выполнения сырой команды.
type CommandResponse struct {
	Status   string  `json:"status" example:"ok"`
	Command  string  `json:"command" example:"GETPOSX"`
	Response *string `json:"response"`
}

// CommandHistoryResponse представляет полную историю отправленных команд.
type CommandHistoryResponse struct {
	Status string          `json:"status" example:"ok"`
	Data   []CommandRecord `json:"data"`
}

// ResponseHistoryResponse представляет полную историю ответов станции.
type ResponseHistoryResponse struct {
	Status string           `json:"status" example:"ok"`
	Data   []ResponseRecord `json:"data"`
}

// StartScanResponse представляет ответ при успешном запуске сканирования.
type StartScanResponse struct {
	Status string   `json:"status" example:"ok"`
	Run    *RunInfo `json:"run"`
}

// GetScansResponse представляет ответ со списком активных и сохраненных запусков.
type GetScansResponse struct {
	Status string      `json:"status" example:"ok"`
	Active []*RunInfo  `json:"active"`
	Stored interface{} `json:"stored"`
}

// CancelScanResponse представляет список отмененных запусков.
type CancelScanResponse struct {
	Status    string   `json:"status" example:"ok"`
	Cancelled []string `json:"cancelled"`
}
