package models

import "time"

// Источники ответов станции.
const (
	SourceMotor = "motor"
	SourcePerf  = "perf"
)

// CommandRecord - запись истории отправленных команд.
// Response равен nil, если транспорт не возвращает ответ синхронно.
type CommandRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Response  *string   `json:"response"`
}

// ResponseRecord - запись истории строк, полученных от контроллеров.
type ResponseRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Response  string    `json:"response"`
	Source    string    `json:"source"`
}

// StationState - последние значения, разобранные из ответов станции.
type StationState struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Temperature float64 `json:"temperature"`
	DoneZoom    float64 `json:"done_zoom"`
	Pressure    float64 `json:"pressure"`
}

// Position - координаты столика.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// AutoFocusResult описывает итог поиска фокуса.
type AutoFocusResult struct {
	Moved   bool    `json:"moved"`
	BestZ   float64 `json:"best_z"`
	Score   float64 `json:"score"`
	Samples int     `json:"samples"`
	Reason  string  `json:"reason,omitempty"`
}
