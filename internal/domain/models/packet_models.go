package models

import "time"

// Типы входящих пакетов от UI.
const (
	PacketPing                = "PING"
	PacketSendCommand         = "SEND_COMMAND"
	PacketTSCommand           = "TS_COMMAND"
	PacketRequestPosition     = "REQUEST_POSITION"
	PacketRequestLogCommands  = "REQUEST_LOG_COMMANDS"
	PacketRequestLogResponse  = "REQUEST_LOG_RESPONSE"
	PacketSnapShot            = "SNAP_SHOT"
	PacketSnapShotFlakeHunted = "SNAP_SHOT_FLAKE_HUNTED"
	PacketAutoFocus           = "AUTO_FOCUS"
	PacketTraceOver           = "TRACE_OVER"
	PacketCancelTraceOver     = "CANCEL_TRACE_OVER"
	PacketPauseAll            = "PAUSE_ALL"
	PacketResumeAll           = "RESUME_ALL"
)

// Типы исходящих пакетов.
const (
	PacketError                      = "ERROR"
	PacketMessage                    = "MESSAGE"
	PacketAck                        = "ACK"
	PacketPosition                   = "POSITION"
	PacketCommand                    = "COMMAND"
	PacketResponse                   = "RESPONSE"
	PacketCommandResult              = "COMMAND_RESULT"
	PacketResponseLogCommands        = "RESPONSE_LOG_COMMANDS"
	PacketResponseLogResponse        = "RESPONSE_LOG_RESPONSE"
	PacketRefreshSnapshot            = "REFRESH_SNAPSHOT"
	PacketRefreshSnapshotFlakeHunted = "REFRESH_SNAPSHOT_FLAKE_HUNTED"
	PacketAutoFocusResult            = "AUTO_FOCUS_RESULT"
	PacketTraceOverResult            = "TRACE_OVER_RESULT"
	PacketCancelTraceOverResponse    = "CANCEL_TRACE_OVER_RESPONSE"
	PacketPauseResponse              = "PAUSE_RESPONSE"
)

// ErrorData - тело ERROR пакета.
type ErrorData struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ErrorPacket - структурированная ошибка для UI.
type ErrorPacket struct {
	Type string    `json:"type"`
	Data ErrorData `json:"data"`
}

func NewErrorPacket(code int, message string) ErrorPacket {
	return ErrorPacket{Type: PacketError, Data: ErrorData{Code: code, Message: message}}
}

type MessagePacket struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewMessagePacket(message string) MessagePacket {
	return MessagePacket{Type: PacketMessage, Message: message}
}

type AckPacket struct {
	Type string `json:"type"`
}

type PositionPacket struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// CommandPacket транслирует запись истории команд.
type CommandPacket struct {
	Type      string    `json:"type"`
	Command   string    `json:"command"`
	Response  *string   `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// ResponsePacket транслирует строку, полученную от станции.
type ResponsePacket struct {
	Type      string    `json:"type"`
	Response  string    `json:"response"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

type SnapshotPacket struct {
	Type   string `json:"type"`
	Camera int    `json:"camera"`
}

type CommandResultPacket struct {
	Type     string      `json:"type"`
	Command  string      `json:"command"`
	Response *string     `json:"response,omitempty"`
	Result   interface{} `json:"result,omitempty"`
}

type LogPacket struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AutoFocusResultPacket struct {
	Type   string          `json:"type"`
	Camera int             `json:"camera"`
	Result AutoFocusResult `json:"result"`
}

// TraceOverResultPacket - итог выполнения сценария сканирования.
type TraceOverResultPacket struct {
	Type        string `json:"type"`
	RunID       string `json:"run_id"`
	Status      string `json:"status"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Points      int    `json:"points"`
	CommandsRun int    `json:"commands_run"`
	TotalSteps  int    `json:"total_steps"`
}

type CancelResponsePacket struct {
	Type      string   `json:"type"`
	Cancelled []string `json:"cancelled"`
}

type PausePacket struct {
	Type   string `json:"type"`
	Paused bool   `json:"paused"`
}
