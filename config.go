package station

import (
	"os"
	"strconv"
	"time"
)

// Config хранит параметры встраиваемой станции.
type Config struct {
	MotorPort         string
	PerfPort          string
	BaudRate          int
	Simulate          bool
	CommandServerAddr string
	ImageRepoDir      string
	PausePoll         time.Duration
	LogLevel          string

	// Cameras - камеры по индексу. В режиме симуляции без камер
	// регистрируется генератор кадров с индексом 0.
	Cameras map[int]Camera

	// Sleep подменяет паузы шагов сценария и автофокуса.
	Sleep func(time.Duration)
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	motorPort := os.Getenv("MOTOR_PORT")
	if motorPort == "" {
		motorPort = "COM3"
	}

	perfPort := os.Getenv("PERF_PORT")
	if perfPort == "" {
		perfPort = "COM4"
	}

	baud, err := strconv.Atoi(os.Getenv("SERIAL_BAUD"))
	if err != nil || baud <= 0 {
		baud = 9600
	}

	simulate, _ := strconv.ParseBool(os.Getenv("SIM_TEST"))

	imageDir := os.Getenv("IMAGE_REPO_DIR")
	if imageDir == "" {
		imageDir = "images"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		MotorPort:         motorPort,
		PerfPort:          perfPort,
		BaudRate:          baud,
		Simulate:          simulate,
		CommandServerAddr: os.Getenv("COMMAND_SERVER_ADDR"),
		ImageRepoDir:      imageDir,
		LogLevel:          logLevel,
	}
}
