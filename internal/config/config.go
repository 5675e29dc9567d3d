package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig содержит конфигурацию приложения
type AppConfig struct {
	ServerPort  string
	GinMode     string
	KafkaEnable bool
	KafkaBroker string
	KafkaTopic  string
	Station     StationConfig
	Engine      EngineConfig
	Vision      VisionConfig
	Database    DatabaseConfig
	Logging     LoggerConfig
}

// StationConfig содержит настройки последовательных портов и командного сервера
type StationConfig struct {
	Simulate             bool
	MotorPort            string
	PerfPort             string
	BaudRate             int
	ReadTimeout          time.Duration
	CommandServerNetwork string
	CommandServerAddr    string
	PumpInterval         time.Duration
	AutoFocus            AutoFocusConfig
}

// AutoFocusConfig содержит параметры поиска фокуса
type AutoFocusConfig struct {
	CoarseSteps int
	Range       float64
	FineStep    float64
	Settle      time.Duration
}

// EngineConfig содержит настройки исполнителя сценариев
type EngineConfig struct {
	PausePoll time.Duration
	MaxPoints int
}

// VisionConfig содержит настройки камер и хранилища снимков
type VisionConfig struct {
	CameraIDs    []int
	ImageRepoDir string
}

// LoggerConfig содержит настройки логгера
type LoggerConfig struct {
	Enable     bool
	LogsDir    string
	Level      string
	SavingDays int
}

// DatabaseConfig содержит конфигурацию для подключения к базе данных
type DatabaseConfig struct {
	Enable   bool
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

// LoadConfiguration загружает конфигурацию из .env файла или переменных окружения
func LoadConfiguration() (*AppConfig, error) {
	_ = godotenv.Load()

	config := &AppConfig{
		ServerPort:  getEnv("APP_PORT", "8082"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		KafkaEnable: getEnvAsBool("KAFKA_ENABLE", false),
		KafkaBroker: getEnv("KAFKA_BROKER", "localhost:9092"),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "station_telemetry"),
		Station: StationConfig{
			Simulate:             getEnvAsBool("SIM_TEST", false),
			MotorPort:            getEnv("MOTOR_PORT", "COM3"),
			PerfPort:             getEnv("PERF_PORT", "COM4"),
			BaudRate:             getEnvAsInt("SERIAL_BAUD", 9600),
			ReadTimeout:          getEnvAsMillis("SERIAL_READ_TIMEOUT_MS", 100),
			CommandServerNetwork: getEnv("COMMAND_SERVER_NETWORK", "tcp"),
			CommandServerAddr:    getEnv("COMMAND_SERVER_ADDR", ""),
			PumpInterval:         getEnvAsMillis("PUMP_INTERVAL_MS", 200),
			AutoFocus: AutoFocusConfig{
				CoarseSteps: getEnvAsInt("AF_COARSE_STEPS", 15),
				Range:       getEnvAsFloat("AF_RANGE", 0.05),
				FineStep:    getEnvAsFloat("AF_FINE_STEP", 0.001),
				Settle:      getEnvAsMillis("AF_SETTLE_MS", 50),
			},
		},
		Engine: EngineConfig{
			PausePoll: getEnvAsMillis("PAUSE_POLL_MS", 200),
			MaxPoints: getEnvAsInt("ENGINE_MAX_POINTS", 200000),
		},
		Vision: VisionConfig{
			CameraIDs:    getEnvAsIntList("CAMERA_IDS", []int{0}),
			ImageRepoDir: getEnv("IMAGE_REPO_DIR", "images"),
		},
		Database: DatabaseConfig{
			Enable:   getEnvAsBool("DB_ENABLE", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Username: getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "root"),
			DBName:   getEnv("DB_NAME", "station_db"),
		},
		Logging: LoggerConfig{
			Enable:     getEnvAsBool("LOGGER_ENABLE", true),
			LogsDir:    getEnv("LOGGER_LOGS_DIR", "./logs"),
			Level:      getEnv("LOGGER_LOG_LEVEL", "DEBUG"),
			SavingDays: getEnvAsInt("LOGGER_SAVING_DAYS", 7),
		},
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(name string, defaultValue float64) float64 {
	valueStr := getEnv(name, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsMillis(name string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsInt(name, defaultValue)) * time.Millisecond
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, _ := strconv.ParseBool(value)
	return val
}

// getEnvAsIntList разбирает список через запятую, например "0,1".
func getEnvAsIntList(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
