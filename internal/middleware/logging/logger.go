package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Enabled    bool   // Включено ли логирование
	Level      string // DEBUG, INFO, WARN, ERROR
	LogsDir    string // Директория для логов
	SavingDays uint   // Сколько дней хранить логи
}

type Logger struct {
	config *Config
	logger *logrus.Logger
	file   *os.File
	prefix string
}

func NewLogger(cfg *Config, prefix string) *Logger {
	l := &Logger{
		config: cfg,
		prefix: prefix,
		logger: logrus.New(),
	}

	var output io.Writer = os.Stdout
	if !cfg.Enabled {
		output = io.Discard
	} else if cfg.LogsDir != "" {
		if err := os.MkdirAll(cfg.LogsDir, 0755); err == nil {
			logFile := filepath.Join(cfg.LogsDir, time.Now().Format("2006-01-02")+".log")
			if file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				l.file = file
				output = io.MultiWriter(os.Stdout, file)
			}
		}
	}

	l.logger.SetOutput(output)
	l.logger.SetLevel(parseLevel(cfg.Level))
	l.logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if cfg.Enabled && cfg.LogsDir != "" && cfg.SavingDays > 0 {
		go l.cleanOldLogs()
	}

	return l
}

// NewNop возвращает логгер, который ничего не пишет. Удобен в тестах.
func NewNop() *Logger {
	return NewLogger(&Config{Enabled: false}, "")
}

func parseLevel(level string) logrus.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return logrus.DebugLevel
	case "WARN", "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := l.prefix
	if newPrefix != "" {
		newPrefix += " "
	}
	newPrefix += "[" + prefix + "]"

	return &Logger{
		config: l.config,
		logger: l.logger,
		file:   l.file,
		prefix: newPrefix,
	}
}

func (l *Logger) cleanOldLogs() {
	for range time.Tick(24 * time.Hour) {
		files, err := os.ReadDir(l.config.LogsDir)
		if err != nil {
			l.Error("Failed to read logs directory", "error", err)
			continue
		}

		cutoff := time.Now().AddDate(0, 0, int(-l.config.SavingDays))
		for _, file := range files {
			if info, err := file.Info(); err == nil && !file.IsDir() && info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(l.config.LogsDir, file.Name())); err != nil {
					l.Error("Failed to delete old log file", "file", file.Name(), "error", err)
				}
			}
		}
	}
}

func (l *Logger) entry(fields []interface{}) *logrus.Entry {
	data := make(logrus.Fields, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		var val interface{} = "?"
		if i+1 < len(fields) {
			val = fields[i+1]
		}
		data[key] = val
	}
	return l.logger.WithFields(data)
}

func (l *Logger) message(msg string) string {
	if l.prefix == "" {
		return msg
	}
	return l.prefix + " " + msg
}

func (l *Logger) Debug(msg string, fields ...interface{}) { l.entry(fields).Debug(l.message(msg)) }
func (l *Logger) Info(msg string, fields ...interface{})  { l.entry(fields).Info(l.message(msg)) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.entry(fields).Warn(l.message(msg)) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.entry(fields).Error(l.message(msg)) }

// ShouldLog сообщает, попадет ли сообщение указанного уровня в вывод.
func (l *Logger) ShouldLog(level string) bool {
	if !l.config.Enabled {
		return false
	}
	return l.logger.IsLevelEnabled(parseLevel(level))
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
