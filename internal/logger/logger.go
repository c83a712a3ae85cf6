package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"nextcloud-notes/internal/config"
)

// New создает logrus логгер по настройкам из конфига.
// Неизвестный уровень трактуется как info.
func New(cfg *config.ConfigLogger, out io.Writer) *logrus.Logger {
	log := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)

	level := logrus.InfoLevel
	format := "text"
	if cfg != nil {
		if parsed, err := logrus.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
		if cfg.Format != "" {
			format = cfg.Format
		}
	}
	log.SetLevel(level)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}
