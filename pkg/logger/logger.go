package logger

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger initializes the structured logger with proper configuration
func InitLogger() *logrus.Logger {
	log := logrus.New()

	// Set log level from environment
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // Default to info level
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	// Set formatter based on environment
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	log.SetOutput(os.Stdout)

	// Store global logger reference
	Logger = log

	return log
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger()
	}
	return Logger
}

// WithGameID creates a logger with game context
func WithGameID(gameID uuid.UUID) *logrus.Entry {
	return GetLogger().WithField("game_id", gameID)
}

// WithUserID creates a logger with user context
func WithUserID(userID uuid.UUID) *logrus.Entry {
	return GetLogger().WithField("user_id", userID)
}

// WithGameContext creates a logger with full game attribution context
func WithGameContext(gameID, userID uuid.UUID, teamSide string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"game_id":   gameID,
		"user_id":   userID,
		"team_side": teamSide,
	})
}
