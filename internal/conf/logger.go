package conf

import "github.com/marrs-acoustics/reefscape/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// It is fetched from the global logger each time because the central logger
// is only set after settings are loaded.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
