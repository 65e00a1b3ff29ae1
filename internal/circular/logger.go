package circular

import (
	"sync"

	"github.com/marrs-acoustics/reefscape/internal/logger"
)

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the circular package logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("circular")
	})
	return serviceLogger
}
