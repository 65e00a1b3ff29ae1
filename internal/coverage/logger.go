package coverage

import (
	"sync"

	"github.com/marrs-acoustics/reefscape/internal/logger"
)

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the coverage package logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("coverage")
	})
	return serviceLogger
}
