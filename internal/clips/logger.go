package clips

import (
	"sync"

	"github.com/marrs-acoustics/reefscape/internal/logger"
)

var (
	serviceLogger logger.Logger
	initOnce      sync.Once
)

// GetLogger returns the clips package logger.
func GetLogger() logger.Logger {
	initOnce.Do(func() {
		serviceLogger = logger.Global().Module("clips")
	})
	return serviceLogger
}
