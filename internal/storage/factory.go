// Package storage selects a RecordStore backend from configuration.
package storage

import (
	"fmt"

	"github.com/dfarias/carteira/internal/common"
	"github.com/dfarias/carteira/internal/interfaces"
	"github.com/dfarias/carteira/internal/storage/file"
	"github.com/dfarias/carteira/internal/storage/memory"
	"github.com/dfarias/carteira/internal/storage/surrealdb"
)

// Driver name constants.
const (
	DriverMemory  = "memory"
	DriverFile    = "file"
	DriverSurreal = "surreal"
)

// NewRecordStore creates a record store based on the configuration.
// Supported drivers: "memory", "file" (default), "surreal".
func NewRecordStore(logger *common.Logger, config *common.Config) (interfaces.RecordStore, error) {
	driver := config.Storage.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverMemory:
		logger.Warn().Msg("using in-memory storage, data will not survive a restart")
		return memory.NewStore(logger), nil

	case DriverFile:
		return file.NewStore(logger, config.Storage.Path)

	case DriverSurreal:
		return surrealdb.NewStore(logger, &config.Storage.Surreal)

	default:
		return nil, fmt.Errorf("unknown storage driver: %s (supported: memory, file, surreal)", driver)
	}
}
