// Package storage selects a persistence backend from configuration.
package storage

import (
	"fmt"

	"github.com/tmcfarlane/folio/internal/common"
	"github.com/tmcfarlane/folio/internal/interfaces"
	"github.com/tmcfarlane/folio/internal/storage/filestore"
	"github.com/tmcfarlane/folio/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendFile    = "file"
	BackendSurreal = "surreal"
)

// NewManager creates a storage manager based on the configuration.
// Supported backends: "file" (default), "surreal".
func NewManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = BackendFile
	}

	switch backend {
	case BackendFile:
		return filestore.NewStore(logger, config.Storage.DataPath)

	case BackendSurreal:
		return surrealdb.NewManager(logger, config)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: file, surreal)", backend)
	}
}
