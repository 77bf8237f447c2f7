// Package file provides file-based persistence for run state snapshots.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/longytravel/simpleEA/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file system.
type Persistence struct {
	root      string
	stateRepo *StateRepository
}

// NewPersistence creates a new instance rooted at the given directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:      cleanRoot,
		stateRepo: NewStateRepository(cleanRoot),
	}
}

// StateRepository returns the run-state repository implementation.
func (fp *Persistence) StateRepository() persistence.StateRepository {
	return fp.stateRepo
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, nothing.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
