// Package archive stores exported report bundles in cold storage, either
// on the local filesystem or an S3-compatible bucket. Reports are archived
// under a run-scoped prefix so past backtests stay retrievable.
package archive

import (
	"context"
	"fmt"
)

// Store is the interface report archiving writes against.
type Store interface {
	// Put stores data at the given path.
	Put(ctx context.Context, path string, data []byte) error

	// Get retrieves data from the given path.
	Get(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config selects and configures a backend.
type Config struct {
	Type string // "localfs" or "s3"
	Path string // localfs base directory
	S3   S3Config
}

// New builds the configured backend.
func New(cfg Config) (Store, error) {
	switch cfg.Type {
	case "", "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}

// RunPath prefixes a report file with its backtest run.
func RunPath(runID, name string) string {
	return fmt.Sprintf("runs/%s/%s", runID, name)
}
