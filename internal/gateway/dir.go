package gateway

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/starford/babilon/internal/storage"
)

// Dir serves content from a local tree with the same failure contract as
// HTTP: a missing file is a 404 FetchError.
type Dir struct {
	store storage.Provider
}

// NewDir wraps a storage provider.
func NewDir(store storage.Provider) *Dir {
	return &Dir{store: store}
}

// FetchJSON implements Gateway.
func (d *Dir) FetchJSON(ctx context.Context, path string, v any) error {
	data, err := d.read(ctx, path)
	if err != nil {
		return err
	}
	return decode(path, data, v)
}

// FetchText implements Gateway.
func (d *Dir) FetchText(ctx context.Context, path string) (string, error) {
	data, err := d.read(ctx, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (d *Dir) read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Path: path, Err: err}
	}
	data, err := d.store.Read(path)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, fs.ErrNotExist) {
			status = http.StatusNotFound
		}
		return nil, &FetchError{Path: path, Status: status, Err: err}
	}
	return data, nil
}
