package httpexec

import (
	"context"
	"os"
	"path/filepath"
)

// FilesystemObjectStore resolves object-store references as paths
// relative to Root; it is the reference ObjectStore adapter. Nothing in
// this module installs it: the engine builds its Executor with a nil
// ObjectStore, and then multipart values are sent as given.
type FilesystemObjectStore struct {
	Root string
}

func (f FilesystemObjectStore) Fetch(_ context.Context, ref string) (string, []byte, error) {
	path := filepath.Join(f.Root, ref)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(path), data, nil
}
