package upload

import (
	"context"
	"io"
)

// Storage is the remote object store the queue drains into. Keys carry the
// full `prefix/subfolder/filename` path; re-uploading a key overwrites the
// remote object.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader) error
}
