package backup

import (
	"context"
	"path/filepath"

	"shelflife-api/pkg/fsutil"
)

// FilePicker obtains a local readable copy of a user-selected file. The
// returned path must be safe to read directly; implementations never hand
// back the original URI. A dismissed picker returns ErrCancelled.
type FilePicker interface {
	Pick(ctx context.Context) (string, error)
}

// FileSharer hands a finished file to the user (save dialog, share sheet,
// download). Returns the destination it landed at, or ErrCancelled.
type FileSharer interface {
	Share(ctx context.Context, path, suggestedName string) (string, error)
}

// LocalDirSharer is the server-side FileSharer: it copies the file into a
// fixed backup directory.
type LocalDirSharer struct {
	Dir string
}

// Share copies path into the backup directory under suggestedName.
func (s *LocalDirSharer) Share(ctx context.Context, path, suggestedName string) (string, error) {
	if err := fsutil.EnsureDir(s.Dir); err != nil {
		return "", err
	}
	dst := filepath.Join(s.Dir, suggestedName)
	if err := fsutil.CopyFile(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// StaticPicker wraps an already-local file path (e.g. a saved upload) as a
// FilePicker.
type StaticPicker struct {
	Path string
}

// Pick returns the wrapped path.
func (p *StaticPicker) Pick(ctx context.Context) (string, error) {
	return p.Path, nil
}
