// Package attach stages user-selected files so a send can reference them
// after the original file is moved or deleted. Staged copies live under the
// application data directory and are named by a random id.
package attach

import (
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/prdforai/prdchat/src/convstore"
)

// MaxAttachmentSize caps a single staged file at 10 MiB.
const MaxAttachmentSize = 10 << 20

const fallbackMimeType = "application/octet-stream"

// Stager copies files into a staging directory and hands back attachment
// handles for the conversation store.
type Stager struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

// NewStager creates a stager rooted at dir. The directory is created on
// first use.
func NewStager(fs afero.Fs, dir string, logger *slog.Logger) *Stager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stager{
		fs:     fs,
		dir:    dir,
		logger: logger.With("component", "attach"),
	}
}

// Stage copies the file at path into the staging directory and returns a
// handle carrying the original name, the detected mime type, and a file URL
// pointing at the staged copy.
func (s *Stager) Stage(path string) (convstore.Attachment, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return convstore.Attachment{}, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		return convstore.Attachment{}, fmt.Errorf("attachment %s is a directory", path)
	}
	if info.Size() > MaxAttachmentSize {
		return convstore.Attachment{}, fmt.Errorf("attachment %s exceeds %d bytes", path, MaxAttachmentSize)
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return convstore.Attachment{}, fmt.Errorf("create staging dir: %w", err)
	}

	ext := filepath.Ext(path)
	staged := filepath.Join(s.dir, uuid.NewString()+ext)

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return convstore.Attachment{}, fmt.Errorf("read attachment: %w", err)
	}
	if err := afero.WriteFile(s.fs, staged, data, 0o644); err != nil {
		return convstore.Attachment{}, fmt.Errorf("stage attachment: %w", err)
	}

	s.logger.Debug("staged attachment", "source", path, "staged", staged, "size", info.Size())

	return convstore.Attachment{
		Name: filepath.Base(path),
		Type: detectMimeType(ext),
		URL:  "file://" + staged,
	}, nil
}

// Discard removes a staged copy. Handles whose URL does not point inside
// the staging directory are left alone, including paths in sibling
// directories that merely share the directory name as a prefix.
func (s *Stager) Discard(att convstore.Attachment) error {
	path, ok := strings.CutPrefix(att.URL, "file://")
	if !ok {
		return nil
	}
	rel, err := filepath.Rel(s.dir, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return s.fs.Remove(path)
}

// detectMimeType maps a file extension to a mime type.
func detectMimeType(ext string) string {
	if mimeType := mime.TypeByExtension(strings.ToLower(ext)); mimeType != "" {
		return mimeType
	}
	return fallbackMimeType
}
