package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LocalStore keeps avatars on disk; the router serves Dir under URLPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
	lg        zerolog.Logger
}

func NewLocalStore(dir, urlPrefix string, lg zerolog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &LocalStore{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		lg:        lg.With().Str("component", "local_avatar_store").Logger(),
	}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// Save writes r to a temp file and renames it into place, returning the public URL.
func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	if err := safeName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write avatar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close avatar: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("move avatar: %w", err)
	}

	s.lg.Debug().Str("name", name).Msg("avatar stored")
	return s.urlPrefix + "/" + name, nil
}
