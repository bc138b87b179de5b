package blob

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// FSStore keeps objects on an afero filesystem. Content types and
// metadata go to a sidecar document since plain filesystems carry
// neither. Backed by the OS in production and MemMapFs in tests.
type FSStore struct {
	fs   afero.Fs
	root string
}

type fsSidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

const sidecarSuffix = ".meta.json"

// NewFSStore creates a store rooted at dir on the given filesystem.
func NewFSStore(fs afero.Fs, dir string) *FSStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FSStore{fs: fs, root: dir}
}

func (s *FSStore) path(key string) string {
	return path.Join(s.root, key)
}

func (s *FSStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := s.path(key)
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, p, data, 0o644); err != nil {
		return err
	}
	if contentType == "" && len(metadata) == 0 {
		return nil
	}
	side, err := json.Marshal(fsSidecar{ContentType: contentType, Metadata: metadata})
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, p+sidecarSuffix, side, 0o644)
}

func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *FSStore) Open(ctx context.Context, key string) (io.ReadSeekCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}
	f, err := s.fs.Open(s.path(key))
	if os.IsNotExist(err) {
		return nil, ObjectInfo{}, ErrNotFound
	}
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ObjectInfo{}, err
	}
	info := ObjectInfo{Key: key, Size: stat.Size(), ContentType: s.sidecarContentType(key)}
	return f, info, nil
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := s.fs.Remove(s.path(key) + sidecarSuffix); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FSStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []ObjectInfo
	walkRoot := s.path(strings.TrimSuffix(prefix, "/"))
	err := afero.Walk(s.fs, walkRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || strings.HasSuffix(p, sidecarSuffix) {
			return nil
		}
		key := strings.TrimPrefix(strings.TrimPrefix(p, s.root), "/")
		out = append(out, ObjectInfo{Key: key, Size: info.Size(), ContentType: s.sidecarContentType(key)})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return afero.Exists(s.fs, s.path(key))
}

// PresignedURL is unsupported on filesystems; callers use the service
// stream path instead.
func (s *FSStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "", ErrPresignUnsupported
}

func (s *FSStore) sidecarContentType(key string) string {
	data, err := afero.ReadFile(s.fs, s.path(key)+sidecarSuffix)
	if err != nil {
		return ""
	}
	var side fsSidecar
	if json.Unmarshal(data, &side) != nil {
		return ""
	}
	return side.ContentType
}

var _ Store = (*FSStore)(nil)
