package storagesvc

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core"
)

// FSStorage stores files on the local filesystem under a root directory.
type FSStorage struct {
	root string
}

var _ Storage = (*FSStorage)(nil)

func NewFSStorage(conf *core.Config) (*FSStorage, error) {
	root := conf.Storage.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(conf.WorkDir, root)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating storage root")
	}
	return &FSStorage{root: root}, nil
}

func (s *FSStorage) path(key string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *FSStorage) Save(key string, src io.Reader) (int64, error) {
	dst, err := s.path(key)
	if err != nil {
		return 0, err
	}
	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, errors.Wrap(err, "creating file dir")
	}
	f, err := os.Create(dst)
	if err != nil {
		return 0, errors.Wrap(err, "creating file")
	}
	defer f.Close()
	n, err := io.Copy(f, src)
	return n, errors.Wrap(err, "writing file")
}

func (s *FSStorage) Open(key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return f, errors.Wrap(err, "opening file")
}

func (s *FSStorage) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err = os.Remove(p); os.IsNotExist(err) {
		return ErrNotFound
	}
	return errors.Wrap(err, "deleting file")
}

func (s *FSStorage) List(prefix string) ([]FileInfo, error) {
	dir, err := s.path(prefix)
	if err != nil {
		return nil, err
	}
	var infos []FileInfo
	err = filepath.Walk(dir, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := strings.ReplaceAll(rel, string(filepath.Separator), "/")
		infos = append(infos, FileInfo{
			Key:  key,
			Name: fi.Name(),
			Size: fi.Size(),
			Type: FileType(fi.Name()),
		})
		return nil
	})
	return infos, errors.Wrap(err, "listing files")
}
