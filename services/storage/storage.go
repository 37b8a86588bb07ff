package storagesvc

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("file not found")

// Storage persists uploaded files (course materials, forum attachments)
// under slash-separated keys relative to a configured root.
type Storage interface {
	Save(key string, src io.Reader) (int64, error)
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
	List(prefix string) ([]FileInfo, error)
}

type FileInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

const (
	FileTypeVideo = "video"
	FileTypePDF   = "pdf"
	FileTypeCode  = "code"
	FileTypeImage = "image"
	FileTypeOther = "other"
)

var extTypes = map[string]string{
	".mp4":  FileTypeVideo,
	".webm": FileTypeVideo,
	".mov":  FileTypeVideo,
	".pdf":  FileTypePDF,
	".js":   FileTypeCode,
	".ts":   FileTypeCode,
	".py":   FileTypeCode,
	".go":   FileTypeCode,
	".html": FileTypeCode,
	".css":  FileTypeCode,
	".json": FileTypeCode,
	".png":  FileTypeImage,
	".jpg":  FileTypeImage,
	".jpeg": FileTypeImage,
	".gif":  FileTypeImage,
	".svg":  FileTypeImage,
	".webp": FileTypeImage,
}

// FileType classifies a file by its extension.
func FileType(name string) string {
	if typ, ok := extTypes[strings.ToLower(path.Ext(name))]; ok {
		return typ
	}
	return FileTypeOther
}

// FormatFileSize renders a byte count in a human readable unit.
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func cleanKey(key string) (string, error) {
	key = path.Clean("/" + key)
	if key == "/" {
		return "", errors.New("empty file key")
	}
	return strings.TrimPrefix(key, "/"), nil
}
