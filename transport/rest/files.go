package rest

import (
	"io/fs"
	"net/http"
	"strings"
)

// hiddenFS hides directories and dot files, which covers staged uploads.
type hiddenFS struct {
	http.FileSystem
}

func (h hiddenFS) Open(name string) (http.File, error) {
	for _, segment := range strings.Split(name, "/") {
		if strings.HasPrefix(segment, ".") {
			return nil, fs.ErrNotExist
		}
	}
	f, err := h.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

func publicFiles(root string) http.Handler {
	return http.FileServer(hiddenFS{http.Dir(root)})
}
