package handler

import (
	"net/http"
	"strings"
)

// StoredFilesHandler serves single files from dir under prefix. Directory
// paths answer 404 so the stored uploads cannot be enumerated.
func StoredFilesHandler(prefix, dir string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
