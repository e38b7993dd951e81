package http

import (
	"encoding/json"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/autocheck/internal/grading"
	"github.com/mind-engage/autocheck/internal/storage"
)

// MountAssets serves reference files (test harnesses, reference tables) kept
// in the blob store. The returned path can be used as a question's answer.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	// POST /assets  multipart: file, optional name
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		name := r.FormValue("name")
		if name == "" {
			name = hdr.Filename
		}
		name = grading.SanitizeName(path.Base(name))
		if name == "" || name == "." {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		key, err := bs.Put("references/"+name, f)
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"key": key, "path": bs.Path(key)})
	})

	// GET /assets/*   -> returns the blob at whatever follows /assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")        // everything after /assets/
		key = strings.TrimPrefix(key, "/") // normalize
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})
}
