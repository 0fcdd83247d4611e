package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

const (
	uploadField = "file"
	// Room for multipart boundaries and headers on top of the file itself.
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
)

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders := s.deps.Files.Folders(PrincipalFrom(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.deps.Files.List(r.Context(), PrincipalFrom(r.Context()), mux.Vars(r)["folder"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, s.maxUpload))
			return
		}
		writeError(w, r, fmt.Errorf("%w: multipart form: %v", domain.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: form field %q required", domain.ErrInvalidInput, uploadField))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: reading upload: %v", domain.ErrInvalidInput, err))
		return
	}

	uploaded, err := s.deps.Files.Upload(
		r.Context(), PrincipalFrom(r.Context()), mux.Vars(r)["folder"],
		header.Filename, header.Header.Get("Content-Type"), content,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploaded)
}
