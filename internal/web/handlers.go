package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/colwise/colwise/internal/infer"
	"github.com/colwise/colwise/internal/logging"
)

// handleUpload accepts a multipart file upload and starts a session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  "no file provided",
			Action: "attach the upload as multipart field \"file\"",
			Code:   "FILE005",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	id, err := s.service.UploadFile(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("upload accepted",
		"session", id, "file", header.Filename, "size", len(data))

	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

// handleGetDataset returns the session's state, columns, and preview.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Snapshot(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleProgress returns the current progress snapshot.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.Progress(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleProcess runs column analysis for a parsed session.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.ProcessFile(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.service.Snapshot(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type convertRequest struct {
	Type infer.Type `json:"type"`
}

// handleConvertColumn converts one column to a requested type.
func (s *Server) handleConvertColumn(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "column index must be an integer", Code: "CONV003"})
		return
	}

	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Code: "CONV002"})
		return
	}

	result, err := s.service.ConvertColumn(chi.URLParam(r, "id"), index, req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleConvertAll converts every column to its detected type.
func (s *Server) handleConvertAll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.ConvertAllColumns(id); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.service.Snapshot(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleExport streams the session's dataset as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := s.service.ExportCSV(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	snap, _ := s.service.Snapshot(id)
	name := snap.FileName
	if name == "" {
		name = "export.csv"
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "converted_"+name))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// handleCancel stops a session's in-flight work.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Cancel(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleDeleteDataset discards a session entirely.
func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListTypes returns the closed set of semantic types.
func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]infer.Type{"types": infer.AllTypes()})
}

// handleHistory lists recent analysis runs, when the store is enabled.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:  "history is not enabled",
			Action: "configure DATABASE_URL to record analysis history",
			Code:   "HIST001",
		})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": entries})
}
