package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ironsheep/card-scanner/internal/failure"
	"github.com/ironsheep/card-scanner/internal/marketplace"
)

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "File too large"})
			return
		}
		writeError(w, http.StatusBadRequest, errorResponse{Error: "No file part in the request"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "No file uploaded"})
		return
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid file type"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Failed to read upload"})
		return
	}

	res, err := s.identifier.IdentifyCard(r.Context(), data)
	if err != nil {
		var fe *failure.Error
		if errors.As(err, &fe) && fe.Code == failure.InvalidImage {
			writeError(w, http.StatusUnprocessableEntity, errorResponse{
				Error: "Could not decode image",
				Code:  string(fe.Code),
			})
			return
		}
		s.logger.Error("identification failed", "err", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJson(w, http.StatusOK, res)
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Items []marketplace.Listing `json:"items"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "query is required"})
		return
	}
	if req.Limit < 0 || req.Limit > marketplace.MaxLimit {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "limit out of range"})
		return
	}

	items, err := s.identifier.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		var fe *failure.Error
		resp := errorResponse{Error: "Marketplace search failed", Code: string(failure.SearchFailed)}
		if errors.As(err, &fe) {
			// Upstream bodies stay in the log.
			if status, ok := fe.Details["status"]; ok {
				resp.Info = map[string]interface{}{"status": status}
			}
			s.logger.Warn("search failed", "query", req.Query, "err", err, "details", fe.Details)
		} else {
			s.logger.Warn("search failed", "query", req.Query, "err", err)
		}
		writeError(w, http.StatusBadGateway, resp)
		return
	}

	writeJson(w, http.StatusOK, searchResponse{Items: items})
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	lib := s.identifier.Templates()
	writeJson(w, http.StatusOK, map[string]interface{}{
		"count":     lib.Len(),
		"templates": lib.IDs(),
	})
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, errorResponse{Error: "Scan history is disabled"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	scans, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list scans", "err", err)
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "Failed to list scans"})
		return
	}
	writeJson(w, http.StatusOK, map[string]interface{}{"scans": scans})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"templates": s.identifier.Templates().Len(),
		"ocr":       s.ocr.Available,
		"history":   s.history != nil,
	})
}
