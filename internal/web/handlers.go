package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/growmetrics/sheetimport/internal/mapping"
)

// importRequest is the shared body for preview and commit. Mapping is an
// optional header→field override, honored by commit only; preview echoes
// the detected mapping in a shape that round-trips into it.
type importRequest struct {
	OrgID     string            `json:"org_id"`
	SourceRef string            `json:"source_ref"`
	Mapping   map[string]string `json:"mapping,omitempty"`
}

// previewColumn reports one column's detected role. Ignored columns
// carry detected_as "ignored".
type previewColumn struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	DetectedAs string  `json:"detected_as"`
	Confidence float64 `json:"confidence"`
}

type previewResponse struct {
	RowCount    int               `json:"row_count"`
	ColumnCount int               `json:"column_count"`
	Columns     []previewColumn   `json:"columns"`
	Mapping     map[string]string `json:"mapping"`
	Warnings    []string          `json:"warnings"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := s.service.Preview(r.Context(), req.OrgID, req.SourceRef)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, buildPreviewResponse(result))
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	overrides := make(map[string]mapping.FieldTag, len(req.Mapping))
	for header, tag := range req.Mapping {
		overrides[header] = mapping.FieldTag(tag)
	}

	result, err := s.service.Commit(r.Context(), req.OrgID, req.SourceRef, overrides)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// decodeRequest parses and validates the shared request body. On failure
// it writes the 400 response itself and returns ok=false.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*importRequest, bool) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request body",
			Message: "The request body must be JSON",
			Code:    "REQ000",
		})
		return nil, false
	}

	req.OrgID = strings.TrimSpace(req.OrgID)
	req.SourceRef = strings.TrimSpace(req.SourceRef)
	if req.OrgID == "" || req.SourceRef == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "missing org_id or source_ref",
			Message: "Both org_id and source_ref are required",
			Code:    "REQ000",
		})
		return nil, false
	}
	return &req, true
}

func buildPreviewResponse(result *mapping.MappingResult) previewResponse {
	resp := previewResponse{
		RowCount:    result.RowCount,
		ColumnCount: result.ColumnCount,
		Mapping:     make(map[string]string),
		Warnings:    result.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}

	for _, cd := range result.Columns {
		col := previewColumn{
			Index:      cd.Column.Index,
			Name:       cd.Column.Header,
			DetectedAs: "ignored",
			Confidence: cd.Detection.Confidence,
		}
		if cd.Detection.Detected() {
			col.DetectedAs = string(cd.Detection.Field)
			resp.Mapping[cd.Column.Header] = string(cd.Detection.Field)
		}
		resp.Columns = append(resp.Columns, col)
	}
	return resp
}
