package server

import (
	"encoding/json"
	goerrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/humsha/educe/pkg/errors"
	"github.com/humsha/educe/pkg/pipeline"
	"github.com/humsha/educe/pkg/store"
	"github.com/humsha/educe/pkg/treeio"
)

// ConvertRequest is the body of POST /api/convert and POST /api/trees.
type ConvertRequest struct {
	Document *treeio.DepDoc   `json:"document"`
	Options  pipeline.Options `json:"options"`
}

// ConvertResponse is the body of a successful conversion.
type ConvertResponse struct {
	DocHash   string            `json:"doc_hash"`
	Tree      *treeio.ConDoc    `json:"tree"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
	Cache     CacheStatus       `json:"cache"`
}

// CacheStatus reports which pipeline stages were served from cache.
type CacheStatus struct {
	Convert bool `json:"convert"`
	Render  bool `json:"render"`
}

// handleConvert converts a dependency document and returns the resulting
// constituency document without persisting it.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	result, ok := s.convert(w, r)
	if !ok {
		return
	}

	// The tree itself is the json artifact; only rendered formats are
	// echoed back.
	artifacts := make(map[string][]byte)
	for format, data := range result.Artifacts {
		if format != pipeline.FormatJSON {
			artifacts[format] = data
		}
	}

	writeJSON(w, http.StatusOK, ConvertResponse{
		DocHash:   result.DocHash,
		Tree:      result.Doc,
		Artifacts: artifacts,
		Cache: CacheStatus{
			Convert: result.CacheInfo.ConvertHit,
			Render:  result.CacheInfo.RenderHit,
		},
	})
}

// handleSaveTree converts a dependency document and persists the result.
func (s *Server) handleSaveTree(w http.ResponseWriter, r *http.Request) {
	result, ok := s.convert(w, r)
	if !ok {
		return
	}

	id, err := s.store.Put(r.Context(), result.Doc)
	if err != nil {
		s.log.Error("store tree", "error", err)
		jsonError(w, "failed to store tree", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.log.Error("list trees", "error", err)
		jsonError(w, "failed to list trees", http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := errors.ValidateDocumentID(docID); err != nil {
		jsonError(w, errors.UserMessage(err), http.StatusBadRequest)
		return
	}

	doc, err := s.store.Get(r.Context(), docID)
	if err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			jsonError(w, "tree not found: "+docID, http.StatusNotFound)
			return
		}
		s.log.Error("get tree", "id", docID, "error", err)
		jsonError(w, "failed to load tree", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteTree(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.store.Delete(r.Context(), docID); err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			jsonError(w, "tree not found: "+docID, http.StatusNotFound)
			return
		}
		s.log.Error("delete tree", "id", docID, "error", err)
		jsonError(w, "failed to delete tree", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// convert decodes a conversion request and runs the pipeline, writing the
// error response itself when anything fails.
func (s *Server) convert(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if req.Document == nil {
		jsonError(w, "request has no document", http.StatusBadRequest)
		return nil, false
	}

	result, err := s.runner.Execute(r.Context(), req.Document, req.Options)
	if err != nil {
		status := httpStatus(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("convert", "error", err)
		}
		jsonError(w, errors.UserMessage(err), status)
		return nil, false
	}
	return result, true
}

// httpStatus maps pipeline error codes to HTTP status codes. Bad requests
// cover configuration mistakes, unprocessable entities cover documents
// that are well-formed JSON but not valid trees.
func httpStatus(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidStrategy,
		errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidPath,
		errors.ErrCodeMissingStats:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidDocument,
		errors.ErrCodeMissingSentences,
		errors.ErrCodeNoRoot,
		errors.ErrCodeMultipleRoots,
		errors.ErrCodeSpanOverlap,
		errors.ErrCodeCycle,
		errors.ErrCodeBadRanking:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound,
		errors.ErrCodeFileNotFound,
		errors.ErrCodeDocNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
