package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ColtonShawProctor/template-filler/internal/docx"
	"github.com/ColtonShawProctor/template-filler/internal/storage"
)

// Server holds the HTTP server configuration and dependencies.
type Server struct {
	store              storage.Store
	defaultTemplateKey string
	mux                *http.ServeMux
}

// NewServer creates a Server backed by the given store.
func NewServer(store storage.Store, defaultTemplateKey string) *Server {
	s := &Server{
		store:              store,
		defaultTemplateKey: defaultTemplateKey,
		mux:                http.NewServeMux(),
	}

	s.registerRoutes()
	return s
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/fill", s.handleFill)
	s.mux.HandleFunc("/fill-and-upload", s.handleFillAndUpload)
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// HealthResponse represents the JSON response from /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding health response: %v", err)
	}
}

// FillRequest is the shared request body of /fill and /fill-and-upload.
// Placeholders maps token names to replacement text; Images maps image token
// names to base64-encoded image bytes.
type FillRequest struct {
	Placeholders map[string]string `json:"placeholders"`
	Images       map[string]string `json:"images"`
	TemplateKey  string            `json:"template_key"`
	// OutputFilename names the download of /fill.
	OutputFilename string `json:"output_filename"`
	// OutputKey is the destination of /fill-and-upload.
	OutputKey string `json:"output_key"`
}

// UploadResponse is the JSON response of /fill-and-upload.
type UploadResponse struct {
	Success      bool     `json:"success"`
	OutputKey    string   `json:"output_key"`
	OutputURL    string   `json:"output_url"`
	Replacements int      `json:"replacements"`
	Images       int      `json:"images"`
	Unresolved   []string `json:"unresolved,omitempty"`
}

// ErrorResponse is the JSON body of every error status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleFill fills a template and streams the document back as a download.
func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeFillRequest(w, r)
	if !ok {
		return
	}

	output, _, ok := s.fillTemplate(w, r, req)
	if !ok {
		return
	}

	filename := req.OutputFilename
	if filename == "" {
		filename = "IDS_Generated.docx"
	}

	w.Header().Set("Content-Type", storage.DocxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if _, err := w.Write(output); err != nil {
		log.Printf("Error streaming filled document: %v", err)
	}
}

// handleFillAndUpload fills a template and stores the document under the
// requested output key.
func (s *Server) handleFillAndUpload(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeFillRequest(w, r)
	if !ok {
		return
	}

	if req.OutputKey == "" {
		s.writeError(w, http.StatusBadRequest, "output_key is required")
		return
	}

	output, result, ok := s.fillTemplate(w, r, req)
	if !ok {
		return
	}

	url, err := s.store.Store(r.Context(), req.OutputKey, output, storage.DocxContentType)
	if err != nil {
		log.Printf("Upload failed for %s: %v", req.OutputKey, err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to store output: %v", err))
		return
	}

	resp := UploadResponse{
		Success:      true,
		OutputKey:    req.OutputKey,
		OutputURL:    url,
		Replacements: result.Replacements,
		Images:       result.ImagesPlaced,
		Unresolved:   result.Unresolved,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error encoding upload response: %v", err)
	}
}

// decodeFillRequest parses the JSON body shared by both fill endpoints and
// applies the default template key.
func (s *Server) decodeFillRequest(w http.ResponseWriter, r *http.Request) (*FillRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	var req FillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return nil, false
	}

	if req.TemplateKey == "" {
		req.TemplateKey = s.defaultTemplateKey
	}

	return &req, true
}

// fillTemplate fetches the template, runs the fill, and serializes the
// result. Errors are translated to HTTP statuses here: a missing template is
// 404, a corrupt template or bad image payload is 400, anything else is 500.
func (s *Server) fillTemplate(w http.ResponseWriter, r *http.Request, req *FillRequest) ([]byte, *docx.Result, bool) {
	template, err := s.store.Fetch(r.Context(), req.TemplateKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "template not found: "+req.TemplateKey)
			return nil, nil, false
		}

		log.Printf("Template fetch failed for %s: %v", req.TemplateKey, err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to fetch template: %v", err))
		return nil, nil, false
	}

	archive, err := docx.Open(template)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("template %s: %v", req.TemplateKey, err))
		return nil, nil, false
	}

	result, err := docx.Fill(archive, req.Placeholders, req.Images)
	if err != nil {
		if errors.Is(err, docx.ErrInvalidImagePayload) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return nil, nil, false
		}

		log.Printf("Fill failed for %s: %v", req.TemplateKey, err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("fill failed: %v", err))
		return nil, nil, false
	}

	output, err := archive.Bytes()
	if err != nil {
		log.Printf("Serialize failed for %s: %v", req.TemplateKey, err)
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("serialize failed: %v", err))
		return nil, nil, false
	}

	log.Printf("Filled %s: %d replacements, %d images, %d unresolved",
		req.TemplateKey, result.Replacements, result.ImagesPlaced, len(result.Unresolved))

	return output, result, true
}

// writeError sends a JSON error body with the given status.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		log.Printf("Error encoding error response: %v", err)
	}
}
