// Package fakeapi serves an in-memory copy of the remote todo API over
// httptest, for tests of the client, the sync stores and the CLI.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/idilsaglam/tada/internal/model"
)

// Failure is a canned error response.
type Failure struct {
	Status  int
	Message string
	Code    string
}

// Server is a fake remote. All methods are safe for concurrent use.
type Server[ID model.Key] struct {
	*httptest.Server

	mu       sync.Mutex
	items    map[string][]model.Item[ID] // by tenant, insertion order
	nextID   int64
	failures map[string][]Failure // keyed by HTTP method
	requests []string
	uploads  []UploadedFile
	hook     func(r *http.Request)
}

// UploadedFile records a multipart upload.
type UploadedFile struct {
	Tenant      string
	Filename    string
	ContentType string
	Size        int
}

// New starts a fake server. Call Close when done.
func New[ID model.Key]() *Server[ID] {
	s := &Server[ID]{
		items:    make(map[string][]model.Item[ID]),
		failures: make(map[string][]Failure),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{tenant}/items", s.handleList)
	mux.HandleFunc("POST /{tenant}/items", s.handleCreate)
	mux.HandleFunc("GET /{tenant}/items/{id}", s.handleGet)
	mux.HandleFunc("PATCH /{tenant}/items/{id}", s.handlePatch)
	mux.HandleFunc("DELETE /{tenant}/items/{id}", s.handleDelete)
	mux.HandleFunc("POST /{tenant}/images/upload", s.handleUpload)
	mux.HandleFunc("POST /images", s.handleUpload)
	s.Server = httptest.NewServer(s.intercept(mux))
	return s
}

// FailNext makes the next request with the given method fail with f.
func (s *Server[ID]) FailNext(method string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method] = append(s.failures[method], f)
}

// OnRequest installs fn to run before every request is handled. Tests use
// it to hold a response back.
func (s *Server[ID]) OnRequest(fn func(r *http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = fn
}

// Seed inserts an item for tenant as if it had been created remotely.
func (s *Server[ID]) Seed(tenant string, in model.NewItem) model.Item[ID] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(tenant, in)
}

// Items returns a copy of a tenant's collection.
func (s *Server[ID]) Items(tenant string) []model.Item[ID] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Item[ID](nil), s.items[tenant]...)
}

// Requests returns "METHOD /path" for every request received.
func (s *Server[ID]) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Uploads returns every accepted upload.
func (s *Server[ID]) Uploads() []UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]UploadedFile(nil), s.uploads...)
}

func (s *Server[ID]) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		var fail *Failure
		if q := s.failures[r.Method]; len(q) > 0 {
			fail = &q[0]
			s.failures[r.Method] = q[1:]
		}
		hook := s.hook
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if fail != nil {
			body := map[string]string{}
			if fail.Message != "" {
				body["message"] = fail.Message
			}
			if fail.Code != "" {
				body["code"] = fail.Code
			}
			writeJSON(w, fail.Status, body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server[ID]) insert(tenant string, in model.NewItem) model.Item[ID] {
	s.nextID++
	it := model.Item[ID]{
		ID:       s.makeID(s.nextID),
		TenantID: tenant,
		Name:     in.Name,
		Memo:     in.Memo,
		ImageURL: in.ImageURL,
	}
	if in.IsCompleted != nil {
		it.IsCompleted = *in.IsCompleted
	}
	s.items[tenant] = append(s.items[tenant], it)
	return it
}

func (s *Server[ID]) makeID(n int64) ID {
	var zero ID
	switch any(zero).(type) {
	case int64:
		return any(n).(ID)
	default:
		return any(fmt.Sprintf("item-%d", n)).(ID)
	}
}

func (s *Server[ID]) find(tenant, id string) int {
	for i, it := range s.items[tenant] {
		if model.FormatID(it.ID) == id {
			return i
		}
	}
	return -1
}

func (s *Server[ID]) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := append([]model.Item[ID]{}, s.items[r.PathValue("tenant")]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, items)
}

func (s *Server[ID]) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant := r.PathValue("tenant")
	i := s.find(tenant, r.PathValue("id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "item not found"})
		return
	}
	writeJSON(w, http.StatusOK, s.items[tenant][i])
}

func (s *Server[ID]) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in model.NewItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "name is required", "code": "VALIDATION"})
		return
	}
	s.mu.Lock()
	it := s.insert(r.PathValue("tenant"), in)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server[ID]) handlePatch(w http.ResponseWriter, r *http.Request) {
	var p model.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant := r.PathValue("tenant")
	i := s.find(tenant, r.PathValue("id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "item not found"})
		return
	}
	s.items[tenant][i] = model.ApplyPatch(s.items[tenant][i], p)
	writeJSON(w, http.StatusOK, s.items[tenant][i])
}

func (s *Server[ID]) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tenant := r.PathValue("tenant")
	i := s.find(tenant, r.PathValue("id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "item not found"})
		return
	}
	s.items[tenant] = append(s.items[tenant][:i], s.items[tenant][i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server[ID]) handleUpload(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "image field is required"})
		return
	}
	defer f.Close()
	data, _ := io.ReadAll(f)

	up := UploadedFile{
		Tenant:      r.PathValue("tenant"),
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        len(data),
	}
	s.mu.Lock()
	s.uploads = append(s.uploads, up)
	n := len(s.uploads)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{
		"url":      fmt.Sprintf("%s/files/%d/%s", s.URL, n, hdr.Filename),
		"filename": hdr.Filename,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
