/* Copyright 2026 Memora Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package testutils provides an in-memory Memora server double for tests
package testutils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/vicherarr/memora/pkg/cli/client"
)

// Token is the session token issued by the fake server
const Token = "test-session-token"

// UserUUID is the uuid of the test user
const UserUUID = "test-user-uuid"

// Server is an in-memory double of the Memora server. State is held in
// maps guarded by a single mutex; handlers simulate the subset of the API
// the client speaks.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	seq         int
	notes       map[string]client.RemoteNote
	categories  map[string]client.RemoteCategory
	links       map[string]bool
	attachments map[string]client.RemoteAttachment
	blobs       map[string][]byte

	// FailNextWith, when nonzero, makes the next mutating request fail
	// with the given status code
	FailNextWith int
	// RequestCount counts the requests served
	RequestCount int
}

// NewServer starts a fake server
func NewServer(t *testing.T) *Server {
	s := &Server{
		notes:       map[string]client.RemoteNote{},
		categories:  map[string]client.RemoteCategory{},
		links:       map[string]bool{},
		attachments: map[string]client.RemoteAttachment{},
		blobs:       map[string][]byte{},
	}

	r := mux.NewRouter()
	r.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/notes", s.authorized(s.handleGetNotes)).Methods("GET")
	r.HandleFunc("/notes", s.authorized(s.handleCreateNote)).Methods("POST")
	r.HandleFunc("/notes/{uuid}", s.authorized(s.handleUpdateNote)).Methods("PUT")
	r.HandleFunc("/notes/{uuid}", s.authorized(s.handleDeleteNote)).Methods("DELETE")
	r.HandleFunc("/notes/{uuid}/attachments", s.authorized(s.handleCreateAttachment)).Methods("POST")
	r.HandleFunc("/attachments/{uuid}", s.authorized(s.handleGetAttachment)).Methods("GET")
	r.HandleFunc("/categories", s.authorized(s.handleGetCategories)).Methods("GET")
	r.HandleFunc("/categories", s.authorized(s.handleCreateCategory)).Methods("POST")
	r.HandleFunc("/categories/{uuid}", s.authorized(s.handleUpdateCategory)).Methods("PUT")
	r.HandleFunc("/categories/{uuid}", s.authorized(s.handleDeleteCategory)).Methods("DELETE")
	r.HandleFunc("/notes/{noteUUID}/categories/{categoryUUID}", s.authorized(s.handleLink)).Methods("POST")
	r.HandleFunc("/notes/{noteUUID}/categories/{categoryUUID}", s.authorized(s.handleUnlink)).Methods("DELETE")

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)

	return s
}

func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.RequestCount++
		failWith := s.FailNextWith
		if failWith != 0 && r.Method != "GET" {
			s.FailNextWith = 0
		}
		s.mu.Unlock()

		if r.Header.Get("Authorization") != fmt.Sprintf("Bearer %s", Token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if failWith != 0 && r.Method != "GET" {
			http.Error(w, "injected failure", failWith)
			return
		}

		next(w, r)
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) nextUUID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload client.SigninPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if payload.Password == "wrong-password" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	respondJSON(w, http.StatusOK, client.SigninResponse{
		Token:     Token,
		UserUUID:  UserUUID,
		Email:     payload.Email,
		ExpiresAt: 32503680000,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload client.RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusCreated, client.SigninResponse{
		Token:     Token,
		UserUUID:  UserUUID,
		Email:     payload.Email,
		ExpiresAt: 32503680000,
	})
}

func (s *Server) handleGetNotes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	all := make([]client.RemoteNote, 0, len(s.notes))
	for _, n := range s.notes {
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UUID < all[j].UUID })

	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	respondJSON(w, http.StatusOK, client.NotesPage{
		Notes:       all[start:end],
		TotalCount:  len(all),
		Page:        page,
		PageSize:    pageSize,
		HasNextPage: end < len(all),
	})
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var payload client.NotePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	n := client.RemoteNote{
		UUID:      fmt.Sprintf("srv-note-%d", s.seq),
		Title:     payload.Title,
		Body:      payload.Body,
		CreatedAt: int64(s.seq),
		UpdatedAt: int64(s.seq),
	}
	s.notes[n.UUID] = n

	respondJSON(w, http.StatusCreated, n)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	var payload client.NotePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[uuid]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	s.seq++
	n.Title = payload.Title
	n.Body = payload.Body
	n.UpdatedAt = int64(s.seq)
	s.notes[uuid] = n

	respondJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[uuid]; !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	delete(s.notes, uuid)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateAttachment(w http.ResponseWriter, r *http.Request) {
	noteUUID := mux.Vars(r)["uuid"]

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := ioutil.ReadAll(file)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[noteUUID]; !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	s.seq++
	a := client.RemoteAttachment{
		UUID:      fmt.Sprintf("srv-attachment-%d", s.seq),
		NoteUUID:  noteUUID,
		Filename:  header.Filename,
		Kind:      r.FormValue("kind"),
		MimeType:  r.FormValue("mime_type"),
		Size:      int64(len(data)),
		UpdatedAt: int64(s.seq),
	}
	s.attachments[a.UUID] = a
	s.blobs[a.UUID] = data

	respondJSON(w, http.StatusCreated, a)
}

func (s *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[uuid]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", s.attachments[uuid].MimeType)
	w.Write(blob)
}

func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]client.RemoteCategory, 0, len(s.categories))
	for _, c := range s.categories {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UUID < all[j].UUID })

	respondJSON(w, http.StatusOK, all)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload client.CategoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	c := client.RemoteCategory{
		UUID:      fmt.Sprintf("srv-category-%d", s.seq),
		Name:      payload.Name,
		Color:     payload.Color,
		Icon:      payload.Icon,
		CreatedAt: int64(s.seq),
		UpdatedAt: int64(s.seq),
	}
	s.categories[c.UUID] = c

	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	var payload client.CategoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[uuid]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	s.seq++
	c.Name = payload.Name
	c.Color = payload.Color
	c.Icon = payload.Icon
	c.UpdatedAt = int64(s.seq)
	s.categories[uuid] = c

	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[uuid]; !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	delete(s.categories, uuid)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.links[fmt.Sprintf("%s:%s", vars["noteUUID"], vars["categoryUUID"])] = true
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleUnlink(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.links, fmt.Sprintf("%s:%s", vars["noteUUID"], vars["categoryUUID"]))
	w.WriteHeader(http.StatusNoContent)
}

// SetNote seeds a note into the fake server state
func (s *Server) SetNote(n client.RemoteNote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes[n.UUID] = n
}

// RemoveNote removes a note from the fake server state without a tombstone
func (s *Server) RemoveNote(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notes, uuid)
}

// GetNote reads a note from the fake server state
func (s *Server) GetNote(uuid string) (client.RemoteNote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[uuid]
	return n, ok
}

// NoteCount reports the number of notes held by the fake server
func (s *Server) NoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.notes)
}

// SetCategory seeds a category into the fake server state
func (s *Server) SetCategory(c client.RemoteCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories[c.UUID] = c
}

// RemoveCategory removes a category from the fake server state without a
// tombstone
func (s *Server) RemoveCategory(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.categories, uuid)
}

// GetCategory reads a category from the fake server state
func (s *Server) GetCategory(uuid string) (client.RemoteCategory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[uuid]
	return c, ok
}

// CategoryCount reports the number of categories held by the fake server
func (s *Server) CategoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.categories)
}

// HasLink checks whether a link exists between the note and the category
func (s *Server) HasLink(noteUUID, categoryUUID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.links[fmt.Sprintf("%s:%s", noteUUID, categoryUUID)]
}
