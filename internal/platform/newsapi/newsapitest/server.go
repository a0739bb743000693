// Package newsapitest runs an in-memory news backend over httptest.
package newsapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"news-miniapp-gateway/internal/platform/newsapi"
)

// Server speaks the news backend REST contract from memory.
type Server struct {
	*httptest.Server

	mu      sync.Mutex
	users   map[int64]*newsapi.UserProfile
	news    map[string][]newsapi.NewsItem
	support []newsapi.SupportRequest
	calls   map[string]int
}

func NewServer() *Server {
	s := &Server{
		users: map[int64]*newsapi.UserProfile{},
		news:  map[string][]newsapi.NewsItem{},
		calls: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/user/info", s.userInfo)
	mux.HandleFunc("POST /api/user/save", s.saveUser)
	mux.HandleFunc("PUT /api/user/update", s.updateUser)
	mux.HandleFunc("POST /api/user/support", s.createSupport)
	mux.HandleFunc("GET /api/news", s.listNews)
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) AddUser(u newsapi.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.TgID] = &u
}

func (s *Server) User(tgID int64) (newsapi.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[tgID]
	if !ok {
		return newsapi.UserProfile{}, false
	}
	return *u, true
}

func (s *Server) SetNews(category string, items ...newsapi.NewsItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.news[category] = items
}

func (s *Server) SupportRequests() []newsapi.SupportRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]newsapi.SupportRequest(nil), s.support...)
}

// Calls returns how many times the route ("METHOD /path") was hit.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) count(r *http.Request) {
	s.calls[r.Method+" "+r.URL.Path]++
}

func (s *Server) userInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(r)

	id, err := strconv.ParseInt(r.URL.Query().Get("tg_id"), 10, 64)
	if err != nil {
		http.Error(w, `{"detail":"tg_id must be an integer"}`, http.StatusUnprocessableEntity)
		return
	}
	if u, ok := s.users[id]; ok {
		writeJSON(w, newsapi.UserInfo{Exists: true, User: u})
		return
	}
	writeJSON(w, newsapi.UserInfo{Exists: false})
}

func (s *Server) saveUser(w http.ResponseWriter, r *http.Request) {
	var req newsapi.SaveUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"detail":"invalid body"}`, http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(r)

	s.users[req.TgID] = &newsapi.UserProfile{
		TgID:       req.TgID,
		Categories: req.Categories,
		FullName:   req.FullName,
		Email:      req.Email,
		CreatedAt:  "2025-01-01T00:00:00",
	}
	writeJSON(w, newsapi.SaveUserResponse{
		Success:         true,
		CategoriesCount: len(req.Categories),
		Categories:      req.Categories,
		FullName:        req.FullName,
		Email:           req.Email,
	})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var req newsapi.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"detail":"invalid body"}`, http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(r)

	id, _ := strconv.ParseInt(r.URL.Query().Get("tg_id"), 10, 64)
	u, ok := s.users[id]
	if !ok {
		writeJSON(w, newsapi.UpdateUserResponse{Success: false, Error: "User not found"})
		return
	}

	resp := newsapi.UpdateUserResponse{Success: true}
	if req.Categories != nil {
		u.Categories = req.Categories
		resp.UpdatedFields.CategoriesUpdated = true
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
		resp.UpdatedFields.FullNameUpdated = true
	}
	if req.Email != nil {
		u.Email = req.Email
		resp.UpdatedFields.EmailUpdated = true
	}
	resp.User = &newsapi.UserProfile{Categories: u.Categories, FullName: u.FullName, Email: u.Email}
	writeJSON(w, resp)
}

func (s *Server) createSupport(w http.ResponseWriter, r *http.Request) {
	var req newsapi.SupportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"detail":"invalid body"}`, http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(r)

	s.support = append(s.support, req)
	writeJSON(w, newsapi.SupportResponse{
		Success:   true,
		RequestID: int64(len(s.support)),
		Message:   "Обращение отправлено в поддержку",
	})
}

func (s *Server) listNews(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count(r)

	category := r.URL.Query().Get("type")
	items := s.news[category]
	if items == nil {
		items = []newsapi.NewsItem{}
	}
	writeJSON(w, newsapi.NewsFeed{Channel: category, Count: len(items), Items: items})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
