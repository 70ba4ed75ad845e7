// Package tumblrtest provides an in-process stand-in for the Tumblr API and
// photo CDN for use in tests.
package tumblrtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Post is the minimal post shape the fake API serves
type Post struct {
	ID        int64
	Blog      string
	Timestamp int64
	Type      string
	// Photos holds image paths served by the same server, e.g. "/media/1_a.jpg"
	Photos []string
}

// Server is a fake Tumblr API plus media host
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	posts       []Post
	media       map[string][]byte
	failMedia   map[string]int
	pageStatus  []int
	pageCalls   int
	deleted     []string
	rejectIDs   map[string]bool
	pageOffsets []int
}

// NewServer serves posts (newest first) and the given media bodies keyed by path
func NewServer(posts []Post, media map[string][]byte) *Server {
	s := &Server{
		posts:     posts,
		media:     media,
		failMedia: make(map[string]int),
		rejectIDs: make(map[string]bool),
	}
	if s.media == nil {
		s.media = make(map[string][]byte)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/blog/", s.handleBlog)
	mux.HandleFunc("/media/", s.handleMedia)
	s.Server = httptest.NewServer(mux)
	return s
}

// APIBaseURL is the value to use for the client's base URL
func (s *Server) APIBaseURL() string {
	return s.URL + "/v2"
}

// MediaURL returns the absolute URL of a media path
func (s *Server) MediaURL(path string) string {
	return s.URL + path
}

// FailMedia makes path answer with status instead of its body
func (s *Server) FailMedia(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failMedia[path] = status
}

// FailPages makes successive listing requests answer with these statuses
// before serving normally
func (s *Server) FailPages(statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageStatus = append(s.pageStatus, statuses...)
}

// RejectDelete makes deleting id fail with a 400 API error
func (s *Server) RejectDelete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectIDs[id] = true
}

// Deleted returns the IDs deleted so far
func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// PageCalls returns how many listing requests were served
func (s *Server) PageCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageCalls
}

// PageOffsets returns the offset of every listing request served
func (s *Server) PageOffsets() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.pageOffsets...)
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	// /v2/blog/{blog}/posts[/{type}] or /v2/blog/{blog}/post/delete
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v2/blog/"), "/")
	switch {
	case len(parts) >= 2 && parts[1] == "posts" && r.Method == http.MethodGet:
		postType := ""
		if len(parts) >= 3 {
			postType = parts[2]
		}
		s.handlePosts(w, r, parts[0], postType)
	case len(parts) == 3 && parts[1] == "post" && parts[2] == "delete" && r.Method == http.MethodPost:
		s.handleDelete(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not Found", 0)
	}
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request, blog, postType string) {
	s.mu.Lock()
	s.pageCalls++
	if len(s.pageStatus) > 0 {
		status := s.pageStatus[0]
		s.pageStatus = s.pageStatus[1:]
		s.mu.Unlock()
		writeError(w, status, http.StatusText(status), 0)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	s.pageOffsets = append(s.pageOffsets, offset)

	var matching []Post
	for _, p := range s.posts {
		if postType != "" && p.Type != "" && p.Type != postType {
			continue
		}
		matching = append(matching, p)
	}
	s.mu.Unlock()

	total := len(matching)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	host := "http://" + r.Host
	posts := make([]map[string]interface{}, 0, end-offset)
	for _, p := range matching[offset:end] {
		photos := make([]map[string]interface{}, 0, len(p.Photos))
		for _, path := range p.Photos {
			if path == "" {
				photos = append(photos, map[string]interface{}{"alt_sizes": []interface{}{}})
				continue
			}
			photos = append(photos, map[string]interface{}{
				"original_size": map[string]interface{}{"url": host + path, "width": 1280, "height": 960},
				"alt_sizes": []interface{}{
					map[string]interface{}{"url": host + path + "?w=500", "width": 500, "height": 375},
				},
			})
		}
		blogName := p.Blog
		if blogName == "" {
			blogName = strings.TrimSuffix(blog, ".tumblr.com")
		}
		postType := p.Type
		if postType == "" {
			postType = "photo"
		}
		posts = append(posts, map[string]interface{}{
			"id":        p.ID,
			"id_string": strconv.FormatInt(p.ID, 10),
			"blog_name": blogName,
			"type":      postType,
			"timestamp": p.Timestamp,
			"photos":    photos,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"meta":     map[string]interface{}{"status": 200, "msg": "OK"},
		"response": map[string]interface{}{"posts": posts, "total_posts": total},
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", 0)
		return
	}
	id := r.PostForm.Get("id")

	s.mu.Lock()
	rejected := s.rejectIDs[id]
	if !rejected {
		s.deleted = append(s.deleted, id)
	}
	s.mu.Unlock()

	if rejected {
		writeError(w, http.StatusBadRequest, "Bad Request", 8001)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"meta":     map[string]interface{}{"status": 200, "msg": "OK"},
		"response": map[string]interface{}{"id": json.Number(id), "id_string": id},
	})
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status, failing := s.failMedia[r.URL.Path]
	body, ok := s.media[r.URL.Path]
	s.mu.Unlock()

	if failing {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !ok {
		body = []byte(fmt.Sprintf("image bytes for %s", r.URL.Path))
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string, code int) {
	errors := []interface{}{}
	if code != 0 {
		errors = append(errors, map[string]interface{}{"title": msg, "code": code, "detail": "Unable to delete post."})
	}
	writeJSON(w, status, map[string]interface{}{
		"meta":     map[string]interface{}{"status": status, "msg": msg},
		"response": []interface{}{},
		"errors":   errors,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
