package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/dittodav/pkg/auth"
)

// UserCache is the slice of the credential provider the admin API drives.
type UserCache interface {
	ListUsers() []*auth.User
	Invalidate(name string) bool
	InvalidateAll() int
	Stats() auth.Stats
}

// UserView is the public projection of a cached user. Digests and tokens
// never leave the process.
type UserView struct {
	Name            string    `json:"name"`
	ID              string    `json:"id"`
	Roles           []string  `json:"roles"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
}

// EvictResponse reports how many cache entries an eviction removed.
type EvictResponse struct {
	Evicted int `json:"evicted"`
}

// UserHandler serves /api/v1/users and /api/v1/stats.
type UserHandler struct {
	cache UserCache
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(cache UserCache) *UserHandler {
	return &UserHandler{cache: cache}
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users := h.cache.ListUsers()
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		roles := u.Roles
		if roles == nil {
			roles = []string{}
		}
		views = append(views, UserView{
			Name:            u.Name,
			ID:              u.ID,
			Roles:           roles,
			AuthenticatedAt: u.AuthenticatedAt,
		})
	}
	writeJSON(w, http.StatusOK, okResponse(views))
}

// Evict handles DELETE /api/v1/users/{name}.
func (h *UserHandler) Evict(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.cache.Invalidate(name) {
		NotFound(w, "user not cached")
		return
	}
	writeJSON(w, http.StatusOK, okResponse(EvictResponse{Evicted: 1}))
}

// EvictAll handles DELETE /api/v1/users.
func (h *UserHandler) EvictAll(w http.ResponseWriter, r *http.Request) {
	n := h.cache.InvalidateAll()
	writeJSON(w, http.StatusOK, okResponse(EvictResponse{Evicted: n}))
}

// Stats handles GET /api/v1/stats.
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse(h.cache.Stats()))
}
