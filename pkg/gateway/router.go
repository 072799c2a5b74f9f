package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/webdav"

	"github.com/marmos91/dittodav/internal/logger"
	"github.com/marmos91/dittodav/pkg/audit"
	"github.com/marmos91/dittodav/pkg/auth"
	"github.com/marmos91/dittodav/pkg/compat"
	gwmiddleware "github.com/marmos91/dittodav/pkg/gateway/middleware"
	"github.com/marmos91/dittodav/pkg/mount"
)

// webdavMethods are the methods chi must know to route WebDAV requests.
var webdavMethods = []string{"PROPFIND", "PROPPATCH", "MKCOL", "COPY", "MOVE", "LOCK", "UNLOCK"}

func init() {
	for _, m := range webdavMethods {
		chi.RegisterMethod(m)
	}
}

// UserResolver is the credential cache as seen by the gateway.
type UserResolver interface {
	ResolveByName(ctx context.Context, name string) (*auth.User, error)
	ResolveByNameAndPassword(ctx context.Context, name, password string) (*auth.User, error)
}

// Deps are the collaborators the router wires together.
type Deps struct {
	Users      UserResolver
	Mounts     *mount.Table
	Shim       *compat.Shim
	Auditor    *audit.Auditor
	Correlator *gwmiddleware.Correlator
	Locks      webdav.LockSystem
}

// NewRouter builds the request pipeline:
//
//	correlator -> request log -> recoverer -> shim -> audit -> basic auth -> webdav
//
// The mount namespace is served at cfg.Root, everything below it, and under
// /remote.php/dav/files/{user}. Anything else is 404.
func NewRouter(cfg Config, deps Deps) http.Handler {
	if deps.Correlator == nil {
		deps.Correlator = gwmiddleware.NewCorrelator()
	}
	if deps.Locks == nil {
		deps.Locks = webdav.NewMemLS()
	}

	r := chi.NewRouter()

	r.Use(deps.Correlator.Middleware)
	r.Use(gwmiddleware.RequestLog)
	r.Use(middleware.Recoverer)
	if deps.Shim != nil {
		r.Use(deps.Shim.Middleware)
	}
	if deps.Auditor != nil {
		r.Use(deps.Auditor.Middleware)
	}

	d := &dispatcher{fs: deps.Mounts, locks: deps.Locks, users: deps.Users}
	root := strings.TrimRight(cfg.Root, "/")

	r.Group(func(r chi.Router) {
		r.Use(gwmiddleware.BasicAuth(cfg.Realm, deps.Users))

		rootHandler := d.handler(root)
		if root != "" {
			r.Handle(root, rootHandler)
		}
		r.Handle(root+"/*", rootHandler)

		r.Handle(FilesPrefix+"/{user}", http.HandlerFunc(d.serveFiles))
		r.Handle(FilesPrefix+"/{user}/*", http.HandlerFunc(d.serveFiles))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		logger.DebugCtx(r.Context(), "No route")
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	return r
}

// dispatcher hands authenticated requests to the WebDAV engine.
type dispatcher struct {
	fs    webdav.FileSystem
	locks webdav.LockSystem
	users UserResolver
}

func (d *dispatcher) handler(prefix string) http.Handler {
	h := &webdav.Handler{
		Prefix:     prefix,
		FileSystem: d.fs,
		LockSystem: d.locks,
		Logger:     logWebDAVError,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.serve(w, r, h)
	})
}

// serveFiles serves /remote.php/dav/files/{user}/... with a per-request
// prefix. A path naming a different cached user is forbidden.
func (d *dispatcher) serveFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pathUser := chi.URLParam(r, "user")
	if decoded, err := url.PathUnescape(pathUser); err == nil {
		pathUser = decoded
	}

	authed := gwmiddleware.UserFromContext(ctx)
	if authed != nil && pathUser != authed.Name {
		if _, err := d.users.ResolveByName(ctx, pathUser); err == nil {
			logger.WarnCtx(ctx, "Refusing access to another user's files", "path_user", pathUser)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
	}

	h := &webdav.Handler{
		Prefix:     FilesPrefix + "/" + pathUser,
		FileSystem: d.fs,
		LockSystem: d.locks,
		Logger:     logWebDAVError,
	}
	d.serve(w, r, h)
}

func (d *dispatcher) serve(w http.ResponseWriter, r *http.Request, h *webdav.Handler) {
	dispatched := strings.TrimPrefix(r.URL.Path, h.Prefix)
	if dispatched == "" {
		dispatched = "/"
	}

	ctx := r.Context()
	if info := gwmiddleware.InfoFromContext(ctx); info != nil {
		info.SetDispatchedPath(dispatched)
	}
	if lc := logger.FromContext(ctx); lc != nil {
		first, _, _ := strings.Cut(strings.TrimPrefix(dispatched, "/"), "/")
		ctx = logger.WithContext(ctx, lc.WithRoot(first))
		r = r.WithContext(ctx)
	}

	h.ServeHTTP(w, r)
}

func logWebDAVError(r *http.Request, err error) {
	if err != nil {
		logger.DebugCtx(r.Context(), "WebDAV request failed", logger.Err(err))
	}
}
