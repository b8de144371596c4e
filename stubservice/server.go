// Package stubservice is a small stand-in for the application under test and its backing store.
// It implements just enough of both for the contract tests to run against it: the spaces "get"
// endpoint with its authorization rules, and the document and security APIs that the fixtures
// package uses to load archives.
package stubservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultVersion = "0.0.0-stub"

type Config struct {
	// SecurityEnabled turns on authentication and authorization. When it is off, every request
	// is allowed and credentials are ignored.
	SecurityEnabled   bool
	SuperuserName     string
	SuperuserPassword string
	Version           string
	// RequestLogger, if not nil, receives one line per request.
	RequestLogger *log.Logger
}

// Server holds the stub's dependencies and HTTP router.
type Server struct {
	store  *Store
	config Config
	Router chi.Router
}

// New creates a Server with a fully configured chi router.
func New(store *Store, cfg Config) *Server {
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	s := &Server{store: store, config: cfg}

	r := chi.NewRouter()
	if cfg.RequestLogger != nil {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: cfg.RequestLogger, NoColor: true}))
	}
	r.Use(middleware.Recoverer)

	r.Get("/api/status", s.getStatus)
	r.Get("/api/spaces/space/{id}", s.getSpace)
	r.Get("/s/{spaceContext}/api/spaces/space/{id}", s.getSpace)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSuperuser)

		r.Put("/_security/role/{name}", s.putRole)
		r.Delete("/_security/role/{name}", s.deleteRole)
		r.Put("/_security/user/{name}", s.putUser)
		r.Delete("/_security/user/{name}", s.deleteUser)

		r.Put("/{index}", s.putIndex)
		r.Delete("/{index}", s.deleteIndex)
		r.Put("/{index}/_doc/{id}", s.putDocument)
		r.Delete("/{index}/_doc/{id}", s.deleteDocument)
	})

	s.Router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// authenticate returns the principal for the request's basic auth credentials. The second
// return value is false if there are no credentials or they are wrong.
func (s *Server) authenticate(r *http.Request) (principal, bool, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return principal{}, false, nil
	}
	if s.config.SuperuserName != "" && username == s.config.SuperuserName {
		if password != s.config.SuperuserPassword {
			return principal{}, false, nil
		}
		return principal{username: username, roles: []string{superuserRole}}, true, nil
	}
	u, err := s.store.GetUser(username)
	if errors.Is(err, ErrNotFound) {
		return principal{}, false, nil
	}
	if err != nil {
		return principal{}, false, err
	}
	if u.Password != password {
		return principal{}, false, nil
	}
	return principal{username: u.Username, roles: u.Roles}, true, nil
}

func (s *Server) requireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.SecurityEnabled {
			p, ok, err := s.authenticate(r)
			if err != nil {
				writeStoreError(w, http.StatusInternalServerError, "exception", err.Error())
				return
			}
			if !ok {
				unauthorized(w)
				return
			}
			if !contains(p.roles, superuserRole) {
				writeStoreError(w, http.StatusForbidden, "security_exception",
					fmt.Sprintf("action [%s %s] is unauthorized for user [%s]", r.Method, r.URL.Path, p.username))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Application API
// ---------------------------------------------------------------------------

type statusResponse struct {
	Name    string `json:"name"`
	Version struct {
		Number string `json:"number"`
	} `json:"version"`
	Status struct {
		Overall struct {
			State string `json:"state"`
		} `json:"overall"`
	} `json:"status"`
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	var resp statusResponse
	resp.Name = "spaces-stub"
	resp.Version.Number = s.config.Version
	resp.Status.Overall.State = "green"
	writeJSON(w, http.StatusOK, resp)
}

type spaceAttributes struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Reserved    bool   `json:"_reserved"`
}

type spaceSavedObject struct {
	Type  string           `json:"type"`
	Space *spaceAttributes `json:"space"`
}

type spaceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Reserved    bool   `json:"_reserved,omitempty"`
}

func (s *Server) getSpace(w http.ResponseWriter, r *http.Request) {
	spaceID := chi.URLParam(r, "id")

	if s.config.SecurityEnabled {
		p, ok, err := s.authenticate(r)
		if err != nil {
			writeAPIError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			unauthorized(w)
			return
		}
		d, err := authorizeGetSpace(s.store, p, spaceID)
		if err != nil {
			writeAPIError(w, http.StatusInternalServerError, err.Error())
			return
		}
		switch d {
		case rbacDenied:
			rbacForbidden(w, spaceID)
			return
		case legacyDenied:
			legacyForbidden(w, p.username)
			return
		}
	}

	source, err := s.store.GetDocument(kibanaIndex, spaceResourcePrefix+spaceID)
	if errors.Is(err, ErrNotFound) {
		notFound(w)
		return
	}
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var obj spaceSavedObject
	if err := json.Unmarshal(source, &obj); err != nil || obj.Type != "space" || obj.Space == nil {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, spaceResponse{
		ID:          spaceID,
		Name:        obj.Space.Name,
		Description: obj.Space.Description,
		Reserved:    obj.Space.Reserved,
	})
}

// ---------------------------------------------------------------------------
// Backing store API
// ---------------------------------------------------------------------------

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeStoreError(w, http.StatusBadRequest, "parse_exception", err.Error())
		return nil, false
	}
	return data, true
}

func (s *Server) putIndex(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	var mappings []byte
	if len(data) > 0 {
		var body struct {
			Mappings json.RawMessage `json:"mappings"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			writeStoreError(w, http.StatusBadRequest, "parse_exception", err.Error())
			return
		}
		mappings = body.Mappings
	}
	err := s.store.CreateIndex(index, mappings)
	if errors.Is(err, ErrAlreadyExists) {
		writeStoreError(w, http.StatusBadRequest, "resource_already_exists_exception",
			fmt.Sprintf("index [%s] already exists", index))
		return
	}
	if err != nil {
		writeStoreError(w, http.StatusInternalServerError, "exception", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": true, "index": index})
}

func (s *Server) deleteIndex(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	err := s.store.DeleteIndex(index)
	if errors.Is(err, ErrNotFound) {
		writeStoreError(w, http.StatusNotFound, "index_not_found_exception", fmt.Sprintf("no such index [%s]", index))
		return
	}
	if err != nil {
		writeStoreError(w, http.StatusInternalServerError, "exception", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": true})
}

func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	index, id := chi.URLParam(r, "index"), chi.URLParam(r, "id")
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	created, err := s.store.PutDocument(index, id, data)
	if err != nil {
		writeStoreError(w, http.StatusBadRequest, "mapper_parsing_exception", err.Error())
		return
	}
	status, result := http.StatusOK, "updated"
	if created {
		status, result = http.StatusCreated, "created"
	}
	writeJSON(w, status, map[string]interface{}{"_index": index, "_id": id, "result": result})
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	index, id := chi.URLParam(r, "index"), chi.URLParam(r, "id")
	err := s.store.DeleteDocument(index, id)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"_index": index, "_id": id, "result": "not_found"})
		return
	}
	if err != nil {
		writeStoreError(w, http.StatusInternalServerError, "exception", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"_index": index, "_id": id, "result": "deleted"})
}

func (s *Server) putRole(w http.ResponseWriter, r *http.Request) {
	var def RoleDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeStoreError(w, http.StatusBadRequest, "parse_exception", err.Error())
		return
	}
	if err := s.store.PutRole(chi.URLParam(r, "name"), def); err != nil {
		writeStoreError(w, http.StatusInternalServerError, "exception", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"role": map[string]bool{"created": true}})
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteRole(chi.URLParam(r, "name"))
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]bool{"found": false})
		return
	}
	if err != nil {
		writeStoreError(w, http.StatusInternalServerError, "exception", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"found": true})
}

func (s *Server) putUser(w http.ResponseWriter, r *http.Request) {
	var u User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeStoreError(w, http.StatusBadRequest, "parse_exception", err.Error())
		return
	}
	u.Username = chi.URLParam(r, "name")
	if u.Username == s.config.SuperuserName {
		writeStoreError(w, http.StatusBadRequest, "illegal_argument_exception",
			fmt.Sprintf("user [%s] is reserved and may not be used", u.Username))
		return
	}
	if err := s.store.PutUser(u); err != nil {
		writeStoreError(w, http.StatusInternalServerError, "exception", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"created": true})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteUser(chi.URLParam(r, "name"))
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]bool{"found": false})
		return
	}
	if err != nil {
		writeStoreError(w, http.StatusInternalServerError, "exception", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"found": true})
}
