package stubservice

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS indices (
    name TEXT PRIMARY KEY,
    mappings TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS documents (
    index_name TEXT NOT NULL,
    id TEXT NOT NULL,
    source TEXT NOT NULL,
    PRIMARY KEY (index_name, id)
);

CREATE TABLE IF NOT EXISTS roles (
    name TEXT PRIMARY KEY,
    definition TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    username TEXT PRIMARY KEY,
    password TEXT NOT NULL,
    roles TEXT NOT NULL DEFAULT '[]',
    full_name TEXT NOT NULL DEFAULT ''
);
`

// RoleDefinition is the subset of a security role that the stub understands.
type RoleDefinition struct {
	Indices      []IndexPrivileges       `json:"indices,omitempty"`
	Applications []ApplicationPrivileges `json:"applications,omitempty"`
}

type IndexPrivileges struct {
	Names      []string `json:"names"`
	Privileges []string `json:"privileges"`
}

type ApplicationPrivileges struct {
	Application string   `json:"application"`
	Privileges  []string `json:"privileges"`
	Resources   []string `json:"resources"`
}

type User struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
	FullName string   `json:"full_name"`
}

// Store keeps indices, documents, roles and users in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) a store at dsn. An empty dsn or ":memory:" gives a private
// in-memory database.
func OpenStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = ":memory:"
	} else if dsn != ":memory:" && !strings.Contains(dsn, "_pragma") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to ":memory:" is a separate database, so there must only ever be one.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Indices and documents
// ---------------------------------------------------------------------------

func (s *Store) CreateIndex(name string, mappings []byte) error {
	if len(mappings) == 0 {
		mappings = []byte("{}")
	}
	res, err := s.db.Exec(`INSERT OR IGNORE INTO indices (name, mappings) VALUES (?, ?)`, name, string(mappings))
	if err != nil {
		return fmt.Errorf("insert index: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// DeleteIndex deletes an index and all of its documents.
func (s *Store) DeleteIndex(name string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.Exec(`DELETE FROM indices WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE index_name = ?`, name); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return tx.Commit()
}

// PutDocument creates or replaces a document, creating its index if necessary. It reports
// whether the document is new.
func (s *Store) PutDocument(index, id string, source []byte) (bool, error) {
	if !json.Valid(source) {
		return false, fmt.Errorf("document source is not valid JSON")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`INSERT OR IGNORE INTO indices (name) VALUES (?)`, index); err != nil {
		return false, fmt.Errorf("insert index: %w", err)
	}
	var existing int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM documents WHERE index_name = ? AND id = ?`, index, id).Scan(&existing); err != nil {
		return false, fmt.Errorf("count documents: %w", err)
	}
	if _, err := tx.Exec(`
		INSERT INTO documents (index_name, id, source) VALUES (?, ?, ?)
		ON CONFLICT (index_name, id) DO UPDATE SET source = excluded.source`,
		index, id, string(source),
	); err != nil {
		return false, fmt.Errorf("upsert document: %w", err)
	}
	return existing == 0, tx.Commit()
}

func (s *Store) GetDocument(index, id string) ([]byte, error) {
	var source string
	err := s.db.QueryRow(`SELECT source FROM documents WHERE index_name = ? AND id = ?`, index, id).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return []byte(source), nil
}

func (s *Store) DeleteDocument(index, id string) error {
	res, err := s.db.Exec(`DELETE FROM documents WHERE index_name = ? AND id = ?`, index, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Roles and users
// ---------------------------------------------------------------------------

func (s *Store) PutRole(name string, def RoleDefinition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal role: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO roles (name, definition) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET definition = excluded.definition`,
		name, string(data),
	)
	if err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}
	return nil
}

// GetRole returns ErrNotFound if there is no such role.
func (s *Store) GetRole(name string) (RoleDefinition, error) {
	var data string
	err := s.db.QueryRow(`SELECT definition FROM roles WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return RoleDefinition{}, ErrNotFound
	}
	if err != nil {
		return RoleDefinition{}, fmt.Errorf("get role: %w", err)
	}
	var def RoleDefinition
	if err := json.Unmarshal([]byte(data), &def); err != nil {
		return RoleDefinition{}, fmt.Errorf("unmarshal role %s: %w", name, err)
	}
	return def, nil
}

func (s *Store) DeleteRole(name string) error {
	res, err := s.db.Exec(`DELETE FROM roles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) PutUser(u User) error {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO users (username, password, roles, full_name) VALUES (?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			password = excluded.password, roles = excluded.roles, full_name = excluded.full_name`,
		u.Username, u.Password, string(rolesJSON), u.FullName,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(username string) (User, error) {
	var u User
	var rolesJSON string
	err := s.db.QueryRow(`SELECT username, password, roles, full_name FROM users WHERE username = ?`, username).
		Scan(&u.Username, &u.Password, &rolesJSON, &u.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if err := json.Unmarshal([]byte(rolesJSON), &u.Roles); err != nil {
		return User{}, fmt.Errorf("unmarshal roles of %s: %w", username, err)
	}
	return u, nil
}

func (s *Store) DeleteUser(username string) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
