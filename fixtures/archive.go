package fixtures

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"
)

const archiveFileName = "data.yaml"

//go:embed archives
var builtinArchives embed.FS

// BuiltinArchives returns the archives that are compiled into the test harness. They can be
// overridden with a directory on disk that has the same layout.
func BuiltinArchives() fs.FS {
	sub, err := fs.Sub(builtinArchives, "archives")
	if err != nil {
		panic(err) // can only happen if the embed directive is wrong
	}
	return sub
}

// Archive is a named dataset that can be loaded into the backing store and later removed.
type Archive struct {
	Description string            `yaml:"description"`
	Indices     []IndexDefinition `yaml:"indices"`
	Documents   []Document        `yaml:"documents"`
	Roles       []Role            `yaml:"roles"`
	Users       []User            `yaml:"users"`
}

// IndexDefinition is an index that the archive owns. Unloading the archive deletes the index
// along with any documents in it.
type IndexDefinition struct {
	Name     string                 `yaml:"name"`
	Mappings map[string]interface{} `yaml:"mappings"`
}

type Document struct {
	Index  string                 `yaml:"index"`
	ID     string                 `yaml:"id"`
	Source map[string]interface{} `yaml:"source"`
}

// Role is a security role. Definition is sent to the backing store as-is.
type Role struct {
	Name       string                 `yaml:"name"`
	Definition map[string]interface{} `yaml:"definition"`
}

type User struct {
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
	FullName string   `yaml:"full_name"`
}

// ReadArchive parses the archive with the given name, such as "saved_objects/spaces", from fsys.
func ReadArchive(fsys fs.FS, name string) (Archive, error) {
	data, err := fs.ReadFile(fsys, path.Join(name, archiveFileName))
	if err != nil {
		return Archive{}, fmt.Errorf("reading archive %q: %w", name, err)
	}
	var a Archive
	if err := yaml.Unmarshal(data, &a); err != nil {
		return Archive{}, fmt.Errorf("parsing archive %q: %w", name, err)
	}
	if err := a.validate(); err != nil {
		return Archive{}, fmt.Errorf("invalid archive %q: %w", name, err)
	}
	return a, nil
}

func (a Archive) validate() error {
	for i, idx := range a.Indices {
		if idx.Name == "" {
			return fmt.Errorf("index %d has no name", i)
		}
	}
	for i, d := range a.Documents {
		if d.Index == "" || d.ID == "" {
			return fmt.Errorf("document %d must have both index and id", i)
		}
	}
	for i, r := range a.Roles {
		if r.Name == "" {
			return fmt.Errorf("role %d has no name", i)
		}
	}
	for i, u := range a.Users {
		if u.Username == "" {
			return fmt.Errorf("user %d has no username", i)
		}
	}
	return nil
}

func (a Archive) ownsIndex(name string) bool {
	for _, idx := range a.Indices {
		if idx.Name == name {
			return true
		}
	}
	return false
}
