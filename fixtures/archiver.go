// Package fixtures loads and unloads named datasets ("archives") in the backing store of the
// application under test, so that each group of tests starts from a known state.
package fixtures

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/launchdarkly/spaces-contract-tests/framework"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-multierror"
)

const alreadyExistsErrorType = "resource_already_exists_exception"

// Archiver loads archives from a file system into a backing store that speaks the document and
// security APIs of a search engine.
type Archiver struct {
	client   *resty.Client
	archives fs.FS
	logger   framework.Logger
}

// Option is an optional setting for NewArchiver.
type Option func(*Archiver)

// WithCredentials sets the basic auth credentials for talking to the backing store. These are
// normally the superuser's, since archives can create users and roles.
func WithCredentials(username, password string) Option {
	return func(a *Archiver) {
		if username != "" {
			a.client.SetBasicAuth(username, password)
		}
	}
}

// WithHTTPClient makes the archiver use a specific *http.Client, such as the one belonging to an
// httptest.Server.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *Archiver) {
		a.client.SetTransport(hc.Transport)
	}
}

func WithLogger(logger framework.Logger) Option {
	return func(a *Archiver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewArchiver creates an Archiver for the backing store at storeURL, reading archives from
// archives (see BuiltinArchives).
func NewArchiver(storeURL string, archives fs.FS, opts ...Option) *Archiver {
	a := &Archiver{
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(storeURL, "/")).
			SetHeader("Content-Type", "application/json"),
		archives: archives,
		logger:   framework.NullLogger(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Load creates everything in the named archive. It stops at the first error; whatever was
// created before that can be removed with Unload.
func (a *Archiver) Load(ctx context.Context, name string) error {
	archive, err := ReadArchive(a.archives, name)
	if err != nil {
		return err
	}
	a.logger.Printf("Loading archive %q (%d indices, %d documents, %d roles, %d users)",
		name, len(archive.Indices), len(archive.Documents), len(archive.Roles), len(archive.Users))

	for _, idx := range archive.Indices {
		if err := a.createIndex(ctx, idx); err != nil {
			return fmt.Errorf("loading archive %q: %w", name, err)
		}
	}
	for _, doc := range archive.Documents {
		resp, err := a.client.R().
			SetContext(ctx).
			SetPathParams(map[string]string{"index": doc.Index, "id": doc.ID}).
			SetQueryParam("refresh", "wait_for").
			SetBody(doc.Source).
			Put("/{index}/_doc/{id}")
		if err := checkResponse(resp, err, "indexing document %s/%s", doc.Index, doc.ID); err != nil {
			return fmt.Errorf("loading archive %q: %w", name, err)
		}
	}
	for _, role := range archive.Roles {
		resp, err := a.client.R().
			SetContext(ctx).
			SetPathParam("name", role.Name).
			SetBody(role.Definition).
			Put("/_security/role/{name}")
		if err := checkResponse(resp, err, "creating role %s", role.Name); err != nil {
			return fmt.Errorf("loading archive %q: %w", name, err)
		}
	}
	for _, user := range archive.Users {
		roles := user.Roles
		if roles == nil {
			roles = []string{}
		}
		resp, err := a.client.R().
			SetContext(ctx).
			SetPathParam("name", user.Username).
			SetBody(map[string]interface{}{
				"password":  user.Password,
				"roles":     roles,
				"full_name": user.FullName,
			}).
			Put("/_security/user/{name}")
		if err := checkResponse(resp, err, "creating user %s", user.Username); err != nil {
			return fmt.Errorf("loading archive %q: %w", name, err)
		}
	}
	return nil
}

func (a *Archiver) createIndex(ctx context.Context, idx IndexDefinition) error {
	r := a.client.R().
		SetContext(ctx).
		SetPathParam("index", idx.Name)
	if idx.Mappings != nil {
		r.SetBody(map[string]interface{}{"mappings": idx.Mappings})
	}
	resp, err := r.Put("/{index}")
	if err == nil && resp.StatusCode() == http.StatusBadRequest &&
		strings.Contains(string(resp.Body()), alreadyExistsErrorType) {
		a.logger.Printf("Index %s already exists", idx.Name)
		return nil
	}
	return checkResponse(resp, err, "creating index %s", idx.Name)
}

// Unload removes everything in the named archive: users, then roles, then documents that live
// in indices the archive does not own, then the indices it does own. Every step is attempted
// even if an earlier one failed; things that are already gone are not errors.
func (a *Archiver) Unload(ctx context.Context, name string) error {
	archive, err := ReadArchive(a.archives, name)
	if err != nil {
		return err
	}
	a.logger.Printf("Unloading archive %q", name)

	var result *multierror.Error
	for _, user := range archive.Users {
		resp, err := a.client.R().SetContext(ctx).SetPathParam("name", user.Username).Delete("/_security/user/{name}")
		result = multierror.Append(result, checkDeleteResponse(resp, err, "deleting user %s", user.Username))
	}
	for _, role := range archive.Roles {
		resp, err := a.client.R().SetContext(ctx).SetPathParam("name", role.Name).Delete("/_security/role/{name}")
		result = multierror.Append(result, checkDeleteResponse(resp, err, "deleting role %s", role.Name))
	}
	for _, doc := range archive.Documents {
		if archive.ownsIndex(doc.Index) {
			continue
		}
		resp, err := a.client.R().
			SetContext(ctx).
			SetPathParams(map[string]string{"index": doc.Index, "id": doc.ID}).
			SetQueryParam("refresh", "wait_for").
			Delete("/{index}/_doc/{id}")
		result = multierror.Append(result, checkDeleteResponse(resp, err, "deleting document %s/%s", doc.Index, doc.ID))
	}
	for _, idx := range archive.Indices {
		resp, err := a.client.R().SetContext(ctx).SetPathParam("index", idx.Name).Delete("/{index}")
		result = multierror.Append(result, checkDeleteResponse(resp, err, "deleting index %s", idx.Name))
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("unloading archive %q: %w", name, err)
	}
	return nil
}

func checkResponse(resp *resty.Response, err error, format string, args ...interface{}) error {
	action := fmt.Sprintf(format, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: backing store returned HTTP %d: %s", action, resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

func checkDeleteResponse(resp *resty.Response, err error, format string, args ...interface{}) error {
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return nil
	}
	return checkResponse(resp, err, format, args...)
}
