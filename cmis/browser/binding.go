// Package browser implements the protocol invocation layer over the
// JSON-tree envelope: URL construction per operation, repository discovery
// and URL caching, succinct and date-time-format negotiation, and mapping of
// failure responses into the typed error taxonomy.
package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/cmiserr"
	"github.com/content-interop/cmis-go/cmis/jsoncodec"
	"github.com/content-interop/cmis-go/cmis/model"
	"github.com/content-interop/cmis-go/cmis/typecache"
	platformhttp "github.com/content-interop/cmis-go/internal/platform/http/client"
	"github.com/content-interop/cmis-go/internal/platform/logutil"
)

// Transport performs one HTTP exchange. The default is the bounded platform
// client; tests and callers with their own stack substitute their own.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configure a binding session.
type Options struct {
	// ServiceURL is the well-known service document endpoint.
	ServiceURL string

	// Transport is the HTTP collaborator. Nil selects the bounded default.
	Transport Transport

	// TypeCache is the externally owned long-lived type-definition cache.
	// Nil means every call resolves types against its per-call memo only.
	TypeCache typecache.Store

	// Succinct asks servers for succinct property bags.
	Succinct bool

	// DateTimeFormat negotiates the date-time wire form.
	DateTimeFormat cmis.DateTimeFormat

	// Version guards encoding of 1.1-only content.
	Version cmis.Version

	// Username and Password enable basic authentication when set.
	Username string
	Password string

	Logger *slog.Logger
}

// Binding is one session against a browser-binding endpoint. Safe for
// concurrent use; the repository URL cache is the only shared mutable state
// it owns.
type Binding struct {
	serviceURL string
	transport  Transport
	types      typecache.Store
	succinct   bool
	dtFormat   cmis.DateTimeFormat
	username   string
	password   string
	logger     *slog.Logger
	codec      jsoncodec.Codec

	urls      *repositoryURLCache
	discovery singleflight.Group
}

// New creates a binding session.
func New(opts Options) (*Binding, error) {
	if opts.ServiceURL == "" {
		return nil, fmt.Errorf("service URL is required")
	}
	transport := opts.Transport
	if transport == nil {
		transport = platformhttp.New(platformhttp.Options{})
	}
	logger := logutil.NoopIfNil(opts.Logger)
	return &Binding{
		serviceURL: strings.TrimSuffix(opts.ServiceURL, "/"),
		transport:  transport,
		types:      opts.TypeCache,
		succinct:   opts.Succinct,
		dtFormat:   opts.DateTimeFormat,
		username:   opts.Username,
		password:   opts.Password,
		logger:     logger,
		codec: jsoncodec.Codec{
			DateTimeFormat: opts.DateTimeFormat,
			Version:        opts.Version,
			Logger:         logger,
		},
		urls: newRepositoryURLCache(),
	}, nil
}

// RemoveRepository drops the cached base URLs for a repository, forcing
// rediscovery on next use.
func (b *Binding) RemoveRepository(repositoryID string) {
	b.urls.remove(repositoryID)
}

// URL resolution. A cache miss means "repository set not yet loaded": run
// one discovery fetch (deduplicated across concurrent callers), retry the
// lookup once, and treat a second miss as an unknown repository.

func (b *Binding) repositoryBuilder(ctx context.Context, repositoryID, selector string) (*urlBuilder, error) {
	return b.resolve(ctx, repositoryID, func() (*urlBuilder, bool) {
		return b.urls.repositoryURL(repositoryID, selector)
	})
}

func (b *Binding) objectBuilder(ctx context.Context, repositoryID, objectID, selector string) (*urlBuilder, error) {
	return b.resolve(ctx, repositoryID, func() (*urlBuilder, bool) {
		return b.urls.objectURL(repositoryID, objectID, selector)
	})
}

func (b *Binding) pathBuilder(ctx context.Context, repositoryID, path, selector string) (*urlBuilder, error) {
	return b.resolve(ctx, repositoryID, func() (*urlBuilder, bool) {
		return b.urls.pathURL(repositoryID, path, selector)
	})
}

func (b *Binding) resolve(ctx context.Context, repositoryID string, lookup func() (*urlBuilder, bool)) (*urlBuilder, error) {
	if ub, ok := lookup(); ok {
		return ub, nil
	}
	if _, err := b.discoverRepositories(ctx); err != nil {
		return nil, err
	}
	if ub, ok := lookup(); ok {
		return ub, nil
	}
	return nil, cmiserr.New(cmiserr.KindObjectNotFound,
		fmt.Sprintf("unknown repository %q", repositoryID))
}

// discoverRepositories fetches the service document and populates the URL
// cache for every repository it lists. Concurrent callers share one fetch.
func (b *Binding) discoverRepositories(ctx context.Context) ([]*jsoncodec.RepositoryEntry, error) {
	v, err, _ := b.discovery.Do("service", func() (any, error) {
		data, err := b.get(ctx, newURLBuilder(b.serviceURL))
		if err != nil {
			return nil, err
		}
		entries, err := b.codec.DecodeServiceDocument(data)
		if err != nil {
			return nil, cmiserr.Connection("malformed service document", err)
		}
		for _, e := range entries {
			if e.RepositoryURL == "" || e.RootFolderURL == "" {
				b.logger.Warn("service document entry without base urls, skipping",
					"repository", e.Info.ID)
				continue
			}
			if err := b.urls.put(e.Info.ID, e.RepositoryURL, e.RootFolderURL); err != nil {
				return nil, err
			}
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*jsoncodec.RepositoryEntry), nil
}

// HTTP plumbing. Transport failures and redirect statuses surface as
// Connection errors; other non-success statuses go through the taxonomy
// mapper with the response body.

// bodyReader is the optional transport facet that bounds buffered response
// bodies. The default platform client implements it; transports that don't
// are read uncapped.
type bodyReader interface {
	ReadAll(body io.ReadCloser) ([]byte, error)
}

func (b *Binding) readBody(body io.ReadCloser) ([]byte, error) {
	if br, ok := b.transport.(bodyReader); ok {
		return br.ReadAll(body)
	}
	return io.ReadAll(body)
}

func (b *Binding) newRequest(ctx context.Context, method, urlStr string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, cmiserr.Connection("invalid request URL", err)
	}
	if b.username != "" {
		req.SetBasicAuth(b.username, b.password)
	}
	return req, nil
}

// get issues a GET and returns the body of a 200 response.
func (b *Binding) get(ctx context.Context, ub *urlBuilder) ([]byte, error) {
	req, err := b.newRequest(ctx, http.MethodGet, ub.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.transport.Do(req)
	if err != nil {
		return nil, cmiserr.Connection("request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, b.mapFailure(resp)
	}
	data, err := b.readBody(resp.Body)
	if err != nil {
		return nil, cmiserr.Connection("reading response failed", err)
	}
	return data, nil
}

// postForm issues a form-encoded action POST. 200 and 201 are success; the
// body may be empty for operations with no result document.
func (b *Binding) postForm(ctx context.Context, ub *urlBuilder, form url.Values) ([]byte, error) {
	req, err := b.newRequest(ctx, http.MethodPost, ub.String(),
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	return b.doPost(req)
}

// postMultipart issues an action POST carrying a content stream. Form
// fields precede the content part; the content streams through a pipe so it
// is never fully buffered.
func (b *Binding) postMultipart(ctx context.Context, ub *urlBuilder, form url.Values, content *model.ContentStream) ([]byte, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		var werr error
		defer func() { pw.CloseWithError(werr) }()
		// The action control leads so servers can dispatch before buffering
		// the rest of the body.
		if v := form.Get(cmis.ParamAction); v != "" {
			if werr = mw.WriteField(cmis.ParamAction, v); werr != nil {
				return
			}
		}
		for name, values := range form {
			if name == cmis.ParamAction {
				continue
			}
			for _, v := range values {
				if werr = mw.WriteField(name, v); werr != nil {
					return
				}
			}
		}
		// A filename-less part parses as a plain form value, not a file, and
		// the bytes would be dropped.
		filename := content.Filename
		if filename == "" {
			filename = "content"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="content"; filename="`+escapeQuotes(filename)+`"`)
		mime := content.MimeType
		if mime == "" {
			mime = "application/octet-stream"
		}
		h.Set("Content-Type", mime)
		part, err := mw.CreatePart(h)
		if err != nil {
			werr = err
			return
		}
		if _, werr = io.Copy(part, content.Reader); werr != nil {
			return
		}
		werr = mw.Close()
	}()

	req, err := b.newRequest(ctx, http.MethodPost, ub.String(), pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.doPost(req)
}

func (b *Binding) doPost(req *http.Request) ([]byte, error) {
	resp, err := b.transport.Do(req)
	if err != nil {
		return nil, cmiserr.Connection("request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, b.mapFailure(resp)
	}
	data, err := b.readBody(resp.Body)
	if err != nil {
		return nil, cmiserr.Connection("reading response failed", err)
	}
	return data, nil
}

func (b *Binding) mapFailure(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		body = nil
	}
	return cmiserr.Map(resp.StatusCode, resp.Status, body)
}

// Form assembly. Every action form carries the action name plus the
// session's succinct and date-time-format negotiation, so result documents
// come back in the shape this session decodes.

func (b *Binding) actionForm(action string) url.Values {
	form := url.Values{}
	form.Set(cmis.ParamAction, action)
	if b.succinct {
		form.Set(cmis.ParamSuccinct, "true")
	}
	if b.dtFormat != "" {
		form.Set(cmis.ParamDateTimeFormat, string(b.dtFormat))
	}
	return form
}

// addProperties writes a property bag as indexed form controls:
// propertyId[i] plus propertyValue[i] (single value) or propertyValue[i][j]
// (multi value). A property with nil values emits only its id, the wire
// form of "unset this property".
func (b *Binding) addProperties(form url.Values, props *model.Properties) {
	if props == nil {
		return
	}
	for i, p := range props.List {
		idx := strconv.Itoa(i)
		form.Set("propertyId["+idx+"]", p.ID)
		switch {
		case p.Values == nil:
		case len(p.Values) == 1:
			form.Set("propertyValue["+idx+"]", b.formValue(p.Values[0]))
		default:
			for j, v := range p.Values {
				form.Set("propertyValue["+idx+"]["+strconv.Itoa(j)+"]", b.formValue(v))
			}
		}
	}
}

// formValue renders a property value as its form literal, honoring the
// negotiated date-time format.
func (b *Binding) formValue(v model.Value) string {
	switch v.Kind() {
	case cmis.PropertyInteger:
		return strconv.FormatInt(v.Integer(), 10)
	case cmis.PropertyDecimal:
		return v.Decimal().String()
	case cmis.PropertyBoolean:
		return strconv.FormatBool(v.Boolean())
	case cmis.PropertyDateTime:
		if b.dtFormat == cmis.DateTimeExtended {
			return v.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00")
		}
		return strconv.FormatInt(v.Time().UnixMilli(), 10)
	default:
		return v.Text()
	}
}

// addPolicies writes policy[i] controls.
func addPolicies(form url.Values, policies []string) {
	for i, id := range policies {
		form.Set("policy["+strconv.Itoa(i)+"]", id)
	}
}

// addACEs writes add/remove ACE controls: {prefix}ACEPrincipal[i] and
// {prefix}ACEPermission[i][j].
func addACEs(form url.Values, prefix string, acl *model.Acl) {
	if acl == nil {
		return
	}
	for i, ace := range acl.Aces {
		idx := strconv.Itoa(i)
		form.Set(prefix+"ACEPrincipal["+idx+"]", ace.PrincipalID)
		for j, perm := range ace.Permissions {
			form.Set(prefix+"ACEPermission["+idx+"]["+strconv.Itoa(j)+"]", perm)
		}
	}
}

func setParam(form url.Values, name string, value any) {
	if s, ok := normalizeParam(value); ok {
		form.Set(name, s)
	}
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

// decodeFailure wraps a structural decode failure; malformed bodies are
// connection-level, not protocol-level.
func decodeFailure(err error) error {
	return cmiserr.Connection("malformed response body", err)
}

// decodeObjectBody decodes an object result document with a fresh per-call
// type resolver for the repository.
func (b *Binding) decodeObjectBody(ctx context.Context, repositoryID string, data []byte) (*model.ObjectData, error) {
	obj, err := b.codec.DecodeObject(ctx, data, b.newTypeResolver(repositoryID))
	if err != nil {
		return nil, decodeFailure(err)
	}
	return obj, nil
}

// objectIDOf extracts the object id from a result document, the usual
// return of create-style actions.
func objectIDOf(obj *model.ObjectData) (string, error) {
	id := obj.ID()
	if id == "" {
		return "", cmiserr.New(cmiserr.KindRuntime, "result object without object id")
	}
	return id, nil
}
