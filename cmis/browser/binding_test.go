package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/content-interop/cmis-go/cmis"
	"github.com/content-interop/cmis-go/cmis/cmiserr"
	"github.com/content-interop/cmis-go/cmis/model"
	platformhttp "github.com/content-interop/cmis-go/internal/platform/http/client"
)

// fakeServer is a minimal browser-binding endpoint serving one repository.
type fakeServer struct {
	srv *httptest.Server

	serviceFetches atomic.Int64
	typeFetches    atomic.Int64

	mu          sync.Mutex
	lastQuery   url.Values
	lastPath    string
	lastForm    url.Values
	lastContent []byte
	lastUser    string
}

func (f *fakeServer) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = r.URL.Query()
	f.lastPath = r.URL.Path
	f.lastUser, _, _ = r.BasicAuth()
}

func (f *fakeServer) form() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm
}

func (f *fakeServer) query() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

const objectJSON = `{"succinctProperties": {"cmis:objectId": "obj-1", "cmis:name": "a.txt"}}`

// customObjectJSON carries a type the repository does not know plus
// properties no base type defines, forcing the full resolution chain.
const customObjectJSON = `{"succinctProperties": {"cmis:objectId": "custom", "cmis:objectTypeId": "x:unknown", "x:a": "1", "x:b": "2"}}`

func serveTypeDefinition(w http.ResponseWriter, typeID string) {
	switch typeID {
	case "cmis:document", "cmis:folder":
		fmt.Fprintf(w, `{
			"id": %q, "baseId": %q,
			"propertyDefinitions": {
				"cmis:objectId": {"id": "cmis:objectId", "propertyType": "id", "cardinality": "single"},
				"cmis:name": {"id": "cmis:name", "propertyType": "string", "cardinality": "single"}
			}
		}`, typeID, typeID)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"exception": "objectNotFound", "message": "unknown type"}`)
	}
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	f := &fakeServer{}

	r := chi.NewRouter()
	r.Get("/cmis", func(w http.ResponseWriter, req *http.Request) {
		f.serviceFetches.Add(1)
		time.Sleep(20 * time.Millisecond)
		base := "http://" + req.Host + "/cmis/repo-1"
		fmt.Fprintf(w, `{"repo-1": {"repositoryId": "repo-1", "repositoryUrl": %q, "rootFolderUrl": %q}}`,
			base, base+"/root")
	})
	r.Get("/cmis/repo-1", func(w http.ResponseWriter, req *http.Request) {
		// Type lookups ride on the repository URL during succinct decode;
		// they are counted but kept out of the recorded request.
		if req.URL.Query().Get(cmis.ParamSelector) == cmis.SelectorTypeDefinition {
			f.typeFetches.Add(1)
			serveTypeDefinition(w, req.URL.Query().Get(cmis.ParamTypeID))
			return
		}
		f.record(req)
		base := "http://" + req.Host + "/cmis/repo-1"
		fmt.Fprintf(w, `{"repositoryId": "repo-1", "repositoryName": "Main", "repositoryUrl": %q, "rootFolderUrl": %q}`,
			base, base+"/root")
	})
	r.Get("/cmis/repo-1/root", func(w http.ResponseWriter, req *http.Request) {
		f.record(req)
		switch req.URL.Query().Get(cmis.ParamObjectID) {
		case "missing":
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"exception": "objectNotFound", "message": "gone"}`)
			return
		case "moved":
			w.Header().Set("Location", "http://elsewhere/")
			w.WriteHeader(http.StatusFound)
			return
		case "custom":
			io.WriteString(w, customObjectJSON)
			return
		}
		switch req.URL.Query().Get(cmis.ParamSelector) {
		case cmis.SelectorContent:
			w.Header().Set("Content-Type", "text/plain")
			w.Header().Set("Content-Disposition", `attachment; filename="report 1.txt"`)
			if req.Header.Get("Range") != "" {
				w.WriteHeader(http.StatusPartialContent)
				io.WriteString(w, "partial")
				return
			}
			io.WriteString(w, "full content")
		default:
			io.WriteString(w, objectJSON)
		}
	})
	r.Get("/cmis/repo-1/root/*", func(w http.ResponseWriter, req *http.Request) {
		f.record(req)
		io.WriteString(w, objectJSON)
	})
	r.Post("/cmis/repo-1/root", func(w http.ResponseWriter, req *http.Request) {
		f.record(req)
		if err := req.ParseMultipartForm(1 << 20); err == nil {
			f.mu.Lock()
			f.lastForm = req.MultipartForm.Value
			if files := req.MultipartForm.File["content"]; len(files) > 0 {
				part, err := files[0].Open()
				if err == nil {
					f.lastContent, _ = io.ReadAll(part)
					part.Close()
				}
			}
			f.mu.Unlock()
		} else if err := req.ParseForm(); err == nil {
			f.mu.Lock()
			f.lastForm = req.PostForm
			f.mu.Unlock()
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"succinctProperties": {"cmis:objectId": "new-1"}}`)
	})

	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestBinding(t *testing.T, f *fakeServer, mutate func(*Options)) *Binding {
	t.Helper()
	client := f.srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	opts := Options{
		ServiceURL: f.srv.URL + "/cmis",
		Transport:  client,
		Succinct:   true,
	}
	if mutate != nil {
		mutate(&opts)
	}
	b, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestNewRequiresServiceURL(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error for missing service URL")
	}
}

func TestDiscoverySingleFetch(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)
	ctx := context.Background()

	// Sequential calls after the first hit the URL cache.
	if _, err := b.GetObject(ctx, "repo-1", "obj-1", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := b.GetObject(ctx, "repo-1", "obj-1", nil); err != nil {
		t.Fatal(err)
	}
	if got := f.serviceFetches.Load(); got != 1 {
		t.Errorf("expected 1 service fetch, got %d", got)
	}
}

func TestDiscoveryDeduplicatesConcurrentCallers(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.GetRepositoryInfos(ctx)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if got := f.serviceFetches.Load(); got != 1 {
		t.Errorf("expected one shared fetch, got %d", got)
	}
}

func TestUnknownRepository(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)

	_, err := b.GetObject(context.Background(), "nope", "obj-1", nil)
	if !cmiserr.IsKind(err, cmiserr.KindObjectNotFound) {
		t.Errorf("expected objectNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), `"nope"`) {
		t.Errorf("expected repository id in message, got %v", err)
	}
}

func TestRemoveRepositoryForcesRediscovery(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)
	ctx := context.Background()

	if _, err := b.GetObject(ctx, "repo-1", "obj-1", nil); err != nil {
		t.Fatal(err)
	}
	b.RemoveRepository("repo-1")
	if _, err := b.GetObject(ctx, "repo-1", "obj-1", nil); err != nil {
		t.Fatal(err)
	}
	if got := f.serviceFetches.Load(); got != 2 {
		t.Errorf("expected rediscovery after removal, got %d fetches", got)
	}
}

func TestGetObjectURL(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, func(o *Options) {
		o.Username = "alice"
		o.Password = "secret"
	})

	obj, err := b.GetObject(context.Background(), "repo-1", "obj-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if obj.ID() != "obj-1" {
		t.Errorf("expected obj-1, got %q", obj.ID())
	}
	q := f.query()
	if q.Get(cmis.ParamSelector) != cmis.SelectorObject {
		t.Errorf("expected object selector, got %q", q.Get(cmis.ParamSelector))
	}
	if q.Get(cmis.ParamObjectID) != "obj-1" {
		t.Errorf("expected objectId parameter, got %v", q)
	}
	if q.Get(cmis.ParamSuccinct) != "true" {
		t.Errorf("expected succinct negotiation, got %v", q)
	}
	f.mu.Lock()
	user := f.lastUser
	f.mu.Unlock()
	if user != "alice" {
		t.Errorf("expected basic auth, got user %q", user)
	}
}

func TestGetObjectByPathURL(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)

	if _, err := b.GetObjectByPath(context.Background(), "repo-1", "/Folder A/doc.txt", nil); err != nil {
		t.Fatal(err)
	}
	f.mu.Lock()
	path := f.lastPath
	f.mu.Unlock()
	if path != "/cmis/repo-1/root/Folder A/doc.txt" {
		t.Errorf("unexpected request path: %q", path)
	}
}

func TestErrorMapping(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)
	ctx := context.Background()

	_, err := b.GetObject(ctx, "repo-1", "missing", nil)
	if !cmiserr.IsKind(err, cmiserr.KindObjectNotFound) {
		t.Fatalf("expected objectNotFound, got %v", err)
	}
	var ce *cmiserr.Error
	if !errors.As(err, &ce) {
		t.Fatal("expected typed error")
	}
	if ce.Message != "gone" || ce.Status != http.StatusNotFound {
		t.Errorf("envelope not applied: %+v", ce)
	}

	// The transport never follows redirects; 3xx surfaces as a connection
	// failure.
	_, err = b.GetObject(ctx, "repo-1", "moved", nil)
	if !cmiserr.IsKind(err, cmiserr.KindConnection) {
		t.Errorf("expected connection error for redirect, got %v", err)
	}
}

func TestGetContentStream(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)
	ctx := context.Background()

	cs, err := b.GetContentStream(ctx, "repo-1", "obj-1", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer cs.Reader.Close()
	data, err := io.ReadAll(cs.Reader)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "full content" {
		t.Errorf("unexpected content: %q", data)
	}
	if cs.Partial {
		t.Error("full response must not be partial")
	}
	if cs.Filename != "report 1.txt" {
		t.Errorf("disposition filename lost: %q", cs.Filename)
	}
	if cs.MimeType != "text/plain" {
		t.Errorf("unexpected mime type: %q", cs.MimeType)
	}
	if cs.Length != int64(len("full content")) {
		t.Errorf("unexpected length: %d", cs.Length)
	}
}

func TestGetContentStreamRange(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)
	ctx := context.Background()

	offset, length := int64(10), int64(10)
	cs, err := b.GetContentStream(ctx, "repo-1", "obj-1", "", &offset, &length)
	if err != nil {
		t.Fatal(err)
	}
	cs.Reader.Close()
	if !cs.Partial {
		t.Error("206 response must be partial")
	}

	// Offset without length is an open-ended range.
	cs, err = b.GetContentStream(ctx, "repo-1", "obj-1", "thumb", &offset, nil)
	if err != nil {
		t.Fatal(err)
	}
	cs.Reader.Close()
	if got := f.query().Get(cmis.ParamStreamID); got != "thumb" {
		t.Errorf("expected streamId parameter, got %q", got)
	}
}

func TestCreateDocumentForm(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)

	props := &model.Properties{}
	props.Add(&model.Property{ID: "cmis:name", Kind: cmis.PropertyString,
		Values: []model.Value{model.StringValue("a.txt")}})
	props.Add(&model.Property{ID: "doc:tags", Kind: cmis.PropertyString,
		Values: []model.Value{model.StringValue("x"), model.StringValue("y")}})
	props.Add(&model.Property{ID: "doc:draft", Kind: cmis.PropertyBoolean})

	id, err := b.CreateDocument(context.Background(), "repo-1", "folder-1", props, nil,
		cmis.VersioningMajor, &CreateOptions{
			Policies: []string{"pol-1"},
			AddACEs: &model.Acl{Aces: []*model.Ace{
				{PrincipalID: "alice", Permissions: []string{"cmis:read", "cmis:write"}},
			}},
		})
	if err != nil {
		t.Fatal(err)
	}
	if id != "new-1" {
		t.Errorf("expected new-1, got %q", id)
	}

	form := f.form()
	if form.Get(cmis.ParamAction) != cmis.ActionCreateDocument {
		t.Errorf("expected createDocument action, got %q", form.Get(cmis.ParamAction))
	}
	if form.Get(cmis.ParamSuccinct) != "true" {
		t.Error("succinct negotiation missing from form")
	}
	if form.Get("propertyId[0]") != "cmis:name" || form.Get("propertyValue[0]") != "a.txt" {
		t.Errorf("single-value property controls wrong: %v", form)
	}
	if form.Get("propertyValue[1][0]") != "x" || form.Get("propertyValue[1][1]") != "y" {
		t.Errorf("multi-value property controls wrong: %v", form)
	}
	// A value-less property carries only its id.
	if form.Get("propertyId[2]") != "doc:draft" {
		t.Errorf("expected unset property id, got %v", form)
	}
	if _, present := form["propertyValue[2]"]; present {
		t.Error("unset property must not carry a value control")
	}
	if form.Get(cmis.ParamVersioningState) != "major" {
		t.Errorf("expected versioningState, got %q", form.Get(cmis.ParamVersioningState))
	}
	if form.Get("policy[0]") != "pol-1" {
		t.Errorf("expected policy control, got %v", form)
	}
	if form.Get("addACEPrincipal[0]") != "alice" || form.Get("addACEPermission[0][1]") != "cmis:write" {
		t.Errorf("ace controls wrong: %v", form)
	}
}

func TestCreateDocumentMultipart(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)

	props := &model.Properties{}
	props.Add(&model.Property{ID: "cmis:name", Kind: cmis.PropertyString,
		Values: []model.Value{model.StringValue("report.txt")}})
	content := &model.ContentStream{
		Filename: "report.txt",
		MimeType: "text/plain",
		Reader:   io.NopCloser(strings.NewReader("hello world")),
	}

	id, err := b.CreateDocument(context.Background(), "repo-1", "folder-1", props, content, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if id != "new-1" {
		t.Errorf("expected new-1, got %q", id)
	}

	form := f.form()
	if form.Get(cmis.ParamAction) != cmis.ActionCreateDocument {
		t.Errorf("expected createDocument action in multipart body, got %v", form)
	}
	if form.Get("propertyValue[0]") != "report.txt" {
		t.Errorf("property control missing from multipart body: %v", form)
	}
	f.mu.Lock()
	body := string(f.lastContent)
	f.mu.Unlock()
	if body != "hello world" {
		t.Errorf("content not streamed: %q", body)
	}
}

func TestApplyACLForm(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)

	add := &model.Acl{Aces: []*model.Ace{{PrincipalID: "alice", Permissions: []string{"cmis:read"}}}}
	remove := &model.Acl{Aces: []*model.Ace{{PrincipalID: "bob", Permissions: []string{"cmis:write"}}}}
	if _, err := b.ApplyACL(context.Background(), "repo-1", "obj-1", add, remove, cmis.PropagationPropagate); err != nil {
		t.Fatal(err)
	}

	form := f.form()
	if form.Get(cmis.ParamAction) != cmis.ActionApplyACL {
		t.Errorf("expected applyACL action, got %q", form.Get(cmis.ParamAction))
	}
	if form.Get("addACEPrincipal[0]") != "alice" || form.Get("addACEPermission[0][0]") != "cmis:read" {
		t.Errorf("add ace controls wrong: %v", form)
	}
	if form.Get("removeACEPrincipal[0]") != "bob" || form.Get("removeACEPermission[0][0]") != "cmis:write" {
		t.Errorf("remove ace controls wrong: %v", form)
	}
	if form.Get(cmis.ParamACLPropagation) != "propagate" {
		t.Errorf("expected propagation, got %q", form.Get(cmis.ParamACLPropagation))
	}
}

func TestSuccinctDecodeMemoizesTypeLookups(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)

	obj, err := b.GetObject(context.Background(), "repo-1", "custom", nil)
	if err != nil {
		t.Fatal(err)
	}
	if obj.Properties.TextOf("x:a") != "1" || obj.Properties.TextOf("x:b") != "2" {
		t.Errorf("custom properties lost: %+v", obj.Properties)
	}

	// Four property keys walk the same chain; each type id is fetched at
	// most once per call, failures included.
	if got := f.typeFetches.Load(); got != 3 {
		t.Errorf("expected 3 type fetches (x:unknown, document, folder), got %d", got)
	}
}

func TestSetContentStreamWithoutFilename(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)

	id := "obj-1"
	content := &model.ContentStream{
		Reader: io.NopCloser(strings.NewReader("raw bytes")),
	}
	if err := b.SetContentStream(context.Background(), "repo-1", &id, nil, content, nil); err != nil {
		t.Fatal(err)
	}

	// A part without a filename parses as a form value and the bytes would
	// be lost; the binding substitutes a default name.
	f.mu.Lock()
	body := string(f.lastContent)
	f.mu.Unlock()
	if body != "raw bytes" {
		t.Errorf("content dropped without filename: %q", body)
	}
	if f.form().Get(cmis.ParamAction) != cmis.ActionSetContent {
		t.Errorf("expected setContent action, got %v", f.form())
	}
}

func TestResponseBodyCap(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, func(o *Options) {
		o.Transport = platformhttp.New(platformhttp.Options{MaxResponseBytes: 16})
	})

	_, err := b.GetObject(context.Background(), "repo-1", "obj-1", nil)
	if !cmiserr.IsKind(err, cmiserr.KindConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if !errors.Is(err, platformhttp.ErrResponseTooLarge) {
		t.Errorf("expected size cap to trip, got %v", err)
	}
}

func TestCreateItemVersionGuard(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, func(o *Options) { o.Version = cmis.Version10 })

	_, err := b.CreateItem(context.Background(), "repo-1", "folder-1", nil, nil)
	if !cmiserr.IsKind(err, cmiserr.KindInvalidArgument) {
		t.Errorf("expected invalidArgument for 1.0 item create, got %v", err)
	}
}

func TestGetRepositoryInfoRefreshesURLs(t *testing.T) {
	f := newFakeServer(t)
	b := newTestBinding(t, f, nil)

	info, err := b.GetRepositoryInfo(context.Background(), "repo-1")
	if err != nil {
		t.Fatal(err)
	}
	if info.ID != "repo-1" || info.Name != "Main" {
		t.Errorf("unexpected info: %+v", info)
	}
	if got := f.query().Get(cmis.ParamSelector); got != cmis.SelectorRepositoryInfo {
		t.Errorf("expected repositoryInfo selector, got %q", got)
	}
}
