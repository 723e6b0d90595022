// Package harness runs an in-memory browser-binding repository behind an
// httptest server. It implements enough of the protocol for end-to-end
// client tests: discovery, repository info, type operations, object CRUD,
// content streams, versioning, query, change log and ACLs.
package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/content-interop/cmis-go/internal/platform/mimeutil"
)

// Server is one running fake endpoint serving a single repository.
type Server struct {
	// ServiceURL is the service document endpoint to hand to the client.
	ServiceURL string

	// Repo exposes the repository state for assertions.
	Repo *Repository

	srv *httptest.Server
}

// Object is one stored content object.
type Object struct {
	ID       string
	TypeID   string
	BaseType string
	Name     string
	ParentID string

	Content  []byte
	MimeType string
	Filename string

	ChangeToken string

	VersionSeriesID string
	VersionLabel    string
	Latest          bool
	Major           bool
	PWC             bool

	Aces     []Ace
	Policies []string

	// SourceID and TargetID are set on relationship objects.
	SourceID string
	TargetID string
}

// Ace is one access-control entry.
type Ace struct {
	Principal   string
	Permissions []string
}

type changeEntry struct {
	token    int
	objectID string
	kind     string
	at       time.Time
}

// Repository holds the mutable server state. All access goes through mu;
// handlers never hold it across a response write.
type Repository struct {
	ID string

	mu      sync.Mutex
	objects map[string]*Object
	types   map[string]map[string]any
	changes []changeEntry
	nextSeq int
}

// RootFolderID is the id of the pre-created root folder.
const RootFolderID = "root-folder"

// Start runs a fake endpoint with one repository and registers its shutdown
// with the test.
func Start(t *testing.T) *Server {
	t.Helper()
	repo := &Repository{
		ID:      "test-repo",
		objects: make(map[string]*Object),
		types:   baseTypes(),
	}
	repo.objects[RootFolderID] = &Object{
		ID:          RootFolderID,
		TypeID:      "cmis:folder",
		BaseType:    "cmis:folder",
		ChangeToken: "0",
	}

	s := &Server{Repo: repo}
	r := chi.NewRouter()
	r.Get("/cmis", s.handleService)
	r.Get("/cmis/{repo}", s.handleRepositoryGet)
	r.Post("/cmis/{repo}", s.handleRepositoryPost)
	r.Get("/cmis/{repo}/root", s.handleObjectGet)
	r.Get("/cmis/{repo}/root/*", s.handleObjectGet)
	r.Post("/cmis/{repo}/root", s.handleObjectPost)
	r.Post("/cmis/{repo}/root/*", s.handleObjectPost)

	s.srv = httptest.NewServer(r)
	s.ServiceURL = s.srv.URL + "/cmis"
	t.Cleanup(s.srv.Close)
	return s
}

// Object returns a snapshot of a stored object, or nil.
func (r *Repository) Object(id string) *Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.objects[id]
	if !ok {
		return nil
	}
	cp := *o
	return &cp
}

// TypeCount returns the number of stored type definitions.
func (r *Repository) TypeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.types)
}

func (r *Repository) newID(prefix string) string {
	r.nextSeq++
	return fmt.Sprintf("%s-%d", prefix, r.nextSeq)
}

func (r *Repository) touch(o *Object) {
	r.nextSeq++
	o.ChangeToken = strconv.Itoa(r.nextSeq)
}

func (r *Repository) logChange(objectID, kind string) {
	r.changes = append(r.changes, changeEntry{
		token:    len(r.changes) + 1,
		objectID: objectID,
		kind:     kind,
		at:       time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, exception, message string) {
	writeJSON(w, status, map[string]any{
		"exception": exception,
		"message":   message,
	})
}

func (s *Server) baseURLs(r *http.Request) (string, string) {
	base := "http://" + r.Host + "/cmis/" + s.Repo.ID
	return base, base + "/root"
}

// --- service document and repository info ---

func (s *Server) handleService(w http.ResponseWriter, r *http.Request) {
	repoURL, rootURL := s.baseURLs(r)
	writeJSON(w, http.StatusOK, map[string]any{
		s.Repo.ID: s.repositoryInfo(repoURL, rootURL),
	})
}

func (s *Server) repositoryInfo(repoURL, rootURL string) map[string]any {
	return map[string]any{
		"repositoryId":         s.Repo.ID,
		"repositoryName":       "Harness Repository",
		"vendorName":           "content-interop",
		"productName":          "cmis-go test harness",
		"productVersion":       "0",
		"rootFolderId":         RootFolderID,
		"cmisVersionSupported": "1.1",
		"latestChangeLogToken": strconv.Itoa(len(s.Repo.changes)),
		"repositoryUrl":        repoURL,
		"rootFolderUrl":        rootURL,
		"capabilities": map[string]any{
			"capabilityContentStreamUpdatability": "anytime",
			"capabilityChanges":                   "all",
			"capabilityQuery":                     "bothcombined",
			"capabilityACL":                       "manage",
			"capabilityGetDescendants":            true,
			"capabilityGetFolderTree":             true,
		},
	}
}

func (s *Server) handleRepositoryGet(w http.ResponseWriter, r *http.Request) {
	repo := s.Repo
	repo.mu.Lock()
	defer repo.mu.Unlock()

	q := r.URL.Query()
	switch q.Get("cmisselector") {
	case "typeDefinition":
		def, ok := repo.types[q.Get("typeId")]
		if !ok {
			writeFailure(w, http.StatusNotFound, "objectNotFound", "unknown type "+q.Get("typeId"))
			return
		}
		writeJSON(w, http.StatusOK, def)
	case "typeChildren":
		writeJSON(w, http.StatusOK, repo.typeChildren(q.Get("typeId")))
	case "typeDescendants":
		writeJSON(w, http.StatusOK, repo.typeDescendants(q.Get("typeId")))
	case "contentChanges":
		writeJSON(w, http.StatusOK, repo.contentChanges(q.Get("changeLogToken")))
	case "checkedout":
		writeJSON(w, http.StatusOK, repo.checkedOut())
	default:
		repoURL, rootURL := s.baseURLs(r)
		writeJSON(w, http.StatusOK, s.repositoryInfo(repoURL, rootURL))
	}
}

func (s *Server) handleRepositoryPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalidArgument", "malformed form body")
		return
	}
	repo := s.Repo
	repo.mu.Lock()
	defer repo.mu.Unlock()

	switch r.PostForm.Get("cmisaction") {
	case "query":
		writeJSON(w, http.StatusOK, repo.query(r.PostForm.Get("q")))
	case "createType", "updateType":
		var def map[string]any
		if err := json.Unmarshal([]byte(r.PostForm.Get("type")), &def); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalidArgument", "malformed type payload")
			return
		}
		id, _ := def["id"].(string)
		if id == "" {
			writeFailure(w, http.StatusBadRequest, "invalidArgument", "type without id")
			return
		}
		repo.types[id] = def
		writeJSON(w, http.StatusCreated, def)
	case "deleteType":
		id := r.PostForm.Get("typeId")
		if _, ok := repo.types[id]; !ok {
			writeFailure(w, http.StatusNotFound, "objectNotFound", "unknown type "+id)
			return
		}
		delete(repo.types, id)
		w.WriteHeader(http.StatusOK)
	case "createRelationship":
		props := formProperties(r.PostForm)
		rel := &Object{
			ID:       repo.newID("rel"),
			TypeID:   "cmis:relationship",
			BaseType: "cmis:relationship",
			Name:     props["cmis:name"],
			SourceID: props["cmis:sourceId"],
			TargetID: props["cmis:targetId"],
		}
		repo.touch(rel)
		repo.objects[rel.ID] = rel
		repo.logChange(rel.ID, "created")
		writeJSON(w, http.StatusCreated, repo.objectJSON(rel))
	case "createDocument":
		// Unfiled create: same handling as a root create without a parent.
		s.createDocument(w, r, "")
	default:
		writeFailure(w, http.StatusBadRequest, "notSupported", "unsupported repository action")
	}
}

// --- object reads ---

// resolve finds the target object from either the objectId parameter or the
// path below the root folder URL. Caller holds the lock.
func (s *Server) resolve(r *http.Request) (*Object, bool) {
	repo := s.Repo
	if id := r.URL.Query().Get("objectId"); id != "" {
		o, ok := repo.objects[id]
		return o, ok
	}
	rest := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(rest); err == nil {
		rest = unescaped
	}
	if rest == "" {
		return repo.objects[RootFolderID], true
	}
	current := repo.objects[RootFolderID]
	for _, segment := range strings.Split(rest, "/") {
		var next *Object
		for _, o := range repo.objects {
			if o.ParentID == current.ID && o.Name == segment {
				next = o
				break
			}
		}
		if next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}

func (s *Server) handleObjectGet(w http.ResponseWriter, r *http.Request) {
	repo := s.Repo
	repo.mu.Lock()
	defer repo.mu.Unlock()

	target, ok := s.resolve(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "objectNotFound", "object not found")
		return
	}

	switch r.URL.Query().Get("cmisselector") {
	case "children":
		writeJSON(w, http.StatusOK, repo.children(target))
	case "descendants", "folderTree":
		foldersOnly := r.URL.Query().Get("cmisselector") == "folderTree"
		writeJSON(w, http.StatusOK, repo.descendants(target, foldersOnly))
	case "parent":
		parent, ok := repo.objects[target.ParentID]
		if !ok {
			writeFailure(w, http.StatusNotFound, "objectNotFound", "folder has no parent")
			return
		}
		writeJSON(w, http.StatusOK, repo.objectJSON(parent))
	case "parents":
		writeJSON(w, http.StatusOK, repo.parents(target))
	case "versions":
		writeJSON(w, http.StatusOK, map[string]any{"objects": repo.versionsOf(target)})
	case "content":
		s.serveContent(w, r, target)
	case "acl":
		writeJSON(w, http.StatusOK, aclJSON(target.Aces))
	case "policies":
		writeJSON(w, http.StatusOK, repo.appliedPolicies(target))
	case "relationships":
		writeJSON(w, http.StatusOK, repo.relationshipsOf(target))
	case "checkedout":
		writeJSON(w, http.StatusOK, repo.checkedOut())
	default:
		if rv := r.URL.Query().Get("returnVersion"); rv == "latest" || rv == "latestmajor" {
			target = repo.latestInSeries(target, rv == "latestmajor")
		}
		writeJSON(w, http.StatusOK, repo.objectJSON(target))
	}
}

func (r *Repository) latestInSeries(o *Object, majorOnly bool) *Object {
	if o.VersionSeriesID == "" {
		return o
	}
	best := o
	for _, v := range r.objects {
		if v.VersionSeriesID != o.VersionSeriesID || v.PWC {
			continue
		}
		if majorOnly && !v.Major {
			continue
		}
		if v.VersionLabel > best.VersionLabel {
			best = v
		}
	}
	return best
}

func (s *Server) serveContent(w http.ResponseWriter, r *http.Request, o *Object) {
	if o.Content == nil {
		writeFailure(w, http.StatusConflict, "constraint", "document has no content")
		return
	}
	data := o.Content
	mime := o.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	if o.Filename != "" {
		w.Header().Set("Content-Disposition", mimeutil.EncodeDispositionFilename(o.Filename))
	}
	if rng := r.Header.Get("Range"); strings.HasPrefix(rng, "bytes=") {
		start, end, ok := parseRange(rng, int64(len(data)))
		if ok {
			w.Header().Set("Content-Range",
				fmt.Sprintf("bytes %d-%d/%d", start, end, len(data)))
			w.WriteHeader(http.StatusPartialContent)
			w.Write(data[start : end+1])
			return
		}
	}
	w.Write(data)
}

func parseRange(header string, size int64) (start, end int64, ok bool) {
	spec := strings.TrimPrefix(header, "bytes=")
	first, last, found := strings.Cut(spec, "-")
	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || !found || start >= size {
		return 0, 0, false
	}
	end = size - 1
	if last != "" {
		if end, err = strconv.ParseInt(last, 10, 64); err != nil {
			return 0, 0, false
		}
		if end >= size {
			end = size - 1
		}
	}
	return start, end, start <= end
}

// --- object writes ---

func (s *Server) handleObjectPost(w http.ResponseWriter, r *http.Request) {
	var content []byte
	var contentType, contentName string
	var form map[string][]string

	if err := r.ParseMultipartForm(16 << 20); err == nil {
		form = r.MultipartForm.Value
		if files := r.MultipartForm.File["content"]; len(files) > 0 {
			part, err := files[0].Open()
			if err == nil {
				content, _ = io.ReadAll(part)
				part.Close()
			}
			contentType = files[0].Header.Get("Content-Type")
			contentName = files[0].Filename
		}
	} else if err := r.ParseForm(); err == nil {
		form = r.PostForm
	} else {
		writeFailure(w, http.StatusBadRequest, "invalidArgument", "malformed body")
		return
	}

	repo := s.Repo
	repo.mu.Lock()
	defer repo.mu.Unlock()

	// Creates address the parent folder through the same resolution.
	target, ok := s.resolve(r)
	if !ok {
		writeFailure(w, http.StatusNotFound, "objectNotFound", "object not found")
		return
	}
	action := first(form, "cmisaction")

	props := formProperties(form)
	switch action {
	case "createDocument":
		doc := repo.create(props, "cmis:document", target.ID)
		doc.Content = content
		doc.MimeType = contentType
		doc.Filename = contentName
		doc.VersionSeriesID = repo.newID("series")
		doc.VersionLabel = "1.0"
		doc.Latest = true
		doc.Major = first(form, "versioningState") != "minor"
		writeJSON(w, http.StatusCreated, repo.objectJSON(doc))
	case "createFolder":
		folder := repo.create(props, "cmis:folder", target.ID)
		writeJSON(w, http.StatusCreated, repo.objectJSON(folder))
	case "createPolicy":
		policy := repo.create(props, "cmis:policy", target.ID)
		writeJSON(w, http.StatusCreated, repo.objectJSON(policy))
	case "createItem":
		item := repo.create(props, "cmis:item", target.ID)
		writeJSON(w, http.StatusCreated, repo.objectJSON(item))
	case "update":
		if tok := first(form, "changeToken"); tok != "" && tok != target.ChangeToken {
			writeFailure(w, http.StatusConflict, "updateConflict", "stale change token")
			return
		}
		if name, ok := props["cmis:name"]; ok {
			target.Name = name
		}
		repo.touch(target)
		repo.logChange(target.ID, "updated")
		writeJSON(w, http.StatusOK, repo.objectJSON(target))
	case "move":
		parent, ok := repo.objects[first(form, "targetFolderId")]
		if !ok {
			writeFailure(w, http.StatusNotFound, "objectNotFound", "target folder not found")
			return
		}
		target.ParentID = parent.ID
		repo.touch(target)
		repo.logChange(target.ID, "updated")
		writeJSON(w, http.StatusOK, repo.objectJSON(target))
	case "delete":
		delete(repo.objects, target.ID)
		repo.logChange(target.ID, "deleted")
		w.WriteHeader(http.StatusOK)
	case "deleteTree":
		repo.deleteTree(target.ID)
		w.WriteHeader(http.StatusOK)
	case "setContent", "appendContent":
		if action == "appendContent" {
			target.Content = append(target.Content, content...)
		} else {
			target.Content = content
			target.MimeType = contentType
			target.Filename = contentName
		}
		repo.touch(target)
		repo.logChange(target.ID, "updated")
		writeJSON(w, http.StatusOK, repo.objectJSON(target))
	case "deleteContent":
		target.Content = nil
		target.MimeType = ""
		target.Filename = ""
		repo.touch(target)
		writeJSON(w, http.StatusOK, repo.objectJSON(target))
	case "checkOut":
		writeJSON(w, http.StatusCreated, repo.objectJSON(repo.checkOut(target)))
	case "cancelCheckOut":
		if !target.PWC {
			writeFailure(w, http.StatusConflict, "versioning", "not a working copy")
			return
		}
		delete(repo.objects, target.ID)
		w.WriteHeader(http.StatusOK)
	case "checkIn":
		if !target.PWC {
			writeFailure(w, http.StatusConflict, "versioning", "not a working copy")
			return
		}
		version := repo.checkIn(target, props, content, contentType, contentName,
			first(form, "major") != "false")
		writeJSON(w, http.StatusCreated, repo.objectJSON(version))
	case "applyACL":
		applyACEs(target, form)
		repo.logChange(target.ID, "security")
		writeJSON(w, http.StatusOK, aclJSON(target.Aces))
	case "applyPolicy":
		target.Policies = append(target.Policies, first(form, "policyId"))
		w.WriteHeader(http.StatusOK)
	case "removePolicy":
		id := first(form, "policyId")
		kept := target.Policies[:0]
		for _, p := range target.Policies {
			if p != id {
				kept = append(kept, p)
			}
		}
		target.Policies = kept
		w.WriteHeader(http.StatusOK)
	default:
		writeFailure(w, http.StatusBadRequest, "notSupported", "unsupported object action")
	}
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request, parentID string) {
	props := formProperties(r.PostForm)
	doc := s.Repo.create(props, "cmis:document", parentID)
	writeJSON(w, http.StatusCreated, s.Repo.objectJSON(doc))
}

func (r *Repository) create(props map[string]string, baseType, parentID string) *Object {
	typeID := props["cmis:objectTypeId"]
	if typeID == "" {
		typeID = baseType
	}
	o := &Object{
		ID:       r.newID(uuid.NewString()[:8]),
		TypeID:   typeID,
		BaseType: baseType,
		Name:     props["cmis:name"],
		ParentID: parentID,
	}
	r.touch(o)
	r.objects[o.ID] = o
	r.logChange(o.ID, "created")
	return o
}

func (r *Repository) deleteTree(folderID string) {
	delete(r.objects, folderID)
	r.logChange(folderID, "deleted")
	var kids []string
	for id, o := range r.objects {
		if o.ParentID == folderID {
			kids = append(kids, id)
		}
	}
	for _, id := range kids {
		r.deleteTree(id)
	}
}

func (r *Repository) checkOut(doc *Object) *Object {
	pwc := *doc
	pwc.ID = doc.ID + "-pwc"
	pwc.PWC = true
	pwc.Latest = false
	r.touch(&pwc)
	r.objects[pwc.ID] = &pwc
	return &pwc
}

func (r *Repository) checkIn(pwc *Object, props map[string]string, content []byte, contentType, contentName string, major bool) *Object {
	version := *pwc
	version.ID = r.newID("v")
	version.PWC = false
	version.Latest = true
	version.Major = major
	if name, ok := props["cmis:name"]; ok {
		version.Name = name
	}
	if content != nil {
		version.Content = content
		version.MimeType = contentType
		version.Filename = contentName
	}
	version.VersionLabel = nextLabel(version.VersionLabel, major)

	// The checked-in version supersedes the working copy and demotes the
	// previous latest in the series.
	delete(r.objects, pwc.ID)
	for _, o := range r.objects {
		if o.VersionSeriesID == version.VersionSeriesID {
			o.Latest = false
		}
	}
	r.touch(&version)
	r.objects[version.ID] = &version
	r.logChange(version.ID, "created")
	return &version
}

func nextLabel(label string, major bool) string {
	majorPart, minorPart, _ := strings.Cut(label, ".")
	hi, _ := strconv.Atoi(majorPart)
	lo, _ := strconv.Atoi(minorPart)
	if major {
		return fmt.Sprintf("%d.0", hi+1)
	}
	return fmt.Sprintf("%d.%d", hi, lo+1)
}

// --- response shapes ---

func (r *Repository) objectJSON(o *Object) map[string]any {
	sp := map[string]any{
		"cmis:objectId":     o.ID,
		"cmis:baseTypeId":   o.BaseType,
		"cmis:objectTypeId": o.TypeID,
		"cmis:name":         o.Name,
		"cmis:changeToken":  o.ChangeToken,
	}
	switch o.BaseType {
	case "cmis:document":
		sp["cmis:versionSeriesId"] = o.VersionSeriesID
		sp["cmis:versionLabel"] = o.VersionLabel
		sp["cmis:isLatestVersion"] = o.Latest
		sp["cmis:isMajorVersion"] = o.Major
		sp["cmis:isVersionSeriesCheckedOut"] = o.PWC
		if o.Content != nil {
			sp["cmis:contentStreamLength"] = json.Number(strconv.Itoa(len(o.Content)))
			sp["cmis:contentStreamMimeType"] = o.MimeType
			sp["cmis:contentStreamFileName"] = o.Filename
		}
	case "cmis:folder":
		sp["cmis:path"] = r.pathOf(o)
		sp["cmis:parentId"] = o.ParentID
	case "cmis:relationship":
		sp["cmis:sourceId"] = o.SourceID
		sp["cmis:targetId"] = o.TargetID
	}
	return map[string]any{"succinctProperties": sp}
}

func (r *Repository) pathOf(o *Object) string {
	if o.ID == RootFolderID {
		return "/"
	}
	segments := []string{}
	for o != nil && o.ID != RootFolderID {
		segments = append([]string{o.Name}, segments...)
		o = r.objects[o.ParentID]
	}
	return "/" + strings.Join(segments, "/")
}

func (r *Repository) childrenOf(folderID string) []*Object {
	var out []*Object
	for _, o := range r.objects {
		if o.ParentID == folderID && !o.PWC {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Repository) children(folder *Object) map[string]any {
	kids := r.childrenOf(folder.ID)
	entries := make([]any, 0, len(kids))
	for _, o := range kids {
		entries = append(entries, map[string]any{
			"object":      r.objectJSON(o),
			"pathSegment": o.Name,
		})
	}
	return map[string]any{
		"objects":      entries,
		"numItems":     json.Number(strconv.Itoa(len(entries))),
		"hasMoreItems": false,
	}
}

func (r *Repository) descendants(folder *Object, foldersOnly bool) []any {
	out := []any{}
	for _, o := range r.childrenOf(folder.ID) {
		if foldersOnly && o.BaseType != "cmis:folder" {
			continue
		}
		node := map[string]any{
			"object": map[string]any{
				"object":      r.objectJSON(o),
				"pathSegment": o.Name,
			},
		}
		if o.BaseType == "cmis:folder" {
			node["children"] = r.descendants(o, foldersOnly)
		}
		out = append(out, node)
	}
	return out
}

func (r *Repository) parents(o *Object) []any {
	parent, ok := r.objects[o.ParentID]
	if !ok {
		return []any{}
	}
	return []any{map[string]any{
		"object":              r.objectJSON(parent),
		"relativePathSegment": o.Name,
	}}
}

func (r *Repository) versionsOf(o *Object) []any {
	if o.VersionSeriesID == "" {
		return []any{r.objectJSON(o)}
	}
	var versions []*Object
	for _, v := range r.objects {
		if v.VersionSeriesID == o.VersionSeriesID && !v.PWC {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].VersionLabel > versions[j].VersionLabel
	})
	out := make([]any, 0, len(versions))
	for _, v := range versions {
		out = append(out, r.objectJSON(v))
	}
	return out
}

func (r *Repository) relationshipsOf(o *Object) map[string]any {
	rels := []any{}
	for _, rel := range r.objects {
		if rel.BaseType == "cmis:relationship" && (rel.SourceID == o.ID || rel.TargetID == o.ID) {
			rels = append(rels, r.objectJSON(rel))
		}
	}
	return map[string]any{
		"objects":      rels,
		"numItems":     json.Number(strconv.Itoa(len(rels))),
		"hasMoreItems": false,
	}
}

func (r *Repository) appliedPolicies(o *Object) map[string]any {
	out := []any{}
	for _, id := range o.Policies {
		if p, ok := r.objects[id]; ok {
			out = append(out, r.objectJSON(p))
		}
	}
	return map[string]any{"objects": out}
}

func (r *Repository) checkedOut() map[string]any {
	out := []any{}
	for _, o := range r.objects {
		if o.PWC {
			out = append(out, r.objectJSON(o))
		}
	}
	return map[string]any{
		"objects":      out,
		"numItems":     json.Number(strconv.Itoa(len(out))),
		"hasMoreItems": false,
	}
}

// query supports exactly the statement shape the tests issue: base type
// scans ("SELECT * FROM cmis:document"). Result rows are keyed "results".
func (r *Repository) query(statement string) map[string]any {
	fields := strings.Fields(statement)
	baseType := "cmis:document"
	for i, f := range fields {
		if strings.EqualFold(f, "FROM") && i+1 < len(fields) {
			baseType = fields[i+1]
		}
	}
	rows := []any{}
	for _, o := range r.objects {
		if o.BaseType == baseType && !o.PWC {
			rows = append(rows, r.objectJSON(o))
		}
	}
	return map[string]any{
		"results":      rows,
		"numItems":     json.Number(strconv.Itoa(len(rows))),
		"hasMoreItems": false,
	}
}

func (r *Repository) contentChanges(fromToken string) map[string]any {
	from, _ := strconv.Atoi(fromToken)
	events := []any{}
	for _, e := range r.changes {
		if e.token <= from {
			continue
		}
		events = append(events, map[string]any{
			"succinctProperties": map[string]any{"cmis:objectId": e.objectID},
			"changeEventInfo": map[string]any{
				"changeType": e.kind,
				"changeTime": json.Number(strconv.FormatInt(e.at.UnixMilli(), 10)),
			},
		})
	}
	return map[string]any{
		"objects":        events,
		"changeLogToken": strconv.Itoa(len(r.changes)),
		"numItems":       json.Number(strconv.Itoa(len(events))),
	}
}

func aclJSON(aces []Ace) map[string]any {
	out := []any{}
	for _, ace := range aces {
		perms := make([]any, 0, len(ace.Permissions))
		for _, p := range ace.Permissions {
			perms = append(perms, p)
		}
		out = append(out, map[string]any{
			"principal":   map[string]any{"principalId": ace.Principal},
			"permissions": perms,
			"isDirect":    true,
		})
	}
	return map[string]any{"aces": out, "isExact": true}
}

// --- form helpers ---

func first(form map[string][]string, key string) string {
	if vs := form[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// formProperties reassembles the indexed propertyId[i]/propertyValue[i]
// controls into an id-to-first-value map. Multi-value properties keep only
// their first value; the harness does not model multi-value storage.
func formProperties(form map[string][]string) map[string]string {
	out := make(map[string]string)
	for i := 0; ; i++ {
		id := first(form, fmt.Sprintf("propertyId[%d]", i))
		if id == "" {
			break
		}
		if v := first(form, fmt.Sprintf("propertyValue[%d]", i)); v != "" {
			out[id] = v
		} else {
			out[id] = first(form, fmt.Sprintf("propertyValue[%d][0]", i))
		}
	}
	return out
}

func applyACEs(o *Object, form map[string][]string) {
	collect := func(prefix string) []Ace {
		var aces []Ace
		for i := 0; ; i++ {
			principal := first(form, fmt.Sprintf("%sACEPrincipal[%d]", prefix, i))
			if principal == "" {
				break
			}
			var perms []string
			for j := 0; ; j++ {
				p := first(form, fmt.Sprintf("%sACEPermission[%d][%d]", prefix, i, j))
				if p == "" {
					break
				}
				perms = append(perms, p)
			}
			aces = append(aces, Ace{Principal: principal, Permissions: perms})
		}
		return aces
	}

	for _, ace := range collect("remove") {
		kept := o.Aces[:0]
		for _, existing := range o.Aces {
			if existing.Principal != ace.Principal {
				kept = append(kept, existing)
			}
		}
		o.Aces = kept
	}
	o.Aces = append(o.Aces, collect("add")...)
}

// --- type definitions ---

func propertyDef(id string, kind string) map[string]any {
	return map[string]any{
		"id":           id,
		"localName":    strings.TrimPrefix(id, "cmis:"),
		"queryName":    id,
		"propertyType": kind,
		"cardinality":  "single",
		"updatability": "readonly",
	}
}

func baseTypes() map[string]map[string]any {
	common := func() map[string]any {
		return map[string]any{
			"cmis:objectId":     propertyDef("cmis:objectId", "id"),
			"cmis:baseTypeId":   propertyDef("cmis:baseTypeId", "id"),
			"cmis:objectTypeId": propertyDef("cmis:objectTypeId", "id"),
			"cmis:name":         propertyDef("cmis:name", "string"),
			"cmis:changeToken":  propertyDef("cmis:changeToken", "string"),
		}
	}

	docProps := common()
	docProps["cmis:versionSeriesId"] = propertyDef("cmis:versionSeriesId", "id")
	docProps["cmis:versionLabel"] = propertyDef("cmis:versionLabel", "string")
	docProps["cmis:isLatestVersion"] = propertyDef("cmis:isLatestVersion", "boolean")
	docProps["cmis:isMajorVersion"] = propertyDef("cmis:isMajorVersion", "boolean")
	docProps["cmis:isVersionSeriesCheckedOut"] = propertyDef("cmis:isVersionSeriesCheckedOut", "boolean")
	docProps["cmis:contentStreamLength"] = propertyDef("cmis:contentStreamLength", "integer")
	docProps["cmis:contentStreamMimeType"] = propertyDef("cmis:contentStreamMimeType", "string")
	docProps["cmis:contentStreamFileName"] = propertyDef("cmis:contentStreamFileName", "string")

	folderProps := common()
	folderProps["cmis:path"] = propertyDef("cmis:path", "string")
	folderProps["cmis:parentId"] = propertyDef("cmis:parentId", "id")

	relProps := common()
	relProps["cmis:sourceId"] = propertyDef("cmis:sourceId", "id")
	relProps["cmis:targetId"] = propertyDef("cmis:targetId", "id")

	typeDef := func(id string, props map[string]any) map[string]any {
		return map[string]any{
			"id":                  id,
			"localName":           strings.TrimPrefix(id, "cmis:"),
			"displayName":         id,
			"queryName":           id,
			"baseId":              id,
			"creatable":           true,
			"fileable":            id != "cmis:relationship",
			"queryable":           true,
			"propertyDefinitions": props,
		}
	}

	doc := typeDef("cmis:document", docProps)
	doc["versionable"] = true
	doc["contentStreamAllowed"] = "allowed"

	return map[string]map[string]any{
		"cmis:document":     doc,
		"cmis:folder":       typeDef("cmis:folder", folderProps),
		"cmis:relationship": typeDef("cmis:relationship", relProps),
		"cmis:policy":       typeDef("cmis:policy", common()),
		"cmis:item":         typeDef("cmis:item", common()),
	}
}

func (r *Repository) typeChildren(parentID string) map[string]any {
	out := []any{}
	for _, id := range sortedTypeIDs(r.types) {
		def := r.types[id]
		parent, _ := def["parentId"].(string)
		if parentID == "" && parent == "" {
			out = append(out, def)
		} else if parentID != "" && parent == parentID {
			out = append(out, def)
		}
	}
	return map[string]any{
		"types":        out,
		"numItems":     json.Number(strconv.Itoa(len(out))),
		"hasMoreItems": false,
	}
}

func (r *Repository) typeDescendants(parentID string) []any {
	out := []any{}
	for _, id := range sortedTypeIDs(r.types) {
		def := r.types[id]
		parent, _ := def["parentId"].(string)
		match := (parentID == "" && parent == "") || (parentID != "" && parent == parentID)
		if !match {
			continue
		}
		out = append(out, map[string]any{
			"type":     def,
			"children": r.typeDescendants(id),
		})
	}
	return out
}

func sortedTypeIDs(types map[string]map[string]any) []string {
	ids := make([]string, 0, len(types))
	for id := range types {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
