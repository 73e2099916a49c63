package mock

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/Ratio1/couch_sdk_go/internal/devseed"
)

func init() {
	chi.RegisterMethod("COPY")
}

var validDBName = regexp.MustCompile(`^[a-z][a-z0-9_$()+/-]*$`)

type document struct {
	gen     int
	rev     string
	data    []byte
	deleted bool
}

type database struct {
	docs        map[string]*document
	updateSeq   int
	compactions int
}

// Server is an in-memory stand-in for the document database. It serves the
// HTTP surface used by the couch package and can be mounted with
// httptest.NewServer or used directly as an http.RoundTripper.
type Server struct {
	mu     sync.RWMutex
	dbs    map[string]*database
	router chi.Router
	newRev func(gen int) string
}

// Option configures the server.
type Option func(*Server)

// WithRevisionFunc overrides revision generation (useful in tests).
func WithRevisionFunc(fn func(gen int) string) Option {
	return func(s *Server) {
		if fn != nil {
			s.newRev = fn
		}
	}
}

// New creates a server with no databases.
func New(opts ...Option) *Server {
	s := &Server{
		dbs: make(map[string]*database),
		newRev: func(gen int) string {
			return strconv.Itoa(gen) + "-" + strings.ToLower(ulid.MustNew(ulid.Now(), rand.Reader).String())
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/{db}", s.handleInfo)
	r.Put("/{db}", s.handleCreate)
	r.Delete("/{db}", s.handleDrop)
	r.Post("/{db}/_compact", s.handleCompact)
	r.Get("/{db}/_all_docs", s.handleAllDocs)
	r.Post("/{db}/_all_docs", s.handleAllDocsKeys)
	r.Get("/{db}/*", s.handleGetDoc)
	r.Put("/{db}/*", s.handlePutDoc)
	r.Delete("/{db}/*", s.handleDeleteDoc)
	r.MethodFunc("COPY", "/{db}/*", s.handleCopyDoc)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "missing")
	})
	s.router = r
	return s
}

// Seed creates the listed databases (if missing) and stores their documents
// as first revisions.
func (s *Server) Seed(entries []devseed.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if !validDBName.MatchString(e.Name) {
			return fmt.Errorf("mock couch: illegal database name %q", e.Name)
		}
		db := s.dbs[e.Name]
		if db == nil {
			db = &database{docs: make(map[string]*document)}
			s.dbs[e.Name] = db
		}
		for _, raw := range e.Docs {
			id, err := devseed.DocID(raw)
			if err != nil {
				return fmt.Errorf("mock couch: seed %s: %w", e.Name, err)
			}
			if _, err := s.store(db, id, raw); err != nil {
				return fmt.Errorf("mock couch: seed %s/%s: %w", e.Name, id, err)
			}
		}
	}
	return nil
}

// Compactions reports how many compactions were requested for db.
func (s *Server) Compactions(db string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d := s.dbs[db]; d != nil {
		return d.compactions
	}
	return 0
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RoundTrip implements http.RoundTripper by serving the request in-process.
func (s *Server) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	in := req.Clone(req.Context())
	if in.Body == nil {
		in.Body = http.NoBody
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, in)
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	name, ok := dbName(w, r)
	if !ok {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	db := s.dbs[name]
	if db == nil {
		writeMissingDB(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"db_name":         name,
		"doc_count":       db.liveCount(),
		"update_seq":      db.updateSeq,
		"compact_running": false,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	name, ok := dbName(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dbs[name] != nil {
		writeError(w, http.StatusPreconditionFailed, "file_exists", "The database could not be created, the file already exists.")
		return
	}
	s.dbs[name] = &database{docs: make(map[string]*document)}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	name, ok := dbName(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dbs[name] == nil {
		writeMissingDB(w)
		return
	}
	delete(s.dbs, name)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCompact(w http.ResponseWriter, r *http.Request) {
	name, ok := dbName(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.dbs[name]
	if db == nil {
		writeMissingDB(w)
		return
	}
	db.compactions++
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

type row struct {
	ID    string          `json:"id,omitempty"`
	Key   string          `json:"key"`
	Value *rowValue       `json:"value,omitempty"`
	Doc   json.RawMessage `json:"doc,omitempty"`
	Error string          `json:"error,omitempty"`
}

type rowValue struct {
	Rev     string `json:"rev"`
	Deleted bool   `json:"deleted,omitempty"`
}

func (s *Server) handleAllDocs(w http.ResponseWriter, r *http.Request) {
	name, ok := dbName(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit := -1
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "query_parse_error", "Invalid value for integer: "+strconv.Quote(v))
			return
		}
		limit = n
	}
	includeDocs := q.Get("include_docs") == "true"
	startKey, err := parseKey(q.Get("startkey"), q.Has("startkey"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid_json")
		return
	}
	endKey, err := parseKey(q.Get("endkey"), q.Has("endkey"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid_json")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	db := s.dbs[name]
	if db == nil {
		writeMissingDB(w)
		return
	}

	ids := db.liveIDs()
	start := 0
	if q.Has("startkey") {
		start = lowerBound(ids, startKey)
	}
	end := len(ids)
	if q.Has("endkey") {
		end = upperBound(ids, endKey)
	}
	if end < start {
		end = start
	}
	if limit >= 0 && start+limit < end {
		end = start + limit
	}

	rows := make([]row, 0, end-start)
	for _, id := range ids[start:end] {
		doc := db.docs[id]
		rw := row{ID: id, Key: id, Value: &rowValue{Rev: doc.rev}}
		if includeDocs {
			rw.Doc = doc.data
		}
		rows = append(rows, rw)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_rows": len(ids),
		"offset":     start,
		"rows":       rows,
	})
}

func (s *Server) handleAllDocsKeys(w http.ResponseWriter, r *http.Request) {
	name, ok := dbName(w, r)
	if !ok {
		return
	}
	var payload struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Keys == nil {
		writeError(w, http.StatusBadRequest, "bad_request", "`keys` member must exist.")
		return
	}
	includeDocs := r.URL.Query().Get("include_docs") == "true"

	s.mu.RLock()
	defer s.mu.RUnlock()
	db := s.dbs[name]
	if db == nil {
		writeMissingDB(w)
		return
	}

	rows := make([]row, 0, len(payload.Keys))
	for _, key := range payload.Keys {
		doc := db.docs[key]
		switch {
		case doc == nil:
			rows = append(rows, row{Key: key, Error: "not_found"})
		case doc.deleted:
			rows = append(rows, row{ID: key, Key: key, Value: &rowValue{Rev: doc.rev, Deleted: true}, Doc: json.RawMessage("null")})
		default:
			rw := row{ID: key, Key: key, Value: &rowValue{Rev: doc.rev}}
			if includeDocs {
				rw.Doc = doc.data
			}
			rows = append(rows, rw)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_rows": db.liveCount(),
		"offset":     0,
		"rows":       rows,
	})
}

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	name, id, ok := docTarget(w, r)
	if !ok {
		return
	}
	if id == "" {
		s.handleInfo(w, r)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	db := s.dbs[name]
	if db == nil {
		writeMissingDB(w)
		return
	}
	doc := db.docs[id]
	switch {
	case doc == nil:
		writeError(w, http.StatusNotFound, "not_found", "missing")
	case doc.deleted:
		writeError(w, http.StatusNotFound, "not_found", "deleted")
	case r.URL.Query().Has("rev") && r.URL.Query().Get("rev") != doc.rev:
		writeError(w, http.StatusNotFound, "not_found", "missing")
	default:
		writeRaw(w, http.StatusOK, doc.data)
	}
}

func (s *Server) handlePutDoc(w http.ResponseWriter, r *http.Request) {
	name, id, ok := docTarget(w, r)
	if !ok {
		return
	}
	if id == "" {
		s.handleCreate(w, r)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	fields, err := decodeObject(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid UTF-8 JSON")
		return
	}
	rev := r.URL.Query().Get("rev")
	if raw, ok := fields["_rev"]; ok {
		if err := json.Unmarshal(raw, &rev); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid rev format")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.dbs[name]
	if db == nil {
		writeMissingDB(w)
		return
	}
	if conflicts(db.docs[id], rev) {
		writeConflict(w)
		return
	}
	doc, err := s.store(db, id, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if r.URL.Query().Get("batch") == "ok" {
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true, "id": id})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id, "rev": doc.rev})
}

func (s *Server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	name, id, ok := docTarget(w, r)
	if !ok {
		return
	}
	if id == "" {
		s.handleDrop(w, r)
		return
	}
	rev := r.URL.Query().Get("rev")

	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.dbs[name]
	if db == nil {
		writeMissingDB(w)
		return
	}
	doc := db.docs[id]
	if doc == nil || doc.deleted {
		writeError(w, http.StatusNotFound, "not_found", "missing")
		return
	}
	if rev != doc.rev {
		writeConflict(w)
		return
	}
	doc.gen++
	doc.rev = s.newRev(doc.gen)
	doc.deleted = true
	doc.data = mustMarshal(map[string]any{"_id": id, "_rev": doc.rev, "_deleted": true})
	db.updateSeq++
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id, "rev": doc.rev})
}

func (s *Server) handleCopyDoc(w http.ResponseWriter, r *http.Request) {
	name, id, ok := docTarget(w, r)
	if !ok {
		return
	}
	dest := r.Header.Get("Destination")
	if id == "" || dest == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "Destination header is mandatory for COPY.")
		return
	}
	destID, destRev := dest, ""
	if i := strings.Index(dest, "?"); i >= 0 {
		destID = dest[:i]
		if q, err := url.ParseQuery(dest[i+1:]); err == nil {
			destRev = q.Get("rev")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	db := s.dbs[name]
	if db == nil {
		writeMissingDB(w)
		return
	}
	src := db.docs[id]
	if src == nil || src.deleted {
		writeError(w, http.StatusNotFound, "not_found", "missing")
		return
	}
	if q := r.URL.Query(); q.Has("rev") && q.Get("rev") != src.rev {
		writeError(w, http.StatusNotFound, "not_found", "missing")
		return
	}
	if conflicts(db.docs[destID], destRev) {
		writeConflict(w)
		return
	}
	doc, err := s.store(db, destID, src.data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": destID, "rev": doc.rev})
}

// store writes body as the next revision of id. Callers hold s.mu.
func (s *Server) store(db *database, id string, body []byte) (*document, error) {
	fields, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	doc := db.docs[id]
	if doc == nil {
		doc = &document{}
		db.docs[id] = doc
	}
	doc.gen++
	doc.rev = s.newRev(doc.gen)
	doc.deleted = false
	fields["_id"] = mustMarshal(id)
	fields["_rev"] = mustMarshal(doc.rev)
	doc.data = mustMarshal(fields)
	db.updateSeq++
	return doc, nil
}

// conflicts reports whether writing with rev would lose an update.
func conflicts(existing *document, rev string) bool {
	if existing == nil || existing.deleted {
		return rev != "" && (existing == nil || rev != existing.rev)
	}
	return rev != existing.rev
}

func (db *database) liveIDs() []string {
	ids := make([]string, 0, len(db.docs))
	for id, doc := range db.docs {
		if !doc.deleted {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (db *database) liveCount() int {
	n := 0
	for _, doc := range db.docs {
		if !doc.deleted {
			n++
		}
	}
	return n
}

// rangeKey is a decoded startkey or endkey. Document ids are strings, so
// only the collation class of any other JSON value matters: null, booleans
// and numbers sort before every string, arrays and objects after.
type rangeKey struct {
	class int
	str   string
}

// parseKey decodes a key query parameter, which must be JSON.
func parseKey(raw string, present bool) (rangeKey, error) {
	if !present {
		return rangeKey{}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return rangeKey{}, err
	}
	switch v := v.(type) {
	case string:
		return rangeKey{str: v}, nil
	case []any, map[string]any:
		return rangeKey{class: 1}, nil
	default:
		return rangeKey{class: -1}, nil
	}
}

// lowerBound returns the index of the first id collating at or after k.
func lowerBound(ids []string, k rangeKey) int {
	switch k.class {
	case -1:
		return 0
	case 1:
		return len(ids)
	}
	return sort.SearchStrings(ids, k.str)
}

// upperBound returns the index just past the last id collating at or before k.
func upperBound(ids []string, k rangeKey) int {
	switch k.class {
	case -1:
		return 0
	case 1:
		return len(ids)
	}
	return sort.Search(len(ids), func(i int) bool { return ids[i] > k.str })
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &fields); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("document must be a JSON object")
	}
	return fields, nil
}

func dbName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := routeParam(r, "db")
	if !validDBName.MatchString(name) {
		writeError(w, http.StatusInternalServerError, "illegal_database_name",
			"Name: '"+name+"'. Only lowercase characters (a-z), digits (0-9), and any of the characters _, $, (, ), +, -, and / are allowed. Must begin with a letter.")
		return "", false
	}
	return name, true
}

func docTarget(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	name, ok := dbName(w, r)
	if !ok {
		return "", "", false
	}
	return name, routeParam(r, "*"), true
}

// routeParam undoes the escaping chi leaves in place when it routed on RawPath.
func routeParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func writeMissingDB(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not_found", "Database does not exist.")
}

func writeConflict(w http.ResponseWriter) {
	writeError(w, http.StatusConflict, "conflict", "Document update conflict.")
}

func writeError(w http.ResponseWriter, status int, typ, reason string) {
	writeJSON(w, status, map[string]string{"error": typ, "reason": reason})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	writeRaw(w, status, mustMarshal(v))
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n"))
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("mock couch: marshal: %v", err))
	}
	return data
}
