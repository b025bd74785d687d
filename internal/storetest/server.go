// Package storetest provides an in-memory fake of the data store REST API and
// the identity provider endpoints for tests.
package storetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// timestampLayout has a fixed width so string order equals time order.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// ServiceKey is the credential the fake accepts for store requests.
const ServiceKey = "test-service-key"

// Row is a stored record.
type Row map[string]any

// Call records one request the fake received.
type Call struct {
	Method string
	Path   string
	Query  string
}

// User is an identity the fake auth endpoint knows about.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

type failure struct {
	status int
	body   string
}

// Server is the fake. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	tables   map[string][]Row
	tokens   map[string]User
	users    []User
	failures map[string][]failure
	calls    []Call
}

// New starts a fake server. Close it with Close.
func New() *Server {
	s := &Server{
		tables:   make(map[string][]Row),
		tokens:   make(map[string]User),
		failures: make(map[string][]failure),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// AddUser registers a user reachable through token.
func (s *Server) AddUser(token string, u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if token != "" {
		s.tokens[token] = u
	}
	s.users = append(s.users, u)
}

// Seed appends rows to table as-is.
func (s *Server) Seed(table string, rows ...Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], copyRow(r))
	}
}

// Rows returns a copy of the rows of table.
func (s *Server) Rows(table string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		out = append(out, copyRow(r))
	}
	return out
}

// FailNext makes the next request with method against table (or auth path
// such as "auth/v1/user") answer status with body.
func (s *Server) FailNext(method, table string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + table
	s.failures[key] = append(s.failures[key], failure{status: status, body: body})
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Mutations counts non-GET requests to the REST collections.
func (s *Server) Mutations() int {
	n := 0
	for _, c := range s.Calls() {
		if strings.HasPrefix(c.Path, "/rest/v1/") && c.Method != http.MethodGet {
			n++
		}
	}
	return n
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery})

	resource := strings.TrimPrefix(r.URL.Path, "/")
	if strings.HasPrefix(resource, "rest/v1/") {
		resource = strings.TrimPrefix(resource, "rest/v1/")
	}
	key := r.Method + " " + resource
	if queue := s.failures[key]; len(queue) > 0 {
		s.failures[key] = queue[1:]
		writeRaw(w, queue[0].status, queue[0].body)
		return
	}

	switch {
	case r.URL.Path == "/auth/v1/user":
		s.handleUser(w, r)
	case r.URL.Path == "/auth/v1/admin/users":
		s.handleListUsers(w, r)
	case strings.HasPrefix(r.URL.Path, "/rest/v1/"):
		if r.Header.Get("apikey") != ServiceKey || r.Header.Get("Authorization") != "Bearer "+ServiceKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
			return
		}
		s.handleRest(w, r, strings.TrimPrefix(r.URL.Path, "/rest/v1/"))
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
	}
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	u, ok := s.tokens[token]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "invalid JWT: unable to parse or verify signature"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "email": u.Email, "created_at": u.CreatedAt})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+ServiceKey {
		writeJSON(w, http.StatusForbidden, map[string]string{"msg": "User not allowed"})
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}

	start := (page - 1) * perPage
	users := make([]map[string]any, 0, perPage)
	for i := start; i < len(s.users) && i < start+perPage; i++ {
		u := s.users[i]
		users = append(users, map[string]any{"id": u.ID, "email": u.Email, "created_at": u.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleRest(w http.ResponseWriter, r *http.Request, table string) {
	params := r.URL.Query()
	filters := parseFilters(params)
	representation := strings.Contains(r.Header.Get("Prefer"), "return=representation")

	switch r.Method {
	case http.MethodGet:
		rows := s.match(table, filters)
		sortRows(rows, params.Get("order"))
		writeJSON(w, http.StatusOK, project(rows, params.Get("select")))

	case http.MethodPost:
		var incoming []Row
		if err := decodeBody(r.Body, &incoming); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		var stored []Row
		if conflict := params.Get("on_conflict"); conflict != "" {
			stored = s.upsert(table, conflict, incoming)
		} else {
			stored = s.insert(table, incoming)
		}
		if representation {
			writeJSON(w, http.StatusCreated, stored)
			return
		}
		w.WriteHeader(http.StatusCreated)

	case http.MethodPatch:
		var patch Row
		if err := decodeBody(r.Body, &patch); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		var updated []Row
		for _, row := range s.tables[table] {
			if matches(row, filters) {
				for k, v := range patch {
					row[k] = v
				}
				updated = append(updated, copyRow(row))
			}
		}
		if representation {
			writeJSON(w, http.StatusOK, nonNil(updated))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		var kept, deleted []Row
		for _, row := range s.tables[table] {
			if matches(row, filters) {
				deleted = append(deleted, row)
			} else {
				kept = append(kept, row)
			}
		}
		s.tables[table] = kept
		if representation {
			writeJSON(w, http.StatusOK, nonNil(deleted))
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

func (s *Server) insert(table string, incoming []Row) []Row {
	stored := make([]Row, 0, len(incoming))
	for _, row := range incoming {
		row = copyRow(row)
		if _, ok := row["id"]; !ok {
			row["id"] = uuid.NewString()
		}
		if _, ok := row["created_at"]; !ok && table == "projects" {
			// Strictly increasing so created_at ordering is deterministic.
			row["created_at"] = time.Now().UTC().Add(time.Duration(len(s.tables[table])) * time.Millisecond).Format(timestampLayout)
		}
		s.tables[table] = append(s.tables[table], row)
		stored = append(stored, copyRow(row))
	}
	return stored
}

func (s *Server) upsert(table, conflict string, incoming []Row) []Row {
	stored := make([]Row, 0, len(incoming))
	for _, row := range incoming {
		merged := false
		for _, existing := range s.tables[table] {
			if fmt.Sprint(existing[conflict]) == fmt.Sprint(row[conflict]) {
				for k, v := range row {
					existing[k] = v
				}
				stored = append(stored, copyRow(existing))
				merged = true
				break
			}
		}
		if !merged {
			stored = append(stored, s.insert(table, []Row{row})...)
		}
	}
	return stored
}

func (s *Server) match(table string, filters map[string]string) []Row {
	var out []Row
	for _, row := range s.tables[table] {
		if matches(row, filters) {
			out = append(out, copyRow(row))
		}
	}
	return out
}

func parseFilters(params map[string][]string) map[string]string {
	filters := make(map[string]string)
	for key, values := range params {
		switch key {
		case "select", "order", "on_conflict":
			continue
		}
		if len(values) > 0 && strings.HasPrefix(values[0], "eq.") {
			filters[key] = strings.TrimPrefix(values[0], "eq.")
		}
	}
	return filters
}

func matches(row Row, filters map[string]string) bool {
	for col, want := range filters {
		v, ok := row[col]
		if !ok || v == nil || fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}

func sortRows(rows []Row, order string) {
	if order == "" {
		return
	}
	terms := strings.Split(order, ",")
	sort.SliceStable(rows, func(i, j int) bool {
		for _, term := range terms {
			col, dir, _ := strings.Cut(term, ".")
			c := compare(rows[i][col], rows[j][col])
			if c == 0 {
				continue
			}
			if dir == "desc" {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compare(a, b any) int {
	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func project(rows []Row, sel string) []Row {
	out := make([]Row, 0, len(rows))
	if sel == "" || sel == "*" {
		return append(out, rows...)
	}
	cols := strings.Split(sel, ",")
	for _, row := range rows {
		p := Row{}
		for _, c := range cols {
			if v, ok := row[c]; ok {
				p[c] = v
			}
		}
		out = append(out, p)
	}
	return out
}

func decodeBody(body io.Reader, v any) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func copyRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func nonNil(rows []Row) []Row {
	if rows == nil {
		return []Row{}
	}
	return rows
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, _ := json.Marshal(v)
	writeRaw(w, status, string(data))
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
