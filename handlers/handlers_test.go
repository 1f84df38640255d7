package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "tasklist/docs"
	"tasklist/handlers"
	"tasklist/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *store.Memory
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := store.NewMemory()
	h := handlers.New(s, nil, nil, nil)
	return &testServer{t: t, router: handlers.NewRouter(h, []string{"*"}), store: s}
}

func (ts *testServer) do(method, target string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			ts.t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func (ts *testServer) createUser(name, email, password string) handlers.UserView {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/user", map[string]string{"name": name, "email": email, "password": password})
	if rec.Code != http.StatusOK {
		ts.t.Fatalf("POST /user = %d %s, want 200", rec.Code, rec.Body.String())
	}
	return decode[handlers.UserView](ts.t, rec)
}

func (ts *testServer) createTask(name, status, ownerEmail string) handlers.TaskView {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/task", map[string]string{
		"name": name, "description": "...", "status": status, "ownerEmail": ownerEmail,
	})
	if rec.Code != http.StatusOK {
		ts.t.Fatalf("POST /task = %d %s, want 200", rec.Code, rec.Body.String())
	}
	return decode[handlers.TaskView](ts.t, rec)
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)

	ana := ts.createUser("Ana", "ana@x.com", "p1")
	if ana.Name != "Ana" || ana.Email != "ana@x.com" || ana.ID == 0 {
		t.Fatalf("created user = %+v", ana)
	}

	rec := ts.do(http.MethodPost, "/task", map[string]string{
		"name": "Write docs", "description": "...", "status": "Ready", "userEmail": "ana@x.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /task = %d %s, want 200", rec.Code, rec.Body.String())
	}
	task := decode[handlers.TaskView](t, rec)
	if task.ID != 1 || task.Owner != ana.ID || task.Status != "Ready" {
		t.Fatalf("created task = %+v", task)
	}

	rec = ts.do(http.MethodGet, fmt.Sprintf("/tasks?id=%d", ana.ID), nil)
	list := decode[handlers.TaskListResponse](t, rec)
	if rec.Code != http.StatusOK || len(list.Tasks) != 1 || list.Tasks[0].Name != "Write docs" {
		t.Fatalf("GET /tasks = %d %+v", rec.Code, list)
	}

	rec = ts.do(http.MethodPut, "/task", map[string]any{"id": 1, "status": "Done"})
	moved := decode[handlers.TaskView](t, rec)
	if rec.Code != http.StatusOK || moved.Status != "Done" {
		t.Fatalf("PUT /task = %d %+v", rec.Code, moved)
	}

	rec = ts.do(http.MethodGet, fmt.Sprintf("/tasks/status?id=%d", ana.ID), nil)
	counts := decode[map[string]int](t, rec)
	want := map[string]int{"Ready": 0, "Doing": 0, "Done": 1}
	if rec.Code != http.StatusOK || len(counts) != len(want) {
		t.Fatalf("GET /tasks/status = %d %v, want %v", rec.Code, counts, want)
	}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("counts[%s] = %d, want %d", k, counts[k], v)
		}
	}
}

func TestAddTask(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser("Ana", "ana@x.com", "p1")
	ts.createTask("Write docs", "Ready", "ana@x.com")

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{
			name:       "Duplicate name should conflict",
			body:       map[string]string{"name": "Write docs", "status": "Doing", "ownerEmail": "ana@x.com"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "Duplicate name with unknown owner should still conflict",
			body:       map[string]string{"name": "Write docs", "status": "Done", "ownerEmail": "nobody@x.com"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "Unknown owner should be not found",
			body:       map[string]string{"name": "Fresh", "status": "Ready", "ownerEmail": "nobody@x.com"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Status outside the enumeration should be rejected",
			body:       map[string]string{"name": "Odd", "status": "Blocked", "ownerEmail": "ana@x.com"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Missing owner should be rejected",
			body:       map[string]string{"name": "Nobody's", "status": "Ready"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Name with quotes should be created",
			body:       map[string]string{"name": `Ana's "quoted" <report>`, "status": "Ready", "ownerEmail": "ana@x.com"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "Malformed JSON should be rejected",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Valid task should be created",
			body:       map[string]string{"name": "Review PR", "status": "Doing", "ownerEmail": "ana@x.com"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/task", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("POST /task = %d %s, want %d", rec.Code, rec.Body.String(), tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				body := decode[handlers.ErrorResponse](t, rec)
				if body.Message == "" {
					t.Errorf("error body %s has no message", rec.Body.String())
				}
			}
		})
	}

	msg := decode[handlers.ErrorResponse](t, ts.do(http.MethodPost, "/task",
		map[string]string{"name": "Write docs", "status": "Ready", "ownerEmail": "ana@x.com"}))
	if want := "Task with the name 'Write docs' already exists."; msg.Message != want {
		t.Errorf("conflict message = %q, want %q", msg.Message, want)
	}
}

func TestListTasks(t *testing.T) {
	ts := newTestServer(t)
	ana := ts.createUser("Ana", "ana@x.com", "p1")
	bo := ts.createUser("Bo", "bo@x.com", "p2")
	ts.createTask("Ana 1", "Ready", "ana@x.com")
	ts.createTask("Bo 1", "Doing", "bo@x.com")
	ts.createTask("Ana 2", "Done", "ana@x.com")
	empty := ts.createUser("Cy", "cy@x.com", "p3")

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantNames  []string
	}{
		{"Owner tasks are listed in id order", fmt.Sprintf("/tasks?ownerId=%d", ana.ID), http.StatusOK, []string{"Ana 1", "Ana 2"}},
		{"id is accepted as owner alias", fmt.Sprintf("/tasks?id=%d", bo.ID), http.StatusOK, []string{"Bo 1"}},
		{"Owner without tasks gets an empty list", fmt.Sprintf("/tasks?ownerId=%d", empty.ID), http.StatusOK, []string{}},
		{"Unknown owner gets an empty list", "/tasks?ownerId=999", http.StatusOK, []string{}},
		{"Missing owner is rejected", "/tasks", http.StatusBadRequest, nil},
		{"Non-numeric owner is rejected", "/tasks?ownerId=ana", http.StatusBadRequest, nil},
		{"Negative owner is rejected", "/tasks?ownerId=-1", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, tt.target, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("GET %s = %d %s, want %d", tt.target, rec.Code, rec.Body.String(), tt.wantStatus)
			}
			if tt.wantNames == nil {
				return
			}
			if !strings.Contains(rec.Body.String(), `"tasks":[`) {
				t.Fatalf("body %s does not carry a tasks array", rec.Body.String())
			}
			list := decode[handlers.TaskListResponse](t, rec)
			if len(list.Tasks) != len(tt.wantNames) {
				t.Fatalf("got %d tasks, want %d", len(list.Tasks), len(tt.wantNames))
			}
			for i, name := range tt.wantNames {
				if list.Tasks[i].Name != name {
					t.Errorf("tasks[%d] = %q, want %q", i, list.Tasks[i].Name, name)
				}
			}
		})
	}
}

func TestMoveTask(t *testing.T) {
	ts := newTestServer(t)
	ana := ts.createUser("Ana", "ana@x.com", "p1")
	task := ts.createTask("Write docs", "Ready", "ana@x.com")

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"Missing task should be not found", map[string]any{"id": 42, "status": "Done"}, http.StatusNotFound},
		{"Invalid status should be rejected", map[string]any{"id": task.ID, "status": "Archived"}, http.StatusBadRequest},
		{"Missing id should be rejected", map[string]any{"status": "Done"}, http.StatusBadRequest},
		{"Ready to Done should succeed", map[string]any{"id": task.ID, "status": "Done"}, http.StatusOK},
		{"Done back to Ready should succeed", map[string]any{"id": task.ID, "status": "Ready"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPut, "/task", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("PUT /task = %d %s, want %d", rec.Code, rec.Body.String(), tt.wantStatus)
			}
		})
	}

	// Failed updates must leave the task untouched.
	list := decode[handlers.TaskListResponse](t, ts.do(http.MethodGet, fmt.Sprintf("/tasks?ownerId=%d", ana.ID), nil))
	if len(list.Tasks) != 1 || list.Tasks[0].Status != "Ready" {
		t.Fatalf("tasks after updates = %+v", list.Tasks)
	}
}

func TestDeleteTask(t *testing.T) {
	ts := newTestServer(t)
	ana := ts.createUser("Ana", "ana@x.com", "p1")
	task := ts.createTask("Write docs", "Ready", "ana@x.com")
	ts.createTask("Keep me", "Doing", "ana@x.com")

	target := fmt.Sprintf("/task?id=%d", task.ID)
	rec := ts.do(http.MethodDelete, target, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE %s = %d %s, want 200", target, rec.Code, rec.Body.String())
	}
	if got := decode[handlers.MessageResponse](t, rec).Message; got != "Task 'Write docs' deleted successfully" {
		t.Errorf("message = %q", got)
	}

	list := decode[handlers.TaskListResponse](t, ts.do(http.MethodGet, fmt.Sprintf("/tasks?ownerId=%d", ana.ID), nil))
	for _, v := range list.Tasks {
		if v.ID == task.ID {
			t.Fatalf("deleted task %d still listed", task.ID)
		}
	}
	if len(list.Tasks) != 1 {
		t.Fatalf("got %d tasks after delete, want 1", len(list.Tasks))
	}

	if rec := ts.do(http.MethodDelete, target, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("repeated DELETE = %d, want 404", rec.Code)
	}
	if rec := ts.do(http.MethodDelete, "/task", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("DELETE without id = %d, want 400", rec.Code)
	}
}

func TestTaskStatusCounts(t *testing.T) {
	ts := newTestServer(t)
	ana := ts.createUser("Ana", "ana@x.com", "p1")
	bo := ts.createUser("Bo", "bo@x.com", "p2")
	ts.createTask("a", "Ready", "ana@x.com")
	ts.createTask("b", "Ready", "ana@x.com")
	ts.createTask("c", "Doing", "ana@x.com")
	ts.createTask("d", "Done", "bo@x.com")

	tests := []struct {
		name  string
		owner int64
		want  handlers.StatusCountsResponse
	}{
		{"Counts are scoped to the owner", ana.ID, handlers.StatusCountsResponse{Ready: 2, Doing: 1, Done: 0}},
		{"Other owner", bo.ID, handlers.StatusCountsResponse{Done: 1}},
		{"Owner without tasks has all zero", 999, handlers.StatusCountsResponse{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, fmt.Sprintf("/tasks/status?ownerId=%d", tt.owner), nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("GET /tasks/status = %d %s", rec.Code, rec.Body.String())
			}
			raw := decode[map[string]int](t, rec)
			if len(raw) != 3 {
				t.Fatalf("got keys %v, want exactly Ready, Doing, Done", raw)
			}
			if got := decode[handlers.StatusCountsResponse](t, rec); got != tt.want {
				t.Errorf("counts = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRegisterUser(t *testing.T) {
	ts := newTestServer(t)
	ts.createUser("Ana", "ana@x.com", "p1")

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"Duplicate email should conflict", map[string]string{"name": "Other", "email": "ana@x.com", "password": "p2"}, http.StatusConflict},
		{"Invalid email should be rejected", map[string]string{"name": "Bo", "email": "not-an-email", "password": "p2"}, http.StatusBadRequest},
		{"Missing password should be rejected", map[string]string{"name": "Bo", "email": "bo@x.com"}, http.StatusBadRequest},
		{"Blank name should be rejected", map[string]string{"name": "   ", "email": "bo@x.com", "password": "p2"}, http.StatusBadRequest},
		{"Valid user should be created", map[string]string{"name": "Bo", "email": "bo@x.com", "password": "p2"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/user", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("POST /user = %d %s, want %d", rec.Code, rec.Body.String(), tt.wantStatus)
			}
			if rec.Code == http.StatusOK && strings.Contains(strings.ToLower(rec.Body.String()), "password") {
				t.Errorf("response %s carries a password field", rec.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ana := ts.createUser("Ana", "ana@x.com", "p1")

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{"Correct credentials should succeed", map[string]string{"email": "ana@x.com", "password": "p1"}, http.StatusOK},
		{"Wrong password should be not found", map[string]string{"email": "ana@x.com", "password": "p2"}, http.StatusNotFound},
		{"Unknown email should be not found", map[string]string{"email": "bo@x.com", "password": "p1"}, http.StatusNotFound},
		{"Missing password should be rejected", map[string]string{"email": "ana@x.com"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/user/login", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("POST /user/login = %d %s, want %d", rec.Code, rec.Body.String(), tt.wantStatus)
			}
			if strings.Contains(rec.Body.String(), "p1") || strings.Contains(strings.ToLower(rec.Body.String()), "password_hash") {
				t.Errorf("response %s leaks credentials", rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			got := decode[handlers.LoginResponse](t, rec)
			if got.User != ana {
				t.Errorf("login user = %+v, want %+v", got.User, ana)
			}
		})
	}
}

func TestMiscRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/swagger/index.html" {
		t.Errorf("GET / = %d Location %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = ts.do(http.MethodGet, "/swagger-doc.json", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"/tasks/status"`) {
		t.Errorf("GET /swagger-doc.json = %d, missing task routes", rec.Code)
	}

	rec = ts.do(http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response is missing X-Request-ID")
	}
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		callerID string
		wantKept bool
	}{
		{"Caller id is echoed", "abc-123", true},
		{"Id at the length limit is echoed", strings.Repeat("a", 64), true},
		{"Overlong id is replaced", strings.Repeat("a", 65), false},
		{"Id with markup is replaced", "<script>", false},
		{"Id with spaces is replaced", "abc 123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("X-Request-ID", tt.callerID)
			rec := httptest.NewRecorder()
			ts.router.ServeHTTP(rec, req)

			got := rec.Header().Get("X-Request-ID")
			if tt.wantKept && got != tt.callerID {
				t.Errorf("X-Request-ID = %q, want %q", got, tt.callerID)
			}
			if !tt.wantKept {
				if _, err := uuid.Parse(got); err != nil || got == tt.callerID {
					t.Errorf("X-Request-ID = %q, want a generated uuid", got)
				}
			}
		})
	}
}
