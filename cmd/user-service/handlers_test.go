package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-ecom/internal/httpx"
	"github.com/MikeMC777/ordenes-ecom/internal/metrics"
	"github.com/MikeMC777/ordenes-ecom/internal/user"
)

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
}

type stubRepo struct {
	users map[string]*user.User
}

func newStubRepo() *stubRepo { return &stubRepo{users: map[string]*user.User{}} }

func (s *stubRepo) Create(_ context.Context, u *user.User) error {
	for _, v := range s.users {
		if v.Email == u.Email {
			return user.ErrAlreadyExist
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubRepo) List(context.Context, int, int) ([]user.User, error) {
	out := []user.User{}
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubRepo) Update(_ context.Context, u *user.User, updatePassword bool) error {
	cur, ok := s.users[u.ID]
	if !ok {
		return user.ErrNotFound
	}
	if updatePassword {
		cur.PasswordHash = u.PasswordHash
		return nil
	}
	if u.Name != "" {
		cur.Name = u.Name
	}
	if u.Email != "" {
		cur.Email = u.Email
	}
	return nil
}

func (s *stubRepo) Delete(_ context.Context, id string) (bool, error) {
	_, ok := s.users[id]
	delete(s.users, id)
	return ok, nil
}

func do(r http.Handler, method, target, body, userID, role string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(httpx.HeaderUserID, userID)
		req.Header.Set(httpx.HeaderUserRole, role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newTestRouter(repo *stubRepo) *gin.Engine {
	return newRouter(user.NewService(repo), zap.NewNop(), metrics.New())
}

// signUp creates a user through the API and returns its id.
func signUp(t *testing.T, r http.Handler, email string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/users", `{"name":"Ana","email":"`+email+`","password":"s3cret-pass"}`, "", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("sign up status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		Message string    `json:"message"`
		User    user.User `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Message != "success" || got.User.ID == "" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	return got.User.ID
}

func TestCreateUser(t *testing.T) {
	r := newTestRouter(newStubRepo())
	signUp(t, r, "ana@example.com")

	w := do(r, http.MethodPost, "/users", `{"name":"Ana","email":"ana@example.com","password":"s3cret-pass"}`, "", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "passwordHash") {
		t.Fatalf("hash leaked: %s", w.Body.String())
	}
}

func TestCreateUser_Invalid(t *testing.T) {
	r := newTestRouter(newStubRepo())
	cases := map[string]string{
		"bad email":        `{"name":"Ana","email":"nope","password":"s3cret-pass"}`,
		"short password":   `{"name":"Ana","email":"a@b.co","password":"short"}`,
		"admin self-grant": `{"name":"Ana","email":"a@b.co","password":"s3cret-pass","role":"admin"}`,
		"seller no info":   `{"name":"Ana","email":"a@b.co","password":"s3cret-pass","role":"seller"}`,
	}
	for name, body := range cases {
		if w := do(r, http.MethodPost, "/users", body, "", ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d body=%s", name, w.Code, w.Body.String())
		}
	}
}

func TestCreateSeller_MissingFieldMessage(t *testing.T) {
	r := newTestRouter(newStubRepo())
	body := `{"name":"Shop","email":"s@b.co","password":"s3cret-pass","role":"seller","sellerInfo":{"businessName":"Acme"}}`
	w := do(r, http.MethodPost, "/users", body, "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Missing required seller field: businessAddress") {
		t.Fatalf("unexpected message: %s", w.Body.String())
	}
}

func TestListUsers_AdminOnly(t *testing.T) {
	r := newTestRouter(newStubRepo())
	signUp(t, r, "ana@example.com")

	if w := do(r, http.MethodGet, "/users", "", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/users", "", "u1", httpx.RoleUser); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	w := do(r, http.MethodGet, "/users", "", "root", httpx.RoleAdmin)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		Users []user.User `json:"users"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if len(got.Users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(got.Users))
	}
}

func TestUpdateUser_SelfOrAdmin(t *testing.T) {
	repo := newStubRepo()
	r := newTestRouter(repo)
	id := signUp(t, r, "ana@example.com")

	if w := do(r, http.MethodPut, "/users/"+id, `{"name":"Ana B"}`, "someone-else", httpx.RoleUser); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/users/"+id, `{"name":"Ana B"}`, id, httpx.RoleUser); w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if repo.users[id].Name != "Ana B" {
		t.Fatalf("name not updated: %+v", repo.users[id])
	}
	if w := do(r, http.MethodPut, "/users/missing", `{"name":"X Y"}`, "root", httpx.RoleAdmin); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestChangePassword(t *testing.T) {
	repo := newStubRepo()
	r := newTestRouter(repo)
	id := signUp(t, r, "ana@example.com")
	before := repo.users[id].PasswordHash

	w := do(r, http.MethodPatch, "/users/"+id+"/password", `{"currentPassword":"wrong-pass","newPassword":"n3w-secret"}`, id, httpx.RoleUser)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}

	w = do(r, http.MethodPatch, "/users/"+id+"/password", `{"currentPassword":"s3cret-pass","newPassword":"s3cret-pass"}`, id, httpx.RoleUser)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unchanged password, got %d", w.Code)
	}

	w = do(r, http.MethodPatch, "/users/"+id+"/password", `{"currentPassword":"s3cret-pass","newPassword":"n3w-secret"}`, id, httpx.RoleUser)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if repo.users[id].PasswordHash == before || !user.CheckPassword(repo.users[id].PasswordHash, "n3w-secret") {
		t.Fatalf("password hash not replaced")
	}
}

func TestDeleteUser(t *testing.T) {
	r := newTestRouter(newStubRepo())
	id := signUp(t, r, "ana@example.com")

	if w := do(r, http.MethodDelete, "/users/"+id, "", "root", httpx.RoleAdmin); w.Code != http.StatusNoContent {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodDelete, "/users/"+id, "", "root", httpx.RoleAdmin); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
