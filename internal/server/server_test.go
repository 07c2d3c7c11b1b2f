package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/zapdash/zapdash/internal/config"
	identitydomain "github.com/zapdash/zapdash/internal/identity/domain"
	"github.com/zapdash/zapdash/internal/identity/session"
	orgdomain "github.com/zapdash/zapdash/internal/organization/domain"
	registrationdomain "github.com/zapdash/zapdash/internal/registration/domain"
	teamdomain "github.com/zapdash/zapdash/internal/team/domain"
	teardowndomain "github.com/zapdash/zapdash/internal/teardown/domain"
	"go.uber.org/zap"
)

type fakeRegService struct {
	called  bool
	lastReq registrationdomain.RegisterRequest
	result  *registrationdomain.RegisterResult
	err     error
}

func (f *fakeRegService) Register(ctx context.Context, req registrationdomain.RegisterRequest) (*registrationdomain.RegisterResult, error) {
	f.called = true
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeIdentityService struct {
	identitydomain.Service

	session *identitydomain.Session
	authErr error
}

func (f *fakeIdentityService) Authenticate(ctx context.Context, rawToken string) (*identitydomain.Session, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.session, nil
}

func (f *fakeIdentityService) Logout(ctx context.Context, rawToken string) error { return nil }

type fakeTeamService struct {
	updateErr error
	removeErr error
	lastRole  string
}

func (f *fakeTeamService) ListMembers(ctx context.Context, actingUserID snowflake.ID) ([]teamdomain.Member, error) {
	return []teamdomain.Member{{ID: "2", Email: "member@acme.test", Role: orgdomain.RoleMember}}, nil
}

func (f *fakeTeamService) UpdateMemberRole(ctx context.Context, actingUserID, targetProfileID snowflake.ID, newRole string) error {
	f.lastRole = newRole
	return f.updateErr
}

func (f *fakeTeamService) RemoveMember(ctx context.Context, actingUserID, targetProfileID snowflake.ID) error {
	return f.removeErr
}

type fakeTeardown struct {
	called bool
	err    error
}

func (f *fakeTeardown) Teardown(ctx context.Context, actingUserID snowflake.ID) error {
	f.called = true
	return f.err
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	return &Server{
		cfg:      config.Config{ListenAddr: ":0"},
		log:      zap.NewNop(),
		sessions: session.NewManager(config.Config{}),
	}
}

func (s *Server) testRouter() *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	s.engine = r
	s.RegisterAPIRoutes()
	return r
}

func doJSON(router *gin.Engine, method, path, body string, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: cookie})
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func authedServer(t *testing.T, userID int64) *Server {
	s := newTestServer(t)
	s.identitySvc = &fakeIdentityService{session: &identitydomain.Session{
		ID:        snowflake.ID(999),
		UserID:    snowflake.ID(userID),
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	return s
}

func TestRegisterHandlerSetsSessionCookie(t *testing.T) {
	s := newTestServer(t)
	reg := &fakeRegService{result: &registrationdomain.RegisterResult{
		UserID:    snowflake.ID(200),
		OrgID:     snowflake.ID(100),
		Role:      orgdomain.RoleAdmin,
		RawToken:  "session-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	s.regSvc = reg
	router := s.testRouter()

	resp := doJSON(router, http.MethodPost, "/api/v1/auth/register",
		`{"email":"alice@acme.test","password":"correct-horse","full_name":"Alice","company_name":"Acme"}`, "")

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if !reg.called {
		t.Fatal("expected registration service to be called")
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["role"] != orgdomain.RoleAdmin {
		t.Fatalf("expected admin role, got %v", body["role"])
	}

	cookies := resp.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == session.DefaultCookieName && c.Value == "session-token" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected session cookie to be set")
	}
}

func TestRegisterHandlerValidation(t *testing.T) {
	s := newTestServer(t)
	reg := &fakeRegService{}
	s.regSvc = reg
	router := s.testRouter()

	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"password":"correct-horse","full_name":"A","company_name":"Acme"}`},
		{"bad email", `{"email":"nope","password":"correct-horse","full_name":"A","company_name":"Acme"}`},
		{"short password", `{"email":"a@b.test","password":"short","full_name":"A","company_name":"Acme"}`},
		{"missing full name", `{"email":"a@b.test","password":"correct-horse","company_name":"Acme"}`},
		{"missing company", `{"email":"a@b.test","password":"correct-horse","full_name":"A"}`},
	}
	for _, tc := range cases {
		resp := doJSON(router, http.MethodPost, "/api/v1/auth/register", tc.body, "")
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, resp.Code)
		}
	}
	if reg.called {
		t.Fatal("expected registration service not to be called for invalid input")
	}
}

func TestRegisterHandlerDuplicateEmailConflicts(t *testing.T) {
	s := newTestServer(t)
	s.regSvc = &fakeRegService{err: identitydomain.ErrUserExists}
	router := s.testRouter()

	resp := doJSON(router, http.MethodPost, "/api/v1/auth/register",
		`{"email":"alice@acme.test","password":"correct-horse","full_name":"Alice","company_name":"Acme"}`, "")

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestAuthRequiredRejectsMissingCookie(t *testing.T) {
	s := authedServer(t, 1)
	s.teamSvc = &fakeTeamService{}
	router := s.testRouter()

	resp := doJSON(router, http.MethodGet, "/api/v1/team", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthRequiredRejectsDeadSession(t *testing.T) {
	s := newTestServer(t)
	s.identitySvc = &fakeIdentityService{authErr: identitydomain.ErrSessionExpired}
	s.teamSvc = &fakeTeamService{}
	router := s.testRouter()

	resp := doJSON(router, http.MethodGet, "/api/v1/team", "", "stale-token")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestListTeam(t *testing.T) {
	s := authedServer(t, 1)
	s.teamSvc = &fakeTeamService{}
	router := s.testRouter()

	resp := doJSON(router, http.MethodGet, "/api/v1/team", "", "token")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Members []teamdomain.Member `json:"members"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Members) != 1 || body.Members[0].Email != "member@acme.test" {
		t.Fatalf("unexpected members: %+v", body.Members)
	}
}

func TestUpdateMemberRoleSoleAdminConflicts(t *testing.T) {
	s := authedServer(t, 1)
	s.teamSvc = &fakeTeamService{updateErr: orgdomain.ErrSoleAdmin}
	router := s.testRouter()

	resp := doJSON(router, http.MethodPatch, "/api/v1/team/2/role", `{"role":"member"}`, "token")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestUpdateMemberRoleForbiddenForNonAdmin(t *testing.T) {
	s := authedServer(t, 2)
	s.teamSvc = &fakeTeamService{updateErr: orgdomain.ErrNotAdmin}
	router := s.testRouter()

	resp := doJSON(router, http.MethodPatch, "/api/v1/team/1/role", `{"role":"member"}`, "token")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestUpdateMemberRoleRejectsMalformedID(t *testing.T) {
	s := authedServer(t, 1)
	s.teamSvc = &fakeTeamService{}
	router := s.testRouter()

	resp := doJSON(router, http.MethodPatch, "/api/v1/team/not-a-number/role", `{"role":"member"}`, "token")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestRemoveMemberSelfRemovalForbidden(t *testing.T) {
	s := authedServer(t, 1)
	s.teamSvc = &fakeTeamService{removeErr: orgdomain.ErrSelfRemoval}
	router := s.testRouter()

	resp := doJSON(router, http.MethodDelete, "/api/v1/team/1", "", "token")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestTeardownClearsCookie(t *testing.T) {
	s := authedServer(t, 1)
	td := &fakeTeardown{}
	s.teardownSvc = td
	router := s.testRouter()

	resp := doJSON(router, http.MethodDelete, "/api/v1/organization", "", "token")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.Code, resp.Body.String())
	}
	if !td.called {
		t.Fatal("expected teardown to run")
	}

	var cleared bool
	for _, c := range resp.Result().Cookies() {
		if c.Name == session.DefaultCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected session cookie to be cleared")
	}
}

func TestTeardownCoAdminsConflict(t *testing.T) {
	s := authedServer(t, 1)
	s.teardownSvc = &fakeTeardown{err: orgdomain.ErrCoAdminsPresent}
	router := s.testRouter()

	resp := doJSON(router, http.MethodDelete, "/api/v1/organization", "", "token")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestTeardownStepFailureReturns500AndClearsCookie(t *testing.T) {
	s := authedServer(t, 1)
	s.teardownSvc = &fakeTeardown{err: &teardowndomain.StepError{
		Step:     teardowndomain.StepDeleteOrganization,
		EntityID: "100",
		Err:      context.DeadlineExceeded,
	}}
	router := s.testRouter()

	resp := doJSON(router, http.MethodDelete, "/api/v1/organization", "", "token")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if bytes.Contains(resp.Body.Bytes(), []byte("100")) {
		t.Fatal("entity ids must not leak into the response")
	}

	var cleared bool
	for _, c := range resp.Result().Cookies() {
		if c.Name == session.DefaultCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected session cookie to be cleared after partial teardown")
	}
}
