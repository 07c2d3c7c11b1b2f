package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	identitydomain "github.com/zapdash/zapdash/internal/identity/domain"
	orgdomain "github.com/zapdash/zapdash/internal/organization/domain"
	"github.com/zapdash/zapdash/internal/registration/domain"
	"go.uber.org/zap"
)

type fakeIdentity struct {
	created  []string
	deleted  []snowflake.ID
	logins   int
	loginErr error
}

func (f *fakeIdentity) CreateAccount(ctx context.Context, req identitydomain.CreateAccountRequest) (*identitydomain.User, error) {
	f.created = append(f.created, req.Email)
	return &identitydomain.User{ID: snowflake.ID(200), Email: req.Email}, nil
}

func (f *fakeIdentity) DeleteAccount(ctx context.Context, userID snowflake.ID) error {
	f.deleted = append(f.deleted, userID)
	return nil
}

func (f *fakeIdentity) Login(ctx context.Context, req identitydomain.LoginRequest) (*identitydomain.LoginResult, error) {
	f.logins++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &identitydomain.LoginResult{
		User:      &identitydomain.User{ID: snowflake.ID(200), Email: req.Email},
		RawToken:  "session-token",
		ExpiresAt: time.Now().Add(time.Hour),
		SessionID: snowflake.ID(300),
	}, nil
}

func (f *fakeIdentity) Logout(ctx context.Context, rawToken string) error { return nil }

func (f *fakeIdentity) Authenticate(ctx context.Context, rawToken string) (*identitydomain.Session, error) {
	return nil, identitydomain.ErrInvalidSession
}

func (f *fakeIdentity) GetUser(ctx context.Context, userID snowflake.ID) (*identitydomain.User, error) {
	return nil, identitydomain.ErrUserNotFound
}

func (f *fakeIdentity) RevokeUserSessions(ctx context.Context, userID snowflake.ID) error {
	return nil
}

type fakeOrgService struct {
	resolution *orgdomain.Resolution
	resolveErr error
	lastName   string
}

func (f *fakeOrgService) Resolve(ctx context.Context, companyName string) (*orgdomain.Resolution, error) {
	f.lastName = companyName
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return f.resolution, nil
}

func (f *fakeOrgService) GetByID(ctx context.Context, id snowflake.ID) (*orgdomain.Organization, error) {
	return nil, orgdomain.ErrOrganizationNotFound
}

type fakeOrgRepo struct {
	orgdomain.Repository

	profiles  []*orgdomain.Profile
	createErr error
}

func (f *fakeOrgRepo) CreateProfile(ctx context.Context, profile *orgdomain.Profile) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.profiles = append(f.profiles, profile)
	return nil
}

func validRequest() domain.RegisterRequest {
	return domain.RegisterRequest{
		Email:       "alice@acme.test",
		Password:    "correct-horse",
		FullName:    "Alice Smith",
		CompanyName: "Acme Corp",
	}
}

func TestRegisterCreatesAccountProfileAndSession(t *testing.T) {
	identity := &fakeIdentity{}
	orgs := &fakeOrgService{resolution: &orgdomain.Resolution{OrgID: snowflake.ID(100), Role: orgdomain.RoleAdmin}}
	repo := &fakeOrgRepo{}

	svc := NewService(zap.NewNop(), identity, orgs, repo, nil)

	result, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, snowflake.ID(200), result.UserID)
	assert.Equal(t, snowflake.ID(100), result.OrgID)
	assert.Equal(t, orgdomain.RoleAdmin, result.Role)
	assert.Equal(t, "session-token", result.RawToken)

	require.Len(t, repo.profiles, 1)
	assert.Equal(t, snowflake.ID(200), repo.profiles[0].ID)
	assert.Equal(t, "Alice Smith", repo.profiles[0].FullName)
	assert.Equal(t, "Acme Corp", orgs.lastName)
	assert.Empty(t, identity.deleted)
}

func TestRegisterRejectsBlankFields(t *testing.T) {
	svc := NewService(zap.NewNop(), &fakeIdentity{}, &fakeOrgService{}, &fakeOrgRepo{}, nil)

	req := validRequest()
	req.FullName = "  "
	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidFullName)

	req = validRequest()
	req.CompanyName = ""
	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, orgdomain.ErrInvalidCompanyName)
}

func TestRegisterRollsBackAccountWhenResolveFails(t *testing.T) {
	identity := &fakeIdentity{}
	orgs := &fakeOrgService{resolveErr: errors.New("store down")}

	svc := NewService(zap.NewNop(), identity, orgs, &fakeOrgRepo{}, nil)

	_, err := svc.Register(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, []snowflake.ID{snowflake.ID(200)}, identity.deleted)
}

func TestRegisterRollsBackAccountWhenProfileInsertFails(t *testing.T) {
	identity := &fakeIdentity{}
	orgs := &fakeOrgService{resolution: &orgdomain.Resolution{OrgID: snowflake.ID(100), Role: orgdomain.RoleMember}}
	repo := &fakeOrgRepo{createErr: errors.New("constraint violation")}

	svc := NewService(zap.NewNop(), identity, orgs, repo, nil)

	_, err := svc.Register(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, []snowflake.ID{snowflake.ID(200)}, identity.deleted)
	assert.Zero(t, identity.logins, "no session for a failed registration")
}

func TestRegisterReturnsLoginFailureWithoutRollback(t *testing.T) {
	identity := &fakeIdentity{loginErr: identitydomain.ErrInvalidCredentials}
	orgs := &fakeOrgService{resolution: &orgdomain.Resolution{OrgID: snowflake.ID(100), Role: orgdomain.RoleAdmin}}
	repo := &fakeOrgRepo{}

	svc := NewService(zap.NewNop(), identity, orgs, repo, nil)

	_, err := svc.Register(context.Background(), validRequest())
	assert.ErrorIs(t, err, identitydomain.ErrInvalidCredentials)
	assert.Empty(t, identity.deleted, "account and profile survive a login hiccup")
	require.Len(t, repo.profiles, 1)
}
