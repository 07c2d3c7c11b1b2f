package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapdash/zapdash/internal/organization/domain"
	"github.com/zapdash/zapdash/internal/organization/repository"
	dbpkg "github.com/zapdash/zapdash/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	conn, err := dbpkg.NewTest(t.Name())
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Organization{}, &domain.Profile{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(zap.NewNop(), repository.NewRepository(conn), node)
}

func TestResolveFirstRegistrantBecomesAdmin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Resolve(ctx, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.Role)
	assert.NotZero(t, res.OrgID)

	org, err := svc.GetByID(ctx, res.OrgID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", org.Name)
	assert.Equal(t, "acme-corp", org.Slug)
}

func TestResolveSecondRegistrantJoinsAsMember(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, "Acme Corp")
	require.NoError(t, err)

	second, err := svc.Resolve(ctx, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, first.OrgID, second.OrgID)
	assert.Equal(t, domain.RoleMember, second.Role)
}

func TestResolveMatchesCaseInsensitively(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, "Acme Corp")
	require.NoError(t, err)

	for _, name := range []string{"acme corp", "ACME CORP", "  Acme Corp "} {
		res, err := svc.Resolve(ctx, name)
		require.NoError(t, err, "resolve %q", name)
		assert.Equal(t, first.OrgID, res.OrgID)
		assert.Equal(t, domain.RoleMember, res.Role)
	}
}

func TestResolveRejectsBlankName(t *testing.T) {
	svc := newTestService(t)

	for _, name := range []string{"", "   ", "\t"} {
		_, err := svc.Resolve(context.Background(), name)
		assert.ErrorIs(t, err, domain.ErrInvalidCompanyName)
	}
}

// raceRepo simulates a concurrent registrant winning the organization insert:
// the first lookup misses, the insert hits the unique index, and the
// follow-up lookup finds the winner's row.
type raceRepo struct {
	domain.Repository

	winner  *domain.Organization
	lookups int
}

func (r *raceRepo) FindOrganizationByName(ctx context.Context, name string) (*domain.Organization, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, domain.ErrOrganizationNotFound
	}
	return r.winner, nil
}

func (r *raceRepo) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	return gorm.ErrDuplicatedKey
}

func TestResolveLostInsertRaceCollapsesToMember(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := &raceRepo{winner: &domain.Organization{ID: snowflake.ID(77), Name: "Acme"}}
	svc := NewService(zap.NewNop(), repo, node)

	res, err := svc.Resolve(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(77), res.OrgID)
	assert.Equal(t, domain.RoleMember, res.Role)
	assert.Equal(t, 2, repo.lookups)
}
