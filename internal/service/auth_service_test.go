package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/teacherlink/teacherlink-api/internal/models"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	findByEmailErr   error
	created          *models.User
	lastLoginUpdated bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	m.created = user
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func newAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, DomainRolePolicy("teacherlink.school"), validator.New(), zap.NewNop(), AuthConfig{
		Secret:     "secret",
		Expiration: time.Hour,
		Issuer:     "teacherlink-api",
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "teacher@teacherlink.school", PasswordHash: string(password), Active: true, Role: models.RoleTeacher}}
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@teacherlink.school", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, models.RoleTeacher, res.User.Role)
	assert.True(t, repo.lastLoginUpdated)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "a@b.com", PasswordHash: string(password), Active: true}}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@b.com", Password: "wrong"})
	require.Error(t, err)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{})
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@b.com", Password: "password"})
	require.Error(t, err)
}

func TestAuthServiceLoginInactive(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "a@b.com", PasswordHash: string(password), Active: false}}
	svc := newAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@b.com", Password: "password"})
	require.Error(t, err)
}

func TestAuthServiceValidateTokenRoundTrip(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "a@b.com", FullName: "Ms. Rivera", PasswordHash: string(password), Active: true, Role: models.RoleTeacher}}
	svc := newAuthService(repo)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@b.com", Password: "password"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "Ms. Rivera", claims.FullName)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockAuthRepo{})
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestDomainRolePolicy(t *testing.T) {
	policy := DomainRolePolicy("teacherlink.school")
	assert.Equal(t, models.RoleTeacher, policy("rivera@teacherlink.school"))
	assert.Equal(t, models.RoleTeacher, policy("RIVERA@TeacherLink.School"))
	assert.Equal(t, models.RoleParent, policy("parent@gmail.com"))
}

func TestAuthServiceProvisionInfersRole(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := newAuthService(repo)

	user, err := svc.Provision(context.Background(), ProvisionRequest{
		Email:    "rivera@teacherlink.school",
		FullName: "Ms. Rivera",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.True(t, user.Active)
	require.NotNil(t, repo.created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("password123")))
}

func TestAuthServiceProvisionRejectsDuplicate(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: &models.User{ID: "u1", Email: "a@b.com"}}
	svc := newAuthService(repo)

	_, err := svc.Provision(context.Background(), ProvisionRequest{Email: "a@b.com", FullName: "Someone", Password: "password123"})
	require.Error(t, err)
	assert.Nil(t, repo.created)
}
