package tests

import (
	"context"
	"testing"

	"novapos/internal/config"
	"novapos/internal/dto"
	"novapos/internal/model"
	"novapos/internal/repository"
	"novapos/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users   map[uuid.UUID]*model.User
	byEmail map[string]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		users:   make(map[uuid.UUID]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	r.byEmail[u.Email] = u
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) List(_ context.Context, includeInactive bool) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.Active || includeInactive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) FindOldestByRole(_ context.Context, role model.Role) (*model.User, error) {
	for _, u := range r.users {
		if u.Role == role && u.Active {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	r.byEmail[u.Email] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if u, ok := r.users[id]; ok {
		u.Active = false
	}
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	if u, ok := r.users[id]; ok {
		u.Active = true
	}
	return nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    168,
	}
}

func seedUser(repo *stubUserRepo, email, password string, role model.Role) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &model.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	repo.users[u.ID] = u
	repo.byEmail[email] = u
	return u
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "maria@shop.test", "s3cret", model.RoleManager)
	svc := service.NewAuthService(repo, testConfig())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "maria@shop.test",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "manager", resp.User.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "maria@shop.test", "s3cret", model.RoleManager)
	svc := service.NewAuthService(repo, testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "maria@shop.test",
		Password: "wrong",
	})
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	// Unknown accounts and bad passwords fail identically, revealing nothing.
	svc := service.NewAuthService(newStubUserRepo(), testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "ghost@shop.test",
		Password: "whatever",
	})
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestLogin_InactiveUser(t *testing.T) {
	repo := newStubUserRepo()
	u := seedUser(repo, "leaver@shop.test", "s3cret", model.RoleEmployee)
	u.Active = false
	svc := service.NewAuthService(repo, testConfig())

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "leaver@shop.test",
		Password: "s3cret",
	})
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestRefresh_RoundTrip(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "maria@shop.test", "s3cret", model.RoleAdmin)
	svc := service.NewAuthService(repo, testConfig())

	login, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "maria@shop.test",
		Password: "s3cret",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, login.User.ID, refreshed.User.ID)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), testConfig())

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	svc := service.NewAuthService(newStubUserRepo(), testConfig())

	_, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Email:    "new@shop.test",
		Name:     "New Hire",
		Password: "changeme",
		Role:     "superuser",
	})
	assert.ErrorContains(t, err, "unknown role")
}

func TestCreateUser_HashesPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := service.NewAuthService(repo, testConfig())

	resp, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Email:    "new@shop.test",
		Name:     "New Hire",
		Password: "changeme",
		Role:     "employee",
	})
	require.NoError(t, err)

	stored := repo.byEmail["new@shop.test"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "changeme", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("changeme")))
	assert.Equal(t, "employee", resp.Role)
}
