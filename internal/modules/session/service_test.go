package session

import (
	"context"
	"testing"
	"time"

	"accountsvc/internal/domain"
	"accountsvc/internal/pkg/logger"
	"accountsvc/internal/pkg/token"
	"accountsvc/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Mock user repository implementing the interface
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	args := m.Called(ctx, userID, hash)
	return args.Error(0)
}

// Mock revocation store
type mockRevocationStore struct {
	mock.Mock
}

func (m *mockRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *mockRevocationStore) Revoke(ctx context.Context, userID int64, jti string, expiresAt time.Time, reason domain.RevocationReason) (*domain.RevocationEntry, error) {
	args := m.Called(ctx, userID, jti, expiresAt, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RevocationEntry), args.Error(1)
}

func newTestService(users *mockUserRepo, revocations *mockRevocationStore) (*Service, *token.Service) {
	codec := token.New("test-secret-123")
	svc := NewService(users, revocations, codec, 15*time.Minute, 7*24*time.Hour, logger.NewNop())
	return svc, codec
}

func hashPassword(t *testing.T, pw string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hash)
}

func TestService_Login_Success(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, codec := newTestService(users, revocations)

	existing := &domain.User{
		ID:           10,
		Email:        "user@example.com",
		PasswordHash: hashPassword(t, "password123"),
		IsActive:     true,
	}
	users.On("GetByEmail", mock.Anything, "user@example.com").Return(existing, nil)

	user, pair, err := svc.Login(context.Background(), "user@example.com", "password123")

	require.NoError(t, err)
	assert.Equal(t, int64(10), user.ID)
	require.NotNil(t, pair)

	access, err := codec.Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, token.KindAccess, access.TokenType)

	refresh, err := codec.Decode(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, token.KindRefresh, refresh.TokenType)
	assert.NotEqual(t, access.ID, refresh.ID, "access and refresh must carry independent jtis")

	// Login never touches the revocation store.
	revocations.AssertNotCalled(t, "IsRevoked", mock.Anything, mock.Anything)
	revocations.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Login_WrongPassword(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, _ := newTestService(users, revocations)

	existing := &domain.User{
		ID:           10,
		Email:        "user@example.com",
		PasswordHash: hashPassword(t, "password123"),
		IsActive:     true,
	}
	users.On("GetByEmail", mock.Anything, "user@example.com").Return(existing, nil)

	_, _, err := svc.Login(context.Background(), "user@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Login_UnknownEmail(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, _ := newTestService(users, revocations)

	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_Login_InactiveAccount(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, _ := newTestService(users, revocations)

	existing := &domain.User{
		ID:           10,
		Email:        "user@example.com",
		PasswordHash: hashPassword(t, "password123"),
		IsActive:     false,
	}
	users.On("GetByEmail", mock.Anything, "user@example.com").Return(existing, nil)

	_, _, err := svc.Login(context.Background(), "user@example.com", "password123")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestService_Refresh_RotatesToken(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, codec := newTestService(users, revocations)

	refreshRaw, err := codec.Issue(10, token.KindRefresh, time.Hour)
	require.NoError(t, err)
	oldClaims, err := codec.Decode(refreshRaw)
	require.NoError(t, err)

	users.On("GetByID", mock.Anything, int64(10)).Return(&domain.User{ID: 10, IsActive: true}, nil)
	revocations.On("IsRevoked", mock.Anything, oldClaims.ID).Return(false, nil)
	revocations.On("Revoke", mock.Anything, int64(10), oldClaims.ID, mock.Anything, domain.ReasonRotation).
		Return(&domain.RevocationEntry{JTI: oldClaims.ID}, nil)

	pair, err := svc.Refresh(context.Background(), refreshRaw)

	require.NoError(t, err)
	require.NotNil(t, pair)

	newClaims, err := codec.Decode(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldClaims.ID, newClaims.ID, "rotation must mint a fresh jti")

	revocations.AssertExpectations(t)
}

func TestService_Refresh_RevokedTokenRejected(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, codec := newTestService(users, revocations)

	refreshRaw, err := codec.Issue(10, token.KindRefresh, time.Hour)
	require.NoError(t, err)
	claims, err := codec.Decode(refreshRaw)
	require.NoError(t, err)

	revocations.On("IsRevoked", mock.Anything, claims.ID).Return(true, nil)

	_, err = svc.Refresh(context.Background(), refreshRaw)

	assert.ErrorIs(t, err, ErrTokenRevoked)
	// No new pair may be issued past the replay-defense boundary.
	revocations.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Refresh_ConcurrentRotationLosesRace(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, codec := newTestService(users, revocations)

	refreshRaw, err := codec.Issue(10, token.KindRefresh, time.Hour)
	require.NoError(t, err)
	claims, err := codec.Decode(refreshRaw)
	require.NoError(t, err)

	users.On("GetByID", mock.Anything, int64(10)).Return(&domain.User{ID: 10, IsActive: true}, nil)
	revocations.On("IsRevoked", mock.Anything, claims.ID).Return(false, nil)
	// Another request rotated the same token between the check and the insert.
	revocations.On("Revoke", mock.Anything, int64(10), claims.ID, mock.Anything, domain.ReasonRotation).
		Return(nil, repository.ErrDuplicateRevocation)

	pair, err := svc.Refresh(context.Background(), refreshRaw)

	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.Nil(t, pair, "the losing request must not hand out a second live pair")
}

func TestService_Refresh_AccessTokenRejected(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, codec := newTestService(users, revocations)

	accessRaw, err := codec.Issue(10, token.KindAccess, time.Hour)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), accessRaw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Refresh_GarbageRejected(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, _ := newTestService(users, revocations)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_Logout_Success(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, codec := newTestService(users, revocations)

	refreshRaw, err := codec.Issue(10, token.KindRefresh, time.Hour)
	require.NoError(t, err)
	claims, err := codec.Decode(refreshRaw)
	require.NoError(t, err)

	revocations.On("IsRevoked", mock.Anything, claims.ID).Return(false, nil)
	revocations.On("Revoke", mock.Anything, int64(10), claims.ID, mock.Anything, domain.ReasonLogout).
		Return(&domain.RevocationEntry{JTI: claims.ID}, nil)

	result, err := svc.Logout(context.Background(), refreshRaw, 10)

	require.NoError(t, err)
	assert.False(t, result.AlreadyRevoked)
	revocations.AssertExpectations(t)
}

func TestService_Logout_Idempotent(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, codec := newTestService(users, revocations)

	refreshRaw, err := codec.Issue(10, token.KindRefresh, time.Hour)
	require.NoError(t, err)
	claims, err := codec.Decode(refreshRaw)
	require.NoError(t, err)

	revocations.On("IsRevoked", mock.Anything, claims.ID).Return(true, nil)

	result, err := svc.Logout(context.Background(), refreshRaw, 10)

	require.NoError(t, err)
	assert.True(t, result.AlreadyRevoked)
	// No duplicate insert is attempted.
	revocations.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Logout_RaceTreatedAsAlreadyRevoked(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, codec := newTestService(users, revocations)

	refreshRaw, err := codec.Issue(10, token.KindRefresh, time.Hour)
	require.NoError(t, err)
	claims, err := codec.Decode(refreshRaw)
	require.NoError(t, err)

	revocations.On("IsRevoked", mock.Anything, claims.ID).Return(false, nil)
	revocations.On("Revoke", mock.Anything, int64(10), claims.ID, mock.Anything, domain.ReasonLogout).
		Return(nil, repository.ErrDuplicateRevocation)

	result, err := svc.Logout(context.Background(), refreshRaw, 10)

	require.NoError(t, err)
	assert.True(t, result.AlreadyRevoked)
}

func TestService_Logout_MalformedToken(t *testing.T) {
	users := new(mockUserRepo)
	revocations := new(mockRevocationStore)
	svc, _ := newTestService(users, revocations)

	_, err := svc.Logout(context.Background(), "garbage", 10)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestService_ChangePassword(t *testing.T) {
	makeService := func(t *testing.T) (*Service, *mockUserRepo) {
		users := new(mockUserRepo)
		svc, _ := newTestService(users, new(mockRevocationStore))
		return svc, users
	}

	t.Run("success", func(t *testing.T) {
		svc, users := makeService(t)
		users.On("GetByID", mock.Anything, int64(10)).
			Return(&domain.User{ID: 10, PasswordHash: hashPassword(t, "old-password")}, nil)
		users.On("UpdatePasswordHash", mock.Anything, int64(10), mock.Anything).Return(nil)

		err := svc.ChangePassword(context.Background(), 10, "old-password", "new-password", "new-password")
		require.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("wrong old password", func(t *testing.T) {
		svc, users := makeService(t)
		users.On("GetByID", mock.Anything, int64(10)).
			Return(&domain.User{ID: 10, PasswordHash: hashPassword(t, "old-password")}, nil)

		err := svc.ChangePassword(context.Background(), 10, "not-the-old", "new-password", "new-password")
		assert.ErrorIs(t, err, ErrWrongPassword)
		users.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		svc, users := makeService(t)
		users.On("GetByID", mock.Anything, int64(10)).
			Return(&domain.User{ID: 10, PasswordHash: hashPassword(t, "old-password")}, nil)

		err := svc.ChangePassword(context.Background(), 10, "old-password", "new-password", "different")
		assert.ErrorIs(t, err, ErrConfirmationMismatch)
	})

	t.Run("unchanged password", func(t *testing.T) {
		svc, users := makeService(t)
		users.On("GetByID", mock.Anything, int64(10)).
			Return(&domain.User{ID: 10, PasswordHash: hashPassword(t, "same-password")}, nil)

		err := svc.ChangePassword(context.Background(), 10, "same-password", "same-password", "same-password")
		assert.ErrorIs(t, err, ErrPasswordUnchanged)
	})

	t.Run("wrong old password wins over mismatch", func(t *testing.T) {
		svc, users := makeService(t)
		users.On("GetByID", mock.Anything, int64(10)).
			Return(&domain.User{ID: 10, PasswordHash: hashPassword(t, "old-password")}, nil)

		err := svc.ChangePassword(context.Background(), 10, "not-the-old", "new-password", "different")
		assert.ErrorIs(t, err, ErrWrongPassword)
	})
}
