package users

import (
	"context"
	"testing"

	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	pkgerrors "github.com/Yashop965/CamPass/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	byEmail     map[string]*models.User
	byID        map[uuid.UUID]*models.User
	linkResult  bool
	linkErr     error
	linkCalls   int
	tokenCalls  map[uuid.UUID]string
	childrenOut []models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail:    map[string]*models.User{},
		byID:       map[uuid.UUID]*models.User{},
		tokenCalls: map[uuid.UUID]string{},
	}
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) LinkParent(_ context.Context, _, _ uuid.UUID) (bool, error) {
	s.linkCalls++
	return s.linkResult, s.linkErr
}

func (s *stubUserRepo) Children(_ context.Context, _ uuid.UUID) ([]models.User, error) {
	return s.childrenOut, nil
}

func (s *stubUserRepo) UpdateDeviceToken(_ context.Context, id uuid.UUID, token string) error {
	s.tokenCalls[id] = token
	return nil
}

func TestServiceLinkStudent(t *testing.T) {
	repo := newStubUserRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	parentID := uuid.New()
	student := &models.User{ID: uuid.New(), Email: "kid@example.edu", Role: enums.RoleStudent}
	repo.byEmail["kid@example.edu"] = student
	repo.linkResult = true

	dto, err := svc.LinkStudent(context.Background(), parentID, " Kid@Example.edu ")
	require.NoError(t, err)
	require.NotNil(t, dto.ParentID)
	assert.Equal(t, parentID, *dto.ParentID)
	assert.Equal(t, 1, repo.linkCalls)
}

func TestServiceLinkStudentIdempotentForSameParent(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := NewService(repo)

	parentID := uuid.New()
	student := &models.User{ID: uuid.New(), Email: "kid@example.edu", Role: enums.RoleStudent, ParentID: &parentID}
	repo.byEmail["kid@example.edu"] = student

	dto, err := svc.LinkStudent(context.Background(), parentID, "kid@example.edu")
	require.NoError(t, err)
	assert.Equal(t, parentID, *dto.ParentID)
	assert.Zero(t, repo.linkCalls)
}

func TestServiceLinkStudentConflicts(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := NewService(repo)

	otherParent := uuid.New()
	student := &models.User{ID: uuid.New(), Email: "kid@example.edu", Role: enums.RoleStudent, ParentID: &otherParent}
	repo.byEmail["kid@example.edu"] = student

	_, err := svc.LinkStudent(context.Background(), uuid.New(), "kid@example.edu")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestServiceLinkStudentLostRaceConflicts(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := NewService(repo)

	student := &models.User{ID: uuid.New(), Email: "kid@example.edu", Role: enums.RoleStudent}
	repo.byEmail["kid@example.edu"] = student
	repo.linkResult = false

	_, err := svc.LinkStudent(context.Background(), uuid.New(), "kid@example.edu")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestServiceLinkStudentValidation(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := NewService(repo)

	_, err := svc.LinkStudent(context.Background(), uuid.New(), "  ")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.LinkStudent(context.Background(), uuid.New(), "missing@example.edu")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	repo.byEmail["warden@example.edu"] = &models.User{ID: uuid.New(), Role: enums.RoleWarden}
	_, err = svc.LinkStudent(context.Background(), uuid.New(), "warden@example.edu")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceGetByID(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := NewService(repo)

	user := &models.User{ID: uuid.New(), Name: "Asha", Role: enums.RoleStudent}
	repo.byID[user.ID] = user

	dto, err := svc.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", dto.Name)

	_, err = svc.GetByID(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestServiceUpdateDeviceToken(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := NewService(repo)

	userID := uuid.New()
	require.NoError(t, svc.UpdateDeviceToken(context.Background(), userID, "fcm-token"))
	assert.Equal(t, "fcm-token", repo.tokenCalls[userID])

	err := svc.UpdateDeviceToken(context.Background(), userID, " ")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
