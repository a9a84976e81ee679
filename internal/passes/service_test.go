package passes

import (
	"context"
	"testing"
	"time"

	"github.com/Yashop965/CamPass/internal/notify"
	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	pkgerrors "github.com/Yashop965/CamPass/pkg/errors"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/Yashop965/CamPass/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubRepo struct {
	byID map[uuid.UUID]*models.Pass

	created        []*models.Pass
	forceConflicts int
	updateCalls    int
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[uuid.UUID]*models.Pass{}}
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) Create(_ context.Context, pass *models.Pass) (*models.Pass, error) {
	s.created = append(s.created, pass)
	s.byID[pass.ID] = pass
	return pass, nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Pass, error) {
	pass, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *pass
	if pass.Student != nil {
		student := *pass.Student
		copied.Student = &student
	}
	return &copied, nil
}

func (s *stubRepo) FindByBarcode(_ context.Context, barcode string) (*models.Pass, error) {
	for _, pass := range s.byID {
		if pass.Barcode == barcode {
			return pass, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) UpdateVersioned(_ context.Context, id uuid.UUID, version int, updates map[string]any) (bool, error) {
	s.updateCalls++
	if s.forceConflicts > 0 {
		s.forceConflicts--
		return false, nil
	}
	pass, ok := s.byID[id]
	if !ok || pass.Version != version {
		return false, nil
	}
	if status, ok := updates["status"]; ok {
		pass.Status = status.(enums.PassStatus)
	}
	if reason, ok := updates["rejection_reason"]; ok {
		value := reason.(string)
		pass.RejectionReason = &value
	}
	pass.Version++
	return true, nil
}

func (s *stubRepo) ListByUser(_ context.Context, _ uuid.UUID, _ listPassesParams) ([]models.Pass, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubRepo) ListByStatuses(_ context.Context, _ []enums.PassStatus, _ listPassesParams) ([]models.Pass, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubRepo) ListPendingForParent(_ context.Context, _ uuid.UUID, _ listPassesParams) ([]models.Pass, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubRepo) ListHistory(_ context.Context, _ listPassesParams) ([]models.Pass, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubRepo) FindOverdue(_ context.Context, _ time.Time, _ time.Duration) ([]models.Pass, error) {
	return nil, nil
}

func (s *stubRepo) MarkOverdueAlerted(_ context.Context, _ []uuid.UUID, _ time.Time) error {
	return nil
}

type stubUsers struct {
	byID map[uuid.UUID]*models.User
}

func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type recordingNotifier struct {
	messages []notify.Message
}

func (r *recordingNotifier) Publish(_ context.Context, msgs ...notify.Message) error {
	r.messages = append(r.messages, msgs...)
	return nil
}

type fixture struct {
	repo     *stubRepo
	users    *stubUsers
	notifier *recordingNotifier
	svc      Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newStubRepo(),
		users:    &stubUsers{byID: map[uuid.UUID]*models.User{}},
		notifier: &recordingNotifier{},
		now:      time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC),
	}
	svc, err := NewService(ServiceParams{
		Repo:     f.repo,
		Users:    f.users,
		Notifier: f.notifier,
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Now:      func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) seedUser(role enums.Role, parentID *uuid.UUID) *models.User {
	user := &models.User{
		ID:       uuid.New(),
		Name:     "Asha Rao",
		Role:     role,
		ParentID: parentID,
	}
	f.users.byID[user.ID] = user
	return user
}

func (f *fixture) seedPass(owner *models.User, status enums.PassStatus) *models.Pass {
	pass := &models.Pass{
		ID:        uuid.New(),
		UserID:    owner.ID,
		Type:      enums.PassTypeOuting,
		ValidFrom: f.now,
		ValidTo:   f.now.Add(4 * time.Hour),
		Barcode:   generateBarcode(),
		Status:    status,
		Student:   owner,
	}
	f.repo.byID[pass.ID] = pass
	return pass
}

func TestCreateStudentPassStartsPending(t *testing.T) {
	f := newFixture(t)
	parentID := uuid.New()
	student := f.seedUser(enums.RoleStudent, &parentID)

	dto, err := f.svc.Create(context.Background(), Actor{ID: student.ID, Role: enums.RoleStudent}, CreatePassRequest{
		Type:      "outing",
		ValidFrom: f.now.Add(time.Hour),
		ValidTo:   f.now.Add(5 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PassStatusPending, dto.Status)
	assert.NotEmpty(t, dto.Barcode)

	require.Len(t, f.notifier.messages, 2)
	channels := []string{f.notifier.messages[0].Channel, f.notifier.messages[1].Channel}
	assert.Contains(t, channels, notify.WardenAlertsChannel)
	assert.Contains(t, channels, notify.ParentAlertsChannel(parentID))
	for _, msg := range f.notifier.messages {
		assert.Equal(t, enums.NotificationTypePassRequest, msg.Type)
	}
}

func TestCreateWardenPassStartsActive(t *testing.T) {
	f := newFixture(t)
	warden := f.seedUser(enums.RoleWarden, nil)

	dto, err := f.svc.Create(context.Background(), Actor{ID: warden.ID, Role: enums.RoleWarden}, CreatePassRequest{
		Type:      "other",
		ValidFrom: f.now,
		ValidTo:   f.now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PassStatusActive, dto.Status)

	// staff-created passes still announce themselves to the warden channel
	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, notify.WardenAlertsChannel, f.notifier.messages[0].Channel)
	assert.Equal(t, enums.NotificationTypePassRequest, f.notifier.messages[0].Type)
}

func TestCreateAcceptsEqualWindowBounds(t *testing.T) {
	f := newFixture(t)
	student := f.seedUser(enums.RoleStudent, nil)
	at := f.now.Add(time.Hour)

	dto, err := f.svc.Create(context.Background(), Actor{ID: student.ID, Role: enums.RoleStudent}, CreatePassRequest{
		Type:      "outing",
		ValidFrom: at,
		ValidTo:   at,
	})
	require.NoError(t, err)
	assert.Equal(t, at, dto.ValidFrom)
	assert.Equal(t, at, dto.ValidTo)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	student := f.seedUser(enums.RoleStudent, nil)
	actor := Actor{ID: student.ID, Role: enums.RoleStudent}
	ctx := context.Background()

	_, err := f.svc.Create(ctx, actor, CreatePassRequest{
		Type: "vacation", ValidFrom: f.now, ValidTo: f.now.Add(time.Hour),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, actor, CreatePassRequest{
		Type: "outing", ValidFrom: f.now.Add(time.Hour), ValidTo: f.now,
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestApproveByParent(t *testing.T) {
	f := newFixture(t)
	parentID := uuid.New()
	student := f.seedUser(enums.RoleStudent, &parentID)
	pass := f.seedPass(student, enums.PassStatusPending)

	dto, err := f.svc.ApproveByParent(context.Background(), parentID, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PassStatusApprovedParent, dto.Status)

	require.Len(t, f.notifier.messages, 2)
	channels := []string{f.notifier.messages[0].Channel, f.notifier.messages[1].Channel}
	assert.Contains(t, channels, notify.StudentAlertsChannel(student.ID))
	assert.Contains(t, channels, notify.WardenAlertsChannel)
}

func TestApproveByParentRejectsUnlinkedParent(t *testing.T) {
	f := newFixture(t)
	parentID := uuid.New()
	student := f.seedUser(enums.RoleStudent, &parentID)
	pass := f.seedPass(student, enums.PassStatusPending)

	_, err := f.svc.ApproveByParent(context.Background(), uuid.New(), pass.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestApproveByParentRequiresPendingStatus(t *testing.T) {
	f := newFixture(t)
	parentID := uuid.New()
	student := f.seedUser(enums.RoleStudent, &parentID)
	pass := f.seedPass(student, enums.PassStatusApprovedWarden)

	_, err := f.svc.ApproveByParent(context.Background(), parentID, pass.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestApproveByWardenFromPendingAndParentApproved(t *testing.T) {
	f := newFixture(t)
	parentID := uuid.New()
	student := f.seedUser(enums.RoleStudent, &parentID)
	wardenID := uuid.New()
	ctx := context.Background()

	for _, status := range []enums.PassStatus{enums.PassStatusPending, enums.PassStatusApprovedParent} {
		pass := f.seedPass(student, status)
		dto, err := f.svc.ApproveByWarden(ctx, wardenID, pass.ID)
		require.NoError(t, err, "from %s", status)
		assert.Equal(t, enums.PassStatusApprovedWarden, dto.Status)
	}

	// warden approval notifies student and parent
	assert.GreaterOrEqual(t, len(f.notifier.messages), 4)
}

func TestApproveByWardenRejectsTerminalStates(t *testing.T) {
	f := newFixture(t)
	student := f.seedUser(enums.RoleStudent, nil)
	pass := f.seedPass(student, enums.PassStatusRejected)

	_, err := f.svc.ApproveByWarden(context.Background(), uuid.New(), pass.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestRejectByWarden(t *testing.T) {
	f := newFixture(t)
	parentID := uuid.New()
	student := f.seedUser(enums.RoleStudent, &parentID)
	pass := f.seedPass(student, enums.PassStatusPending)

	dto, err := f.svc.Reject(context.Background(), Actor{ID: uuid.New(), Role: enums.RoleWarden}, pass.ID, "curfew hours")
	require.NoError(t, err)
	assert.Equal(t, enums.PassStatusRejected, dto.Status)
	require.NotNil(t, dto.RejectionReason)
	assert.Equal(t, "curfew hours", *dto.RejectionReason)

	require.Len(t, f.notifier.messages, 2)
}

func TestRejectByParentOwnChildOnly(t *testing.T) {
	f := newFixture(t)
	parentID := uuid.New()
	student := f.seedUser(enums.RoleStudent, &parentID)
	ctx := context.Background()

	pass := f.seedPass(student, enums.PassStatusPending)
	_, err := f.svc.Reject(ctx, Actor{ID: parentID, Role: enums.RoleParent}, pass.ID, "not today")
	require.NoError(t, err)

	other := f.seedPass(student, enums.PassStatusPending)
	_, err = f.svc.Reject(ctx, Actor{ID: uuid.New(), Role: enums.RoleParent}, other.ID, "not today")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestRejectRequiresReasonAndRole(t *testing.T) {
	f := newFixture(t)
	student := f.seedUser(enums.RoleStudent, nil)
	pass := f.seedPass(student, enums.PassStatusPending)
	ctx := context.Background()

	_, err := f.svc.Reject(ctx, Actor{ID: uuid.New(), Role: enums.RoleWarden}, pass.ID, "  ")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Reject(ctx, Actor{ID: student.ID, Role: enums.RoleStudent}, pass.ID, "nope")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestTransitionRetriesOnceOnConflict(t *testing.T) {
	f := newFixture(t)
	student := f.seedUser(enums.RoleStudent, nil)
	pass := f.seedPass(student, enums.PassStatusPending)
	f.repo.forceConflicts = 1

	dto, err := f.svc.ApproveByWarden(context.Background(), uuid.New(), pass.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PassStatusApprovedWarden, dto.Status)
	assert.Equal(t, 2, f.repo.updateCalls)
}

func TestTransitionSurfacesConflictAfterRetry(t *testing.T) {
	f := newFixture(t)
	student := f.seedUser(enums.RoleStudent, nil)
	pass := f.seedPass(student, enums.PassStatusPending)
	f.repo.forceConflicts = 2

	_, err := f.svc.ApproveByWarden(context.Background(), uuid.New(), pass.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestGetByIDAuthorization(t *testing.T) {
	f := newFixture(t)
	parentID := uuid.New()
	student := f.seedUser(enums.RoleStudent, &parentID)
	pass := f.seedPass(student, enums.PassStatusPending)
	ctx := context.Background()

	// owner
	_, err := f.svc.GetByID(ctx, Actor{ID: student.ID, Role: enums.RoleStudent}, pass.ID)
	require.NoError(t, err)

	// linked parent
	_, err = f.svc.GetByID(ctx, Actor{ID: parentID, Role: enums.RoleParent}, pass.ID)
	require.NoError(t, err)

	// staff
	for _, role := range []enums.Role{enums.RoleWarden, enums.RoleGuard, enums.RoleAdmin} {
		_, err = f.svc.GetByID(ctx, Actor{ID: uuid.New(), Role: role}, pass.ID)
		require.NoError(t, err, "role %s", role)
	}

	// stranger student
	_, err = f.svc.GetByID(ctx, Actor{ID: uuid.New(), Role: enums.RoleStudent}, pass.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	// unrelated parent
	_, err = f.svc.GetByID(ctx, Actor{ID: uuid.New(), Role: enums.RoleParent}, pass.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))
}

func TestListValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ListMine(ctx, uuid.New(), ListParams{Cursor: "not-base64!!"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.History(ctx, ListParams{Status: "bogus"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
