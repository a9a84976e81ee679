package passes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yashop965/CamPass/internal/notify"
	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	pkgerrors "github.com/Yashop965/CamPass/pkg/errors"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/Yashop965/CamPass/pkg/pagination"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

const conflictRetryDelay = 25 * time.Millisecond

// Service defines the pass lifecycle operations exposed to controllers.
type Service interface {
	Create(ctx context.Context, actor Actor, req CreatePassRequest) (*PassDTO, error)
	ApproveByParent(ctx context.Context, parentID, passID uuid.UUID) (*PassDTO, error)
	ApproveByWarden(ctx context.Context, wardenID, passID uuid.UUID) (*PassDTO, error)
	Reject(ctx context.Context, actor Actor, passID uuid.UUID, reason string) (*PassDTO, error)
	GetByID(ctx context.Context, actor Actor, passID uuid.UUID) (*PassDTO, error)
	ListMine(ctx context.Context, userID uuid.UUID, params ListParams) (*ListResult, error)
	ListPendingForParent(ctx context.Context, parentID uuid.UUID, params ListParams) (*ListResult, error)
	ListPendingForWarden(ctx context.Context, params ListParams) (*ListResult, error)
	History(ctx context.Context, params ListParams) (*ListResult, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo     Repository
	users    userDirectory
	notifier notify.Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the dependencies for the passes service.
type ServiceParams struct {
	Repo     Repository
	Users    userDirectory
	Notifier notify.Notifier
	Logger   *logger.Logger
	Now      func() time.Time
}

// NewService wires the passes service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("passes repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		users:    params.Users,
		notifier: params.Notifier,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, req CreatePassRequest) (*PassDTO, error) {
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}
	passType, err := enums.ParsePassType(req.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid pass type")
	}
	if req.ValidFrom.IsZero() || req.ValidTo.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_from and valid_to are required")
	}
	if req.ValidTo.Before(req.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_to must not be before valid_from")
	}

	owner, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load requester")
	}

	pass := &models.Pass{
		ID:        uuid.New(),
		UserID:    actor.ID,
		Type:      passType,
		Purpose:   req.Purpose,
		ValidFrom: req.ValidFrom.UTC(),
		ValidTo:   req.ValidTo.UTC(),
		Barcode:   generateBarcode(),
		Status:    enums.InitialPassStatus(actor.Role),
	}

	created, err := s.repo.Create(ctx, pass)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create pass")
	}

	body := fmt.Sprintf("%s requested a %s pass", owner.Name, passType)
	if created.Status != enums.PassStatusPending {
		body = fmt.Sprintf("%s created a %s pass", owner.Name, passType)
	}
	msgs := []notify.Message{{
		Channel: notify.WardenAlertsChannel,
		Type:    enums.NotificationTypePassRequest,
		Title:   "New pass request",
		Body:    body,
		Data:    passData(created),
	}}
	if owner.ParentID != nil {
		msgs = append(msgs, notify.Message{
			Channel: notify.ParentAlertsChannel(*owner.ParentID),
			Type:    enums.NotificationTypePassRequest,
			Title:   "New pass request",
			Body:    body,
			Data:    passData(created),
		})
	}
	s.notify(ctx, msgs...)

	return FromModel(created), nil
}

// ApproveByParent moves a pending pass to approved_parent. Only the parent
// linked to the pass owner may approve; parent approval alone does not make
// the pass scannable.
func (s *service) ApproveByParent(ctx context.Context, parentID, passID uuid.UUID) (*PassDTO, error) {
	if parentID == uuid.Nil || passID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent id and pass id required")
	}

	updated, err := s.transition(ctx, passID, func(pass *models.Pass) (map[string]any, error) {
		if pass.Student == nil || pass.Student.ParentID == nil || *pass.Student.ParentID != parentID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pass does not belong to a linked student")
		}
		if !pass.Status.CanTransitionTo(enums.PassStatusApprovedParent) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot approve pass in status %s", pass.Status))
		}
		return map[string]any{"status": enums.PassStatusApprovedParent}, nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx,
		notify.Message{
			Channel: notify.StudentAlertsChannel(updated.UserID),
			Type:    enums.NotificationTypePassApproved,
			Title:   "Pass approved by parent",
			Body:    "Your pass request was approved by your parent and is awaiting warden review",
			Data:    passData(updated),
		},
		notify.Message{
			Channel: notify.WardenAlertsChannel,
			Type:    enums.NotificationTypePassRequest,
			Title:   "Pass awaiting warden approval",
			Body:    "A parent-approved pass is awaiting warden review",
			Data:    passData(updated),
		},
	)

	return FromModel(updated), nil
}

// ApproveByWarden moves a pending or parent-approved pass to approved_warden,
// which makes it scannable at the gate.
func (s *service) ApproveByWarden(ctx context.Context, wardenID, passID uuid.UUID) (*PassDTO, error) {
	if wardenID == uuid.Nil || passID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warden id and pass id required")
	}

	updated, err := s.transition(ctx, passID, func(pass *models.Pass) (map[string]any, error) {
		if !pass.Status.CanTransitionTo(enums.PassStatusApprovedWarden) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot approve pass in status %s", pass.Status))
		}
		return map[string]any{"status": enums.PassStatusApprovedWarden}, nil
	})
	if err != nil {
		return nil, err
	}

	msgs := []notify.Message{{
		Channel: notify.StudentAlertsChannel(updated.UserID),
		Type:    enums.NotificationTypePassApproved,
		Title:   "Pass approved",
		Body:    "Your pass was approved and is ready to scan at the gate",
		Data:    passData(updated),
	}}
	if updated.Student != nil && updated.Student.ParentID != nil {
		msgs = append(msgs, notify.Message{
			Channel: notify.ParentAlertsChannel(*updated.Student.ParentID),
			Type:    enums.NotificationTypePassApproved,
			Title:   "Pass approved",
			Body:    fmt.Sprintf("%s's pass was approved by the warden", updated.Student.Name),
			Data:    passData(updated),
		})
	}
	s.notify(ctx, msgs...)

	return FromModel(updated), nil
}

// Reject declines a pass with a mandatory reason. Wardens can reject any
// reviewable pass; parents only their own child's.
func (s *service) Reject(ctx context.Context, actor Actor, passID uuid.UUID, reason string) (*PassDTO, error) {
	if actor.ID == uuid.Nil || passID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id and pass id required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	updated, err := s.transition(ctx, passID, func(pass *models.Pass) (map[string]any, error) {
		if actor.Role == enums.RoleParent {
			if pass.Student == nil || pass.Student.ParentID == nil || *pass.Student.ParentID != actor.ID {
				return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pass does not belong to a linked student")
			}
		} else if !actor.Role.CanApproveAsWarden() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot reject passes")
		}
		if !pass.Status.CanTransitionTo(enums.PassStatusRejected) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot reject pass in status %s", pass.Status))
		}
		return map[string]any{
			"status":           enums.PassStatusRejected,
			"rejection_reason": reason,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	msgs := []notify.Message{{
		Channel: notify.StudentAlertsChannel(updated.UserID),
		Type:    enums.NotificationTypePassRejected,
		Title:   "Pass rejected",
		Body:    fmt.Sprintf("Your pass was rejected: %s", reason),
		Data:    passData(updated),
	}}
	if updated.Student != nil && updated.Student.ParentID != nil && actor.Role != enums.RoleParent {
		msgs = append(msgs, notify.Message{
			Channel: notify.ParentAlertsChannel(*updated.Student.ParentID),
			Type:    enums.NotificationTypePassRejected,
			Title:   "Pass rejected",
			Body:    fmt.Sprintf("%s's pass was rejected: %s", updated.Student.Name, reason),
			Data:    passData(updated),
		})
	}
	s.notify(ctx, msgs...)

	return FromModel(updated), nil
}

func (s *service) GetByID(ctx context.Context, actor Actor, passID uuid.UUID) (*PassDTO, error) {
	if passID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pass id required")
	}
	pass, err := s.repo.FindByID(ctx, passID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pass not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pass")
	}
	if !canViewPass(actor, pass) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this pass")
	}
	return FromModel(pass), nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params ListParams) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	query, err := s.listQuery(params, true)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListByUser(ctx, userID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list passes")
	}
	return listResult(rows, next), nil
}

func (s *service) ListPendingForParent(ctx context.Context, parentID uuid.UUID, params ListParams) (*ListResult, error) {
	if parentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent id required")
	}
	query, err := s.listQuery(params, false)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListPendingForParent(ctx, parentID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending passes")
	}
	return listResult(rows, next), nil
}

func (s *service) ListPendingForWarden(ctx context.Context, params ListParams) (*ListResult, error) {
	query, err := s.listQuery(params, false)
	if err != nil {
		return nil, err
	}
	statuses := []enums.PassStatus{enums.PassStatusPending, enums.PassStatusApprovedParent}
	rows, next, err := s.repo.ListByStatuses(ctx, statuses, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list review queue")
	}
	return listResult(rows, next), nil
}

func (s *service) History(ctx context.Context, params ListParams) (*ListResult, error) {
	query, err := s.listQuery(params, true)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListHistory(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pass history")
	}
	return listResult(rows, next), nil
}

// transition loads the pass, derives the updates and applies them with the
// optimistic version check. A lost race is retried exactly once against
// fresh state before surfacing a conflict.
func (s *service) transition(ctx context.Context, passID uuid.UUID, attempt func(pass *models.Pass) (map[string]any, error)) (*models.Pass, error) {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(conflictRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		pass, err := s.repo.FindByID(ctx, passID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pass not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pass")
		}

		updates, err := attempt(pass)
		if err != nil {
			return err
		}

		ok, err := s.repo.UpdateVersioned(ctx, pass.ID, pass.Version, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update pass")
		}
		if !ok {
			return retry.RetryableError(pkgerrors.New(pkgerrors.CodeConflict, "pass was modified concurrently"))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, passID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload pass")
	}
	return updated, nil
}

func (s *service) listQuery(params ListParams, allowStatus bool) (listPassesParams, error) {
	query := listPassesParams{Limit: params.Limit}

	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return query, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	if allowStatus && strings.TrimSpace(params.Status) != "" {
		status, err := enums.ParsePassStatus(params.Status)
		if err != nil {
			return query, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
		}
		query.Status = &status
	}
	return query, nil
}

// notify is fire-and-forget: delivery failures are logged and never fail the
// workflow that produced them.
func (s *service) notify(ctx context.Context, msgs ...notify.Message) {
	if len(msgs) == 0 {
		return
	}
	if err := s.notifier.Publish(ctx, msgs...); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("notification publish failed: %v", err))
	}
}

func listResult(rows []models.Pass, next *pagination.Cursor) *ListResult {
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: fromModels(rows), Cursor: cursor}
}

func canViewPass(actor Actor, pass *models.Pass) bool {
	switch actor.Role {
	case enums.RoleWarden, enums.RoleAdmin, enums.RoleGuard:
		return true
	case enums.RoleParent:
		return pass.Student != nil && pass.Student.ParentID != nil && *pass.Student.ParentID == actor.ID
	default:
		return pass.UserID == actor.ID
	}
}

func passData(pass *models.Pass) map[string]string {
	return map[string]string{
		"pass_id": pass.ID.String(),
		"status":  string(pass.Status),
		"type":    string(pass.Type),
	}
}

func generateBarcode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
