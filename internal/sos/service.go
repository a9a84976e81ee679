package sos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yashop965/CamPass/internal/notify"
	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	pkgerrors "github.com/Yashop965/CamPass/pkg/errors"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service handles SOS alerts from students and the warden response flow.
type Service interface {
	Trigger(ctx context.Context, studentID uuid.UUID, req TriggerRequest) (*AlertDTO, error)
	RaiseGeofence(ctx context.Context, studentID uuid.UUID, latitude, longitude float64) (*AlertDTO, error)
	ListActive(ctx context.Context) ([]AlertDTO, error)
	Resolve(ctx context.Context, wardenID, alertID uuid.UUID) (*AlertDTO, error)
}

type alertRepository interface {
	Create(ctx context.Context, alert *models.SOSAlert) (*models.SOSAlert, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.SOSAlert, error)
	ListActive(ctx context.Context) ([]models.SOSAlert, error)
	Resolve(ctx context.Context, id, resolvedBy uuid.UUID, at time.Time) (bool, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo     alertRepository
	users    userDirectory
	notifier notify.Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the dependencies for the SOS service.
type ServiceParams struct {
	Repo     alertRepository
	Users    userDirectory
	Notifier notify.Notifier
	Logger   *logger.Logger
	Now      func() time.Time
}

// NewService wires the SOS service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("sos repository is required")
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

// Trigger raises a manual SOS alert for the student and fans it out to the
// warden channel and the student's parent.
func (s *service) Trigger(ctx context.Context, studentID uuid.UUID, req TriggerRequest) (*AlertDTO, error) {
	if studentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id required")
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	alert, err := s.repo.Create(ctx, &models.SOSAlert{
		ID:        uuid.New(),
		StudentID: studentID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		AlertType: enums.SOSAlertTypeManual,
		Status:    enums.SOSStatusActive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sos alert")
	}

	msgs := []notify.Message{{
		Channel: notify.WardenAlertsChannel,
		Type:    enums.NotificationTypeSOS,
		Title:   "SOS alert",
		Body:    fmt.Sprintf("%s triggered an SOS alert", student.Name),
		Data:    alertData(alert),
	}}
	if student.ParentID != nil {
		msgs = append(msgs, notify.Message{
			Channel: notify.ParentAlertsChannel(*student.ParentID),
			Type:    enums.NotificationTypeSOS,
			Title:   "SOS alert",
			Body:    fmt.Sprintf("%s triggered an SOS alert", student.Name),
			Data:    alertData(alert),
		})
	}
	s.notify(ctx, msgs...)

	return fromModel(alert), nil
}

// RaiseGeofence records an alert for a client-reported geofence violation.
// The tracking channel is used for the parent so routine boundary alerts stay
// separate from manual SOS pushes.
func (s *service) RaiseGeofence(ctx context.Context, studentID uuid.UUID, latitude, longitude float64) (*AlertDTO, error) {
	if studentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id required")
	}

	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	alert, err := s.repo.Create(ctx, &models.SOSAlert{
		ID:        uuid.New(),
		StudentID: studentID,
		Latitude:  &latitude,
		Longitude: &longitude,
		AlertType: enums.SOSAlertTypeGeofence,
		Status:    enums.SOSStatusActive,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create geofence alert")
	}

	msgs := []notify.Message{{
		Channel: notify.WardenAlertsChannel,
		Type:    enums.NotificationTypeGeofence,
		Title:   "Geofence violation",
		Body:    fmt.Sprintf("%s left the allowed area", student.Name),
		Data:    alertData(alert),
	}}
	if student.ParentID != nil {
		msgs = append(msgs, notify.Message{
			Channel: notify.ParentTrackingChannel(*student.ParentID),
			Type:    enums.NotificationTypeGeofence,
			Title:   "Geofence violation",
			Body:    fmt.Sprintf("%s left the allowed area", student.Name),
			Data:    alertData(alert),
		})
	}
	s.notify(ctx, msgs...)

	return fromModel(alert), nil
}

func (s *service) ListActive(ctx context.Context) ([]AlertDTO, error) {
	alerts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active alerts")
	}
	return fromModels(alerts), nil
}

// Resolve closes an active alert. Resolving twice is a state conflict so the
// second warden learns someone already handled it.
func (s *service) Resolve(ctx context.Context, wardenID, alertID uuid.UUID) (*AlertDTO, error) {
	if wardenID == uuid.Nil || alertID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warden id and alert id required")
	}

	ok, err := s.repo.Resolve(ctx, alertID, wardenID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve alert")
	}
	if !ok {
		alert, err := s.repo.FindByID(ctx, alertID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load alert")
		}
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("alert is already %s", alert.Status))
	}

	alert, err := s.repo.FindByID(ctx, alertID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload alert")
	}
	return fromModel(alert), nil
}

func (s *service) loadStudent(ctx context.Context, studentID uuid.UUID) (*models.User, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load student")
	}
	if student.Role != enums.RoleStudent {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "alerts can only be raised for students")
	}
	return student, nil
}

// notify is fire-and-forget: the alert row is already persisted, a failed
// push must not fail the request.
func (s *service) notify(ctx context.Context, msgs ...notify.Message) {
	if err := s.notifier.Publish(ctx, msgs...); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("sos notification publish failed: %v", err))
	}
}

func alertData(alert *models.SOSAlert) map[string]string {
	return map[string]string{
		"alert_id":   alert.ID.String(),
		"alert_type": string(alert.AlertType),
		"student_id": alert.StudentID.String(),
	}
}
