package locations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yashop965/CamPass/internal/sos"
	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	pkgerrors "github.com/Yashop965/CamPass/pkg/errors"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// Service records student location pings and serves the parent tracking reads.
type Service interface {
	Record(ctx context.Context, studentID uuid.UUID, req RecordLocationRequest) (*LocationDTO, error)
	Latest(ctx context.Context, actor Actor, studentID uuid.UUID) (*LocationDTO, error)
	History(ctx context.Context, actor Actor, studentID uuid.UUID, limit int) ([]LocationDTO, error)
}

type locationRepository interface {
	Create(ctx context.Context, loc *models.Location) (*models.Location, error)
	Latest(ctx context.Context, studentID uuid.UUID) (*models.Location, error)
	History(ctx context.Context, studentID uuid.UUID, limit int) ([]models.Location, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type geofenceAlerts interface {
	RaiseGeofence(ctx context.Context, studentID uuid.UUID, latitude, longitude float64) (*sos.AlertDTO, error)
}

type service struct {
	repo   locationRepository
	users  userDirectory
	alerts geofenceAlerts
	logg   *logger.Logger
	now    func() time.Time
}

// ServiceParams bundles the dependencies for the locations service.
type ServiceParams struct {
	Repo   locationRepository
	Users  userDirectory
	Alerts geofenceAlerts
	Logger *logger.Logger
	Now    func() time.Time
}

// NewService wires the locations service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("locations repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("geofence alerts are required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   params.Repo,
		users:  params.Users,
		alerts: params.Alerts,
		logg:   params.Logger,
		now:    now,
	}, nil
}

// Record persists a ping. A client-reported geofence violation additionally
// raises an SOS record; a failure there is logged but never fails the ping,
// which is already stored.
func (s *service) Record(ctx context.Context, studentID uuid.UUID, req RecordLocationRequest) (*LocationDTO, error) {
	if studentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student id required")
	}
	if req.Latitude < -90 || req.Latitude > 90 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "latitude out of range")
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "longitude out of range")
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load student")
	}
	if student.Role != enums.RoleStudent {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "only students report locations")
	}

	loc, err := s.repo.Create(ctx, &models.Location{
		ID:                uuid.New(),
		StudentID:         studentID,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		Accuracy:          req.Accuracy,
		GeofenceViolation: req.GeofenceViolation,
		RecordedAt:        s.now().UTC(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record location")
	}

	if req.GeofenceViolation {
		if _, err := s.alerts.RaiseGeofence(ctx, studentID, req.Latitude, req.Longitude); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("geofence alert failed: %v", err))
		}
	}

	return fromModel(loc), nil
}

func (s *service) Latest(ctx context.Context, actor Actor, studentID uuid.UUID) (*LocationDTO, error) {
	if err := s.authorizeRead(ctx, actor, studentID); err != nil {
		return nil, err
	}
	loc, err := s.repo.Latest(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no location recorded yet")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load latest location")
	}
	return fromModel(loc), nil
}

func (s *service) History(ctx context.Context, actor Actor, studentID uuid.UUID, limit int) ([]LocationDTO, error) {
	if err := s.authorizeRead(ctx, actor, studentID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	locs, err := s.repo.History(ctx, studentID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load location history")
	}
	return fromModels(locs), nil
}

// authorizeRead lets wardens and admins read any student, parents only their
// linked child, and students only themselves.
func (s *service) authorizeRead(ctx context.Context, actor Actor, studentID uuid.UUID) error {
	if actor.ID == uuid.Nil || studentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id and student id required")
	}
	switch actor.Role {
	case enums.RoleWarden, enums.RoleAdmin:
		return nil
	case enums.RoleStudent:
		if actor.ID == studentID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this student's location")
	case enums.RoleParent:
		student, err := s.users.FindByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load student")
		}
		if student.ParentID != nil && *student.ParentID == actor.ID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "student is not linked to this parent")
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot view locations")
	}
}
