package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	pkgerrors "github.com/Yashop965/CamPass/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service defines the user operations needed by the controllers.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	LinkStudent(ctx context.Context, parentID uuid.UUID, studentEmail string) (*UserDTO, error)
	Children(ctx context.Context, parentID uuid.UUID) ([]UserDTO, error)
	UpdateDeviceToken(ctx context.Context, userID uuid.UUID, token string) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	LinkParent(ctx context.Context, studentID, parentID uuid.UUID) (bool, error)
	Children(ctx context.Context, parentID uuid.UUID) ([]models.User, error)
	UpdateDeviceToken(ctx context.Context, id uuid.UUID, token string) error
}

type service struct {
	repo userRepository
}

// NewService constructs a users service with the provided repository.
func NewService(repo userRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}

// LinkStudent attaches the calling parent to a student account. Linking is
// first-writer-wins: once a student has a parent the link never changes.
// Re-linking the same pair is treated as a no-op success.
func (s *service) LinkStudent(ctx context.Context, parentID uuid.UUID, studentEmail string) (*UserDTO, error) {
	if parentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent id required")
	}
	email := strings.ToLower(strings.TrimSpace(studentEmail))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student email required")
	}

	student, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find student")
	}
	if student.Role != enums.RoleStudent {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account is not a student")
	}
	if student.ParentID != nil {
		if *student.ParentID == parentID {
			return FromModel(student), nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "student already linked to another parent")
	}

	linked, err := s.repo.LinkParent(ctx, student.ID, parentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "link student")
	}
	if !linked {
		// lost the race against another parent
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "student already linked to another parent")
	}

	student.ParentID = &parentID
	return FromModel(student), nil
}

func (s *service) Children(ctx context.Context, parentID uuid.UUID) ([]UserDTO, error) {
	if parentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent id required")
	}
	children, err := s.repo.Children(ctx, parentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list children")
	}
	dtos := make([]UserDTO, 0, len(children))
	for i := range children {
		dtos = append(dtos, *FromModel(&children[i]))
	}
	return dtos, nil
}

func (s *service) UpdateDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if strings.TrimSpace(token) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "device token required")
	}
	if err := s.repo.UpdateDeviceToken(ctx, userID, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update device token")
	}
	return nil
}
