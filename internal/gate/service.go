package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yashop965/CamPass/internal/notify"
	"github.com/Yashop965/CamPass/internal/passes"
	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	pkgerrors "github.com/Yashop965/CamPass/pkg/errors"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/Yashop965/CamPass/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

const (
	// openGrace lets students scan out up to five minutes before the
	// window opens.
	openGrace = 5 * time.Minute

	conflictRetryDelay = 25 * time.Millisecond
)

type passRepository interface {
	FindByBarcode(ctx context.Context, barcode string) (*models.Pass, error)
	UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) (bool, error)
}

// ScanResult reports the outcome of a successful barcode scan.
type ScanResult struct {
	Pass      passes.PassDTO `json:"pass"`
	ScanType  enums.ScanType `json:"scan_type"`
	LateEntry bool           `json:"late_entry"`

	parentID *uuid.UUID
}

// Service processes gate scans.
type Service interface {
	Scan(ctx context.Context, guardID uuid.UUID, barcode string) (*ScanResult, error)
}

type service struct {
	repo     passRepository
	notifier notify.Notifier
	metrics  *metrics.GateScanMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the dependencies for the gate service.
type ServiceParams struct {
	Repo     passRepository
	Notifier notify.Notifier
	Metrics  *metrics.GateScanMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

// NewService wires the gate scan service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("pass repository is required")
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
		notifier: params.Notifier,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// Scan toggles a pass through its exit/entry cycle. The clock is read once
// per attempt so every time check inside a scan agrees. The version check
// makes concurrent scans of the same barcode settle into exactly one exit
// and one entry; a lost race is retried once against fresh state.
func (s *service) Scan(ctx context.Context, guardID uuid.UUID, barcode string) (*ScanResult, error) {
	if guardID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guard id required")
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode required")
	}

	var (
		result *ScanResult
		// intended pins the direction chosen on the first attempt so a
		// retry after a lost race cannot flip an exit scan into an entry.
		intended enums.ScanType
	)
	backoff := retry.WithMaxRetries(1, retry.NewConstant(conflictRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt, err := s.scanOnce(ctx, barcode, &intended)
		if err != nil {
			return err
		}
		result = attempt
		return nil
	})
	if err != nil {
		s.metrics.IncScan("unknown", outcomeLabel(err))
		return nil, err
	}

	outcome := "ok"
	if result.LateEntry {
		outcome = "late"
	}
	s.metrics.IncScan(string(result.ScanType), outcome)

	if result.LateEntry {
		s.alertLateEntry(ctx, result)
	}

	return result, nil
}

func (s *service) scanOnce(ctx context.Context, barcode string, intended *enums.ScanType) (*ScanResult, error) {
	pass, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pass not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load pass")
	}

	now := s.now().UTC()

	if !pass.Status.IsScannable() {
		switch pass.Status {
		case enums.PassStatusEntered:
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyUsed, "pass already completed its exit/entry cycle")
		case enums.PassStatusPending, enums.PassStatusApprovedParent:
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pass is not approved yet")
		default:
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("pass in status %s cannot be scanned", pass.Status))
		}
	}

	direction := enums.ScanTypeExit
	if pass.Status == enums.PassStatusExited {
		direction = enums.ScanTypeEntry
	}
	if *intended == "" {
		*intended = direction
	} else if *intended != direction {
		// the competing scan already recorded this direction; the loser
		// must not toggle the pass a second time
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyUsed,
			fmt.Sprintf("%s already recorded by a concurrent scan", *intended))
	}

	if direction == enums.ScanTypeEntry {
		return s.recordEntry(ctx, pass, now)
	}
	return s.recordExit(ctx, pass, now)
}

func (s *service) recordExit(ctx context.Context, pass *models.Pass, now time.Time) (*ScanResult, error) {
	if now.Before(pass.ValidFrom.Add(-openGrace)) {
		return nil, pkgerrors.New(pkgerrors.CodeNotYetValid, "pass window has not opened yet")
	}
	// expiry blocks leaving campus, never returning
	if now.After(pass.ValidTo) {
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "pass window has closed")
	}

	ok, err := s.repo.UpdateVersioned(ctx, pass.ID, pass.Version, map[string]any{
		"status":    enums.PassStatusExited,
		"exit_time": now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record exit")
	}
	if !ok {
		s.metrics.IncConflict()
		return nil, retry.RetryableError(pkgerrors.New(pkgerrors.CodeConflict, "pass was scanned concurrently"))
	}

	pass.Status = enums.PassStatusExited
	pass.ExitTime = &now
	pass.Version++

	return &ScanResult{
		Pass:     *passes.FromModel(pass),
		ScanType: enums.ScanTypeExit,
	}, nil
}

func (s *service) recordEntry(ctx context.Context, pass *models.Pass, now time.Time) (*ScanResult, error) {
	late := now.After(pass.ValidTo)

	ok, err := s.repo.UpdateVersioned(ctx, pass.ID, pass.Version, map[string]any{
		"status":     enums.PassStatusEntered,
		"entry_time": now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record entry")
	}
	if !ok {
		s.metrics.IncConflict()
		return nil, retry.RetryableError(pkgerrors.New(pkgerrors.CodeConflict, "pass was scanned concurrently"))
	}

	pass.Status = enums.PassStatusEntered
	pass.EntryTime = &now
	pass.Version++

	result := &ScanResult{
		Pass:      *passes.FromModel(pass),
		ScanType:  enums.ScanTypeEntry,
		LateEntry: late,
	}
	if pass.Student != nil {
		result.parentID = pass.Student.ParentID
	}
	return result, nil
}

func (s *service) alertLateEntry(ctx context.Context, result *ScanResult) {
	student := result.Pass.StudentName
	if student == "" {
		student = "A student"
	}
	data := map[string]string{
		"pass_id":      result.Pass.ID.String(),
		"student_id":   result.Pass.UserID.String(),
		"student_name": result.Pass.StudentName,
		"valid_to":     result.Pass.ValidTo.Format(time.RFC3339),
	}
	if result.Pass.EntryTime != nil {
		data["entry_time"] = result.Pass.EntryTime.Format(time.RFC3339)
	}
	msgs := []notify.Message{{
		Channel: notify.WardenAlertsChannel,
		Type:    enums.NotificationTypeLateEntry,
		Title:   "Late entry",
		Body:    fmt.Sprintf("%s returned after the pass window closed", student),
		Data:    data,
	}}
	if parentID := result.parentID; parentID != nil {
		msgs = append(msgs, notify.Message{
			Channel: notify.ParentAlertsChannel(*parentID),
			Type:    enums.NotificationTypeLateEntry,
			Title:   "Late entry",
			Body:    fmt.Sprintf("%s returned after the pass window closed", student),
			Data:    data,
		})
	}
	if err := s.notifier.Publish(ctx, msgs...); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("late entry alert failed: %v", err))
	}
}

func outcomeLabel(err error) string {
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) {
		return "error"
	}
	return strings.ToLower(string(appErr.Code()))
}
