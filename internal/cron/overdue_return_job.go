package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Yashop965/CamPass/internal/notify"
	"github.com/Yashop965/CamPass/pkg/db/models"
	"github.com/Yashop965/CamPass/pkg/enums"
	"github.com/Yashop965/CamPass/pkg/logger"
	"github.com/google/uuid"
)

const defaultOverdueGrace = 15 * time.Minute

type overduePassReader interface {
	FindOverdue(ctx context.Context, asOf time.Time, grace time.Duration) ([]models.Pass, error)
	MarkOverdueAlerted(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// OverdueReturnJobParams configure the overdue-return sweep.
type OverdueReturnJobParams struct {
	Logger   *logger.Logger
	Passes   overduePassReader
	Notifier notify.Notifier
	Grace    time.Duration
}

// NewOverdueReturnJob builds the job that flags students still off campus
// past their pass window plus grace. Each pass alerts at most once; the
// overdue_alerted_at marker keeps later sweeps quiet.
func NewOverdueReturnJob(params OverdueReturnJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Passes == nil {
		return nil, fmt.Errorf("pass reader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultOverdueGrace
	}
	return &overdueReturnJob{
		logg:     params.Logger,
		passes:   params.Passes,
		notifier: params.Notifier,
		grace:    grace,
		now:      time.Now,
	}, nil
}

type overdueReturnJob struct {
	logg     *logger.Logger
	passes   overduePassReader
	notifier notify.Notifier
	grace    time.Duration
	now      func() time.Time
}

func (j *overdueReturnJob) Name() string { return "overdue-return" }

func (j *overdueReturnJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	overdue, err := j.passes.FindOverdue(ctx, now, j.grace)
	if err != nil {
		return fmt.Errorf("query overdue passes: %w", err)
	}

	alerted := make([]uuid.UUID, 0, len(overdue))
	for i := range overdue {
		pass := &overdue[i]
		if err := j.alert(ctx, pass); err != nil {
			// skip marking so the next sweep retries this pass
			j.logg.Warn(ctx, fmt.Sprintf("overdue alert failed for pass %s: %v", pass.ID, err))
			continue
		}
		alerted = append(alerted, pass.ID)
	}

	if err := j.passes.MarkOverdueAlerted(ctx, alerted, now); err != nil {
		return fmt.Errorf("mark overdue alerted: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"overdue": len(overdue), "alerted": len(alerted)})
	j.logg.Info(logCtx, "overdue return sweep complete")
	return nil
}

func (j *overdueReturnJob) alert(ctx context.Context, pass *models.Pass) error {
	student := "A student"
	if pass.Student != nil {
		student = pass.Student.Name
	}
	body := fmt.Sprintf("%s has not returned; the pass window closed at %s",
		student, pass.ValidTo.UTC().Format(time.RFC3339))
	data := map[string]string{
		"pass_id":    pass.ID.String(),
		"student_id": pass.UserID.String(),
	}

	msgs := []notify.Message{{
		Channel: notify.WardenAlertsChannel,
		Type:    enums.NotificationTypeOverdueReturn,
		Title:   "Overdue return",
		Body:    body,
		Data:    data,
	}}
	if pass.Student != nil && pass.Student.ParentID != nil {
		msgs = append(msgs, notify.Message{
			Channel: notify.ParentAlertsChannel(*pass.Student.ParentID),
			Type:    enums.NotificationTypeOverdueReturn,
			Title:   "Overdue return",
			Body:    body,
			Data:    data,
		})
	}
	return j.notifier.Publish(ctx, msgs...)
}
