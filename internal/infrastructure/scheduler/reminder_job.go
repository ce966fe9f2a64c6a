package scheduler

import (
	"context"

	appbilling "github.com/vendorbill/backend/internal/application/billing"
)

// ReminderJobName identifies the payment reminder job
const ReminderJobName = "payment_reminders"

// ReminderSender is implemented by the reminder service
type ReminderSender interface {
	SendReminders(ctx context.Context) (*appbilling.ReminderStats, error)
}

// ReminderJob creates payment reminders for overdue receivables
type ReminderJob struct {
	sender ReminderSender
}

// NewReminderJob creates a new ReminderJob
func NewReminderJob(sender ReminderSender) *ReminderJob {
	return &ReminderJob{sender: sender}
}

// Name returns the job name
func (j *ReminderJob) Name() string { return ReminderJobName }

// Run sends one round of reminders
func (j *ReminderJob) Run(ctx context.Context) error {
	_, err := j.sender.SendReminders(ctx)
	return err
}
