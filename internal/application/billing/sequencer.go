package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/infrastructure/telemetry"
)

// maxNumberSkips bounds how many already-issued numbers the sequencer steps
// over after a start count reset before giving up.
const maxNumberSkips = 1000

// issueNumber mints the next display number for a receivable inside the
// caller's transaction. The numbering row stays locked until the transaction
// ends, so concurrent creations for one vendor are serialized and a rollback
// leaves the counter untouched.
//
// After a start count reset the counter can point at numbers issued before the
// reset. Those are skipped so display numbers stay unique per vendor.
func issueNumber(ctx context.Context, repos TransactionalRepositories, vendorID, receivableID uuid.UUID) (string, error) {
	var (
		number string
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.BillingOperationLabels(telemetry.OperationIssueNumber, vendorID.String()), func(c context.Context) {
		number, err = nextUnusedNumber(c, repos, vendorID)
		if err != nil {
			return
		}
		err = repos.Sequences().AppendUsedNumber(c, billing.UsedNumber{
			VendorID:      vendorID,
			DisplayNumber: number,
			ReceivableID:  receivableID,
			IssuedAt:      time.Now(),
		})
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

func nextUnusedNumber(ctx context.Context, repos TransactionalRepositories, vendorID uuid.UUID) (string, error) {
	config, err := repos.Sequences().FindForUpdate(ctx, vendorID)
	if err != nil {
		return "", err
	}
	storedVersion := config.Version

	for range maxNumberSkips {
		number := config.Issue()
		used, err := repos.Sequences().IsNumberUsed(ctx, vendorID, number)
		if err != nil {
			return "", err
		}
		if used {
			continue
		}
		config.Version = storedVersion + 1
		if err := repos.Sequences().Save(ctx, config); err != nil {
			return "", err
		}
		return number, nil
	}
	return "", billing.NewInvalidConfigError(fmt.Sprintf(
		"No unused invoice number within %d of the current count; change the start count", maxNumberSkips))
}
