package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/vendorbill/backend/internal/domain/billing"
	"github.com/vendorbill/backend/internal/domain/shared"
)

// SequenceService manages per-vendor invoice numbering settings
type SequenceService struct {
	vendorRepo   billing.VendorRepository
	sequenceRepo billing.SequenceRepository
	txScope      TransactionScope
}

// NewSequenceService creates a new SequenceService
func NewSequenceService(
	vendorRepo billing.VendorRepository,
	sequenceRepo billing.SequenceRepository,
	txScope TransactionScope,
) *SequenceService {
	return &SequenceService{
		vendorRepo:   vendorRepo,
		sequenceRepo: sequenceRepo,
		txScope:      txScope,
	}
}

// GetConfig returns the vendor's numbering configuration.
// A vendor without one gets the defaults; nothing is persisted.
func (s *SequenceService) GetConfig(ctx context.Context, vendorID uuid.UUID) (*SequenceConfigResponse, error) {
	config, err := s.loadConfig(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	used, err := s.sequenceRepo.CountUsedNumbers(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return toSequenceConfigResponse(config, used), nil
}

// UpdateConfig changes the prefix and start count. A start count change resets
// numbering and is rejected unless the request confirms the reset, or the
// vendor has not issued any number yet.
func (s *SequenceService) UpdateConfig(ctx context.Context, vendorID uuid.UUID, req UpdateSequenceConfigRequest) (*UpdateSequenceConfigResult, error) {
	if _, err := billing.NormalizePrefix(req.Prefix); err != nil {
		return nil, err
	}
	if err := billing.ValidateStartCount(req.StartCount); err != nil {
		return nil, err
	}

	var (
		config *billing.SequenceConfig
		reset  bool
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Vendors().FindByID(ctx, vendorID); err != nil {
			return err
		}
		var err error
		config, err = repos.Sequences().FindForUpdate(ctx, vendorID)
		if err != nil {
			return err
		}
		if config.ChangesStartCount(req.StartCount) && !req.ConfirmReset {
			issued, err := repos.Sequences().CountUsedNumbers(ctx, vendorID)
			if err != nil {
				return err
			}
			if issued > 0 {
				return billing.NewInvalidConfigError("Start count change resets invoice numbering and requires confirmation")
			}
		}
		reset, err = config.Reconfigure(req.Prefix, req.StartCount)
		if err != nil {
			return err
		}
		return repos.Sequences().Save(ctx, config)
	})
	if err != nil {
		return nil, err
	}

	used, err := s.sequenceRepo.CountUsedNumbers(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return &UpdateSequenceConfigResult{
		Config: toSequenceConfigResponse(config, used),
		Reset:  reset,
	}, nil
}

// PreviewNext returns the number the next receivable would get, without consuming it
func (s *SequenceService) PreviewNext(ctx context.Context, vendorID uuid.UUID) (string, error) {
	config, err := s.loadConfig(ctx, vendorID)
	if err != nil {
		return "", err
	}
	return config.Preview(), nil
}

// CheckNumber reports whether a display number was already issued to the vendor
func (s *SequenceService) CheckNumber(ctx context.Context, vendorID uuid.UUID, number string) (*CheckNumberResponse, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Number is required")
	}
	if _, err := s.vendorRepo.FindByID(ctx, vendorID); err != nil {
		return nil, err
	}
	used, err := s.sequenceRepo.IsNumberUsed(ctx, vendorID, number)
	if err != nil {
		return nil, err
	}
	return &CheckNumberResponse{Number: number, Used: used}, nil
}

func (s *SequenceService) loadConfig(ctx context.Context, vendorID uuid.UUID) (*billing.SequenceConfig, error) {
	if _, err := s.vendorRepo.FindByID(ctx, vendorID); err != nil {
		return nil, err
	}
	config, err := s.sequenceRepo.FindByVendor(ctx, vendorID)
	if errors.Is(err, shared.ErrNotFound) {
		return billing.NewDefaultSequenceConfig(vendorID), nil
	}
	if err != nil {
		return nil, err
	}
	return config, nil
}
