package service

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	professionalserrors "clinagenda/internal/professionals/errors"
	"clinagenda/internal/professionals/repository"
	"clinagenda/internal/professionals/validator"
	"clinagenda/pkg/config"
	apperrors "clinagenda/pkg/errors"
	"clinagenda/pkg/model"
	"clinagenda/pkg/sanitizer"
)

type ProfessionalService interface {
	Create(ctx context.Context, p *model.Professional) error
	GetByID(ctx context.Context, id string) (*model.Professional, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Professional, int64, error)
	Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) error
	Delete(ctx context.Context, id string) error

	ApplyAvailability(ctx context.Context, id string, assignment *model.AvailabilityAssignment) error
	ApplyRecurrence(ctx context.Context, id string, req *model.RecurrenceRequest) ([]string, error)
}

type professionalService struct {
	repo      repository.ProfessionalRepository
	validator *validator.ProfessionalValidator
	cfg       *config.Config
}

func NewProfessionalService(
	repo repository.ProfessionalRepository,
	validator *validator.ProfessionalValidator,
	cfg *config.Config,
) ProfessionalService {
	return &professionalService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *professionalService) Create(ctx context.Context, p *model.Professional) error {
	p.Name = sanitizer.SanitizeName(p.Name)
	p.Role = sanitizer.SanitizeName(p.Role)

	if err := s.validator.Validate(p); err != nil {
		s.cfg.Log.Warn("Professional validation failed",
			"name", p.Name,
			"error", err,
		)
		return apperrors.Validation("Professional validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindByName(sessCtx, p.Name)
		if err != nil && !errors.Is(err, professionalserrors.ErrNotFound) {
			return apperrors.Internal("Failed to check for existing professionals", err)
		}
		if existing != nil {
			return apperrors.Conflict("Professional with the same name already exists")
		}
		return s.repo.Create(sessCtx, p)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create professional",
			"name", p.Name,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Professional created successfully",
		"id", p.ID,
		"name", p.Name,
		"role", p.Role,
	)
	return nil
}

func (s *professionalService) GetByID(ctx context.Context, id string) (*model.Professional, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, professionalserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Professional", id)
		}
		if errors.Is(err, professionalserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid professional ID format")
		}
		s.cfg.Log.Error("Failed to get professional by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve professional", err)
	}

	return p, nil
}

func (s *professionalService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Professional, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var professionals []*model.Professional
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx)
		if err != nil {
			s.cfg.Log.Error("Failed to count professionals", "error", err)
			errCount = apperrors.Internal("Failed to count professionals", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		professionals, err = s.repo.FindAll(sharedCtx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all professionals",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve professionals", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return professionals, count, nil
}

func (s *professionalService) Update(ctx context.Context, id string, updates *model.ProfessionalUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Professional ID cannot be empty")
	}

	if updates.Name != "" {
		updates.Name = sanitizer.SanitizeName(updates.Name)
	}
	if updates.Role != "" {
		updates.Role = sanitizer.SanitizeName(updates.Role)
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		return apperrors.Validation("Professional validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	merged := *existing
	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Role != "" {
		merged.Role = updates.Role
	}

	if _, err := s.repo.Update(ctx, id, &merged); err != nil {
		if errors.Is(err, professionalserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Professional", id)
		}
		s.cfg.Log.Error("Failed to update professional",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to update professional", err)
	}

	s.cfg.Log.Info("Professional updated successfully", "id", id, "name", merged.Name)
	return nil
}

func (s *professionalService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Professional ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, professionalserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Professional", id)
		}
		if errors.Is(err, professionalserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid professional ID format")
		}
		s.cfg.Log.Error("Failed to delete professional",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete professional", err)
	}

	s.cfg.Log.Info("Professional deleted successfully", "id", id)
	return nil
}

// ApplyAvailability writes the same window, or an explicit day off, to
// every selected date. Dates already holding a window are overwritten;
// the booked ledger for those dates is left untouched.
func (s *professionalService) ApplyAvailability(ctx context.Context, id string, assignment *model.AvailabilityAssignment) error {
	if id == "" {
		return apperrors.InvalidInput("Professional ID cannot be empty")
	}

	assignment.Dates = sanitizer.SanitizeSlice(assignment.Dates, sanitizer.SanitizeDate)
	if err := s.validator.ValidateAssignment(assignment); err != nil {
		s.cfg.Log.Warn("Availability assignment validation failed",
			"professional_id", id,
			"error", err,
		)
		return apperrors.Validation("Availability assignment validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	window := assignment.Window
	if assignment.DayOff {
		window = nil
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.FindByID(sessCtx, id); err != nil {
			if errors.Is(err, professionalserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Professional", id)
			}
			if errors.Is(err, professionalserrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid professional ID format")
			}
			return apperrors.Internal("Failed to check professional existence", err)
		}

		for _, date := range assignment.Dates {
			if err := s.repo.SetAvailability(sessCtx, id, date, window); err != nil {
				return apperrors.Internal("Failed to set availability", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Availability applied",
		"professional_id", id,
		"dates", len(assignment.Dates),
		"day_off", assignment.DayOff,
	)
	return nil
}

// ApplyRecurrence expands the rule over the target month and applies
// the window to every matching date. Returns the dates written.
func (s *professionalService) ApplyRecurrence(ctx context.Context, id string, req *model.RecurrenceRequest) ([]string, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}

	if err := s.validator.ValidateRecurrence(req); err != nil {
		s.cfg.Log.Warn("Recurrence validation failed",
			"professional_id", id,
			"error", err,
		)
		return nil, apperrors.Validation("Recurrence validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	dates, err := ExpandRecurrence(req.Rule, req.ReferenceDate, req.Month)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	if len(dates) == 0 {
		s.cfg.Log.Debug("Recurrence touched no dates",
			"professional_id", id,
			"rule", req.Rule,
			"month", req.Month,
		)
		return []string{}, nil
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.repo.FindByID(sessCtx, id); err != nil {
			if errors.Is(err, professionalserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Professional", id)
			}
			if errors.Is(err, professionalserrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid professional ID format")
			}
			return apperrors.Internal("Failed to check professional existence", err)
		}

		for _, date := range dates {
			if err := s.repo.SetAvailability(sessCtx, id, date, req.Window); err != nil {
				return apperrors.Internal("Failed to set availability", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Recurrence applied",
		"professional_id", id,
		"rule", req.Rule,
		"month", req.Month,
		"dates", len(dates),
	)
	return dates, nil
}
