package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	professionalserrors "clinagenda/internal/professionals/errors"
	"clinagenda/internal/professionals/validator"
	"clinagenda/pkg/config"
	mongotx "clinagenda/pkg/db/mongo"
	apperrors "clinagenda/pkg/errors"
	"clinagenda/pkg/logger"
	"clinagenda/pkg/model"
)

// ────────────────────────────────────────────────
// Mock repository for testing
// ────────────────────────────────────────────────

type mockProfessionalRepository struct {
	createFunc          func(ctx context.Context, p *model.Professional) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Professional, error)
	findByNameFunc      func(ctx context.Context, name string) (*model.Professional, error)
	findAllFunc         func(ctx context.Context, limit int, offset int64) ([]*model.Professional, error)
	countFunc           func(ctx context.Context) (int64, error)
	setAvailabilityFunc func(ctx context.Context, id string, date string, window *model.AvailabilityWindow) error
}

func (m *mockProfessionalRepository) Create(ctx context.Context, p *model.Professional) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, p)
	}
	return nil
}

func (m *mockProfessionalRepository) FindByID(ctx context.Context, id string) (*model.Professional, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, professionalserrors.ErrNotFound
}

func (m *mockProfessionalRepository) FindByName(ctx context.Context, name string) (*model.Professional, error) {
	if m.findByNameFunc != nil {
		return m.findByNameFunc(ctx, name)
	}
	return nil, professionalserrors.ErrNotFound
}

func (m *mockProfessionalRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Professional, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Professional{}, nil
}

func (m *mockProfessionalRepository) Update(ctx context.Context, id string, p *model.Professional) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockProfessionalRepository) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockProfessionalRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockProfessionalRepository) SetAvailability(ctx context.Context, id string, date string, window *model.AvailabilityWindow) error {
	if m.setAvailabilityFunc != nil {
		return m.setAvailabilityFunc(ctx, id, date, window)
	}
	return nil
}

func (m *mockProfessionalRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

func serviceConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.LevelError,
			Format:  logger.FormatJSON,
			Service: "test",
		}),
		ReadTimeout: 5 * time.Second,
	}
}

func newService(repo *mockProfessionalRepository) ProfessionalService {
	cfg := serviceConfig()
	return NewProfessionalService(repo, validator.NewProfessionalValidator(cfg.Log), cfg)
}

func demoWindow() *model.AvailabilityWindow {
	return &model.AvailabilityWindow{
		Start: "09:00",
		End:   "18:00",
		LunchBreak: &model.LunchBreak{
			Start: "12:00",
			End:   "13:00",
		},
	}
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreate_SanitizesAndPersists(t *testing.T) {
	var created *model.Professional
	repo := &mockProfessionalRepository{
		createFunc: func(_ context.Context, p *model.Professional) error {
			created = p
			p.ID = "507f1f77bcf86cd799439011"
			return nil
		},
	}
	svc := newService(repo)

	p := &model.Professional{Name: "  Dr.   Alice    Chen  ", Role: "psychology"}
	require.NoError(t, svc.Create(context.Background(), p))

	require.NotNil(t, created)
	assert.Equal(t, "Dr. Alice Chen", created.Name)
	assert.Equal(t, "507f1f77bcf86cd799439011", p.ID)
}

func TestCreate_RejectsDuplicateName(t *testing.T) {
	repo := &mockProfessionalRepository{
		findByNameFunc: func(_ context.Context, _ string) (*model.Professional, error) {
			return &model.Professional{ID: "507f1f77bcf86cd799439011", Name: "Dr. Alice Chen"}, nil
		},
	}
	svc := newService(repo)

	err := svc.Create(context.Background(), &model.Professional{Name: "dr. alice chen", Role: "psychology"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)
}

func TestCreate_RejectsInvalidProfessional(t *testing.T) {
	svc := newService(&mockProfessionalRepository{})

	err := svc.Create(context.Background(), &model.Professional{Name: "X", Role: "psychology"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.AsAppError(err).Code)
}

func TestGetAll_ConcurrentAccess(t *testing.T) {
	repo := &mockProfessionalRepository{
		countFunc: func(_ context.Context) (int64, error) {
			time.Sleep(10 * time.Millisecond)
			return 100, nil
		},
		findAllFunc: func(_ context.Context, _ int, _ int64) ([]*model.Professional, error) {
			time.Sleep(10 * time.Millisecond)
			return []*model.Professional{
				{ID: "507f1f77bcf86cd799439011", Name: "Dr. Alice Chen"},
				{ID: "507f1f77bcf86cd799439012", Name: "Dr. Bruno Silva"},
			}, nil
		},
	}
	svc := newService(repo)

	for i := 0; i < 10; i++ {
		professionals, count, err := svc.GetAll(context.Background(), 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 100, count)
		assert.Len(t, professionals, 2)
	}
}

func TestGetAll_LimitNormalization(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	repo := &mockProfessionalRepository{
		findAllFunc: func(_ context.Context, limit int, offset int64) ([]*model.Professional, error) {
			gotLimit = limit
			gotOffset = offset
			return []*model.Professional{}, nil
		},
	}
	svc := newService(repo)

	_, _, err := svc.GetAll(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 10, gotLimit)
	assert.EqualValues(t, 0, gotOffset)
}

func TestApplyAvailability_WritesEveryDate(t *testing.T) {
	written := map[string]*model.AvailabilityWindow{}
	repo := &mockProfessionalRepository{
		findByIDFunc: func(_ context.Context, id string) (*model.Professional, error) {
			return &model.Professional{ID: id, Name: "Dr. Alice Chen", Role: "psychology"}, nil
		},
		setAvailabilityFunc: func(_ context.Context, _ string, date string, window *model.AvailabilityWindow) error {
			written[date] = window
			return nil
		},
	}
	svc := newService(repo)

	err := svc.ApplyAvailability(context.Background(), "507f1f77bcf86cd799439011", &model.AvailabilityAssignment{
		Dates:  []string{"2025-11-20", "2025-11-21", "2025-11-20"}, // duplicate collapses
		Window: demoWindow(),
	})
	require.NoError(t, err)

	require.Len(t, written, 2)
	assert.Equal(t, "09:00", written["2025-11-20"].Start)
	assert.Equal(t, "09:00", written["2025-11-21"].Start)
}

func TestApplyAvailability_DayOffStoresNil(t *testing.T) {
	written := map[string]*model.AvailabilityWindow{}
	repo := &mockProfessionalRepository{
		findByIDFunc: func(_ context.Context, id string) (*model.Professional, error) {
			return &model.Professional{ID: id, Name: "Dr. Alice Chen", Role: "psychology"}, nil
		},
		setAvailabilityFunc: func(_ context.Context, _ string, date string, window *model.AvailabilityWindow) error {
			written[date] = window
			return nil
		},
	}
	svc := newService(repo)

	err := svc.ApplyAvailability(context.Background(), "507f1f77bcf86cd799439011", &model.AvailabilityAssignment{
		Dates:  []string{"2025-11-19"},
		DayOff: true,
	})
	require.NoError(t, err)

	window, ok := written["2025-11-19"]
	require.True(t, ok)
	assert.Nil(t, window)
}

func TestApplyAvailability_UnknownProfessional(t *testing.T) {
	svc := newService(&mockProfessionalRepository{})

	err := svc.ApplyAvailability(context.Background(), "507f1f77bcf86cd799439099", &model.AvailabilityAssignment{
		Dates:  []string{"2025-11-20"},
		Window: demoWindow(),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.AsAppError(err).Code)
}

func TestApplyRecurrence_WritesExpandedDates(t *testing.T) {
	var written []string
	repo := &mockProfessionalRepository{
		findByIDFunc: func(_ context.Context, id string) (*model.Professional, error) {
			return &model.Professional{ID: id, Name: "Dr. Alice Chen", Role: "psychology"}, nil
		},
		setAvailabilityFunc: func(_ context.Context, _ string, date string, _ *model.AvailabilityWindow) error {
			written = append(written, date)
			return nil
		},
	}
	svc := newService(repo)

	dates, err := svc.ApplyRecurrence(context.Background(), "507f1f77bcf86cd799439011", &model.RecurrenceRequest{
		Rule:          model.RecurrenceWeekly,
		ReferenceDate: "2025-11-03", // Monday
		Month:         "2025-11",
		Window:        demoWindow(),
	})
	require.NoError(t, err)

	want := []string{"2025-11-03", "2025-11-10", "2025-11-17", "2025-11-24"}
	assert.Equal(t, want, dates)
	assert.Equal(t, want, written)
}

func TestApplyRecurrence_EmptyExpansionSkipsRepo(t *testing.T) {
	repo := &mockProfessionalRepository{
		setAvailabilityFunc: func(_ context.Context, _ string, _ string, _ *model.AvailabilityWindow) error {
			t.Error("SetAvailability must not be called for an empty expansion")
			return nil
		},
	}
	svc := newService(repo)

	// The 31st never occurs in November.
	dates, err := svc.ApplyRecurrence(context.Background(), "507f1f77bcf86cd799439011", &model.RecurrenceRequest{
		Rule:          model.RecurrenceMonthly,
		ReferenceDate: "2025-10-31",
		Month:         "2025-11",
		Window:        demoWindow(),
	})
	require.NoError(t, err)
	assert.Empty(t, dates)
	assert.NotNil(t, dates)
}
