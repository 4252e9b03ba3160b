package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "clinagenda/internal/booking/errors"
	"clinagenda/internal/professionals/validator"
	"clinagenda/pkg/config"
	apperrors "clinagenda/pkg/errors"
	"clinagenda/pkg/kafka"
	"clinagenda/pkg/logger"
	"clinagenda/pkg/model"

	mongotx "clinagenda/pkg/db/mongo"
)

const (
	testProfessionalID = "507f1f77bcf86cd799439011"
	testDate           = "2025-11-20"
)

type memoryStore struct {
	mu            sync.Mutex
	professionals map[string]*model.Professional
}

func newMemoryStore(ps ...*model.Professional) *memoryStore {
	s := &memoryStore{professionals: map[string]*model.Professional{}}
	for _, p := range ps {
		s.professionals[p.ID] = p
	}
	return s
}

func (s *memoryStore) FindByID(_ context.Context, id string) (*model.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.professionals[id]
	if !ok {
		return nil, bookingerrors.ErrProfessionalNotFound
	}
	return copyProfessional(p), nil
}

func (s *memoryStore) FindByName(_ context.Context, name string) (*model.Professional, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.professionals {
		if strings.EqualFold(p.Name, name) {
			return copyProfessional(p), nil
		}
	}
	return nil, bookingerrors.ErrProfessionalNotFound
}

func (s *memoryStore) ReplaceDaySchedule(_ context.Context, id string, date string, slots []model.TimeSlot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.professionals[id]
	if !ok {
		return bookingerrors.ErrProfessionalNotFound
	}
	if p.Schedule == nil {
		p.Schedule = map[string][]model.TimeSlot{}
	}
	p.Schedule[date] = slots
	return nil
}

func (s *memoryStore) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

func copyProfessional(p *model.Professional) *model.Professional {
	out := *p
	out.Schedule = map[string][]model.TimeSlot{}
	for date, slots := range p.Schedule {
		day := make([]model.TimeSlot, len(slots))
		copy(day, slots)
		out.Schedule[date] = day
	}
	return &out
}

type memoryLockRepo struct {
	mu    sync.Mutex
	locks map[string]*model.SlotLock
}

func newMemoryLockRepo() *memoryLockRepo {
	return &memoryLockRepo{locks: map[string]*model.SlotLock{}}
}

func (r *memoryLockRepo) Create(_ context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.locks[lock.ID]; held {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	r.locks[lock.ID] = lock
	return lock, nil
}

func (r *memoryLockRepo) Delete(_ context.Context, lockID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.locks, lockID)
	return nil
}

type eventRecorder struct {
	mu       sync.Mutex
	messages []kafka.Message
}

func (e *eventRecorder) Publish(_ context.Context, msg kafka.Message) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.messages = append(e.messages, msg)
	return nil
}

func (e *eventRecorder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.messages)
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.LevelError,
			Format:  logger.FormatJSON,
			Service: "test",
		}),
		SlotDurationMin: 60,
		SlotLockTTL:     10 * time.Second,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
	}
}

func testProfessional() *model.Professional {
	return &model.Professional{
		ID:   testProfessionalID,
		Name: "Dr. Alice Chen",
		Role: "Cardiologist",
		Availability: map[string]*model.AvailabilityWindow{
			testDate: {
				Start:      "09:00",
				End:        "17:00",
				LunchBreak: &model.LunchBreak{Start: "12:00", End: "13:00"},
			},
		},
		Schedule: map[string][]model.TimeSlot{
			testDate: {
				{Time: "10:00", Patient: "patient-existing"},
			},
		},
	}
}

func newTestService(store *memoryStore, events EventPublisher) BookingService {
	cfg := testConfig()
	return NewBookingService(store, newMemoryLockRepo(), validator.NewProfessionalValidator(cfg.Log), events, cfg)
}

func request(slotTime string, patient string) *model.AppointmentRequest {
	return &model.AppointmentRequest{
		ProfessionalID: testProfessionalID,
		Date:           testDate,
		Time:           slotTime,
		PatientID:      patient,
	}
}

func TestFreeSlots(t *testing.T) {
	svc := newTestService(newMemoryStore(testProfessional()), nil)

	slots, err := svc.FreeSlots(context.Background(), testProfessionalID, testDate)
	if err != nil {
		t.Fatalf("FreeSlots() error = %v", err)
	}

	want := []string{"09:00", "11:00", "13:00", "14:00", "15:00", "16:00"}
	if len(slots) != len(want) {
		t.Fatalf("FreeSlots() = %v, want %v", slots, want)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slot %d = %q, want %q", i, slots[i], want[i])
		}
	}
}

func TestFreeSlots_UnknownProfessionalDegradesToEmpty(t *testing.T) {
	svc := newTestService(newMemoryStore(), nil)

	slots, err := svc.FreeSlots(context.Background(), testProfessionalID, testDate)
	if err != nil {
		t.Fatalf("FreeSlots() error = %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("FreeSlots() = %v, want empty", slots)
	}
}

func TestFreeSlots_DayWithoutWindowIsEmpty(t *testing.T) {
	svc := newTestService(newMemoryStore(testProfessional()), nil)

	slots, err := svc.FreeSlots(context.Background(), testProfessionalID, "2025-11-21")
	if err != nil {
		t.Fatalf("FreeSlots() error = %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("FreeSlots() = %v, want empty", slots)
	}
}

func TestReserve_AppendsWhenSlotAbsent(t *testing.T) {
	store := newMemoryStore(testProfessional())
	events := &eventRecorder{}
	svc := newTestService(store, events)

	appointment, err := svc.Reserve(context.Background(), request("11:00", "patient-new"))
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if appointment.ID == "" {
		t.Error("expected a generated appointment ID")
	}

	day := store.professionals[testProfessionalID].Schedule[testDate]
	if len(day) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(day))
	}
	if day[1].Time != "11:00" || day[1].Patient != "patient-new" {
		t.Errorf("appended entry = %+v", day[1])
	}

	if events.count() != 1 {
		t.Errorf("expected 1 published event, got %d", events.count())
	}
}

func TestReserve_ClaimsFreeEntryInPlace(t *testing.T) {
	p := testProfessional()
	p.Schedule[testDate] = append(p.Schedule[testDate], model.TimeSlot{Time: "14:00"})
	store := newMemoryStore(p)
	svc := newTestService(store, nil)

	if _, err := svc.Reserve(context.Background(), request("14:00", "patient-new")); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}

	day := store.professionals[testProfessionalID].Schedule[testDate]
	if len(day) != 2 {
		t.Fatalf("expected the free entry to be claimed in place, got %d entries", len(day))
	}
	if day[1].Patient != "patient-new" {
		t.Errorf("claimed entry = %+v", day[1])
	}
}

func TestReserve_RejectsOccupiedSlot(t *testing.T) {
	store := newMemoryStore(testProfessional())
	events := &eventRecorder{}
	svc := newTestService(store, events)

	_, err := svc.Reserve(context.Background(), request("10:00", "patient-new"))
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeConflict)
	}

	day := store.professionals[testProfessionalID].Schedule[testDate]
	if day[0].Patient != "patient-existing" {
		t.Errorf("losing write mutated the ledger: %+v", day[0])
	}
	if events.count() != 0 {
		t.Errorf("rejected reservation must not publish events, got %d", events.count())
	}
}

func TestReserve_UnknownProfessional(t *testing.T) {
	svc := newTestService(newMemoryStore(), nil)

	_, err := svc.Reserve(context.Background(), request("11:00", "patient-new"))
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeNotFound)
	}
}

func TestReserve_InvalidRequest(t *testing.T) {
	svc := newTestService(newMemoryStore(testProfessional()), nil)

	tests := []struct {
		name string
		req  *model.AppointmentRequest
	}{
		{"missing patient", &model.AppointmentRequest{ProfessionalID: testProfessionalID, Date: testDate, Time: "11:00"}},
		{"malformed time", request("11h00", "patient-new")},
		{"malformed date", &model.AppointmentRequest{ProfessionalID: testProfessionalID, Date: "20/11/2025", Time: "11:00", PatientID: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Reserve(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
				t.Errorf("error code = %s, want %s", apperrors.AsAppError(err).Code, apperrors.CodeInvalidInput)
			}
		})
	}
}

func TestReserve_ConcurrentWritersExactlyOneWins(t *testing.T) {
	store := newMemoryStore(testProfessional())
	svc := newTestService(store, nil)

	const writers = 2
	results := make(chan error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		patient := []string{"patient-a", "patient-b"}[i]
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), request("15:00", patient))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case apperrors.AsAppError(err).Code == apperrors.CodeConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 || conflicts != 1 {
		t.Errorf("got %d successes and %d conflicts, want exactly 1 of each", successes, conflicts)
	}

	day := store.professionals[testProfessionalID].Schedule[testDate]
	claimed := 0
	for _, slot := range day {
		if slot.Time == "15:00" && slot.Occupied() {
			claimed++
		}
	}
	if claimed != 1 {
		t.Errorf("ledger holds %d entries for the contested slot, want 1", claimed)
	}
}

func TestResolveByName(t *testing.T) {
	svc := newTestService(newMemoryStore(testProfessional()), nil)

	p, err := svc.ResolveByName(context.Background(), "dr. alice chen")
	if err != nil {
		t.Fatalf("ResolveByName() error = %v", err)
	}
	if p.ID != testProfessionalID {
		t.Errorf("resolved ID = %s, want %s", p.ID, testProfessionalID)
	}

	if _, err := svc.ResolveByName(context.Background(), "Dr. Nobody"); err == nil {
		t.Error("expected not found for unknown name")
	}
}
