package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chowchow0048/PMS/internal/models"
	"github.com/chowchow0048/PMS/internal/repository"
)

// fakeSeatStore is an in-memory stand-in for the PostgreSQL-backed store. A
// single mutex plays the role of the clinic row lock: every unit of work runs
// serialized, and a failing unit rolls back to the pre-invocation snapshot.
type fakeSeatStore struct {
	mu         sync.Mutex
	clinics    map[string]*models.Clinic
	rosters    map[string]map[string]bool
	attendance map[string]*models.ClinicAttendance
	noShow     map[string]int
	mandatory  map[string]bool
	nextID     int
}

func newFakeSeatStore() *fakeSeatStore {
	return &fakeSeatStore{
		clinics:    make(map[string]*models.Clinic),
		rosters:    make(map[string]map[string]bool),
		attendance: make(map[string]*models.ClinicAttendance),
		noShow:     make(map[string]int),
		mandatory:  make(map[string]bool),
	}
}

func (f *fakeSeatStore) addClinic(clinic models.Clinic) {
	f.clinics[clinic.ID] = &clinic
	f.rosters[clinic.ID] = make(map[string]bool)
}

func (f *fakeSeatStore) rosterSize(clinicID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rosters[clinicID])
}

func (f *fakeSeatStore) InReservationTx(ctx context.Context, clinicID string, fn func(repository.ReservationTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	clinic, ok := f.clinics[clinicID]
	if !ok {
		return sql.ErrNoRows
	}

	snapshot := f.snapshot()
	clinicCopy := *clinic
	if err := fn(&fakeSeatTx{store: f, clinic: &clinicCopy}); err != nil {
		f.restore(snapshot)
		return err
	}
	return nil
}

type seatSnapshot struct {
	rosters    map[string]map[string]bool
	attendance map[string]*models.ClinicAttendance
	noShow     map[string]int
	mandatory  map[string]bool
}

func (f *fakeSeatStore) snapshot() seatSnapshot {
	snap := seatSnapshot{
		rosters:    make(map[string]map[string]bool, len(f.rosters)),
		attendance: make(map[string]*models.ClinicAttendance, len(f.attendance)),
		noShow:     make(map[string]int, len(f.noShow)),
		mandatory:  make(map[string]bool, len(f.mandatory)),
	}
	for id, roster := range f.rosters {
		copied := make(map[string]bool, len(roster))
		for student := range roster {
			copied[student] = true
		}
		snap.rosters[id] = copied
	}
	for id, record := range f.attendance {
		copied := *record
		snap.attendance[id] = &copied
	}
	for id, count := range f.noShow {
		snap.noShow[id] = count
	}
	for id, flag := range f.mandatory {
		snap.mandatory[id] = flag
	}
	return snap
}

func (f *fakeSeatStore) restore(snap seatSnapshot) {
	f.rosters = snap.rosters
	f.attendance = snap.attendance
	f.noShow = snap.noShow
	f.mandatory = snap.mandatory
}

func (f *fakeSeatStore) attendanceFor(clinicID, studentID string, date time.Time) *models.ClinicAttendance {
	for _, record := range f.attendance {
		if record.ClinicID == clinicID && record.StudentID == studentID && record.ExpectedClinicDate.Equal(date) {
			return record
		}
	}
	return nil
}

type fakeSeatTx struct {
	store  *fakeSeatStore
	clinic *models.Clinic
}

func (t *fakeSeatTx) Clinic() *models.Clinic {
	return t.clinic
}

func (t *fakeSeatTx) RosterCount(ctx context.Context) (int, error) {
	return len(t.store.rosters[t.clinic.ID]), nil
}

func (t *fakeSeatTx) RosterContains(ctx context.Context, studentID string) (bool, error) {
	return t.store.rosters[t.clinic.ID][studentID], nil
}

func (t *fakeSeatTx) AddStudent(ctx context.Context, studentID string) error {
	t.store.rosters[t.clinic.ID][studentID] = true
	return nil
}

func (t *fakeSeatTx) RemoveStudent(ctx context.Context, studentID string) error {
	delete(t.store.rosters[t.clinic.ID], studentID)
	return nil
}

func (t *fakeSeatTx) PurgeInactiveAttendance(ctx context.Context, studentID string, date time.Time) (int64, error) {
	var purged int64
	for id, record := range t.store.attendance {
		if record.ClinicID == t.clinic.ID && record.StudentID == studentID && record.ExpectedClinicDate.Equal(date) && !record.IsActive {
			delete(t.store.attendance, id)
			purged++
		}
	}
	return purged, nil
}

func (t *fakeSeatTx) CreateAttendance(ctx context.Context, record *models.ClinicAttendance) (bool, error) {
	record.ClinicID = t.clinic.ID
	if existing := t.store.attendanceFor(t.clinic.ID, record.StudentID, record.ExpectedClinicDate); existing != nil {
		existing.IsActive = true
		return false, nil
	}
	// Skip IDs already taken by records seeded directly into the store by a test.
	for {
		t.store.nextID++
		record.ID = fmt.Sprintf("att-%d", t.store.nextID)
		if _, taken := t.store.attendance[record.ID]; !taken {
			break
		}
	}
	copied := *record
	t.store.attendance[record.ID] = &copied
	return true, nil
}

func (t *fakeSeatTx) FindAttendance(ctx context.Context, studentID string, date time.Time) (*models.ClinicAttendance, error) {
	record := t.store.attendanceFor(t.clinic.ID, studentID, date)
	if record == nil {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (t *fakeSeatTx) DeleteAttendance(ctx context.Context, id string) error {
	delete(t.store.attendance, id)
	return nil
}

func (t *fakeSeatTx) AdjustNoShow(ctx context.Context, studentID string, delta int) error {
	next := t.store.noShow[studentID] + delta
	if next < 0 {
		next = 0
	}
	t.store.noShow[studentID] = next
	return nil
}

func (t *fakeSeatTx) ClearMandatoryClinic(ctx context.Context, studentID string) error {
	t.store.mandatory[studentID] = false
	return nil
}

type fakeUserReader struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (f *fakeUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

type fakeClinicDetails struct {
	details map[string]models.ClinicDetail
}

func (f *fakeClinicDetails) FindDetailByID(ctx context.Context, id string) (*models.ClinicDetail, error) {
	if detail, ok := f.details[id]; ok {
		return &detail, nil
	}
	return nil, sql.ErrNoRows
}

// openLocker always grants the explicit lock, letting attempts contend on the
// store's own serialization the way they would on the database row lock.
type openLocker struct{}

func (openLocker) TryAcquire(ctx context.Context, clinicID string) (bool, error) { return true, nil }
func (openLocker) Release(ctx context.Context, clinicID string) error            { return nil }

// busyLocker simulates another in-flight holder.
type busyLocker struct{}

func (busyLocker) TryAcquire(ctx context.Context, clinicID string) (bool, error) { return false, nil }
func (busyLocker) Release(ctx context.Context, clinicID string) error            { return nil }

// tryLocker is a real non-blocking per-clinic lock.
type tryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newTryLocker() *tryLocker {
	return &tryLocker{held: make(map[string]bool)}
}

func (l *tryLocker) TryAcquire(ctx context.Context, clinicID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[clinicID] {
		return false, nil
	}
	l.held[clinicID] = true
	return true, nil
}

func (l *tryLocker) Release(ctx context.Context, clinicID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, clinicID)
	return nil
}

type openLimiter struct{}

func (openLimiter) IsLimited(ctx context.Context, userID, action string) (bool, error) {
	return false, nil
}

type closedLimiter struct{}

func (closedLimiter) IsLimited(ctx context.Context, userID, action string) (bool, error) {
	return true, nil
}

// downLimiter simulates an unreachable counter backend.
type downLimiter struct{}

func (downLimiter) IsLimited(ctx context.Context, userID, action string) (bool, error) {
	return false, fmt.Errorf("rate limit counter: connection refused")
}

type noopSchedule struct {
	invalidations int32
}

func (n *noopSchedule) InvalidateSchedule(ctx context.Context) {
	atomic.AddInt32(&n.invalidations, 1)
}

func (n *noopSchedule) count() int32 {
	return atomic.LoadInt32(&n.invalidations)
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }
