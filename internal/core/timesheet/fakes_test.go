package timesheet

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

// memStore は複数のリポジトリが共有するインメモリの状態です。
type memStore struct {
	timesheets map[int64]*Timesheet
	entries    map[int64]*Entry
	approvals  map[int64]int64 // approval id -> timesheet id
	employees  map[int64]bool
	projects   map[int64]bool
	tasks      map[int64]int64 // task id -> project id
	seq        int64

	deleteLog []string
	failSum   error
}

func newMemStore() *memStore {
	return &memStore{
		timesheets: make(map[int64]*Timesheet),
		entries:    make(map[int64]*Entry),
		approvals:  make(map[int64]int64),
		employees:  map[int64]bool{1: true, 2: true},
		projects:   map[int64]bool{10: true, 11: true},
		tasks:      map[int64]int64{100: 10},
	}
}

func (m *memStore) nextID() int64 {
	m.seq++
	return m.seq
}

func (m *memStore) snapshot() *memStore {
	c := *m
	c.timesheets = make(map[int64]*Timesheet, len(m.timesheets))
	for k, v := range m.timesheets {
		c.timesheets[k] = cloneTimesheet(v)
	}
	c.entries = make(map[int64]*Entry, len(m.entries))
	for k, v := range m.entries {
		c.entries[k] = cloneEntry(v)
	}
	c.approvals = make(map[int64]int64, len(m.approvals))
	for k, v := range m.approvals {
		c.approvals[k] = v
	}
	c.deleteLog = append([]string(nil), m.deleteLog...)
	return &c
}

func (m *memStore) restore(from *memStore) {
	m.timesheets = from.timesheets
	m.entries = from.entries
	m.approvals = from.approvals
	m.seq = from.seq
	m.deleteLog = from.deleteLog
}

func (m *memStore) EmployeeExists(_ context.Context, id int64) (bool, error) {
	return m.employees[id], nil
}

func (m *memStore) ProjectExists(_ context.Context, id int64) (bool, error) {
	return m.projects[id], nil
}

func (m *memStore) TaskProjectID(_ context.Context, taskID int64) (int64, bool, error) {
	projectID, ok := m.tasks[taskID]
	return projectID, ok, nil
}

func (m *memStore) DeleteByTimesheet(_ context.Context, timesheetID int64) (int64, error) {
	var n int64
	for id, tsID := range m.approvals {
		if tsID == timesheetID {
			delete(m.approvals, id)
			n++
		}
	}
	m.deleteLog = append(m.deleteLog, "approvals")
	return n, nil
}

func (m *memStore) addApproval(timesheetID int64) {
	m.approvals[m.nextID()] = timesheetID
}

// fakeTx はエラー時にスナップショットへ戻すことでロールバックを再現します。
type fakeTx struct {
	store  *memStore
	depth  int
	writes int
}

func (f *fakeTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (f *fakeTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if f.depth > 0 {
		return fn(ctx)
	}
	f.writes++
	snap := f.store.snapshot()
	f.depth++
	err := fn(ctx)
	f.depth--
	if err != nil {
		f.store.restore(snap)
	}
	return err
}

type fakeTimesheetRepo struct {
	store *memStore
}

func (r *fakeTimesheetRepo) Create(_ context.Context, ts *Timesheet) (*Timesheet, error) {
	clone := cloneTimesheet(ts)
	clone.ID = r.store.nextID()
	r.store.timesheets[clone.ID] = clone
	return cloneTimesheet(clone), nil
}

func (r *fakeTimesheetRepo) Update(_ context.Context, ts *Timesheet) (*Timesheet, error) {
	if _, ok := r.store.timesheets[ts.ID]; !ok {
		return nil, ErrTimesheetNotFound
	}
	r.store.timesheets[ts.ID] = cloneTimesheet(ts)
	return cloneTimesheet(ts), nil
}

func (r *fakeTimesheetRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.store.timesheets[id]; !ok {
		return ErrTimesheetNotFound
	}
	for _, e := range r.store.entries {
		if e.TimesheetID == id {
			return errors.New("fk violation: entries still reference timesheet")
		}
	}
	delete(r.store.timesheets, id)
	r.store.deleteLog = append(r.store.deleteLog, "timesheet")
	return nil
}

func (r *fakeTimesheetRepo) FindByID(_ context.Context, id int64) (*Timesheet, error) {
	ts, ok := r.store.timesheets[id]
	if !ok {
		return nil, ErrTimesheetNotFound
	}
	return cloneTimesheet(ts), nil
}

func (r *fakeTimesheetRepo) FindByIDForUpdate(ctx context.Context, id int64) (*Timesheet, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeTimesheetRepo) List(_ context.Context) ([]*Timesheet, error) {
	return r.filter(func(*Timesheet) bool { return true }), nil
}

func (r *fakeTimesheetRepo) ListByEmployee(_ context.Context, employeeID int64) ([]*Timesheet, error) {
	return r.filter(func(ts *Timesheet) bool { return ts.EmployeeID == employeeID }), nil
}

func (r *fakeTimesheetRepo) FindByEmployeeAndPeriod(_ context.Context, employeeID int64, start, end time.Time) ([]*Timesheet, error) {
	return r.filter(func(ts *Timesheet) bool {
		return ts.EmployeeID == employeeID && !ts.PeriodStart.Before(start) && !ts.PeriodStart.After(end)
	}), nil
}

func (r *fakeTimesheetRepo) UpdateTotalHours(_ context.Context, id int64, total Hours, updatedAt time.Time) error {
	ts, ok := r.store.timesheets[id]
	if !ok {
		return ErrTimesheetNotFound
	}
	ts.TotalHours = total
	ts.UpdatedAt = updatedAt
	return nil
}

func (r *fakeTimesheetRepo) filter(keep func(*Timesheet) bool) []*Timesheet {
	result := make([]*Timesheet, 0)
	for _, ts := range r.store.timesheets {
		if keep(ts) {
			result = append(result, cloneTimesheet(ts))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

type fakeEntryRepo struct {
	store *memStore
}

func (r *fakeEntryRepo) Create(_ context.Context, entry *Entry) (*Entry, error) {
	if _, ok := r.store.timesheets[entry.TimesheetID]; !ok {
		return nil, ErrTimesheetNotFound
	}
	clone := cloneEntry(entry)
	clone.ID = r.store.nextID()
	r.store.entries[clone.ID] = clone
	return cloneEntry(clone), nil
}

func (r *fakeEntryRepo) Update(_ context.Context, entry *Entry) (*Entry, error) {
	if _, ok := r.store.entries[entry.ID]; !ok {
		return nil, ErrEntryNotFound
	}
	r.store.entries[entry.ID] = cloneEntry(entry)
	return cloneEntry(entry), nil
}

func (r *fakeEntryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.store.entries[id]; !ok {
		return ErrEntryNotFound
	}
	delete(r.store.entries, id)
	return nil
}

func (r *fakeEntryRepo) DeleteByTimesheet(_ context.Context, timesheetID int64) (int64, error) {
	var n int64
	for id, e := range r.store.entries {
		if e.TimesheetID == timesheetID {
			delete(r.store.entries, id)
			n++
		}
	}
	r.store.deleteLog = append(r.store.deleteLog, "entries")
	return n, nil
}

func (r *fakeEntryRepo) FindByID(_ context.Context, id int64) (*Entry, error) {
	e, ok := r.store.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return cloneEntry(e), nil
}

func (r *fakeEntryRepo) List(_ context.Context) ([]*Entry, error) {
	return r.filter(func(*Entry) bool { return true }), nil
}

func (r *fakeEntryRepo) ListByTimesheet(_ context.Context, timesheetID int64) ([]*Entry, error) {
	return r.filter(func(e *Entry) bool { return e.TimesheetID == timesheetID }), nil
}

func (r *fakeEntryRepo) SumHours(ctx context.Context, timesheetID int64) (Hours, error) {
	if r.store.failSum != nil {
		return 0, r.store.failSum
	}
	entries, _ := r.ListByTimesheet(ctx, timesheetID)
	return SumHours(entries), nil
}

func (r *fakeEntryRepo) filter(keep func(*Entry) bool) []*Entry {
	result := make([]*Entry, 0)
	for _, e := range r.store.entries {
		if keep(e) {
			result = append(result, cloneEntry(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func cloneTimesheet(ts *Timesheet) *Timesheet {
	if ts == nil {
		return nil
	}
	clone := *ts
	clone.SubmissionDate = cloneTime(ts.SubmissionDate)
	return &clone
}

func cloneEntry(e *Entry) *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	clone.TaskID = cloneID(e.TaskID)
	return &clone
}

type fixture struct {
	store   *memStore
	clock   *stubClock
	tx      *fakeTx
	svc     *Service
	entries *EntryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	clock := &stubClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	tx := &fakeTx{store: store}
	tsRepo := &fakeTimesheetRepo{store: store}
	entrySvc := NewEntryService(&fakeEntryRepo{store: store}, tsRepo, store, clock, tx)
	svc := NewService(tsRepo, entrySvc, store, store, clock, tx)

	return &fixture{store: store, clock: clock, tx: tx, svc: svc, entries: entrySvc}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hoursPtr(h Hours) *Hours {
	return &h
}

func idPtr(id int64) *int64 {
	return &id
}

// seedTimesheet は指定した状態と明細を持つタイムシートを直接ストアに登録します。
func (f *fixture) seedTimesheet(status Status, hours ...Hours) (*Timesheet, []*Entry) {
	ts := &Timesheet{
		ID:          f.store.nextID(),
		EmployeeID:  1,
		PeriodStart: date(2026, 3, 2),
		PeriodEnd:   date(2026, 3, 8),
		Status:      status,
		CreatedAt:   f.clock.now,
		UpdatedAt:   f.clock.now,
	}
	entries := make([]*Entry, 0, len(hours))
	for i, h := range hours {
		e := &Entry{
			ID:          f.store.nextID(),
			TimesheetID: ts.ID,
			ProjectID:   10,
			Date:        date(2026, 3, 2+i),
			HoursWorked: h,
		}
		f.store.entries[e.ID] = e
		entries = append(entries, cloneEntry(e))
		ts.TotalHours += h
	}
	f.store.timesheets[ts.ID] = ts
	return cloneTimesheet(ts), entries
}
