package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/tutoring_api/internal/model"
	"github.com/Freeeeeet/tutoring_api/internal/repository"
	"github.com/Freeeeeet/tutoring_api/internal/schedule"
)

// memStore хранилище в памяти. Транзакции идут параллельно: читают
// зафиксированное состояние, копят свои записи и применяют их при успехе.
// LockTeacherSchedule держит мьютекс учителя до конца транзакции.
type memStore struct {
	mu            sync.Mutex
	nextID        int64
	bookings      map[int64]model.Booking
	users         map[int64]model.User
	notifications []model.Notification

	locksMu      sync.Mutex
	teacherLocks map[int64]*sync.Mutex

	failEnqueue   error
	conflictDelay time.Duration // задержка ответа HasConflict, расширяет окно гонки
}

func newMemStore(users ...model.User) *memStore {
	s := &memStore{
		bookings:     map[int64]model.Booking{},
		users:        map[int64]model.User{},
		teacherLocks: map[int64]*sync.Mutex{},
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx := &memTx{
		store:    s,
		writes:   map[int64]model.Booking{},
		versions: map[int64]int64{},
		held:     map[int64]*sync.Mutex{},
	}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range tx.versions {
		if s.bookings[id].Version != v {
			return errors.New("could not serialize access due to concurrent update")
		}
	}
	for id, b := range tx.writes {
		s.bookings[id] = b
	}
	s.notifications = append(s.notifications, tx.notifications...)
	return nil
}

func (s *memStore) teacherLock(id int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.teacherLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.teacherLocks[id] = l
	}
	return l
}

func (s *memStore) booking(id int64) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id].Clone()
}

func (s *memStore) queued() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Notification(nil), s.notifications...)
}

// BookingReader

func (s *memStore) GetByID(_ context.Context, id int64) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	c := b.Clone()
	return &c, nil
}

func (s *memStore) GetByStudentID(_ context.Context, id int64) ([]model.Booking, error) {
	return s.list(func(b model.Booking) bool { return b.StudentID == id }), nil
}

func (s *memStore) GetByTeacherID(_ context.Context, id int64) ([]model.Booking, error) {
	return s.list(func(b model.Booking) bool { return b.TeacherID == id }), nil
}

func (s *memStore) GetAll(_ context.Context) ([]model.Booking, error) {
	return s.list(func(model.Booking) bool { return true }), nil
}

func (s *memStore) GetFiltered(_ context.Context, f model.BookingFilter) ([]model.Booking, error) {
	return s.list(func(b model.Booking) bool {
		return (f.Status == "" || b.Status == f.Status) && (f.SessionType == "" || b.SessionType == f.SessionType)
	}), nil
}

func (s *memStore) list(keep func(model.Booking) bool) []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Booking{}
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// UserLookup

func (s *memStore) GetByIDs(_ context.Context, ids []int64) (map[int64]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int64]*model.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			u := u
			out[id] = &u
		}
	}
	return out, nil
}

type memTx struct {
	store         *memStore
	writes        map[int64]model.Booking
	versions      map[int64]int64 // зафиксированная версия на момент первого изменения
	held          map[int64]*sync.Mutex
	notifications []model.Notification
}

// LockTeacherSchedule повторный вызов в той же транзакции не блокирует
func (t *memTx) LockTeacherSchedule(_ context.Context, teacherID int64) error {
	if _, ok := t.held[teacherID]; ok {
		return nil
	}
	l := t.store.teacherLock(teacherID)
	l.Lock()
	t.held[teacherID] = l
	return nil
}

func (t *memTx) release() {
	for _, l := range t.held {
		l.Unlock()
	}
}

// view зафиксированные бронирования поверх них записи этой транзакции
func (t *memTx) view() map[int64]model.Booking {
	t.store.mu.Lock()
	out := make(map[int64]model.Booking, len(t.store.bookings)+len(t.writes))
	for id, b := range t.store.bookings {
		out[id] = b.Clone()
	}
	t.store.mu.Unlock()
	for id, b := range t.writes {
		out[id] = b.Clone()
	}
	return out
}

func (t *memTx) GetBooking(_ context.Context, id int64) (*model.Booking, error) {
	b, ok := t.view()[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (t *memTx) GetUser(_ context.Context, id int64) (*model.User, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	u, ok := t.store.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (t *memTx) HasConflict(_ context.Context, teacherID int64, days []model.Weekday, from, to string, excludeID int64) (bool, error) {
	view := t.view()
	list := make([]model.Booking, 0, len(view))
	for _, b := range view {
		list = append(list, b)
	}
	_, found := schedule.FindConflict(list, schedule.Window{TeacherID: teacherID, Days: days, From: from, To: to}, excludeID)
	if t.store.conflictDelay > 0 {
		time.Sleep(t.store.conflictDelay)
	}
	return found, nil
}

func (t *memTx) CreateBooking(_ context.Context, b *model.Booking) error {
	t.store.mu.Lock()
	t.store.nextID++
	b.ID = t.store.nextID
	t.store.mu.Unlock()

	b.Version = 1
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	t.writes[b.ID] = b.Clone()
	return nil
}

func (t *memTx) UpdateBooking(_ context.Context, b *model.Booking) error {
	cur, ok := t.view()[b.ID]
	if !ok || cur.Version != b.Version {
		return errors.New("version mismatch")
	}
	if _, tracked := t.versions[b.ID]; !tracked {
		if _, own := t.writes[b.ID]; !own {
			t.versions[b.ID] = cur.Version
		}
	}
	b.Version++
	b.UpdatedAt = time.Now()
	t.writes[b.ID] = b.Clone()
	return nil
}

func (t *memTx) EnqueueNotifications(_ context.Context, n []model.Notification) error {
	if t.store.failEnqueue != nil {
		return t.store.failEnqueue
	}
	t.notifications = append(t.notifications, n...)
	return nil
}
