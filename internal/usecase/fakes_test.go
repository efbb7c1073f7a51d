package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/kanaplay/internal/entity"
	"github.com/eslsoft/kanaplay/internal/repository"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeFlags struct {
	mu     sync.RWMutex
	values map[string]string
}

func newFakeFlags() *fakeFlags { return &fakeFlags{values: map[string]string{}} }

func (f *fakeFlags) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeFlags) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeFlags) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeFlags) GetTime(ctx context.Context, key string) (time.Time, bool, error) {
	v, ok, err := f.Get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func (f *fakeFlags) SetTime(ctx context.Context, key string, t time.Time) error {
	return f.Set(ctx, key, t.UTC().Format(time.RFC3339Nano))
}

func (f *fakeFlags) timeOf(key string) (time.Time, bool) {
	t, ok, _ := f.GetTime(context.Background(), key)
	return t, ok
}

type fakeSubjects struct {
	mu    sync.RWMutex
	items map[int64]entity.Subject
}

func newFakeSubjects(subjects ...entity.Subject) *fakeSubjects {
	f := &fakeSubjects{items: map[int64]entity.Subject{}}
	for _, s := range subjects {
		f.items[s.ID] = s
	}
	return f
}

func (f *fakeSubjects) UpsertMany(ctx context.Context, subjects []entity.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range subjects {
		f.items[s.ID] = s
	}
	return nil
}

func (f *fakeSubjects) InsertMany(ctx context.Context, subjects []entity.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range subjects {
		if _, ok := f.items[s.ID]; ok {
			return entity.ErrStorage
		}
	}
	for _, s := range subjects {
		f.items[s.ID] = s
	}
	return nil
}

func (f *fakeSubjects) GetByID(ctx context.Context, id int64) (*entity.Subject, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.items[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSubjects) ListByIDs(ctx context.Context, ids []int64) ([]entity.Subject, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []entity.Subject
	for _, id := range ids {
		if s, ok := f.items[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubjects) ListMissingKind(ctx context.Context) ([]entity.Subject, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []entity.Subject
	for _, s := range f.items {
		if s.Kind == entity.SubjectKindUnspecified {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSubjects) CountMissingKind(ctx context.Context) (int, error) {
	broken, err := f.ListMissingKind(ctx)
	return len(broken), err
}

func (f *fakeSubjects) SetKinds(ctx context.Context, kinds map[int64]entity.SubjectKind) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id, kind := range kinds {
		s, ok := f.items[id]
		if !ok {
			continue
		}
		s.Kind = kind
		f.items[id] = s
		n++
	}
	return n, nil
}

func (f *fakeSubjects) DeleteSynthetic(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id := range f.items {
		if id < 0 {
			delete(f.items, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSubjects) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = map[int64]entity.Subject{}
	return nil
}

func (f *fakeSubjects) len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

type fakeAssignments struct {
	mu    sync.RWMutex
	items map[int64]entity.Assignment
}

func newFakeAssignments(assignments ...entity.Assignment) *fakeAssignments {
	f := &fakeAssignments{items: map[int64]entity.Assignment{}}
	for _, a := range assignments {
		f.items[a.ID] = a
	}
	return f
}

func (f *fakeAssignments) UpsertMany(ctx context.Context, assignments []entity.Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range assignments {
		f.items[a.ID] = a
	}
	return nil
}

func (f *fakeAssignments) GetByID(ctx context.Context, id int64) (*entity.Assignment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	a, ok := f.items[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &a, nil
}

func (f *fakeAssignments) GetBySubjectID(ctx context.Context, subjectID int64) (*entity.Assignment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, a := range f.items {
		if a.SubjectID == subjectID {
			return &a, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (f *fakeAssignments) CountByStage(ctx context.Context, stage int) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, a := range f.items {
		if a.SRSStage == stage {
			n++
		}
	}
	return n, nil
}

func (f *fakeAssignments) ResetStage(ctx context.Context, from, to int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id, a := range f.items {
		if a.SRSStage == from {
			a.SRSStage = to
			f.items[id] = a
			n++
		}
	}
	return n, nil
}

func (f *fakeAssignments) Update(ctx context.Context, id int64, mutate func(*entity.Assignment) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return entity.ErrNotFound
	}
	if err := mutate(&a); err != nil {
		return err
	}
	f.items[id] = a
	return nil
}

func (f *fakeAssignments) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = map[int64]entity.Assignment{}
	return nil
}

func (f *fakeAssignments) stage(id int64) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.items[id].SRSStage
}

type fakeMaterials struct {
	mu    sync.RWMutex
	items map[int64]entity.StudyMaterial
}

func newFakeMaterials() *fakeMaterials { return &fakeMaterials{items: map[int64]entity.StudyMaterial{}} }

func (f *fakeMaterials) UpsertMany(ctx context.Context, materials []entity.StudyMaterial) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range materials {
		f.items[m.ID] = m
	}
	return nil
}

func (f *fakeMaterials) ListBySubjectID(ctx context.Context, subjectID int64) ([]entity.StudyMaterial, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []entity.StudyMaterial
	for _, m := range f.items {
		if m.SubjectID == subjectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMaterials) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = map[int64]entity.StudyMaterial{}
	return nil
}

type fakeUsers struct {
	mu    sync.RWMutex
	user  *entity.User
	saves int
}

func (f *fakeUsers) Get(ctx context.Context) (*entity.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.user == nil {
		return nil, entity.ErrNotFound
	}
	u := *f.user
	return &u, nil
}

func (f *fakeUsers) Save(ctx context.Context, user *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := *user
	u.ID = entity.CurrentUserID
	f.user = &u
	f.saves++
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = nil
	return nil
}

type fakeEncounters struct {
	mu         sync.RWMutex
	encounters []entity.Encounter
	items      []entity.EncounterItem
	subs       []chan struct{}
}

func (f *fakeEncounters) CreateEncounter(ctx context.Context, encounter *entity.Encounter) error {
	f.mu.Lock()
	f.encounters = append(f.encounters, *encounter)
	f.mu.Unlock()
	f.notify()
	return nil
}

func (f *fakeEncounters) CreateItems(ctx context.Context, items []entity.EncounterItem) error {
	f.mu.Lock()
	f.items = append(f.items, items...)
	f.mu.Unlock()
	f.notify()
	return nil
}

func (f *fakeEncounters) ListEncounters(ctx context.Context) ([]entity.Encounter, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := append([]entity.Encounter(nil), f.encounters...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (f *fakeEncounters) ListItems(ctx context.Context, query repository.ListEncounterItemsQuery) ([]entity.EncounterItem, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []entity.EncounterItem
	for i := len(f.items) - 1; i >= 0; i-- {
		item := f.items[i]
		if query.SubjectID != 0 && item.SubjectID != query.SubjectID {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (f *fakeEncounters) ListUnsynced(ctx context.Context) ([]entity.EncounterItem, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []entity.EncounterItem
	for _, item := range f.items {
		if !item.Synced {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeEncounters) MarkSynced(ctx context.Context, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	n := 0
	for i := range f.items {
		if want[f.items[i].ID] && !f.items[i].Synced {
			f.items[i].Synced = true
			n++
		}
	}
	return n, nil
}

func (f *fakeEncounters) CountDistinctSubjects(ctx context.Context) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	seen := map[int64]bool{}
	for _, item := range f.items {
		seen[item.SubjectID] = true
	}
	return len(seen), nil
}

func (f *fakeEncounters) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	return ch, func() {}
}

func (f *fakeEncounters) notify() {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *fakeEncounters) item(id string) entity.EncounterItem {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, item := range f.items {
		if item.ID == id {
			return item
		}
	}
	return entity.EncounterItem{}
}

type fakeBatcher struct {
	mu    sync.Mutex
	calls int
}

func (b *fakeBatcher) Batch(ctx context.Context, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	return fn(ctx)
}

type fetchCall struct {
	entity  string
	after   *time.Time
	pageURL string
}

type fakeRemote struct {
	mu            sync.Mutex
	token         string
	user          *entity.User
	userErr       error
	subjectPages  [][]entity.Subject
	assignPages   [][]entity.Assignment
	materialPages [][]entity.StudyMaterial
	fetchErr      map[string]error
	calls         []fetchCall
	reviews       []int64
	reviewErr     map[int64]error
	started       []int64
	startErr      error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		user:      &entity.User{Username: "koichi", Level: 5, MaxLevelGranted: 60},
		fetchErr:  map[string]error{},
		reviewErr: map[int64]error{},
	}
}

func (r *fakeRemote) SetToken(token string) {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
}

func (r *fakeRemote) FetchUser(ctx context.Context) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fetchCall{entity: "user"})
	if r.userErr != nil {
		return nil, r.userErr
	}
	u := *r.user
	return &u, nil
}

func fetchPage[T any](r *fakeRemote, name string, pages [][]T, after *time.Time, pageURL string) (*repository.Page[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fetchCall{entity: name, after: after, pageURL: pageURL})
	if err := r.fetchErr[name]; err != nil {
		return nil, err
	}
	idx := 0
	if pageURL != "" {
		if _, err := fmt.Sscanf(pageURL, "page:%d", &idx); err != nil {
			return nil, err
		}
	}
	if idx >= len(pages) {
		return &repository.Page[T]{}, nil
	}
	page := &repository.Page[T]{Items: pages[idx]}
	if idx+1 < len(pages) {
		page.NextURL = fmt.Sprintf("page:%d", idx+1)
	}
	return page, nil
}

func (r *fakeRemote) FetchSubjects(ctx context.Context, after *time.Time, pageURL string) (*repository.Page[entity.Subject], error) {
	return fetchPage(r, "subjects", r.subjectPages, after, pageURL)
}

func (r *fakeRemote) FetchAssignments(ctx context.Context, after *time.Time, pageURL string) (*repository.Page[entity.Assignment], error) {
	return fetchPage(r, "assignments", r.assignPages, after, pageURL)
}

func (r *fakeRemote) FetchStudyMaterials(ctx context.Context, after *time.Time, pageURL string) (*repository.Page[entity.StudyMaterial], error) {
	return fetchPage(r, "study_materials", r.materialPages, after, pageURL)
}

func (r *fakeRemote) CreateReview(ctx context.Context, assignmentID int64, meaningIncorrect, readingIncorrect int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.reviewErr[assignmentID]; err != nil {
		return err
	}
	r.reviews = append(r.reviews, assignmentID)
	return nil
}

func (r *fakeRemote) StartAssignment(ctx context.Context, assignmentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.started = append(r.started, assignmentID)
	return nil
}

func (r *fakeRemote) callsFor(name string) []fetchCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []fetchCall
	for _, c := range r.calls {
		if c.entity == name {
			out = append(out, c)
		}
	}
	return out
}

func (r *fakeRemote) reviewCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reviews)
}

type fakeConn struct{ offline bool }

func (c fakeConn) Online(context.Context) bool { return !c.offline }

var errTransient = errors.New("connection reset")

type syncFixture struct {
	uc          *syncUsecase
	clock       *fakeClock
	flags       *fakeFlags
	subjects    *fakeSubjects
	assignments *fakeAssignments
	materials   *fakeMaterials
	users       *fakeUsers
	encounters  *fakeEncounters
	remote      *fakeRemote
	sleeps      []time.Duration
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		clock:       newFakeClock(),
		flags:       newFakeFlags(),
		subjects:    newFakeSubjects(),
		assignments: newFakeAssignments(),
		materials:   newFakeMaterials(),
		users:       &fakeUsers{},
		encounters:  &fakeEncounters{},
		remote:      newFakeRemote(),
	}
	repos := SyncRepositories{
		Users:          f.users,
		Subjects:       f.subjects,
		Assignments:    f.assignments,
		StudyMaterials: f.materials,
		Encounters:     f.encounters,
		Flags:          f.flags,
		Batcher:        &fakeBatcher{},
	}
	settings := SyncSettings{EntityInterval: 10 * time.Minute, PushBatchSize: 45, PushBatchDelay: time.Minute}
	uc := NewSyncUsecase(repos, f.remote, fakeConn{}, settings, quietLogger()).(*syncUsecase)
	uc.clock = f.clock.Now
	uc.gate.clock = f.clock.Now
	uc.sleep = func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return ctx.Err()
	}
	uc.SetToken("token")
	f.uc = uc
	return f
}
