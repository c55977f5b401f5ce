package gateway

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/notify"
	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/repository"
)

var errUnsupported = errors.New("not supported by fake")

// store is an in-memory database. Rows locked by a transaction stay locked
// until it commits or rolls back, like SELECT ... FOR UPDATE.
type store struct {
	mu        sync.Mutex
	listings  map[string]repository.Listing
	requests  map[string]repository.CharityRequest
	donations map[string][]repository.Donation
	locks     map[string]*sync.Mutex
	commits   int
}

func newStore() *store {
	return &store{
		listings:  make(map[string]repository.Listing),
		requests:  make(map[string]repository.CharityRequest),
		donations: make(map[string][]repository.Donation),
		locks:     make(map[string]*sync.Mutex),
	}
}

// snapshot copies the committed state, the way a REPEATABLE READ
// transaction sees it.
func (s *store) snapshot() *store {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := newStore()
	for id, row := range s.listings {
		view.listings[id] = row
	}
	for id, row := range s.requests {
		view.requests[id] = row
	}
	for id, rows := range s.donations {
		view.donations[id] = append([]repository.Donation(nil), rows...)
	}
	return view
}

// readFrom picks the snapshot of a read transaction, or the live store.
func (s *store) readFrom(q db.Querier) *store {
	if tx, ok := q.(*fakeTx); ok && tx.view != nil {
		return tx.view
	}
	return s
}

func (s *store) rowLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

type fakeDB struct {
	store     *store
	readTxs   int
	readTxsMu sync.Mutex
}

func (d *fakeDB) Get(context.Context, interface{}, string, ...interface{}) error {
	return errUnsupported
}

func (d *fakeDB) Select(context.Context, interface{}, string, ...interface{}) error {
	return errUnsupported
}

func (d *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return nil, errUnsupported
}

func (d *fakeDB) ExecQueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

func (d *fakeDB) BeginTx(context.Context) (db.Tx, error) {
	return &fakeTx{store: d.store}, nil
}

func (d *fakeDB) BeginReadTx(context.Context) (db.Tx, error) {
	d.readTxsMu.Lock()
	d.readTxs++
	d.readTxsMu.Unlock()
	return &fakeTx{store: d.store, view: d.store.snapshot()}, nil
}

type fakeTx struct {
	fakeDB
	store  *store
	view   *store
	held   []*sync.Mutex
	staged []func(s *store)
	closed bool
}

func (t *fakeTx) lock(key string) {
	m := t.store.rowLock(key)
	m.Lock()
	t.held = append(t.held, m)
}

func (t *fakeTx) stage(fn func(s *store)) {
	t.staged = append(t.staged, fn)
}

func (t *fakeTx) Commit(context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.store.mu.Lock()
	for _, fn := range t.staged {
		fn(t.store)
	}
	t.store.commits++
	t.store.mu.Unlock()
	t.release()
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.release()
	return nil
}

func (t *fakeTx) release() {
	t.closed = true
	for _, m := range t.held {
		m.Unlock()
	}
	t.held = nil
}

type fakeListingRepo struct {
	store *store

	mu          sync.Mutex
	failUpdates int
	failErr     error
	updateCalls int
}

func (r *fakeListingRepo) CreateTx(_ context.Context, tx db.Tx, l *repository.Listing) error {
	r.store.mu.Lock()
	_, exists := r.store.listings[l.ID]
	r.store.mu.Unlock()
	if exists {
		return repository.ErrAlreadyExists
	}
	row := *l
	tx.(*fakeTx).stage(func(s *store) { s.listings[row.ID] = row })
	return nil
}

func (r *fakeListingRepo) GetByID(_ context.Context, id string) (*repository.Listing, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	row, ok := r.store.listings[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &row, nil
}

func (r *fakeListingRepo) GetByIDForUpdate(ctx context.Context, tx db.Tx, id string) (*repository.Listing, error) {
	tx.(*fakeTx).lock("listing:" + id)
	return r.GetByID(ctx, id)
}

func (r *fakeListingRepo) UpdateTx(_ context.Context, tx db.Tx, l *repository.Listing, expectedVersion int64) error {
	r.mu.Lock()
	r.updateCalls++
	if r.failUpdates > 0 {
		r.failUpdates--
		r.mu.Unlock()
		return r.failErr
	}
	r.mu.Unlock()

	r.store.mu.Lock()
	current, ok := r.store.listings[l.ID]
	r.store.mu.Unlock()
	if !ok || current.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	row := *l
	tx.(*fakeTx).stage(func(s *store) { s.listings[row.ID] = row })
	return nil
}

func (r *fakeListingRepo) DeleteTx(_ context.Context, tx db.Tx, id string) error {
	r.store.mu.Lock()
	_, ok := r.store.listings[id]
	r.store.mu.Unlock()
	if !ok {
		return repository.ErrObjectNotFound
	}
	tx.(*fakeTx).stage(func(s *store) { delete(s.listings, id) })
	return nil
}

func (r *fakeListingRepo) List(_ context.Context, filter repository.ListingFilter) ([]*repository.Listing, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*repository.Listing
	for _, row := range r.store.listings {
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if filter.Category != "" && row.Category != filter.Category {
			continue
		}
		if filter.DonorID != "" && row.DonorID != filter.DonorID {
			continue
		}
		row := row
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeListingRepo) ListExpirableIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var ids []string
	for _, row := range r.store.listings {
		if row.Status == "delivered" || row.Status == "expired" || row.ExpiresAt.After(now) {
			continue
		}
		ids = append(ids, row.ID)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

type fakeRequestRepo struct {
	store *store
	// afterRead runs after request rows are read and before they are returned.
	afterRead func()
}

func (r *fakeRequestRepo) CreateTx(_ context.Context, tx db.Tx, req *repository.CharityRequest) error {
	row := *req
	tx.(*fakeTx).stage(func(s *store) { s.requests[row.ID] = row })
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, q db.Querier, id string) (*repository.CharityRequest, error) {
	row, ok := r.get(q, id)
	r.read()
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &row, nil
}

func (r *fakeRequestRepo) read() {
	if r.afterRead != nil {
		r.afterRead()
	}
}

func (r *fakeRequestRepo) get(q db.Querier, id string) (repository.CharityRequest, bool) {
	s := r.store.readFrom(q)
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.requests[id]
	return row, ok
}

func (r *fakeRequestRepo) GetByIDForUpdate(_ context.Context, tx db.Tx, id string) (*repository.CharityRequest, error) {
	tx.(*fakeTx).lock("request:" + id)
	row, ok := r.get(tx, id)
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &row, nil
}

func (r *fakeRequestRepo) UpdateTx(_ context.Context, tx db.Tx, req *repository.CharityRequest, expectedVersion int64) error {
	r.store.mu.Lock()
	current, ok := r.store.requests[req.ID]
	r.store.mu.Unlock()
	if !ok || current.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	row := *req
	tx.(*fakeTx).stage(func(s *store) { s.requests[row.ID] = row })
	return nil
}

func (r *fakeRequestRepo) DeleteTx(_ context.Context, tx db.Tx, id string) error {
	tx.(*fakeTx).stage(func(s *store) {
		delete(s.requests, id)
		delete(s.donations, id)
	})
	return nil
}

func (r *fakeRequestRepo) List(_ context.Context, q db.Querier, filter repository.RequestFilter) ([]*repository.CharityRequest, error) {
	out := r.list(r.store.readFrom(q), filter)
	r.read()
	return out, nil
}

func (r *fakeRequestRepo) list(s *store, filter repository.RequestFilter) []*repository.CharityRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*repository.CharityRequest
	for _, row := range s.requests {
		if filter.CharityID != "" && row.CharityID != filter.CharityID {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		row := row
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

type fakeDonationRepo struct {
	store *store
}

func (r *fakeDonationRepo) AppendTx(_ context.Context, tx db.Tx, d *repository.Donation) error {
	r.store.mu.Lock()
	taken := len(r.store.donations[d.RequestID]) >= d.Seq
	r.store.mu.Unlock()
	if taken {
		return repository.ErrVersionConflict
	}
	row := *d
	tx.(*fakeTx).stage(func(s *store) { s.donations[row.RequestID] = append(s.donations[row.RequestID], row) })
	return nil
}

func (r *fakeDonationRepo) ListByRequest(_ context.Context, q db.Querier, requestID string) ([]*repository.Donation, error) {
	s := r.store.readFrom(q)
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.donations[requestID]
	out := make([]*repository.Donation, len(rows))
	for i := range rows {
		row := rows[i]
		out[i] = &row
	}
	return out, nil
}

func (r *fakeDonationRepo) ListByRequests(ctx context.Context, q db.Querier, ids []string) (map[string][]*repository.Donation, error) {
	out := make(map[string][]*repository.Donation, len(ids))
	for _, id := range ids {
		rows, err := r.ListByRequest(ctx, q, id)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			out[id] = rows
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) statuses(id string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, ev := range n.events {
		if ev.EntityID == id {
			out = append(out, ev.Status)
		}
	}
	return out
}
