package services_test

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"finance/src/clients/quotes"
	"finance/src/models"
	"finance/src/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// store is an in-memory stand-in for the database shared by every fake repository.
type store struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]models.User
	holdings map[string]models.Holding
	sales    []models.Sale
	history  []models.HistoryEntry
}

func newStore() *store {
	return &store{
		users:    map[int64]models.User{},
		holdings: map[string]models.Holding{},
	}
}

func holdingKey(userID int64, stock string) string {
	return strconv.FormatInt(userID, 10) + "/" + stock
}

func (s *store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *store) addUser(username string, cash decimal.Decimal) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.users[id] = models.User{ID: id, Username: username, Cash: cash}
	return id
}

func (s *store) cash(userID int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID].Cash
}

func (s *store) holding(userID int64, stock string) (models.Holding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holdings[holdingKey(userID, stock)]
	return h, ok
}

type snapshot struct {
	nextID   int64
	users    map[int64]models.User
	holdings map[string]models.Holding
	sales    []models.Sale
	history  []models.HistoryEntry
}

func (s *store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		nextID:   s.nextID,
		users:    make(map[int64]models.User, len(s.users)),
		holdings: make(map[string]models.Holding, len(s.holdings)),
		sales:    append([]models.Sale(nil), s.sales...),
		history:  append([]models.HistoryEntry(nil), s.history...),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.holdings {
		snap.holdings[k] = v
	}
	return snap
}

func (s *store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.users = snap.users
	s.holdings = snap.holdings
	s.sales = snap.sales
	s.history = snap.history
}

// fakeTxManager serializes transactions and undoes every write of a failed one.
type fakeTxManager struct {
	mu    sync.Mutex
	store *store
	reads int
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.store.snapshot()
	if err := fn(nil); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// WithinReadTx holds the same lock as a write, so fn sees no interleaved trade.
func (m *fakeTxManager) WithinReadTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	return fn(nil)
}

type fakeUserRepo struct {
	store *store
	err   error
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	if r.err != nil {
		return r.err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.users {
		if existing.Username == u.Username {
			return repositories.ErrDuplicate
		}
	}
	u.ID = r.store.id()
	r.store.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

type fakeBalanceRepo struct {
	store *store
}

func (r *fakeBalanceRepo) GetCash(ctx context.Context, userID int64, tx pgx.Tx) (decimal.Decimal, error) {
	return r.GetCashForUpdate(ctx, userID, tx)
}

func (r *fakeBalanceRepo) GetCashForUpdate(ctx context.Context, userID int64, tx pgx.Tx) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return decimal.Zero, repositories.ErrNotFound
	}
	return u.Cash, nil
}

func (r *fakeBalanceRepo) UpdateCash(ctx context.Context, userID int64, cash decimal.Decimal, tx pgx.Tx) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Cash = cash
	r.store.users[userID] = u
	return nil
}

type fakeHoldingRepo struct {
	store *store
}

func (r *fakeHoldingRepo) GetByUserID(ctx context.Context, userID int64, tx pgx.Tx) ([]models.Holding, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Holding
	for _, h := range r.store.holdings {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

func (r *fakeHoldingRepo) GetForUpdate(ctx context.Context, userID int64, stock string, tx pgx.Tx) (*models.Holding, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	h, ok := r.store.holdings[holdingKey(userID, stock)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &h, nil
}

func (r *fakeHoldingRepo) Save(ctx context.Context, h *models.Holding, tx pgx.Tx) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if h.ID == 0 {
		h.ID = r.store.id()
	}
	r.store.holdings[holdingKey(h.UserID, h.Stock)] = *h
	return nil
}

func (r *fakeHoldingRepo) Delete(ctx context.Context, userID int64, stock string, tx pgx.Tx) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := holdingKey(userID, stock)
	if _, ok := r.store.holdings[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.store.holdings, key)
	return nil
}

type fakeSaleRepo struct {
	store *store
}

func (r *fakeSaleRepo) GetByUserID(ctx context.Context, userID int64) ([]models.Sale, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Sale
	for _, s := range r.store.sales {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) Create(ctx context.Context, s *models.Sale, tx pgx.Tx) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s.ID = r.store.id()
	r.store.sales = append(r.store.sales, *s)
	return nil
}

type fakeHistoryRepo struct {
	store *store
	err   error
}

func (r *fakeHistoryRepo) GetByUserID(ctx context.Context, userID int64) ([]models.HistoryEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.HistoryEntry
	for _, e := range r.store.history {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) Create(ctx context.Context, e *models.HistoryEntry, tx pgx.Tx) error {
	if r.err != nil {
		return r.err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e.ID = r.store.id()
	r.store.history = append(r.store.history, *e)
	return nil
}

// fakeQuotes is a quote provider with fixed prices. Symbols missing from prices are unknown.
type fakeQuotes struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	err    error
	calls  int
}

func newFakeQuotes(prices map[string]string) *fakeQuotes {
	q := &fakeQuotes{prices: map[string]decimal.Decimal{}}
	for symbol, price := range prices {
		q.prices[symbol] = decimal.RequireFromString(price)
	}
	return q
}

func (q *fakeQuotes) set(symbol, price string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.prices[symbol] = decimal.RequireFromString(price)
}

func (q *fakeQuotes) Lookup(ctx context.Context, symbol string) (*quotes.Quote, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if q.err != nil {
		return nil, q.err
	}
	symbol = strings.ToUpper(symbol)
	price, ok := q.prices[symbol]
	if !ok {
		return nil, quotes.ErrSymbolNotFound
	}
	return &quotes.Quote{Symbol: symbol, Name: symbol + " Inc", Price: price}, nil
}
