package service_test

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/linemk/pizza-coin/internal/domain/models"
	"github.com/linemk/pizza-coin/internal/events"
	"github.com/linemk/pizza-coin/internal/storage"
)

// memState - состояние леджера в памяти
type memState struct {
	users  map[string]models.User
	txs    []models.TransactionRecord
	confs  []models.ConfiscationRecord
	cfg    *models.Config
	failOn map[string]error // ключ: "Метод" или "Метод:id"
	// noCreate - CreateUser молча ничего не создаёт
	noCreate bool
}

func (m *memState) clone() memState {
	c := *m
	c.users = maps.Clone(m.users)
	c.txs = slices.Clone(m.txs)
	c.confs = slices.Clone(m.confs)
	if m.cfg != nil {
		cfg := *m.cfg
		cfg.AdminIDs = slices.Clone(m.cfg.AdminIDs)
		c.cfg = &cfg
	}
	return c
}

func (m *memState) fail(method string, id ...string) error {
	if len(id) > 0 {
		if err, ok := m.failOn[method+":"+id[0]]; ok {
			return err
		}
	}
	return m.failOn[method]
}

func (m *memState) GetUser(_ context.Context, id string) (*models.User, error) {
	if err := m.fail("GetUser", id); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return &u, nil
}

func (m *memState) CreateUser(_ context.Context, id string) error {
	if err := m.fail("CreateUser", id); err != nil {
		return err
	}
	if m.noCreate {
		return nil
	}
	if _, ok := m.users[id]; !ok {
		m.users[id] = models.User{ID: id, CreatedAt: time.Now()}
	}
	return nil
}

func (m *memState) SetUserBalance(_ context.Context, id string, balance int64) error {
	if err := m.fail("SetUserBalance", id); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.Balance = balance
	m.users[id] = u
	return nil
}

func (m *memState) SetUserDisabled(_ context.Context, id string, disabled bool) error {
	if err := m.fail("SetUserDisabled", id); err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.Disabled = disabled
	m.users[id] = u
	return nil
}

func (m *memState) ResetAllBalances(_ context.Context) (int64, error) {
	if err := m.fail("ResetAllBalances"); err != nil {
		return 0, err
	}
	var n int64
	for id, u := range m.users {
		if u.Balance != 0 {
			u.Balance = 0
			m.users[id] = u
			n++
		}
	}
	return n, nil
}

func (m *memState) AppendTransaction(_ context.Context, rec *models.TransactionRecord) error {
	if err := m.fail("AppendTransaction"); err != nil {
		return err
	}
	m.txs = append(m.txs, *rec)
	return nil
}

func (m *memState) AppendConfiscation(_ context.Context, rec *models.ConfiscationRecord) error {
	if err := m.fail("AppendConfiscation"); err != nil {
		return err
	}
	m.confs = append(m.confs, *rec)
	return nil
}

func (m *memState) GetConfig(_ context.Context) (*models.Config, error) {
	if err := m.fail("GetConfig"); err != nil {
		return nil, err
	}
	if m.cfg == nil {
		return nil, storage.ErrConfigMissing
	}
	cfg := *m.cfg
	cfg.AdminIDs = slices.Clone(m.cfg.AdminIDs)
	return &cfg, nil
}

func (m *memState) SetCoinsPerMessage(_ context.Context, amount int64) error {
	if err := m.fail("SetCoinsPerMessage"); err != nil {
		return err
	}
	if m.cfg == nil {
		return storage.ErrConfigMissing
	}
	m.cfg.CoinsPerMessage = amount
	return nil
}

func (m *memState) GetLeaderboard(_ context.Context, page, pageSize int) (*models.Leaderboard, error) {
	if err := m.fail("GetLeaderboard"); err != nil {
		return nil, err
	}
	var active []models.User
	var totalCoins int64
	for _, u := range m.users {
		if u.Disabled {
			continue
		}
		active = append(active, u)
		totalCoins += u.Balance
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].Balance != active[j].Balance {
			return active[i].Balance > active[j].Balance
		}
		return active[i].ID < active[j].ID
	})

	board := &models.Leaderboard{
		Users:      []models.User{},
		Page:       page,
		PageSize:   pageSize,
		Total:      int64(len(active)),
		TotalCoins: totalCoins,
	}
	offset := (page - 1) * pageSize
	if offset < len(active) {
		board.Users = active[offset:min(offset+pageSize, len(active))]
	}
	return board, nil
}

// fakeStore - транзакционное хранилище в памяти.
// WithTx держит мьютекс всю транзакцию и восстанавливает снимок при ошибке.
type fakeStore struct {
	mu sync.Mutex
	memState
	commits   int
	rollbacks int
}

var _ storage.Store = (*fakeStore)(nil)

func newFakeStore(admins ...string) *fakeStore {
	return &fakeStore{memState: memState{
		users:  make(map[string]models.User),
		cfg:    &models.Config{CoinsPerMessage: 1, AdminIDs: admins},
		failOn: make(map[string]error),
	}}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(repo storage.Repository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshot := f.memState.clone()
	if err := fn(&f.memState); err != nil {
		f.memState = snapshot
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

// методы вне транзакции берут мьютекс сами

func (f *fakeStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memState.GetUser(ctx, id)
}

func (f *fakeStore) CreateUser(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memState.CreateUser(ctx, id)
}

func (f *fakeStore) GetConfig(ctx context.Context) (*models.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memState.GetConfig(ctx)
}

func (f *fakeStore) GetLeaderboard(ctx context.Context, page, pageSize int) (*models.Leaderboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memState.GetLeaderboard(ctx, page, pageSize)
}

// seed создаёт пользователя с балансом
func (f *fakeStore) seed(id string, balance int64, disabled bool) {
	f.users[id] = models.User{ID: id, Balance: balance, Disabled: disabled}
}

func (f *fakeStore) balance(id string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id].Balance
}

// snapshot - копия состояния для сравнения "до" и "после"
func (f *fakeStore) snapshot() memState {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.memState.clone()
	s.failOn = nil
	return s
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func errStore(what string) error {
	return fmt.Errorf("connection reset during %s", what)
}
