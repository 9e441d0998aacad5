// Package memory là bản in-memory của các repository, dùng cho chạy thử local
// (STORAGE_DRIVER=memory) và cho test.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"etc_backend/internal/domain"
	"etc_backend/internal/repository"
)

type Store struct {
	mu           sync.Mutex
	vehicles     map[int]*domain.Vehicle
	transactions []domain.Transaction
	scans        []domain.ScanRecord
	users        map[string]*domain.User
	nextID       int
	clock        time.Time
}

func NewStore() *Store {
	return &Store{
		vehicles: map[int]*domain.Vehicle{},
		users:    map[string]*domain.User{},
		clock:    time.Now().UTC(),
	}
}

func (s *Store) Vehicles() repository.VehicleRepository { return vehicleRepo{s} }
func (s *Store) Ledger() repository.LedgerRepository    { return ledgerRepo{s} }
func (s *Store) Scans() repository.ScanRepository       { return scanRepo{s} }
func (s *Store) Users() repository.UserRepository       { return userRepo{s} }

// PingContext cho phép health check dùng Store như một database
func (s *Store) PingContext(context.Context) error { return nil }

// Transactions trả bản sao các giao dịch theo thứ tự ghi
func (s *Store) Transactions() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Transaction(nil), s.transactions...)
}

// ScanRecords trả bản sao lịch sử quét theo thứ tự ghi
func (s *Store) ScanRecords() []domain.ScanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ScanRecord(nil), s.scans...)
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

// tick trả thời điểm tăng nghiêm ngặt để thứ tự mới nhất trước luôn ổn định
func (s *Store) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(s.clock) {
		now = s.clock.Add(time.Microsecond)
	}
	s.clock = now
	return now
}

type vehicleRepo struct{ *Store }

func (r vehicleRepo) Create(_ context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.vehicles {
		if existing.LicensePlate == v.LicensePlate {
			return nil, repository.ErrDuplicateEntry
		}
	}
	v.ID = r.id()
	v.CreatedAt = r.tick()
	v.UpdatedAt = v.CreatedAt
	cp := *v
	r.vehicles[v.ID] = &cp
	return v, nil
}

func (r vehicleRepo) FindByPlate(_ context.Context, plate string) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vehicles {
		if v.LicensePlate == plate {
			cp := *v
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r vehicleRepo) FindByID(_ context.Context, id int) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r vehicleRepo) List(_ context.Context, page, perPage int) ([]domain.Vehicle, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.Vehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		all = append(all, *v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page, perPage), len(all), nil
}

// Update không đổi số dư; số dư chỉ thay đổi qua Ledger().Apply
func (r vehicleRepo) Update(_ context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.vehicles[v.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v.AccountBalance = stored.AccountBalance
	v.UpdatedAt = r.tick()
	cp := *v
	r.vehicles[v.ID] = &cp
	return v, nil
}

type ledgerRepo struct{ *Store }

func (r ledgerRepo) Apply(_ context.Context, vehicleID int, fn repository.LedgerFunc) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[vehicleID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	locked := *v
	t, err := fn(&locked)
	if err != nil {
		return nil, err
	}
	if t.Reference.Valid {
		for _, existing := range r.transactions {
			if existing.Reference == t.Reference {
				return nil, repository.ErrDuplicateEntry
			}
		}
	}
	t.ID = r.id()
	t.VehicleID = vehicleID
	if t.Status == "" {
		t.Status = "completed"
	}
	t.CreatedAt = r.tick()
	r.transactions = append(r.transactions, *t)
	v.AccountBalance = t.BalanceAfter
	v.UpdatedAt = t.CreatedAt
	return t, nil
}

func (r ledgerRepo) FindByReference(_ context.Context, reference string) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.transactions {
		if t.Reference.Valid && t.Reference.String == reference {
			cp := t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r ledgerRepo) FindByVehicle(_ context.Context, vehicleID int, since time.Time, page, perPage int) ([]domain.Transaction, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Transaction
	for i := len(r.transactions) - 1; i >= 0; i-- {
		t := r.transactions[i]
		if t.VehicleID == vehicleID && !t.CreatedAt.Before(since) {
			out = append(out, t)
		}
	}
	return paginate(out, page, perPage), len(out), nil
}

func (r ledgerRepo) Recent(ctx context.Context, vehicleID int, limit int) ([]domain.Transaction, error) {
	items, _, err := r.FindByVehicle(ctx, vehicleID, time.Time{}, 1, limit)
	return items, err
}

func (r ledgerRepo) Summary(_ context.Context, vehicleID int) (*domain.TransactionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &domain.TransactionSummary{}
	for _, t := range r.transactions {
		if t.VehicleID != vehicleID {
			continue
		}
		s.Count++
		switch t.TransactionType {
		case domain.TransactionToll:
			s.TotalToll += t.Amount
		case domain.TransactionTopup:
			s.TotalTopup += t.Amount
		}
	}
	return s, nil
}

type scanRepo struct{ *Store }

func (r scanRepo) Create(_ context.Context, s *domain.ScanRecord) (*domain.ScanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.id()
	s.CreatedAt = r.tick()
	r.scans = append(r.scans, *s)
	return s, nil
}

func (r scanRepo) RecentByData(_ context.Context, data string, limit int) ([]domain.ScanRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ScanRecord{}
	for i := len(r.scans) - 1; i >= 0 && len(out) < limit; i-- {
		if r.scans[i].ScannedData == data {
			out = append(out, r.scans[i])
		}
	}
	return out, nil
}

func (r scanRepo) Find(_ context.Context, f domain.ScanFilter) ([]domain.ScanRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ScanRecord
	for i := len(r.scans) - 1; i >= 0; i-- {
		s := r.scans[i]
		if f.VehicleID != nil && (!s.VehicleID.Valid || int(s.VehicleID.Int64) != *f.VehicleID) {
			continue
		}
		if s.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, s)
	}
	return paginate(out, f.Page, f.PerPage), len(out), nil
}

type userRepo struct{ *Store }

func (r userRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return nil, repository.ErrDuplicateEntry
	}
	u.ID = r.id()
	u.CreatedAt = r.tick()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.Username] = &cp
	return u, nil
}

func (r userRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) FindByID(_ context.Context, id int) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func paginate[T any](items []T, page, perPage int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if perPage <= 0 || start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
