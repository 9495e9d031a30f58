package handlers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/foxxcyber/dealer-dashboard/internal/database"
	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

// memRepo is an in-memory Repository used by the handler tests.
type memRepo struct {
	mu       sync.Mutex
	users    map[string]*models.User
	vehicles []*models.VehicleRecord
	pairs    []*models.BookValuePair
	counts   models.VehicleCounts
	pingErr  error

	listParams  *models.VehicleListParams
	statsParams *models.StatsParams
	pairRanges  [][2]time.Time
	lastLogins  []int
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[string]*models.User{}}
}

func (r *memRepo) addUser(u *models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		u.ID = len(r.users) + 1
	}
	r.users[u.Username] = u
	return u
}

func (r *memRepo) Ping(context.Context) error { return r.pingErr }

func (r *memRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[username]; ok {
		return u, nil
	}
	return nil, database.ErrUserNotFound
}

func (r *memRepo) GetUserByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (r *memRepo) CreateUser(_ context.Context, username, hash, storeID string, role models.Role) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; ok {
		return nil, database.ErrUsernameExists
	}
	u := &models.User{
		ID:           len(r.users) + 1,
		Username:     username,
		PasswordHash: hash,
		StoreID:      storeID,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	r.users[username] = u
	return u, nil
}

func (r *memRepo) UpdateUserLastLogin(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLogins = append(r.lastLogins, id)
	return nil
}

func (r *memRepo) UpdateUserPassword(_ context.Context, id int, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return database.ErrUserNotFound
}

func (r *memRepo) ListUsers(context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memRepo) AdminUpdateUser(_ context.Context, id int, req *models.AdminUpdateUserRequest, hash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID != id {
			continue
		}
		if req.StoreID != nil {
			u.StoreID = *req.StoreID
		}
		if req.Role != nil {
			u.Role = *req.Role
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		return u, nil
	}
	return nil, database.ErrUserNotFound
}

func (r *memRepo) DeleteUser(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, u := range r.users {
		if u.ID == id {
			delete(r.users, name)
			return nil
		}
	}
	return database.ErrUserNotFound
}

func inStore(v *models.VehicleRecord, storeID string) bool {
	return storeID == "" || (v.StoreID != nil && *v.StoreID == storeID)
}

func (r *memRepo) ListVehicles(_ context.Context, params *models.VehicleListParams) ([]*models.VehicleRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listParams = params

	var matched []*models.VehicleRecord
	for _, v := range r.vehicles {
		if !inStore(v, params.StoreID) {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(v.StockNumber), strings.ToLower(params.Search)) {
			continue
		}
		matched = append(matched, v)
	}
	start := params.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (r *memRepo) GetVehicleByID(_ context.Context, id int, storeID string) (*models.VehicleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vehicles {
		if v.ID == id && inStore(v, storeID) {
			return v, nil
		}
	}
	return nil, database.ErrVehicleNotFound
}

func (r *memRepo) DeleteVehicle(_ context.Context, id int, storeID string) (*models.VehicleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range r.vehicles {
		if v.ID == id && inStore(v, storeID) {
			r.vehicles = append(r.vehicles[:i], r.vehicles[i+1:]...)
			return v, nil
		}
	}
	return nil, database.ErrVehicleNotFound
}

func (r *memRepo) RecentVehicles(_ context.Context, storeID string, limit int) ([]*models.VehicleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.VehicleRecord
	for _, v := range r.vehicles {
		if inStore(v, storeID) && len(out) < limit {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memRepo) SampleBookValueVehicles(_ context.Context, storeID string, limit int) ([]*models.VehicleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.VehicleRecord
	for _, v := range r.vehicles {
		if inStore(v, storeID) && v.BookValuesProcessed && v.BookValuesBeforeProcessing != nil && len(out) < limit {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memRepo) ListStoreIDs(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var ids []string
	for _, v := range r.vehicles {
		if v.StoreID != nil && !seen[*v.StoreID] {
			seen[*v.StoreID] = true
			ids = append(ids, *v.StoreID)
		}
	}
	return ids, nil
}

func (r *memRepo) GetVehicleCounts(_ context.Context, params *models.StatsParams) (*models.VehicleCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsParams = params
	counts := r.counts
	return &counts, nil
}

func (r *memRepo) ListBookValuePairs(_ context.Context, _ string, since, until time.Time) ([]*models.BookValuePair, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairRanges = append(r.pairRanges, [2]time.Time{since, until})
	return r.pairs, nil
}

// countingCache records StatsCache traffic.
type countingCache struct {
	mu          sync.Mutex
	entries     map[string]*models.Statistics
	sets        int
	invalidated []string
}

func newCountingCache() *countingCache {
	return &countingCache{entries: map[string]*models.Statistics{}}
}

func (c *countingCache) Get(_ context.Context, storeID, start, end string) (*models.Statistics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[storeID+"|"+start+"|"+end]
	return s, ok
}

func (c *countingCache) Set(_ context.Context, storeID, start, end string, stats *models.Statistics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[storeID+"|"+start+"|"+end] = stats
}

func (c *countingCache) InvalidateStore(_ context.Context, storeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, storeID)
}

// fakeScreenshots is a ScreenshotStore that signs deterministic URLs.
type fakeScreenshots struct {
	deleted []string
}

func (f *fakeScreenshots) PresignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://s3.test/" + path + "?sig=1", nil
}

func (f *fakeScreenshots) Delete(_ context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}
