// Package repotest provides in-memory repositories for tests of the layers
// above the database. They mirror the ordering and not-found behaviour of
// the PostgreSQL repositories.
package repotest

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/dbx"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/activities"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/members"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/profile"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/programs"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/users"
)

// Manager implements repomanager.RepositoryManager. Err, when set, is
// returned by every repository call.
type Manager struct {
	mu  sync.Mutex
	Err error

	nextID int64
	now    func() time.Time

	users      map[string]*models.User
	sessions   map[string]*models.Session
	members    map[int64]*models.Member
	programs   map[int64]*models.Program
	activities map[int64]*models.Activity
	profile    models.Profile
}

func NewManager() *Manager {
	return &Manager{
		now:        time.Now,
		users:      map[string]*models.User{},
		sessions:   map[string]*models.Session{},
		members:    map[int64]*models.Member{},
		programs:   map[int64]*models.Program{},
		activities: map[int64]*models.Activity{},
	}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return m.Err }

func (m *Manager) Users(dbx.DBTX) users.Repository           { return userRepo{m} }
func (m *Manager) Sessions(dbx.DBTX) sessions.Repository     { return sessionRepo{m} }
func (m *Manager) Members(dbx.DBTX) members.Repository       { return memberRepo{m} }
func (m *Manager) Programs(dbx.DBTX) programs.Repository     { return programRepo{m} }
func (m *Manager) Activities(dbx.DBTX) activities.Repository { return activityRepo{m} }
func (m *Manager) Profile(dbx.DBTX) profile.Repository       { return profileRepo{m} }

// SessionCount returns the number of stored sessions.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ExpireSession moves a session's expiry into the past.
func (m *Manager) ExpireSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.ExpiresAt = m.now().Add(-time.Second)
	}
}

func (m *Manager) id() int64 {
	m.nextID++
	return m.nextID
}

type userRepo struct{ m *Manager }

func (r userRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	for _, existing := range r.m.users {
		if existing.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	cp.ID = "user-" + strconv.FormatInt(r.m.id(), 10)
	cp.CreatedAt = r.m.now()
	r.m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r userRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	for _, u := range r.m.users {
		if u.UserName == login {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

type sessionRepo struct{ m *Manager }

func (r sessionRepo) Create(_ context.Context, userID string, expiresAt time.Time) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	s := &models.Session{
		ID:        "session-" + strconv.FormatInt(r.m.id(), 10),
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: r.m.now(),
	}
	r.m.sessions[s.ID] = s
	out := *s
	return &out, nil
}

func (r sessionRepo) Find(_ context.Context, id string) (*models.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	s, ok := r.m.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *s
	if u, ok := r.m.users[s.UserID]; ok {
		out.UserName = u.UserName
	}
	return &out, nil
}

func (r sessionRepo) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	delete(r.m.sessions, id)
	return nil
}

func (r sessionRepo) DeleteExpired(_ context.Context, now time.Time) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	var ids []string
	for id, s := range r.m.sessions {
		if !s.ExpiresAt.After(now) {
			ids = append(ids, id)
			delete(r.m.sessions, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type memberRepo struct{ m *Manager }

var roleRank = map[models.MemberRole]int{models.RoleAdvisor: 0, models.RoleOfficer: 1, models.RoleMember: 2}

func (r memberRepo) List(context.Context) ([]models.Member, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	var out []models.Member
	for _, v := range r.m.members {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if roleRank[out[i].Role] != roleRank[out[j].Role] {
			return roleRank[out[i].Role] < roleRank[out[j].Role]
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memberRepo) Get(_ context.Context, id int64) (*models.Member, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	v, ok := r.m.members[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *v
	return &out, nil
}

func (r memberRepo) Create(_ context.Context, v *models.Member) (*models.Member, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	v.ID = r.m.id()
	v.CreatedAt = r.m.now()
	cp := *v
	r.m.members[v.ID] = &cp
	return v, nil
}

func (r memberRepo) Update(_ context.Context, v *models.Member) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	old, ok := r.m.members[v.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cp := *v
	cp.CreatedAt = old.CreatedAt
	r.m.members[v.ID] = &cp
	return nil
}

func (r memberRepo) Delete(_ context.Context, id int64) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return "", r.m.Err
	}
	v, ok := r.m.members[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	delete(r.m.members, id)
	return v.ImageKey, nil
}

func (r memberRepo) Count(context.Context) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.m.members), r.m.Err
}

type programRepo struct{ m *Manager }

func (r programRepo) List(context.Context) ([]models.Program, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	var out []models.Program
	for _, v := range r.m.programs {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r programRepo) Get(_ context.Context, id int64) (*models.Program, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	v, ok := r.m.programs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *v
	return &out, nil
}

func (r programRepo) Create(_ context.Context, v *models.Program) (*models.Program, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	v.ID = r.m.id()
	v.CreatedAt = r.m.now()
	cp := *v
	r.m.programs[v.ID] = &cp
	return v, nil
}

func (r programRepo) Update(_ context.Context, v *models.Program) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	old, ok := r.m.programs[v.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cp := *v
	cp.CreatedAt = old.CreatedAt
	r.m.programs[v.ID] = &cp
	return nil
}

func (r programRepo) Delete(_ context.Context, id int64) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return "", r.m.Err
	}
	v, ok := r.m.programs[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	delete(r.m.programs, id)
	return v.ImageKey, nil
}

func (r programRepo) Count(context.Context) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.m.programs), r.m.Err
}

type activityRepo struct{ m *Manager }

func (r activityRepo) List(_ context.Context, f activities.Filter) ([]models.Activity, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	q := strings.ToLower(f.Query)
	var out []models.Activity
	for _, v := range r.m.activities {
		if q == "" || strings.Contains(strings.ToLower(v.Title), q) {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r activityRepo) Get(_ context.Context, id int64) (*models.Activity, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	v, ok := r.m.activities[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *v
	return &out, nil
}

func (r activityRepo) Create(_ context.Context, v *models.Activity) (*models.Activity, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	v.ID = r.m.id()
	v.CreatedAt = r.m.now()
	cp := *v
	r.m.activities[v.ID] = &cp
	return v, nil
}

func (r activityRepo) Update(_ context.Context, v *models.Activity) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return r.m.Err
	}
	old, ok := r.m.activities[v.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cp := *v
	cp.CreatedAt = old.CreatedAt
	r.m.activities[v.ID] = &cp
	return nil
}

func (r activityRepo) Delete(_ context.Context, id int64) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return "", r.m.Err
	}
	v, ok := r.m.activities[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	delete(r.m.activities, id)
	return v.ImageKey, nil
}

func (r activityRepo) Count(context.Context) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.m.activities), r.m.Err
}

type profileRepo struct{ m *Manager }

func (r profileRepo) Get(context.Context) (*models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	out := r.m.profile
	return &out, nil
}

func (r profileRepo) Update(_ context.Context, vision, mission string) (*models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.Err != nil {
		return nil, r.m.Err
	}
	r.m.profile = models.Profile{Vision: vision, Mission: mission, UpdatedAt: r.m.now()}
	out := r.m.profile
	return &out, nil
}
