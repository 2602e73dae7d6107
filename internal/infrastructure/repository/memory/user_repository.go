package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dcgrid/teamcomp/internal/domain/user"
)

type UserRepository struct {
	mu        sync.RWMutex
	users     map[string]user.User
	joinOrder int
}

func NewUserRepository(seed []user.User) *UserRepository {
	repo := &UserRepository{users: make(map[string]user.User, len(seed))}
	for _, item := range seed {
		repo.joinOrder++
		item.JoinOrder = repo.joinOrder
		repo.users[item.ID] = item
	}
	return repo
}

func (r *UserRepository) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.users))
	for _, item := range r.users {
		out = append(out, item)
	}
	sortByJoinOrder(out)

	return out, nil
}

func (r *UserRepository) ListByTeam(_ context.Context, teamID string) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0)
	for _, item := range r.users {
		if item.TeamID == teamID {
			out = append(out, item)
		}
	}
	sortByJoinOrder(out)

	return out, nil
}

func (r *UserRepository) GetByID(_ context.Context, userID string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.users[userID]
	return item, ok, nil
}

func (r *UserRepository) Upsert(_ context.Context, item user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[item.ID]; ok {
		item.JoinOrder = existing.JoinOrder
	} else {
		r.joinOrder++
		item.JoinOrder = r.joinOrder
	}
	r.users[item.ID] = item

	return nil
}

func (r *UserRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, userID)
	return nil
}

func sortByJoinOrder(items []user.User) {
	sort.Slice(items, func(i, j int) bool { return items[i].JoinOrder < items[j].JoinOrder })
}
