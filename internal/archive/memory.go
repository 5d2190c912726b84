package archive

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// memrepo is the in-memory repository used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	byID      map[int64]*Game
	byRoom    map[string][]*Game
	bySession map[string]*Game
}

func NewMemoryRepository() Repository {
	return &memrepo{
		byID:      make(map[int64]*Game),
		byRoom:    make(map[string][]*Game),
		bySession: make(map[string]*Game),
	}
}

func (m *memrepo) Save(ctx context.Context, game *Game) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil archive game payload")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bySession[game.SessionID]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	stored := *game
	stored.ID = m.nextID

	m.byID[stored.ID] = &stored
	m.bySession[stored.SessionID] = &stored
	m.byRoom[stored.Room] = append(m.byRoom[stored.Room], &stored)

	return stored.ID, nil
}

func (m *memrepo) RecentByRoom(ctx context.Context, room string, limit int) ([]*Game, error) {
	if limit <= 0 {
		limit = 10
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.byRoom[room]
	if len(list) == 0 {
		return []*Game{}, nil
	}
	items := append([]*Game(nil), list...)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].FinishedAt.Equal(items[j].FinishedAt) {
			return items[i].FinishedAt.After(items[j].FinishedAt)
		}
		return items[i].ID > items[j].ID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]*Game, 0, len(items))
	for _, g := range items {
		cp := *g
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memrepo) Get(ctx context.Context, id int64) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}
