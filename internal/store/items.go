package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/model"
)

// ItemsKey is the slot holding the serialized item list.
const ItemsKey = "items"

// ErrItemNotFound is returned by Update for an unknown item id.
var ErrItemNotFound = errors.New("item not found")

// ItemStore is the ordered item list, newest first, mirrored to a single kv
// slot. Every mutation re-reads the slot, applies the change and rewrites it.
type ItemStore struct {
	mu    sync.RWMutex
	kv    kv.Store
	log   *zap.Logger
	items []model.Item
	newID func() string
	now   func() time.Time
}

// LoadItems reads the item list from the store. A missing slot is an empty
// list; an unparsable slot is logged and treated as empty.
func LoadItems(ctx context.Context, s kv.Store, log *zap.Logger) (*ItemStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	is := &ItemStore{
		kv:    s,
		log:   log,
		newID: newItemID,
		now:   time.Now,
	}

	items, err := is.read(ctx)
	if err != nil {
		return nil, err
	}
	is.items = items
	return is, nil
}

// read decodes the slot. A missing slot is an empty list; an unparsable one
// is logged and treated as empty.
func (s *ItemStore) read(ctx context.Context) ([]model.Item, error) {
	data, err := s.kv.Get(ctx, ItemsKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}

	var items []model.Item
	if err := json.Unmarshal(data, &items); err != nil {
		s.log.Warn("stored item list is unreadable, starting empty", zap.Error(err), zap.Int("bytes", len(data)))
		return nil, nil
	}
	return items, nil
}

// refresh replaces the cached list with the stored one, so items written by
// another process sharing the backend are kept. Callers hold s.mu.
func (s *ItemStore) refresh(ctx context.Context) error {
	items, err := s.read(ctx)
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

// Reload picks up items written through the backend since the last read.
func (s *ItemStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

// newItemID returns a time-ordered UUID.
func newItemID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// List returns a copy of all items, newest first.
func (s *ItemStore) List() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Item, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

// Get returns the item with the given id.
func (s *ItemStore) Get(id string) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.index(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return model.Item{}, false
}

// Len returns the number of stored items.
func (s *ItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Add validates a report, turns it into a pending item with a fresh id,
// prepends it to the stored list and persists the result. On a persistence failure the list
// is left as it was.
func (s *ItemStore) Add(ctx context.Context, r model.Report) (model.Item, error) {
	if err := r.Validate(); err != nil {
		return model.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		return model.Item{}, err
	}

	id := s.newID()
	for s.index(id) >= 0 {
		id = s.newID()
	}

	item := model.Item{
		ID:          id,
		Name:        r.Name,
		Type:        r.Type,
		Date:        r.Date,
		Location:    r.Location,
		Description: r.Description,
		Category:    r.Category,
		Status:      model.StatusPending,
		ReportedBy:  r.ReportedBy,
		Image:       r.Image,
		CreatedAt:   s.now().UTC(),
	}

	next := make([]model.Item, 0, len(s.items)+1)
	next = append(next, item)
	next = append(next, s.items...)

	if err := s.persist(ctx, next); err != nil {
		return model.Item{}, err
	}
	s.items = next
	return item.Clone(), nil
}

// Update applies fn to a copy of the item and persists the result. If fn
// returns an error nothing is changed and the error is returned as is.
func (s *ItemStore) Update(ctx context.Context, id string, fn func(*model.Item) error) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		return model.Item{}, err
	}

	i := s.index(id)
	if i < 0 {
		return model.Item{}, ErrItemNotFound
	}

	updated := s.items[i].Clone()
	if err := fn(&updated); err != nil {
		return model.Item{}, err
	}
	updated.ID = s.items[i].ID

	next := make([]model.Item, len(s.items))
	copy(next, s.items)
	next[i] = updated

	if err := s.persist(ctx, next); err != nil {
		return model.Item{}, err
	}
	s.items = next
	return updated.Clone(), nil
}

func (s *ItemStore) index(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ItemStore) persist(ctx context.Context, items []model.Item) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encoding items: %w", err)
	}
	if err := s.kv.Put(ctx, ItemsKey, data); err != nil {
		return fmt.Errorf("saving items: %w", err)
	}
	return nil
}
