package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/kv"
	"github.com/erazemk/lostfound/internal/model"
)

var reporter = model.Party{ID: "u1", Name: "Student User", UniversityID: "1234567890"}

func report(name string, typ model.ItemType) model.Report {
	return model.Report{
		Name:       name,
		Type:       typ,
		Date:       "2024-03-01T10:30",
		Location:   "Library",
		Category:   "Electronics",
		ReportedBy: reporter,
	}
}

// failingKV fails every Put once failPut is set.
type failingKV struct {
	*kv.Memory
	failPut bool
}

func (f *failingKV) Put(ctx context.Context, key string, value []byte) error {
	if f.failPut {
		return errors.New("disk full")
	}
	return f.Memory.Put(ctx, key, value)
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	items, err := LoadItems(ctx, kv.NewSQL(db.NewTestDB(t), db.SQLite), nil)
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}

	first, err := items.Add(ctx, report("Laptop", model.ItemTypeLost))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if first.Status != model.StatusPending {
		t.Errorf("expected status 'pending', got %q", first.Status)
	}
	if first.ID == "" {
		t.Error("expected an id")
	}
	if first.CreatedAt.IsZero() {
		t.Error("expected createdAt to be set")
	}

	second, err := items.Add(ctx, report("Umbrella", model.ItemTypeFound))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if second.ID == first.ID {
		t.Errorf("expected distinct ids, got %q twice", first.ID)
	}

	list := items.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 items, got %d", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("expected newest item first, got %q", list[0].Name)
	}
}

func TestAddItemRejectsInvalidReport(t *testing.T) {
	ctx := context.Background()
	items, _ := LoadItems(ctx, kv.NewMemory(), nil)

	r := report("  ", model.ItemTypeLost)
	_, err := items.Add(ctx, r)

	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if items.Len() != 0 {
		t.Errorf("expected no items after rejected report, got %d", items.Len())
	}
}

func TestAddItemRollsBackOnPersistError(t *testing.T) {
	ctx := context.Background()
	backend := &failingKV{Memory: kv.NewMemory()}
	items, _ := LoadItems(ctx, backend, nil)

	if _, err := items.Add(ctx, report("Keys", model.ItemTypeLost)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	backend.failPut = true
	if _, err := items.Add(ctx, report("Wallet", model.ItemTypeLost)); err == nil {
		t.Fatal("expected persist error")
	}
	if items.Len() != 1 {
		t.Errorf("expected 1 item after failed add, got %d", items.Len())
	}
}

func TestItemsReload(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	items, _ := LoadItems(ctx, backend, nil)

	added, err := items.Add(ctx, report("Calculator", model.ItemTypeFound))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	reloaded, err := LoadItems(ctx, backend, nil)
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	got, ok := reloaded.Get(added.ID)
	if !ok {
		t.Fatalf("expected item %q after reload", added.ID)
	}
	if diff := cmp.Diff(added, got); diff != "" {
		t.Errorf("reloaded item mismatch (-want +got):\n%s", diff)
	}
}

func TestItemsCorruptSlotLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()
	backend.Put(ctx, ItemsKey, []byte("{not json"))

	items, err := LoadItems(ctx, backend, nil)
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if items.Len() != 0 {
		t.Errorf("expected empty store, got %d items", items.Len())
	}
}

func TestItemListRoundTrip(t *testing.T) {
	claimDate := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	approved := claimDate.Add(time.Hour)
	want := []model.Item{
		{
			ID: "a", Name: "Phone", Type: model.ItemTypeFound, Date: "2024-03-01",
			Location: "Cafeteria", Category: "Electronics", Status: model.StatusClaimed,
			ReportedBy: reporter, Image: "data:image/jpeg;base64,AAAA",
			ClaimedBy:  &model.Party{ID: "u2", Name: "Claimant", UniversityID: "2222222222"},
			ClaimDate:  &claimDate, ClaimReason: "it has my stickers", ApprovedAt: &approved,
			CreatedAt: claimDate.Add(-time.Hour),
		},
		{
			ID: "b", Name: "Scarf", Type: model.ItemTypeLost, Date: "2024-03-01",
			Location: "Library", Category: "Clothing & Accessories", Status: model.StatusPending,
			ReportedBy: reporter, CreatedAt: claimDate,
		},
	}

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got []model.Item
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()
	items, _ := LoadItems(ctx, kv.NewMemory(), nil)
	added, _ := items.Add(ctx, report("Bottle", model.ItemTypeFound))

	updated, err := items.Update(ctx, added.ID, func(i *model.Item) error {
		i.Status = model.StatusUnclaimed
		i.ID = "hijacked"
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != model.StatusUnclaimed {
		t.Errorf("expected status 'unclaimed', got %q", updated.Status)
	}
	if updated.ID != added.ID {
		t.Errorf("expected id to stay %q, got %q", added.ID, updated.ID)
	}
}

func TestUpdateItemAbortsOnError(t *testing.T) {
	ctx := context.Background()
	items, _ := LoadItems(ctx, kv.NewMemory(), nil)
	added, _ := items.Add(ctx, report("Bottle", model.ItemTypeFound))

	errNope := errors.New("nope")
	_, err := items.Update(ctx, added.ID, func(i *model.Item) error {
		i.Status = model.StatusClaimed
		return errNope
	})
	if !errors.Is(err, errNope) {
		t.Fatalf("expected errNope, got %v", err)
	}

	got, _ := items.Get(added.ID)
	if got.Status != model.StatusPending {
		t.Errorf("expected status unchanged, got %q", got.Status)
	}
}

func TestUpdateUnknownItem(t *testing.T) {
	ctx := context.Background()
	items, _ := LoadItems(ctx, kv.NewMemory(), nil)

	_, err := items.Update(ctx, "missing", func(*model.Item) error { return nil })
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	items, _ := LoadItems(ctx, kv.NewMemory(), nil)
	added, _ := items.Add(ctx, report("Pen", model.ItemTypeLost))

	list := items.List()
	list[0].Name = "Changed"

	got, _ := items.Get(added.ID)
	if got.Name != "Pen" {
		t.Errorf("expected store untouched, got name %q", got.Name)
	}
}

func TestItemStoresSharingBackend(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()

	server, _ := LoadItems(ctx, backend, nil)
	cli, _ := LoadItems(ctx, backend, nil)

	fromServer, err := server.Add(ctx, report("Umbrella", model.ItemTypeFound))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	fromCLI, err := cli.Add(ctx, report("Headphones", model.ItemTypeLost))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := server.Update(ctx, fromServer.ID, func(i *model.Item) error {
		i.Status = model.StatusUnclaimed
		return nil
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded, err := LoadItems(ctx, backend, nil)
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 persisted items, got %d", reloaded.Len())
	}
	if got, _ := reloaded.Get(fromServer.ID); got.Status != model.StatusUnclaimed {
		t.Errorf("expected status 'unclaimed', got %q", got.Status)
	}
	if _, ok := reloaded.Get(fromCLI.ID); !ok {
		t.Errorf("expected item %q from the second writer", fromCLI.ID)
	}
}

func TestItemStoreReload(t *testing.T) {
	ctx := context.Background()
	backend := kv.NewMemory()

	reader, _ := LoadItems(ctx, backend, nil)
	writer, _ := LoadItems(ctx, backend, nil)

	added, _ := writer.Add(ctx, report("Notebook", model.ItemTypeLost))
	if _, ok := reader.Get(added.ID); ok {
		t.Fatal("expected item to be unseen before Reload")
	}

	if err := reader.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if _, ok := reader.Get(added.ID); !ok {
		t.Errorf("expected item %q after Reload", added.ID)
	}
}
