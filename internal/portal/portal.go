// Package portal is the lost-and-found service: the one place that combines
// the item store, the claim lifecycle, photos, notifications and metrics.
// The HTTP API and the CLI both drive it.
package portal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/lostfound/internal/claim"
	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/media"
	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/notify"
	"github.com/erazemk/lostfound/internal/search"
	"github.com/erazemk/lostfound/internal/store"
)

// ErrNotFound is returned for unknown item ids.
var ErrNotFound = errors.New("item not found")

// Catalog is the set of categories and locations offered to reporters.
type Catalog struct {
	Categories []string `json:"categories"`
	Locations  []string `json:"locations"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories: append([]string(nil), model.DefaultCategories...),
		Locations:  append([]string(nil), model.DefaultLocations...),
	}
}

// Options configures a Portal. Nil fields get working defaults.
type Options struct {
	Media   media.Store
	Images  imaging.Processor
	Queue   notify.Queue
	Metrics *metrics.Metrics
	Log     *zap.Logger
	Catalog *Catalog
}

// Portal holds the service state handed to handlers and commands.
type Portal struct {
	items   *store.ItemStore
	media   media.Store
	images  imaging.Processor
	queue   notify.Queue
	metrics *metrics.Metrics
	log     *zap.Logger
	catalog Catalog
	now     func() time.Time
}

// New creates a portal over items.
func New(items *store.ItemStore, opts Options) *Portal {
	p := &Portal{
		items:   items,
		media:   opts.Media,
		images:  opts.Images,
		queue:   opts.Queue,
		metrics: opts.Metrics,
		log:     opts.Log,
		catalog: DefaultCatalog(),
		now:     time.Now,
	}
	if p.media == nil {
		p.media = media.Inline{}
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	if opts.Catalog != nil {
		p.catalog = *opts.Catalog
	}
	p.refreshGauge()
	return p
}

// Catalog returns the categories and locations offered to reporters.
func (p *Portal) Catalog() Catalog {
	return p.catalog
}

// Report files a new item on behalf of actor. An image given as a data URL
// is normalized and stored before the item is created.
func (p *Portal) Report(ctx context.Context, actor model.User, r model.Report) (model.Item, error) {
	r.ReportedBy = actor.Party()
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	if err := r.Validate(); err != nil {
		return model.Item{}, err
	}

	var photo *imaging.Result
	if r.Image != "" {
		_, data, err := imaging.DecodeDataURL(r.Image)
		if err != nil {
			return model.Item{}, &model.ValidationError{Field: "image", Message: err.Error()}
		}
		photo, err = p.images.Process(bytes.NewReader(data))
		if err != nil {
			return model.Item{}, &model.ValidationError{Field: "image", Message: err.Error()}
		}
		r.Image = ""
	}

	item, err := p.items.Add(ctx, r)
	if err != nil {
		return model.Item{}, err
	}
	p.log.Info("item reported",
		zap.String("item_id", item.ID),
		zap.String("type", string(item.Type)),
		zap.String("reporter", actor.UniversityID),
	)
	if p.metrics != nil {
		p.metrics.ItemsReported.WithLabelValues(string(item.Type)).Inc()
	}
	p.refreshGauge()

	if photo != nil {
		withImage, err := p.attachImage(ctx, item.ID, photo)
		if err != nil {
			// The report itself is stored; the photo can be uploaded again.
			p.log.Error("storing photo of new item failed", zap.String("item_id", item.ID), zap.Error(err))
			return item, nil
		}
		return withImage, nil
	}
	return item, nil
}

// Reload refreshes the item list from storage, which other processes may
// share.
func (p *Portal) Reload(ctx context.Context) error {
	return p.items.Reload(ctx)
}

// List returns the items matching c, newest first.
func (p *Portal) List(c search.Criteria) []model.Item {
	return search.Filter(p.items.List(), c)
}

// Recent returns the n newest items.
func (p *Portal) Recent(n int) []model.Item {
	return search.Recent(p.items.List(), n)
}

// Get returns one item.
func (p *Portal) Get(id string) (model.Item, error) {
	item, ok := p.items.Get(id)
	if !ok {
		return model.Item{}, ErrNotFound
	}
	return item, nil
}

// Stats summarizes all items.
func (p *Portal) Stats() search.Stats {
	return search.Summarize(p.items.List())
}

// Intake marks a pending found item as received by the office.
func (p *Portal) Intake(ctx context.Context, actor model.User, id string) (model.Item, error) {
	item, err := p.update(ctx, id, func(i *model.Item) error {
		return claim.Intake(i, actor)
	})
	if err != nil {
		return model.Item{}, err
	}

	p.log.Info("item taken in", zap.String("item_id", id), zap.String("admin", actor.UniversityID))
	p.countClaimEvent("intake")
	p.publish(ctx, notify.ItemReceived, item, item.ReportedBy.UniversityID, actor)
	return item, nil
}

// Claim records actor's claim on an item.
func (p *Portal) Claim(ctx context.Context, actor model.User, id, reason string) (model.Item, error) {
	item, err := p.update(ctx, id, func(i *model.Item) error {
		return claim.Claim(i, actor.Party(), reason, p.now())
	})
	if err != nil {
		return model.Item{}, err
	}

	p.log.Info("claim submitted", zap.String("item_id", id), zap.String("claimant", actor.UniversityID))
	p.countClaimEvent("submitted")
	p.publish(ctx, notify.ClaimSubmitted, item, item.ReportedBy.UniversityID, actor)
	return item, nil
}

// Review approves or rejects the pending claim on an item.
func (p *Portal) Review(ctx context.Context, actor model.User, id string, d claim.Decision) (model.Item, error) {
	var claimant string
	item, err := p.update(ctx, id, func(i *model.Item) error {
		if i.ClaimedBy != nil {
			claimant = i.ClaimedBy.UniversityID
		}
		return claim.Review(i, actor, d, p.now())
	})
	if err != nil {
		return model.Item{}, err
	}

	p.log.Info("claim reviewed", zap.String("item_id", id), zap.String("decision", string(d)), zap.String("admin", actor.UniversityID))
	kind := notify.ClaimApproved
	if d == claim.Reject {
		kind = notify.ClaimRejected
	}
	p.countClaimEvent(string(d))
	p.publish(ctx, kind, item, claimant, actor)
	return item, nil
}

// SetImage replaces an item's photo. Only the reporter or an admin may do so.
func (p *Portal) SetImage(ctx context.Context, actor model.User, id string, r io.Reader) (model.Item, error) {
	item, ok := p.items.Get(id)
	if !ok {
		return model.Item{}, ErrNotFound
	}
	if !actor.IsAdmin() && item.ReportedBy.ID != actor.ID {
		return model.Item{}, claim.ErrForbidden
	}

	photo, err := p.images.Process(r)
	if err != nil {
		return model.Item{}, &model.ValidationError{Field: "image", Message: err.Error()}
	}
	return p.attachImage(ctx, id, photo)
}

func (p *Portal) attachImage(ctx context.Context, id string, photo *imaging.Result) (model.Item, error) {
	ref, err := p.media.Put(ctx, id, photo.Data, photo.MIME)
	if err != nil {
		return model.Item{}, fmt.Errorf("storing image: %w", err)
	}
	return p.update(ctx, id, func(i *model.Item) error {
		i.Image = ref
		return nil
	})
}

func (p *Portal) update(ctx context.Context, id string, fn func(*model.Item) error) (model.Item, error) {
	item, err := p.items.Update(ctx, id, fn)
	if errors.Is(err, store.ErrItemNotFound) {
		return model.Item{}, ErrNotFound
	}
	if err != nil {
		return model.Item{}, err
	}
	p.refreshGauge()
	return item, nil
}

func (p *Portal) publish(ctx context.Context, kind notify.Kind, item model.Item, recipient string, actor model.User) {
	if p.queue == nil || recipient == "" {
		return
	}
	ev := notify.Event{
		Kind:      kind,
		ItemID:    item.ID,
		ItemName:  item.Name,
		Recipient: recipient,
		Actor:     actor.UniversityID,
		At:        p.now().UTC(),
	}
	if err := p.queue.Publish(ctx, ev); err != nil {
		p.log.Warn("queueing notification failed", zap.String("kind", string(kind)), zap.String("item_id", item.ID), zap.Error(err))
	}
}

func (p *Portal) countClaimEvent(event string) {
	if p.metrics != nil {
		p.metrics.ClaimEvents.WithLabelValues(event).Inc()
	}
}

func (p *Portal) refreshGauge() {
	if p.metrics == nil {
		return
	}
	s := p.Stats()
	p.metrics.SetItemCounts(map[string]int{
		string(model.StatusPending):   s.Pending,
		string(model.StatusUnclaimed): s.Unclaimed,
		string(model.StatusClaimed):   s.Claimed,
	})
}
