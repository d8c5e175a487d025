package quiz

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mkaravas/melete/internal/model"
)

// Transliterator performs one remote transliteration lookup.
type Transliterator interface {
	Transliterate(ctx context.Context, lang model.Language, text string) (string, error)
}

// Coordinator owns the text of the answer field and manages the
// overlapping async lookups triggered as the user types.
//
// Every edit bumps a generation counter and the lookup it spawns
// captures that generation. A result applies only while its
// generation is still the latest; anything else is discarded, so a
// slow lookup can never overwrite newer input. Applying a result
// bumps the generation as well.
//
// Submit closes the coordinator: it waits for every lookup already in
// flight, then returns the field text as of that barrier. Edits
// arriving while closed are buffered and installed as the new field
// value when Reset reopens it.
type Coordinator struct {
	client Transliterator
	lang   model.Language

	// onUpdate, when set, is called with the new field text after a
	// lookup result applies. Called without the lock held.
	onUpdate func(string)

	mu     sync.Mutex
	wg     sync.WaitGroup
	value  string
	next   string
	gen    uint64
	closed bool
}

func NewCoordinator(client Transliterator, lang model.Language) *Coordinator {
	return &Coordinator{client: client, lang: lang}
}

// OnUpdate registers the display hook invoked when a lookup rewrites
// the field.
func (c *Coordinator) OnUpdate(f func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = f
}

// Value returns the current field text.
func (c *Coordinator) Value() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.next
	}
	return c.value
}

// SetValue records a user edit and schedules a lookup for it.
func (c *Coordinator) SetValue(ctx context.Context, v string) {
	c.Edit(ctx, func(string) string { return v })
}

// Edit applies f to the field text under the coordinator's lock and
// schedules a lookup for the result. While a submission is in flight
// the edit lands in the buffered next value instead. Returns the text
// the display should show.
func (c *Coordinator) Edit(ctx context.Context, f func(string) string) string {
	c.mu.Lock()
	if c.closed {
		c.next = f(c.next)
		v := c.next
		c.mu.Unlock()
		return v
	}

	v := f(c.value)
	if v == c.value {
		c.mu.Unlock()
		return v
	}
	c.value = v
	c.gen++
	if v != "" {
		c.wg.Add(1)
		go c.lookup(ctx, c.gen, v)
	}
	c.mu.Unlock()
	return v
}

func (c *Coordinator) lookup(ctx context.Context, gen uint64, captured string) {
	defer c.wg.Done()

	out, err := c.client.Transliterate(ctx, c.lang, captured)
	if err != nil {
		// Non-fatal: the user's typed text stands.
		slog.Debug("transliteration failed", "text", captured, "error", err)
		return
	}

	c.mu.Lock()
	if gen != c.gen || c.value != captured || out == captured {
		c.mu.Unlock()
		return
	}
	c.value = out
	c.gen++
	update := c.onUpdate
	c.mu.Unlock()

	if update != nil {
		update(out)
	}
}

// Submit closes the coordinator to new lookups, waits for every
// lookup issued before the call, and returns the field text as of
// that barrier. The coordinator stays closed until Reset.
func (c *Coordinator) Submit() string {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	v := c.value
	c.mu.Unlock()
	return v
}

// Reset reopens the coordinator for the next answer. Edits buffered
// while closed become the new field value and get their lookup.
func (c *Coordinator) Reset(ctx context.Context) string {
	c.mu.Lock()
	c.closed = false
	c.gen++
	c.value = c.next
	c.next = ""
	if c.value != "" {
		c.wg.Add(1)
		go c.lookup(ctx, c.gen, c.value)
	}
	v := c.value
	c.mu.Unlock()
	return v
}
