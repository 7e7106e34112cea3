package services

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zhguchie-tours/frontend/internal/core/domain/page"
)

// ErrPageNotFound is returned when switching to a page that does not exist.
var ErrPageNotFound = errors.New("page not found")

// DefaultVisitorTTL is how long an idle visitor's page selection is kept.
const DefaultVisitorTTL = 24 * time.Hour

// PageController is the application state of the navigation shell. It is
// built once at startup and handed to the handlers that need it. Each visitor
// has its own active page; a visitor that never switched sees the default page.
type PageController struct {
	mu         sync.Mutex
	pages      []page.Page
	byID       map[page.ID]page.Page
	defaultID  page.ID
	visitors   map[string]visitorView
	ttl        time.Duration
	pruneAfter int
	logger     *logrus.Logger
	now        func() time.Time
}

type visitorView struct {
	active page.ID
	seen   time.Time
}

const minPruneAfter = 1024

func NewPageController(pages []page.Page, logger *logrus.Logger) *PageController {
	if len(pages) == 0 {
		pages = page.Catalog()
	}
	byID := make(map[page.ID]page.Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}
	defaultID := page.DefaultID
	if _, ok := byID[defaultID]; !ok {
		defaultID = pages[0].ID
	}
	return &PageController{
		pages:      pages,
		byID:       byID,
		defaultID:  defaultID,
		visitors:   make(map[string]visitorView),
		ttl:        DefaultVisitorTTL,
		pruneAfter: minPruneAfter,
		logger:     logger,
		now:        time.Now,
	}
}

// SetVisitorTTL changes how long idle selections are kept. Non-positive values are ignored.
func (c *PageController) SetVisitorTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

func (c *PageController) Pages() []page.Page {
	return append([]page.Page(nil), c.pages...)
}

// Current returns the view of visitor. An empty or unknown visitor gets the default page.
func (c *PageController) Current(visitor string) page.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked(c.activeLocked(visitor))
}

// SwitchPage activates id for visitor only. An unknown id leaves the state unchanged.
func (c *PageController) SwitchPage(visitor string, id page.ID) (page.ViewState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		return c.viewLocked(c.activeLocked(visitor)), ErrPageNotFound
	}
	if visitor != "" {
		c.visitors[visitor] = visitorView{active: id, seen: c.now()}
		if len(c.visitors) >= c.pruneAfter {
			c.pruneLocked()
		}
	}
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{"page": id, "visitor": visitor}).Debug("page switched")
	}
	return c.viewLocked(id), nil
}

// Visitors returns the number of visitors with a remembered selection.
func (c *PageController) Visitors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.visitors)
}

func (c *PageController) activeLocked(visitor string) page.ID {
	v, ok := c.visitors[visitor]
	if !ok || visitor == "" {
		return c.defaultID
	}
	if c.now().Sub(v.seen) > c.ttl {
		delete(c.visitors, visitor)
		return c.defaultID
	}
	v.seen = c.now()
	c.visitors[visitor] = v
	return v.active
}

func (c *PageController) pruneLocked() {
	now := c.now()
	for k, v := range c.visitors {
		if now.Sub(v.seen) > c.ttl {
			delete(c.visitors, k)
		}
	}
	c.pruneAfter = max(minPruneAfter, 2*len(c.visitors))
}

func (c *PageController) viewLocked(active page.ID) page.ViewState {
	return page.ViewState{
		Active: active,
		Title:  c.byID[active].Title(),
		Pages:  append([]page.Page(nil), c.pages...),
	}
}
