// Package navigator is the page state machine of a reading session: one
// active page, a history of the pages left behind, and a ticket that
// advances on every transition.
package navigator

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/starford/babilon/internal/apperr"
)

// PageID names a page. Exactly one page is active at any time.
type PageID string

const (
	PageMain     PageID = "page-main"
	PageCategory PageID = "page-category"
	PageArticle  PageID = "page-article"
	PageAuthors  PageID = "page-authors"
	PageSupport  PageID = "page-support"
	PageArchive  PageID = "page-archive"
)

// Pages lists every known page.
var Pages = []PageID{PageMain, PageCategory, PageArticle, PageAuthors, PageSupport, PageArchive}

// ParsePage accepts both "page-main" and "main".
func ParsePage(s string) (PageID, error) {
	id := PageID(s)
	if !strings.HasPrefix(s, "page-") {
		id = PageID("page-" + s)
	}
	if !slices.Contains(Pages, id) {
		return "", fmt.Errorf("%q: %w", s, apperr.ErrUnknownPage)
	}
	return id, nil
}

// State is a snapshot of the navigator.
type State struct {
	Current PageID   `json:"currentPageId"`
	History []PageID `json:"history"`
	Ticket  uint64   `json:"ticket"`
}

// Navigator is safe for concurrent use.
type Navigator struct {
	mu      sync.Mutex
	current PageID
	history []PageID
	ticket  uint64
}

// New starts on the main page with no history.
func New() *Navigator {
	return &Navigator{current: PageMain}
}

// Show activates id, recording the page being left when it differs.
// Unknown ids are rejected and change nothing.
func (n *Navigator) Show(id PageID) error {
	if !slices.Contains(Pages, id) {
		return fmt.Errorf("%q: %w", id, apperr.ErrUnknownPage)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.show(id)
	return nil
}

func (n *Navigator) show(id PageID) {
	if n.current != id {
		n.history = append(n.history, n.current)
	}
	n.current = id
	n.ticket++
}

// Back returns to the most recently left page, or to main when there is
// none. Going back is not itself recorded.
func (n *Navigator) Back() PageID {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ticket++
	if len(n.history) == 0 {
		n.current = PageMain
		return n.current
	}
	last := len(n.history) - 1
	n.current = n.history[last]
	n.history = n.history[:last]
	return n.current
}

// Begin claims a ticket for a transition that must first wait on I/O.
// Any later Show, Back or Begin invalidates it.
func (n *Navigator) Begin() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ticket++
	return n.ticket
}

// ShowIf activates id only if nothing moved since ticket was claimed.
// It returns apperr.ErrStale otherwise.
func (n *Navigator) ShowIf(ticket uint64, id PageID) error {
	if !slices.Contains(Pages, id) {
		return fmt.Errorf("%q: %w", id, apperr.ErrUnknownPage)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ticket != ticket {
		return apperr.ErrStale
	}
	n.show(id)
	return nil
}

// Current returns the active page.
func (n *Navigator) Current() PageID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// State returns a copy of the navigator state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return State{
		Current: n.current,
		History: slices.Clone(n.history),
		Ticket:  n.ticket,
	}
}
