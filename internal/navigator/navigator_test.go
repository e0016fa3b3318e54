package navigator

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/babilon/internal/apperr"
)

func TestNew(t *testing.T) {
	n := New()
	st := n.State()
	if st.Current != PageMain || len(st.History) != 0 {
		t.Errorf("state = %+v", st)
	}
}

func TestBack_FreshSessionLandsOnMain(t *testing.T) {
	n := New()
	for range 3 {
		if got := n.Back(); got != PageMain {
			t.Errorf("Back() = %q, want main", got)
		}
	}
}

func TestShow_RecordsPreviousPage(t *testing.T) {
	n := New()
	mustShow(t, n, PageCategory)
	mustShow(t, n, PageArticle)
	if diff := cmp.Diff([]PageID{PageMain, PageCategory}, n.State().History); diff != "" {
		t.Errorf("history (-want +got):\n%s", diff)
	}
}

func TestShow_SamePageNotRecorded(t *testing.T) {
	n := New()
	mustShow(t, n, PageCategory)
	mustShow(t, n, PageCategory)
	if diff := cmp.Diff([]PageID{PageMain}, n.State().History); diff != "" {
		t.Errorf("history (-want +got):\n%s", diff)
	}
}

func TestShow_UnknownPage(t *testing.T) {
	n := New()
	mustShow(t, n, PageAuthors)
	before := n.State()
	if err := n.Show("page-nope"); !errors.Is(err, apperr.ErrUnknownPage) {
		t.Fatalf("err = %v", err)
	}
	if diff := cmp.Diff(before, n.State()); diff != "" {
		t.Errorf("state changed (-want +got):\n%s", diff)
	}
}

func TestBack_DoesNotPingPong(t *testing.T) {
	n := New()
	mustShow(t, n, PageCategory)
	mustShow(t, n, PageArticle)
	if got := n.Back(); got != PageCategory {
		t.Fatalf("first Back = %q", got)
	}
	if got := n.Back(); got != PageMain {
		t.Fatalf("second Back = %q, want main", got)
	}
}

// Any walk of n shows, each leaving the current page, is undone by n
// backs.
func TestShowBack_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for trial := range 200 {
		n := New()
		start := Pages[r.IntN(len(Pages))]
		mustShow(t, n, start)
		depth := len(n.State().History)

		steps := 1 + r.IntN(10)
		for range steps {
			next := n.Current()
			for next == n.Current() {
				next = Pages[r.IntN(len(Pages))]
			}
			mustShow(t, n, next)
		}
		for range steps {
			n.Back()
		}
		if got := n.Current(); got != start {
			t.Fatalf("trial %d: after %d backs at %q, want %q", trial, steps, got, start)
		}
		if len(n.State().History) != depth {
			t.Fatalf("trial %d: history depth %d, want %d", trial, len(n.State().History), depth)
		}
	}
}

func TestHistoryTopNeverCurrent(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	n := New()
	for range 500 {
		if r.IntN(3) == 0 {
			n.Back()
		} else {
			mustShow(t, n, Pages[r.IntN(len(Pages))])
		}
		st := n.State()
		if k := len(st.History); k > 0 && st.History[k-1] == st.Current {
			t.Fatalf("history top equals current page %q", st.Current)
		}
	}
}

func TestShowIf(t *testing.T) {
	n := New()
	tk := n.Begin()
	if err := n.ShowIf(tk, PageCategory); err != nil {
		t.Fatalf("fresh ticket: %v", err)
	}
	if n.Current() != PageCategory {
		t.Errorf("current = %q", n.Current())
	}

	stale := n.Begin()
	mustShow(t, n, PageAuthors)
	if err := n.ShowIf(stale, PageArticle); !errors.Is(err, apperr.ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if n.Current() != PageAuthors {
		t.Errorf("stale result moved navigation to %q", n.Current())
	}

	older := n.Begin()
	newer := n.Begin()
	if err := n.ShowIf(older, PageCategory); !errors.Is(err, apperr.ErrStale) {
		t.Errorf("superseded ticket accepted")
	}
	if err := n.ShowIf(newer, PageCategory); err != nil {
		t.Errorf("newest ticket rejected: %v", err)
	}
}

func TestParsePage(t *testing.T) {
	for in, want := range map[string]PageID{"main": PageMain, "page-archive": PageArchive, "support": PageSupport} {
		got, err := ParsePage(in)
		if err != nil || got != want {
			t.Errorf("ParsePage(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePage("settings"); !errors.Is(err, apperr.ErrUnknownPage) {
		t.Errorf("err = %v", err)
	}
}

func mustShow(t *testing.T, n *Navigator, id PageID) {
	t.Helper()
	if err := n.Show(id); err != nil {
		t.Fatal(err)
	}
}
