// Package navigation resolves navbar clicks into either an in-page scroll
// or a route change followed by a scroll.
package navigation

import (
	"context"
	"net/url"
	"time"
)

// HomePath is the page that carries the section anchors.
const HomePath = "/"

// TopAnchor scrolls to the top of the page instead of to an element.
const TopAnchor = "top"

// DeferredScrollDelay is how long a scroll waits after a route change for
// the destination page to lay out. There is no signal for that, so the
// delay is fixed.
const DeferredScrollDelay = 100 * time.Millisecond

// ScrollParam carries a deferred anchor on a link to the home page.
const ScrollParam = "scroll"

type Mode int

const (
	ModeRoute Mode = iota
	ModeAnchor
)

// Intent is one click: go to a route, or bring an anchor into view.
type Intent struct {
	Mode   Mode
	Target string
}

func Route(path string) Intent { return Intent{Mode: ModeRoute, Target: path} }
func Anchor(id string) Intent  { return Intent{Mode: ModeAnchor, Target: id} }

// Action is what the page has to do for an intent. Navigate, when set,
// happens first; Scroll, when set, happens after Delay.
type Action struct {
	Navigate string
	Scroll   string
	Delay    time.Duration
}

// Immediate reports whether the action is a scroll within the current page.
func (a Action) Immediate() bool { return a.Navigate == "" && a.Delay == 0 }

// Href renders the action as a link target for a server-rendered page.
func (a Action) Href() string {
	switch {
	case a.Navigate == "":
		return "#" + a.Scroll
	case a.Scroll == "":
		return a.Navigate
	default:
		return a.Navigate + "?" + url.Values{ScrollParam: {a.Scroll}}.Encode()
	}
}

// Resolve turns intent into an action given the path the visitor is on.
func Resolve(intent Intent, currentPath string) Action {
	if intent.Mode == ModeRoute {
		return Action{Navigate: intent.Target}
	}
	if currentPath == HomePath {
		return Action{Scroll: intent.Target}
	}
	return Action{Navigate: HomePath, Scroll: intent.Target, Delay: DeferredScrollDelay}
}

// Navigator is the page an action is performed on.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
	// ScrollTo brings the element with id into view smoothly and reports
	// whether it exists.
	ScrollTo(id string) bool
	ScrollToTop()
}

// Perform carries out a on nav. A scroll target that does not exist once
// the delay is over is skipped without error.
func Perform(ctx context.Context, a Action, nav Navigator) error {
	if a.Navigate != "" {
		if err := nav.Navigate(ctx, a.Navigate); err != nil {
			return err
		}
	}
	if a.Scroll == "" {
		return nil
	}
	if a.Delay > 0 {
		t := time.NewTimer(a.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if a.Scroll == TopAnchor {
		nav.ScrollToTop()
		return nil
	}
	nav.ScrollTo(a.Scroll)
	return nil
}
