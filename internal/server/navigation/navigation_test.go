package navigation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		path   string
		want   Action
	}{
		{"anchor on home scrolls now", Anchor("members"), "/", Action{Scroll: "members"}},
		{"anchor elsewhere navigates then scrolls", Anchor("members"), "/login",
			Action{Navigate: "/", Scroll: "members", Delay: DeferredScrollDelay}},
		{"anchor from a detail page", Anchor("kegiatan"), "/activities/3",
			Action{Navigate: "/", Scroll: "kegiatan", Delay: 100 * time.Millisecond}},
		{"route always navigates", Route("/members"), "/", Action{Navigate: "/members"}},
		{"route from elsewhere", Route("/activities"), "/programs/1", Action{Navigate: "/activities"}},
		{"top on home", Anchor(TopAnchor), "/", Action{Scroll: "top"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.intent, tt.path)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Resolve mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAction_Immediate(t *testing.T) {
	assert.True(t, Resolve(Anchor("members"), "/").Immediate())
	assert.False(t, Resolve(Anchor("members"), "/login").Immediate())
}

func TestAction_Href(t *testing.T) {
	assert.Equal(t, "#anggota", Resolve(Anchor("anggota"), "/").Href())
	assert.Equal(t, "/?scroll=anggota", Resolve(Anchor("anggota"), "/members").Href())
	assert.Equal(t, "/activities", Resolve(Route("/activities"), "/").Href())
	assert.Equal(t, "/?scroll=visi-misi", Resolve(Anchor("visi-misi"), "/login").Href())
}

type recorder struct {
	events   []string
	present  map[string]bool
	navErr   error
	navAt    time.Time
	scrollAt time.Time
}

func (r *recorder) Navigate(_ context.Context, path string) error {
	r.navAt = time.Now()
	r.events = append(r.events, "navigate "+path)
	return r.navErr
}

func (r *recorder) ScrollTo(id string) bool {
	r.scrollAt = time.Now()
	if !r.present[id] {
		return false
	}
	r.events = append(r.events, "scroll "+id)
	return true
}

func (r *recorder) ScrollToTop() { r.events = append(r.events, "scroll top") }

func TestPerform_ImmediateScroll(t *testing.T) {
	nav := &recorder{present: map[string]bool{"members": true}}

	require.NoError(t, Perform(context.Background(), Resolve(Anchor("members"), "/"), nav))
	assert.Equal(t, []string{"scroll members"}, nav.events)
}

func TestPerform_NavigateThenDeferredScroll(t *testing.T) {
	nav := &recorder{present: map[string]bool{"members": true}}

	require.NoError(t, Perform(context.Background(), Resolve(Anchor("members"), "/login"), nav))
	assert.Equal(t, []string{"navigate /", "scroll members"}, nav.events)
	assert.GreaterOrEqual(t, nav.scrollAt.Sub(nav.navAt), DeferredScrollDelay)
}

func TestPerform_MissingAnchorIsSkipped(t *testing.T) {
	nav := &recorder{present: map[string]bool{}}

	err := Perform(context.Background(), Resolve(Anchor("gone"), "/login"), nav)
	require.NoError(t, err)
	assert.Equal(t, []string{"navigate /"}, nav.events)
}

func TestPerform_Top(t *testing.T) {
	nav := &recorder{}
	require.NoError(t, Perform(context.Background(), Resolve(Anchor(TopAnchor), "/"), nav))
	assert.Equal(t, []string{"scroll top"}, nav.events)
}

func TestPerform_NavigateError(t *testing.T) {
	nav := &recorder{navErr: errors.New("blocked"), present: map[string]bool{"members": true}}

	err := Perform(context.Background(), Resolve(Anchor("members"), "/login"), nav)
	assert.EqualError(t, err, "blocked")
	assert.Equal(t, []string{"navigate /"}, nav.events)
}

func TestPerform_CancelledDuringDelay(t *testing.T) {
	nav := &recorder{present: map[string]bool{"members": true}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Perform(ctx, Resolve(Anchor("members"), "/login"), nav)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"navigate /"}, nav.events)
}

func TestMenu(t *testing.T) {
	links := []Link{
		{Label: "Anggota", Intent: Anchor("anggota")},
		{Label: "Semua Kegiatan", Intent: Route("/activities")},
		{Label: "KAD", Intent: Route("https://tally.so/r/3q06Gd"), External: true},
	}

	home := Menu(links, "/")
	assert.Equal(t, []MenuItem{
		{Label: "Anggota", Href: "#anggota"},
		{Label: "Semua Kegiatan", Href: "/activities"},
		{Label: "KAD", Href: "https://tally.so/r/3q06Gd", External: true},
	}, home)

	elsewhere := Menu(links, "/members")
	assert.Equal(t, "/?scroll=anggota", elsewhere[0].Href)
	assert.True(t, elsewhere[0].Deferred)
	assert.False(t, elsewhere[1].Deferred)
}
