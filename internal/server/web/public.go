package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/dmitrijs2005/councilsite/internal/server/navigation"
)

// latestActivities is how many activities the home page shows.
const latestActivities = 3

// memberPreview is how many members the home page shows.
const memberPreview = 4

type homeView struct {
	Profile    *models.Profile
	Members    []models.Member
	MoreMember bool
	Programs   []models.Program
	Activities []models.Activity
}

// handleHome renders the landing page. A scroll parameter names the section
// a link from another page wanted; the page scrolls there after a short
// delay.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := s.services.Profile.Get(ctx)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	members, err := s.services.Members.List(ctx)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	programs, err := s.services.Programs.List(ctx)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	activities, err := s.services.Activities.Latest(ctx, latestActivities)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	view := homeView{Profile: profile, Programs: programs, Activities: activities}
	view.Members = members
	if len(members) > memberPreview {
		view.Members = members[:memberPreview]
		view.MoreMember = true
	}

	s.render(w, r, http.StatusOK, "home.html", page{
		Title:  "Beranda",
		Scroll: scrollTarget(r),
		Data:   view,
	})
}

// scrollTarget returns the section to scroll to once the home page loads,
// or "" for none.
func scrollTarget(r *http.Request) string {
	id := r.URL.Query().Get(navigation.ScrollParam)
	if id == "" {
		return ""
	}
	a := navigation.Resolve(navigation.Anchor(id), r.URL.Path)
	if !a.Immediate() {
		return ""
	}
	return a.Scroll
}

type membersView struct {
	Groups []memberGroup
}

type memberGroup struct {
	Role    models.MemberRole
	Members []models.Member
}

// groupMembers splits an ordered member list into role groups.
func groupMembers(members []models.Member) []memberGroup {
	var groups []memberGroup
	for _, m := range members {
		if n := len(groups); n == 0 || groups[n-1].Role != m.Role {
			groups = append(groups, memberGroup{Role: m.Role})
		}
		g := &groups[len(groups)-1]
		g.Members = append(g.Members, m)
	}
	return groups
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.services.Members.List(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "members.html", page{
		Title: "Struktur Organisasi",
		Data:  membersView{Groups: groupMembers(members)},
	})
}

func (s *Server) handleProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	p, err := s.services.Programs.Get(r.Context(), id)
	if err != nil {
		s.lookupError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "program.html", page{Title: p.Title, Data: p})
}

type activitiesView struct {
	Query      string
	Activities []models.Activity
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	list, err := s.services.Activities.List(r.Context(), q)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "activities.html", page{
		Title: "Kegiatan",
		Data:  activitiesView{Query: q, Activities: list},
	})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	a, err := s.services.Activities.Get(r.Context(), id)
	if err != nil {
		s.lookupError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "activity.html", page{Title: a.Title, Data: a})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// lookupError answers a failed single-record read.
func (s *Server) lookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		http.NotFound(w, r)
		return
	}
	s.internalError(w, r, err)
}
