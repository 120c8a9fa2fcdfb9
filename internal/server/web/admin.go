package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/server/imaging"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/dmitrijs2005/councilsite/internal/server/services"
)

// maxUploadBytes bounds one image in an editor form.
const maxUploadBytes = 10 << 20

// maxRequestBytes leaves room for the text fields next to the image.
const maxRequestBytes = maxUploadBytes + 1<<20

const dateLayout = "2006-01-02"

var errUploadTooLarge = fmt.Errorf("%w: image is larger than 10 MB", common.ErrorValidation)

// readUpload returns the image attached as "image", or nil when the form
// has none.
func readUpload(w http.ResponseWriter, r *http.Request) (*services.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errUploadTooLarge
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	defer f.Close()
	if hdr.Size > maxUploadBytes {
		return nil, errUploadTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUploadBytes {
		return nil, errUploadTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &services.Upload{
		Data:        data,
		ContentType: hdr.Header.Get("Content-Type"),
		Filename:    hdr.Filename,
	}, nil
}

// formFailure maps a failed save to a status and the text shown above the
// form. ok is false for errors the editor cannot act on.
func formFailure(err error) (status int, msg string, ok bool) {
	var imgErr *imaging.Error
	switch {
	case errors.As(err, &imgErr):
		status = http.StatusUnprocessableEntity
		switch {
		case errors.Is(err, imaging.ErrUploadConflict):
			status = http.StatusConflict
		case errors.Is(err, imaging.ErrStorageTransport):
			status = http.StatusBadGateway
		}
		return status, imaging.Message(err), true
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error(), true
	}
	return 0, "", false
}

// editorView is the data of every editor form. Values echo what was
// submitted so a failed save keeps the form populated.
type editorView struct {
	Action     string
	Kind       string
	Values     map[string]string
	ImageURL   string
	Roles      []models.MemberRole
	Categories []models.ActivityCategory
}

func (s *Server) renderEditor(w http.ResponseWriter, r *http.Request, status int, title string, v editorView, errMsg string) {
	v.Roles = models.MemberRoles
	v.Categories = models.ActivityCategories
	s.render(w, r, status, "editor.html", page{Title: title, Admin: true, Error: errMsg, Data: v})
}

// saveFailed answers a failed create or update.
func (s *Server) saveFailed(w http.ResponseWriter, r *http.Request, err error, title string, v editorView) {
	if errors.Is(err, common.ErrorNotFound) {
		http.NotFound(w, r)
		return
	}
	status, msg, ok := formFailure(err)
	if !ok {
		s.internalError(w, r, err)
		return
	}
	s.logger.Warn(r.Context(), "save failed", "path", r.URL.Path, "error", err.Error())
	s.renderEditor(w, r, status, title, v, msg)
}

func (s *Server) renderAdmin(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	s.render(w, r, http.StatusOK, name, page{Title: title, Admin: true, Data: data})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st, err := s.services.Dashboard.Stats(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.renderAdmin(w, r, "dashboard.html", "Dasbor", st)
}

func (s *Server) handleProfileForm(w http.ResponseWriter, r *http.Request) {
	p, err := s.services.Profile.Get(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.renderAdmin(w, r, "profile.html", "Visi & Misi", p)
}

func (s *Server) handleProfileSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	if _, err := s.services.Profile.Update(r.Context(), r.FormValue("vision"), r.FormValue("mission")); err != nil {
		s.internalError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/profile", http.StatusSeeOther)
}

// Members

func (s *Server) handleAdminMembers(w http.ResponseWriter, r *http.Request) {
	list, err := s.services.Members.List(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.renderAdmin(w, r, "admin_members.html", "Anggota", list)
}

func memberValues(m *models.Member) map[string]string {
	return map[string]string{"name": m.Name, "position": m.Position, "role": string(m.Role)}
}

func memberInput(r *http.Request) (services.MemberInput, map[string]string) {
	v := map[string]string{
		"name":     r.FormValue("name"),
		"position": r.FormValue("position"),
		"role":     r.FormValue("role"),
	}
	return services.MemberInput{Name: v["name"], Position: v["position"], Role: models.MemberRole(v["role"])}, v
}

func (s *Server) handleMemberNew(w http.ResponseWriter, r *http.Request) {
	s.renderEditor(w, r, http.StatusOK, "Tambah Anggota", editorView{
		Action: "/admin/members",
		Kind:   "member",
		Values: map[string]string{"role": string(models.RoleMember)},
	}, "")
}

func (s *Server) handleMemberCreate(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r)
	in, values := memberInput(r)
	view := editorView{Action: "/admin/members", Kind: "member", Values: values}
	if err == nil {
		_, err = s.services.Members.Create(r.Context(), in, upload)
	}
	if err != nil {
		s.saveFailed(w, r, err, "Tambah Anggota", view)
		return
	}
	http.Redirect(w, r, "/admin/members", http.StatusSeeOther)
}

func (s *Server) handleMemberEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	m, err := s.services.Members.Get(r.Context(), id)
	if err != nil {
		s.lookupError(w, r, err)
		return
	}
	s.renderEditor(w, r, http.StatusOK, "Ubah Anggota", editorView{
		Action:   fmt.Sprintf("/admin/members/%d", id),
		Kind:     "member",
		Values:   memberValues(m),
		ImageURL: m.ImageURL,
	}, "")
}

func (s *Server) handleMemberUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	upload, err := readUpload(w, r)
	in, values := memberInput(r)
	view := editorView{Action: fmt.Sprintf("/admin/members/%d", id), Kind: "member", Values: values}
	if err == nil {
		_, err = s.services.Members.Update(r.Context(), id, in, upload)
	}
	if err != nil {
		if cur, gerr := s.services.Members.Get(r.Context(), id); gerr == nil {
			view.ImageURL = cur.ImageURL
		}
		s.saveFailed(w, r, err, "Ubah Anggota", view)
		return
	}
	http.Redirect(w, r, "/admin/members", http.StatusSeeOther)
}

func (s *Server) handleMemberDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.services.Members.Delete(r.Context(), id); err != nil {
		s.lookupError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/members", http.StatusSeeOther)
}

// Programs

func (s *Server) handleAdminPrograms(w http.ResponseWriter, r *http.Request) {
	list, err := s.services.Programs.List(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.renderAdmin(w, r, "admin_programs.html", "Program", list)
}

func programValues(p *models.Program) map[string]string {
	return map[string]string{"title": p.Title, "description": p.Description, "content": p.Content}
}

func programInput(r *http.Request) (services.ProgramInput, map[string]string) {
	v := map[string]string{
		"title":       r.FormValue("title"),
		"description": r.FormValue("description"),
		"content":     r.FormValue("content"),
	}
	return services.ProgramInput{Title: v["title"], Description: v["description"], Content: v["content"]}, v
}

func (s *Server) handleProgramNew(w http.ResponseWriter, r *http.Request) {
	s.renderEditor(w, r, http.StatusOK, "Tambah Program", editorView{
		Action: "/admin/programs",
		Kind:   "program",
		Values: map[string]string{},
	}, "")
}

func (s *Server) handleProgramCreate(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r)
	in, values := programInput(r)
	view := editorView{Action: "/admin/programs", Kind: "program", Values: values}
	if err == nil {
		_, err = s.services.Programs.Create(r.Context(), in, upload)
	}
	if err != nil {
		s.saveFailed(w, r, err, "Tambah Program", view)
		return
	}
	http.Redirect(w, r, "/admin/programs", http.StatusSeeOther)
}

func (s *Server) handleProgramEdit(w http.ResponseWriter, r *http.Request) {
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
	s.renderEditor(w, r, http.StatusOK, "Ubah Program", editorView{
		Action:   fmt.Sprintf("/admin/programs/%d", id),
		Kind:     "program",
		Values:   programValues(p),
		ImageURL: p.ImageURL,
	}, "")
}

func (s *Server) handleProgramUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	upload, err := readUpload(w, r)
	in, values := programInput(r)
	view := editorView{Action: fmt.Sprintf("/admin/programs/%d", id), Kind: "program", Values: values}
	if err == nil {
		_, err = s.services.Programs.Update(r.Context(), id, in, upload)
	}
	if err != nil {
		if cur, gerr := s.services.Programs.Get(r.Context(), id); gerr == nil {
			view.ImageURL = cur.ImageURL
		}
		s.saveFailed(w, r, err, "Ubah Program", view)
		return
	}
	http.Redirect(w, r, "/admin/programs", http.StatusSeeOther)
}

func (s *Server) handleProgramDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.services.Programs.Delete(r.Context(), id); err != nil {
		s.lookupError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/programs", http.StatusSeeOther)
}

// Activities

func (s *Server) handleAdminActivities(w http.ResponseWriter, r *http.Request) {
	list, err := s.services.Activities.List(r.Context(), "")
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.renderAdmin(w, r, "admin_activities.html", "Kegiatan", list)
}

func activityValues(a *models.Activity) map[string]string {
	return map[string]string{
		"title":       a.Title,
		"date":        a.Date.Format(dateLayout),
		"category":    string(a.Category),
		"description": a.Description,
		"content":     a.Content,
	}
}

// activityInput reads the form. An unparsable date is left zero and
// rejected by the service.
func activityInput(r *http.Request) (services.ActivityInput, map[string]string) {
	v := map[string]string{
		"title":       r.FormValue("title"),
		"date":        r.FormValue("date"),
		"category":    r.FormValue("category"),
		"description": r.FormValue("description"),
		"content":     r.FormValue("content"),
	}
	date, _ := time.Parse(dateLayout, v["date"])
	return services.ActivityInput{
		Title:       v["title"],
		Date:        date,
		Category:    models.ActivityCategory(v["category"]),
		Description: v["description"],
		Content:     v["content"],
	}, v
}

func (s *Server) handleActivityNew(w http.ResponseWriter, r *http.Request) {
	s.renderEditor(w, r, http.StatusOK, "Tambah Kegiatan", editorView{
		Action: "/admin/activities",
		Kind:   "activity",
		Values: map[string]string{
			"date":     time.Now().Format(dateLayout),
			"category": string(models.CategoryEvent),
		},
	}, "")
}

func (s *Server) handleActivityCreate(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r)
	in, values := activityInput(r)
	view := editorView{Action: "/admin/activities", Kind: "activity", Values: values}
	if err == nil {
		_, err = s.services.Activities.Create(r.Context(), in, upload)
	}
	if err != nil {
		s.saveFailed(w, r, err, "Tambah Kegiatan", view)
		return
	}
	http.Redirect(w, r, "/admin/activities", http.StatusSeeOther)
}

func (s *Server) handleActivityEdit(w http.ResponseWriter, r *http.Request) {
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
	s.renderEditor(w, r, http.StatusOK, "Ubah Kegiatan", editorView{
		Action:   fmt.Sprintf("/admin/activities/%d", id),
		Kind:     "activity",
		Values:   activityValues(a),
		ImageURL: a.ImageURL,
	}, "")
}

func (s *Server) handleActivityUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	upload, err := readUpload(w, r)
	in, values := activityInput(r)
	view := editorView{Action: fmt.Sprintf("/admin/activities/%d", id), Kind: "activity", Values: values}
	if err == nil {
		_, err = s.services.Activities.Update(r.Context(), id, in, upload)
	}
	if err != nil {
		if cur, gerr := s.services.Activities.Get(r.Context(), id); gerr == nil {
			view.ImageURL = cur.ImageURL
		}
		s.saveFailed(w, r, err, "Ubah Kegiatan", view)
		return
	}
	http.Redirect(w, r, "/admin/activities", http.StatusSeeOther)
}

func (s *Server) handleActivityDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.services.Activities.Delete(r.Context(), id); err != nil {
		s.lookupError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/activities", http.StatusSeeOther)
}
