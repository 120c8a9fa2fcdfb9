package web

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/server/gate"
	"github.com/dmitrijs2005/councilsite/internal/server/imaging"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmin_AnonymousIsSentToLogin(t *testing.T) {
	e := newEnv(t)

	for path, next := range map[string]string{
		"/admin":                "%2Fadmin",
		"/admin/members":        "%2Fadmin%2Fmembers",
		"/admin/activities/new": "%2Fadmin%2Factivities%2Fnew",
	} {
		resp, _ := e.get(path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/login?next="+next, resp.Header.Get("Location"), path)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newEnv(t)

	resp, body := e.postForm("/login", url.Values{"username": {adminUser}, "password": {"salah"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "kata sandi salah")
	assert.Contains(t, body, `value="ketua"`, "user name stays in the form")
	assert.Empty(t, e.sessionToken())
}

func TestLogin_RequiresCSRFToken(t *testing.T) {
	e := newEnv(t)

	resp, err := e.client.PostForm(e.ts.URL+"/login", url.Values{"username": {adminUser}, "password": {adminPassword}})
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, e.rm.SessionCount())
}

func TestLogin_ThenDashboardThenLogout(t *testing.T) {
	e := newEnv(t)
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()

	resp, _ := e.postForm("/login", url.Values{
		"username": {adminUser + "@osis.dipo"},
		"password": {adminPassword},
		"next":     {"/admin/dashboard"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/dashboard", resp.Header.Get("Location"))

	resp, body := e.get("/admin/dashboard")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Dasbor")
	assert.Contains(t, body, `EventSource("/admin/session/events")`)
	require.NoError(t, e.mock.ExpectationsWereMet())

	resp, _ = e.get("/login")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode, "signed in visitors skip the login form")

	resp, _ = e.postForm("/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 0, e.rm.SessionCount())

	resp, _ = e.get("/admin/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestLogin_RejectsOffsiteNext(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.postForm("/login", url.Values{
		"username": {adminUser},
		"password": {adminPassword},
		"next":     {"//evil.example"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, adminHome, resp.Header.Get("Location"))
}

func TestSafeNext(t *testing.T) {
	for in, want := range map[string]string{
		"":                     adminHome,
		"/admin/members":       "/admin/members",
		"/admin/x?y=1":         "/admin/x?y=1",
		"//evil.example":       adminHome,
		"/\\evil.example":      adminHome,
		"https://evil.example": adminHome,
	} {
		assert.Equal(t, want, safeNext(in), in)
	}
}

func TestAdmin_RemoteSignOutEndsAccess(t *testing.T) {
	e := newEnv(t)
	e.login()

	resp, _ := e.get("/admin/members")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Another tab signs the same session out.
	require.NoError(t, e.svc.Sessions.SignOut(context.Background(), e.sessionToken()))

	resp, _ = e.get("/admin/members")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestAdmin_ExpiredSessionIsRejected(t *testing.T) {
	e := newEnv(t)
	e.login()

	s, err := e.svc.Sessions.Current(context.Background(), e.sessionToken())
	require.NoError(t, err)
	require.NotNil(t, s)
	e.rm.ExpireSession(s.ID)

	resp, _ := e.get("/admin/members")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

// stalledSource never answers the snapshot fetch.
type stalledSource struct{}

func (stalledSource) Current(ctx context.Context, _ string) (*models.Session, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledSource) Subscribe(string, func(*models.Session)) func() { return func() {} }

func TestRequireAdmin_PendingShowsLoadingPage(t *testing.T) {
	e := newEnv(t)
	e.server.auth = stalledSource{}
	e.server.gateWait = 20 * time.Millisecond
	e.start()

	resp, body := e.get("/admin/dashboard")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Contains(t, body, "Memuat")
	assert.NotContains(t, body, "Dasbor</h1>")
}

// failingSource fails the snapshot fetch.
type failingSource struct{}

func (failingSource) Current(context.Context, string) (*models.Session, error) {
	return nil, errors.New("db down")
}

func (failingSource) Subscribe(string, func(*models.Session)) func() { return func() {} }

func TestRequireAdmin_FetchErrorFailsClosed(t *testing.T) {
	e := newEnv(t)
	e.server.auth = failingSource{}
	e.start()

	resp, _ := e.get("/admin/dashboard")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Contains(t, e.log.Messages("ERROR"), "session check failed")
}

func TestAdmin_CreateMemberWithImage(t *testing.T) {
	e := newEnv(t)
	e.login()

	resp, _ := e.get("/admin/members/new")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = e.postMultipart("/admin/members", map[string]string{
		"name":     "Rina",
		"position": "Ketua OSIS",
		"role":     string(models.RoleOfficer),
	}, []byte("jpeg-bytes"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/members", resp.Header.Get("Location"))

	list, err := e.svc.Members.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "members/a.webp", list[0].ImageKey)
	assert.Equal(t, "http://assets.local/members/a.webp", list[0].ImageURL)

	_, body := e.get("/admin/members")
	assert.Contains(t, body, "Rina")
}

func TestAdmin_UploadFailureKeepsFormPopulated(t *testing.T) {
	cases := []struct {
		kind   error
		status int
	}{
		{imaging.ErrDecode, http.StatusUnprocessableEntity},
		{imaging.ErrEncode, http.StatusUnprocessableEntity},
		{imaging.ErrUploadConflict, http.StatusConflict},
		{imaging.ErrStorageTransport, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.kind.Error(), func(t *testing.T) {
			e := newEnv(t)
			e.login()
			e.norm.err = &imaging.Error{Kind: tc.kind, Stage: imaging.StageFailed}

			resp, body := e.postMultipart("/admin/programs", map[string]string{
				"title":       "Class Meeting",
				"description": "Lomba antar kelas",
			}, []byte("not an image"))
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Contains(t, body, imaging.Message(e.norm.err))
			assert.Contains(t, body, `value="Class Meeting"`)
			assert.Contains(t, body, "Lomba antar kelas")

			list, err := e.svc.Programs.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list, "nothing is saved when the upload fails")
		})
	}
}

func TestAdmin_ValidationErrorKeepsFormPopulated(t *testing.T) {
	e := newEnv(t)
	e.login()

	resp, body := e.postMultipart("/admin/activities", map[string]string{
		"title":    "Pensi",
		"date":     "",
		"category": "Rapat",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "date is required")
	assert.Contains(t, body, `value="Pensi"`)
	assert.Contains(t, body, `value="Rapat" selected`)
}

func TestAdmin_ActivityLifecycle(t *testing.T) {
	e := newEnv(t)
	e.login()

	resp, _ := e.postMultipart("/admin/activities", map[string]string{
		"title":    "Pensi",
		"date":     "2026-08-17",
		"category": "Event",
		"content":  "Pentas **seni**",
	}, []byte("first"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	list, err := e.svc.Activities.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := itoa(list[0].ID)

	_, body := e.get("/admin/activities/" + id + "/edit")
	assert.Contains(t, body, `value="2026-08-17"`)
	assert.Contains(t, body, "http://assets.local/activities/a.webp")

	resp, _ = e.postMultipart("/admin/activities/"+id, map[string]string{
		"title":    "Pensi Akbar",
		"date":     "2026-08-18",
		"category": "Sosial",
	}, []byte("second"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	a, err := e.svc.Activities.Get(context.Background(), list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Pensi Akbar", a.Title)
	assert.Equal(t, models.CategorySosial, a.Category)
	assert.Equal(t, "activities/aa.webp", a.ImageKey)
	assert.Equal(t, []string{"activities/aa.webp"}, e.store.Keys(), "previous image is replaced")

	resp, _ = e.postForm("/admin/activities/"+id+"/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, err = e.svc.Activities.Get(context.Background(), list[0].ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, e.store.Keys())

	resp, _ = e.postForm("/admin/activities/"+id+"/delete", url.Values{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdmin_UpdateWithoutImageKeepsImage(t *testing.T) {
	e := newEnv(t)
	e.login()

	resp, _ := e.postMultipart("/admin/programs", map[string]string{"title": "Class Meeting"}, []byte("img"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	list, err := e.svc.Programs.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	resp, _ = e.postMultipart("/admin/programs/"+itoa(list[0].ID), map[string]string{"title": "Class Meeting 2026"}, nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	p, err := e.svc.Programs.Get(context.Background(), list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Class Meeting 2026", p.Title)
	assert.Equal(t, "programs/a.webp", p.ImageKey)
}

func TestAdmin_EditMissingRecord(t *testing.T) {
	e := newEnv(t)
	e.login()

	resp, _ := e.get("/admin/members/42/edit")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = e.postMultipart("/admin/members/42", map[string]string{"name": "X", "role": "member"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdmin_Profile(t *testing.T) {
	e := newEnv(t)
	e.login()

	resp, _ := e.postForm("/admin/profile", url.Values{"vision": {"  Unggul  "}, "mission": {"Melayani"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := e.get("/admin/profile")
	assert.Contains(t, body, "Unggul</textarea>")

	p, err := e.svc.Profile.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Unggul", p.Vision)
}

func TestFormFailure(t *testing.T) {
	_, _, ok := formFailure(errors.New("boom"))
	assert.False(t, ok)

	status, msg, ok := formFailure(errUploadTooLarge)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, msg, "10 MB")

	status, _, ok = formFailure(&imaging.Error{Kind: imaging.ErrDecode, Stage: imaging.StageDecoding})
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestReadUpload_RejectsOversizedBody(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Rina"))
	fw, err := mw.CreateFormFile("image", "besar.jpg")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{0xff}, maxRequestBytes+1))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/members", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.ContentLength = -1

	_, err = readUpload(httptest.NewRecorder(), req)
	assert.ErrorIs(t, err, errUploadTooLarge)
}

func TestReadUpload_NoImage(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Rina"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/members", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	up, err := readUpload(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Nil(t, up)
	assert.Equal(t, "Rina", req.FormValue("name"))
}

var _ gate.Source = stalledSource{}
