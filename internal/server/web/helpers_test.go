package web

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/cryptox"
	"github.com/dmitrijs2005/councilsite/internal/logging"
	"github.com/dmitrijs2005/councilsite/internal/server/config"
	"github.com/dmitrijs2005/councilsite/internal/server/imaging"
	"github.com/dmitrijs2005/councilsite/internal/server/objectstore"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/councilsite/internal/server/services"
	"github.com/dmitrijs2005/councilsite/internal/server/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminUser     = "ketua"
	adminPassword = "rahasia-osis"
)

// fakeNormalizer stores the raw bytes under a predictable key.
type fakeNormalizer struct {
	store *objectstore.MemoryStore
	err   error
	n     int
}

func (f *fakeNormalizer) NormalizeAndStore(ctx context.Context, src imaging.Source, c imaging.Collection, previousKey string) (*imaging.Asset, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.n++
	key := c.Folder() + "/" + strings.Repeat("a", f.n) + ".webp"
	if err := f.store.Put(ctx, key, imaging.ContentType, src.Data); err != nil {
		return nil, err
	}
	if previousKey != "" {
		_ = f.store.Delete(ctx, previousKey)
	}
	return &imaging.Asset{Key: key, URL: f.store.URL(key), ContentType: imaging.ContentType}, nil
}

type env struct {
	t      *testing.T
	rm     *repotest.Manager
	store  *objectstore.MemoryStore
	norm   *fakeNormalizer
	mock   sqlmock.Sqlmock
	log    *logging.Recorder
	svc    Services
	server *Server
	ts     *httptest.Server
	client *http.Client
	csrf   string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	orig := cryptox.Cost
	cryptox.Cost = bcrypt.MinCost
	t.Cleanup(func() { cryptox.Cost = orig })

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		SecretKey:               "test-secret",
		SessionValidityDuration: time.Hour,
		GateWaitTimeout:         2 * time.Second,
		LoginDomain:             "osis.dipo",
	}

	rm := repotest.NewManager()
	store := objectstore.NewMemoryStore("http://assets.local")
	norm := &fakeNormalizer{store: store}
	rec := &logging.Recorder{}

	users := services.NewUserService(nil, rm, cfg)
	_, err = users.Register(context.Background(), adminUser, adminPassword)
	require.NoError(t, err)

	sess := sessions.NewStore(nil, rm, users, cfg, rec)
	t.Cleanup(sess.Close)

	svc := Services{
		Members:    services.NewMemberService(nil, rm, norm, store, rec),
		Programs:   services.NewProgramService(nil, rm, norm, store, rec),
		Activities: services.NewActivityService(nil, rm, norm, store, rec),
		Profile:    services.NewProfileService(nil, rm),
		Dashboard:  services.NewDashboardService(db, rm),
		Sessions:   sess,
	}
	srv, err := NewServer(cfg, rec, svc)
	require.NoError(t, err)

	e := &env{t: t, rm: rm, store: store, norm: norm, mock: mock, log: rec, svc: svc, server: srv}
	e.start()
	return e
}

// start serves the current handler. Tests that swap server fields call it
// before any request.
func (e *env) start() {
	e.ts = httptest.NewServer(e.server.Handler())
	e.t.Cleanup(e.ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	e.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// token returns a CSRF token tied to the client's CSRF cookie.
func (e *env) token() string {
	e.t.Helper()
	if e.csrf != "" {
		return e.csrf
	}
	_, body := e.get("/login")
	m := csrfInput.FindStringSubmatch(body)
	require.Len(e.t, m, 2, "login form carries a csrf field")
	e.csrf = m[1]
	return e.csrf
}

func (e *env) get(path string) (*http.Response, string) {
	e.t.Helper()
	resp, err := e.client.Get(e.ts.URL + path)
	require.NoError(e.t, err)
	return resp, readBody(e.t, resp)
}

func (e *env) postForm(path string, form url.Values) (*http.Response, string) {
	e.t.Helper()
	form.Set(csrfField, e.token())
	resp, err := e.client.PostForm(e.ts.URL+path, form)
	require.NoError(e.t, err)
	return resp, readBody(e.t, resp)
}

// postMultipart submits fields plus an optional image named "image".
func (e *env) postMultipart(path string, fields map[string]string, image []byte) (*http.Response, string) {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(e.t, mw.WriteField(csrfField, e.token()))
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "foto.jpg")
		require.NoError(e.t, err)
		_, err = fw.Write(image)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	resp, err := e.client.Post(e.ts.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(e.t, err)
	return resp, readBody(e.t, resp)
}

func (e *env) login() {
	e.t.Helper()
	resp, _ := e.postForm("/login", url.Values{
		"username": {adminUser},
		"password": {adminPassword},
		"next":     {"/admin/dashboard"},
	})
	require.Equal(e.t, http.StatusSeeOther, resp.StatusCode)
	require.NotEmpty(e.t, e.sessionToken())
}

func (e *env) sessionToken() string {
	u, _ := url.Parse(e.ts.URL)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == common.SessionCookieName {
			return c.Value
		}
	}
	return ""
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func indexOf(body, s string) int {
	i := strings.Index(body, s)
	if i < 0 {
		return len(body)
	}
	return i
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
