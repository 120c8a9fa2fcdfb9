package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/activities"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
profile:
  vision: Menjadi OSIS yang unggul
  mission: |
    1. Melayani siswa
    2. Menjaga sekolah
members:
  - name: Pak Budi
    position: Pembina OSIS
    role: advisor
  - name: Rina
    position: Ketua OSIS
    role: officer
programs:
  - title: Class Meeting
    description: Lomba antar kelas
activities:
  - title: Pensi
    date: 2026-08-17
  - title: Rapat Pleno
    date: 2026-09-01
    category: Rapat
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Len(t, c.Members, 2)
	assert.Equal(t, "2026-08-17", c.Activities[0].Date)
	assert.Equal(t, "1. Melayani siswa\n2. Menjaga sekolah\n", c.Profile.Mission)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "member:\n  - name: x\n",
		"role":          "members:\n  - name: Rina\n    role: Ketua\n",
		"member name":   "members:\n  - role: member\n",
		"program title": "programs:\n  - description: x\n",
		"date":          "activities:\n  - title: x\n    date: 17-08-2026\n",
		"category":      "activities:\n  - title: x\n    date: 2026-08-17\n    category: Party\n",
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Programs, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	rm := repotest.NewManager()
	ctx := context.Background()

	res, err := Apply(ctx, db, rm, c)
	require.NoError(t, err)
	assert.Equal(t, Result{Members: 2, Programs: 1, Activities: 2}, *res)
	require.NoError(t, mock.ExpectationsWereMet())

	members, err := rm.Members(nil).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdvisor, members[0].Role)

	acts, err := rm.Activities(nil).List(ctx, activities.Filter{})
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, models.CategoryRapat, acts[0].Category)
	assert.Equal(t, models.CategoryEvent, acts[1].Category)
	assert.True(t, acts[1].Date.Equal(time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)))

	p, err := rm.Profile(nil).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Menjadi OSIS yang unggul", p.Vision)
}

func TestApply_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	rm := repotest.NewManager()
	rm.Err = errors.New("db down")

	_, err = Apply(context.Background(), db, rm, c)
	assert.EqualError(t, err, "db down")
	require.NoError(t, mock.ExpectationsWereMet())
}
