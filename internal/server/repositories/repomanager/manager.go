package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/councilsite/internal/dbx"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/activities"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/members"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/profile"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/programs"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Members(db dbx.DBTX) members.Repository
	Programs(db dbx.DBTX) programs.Repository
	Activities(db dbx.DBTX) activities.Repository
	Profile(db dbx.DBTX) profile.Repository
}
