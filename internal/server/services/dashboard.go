package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/councilsite/internal/dbx"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repomanager"
)

// Stats are the totals shown on the admin dashboard.
type Stats struct {
	Members    int
	Programs   int
	Activities int
}

type DashboardService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDashboardService(db *sql.DB, m repomanager.RepositoryManager) *DashboardService {
	return &DashboardService{db: db, repomanager: m}
}

// Stats counts all three collections inside one read-only transaction so
// the totals come from a single snapshot.
func (s *DashboardService) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := dbx.WithTx(ctx, s.db, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if st.Members, err = s.repomanager.Members(tx).Count(ctx); err != nil {
			return err
		}
		if st.Programs, err = s.repomanager.Programs(tx).Count(ctx); err != nil {
			return err
		}
		st.Activities, err = s.repomanager.Activities(tx).Count(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}
