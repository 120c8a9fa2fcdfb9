// Package admincli implements the site's maintenance commands: creating
// administrator accounts and loading initial content.
package admincli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/logging"
	"github.com/dmitrijs2005/councilsite/internal/server/config"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/councilsite/internal/server/seed"
	"github.com/dmitrijs2005/councilsite/internal/server/services"
)

const usage = `Usage: admin [config flags] <command> [arguments]

Commands:
  create-user [name]            create an administrator (prompts for the password)
  seed -f content.yaml [-append] load profile, members, programs and activities
  help                          show this text
`

// ErrUsage means the command line could not be understood.
var ErrUsage = errors.New("invalid usage")

var errNotEmpty = errors.New("site already has content; use -append to add to it")

type App struct {
	db        *sql.DB
	rm        repomanager.RepositoryManager
	users     *services.UserService
	dashboard *services.DashboardService
	logger    logging.Logger
	in        *bufio.Reader
	out       io.Writer
}

func NewApp(db *sql.DB, rm repomanager.RepositoryManager, cfg *config.Config, l logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		db:        db,
		rm:        rm,
		users:     services.NewUserService(db, rm, cfg),
		dashboard: services.NewDashboardService(db, rm),
		logger:    l.With("module", "admin_cli"),
		in:        bufio.NewReader(in),
		out:       out,
	}
}

// Run executes the command found in args. Arguments before the command
// belong to the configuration and are skipped.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, rest := splitCommand(args)
	switch cmd {
	case "create-user":
		return a.createUser(ctx, rest)
	case "seed":
		return a.seed(ctx, rest)
	case "help":
		fmt.Fprint(a.out, usage)
		return nil
	}
	fmt.Fprint(a.out, usage)
	return ErrUsage
}

var commands = map[string]struct{}{"create-user": {}, "seed": {}, "help": {}}

func splitCommand(args []string) (string, []string) {
	for i, arg := range args {
		if _, ok := commands[arg]; ok {
			return arg, args[i+1:]
		}
	}
	return "", nil
}

func (a *App) createUser(ctx context.Context, args []string) error {
	var name string
	switch len(args) {
	case 0:
		var err error
		if name, err = GetSimpleText(a.in, "Enter user name", a.out); err != nil {
			return err
		}
	case 1:
		name = args[0]
	default:
		return ErrUsage
	}

	password, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.users.Register(ctx, name, string(password))
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("user %q already exists", strings.ToLower(name))
		}
		return err
	}

	a.logger.Info(ctx, "administrator created", "user", u.UserName)
	fmt.Fprintf(a.out, "User %s created.\n", u.UserName)
	return nil
}

func (a *App) seed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(a.out)
	file := fs.String("f", "", "seed file (YAML)")
	appendMode := fs.Bool("append", false, "add to existing content")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if *file == "" {
		return ErrUsage
	}

	content, err := seed.Load(*file)
	if err != nil {
		return err
	}

	if !*appendMode {
		st, err := a.dashboard.Stats(ctx)
		if err != nil {
			return err
		}
		if st.Members+st.Programs+st.Activities > 0 {
			return errNotEmpty
		}
	}

	res, err := seed.Apply(ctx, a.db, a.rm, content)
	if err != nil {
		return err
	}

	a.logger.Info(ctx, "content seeded", "file", *file,
		"members", res.Members, "programs", res.Programs, "activities", res.Activities)
	fmt.Fprintf(a.out, "Seeded %d members, %d programs, %d activities.\n", res.Members, res.Programs, res.Activities)
	return nil
}
