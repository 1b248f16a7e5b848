package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lmeynard/friendship/internal/repositories"
	"github.com/lmeynard/friendship/internal/secrets"
	"github.com/lmeynard/friendship/internal/server"
	"github.com/lmeynard/friendship/internal/services"
	"github.com/lmeynard/friendship/internal/shared"
	"github.com/lmeynard/friendship/internal/tasks"
	"github.com/lmeynard/friendship/internal/tokens"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openDatabase opens and configures the sqlite database from the runner's
// config.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// buildRouter wires repositories, services and handlers into the HTTP router.
func (r *Runner) buildRouter(db *sql.DB) (server.Router, error) {
	spotify, err := services.NewSpotifyService(r.config.Spotify)
	if err != nil {
		return nil, fmt.Errorf("failed to build spotify client: %w", err)
	}

	codec, err := secrets.NewCodec(r.config.Encryption.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to build secret codec: %w", err)
	}

	identities := repositories.NewIdentityRepository(db)
	playlists := repositories.NewPlaylistRepository(db)
	questionnaires := repositories.NewQuestionnaireRepository(db)

	manager := tokens.NewManager(identities, spotify, codec, r.logger)
	mirror := tasks.NewMirror(spotify, playlists, r.logger)

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger), server.CORSMiddleware())
	router.Handler(&server.IndexHandler{})
	router.Handler(server.NewAuthHandler(spotify, manager, mirror, r.config.Server.FrontendURL, r.logger))
	router.Handler(server.NewSpotifyHandler(manager, spotify, mirror, r.logger))
	router.Handler(server.NewPlaylistHandler(mirror, r.logger))
	router.Handler(server.NewQuestionnaireHandler(questionnaires, r.logger))

	return router, nil
}
