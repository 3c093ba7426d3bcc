package cli

import (
	"io/fs"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mm-replacer/api"
	"mm-replacer/app"
	"mm-replacer/config"
	"mm-replacer/dictionary"
	"mm-replacer/events"
	"mm-replacer/logging"
	"mm-replacer/prefs"
	"mm-replacer/replace"
	"mm-replacer/store"
)

// bundledDictionary is the dictionary file inside the static assets.
const bundledDictionary = "dictionary.json"

// runtime is the wired application shared by the subcommands.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
	source dictionary.Source
	app    *app.App
	hub    *events.Hub
}

func newRuntime(cmd *cobra.Command, staticFS fs.FS) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DataFile)
	if err != nil {
		logger.Warn("local store unreadable; starting empty", zap.String("path", cfg.DataFile), zap.Error(err))
	}

	client := &http.Client{Timeout: cfg.Sync.Timeout.Std()}
	src, err := dictionary.NewSource(cfg.Dictionary.URL, client, api.StaticSub(staticFS), bundledDictionary)
	if err != nil {
		return nil, err
	}

	syncer := dictionary.NewSyncer(src, st, logger.Named("sync"))
	syncer.MaxAge = cfg.Sync.MaxAge.Std()

	hub := events.NewHub()
	a := app.New(app.Options{
		Syncer:      syncer,
		Engine:      replace.NewEngine(cfg.Replace.MatchTimeout.Std()),
		Prefs:       prefs.NewService(st),
		Hub:         hub,
		Logger:      logger,
		SyncTimeout: cfg.Sync.Timeout.Std(),
	})

	return &runtime{cfg: cfg, logger: logger, store: st, source: src, app: a, hub: hub}, nil
}

func (rt *runtime) close() {
	rt.hub.Close()
	_ = rt.logger.Sync()
}
