package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cinehome/cinehome/internal/api"
	"github.com/cinehome/cinehome/internal/catalog"
	"github.com/cinehome/cinehome/internal/chat"
	"github.com/cinehome/cinehome/internal/clipboard"
	"github.com/cinehome/cinehome/internal/config"
	"github.com/cinehome/cinehome/internal/database"
	"github.com/cinehome/cinehome/internal/gesture"
	"github.com/cinehome/cinehome/internal/notify"
	"github.com/cinehome/cinehome/internal/player"
	"github.com/cinehome/cinehome/internal/player/mpv"
	"github.com/cinehome/cinehome/internal/session"
	"github.com/cinehome/cinehome/internal/tui"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	logLevel  string
	noColor   bool
	debugMode bool

	// Global config and logger
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cinehome",
	Short: "A terminal client for your CineHome media server",
	Long: `cinehome browses and plays the video library hosted on a CineHome
server. It keeps favorites, watchlist, recently watched, and watch progress
in sync with the server, plays videos through mpv, and adds an AI chat
assistant and camera gesture control on top.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// config init must work before any config exists
		if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}

		if err := config.InitializeDirs(); err != nil {
			return fmt.Errorf("failed to initialize directories: %w", err)
		}

		var err error
		var v *viper.Viper
		cfg, v, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if debugMode {
			cfg.Advanced.Debug = true
			if logLevel == "" {
				cfg.Logging.Level = "debug"
			}
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if noColor {
			cfg.Logging.Color = false
		}

		logger, err = config.InitLogger(&cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := database.Init(&cfg.Database); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			logger.Info("config file changed", "name", e.Name)
			if err := v.Unmarshal(cfg); err != nil {
				logger.Error("failed to reload config", "error", err)
			}
		})

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		database.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/cinehome/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug mode (verbose HTTP logging)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(videosCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(urlCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(watchlistCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(continueCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(gestureCmd)
}

// connect registers (or restores) the session and returns the API client
// together with a hydrated user state
func connect(ctx context.Context) (*api.Client, *session.State, error) {
	client := api.NewClient(cfg, logger)

	manager := session.NewManager(database.DB, client, cfg.Server.BaseURL, logger)
	userID, err := manager.EnsureIdentity(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot reach the server at %s: %w", cfg.Server.BaseURL, err)
	}

	state := session.NewState(client, userID, logger)
	if err := state.Hydrate(ctx); err != nil {
		logger.Warn("starting with empty user state", "error", err)
	}
	return client, state, nil
}

// loadCatalog fetches the library once
func loadCatalog(ctx context.Context, client *api.Client) (*catalog.Catalog, error) {
	lib := catalog.New(client, logger)
	if err := lib.Load(ctx); err != nil {
		return nil, err
	}
	return lib, nil
}

func runTUI() error {
	ctx := context.Background()

	client, state, err := connect(ctx)
	if err != nil {
		return err
	}

	lib := catalog.New(client, logger)

	backend, err := mpv.New(&cfg.Player, cfg.Advanced.Debug)
	if err != nil {
		return fmt.Errorf("playback unavailable: %w", err)
	}

	notices := make(chan tui.Notice, 16)
	notifier := tui.Notifier(notices)

	opts := player.Options{
		Fullscreen:       cfg.Player.Fullscreen,
		Volume:           cfg.Player.Volume,
		AutoAdvanceDelay: cfg.Player.AutoAdvanceDelay,
		StartRetryDelay:  cfg.Player.StartRetryDelay,
	}
	controller := player.NewController(backend, state, notifier, logger, opts)

	playerOpen := &atomic.Bool{}
	var bridge *gesture.Bridge
	if cfg.Gesture.Enabled {
		source := gesture.NewCameraSource(&cfg.Gesture)
		bridge = gesture.NewBridge(source, client, controller, playerOpen.Load, cfg.Gesture.PollInterval, logger)
	}

	currentVideo := func() string {
		if video, ok := controller.Current(); ok {
			return video.DisplayName()
		}
		return ""
	}
	chatSvc := chat.NewService(client, database.DB, state.UserID(), currentVideo, cfg.Chat.HistoryLimit, logger)

	return tui.Run(tui.Deps{
		Catalog:    lib,
		State:      state,
		Controller: controller,
		Chat:       chatSvc,
		Bridge:     bridge,
		Clipboard:  clipboard.NewService(logger),
		PlayerOpen: playerOpen,
		Notices:    notices,
		Logger:     logger,
	})
}

// findVideo resolves a name or id to a catalog entry
func findVideo(lib *catalog.Catalog, query string) (catalog.Video, error) {
	videos := lib.Videos()

	for _, v := range videos {
		if v.ID == query {
			return v, nil
		}
	}
	for _, v := range videos {
		if strings.EqualFold(v.DisplayName(), query) {
			return v, nil
		}
	}
	if matches := catalog.Search(videos, query); len(matches) > 0 {
		return matches[0], nil
	}
	return catalog.Video{}, fmt.Errorf("no video matches %q", query)
}

// ==================== config ====================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitializeDirs(); err != nil {
			return err
		}
		path := filepath.Join(config.GetConfigDir(), "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
		if err := config.SaveDefaultConfig(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("server:\n  base_url: %s\n  timeout: %s\n  max_retries: %d\n",
			cfg.Server.BaseURL, cfg.Server.Timeout, cfg.Server.MaxRetries)
		fmt.Printf("logging:\n  level: %s\n  file: %s\n", cfg.Logging.Level, cfg.Logging.File)
		fmt.Printf("database:\n  path: %s\n", cfg.Database.Path)
		fmt.Printf("player:\n  fullscreen: %v\n  volume: %d\n  auto_advance_delay: %s\n",
			cfg.Player.Fullscreen, cfg.Player.Volume, cfg.Player.AutoAdvanceDelay)
		fmt.Printf("gesture:\n  enabled: %v\n  device: %s\n  poll_interval: %s\n",
			cfg.Gesture.Enabled, cfg.Gesture.Device, cfg.Gesture.PollInterval)
		fmt.Printf("chat:\n  history_limit: %d\n", cfg.Chat.HistoryLimit)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(filepath.Join(config.GetConfigDir(), "config.yaml"))
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

// ==================== videos ====================

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "Manage the server's video library",
}

var videosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all videos in the library",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := api.NewClient(cfg, logger)
		lib, err := loadCatalog(ctx, client)
		if err != nil {
			return err
		}

		videos := lib.Videos()
		if len(videos) == 0 {
			fmt.Println("The library is empty.")
			return nil
		}

		for _, v := range videos {
			created := v.CreatedAt
			if t, err := time.Parse(time.RFC3339, v.CreatedAt); err == nil {
				created = humanize.Time(t)
			}
			fmt.Printf("%-40s  %10s  %s\n", v.DisplayName(), humanize.Bytes(uint64(v.Size)), created)
		}
		return nil
	},
}

var videosDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a video from the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := api.NewClient(cfg, logger)
		lib, err := loadCatalog(ctx, client)
		if err != nil {
			return err
		}
		video, err := findVideo(lib, args[0])
		if err != nil {
			return err
		}
		if err := client.DeleteVideo(ctx, video.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted %q\n", video.DisplayName())
		return nil
	},
}

var videosUploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload video files to the server",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, state, err := connect(ctx)
		if err != nil {
			return err
		}

		for _, path := range args {
			resp, err := client.Upload(ctx, state.UserID(), path)
			if err != nil {
				return fmt.Errorf("upload of %s failed: %w", path, err)
			}
			for _, f := range resp.Uploaded {
				fmt.Printf("Uploaded %s (%s)\n", f.Name, f.ID)
			}
		}
		return nil
	},
}

func init() {
	videosCmd.AddCommand(videosListCmd)
	videosCmd.AddCommand(videosDeleteCmd)
	videosCmd.AddCommand(videosUploadCmd)
}

// ==================== play / url / open ====================

var playCmd = &cobra.Command{
	Use:   "play <name>",
	Short: "Play a video without the full interface",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, state, err := connect(ctx)
		if err != nil {
			return err
		}
		lib, err := loadCatalog(ctx, client)
		if err != nil {
			return err
		}
		video, err := findVideo(lib, args[0])
		if err != nil {
			return err
		}

		backend, err := mpv.New(&cfg.Player, cfg.Advanced.Debug)
		if err != nil {
			return fmt.Errorf("playback unavailable: %w", err)
		}

		console := config.NewConsoleLogger(os.Stderr, &cfg.Logging)
		opts := player.Options{
			Fullscreen:       cfg.Player.Fullscreen,
			Volume:           cfg.Player.Volume,
			AutoAdvanceDelay: cfg.Player.AutoAdvanceDelay,
			StartRetryDelay:  cfg.Player.StartRetryDelay,
		}
		controller := player.NewController(backend, state, notify.Logged(console), logger, opts)

		controller.SetQueue(ctx, []catalog.Video{video})
		if err := controller.Play(ctx, 0); err != nil {
			return err
		}
		fmt.Printf("Playing %q, close mpv to stop.\n", video.DisplayName())

		started := false
		for {
			time.Sleep(time.Second)
			status := controller.Status()
			if status == player.StatusEnded || status == player.StatusIdle {
				break
			}
			if backend.IsPlaying() || backend.IsPaused() {
				started = true
			} else if started {
				// mpv was closed from outside
				break
			}
		}
		return controller.Close(ctx)
	},
}

var copyFlag bool

var urlCmd = &cobra.Command{
	Use:   "url <name>",
	Short: "Print a video's stream URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := api.NewClient(cfg, logger)
		lib, err := loadCatalog(ctx, client)
		if err != nil {
			return err
		}
		video, err := findVideo(lib, args[0])
		if err != nil {
			return err
		}

		fmt.Println(video.URL)
		if copyFlag {
			if err := clipboard.NewService(logger).Copy(video.URL); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Copied to clipboard.")
		}
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <name>",
	Short: "Open a video's stream in the browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := api.NewClient(cfg, logger)
		lib, err := loadCatalog(ctx, client)
		if err != nil {
			return err
		}
		video, err := findVideo(lib, args[0])
		if err != nil {
			return err
		}
		return browser.OpenURL(video.URL)
	},
}

func init() {
	urlCmd.Flags().BoolVar(&copyFlag, "copy", false, "also copy the URL to the clipboard")
}

// ==================== collections ====================

// listCollection prints the given video ids in order, with progress
func listCollection(lib *catalog.Catalog, state *session.State, ids []string) {
	if len(ids) == 0 {
		fmt.Println("Nothing here yet.")
		return
	}

	byID := make(map[string]catalog.Video)
	for _, v := range lib.Videos() {
		byID[v.ID] = v
	}

	for _, id := range ids {
		v, ok := byID[id]
		if !ok {
			continue
		}
		line := v.DisplayName()
		if state.InProgress(id) {
			line += fmt.Sprintf("  (%d%% watched)", state.Progress(id))
		}
		fmt.Println(line)
	}
}

func newCollectionCommand(use, short string, pick func(*catalog.Catalog, *session.State) []string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, state, err := connect(ctx)
			if err != nil {
				return err
			}
			lib, err := loadCatalog(ctx, client)
			if err != nil {
				return err
			}
			listCollection(lib, state, pick(lib, state))
			return nil
		},
	}
}

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage favorites",
}

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Manage the watchlist",
}

func newToggleCommand(kind string, toggle func(context.Context, *session.State, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <name>",
		Short: fmt.Sprintf("Add or remove a video from %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, state, err := connect(ctx)
			if err != nil {
				return err
			}
			lib, err := loadCatalog(ctx, client)
			if err != nil {
				return err
			}
			video, err := findVideo(lib, args[0])
			if err != nil {
				return err
			}

			added, err := toggle(ctx, state, video.ID)
			if err != nil {
				return err
			}
			if added {
				fmt.Printf("Added %q to %s\n", video.DisplayName(), kind)
			} else {
				fmt.Printf("Removed %q from %s\n", video.DisplayName(), kind)
			}
			return nil
		},
	}
}

func init() {
	favoritesCmd.AddCommand(newCollectionCommand("list", "List favorite videos",
		func(lib *catalog.Catalog, state *session.State) []string { return state.Favorites() }))
	favoritesCmd.AddCommand(newToggleCommand("favorites",
		func(ctx context.Context, state *session.State, id string) (bool, error) {
			return state.ToggleFavorite(ctx, id)
		}))

	watchlistCmd.AddCommand(newCollectionCommand("list", "List watchlist videos",
		func(lib *catalog.Catalog, state *session.State) []string { return state.Watchlist() }))
	watchlistCmd.AddCommand(newToggleCommand("the watchlist",
		func(ctx context.Context, state *session.State, id string) (bool, error) {
			return state.ToggleWatchlist(ctx, id)
		}))
}

var recentCmd = newCollectionCommand("recent", "List recently watched videos",
	func(lib *catalog.Catalog, state *session.State) []string { return state.Recents() })

var continueCmd = newCollectionCommand("continue", "List videos you can continue watching",
	func(lib *catalog.Catalog, state *session.State) []string {
		var ids []string
		for _, v := range lib.Videos() {
			if state.InProgress(v.ID) {
				ids = append(ids, v.ID)
			}
		}
		return ids
	})

// ==================== stats / chat / gesture ====================

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library and watch statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, state, err := connect(ctx)
		if err != nil {
			return err
		}

		stats, err := client.Stats(ctx, state.UserID())
		if err != nil {
			return err
		}

		fmt.Printf("Videos:       %d\n", stats.TotalVideos)
		fmt.Printf("Watched:      %d (%.0f%%)\n", stats.TotalWatched, stats.PercentageWatched)
		fmt.Printf("Favorites:    %d\n", stats.TotalFavorites)
		fmt.Printf("Watchlist:    %d\n", stats.WatchlistSize)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the assistant a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, state, err := connect(ctx)
		if err != nil {
			return err
		}

		svc := chat.NewService(client, database.DB, state.UserID(), nil, cfg.Chat.HistoryLimit, logger)
		fmt.Println(svc.Send(ctx, strings.Join(args, " ")))
		return nil
	},
}

var (
	gestureEnable   bool
	gestureDisable  bool
	gestureCooldown float64
	gestureVolStep  int
)

var gestureCmd = &cobra.Command{
	Use:   "gesture",
	Short: "Gesture control",
}

var gestureSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update server-side gesture settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := api.NewClient(cfg, logger)

		settings, err := client.GetGestureSettings(ctx)
		if err != nil {
			return err
		}

		changed := false
		if gestureEnable {
			settings.Enabled = true
			changed = true
		}
		if gestureDisable {
			settings.Enabled = false
			changed = true
		}
		if cmd.Flags().Changed("cooldown") {
			settings.Cooldown = gestureCooldown
			changed = true
		}
		if cmd.Flags().Changed("volume-step") {
			settings.VolumeStep = gestureVolStep
			changed = true
		}

		if changed {
			if err := client.UpdateGestureSettings(ctx, settings); err != nil {
				return err
			}
		}

		fmt.Printf("enabled:      %v\n", settings.Enabled)
		fmt.Printf("cooldown:     %.1fs\n", settings.Cooldown)
		fmt.Printf("volume step:  %d\n", settings.VolumeStep)
		return nil
	},
}

func init() {
	gestureSettingsCmd.Flags().BoolVar(&gestureEnable, "enable", false, "enable gesture detection")
	gestureSettingsCmd.Flags().BoolVar(&gestureDisable, "disable", false, "disable gesture detection")
	gestureSettingsCmd.Flags().Float64Var(&gestureCooldown, "cooldown", 0, "seconds between repeated actions")
	gestureSettingsCmd.Flags().IntVar(&gestureVolStep, "volume-step", 0, "volume change per gesture")
	gestureSettingsCmd.MarkFlagsMutuallyExclusive("enable", "disable")
	gestureCmd.AddCommand(gestureSettingsCmd)
}
