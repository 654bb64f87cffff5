package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/latinkbd/kbdswitch/internal/configpaths"
	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/log"
	"github.com/latinkbd/kbdswitch/internal/prefs"
	"github.com/latinkbd/kbdswitch/internal/server/api"
	"github.com/latinkbd/kbdswitch/internal/server/api/auth"
	"github.com/latinkbd/kbdswitch/internal/server/api/handler"
	"github.com/latinkbd/kbdswitch/switcher"
)

const keyFileName = "kbdswitch.key.txt"

type Server struct {
	ApiServerConfig api.ServerConfig `embed:"" prefix:"api."`
	Switcher        switcher.Config  `embed:"" prefix:"switcher."`
	Auth            bool             `help:"Require API authentication; without --api.password the password is read from, or generated into, the key file in the config directory" env:"KBDSWITCH_API_AUTH"`
	Prefs           string           `help:"Preference file shared by all sessions (defaults to prefs.yaml in the config directory)" type:"path" env:"KBDSWITCH_PREFS"`
	NoWatch         bool             `help:"Do not reload the preference file when it changes" env:"KBDSWITCH_PREFS_NO_WATCH"`
}

// Run is called by Kong when the server command is executed.
func (s *Server) Run(logger *slog.Logger, events log.EventLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger, events)
}

// StartServer serves until ctx is done.
func (s *Server) StartServer(ctx context.Context, logger *slog.Logger, events log.EventLogger) error {
	if s.ApiServerConfig.Addr == "" {
		return errors.New("API server address must be set (default :3300)")
	}
	if s.Auth && s.ApiServerConfig.Password == "" {
		pwd, err := loadOrCreateKey(logger)
		if err != nil {
			return err
		}
		s.ApiServerConfig.Password = pwd
	}

	store, err := s.openPrefs()
	if err != nil {
		return err
	}
	logger.Info("Starting kbdswitch session server", "addr", s.ApiServerConfig.Addr, "prefs", store.Path())

	reg := headless.NewRegistry(headless.Options{
		Switcher:  s.Switcher,
		BasePrefs: store,
		Events:    events,
		Logger:    logger,
	})
	defer reg.Close()

	apiSrv := api.New(reg, s.ApiServerConfig.Addr, s.ApiServerConfig, logger)
	r := apiSrv.Router()
	r.Register("ping", handler.Ping())
	r.Register("session/list", handler.SessionList(reg))
	r.Register("session/create", handler.SessionCreate(reg))
	r.Register("session/remove", handler.SessionRemove(reg))
	r.Register("session/{id}/state", handler.SessionState(reg))
	r.Register("session/{id}/event", handler.SessionEvent(reg))
	r.RegisterStream("session/{id}/stream", api.SessionStreamHandler(reg))

	if err := apiSrv.Start(); err != nil {
		logger.Error("failed to start API server", "error", err)
		return err
	}
	defer apiSrv.Close()

	watchErr := make(chan error, 1)
	if !s.NoWatch {
		go func() {
			watchErr <- store.Watch(ctx, prefs.DefaultDebounce, logger, reg.PreferencesChanged)
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-watchErr:
		if err != nil {
			return fmt.Errorf("watch preferences: %w", err)
		}
		<-ctx.Done()
		return nil
	}
}

func (s *Server) openPrefs() (*prefs.Store, error) {
	path := s.Prefs
	if path == "" {
		p, err := configpaths.DefaultPrefsPath(prefs.FileName)
		if err != nil {
			return nil, fmt.Errorf("resolve preference file: %w", err)
		}
		path = p
	}
	// The watcher needs the directory to exist.
	if err := configpaths.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("create preference dir: %w", err)
	}
	store, err := prefs.Open(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// loadOrCreateKey reads the API password from the key file, generating one on
// first use.
func loadOrCreateKey(logger *slog.Logger) (string, error) {
	keyFileDir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve key file path: %w", err)
	}
	keyFilePath := filepath.Join(keyFileDir, keyFileName)
	if pwd, err := os.ReadFile(keyFilePath); err == nil {
		if p := strings.TrimSpace(string(pwd)); p != "" {
			return p, nil
		}
	}
	newPwd, err := auth.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate new API password: %w", err)
	}
	if err := os.MkdirAll(keyFileDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config dir for key file: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newPwd), 0o600); err != nil {
		return "", fmt.Errorf("failed to write new API password to file: %w", err)
	}
	logger.Info("Generated API server password", "path", keyFilePath)
	logger.Info("-------------------------------------")
	logger.Info("Your kbdswitch API server password is:")
	logger.Info("-------------------------------------")
	logger.Info(newPwd)
	logger.Info("-------------------------------------")
	logger.Info("You can change this password at any time by editing the file")
	return newPwd, nil
}
