package service

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"examclient/internal/judge/model"
	appErr "examclient/pkg/errors"
	"examclient/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	// MessageFetchFallback is shown when the local config had to be used
	// because the server copy could not be fetched.
	MessageFetchFallback = "Fail to fetch config from server by local config"
	// MessageNoLocalConfig is shown when neither a local nor a remote config
	// is available and the user has to supply one.
	MessageNoLocalConfig = "No local config file found"
)

const defaultFetchTimeout = 10 * time.Second

// Bootstrap loads the exam config at startup.
//
// A local config with a remoteHost is only used to locate the server; the
// server copy wins when it can be fetched. A missing local file is not an
// error: the store records the fault and waits for the user.
func (s *Service) Bootstrap(ctx context.Context, localPath string) error {
	local, err := model.LoadExamConfig(localPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.store.SetConfigFault(MessageNoLocalConfig)
			logger.Warn(ctx, "local exam config not found", zap.String("path", localPath))
			return nil
		}
		s.store.SetConfigFault(err.Error())
		return err
	}

	host := strings.TrimSpace(local.RemoteHost)
	if host == "" {
		s.install(ctx, local, "", "local")
		return nil
	}
	fetched, err := s.fetchConfig(ctx, host)
	if err != nil {
		logger.Warn(ctx, "fetch exam config from server failed, using local copy",
			zap.String("remote_host", host),
			zap.Error(err),
		)
		s.install(ctx, local, MessageFetchFallback, "local")
		return nil
	}
	s.install(ctx, fetched, "", "remote")
	return nil
}

// LoadLocalConfig installs the config file at path.
func (s *Service) LoadLocalConfig(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return appErr.ValidationError("path", "required")
	}
	cfg, err := model.LoadExamConfig(path)
	if err != nil {
		return err
	}
	s.install(ctx, cfg, "", "local")
	return nil
}

// LoadRemoteConfig fetches the config from host and installs it. The current
// config is kept when the fetch fails.
func (s *Service) LoadRemoteConfig(ctx context.Context, host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return appErr.ValidationError("host", "required")
	}
	cfg, err := s.fetchConfig(ctx, host)
	if err != nil {
		return err
	}
	s.install(ctx, cfg, "", "remote")
	return nil
}

func (s *Service) fetchConfig(ctx context.Context, host string) (model.ExamConfig, error) {
	s.remote.SetBaseURL(host)
	callCtx, cancel := context.WithTimeout(ctx, defaultFetchTimeout)
	defer cancel()

	cfg, out := s.remote.FetchConfig(callCtx)
	s.store.SetAvailability(out.OK)
	if out.Failed() {
		if out.Err != nil {
			return model.ExamConfig{}, out.Err
		}
		return model.ExamConfig{}, appErr.New(appErr.ServerUnreachable)
	}
	if strings.TrimSpace(cfg.RemoteHost) == "" {
		cfg.RemoteHost = host
	}
	return cfg, nil
}

func (s *Service) install(ctx context.Context, cfg model.ExamConfig, message, source string) {
	s.store.SetConfig(cfg, message)
	if host := strings.TrimSpace(cfg.RemoteHost); host != "" {
		s.remote.SetBaseURL(host)
	}
	logger.Info(ctx, "exam config loaded",
		zap.String("source", source),
		zap.String("title", cfg.TestTitle),
		zap.Int("puzzles", len(cfg.Puzzles)),
		zap.String("remote_host", cfg.RemoteHost),
	)
}
