package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	commonmw "examclient/internal/common/http/middleware"
	"examclient/internal/judge/sandbox/engine"
	"examclient/internal/judge/sandbox/profile"
	"examclient/internal/syncer"
	"examclient/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "127.0.0.1:8090"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 15 * time.Minute
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultRemoteTimeout   = 5 * time.Second
	defaultSyncTimeout     = 30 * time.Second
	defaultLocalExamPath   = "config.json"
	defaultLogPath         = "exam-client.log"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string              `yaml:"addr"`
	ReadTimeout  time.Duration       `yaml:"readTimeout"`
	WriteTimeout time.Duration       `yaml:"writeTimeout"`
	IdleTimeout  time.Duration       `yaml:"idleTimeout"`
	CORS         commonmw.CORSConfig `yaml:"cors"`
}

// RemoteConfig holds grading server settings. Host is normally taken from
// the exam config and only needs to be set to override it.
type RemoteConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

// JudgeConfig holds judge work settings.
type JudgeConfig struct {
	WorkRoot         string        `yaml:"workRoot"`
	SpoolDir         string        `yaml:"spoolDir"`
	DefaultTimeLimit time.Duration `yaml:"defaultTimeLimit"`
	SyncTimeout      time.Duration `yaml:"syncTimeout"`
}

// LanguageConfig holds language overrides on top of the built-in python profile.
type LanguageConfig struct {
	Languages []profile.LanguageSpec `yaml:"languages"`
}

// ExamConfig locates the exam config file read at startup.
type ExamConfig struct {
	LocalPath string `yaml:"localPath"`
}

// ConsoleConfig controls the interactive console.
type ConsoleConfig struct {
	Enabled     bool   `yaml:"enabled"`
	HistoryFile string `yaml:"historyFile"`
}

// AppConfig holds exam-client config.
type AppConfig struct {
	Server     ServerConfig   `yaml:"server"`
	Logger     logger.Config  `yaml:"logger"`
	Remote     RemoteConfig   `yaml:"remote"`
	Sync       syncer.Config  `yaml:"sync"`
	Judge      JudgeConfig    `yaml:"judge"`
	Engine     engine.Config  `yaml:"engine"`
	Language   LanguageConfig `yaml:"language"`
	Exam       ExamConfig     `yaml:"exam"`
	Console    ConsoleConfig  `yaml:"console"`
	MACAddress string         `yaml:"macAddress"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

// loadAppConfig reads path. A missing file at the default location is not an
// error: the client runs with defaults.
func loadAppConfig(path string, required bool) (AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		if required || !errors.Is(err, fs.ErrNotExist) {
			return AppConfig{}, err
		}
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Logger.OutputPath == "" {
		cfg.Logger.OutputPath = defaultLogPath
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "json"
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = defaultRemoteTimeout
	}
	if cfg.Judge.SyncTimeout == 0 {
		cfg.Judge.SyncTimeout = defaultSyncTimeout
	}
	if cfg.Exam.LocalPath == "" {
		cfg.Exam.LocalPath = defaultLocalExamPath
	}
}
