package engine

import "time"

const (
	defaultKillGrace            = 500 * time.Millisecond
	defaultStdoutStderrMaxBytes = 64 * 1024
)

// Config holds engine settings.
type Config struct {
	KillGrace            time.Duration `yaml:"killGrace"`
	StdoutStderrMaxBytes int64         `yaml:"stdoutStderrMaxBytes"`
}
