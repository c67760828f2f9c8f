// Package logging configures the rotating file logger shared by the binaries.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/nir0k/logger"
)

// Logger is the subset of the logger used by components.
type Logger interface {
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Config selects where log lines go.
type Config struct {
	FilePath string
	Level    string
	// Console, when set, receives every line at Level in addition to the file.
	Console io.Writer
}

// New builds a file logger with rotation.
func New(cfg Config) (Logger, error) {
	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "info"
	}
	path := strings.TrimSpace(cfg.FilePath)
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	consoleLevel := "fatal"
	if cfg.Console != nil {
		consoleLevel = level
	}
	instance, err := logger.NewLogger(logger.LogConfig{
		FilePath:       path,
		Format:         "standard",
		FileLevel:      level,
		ConsoleLevel:   consoleLevel,
		ConsoleOutput:  cfg.Console != nil,
		EnableRotation: true,
		RotationConfig: logger.RotationConfig{
			MaxSize:    25,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.Console != nil {
		instance.Config.ConsoleOutput = true
		instance.ConsoleLogger = log.New(cfg.Console, "", log.LstdFlags)
	}
	return instance, nil
}

// DefaultPath places trailsync.log next to the binary, or in the working
// directory when running from a temp build.
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	dir := filepath.Dir(exe)
	// go run builds into the temp dir
	if strings.HasPrefix(dir, os.TempDir()) {
		cwd, err := os.Getwd()
		if err == nil {
			dir = cwd
		}
	}
	return filepath.Join(dir, "trailsync.log"), nil
}

type nop struct{}

func (nop) Infof(string, ...any)    {}
func (nop) Warningf(string, ...any) {}
func (nop) Errorf(string, ...any)   {}

// Nop discards everything.
func Nop() Logger { return nop{} }
