package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	TreeModule  = "bptree"     // node inserts, splits and root growth
	StoreModule = "nodestore"  // node allocation and release
	CodecModule = "snapshot"   // page codec, save and load
	PagerModule = "pager"      // page files and leveldb
	PoolModule  = "bufferpool" // page cache
	CLIModule   = "cli"        // binaries and REPL
)

var root atomic.Value

func init() {
	root.Store(NewLogger(DiscardHandler()))
}

func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(lvl) {
	case "MAX", "MAXVERBOSITY":
		return levelMaxVerbosity, nil
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("invalid level: %s", lvl)
	}
}

// InitLogger installs a terminal logger writing to w at the given level.
func InitLogger(w io.Writer, logLevel string, useColor bool) error {
	logLvl, err := ParseLevel(logLevel)
	if err != nil {
		return err
	}
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(w, logLvl, useColor)))
	return nil
}

// SetDefault sets the default global logger
func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger
func Root() Logger {
	return root.Load().(Logger)
}

var knownModules = []string{TreeModule, StoreModule, CodecModule, PagerModule, PoolModule, CLIModule}

var (
	modulesMu     sync.RWMutex
	moduleEnabled = initModules(knownModules)
)

func initModules(modules []string) map[string]bool {
	m := make(map[string]bool, len(modules))
	for _, module := range modules {
		m[module] = true
	}
	return m
}

// EnableModule enables trace and debug logging for the specified module.
func EnableModule(module string) {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	moduleEnabled[module] = true
}

// DisableModule disables trace and debug logging for the specified module.
func DisableModule(module string) {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	moduleEnabled[module] = false
}

// EnableModules takes a comma separated module list, "all" or "none".
func EnableModules(list string) {
	list = strings.TrimSpace(list)
	switch list {
	case "", "all":
		for _, m := range knownModules {
			EnableModule(m)
		}
		return
	case "none":
		for _, m := range knownModules {
			DisableModule(m)
		}
		return
	}
	for _, m := range knownModules {
		DisableModule(m)
	}
	for _, m := range strings.Split(list, ",") {
		EnableModule(strings.TrimSpace(m))
	}
}

func isModuleEnabled(module string) bool {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	enabled, ok := moduleEnabled[module]
	return ok && enabled
}

// Trace and Debug are filtered per module; the other levels always pass.

func Trace(module string, msg string, ctx ...any) {
	if !isModuleEnabled(module) {
		return
	}
	Root().Write(LevelTrace, module, msg, ctx...)
}

func Debug(module string, msg string, ctx ...any) {
	if !isModuleEnabled(module) {
		return
	}
	Root().Write(slog.LevelDebug, module, msg, ctx...)
}

func Info(module string, msg string, ctx ...any) {
	Root().Write(slog.LevelInfo, module, msg, ctx...)
}

func Warn(module string, msg string, ctx ...any) {
	Root().Write(slog.LevelWarn, module, msg, ctx...)
}

func Error(module string, msg string, ctx ...any) {
	Root().Write(slog.LevelError, module, msg, ctx...)
}

func New(ctx ...any) Logger {
	return Root().With(ctx...)
}
