package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog    zerolog.Logger
	diagFile   *os.File
	lookupFile *os.File
	logMu      sync.Mutex
	logReady   bool
	pid        int
	dir        string
)

// LookupMetrics summarizes one definition request for the diagnostics log.
type LookupMetrics struct {
	Provider    string
	Word        string
	Status      string // "ok", "empty", "error", "fallback"
	DNSTimeMs   float64
	TLSTimeMs   float64
	TTFBMs      float64
	TotalTimeMs float64
	ConnReused  bool
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: WORDTAP_LOG_PATH environment variable
	envPath := os.Getenv("WORDTAP_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	lookupPath := filepath.Join(dir, "lookup_log.txt")
	lookupFile, err = os.OpenFile(lookupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if lookupFile != nil {
		lookupFile.Close()
		lookupFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// CaptionSession records a caption lifecycle event (caption_started,
// caption_changed, caption_ended).
func CaptionSession(event, sessionID string, textLen int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", sessionID).
		Int("text_len", textLen).
		Msg(event)
}

// AutoTrigger records an auto-entry into selection mode and which path
// fired it ("timer" or "poll").
func AutoTrigger(sessionID, source string, remainingMs float64) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", sessionID).
		Str("source", source).
		Float64("remaining_ms", remainingMs).
		Msg("auto_trigger")
}

func Lookup(m LookupMetrics) {
	if !logReady {
		return
	}
	connStatus := "new"
	if m.ConnReused {
		connStatus = "reused"
	}
	diagLog.Info().
		Str("provider", m.Provider).
		Str("word", m.Word).
		Str("status", m.Status).
		Str("conn", connStatus).
		Float64("dns_ms", m.DNSTimeMs).
		Float64("tls_ms", m.TLSTimeMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalTimeMs).
		Msg("lookup")
}

// LookupText appends the looked-up word to the plain-text lookup history.
func LookupText(word string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, word)
	lookupFile.WriteString(line)
}

func SessionStart(subsFile, provider, lang string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("subs", subsFile).
		Str("provider", provider).
		Str("lang", lang).
		Msg("session_start")
}

func SessionEnd(lookups int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("lookups", lookups).
		Msg("session_end")
}
