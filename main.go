package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"wordtap/caption"
	"wordtap/dict"
	"wordtap/doctor"
	"wordtap/engine"
	"wordtap/log"
	"wordtap/player"
	"wordtap/shutdown"
	"wordtap/update"
	"wordtap/vocab"
)

var version = "dev"

var (
	eng          *engine.Engine
	activePlayer *player.Player
	vocabStore   *vocab.Store
)

var shutdownOnce sync.Once

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if eng != nil {
			if n := eng.LookupCount(); n > 0 {
				log.SessionEnd(n)
			}
			eng.Stop()
		}
		log.Close()
		if tuiProgram != nil {
			tuiProgram.Quit()
		}
		os.Exit(0)
	})
}

func defaultVocabPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "vocab.yaml"
	}
	return filepath.Join(dir, "wordtap", "vocab.yaml")
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "update" {
		if version == "dev" {
			fmt.Println("Dev build - cannot check for updates.")
			os.Exit(0)
		}
		fmt.Printf("wordtap %s - checking for updates...\n", version)
		rel, err := update.CheckLatest(version)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if rel == nil {
			fmt.Println("Already up to date.")
			os.Exit(0)
		}
		fmt.Printf("Update available: %s -> %s\n", version, rel.Version)
		fmt.Print("Continue? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			os.Exit(0)
		}
		fmt.Printf("Downloading %s...\n", rel.Version)
		if err := update.Apply(rel); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated to %s\n", rel.Version)
		os.Exit(0)
	}

	langFlag := flag.String("lang", "en", "Target language of the subtitles (e.g., en, zh, ja)")
	vocabFlag := flag.String("vocab", "", "Vocabulary file path (default: OS config dir)")
	startFlag := flag.Duration("start", 0, "Start playback at this offset (e.g., 1m30s)")
	pausedFlag := flag.Bool("paused", false, "Start paused instead of playing")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("wordtap %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		subs := ""
		if len(flag.Args()) > 0 {
			subs = flag.Args()[0]
		}
		vocabPath := *vocabFlag
		if vocabPath == "" {
			vocabPath = defaultVocabPath()
		}
		os.Exit(doctor.Run(subs, vocabPath, *langFlag))
	}

	if len(flag.Args()) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: wordtap [flags] <subtitles.srt|.vtt>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	subsFile := flag.Args()[0]

	lang := *langFlag
	if env := os.Getenv("WORDTAP_LANG"); env != "" && *langFlag == "en" {
		lang = env
	}

	cues, err := player.ParseFile(subsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(cues) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no cues found in %s\n", subsFile)
		os.Exit(1)
	}

	vocabPath := *vocabFlag
	if vocabPath == "" {
		vocabPath = defaultVocabPath()
	}
	vocabStore, err = vocab.Open(vocabPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		log.SessionStart(subsFile, dict.ProviderName, lang)
	}

	activePlayer = player.New(cues)
	if *startFlag > 0 {
		activePlayer.Seek(*startFlag)
	}

	cfg := engine.DefaultConfig()
	cfg.Notify = func(msg string) { tuiSend(NoticeMsg{Text: msg}) }
	eng = engine.New(cfg, activePlayer, tuiOverlay{}, dict.New(lang))
	eng.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go activePlayer.Run(ctx, func(u caption.Update) {
		eng.OnCaptionUpdate(u)
		tuiSend(CaptionMsg{Text: mergeUpdateText(u)})
	})

	update.StartBackgroundCheck(version, log.Dir(), func(rel update.Release) {
		log.Info("update_available: " + rel.Version)
		tuiSend(NoticeMsg{Text: "update available: " + rel.Version + " (run: wordtap update)"})
	})

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	tuiMu.Lock()
	tuiProgram = NewTUIProgram()
	tuiMu.Unlock()

	if !*pausedFlag {
		activePlayer.SetPlayWhenReady(true)
	}

	if _, err := tuiProgram.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	gracefulShutdown()
}

// mergeUpdateText joins fragment texts the same way the session tracker
// does, so highlight offsets line up with the rendered caption.
func mergeUpdateText(u caption.Update) string {
	parts := make([]string, 0, len(u))
	for _, f := range u {
		parts = append(parts, f.Text())
	}
	return strings.Join(parts, "\n")
}
