package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"

	"wordtap/dict"
	"wordtap/log"
	"wordtap/player"
	"wordtap/vocab"
)

// Run executes diagnostic checks and returns an exit code (0=all pass,
// 1=any fail). subsFile is optional; the subtitle check is skipped when
// it is empty.
func Run(subsFile, vocabPath, lang string) int {
	fmt.Println("wordtap doctor - system diagnostics")
	fmt.Println("===================================")

	allPass := true

	if subsFile != "" && !checkSubtitles(subsFile) {
		allPass = false
	}
	if !checkLogDir() {
		allPass = false
	}
	if !checkVocab(vocabPath) {
		allPass = false
	}
	if !checkLookup(lang) {
		allPass = false
	}
	checkClipboard() // informational only; copy is optional

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func pass(format string, args ...any) {
	fmt.Printf("  [ok] "+format+"\n", args...)
}

func fail(format string, args ...any) {
	fmt.Printf("  [!!] "+format+"\n", args...)
}

func checkSubtitles(path string) bool {
	fmt.Println("\nSubtitles")
	cues, err := player.ParseFile(path)
	if err != nil {
		fail("%v", err)
		return false
	}
	if len(cues) == 0 {
		fail("%s parsed but contains no cues", path)
		return false
	}
	last := cues[len(cues)-1]
	pass("%s: %d cues, runs to %s", filepath.Base(path), len(cues), last.End.Round(time.Second))
	return true
}

func checkLogDir() bool {
	fmt.Println("\nLog directory")
	dir, err := log.ResolveDir("")
	if err != nil {
		fail("resolve: %v", err)
		return false
	}
	log.SetDir(dir)
	if err := log.EnsureDir(); err != nil {
		fail("%v", err)
		return false
	}
	probe := filepath.Join(dir, ".doctor_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		fail("not writable: %v", err)
		return false
	}
	os.Remove(probe)
	pass("%s writable", dir)
	return true
}

func checkVocab(path string) bool {
	fmt.Println("\nVocabulary store")
	s, err := vocab.Open(path)
	if err != nil {
		fail("%v", err)
		return false
	}
	pass("%s: %d words", path, s.Len())
	return true
}

// checkLookup runs a real end-to-end lookup so provider reachability,
// TLS, and response parsing are all exercised at once.
func checkLookup(lang string) bool {
	fmt.Println("\nDictionary providers")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	res := dict.New(lang).Lookup(ctx, "hello")
	elapsed := time.Since(start).Round(time.Millisecond)
	if res.Unavailable {
		fail("lookup failed after %s:", elapsed)
		for _, sec := range res.Sections {
			for _, e := range sec.Entries {
				fmt.Printf("       %s\n", e)
			}
		}
		return false
	}
	pass("%q resolved via %s in %s", res.Word, res.Provider, elapsed)
	return true
}

func checkClipboard() {
	fmt.Println("\nClipboard")
	if clipboard.Unsupported {
		fail("no clipboard backend (definition copy disabled)")
		return
	}
	pass("clipboard backend available")
}
