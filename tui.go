package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wordtap/dict"
	"wordtap/log"
	"wordtap/selection"
)

// TUI message types
type CaptionMsg struct{ Text string }
type NoticeMsg struct{ Text string }
type repaintMsg struct{}
type tickMsg time.Time

const (
	defPanelWidth  = 60 // inner width of the definition popup
	defPanelHeight = 12 // visible definition lines
)

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

// overlayState is written by the engine sequencer through tuiOverlay and
// read by the render loop. The definition text is pre-wrapped at set time
// so scroll clamping stays consistent with what is on screen.
type overlayState struct {
	mu          sync.Mutex
	hlStart     int
	hlEnd       int
	hasHL       bool
	loadingWord string
	def         *dict.Result
	defLines    []string
	offset      int
}

var overlayShared = &overlayState{}

// tuiOverlay adapts the shared state to the engine's overlay interface.
// Every method mutates under the lock and nudges the render loop.
type tuiOverlay struct{}

func (tuiOverlay) ShowHighlight(start, end int) {
	overlayShared.mu.Lock()
	overlayShared.hlStart = start
	overlayShared.hlEnd = end
	overlayShared.hasHL = true
	overlayShared.mu.Unlock()
	tuiSend(repaintMsg{})
}

func (tuiOverlay) ClearHighlight() {
	overlayShared.mu.Lock()
	overlayShared.hasHL = false
	overlayShared.mu.Unlock()
	tuiSend(repaintMsg{})
}

func (tuiOverlay) ShowDefinitionLoading(word string) {
	overlayShared.mu.Lock()
	overlayShared.loadingWord = word
	overlayShared.def = nil
	overlayShared.defLines = nil
	overlayShared.offset = 0
	overlayShared.mu.Unlock()
	tuiSend(repaintMsg{})
}

func (tuiOverlay) ShowDefinition(res *dict.Result) {
	overlayShared.mu.Lock()
	overlayShared.loadingWord = ""
	overlayShared.def = res
	overlayShared.defLines = definitionLines(res, defPanelWidth)
	overlayShared.offset = 0
	overlayShared.mu.Unlock()
	tuiSend(repaintMsg{})
}

func (tuiOverlay) HideDefinition() {
	overlayShared.mu.Lock()
	overlayShared.loadingWord = ""
	overlayShared.def = nil
	overlayShared.defLines = nil
	overlayShared.offset = 0
	overlayShared.mu.Unlock()
	tuiSend(repaintMsg{})
}

func (tuiOverlay) ScrollDefinition(lines int) bool {
	overlayShared.mu.Lock()
	defer overlayShared.mu.Unlock()

	max := len(overlayShared.defLines) - defPanelHeight
	if max < 0 {
		max = 0
	}
	moved := false
	if lines > 0 {
		if overlayShared.offset >= max {
			return false
		}
		overlayShared.offset += lines
		if overlayShared.offset > max {
			overlayShared.offset = max
		}
		moved = true
	} else if lines < 0 {
		if overlayShared.offset == 0 {
			return false
		}
		overlayShared.offset += lines
		if overlayShared.offset < 0 {
			overlayShared.offset = 0
		}
		moved = true
	}
	if moved {
		tuiSend(repaintMsg{})
	}
	return moved
}

// definitionLines flattens a lookup result into display lines wrapped to
// the panel width.
func definitionLines(res *dict.Result, width int) []string {
	head := res.Word
	if res.Phonetic != "" {
		head += "  " + res.Phonetic
	}
	if vocabStore != nil && vocabStore.Contains(res.Word) {
		head += "  ★"
	}
	out := wrapText(head, width)
	if res.Note != "" {
		out = append(out, wrapText("("+res.Note+")", width)...)
	}
	for _, sec := range res.Sections {
		out = append(out, "", sec.Heading)
		for _, e := range sec.Entries {
			wrapped := wrapText(e, width-2)
			for i, line := range wrapped {
				if i == 0 {
					out = append(out, "- "+line)
				} else {
					out = append(out, "  "+line)
				}
			}
		}
	}
	if res.Provider != "" {
		out = append(out, "", "source: "+res.Provider)
	}
	return out
}

type tuiModel struct {
	width, height int
	caption       string
	spin          spinner.Model
	notice        string
	noticeAt      time.Time
}

func NewTUIProgram() *tea.Program {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := tuiModel{spin: sp}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(tuiTick(), m.spin.Tick)
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, tuiTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case CaptionMsg:
		m.caption = msg.Text

	case NoticeMsg:
		m.notice = msg.Text
		m.noticeAt = time.Now()

	case repaintMsg:
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "tab":
		eng.Input(selection.CmdEnterFromStart)
	case "shift+tab":
		eng.Input(selection.CmdEnterFromEnd)

	case "left", "h":
		if !eng.Input(selection.CmdNavigateLeft) {
			activePlayer.Seek(-2 * time.Second)
		}
	case "right", "l":
		if !eng.Input(selection.CmdNavigateRight) {
			activePlayer.Seek(2 * time.Second)
		}
	case "up", "k":
		eng.Input(selection.CmdScrollUp)
	case "down", "j":
		eng.Input(selection.CmdScrollDown)
	case "enter":
		eng.Input(selection.CmdConfirm)
	case "esc", "backspace":
		eng.Input(selection.CmdBack)

	case " ":
		// Only a plain playback toggle while nothing is selected; the
		// engine owns pause state during selection.
		overlayShared.mu.Lock()
		active := overlayShared.hasHL
		overlayShared.mu.Unlock()
		if !active {
			activePlayer.SetPlayWhenReady(!activePlayer.Playing())
		}

	case "c":
		if text := visibleDefinitionText(); text != "" {
			if err := clipboard.WriteAll(text); err != nil {
				log.Warnf("clipboard write failed: %v", err)
			} else {
				tuiSend(NoticeMsg{Text: "definition copied"})
			}
		}

	case "m":
		if word := selectedWord(m.caption); word != "" {
			go toggleVocab(word)
		}
	}
	return m, nil
}

// toggleVocab marks or unmarks a word in the learned-word store. Runs off
// the render loop and the engine sequencer; the store does its own locking.
func toggleVocab(word string) {
	var err error
	var notice string
	if vocabStore.Contains(word) {
		err = vocabStore.Remove(word)
		notice = word + " removed from vocabulary"
	} else {
		err = vocabStore.Add(word)
		notice = word + " added to vocabulary"
	}
	if err != nil {
		log.Warnf("vocabulary save failed: %v", err)
		return
	}
	tuiSend(NoticeMsg{Text: notice})
}

func visibleDefinitionText() string {
	overlayShared.mu.Lock()
	defer overlayShared.mu.Unlock()
	if overlayShared.def == nil {
		return ""
	}
	return strings.Join(overlayShared.defLines, "\n")
}

// selectedWord resolves the word under the cursor: the defined word when a
// definition is up, else the highlighted caption slice.
func selectedWord(captionText string) string {
	overlayShared.mu.Lock()
	defer overlayShared.mu.Unlock()
	if overlayShared.def != nil {
		return overlayShared.def.Word
	}
	if overlayShared.hasHL &&
		overlayShared.hlStart >= 0 &&
		overlayShared.hlEnd <= len(captionText) &&
		overlayShared.hlStart < overlayShared.hlEnd {
		return captionText[overlayShared.hlStart:overlayShared.hlEnd]
	}
	return ""
}

var (
	captionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("220")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	panelStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1)
	headWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	sectionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
)

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	pos := activePlayer.PositionMicros() / 1_000_000
	dur := int64(activePlayer.Duration().Seconds())
	state := "||"
	if activePlayer.Playing() {
		state = ">"
	}
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s %02d:%02d / %02d:%02d",
		state, pos/60, pos%60, dur/60, dur%60)))
	b.WriteString("\n\n")

	b.WriteString(m.renderCaption())
	b.WriteString("\n\n")

	if panel := m.renderDefinitionPanel(); panel != "" {
		b.WriteString(panel)
		b.WriteString("\n")
	}

	if m.notice != "" && time.Since(m.noticeAt) < 3*time.Second {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab select  ←/→ word/seek  enter define  esc back  m mark  c copy  space pause  q quit"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("wordtap " + version))

	return b.String()
}

func (m tuiModel) renderCaption() string {
	if m.caption == "" {
		return statusStyle.Render("(no caption)")
	}

	overlayShared.mu.Lock()
	hasHL := overlayShared.hasHL
	start, end := overlayShared.hlStart, overlayShared.hlEnd
	overlayShared.mu.Unlock()

	if !hasHL || start < 0 || end > len(m.caption) || start >= end {
		return captionStyle.Render(m.caption)
	}
	return captionStyle.Render(m.caption[:start]) +
		highlightStyle.Render(m.caption[start:end]) +
		captionStyle.Render(m.caption[end:])
}

func (m tuiModel) renderDefinitionPanel() string {
	overlayShared.mu.Lock()
	loading := overlayShared.loadingWord
	lines := overlayShared.defLines
	offset := overlayShared.offset
	unavailable := overlayShared.def != nil && overlayShared.def.Unavailable
	overlayShared.mu.Unlock()

	if loading != "" {
		return panelStyle.Render(m.spin.View() + " looking up " + headWordStyle.Render(loading) + "...")
	}
	if len(lines) == 0 {
		return ""
	}

	endLine := offset + defPanelHeight
	if endLine > len(lines) {
		endLine = len(lines)
	}
	window := lines[offset:endLine]

	styled := make([]string, 0, len(window)+1)
	for i, line := range window {
		switch {
		case offset+i == 0:
			styled = append(styled, headWordStyle.Render(line))
		case unavailable:
			styled = append(styled, statusStyle.Render(line))
		case !strings.HasPrefix(line, "- ") && !strings.HasPrefix(line, "  ") && line != "":
			styled = append(styled, sectionStyle.Render(line))
		default:
			styled = append(styled, line)
		}
	}
	if len(lines) > defPanelHeight {
		styled = append(styled, statusStyle.Render(
			fmt.Sprintf("… %d/%d (j/k to scroll)", endLine, len(lines))))
	}

	return panelStyle.Width(defPanelWidth + 2).Render(strings.Join(styled, "\n"))
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()

	if p != nil {
		p.Send(msg)
	}
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
