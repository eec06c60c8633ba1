package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/tabletop-agents/internal/storage"
	"github.com/jwebster45206/tabletop-agents/pkg/session"
)

const pollInterval = 2 * time.Second

// ConsoleUI is the BubbleTea model that tails a session transcript.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	store     storage.Storage
	sessionID string

	viewport viewport.Model
	entries  []session.TranscriptEntry
	saved    *session.SaveState
	ready    bool
	width    int
	height   int
	err      error
}

type transcriptMsg struct {
	entries []session.TranscriptEntry
	saved   *session.SaveState
	err     error
}

type pollTickMsg struct{}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	senderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	directorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow
)

func NewConsoleUI(store storage.Storage, sessionID string) *ConsoleUI {
	return &ConsoleUI{
		store:     store,
		sessionID: sessionID,
	}
}

func (ui *ConsoleUI) Init() tea.Cmd {
	return tea.Batch(ui.fetchTranscript, pollTick())
}

func pollTick() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func (ui *ConsoleUI) fetchTranscript() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := ui.store.Transcript(ctx, ui.sessionID)
	if err != nil {
		return transcriptMsg{err: err}
	}
	saved, err := ui.store.LoadSession(ctx, ui.sessionID)
	if err != nil {
		return transcriptMsg{err: err}
	}
	return transcriptMsg{entries: entries, saved: saved}
}

func (ui *ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return ui, tea.Quit
		}

	case tea.WindowSizeMsg:
		ui.width = msg.Width
		ui.height = msg.Height
		if !ui.ready {
			ui.viewport = viewport.New(msg.Width, msg.Height-3)
			ui.ready = true
		} else {
			ui.viewport.Width = msg.Width
			ui.viewport.Height = msg.Height - 3
		}
		ui.viewport.SetContent(ui.renderEntries())

	case transcriptMsg:
		ui.err = msg.err
		if msg.err == nil {
			atBottom := ui.viewport.AtBottom()
			ui.entries = msg.entries
			ui.saved = msg.saved
			if ui.ready {
				ui.viewport.SetContent(ui.renderEntries())
				if atBottom {
					ui.viewport.GotoBottom()
				}
			}
		}

	case pollTickMsg:
		return ui, tea.Batch(ui.fetchTranscript, pollTick())
	}

	ui.viewport, cmd = ui.viewport.Update(msg)
	return ui, cmd
}

func (ui *ConsoleUI) renderEntries() string {
	var b strings.Builder
	width := ui.width
	if width <= 0 {
		width = 80
	}

	lastRound := -1
	for _, e := range ui.entries {
		if e.Round != lastRound {
			lastRound = e.Round
			fmt.Fprintf(&b, "\n%s\n", titleStyle.Render(fmt.Sprintf("--- Round %d ---", e.Round)))
		}
		b.WriteString(ui.renderEntry(e, width))
		b.WriteString("\n")
	}
	return b.String()
}

func (ui *ConsoleUI) renderEntry(e session.TranscriptEntry, width int) string {
	var bodyStyle lipgloss.Style
	switch e.Type {
	case string(session.TypeSceneDescription), string(session.TypeDirectorResponse), string(session.TypeActionResult):
		bodyStyle = directorStyle
	case string(session.TypePlayerAction):
		bodyStyle = playerStyle
	case string(session.TypeError):
		bodyStyle = errorStyle
	default:
		bodyStyle = systemStyle
	}

	header := senderStyle.Render(e.Sender)
	if e.Recipient != "" {
		header += systemStyle.Render(" -> " + e.Recipient)
	}
	body := bodyStyle.Render(wordwrap.String(e.Content, width-2))
	return header + "\n" + body
}

func (ui *ConsoleUI) View() string {
	if !ui.ready {
		return "loading..."
	}

	status := statusStyle.Render(fmt.Sprintf(" %s | %d messages", ui.sessionID, len(ui.entries)))
	if ui.saved != nil {
		status += statusStyle.Render(fmt.Sprintf(" | round %d (%s)", ui.saved.Round, ui.saved.Phase))
	}
	if ui.err != nil {
		status += " " + errorStyle.Render(ui.err.Error())
	}
	help := systemStyle.Render(" q: quit | arrows: scroll")

	return ui.viewport.View() + "\n" + status + "\n" + help
}
