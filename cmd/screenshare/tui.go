package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justishika/Educational-Coding-Assessment-and-Monitoring-Platform-sub001/pkg/broadcast"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	roomStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("13"))

	viewerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

// Messages pushed into the TUI by the broadcaster's observers
type connectionMsg bool

type viewerCountMsg int

type qualityMsg broadcast.Quality

type bandwidthMsg broadcast.Bandwidth

type model struct {
	b    *broadcast.Broadcaster
	room string

	sharing   bool
	connected bool
	viewers   int
	quality   broadcast.Quality
	bandwidth broadcast.Bandwidth
	errMsg    string
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.b.Stop()
			return m, tea.Quit
		case "s":
			m.b.Stop()
			m.sharing = false
			m.connected = false
			m.viewers = 0
			m.quality = broadcast.QualityDisconnected
			m.bandwidth = broadcast.Bandwidth{}
		}

	case connectionMsg:
		m.connected = bool(msg)
	case viewerCountMsg:
		m.viewers = int(msg)
	case qualityMsg:
		m.quality = broadcast.Quality(msg)
	case bandwidthMsg:
		m.bandwidth = broadcast.Bandwidth(msg)
	}

	return m, nil
}

func (m model) View() string {
	s := titleStyle.Render("screenshare") + "\n\n"
	s += "Room: " + roomStyle.Render(m.room) + "\n"

	if !m.sharing {
		s += dimStyle.Render("Not sharing") + "\n"
	} else {
		if m.connected {
			s += statusStyle.Render("Signaling connected") + "\n"
		} else {
			s += dimStyle.Render("Signaling reconnecting...") + "\n"
		}
		s += viewerStyle.Render(fmt.Sprintf("Viewers: %d", m.viewers)) + "\n"
		s += "Quality: " + qualityView(m.quality) + "\n"
		s += dimStyle.Render(fmt.Sprintf("Bandwidth: up %.1f KB/s, down %.1f KB/s",
			m.bandwidth.UploadKBps, m.bandwidth.DownloadKBps)) + "\n"
	}

	if m.errMsg != "" {
		s += "\n" + errorStyle.Render(m.errMsg) + "\n"
	}

	s += "\n" + helpStyle.Render("s stop sharing • q quit") + "\n"
	return s
}

func qualityView(q broadcast.Quality) string {
	switch q {
	case broadcast.QualityExcellent, broadcast.QualityGood:
		return goodStyle.Render(q.String())
	case broadcast.QualityPoor:
		return errorStyle.Render(q.String())
	default:
		return dimStyle.Render(q.String())
	}
}

// RunTUI starts the broadcast and runs the status view until the user quits.
func RunTUI(b *broadcast.Broadcaster, opts broadcast.Options, room string) error {
	p := tea.NewProgram(model{b: b, room: room, sharing: true})

	b.OnConnectionChange(func(up bool) { p.Send(connectionMsg(up)) })
	b.OnViewerCountChange(func(n int) { p.Send(viewerCountMsg(n)) })
	b.OnQualityChange(func(q broadcast.Quality) { p.Send(qualityMsg(q)) })
	b.OnBandwidthChange(func(bw broadcast.Bandwidth) { p.Send(bandwidthMsg(bw)) })

	if err := b.Start(opts); err != nil {
		return err
	}
	defer b.Stop()

	_, err := p.Run()
	return err
}
