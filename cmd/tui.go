// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Jun Wei Ho, Lumitag

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	beetle "github.com/lumitag/beetlelink/pkg/beetle_protocol"
	"github.com/lumitag/beetlelink/pkg/gamestate"
	"github.com/lumitag/beetlelink/pkg/hostlink"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("22")).Padding(0, 1)
	linkUpStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	linkDownStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(8)
	barFillStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Messages
type tuiTickMsg time.Time
type tuiEventMsg hostlink.Event

type hostModel struct {
	host  *hostlink.Host
	gs    *gamestate.GameState
	relay *engineRelay
	stop  context.CancelFunc

	eventLog  viewport.Model
	lines     []string
	maxLines  int
	imuRate   int
	imuCount  int
	lastRate  time.Time
	width     int
	height    int
	quitting  bool
}

func newHostModel(stop context.CancelFunc, h *hostlink.Host, gs *gamestate.GameState, relay *engineRelay) hostModel {
	vp := viewport.New(80, 12)
	return hostModel{
		host:     h,
		gs:       gs,
		relay:    relay,
		stop:     stop,
		eventLog: vp,
		maxLines: 200,
		lastRate: time.Now(),
		width:    80,
		height:   24,
	}
}

func tuiTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tuiTickMsg(t)
	})
}

func waitEventCmd(h *hostlink.Host) tea.Cmd {
	return func() tea.Msg {
		return tuiEventMsg(<-h.Events())
	}
}

func (m hostModel) Init() tea.Cmd {
	return tea.Batch(tuiTickCmd(), waitEventCmd(m.host), tea.EnterAltScreen)
}

func (m hostModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.stop()
			return m, tea.Quit
		case "r":
			m.host.Reload()
		case "s":
			m.host.RefreshShield()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.eventLog.Width = msg.Width - 2
		m.eventLog.Height = msg.Height - 12
		if m.eventLog.Height < 3 {
			m.eventLog.Height = 3
		}

	case tuiTickMsg:
		if time.Since(m.lastRate) >= time.Second {
			m.imuRate = m.imuCount
			m.imuCount = 0
			m.lastRate = time.Now()
		}
		return m, tuiTickCmd()

	case tuiEventMsg:
		e := hostlink.Event(msg)
		relayEvent(m.relay, e)
		if e.Type == hostlink.EventIMU {
			m.imuCount++
		} else {
			m.appendLine(formatEventLine(e))
		}
		return m, waitEventCmd(m.host)
	}

	return m, nil
}

func (m *hostModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > m.maxLines {
		m.lines = m.lines[len(m.lines)-m.maxLines:]
	}
	m.eventLog.SetContent(strings.Join(m.lines, "\n"))
	m.eventLog.GotoBottom()
}

func formatEventLine(e hostlink.Event) string {
	ts := time.UnixMilli(e.Time).Format("15:04:05.000")
	switch e.Type {
	case hostlink.EventShot:
		return fmt.Sprintf("[%s] SHOT  bullets=%d", ts, e.Bullets)
	case hostlink.EventHit:
		return fmt.Sprintf("[%s] HIT   shield=%d health=%d", ts, e.Shield, e.Health)
	case hostlink.EventStateSync:
		return fmt.Sprintf("[%s] SYNC  bullets=%d shield=%d health=%d", ts, e.Bullets, e.Shield, e.Health)
	case hostlink.EventLinkUp:
		return fmt.Sprintf("[%s] LINK UP", ts)
	case hostlink.EventLinkDown:
		return fmt.Sprintf("[%s] LINK DOWN (%s)", ts, e.Message)
	case hostlink.EventWarning:
		return warnStyle.Render(fmt.Sprintf("[%s] WARN  %s", ts, e.Message))
	default:
		return fmt.Sprintf("[%s] %s %s", ts, strings.ToUpper(string(e.Type)), e.Message)
	}
}

// bar renders a fixed-width gauge like [██████░░░░]
func bar(value, max, width int) string {
	if max <= 0 {
		max = 1
	}
	filled := value * width / max
	if filled > width {
		filled = width
	}
	return "[" + barFillStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled)) + "]"
}

func (m hostModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Beetlelink Host Dashboard"))
	b.WriteString("  ")
	if m.host.Connected() {
		b.WriteString(linkUpStyle.Render("LINK UP"))
	} else {
		b.WriteString(linkDownStyle.Render("LINK DOWN"))
	}
	b.WriteString("\n\n")

	bullets := int(m.gs.Gun.Get())
	shield, health := m.gs.Vest.Get()

	b.WriteString(labelStyle.Render("Ammo"))
	b.WriteString(fmt.Sprintf("%s %d/%d\n", bar(bullets, beetle.MagazineSize, 12), bullets, beetle.MagazineSize))
	b.WriteString(labelStyle.Render("Shield"))
	b.WriteString(fmt.Sprintf("%s %d/%d\n", bar(int(shield), beetle.MaxShield, 12), shield, beetle.MaxShield))
	b.WriteString(labelStyle.Render("Health"))
	b.WriteString(fmt.Sprintf("%s %d/%d\n", bar(int(health), beetle.MaxHealth, 12), health, beetle.MaxHealth))
	b.WriteString(labelStyle.Render("IMU"))
	b.WriteString(fmt.Sprintf("%d frames/sec\n\n", m.imuRate))

	b.WriteString(m.eventLog.View())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render("r reload · s shield · q quit"))
	return b.String()
}

// runHostTUI drives the dashboard until the user quits
func runHostTUI(ctx context.Context, stop context.CancelFunc, h *hostlink.Host, gs *gamestate.GameState, relay *engineRelay) error {
	p := tea.NewProgram(newHostModel(stop, h, gs, relay), tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
