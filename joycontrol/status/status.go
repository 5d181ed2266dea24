// Package status draws a small live view of a pairing session in the
// terminal.
package status

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"dio.wtf/joypair/joycontrol"
)

const refreshInterval = 100 * time.Millisecond

type Source interface {
	Status() joycontrol.Status
}

type tickMsg time.Time

type Model struct {
	src    Source
	status joycontrol.Status
	start  time.Time
	now    time.Time
}

func NewModel(src Source) Model {
	now := time.Now()
	return Model{src: src, status: src.Status(), start: now, now: now}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		m.now = time.Time(msg)
		m.status = m.src.Status()
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	s := m.status
	player := "-"
	if s.PlayerNumber != 0 {
		player = fmt.Sprint(s.PlayerNumber)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pro Controller  [%s]\n\n", s.State)
	fmt.Fprintf(&b, "  Player     %s\n", player)
	fmt.Fprintf(&b, "  Vibration  %s\n", onOff(s.VibrationEnabled))
	fmt.Fprintf(&b, "  IMU        %s\n", onOff(s.ImuEnabled))
	fmt.Fprintf(&b, "  Mode       %s\n", s.Mode)
	fmt.Fprintf(&b, "  Packets    rx %d / tx %d\n", s.PacketsReceived, s.PacketsSent)
	fmt.Fprintf(&b, "  Uptime     %s\n", m.now.Sub(m.start).Truncate(time.Second))
	b.WriteString("\n  q to quit\n")
	return b.String()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Run shows the view until the user quits or ctx is done. It returns
// context.Canceled when the user asked to quit so the caller can end the
// session.
func Run(ctx context.Context, src Source, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(NewModel(src), tea.WithInput(in), tea.WithOutput(out))
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); nil != err {
		return err
	}
	if nil != ctx.Err() {
		return nil
	}
	return context.Canceled
}
