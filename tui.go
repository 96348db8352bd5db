package main

import (
	"context"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"memo/audio"
	"memo/beep"
	"memo/session"
)

// Shell effects arrive as these messages.
type iconMsg struct{ Icon session.Icon }
type timerVisibleMsg struct{ Visible bool }
type timerTextMsg struct{ Text string }
type amplitudeMsg struct{ Level float64 }
type alertMsg struct{ Alert session.Alert }
type stateMsg struct{ State session.State }
type tapDoneMsg struct{ err error }
type tickMsg time.Time

const (
	waveWidth  = 44
	waveHeight = 7
	waveCount  = 5
)

type tuiModel struct {
	ctx     context.Context
	machine *session.Machine

	frame        int
	state        session.State
	icon         session.Icon
	timerVisible bool
	timerText    string
	amplitude    float64
	alert        *session.Alert
	deviceLine   string
	hotkeyLine   string
	bluetooth    bool
	width        int
}

// tui adapts the bubbletea program to session.Shell. Methods are called from
// the machine's control loop and only forward messages.
type tui struct {
	program *tea.Program
	model   *tuiModel
}

// Pre-computed pixel styles, one per wave
var (
	waveColors      = [waveCount + 1]string{"", "196", "160", "124", "88", "52"}
	waveColorsIdle  = [waveCount + 1]string{"", "245", "242", "239", "237", "235"}
	waveStyles      [waveCount + 1]lipgloss.Style
	waveStylesIdle  [waveCount + 1]lipgloss.Style
	waveBgStyles    [waveCount + 1][waveCount + 1]lipgloss.Style
	waveBgStylesIdl [waveCount + 1][waveCount + 1]lipgloss.Style
)

func init() {
	for i := 1; i <= waveCount; i++ {
		waveStyles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(waveColors[i]))
		waveStylesIdle[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(waveColorsIdle[i]))
		for j := 1; j <= waveCount; j++ {
			waveBgStyles[i][j] = lipgloss.NewStyle().
				Foreground(lipgloss.Color(waveColors[i])).
				Background(lipgloss.Color(waveColors[j]))
			waveBgStylesIdl[i][j] = lipgloss.NewStyle().
				Foreground(lipgloss.Color(waveColorsIdle[i])).
				Background(lipgloss.Color(waveColorsIdle[j]))
		}
	}
}

func newTUI(ctx context.Context, deviceName string) *tui {
	m := &tuiModel{
		ctx:        ctx,
		deviceLine: deviceLineText(deviceName),
		bluetooth:  audio.IsBluetooth(deviceName),
	}
	return &tui{
		program: tea.NewProgram(m, tea.WithAltScreen()),
		model:   m,
	}
}

// showHotkeys must be called before the program runs.
func (t *tui) showHotkeys(line string) {
	t.model.hotkeyLine = line
}

// bind must be called before the program runs.
func (t *tui) bind(m *session.Machine) {
	t.model.machine = m
}

func (t *tui) SetRecordIcon(i session.Icon) { t.program.Send(iconMsg{i}) }
func (t *tui) SetTimerVisible(v bool)       { t.program.Send(timerVisibleMsg{v}) }
func (t *tui) SetTimerText(s string)        { t.program.Send(timerTextMsg{s}) }
func (t *tui) SetAmplitude(a float64)       { t.program.Send(amplitudeMsg{a}) }
func (t *tui) StateChanged(s session.State) { t.program.Send(stateMsg{s}) }
func (t *tui) ShowAlert(a session.Alert) {
	beep.PlayError()
	t.program.Send(alertMsg{a})
}

func deviceLineText(name string) string {
	if name == "" {
		name = "system default"
	}
	return "mic: " + name
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *tuiModel) Init() tea.Cmd {
	return tuiTick()
}

// tap runs a machine command off the bubbletea goroutine. The machine
// renders through Send, so calling it inline would block the event loop.
func (m *tuiModel) tap(fn func(context.Context) error) tea.Cmd {
	if m.machine == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return tapDoneMsg{err: fn(ctx)}
	}
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.alert = nil
			return m, m.tap(m.machine.Record)
		case "p":
			m.alert = nil
			return m, m.tap(m.machine.Play)
		case "esc":
			m.alert = nil
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case iconMsg:
		m.icon = msg.Icon
	case timerVisibleMsg:
		m.timerVisible = msg.Visible
	case timerTextMsg:
		m.timerText = msg.Text
	case amplitudeMsg:
		m.amplitude = msg.Level
	case stateMsg:
		m.state = msg.State
	case alertMsg:
		a := msg.Alert
		m.alert = &a
	case tapDoneMsg:
		// failures already arrived as alerts
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder

	b.WriteString(renderWaveform(m.frame, m.amplitude, m.state == session.Playing))
	b.WriteString("\n")

	var status string
	switch m.state {
	case session.Recording:
		status = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Render("● REC")
	case session.Playing:
		status = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true).Render("▶ PLAY")
	default:
		status = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("○ STANDBY")
	}
	if m.timerVisible && m.timerText != "" {
		status += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Render(m.timerText)
	}
	b.WriteString(status + "\n")

	if m.alert != nil {
		text := "⚠ " + m.alert.Message
		if m.alert.Action != "" {
			text += "  [" + m.alert.Action + "]"
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Render(text) + "\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(m.deviceLine))
	if m.bluetooth {
		b.WriteString(" " + lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("[⚠ Lower audio quality]"))
	}
	b.WriteString("\n\n")

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	recordLabel := " record"
	if m.icon == session.IconStop {
		recordLabel = " stop"
	}
	b.WriteString(boldStyle.Render("r") + helpStyle.Render(recordLabel+"  ") +
		boldStyle.Render("p") + helpStyle.Render(" play  ") +
		boldStyle.Render("q") + helpStyle.Render(" quit") + "\n")
	if m.hotkeyLine != "" {
		b.WriteString(helpStyle.Render(m.hotkeyLine) + "\n")
	}
	b.WriteString(helpStyle.Render("memo " + version))
	return b.String()
}

// renderWaveform draws five phase-shifted sine waves whose height follows
// level. Two pixel rows share one character cell via half blocks.
func renderWaveform(frame int, level float64, active bool) string {
	const pixW = waveWidth
	const pixH = waveHeight * 2
	mid := float64(pixH-1) / 2

	pixels := make([][]int, pixH)
	for i := range pixels {
		pixels[i] = make([]int, pixW)
	}

	// later waves are drawn first so the loudest one stays on top
	for w := waveCount; w >= 1; w-- {
		scale := level * (1 - float64(w-1)*0.18)
		phase := float64(frame)*0.15 + float64(w)*0.6
		freq := 1.5 + float64(w)*0.3
		for x := 0; x < pixW; x++ {
			pos := float64(x) / float64(pixW-1)
			envelope := math.Sin(math.Pi * pos)
			y := mid - scale*mid*envelope*math.Sin(2*math.Pi*freq*pos+phase)
			row := int(math.Round(y))
			row = max(0, min(pixH-1, row))
			pixels[row][x] = w
		}
	}

	styles, bgStyles := &waveStylesIdle, &waveBgStylesIdl
	if active {
		styles, bgStyles = &waveStyles, &waveBgStyles
	}

	var result strings.Builder
	for cy := 0; cy < waveHeight; cy++ {
		for cx := 0; cx < pixW; cx++ {
			top := pixels[cy*2][cx]
			bot := pixels[cy*2+1][cx]
			switch {
			case top == 0 && bot == 0:
				result.WriteString(" ")
			case top == bot:
				result.WriteString(styles[top].Render("█"))
			case bot == 0:
				result.WriteString(styles[top].Render("▀"))
			case top == 0:
				result.WriteString(styles[bot].Render("▄"))
			default:
				result.WriteString(bgStyles[top][bot].Render("▀"))
			}
		}
		result.WriteString("\n")
	}
	return result.String()
}
