package watchcmder

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/docuwatchco/docuwatch/pkg/cliui"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	watchMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	watchFailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// noFraction marks a live view without an overall completion bar.
const noFraction = -1

// liveView is one rendered snapshot of a running operation. Subcommands map
// their progress state into this shape; the model only draws it.
type liveView struct {
	title    string
	lines    []string
	fraction float64

	done bool
	err  error
}

type watchKeyMap struct {
	Quit key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit}}
}

func defaultWatchKeyMap() watchKeyMap {
	return watchKeyMap{
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "stop watching")),
	}
}

type viewMsg liveView

type viewsClosedMsg struct{}

type watchModel struct {
	views   <-chan liveView
	stop    func()
	current liveView
	started time.Time
	spin    spinner.Model
	keys    watchKeyMap
	help    help.Model
	width   int
}

func newWatchModel(views <-chan liveView, stop func(), initial liveView) watchModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return watchModel{
		views:   views,
		stop:    stop,
		current: initial,
		started: time.Now(),
		spin:    spin,
		keys:    defaultWatchKeyMap(),
		help:    help.New(),
	}
}

func (m watchModel) Init() bubbletea.Cmd {
	return bubbletea.Batch(m.spin.Tick, waitForView(m.views))
}

func waitForView(views <-chan liveView) bubbletea.Cmd {
	return func() bubbletea.Msg {
		v, ok := <-views
		if !ok {
			return viewsClosedMsg{}
		}
		return viewMsg(v)
	}
}

func (m watchModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case viewMsg:
		m.current = liveView(msg)
		if m.current.done {
			return m, bubbletea.Quit
		}
		return m, waitForView(m.views)

	case viewsClosedMsg:
		return m, bubbletea.Quit

	case spinner.TickMsg:
		var cmd bubbletea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case bubbletea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.stop()
			return m, bubbletea.Quit
		}
		return m, nil
	}

	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	head := m.spin.View()
	if m.current.done {
		head = cliui.Mark(m.current.err)
	}

	fmt.Fprintf(&b, "\n  %s %s %s\n",
		head,
		watchTitleStyle.Render(m.current.title),
		watchMutedStyle.Render(cliui.FormatDuration(time.Since(m.started))),
	)

	if m.current.fraction != noFraction {
		fmt.Fprintf(&b, "\n  %s\n", cliui.Bar(m.current.fraction, 30))
	}

	for _, line := range m.current.lines {
		fmt.Fprintf(&b, "  %s\n", line)
	}

	if m.current.err != nil {
		fmt.Fprintf(&b, "\n  %s\n", watchFailStyle.Render(m.current.err.Error()))
	}

	fmt.Fprintf(&b, "\n%s\n", m.help.View(m.keys))

	return b.String()
}

// runLive drives the live view until the views channel delivers a done view
// or the user stops watching. The final outcome still comes from the watch
// handle; the TUI only draws.
func runLive(views <-chan liveView, stop func(), initial liveView) error {
	program := bubbletea.NewProgram(newWatchModel(views, stop, initial))
	_, err := program.Run()
	return err
}

// runPlain prints one progress line per snapshot, for terminals where the
// live view is unwanted.
func runPlain(views <-chan liveView) {
	for v := range views {
		if v.done {
			line := fmt.Sprintf("%s %s", cliui.Mark(v.err), v.title)
			if v.err != nil {
				line += "  " + v.err.Error()
			}
			fmt.Println(line)
			continue
		}

		line := v.title
		if v.fraction != noFraction {
			line += "  " + cliui.Bar(v.fraction, 30)
		}
		if len(v.lines) > 0 {
			line += "  " + strings.Join(v.lines, "  ")
		}
		fmt.Println(line)
	}
}

// offer places the snapshot on the channel, displacing a stale undelivered
// one so producers never block behind a slow renderer.
func offer(ch chan liveView, v liveView) {
	for {
		select {
		case ch <- v:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
