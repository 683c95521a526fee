package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/truth-eroder/internal/game"
	"github.com/tatianab/truth-eroder/internal/logger"
	"github.com/tatianab/truth-eroder/internal/models"
)

type sessionState int

const (
	stateChooseIdentity sessionState = iota
	stateLoading
	statePlaying
	stateError
)

// Config is everything the TUI needs to start or resume a run.
type Config struct {
	Deps     game.Deps
	Options  game.Options
	Seed     int64
	SaveName string
	Resume   *models.RunSnapshot
}

type model struct {
	cfg       Config
	state     sessionState
	run       *game.Run
	textInput textinput.Model
	viewport  viewport.Model
	err       error
	gameLog   string
	logSeen   int
	status    string
	width     int
	height    int
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))
)

func NewModel(cfg Config) model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	m := model{cfg: cfg, state: stateChooseIdentity, textInput: ti, viewport: viewport.New(80, 20)}
	if cfg.Resume != nil {
		run, err := game.Resume(cfg.Deps, cfg.Options, cfg.Resume)
		if err != nil {
			m.err, m.state = err, stateError
			return m
		}
		m.run, m.state = run, statePlaying
		m.gameLog = gameStyle.Render("读取存档，回到了地图上。") + "\n\n"
	}
	m.textInput.Placeholder = m.placeholder()
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

type actionDoneMsg struct {
	err error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			input := strings.TrimSpace(m.textInput.Value())
			m.textInput.Reset()

			switch m.state {
			case stateChooseIdentity:
				return m.chooseIdentity(input)

			case statePlaying:
				if input == "" {
					return m, nil
				}
				switch {
				case input == "/quit":
					return m, tea.Quit
				case input == "/restart":
					m.run, m.gameLog, m.logSeen, m.status = nil, "", 0, ""
					m.state = stateChooseIdentity
					m.textInput.Placeholder = m.placeholder()
					return m, nil
				case strings.HasPrefix(input, "/save"):
					m.status = m.save(strings.TrimSpace(strings.TrimPrefix(input, "/save")))
					return m, nil
				}

				m.gameLog += userStyle.Width(m.logWidth()).Render("> "+input) + "\n\n"
				m.viewport.SetContent(m.gameLog)
				m.viewport.GotoBottom()
				m.state = stateLoading
				return m, m.act(input)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.logWidth()
		m.viewport.Height = msg.Height - 6
		m.viewport.SetContent(m.gameLog)

	case actionDoneMsg:
		m.state = statePlaying
		m.status = ""
		if msg.err != nil {
			m.status = warnStyle.Render(msg.err.Error())
		}
		m.flushLog()
		m.textInput.Placeholder = m.placeholder()
		if m.run.Phase == game.PhaseMap || m.run.Over() {
			if err := m.run.Save(m.saveName()); err != nil {
				logger.Log.WithError(err).Warn("Autosave failed")
			}
		}
		return m, nil
	}

	if m.state == stateChooseIdentity || m.state == statePlaying {
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) chooseIdentity(input string) (tea.Model, tea.Cmd) {
	ids := m.cfg.Deps.Catalog.Identities
	i, err := strconv.Atoi(input)
	if err != nil || i < 1 || i > len(ids) {
		m.status = warnStyle.Render(fmt.Sprintf("请输入 1-%d", len(ids)))
		return m, nil
	}
	run, err := game.NewRun(m.cfg.Deps, m.cfg.Options, ids[i-1].ID, m.cfg.Seed)
	if err != nil {
		m.err, m.state = err, stateError
		return m, nil
	}
	m.run, m.state, m.status = run, statePlaying, ""
	m.gameLog, m.logSeen = "", 0
	m.flushLog()
	m.textInput.Placeholder = m.placeholder()
	return m, nil
}

// flushLog appends run log lines the viewport has not shown yet.
func (m *model) flushLog() {
	for _, line := range m.run.Log[m.logSeen:] {
		m.gameLog += gameStyle.Width(m.logWidth()).Render(line) + "\n"
	}
	m.logSeen = len(m.run.Log)
	m.gameLog += "\n"
	m.viewport.SetContent(m.gameLog)
	m.viewport.GotoBottom()
}

func (m model) save(name string) string {
	if name == "" {
		name = m.saveName()
	}
	if err := m.run.Save(name); err != nil {
		return warnStyle.Render(err.Error())
	}
	return helpStyle.Render("已保存到 " + name)
}

func (m model) saveName() string {
	if m.cfg.SaveName == "" {
		return "current"
	}
	return m.cfg.SaveName
}

func (m model) logWidth() int {
	return int(float64(m.width) * 0.6)
}

// act runs one player input against the run. Input is blocked while it is
// in flight, so the run is never touched concurrently.
func (m model) act(input string) tea.Cmd {
	run := m.run
	return func() tea.Msg {
		return actionDoneMsg{err: dispatch(context.Background(), run, input)}
	}
}

var errUnknownCommand = errors.New("无法理解的指令")

var directions = map[string]models.Coord{
	"w": {X: 0, Y: -1},
	"s": {X: 0, Y: 1},
	"a": {X: -1, Y: 0},
	"d": {X: 1, Y: 0},
}

func dispatch(ctx context.Context, run *game.Run, input string) error {
	switch run.Phase {
	case game.PhaseMap:
		if run.Stranded() {
			return run.Confront(ctx)
		}
		d, ok := directions[strings.ToLower(input)]
		if !ok {
			return errUnknownCommand
		}
		return run.Move(ctx, models.Coord{X: run.Player.Pos.X + d.X, Y: run.Player.Pos.Y + d.Y})

	case game.PhaseCombat:
		ids, err := parseChain(run.Player.Inventory, input)
		if err != nil {
			return err
		}
		_, err = run.Submit(ctx, ids)
		return err

	case game.PhaseReward:
		i, err := strconv.Atoi(input)
		if err != nil {
			return errUnknownCommand
		}
		return run.ChooseReward(i - 1)

	case game.PhaseDiscard:
		i, err := strconv.Atoi(input)
		if err != nil {
			return errUnknownCommand
		}
		return run.Discard(i - 1)

	case game.PhaseShop:
		if input == "l" {
			return run.Leave()
		}
		i, err := strconv.Atoi(input)
		if err != nil {
			return errUnknownCommand
		}
		return run.Buy(i - 1)

	case game.PhaseRest:
		switch input {
		case "r":
			return run.Rest()
		case "l":
			return run.Leave()
		}
		return errUnknownCommand

	case game.PhaseEvent:
		i, err := strconv.Atoi(input)
		if err != nil {
			return errUnknownCommand
		}
		return run.ChooseEvent(ctx, i-1)
	}
	return errUnknownCommand
}

// parseChain accepts either 1-based inventory slots ("2 4") or glyphs
// ("击斩"). A glyph resolves to the first matching token not already used.
func parseChain(inv []models.WordToken, input string) ([]string, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, errUnknownCommand
	}
	var ids []string
	if _, err := strconv.Atoi(fields[0]); err == nil {
		for _, f := range fields {
			i, err := strconv.Atoi(f)
			if err != nil || i < 1 || i > len(inv) {
				return nil, fmt.Errorf("没有第 %s 个字符", f)
			}
			ids = append(ids, inv[i-1].ID)
		}
		return ids, nil
	}

	used := map[string]bool{}
	for _, g := range strings.Join(fields, "") {
		found := false
		for _, w := range inv {
			if w.Text == string(g) && !used[w.ID] {
				used[w.ID], found = true, true
				ids = append(ids, w.ID)
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("你没有字符 [%c]", g)
		}
	}
	return ids, nil
}

func Run(cfg Config) error {
	p := tea.NewProgram(NewModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
