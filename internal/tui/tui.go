package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/fleetdash/fleetdash/internal/api"
	"github.com/fleetdash/fleetdash/internal/feed"
	"github.com/fleetdash/fleetdash/internal/logging"
	"github.com/fleetdash/fleetdash/internal/store"
	"github.com/fleetdash/fleetdash/internal/telemetry"
)

// Modal mode
type modalMode int

const (
	modalNone modalMode = iota
	modalHelp
	modalDetail
	modalLogin
)

const messageTTL = 3 * time.Second

// refreshTickMsg drives the live refresh of the devices table
type refreshTickMsg time.Time

// detailLoadedMsg carries a freshly fetched record for the detail modal
type detailLoadedMsg struct {
	res    api.Resource
	id     string
	record api.Record
	err    error
}

// loginResultMsg carries the outcome of a login attempt
type loginResultMsg struct {
	username string
	session  *api.Session
	err      error
}

// Options configures the TUI
type Options struct {
	Client  *api.Client
	Store   *store.Store // optional; persists sessions and view preferences
	Scroll  feed.Config
	Refresh time.Duration // live refresh interval of the devices tab; zero disables it
	Start   api.Resource  // initially selected tab
}

// Model is the main TUI model
type Model struct {
	// State
	ctx         context.Context
	cancel      context.CancelFunc
	client      *api.Client
	store       *store.Store
	refresh     time.Duration
	tables      []*Table
	active      int
	modal       modalMode
	width       int
	height      int
	ready       bool
	message     string
	messageTime time.Time
	isError     bool
	now         func() time.Time

	// Components
	help     help.Model
	spinner  spinner.Model
	detail   viewport.Model
	username textinput.Model
	password textinput.Model

	detailRes api.Resource
	detailID  string
}

// New creates a new TUI model
func New(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	h := help.New()
	h.ShowAll = true

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Width = 30

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 128
	pass.Width = 30

	var prefs map[string]store.ViewPref
	if opts.Store != nil {
		var err error
		if prefs, err = opts.Store.LoadViewPrefs(); err != nil {
			logging.Logger.Warn("failed to load view preferences", "error", err)
		}
	}

	m := Model{
		ctx:      ctx,
		cancel:   cancel,
		client:   opts.Client,
		store:    opts.Store,
		refresh:  opts.Refresh,
		now:      time.Now,
		help:     h,
		spinner:  sp,
		detail:   viewport.New(0, 0),
		username: user,
		password: pass,
	}
	for i, res := range api.Resources {
		var pref *store.ViewPref
		if p, ok := prefs[string(res)]; ok {
			pref = &p
		}
		m.tables = append(m.tables, newTable(ctx, opts.Client, res, opts.Scroll, pref))
		if res == opts.Start {
			m.active = i
		}
	}
	return m
}

// Init initializes the model. The first page is requested once the window
// size is known.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refreshTick())
}

func (m Model) refreshTick() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func (m Model) activeTable() *Table {
	return m.tables[m.active]
}

func (m Model) table(res api.Resource) *Table {
	for _, t := range m.tables {
		if t.res == res {
			return t
		}
	}
	return nil
}

// tableRows is the number of record rows that fit: the screen minus the
// tab bar, status bar, panel borders, column header and footer.
func (m Model) tableRows() int {
	return max(m.height-6, 1)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		for _, t := range m.tables {
			t.setVisibleRows(m.tableRows())
		}
		m.detail.Width, m.detail.Height = m.detailSize()
		return m, m.activeTable().observe(m.now(), false)

	case tea.KeyMsg:
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		return m.updateMain(msg)

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelDown, tea.MouseButtonWheelUp:
			down := msg.Button == tea.MouseButtonWheelDown
			if m.modal == modalDetail {
				if down {
					m.detail.ScrollDown(wheelStep)
				} else {
					m.detail.ScrollUp(wheelStep)
				}
				return m, nil
			}
			if m.modal == modalNone {
				return m, m.activeTable().wheel(down, m.now())
			}
		}
		return m, nil

	case pageLoadedMsg:
		t := m.table(msg.res)
		if t == nil {
			return m, nil
		}
		cmd, applied := t.complete(msg, m.now())
		if applied && msg.result.Err != nil {
			m.setError(fmt.Sprintf("Failed to load %s: %v", msg.res.Plural(), msg.result.Err))
			if api.IsUnauthorized(msg.result.Err) {
				m.openLogin()
			}
		}
		return m, cmd

	case resumeMsg:
		if t := m.table(msg.res); t != nil {
			return m, t.resume(msg, m.now())
		}
		return m, nil

	case rowsRefreshedMsg:
		if t := m.table(msg.res); t != nil {
			t.applyRefresh(msg)
		}
		return m, nil

	case refreshTickMsg:
		cmds := []tea.Cmd{m.refreshTick()}
		if m.modal == modalNone {
			cmds = append(cmds, m.activeTable().refresh())
		}
		return m, tea.Batch(cmds...)

	case detailLoadedMsg:
		if m.modal == modalDetail && msg.res == m.detailRes && msg.id == m.detailID {
			if msg.err != nil {
				m.setError(fmt.Sprintf("Failed to refresh %s %s: %v", msg.res, msg.id, msg.err))
			} else {
				m.detail.SetContent(msg.record.JSON())
			}
		}
		return m, nil

	case loginResultMsg:
		return m.finishLogin(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.modal {
	case modalHelp:
		switch msg.String() {
		case "esc", "?", "q":
			m.modal = modalNone
		}

	case modalDetail:
		switch {
		case key.Matches(msg, keys.Escape), msg.String() == "q", msg.String() == "enter":
			m.modal = modalNone
		case key.Matches(msg, keys.Copy):
			m.copyID(m.detailID)
		default:
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}

	case modalLogin:
		switch msg.String() {
		case "esc":
			m.modal = modalNone
			m.password.Reset()
			return m, nil
		case "tab", "shift+tab", "up", "down":
			m.focusLogin(!m.username.Focused())
			return m, textinput.Blink
		case "enter":
			if m.username.Focused() {
				m.focusLogin(false)
				return m, textinput.Blink
			}
			if m.username.Value() == "" || m.password.Value() == "" {
				return m, nil
			}
			m.modal = modalNone
			telemetry.TUIActionExecute("login")
			return m, m.login(m.username.Value(), m.password.Value())
		}
		var cmd tea.Cmd
		if m.username.Focused() {
			m.username, cmd = m.username.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.activeTable()
	now := m.now()

	if cmd, ok := t.navigate(msg, now); ok {
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.NextTab):
		return m.switchTab((m.active + 1) % len(m.tables))

	case key.Matches(msg, keys.PrevTab):
		return m.switchTab((m.active + len(m.tables) - 1) % len(m.tables))

	case len(msg.String()) == 1 && msg.String() >= "1" && msg.String() <= "9":
		if i := int(msg.String()[0] - '1'); i < len(m.tables) {
			return m.switchTab(i)
		}

	case key.Matches(msg, keys.Order):
		t.cycleOrder()
		telemetry.TUIActionExecute("order")
		return m, m.reorder(t)

	case key.Matches(msg, keys.Sort):
		t.toggleSort()
		telemetry.TUIActionExecute("sort")
		return m, m.reorder(t)

	case key.Matches(msg, keys.Reload):
		t.reset(m.client)
		telemetry.TUIActionExecute("reload")
		return m, t.observe(now, false)

	case key.Matches(msg, keys.Retry):
		if t.feed.Err() == nil {
			return m, nil
		}
		telemetry.TUIActionExecute("retry")
		return m, t.retry(now)

	case key.Matches(msg, keys.Detail):
		return m.openDetail()

	case key.Matches(msg, keys.Copy):
		if rec, ok := t.selected(); ok {
			m.copyID(rec.ID())
		}

	case key.Matches(msg, keys.Login):
		m.openLogin()
		return m, textinput.Blink

	case key.Matches(msg, keys.Help):
		m.modal = modalHelp
	}
	return m, nil
}

func (m Model) switchTab(i int) (tea.Model, tea.Cmd) {
	if i == m.active {
		return m, nil
	}
	m.active = i
	telemetry.TUIActionExecute("switch_tab")
	return m, m.activeTable().observe(m.now(), false)
}

// reorder reloads a table after its ordering changed and remembers the choice
func (m Model) reorder(t *Table) tea.Cmd {
	t.reset(m.client)
	if m.store != nil {
		if err := m.store.SaveViewPref(t.viewPref()); err != nil {
			logging.Logger.Warn("failed to save view preference", "resource", t.res, "error", err)
		}
	}
	return t.observe(m.now(), false)
}

func (m Model) openDetail() (tea.Model, tea.Cmd) {
	t := m.activeTable()
	rec, ok := t.selected()
	if !ok {
		return m, nil
	}
	m.modal = modalDetail
	m.detailRes = t.res
	m.detailID = rec.ID()
	m.detail.Width, m.detail.Height = m.detailSize()
	m.detail.SetContent(rec.JSON())
	m.detail.GotoTop()
	telemetry.TUIActionExecute("detail")

	if m.detailID == "" {
		return m, nil
	}
	client, ctx, res, id := m.client, m.ctx, m.detailRes, m.detailID
	return m, func() tea.Msg {
		rec, err := client.Get(ctx, res, id)
		return detailLoadedMsg{res: res, id: id, record: rec, err: err}
	}
}

func (m Model) detailSize() (int, int) {
	return max(min(m.width-10, 90), 20), max(m.height-12, 3)
}

func (m *Model) openLogin() {
	m.modal = modalLogin
	m.password.Reset()
	m.focusLogin(m.username.Value() == "")
}

func (m *Model) focusLogin(user bool) {
	if user {
		m.username.Focus()
		m.password.Blur()
	} else {
		m.username.Blur()
		m.password.Focus()
	}
}

func (m Model) login(username, password string) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		sess, err := client.Login(ctx, username, password)
		return loginResultMsg{username: username, session: sess, err: err}
	}
}

// finishLogin swaps in an authenticated client and reloads every table
func (m Model) finishLogin(msg loginResultMsg) (tea.Model, tea.Cmd) {
	m.password.Reset()
	if msg.err != nil {
		m.setError(fmt.Sprintf("Login failed: %v", msg.err))
		return m, nil
	}

	server := m.client.BaseURL()
	m.client = m.client.WithToken(msg.session.Token)
	if m.store != nil {
		err := m.store.SaveSession(store.Session{
			Server:    server,
			Username:  msg.username,
			Token:     msg.session.Token,
			CreatedAt: m.now(),
		})
		if err != nil {
			logging.Logger.Warn("failed to save session", "server", server, "error", err)
		}
	}
	for _, t := range m.tables {
		t.reset(m.client)
	}
	m.setMessage("Logged in as " + msg.username)
	return m, m.activeTable().observe(m.now(), false)
}

func (m *Model) copyID(id string) {
	if id == "" {
		return
	}
	if err := clipboard.WriteAll(id); err != nil {
		m.setError(fmt.Sprintf("Failed to copy: %v", err))
		return
	}
	telemetry.TUIActionExecute("copy_id")
	m.setMessage("Copied " + id)
}

func (m *Model) setMessage(msg string) {
	m.message = msg
	m.messageTime = m.now()
	m.isError = false
}

func (m *Model) setError(msg string) {
	m.message = msg
	m.messageTime = m.now()
	m.isError = true
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.close()
	return m, tea.Quit
}

// close cancels every fetch in flight
func (m Model) close() {
	for _, t := range m.tables {
		t.feed.Close()
	}
	m.cancel()
}

// View renders the model
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var s strings.Builder

	s.WriteString(m.renderTabs())
	s.WriteString("\n")

	t := m.activeTable()
	content := t.View(m.width-4, m.now(), m.spinner.View())
	s.WriteString(m.renderPanel(m.active+1, t.title(), content, m.width, m.height-2, true))

	s.WriteString("\n")
	s.WriteString(m.renderStatusBar())

	if m.modal != modalNone {
		return m.renderModal(s.String())
	}

	return s.String()
}

func (m Model) renderTabs() string {
	var tabs []string
	for i, t := range m.tables {
		label := fmt.Sprintf("%d %s", i+1, t.res.Title())
		if i == m.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	left := strings.Join(tabs, "")

	server := ""
	if m.client != nil {
		server = m.client.BaseURL()
		if !m.client.HasToken() {
			server += " (anonymous)"
		}
	}
	right := serverStyle.Render(server)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if gap < 1 {
		return fitLine(left, m.width)
	}
	return left + strings.Repeat(" ", gap) + right + " "
}

func (m Model) renderPanel(num int, title, content string, width, height int, active bool) string {
	borderColor := colorBlue
	titleFg := colorBlue
	if active {
		borderColor = primaryColor
		titleFg = primaryColor
	}

	// Border characters
	tl, tr, bl, br := "╭", "╮", "╰", "╯"
	h, v := "─", "│"

	numText := fmt.Sprintf("[%d]", num)
	styledNum := lipgloss.NewStyle().
		Foreground(titleFg).
		Bold(active).
		Render(numText)
	styledTitle := lipgloss.NewStyle().
		Foreground(titleFg).
		Bold(active).
		Render(title)

	styledDash := lipgloss.NewStyle().Foreground(borderColor).Render(h)

	numWidth := lipgloss.Width(numText)
	titleWidth := lipgloss.Width(title)

	// Format: ╭─[num]─title─────...─╮
	topBorderRight := width - 2 - numWidth - 1 - titleWidth - 1
	if topBorderRight < 0 {
		topBorderRight = 0
	}
	topLine := lipgloss.NewStyle().Foreground(borderColor).Render(tl+h) +
		styledNum +
		styledDash +
		styledTitle +
		lipgloss.NewStyle().Foreground(borderColor).Render(strings.Repeat(h, topBorderRight)+tr)

	bottomLine := lipgloss.NewStyle().Foreground(borderColor).Render(bl + strings.Repeat(h, max(width-2, 0)) + br)

	vBorder := lipgloss.NewStyle().Foreground(borderColor).Render(v)

	contentWidth := width - 4 // 2 for borders, 2 for padding
	contentHeight := height - 2

	contentLines := strings.Split(content, "\n")
	var paddedLines []string
	for i := 0; i < contentHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		line = fitLine(line, contentWidth)
		paddedLines = append(paddedLines, vBorder+" "+line+" "+vBorder)
	}

	return topLine + "\n" + strings.Join(paddedLines, "\n") + "\n" + bottomLine
}

func (m Model) renderStatusBar() string {
	var content string

	if m.message != "" && m.now().Sub(m.messageTime) < messageTTL {
		var styledMessage string
		if m.isError {
			styledMessage = errorStyle.Render(m.message)
		} else {
			styledMessage = successStyle.Render(m.message)
		}
		content = " " + fitLine(styledMessage, max(m.width-2, 0)) + " "
	} else {
		var parts []string
		switch m.modal {
		case modalDetail:
			parts = append(parts,
				m.renderKey("↑↓", "scroll"),
				m.renderKey("c", "copy id"),
				m.renderKey("esc", "close"),
			)
		case modalLogin:
			parts = append(parts,
				m.renderKey("tab", "next field"),
				m.renderKey("enter", "submit"),
				m.renderKey("esc", "cancel"),
			)
		default:
			parts = append(parts,
				m.renderKey("↑↓", "navigate"),
				m.renderKey("1-7", "tabs"),
				m.renderKey("o", "order"),
				m.renderKey("s", "sort"),
				m.renderKey("R", "reload"),
				m.renderKey("enter", "details"),
				m.renderKey("c", "copy"),
			)
			if m.activeTable().feed.Err() != nil {
				parts = append(parts, m.renderKey("r", "retry"))
			}
		}
		parts = append(parts, m.renderKey("?", "help"), m.renderKey("q", "quit"))

		leftSide := strings.Join(parts, " ")
		content = " " + fitLine(leftSide, max(m.width-2, 0)) + " "
	}

	return statusBarStyle.Render(content)
}

func (m Model) renderKey(key, desc string) string {
	return helpKeyStyle.Render(key) + " " + helpDescStyle.Render(desc)
}

func (m Model) renderModal(background string) string {
	var content string

	switch m.modal {
	case modalHelp:
		content = m.renderHelpModal()
	case modalDetail:
		content = m.renderDetailModal()
	case modalLogin:
		content = m.renderLoginModal()
	}

	modalWidth := lipgloss.Width(content)
	modalHeight := lipgloss.Height(content)
	x := (m.width - modalWidth) / 2
	y := (m.height - modalHeight) / 2

	return placeOverlay(x, y, content, background)
}

// placeOverlay places the foreground string on top of the background string
// at position (x, y). Characters from fg replace characters in bg.
func placeOverlay(x, y int, fg, bg string) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")

	for i, fgLine := range fgLines {
		bgY := y + i
		if bgY < 0 || bgY >= len(bgLines) {
			continue
		}

		bgLine := bgLines[bgY]
		bgLineWidth := ansi.StringWidth(bgLine)

		var newLine strings.Builder

		if x > 0 {
			left := ansi.Truncate(bgLine, x, "")
			newLine.WriteString(left)
			leftWidth := ansi.StringWidth(left)
			if leftWidth < x {
				newLine.WriteString(strings.Repeat(" ", x-leftWidth))
			}
		}

		newLine.WriteString(fgLine)
		fgLineWidth := ansi.StringWidth(fgLine)

		rightStart := x + fgLineWidth
		if rightStart < bgLineWidth {
			newLine.WriteString(truncateLeft(bgLine, rightStart))
		}

		bgLines[bgY] = newLine.String()
	}

	return strings.Join(bgLines, "\n")
}

// truncateLeft removes the first n visual columns from a string,
// preserving ANSI escape sequences.
func truncateLeft(s string, n int) string {
	if n <= 0 {
		return s
	}

	var result strings.Builder
	width := 0
	inEscape := false
	escapeSeq := strings.Builder{}

	for _, r := range s {
		if inEscape {
			escapeSeq.WriteRune(r)
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
				// Past the cut, escape sequences still apply
				if width >= n {
					result.WriteString(escapeSeq.String())
				}
				escapeSeq.Reset()
			}
			continue
		}

		if r == '\x1b' {
			inEscape = true
			escapeSeq.WriteRune(r)
			continue
		}

		charWidth := 1
		if r > 127 {
			charWidth = ansi.StringWidth(string(r))
		}

		if width >= n {
			result.WriteRune(r)
		}
		width += charWidth
	}

	return result.String()
}

func (m Model) renderHelpModal() string {
	title := dialogTitleStyle.Render("Keyboard Shortcuts")
	body := m.help.View(keys)
	footer := helpDescStyle.Render("\n\npress esc or ? to close")
	return dialogStyle.Render(title + "\n\n" + body + footer)
}

func (m Model) renderDetailModal() string {
	title := dialogTitleStyle.Render(fmt.Sprintf("%s %s", m.detailRes, m.detailID))
	scroll := mutedStyle.Render(fmt.Sprintf("%3.0f%%", m.detail.ScrollPercent()*100))
	return dialogStyle.Render(title + "\n\n" + m.detail.View() + "\n" + scroll)
}

func (m Model) renderLoginModal() string {
	title := dialogTitleStyle.Render("Log in to " + m.client.BaseURL())
	help := helpDescStyle.Render("enter: next/submit • tab: switch field • esc: cancel")
	return dialogStyle.Render(title + "\n\n" + m.username.View() + "\n" + m.password.View() + "\n\n" + help)
}

// Start runs the TUI until the user quits
func Start(opts Options) error {
	telemetry.TUISessionStart()
	defer telemetry.TUISessionEnd()

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		m.close()
	}
	return err
}
