package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fleetdash/fleetdash/internal/api"
	"github.com/fleetdash/fleetdash/internal/feed"
	"github.com/fleetdash/fleetdash/internal/logging"
	"github.com/fleetdash/fleetdash/internal/store"
	"github.com/fleetdash/fleetdash/internal/telemetry"
)

const (
	wheelStep    = 3
	minFlexWidth = 8
)

// pageLoadedMsg carries a finished page fetch back to the update loop
type pageLoadedMsg struct {
	res     api.Resource
	result  feed.Result[api.Record]
	started time.Time
}

// rowsRefreshedMsg carries a re-read of the displayed rows of a live table
type rowsRefreshedMsg struct {
	res     api.Resource
	refresh feed.Refresh[api.Record]
}

// resumeMsg fires once a throttled load is allowed to start
type resumeMsg struct {
	res api.Resource
	gen uint64
}

// Table is one resource tab: an infinitely scrolling list of records
type Table struct {
	res     api.Resource
	feed    *feed.Feed[api.Record]
	scroll  ScrollState
	orderBy string
	sort    api.Sort

	// live tables re-read their rows every refresh interval
	live          bool
	refreshing    bool
	resumePending bool
}

func newTable(ctx context.Context, client *api.Client, res api.Resource, cfg feed.Config, pref *store.ViewPref) *Table {
	t := &Table{
		res:     res,
		orderBy: res.DefaultOrder(),
		sort:    api.Asc,
		live:    res == api.Device,
	}
	if pref != nil {
		if slices.Contains(res.Orderable(), pref.OrderBy) {
			t.orderBy = pref.OrderBy
		}
		if s, err := api.ParseSort(pref.Sort); err == nil {
			t.sort = s
		}
	}
	t.feed = feed.New[api.Record](ctx, t.pager(client), cfg)
	return t
}

func (t *Table) pager(client *api.Client) api.Pager {
	return api.Pager{Client: client, Resource: t.res, OrderBy: t.orderBy, Sort: t.sort}
}

func (t *Table) setVisibleRows(n int) {
	t.scroll.VisibleRows = max(n, 1)
	t.scroll.ClampToCount(t.feed.Count())
	t.scroll.SetCursorTo(t.scroll.Cursor)
}

// observe reports the viewport to the feed and returns the fetch it asks for.
// pull marks a key press past the last row.
func (t *Table) observe(now time.Time, pull bool) tea.Cmd {
	m := t.scroll.Metrics(t.feed.Count())
	var (
		ticket feed.Ticket
		ok     bool
	)
	if pull {
		_, ticket, ok = t.feed.Pull(m, now)
	} else {
		_, ticket, ok = t.feed.Scroll(m, now)
	}
	return t.follow(ticket, ok, now)
}

// follow turns a load decision into a command: the fetch itself, or a
// timer that resumes a throttled load.
func (t *Table) follow(ticket feed.Ticket, ok bool, now time.Time) tea.Cmd {
	if ok {
		return t.fetch(ticket, now)
	}
	wait, deferred := t.feed.Deferred(now)
	if !deferred || t.resumePending {
		return nil
	}
	t.resumePending = true
	res, gen := t.res, t.feed.Generation()
	return tea.Tick(wait, func(time.Time) tea.Msg {
		return resumeMsg{res: res, gen: gen}
	})
}

func (t *Table) fetch(ticket feed.Ticket, now time.Time) tea.Cmd {
	run := t.feed.Fetch(ticket)
	res := t.res
	logging.Logger.Debug("fetching page", "resource", res, "offset", ticket.Offset, "limit", ticket.Limit, "prefetch", ticket.Prefetch)
	return func() tea.Msg {
		return pageLoadedMsg{res: res, result: run(), started: now}
	}
}

func (t *Table) resume(msg resumeMsg, now time.Time) tea.Cmd {
	if msg.gen != t.feed.Generation() {
		return nil
	}
	t.resumePending = false
	_, ticket, ok := t.feed.Resume(t.scroll.Metrics(t.feed.Count()), now)
	return t.follow(ticket, ok, now)
}

// complete applies a finished page. It reports false for stale results.
// After a page lands the viewport is observed again, so a table shorter
// than the screen keeps loading until it is filled.
func (t *Table) complete(msg pageLoadedMsg, now time.Time) (tea.Cmd, bool) {
	n, ok := t.feed.Complete(msg.result)
	if !ok {
		return nil, false
	}
	if err := msg.result.Err; err != nil {
		logging.Logger.Warn("page load failed", "resource", t.res, "offset", msg.result.Ticket.Offset, "error", err)
		return nil, true
	}
	t.scroll.ClampToCount(t.feed.Count())
	telemetry.TUIPageLoaded(string(t.res), n, msg.result.Ticket.Prefetch, now.Sub(msg.started))
	return t.observe(now, false), true
}

// navigate handles cursor keys. The second result is false for other keys.
func (t *Table) navigate(msg tea.KeyMsg, now time.Time) (tea.Cmd, bool) {
	count := t.feed.Count()
	switch {
	case key.Matches(msg, keys.Up):
		t.scroll.Up()
	case key.Matches(msg, keys.Down):
		if !t.scroll.Down(count) {
			return t.observe(now, true), true
		}
	case key.Matches(msg, keys.PageUp):
		t.scroll.PageUp()
	case key.Matches(msg, keys.PageDown):
		if !t.scroll.PageDown(count) {
			return t.observe(now, true), true
		}
	case key.Matches(msg, keys.First):
		t.scroll.First()
	case key.Matches(msg, keys.Last):
		t.scroll.Last(count)
	default:
		return nil, false
	}
	return t.observe(now, false), true
}

// wheel scrolls the viewport by whole steps; scrolling down past the end pulls
func (t *Table) wheel(down bool, now time.Time) tea.Cmd {
	delta := -wheelStep
	if down {
		delta = wheelStep
	}
	if !t.scroll.ScrollBy(delta, t.feed.Count()) && down {
		return t.observe(now, true)
	}
	return t.observe(now, false)
}

// reset drops every loaded row and points the feed at a fresh pager
func (t *Table) reset(client *api.Client) {
	t.feed.Reset(t.pager(client))
	t.scroll.Reset()
	t.refreshing = false
	t.resumePending = false
}

// cycleOrder switches ordering to the next orderable column
func (t *Table) cycleOrder() {
	cols := t.res.Orderable()
	if len(cols) == 0 {
		return
	}
	i := slices.Index(cols, t.orderBy)
	t.orderBy = cols[(i+1)%len(cols)]
}

func (t *Table) toggleSort() {
	t.sort = t.sort.Toggle()
}

func (t *Table) retry(now time.Time) tea.Cmd {
	ticket, ok := t.feed.Retry(now)
	if !ok {
		return nil
	}
	return t.fetch(ticket, now)
}

// refresh re-reads the displayed rows of a live table
func (t *Table) refresh() tea.Cmd {
	if !t.live || t.refreshing || t.feed.Busy() {
		return nil
	}
	run, ok := t.feed.Refetch()
	if !ok {
		return nil
	}
	t.refreshing = true
	res := t.res
	return func() tea.Msg {
		return rowsRefreshedMsg{res: res, refresh: run()}
	}
}

func (t *Table) applyRefresh(msg rowsRefreshedMsg) {
	t.refreshing = false
	if msg.refresh.Err != nil {
		logging.Logger.Debug("refresh failed", "resource", t.res, "error", msg.refresh.Err)
		return
	}
	t.feed.ApplyRefresh(msg.refresh)
}

func (t *Table) selected() (api.Record, bool) {
	return t.feed.At(t.scroll.Cursor)
}

func (t *Table) viewPref() store.ViewPref {
	return store.ViewPref{Resource: string(t.res), OrderBy: t.orderBy, Sort: string(t.sort)}
}

func (t *Table) title() string {
	arrow := "▲"
	if t.sort == api.Desc {
		arrow = "▼"
	}
	return fmt.Sprintf("%s ─ %s %s", t.res.Title(), t.orderBy, arrow)
}

// View renders the column header, the visible rows and a footer line
func (t *Table) View(width int, now time.Time, spin string) string {
	cols := t.res.Columns()
	widths := layoutColumns(cols, width)

	var lines []string
	lines = append(lines, t.renderHeader(cols, widths))

	rows := t.feed.Visible()
	start, end := t.scroll.VisibleRange(len(rows))
	for i := start; i < end; i++ {
		lines = append(lines, renderRow(rows[i], cols, widths, now, i == t.scroll.Cursor))
	}
	if len(rows) == 0 && !t.feed.Busy() && t.feed.Err() == nil && !t.feed.HasMore() {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("No %s.", t.res.Plural())))
	}
	for len(lines) < t.scroll.VisibleRows+1 {
		lines = append(lines, "")
	}

	lines = append(lines, t.renderFooter(spin))
	return strings.Join(lines, "\n")
}

func (t *Table) renderHeader(cols []api.Column, widths []int) string {
	cells := make([]string, len(cols))
	for i, col := range cols {
		title := col.Title
		if col.Key == t.orderBy {
			if t.sort == api.Desc {
				title += "▼"
			} else {
				title += "▲"
			}
		}
		cells[i] = columnHeaderStyle.Render(fitCell(title, widths[i]))
	}
	return strings.Join(cells, " ")
}

func (t *Table) renderFooter(spin string) string {
	if err := t.feed.Err(); err != nil {
		return errorStyle.Render("Load failed: "+Sanitize(err.Error())) + mutedStyle.Render("  r to retry")
	}

	count, total := t.feed.Count(), t.feed.Total()
	var info string
	switch {
	case total >= 0 && !t.feed.HasMore():
		info = fmt.Sprintf("%d %s", total, t.res.Plural())
	case total >= 0:
		info = fmt.Sprintf("%d of %d", count, total)
	default:
		info = fmt.Sprintf("%d loaded", count)
	}
	if count > 0 {
		info = fmt.Sprintf("%d/%s", t.scroll.Cursor+1, info)
	}

	// Prefetches run silently; only loads the user is waiting on show a spinner
	if t.feed.Loading() {
		return spinnerStyle.Render(spin) + " " + mutedStyle.Render("Loading "+t.res.Plural()+"… "+info)
	}
	return mutedStyle.Render(info)
}

// layoutColumns gives fixed columns their width and splits what is left
// between flexible (zero width) columns. Columns are separated by one space.
func layoutColumns(cols []api.Column, width int) []int {
	widths := make([]int, len(cols))
	remaining := width - max(len(cols)-1, 0)
	flex := 0
	for i, col := range cols {
		if col.Width > 0 {
			widths[i] = col.Width
			remaining -= col.Width
		} else {
			flex++
		}
	}
	if flex == 0 {
		return widths
	}
	share := max(remaining/flex, minFlexWidth)
	for i, col := range cols {
		if col.Width == 0 {
			widths[i] = share
		}
	}
	return widths
}

func renderRow(rec api.Record, cols []api.Column, widths []int, now time.Time, selected bool) string {
	sep := " "
	if selected {
		sep = rowSelectedStyle.Render(sep)
	}
	cells := make([]string, len(cols))
	for i, col := range cols {
		text, style := formatCell(rec, col.Key, now)
		if selected {
			style = style.Background(selectionBg)
		}
		cells[i] = style.Render(fitCell(text, widths[i]))
	}
	return strings.Join(cells, sep)
}

// formatCell returns the display text of one field and how to style it
func formatCell(rec api.Record, key string, now time.Time) (string, lipgloss.Style) {
	value := Sanitize(rec.String(key))
	switch key {
	case "id":
		return value, idStyle
	case "status":
		return value, statusStyle(value)
	case "lastSeen", "lastLogin", "releasedAt":
		if value == "" {
			return "never", mutedStyle
		}
		ts, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return value, timeStyle
		}
		return formatRelativeTime(ts, now), timeStyle
	case "size":
		if n, ok := rec[key].(float64); ok {
			return formatSize(int64(n)), rowStyle
		}
	}
	return value, rowStyle
}

func formatRelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		m := int(d.Minutes())
		if m == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d min ago", m)
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		if h == 1 {
			return "1 hr ago"
		}
		return fmt.Sprintf("%d hr ago", h)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
