package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/meur/vgcatalog/internal/viewstate"
)

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Search key.Binding
	Clear  key.Binding
	Reload key.Binding
	Quit   key.Binding
	Submit key.Binding
	Cancel key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next:   key.NewBinding(key.WithKeys("n", "right", "l"), key.WithHelp("n/→", "next page")),
		Prev:   key.NewBinding(key.WithKeys("p", "left", "h"), key.WithHelp("p/←", "prev page")),
		Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear filters")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Submit: key.NewBinding(key.WithKeys("enter")),
		Cancel: key.NewBinding(key.WithKeys("esc")),
	}
}

func (k keyMap) help() string {
	parts := []string{"1-8 sort column"}
	for _, b := range []key.Binding{k.Next, k.Prev, k.Search, k.Clear, k.Reload, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

type stateMsg viewstate.ViewState

type errMsg struct{ err error }

// browseModel drives the controller from key presses. Every transition
// runs as a command; the controller decides which response is rendered.
type browseModel struct {
	ctx       context.Context
	ctrl      *viewstate.Controller
	state     viewstate.ViewState
	keys      keyMap
	search    textinput.Model
	searching bool
	err       error
}

func newBrowseModel(ctx context.Context, ctrl *viewstate.Controller, st viewstate.ViewState) browseModel {
	ti := textinput.New()
	ti.Prompt = "search: "
	ti.Placeholder = "name, platform, genre, publisher, year..."
	ti.SetValue(st.Request.General)
	return browseModel{ctx: ctx, ctrl: ctrl, state: st, keys: defaultKeyMap(), search: ti}
}

func (m browseModel) dispatch(t viewstate.Transition) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return stateMsg(ctrl.Dispatch(ctx, t))
	}
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		// Results of overtaken commands arrive late; never move backwards.
		if newer(viewstate.ViewState(msg), m.state) {
			m.state = viewstate.ViewState(msg)
			if m.state.Status == viewstate.Loaded {
				m.err = nil
			}
		}
		return m, nil
	case errMsg:
		m.err = msg.err
		return m, nil
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m browseModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.searching = false
		m.search.Blur()
		return m, m.dispatch(viewstate.Search(m.search.Value()))
	case key.Matches(msg, m.keys.Cancel):
		m.searching = false
		m.search.Blur()
		m.search.SetValue(m.state.Request.General)
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m browseModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.state.Request.Page
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		if page < m.state.Pages() {
			return m, m.dispatch(viewstate.GoToPage(page + 1))
		}
	case key.Matches(msg, m.keys.Prev):
		if page > 1 {
			return m, m.dispatch(viewstate.GoToPage(page - 1))
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Clear):
		m.search.SetValue("")
		return m, m.dispatch(viewstate.ClearFilters())
	case key.Matches(msg, m.keys.Reload):
		return m, m.dispatch(viewstate.Reload())
	default:
		if col, ok := columnForKey(msg.String()); ok {
			return m, m.dispatch(viewstate.ClickColumn(col))
		}
	}
	return m, nil
}

func newer(a, b viewstate.ViewState) bool {
	if a.Seq != b.Seq {
		return a.Seq > b.Seq
	}
	return a.Status != viewstate.Loading || b.Status == viewstate.Loading
}

func columnForKey(k string) (string, bool) {
	if len(k) != 1 || k[0] < '1' || k[0] > '9' {
		return "", false
	}
	i := int(k[0] - '1')
	if i >= len(columns) {
		return "", false
	}
	return columns[i], true
}

func (m browseModel) View() string {
	var b strings.Builder
	b.WriteString(renderPage(m.state))
	b.WriteByte('\n')
	if m.state.Status == viewstate.Loading {
		b.WriteString(mutedStyle.Render("loading..."))
		b.WriteByte('\n')
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("✗ " + m.err.Error()))
		b.WriteByte('\n')
	}
	if m.searching {
		b.WriteString(m.search.View())
		b.WriteByte('\n')
	}
	b.WriteString(mutedStyle.Render("?" + viewstate.Encode(m.state)))
	b.WriteByte('\n')
	b.WriteString(mutedStyle.Render(m.keys.help()))
	return b.String()
}

// runInteractive restores the listing from rawQuery and hands the terminal
// to the browse loop until the user quits. The final URL is returned so it
// can be shared.
func runInteractive(ctx context.Context, api viewstate.Backend, opts viewstate.Options, rawQuery string) (string, error) {
	var prog *tea.Program
	send := func(msg tea.Msg) {
		if prog != nil {
			prog.Send(msg)
		}
	}
	opts.Notify = func(err error) { send(errMsg{err}) }
	opts.OnChange = func(v viewstate.ViewState) { send(stateMsg(v)) }

	ctrl := viewstate.NewController(api, opts)
	st, err := ctrl.Restore(ctx, rawQuery)
	if err != nil {
		return "", err
	}
	prog = tea.NewProgram(newBrowseModel(ctx, ctrl, st), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil {
		return "", err
	}
	return ctrl.URL(), nil
}
