package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wishx/internal/actions"
	"github.com/desertthunder/wishx/internal/formatter"
	"github.com/desertthunder/wishx/internal/models"
	"github.com/desertthunder/wishx/internal/services"
	"github.com/desertthunder/wishx/internal/views"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	ItemsView
	ContributeView
	ErrorView
)

// Viewer mounts the public wishlist. [views.Manager] satisfies it.
type Viewer interface {
	MountPublic(ctx context.Context, slug string) (*models.Wishlist, error)
	Item(id string) (models.Item, error)
	Refresh()
}

// Actions performs public actions. [actions.Coordinator] satisfies it.
type Actions interface {
	Reserve(ctx context.Context, slug string, item models.Item) error
	Unreserve(ctx context.Context, slug string, item models.Item) error
	Contribute(ctx context.Context, slug string, item models.Item, amount models.Amount) error
	Policy() actions.Policy
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	slug     string
	viewer   Viewer
	actions  Actions
	events   <-chan views.Event
	view     ViewState
	wishlist *models.Wishlist
	live     bool
	items    list.Model
	ready    bool
	input    textinput.Model
	target   models.Item
	status   string
	failed   bool
	busy     bool
	err      error
	width    int
	height   int
	help     help.Model
	keys     keyMap
}

// NewModel creates a live viewer for the public wishlist at slug. events should
// be the channel the viewer publishes to.
func NewModel(ctx context.Context, slug string, viewer Viewer, acts Actions, events <-chan views.Event) *Model {
	input := textinput.New()
	input.Prompt = "Amount: "
	input.CharLimit = 12

	return &Model{
		ctx:     ctx,
		slug:    slug,
		viewer:  viewer,
		actions: acts,
		events:  events,
		view:    LoadingView,
		input:   input,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init mounts the wishlist and starts listening for view updates.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.mount(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.ready {
			m.items.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ItemsView:
			return m.handleItemKeys(msg)
		case ContributeView:
			return m.handleContributeKeys(msg)
		default:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgMounted:
		data := msg.data.(mounted)
		if data.err != nil {
			m.err = data.err
			m.view = ErrorView
			return m, nil
		}
		m.setWishlist(data.wishlist)
		m.view = ItemsView
		return m, nil

	case MsgViewUpdated:
		ev := msg.data.(views.Event)
		if ev.Slug == m.slug {
			m.live = ev.Live
			if ev.Wishlist != nil {
				m.setWishlist(ev.Wishlist)
				if m.view == LoadingView {
					m.view = ItemsView
				}
			}
			if ev.Err != nil && !ev.Loading {
				m.setStatus("⚠ refresh failed: "+errorText(ev.Err), true)
			}
		}
		return m, m.waitForEvent()

	case MsgActionDone:
		data := msg.data.(actionDone)
		m.busy = false
		if data.err != nil {
			m.setStatus(fmt.Sprintf("✗ %s %s: %s", data.action, data.item, errorText(data.err)), true)
		} else {
			m.setStatus(fmt.Sprintf("✓ %s %s", data.action, data.item), false)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleItemKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.viewer.Refresh()
		return m, nil
	case key.Matches(msg, m.keys.reserve), key.Matches(msg, m.keys.unreserve), key.Matches(msg, m.keys.contribute):
		if m.busy {
			return m, nil
		}
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.startAction(msg, item)
	}

	return m.updateList(msg)
}

func (m *Model) startAction(msg tea.KeyMsg, item models.Item) tea.Cmd {
	ctx, slug := m.ctx, m.slug

	switch {
	case key.Matches(msg, m.keys.reserve):
		if !actions.CanReserve(item) {
			m.setStatus("⚠ "+item.Name+" is already reserved", true)
			return nil
		}
		return m.act("Reserved", item, func() error { return m.actions.Reserve(ctx, slug, item) })

	case key.Matches(msg, m.keys.unreserve):
		if !actions.CanUnreserve(item) {
			m.setStatus("⚠ you have not reserved "+item.Name, true)
			return nil
		}
		return m.act("Unreserved", item, func() error { return m.actions.Unreserve(ctx, slug, item) })

	default:
		if !actions.CanContribute(item, m.actions.Policy()) {
			m.setStatus("⚠ "+item.Name+" does not take contributions", true)
			return nil
		}
		m.target = item
		m.view = ContributeView
		m.input.Reset()
		m.input.Placeholder = "up to " + formatter.Money(item.Remaining())
		m.setStatus("", false)
		return m.input.Focus()
	}
}

func (m *Model) handleContributeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.input.Blur()
		m.view = ItemsView
		return m, nil
	case tea.KeyEnter:
		amount, err := models.ParseAmount(m.input.Value())
		if err == nil {
			err = actions.ValidateAmount(m.target, amount)
		}
		if err != nil {
			m.setStatus("✗ "+err.Error(), true)
			return m, nil
		}

		m.input.Blur()
		m.view = ItemsView
		ctx, slug, item := m.ctx, m.slug, m.target
		return m, m.act("Contributed "+formatter.Money(amount)+" to", item, func() error {
			return m.actions.Contribute(ctx, slug, item, amount)
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// act runs fn off the update loop and reports back with [MsgActionDone].
func (m *Model) act(label string, item models.Item, fn func() error) tea.Cmd {
	m.busy = true
	m.setStatus("→ "+item.Name+"...", false)
	return func() tea.Msg {
		return actionDoneMsg(label, item.Name, fn())
	}
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.ready || m.view != ItemsView {
		return m, nil
	}
	var cmd tea.Cmd
	m.items, cmd = m.items.Update(msg)
	return m, cmd
}

// selected returns the highlighted item with the freshest data the view has.
func (m *Model) selected() (models.Item, bool) {
	if !m.ready {
		return models.Item{}, false
	}
	entry, ok := m.items.SelectedItem().(itemEntry)
	if !ok {
		return models.Item{}, false
	}
	if item, err := m.viewer.Item(entry.item.ID); err == nil {
		return item, true
	}
	return entry.item, true
}

func (m *Model) setWishlist(w *models.Wishlist) {
	m.wishlist = w
	if !m.ready {
		m.items = list.New(itemEntries(w.Items), list.NewDefaultDelegate(), 0, 0)
		m.items.SetShowHelp(false)
		m.items.SetSize(max(m.width-4, 40), max(m.height-8, 10))
		m.ready = true
	} else {
		m.items.SetItems(itemEntries(w.Items))
	}
	m.items.Title = w.Name
}

func (m *Model) setStatus(s string, failed bool) {
	m.status, m.failed = s, failed
}

func (m *Model) mount() tea.Cmd {
	return func() tea.Msg {
		w, err := m.viewer.MountPublic(m.ctx, m.slug)
		return mountedMsg(w, err)
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return viewUpdatedMsg(ev)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return styles.help.Render(fmt.Sprintf("Loading /w/%s...", m.slug))
	case ErrorView:
		return styles.err.Render(fmt.Sprintf("Error: %s\n\nPress q to quit", errorText(m.err)))
	case ContributeView:
		return m.renderContribute()
	default:
		return m.renderItems()
	}
}

func (m *Model) renderItems() string {
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", m.renderHeader(), m.items.View(), m.renderStatus(), m.help.View(m.keys))
}

func (m *Model) renderHeader() string {
	header := styles.title.Render(m.wishlist.Name)
	if m.wishlist.Occasion != "" {
		header += "\n" + m.wishlist.Occasion
	}
	if m.live {
		return header + "  " + styles.live.Render("● live")
	}
	return header + "  " + styles.warn.Render("○ offline")
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.failed {
		return styles.err.Render(m.status)
	}
	return styles.ok.Render(m.status)
}

func (m *Model) renderContribute() string {
	title := styles.title.Render("Contribute to " + m.target.Name)
	info := fmt.Sprintf("%s\nRemaining: %s\n",
		formatter.ProgressBar(m.target.DisplayProgress(), 20),
		formatter.Money(m.target.Remaining()),
	)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.back})
	return fmt.Sprintf("%s\n%s\n%s\n%s\n\n%s", title, info, m.input.View(), m.renderStatus(), helpView)
}

// errorText prefers the backend's message over the wrapped error chain.
func errorText(err error) string {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
