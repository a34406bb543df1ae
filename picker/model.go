// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

// Package picker is an interactive terminal screen to search and pick a place.
//
// Every change of the input sends one autocomplete request. Responses may
// arrive out of order, each carries the sequence number of its request and
// anything older than the results on screen is dropped.
package picker

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jcodagnone/places/history"
	"github.com/jcodagnone/places/places"
)

// Recorder stores the places picked by the user.
type Recorder interface {
	Record(ctx context.Context, pick *history.Pick) error
}

var _ Recorder = (history.Repository)(nil)

// Options of the picker.
type Options struct {
	Searcher places.Searcher

	// Recorder is optional
	Recorder Recorder

	// Autocomplete is the template of every autocomplete request, Input
	// and SessionToken are replaced.
	Autocomplete places.AutocompleteRequest

	// Details is the template of the details request, PlaceID and
	// SessionToken are replaced.
	Details places.DetailsRequest
}

type screen int

const (
	screenSearch screen = iota
	screenDetails
)

type predictionsMsg struct {
	seq         int
	predictions []places.Prediction
	err         error
}

type detailsMsg struct {
	details *places.PlaceDetails
	query   string
	err     error
}

type recordedMsg struct {
	err error
}

type predictionItem struct {
	prediction places.Prediction
}

func (i predictionItem) Title() string { return i.prediction.Title() }

func (i predictionItem) Description() string {
	if i.prediction.SecondaryText != "" {
		return i.prediction.SecondaryText
	}

	return i.prediction.Description
}

func (i predictionItem) FilterValue() string { return i.prediction.Description }

// Model is the bubbletea model of the picker.
type Model struct {
	ctx      context.Context
	searcher places.Searcher
	recorder Recorder
	template places.AutocompleteRequest
	details  places.DetailsRequest
	session  *places.Session

	input   textinput.Model
	list    list.Model
	spinner spinner.Model
	styles  Styles

	screen   screen
	seq      int // last request sent
	shown    int // request whose response is on screen
	fetching bool
	picked   *places.PlaceDetails
	status   string
	err      error
}

// New creates the picker. ctx bounds every request sent by the model.
func New(ctx context.Context, options *Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Search a place"
	ti.Prompt = "› "
	ti.CharLimit = 256
	ti.Focus()

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Results"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	styles := DefaultStyles()
	l.Styles.Title = styles.Title

	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		searcher: options.Searcher,
		recorder: options.Recorder,
		template: options.Autocomplete,
		details:  options.Details,
		session:  &places.Session{},
		input:    ti,
		list:     l,
		spinner:  s,
		styles:   styles,
	}
}

// Init starts the cursor and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Picked returns the last place whose details were shown, nil if none.
func (m Model) Picked() *places.PlaceDetails {
	return m.picked
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-4, 10)
		m.list.SetSize(msg.Width, max(msg.Height-6, 3))

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case predictionsMsg:
		m.handlePredictions(msg)

		return m, nil

	case detailsMsg:
		return m, m.handleDetails(msg)

	case recordedMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("recording pick: %w", msg.err)
		} else {
			m.status = "saved to history"
		}

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.screen == screenDetails {
		if msg.Type == tea.KeyEsc {
			m.screen = screenSearch
			m.status = ""
		}

		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		return m, m.fetchSelected()

	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)

		return m, cmd
	}

	before := m.input.Value()

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	if m.input.Value() == before {
		return m, cmd
	}

	return m, tea.Batch(cmd, m.inputChanged())
}

func (m *Model) inputChanged() tea.Cmd {
	m.seq++

	if strings.TrimSpace(m.input.Value()) == "" {
		// anything still in flight is older than the empty list
		m.shown = m.seq
		m.list.SetItems(nil)
		m.status = ""
		m.err = nil

		return nil
	}

	r := m.template
	r.Input = m.input.Value()
	r.SessionToken = m.session.Token()

	seq, ctx, searcher := m.seq, m.ctx, m.searcher

	return func() tea.Msg {
		predictions, err := searcher.Autocomplete(ctx, &r)

		return predictionsMsg{seq: seq, predictions: predictions, err: err}
	}
}

func (m *Model) handlePredictions(msg predictionsMsg) {
	if msg.seq <= m.shown {
		return
	}

	m.shown = msg.seq

	if msg.err != nil {
		m.err = msg.err

		return
	}

	items := make([]list.Item, len(msg.predictions))
	for i, p := range msg.predictions {
		items[i] = predictionItem{prediction: p}
	}

	m.list.SetItems(items)
	m.list.ResetSelected()
	m.err = nil

	switch len(items) {
	case 0:
		m.status = "no results"
	case 1:
		m.status = "1 result"
	default:
		m.status = fmt.Sprintf("%d results", len(items))
	}
}

func (m *Model) fetchSelected() tea.Cmd {
	item, ok := m.list.SelectedItem().(predictionItem)
	if !ok || m.fetching {
		return nil
	}

	m.fetching = true

	r := m.details
	r.PlaceID = item.prediction.PlaceID
	// the details request ends the session, the next keystroke starts another
	r.SessionToken = m.session.End()

	query, ctx, searcher := m.input.Value(), m.ctx, m.searcher

	return func() tea.Msg {
		details, err := searcher.Details(ctx, &r)

		return detailsMsg{details: details, query: query, err: err}
	}
}

func (m *Model) handleDetails(msg detailsMsg) tea.Cmd {
	m.fetching = false

	if msg.err != nil {
		m.err = msg.err

		return nil
	}

	m.err = nil
	m.status = ""
	m.picked = msg.details
	m.screen = screenDetails

	if m.recorder == nil {
		return nil
	}

	ctx, recorder, pick := m.ctx, m.recorder, history.NewPick(msg.details, msg.query)

	return func() tea.Msg {
		return recordedMsg{err: recorder.Record(ctx, pick)}
	}
}

func (m Model) loading() bool {
	return m.fetching || m.shown < m.seq
}

// View renders the screen.
func (m Model) View() string {
	var b strings.Builder

	if m.screen == screenDetails && m.picked != nil {
		b.WriteString(m.styles.Title.Render("Place"))
		b.WriteString("\n")
		b.WriteString(m.detailsView(m.picked))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("esc back • ctrl+c quit"))
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(m.list.View())
	}

	b.WriteString("\n")
	b.WriteString(m.statusView())

	return b.String()
}

func (m Model) detailsView(d *places.PlaceDetails) string {
	var b strings.Builder

	row := func(label, value string) {
		if value == "" {
			return
		}

		b.WriteString(m.styles.Label.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Name", d.Name)
	row("Address", d.FormattedAddress)
	row("Location", d.Location.Param())

	if d.Radius > 0 {
		row("Radius", fmt.Sprintf("%.0f m", d.Radius))
	}

	row("Types", strings.Join(d.Types, ", "))
	row("Place ID", d.PlaceID)

	for _, a := range d.Attributions {
		b.WriteString(m.styles.Muted.Render(a.Text))
		b.WriteString("\n")
	}

	return m.styles.Pane.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) statusView() string {
	if m.err != nil {
		return m.styles.Error.Render("error: " + m.err.Error())
	}

	if m.loading() {
		return m.styles.Status.Render(m.spinner.View() + " searching")
	}

	return m.styles.Status.Render(m.status)
}
