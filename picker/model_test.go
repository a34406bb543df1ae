// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package picker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jcodagnone/places/history"
	"github.com/jcodagnone/places/places"
	"github.com/jcodagnone/places/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	mu           sync.Mutex
	autocomplete []places.AutocompleteRequest
	details      []places.DetailsRequest
	err          error
}

func (f *fakeSearcher) Autocomplete(_ context.Context, r *places.AutocompleteRequest) ([]places.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.autocomplete = append(f.autocomplete, *r)
	if f.err != nil {
		return nil, f.err
	}

	return []places.Prediction{
		{PlaceID: "id-" + r.Input + "-1", MainText: "Plaza " + r.Input, SecondaryText: "Montevideo, Uruguay"},
		{PlaceID: "id-" + r.Input + "-2", MainText: "Calle " + r.Input, SecondaryText: "Canelones, Uruguay"},
	}, nil
}

func (f *fakeSearcher) Details(_ context.Context, r *places.DetailsRequest) (*places.PlaceDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.details = append(f.details, *r)
	if f.err != nil {
		return nil, f.err
	}

	return &places.PlaceDetails{
		PlaceID:          r.PlaceID,
		Name:             "Plaza Independencia",
		FormattedAddress: "11000 Montevideo, Uruguay",
		Location:         spatial.Point{Lat: -34.906559, Lng: -56.199483},
		Radius:           207,
		Attributions:     []places.Attribution{{Text: "Listings by Example"}},
	}, nil
}

type fakeRecorder struct {
	picks []*history.Pick
	err   error
}

func (f *fakeRecorder) Record(_ context.Context, pick *history.Pick) error {
	f.picks = append(f.picks, pick)

	return f.err
}

func newTestModel(t *testing.T, searcher *fakeSearcher, recorder Recorder) Model {
	t.Helper()

	m := New(context.Background(), &Options{
		Searcher:     searcher,
		Recorder:     recorder,
		Autocomplete: places.AutocompleteRequest{Language: "es", Countries: []string{"uy"}},
		Details:      places.DetailsRequest{Language: "es"},
	})
	// a blinking cursor returns commands that wait for the blink interval
	m.input.Cursor.SetMode(cursor.CursorStatic)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	return updated.(Model)
}

// run executes cmd and the commands it batches, returning their messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}

	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, run(c)...)
		}

		return msgs
	}

	return []tea.Msg{msg}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	updated, cmd := m.Update(msg)
	model, ok := updated.(Model)
	require.True(t, ok)

	return model, cmd
}

func typeText(t *testing.T, m Model, text string) (Model, []tea.Cmd) {
	t.Helper()

	var cmds []tea.Cmd

	for _, r := range text {
		var cmd tea.Cmd
		m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		cmds = append(cmds, cmd)
	}

	return m, cmds
}

// deliver runs cmd and feeds every message back into the model.
func deliver(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()

	for _, msg := range run(cmd) {
		m, _ = update(t, m, msg)
	}

	return m
}

func titles(m Model) []string {
	var out []string
	for _, item := range m.list.Items() {
		out = append(out, item.(predictionItem).Title())
	}

	return out
}

func TestOneRequestPerInputChange(t *testing.T) {
	searcher := &fakeSearcher{}
	m := newTestModel(t, searcher, nil)

	m, cmds := typeText(t, m, "sol")
	require.Len(t, cmds, 3)

	for _, cmd := range cmds {
		m = deliver(t, m, cmd)
	}

	require.Len(t, searcher.autocomplete, 3)
	assert.Equal(t, "s", searcher.autocomplete[0].Input)
	assert.Equal(t, "sol", searcher.autocomplete[2].Input)
	assert.Equal(t, "es", searcher.autocomplete[2].Language)
	assert.Equal(t, []string{"uy"}, searcher.autocomplete[2].Countries)

	token := searcher.autocomplete[0].SessionToken
	assert.NotEmpty(t, token)

	for _, r := range searcher.autocomplete {
		assert.Equal(t, token, r.SessionToken, "same session while typing")
	}

	assert.Equal(t, []string{"Plaza sol", "Calle sol"}, titles(m))
	assert.Contains(t, m.View(), "Plaza sol")
	assert.Contains(t, m.View(), "2 results")

	// a key that doesn't change the input sends nothing
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Empty(t, run(cmd))
	assert.Len(t, searcher.autocomplete, 3)
}

func TestStaleResponsesAreDropped(t *testing.T) {
	searcher := &fakeSearcher{}
	m := newTestModel(t, searcher, nil)

	m, cmds := typeText(t, m, "ab")
	require.Len(t, cmds, 2)

	// the newest response arrives first
	m = deliver(t, m, cmds[1])
	assert.Equal(t, []string{"Plaza ab", "Calle ab"}, titles(m))

	m = deliver(t, m, cmds[0])
	assert.Equal(t, []string{"Plaza ab", "Calle ab"}, titles(m), "older response ignored")
	assert.False(t, m.loading())
}

func TestClearingInputClearsList(t *testing.T) {
	searcher := &fakeSearcher{}
	m := newTestModel(t, searcher, nil)

	m, cmds := typeText(t, m, "a")
	m = deliver(t, m, cmds[0])
	require.Len(t, m.list.Items(), 2)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Empty(t, run(cmd), "no request for an empty input")
	assert.Empty(t, m.list.Items())
	assert.Len(t, searcher.autocomplete, 1)
}

func TestClearingInputDropsInFlightResponses(t *testing.T) {
	searcher := &fakeSearcher{}
	m := newTestModel(t, searcher, nil)

	m, cmds := typeText(t, m, "a")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})

	m = deliver(t, m, cmds[0])
	assert.Empty(t, m.list.Items())
}

func TestEnterShowsDetailsAndRecordsPick(t *testing.T) {
	searcher := &fakeSearcher{}
	recorder := &fakeRecorder{}
	m := newTestModel(t, searcher, recorder)

	m, cmds := typeText(t, m, "in")
	for _, cmd := range cmds {
		m = deliver(t, m, cmd)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msgs := run(cmd)
	require.Len(t, msgs, 1)

	m, cmd = update(t, m, msgs[0])

	require.Len(t, searcher.details, 1)
	assert.Equal(t, "id-in-2", searcher.details[0].PlaceID)
	assert.Equal(t, "es", searcher.details[0].Language)
	assert.Equal(t, searcher.autocomplete[0].SessionToken, searcher.details[0].SessionToken)

	view := m.View()
	assert.Contains(t, view, "Plaza Independencia")
	assert.Contains(t, view, "-34.906559,-56.199483")
	assert.Contains(t, view, "207 m")
	assert.Contains(t, view, "Listings by Example")
	require.NotNil(t, m.Picked())

	m = deliver(t, m, cmd)
	require.Len(t, recorder.picks, 1)
	assert.Equal(t, "id-in-2", recorder.picks[0].PlaceID)
	assert.Equal(t, "in", recorder.picks[0].Query)
	assert.Contains(t, m.View(), "saved to history")

	// back to the list, the next keystroke starts a new session
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenSearch, m.screen)
	assert.Contains(t, m.View(), "Plaza in")

	m, cmds = typeText(t, m, "g")
	_ = deliver(t, m, cmds[0])

	require.Len(t, searcher.autocomplete, 3)
	assert.Equal(t, "ing", searcher.autocomplete[2].Input)
	assert.NotEqual(t, searcher.details[0].SessionToken, searcher.autocomplete[2].SessionToken)
}

func TestEnterWithoutResults(t *testing.T) {
	m := newTestModel(t, &fakeSearcher{}, nil)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestErrorsGoToStatusLine(t *testing.T) {
	searcher := &fakeSearcher{}
	m := newTestModel(t, searcher, nil)

	m, cmds := typeText(t, m, "a")
	m = deliver(t, m, cmds[0])

	searcher.err = &places.Error{Type: places.ErrorTypeRateLimit, Message: "over query limit"}

	m, cmds = typeText(t, m, "b")
	m = deliver(t, m, cmds[0])

	assert.Contains(t, m.View(), "error: over query limit")
	assert.Equal(t, []string{"Plaza a", "Calle a"}, titles(m), "list untouched")

	searcher.err = nil

	m, cmds = typeText(t, m, "c")
	m = deliver(t, m, cmds[0])
	assert.NotContains(t, m.View(), "error:")
}

func TestRecorderErrorIsShown(t *testing.T) {
	searcher := &fakeSearcher{}
	recorder := &fakeRecorder{err: errors.New("disk full")}
	m := newTestModel(t, searcher, recorder)

	m, cmds := typeText(t, m, "a")
	m = deliver(t, m, cmds[0])

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = deliver(t, m, cmd)

	assert.Equal(t, screenDetails, m.screen)
	assert.Contains(t, m.View(), "recording pick: disk full")
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, &fakeSearcher{}, nil)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)

	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestInitialView(t *testing.T) {
	m := newTestModel(t, &fakeSearcher{}, nil)

	view := m.View()
	assert.Contains(t, view, "›")
	assert.Contains(t, view, "Results")
}
