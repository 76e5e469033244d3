package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/teleprompter"
	"github.com/teranos/teleprompter/config"
	"github.com/teranos/teleprompter/injectors"
	"github.com/teranos/teleprompter/journal"
)

func testApp(t *testing.T) (AppModel, *injectors.Recorder, *journal.Journal) {
	t.Helper()
	j := journal.New(50)
	recorder := injectors.NewRecorder(nil)
	director := teleprompter.NewDirector(recorder, teleprompter.MessageTable{"from table"}).
		WithObserver(j).
		WithConfig(teleprompter.DirectorConfig{Slice: time.Millisecond})

	m := NewAppModel(context.Background(), director, j, config.Default())
	return m, recorder, j
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

func TestNewAppModel(t *testing.T) {
	m, _, _ := testApp(t)

	assert.Equal(t, FieldScript, m.Form().Focused())
	assert.Equal(t, "", m.Form().Value(FieldScript))
	assert.Equal(t, "3000", m.Form().Value(FieldStartDelay))
	assert.Equal(t, "2000", m.Form().Value(FieldLoopDelay))
	assert.Equal(t, "1", m.Form().Value(FieldLoops))
	assert.False(t, m.Running())
	assert.NotNil(t, m.Init())
}

func TestApp_TabCyclesFields(t *testing.T) {
	m, _, _ := testApp(t)

	want := []Field{FieldStartDelay, FieldLoopDelay, FieldLoops, FieldScript}
	for _, f := range want {
		m, _ = update(m, key(tea.KeyTab))
		assert.Equal(t, f, m.Form().Focused())
	}

	m, _ = update(m, key(tea.KeyShiftTab))
	assert.Equal(t, FieldLoops, m.Form().Focused())
}

func TestApp_TypingIntoFields(t *testing.T) {
	m, _, _ := testApp(t)

	m, _ = update(m, runes("hi{enter}"))
	assert.Equal(t, "hi{enter}", m.Form().Value(FieldScript))

	// numeric fields drop anything but digits
	m, _ = update(m, key(tea.KeyTab))
	m, _ = update(m, runes("5x"))
	m, _ = update(m, key(tea.KeySpace))
	m, _ = update(m, runes("7"))
	assert.Equal(t, "30007", m.Form().Value(FieldStartDelay))

	m, _ = update(m, key(tea.KeyBackspace))
	assert.Equal(t, "3000", m.Form().Value(FieldStartDelay))
}

func TestApp_F1ResetsFields(t *testing.T) {
	m, _, j := testApp(t)

	m, _ = update(m, runes("abc"))
	m, _ = update(m, key(tea.KeyTab))
	m, _ = update(m, runes("9"))

	m, _ = update(m, key(tea.KeyF1))
	assert.Equal(t, "", m.Form().Value(FieldScript))
	assert.Equal(t, "3000", m.Form().Value(FieldStartDelay))
	assert.Equal(t, FieldScript, m.Form().Focused())
	assert.Contains(t, j.Lines(), "F1: All fields reset to defaults.")
}

func TestApp_EnterRunsScript(t *testing.T) {
	m, recorder, j := testApp(t)

	m.form.SetValue(FieldScript, "ok {message1}")
	m.form.SetValue(FieldStartDelay, "0")
	m.form.SetValue(FieldLoopDelay, "0")
	m.form.SetValue(FieldLoops, "2")

	m, cmd := update(m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.True(t, m.Running())

	// a second Enter while running does not start another run
	m, again := update(m, key(tea.KeyEnter))
	assert.Nil(t, again)

	done, ok := cmd().(RunDoneMsg)
	require.True(t, ok)
	assert.True(t, done.Report.Completed)
	assert.Equal(t, strings.Repeat("ok from table", 2), recorder.Text())

	m, _ = update(m, done)
	assert.False(t, m.Running())
	assert.Same(t, done.Report, m.LastReport())
	assert.Contains(t, strings.Join(j.Lines(), "\n"), "All loops completed successfully.")
	assert.Contains(t, m.View(), "last run completed")
}

func TestApp_F2StopsRun(t *testing.T) {
	m, recorder, j := testApp(t)

	m.form.SetValue(FieldScript, "never typed")
	m.form.SetValue(FieldStartDelay, "5000")

	m, cmd := update(m, key(tea.KeyEnter))
	require.NotNil(t, cmd)

	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()

	require.Eventually(t, func() bool { return m.director.Running() }, time.Second, time.Millisecond)
	m, _ = update(m, key(tea.KeyF2))

	select {
	case msg := <-result:
		done := msg.(RunDoneMsg)
		assert.True(t, done.Report.Cancelled)
		assert.Equal(t, 0, done.Report.CancelledAt)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}

	assert.Empty(t, recorder.Events())
	assert.Contains(t, j.Lines(), "F2 pressed => STOP requested (before we start typing)")
}

func TestApp_F2BeforeRunStarts(t *testing.T) {
	m, recorder, j := testApp(t)

	m.form.SetValue(FieldScript, "never typed")
	m.form.SetValue(FieldStartDelay, "0")

	m, cmd := update(m, key(tea.KeyEnter))
	require.NotNil(t, cmd)

	// F2 lands before the command has entered Execute
	m, _ = update(m, key(tea.KeyF2))
	assert.Contains(t, j.Lines(), "F2 pressed => STOP requested (before we start typing)")

	done := cmd().(RunDoneMsg)
	assert.True(t, done.Report.Cancelled)
	assert.False(t, done.Report.Completed)
	assert.Empty(t, recorder.Events())

	m, _ = update(m, done)
	assert.False(t, m.Running())
	assert.Contains(t, m.View(), "stopped at loop 0")
}

func TestApp_F2WhenIdle(t *testing.T) {
	m, _, j := testApp(t)
	update(m, key(tea.KeyF2))
	assert.Contains(t, j.Lines(), "F2: Stop requested => Will abort typing if in progress.")
}

func TestApp_F3Captures(t *testing.T) {
	m, _, j := testApp(t)
	path := filepath.Join(t.TempDir(), "shot.png")
	m = m.WithCapturePath(path)

	j.Observe("SIM: Loop 1/1 begin")
	m, cmd := update(m, key(tea.KeyF3))
	require.NotNil(t, cmd)

	m, _ = update(m, cmd())
	_, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Contains(t, j.Lines(), "F3: Transcript saved to "+path)
}

func TestApp_LogEntriesKeepListening(t *testing.T) {
	m, _, j := testApp(t)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	j.Observe("WARN: No key for '\\t' (U+0009)")
	msg := WaitForLogCmd(m.entries)()
	entry, ok := msg.(LogEntryMsg)
	require.True(t, ok)
	assert.Equal(t, "WARN: No key for '\\t' (U+0009)", entry.Entry.Line)

	m, cmd := update(m, entry)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "No key for")
}

func TestApp_CtrlCQuits(t *testing.T) {
	m, _, _ := testApp(t)

	_, cmd := update(m, key(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	// the subscription is closed
	_, open := <-m.entries
	assert.False(t, open)
}

func TestFormModel_RunConfig(t *testing.T) {
	f := NewFormModel(config.Default())
	f.SetValue(FieldScript, "x")
	f.SetValue(FieldStartDelay, "")
	f.SetValue(FieldLoopDelay, "250")
	f.SetValue(FieldLoops, "0")

	rc := f.RunConfig()
	assert.Equal(t, "x", rc.Script)
	assert.Equal(t, 1, rc.Loops, "loops below one are clamped")
	assert.Equal(t, time.Duration(0), rc.StartDelay)
	assert.Equal(t, 250*time.Millisecond, rc.LoopDelay)
}

func TestStyleForLine(t *testing.T) {
	assert.Equal(t, LogWarnStyle, styleForLine("WARN: something"))
	assert.Equal(t, LogErrorStyle, styleForLine("ERROR: nesting"))
	assert.Equal(t, LogKeyStyle, styleForLine("F1: All fields reset to defaults."))
	assert.Equal(t, LogSimStyle, styleForLine("SIM: Loop 1/1 begin"))
	assert.Equal(t, LogSimStyle, styleForLine("no tag at all"))
}
