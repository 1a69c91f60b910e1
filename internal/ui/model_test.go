package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/levelwise/levelwise/internal/media"
)

func TestNewModel(t *testing.T) {
	m := NewModel([]string{"a.wav", "b.wav"})
	if m.TotalFiles != 2 || len(m.Files) != 2 {
		t.Fatalf("model = %+v", m)
	}
	if m.CurrentIndex != -1 {
		t.Errorf("CurrentIndex = %d, want -1 before any file starts", m.CurrentIndex)
	}
	for _, f := range m.Files {
		if f.Status != StatusQueued {
			t.Errorf("status = %v, want queued", f.Status)
		}
	}
	// All messages arrive via Program.Send; nothing to schedule up front.
	if cmd := m.Init(); cmd != nil {
		t.Error("Init should return no command")
	}
}

func TestModelUpdate(t *testing.T) {
	step := func(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
		t.Helper()
		next, cmd := m.Update(msg)
		return next.(Model), cmd
	}

	t.Run("file lifecycle", func(t *testing.T) {
		m := NewModel([]string{"a.wav", "b.wav"})

		m, cmd := step(t, m, FileStartMsg{FileIndex: 0, FileName: "a.wav"})
		if cmd != nil {
			t.Error("progress arrives via Send, no follow-up command expected")
		}
		if m.Files[0].Status != StatusMeasuring {
			t.Errorf("status = %v, want measuring", m.Files[0].Status)
		}

		m, _ = step(t, m, ProgressMsg{Pass: 2, PassName: "Normalising", Progress: 0.5})
		if m.Files[0].Status != StatusNormalising || m.Files[0].Progress != 0.5 {
			t.Errorf("file = %+v", m.Files[0])
		}

		result := &media.Result{InputPath: "a.wav", OutputPath: "out/a.wav"}
		m, _ = step(t, m, FileCompleteMsg{FileIndex: 0, Result: result})
		if m.Files[0].Status != StatusComplete || m.Files[0].OutputPath != "out/a.wav" {
			t.Errorf("file = %+v", m.Files[0])
		}
		if m.CompletedFiles != 1 || m.FailedFiles != 0 {
			t.Errorf("completed = %d, failed = %d", m.CompletedFiles, m.FailedFiles)
		}
	})

	t.Run("failed file counted separately", func(t *testing.T) {
		m := NewModel([]string{"a.wav"})
		m, _ = step(t, m, FileStartMsg{FileIndex: 0, FileName: "a.wav"})
		m, _ = step(t, m, FileCompleteMsg{FileIndex: 0, Error: errors.New("no audio streams")})
		if m.Files[0].Status != StatusError {
			t.Errorf("status = %v, want error", m.Files[0].Status)
		}
		if m.FailedFiles != 1 || m.CompletedFiles != 0 {
			t.Errorf("completed = %d, failed = %d", m.CompletedFiles, m.FailedFiles)
		}
	})

	t.Run("all complete quits", func(t *testing.T) {
		m := NewModel([]string{"a.wav"})
		m, cmd := step(t, m, AllCompleteMsg{})
		if !m.Done {
			t.Error("model should be done")
		}
		if cmd == nil {
			t.Fatal("expected a quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("command should quit the program")
		}
	})

	t.Run("key quit", func(t *testing.T) {
		m := NewModel([]string{"a.wav"})
		_, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		if cmd == nil {
			t.Fatal("expected a quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("q should quit the program")
		}
	})
}
