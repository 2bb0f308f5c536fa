package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sells-group/contact-cli/internal/export"
	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/pipeline"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return out, cmd
}

func TestNew(t *testing.T) {
	m := New(context.Background(), Handlers{}, "empresas.csv", 2)

	if m.running {
		t.Error("Expected running to be false initially")
	}
	if len(m.table.Rows()) != 0 {
		t.Errorf("Expected no rows initially, got %d", len(m.table.Rows()))
	}
	if !strings.Contains(m.status, "empresas.csv (2 empresas)") {
		t.Errorf("Unexpected initial status %q", m.status)
	}
}

func TestProcessKey(t *testing.T) {
	var calls int
	h := Handlers{Process: func(context.Context) (model.RunStatistics, error) {
		calls++
		return model.RunStatistics{Total: 2, Processed: 2, WithData: 2}, nil
	}}
	m := New(context.Background(), h, "empresas.csv", 2)

	m, cmd := update(t, m, key("p"))
	if !m.running {
		t.Fatal("Expected running after p")
	}
	if cmd == nil {
		t.Fatal("Expected a command after p")
	}

	// A second p while running does not start another run.
	m, again := update(t, m, key("p"))
	if again != nil {
		t.Error("Expected no command while running")
	}
	if !strings.Contains(m.status, "já em andamento") {
		t.Errorf("Unexpected status %q", m.status)
	}

	msg := cmd()
	if calls != 1 {
		t.Errorf("Expected Process to be called once, got %d", calls)
	}
	m, _ = update(t, m, msg)
	if m.running {
		t.Error("Expected running to be false after the run finishes")
	}
	if !strings.Contains(m.status, "Sucesso: 2") {
		t.Errorf("Unexpected summary %q", m.status)
	}
}

func TestProcessKeyWithoutSubjects(t *testing.T) {
	h := Handlers{Process: func(context.Context) (model.RunStatistics, error) {
		t.Fatal("Process must not run without subjects")
		return model.RunStatistics{}, nil
	}}
	m := New(context.Background(), h, "vazio.csv", 0)

	m, cmd := update(t, m, key("p"))
	if cmd != nil || m.running {
		t.Error("Expected p to be ignored without subjects")
	}
}

func TestEvents(t *testing.T) {
	m := New(context.Background(), Handlers{}, "empresas.csv", 3)
	m.running = true

	events := []pipeline.Event{
		pipeline.StartEvent{Name: "Padaria Central"},
		pipeline.ProgressEvent{Current: 1, Total: 3, Percent: 33},
		pipeline.CompleteEvent{Name: "Padaria Central", Status: model.StatusFound, Record: model.ContactRecord{
			SubjectName: "Padaria Central",
			Phone:       "(19) 3862-1234",
			SocialLink:  "https://www.facebook.com/padariacentral",
			Email:       "contato@padariacentral.com.br",
		}},
		pipeline.ChallengeEvent{Name: "Loja XYZ", Message: "captcha"},
		pipeline.ErrorEvent{Name: "Loja XYZ", Status: model.StatusChallenge, Message: "challenge unresolved"},
		pipeline.ErrorEvent{Name: "Mercado", Status: model.StatusError, Message: "CAPTCHA: looks like one but is an error"},
	}
	for _, ev := range events {
		m, _ = update(t, m, EventMsg{Event: ev})
	}

	rows := m.table.Rows()
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0][1] != "(19) 3862-1234" || rows[0][2] != "Link FB" || rows[0][3] != "Tel✓ | FB✓ | Email✓" {
		t.Errorf("Unexpected first row %v", rows[0])
	}
	if rows[1][3] != "🤖 CAPTCHA" {
		t.Errorf("Expected captcha row, got %v", rows[1])
	}
	if rows[2][1] != "—" || rows[2][3] != "❌ Erro" {
		t.Errorf("Expected error row, got %v", rows[2])
	}
	if m.progressText != "Progresso: 1/3 (33%)" {
		t.Errorf("Unexpected progress text %q", m.progressText)
	}
	if m.percent != 0.33 {
		t.Errorf("Expected percent 0.33, got %v", m.percent)
	}
}

func TestStatusText(t *testing.T) {
	if got := statusText(model.ContactRecord{}); got != "Sem dados" {
		t.Errorf("Expected Sem dados, got %q", got)
	}
	got := statusText(model.ContactRecord{Website: "x", MessagingNumber: "y"})
	if got != "Site✓ | WhatsApp✓" {
		t.Errorf("Unexpected status %q", got)
	}
}

func TestClearKey(t *testing.T) {
	m := New(context.Background(), Handlers{}, "empresas.csv", 1)
	m, _ = update(t, m, EventMsg{Event: pipeline.CompleteEvent{Name: "A"}})
	if len(m.table.Rows()) != 1 {
		t.Fatal("Expected one row before clearing")
	}

	m, _ = update(t, m, key("c"))
	if len(m.table.Rows()) != 0 {
		t.Errorf("Expected rows to be cleared, got %d", len(m.table.Rows()))
	}
}

func TestExportKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"success", nil, "Exportação concluída: exports/x.csv (1 empresas)"},
		{"nothing", export.ErrNothingToExport, "Nenhuma empresa com URI"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Handlers{Export: func(context.Context) (export.Result, error) {
				if tt.err != nil {
					return export.Result{}, tt.err
				}
				return export.Result{Path: "exports/x.csv", Rows: 1}, nil
			}}
			m := New(context.Background(), h, "empresas.csv", 1)

			m, cmd := update(t, m, key("e"))
			if cmd == nil {
				t.Fatal("Expected export command")
			}
			m, _ = update(t, m, cmd())
			if !strings.Contains(m.status, tt.want) {
				t.Errorf("Expected status containing %q, got %q", tt.want, m.status)
			}
		})
	}
}

func TestExportKeyWhileRunning(t *testing.T) {
	h := Handlers{Export: func(context.Context) (export.Result, error) {
		t.Fatal("Export must not run during processing")
		return export.Result{}, nil
	}}
	m := New(context.Background(), h, "empresas.csv", 1)
	m.running = true

	m, cmd := update(t, m, key("e"))
	if cmd != nil {
		t.Error("Expected no command while running")
	}
	if !strings.Contains(m.status, "Aguarde") {
		t.Errorf("Unexpected status %q", m.status)
	}
}

func TestQuitKey(t *testing.T) {
	m := New(context.Background(), Handlers{}, "empresas.csv", 1)
	_, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestView(t *testing.T) {
	m := New(context.Background(), Handlers{}, "empresas.csv", 1)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, EventMsg{Event: pipeline.CompleteEvent{Name: "Padaria Central"}})

	v := m.View()
	for _, want := range []string{"EXTRACTMOGI", "Empresa", "Padaria Central", "p: processar"} {
		if !strings.Contains(v, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func TestForward(t *testing.T) {
	ch := make(chan pipeline.Event, 2)
	ch <- pipeline.StartEvent{Name: "A"}
	ch <- pipeline.ProgressEvent{Current: 1, Total: 1, Percent: 100}
	close(ch)

	var s fakeSender
	Forward(context.Background(), ch, &s)

	if len(s.msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(s.msgs))
	}
	if ev, ok := s.msgs[0].(EventMsg); !ok || ev.Event != (pipeline.StartEvent{Name: "A"}) {
		t.Errorf("Unexpected first message %#v", s.msgs[0])
	}
}

func TestForwardStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var s fakeSender
	Forward(ctx, make(chan pipeline.Event), &s)
	if len(s.msgs) != 0 {
		t.Errorf("Expected no messages, got %d", len(s.msgs))
	}
}
