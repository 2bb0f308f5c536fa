// Package tui is the full-screen terminal front end for a run.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sells-group/contact-cli/internal/export"
	"github.com/sells-group/contact-cli/internal/model"
	"github.com/sells-group/contact-cli/internal/pipeline"
)

// Handlers are the actions bound to keys. Both run on a tea.Cmd goroutine.
type Handlers struct {
	// Process runs the pipeline to completion.
	Process func(ctx context.Context) (model.RunStatistics, error)
	// Export writes the URI-filtered export.
	Export func(ctx context.Context) (export.Result, error)
}

// EventMsg wraps a pipeline event delivered through Program.Send.
type EventMsg struct{ Event pipeline.Event }

type runFinishedMsg struct {
	stats model.RunStatistics
	err   error
}

type exportFinishedMsg struct {
	result export.Result
	err    error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tableStyle    = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// Model is the bubbletea model.
type Model struct {
	ctx      context.Context
	handlers Handlers
	source   string
	total    int

	status       string
	progressText string
	percent      float64
	running      bool
	exporting    bool

	table    table.Model
	progress progress.Model
	spinner  spinner.Model

	width  int
	height int
}

// New builds the model for a run over total subjects loaded from source.
func New(ctx context.Context, h Handlers, source string, total int) Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithHeight(12),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		ctx:      ctx,
		handlers: h,
		source:   source,
		total:    total,
		status:   fmt.Sprintf("✓ Arquivo carregado: %s (%d empresas) [Pressione P]", source, total),
		table:    t,
		progress: progress.New(progress.WithDefaultGradient()),
		spinner:  sp,
	}
}

func columns(width int) []table.Column {
	name := width / 3
	if name < 20 {
		name = 20
	}
	return []table.Column{
		{Title: "Empresa", Width: name},
		{Title: "Telefone", Width: 16},
		{Title: "Facebook", Width: 9},
		{Title: "Status", Width: 36},
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(msg.Width))
		if h := msg.Height - 10; h > 3 {
			m.table.SetHeight(h)
		}
		m.progress.Width = min(msg.Width-4, 80)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case EventMsg:
		m.applyEvent(msg.Event)
		return m, nil

	case runFinishedMsg:
		m.running = false
		if msg.err != nil && msg.stats.Processed == 0 && msg.stats.Challenges == 0 {
			m.status = "❌ Erro durante processamento: " + msg.err.Error()
			return m, nil
		}
		m.status = summary(msg.stats)
		if msg.err != nil {
			m.status += " | interrompido"
		}
		m.progressText = "Pressione [E] para exportar"
		return m, nil

	case exportFinishedMsg:
		m.exporting = false
		switch {
		case msg.err == nil:
			m.status = fmt.Sprintf("✓ Exportação concluída: %s (%d empresas)", msg.result.Path, msg.result.Rows)
		case errors.Is(msg.err, export.ErrNothingToExport):
			m.status = "⚠ Nenhuma empresa com URI para exportar"
		default:
			m.status = "❌ Erro na exportação: " + msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "p":
		if m.running {
			m.status = "⚠ Processamento já em andamento..."
			return m, nil
		}
		if m.handlers.Process == nil || m.total == 0 {
			m.status = "❌ Nenhuma empresa para processar"
			return m, nil
		}
		m.running = true
		m.percent = 0
		m.status = "🚀 Iniciando processamento..."
		process, ctx := m.handlers.Process, m.ctx
		return m, func() tea.Msg {
			stats, err := process(ctx)
			return runFinishedMsg{stats: stats, err: err}
		}

	case "e":
		if m.running {
			m.status = "⚠ Aguarde o processamento finalizar"
			return m, nil
		}
		if m.handlers.Export == nil || m.exporting {
			return m, nil
		}
		m.exporting = true
		m.status = "📊 Gerando exportação..."
		exp, ctx := m.handlers.Export, m.ctx
		return m, func() tea.Msg {
			res, err := exp(ctx)
			return exportFinishedMsg{result: res, err: err}
		}

	case "c":
		m.table.SetRows(nil)
		m.status = "🗑 Tabela limpa"
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) applyEvent(ev pipeline.Event) {
	switch ev := ev.(type) {
	case pipeline.StartEvent:
		m.status = "🔍 Processando: " + ev.Name
	case pipeline.ProgressEvent:
		m.percent = float64(ev.Percent) / 100
		m.progressText = fmt.Sprintf("Progresso: %d/%d (%d%%)", ev.Current, ev.Total, ev.Percent)
	case pipeline.CompleteEvent:
		m.addRow(ev.Name, ev.Record.Phone, ev.Record.SocialLink, statusText(ev.Record))
	case pipeline.ErrorEvent:
		if ev.Status == model.StatusChallenge {
			m.addRow(ev.Name, "", "", "🤖 CAPTCHA")
			return
		}
		m.addRow(ev.Name, "", "", "❌ Erro")
	case pipeline.ChallengeEvent:
		m.status = "🤖 CAPTCHA DETECTADO para: " + ev.Name
	case pipeline.RunCompleteEvent:
		m.status = summary(ev.Stats)
	}
}

func (m *Model) addRow(name, phone, social, status string) {
	if phone == "" {
		phone = "—"
	}
	fb := "—"
	if social != "" {
		fb = "Link FB"
	}
	rows := append(m.table.Rows(), table.Row{name, phone, fb, status})
	m.table.SetRows(rows)
	m.table.GotoBottom()
}

// statusText summarizes which fields a record carries.
func statusText(r model.ContactRecord) string {
	var parts []string
	if r.Phone != "" {
		parts = append(parts, "Tel✓")
	}
	if r.Website != "" {
		parts = append(parts, "Site✓")
	}
	if r.SocialLink != "" {
		parts = append(parts, "FB✓")
	}
	if r.Email != "" {
		parts = append(parts, "Email✓")
	}
	if r.MessagingNumber != "" {
		parts = append(parts, "WhatsApp✓")
	}
	if len(parts) == 0 {
		return "Sem dados"
	}
	return strings.Join(parts, " | ")
}

func summary(s model.RunStatistics) string {
	return fmt.Sprintf("✓ Processamento concluído! | Total: %d | Sucesso: %d | Sem dados: %d | Erros: %d | CAPTCHA: %d",
		s.Total, s.WithData, s.WithoutData, s.Errors, s.Challenges)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("EXTRACTMOGI - EXTRATOR DE CONTATOS"))
	b.WriteString("\n\n")

	status := m.status
	if m.running || m.exporting {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n")

	b.WriteString(m.progress.ViewAs(m.percent))
	b.WriteString("\n")
	if m.progressText != "" {
		b.WriteString(progressStyle.Render(m.progressText))
	}
	b.WriteString("\n")

	b.WriteString(tableStyle.Render(m.table.View()))
	b.WriteString("\n")

	b.WriteString(helpStyle.Render("p: processar • e: exportar • c: limpar tabela • q: sair"))
	return b.String()
}
