// Package tui is a terminal front end over the parser CLI and the
// record store. Uploads shell out to poparse so the TUI sees exactly
// what scripted callers see.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"poclerk/internal/store"
)

// RecordFinder resolves PO numbers for the search tab.
type RecordFinder interface {
	Lookup(ctx context.Context, poNumber string) (*store.Record, error)
}

var (
	colorBackground = lipgloss.Color("#000000")
	colorText       = lipgloss.Color("#00ff00")
	colorAccent     = lipgloss.Color("#00ff00")
	borderStyle     = lipgloss.ThickBorder()
	styleBase       = lipgloss.NewStyle().Background(colorBackground).Foreground(colorText)
	styleBox        = styleBase.Border(borderStyle, true).BorderForeground(colorAccent).Padding(1, 2)
	styleTitle      = styleBase.Bold(true).Foreground(colorAccent).Align(lipgloss.Center)
	styleCenterText = styleBase.Align(lipgloss.Center)
)

type keyMap struct {
	Upload key.Binding
	Search key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Upload: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload PDF")),
	Search: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "search PO")),
	Quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Upload, k.Search, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Upload, k.Search},
		{k.Quit},
	}
}

type tab int

const (
	tabUpload tab = iota
	tabSearch
)

// Model drives the two-tab terminal UI.
type Model struct {
	parserBin string
	records   RecordFinder

	activeTab tab
	status    string
	output    string
	spinner   spinner.Model
	table     table.Model
	help      help.Model
	loading   bool

	searchInput  textinput.Model
	searchResult string
	pdfPath      string
	width        int
	height       int
}

// New builds the initial model. parserBin is the poparse executable to
// shell out to for uploads.
func New(parserBin string, records RecordFinder) Model {
	columns := []table.Column{
		{Title: "Field", Width: 15},
		{Title: "Value", Width: 40},
	}
	t := table.New(table.WithColumns(columns))
	t.SetStyles(table.DefaultStyles())

	sp := spinner.New()
	sp.Style = styleBase.Foreground(colorAccent)

	si := textinput.New()
	si.Placeholder = "Enter PO number..."
	si.Focus()
	si.CharLimit = 20
	si.Width = 30

	return Model{
		parserBin:   parserBin,
		records:     records,
		activeTab:   tabUpload,
		status:      "Press 'u' to upload a PDF...",
		spinner:     sp,
		help:        help.New(),
		table:       t,
		searchInput: si,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

type fileSelectedMsg string

type parseResultMsg struct {
	Output string
	Err    error
}

type searchResultMsg struct {
	Result string
	PDF    string
	Err    error
}

func openFileDialog() tea.Msg {
	cmd := exec.Command("zenity", "--file-selection", "--file-filter=PDF files (pdf) | *.pdf")
	out, err := cmd.Output()
	if err != nil {
		return fileSelectedMsg("")
	}
	return fileSelectedMsg(strings.TrimSpace(string(out)))
}

// runParser invokes poparse and reads its single JSON line. Only
// stdout is parsed; poparse keeps its logs on stderr.
func runParser(bin, filePath string) tea.Cmd {
	return func() tea.Msg {
		out, err := exec.Command(bin, filePath).Output()
		if err != nil {
			detail := strings.TrimSpace(string(out))
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && detail == "" {
				detail = strings.TrimSpace(string(exitErr.Stderr))
			}
			return parseResultMsg{Err: fmt.Errorf("parser error: %v\noutput: %s", err, detail)}
		}

		var jsonObj map[string]interface{}
		if err := json.Unmarshal(out, &jsonObj); err != nil {
			return parseResultMsg{Err: fmt.Errorf("JSON parse error: %v\noutput: %s", err, string(out))}
		}
		formatted, _ := json.MarshalIndent(jsonObj, "", "  ")
		return parseResultMsg{Output: string(formatted)}
	}
}

func (m Model) searchRecords(poNumber string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rec, err := m.records.Lookup(ctx, poNumber)
		if err != nil {
			return searchResultMsg{Err: fmt.Errorf("DB query error: %v", err)}
		}
		if rec == nil {
			return searchResultMsg{Result: "PO not found."}
		}
		return searchResultMsg{Result: fmt.Sprintf("PDF found: %s", rec.PDFPath), PDF: rec.PDFPath}
	}
}

func openPDF(pdfPath string) tea.Cmd {
	return func() tea.Msg {
		_ = exec.Command("xdg-open", pdfPath).Start()
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Upload):
			m.activeTab = tabUpload
			m.status = "Opening file picker..."
			m.loading = true
			return m, tea.Batch(openFileDialog, m.spinner.Tick)
		case key.Matches(msg, keys.Search):
			m.activeTab = tabSearch
			m.status = "Search active. Type PO and press Enter."
			return m, nil
		case msg.String() == "enter" && m.activeTab == tabSearch:
			poNumber := m.searchInput.Value()
			m.status = "Searching database..."
			m.loading = true
			return m, tea.Batch(m.searchRecords(poNumber), m.spinner.Tick)
		case msg.String() == "o" && m.activeTab == tabSearch && m.pdfPath != "":
			m.status = "Opening PDF..."
			return m, openPDF(m.pdfPath)
		}
	case fileSelectedMsg:
		if msg == "" {
			m.status = "No file selected."
			m.loading = false
			return m, nil
		}
		m.status = "Parsing file..."
		return m, runParser(m.parserBin, string(msg))
	case parseResultMsg:
		m.loading = false
		if msg.Err != nil {
			m.status = "Error parsing file."
			m.output = msg.Err.Error()
			return m, nil
		}
		m.status = "Parsing complete."
		m.output = msg.Output
		var parsed map[string]interface{}
		_ = json.Unmarshal([]byte(msg.Output), &parsed)
		rows := []table.Row{}
		for k, v := range parsed {
			rows = append(rows, table.Row{k, fmt.Sprintf("%v", v)})
		}
		m.table.SetRows(rows)
		return m, nil
	case searchResultMsg:
		m.loading = false
		if msg.Err != nil {
			m.status = "Search error."
			m.searchResult = msg.Err.Error()
			m.pdfPath = ""
			return m, nil
		}
		m.status = "Search complete. Press 'o' to open PDF."
		m.searchResult = msg.Result
		m.pdfPath = msg.PDF
		return m, nil
	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	tabTitle := "[ Upload Tab ]"
	if m.activeTab == tabSearch {
		tabTitle = "[ Search Tab ]"
	}
	top := styleTitle.Width(m.width).Render("PO CLERK TERMINAL UI") + "\n" + styleTitle.Width(m.width).Render(tabTitle) + "\n\n"
	status := styleCenterText.Width(m.width).Render("Status: " + m.status)
	content := ""

	if m.activeTab == tabUpload {
		if m.loading {
			content = styleCenterText.Width(m.width).Render(m.spinner.View() + " Parsing...")
		} else if m.output != "" {
			content = m.table.View()
		} else {
			content = styleCenterText.Width(m.width).Render("No output yet.")
		}
	} else if m.activeTab == tabSearch {
		content = styleCenterText.Width(m.width).Render("Search PO:") + "\n" + m.searchInput.View() + "\n\n" + styleCenterText.Width(m.width).Render(m.searchResult)
	}

	footer := styleCenterText.Width(m.width).Render(m.help.View(keys))
	box := styleBox.Width(m.width - 4).Height(m.height - 4).Render(top + content + "\n\n" + status + "\n\n" + footer)
	return box
}
