package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"phi-redact/internal/metrics"
	"phi-redact/internal/model"
	"phi-redact/internal/session"
	"phi-redact/internal/settings"
)

type uiMode int

const (
	uiModeBrowse uiMode = iota
	uiModePickFiles
	uiModePickFolder
	uiModeTypeFolder
)

// inputExtensions are the file types offered by the file picker.
var inputExtensions = []string{".txt"}

type uiModel struct {
	sess    *session.Session
	ctx     context.Context
	changes <-chan session.Change
	lastDir string

	mode    uiMode
	cursor  int
	width   int
	height  int
	picker  filepicker.Model
	input   textinput.Model
	spinner spinner.Model

	processing    bool
	cancelRun     context.CancelFunc
	quitAfterRun  bool
	statusMessage string
}

type uiChangeMsg session.Change

type uiRunDoneMsg struct {
	result model.RunResult
	err    error
}

var (
	uiTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	uiMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	uiErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	uiOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	uiPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	uiSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

func runUI(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	config := fs.String("config", settings.DefaultConfigPath, "settings file path")
	out := fs.String("out", "", "initial output folder (default: settings output_dir)")
	workers := fs.Int("workers", -1, "max files processed at once (0 = all at once, -1 uses settings)")
	logFile := fs.String("log-file", "", "append JSON logs to this file")
	metricsFile := fs.String("metrics-file", "", "write Prometheus text metrics to this file on exit")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("ui requires an interactive terminal (TTY)")
	}

	cfg, err := settings.Load(*config)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, logFlags{file: *logFile}, true)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m := metrics.NewRunMetrics()
	sess := session.New(session.Options{
		Workers: firstNonNegative(*workers, cfg.Workers),
		Logger:  log.WithComponent("ui"),
		Metrics: m,
	})
	sess.AddFiles(fs.Args()...)
	sess.SetOutputFolder(firstNonEmpty(*out, cfg.OutputDir))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	startDir, err := os.Getwd()
	if err != nil {
		startDir = "."
	}
	ui, unsubscribe := newUIModel(ctx, sess, startDir)
	defer unsubscribe()

	p := tea.NewProgram(ui, tea.WithAltScreen())
	_, err = p.Run()
	writeMetricsFile(m, firstNonEmpty(*metricsFile, cfg.MetricsFile), log)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("ui requires an interactive terminal (TTY)")
		}
		return err
	}
	for _, line := range sess.Status() {
		fmt.Println(line)
	}
	return nil
}

// newUIModel subscribes to sess. The returned func unsubscribes.
func newUIModel(ctx context.Context, sess *session.Session, startDir string) (uiModel, func()) {
	changes := make(chan session.Change, 256)
	unsubscribe := sess.Subscribe(func(c session.Change) {
		select {
		case changes <- c:
		default:
			// the view reads session snapshots, so a dropped wake-up is harmless
		}
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = uiTitleStyle

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 4096
	input.Width = 60

	return uiModel{
		sess:    sess,
		ctx:     ctx,
		changes: changes,
		lastDir: startDir,
		mode:    uiModeBrowse,
		input:   input,
		spinner: sp,
	}, unsubscribe
}

func waitForChange(ch <-chan session.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return uiChangeMsg(c)
	}
}

func processCmd(ctx context.Context, sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		res, err := sess.Process(ctx)
		return uiRunDoneMsg{result: res, err: err}
	}
}

func (m uiModel) Init() tea.Cmd {
	return waitForChange(m.changes)
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = clampInt(m.width-8, 20, 120)
		if m.inPicker() {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(m.pickerSizeMsg())
			return m, cmd
		}
		return m, nil
	case uiChangeMsg:
		m.clampCursor()
		return m, waitForChange(m.changes)
	case uiRunDoneMsg:
		m.processing = false
		if m.cancelRun != nil {
			m.cancelRun()
			m.cancelRun = nil
		}
		m.statusMessage = runDoneMessage(msg)
		if m.quitAfterRun {
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if !m.processing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch m.mode {
		case uiModePickFiles:
			return m.updatePickFiles(msg)
		case uiModePickFolder:
			return m.updatePickFolder(msg)
		case uiModeTypeFolder:
			return m.updateTypeFolder(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	if m.inPicker() {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func runDoneMessage(msg uiRunDoneMsg) string {
	switch {
	case errors.Is(msg.err, session.ErrCannotProcess):
		return "select at least one file and an output folder first"
	case msg.err != nil:
		return "error: " + msg.err.Error()
	case msg.result.Failed > 0:
		return fmt.Sprintf("error: %d of %d files failed", msg.result.Failed, len(msg.result.Jobs))
	default:
		return fmt.Sprintf("done: %d saved to %s", msg.result.Succeeded, msg.result.OutputDir)
	}
}

func (m uiModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	files := m.sess.SelectedFiles()
	switch msg.String() {
	case "ctrl+c":
		if m.processing {
			if m.cancelRun != nil {
				m.cancelRun()
			}
			m.quitAfterRun = true
			m.statusMessage = "cancelling run..."
			return m, nil
		}
		return m, tea.Quit
	case "q":
		if m.processing {
			m.statusMessage = "processing; wait for the run to finish or press ctrl+c to cancel"
			return m, nil
		}
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(files)-1 {
			m.cursor++
		}
		return m, nil
	case "a":
		m.mode = uiModePickFiles
		m.statusMessage = ""
		cmd := m.openPicker(m.lastDir, false)
		return m, cmd
	case "o":
		m.mode = uiModePickFolder
		m.statusMessage = ""
		cmd := m.openPicker(m.folderStartDir(), true)
		return m, cmd
	case "t":
		m.mode = uiModeTypeFolder
		m.statusMessage = ""
		m.input.SetValue(m.sess.OutputFolder())
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd
	case "x":
		if m.cursor < len(files) {
			m.sess.RemoveFile(files[m.cursor])
			m.statusMessage = "removed: " + filepath.Base(files[m.cursor])
		}
		m.clampCursor()
		return m, nil
	case "c":
		m.sess.ClearFiles()
		m.cursor = 0
		m.statusMessage = "selection cleared"
		return m, nil
	case "p", "enter":
		if m.processing {
			return m, nil
		}
		if !m.sess.CanProcess() {
			m.statusMessage = "select at least one file and an output folder first"
			return m, nil
		}
		runCtx, cancel := context.WithCancel(m.ctx)
		m.cancelRun = cancel
		m.processing = true
		m.statusMessage = ""
		return m, tea.Batch(processCmd(runCtx, m.sess), m.spinner.Tick)
	}
	return m, nil
}

func (m uiModel) updatePickFiles(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.lastDir = m.picker.CurrentDirectory
		m.mode = uiModeBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		if m.sess.AddFiles(path) > 0 {
			m.statusMessage = "added: " + filepath.Base(path)
		} else {
			m.statusMessage = "already selected: " + filepath.Base(path)
		}
		m.picker.Path = ""
	} else if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.statusMessage = "error: only " + strings.Join(inputExtensions, ", ") + " files can be added: " + filepath.Base(path)
		m.picker.Path = ""
	}
	return m, cmd
}

func (m uiModel) updatePickFolder(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.mode = uiModeBrowse
		return m, nil
	case "s":
		return m.chooseFolder(m.picker.CurrentDirectory), nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picker.Path = ""
		return m.chooseFolder(path), nil
	}
	return m, cmd
}

func (m uiModel) updateTypeFolder(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.input.Blur()
		m.mode = uiModeBrowse
		return m, nil
	case "enter":
		m.input.Blur()
		return m.chooseFolder(m.input.Value()), nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m uiModel) chooseFolder(dir string) uiModel {
	m.sess.SetOutputFolder(dir)
	m.mode = uiModeBrowse
	if out := m.sess.OutputFolder(); out != "" {
		m.statusMessage = "output folder: " + out
	} else {
		m.statusMessage = "output folder cleared"
	}
	return m
}

// openPicker replaces the picker and returns the commands that load its
// first directory listing.
func (m *uiModel) openPicker(dir string, folders bool) tea.Cmd {
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	if folders {
		fp.DirAllowed = true
		fp.FileAllowed = false
	} else {
		fp.AllowedTypes = inputExtensions
		fp.DirAllowed = false
		fp.FileAllowed = true
	}
	var sizeCmd tea.Cmd
	fp, sizeCmd = fp.Update(m.pickerSizeMsg())
	m.picker = fp
	return tea.Batch(m.picker.Init(), sizeCmd)
}

func (m uiModel) pickerSizeMsg() tea.WindowSizeMsg {
	w := m.width
	if w <= 0 {
		w = 100
	}
	h := m.height
	if h <= 0 {
		h = 30
	}
	return tea.WindowSizeMsg{Width: w, Height: maxInt(h-4, 5)}
}

func (m uiModel) folderStartDir() string {
	if out := m.sess.OutputFolder(); out != "" {
		if info, err := os.Stat(out); err == nil && info.IsDir() {
			return out
		}
	}
	return m.lastDir
}

func (m uiModel) inPicker() bool {
	return m.mode == uiModePickFiles || m.mode == uiModePickFolder
}

func (m *uiModel) clampCursor() {
	n := len(m.sess.SelectedFiles())
	if m.cursor > n-1 {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m uiModel) View() string {
	if m.width <= 0 {
		m.width = 100
	}
	if m.height <= 0 {
		m.height = 30
	}

	switch m.mode {
	case uiModePickFiles:
		return m.viewPicker("Add files", "enter: add file | left/h: parent dir | right/l: open dir | esc: done")
	case uiModePickFolder:
		return m.viewPicker("Choose output folder", "enter: choose highlighted folder | s: choose current folder | left/h: parent dir | esc: cancel")
	case uiModeTypeFolder:
		return m.viewTypeFolder()
	default:
		return m.viewBrowse()
	}
}

func (m uiModel) viewBrowse() string {
	header := uiTitleStyle.Render("phi-redact") + "\n" +
		uiMutedStyle.Render("up/down: move | a: add files | o: pick output folder | t: type output folder | p/enter: process | x: remove | c: clear | q: quit")

	if m.width < 90 {
		body := lipgloss.JoinVertical(lipgloss.Left,
			m.renderFilesPanel(m.width),
			m.renderOutputPanel(m.width),
			m.renderTranscriptPanel(m.width),
		)
		return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusLine(m.width))
	}

	leftW := clampInt(m.width/2, 34, 70)
	rightW := m.width - leftW - 1
	right := lipgloss.JoinVertical(lipgloss.Left, m.renderOutputPanel(rightW), m.renderTranscriptPanel(rightW))
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderFilesPanel(leftW), right)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusLine(m.width))
}

func (m uiModel) renderFilesPanel(width int) string {
	files := m.sess.SelectedFiles()
	maxRows := clampInt(m.height-10, 4, 24)
	start, end := listWindow(len(files), m.cursor, maxRows)

	lines := make([]string, 0, maxRows+4)
	lines = append(lines, fmt.Sprintf("Selected files (%d)", len(files)))
	lines = append(lines, "")
	if len(files) == 0 {
		lines = append(lines, uiMutedStyle.Render("No files selected."))
		lines = append(lines, uiMutedStyle.Render("Press a to add .txt files."))
	}
	if start > 0 {
		lines = append(lines, uiMutedStyle.Render("..."))
	}
	for i := start; i < end; i++ {
		line := truncateRunes(files[i], maxInt(width-6, 10))
		if i == m.cursor {
			line = uiSelStyle.Width(maxInt(width-4, 6)).Render(line)
		}
		lines = append(lines, line)
	}
	if end < len(files) {
		lines = append(lines, uiMutedStyle.Render("..."))
	}
	return uiPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m uiModel) renderOutputPanel(width int) string {
	state := "idle"
	if m.processing {
		state = m.spinner.View() + " processing"
	}
	lines := []string{
		kv("output folder", defaultIfEmpty(m.sess.OutputFolder(), "(not set)")),
		kv("can process", yesNo(m.sess.CanProcess())),
		kv("state", state),
	}
	for i := range lines {
		lines[i] = wrapOrTrim(lines[i], maxInt(width-6, 12))
	}
	return uiPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m uiModel) renderTranscriptPanel(width int) string {
	status := tailWindow(m.sess.Status(), clampInt(m.height-16, 3, 20))
	lines := make([]string, 0, len(status)+2)
	lines = append(lines, "Status")
	lines = append(lines, "")
	if len(status) == 0 {
		lines = append(lines, uiMutedStyle.Render("No run yet."))
	}
	for _, s := range status {
		line := wrapOrTrim(s, maxInt(width-6, 12))
		switch {
		case strings.HasPrefix(s, "Error processing"), strings.HasPrefix(s, "Unexpected error"):
			line = uiErrorStyle.Render(line)
		case strings.HasPrefix(s, "Saved:"):
			line = uiOKStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return uiPanelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m uiModel) renderStatusLine(width int) string {
	msg := strings.TrimSpace(m.statusMessage)
	if msg == "" {
		msg = "Tip: output files are written as <name>_sanitized<ext> in the output folder."
	}
	style := uiMutedStyle
	lower := strings.ToLower(msg)
	if strings.HasPrefix(lower, "error:") {
		style = uiErrorStyle
	} else if strings.HasPrefix(lower, "done:") || strings.HasPrefix(lower, "added:") || strings.HasPrefix(lower, "output folder:") {
		style = uiOKStyle
	}
	return style.Width(width).Render(truncateRunes(msg, maxInt(width-2, 10)))
}

func (m uiModel) viewPicker(title, hints string) string {
	header := uiTitleStyle.Render(title) + "\n" +
		uiMutedStyle.Render(hints) + "\n" +
		uiMutedStyle.Render(truncateRunes(m.picker.CurrentDirectory, maxInt(m.width-2, 10)))
	return lipgloss.JoinVertical(lipgloss.Left, header, m.picker.View(), m.renderStatusLine(m.width))
}

func (m uiModel) viewTypeFolder() string {
	header := uiTitleStyle.Render("Output folder")
	hints := uiMutedStyle.Render("enter: save | esc: cancel | empty clears the folder")
	panel := uiPanelStyle.Width(maxInt(m.width, 40)).Render("Folder path\n" + m.input.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, hints, panel)
}
