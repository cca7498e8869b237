package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Batch conversion progress
// =============================================================================

// batchFailure records one input that could not be converted.
type batchFailure struct {
	Input string
	Err   error
}

// docDoneMsg reports the outcome of one converted document.
type docDoneMsg struct {
	input string
	err   error
}

// batchModel is the bubbletea model showing batch conversion progress.
type batchModel struct {
	inputs   []string
	done     int
	failures []batchFailure
	current  string
	results  chan docDoneMsg
}

var (
	batchBarDone = lipgloss.NewStyle().Foreground(colorCyan)
	batchBarTodo = lipgloss.NewStyle().Foreground(colorDim)
)

func newBatchModel(inputs []string, results chan docDoneMsg) batchModel {
	current := ""
	if len(inputs) > 0 {
		current = inputs[0]
	}
	return batchModel{inputs: inputs, current: current, results: results}
}

func (m batchModel) Init() tea.Cmd {
	return m.waitForResult()
}

// waitForResult blocks on the results channel and forwards the next
// outcome as a message.
func (m batchModel) waitForResult() tea.Cmd {
	return func() tea.Msg {
		return <-m.results
	}
}

func (m batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case docDoneMsg:
		m.done++
		if msg.err != nil {
			m.failures = append(m.failures, batchFailure{Input: msg.input, Err: msg.err})
		}
		if m.done >= len(m.inputs) {
			return m, tea.Quit
		}
		m.current = m.inputs[m.done]
		return m, m.waitForResult()
	}
	return m, nil
}

func (m batchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Converting documents"))
	b.WriteString("\n\n")

	const width = 30
	filled := 0
	if len(m.inputs) > 0 {
		filled = m.done * width / len(m.inputs)
	}
	bar := batchBarDone.Render(strings.Repeat("█", filled)) +
		batchBarTodo.Render(strings.Repeat("░", width-filled))
	b.WriteString(fmt.Sprintf("  %s %d/%d", bar, m.done, len(m.inputs)))
	b.WriteString("\n\n")

	if m.done < len(m.inputs) {
		b.WriteString(StyleDim.Render("  converting " + filepath.Base(m.current)))
		b.WriteString("\n")
	}
	if len(m.failures) > 0 {
		b.WriteString(StyleWarning.Render(fmt.Sprintf("  %d failed", len(m.failures))))
		b.WriteString("\n")
	}

	return b.String()
}

// feedResults converts the inputs in order, publishing one outcome per
// input, and closes results when finished. Cancelling ctx stops the loop
// between documents and unblocks a pending send.
func feedResults(ctx context.Context, inputs []string, convertOne func(context.Context, string) error, results chan<- docDoneMsg) {
	defer close(results)
	for _, input := range inputs {
		if ctx.Err() != nil {
			return
		}
		select {
		case results <- docDoneMsg{input: input, err: convertOne(ctx, input)}:
		case <-ctx.Done():
			return
		}
	}
}

// runBatchUI converts the inputs one at a time while a progress display
// runs in the foreground. It returns the failures; a UI error aborts the
// batch. If the display quits early the remaining documents are not
// converted.
func runBatchUI(ctx context.Context, inputs []string, convertOne func(context.Context, string) error) ([]batchFailure, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan docDoneMsg)
	go feedResults(ctx, inputs, convertOne, results)

	p := tea.NewProgram(newBatchModel(inputs, results))
	final, runErr := p.Run()

	// Stop the producer and drain any in-flight result so its goroutine
	// exits even when the user quit mid-batch.
	cancel()
	for range results {
	}

	if runErr != nil {
		return nil, fmt.Errorf("progress display: %w", runErr)
	}
	return final.(batchModel).failures, nil
}
