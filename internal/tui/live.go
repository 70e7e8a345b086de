// Package tui renders a live view of a strain spectrum as stochastic
// realizations accumulate.
package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/nsvane/gwpop/internal/strain"
	"github.com/nsvane/gwpop/internal/units"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type roundMsg struct {
	round int
	res   *strain.Result
	err   error
}

// Model accumulates Emit rounds and plots the running median background
// spectrum.
type Model struct {
	engine *strain.Discrete
	seed   uint64
	rounds int

	done    int
	backAll [][]float64 // per bin, all realizations so far
	foreAll [][]float64
	freqs   []float64
	err     error
	width   int
}

// NewModel prepares a live view running the engine `rounds` times with
// consecutive seeds.
func NewModel(engine *strain.Discrete, seed uint64, rounds int) Model {
	return Model{engine: engine, seed: seed, rounds: rounds, width: 80}
}

// Run starts the bubbletea program and blocks until it exits.
func Run(engine *strain.Discrete, seed uint64, rounds int) error {
	_, err := tea.NewProgram(NewModel(engine, seed, rounds)).Run()
	return err
}

func (m Model) emitRound(round int) tea.Cmd {
	return func() tea.Msg {
		res, err := m.engine.Emit(m.seed + uint64(round)*1000003)
		return roundMsg{round: round, res: res, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return m.emitRound(0)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case roundMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		if m.freqs == nil {
			m.freqs = msg.res.FobsGW
			m.backAll = make([][]float64, len(m.freqs))
			m.foreAll = make([][]float64, len(m.freqs))
		}
		for i := range m.freqs {
			m.backAll[i] = append(m.backAll[i], msg.res.Back[i]...)
			m.foreAll[i] = append(m.foreAll[i], msg.res.Fore[i]...)
		}
		m.done = msg.round + 1
		if m.done < m.rounds {
			return m, m.emitRound(m.done)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("gwpop: characteristic strain background") + "\n")

	if m.err != nil {
		return b.String() + "error: " + m.err.Error() + "\n"
	}
	if m.freqs == nil {
		return b.String() + labelStyle.Render("computing first round...") + "\n"
	}

	med := make([]float64, len(m.freqs))
	for i := range m.freqs {
		med[i] = math.Log10(median(m.backAll[i]))
	}

	w := m.width - 12
	if w < 20 {
		w = 20
	}
	b.WriteString(graphStyle.Render(asciigraph.Plot(med, asciigraph.Height(14), asciigraph.Width(w))))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf(
		"log10 hc vs bin | %.2f - %.2f nHz | rounds %d/%d | reals %d",
		m.freqs[0]*1e9, m.freqs[len(m.freqs)-1]*1e9, m.done, m.rounds,
		len(m.backAll[0]))))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf(
		"median foreground at f1=%.2f/yr: %.3g", m.freqs[0]*units.YR, median(m.foreAll[0]))))
	b.WriteString(helpStyle.Render("\nq to quit"))
	b.WriteString("\n")
	return b.String()
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return 0.5 * (s[n/2-1] + s[n/2])
}
