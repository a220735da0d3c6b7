package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lorabot/lorabot/internal/engine"
	"github.com/lorabot/lorabot/internal/mesh"
	"github.com/lorabot/lorabot/internal/pet"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Seed int64
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the companion against a simulated mesh",
		Long: `Run the companion full-screen in the terminal, fed by a simulated mesh:
peers join, messages arrive, and background traffic is relayed past.

Keys:
  s        send a message (the companion celebrates the transmission)
  q        quit

Example:
  lorabot run --config lorabot.yaml
  lorabot run --seed 7 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompanion(opts)
		},
	}

	cmd.Flags().Int64Var(&opts.Seed, "seed", time.Now().UnixNano(), "simulation random seed")

	return cmd
}

func runCompanion(opts *RunOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	snapStore, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	dir := &nodeTable{}
	radio := &mesh.RadioStats{}
	eng := engine.New(dir,
		engine.WithPersonality(cfg.ToPersonality()),
		engine.WithRadio(radio),
		engine.WithTimeSource(mesh.SystemTime{}),
		engine.WithStore(snapStore),
	)

	ctx := context.Background()
	eng.Start(ctx)
	defer eng.Close(ctx)

	sim := newSimulator(opts.Seed, dir, radio, eng)
	model := newRunModel(ctx, eng, sim)

	prog := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

var (
	faceStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))

	captionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			MarginTop(1)

	popupStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Faint(true).
			MarginTop(1)
)

type tickMsg time.Time

// runModel is the bubbletea model for the live demo. Each tick advances the
// simulated mesh and runs one engine pass; the engine itself decides the
// delay until the next tick.
type runModel struct {
	ctx   context.Context
	eng   *engine.Engine
	sim   *simulator
	frame pet.Frame
	state string
}

func newRunModel(ctx context.Context, eng *engine.Engine, sim *simulator) runModel {
	return runModel{ctx: ctx, eng: eng, sim: sim, frame: eng.Frame()}
}

func (m runModel) Init() tea.Cmd {
	return tick(50 * time.Millisecond)
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.sim.step(time.Time(msg))
		delay := m.eng.RunOnce(m.ctx)
		m.frame = m.eng.Frame()
		m.state = m.eng.State().String()
		return m, tick(delay)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			m.sim.sendText(time.Now())
		}
	}
	return m, nil
}

func (m runModel) View() string {
	out := faceStyle.Render(m.frame.Face)
	out += "\n" + captionStyle.Render(m.frame.Caption)
	if m.frame.Popup != "" {
		out += "\n" + popupStyle.Render(m.frame.Popup)
	}
	out += "\n" + statusStyle.Render(fmt.Sprintf("%s | peers: %d | s: send  q: quit",
		m.state, m.sim.dir.Len()))
	return lipgloss.NewStyle().Padding(1, 2).Render(out)
}
