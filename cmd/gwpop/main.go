package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"github.com/nsvane/gwpop/internal/config"
	"github.com/nsvane/gwpop/internal/cosmo"
	"github.com/nsvane/gwpop/internal/evolve"
	"github.com/nsvane/gwpop/internal/gw"
	"github.com/nsvane/gwpop/internal/pop"
	"github.com/nsvane/gwpop/internal/storage"
	"github.com/nsvane/gwpop/internal/strain"
	"github.com/nsvane/gwpop/internal/tui"
	"github.com/nsvane/gwpop/internal/units"
)

var (
	configFile string
	seed       uint64
	size       int
	steps      int
	nreals     int
	nfreqs     int
	ptaDur     float64
	model      string
	eccenMax   float64
	verbose    bool
	rounds     int
	outDir     string
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gwpop",
		Short: "massive black-hole binary populations and their GW spectra",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "random seed (0 uses config)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "evolve a population and compute its strain spectrum",
		RunE:  runSpectrum,
	}
	runCmd.Flags().IntVar(&size, "size", 0, "population size (0 uses config)")
	runCmd.Flags().IntVar(&steps, "steps", 0, "integration steps per binary")
	runCmd.Flags().IntVar(&nreals, "reals", 0, "Poisson realizations")
	runCmd.Flags().IntVar(&nfreqs, "nfreqs", 0, "frequency bins")
	runCmd.Flags().Float64Var(&ptaDur, "dur", 0, "PTA duration [yr]")
	runCmd.Flags().StringVar(&model, "model", "", "hardening model (magic_delay, gw_driven)")
	runCmd.Flags().Float64Var(&eccenMax, "eccen-max", 0, "max initial eccentricity (0 = circular)")
	runCmd.Flags().StringVar(&outDir, "out", "", "archive the run under this directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch the spectrum converge as realizations accumulate",
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&rounds, "rounds", 10, "realization rounds")
	liveCmd.Flags().IntVar(&size, "size", 0, "population size (0 uses config)")
	liveCmd.Flags().StringVar(&model, "model", "", "hardening model (magic_delay, gw_driven)")

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs [dir]",
		Short: "list archived runs",
		Args:  cobra.ExactArgs(1),
		RunE:  listRuns,
	}

	rootCmd.AddCommand(runCmd, liveCmd, initCmd, runsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	// flags override the file
	if seed != 0 {
		cfg.Seed = seed
	}
	if size > 0 {
		cfg.Population.Size = size
	}
	if steps > 1 {
		cfg.Evolution.Steps = steps
	}
	if nreals > 0 {
		cfg.Spectrum.NReals = nreals
	}
	if nfreqs > 0 {
		cfg.Spectrum.NFreqs = nfreqs
	}
	if ptaDur > 0 {
		cfg.Spectrum.PtaDurYr = ptaDur
	}
	if model != "" {
		cfg.Evolution.Model = model
	}
	if eccenMax > 0 {
		cfg.Population.EccenMax = eccenMax
	}
	return cfg, cfg.Validate()
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// buildEngine draws the population, evolves it, and wires the synthesis
// engine over the configured PTA frequency grid.
func buildEngine(cfg *config.Config, logger *slog.Logger) (*strain.Discrete, []float64, error) {
	synth := pop.SynthConfig{
		Size:         cfg.Population.Size,
		MassMed:      cfg.Population.MassMsol * units.MSOL,
		MassDex:      cfg.Population.MassDex,
		SepaMed:      cfg.Population.SepaPc * units.PC,
		SepaDex:      cfg.Population.SepaDex,
		ScafaLo:      cfg.Population.ScafaLo,
		ScafaHi:      cfg.Population.ScafaHi,
		EccenMax:     cfg.Population.EccenMax,
		SampleVolume: math.Pow(cfg.Population.BoxMpc*units.MPC, 3),
	}
	src := rand.NewSource(cfg.Seed)
	p := pop.NewSynthetic(synth, src)
	cos := cosmo.Default()

	var stepper evolve.Stepper
	switch cfg.Evolution.Model {
	case "gw_driven":
		stepper = evolve.NewGWDriven()
	default:
		md := evolve.NewMagicDelay(src)
		md.Delay = cfg.Evolution.DelayGyr * units.GYR
		md.DelayDex = cfg.Evolution.DelayDex
		stepper = md
	}

	ev, err := evolve.New(p, cos, stepper, cfg.Evolution.Steps)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("evolving population", "size", p.Size(), "steps", cfg.Evolution.Steps,
		"model", cfg.Evolution.Model)
	if err := ev.Evolve(); err != nil {
		return nil, nil, err
	}

	coal, err := ev.Coal()
	if err != nil {
		return nil, nil, err
	}
	ncoal := 0
	for _, c := range coal {
		if c {
			ncoal++
		}
	}
	logger.Info("evolution finished", "coalescing", ncoal, "total", p.Size())

	cents, _ := gw.PTAFrequencies(cfg.Spectrum.PtaDurYr*units.YR, cfg.Spectrum.NFreqs)
	engine, err := strain.NewDiscrete(ev, cents, strain.Config{
		NHarms:   cfg.Spectrum.NHarms,
		NReals:   cfg.Spectrum.NReals,
		NLoudest: cfg.Spectrum.NLoudest,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return engine, cents, nil
}

func runSpectrum(cmd *cobra.Command, args []string) error {
	logger := setupLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, cents, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	res, err := engine.Emit(cfg.Seed)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("characteristic strain (median over realizations)"))
	med := make([]float64, len(cents))
	for i := range cents {
		med[i] = math.Log10(median(res.Back[i]))
	}
	fmt.Println(asciigraph.Plot(med, asciigraph.Height(14), asciigraph.Width(70)))
	fmt.Println(dimStyle.Render("log10 hc (background) vs frequency bin"))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "bin\tfobs [1/yr]\tback\tfore\ttotal")
	for i := range cents {
		fmt.Fprintf(w, "%d\t%.3f\t%.3e\t%.3e\t%.3e\n",
			i, cents[i]*units.YR, median(res.Back[i]), median(res.Fore[i]), median(res.Strain[i]))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if outDir != "" {
		st := storage.New(outDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(storage.RunMetadata{
			Seed:     cfg.Seed,
			Model:    cfg.Evolution.Model,
			Size:     cfg.Population.Size,
			Steps:    cfg.Evolution.Steps,
			PtaDurYr: cfg.Spectrum.PtaDurYr,
		}, res)
		if err != nil {
			return err
		}
		logger.Info("run archived", "dir", outDir, "id", runID)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(args[0]).List()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "id\ttime\tmodel\tsize\tnfreqs\tnreals")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04"), r.Model, r.Size, r.NFreqs, r.NReals)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	logger := setupLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, _, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	return tui.Run(engine, cfg.Seed, rounds)
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	n := len(s)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return 0.5 * (s[n/2-1] + s[n/2])
}
