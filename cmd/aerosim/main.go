package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/aerosim/internal/aero"
	"github.com/san-kum/aerosim/internal/batch"
	"github.com/san-kum/aerosim/internal/config"
	"github.com/san-kum/aerosim/internal/export"
	"github.com/san-kum/aerosim/internal/gas"
	"github.com/san-kum/aerosim/internal/logger"
	"github.com/san-kum/aerosim/internal/params"
	"github.com/san-kum/aerosim/internal/scenario"
	"github.com/san-kum/aerosim/internal/storage"
	"github.com/san-kum/aerosim/internal/viz"
)

var (
	configFile  string
	dataDir     string
	storeKind   string
	logLevel    string
	logFormat   string
	theme       string
	speciesFile string
	gasFile     string
	strict      bool
	preset      string
	workers     int
	bins        int
	rMin        float64
	rMax        float64
	logPlot     bool
	saveResult  bool

	exportFormat string
	exportOutput string
)

var (
	cfg *config.Config
	log *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "aerosim",
		Short:             "build and validate aerosol population descriptors",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", config.DefaultStore, "catalog backend (fs or sqlite)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", config.DefaultLogFormat, "log format (console or json)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "default", "color theme")
	rootCmd.PersistentFlags().StringVar(&speciesFile, "species", "", "aero species file (yaml/json)")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "reject mass_frac species missing from the species table")

	speciesCmd := &cobra.Command{
		Use:   "species [file]",
		Short: "validate and show an aero species table",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showSpecies,
	}

	modeCmd := &cobra.Command{
		Use:   "mode [file]",
		Short: "validate a single mode",
		Args:  cobra.MaximumNArgs(1),
		RunE:  validateMode,
	}
	modeCmd.Flags().StringVar(&preset, "preset", "", "use preset mode (group/name)")
	modeCmd.Flags().BoolVar(&saveResult, "save", false, "save the validated mode to the catalog")

	distCmd := &cobra.Command{
		Use:   "dist [file]",
		Short: "validate a list of modes",
		Args:  cobra.ExactArgs(1),
		RunE:  validateDist,
	}
	distCmd.Flags().BoolVar(&saveResult, "save", false, "save the validated dist to the catalog")
	addGridFlags(distCmd)

	gasCmd := &cobra.Command{
		Use:   "gas [file]",
		Short: "validate a gas species list",
		Args:  cobra.ExactArgs(1),
		RunE:  showGas,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "validate a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  validateScenario,
	}
	scenarioCmd.Flags().StringVar(&gasFile, "gas", "", "gas species file (yaml/json)")

	validateCmd := &cobra.Command{
		Use:   "validate [mode|dist|scenario] [files...]",
		Short: "validate many files concurrently",
		Args:  cobra.MinimumNArgs(2),
		RunE:  validateFiles,
	}
	validateCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "number of workers")
	validateCmd.Flags().StringVar(&gasFile, "gas", "", "gas species file (yaml/json)")

	plotCmd := &cobra.Command{
		Use:   "plot [file]",
		Short: "plot the size distribution of a mode or dist file",
		Args:  cobra.ExactArgs(1),
		RunE:  plotFile,
	}
	addGridFlags(plotCmd)
	plotCmd.Flags().BoolVar(&logPlot, "log", false, "log10 y axis")

	saveCmd := &cobra.Command{
		Use:   "save [file]",
		Short: "validate a mode or dist file and save it to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE:  saveFile,
	}
	addGridFlags(saveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved descriptors",
		RunE:  listDescriptors,
	}

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "show a saved descriptor",
		Args:  cobra.ExactArgs(1),
		RunE:  showDescriptor,
	}
	showCmd.Flags().BoolVar(&logPlot, "log", false, "log10 y axis")

	exportCmd := &cobra.Command{
		Use:   "export [id]",
		Short: "export a saved descriptor",
		Args:  cobra.ExactArgs(1),
		RunE:  exportDescriptor,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format (json, csv or svg)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "browse saved descriptors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := openCatalog()
			if err != nil {
				return err
			}
			defer cat.Close()
			return viz.RunBrowser(cat, plotOptions())
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list preset modes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(speciesCmd, modeCmd, distCmd, gasCmd, scenarioCmd, validateCmd, plotCmd, saveCmd, listCmd, showCmd, exportCmd, browseCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addGridFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&bins, "bins", config.DefaultBins, "number of radius bins")
	cmd.Flags().Float64Var(&rMin, "r-min", config.DefaultRMin, "smallest bin edge radius (m)")
	cmd.Flags().Float64Var(&rMax, "r-max", config.DefaultRMax, "largest bin edge radius (m)")
}

// setup loads the config file; flags given on the command line win over it.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") || configFile == "" {
		cfg.DataDir = dataDir
	}
	if flags.Changed("store") || configFile == "" {
		cfg.Store = storeKind
	}
	if flags.Changed("log-level") || configFile == "" {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") || configFile == "" {
		cfg.LogFormat = logFormat
	}
	if flags.Changed("species") {
		cfg.Species = speciesFile
	}
	if flags.Changed("strict") {
		cfg.StrictSpecies = strict
	}
	if f := flags.Lookup("workers"); f != nil && (f.Changed || configFile == "") {
		cfg.Workers = workers
	}
	if f := flags.Lookup("bins"); f != nil && (f.Changed || configFile == "") {
		cfg.Grid = config.GridConfig{Bins: bins, RMin: rMin, RMax: rMax}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	viz.SetTheme(theme)
	log = logger.FromEnv(cfg.LogLevel, cfg.LogFormat)
	return nil
}

func loadSpecies() (*aero.Data, error) {
	if cfg.Species == "" {
		return aero.NewData(config.DefaultSpecies...)
	}
	v, err := params.Load(cfg.Species)
	if err != nil {
		return nil, err
	}
	d, err := aero.NewDataFromParams(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Species, err)
	}
	return d, nil
}

func loadGas() (*gas.Data, error) {
	if gasFile == "" {
		return gas.NewData()
	}
	v, err := params.Load(gasFile)
	if err != nil {
		return nil, err
	}
	g, err := gas.NewDataFromParams(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", gasFile, err)
	}
	return g, nil
}

func openCatalog() (storage.Catalog, error) {
	return storage.Open(cfg.Store, cfg.DataDir)
}

func plotOptions() viz.PlotOptions {
	return viz.PlotOptions{Width: cfg.Plot.Width, Height: cfg.Plot.Height, Log: logPlot}
}

// loadDescriptor reads a mode (single-key mapping) or a dist (list of modes).
func loadDescriptor(path string, data *aero.Data) (*aero.Dist, storage.Kind, error) {
	v, err := params.Load(path)
	if err != nil {
		return nil, "", err
	}
	opts := cfg.BuildOptions(log)
	if v.IsList() {
		d, err := aero.NewDist(data, v, opts...)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		return d, storage.KindDist, nil
	}
	m, err := aero.NewModeFromParams(data, v, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	d, err := aero.NewDistFromModes(data, m)
	if err != nil {
		return nil, "", err
	}
	return d, storage.KindMode, nil
}

func showSpecies(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg.Species = args[0]
	}
	data, err := loadSpecies()
	if err != nil {
		return err
	}
	fmt.Print(viz.DataSummary(data))
	return nil
}

func validateMode(cmd *cobra.Command, args []string) error {
	data, err := loadSpecies()
	if err != nil {
		return err
	}

	var m *aero.Mode
	source := ""
	switch {
	case preset != "":
		group, name, ok := strings.Cut(preset, "/")
		mc := config.GetPreset(group, name)
		if !ok || mc == nil {
			return fmt.Errorf("unknown preset: %s (groups: %v)", preset, config.ListGroups())
		}
		m, err = aero.NewMode(data, *mc, cfg.BuildOptions(log)...)
		source = "preset:" + preset
	case len(args) == 1:
		var v *params.Value
		v, err = params.Load(args[0])
		if err != nil {
			return err
		}
		m, err = aero.NewModeFromParams(data, v, cfg.BuildOptions(log)...)
		source = args[0]
	default:
		return fmt.Errorf("need a mode file or --preset")
	}
	if err != nil {
		return err
	}

	fmt.Print(viz.ModeSummary(m))
	if !saveResult {
		return nil
	}
	d, err := aero.NewDistFromModes(data, m)
	if err != nil {
		return err
	}
	return save(d, storage.KindMode, m.Name(), source)
}

func validateDist(cmd *cobra.Command, args []string) error {
	data, err := loadSpecies()
	if err != nil {
		return err
	}
	v, err := params.Load(args[0])
	if err != nil {
		return err
	}
	d, err := aero.NewDist(data, v, cfg.BuildOptions(log)...)
	if err != nil {
		return err
	}
	grid, err := cfg.BinGrid()
	if err != nil {
		return err
	}
	fmt.Print(viz.DistSummary(d, grid, 40))
	if !saveResult {
		return nil
	}
	return save(d, storage.KindDist, descriptorName(args[0]), args[0])
}

func showGas(cmd *cobra.Command, args []string) error {
	gasFile = args[0]
	g, err := loadGas()
	if err != nil {
		return err
	}
	fmt.Print(viz.GasSummary(g))
	return nil
}

func validateScenario(cmd *cobra.Command, args []string) error {
	data, err := loadSpecies()
	if err != nil {
		return err
	}
	g, err := loadGas()
	if err != nil {
		return err
	}
	v, err := params.Load(args[0])
	if err != nil {
		return err
	}
	s, err := scenario.New(g, data, v, cfg.BuildOptions(log)...)
	if err != nil {
		return err
	}
	fmt.Print(viz.ScenarioSummary(s))
	return nil
}

func validateFiles(cmd *cobra.Command, args []string) error {
	kind, err := batch.ParseKind(args[0])
	if err != nil {
		return err
	}
	data, err := loadSpecies()
	if err != nil {
		return err
	}
	g, err := loadGas()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	v := batch.NewValidator(data, g, cfg.Workers, cfg.BuildOptions(log)...)
	results := v.Run(ctx, kind, args[1:])

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s\t%s\t%s\n", viz.StatusError.Render("FAIL"), r.Path, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t\n", viz.StatusOK.Render("ok"), r.Path)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	failed := batch.Failed(results)
	log.Info("validated files", zap.Int("total", len(results)), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(results))
	}
	return nil
}

func plotFile(cmd *cobra.Command, args []string) error {
	data, err := loadSpecies()
	if err != nil {
		return err
	}
	d, _, err := loadDescriptor(args[0], data)
	if err != nil {
		return err
	}
	grid, err := cfg.BinGrid()
	if err != nil {
		return err
	}

	opts := plotOptions()
	for _, m := range d.Modes() {
		fmt.Println(viz.PlotBins(grid, m.NumConcPerBin(grid), m.Name(), opts))
		fmt.Println()
	}
	if d.Len() > 1 {
		fmt.Println(viz.PlotBins(grid, d.NumConcPerBin(grid), "total", opts))
	}
	return nil
}

func saveFile(cmd *cobra.Command, args []string) error {
	data, err := loadSpecies()
	if err != nil {
		return err
	}
	d, kind, err := loadDescriptor(args[0], data)
	if err != nil {
		return err
	}
	name := descriptorName(args[0])
	if kind == storage.KindMode {
		name = d.Mode(0).Name()
	}
	return save(d, kind, name, args[0])
}

func descriptorName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func save(d *aero.Dist, kind storage.Kind, name, source string) error {
	grid, err := cfg.BinGrid()
	if err != nil {
		return err
	}
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	v := d.Params()
	if kind == storage.KindMode {
		v = d.Mode(0).Params()
	}
	rec, err := storage.NewRecord(kind, name, source, v)
	if err != nil {
		return err
	}
	rec.NumConc = d.NumConc()

	id, err := cat.Save(rec, &storage.Bins{Radius: grid.Centers(), NumConc: d.NumConcPerBin(grid)})
	if err != nil {
		return err
	}
	log.Info("saved descriptor", zap.String("id", id), zap.String("kind", string(kind)))
	fmt.Printf("saved: %s\n", id)
	return nil
}

func listDescriptors(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	recs, err := cat.List()
	if err != nil {
		return err
	}
	fmt.Print(viz.RecordTable(recs))
	return nil
}

func showDescriptor(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	rec, err := cat.Load(args[0])
	if err != nil {
		return err
	}
	v, err := rec.Value()
	if err != nil {
		return err
	}
	fmt.Printf("id: %s\n", rec.ID)
	fmt.Printf("kind: %s\n", rec.Kind)
	fmt.Printf("name: %s\n", rec.Name)
	fmt.Printf("num_conc: %g\n\n", rec.NumConc)
	fmt.Println(v.String())

	b, err := cat.LoadBins(args[0])
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(viz.PlotSeries(b.NumConc, "num_conc per bin", plotOptions()))
	return nil
}

func exportDescriptor(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	defer cat.Close()

	rec, err := cat.Load(args[0])
	if err != nil {
		return err
	}
	bins, err := cat.LoadBins(args[0])
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if exportOutput == "" {
		return export.Write(os.Stdout, format, rec, bins)
	}
	file, err := os.Create(exportOutput)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := export.Write(file, format, rec, bins); err != nil {
		return err
	}
	fmt.Printf("exported: %s\n", exportOutput)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, g := range config.ListGroups() {
			fmt.Printf("%s: %s\n", g, strings.Join(config.ListPresets(g), ", "))
		}
		return nil
	}
	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Printf("no presets for group: %s\n", args[0])
		return nil
	}
	fmt.Printf("presets for %s:\n", args[0])
	for _, p := range presets {
		fmt.Printf("  %s\n", p)
	}
	return nil
}
