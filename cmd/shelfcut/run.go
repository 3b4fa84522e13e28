package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/piwi3910/shelfcut/internal/config"
	"github.com/piwi3910/shelfcut/internal/engine"
	"github.com/piwi3910/shelfcut/internal/export"
	"github.com/piwi3910/shelfcut/internal/importer"
	"github.com/piwi3910/shelfcut/internal/logging"
	"github.com/piwi3910/shelfcut/internal/model"
)

// overrideFlags collects the configuration flags shared by every command.
type overrideFlags struct {
	configFile string

	sheetWidth, sheetHeight float64
	threshold, kerf         float64
	rotate, prefilter       bool
	debug                   bool
	sort                    string
	maxSheets, maxRetries   int
	maxDisplay              int

	set map[string]*bool
}

func (f *overrideFlags) register(app *kingpin.Application) {
	f.set = map[string]*bool{}
	flag := func(name, help string) *kingpin.FlagClause {
		b := new(bool)
		f.set[name] = b
		return app.Flag(name, help).IsSetByUser(b)
	}

	app.Flag("config", "Path to YAML configuration file").StringVar(&f.configFile)
	flag("sheet-width", "Sheet width").Float64Var(&f.sheetWidth)
	flag("sheet-height", "Sheet height").Float64Var(&f.sheetHeight)
	flag("rotate", "Allow 90 degree rotation").BoolVar(&f.rotate)
	flag("sort", "Sort method: max-side, area, width, height").StringVar(&f.sort)
	flag("threshold", "Minimum sheet efficiency, 0 to 1").Float64Var(&f.threshold)
	flag("kerf", "Gap left after every piece and row").Float64Var(&f.kerf)
	flag("max-sheets", "Maximum number of sheets, 0 for unlimited").IntVar(&f.maxSheets)
	flag("max-retries", "Gate rejections tolerated per sheet").IntVar(&f.maxRetries)
	flag("max-display", "Sheets rendered in PDF output, 0 for all").IntVar(&f.maxDisplay)
	flag("prefilter", "Drop pieces that cannot fit any sheet before packing").BoolVar(&f.prefilter)
	flag("debug", "Log gate decisions").BoolVar(&f.debug)
}

// overrides returns the CLI layer, holding only flags the user gave.
func (f *overrideFlags) overrides() *config.CLIOverrides {
	o := &config.CLIOverrides{ConfigFile: f.configFile}
	given := func(name string) bool { return *f.set[name] }

	if given("sheet-width") {
		o.SheetWidth = &f.sheetWidth
	}
	if given("sheet-height") {
		o.SheetHeight = &f.sheetHeight
	}
	if given("rotate") {
		o.AllowRotation = &f.rotate
	}
	if given("sort") {
		o.SortMethod = &f.sort
	}
	if given("threshold") {
		o.EfficiencyThreshold = &f.threshold
	}
	if given("kerf") {
		o.Kerf = &f.kerf
	}
	if given("max-sheets") {
		o.MaxSheets = &f.maxSheets
	}
	if given("max-retries") {
		o.MaxGateRetries = &f.maxRetries
	}
	if given("max-display") {
		o.MaxSheetsToDisplay = &f.maxDisplay
	}
	if given("prefilter") {
		o.Prefilter = &f.prefilter
	}
	if given("debug") {
		o.Debug = &f.debug
	}
	return o
}

func run(args []string, stdout, stderr io.Writer) error {
	app := kingpin.New("shelfcut", "Shelf-based sheet packing optimizer")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)

	var flags overrideFlags
	flags.register(app)

	optimizeCmd := app.Command("optimize", "Pack a piece list and report the layout")
	optimizeInput := optimizeCmd.Arg("input", "Piece list (.csv, .xlsx or .dxf)").Required().ExistingFile()
	pdfPath := optimizeCmd.Flag("pdf", "Write sheet layouts to this PDF").String()
	labelsPath := optimizeCmd.Flag("labels", "Write QR piece labels to this PDF").String()
	jsonPath := optimizeCmd.Flag("json", "Write a JSON report to this file, - for stdout").String()

	compareCmd := app.Command("compare", "Compare sort methods and rotation on a piece list")
	compareInput := compareCmd.Arg("input", "Piece list (.csv, .xlsx or .dxf)").Required().ExistingFile()

	configCmd := app.Command("config", "Manage the configuration file")
	initCmd := configCmd.Command("init", "Write the resolved configuration to the config file")
	force := initCmd.Flag("force", "Overwrite an existing file").Bool()

	command, err := app.Parse(args)
	if err != nil {
		return err
	}

	overrides := flags.overrides()
	if command == initCmd.FullCommand() && !fileExists(overrides.ConfigFile) {
		// The target is written, not read, when it does not exist yet.
		overrides.ConfigFile = ""
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case optimizeCmd.FullCommand():
		return runOptimize(cfg, logger, *optimizeInput, outputs{pdf: *pdfPath, labels: *labelsPath, json: *jsonPath}, stdout)
	case compareCmd.FullCommand():
		return runCompare(cfg, logger, *compareInput, stdout)
	case initCmd.FullCommand():
		path := flags.configFile
		if path == "" {
			path = config.DefaultConfigPath()
		}
		return runConfigInit(cfg, path, *force, stdout)
	}
	return fmt.Errorf("unknown command %q", command)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

type outputs struct {
	pdf, labels, json string
}

// loadPieces imports a piece list and applies the pre-filter when enabled.
func loadPieces(cfg config.Config, logger *zap.Logger, path string, stdout io.Writer) ([]model.PieceSpec, error) {
	res := importer.ImportFile(path)
	for _, w := range res.Warnings {
		logger.Warn("import warning", zap.String("file", path), zap.String("detail", w))
	}
	for _, e := range res.Errors {
		fmt.Fprintf(stdout, "import error: %s\n", e)
	}
	if len(res.Pieces) == 0 {
		return nil, fmt.Errorf("no pieces imported from %s", path)
	}

	pieces := res.Pieces
	if cfg.Prefilter {
		var discarded []importer.Discarded
		pieces, discarded = importer.Prefilter(pieces, cfg.SheetWidth, cfg.SheetHeight, cfg.AllowRotation)
		for _, d := range discarded {
			fmt.Fprintf(stdout, "skipped: %s\n", d.Reason)
		}
	}
	logger.Info("pieces loaded", zap.String("file", path), zap.Int("specs", len(pieces)))
	return pieces, nil
}

func runOptimize(cfg config.Config, logger *zap.Logger, input string, out outputs, stdout io.Writer) error {
	pieces, err := loadPieces(cfg, logger, input, stdout)
	if err != nil {
		return err
	}

	opts := cfg.Options()
	result, err := engine.New(opts).WithLogger(logger).Optimize(pieces, cfg.SheetWidth, cfg.SheetHeight)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}

	printSummary(stdout, result, cfg)

	if out.pdf != "" {
		if err := export.ExportPDF(out.pdf, result, export.PDFOptions{Settings: opts, MaxSheets: cfg.MaxSheetsToDisplay}); err != nil {
			return fmt.Errorf("export PDF: %w", err)
		}
		logger.Info("layout written", zap.String("path", out.pdf))
	}
	if out.labels != "" {
		if err := export.ExportLabels(out.labels, result); err != nil {
			return fmt.Errorf("export labels: %w", err)
		}
		logger.Info("labels written", zap.String("path", out.labels))
	}
	if out.json != "" {
		if err := writeReport(out.json, result, opts, stdout); err != nil {
			return fmt.Errorf("export JSON: %w", err)
		}
	}
	return nil
}

func writeReport(path string, result model.PackingResult, opts model.Options, stdout io.Writer) error {
	if path == "-" {
		return export.WriteJSON(stdout, result, opts)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteJSON(f, result, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, result model.PackingResult, cfg config.Config) {
	st := result.Stats()
	fmt.Fprintf(w, "Sheets: %d (%gx%g)\n", st.TotalSheets, cfg.SheetWidth, cfg.SheetHeight)
	fmt.Fprintf(w, "Efficiency: %.1f%% (%s)\n", st.Efficiency*100, model.ClassifyEfficiency(st.Efficiency))
	fmt.Fprintf(w, "Pieces placed: %d, unplaced: %d\n", st.PlacedPieces, st.UnplacedPieces)

	shown := len(result.Sheets)
	if cfg.MaxSheetsToDisplay > 0 && shown > cfg.MaxSheetsToDisplay {
		shown = cfg.MaxSheetsToDisplay
	}
	for i := 0; i < shown; i++ {
		s := result.Sheets[i]
		fmt.Fprintf(w, "  sheet %d: %d pieces, %.1f%% [%s]\n", i+1, len(s.Pieces), s.Efficiency()*100, s.Accepted)
	}
	if hidden := len(result.Sheets) - shown; hidden > 0 {
		fmt.Fprintf(w, "  ... and %d more sheets\n", hidden)
	}
	for _, u := range result.Unplaced {
		fmt.Fprintf(w, "unplaced %s: %s\n", u.Reason, u.Message)
	}
}

func runCompare(cfg config.Config, logger *zap.Logger, input string, stdout io.Writer) error {
	pieces, err := loadPieces(cfg, logger, input, stdout)
	if err != nil {
		return err
	}

	results := engine.CompareScenarios(engine.BuildDefaultScenarios(cfg.Options()), pieces, cfg.SheetWidth, cfg.SheetHeight)
	best := engine.BestScenario(results)

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tSHEETS\tPLACED\tUNPLACED\tEFFICIENCY\t")
	for i, r := range results {
		marker := ""
		if i == best {
			marker = "best"
		}
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%s\t\n", r.Scenario.Name, r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f%%\t%s\n", r.Scenario.Name,
			r.Stats.TotalSheets, r.Stats.PlacedPieces, r.Stats.UnplacedPieces, r.Stats.Efficiency*100, marker)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if best < 0 {
		return errors.New("no scenario produced a result")
	}
	return nil
}

func runConfigInit(cfg config.Config, path string, force bool, stdout io.Writer) error {
	if fileExists(path) {
		if !force {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		backup, err := config.BackupConfig(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "previous configuration saved to %s\n", backup)
	}
	if err := config.SaveConfig(path, cfg); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return nil
}
