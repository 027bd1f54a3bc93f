package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"marketflow/internal/candles"
	"marketflow/internal/config"
	"marketflow/internal/congestion"
	"marketflow/internal/indicator"
	"marketflow/internal/ratelimit"
	"marketflow/internal/source"
	"marketflow/internal/workflow"
	"marketflow/pkg/model"
)

var (
	cfgFile string
	format  string
	asOfArg string
	utName  string
	cfdCode string
	isUS    bool
	hours   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "marketflow",
		Short: "Candle aggregation, indicators and workflow evaluation",
		Long: `Marketflow builds session-aware candles from raw price bars,
computes technical indicators over them and evaluates a declarative
workflow catalog into candidate orders.

Examples:
  marketflow evaluate --config config.yaml
  marketflow indicators DAX.I --ut h4
  marketflow congestion VIRP.PA --hours 200`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.PersistentFlags().StringVar(&asOfArg, "as-of", "", "evaluation instant (RFC3339), default now")

	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the workflow catalog into candidate orders",
		RunE:  runEvaluate,
	}

	indicatorsCmd := &cobra.Command{
		Use:   "indicators SYMBOL",
		Short: "Compute indicators over a symbol's session candles",
		Args:  cobra.ExactArgs(1),
		RunE:  runIndicators,
	}
	indicatorsCmd.Flags().StringVar(&utName, "ut", "h1", "unit time: h1, h4, daily")
	indicatorsCmd.Flags().StringVar(&cfdCode, "cfd", "", "cfd proxy symbol (default: the symbol itself)")
	indicatorsCmd.Flags().BoolVar(&isUS, "us", false, "use the US trading session")
	indicatorsCmd.Flags().IntVar(&hours, "hours", 165, "lookback hours")

	congestionCmd := &cobra.Command{
		Use:   "congestion SYMBOL",
		Short: "Detect congestion trend lines over a symbol's candles",
		Args:  cobra.ExactArgs(1),
		RunE:  runCongestion,
	}
	congestionCmd.Flags().StringVar(&utName, "ut", "h1", "unit time: h1, h4, daily")
	congestionCmd.Flags().StringVar(&cfdCode, "cfd", "", "cfd proxy symbol (default: the symbol itself)")
	congestionCmd.Flags().BoolVar(&isUS, "us", false, "use the US trading session")
	congestionCmd.Flags().IntVar(&hours, "hours", 200, "lookback hours")

	rootCmd.AddCommand(evaluateCmd, indicatorsCmd, congestionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired components every subcommand needs.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	candles *candles.Service
}

func setup() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	fileSrc, err := source.NewFile(cfg.Bars.Path, log)
	if err != nil {
		return nil, err
	}
	src := ratelimit.NewSource(source.NewCaching(fileSrc), cfg.Bars.RateLimit)

	return &app{
		cfg:     cfg,
		log:     log,
		candles: candles.NewService(src, log),
	}, nil
}

func asOf() (time.Time, error) {
	if asOfArg == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, asOfArg)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of: %w", err)
	}
	return t.UTC(), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted.")
		cancel()
	}()
	return ctx, cancel
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	now, err := asOf()
	if err != nil {
		return err
	}

	workflows, err := workflow.LoadCatalog(a.cfg.Catalog.Path, a.log)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	if len(workflows) == 0 {
		return fmt.Errorf("no workflows in catalog")
	}

	ctx, cancel := signalContext()
	defer cancel()

	engine := workflow.NewEngine(a.candles, a.log)

	bar := progressbar.NewOptions(len(workflows),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Evaluating"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	var orders []model.Order
	for i, wf := range workflows {
		select {
		case <-ctx.Done():
			bar.Finish()
			fmt.Println("\nEvaluation interrupted")
			return ctx.Err()
		default:
		}
		orders = append(orders, engine.Evaluate(ctx, []model.Workflow{wf}, now)...)
		bar.Set(i + 1)
	}
	bar.Finish()
	fmt.Println()

	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(orders)
	}
	return outputOrdersTable(orders, len(workflows))
}

func outputOrdersTable(orders []model.Order, evaluated int) error {
	if len(orders) == 0 {
		fmt.Printf("No workflow matched. Evaluated %d workflows.\n", evaluated)
		return nil
	}
	fmt.Printf("%d workflow(s) produced a candidate order:\n\n", len(orders))

	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Symbol", "Direction", "Kind", "Price", "Quantity"}),
	)
	for _, o := range orders {
		table.Append([]string{
			o.Code,
			string(o.Direction),
			string(o.Kind),
			fmt.Sprintf("%.2f", o.Price),
			fmt.Sprintf("%g", o.Quantity),
		})
	}
	table.Render()
	return nil
}

func sessionCandles(ctx context.Context, a *app, symbol string) ([]model.Candle, error) {
	ut, err := model.ParseUnitTime(utName)
	if err != nil {
		return nil, err
	}
	cfd := cfdCode
	if cfd == "" {
		cfd = symbol
	}
	window := model.EUMarket()
	if isUS {
		window = model.USMarket()
	}
	now, err := asOf()
	if err != nil {
		return nil, err
	}
	return a.candles.BuildSessionCandles(ctx, symbol, cfd, ut, window, hours, now)
}

func runIndicators(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	series, err := sessionCandles(ctx, a, args[0])
	if err != nil {
		return fmt.Errorf("building candles: %w", err)
	}

	type row struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}
	var rows []row
	if ma, err := indicator.SimpleMovingAverage(series, 50); err == nil {
		rows = append(rows, row{"MA50", ma})
	}
	if bands, err := indicator.Bollinger(series, 2.0, 20); err == nil {
		rows = append(rows,
			row{"BB bottom", bands.Bottom},
			row{"BB middle", bands.Middle},
			row{"BB up", bands.Up},
		)
	}
	if atr, err := indicator.AverageTrueRange(series); err == nil {
		rows = append(rows, row{"ATR(14)", atr})
	}
	if macd, err := indicator.MACDZeroLag(series); err == nil {
		rows = append(rows,
			row{"MACD line", macd.Line},
			row{"MACD signal", macd.Signal},
		)
	}
	if len(rows) == 0 {
		return fmt.Errorf("not enough candles for any indicator (%d built)", len(series))
	}

	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	}

	fmt.Printf("%s: %d candles built\n\n", args[0], len(series))
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Indicator", "Value"}),
	)
	for _, r := range rows {
		table.Append([]string{r.Name, fmt.Sprintf("%.4f", r.Value)})
	}
	table.Render()
	return nil
}

func runCongestion(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	series, err := sessionCandles(ctx, a, args[0])
	if err != nil {
		return fmt.Errorf("building candles: %w", err)
	}

	resistance := congestion.Detect(congestion.Resistance, series)
	support := congestion.Detect(congestion.Support, series)

	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string][]model.Candle{
			"resistance": resistance,
			"support":    support,
		})
	}

	printTouches := func(kind string, touches []model.Candle) {
		if len(touches) == 0 {
			fmt.Printf("No %s line found.\n", kind)
			return
		}
		fmt.Printf("%s line touched %d time(s):\n", kind, len(touches))
		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithHeader([]string{"Time", "Lower", "Higher", "Close"}),
		)
		for _, c := range touches {
			table.Append([]string{
				c.Time.Format("2006-01-02 15:04"),
				fmt.Sprintf("%.4f", c.Lower),
				fmt.Sprintf("%.4f", c.Higher),
				fmt.Sprintf("%.4f", c.Close),
			})
		}
		table.Render()
	}
	printTouches("Resistance", resistance)
	fmt.Println()
	printTouches("Support", support)
	return nil
}
