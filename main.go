package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	ex "github.com/GabrielFrota/NewsPrice/data/extensions"
	r "github.com/GabrielFrota/NewsPrice/data/repos"
	"github.com/GabrielFrota/NewsPrice/service/api"
	av "github.com/GabrielFrota/NewsPrice/service/api/alpha_vantage"
	nyt "github.com/GabrielFrota/NewsPrice/service/api/nytimes"
	"github.com/GabrielFrota/NewsPrice/service/config"
	c "github.com/GabrielFrota/NewsPrice/service/core"
	"github.com/GabrielFrota/NewsPrice/service/logging"
	sm "github.com/GabrielFrota/NewsPrice/service/models"
	"github.com/GabrielFrota/NewsPrice/service/sentiment"
)

const shutdownTimeout = 10 * time.Second

var (
	runSymbol string
	runQuery  string
	runFrom   string
	runTo     string
	runInput  string
)

var rootCmd = &cobra.Command{
	Use:   "newsprice",
	Short: "Correlates news sentiment with daily stock price variation",
	Long: `newsprice scores news abstracts about a company from -2 to +2 and correlates the
scores with the daily close variation of its stock, on the trading day of publication
and the two trading days before and after it.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports over http",
	RunE:  runServe,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build one report and print it",
	Long: `Build one report and print it. Closes and news are fetched for --symbol and --query
between --from and --to, or read from a json file of prices and observations with --input.

Example usage:
  newsprice run --symbol TSLA --query Tesla --from 2021-09-01 --to 2021-09-30
  newsprice run --input report.json`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runSymbol, "symbol", "", "Stock symbol, e.g. TSLA")
	runCmd.Flags().StringVar(&runQuery, "query", "", "News search query, defaults to the symbol")
	runCmd.Flags().StringVar(&runFrom, "from", "", "First day of the range, YYYY-MM-DD")
	runCmd.Flags().StringVar(&runTo, "to", "", "Last day of the range, YYYY-MM-DD")
	runCmd.Flags().StringVar(&runInput, "input", "", "Json file of prices and observations, nothing is fetched")
	runCmd.MarkFlagsMutuallyExclusive("input", "symbol")
}

func main() {
	// listen for interrupt and term signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*c.ServiceContext, *config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, nil, nil, err
	}

	sc, cleanup, err := buildServiceContext(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return sc, cfg, cleanup, nil
}

// buildServiceContext connects whatever the configuration names, missing keys leave their part nil
func buildServiceContext(ctx context.Context, cfg *config.Config) (*c.ServiceContext, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	sc := &c.ServiceContext{
		Context: ctx,
		Series:  av.ParseTimeSeries(cfg.AlphaVantageSeries),
		Metrics: c.NewMetrics(),
	}

	if cfg.DatabaseUrl != "" {
		pg, err := r.GetPostgresConnection(ctx, cfg.DatabaseUrl)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, pg.Close)
		sc.Postgres = pg
	} else {
		log.Warn().Msg("DATABASE_URL not set, reports will not be stored")
	}

	if cfg.AlphaVantageApiKey != "" {
		sc.AlphaVantage = av.GetClient(api.ClientOptions{
			Host:              cfg.AlphaVantageHost,
			RequestsPerMinute: cfg.AlphaVantageRPM,
		}, cfg.AlphaVantageApiKey, cfg.AlphaVantageOutputSize)
	}

	if cfg.NYTimesApiKey != "" {
		sc.NYTimes = nyt.GetClient(api.ClientOptions{
			Host:              cfg.NYTimesHost,
			RequestsPerMinute: cfg.NYTimesRequestsPerMinute,
		}, cfg.NYTimesApiKey, cfg.NYTimesPagesPerWindow)
	}

	if cfg.AnthropicApiKey != "" {
		var classifier sentiment.Classifier = sentiment.NewClaudeClassifier(cfg.AnthropicApiKey, cfg.SentimentModel)
		if cfg.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			closers = append(closers, func() { _ = rdb.Close() })
			classifier = sentiment.NewCachedClassifier(classifier, rdb, cfg.SentimentCacheTTL)
		}
		sc.Classifier = classifier
	}

	if !cfg.HasFeeds() {
		log.Warn().Msg("feed or model keys missing, only caller supplied reports are available")
	}

	return sc, cleanup, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sc, cfg, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	s := c.GetHttpServer(sc, cfg.HttpAddr)

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Msg("starting newsprice server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	// wait here until the context is closed (ie, ctrl+C) or the server fails
	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("received shutdown signal, shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info().Msg("server stopped successfully")
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	sc, _, cleanup, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	var report *c.CorrelationReport
	var res *sm.ReportResponse

	if runInput != "" {
		req, err := readRequest(runInput)
		if err != nil {
			return err
		}
		if report, err = sc.RunReportFromRequest(*req); err != nil {
			return err
		}
		res = c.ToReportResponse(report, "", "", time.Time{}, time.Time{})
	} else {
		from, err := ex.ParseShort(runFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		to, err := ex.ParseShort(runTo)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		query := runQuery
		if query == "" {
			query = runSymbol
		}

		if report, err = sc.RunReport(runSymbol, query, from, to); err != nil {
			return err
		}
		res = c.ToReportResponse(report, runSymbol, query, from, to)
	}

	return printReport(cmd.OutOrStdout(), res)
}

func readRequest(path string) (*sm.ReportRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	var req sm.ReportRequest
	decoder := json.NewDecoder(f)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return &req, nil
}

func printReport(out io.Writer, res *sm.ReportResponse) error {
	fmt.Fprintf(out, "%d observations over %d trading days\n", res.Observations, res.TradingDays)

	for _, o := range res.Results {
		fmt.Fprintf(out, "\n%s (offset %+d)\n", o.Description, o.Offset)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PUBLISHED\tTRADING DAY\tSCORE\tVARIATION")
		for _, p := range o.Pairs {
			fmt.Fprintf(w, "%s\t%s\t%+d\t%+.4f\n", p.PublishedOn, p.TradingDay, p.Score, p.Variation)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if o.Coefficient.Valid {
			fmt.Fprintf(out, "correlation: %.4f", o.Coefficient.Float64)
		} else {
			fmt.Fprintf(out, "correlation: %s", o.Outcome)
		}
		if o.Excluded > 0 {
			fmt.Fprintf(out, " (%d observations without a trading day)", o.Excluded)
		}
		fmt.Fprintln(out)
	}
	return nil
}
