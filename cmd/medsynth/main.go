package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arclinic/medsynth/pkg/config"
	"github.com/arclinic/medsynth/pkg/dataset"
	"github.com/arclinic/medsynth/pkg/heuristics"
	"github.com/arclinic/medsynth/pkg/match"
	"github.com/arclinic/medsynth/pkg/profile"
	"github.com/arclinic/medsynth/pkg/refdata"
	"github.com/arclinic/medsynth/pkg/store"
)

type options struct {
	referencePath     string
	referenceURL      string
	outcomesPath      string
	heuristicsPath    string
	outputPath        string
	dbPath            string
	matchThreshold    float64
	syntheticVersions int
	shuffleSeed       int64
	profileSeed       int64
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	opts := &options{}
	root := &cobra.Command{
		Use:           "medsynth",
		Short:         "Builds a synthetic patient-profile training corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.referencePath, "reference", cfg.ReferencePath, "path to the disease-symptom reference dataset (json or csv)")
	pf.StringVar(&opts.referenceURL, "reference-url", cfg.ReferenceURL, "URL to download the reference dataset from when missing")
	pf.StringVar(&opts.outcomesPath, "outcomes", cfg.OutcomesPath, "path to the patient-outcomes CSV")
	pf.Float64Var(&opts.matchThreshold, "threshold", cfg.MatchThreshold, "minimum 0-100 similarity for a disease-name match")

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the training dataset CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), logger, opts)
		},
	}
	bf := buildCmd.Flags()
	bf.StringVar(&opts.heuristicsPath, "heuristics", cfg.HeuristicsPath, "path to the keyword-heuristics config (created with defaults if missing)")
	bf.StringVar(&opts.outputPath, "out", cfg.OutputPath, "output CSV path")
	bf.StringVar(&opts.dbPath, "db", cfg.DBPath, "optional sqlite database recording the run")
	bf.IntVar(&opts.syntheticVersions, "versions", cfg.SyntheticVersions, "synthetic profiles per reference disease")
	bf.Int64Var(&opts.shuffleSeed, "shuffle-seed", cfg.ShuffleSeed, "seed for the deterministic final shuffle")
	bf.Int64Var(&opts.profileSeed, "profile-seed", cfg.ProfileSeed, "seed for synthetic profile sampling (0 = time-seeded)")

	fetchCmd := &cobra.Command{
		Use:   "fetch-reference",
		Short: "Download the reference dataset if not already cached",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), logger, opts)
		},
	}

	unmatchedCmd := &cobra.Command{
		Use:   "unmatched",
		Short: "List reference diseases no outcome record matched",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnmatched(cmd, opts)
		},
	}

	root.AddCommand(buildCmd, fetchCmd, unmatchedCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// loadPipelineInputs resolves the reference dataset (downloading when needed)
// and the outcome records shared by the build and unmatched commands.
func loadPipelineInputs(ctx context.Context, opts *options) ([]refdata.Entry, *match.Matcher, error) {
	if err := refdata.EnsureDataset(ctx, opts.referencePath, opts.referenceURL); err != nil {
		return nil, nil, err
	}
	refs, err := refdata.Load(opts.referencePath)
	if err != nil {
		return nil, nil, err
	}
	matcher, err := match.NewMatcherFromFile(opts.outcomesPath, refs, opts.matchThreshold)
	if err != nil {
		return nil, nil, err
	}
	return refs, matcher, nil
}

func runBuild(ctx context.Context, logger zerolog.Logger, opts *options) error {
	start := time.Now()

	if err := heuristics.EnsureConfigFile(opts.heuristicsPath); err != nil {
		return err
	}
	hcfg, err := heuristics.LoadConfig(opts.heuristicsPath)
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if opts.profileSeed != 0 {
		rng = rand.New(rand.NewSource(opts.profileSeed))
	}
	factory := profile.NewFactory(heuristics.NewEngine(hcfg, rng), opts.syntheticVersions)

	refs, matcher, err := loadPipelineInputs(ctx, opts)
	if err != nil {
		return err
	}
	logger.Info().
		Int("references", len(refs)).
		Int("positive_outcomes", matcher.PositiveOutcomes()).
		Msg("datasets loaded")

	builder := dataset.NewBuilder(matcher, factory, refs)
	builder.ShuffleSeed = opts.shuffleSeed
	examples := builder.Build(opts.syntheticVersions)

	matched := len(matcher.MapProfiles())
	logger.Info().
		Int("matched", matched).
		Int("unmatched_references", len(matcher.UnmatchedDiseases())).
		Int("examples", len(examples)).
		Msg("dataset built")

	if err := dataset.WriteCSV(opts.outputPath, examples); err != nil {
		return err
	}
	logger.Info().Str("path", opts.outputPath).Msg("dataset written")

	if opts.dbPath != "" {
		if err := persistRun(refs, matcher, examples, opts); err != nil {
			return err
		}
		logger.Info().Str("db", opts.dbPath).Msg("run recorded")
	}

	logger.Info().Dur("elapsed", time.Since(start)).Msg("build complete")
	return nil
}

func persistRun(refs []refdata.Entry, matcher *match.Matcher, examples []dataset.TrainingExample, opts *options) error {
	db, err := store.Open(opts.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, e := range refs {
		if _, err := store.UpsertReferenceEntry(db, e); err != nil {
			return err
		}
	}

	run := store.NewRun(len(refs), matcher.PositiveOutcomes(), len(matcher.MapProfiles()), opts.syntheticVersions)
	if err := store.CreateRun(db, run); err != nil {
		return err
	}

	w := store.NewExampleWriter(db, run.ID, 200, 0)
	for _, ex := range examples {
		if err := w.Submit(ex); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	return store.FinishRun(db, run.ID, len(examples))
}

func runFetch(ctx context.Context, logger zerolog.Logger, opts *options) error {
	if err := refdata.EnsureDataset(ctx, opts.referencePath, opts.referenceURL); err != nil {
		return err
	}
	refs, err := refdata.Load(opts.referencePath)
	if err != nil {
		return err
	}
	logger.Info().Int("references", len(refs)).Str("path", opts.referencePath).Msg("reference dataset ready")
	return nil
}

func runUnmatched(cmd *cobra.Command, opts *options) error {
	_, matcher, err := loadPipelineInputs(cmd.Context(), opts)
	if err != nil {
		return err
	}
	names := make([]string, 0)
	for n := range matcher.UnmatchedDiseases() {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d reference diseases unmatched\n", len(names), matcher.References())
	return nil
}
