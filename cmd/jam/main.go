// Package main is the entry point for the jam CLI
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-jam/algorithms/tonal"
	"github.com/RyanBlaney/sonido-jam/alignment"
	"github.com/RyanBlaney/sonido-jam/analysis"
	"github.com/RyanBlaney/sonido-jam/config"
	"github.com/RyanBlaney/sonido-jam/jam"
	"github.com/RyanBlaney/sonido-jam/logging"
	"github.com/RyanBlaney/sonido-jam/transcode"
	"github.com/RyanBlaney/sonido-jam/tune"
)

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

var (
	chartRef       string
	outputFile     string
	soloChoruses   int
	tempo          float64
	firstBeat      float64
	chunkBars      int
	seed           int64
	workers        int
	logLevel       string
	detectHalfTime bool

	cfg *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jam",
	Short: "Splice solo choruses from several recordings of a jazz tune into a new performance",
	Long: `jam aligns each recording against the tune's chord changes, cuts it into
head, solo and head-out choruses, and builds a new take from random chunks of
the recordings' solos.

Recordings are Echo Nest analysis files (.json) or audio files analysed on a
fixed tempo grid. The grid tempo and first beat are estimated from the audio
unless --tempo is given.

Examples:
  jam charts
  jam chord Dm7b5 G7
  jam align -t blue-bossa take1.json take2.json
  jam run -t blue-bossa -c 4 -o jam.mp3 take1.json take2.json take3.json
  jam run -t ./my-chart.yaml -o jam.json --tempo 180 take1.mp3 take2.mp3`,
	PersistentPreRunE: setup,
}

var runCmd = &cobra.Command{
	Use:   "run <recording>...",
	Short: "Generate a jam and render it to audio, or to a playlist when the output ends in .json",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runJam,
}

var alignCmd = &cobra.Command{
	Use:   "align <recording>...",
	Short: "Show where each recording's choruses start",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAlign,
}

var chordCmd = &cobra.Command{
	Use:   "chord <symbol>...",
	Short: "Show how chord symbols are parsed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChord,
}

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "List the built-in tune charts",
	Args:  cobra.NoArgs,
	RunE:  runCharts,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides JAM_LOG_LEVEL")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Concurrent alignment workers; overrides JAM_WORKERS")

	// Flags shared by commands that read recordings
	for _, cmd := range []*cobra.Command{runCmd, alignCmd} {
		cmd.Flags().StringVarP(&chartRef, "tune", "t", "", "Built-in chart name or chart file (required)")
		cmd.Flags().Float64Var(&tempo, "tempo", 0, "Grid tempo in BPM for audio recordings; estimated when unset")
		cmd.Flags().Float64Var(&firstBeat, "first-beat", 0, "Seconds before the first downbeat of audio recordings; detected when --tempo is unset")
		_ = cmd.MarkFlagRequired("tune")
	}

	// run command
	runCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output audio file, or .json for the playlist (required)")
	runCmd.Flags().IntVarP(&soloChoruses, "choruses", "c", jam.DefaultParams().SoloChoruses, "Solo choruses to generate")
	runCmd.Flags().IntVar(&chunkBars, "chunk-bars", 0, "Bars taken from one recording at a time; overrides JAM_CHUNK_BARS")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed; overrides JAM_SEED")
	runCmd.Flags().BoolVar(&detectHalfTime, "detect-half-time", false, "Halve chunks when the first recording's analysis looks half-time")
	_ = runCmd.MarkFlagRequired("output")

	// Add commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(chordCmd)
	rootCmd.AddCommand(chartsCmd)
}

// setup loads the environment configuration and applies flag overrides.
// Arguments are validated by then, so later errors skip the usage text.
func setup(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true
	cfg = config.Load()

	if cmd.Flags().Changed("log-level") {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("chunk-bars") {
		cfg.ChunkBars = chunkBars
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}

	logging.SetLevel(cfg.LogLevel)
	return nil
}

// session holds what the recording commands share.
type session struct {
	cache     *tonal.ChordCache
	structure *tune.Structure
	aligner   *alignment.ChorusAligner
	loader    *analysis.Loader
	decoder   *transcode.Decoder
}

func newSession() (*session, error) {
	chart, err := tune.Resolve(chartRef)
	if err != nil {
		return nil, err
	}

	cache := tonal.NewChordCache()
	structure, err := tune.Parse(chart, cache)
	if err != nil {
		return nil, err
	}

	decoder := transcode.NewDecoder(cfg.DecoderConfig(), nil)
	grid := analysis.GridParams{Tempo: tempo, BeatsPerBar: analysis.SupportedTimeSignature, FirstBeat: firstBeat}

	return &session{
		cache:     cache,
		structure: structure,
		aligner:   alignment.NewChorusAligner(cache, cfg.AlignerParams(), nil),
		loader:    analysis.NewLoader(decoder, grid, nil),
		decoder:   decoder,
	}, nil
}

func (s *session) jamTunes(ctx context.Context, paths []string) ([]*jam.JamTune, error) {
	tunes := make([]*jam.JamTune, 0, len(paths))
	for _, path := range paths {
		rec, err := s.loader.Load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		jt, err := jam.NewJamTune(s.structure, rec, s.aligner, cfg.TuneParams(), nil)
		if err != nil {
			return nil, err
		}
		tunes = append(tunes, jt)
	}
	return tunes, nil
}

func runJam(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := newSession()
	if err != nil {
		return err
	}

	tunes, err := s.jamTunes(ctx, args)
	if err != nil {
		return err
	}

	params := cfg.JamParams(soloChoruses)
	params.DetectHalfTime = detectHalfTime
	jammer, err := jam.NewJammer(s.structure, tunes, params, nil)
	if err != nil {
		return err
	}

	playlist, err := jammer.Generate()
	if err != nil {
		return err
	}

	fmt.Printf("Jam %s: %s, %d segments from %d recordings, %s (seed %d)\n",
		playlist.ID, s.structure.Name, len(playlist.Segments), len(playlist.Sources()),
		formatDuration(playlist.TotalDuration()), playlist.Seed)

	if strings.EqualFold(filepath.Ext(outputFile), ".json") {
		return writePlaylist(playlist, outputFile)
	}

	renderer := jam.NewRenderer(s.decoder, transcode.NewEncoder(cfg.EncoderConfig(), nil), nil)
	if _, err := renderer.Render(ctx, playlist, outputFile); err != nil {
		return err
	}

	info, err := os.Stat(outputFile)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%s)\n", outputFile, humanize.Bytes(uint64(info.Size())))
	return nil
}

func writePlaylist(playlist *jam.Playlist, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := playlist.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote playlist %s\n", path)
	return nil
}

func runAlign(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}

	tunes, err := s.jamTunes(cmd.Context(), args)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d bar chorus\n", s.structure.Name, s.structure.ChorusLength())
	for _, jt := range tunes {
		a, sec := jt.Alignment(), jt.Sections()
		length := time.Duration(analysisDuration(jt.Recording()) * float64(time.Second))
		fmt.Printf("%s\n  length %s, %s bars\n  offset %d, score %.2f\n  %d choruses, %d solo\n",
			jt.Source(), formatDuration(length), humanize.Comma(int64(len(jt.Recording().Bars()))),
			a.Offset, a.Score, sec.TotalChoruses, max(sec.SoloChoruses, 0))
		if jt.HalfTime() {
			fmt.Println("  analysis looks half-time")
		}
	}
	return nil
}

func runChord(_ *cobra.Command, args []string) error {
	cache := tonal.NewChordCache()
	for _, symbol := range args {
		ci, err := cache.Get(symbol)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n  root %s, %s, third %s, fifth %s, seventh %s\n  notes %s\n  anti  %s\n",
			ci.Symbol, ci.Root, ci.Mode, ci.Third, ci.Fifth, ci.Seventh,
			noteNames(ci.NoteInts), noteNames(ci.AntiNoteInts))
	}
	return nil
}

func runCharts(_ *cobra.Command, _ []string) error {
	for _, name := range tune.BuiltinNames() {
		chart, err := tune.Builtin(name)
		if err != nil {
			return err
		}
		suffix := ""
		if chart.HalfTime {
			suffix = ", half time"
		}
		fmt.Printf("%-24s %s (%d bars%s)\n", name, chart.Name, len(chart.Changes), suffix)
	}
	return nil
}

func noteNames(notes []int) string {
	if len(notes) == 0 {
		return "-"
	}
	names := make([]string, len(notes))
	for i, n := range notes {
		names[i] = tonal.NoteName(n)
	}
	return strings.Join(names, " ")
}

func analysisDuration(a analysis.Analysis) float64 {
	bars := a.Bars()
	if len(bars) == 0 {
		return 0
	}
	return analysis.End(bars[len(bars)-1]) - bars[0].Start()
}

func formatDuration(d time.Duration) string {
	return durafmt.Parse(d).LimitFirstN(2).Format(shortUnits)
}
