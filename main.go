// botstrings is a batch translator for flat YAML bot and UI string files.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/botstrings/config"
	"github.com/minios-linux/botstrings/i18n"
	"github.com/minios-linux/botstrings/pipeline"
	"github.com/minios-linux/botstrings/placeholder"
	"github.com/minios-linux/botstrings/translator"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, blue("[INFO]")+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, green("[OK]")+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, yellow("[WARN]")+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, red("[ERROR]")+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Flags
// ---------------------------------------------------------------------------

// cliFlags mirrors config.Config; a flag only overrides the loaded value
// when it was given on the command line.
type cliFlags struct {
	backend   string
	from      string
	apiKey    string
	baseURL   string
	model     string
	proxy     string
	timeout   time.Duration
	markerMin int
	envFile   string
	dryRun    bool
	verbose   bool
}

func addFlags(fs *pflag.FlagSet, f *cliFlags) {
	fs.StringVarP(&f.backend, "backend", "b", translator.BackendGoogle, "Translation backend: google, openai, echo")
	fs.StringVar(&f.from, "from", "auto", "Source language code passed to the backend")
	fs.StringVar(&f.apiKey, "api-key", "", "API key for the openai backend")
	fs.StringVar(&f.baseURL, "base-url", "", "OpenAI-compatible API base URL")
	fs.StringVar(&f.model, "model", "", "Model for the openai backend")
	fs.StringVar(&f.proxy, "proxy", "", "HTTP/HTTPS proxy URL for the openai backend")
	fs.DurationVar(&f.timeout, "timeout", 0, "Per-request timeout for the translation backend")
	fs.IntVar(&f.markerMin, "marker-min", 1, "Shortest run of '@' restored to a {} placeholder")
	fs.StringVar(&f.envFile, "env-file", "", "Read settings from this .env file instead of ./.env")
	fs.BoolVarP(&f.dryRun, "dry-run", "n", false, "Only report missing keys; do not translate or write")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Show keys next to translations and debug requests")
}

// apply copies explicitly set flags over cfg.
func (f *cliFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("backend") {
		cfg.Backend = f.backend
	}
	if fs.Changed("from") {
		cfg.SourceLang = f.from
	}
	if fs.Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if fs.Changed("base-url") {
		cfg.BaseURL = f.baseURL
	}
	if fs.Changed("model") {
		cfg.Model = f.model
	}
	if fs.Changed("proxy") {
		cfg.Proxy = f.proxy
	}
	if fs.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fs.Changed("marker-min") {
		cfg.MarkerMin = f.markerMin
	}
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	var flags cliFlags

	root := &cobra.Command{
		Use:   "botstrings <source> <lang>...",
		Short: "Translate a YAML string file into other languages",
		Long: `botstrings: batch translator for bot and UI message strings.

Reads a flat YAML file of key: "string" pairs and writes <lang>.<ext> next
to it for every language given. Keys already present in a target file are
never re-translated or overwritten, so running again only fills in what is
missing.

Runs of '@' in the translated text are turned back into {} placeholders.

Backends:
  google   Google Translate web endpoint (default, no key needed)
  openai   OpenAI-compatible chat completions API (BOTSTRINGS_API_KEY)
  echo     Copies source strings unchanged (offline)

Environment (also read from ./.env):
  BOTSTRINGS_BACKEND, BOTSTRINGS_SOURCE_LANG, BOTSTRINGS_API_KEY,
  BOTSTRINGS_BASE_URL, BOTSTRINGS_MODEL, BOTSTRINGS_PROXY,
  BOTSTRINGS_TIMEOUT, BOTSTRINGS_MARKER_MIN`,
		Example: `  botstrings locales/en.yaml de fr ru
  botstrings --backend openai --model gpt-4o-mini strings/en.yml uk`,
		Args:          cobra.MinimumNArgs(2),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args, &flags)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("botstrings version %s\n  commit:    %s\n  built:     %s\n", version, commit, date))

	addFlags(root.Flags(), &flags)
	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

func runTranslate(cmd *cobra.Command, args []string, flags *cliFlags) error {
	source, langs := args[0], args[1:]

	var envFiles []string
	if flags.envFile != "" {
		envFiles = append(envFiles, flags.envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}
	flags.apply(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	tr, err := translator.New(translator.Options{
		Backend:    cfg.Backend,
		SourceLang: cfg.SourceLang,
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Proxy:      cfg.Proxy,
		Timeout:    cfg.Timeout,
		Verbose:    flags.verbose,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// a second signal gets the default behavior and kills the process
		<-ctx.Done()
		stop()
	}()

	logInfo(i18n.T("Source: %s, backend: %s"), source, cfg.Backend)
	if flags.verbose {
		logInfo(i18n.T("Interface language: %s"), i18n.Language())
	}

	p := pipeline.New(tr, pipeline.Options{
		Markers:      placeholder.NewCodec(cfg.MarkerMin),
		DryRun:       flags.dryRun,
		OnTranslated: translatedPrinter(cmd.OutOrStdout(), flags.verbose),
		OnLog: func(format string, args ...any) {
			logInfo(i18n.T(format), args...)
		},
		OnWarning: func(format string, args ...any) {
			logWarning(i18n.T(format), args...)
		},
	})

	results, err := p.Run(ctx, source, langs)
	if err != nil {
		return err
	}

	if flags.dryRun {
		return nil
	}
	for _, res := range results {
		logSuccess(i18n.N("%s: %d key translated, %d total in %s", "%s: %d keys translated, %d total in %s", res.Added),
			res.Lang, res.Added, res.Total, res.Path)
	}
	return nil
}

// translatedPrinter writes each raw backend result on its own line.
func translatedPrinter(w io.Writer, verbose bool) func(lang, key, text string) {
	return func(lang, key, text string) {
		if verbose {
			fmt.Fprintf(w, "%s\t%s\t%s\n", lang, key, text)
			return
		}
		fmt.Fprintln(w, text)
	}
}
