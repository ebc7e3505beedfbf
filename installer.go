package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/frzz/prompter-installer/internal/audio"
	"github.com/frzz/prompter-installer/internal/bundle"
	"github.com/frzz/prompter-installer/internal/config"
	"github.com/frzz/prompter-installer/internal/console"
	"github.com/frzz/prompter-installer/internal/install"
	"github.com/frzz/prompter-installer/internal/prompt"
	"github.com/frzz/prompter-installer/internal/version"
)

var errNotVerified = errors.New("installed files do not match the bundle")

// Runtime settings, filled in before any command runs
var (
	opts           *config.Settings
	nonInteractive bool
)

type cliFlags struct {
	resourceDir string
	source      string
	logLevel    string
	port        int
	countdown   int
	yes         bool
	verbose     bool
	quiet       bool
	mute        bool
}

func main() {
	// Global panic handler so a crash never closes the window silently
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\nOops, something broke: %v\n", r)
			fmt.Fprintln(os.Stderr, "Let the developers know what happened.")
			audio.Play("error")
			os.Exit(1)
		}
	}()

	console.Attach()

	if err := newRootCommand().Execute(); err != nil {
		fatalError(err)
	}
}

func newRootCommand() *cobra.Command {
	f := &cliFlags{}

	root := &cobra.Command{
		Use:   "prompter-installer",
		Short: "Install the Web Prompter plugin into REAPER",
		Long: "Copies the Web Prompter scripts, web page and native plugin into the REAPER\n" +
			"resource folder, registers the actions and configures the web server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd, f)
		},
		RunE: runInstall,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.resourceDir, "resource-dir", "", "REAPER resource folder (skips detection)")
	pf.StringVar(&f.source, "source", "", "folder holding the bundle (default: next to the installer)")
	pf.StringVar(&f.logLevel, "log-level", "warn", "diagnostic log level: debug, info, warn or error")
	pf.BoolVarP(&f.yes, "yes", "y", false, "non-interactive: accept defaults and never wait for input")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "show diagnostic output (same as --log-level debug)")
	pf.BoolVarP(&f.quiet, "quiet", "q", false, "print errors only")
	pf.BoolVar(&f.mute, "mute", false, "disable sound cues")

	root.Flags().IntVarP(&f.port, "port", "p", 0, "web server port (asked when not given)")
	root.Flags().IntVar(&f.countdown, "countdown", 30, "seconds before the window closes at the end")

	root.AddCommand(newVerifyCommand(), newVersionCommand())
	return root
}

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check installed files against the bundle without changing anything",
		RunE:  runVerify,
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show installer and bundle versions",
		// Version output needs no settings or sound
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging("error")
		},
		RunE: runVersion,
	}
}

// setup loads the settings and initializes logging, console and audio
func setup(cmd *cobra.Command, f *cliFlags) error {
	s, err := loadSettings(cmd, f)
	if err != nil {
		return err
	}

	opts = s
	nonInteractive = s.AssumeYes
	setupLogging(s.EffectiveLogLevel())
	console.Init(s.Quiet)
	audio.Init(s.Mute, log.Logger)

	log.Debug().
		Str("resource_dir", s.ResourceDir).
		Str("source", s.SourceDir).
		Int("port", s.Port).
		Bool("yes", s.AssumeYes).
		Msg("settings loaded")
	return nil
}

// loadSettings reads the environment, applies explicitly given flags on top and
// validates the combined result
func loadSettings(cmd *cobra.Command, f *cliFlags) (*config.Settings, error) {
	s, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, f, s)
	if err := config.ValidateSettings(s); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return s, nil
}

// applyFlags copies flags the user actually passed over the environment values
func applyFlags(cmd *cobra.Command, f *cliFlags, s *config.Settings) {
	flags := cmd.Flags()
	if flags.Changed("resource-dir") {
		s.ResourceDir = f.resourceDir
	}
	if flags.Changed("source") {
		s.SourceDir = f.source
	}
	if flags.Changed("log-level") {
		s.LogLevel = f.logLevel
	}
	if flags.Changed("port") {
		s.Port = f.port
	}
	if flags.Changed("countdown") {
		s.Countdown = f.countdown
	}
	if flags.Changed("yes") {
		s.AssumeYes = f.yes
	}
	if flags.Changed("verbose") {
		s.Verbose = f.verbose
	}
	if flags.Changed("quiet") {
		s.Quiet = f.quiet
	}
	if flags.Changed("mute") {
		s.Mute = f.mute
	}
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// openBundle finds the bundle and reads its optional descriptor
func openBundle(explicit string) (*bundle.Source, config.Bundle, error) {
	exeDir, err := bundle.ExecutableDir()
	if err != nil {
		log.Debug().Err(err).Msg("executable folder unknown")
	}
	cwd, _ := os.Getwd()

	src, err := bundle.Locate(explicit, exeDir, cwd, config.DefaultBundle())
	if err != nil {
		return nil, config.Bundle{}, err
	}

	b, err := config.LoadBundle(src.Root)
	if err != nil {
		src.Close()
		return nil, config.Bundle{}, fmt.Errorf("invalid bundle descriptor: %w", err)
	}

	log.Debug().Str("root", src.Root).Bool("embedded", src.Embedded).Msg("bundle located")
	if v, err := version.LoadBundle(src.Root); err == nil {
		log.Info().Stringer("version", v).Msg("bundle version")
	}
	return src, b, nil
}

func newInstaller() (*install.Installer, func(), error) {
	src, b, err := openBundle(opts.SourceDir)
	if err != nil {
		return nil, nil, err
	}

	p := prompt.Stdio(prompt.Config{
		NonInteractive:   nonInteractive,
		Sound:            audio.Player{},
		GetConsoleWindow: console.GetWindow,
	})
	return install.New(b, opts, src.Root, p, audio.Player{}, log.Logger), src.Close, nil
}

func runInstall(*cobra.Command, []string) error {
	in, done, err := newInstaller()
	if err != nil {
		return err
	}
	defer done()

	_, err = in.Run()
	return err
}

func runVerify(*cobra.Command, []string) error {
	in, done, err := newInstaller()
	if err != nil {
		return err
	}
	defer done()

	report, err := in.VerifyOnly()
	if err != nil {
		return err
	}
	if !report.Verified {
		return errNotVerified
	}
	return nil
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "prompter-installer %s\n", version.Installer())

	source, _ := cmd.Flags().GetString("source")
	src, b, err := openBundle(source)
	if err != nil {
		return nil
	}
	defer src.Close()

	fmt.Fprintf(out, "bundle: %s\n", bundle.Title(src.Root, b))
	if v, err := version.LoadBundle(src.Root); err == nil {
		fmt.Fprintf(out, "bundle version: %s\n", v)
	}
	return nil
}

// fatalError reports an error that ends the installer and exits with status 1
func fatalError(err error) {
	audio.PlayAsync("error")

	console.Error("%v", err)

	// In interactive mode, keep the window open until the user has read the message
	if !nonInteractive {
		fmt.Print("\nPress Enter to exit...")
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
	}

	os.Exit(1)
}
