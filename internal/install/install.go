// Package install runs the installation steps in order and applies each step's
// failure policy: missing bundle folders and a user abort stop the run, while
// problems with the host's configuration files are reported and skipped.
package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/frzz/prompter-installer/internal/bundle"
	"github.com/frzz/prompter-installer/internal/config"
	"github.com/frzz/prompter-installer/internal/console"
	"github.com/frzz/prompter-installer/internal/copier"
	"github.com/frzz/prompter-installer/internal/keymap"
	"github.com/frzz/prompter-installer/internal/netaddr"
	"github.com/frzz/prompter-installer/internal/paths"
	"github.com/frzz/prompter-installer/internal/process"
	"github.com/frzz/prompter-installer/internal/prompt"
	"github.com/frzz/prompter-installer/internal/settings"
)

// ErrFatal wraps every error that ends the installation
var ErrFatal = errors.New("installation failed")

func fatal(err error) error {
	return fmt.Errorf("%w: %w", ErrFatal, err)
}

// hostExitWait is how long to wait for the host to close after the user says it is closed
const hostExitWait = 5 * time.Second

// Report collects what each step did
type Report struct {
	Title       string
	ResourceDir string

	TreeFiles int
	Binaries  map[string]copier.Result

	Keymap    *keymap.Result
	KeymapErr error

	Settings    *settings.Result
	SettingsErr error

	Checks   []copier.Check
	Verified bool
}

// Installer deploys a bundle into the host's resource folder
type Installer struct {
	Bundle   config.Bundle
	Settings *config.Settings
	Source   string

	Prompter *prompt.Prompter
	Copier   *copier.Copier
	Resolver *Resolver
	Sound    prompt.SoundPlayer
	Log      zerolog.Logger

	GOOS   string
	Getenv func(string) string

	HostRunning func() bool
	Probe       netaddr.Probe
	PortInUse   func(port int) bool

	// Tick is the countdown interval of the closing prompt
	Tick time.Duration
}

// New creates an installer wired to the real system
func New(b config.Bundle, s *config.Settings, source string, p *prompt.Prompter, sound prompt.SoundPlayer, log zerolog.Logger) *Installer {
	home, _ := os.UserHomeDir()
	return &Installer{
		Bundle:   b,
		Settings: s,
		Source:   source,
		Prompter: p,
		Copier:   copier.New(copier.PolicyFunc(p.Decide), log),
		Resolver: &Resolver{
			Asker:        p,
			Marker:       b.MarkerFile,
			Home:         home,
			FolderDialog: prompt.HasFolderDialog,
		},
		Sound:       sound,
		Log:         log,
		GOOS:        runtime.GOOS,
		Getenv:      os.Getenv,
		HostRunning: process.IsHostRunning,
		Probe:       netaddr.UDPProbe{},
		PortInUse:   netaddr.PortInUse,
		Tick:        time.Second,
	}
}

func (in *Installer) play(name string) {
	if in.Sound != nil {
		in.Sound.PlayAsync(name)
	}
}

// Run performs the full installation and ends with the closing countdown.
// Errors wrapping ErrFatal mean the installation did not complete.
func (in *Installer) Run() (*Report, error) {
	report, err := in.start()
	if err != nil {
		return report, err
	}
	dir := report.ResourceDir

	console.Step(2, "Copying scripts and the web page")
	report.TreeFiles, err = in.copyTrees(dir)
	if err != nil {
		return report, fatal(err)
	}

	console.Step(3, "Installing the native plugin")
	report.Binaries, err = in.installBinaries(dir)
	if err != nil {
		return report, fatal(err)
	}

	console.Step(4, "Registering actions in "+in.Bundle.KeymapFile)
	report.Keymap, report.KeymapErr = in.patchKeymap(dir)

	console.Step(5, "Configuring the web server in "+in.Bundle.SettingsFile)
	report.Settings, report.SettingsErr = in.patchSettings(dir)

	console.Step(6, "Verifying installed files")
	report.Checks = Verify(in.Bundle, in.Source, dir, in.GOOS)
	report.Verified = len(report.Checks) > 0 && copier.AllMatch(report.Checks)
	if report.Verified {
		in.play("success")
		console.Log("\nTo start the prompter, open the Actions list in REAPER and run:")
		console.Log("    %s", in.Bundle.HintAction)
	} else {
		in.play("error")
		console.Warn("Some files did not verify. Run the installer again.")
	}

	seconds := in.Settings.Countdown
	if in.Prompter.NonInteractive() {
		seconds = 0
	}
	console.PromptToClose(seconds, in.Prompter.Reader(), in.Tick)

	return report, nil
}

// VerifyOnly resolves the resource folder and checks installed files against the bundle
// without changing anything.
func (in *Installer) VerifyOnly() (*Report, error) {
	report, err := in.start()
	if err != nil {
		return report, err
	}

	console.Step(2, "Verifying installed files")
	report.Checks = Verify(in.Bundle, in.Source, report.ResourceDir, in.GOOS)
	report.Verified = len(report.Checks) > 0 && copier.AllMatch(report.Checks)
	if report.Verified {
		console.Success("All files match the bundle.")
	} else {
		console.Warn("The installation is incomplete or outdated.")
	}
	return report, nil
}

// start prints the banner and resolves the resource folder
func (in *Installer) start() (*Report, error) {
	report := &Report{Title: bundle.Title(in.Source, in.Bundle)}
	console.Banner(report.Title)
	if err := console.SetTitle(report.Title); err != nil {
		in.Log.Debug().Err(err).Msg("could not set window title")
	}

	console.Step(1, "Locating the REAPER resource folder")
	def := paths.DefaultResourceDir(in.GOOS, in.Getenv, in.Resolver.Home)
	dir, err := in.Resolver.Resolve(in.Settings.ResourceDir, def)
	if err != nil {
		return report, fatal(err)
	}
	report.ResourceDir = dir
	console.Success("Using %s", dir)
	in.Log.Info().Str("dir", dir).Msg("resource folder resolved")

	in.checkHost()
	return report, nil
}

func (in *Installer) checkHost() {
	if in.HostRunning == nil || !in.HostRunning() {
		return
	}

	in.play("error")
	console.Warn("REAPER is running. It saves its settings on exit and may overwrite the changes.")
	if in.Prompter.NonInteractive() {
		return
	}
	in.Prompter.WaitForKey("Close REAPER, then press Enter to continue...")
	if !process.WaitForExit(hostExitWait, in.HostRunning) {
		console.Warn("REAPER is still running. Continuing anyway.")
	}
}

func (in *Installer) copyTrees(dir string) (int, error) {
	excludes := paths.LoadExcludes(filepath.Join(in.Source, paths.ExcludesFile))

	trees := []string{in.Bundle.ScriptsDir, in.Bundle.WebRootDir}
	// Both trees must be present before anything lands in the resource folder
	for _, name := range trees {
		if info, err := os.Stat(filepath.Join(in.Source, name)); err != nil || !info.IsDir() {
			return 0, fmt.Errorf("bundle folder %s not found in %s", name, in.Source)
		}
	}

	total := 0
	for _, name := range trees {
		n, err := in.Copier.CopyTree(filepath.Join(in.Source, name), filepath.Join(dir, name), excludes)
		if err != nil {
			return total, fmt.Errorf("failed to copy %s: %w", name, err)
		}
		console.Success("%s: %d files copied", name, n)
		in.Log.Debug().Str("folder", name).Int("files", n).Msg("tree copied")
		total += n
	}
	return total, nil
}

// installBinaries copies the native plugin for the current platform. Only a user
// abort is returned as an error; other failures are reported and skipped.
func (in *Installer) installBinaries(dir string) (map[string]copier.Result, error) {
	srcDir := filepath.Join(in.Source, in.Bundle.PluginsDir)
	if info, err := os.Stat(srcDir); err != nil || !info.IsDir() {
		console.Info("No %s folder in the bundle, skipped.", in.Bundle.PluginsDir)
		return nil, nil
	}

	names := in.Bundle.BinariesFor(in.GOOS)
	if len(names) == 0 {
		console.Info("No native plugin for %s, skipped.", in.GOOS)
		return nil, nil
	}

	results := make(map[string]copier.Result, len(names))
	for _, name := range names {
		src := filepath.Join(srcDir, name)
		if _, err := os.Stat(src); err != nil {
			console.Warn("%s is missing from the bundle, skipped.", name)
			results[name] = copier.Skipped
			continue
		}

		res, err := in.Copier.CopyFile(src, filepath.Join(dir, in.Bundle.PluginsDir, name))
		results[name] = res
		if errors.Is(err, copier.ErrAborted) {
			return results, err
		}
		if err != nil {
			in.play("error")
			console.Error("%v", err)
			continue
		}

		switch res {
		case copier.Copied:
			console.Success("%s installed", name)
		case copier.Current:
			console.Success("%s is already up to date", name)
		case copier.Skipped:
			console.Warn("%s is in use and was not replaced", name)
		}
	}
	return results, nil
}

func (in *Installer) patchKeymap(dir string) (*keymap.Result, error) {
	path, _ := paths.FindActual(filepath.Join(dir, in.Bundle.KeymapFile))

	res, err := keymap.NewPatcher(in.Bundle, in.Log).PatchFile(path)
	if err != nil {
		in.play("error")
		console.Error("Could not update %s: %v", in.Bundle.KeymapFile, err)
		return nil, err
	}

	for _, a := range in.Bundle.Actions {
		console.Info("%s: %s", a.Label, res.Outcomes[a.ID])
	}
	switch {
	case res.Created:
		console.Success("Created %s", in.Bundle.KeymapFile)
	case res.Written:
		console.Success("Actions registered")
	default:
		console.Success("Actions are already registered")
	}
	return res, nil
}

func (in *Installer) asker() settings.Asker {
	if in.Settings.Port != 0 {
		return settings.FixedPort(in.Settings.Port)
	}
	if in.Prompter.NonInteractive() {
		return settings.FixedPort(0)
	}
	return in.Prompter
}

func (in *Installer) patchSettings(dir string) (*settings.Result, error) {
	path, _ := paths.FindActual(filepath.Join(dir, in.Bundle.SettingsFile))

	p := settings.NewPatcher(in.Bundle, in.asker(), in.Log)
	if in.Probe != nil {
		p.Probe = in.Probe
	}
	p.PortInUse = in.PortInUse

	res, err := p.Patch(path)
	if err != nil {
		in.play("error")
		if errors.Is(err, settings.ErrMissing) {
			console.Error("%s not found. Start REAPER once so it creates the file, then run the installer again.", in.Bundle.SettingsFile)
		} else {
			console.Error("Could not update %s: %v", in.Bundle.SettingsFile, err)
		}
		return nil, err
	}

	switch res.Rate {
	case settings.RateOK:
		console.Success("Control surface rate is already at least %d", in.Bundle.MinRate)
	case settings.RateRaised, settings.RateInvalid:
		console.Success("Control surface rate set to %d", in.Bundle.MinRate)
	default:
		console.Success("Control surface rate added (%d)", in.Bundle.MinRate)
	}

	switch res.WebServer {
	case settings.WebServerPresent:
		console.Success("The web server for %s is already configured", in.Bundle.WebPage)
	case settings.WebServerDeclined:
		if in.Prompter.NonInteractive() {
			console.Warn("No port given, web server not configured.")
		} else {
			console.Warn("Web server setup cancelled.")
		}
		console.Info("Add it later in REAPER: Preferences > Control/OSC/web.")
	case settings.WebServerRegistered:
		in.play("success")
		local, lan := netaddr.URLs(res.LocalIP, res.Slot.Port)
		console.Box(
			"Web server configured!",
			"",
			"On this computer:  "+local,
			"On your network:   "+lan,
			"",
			"The page is available while REAPER is running.",
		)
		if res.PortBusy {
			console.Warn("Port %d is already in use. If the page does not open, pick another port in REAPER.", res.Slot.Port)
		}
	}
	return res, nil
}

// Pairs lists the bundle files checked after installation on goos. Entries whose
// source is not part of the bundle are left out.
func Pairs(b config.Bundle, source, dir, goos string) []copier.Pair {
	var pairs []copier.Pair
	for _, v := range b.Verify {
		if !v.AppliesTo(goos) {
			continue
		}
		rel := filepath.FromSlash(v.Path)
		src := filepath.Join(source, rel)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		pairs = append(pairs, copier.Pair{Source: src, Dest: filepath.Join(dir, rel)})
	}
	return pairs
}

// Verify re-hashes the installed files against the bundle and prints one line per file
func Verify(b config.Bundle, source, dir, goos string) []copier.Check {
	checks := copier.Verify(Pairs(b, source, dir, goos))
	for _, c := range checks {
		name := c.Dest
		if rel, err := filepath.Rel(dir, c.Dest); err == nil {
			name = paths.Normalize(rel)
		}

		switch {
		case c.Match:
			console.Success("%s", name)
		case c.Err != nil && os.IsNotExist(c.Err):
			console.Error("%s is missing", name)
		default:
			console.Error("%s does not match the bundle", name)
		}
	}
	return checks
}
