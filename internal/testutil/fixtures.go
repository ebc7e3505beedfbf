package testutil

import (
	"path/filepath"
	"testing"

	"github.com/frzz/prompter-installer/internal/config"
)

// PageHTML is the web page written by Bundle
const PageHTML = "<!DOCTYPE html>\n<html>\n<head>\n  <title>Web Prompter 1.0</title>\n</head>\n<body></body>\n</html>\n"

// SettingsINI is a typical settings file before the plugin is installed
const SettingsINI = "[REAPER]\r\n" +
	"csurfrate=15\r\n" +
	"csurf_cnt=1\r\n" +
	"csurf_0=OSC 0 0 \"\" 8000 9000\r\n" +
	"lastproject=\r\n" +
	"\r\n" +
	"[audioconfig]\r\n" +
	"srate=48000\r\n"

// ScriptContent returns the fake body of a bundled script
func ScriptContent(name string) string {
	return "-- " + name + "\nreaper.ShowConsoleMsg(\"" + name + "\")\n"
}

// Bundle lays out a complete plugin bundle under root and returns root
func Bundle(t *testing.T, root string, b config.Bundle) string {
	t.Helper()
	for _, a := range b.Actions {
		WriteFile(t, filepath.Join(root, b.ScriptsDir, a.Script), ScriptContent(a.Script))
	}
	WriteFile(t, filepath.Join(root, b.WebRootDir, b.WebPage), PageHTML)
	for _, files := range b.Binaries {
		for _, name := range files {
			WriteFile(t, filepath.Join(root, b.PluginsDir, name), "binary "+name)
		}
	}
	return root
}

// ResourceDir creates a host resource directory holding the settings file
func ResourceDir(t *testing.T, b config.Bundle, settings string) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, filepath.Join(dir, b.SettingsFile), settings)
	return dir
}
