package install

import (
	"errors"
	"fmt"

	"github.com/frzz/prompter-installer/internal/console"
	"github.com/frzz/prompter-installer/internal/paths"
	"github.com/frzz/prompter-installer/internal/prompt"
)

// PathAsker is the part of the prompter the resolver needs
type PathAsker interface {
	KeepDefault(path string) (bool, error)
	Path(question string) (string, error)
	SelectFolder(title string) (string, error)
}

// Resolver finds the host's resource folder
type Resolver struct {
	Asker  PathAsker
	Marker string
	Home   string

	// FolderDialog enables the folder picker on an empty answer
	FolderDialog bool
}

// Resolve returns a folder that exists and holds the marker file.
//
// An explicit path is validated without asking. Otherwise a valid default is offered
// first; after that the user is asked until a valid folder is given or input ends.
func (r *Resolver) Resolve(explicit, def string) (string, error) {
	if explicit != "" {
		dir := paths.Expand(explicit, r.Home)
		if !paths.IsResourceDir(dir, r.Marker) {
			return "", fmt.Errorf("%s is not a REAPER resource folder (no %s found)", dir, r.Marker)
		}
		return dir, nil
	}

	if paths.IsResourceDir(def, r.Marker) {
		keep, err := r.Asker.KeepDefault(def)
		if err != nil {
			return "", fmt.Errorf("failed to read answer: %w", err)
		}
		if keep {
			return def, nil
		}
	} else {
		console.Warn("REAPER resource folder not found at the default location:")
		console.Info("%s", def)
	}

	console.Info("In REAPER use Options > Show REAPER resource path in explorer/finder to find it.")
	question := "\nEnter the path to the REAPER resource folder: "
	if r.FolderDialog {
		question = "\nEnter the path to the REAPER resource folder (or press Enter to browse): "
	}

	for {
		answer, err := r.Asker.Path(question)
		if err != nil {
			return "", fmt.Errorf("no resource folder chosen: %w", err)
		}

		if answer == "" {
			if !r.FolderDialog {
				continue
			}
			answer, err = r.Asker.SelectFolder("Select the REAPER resource folder")
			if err != nil {
				if !errors.Is(err, prompt.ErrCancelled) {
					console.Warn("Folder dialog failed: %v", err)
				}
				continue
			}
		}

		dir := paths.Expand(answer, r.Home)
		if paths.IsResourceDir(dir, r.Marker) {
			return dir, nil
		}
		console.Warn("%s does not contain %s. Please try again.", dir, r.Marker)
	}
}
