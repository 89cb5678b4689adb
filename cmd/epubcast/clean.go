package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// newCleanCmd returns the "clean" subcommand: explicit removal of leftover
// "conversion_<UUID>" session folders left behind by prior runs.
func newCleanCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clean [directory]",
		Short: "Remove leftover conversion_<UUID> session folders",
		Long: `clean removes conversion_<UUID> session folders in the given directory.
By default it removes a folder only if it still holds master.pcm (a failed
transcode) or holds no chapter_*.pcm intermediates. Folders with chapter
intermediates and no master.pcm are kept, whether the run completed or was
cancelled or failed after writing some chapters; pass --all to remove every
conversion_<UUID> folder regardless of contents.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runClean(dir, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every session folder, including completed ones")
	return cmd
}

func runClean(dir string, all bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "conversion_") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !all && sessionLooksComplete(path) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			color.Red("failed to remove %s: %v", path, err)
			continue
		}
		color.Green("removed %s", path)
		removed++
	}

	if removed == 0 {
		fmt.Println("nothing to clean")
	}
	return nil
}

// sessionLooksComplete reports whether a session folder holds chapter_*.pcm
// intermediates and no master.pcm. The assembler only leaves master.pcm
// behind when Transcode failed (internal/audio.Assembler.Assemble removes it
// on success), so such a folder counts as not complete. A folder with no
// per-chapter intermediates also counts as not complete. A cancelled or
// failed run that wrote some intermediates counts as complete.
func sessionLooksComplete(sessionDir string) bool {
	if _, err := os.Stat(filepath.Join(sessionDir, "master.pcm")); err == nil {
		return false
	}
	matches, _ := filepath.Glob(filepath.Join(sessionDir, "chapter_*.pcm"))
	return len(matches) > 0
}
