package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"yacontest/internal/components/prompt"

	"github.com/jedib0t/go-pretty/v6/table"
)

var ErrAborted = errors.New("aborted")

func NewTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// PrepareDir creates dir, or empties it after asking when it already has files.
func PrepareDir(p prompt.Prompter, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if len(entries) > 0 {
		ok, err := p.Confirm(fmt.Sprintf("Directory %s already exists, remove its files?", dir))
		if err != nil {
			return err
		}
		if !ok {
			return ErrAborted
		}
		for _, entry := range entries {
			err = os.RemoveAll(filepath.Join(dir, entry.Name()))
			if err != nil {
				return err
			}
		}
	}
	return os.MkdirAll(dir, 0755)
}
