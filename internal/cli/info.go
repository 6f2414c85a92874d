package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/blacha/cotar/pkg/cotaridx"

	flag "github.com/spf13/pflag"
)

// InfoCmd returns the `info` command.
func InfoCmd() *Command {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "info <tar> [<index>]",
		Short: "Print entry count, slot count, and probe-length statistics",
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execInfo(o, args)
		},
	}
}

func execInfo(o *IO, args []string) error {
	if len(args) < 1 {
		return errors.New("info: missing <tar> argument")
	}

	tarPath := args[0]

	r, err := openReader(tarPath, args)
	if err != nil {
		return err
	}
	defer r.Close()

	stats, err := r.Stats()
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	o.Printf("entries:     %d\n", stats.Entries)
	o.Printf("slot_count:  %d\n", stats.SlotCount)
	o.Printf("search_max:  %d\n", stats.SearchMax)
	o.Printf("search_avg:  %.3f\n", stats.SearchAvg)

	return nil
}

// openReader opens tarPath, preferring an explicit sidecar path (args[1] if
// present), then the conventional "<tar>.index" sidecar, then falling back
// to an embedded index.
func openReader(tarPath string, args []string) (*cotaridx.Reader, error) {
	if len(args) >= 2 {
		return cotaridx.OpenSidecar(tarPath, args[1])
	}

	sidecarPath := tarPath + ".index"
	if fileExists(sidecarPath) {
		return cotaridx.OpenSidecar(tarPath, sidecarPath)
	}

	return cotaridx.OpenEmbedded(tarPath)
}
