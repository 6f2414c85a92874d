package cli

import (
	"context"
	"errors"

	"github.com/blacha/cotar/internal/cotarcfg"
	"github.com/blacha/cotar/internal/indexbuild"

	flag "github.com/spf13/pflag"
)

// IndexCmd returns the `index` command: write a sidecar index, auto-tuned
// to a probe-length ceiling.
func IndexCmd(cfg cotarcfg.Config) *Command {
	return buildIndexCommand(cfg, "index")
}

// CreateCmd returns the `create` command. Per spec.md §6.2 this is an
// alias of `index`: the spec defines them as identical.
func CreateCmd(cfg cotarcfg.Config) *Command {
	return buildIndexCommand(cfg, "create")
}

func buildIndexCommand(cfg cotarcfg.Config, name string) *Command {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	force := fs.BoolP("force", "f", false, "Overwrite an existing sidecar index")
	maxProbe := fs.IntP("max-probe", "m", cfg.MaxProbe, "Probe-length ceiling for the auto-tune loop")

	return &Command{
		Flags: fs,
		Usage: name + " <tar> [-f] [-m MAX]",
		Short: "Write a <tar>.index sidecar, auto-tuned under the probe-length ceiling",
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execIndex(o, cfg, *force, *maxProbe, args)
		},
	}
}

func execIndex(o *IO, cfg cotarcfg.Config, force bool, maxProbe int, args []string) error {
	if len(args) < 1 {
		return errors.New("index: missing <tar> argument")
	}

	result, err := indexbuild.BuildSidecar(args[0], maxProbe, cfg.PackingFactorStep, force)
	if err != nil {
		return err
	}

	o.Printf("wrote %s\n", result.IndexPath)
	o.Printf("entries:     %d\n", result.Stats.Entries)
	o.Printf("slot_count:  %d\n", result.Stats.SlotCount)
	o.Printf("search_max:  %d\n", result.Stats.SearchMax)
	o.Printf("search_avg:  %.3f\n", result.Stats.SearchAvg)

	return nil
}
