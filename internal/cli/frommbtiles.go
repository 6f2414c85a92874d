package cli

import (
	"context"
	"errors"

	"github.com/blacha/cotar/internal/convert"
	"github.com/blacha/cotar/internal/cotarcfg"
	"github.com/blacha/cotar/internal/indexbuild"

	flag "github.com/spf13/pflag"
)

// FromMBTilesCmd returns the `from-mbtiles` command: convert an MBTiles
// tileset into a COTAR-ready tar, optionally building its sidecar index.
func FromMBTilesCmd(cfg cotarcfg.Config) *Command {
	fs := flag.NewFlagSet("from-mbtiles", flag.ContinueOnError)
	dedup := fs.BoolP("dedup", "e", cfg.Dedup, "Deduplicate identical tile payloads via hard-link entries")
	drop := fs.BoolP("drop", "d", false, "Drop duplicate payloads entirely instead of linking (requires --dedup)")
	createIndex := fs.Bool("create-index", false, "Also build the <output.tar>.index sidecar")
	force := fs.BoolP("force", "f", false, "Overwrite an existing sidecar index")
	maxProbe := fs.IntP("max-probe", "m", cfg.MaxProbe, "Probe-length ceiling for the auto-tune loop")

	return &Command{
		Flags: fs,
		Usage: "from-mbtiles <mbtiles> <output.tar> [-e] [-d] [--create-index]",
		Short: "Convert an MBTiles tileset into a COTAR-ready tar",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execFromMBTiles(ctx, o, cfg, fromMBTilesOptions{
				Dedup:          *dedup,
				DropDuplicates: *drop,
				CreateIndex:    *createIndex,
				Force:          *force,
				MaxProbe:       *maxProbe,
			}, args)
		},
	}
}

type fromMBTilesOptions struct {
	Dedup          bool
	DropDuplicates bool
	CreateIndex    bool
	Force          bool
	MaxProbe       int
}

func execFromMBTiles(ctx context.Context, o *IO, cfg cotarcfg.Config, opts fromMBTilesOptions, args []string) error {
	if len(args) < 2 {
		return errors.New("from-mbtiles: usage: from-mbtiles <mbtiles> <output.tar>")
	}

	stats, err := convert.Convert(ctx, args[0], args[1], convert.Options{
		Dedup:          opts.Dedup,
		DropDuplicates: opts.DropDuplicates,
	})
	if err != nil {
		return err
	}

	o.Printf("tiles read:     %d\n", stats.TilesRead)
	o.Printf("regular entries: %d\n", stats.RegularEntries)
	o.Printf("link entries:    %d\n", stats.LinkEntries)
	o.Printf("dropped entries: %d\n", stats.DroppedEntries)

	if !opts.CreateIndex {
		return nil
	}

	result, err := indexbuild.BuildSidecar(args[1], opts.MaxProbe, cfg.PackingFactorStep, opts.Force)
	if err != nil {
		return err
	}

	o.Printf("wrote %s\n", result.IndexPath)
	o.Printf("entries:    %d\n", result.Stats.Entries)
	o.Printf("slot_count: %d\n", result.Stats.SlotCount)
	o.Printf("search_max: %d\n", result.Stats.SearchMax)

	return nil
}
