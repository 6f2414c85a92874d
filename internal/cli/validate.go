package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blacha/cotar/internal/tarscan"
	"github.com/blacha/cotar/pkg/cotaridx"

	flag "github.com/spf13/pflag"
)

// ErrValidationFailed indicates one or more tar members failed to resolve
// correctly through the index.
var ErrValidationFailed = errors.New("validate: index does not match tar contents")

// ValidateCmd returns the `validate` command: scan every regular tar entry
// and assert the index resolves it to the same offset and size.
func ValidateCmd() *Command {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "validate <tar> [<index>]",
		Short: "Scan the tar and assert the index resolves every entry correctly",
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execValidate(o, args)
		},
	}
}

func execValidate(o *IO, args []string) error {
	if len(args) < 1 {
		return errors.New("validate: missing <tar> argument")
	}

	tarPath := args[0]

	r, err := openReader(tarPath, args)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.ValidateFooter(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	f, err := os.Open(tarPath) //nolint:gosec // CLI-provided path, by design
	if err != nil {
		return fmt.Errorf("validate: open %s: %w", tarPath, err)
	}
	defer f.Close()

	const tarBlockSize = 512

	scanner := tarscan.NewScanner(f)

	var checked, mismatched int

	for {
		entry, err := scanner.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return fmt.Errorf("validate: scan %s: %w", tarPath, err)
		}

		if entry.Kind != tarscan.Regular && entry.Kind != tarscan.HardLink {
			continue
		}

		checked++

		got, err := r.Info(entry.Path)
		if err != nil {
			return fmt.Errorf("validate: lookup %s: %w", entry.Path, err)
		}

		if got == nil {
			o.ErrPrintln("missing:", entry.Path)
			mismatched++

			continue
		}

		if entry.Kind == tarscan.Regular {
			wantOffset := uint32((entry.HeaderOffset + tarBlockSize) / tarBlockSize) //nolint:gosec // offsets are always non-negative and 512-aligned

			if got.BlockOffset != wantOffset || int64(got.FileSize) != entry.Size {
				o.ErrPrintln("mismatch:", entry.Path)
				mismatched++
			}
		}
	}

	o.Printf("checked %d entries\n", checked)

	if mismatched > 0 {
		return fmt.Errorf("%w: %d of %d entries mismatched", ErrValidationFailed, mismatched, checked)
	}

	return nil
}
