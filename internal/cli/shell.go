package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/blacha/cotar/pkg/cotaridx"

	flag "github.com/spf13/pflag"
)

// ShellCmd returns the `shell` command: a read-only REPL over an open
// cotaridx.Reader, the read-only counterpart of the teacher pack's
// sloty-style slotcache REPL.
func ShellCmd() *Command {
	fs := flag.NewFlagSet("shell", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "shell <tar> [<index>]",
		Short: "Interactive read-only REPL over an index (get/info/stat/exit)",
		Exec: func(_ context.Context, o *IO, args []string) error {
			return execShell(o, args)
		},
	}
}

func execShell(o *IO, args []string) error {
	if len(args) < 1 {
		return errors.New("shell: missing <tar> argument")
	}

	tarPath := args[0]

	r, err := openReader(tarPath, args)
	if err != nil {
		return err
	}
	defer r.Close()

	repl := &shellREPL{io: o, reader: r, tarPath: tarPath}

	return repl.run()
}

// shellREPL is the interactive command loop over an already-open reader.
type shellREPL struct {
	io      *IO
	reader  *cotaridx.Reader
	tarPath string
	liner   *liner.State
}

func shellHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".cotar_shell_history")
}

func (r *shellREPL) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(shellHistoryFile()); err == nil {
		r.liner.ReadHistory(f) //nolint:errcheck // best-effort history load
		f.Close()
	}

	r.io.Println("cotar shell -", r.tarPath)
	r.io.Println("Type 'help' for available commands.")

	for {
		line, err := r.liner.Prompt("cotar> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				r.saveHistory()
				return nil
			}

			return fmt.Errorf("shell: read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		fields := strings.Fields(line)
		cmd, cmdArgs := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "exit", "quit", "q":
			r.saveHistory()
			return nil
		case "help", "?":
			r.printHelp()
		case "get":
			r.cmdGet(cmdArgs)
		case "info":
			r.cmdInfo(cmdArgs)
		case "stat":
			r.cmdStat()
		default:
			r.io.Println("unknown command:", cmd, "(type 'help' for commands)")
		}
	}
}

func (r *shellREPL) saveHistory() {
	path := shellHistoryFile()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil { //nolint:gosec // fixed dotfile under the user's home
		r.liner.WriteHistory(f) //nolint:errcheck // best-effort history save
		f.Close()
	}
}

func (r *shellREPL) completer(line string) []string {
	commands := []string{"get", "info", "stat", "help", "exit", "quit", "q"}

	var completions []string

	lower := strings.ToLower(line)
	for _, c := range commands {
		if strings.HasPrefix(c, lower) {
			completions = append(completions, c)
		}
	}

	return completions
}

func (r *shellREPL) printHelp() {
	r.io.Println("Commands:")
	r.io.Println("  get <path>    Print the payload bytes for path")
	r.io.Println("  info <path>   Print the index entry for path")
	r.io.Println("  stat          Print index occupancy/probe statistics")
	r.io.Println("  help          Show this help")
	r.io.Println("  exit / quit / q   Exit")
}

func (r *shellREPL) cmdGet(args []string) {
	if len(args) < 1 {
		r.io.Println("usage: get <path>")
		return
	}

	data, err := r.reader.Get(args[0])
	if err != nil {
		r.io.Println("error:", err)
		return
	}

	if data == nil {
		r.io.Println("(not found)")
		return
	}

	r.io.Printf("%s", data)
	r.io.Println()
}

func (r *shellREPL) cmdInfo(args []string) {
	if len(args) < 1 {
		r.io.Println("usage: info <path>")
		return
	}

	entry, err := r.reader.Info(args[0])
	if err != nil {
		r.io.Println("error:", err)
		return
	}

	if entry == nil {
		r.io.Println("(not found)")
		return
	}

	r.io.Printf("fingerprint:  %#x\n", entry.Fingerprint)
	r.io.Printf("block_offset: %d\n", entry.BlockOffset)
	r.io.Printf("byte_offset:  %d\n", entry.ByteOffset())
	r.io.Printf("file_size:    %d\n", entry.FileSize)
}

func (r *shellREPL) cmdStat() {
	stats, err := r.reader.Stats()
	if err != nil {
		r.io.Println("error:", err)
		return
	}

	r.io.Printf("entries:    %d\n", stats.Entries)
	r.io.Printf("slot_count: %d\n", stats.SlotCount)
	r.io.Printf("search_max: %d\n", stats.SearchMax)
	r.io.Printf("search_avg: %.3f\n", stats.SearchAvg)
}
