package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rubiojr/objcbridge/doc"
	"github.com/rubiojr/objcbridge/objcrt"
	"github.com/rubiojr/objcbridge/types"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Execute runs the objcbridge CLI with the given version string.
// Import mirror packages via blank imports before calling this function
// so they register via init().
func Execute(version string) {
	cmd := newCommand(version)
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand(version string) *cli.Command {
	return &cli.Command{
		Name:                   "objcbridge",
		Usage:                  "Send Objective-C messages from Go",
		Version:                version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "Print the type and calling convention of type encodings",
				ArgsUsage: "<encoding>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "method",
						Aliases: []string{"m"},
						Usage:   "Treat arguments as full method encodings",
					},
				},
				Action: decodeAction,
			},
			{
				Name:      "reflect",
				Usage:     "Print the type decoded from Go type names",
				ArgsUsage: "<name>...",
				Action:    reflectAction,
			},
			{
				Name:   "classes",
				Usage:  "List registered mirror classes",
				Action: classesAction,
			},
			{
				Name:      "doc",
				Usage:     "Show the methods of mirror classes",
				ArgsUsage: "<class>...",
				Action:    docAction,
			},
			{
				Name:  "selftest",
				Usage: "Run an end-to-end bridge scenario",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "native",
						Usage: "Use the platform Objective-C runtime instead of the simulator",
					},
					&cli.IntFlag{
						Name:    "jobs",
						Aliases: []string{"j"},
						Usage:   "Goroutines sending concurrently",
						Value:   4,
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Log every message send",
					},
					&cli.BoolFlag{
						Name:    "no-color",
						Aliases: []string{"C"},
						Usage:   "Disable ANSI color output",
					},
				},
				Action: selftestAction,
			},
		},
	}
}

func decodeAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: objcbridge decode [-m] <encoding>...")
	}
	w := cmd.Root().Writer
	for _, enc := range cmd.Args().Slice() {
		if !cmd.Bool("method") {
			printEncoding(w, "", enc)
			continue
		}
		sig, err := types.SplitMethodEncoding(enc)
		if err != nil {
			return fmt.Errorf("%s: %w", enc, err)
		}
		fmt.Fprintf(w, "%s\n", enc)
		printEncoding(w, "  return ", sig.Return)
		for i, a := range sig.Args {
			printEncoding(w, fmt.Sprintf("  arg %d ", i), a)
		}
	}
	return nil
}

func printEncoding(w io.Writer, label, enc string) {
	t := types.FromEncoding(enc)
	fmt.Fprintf(w, "%s%-8s %-16v %v\n", label, enc, t, t.FFIKind())
}

func reflectAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: objcbridge reflect <name>...")
	}
	w := cmd.Root().Writer
	failed := 0
	for _, name := range cmd.Args().Slice() {
		t, err := types.FromReflectString(name)
		if err != nil {
			fmt.Fprintf(w, "%-24s error: %v\n", name, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "%-24s %v\n", name, t)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d names did not decode", failed, cmd.NArg())
	}
	return nil
}

func classesAction(ctx context.Context, cmd *cli.Command) error {
	fmt.Fprint(cmd.Root().Writer, doc.FormatAll(objcrt.Default))
	return nil
}

func docAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: objcbridge doc <class>...")
	}
	w := cmd.Root().Writer
	for i, name := range cmd.Args().Slice() {
		d, err := doc.Lookup(objcrt.Default, name)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, doc.Format(d))
	}
	return nil
}

// logLevel reads OBJCBRIDGE_LOG. verbose wins over the environment.
func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("OBJCBRIDGE_LOG")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}

// useColor reports whether out gets ANSI colors: never with --no-color or
// NO_COLOR, otherwise only on a terminal.
func useColor(noColor bool, out io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
