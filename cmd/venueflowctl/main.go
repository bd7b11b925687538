// Command venueflowctl exports, imports and seeds the venueflow repository
// state using the same storage settings as the server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"venueflow/internal/config"
	"venueflow/internal/core"
	"venueflow/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

const usage = `usage: venueflowctl [-env file] <command> [args]

commands:
  export [file]         write the repository snapshot as JSON (default stdout)
  import [-force] file  replace the repository state with a JSON snapshot
  seed                  load the demo data into an empty repository
`

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("venueflowctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env", ".env", "dotenv file to load before reading the environment")
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}
	if cfg.Storage.Driver == core.StorageMemory {
		fmt.Fprintln(stderr, "the memory driver holds no durable state")
		return 1
	}
	store, err := core.OpenPersistentStore(ctx, cfg.Storage, core.NewDefaultRulesEngine(), nil, zerolog.Nop())
	if err != nil {
		fmt.Fprintln(stderr, "open storage:", err)
		return 1
	}
	defer store.Close()

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "export":
		err = exportState(store, rest, stdout)
	case "import":
		err = importState(ctx, store, rest, stderr)
	case "seed":
		err = seed(ctx, store, stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", cmd, err)
		return 1
	}
	return 0
}

func exportState(store domain.PersistentStore, args []string, stdout io.Writer) error {
	out := stdout
	if len(args) > 0 {
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(store.ExportState())
}

func importState(ctx context.Context, store domain.PersistentStore, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "overwrite a non-empty repository")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected one snapshot file")
	}
	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if !*force && !store.ExportState().Empty() {
		return errors.New("repository is not empty, pass -force to overwrite")
	}
	replacer, ok := store.(stateReplacer)
	if !ok {
		return errors.New("storage driver cannot replace its state")
	}
	_, err = replacer.ReplaceState(ctx, snapshot)
	var violation domain.RuleViolationError
	if errors.As(err, &violation) {
		for _, v := range violation.Result.Violations {
			fmt.Fprintf(stderr, "  %s: %s\n", v.Rule, v.Message)
		}
	}
	return err
}

// stateReplacer validates and persists a whole snapshot before swapping it in.
type stateReplacer interface {
	ReplaceState(ctx context.Context, snapshot domain.Snapshot) (domain.Result, error)
}

func seed(ctx context.Context, store domain.PersistentStore, stdout io.Writer) error {
	seeded, err := core.NewService(store).SeedIfEmpty(ctx)
	if err != nil {
		return err
	}
	if seeded {
		fmt.Fprintln(stdout, "demo data seeded")
	} else {
		fmt.Fprintln(stdout, "repository not empty, nothing seeded")
	}
	return nil
}
