// Package main implements sindexctl, an offline tool for inspecting index
// targets and catalog snapshots without a running server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/arkilian/sindex/internal/index/target"
	"github.com/arkilian/sindex/internal/manifest"
	"github.com/arkilian/sindex/internal/snapshot"
	"github.com/arkilian/sindex/internal/storage"
)

func usage() {
	fmt.Fprintf(os.Stderr, "sindexctl - index target and snapshot tool\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  sindexctl classify <target>\n")
	fmt.Fprintf(os.Stderr, "  sindexctl encode <col[,col...]>...\n")
	fmt.Fprintf(os.Stderr, "  sindexctl decode -manifest <path> -table <name> <target>\n")
	fmt.Fprintf(os.Stderr, "  sindexctl snapshot list -storage <path> [-prefix snapshots]\n")
	fmt.Fprintf(os.Stderr, "  sindexctl snapshot restore -storage <path> -manifest <path> [-prefix snapshots] [object]\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "classify":
		err = runClassify(os.Args[2:])
	case "encode":
		err = runEncode(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	case "snapshot":
		err = runSnapshot(os.Args[2:])
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runClassify(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("classify takes exactly one target")
	}
	return printJSON(map[string]interface{}{
		"local":  target.IsLocal(args[0]),
		"column": target.PrimaryColumnName(args[0]),
	})
}

// runEncode treats each argument as one target group; commas separate the
// columns of a multi-column group.
func runEncode(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("encode needs at least one column group")
	}
	refs := make([]target.Ref, len(args))
	for i, arg := range args {
		names := strings.Split(arg, ",")
		if len(names) == 1 {
			refs[i] = target.Column(names[0])
		} else {
			refs[i] = target.Columns(names...)
		}
	}
	encoded, err := target.Encode(refs)
	if err != nil {
		return err
	}
	fmt.Println(encoded)
	return nil
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	manifestPath := fs.String("manifest", "./data/sindex/manifest.db", "Path to the manifest database")
	table := fs.String("table", "", "Table to resolve columns against")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table == "" || fs.NArg() != 1 {
		return fmt.Errorf("decode needs -table and exactly one target")
	}

	catalog, err := manifest.NewCatalog(*manifestPath)
	if err != nil {
		return err
	}
	defer catalog.Close()

	t, err := catalog.GetTable(context.Background(), *table)
	if err != nil {
		return err
	}
	desc, err := target.Decode(t, fs.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"mode":      desc.Mode,
		"primary":   desc.PrimaryNames(),
		"secondary": desc.SecondaryNames(),
		"local":     desc.IsLocal(),
	})
}

func runSnapshot(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("snapshot needs a subcommand: list, restore")
	}

	fs := flag.NewFlagSet("snapshot "+args[0], flag.ContinueOnError)
	storagePath := fs.String("storage", "./data/sindex/storage", "Local storage directory")
	prefix := fs.String("prefix", "snapshots", "Snapshot object prefix")
	manifestPath := fs.String("manifest", "./data/sindex/manifest.db", "Path to the manifest database")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	store, err := storage.NewLocalStorage(*storagePath)
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch args[0] {
	case "list":
		paths, err := snapshot.List(ctx, store, *prefix)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil

	case "restore":
		catalog, err := manifest.NewCatalog(*manifestPath)
		if err != nil {
			return err
		}
		defer catalog.Close()

		workDir := os.TempDir()
		if fs.NArg() == 1 {
			if err := snapshot.Restore(ctx, catalog, store, fs.Arg(0), workDir); err != nil {
				return err
			}
			fmt.Printf("restored %s\n", fs.Arg(0))
			return nil
		}
		restored, err := snapshot.RestoreLatest(ctx, catalog, store, *prefix, workDir)
		if err != nil {
			return err
		}
		if restored == "" {
			return fmt.Errorf("no snapshots under %s", *prefix)
		}
		fmt.Printf("restored %s\n", restored)
		return nil

	default:
		return fmt.Errorf("unknown snapshot subcommand %q", args[0])
	}
}
