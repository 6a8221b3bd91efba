// seed fills a fresh index with random words and saves it to a page store.
// Run: go run ./cmd/seed --store leveldb --path databases/sample/words.ldb
// Then inspect: go run ./cmd/inspect_idx --store leveldb databases/sample/words.ldb
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/go-faker/faker/v4"
	"github.com/spf13/cobra"

	bplus "bpindex/bplustree"
	"bpindex/log"
	"bpindex/storage_engine/pager"
)

type seedOptions struct {
	cfg       bplus.Config
	storeKind string
	path      string
	pageSize  int
	count     int
	fresh     bool
	logLevel  string
	modules   string
}

func main() {
	opts := seedOptions{cfg: bplus.DefaultConfig()}

	var rootCmd = &cobra.Command{
		Use:   "seed",
		Short: "Seed an index with random words and save a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := log.InitLogger(os.Stderr, opts.logLevel, true); err != nil {
				return err
			}
			log.EnableModules(opts.modules)
			return run(opts)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.Flags()
	flags.IntVar(&opts.cfg.MaxIdxNum, "max-idx", opts.cfg.MaxIdxNum, "inner node capacity")
	flags.IntVar(&opts.cfg.MaxDataNum, "max-data", opts.cfg.MaxDataNum, "leaf node capacity")
	flags.IntVar(&opts.cfg.KeySize, "key-size", opts.cfg.KeySize, "key size in bytes")
	flags.IntVar(&opts.cfg.ValueSize, "value-size", opts.cfg.ValueSize, "value size in bytes")
	flags.IntVar(&opts.cfg.MaxNodes, "max-nodes", 0, "node limit, 0 for none")
	flags.StringVar(&opts.storeKind, "store", pager.KindLevelDB, "page store: memory, disk or leveldb")
	flags.StringVar(&opts.path, "path", "databases/sample/words.ldb", "page file or leveldb directory")
	flags.IntVar(&opts.pageSize, "page-size", pager.DefaultPageSize, "page size in bytes")
	flags.IntVar(&opts.count, "count", 1000, "number of entries to insert")
	flags.BoolVar(&opts.fresh, "fresh", true, "remove an existing store first")
	flags.StringVar(&opts.logLevel, "log-level", "info", "trace, debug, info, warn or error")
	flags.StringVar(&opts.modules, "log-modules", "", "comma separated modules for trace/debug output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(opts seedOptions) error {
	if opts.fresh && opts.storeKind != pager.KindMemory {
		if err := os.RemoveAll(opts.path); err != nil {
			return errors.Wrap(err, "remove old store")
		}
	}
	if dir := filepath.Dir(opts.path); opts.storeKind != pager.KindMemory {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "mkdir")
		}
	}

	ps, err := pager.Open(opts.storeKind, opts.path, opts.pageSize)
	if err != nil {
		return err
	}
	defer ps.Close()

	tree, err := bplus.NewBPlusTree(opts.cfg)
	if err != nil {
		return err
	}
	defer tree.Close()

	keys := make([][]byte, 0, opts.count)
	values := make([][]byte, 0, opts.count)
	for i := 0; i < opts.count; i++ {
		word := []byte(faker.Word())
		if len(word) > opts.cfg.KeySize {
			word = word[:opts.cfg.KeySize]
		}
		key, err := bplus.Fixed(word, opts.cfg.KeySize)
		if err != nil {
			return err
		}
		value, err := bplus.Fixed([]byte(fmt.Sprintf("v%d", i)), opts.cfg.ValueSize)
		if err != nil {
			return err
		}
		keys = append(keys, key)
		values = append(values, value)
	}

	log.Debug(log.CLIModule, "inserting seed words", "count", len(keys), "store", opts.storeKind)
	n, err := tree.InsertBatch(keys, values)
	if err != nil {
		return errors.Wrapf(err, "inserted %d of %d", n, len(keys))
	}
	if err := tree.CheckInvariants(); err != nil {
		return err
	}
	if err := tree.Save(ps); err != nil {
		return err
	}

	st, err := tree.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d entries into %s (%s)\n", n, opts.path, opts.storeKind)
	fmt.Println(st.String())
	return nil
}
