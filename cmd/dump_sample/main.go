// dump_sample runs the seed and then walks the saved index, writing all
// output to cmd/sample_run_output.txt. Run from repo root: go run ./cmd/dump_sample
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	bplus "bpindex/bplustree"
	"bpindex/storage_engine/pager"
)

const (
	samplePath = "databases/sample/words.ldb"
	outputFile = "cmd/sample_run_output.txt"
)

func main() {
	outPath := outputFile
	// If run from cmd/dump_sample, output next to binary
	if _, err := os.Stat("cmd"); os.IsNotExist(err) {
		outPath = "sample_run_output.txt"
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	root := repoRoot()

	// 1) Run seed: capture stdout/stderr to file
	fmt.Fprintln(f, "========== SEED (200 random words, small nodes) ==========")
	cmd := exec.Command("go", "run", "./cmd/seed",
		"--store", pager.KindLevelDB, "--path", samplePath,
		"--count", "200", "--max-idx", "4", "--max-data", "8", "--key-size", "12", "--value-size", "8")
	cmd.Stdout = f
	cmd.Stderr = f
	cmd.Dir = root
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(f, "seed exited with error: %v\n", err)
	}

	// 2) Walk the leaf chain of the saved index
	fmt.Fprintln(f, "\n========== LEAF CHAIN ==========")
	if err := dumpChain(f, filepath.Join(root, samplePath)); err != nil {
		fmt.Fprintf(f, "scan error: %v\n", err)
	}

	fmt.Printf("Output written to %s\n", outPath)
}

func dumpChain(w io.Writer, path string) error {
	ps, err := pager.NewLevelDBPager(path, pager.DefaultPageSize)
	if err != nil {
		return err
	}
	defer ps.Close()

	tree, err := bplus.Load(ps)
	if err != nil {
		return err
	}
	defer tree.Close()

	str, err := tree.TreeString()
	if err != nil {
		return err
	}
	fmt.Fprint(w, str)
	fmt.Fprintln(w)

	it := tree.First()
	defer it.Close()
	n := 0
	for ; it.Valid(); it.Next() {
		fmt.Fprintf(w, "%4d  %-16s %s\n", n, bplus.FormatKey(it.Key()), bplus.FormatKey(it.Value()))
		n++
	}
	if err := it.Err(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d entries in key order\n", n)
	return nil
}

func repoRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
