package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"

	bplus "bpindex/bplustree"
	"bpindex/log"
	"bpindex/storage_engine/pager"
)

var (
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed)
	keyColor  = color.New(color.FgCyan)
	infoColor = color.New(color.FgYellow)
)

const helpText = `commands:
  insert <key> <value>   add an entry (duplicates allowed)
  get <key>              all values stored under key
  scan [from] [limit]    walk the leaf chain from the first key >= from
  dump                   node by node listing
  tree                   tree drawing
  stats                  shape and fill statistics
  check                  verify structural invariants
  save                   write a snapshot to the page store
  exit`

type session struct {
	tree  *bplus.BPlusTree
	store pager.Pager
	out   io.Writer
}

func main() {
	storeKind := flag.String("store", pager.KindMemory, "page store: memory, disk or leveldb")
	path := flag.String("path", "bpindex.idx", "page file or leveldb directory")
	pageSize := flag.Int("page-size", pager.DefaultPageSize, "page size in bytes")
	logLevel := flag.String("log-level", "info", "trace, debug, info, warn or error")
	modules := flag.String("log-modules", "", "comma separated modules for trace/debug output")
	flag.Parse()

	if err := log.InitLogger(os.Stderr, *logLevel, true); err != nil {
		errColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.EnableModules(*modules)

	ps, err := pager.Open(*storeKind, *path, *pageSize)
	if err != nil {
		errColor.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer ps.Close()

	tree, err := openTree(ps)
	if err != nil {
		errColor.Fprintf(os.Stderr, "open tree: %v\n", err)
		os.Exit(1)
	}
	defer tree.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bpindex> ",
		HistoryFile:     "/tmp/bpindex_history.txt",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		errColor.Fprintf(os.Stderr, "start readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	s := &session{tree: tree, store: ps, out: rl.Stdout()}
	cfg := tree.Config()
	infoColor.Fprintf(s.out, "key size %d, value size %d, %d entries. Type help for commands.\n",
		cfg.KeySize, cfg.ValueSize, tree.Len())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil { // io.EOF on Ctrl+D
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			break
		}
		if err := s.exec(strings.Fields(line)); err != nil {
			errColor.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// openTree loads the snapshot held by ps, or starts an empty tree when ps
// has nothing past the meta page.
func openTree(ps pager.Pager) (*bplus.BPlusTree, error) {
	if ps.TotalPages() > 1 {
		log.Info(log.CLIModule, "loading snapshot", "pages", ps.TotalPages())
		return bplus.Load(ps)
	}
	log.Debug(log.CLIModule, "starting empty tree")
	return bplus.NewBPlusTree(bplus.DefaultConfig())
}

func (s *session) exec(args []string) error {
	cfg := s.tree.Config()
	switch strings.ToLower(args[0]) {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "insert":
		if len(args) != 3 {
			return errors.New("usage: insert <key> <value>")
		}
		key, err := bplus.Fixed([]byte(args[1]), cfg.KeySize)
		if err != nil {
			return err
		}
		value, err := bplus.Fixed([]byte(args[2]), cfg.ValueSize)
		if err != nil {
			return err
		}
		if err := s.tree.Insert(key, value); err != nil {
			return err
		}
		okColor.Fprintf(s.out, "ok (%d entries)\n", s.tree.Len())
	case "get":
		if len(args) != 2 {
			return errors.New("usage: get <key>")
		}
		key, err := bplus.Fixed([]byte(args[1]), cfg.KeySize)
		if err != nil {
			return err
		}
		values, err := s.tree.SearchAll(key)
		if errors.Is(err, bplus.ErrKeyNotFound) {
			infoColor.Fprintf(s.out, "%s not found\n", args[1])
			return nil
		}
		if err != nil {
			return err
		}
		for _, v := range values {
			keyColor.Fprint(s.out, bplus.FormatKey(key))
			fmt.Fprintf(s.out, " -> %s\n", bplus.FormatKey(v))
		}
	case "scan":
		return s.scan(args[1:])
	case "dump":
		return s.tree.Dump(s.out)
	case "tree":
		str, err := s.tree.TreeString()
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, str)
	case "stats":
		st, err := s.tree.Stats()
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, st.String())
	case "check":
		if err := s.tree.CheckInvariants(); err != nil {
			return err
		}
		okColor.Fprintln(s.out, "invariants hold")
	case "save":
		if err := s.tree.Save(s.store); err != nil {
			return err
		}
		okColor.Fprintln(s.out, "saved")
	default:
		return errors.Newf("unknown command %q, type help", args[0])
	}
	return nil
}

func (s *session) scan(args []string) error {
	limit := 50
	if len(args) > 1 {
		if _, err := fmt.Sscan(args[1], &limit); err != nil {
			return errors.Wrap(err, "limit")
		}
	}

	var it *bplus.Iterator
	if len(args) > 0 {
		from, err := bplus.Fixed([]byte(args[0]), s.tree.Config().KeySize)
		if err != nil {
			return err
		}
		it = s.tree.SeekGE(from)
	} else {
		it = s.tree.First()
	}
	defer it.Close()

	n := 0
	for ; it.Valid() && n < limit; it.Next() {
		keyColor.Fprint(s.out, bplus.FormatKey(it.Key()))
		fmt.Fprintf(s.out, " -> %s\n", bplus.FormatKey(it.Value()))
		n++
	}
	if err := it.Err(); err != nil {
		return err
	}
	infoColor.Fprintf(s.out, "%d shown\n", n)
	return nil
}
