// Command slotdbctl is an interactive shell over a single table: it
// loads a YAML config, opens (or creates) the table it names, and
// accepts line-oriented commands to insert, fetch, delete, and scan
// records against it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/htdao/slotdb/internal/config"
	"github.com/htdao/slotdb/internal/schema"
	"github.com/htdao/slotdb/internal/table"
)

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".slotdbctl_history"
	}
	return filepath.Join(home, ".slotdbctl_history")
}

// shell holds the open table and schema a REPL command dispatches
// against.
type shell struct {
	tbl *table.Table
	sch *schema.Schema
}

func (s *shell) dispatch(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "quit", "exit", "\\q":
		return true
	case "\\help":
		printHelp()
	case "insert":
		s.cmdInsert(fields[1:])
	case "get":
		s.cmdGet(fields[1:])
	case "delete":
		s.cmdDelete(fields[1:])
	case "scan":
		s.cmdScan()
	case "stats":
		s.cmdStats()
	default:
		fmt.Printf("unknown command: %s (try \\help)\n", fields[0])
	}
	return false
}

func (s *shell) cmdInsert(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: insert <id> <name>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		fmt.Printf("bad id: %v\n", err)
		return
	}
	r := schema.NewRecord(s.sch)
	if err := s.sch.SetValue(r, 0, schema.IntValue(int32(id))); err != nil {
		fmt.Printf("set id: %v\n", err)
		return
	}
	if err := s.sch.SetValue(r, 1, schema.StringValue(args[1])); err != nil {
		fmt.Printf("set name: %v\n", err)
		return
	}
	if err := s.tbl.InsertRecord(r); err != nil {
		fmt.Printf("insert: %v\n", err)
		return
	}
	fmt.Printf("inserted rid=%+v\n", r.ID)
}

func parseRid(args []string) (schema.Rid, error) {
	if len(args) != 2 {
		return schema.Rid{}, fmt.Errorf("expected <page> <slot>")
	}
	page, err := strconv.Atoi(args[0])
	if err != nil {
		return schema.Rid{}, err
	}
	slot, err := strconv.Atoi(args[1])
	if err != nil {
		return schema.Rid{}, err
	}
	return schema.Rid{Page: page, Slot: slot}, nil
}

func (s *shell) cmdGet(args []string) {
	rid, err := parseRid(args)
	if err != nil {
		fmt.Printf("usage: get <page> <slot>: %v\n", err)
		return
	}
	r, err := s.tbl.GetRecord(rid)
	if err != nil {
		fmt.Printf("get: %v\n", err)
		return
	}
	printRecord(s.sch, r)
}

func (s *shell) cmdDelete(args []string) {
	rid, err := parseRid(args)
	if err != nil {
		fmt.Printf("usage: delete <page> <slot>: %v\n", err)
		return
	}
	if err := s.tbl.DeleteRecord(rid); err != nil {
		fmt.Printf("delete: %v\n", err)
		return
	}
	fmt.Println("ok")
}

func (s *shell) cmdScan() {
	scan := s.tbl.StartScan(nil)
	defer func() { _ = scan.Close() }()

	out := schema.NewRecord(s.sch)
	n := 0
	for {
		err := scan.Next(out)
		if errors.Is(err, table.ErrNoMoreTuples) {
			break
		}
		if err != nil {
			fmt.Printf("scan: %v\n", err)
			return
		}
		printRecord(s.sch, out)
		n++
	}
	fmt.Printf("(%d rows)\n", n)
}

func (s *shell) cmdStats() {
	stats, err := s.tbl.Stats()
	if err != nil {
		fmt.Printf("stats: %v\n", err)
		return
	}
	fmt.Printf("%+v\n", stats)
}

func printRecord(sch *schema.Schema, r *schema.Record) {
	id, _ := sch.GetValue(r, 0)
	name, _ := sch.GetValue(r, 1)
	fmt.Printf("rid=%+v id=%d name=%q\n", r.ID, id.Int, name.String)
}

func printHelp() {
	fmt.Println(`commands:
  insert <id> <name>     insert a row
  get <page> <slot>      fetch a record by rid
  delete <page> <slot>   delete a record by rid
  scan                   print every live record
  stats                  print table stats
  \help                  show this help
  quit | exit | \q       quit`)
}

func main() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))

	configPath := flag.String("config", "", "path to a YAML config file")
	histPath := flag.String("history", defaultHistoryPath(), "history file path")
	oneShot := flag.String("c", "", "run one command and exit")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("slotdbctl: -config is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("slotdbctl: %v", err)
	}

	kind, err := cfg.StrategyKind()
	if err != nil {
		log.Fatalf("slotdbctl: %v", err)
	}

	sch, err := schema.New(
		[]string{"id", "name"},
		[]schema.AttrType{schema.Int, schema.String},
		[]int{0, 32},
		[]int{0},
	)
	if err != nil {
		log.Fatalf("slotdbctl: build schema: %v", err)
	}

	tbl, err := table.CreateTable(cfg.Table.Path, sch, cfg.BufferPool.Capacity, kind, cfg.BufferPool.StratParam)
	if errors.Is(err, table.ErrTableExists) {
		tbl, err = table.OpenTable(cfg.Table.Path, cfg.BufferPool.Capacity, kind, cfg.BufferPool.StratParam)
	}
	if err != nil {
		log.Fatalf("slotdbctl: open table: %v", err)
	}
	defer func() {
		if err := tbl.Close(); err != nil {
			slog.Error("slotdbctl: close table", "err", err)
		}
	}()

	s := &shell{tbl: tbl, sch: sch}

	if strings.TrimSpace(*oneShot) != "" {
		s.dispatch(*oneShot)
		return
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "slotdb> ",
		HistoryFile:     *histPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatalf("slotdbctl: readline: %v", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Printf("table: %s\n", cfg.Table.Path)
	fmt.Println("type \\help for help")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}
		if s.dispatch(strings.TrimSpace(line)) {
			return
		}
	}
}
