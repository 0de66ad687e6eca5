package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/seqmux/seqmux/pkg/common/log"
	"github.com/seqmux/seqmux/pkg/order"
	"github.com/seqmux/seqmux/pkg/recfile"
	"github.com/seqmux/seqmux/pkg/recordset"
	"github.com/seqmux/seqmux/pkg/remote"
	"github.com/seqmux/seqmux/pkg/sequence"
	"github.com/seqmux/seqmux/pkg/stats"
)

// Command completer for readline
var completer = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".exit"),
	readline.PcItem(".stats"),
	readline.PcItem(".sources"),
	readline.PcItem("LOAD"),
	readline.PcItem("CONNECT"),
	readline.PcItem("ORDER"),
	readline.PcItem("LIMIT"),
	readline.PcItem("CLEAR",
		readline.PcItem("ORDER"),
		readline.PcItem("LIMIT"),
	),
	readline.PcItem("SHOW"),
	readline.PcItem("COUNT"),
	readline.PcItem("FILTER"),
	readline.PcItem("EXCLUDE"),
)

const helpText = `
seqmux - merge independently ordered record sources into one sequence.

Usage:
  seqmux [options] [record_file ...]

Options:
  -serve                  - Serve the given record file over gRPC
  -address string         - Listen address in serve mode (default "localhost:50061")
  -debug                  - Enable debug logging

Commands (interactive mode):
  .help                   - Show this help message
  .sources                - List loaded sources
  .stats                  - Show operation statistics
  .exit                   - Exit the program

  LOAD name PATH          - Load a record file as a source
  CONNECT name ADDR       - Attach a served source over gRPC

  ORDER field ...         - Order the merged sequence (prefix '-' for descending)
  LIMIT low high          - Narrow the window to [low, high), relative to the
                            current window; limits only ever shrink
  CLEAR ORDER             - Drop the merge-level ordering
  CLEAR LIMIT             - Reset the window

  SHOW [n]                - Print up to n merged records (default 20)
  COUNT                   - Total record count across sources
  FILTER field value      - Keep records whose field equals value
  EXCLUDE field value     - Drop records whose field equals value
`

func main() {
	serveMode := flag.Bool("serve", false, "Serve a record file over gRPC")
	listenAddr := flag.String("address", "localhost:50061", "Address to listen on in serve mode")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := log.NewStandardLogger()
	if *debug {
		logger.SetLevel(log.LevelDebug)
	}

	if *serveMode {
		if flag.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "Error: serve mode requires exactly one record file")
			os.Exit(1)
		}
		runServe(flag.Arg(0), *listenAddr, logger)
		return
	}

	runInteractive(flag.Args(), logger)
}

func runServe(path, addr string, logger log.Logger) {
	src, err := recfile.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", path, err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listening on %s: %v\n", addr, err)
		os.Exit(1)
	}

	server := remote.NewServer(src, remote.WithLogger(logger.WithField("component", "remote")))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down")
		server.Stop()
	}()

	if err := server.Serve(lis); err != nil {
		fmt.Fprintf(os.Stderr, "Error serving: %v\n", err)
		os.Exit(1)
	}
}

// session is the interactive state: named sources, the coordinator over
// them, and the accessor table grown from observed record fields.
type session struct {
	names     []string
	sources   []sequence.Source[recordset.Record]
	accessors order.Accessors[recordset.Record]
	coord     *sequence.Coordinator[recordset.Record]
	collector *stats.Collector
	logger    log.Logger
}

func newSession(logger log.Logger) *session {
	s := &session{
		accessors: make(order.Accessors[recordset.Record]),
		collector: stats.NewCollector(),
		logger:    logger,
	}
	s.rebuild()
	return s
}

// addSource registers a source and learns its field names by peeking at the
// first record.
func (s *session) addSource(name string, src sequence.Source[recordset.Record]) error {
	it, err := src.Iterate()
	if err != nil {
		return err
	}
	if it.Next() {
		for field := range it.Value() {
			if _, ok := s.accessors[field]; !ok {
				f := field
				s.accessors[f] = func(r recordset.Record) any { return r[f] }
			}
		}
	} else if err := it.Err(); err != nil {
		return err
	}

	s.names = append(s.names, name)
	s.sources = append(s.sources, src)
	s.rebuild()
	s.logger.Debug("source %s attached, %d orderable fields known", name, len(s.accessors))
	return nil
}

// rebuild replaces the coordinator, dropping any ordering and window.
func (s *session) rebuild() {
	s.coord = sequence.NewCoordinator(s.accessors, s.sources...)
	s.coord.SetStats(s.collector)
}

func runInteractive(paths []string, logger log.Logger) {
	fmt.Println("seqmux - ordered sequence multiplexer")
	fmt.Println("Enter .help for usage hints.")

	sess := newSession(logger)
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		src, err := recfile.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", path, err)
			os.Exit(1)
		}
		if err := sess.addSource(name, src); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Loaded %s\n", name)
	}

	historyFile := filepath.Join(os.TempDir(), ".seqmux_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "seqmux> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing readline: %s\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := execute(sess, line); quit {
			break
		}
	}
}

func execute(sess *session, line string) (quit bool) {
	parts := strings.Fields(line)
	cmd := strings.ToUpper(parts[0])

	switch cmd {
	case ".EXIT":
		return true
	case ".HELP":
		fmt.Print(helpText)
	case ".SOURCES":
		if len(sess.names) == 0 {
			fmt.Println("no sources loaded")
			return false
		}
		for i, name := range sess.names {
			n, err := sess.sources[i].Count()
			if err != nil {
				fmt.Printf("  %s (count unavailable: %v)\n", name, err)
				continue
			}
			fmt.Printf("  %s (%d records)\n", name, n)
		}
	case ".STATS":
		snap := sess.collector.Snapshot()
		keys := make([]string, 0, len(snap))
		for k := range snap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s: %d\n", k, snap[k])
		}
	case "LOAD":
		if len(parts) != 3 {
			fmt.Println("Usage: LOAD name PATH")
			return false
		}
		src, err := recfile.Open(parts[2])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		if err := sess.addSource(parts[1], src); err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Loaded %s\n", parts[1])
	case "CONNECT":
		if len(parts) != 3 {
			fmt.Println("Usage: CONNECT name ADDR")
			return false
		}
		client, err := remote.Dial(parts[2])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		if err := sess.addSource(parts[1], client); err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Connected %s\n", parts[1])
	case "ORDER":
		if len(parts) < 2 {
			fmt.Println("Usage: ORDER field ...")
			return false
		}
		if err := sess.coord.AddOrdering(parts[1:]...); err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Ordering: %s\n", sess.coord.OrderSpec())
	case "CLEAR":
		if len(parts) != 2 {
			fmt.Println("Usage: CLEAR ORDER|LIMIT")
			return false
		}
		switch strings.ToUpper(parts[1]) {
		case "ORDER":
			sess.coord.ClearOrdering()
			fmt.Println("Ordering cleared")
		case "LIMIT":
			sess.coord.ClearLimits()
			fmt.Println("Window reset")
		default:
			fmt.Println("Usage: CLEAR ORDER|LIMIT")
		}
	case "LIMIT":
		if len(parts) != 3 {
			fmt.Println("Usage: LIMIT low high")
			return false
		}
		low, err1 := strconv.Atoi(parts[1])
		high, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || low < 0 || high < low {
			fmt.Println("Usage: LIMIT low high (0 <= low <= high)")
			return false
		}
		sess.coord.SetLimits(&low, &high)
		w := sess.coord.Window()
		if w.High != nil {
			fmt.Printf("Window: [%d, %d)\n", w.Low, *w.High)
		} else {
			fmt.Printf("Window: [%d, unbounded)\n", w.Low)
		}
	case "COUNT":
		n, err := sess.coord.Count()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Println(n)
	case "SHOW":
		limit := 20
		if len(parts) > 1 {
			n, err := strconv.Atoi(parts[1])
			if err != nil || n < 1 {
				fmt.Println("Usage: SHOW [n]")
				return false
			}
			limit = n
		}
		it, err := sess.coord.Iterate()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		shown := 0
		for shown < limit && it.Next() {
			fmt.Println(formatRecord(it.Value()))
			shown++
		}
		if err := it.Err(); err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("(%d shown)\n", shown)
	case "FILTER", "EXCLUDE":
		if len(parts) != 3 {
			fmt.Printf("Usage: %s field value\n", cmd)
			return false
		}
		applyFilter(sess, cmd == "EXCLUDE", parts[1], parts[2])
	default:
		fmt.Printf("Unknown command: %s\n", parts[0])
	}
	return false
}

// applyFilter narrows every source by an equality predicate and applies the
// simplification policy to the outcome.
func applyFilter(sess *session, negate bool, field, value string) {
	if !sess.coord.CanFilter() {
		fmt.Printf("Error: %v\n", sequence.ErrFilterAfterSlice)
		return
	}

	pred := func(r recordset.Record) bool {
		return fmt.Sprintf("%v", r[field]) == value
	}

	sources := sess.coord.Sources()
	filtered := make([]sequence.Source[recordset.Record], len(sources))
	for i, src := range sources {
		ns, err := src.FilterOrExclude(negate, pred)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		filtered[i] = ns
	}

	reduced, err := sequence.Simplify(sess.coord.WithSources(filtered))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	switch reduced.Kind {
	case sequence.ReducedEmpty:
		sess.sources = nil
		sess.names = nil
		sess.rebuild()
		fmt.Println("Empty result: all sources filtered out")
	case sequence.ReducedSingle:
		sess.sources = []sequence.Source[recordset.Record]{reduced.Source}
		sess.names = []string{"filtered"}
		sess.rebuild()
		fmt.Println("One source remains")
	default:
		sess.sources = reduced.Coordinator.Sources()
		sess.names = make([]string, len(sess.sources))
		for i := range sess.names {
			sess.names[i] = fmt.Sprintf("filtered-%d", i)
		}
		sess.coord = reduced.Coordinator
		sess.coord.SetStats(sess.collector)
		fmt.Printf("%d sources remain\n", len(sess.sources))
	}
}

func formatRecord(r recordset.Record) string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, r[k])
	}
	b.WriteByte('}')
	return b.String()
}
