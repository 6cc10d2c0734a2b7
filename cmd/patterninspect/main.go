package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/janus-rete/graph"
	"github.com/wbrown/janus-rete/idgen"
	"github.com/wbrown/janus-rete/network"
	"github.com/wbrown/janus-rete/network/trace"
	"github.com/wbrown/janus-rete/pattern"
)

func main() {
	var interactive bool
	var help bool
	var verbose bool
	var queryStr string

	flag.BoolVar(&interactive, "i", false, "interactive mode: enter constraint text against the demo graph")
	flag.BoolVar(&help, "h", false, "show help")
	flag.BoolVar(&verbose, "verbose", false, "trace every node's accept/reject decision during propagation")
	flag.StringVar(&queryStr, "query", "", "compile a single pattern from this constraint text and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compiles entity-graph patterns into a discrimination network and\n")
		fmt.Fprintf(os.Stderr, "prints their canonical partition and compiled node table.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                        # Run the demo: two patterns over a small friend graph\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -verbose               # Demo with a propagation trace\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -query 'p.age > 25'    # Compile a single pattern over one Person variable\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -i                     # Interactive: enter constraint text repeatedly\n", os.Args[0])
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}

	var handler trace.Handler
	if verbose {
		formatter := trace.NewFormatter(os.Stderr)
		handler = trace.Handler(formatter.Handle)
	}

	switch {
	case queryStr != "":
		runSingleQuery(queryStr, handler)
	case interactive:
		runInteractive(handler)
	default:
		runDemo(handler)
	}
}

// personGraph builds a single-variable Person seed graph, for compiling a
// pattern whose only entity is named "p".
func personGraph() *graph.GraphContainer {
	p := graph.NewEntity("Person", "p", idgen.NewGenerator(1))
	gc, err := graph.NewGraphContainer(p)
	if err != nil {
		panic(err)
	}
	return gc
}

// friendGraph builds a two-variable Person-Person seed graph linked by a
// many-to-many "friend" relation, for compiling an edge pattern.
func friendGraph() *graph.GraphContainer {
	gen := idgen.NewGenerator(2)
	p := graph.NewEntity("Person", "p", gen)
	q := graph.NewEntity("Person", "q", gen)
	p.DeclareRelation(graph.RelationDescriptor{Name: "friend", RelatedName: "friend", Multiplicity: graph.ManyToMany})
	if err := p.Link("friend", q); err != nil {
		panic(err)
	}
	gc, err := graph.NewGraphContainer(p)
	if err != nil {
		panic(err)
	}
	return gc
}

func runDemo(handler trace.Handler) {
	fmt.Println("=== Pattern Inspector Demo ===")

	adults, err := pattern.Build(pattern.FromGraph(personGraph()), nil, "p.age > 25")
	if err != nil {
		fmt.Fprintf(os.Stderr, "build error: %v\n", err)
		os.Exit(1)
	}
	friends, err := pattern.Build(pattern.FromGraph(friendGraph()), nil, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "build error: %v\n", err)
		os.Exit(1)
	}

	b := network.NewBuilder()
	if handler != nil {
		b.SetTrace(trace.NewCollector(handler))
	}
	if err := b.AddPattern("adults", adults); err != nil {
		fmt.Fprintf(os.Stderr, "network build error: %v\n", err)
		os.Exit(1)
	}
	if err := b.AddPattern("friends", friends); err != nil {
		fmt.Fprintf(os.Stderr, "network build error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n--- adults pattern partition ---")
	printPartition(adults)
	fmt.Println("\n--- friends pattern partition ---")
	printPartition(friends)

	fmt.Println("\n--- compiled network ---")
	printNodes(b)

	fmt.Println("\n--- feeding demo entities ---")
	dataGen := idgen.NewGenerator(3)
	alice := graph.NewEntity("Person", "alice", dataGen)
	alice.SetAttr("age", int64(30))
	bob := graph.NewEntity("Person", "bob", dataGen)
	bob.SetAttr("age", int64(25))
	charlie := graph.NewEntity("Person", "charlie", dataGen)
	charlie.SetAttr("age", int64(35))

	// The "friends" pattern joins a "p" single-entity chain, a "q"
	// single-entity chain and an edge chain; every person must be fed
	// under both variable tags for the join to have anything to match.
	for _, p := range []*graph.Entity{alice, bob, charlie} {
		b.Propagate(network.Token{Tag: network.TokenAdd, Species: network.NodeToken, Var: "p", Entity: p})
		b.Propagate(network.Token{Tag: network.TokenAdd, Species: network.NodeToken, Var: "q", Entity: p})
	}
	alice.DeclareRelation(graph.RelationDescriptor{Name: "friend", RelatedName: "friend", Multiplicity: graph.ManyToMany})
	if err := alice.Link("friend", bob); err != nil {
		panic(err)
	}
	if err := alice.Link("friend", charlie); err != nil {
		panic(err)
	}
	b.Propagate(network.Token{Tag: network.TokenAdd, Species: network.EdgeToken, V1: "p", V2: "q", E1: alice, E2: bob})
	b.Propagate(network.Token{Tag: network.TokenAdd, Species: network.EdgeToken, V1: "p", V2: "q", E1: alice, E2: charlie})

	fmt.Println("\n--- adults matches ---")
	printTerminal(b, "adults", []string{"adults:p"})
	fmt.Println("\n--- friends matches ---")
	printTerminal(b, "friends", []string{"friends:p", "friends:q"})
}

func runSingleQuery(constraintText string, handler trace.Handler) {
	p, err := pattern.Build(pattern.FromGraph(personGraph()), nil, constraintText)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build error: %v\n", err)
		os.Exit(1)
	}

	b := network.NewBuilder()
	if handler != nil {
		b.SetTrace(trace.NewCollector(handler))
	}
	if err := b.AddPattern("query", p); err != nil {
		fmt.Fprintf(os.Stderr, "network build error: %v\n", err)
		os.Exit(1)
	}

	printPartition(p)
	fmt.Println()
	printNodes(b)
}

func runInteractive(handler trace.Handler) {
	fmt.Println("=== Pattern Inspector Interactive Mode ===")
	fmt.Println("Enter constraint text over a single Person variable \"p\" (empty line to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	b := network.NewBuilder()
	if handler != nil {
		b.SetTrace(trace.NewCollector(handler))
	}
	count := 0

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return
		}

		p, err := pattern.Build(pattern.FromGraph(personGraph()), nil, line)
		if err != nil {
			fmt.Printf("build error: %v\n", err)
			continue
		}

		id := fmt.Sprintf("pattern%d", count)
		count++
		if err := b.AddPattern(id, p); err != nil {
			fmt.Printf("network build error: %v\n", err)
			continue
		}

		printPartition(p)
		fmt.Println()
		printNodes(b)
	}
}

func printPartition(p *pattern.Pattern) {
	table := newTable(os.Stdout, []string{"Leader", "Group"})
	for _, group := range p.Leaders {
		if len(group) == 0 {
			continue
		}
		table.Append([]string{group[0], strings.Join(group, ", ")})
	}
	table.Render()
}

func printNodes(b *network.Builder) {
	table := newTable(os.Stdout, []string{"ID", "Description", "Successors"})
	for _, n := range b.Nodes() {
		table.Append([]string{n.ID, n.Description, fmt.Sprintf("%d", n.Successors)})
	}
	table.Render()
}

func printTerminal(b *network.Builder, patternID string, vars []string) {
	terminal, ok := b.Terminal(patternID)
	if !ok {
		fmt.Printf("no terminal store for pattern %q\n", patternID)
		return
	}

	table := newTable(os.Stdout, vars)
	for _, tok := range terminal.Tokens() {
		row := make([]string, len(vars))
		for i, v := range vars {
			if e, ok := tok.Bindings[v]; ok {
				row[i] = e.ID
			} else {
				row[i] = color.RedString("?")
			}
		}
		table.Append(row)
	}
	table.Render()
}

func newTable(w *os.File, headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)
	return table
}
