package owlite_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hupe1980/owlite"
	"github.com/hupe1980/owlite/reason"
)

func Example() {
	ctx := context.Background()

	g, err := owlite.New()
	if err != nil {
		panic(err)
	}
	defer func() { _ = g.Close() }()

	alice, _ := g.InternString("ex:alice")
	knows, _ := g.InternString("ex:knows")
	bob, _ := g.InternString("ex:bob")

	if _, err := g.Add(alice, knows, bob); err != nil {
		panic(err)
	}
	if err := g.Declare(reason.Symmetric(knows)); err != nil {
		panic(err)
	}

	report, err := g.Materialize(ctx)
	if err != nil {
		panic(err)
	}

	fmt.Println("inferred:", report.Added)
	fmt.Println("bob knows alice:", g.Ask(bob, knows, alice))
	fmt.Println("alice knows bob:", g.Ask(alice, knows, bob))
	// Output:
	// inferred: 1
	// bob knows alice: true
	// alice knows bob: true
}

func ExampleGraph_Materialize_transitive() {
	g, _ := owlite.New(owlite.WithMaxIterations(8))
	defer func() { _ = g.Close() }()

	_, _ = g.AddStrings("a", "ancestorOf", "b")
	_, _ = g.AddStrings("b", "ancestorOf", "c")
	_, _ = g.AddStrings("c", "ancestorOf", "d")
	_ = g.DeclareAxiom(reason.KindTransitive, "ancestorOf", "")

	report, _ := g.Materialize(context.Background())

	fmt.Println(g.AskStrings("a", "ancestorOf", "d"))
	fmt.Println(report.Added, len(report.CapReached))
	// Output:
	// true
	// 3 0
}

func ExampleGraph_Save() {
	dir, _ := os.MkdirTemp("", "owlite-example")
	defer func() { _ = os.RemoveAll(dir) }()

	g, _ := owlite.New()
	defer func() { _ = g.Close() }()

	_, _ = g.AddStrings("ex:alice", "ex:worksFor", "ex:acme")
	_ = g.DeclareAxiom(reason.KindDomain, "ex:worksFor", "ex:Person")
	_, _ = g.Materialize(context.Background())

	path := filepath.Join(dir, "graph.owli")
	if _, err := g.Save(context.Background(), path); err != nil {
		panic(err)
	}

	v, err := owlite.OpenImage(context.Background(), nil, path)
	if err != nil {
		panic(err)
	}
	defer func() { _ = v.Close() }()

	for _, t := range v.Triples() {
		s, _ := g.Text(t.Subject)
		p, _ := g.Text(t.Predicate)
		o, _ := g.Text(t.Object)
		fmt.Println(s, p, o, t.Inferred())
	}
	// Output:
	// ex:alice ex:worksFor ex:acme false
	// ex:alice rdf:type ex:Person true
}
