package pipe

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/pathway/internal/graph"
	"github.com/roach88/pathway/internal/procedure"
	"github.com/roach88/pathway/internal/value"
)

// Catalog names the graphs a query can read. One of them is the default.
type Catalog struct {
	graphs      map[string]graph.Graph
	defaultName string
}

// NewCatalog returns a catalog whose default graph is g, registered under
// name.
func NewCatalog(name string, g graph.Graph) *Catalog {
	return &Catalog{graphs: map[string]graph.Graph{name: g}, defaultName: name}
}

// Add registers g under name, replacing an earlier graph of that name.
func (c *Catalog) Add(name string, g graph.Graph) {
	c.graphs[name] = g
}

// Graph returns the graph registered under name.
func (c *Catalog) Graph(name string) (graph.Graph, bool) {
	g, ok := c.graphs[name]
	return g, ok
}

// Default returns the default graph.
func (c *Catalog) Default() graph.Graph { return c.graphs[c.defaultName] }

// DefaultName returns the name of the default graph.
func (c *Catalog) DefaultName() string { return c.defaultName }

// Names lists the registered graph names, sorted.
func (c *Catalog) Names() []string { return slices.Sorted(maps.Keys(c.graphs)) }

// Stats counts the writes a statement performed.
type Stats struct {
	NodesCreated         int
	RelationshipsCreated int
}

// Runtime is everything a pipe needs while executing. One Runtime serves
// one statement execution.
type Runtime struct {
	Ctx        context.Context
	Params     map[string]value.Value
	Catalog    *Catalog
	Procedures *procedure.Registry
	Stats      *Stats
}

// NewRuntime returns a runtime reading the default graph of catalog.
func NewRuntime(ctx context.Context, catalog *Catalog, procs *procedure.Registry, params map[string]value.Value) *Runtime {
	if params == nil {
		params = map[string]value.Value{}
	}
	return &Runtime{Ctx: ctx, Params: params, Catalog: catalog, Procedures: procs, Stats: &Stats{}}
}

// Graph returns the graph pipes read and write.
func (rt *Runtime) Graph() graph.Graph { return rt.Catalog.Default() }

// Param returns the value of a parameter.
func (rt *Runtime) Param(name string) (value.Value, error) {
	v, ok := rt.Params[name]
	if !ok {
		return nil, &RuntimeError{
			Code:    ErrCodeMissingParameter,
			Message: fmt.Sprintf("parameter $%s has no value", name),
		}
	}
	if v == nil {
		return value.Null{}, nil
	}
	return v, nil
}
