package api

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/codegraphd/codegraphd/internal/cluster"
	"github.com/codegraphd/codegraphd/internal/errs"
	"github.com/codegraphd/codegraphd/internal/graphcore"
	"github.com/codegraphd/codegraphd/internal/query"
)

// Daemon is the subset of daemonsup.Supervisor the dispatcher needs. Kept
// as an interface (rather than importing daemonsup directly) so the API
// package can be tested against a fake without pulling in the watcher,
// lock, and filesystem machinery.
type Daemon interface {
	Store() *graphcore.Store
	ClusterResult() cluster.Result
	Refresh()
}

// Dispatcher routes Requests to the query/cluster operations of §4.5/§4.6
// plus daemon control, the way rohankatakam-coderisk's mcp Handler
// switches on req.Method — generalized from a fixed tool registry into the
// spec's verb set, and assigning a uuid correlation ID to every request
// that arrives without one so async pushes (Hub) can be matched up by
// callers that only gave a verb.
type Dispatcher struct {
	daemon       Daemon
	hotPathLimit int
}

// NewDispatcher builds a Dispatcher over daemon.
func NewDispatcher(daemon Daemon, hotPathLimit int) *Dispatcher {
	if hotPathLimit <= 0 {
		hotPathLimit = 20
	}
	return &Dispatcher{daemon: daemon, hotPathLimit: hotPathLimit}
}

// Dispatch handles one Request, never panicking past this boundary (spec
// §7 Propagation policy): any unexpected failure surfaces as a tagged
// QueryBadInput error rather than an observed panic.
func (d *Dispatcher) Dispatch(req Request) (resp Response) {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	defer func() {
		if r := recover(); r != nil {
			resp = errorResponse(id, errs.QueryBadInput, fmt.Errorf("internal error: %v", r))
		}
	}()

	switch req.Verb {
	case "find_related":
		return d.findRelated(id, req.Params)
	case "search_symbols":
		return d.searchSymbols(id, req.Params)
	case "hot_paths":
		return d.hotPaths(id, req.Params)
	case "detect_cycles":
		return okResponse(id, query.DetectCycles(d.daemon.Store()))
	case "architecture_overview":
		return d.architectureOverview(id)
	case "clusters":
		return okResponse(id, d.daemon.ClusterResult())
	case "refresh":
		d.daemon.Refresh()
		return okResponse(id, map[string]string{"status": "refresh enqueued"})
	case "status":
		return okResponse(id, map[string]any{"status": "ok", "nodes": d.daemon.Store().Len()})
	default:
		return errorResponse(id, errs.QueryBadInput, fmt.Errorf("unknown verb %q", req.Verb))
	}
}

func (d *Dispatcher) findRelated(id string, params map[string]any) Response {
	file, _ := params["file"].(string)
	if file == "" {
		return errorResponse(id, errs.QueryBadInput, fmt.Errorf("find_related requires a non-empty 'file'"))
	}
	maxDepth := intParam(params, "max_depth", 2)
	includeReverse, _ := params["include_reverse"].(bool)
	types := edgeTypesParam(params)
	return okResponse(id, query.FindRelated(d.daemon.Store(), file, maxDepth, types, includeReverse))
}

func (d *Dispatcher) searchSymbols(id string, params map[string]any) Response {
	raw, _ := params["keywords"].([]any)
	if len(raw) == 0 {
		return errorResponse(id, errs.QueryBadInput, fmt.Errorf("search_symbols requires a non-empty 'keywords' list"))
	}
	keywords := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			keywords = append(keywords, s)
		}
	}
	return okResponse(id, query.SearchSymbols(d.daemon.Store(), keywords))
}

func (d *Dispatcher) hotPaths(id string, params map[string]any) Response {
	limit := intParam(params, "limit", d.hotPathLimit)
	return okResponse(id, query.HotPaths(d.daemon.Store(), limit))
}

func (d *Dispatcher) architectureOverview(id string) Response {
	return okResponse(id, map[string]any{
		"modules_by_language": byLanguage(d.daemon.Store()),
		"hot_paths":           query.HotPaths(d.daemon.Store(), d.hotPathLimit),
		"cycles":              query.DetectCycles(d.daemon.Store()),
		"clusters":            d.daemon.ClusterResult(),
	})
}

func byLanguage(store *graphcore.Store) map[string][]string {
	out := map[string][]string{}
	for _, n := range store.Nodes(nil) {
		out[n.Language] = append(out[n.Language], n.Path)
	}
	return out
}

func intParam(params map[string]any, key string, def int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

func edgeTypesParam(params map[string]any) []graphcore.EdgeType {
	raw, ok := params["types"].([]any)
	if !ok {
		return nil
	}
	var out []graphcore.EdgeType
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch s {
		case "import":
			out = append(out, graphcore.Import)
		case "include":
			out = append(out, graphcore.Include)
		case "require":
			out = append(out, graphcore.Require)
		case "call":
			out = append(out, graphcore.Call)
		case "inheritance":
			out = append(out, graphcore.Inheritance)
		}
	}
	return out
}
