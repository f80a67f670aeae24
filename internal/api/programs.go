package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/QTest-hq/jjsast/internal/inspect"
	"github.com/QTest-hq/jjsast/pkg/ast"
)

// SnapshotInfo identifies the program being served
type SnapshotInfo struct {
	ID             string    `json:"id,omitempty"`
	Name           string    `json:"name,omitempty"`
	SourceRevision string    `json:"source_revision,omitempty"`
	ClosedWorld    bool      `json:"closed_world"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	LoadedAt       time.Time `json:"loaded_at"`
}

// view is an immutable rendering of one program
type view struct {
	info    SnapshotInfo
	types   []inspect.TypeSummary
	methods []inspect.MethodSummary
	byType  map[string][]int
	totals  inspect.Totals
}

func newView(p *ast.Program, info SnapshotInfo) *view {
	info.ClosedWorld = p.ClosedWorld()
	info.LoadedAt = time.Now().UTC()

	v := &view{
		info:    info,
		types:   inspect.SummarizeTypes(p, true),
		methods: inspect.SummarizeProgram(p),
		byType:  make(map[string][]int),
	}
	for i, m := range v.methods {
		v.byType[m.Type] = append(v.byType[m.Type], i)
	}
	v.totals = inspect.Count(v.types, v.methods)
	return v
}

func (v *view) typeByName(name string) (inspect.TypeSummary, bool) {
	for _, t := range v.types {
		if t.Name == name {
			return t, true
		}
	}
	return inspect.TypeSummary{}, false
}

// TypeResponse is a type together with its methods
type TypeResponse struct {
	inspect.TypeSummary
	MethodList []inspect.MethodSummary `json:"method_list"`
}

// MethodListResponse is one page of methods
type MethodListResponse struct {
	Methods []inspect.MethodSummary `json:"methods"`
	Total   int                     `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}

// loaded fetches the served view or answers 503
func (s *Server) loaded(w http.ResponseWriter) *view {
	v := s.current()
	if v == nil {
		respondError(w, http.StatusServiceUnavailable, ErrNoProgram.Error())
	}
	return v
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	v := s.loaded(w)
	if v == nil {
		return
	}
	respondJSON(w, http.StatusOK, v.info)
}

func (s *Server) getTotals(w http.ResponseWriter, r *http.Request) {
	v := s.loaded(w)
	if v == nil {
		return
	}
	respondJSON(w, http.StatusOK, v.totals)
}

// listTypes lists declared types, and external ones with ?external=true
func (s *Server) listTypes(w http.ResponseWriter, r *http.Request) {
	v := s.loaded(w)
	if v == nil {
		return
	}

	withExternal := queryBool(r, "external")
	out := make([]inspect.TypeSummary, 0, len(v.types))
	for _, t := range v.types {
		if t.External && !withExternal {
			continue
		}
		out = append(out, t)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) getType(w http.ResponseWriter, r *http.Request) {
	v := s.loaded(w)
	if v == nil {
		return
	}

	t, ok := v.typeByName(chi.URLParam(r, "typeName"))
	if !ok {
		respondError(w, http.StatusNotFound, "type not found")
		return
	}
	respondJSON(w, http.StatusOK, TypeResponse{TypeSummary: t, MethodList: v.methodsOf(t.Name)})
}

func (s *Server) listTypeMethods(w http.ResponseWriter, r *http.Request) {
	v := s.loaded(w)
	if v == nil {
		return
	}

	t, ok := v.typeByName(chi.URLParam(r, "typeName"))
	if !ok {
		respondError(w, http.StatusNotFound, "type not found")
		return
	}
	respondJSON(w, http.StatusOK, v.methodsOf(t.Name))
}

func (v *view) methodsOf(typeName string) []inspect.MethodSummary {
	idx := v.byType[typeName]
	out := make([]inspect.MethodSummary, len(idx))
	for i, j := range idx {
		out[i] = v.methods[j]
	}
	return out
}

// listMethods pages through methods matching the query filters
func (s *Server) listMethods(w http.ResponseWriter, r *http.Request) {
	v := s.loaded(w)
	if v == nil {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	filter := inspect.Filter{
		Type:       r.URL.Query().Get("type"),
		Name:       r.URL.Query().Get("name"),
		Exported:   queryBool(r, "exported"),
		EntryPoint: queryBool(r, "entry_point"),
		JsOnly:     queryBool(r, "js"),
	}

	resp := MethodListResponse{Methods: []inspect.MethodSummary{}, Limit: limit, Offset: offset}
	for i := range v.methods {
		if !filter.Match(&v.methods[i]) {
			continue
		}
		if resp.Total >= offset && len(resp.Methods) < limit {
			resp.Methods = append(resp.Methods, v.methods[i])
		}
		resp.Total++
	}
	respondJSON(w, http.StatusOK, resp)
}

// getMethod returns one method by its numeric ID
func (s *Server) getMethod(w http.ResponseWriter, r *http.Request) {
	v := s.loaded(w)
	if v == nil {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "methodID"), 10, 32)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid method ID")
		return
	}
	if id <= 0 || int(id) > len(v.methods) {
		respondError(w, http.StatusNotFound, "method not found")
		return
	}
	respondJSON(w, http.StatusOK, v.methods[id-1])
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return b
}
