// Package identity maps device ids and free-text names from attendance files
// onto known employees.
package identity

import (
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

type Confidence string

const (
	Exact   Confidence = "exact"
	Partial Confidence = "partial"
	None    Confidence = "none"
)

type Method string

const (
	MethodOverride  Method = "override"
	MethodDevice    Method = "device"
	MethodFullName  Method = "full_name"
	MethodFirstName Method = "first_name"
	MethodLastName  Method = "last_name"
	MethodSubstring Method = "substring"
	MethodNone      Method = "none"
)

// Employee is the resolver's view of a directory entry. DeviceID 0 means unset.
type Employee struct {
	ID         uint
	FirstName  string
	LastName   string
	MiddleName string
	DeviceID   int64
}

func (e Employee) DisplayName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

type Identity struct {
	EmployeeID  uint   `json:"employee_id"`
	DisplayName string `json:"display_name"`
}

type Resolution struct {
	Identity   Identity   `json:"identity"`
	Method     Method     `json:"method"`
	Confidence Confidence `json:"confidence"`
	// StaleOverride is set when the override table named an unknown employee.
	StaleOverride bool `json:"stale_override,omitempty"`
}

func (r Resolution) Resolved() bool {
	return r.Confidence != None
}

type Suggestion struct {
	EmployeeID  uint   `json:"employee_id"`
	DisplayName string `json:"display_name"`
}

type candidate struct {
	emp   Employee
	full  string
	long  string // with middle name
	first string
	last  string
}

type cacheKey struct {
	id   int64
	name string
}

// Resolver is built once per import run. It is safe for concurrent use.
type Resolver struct {
	overrides  OverrideTable
	candidates []candidate
	byID       map[uint]int

	mu    sync.Mutex
	cache map[cacheKey]Resolution
}

func NewResolver(overrides OverrideTable, employees []Employee) *Resolver {
	r := &Resolver{
		overrides:  overrides,
		candidates: make([]candidate, 0, len(employees)),
		byID:       make(map[uint]int, len(employees)),
		cache:      make(map[cacheKey]Resolution),
	}
	for _, e := range employees {
		if _, dup := r.byID[e.ID]; dup {
			continue
		}
		r.byID[e.ID] = len(r.candidates)
		r.candidates = append(r.candidates, candidate{
			emp:   e,
			full:  NormalizeName(e.FirstName + " " + e.LastName),
			long:  NormalizeName(e.FirstName + " " + e.MiddleName + " " + e.LastName),
			first: NormalizeName(e.FirstName),
			last:  NormalizeName(e.LastName),
		})
	}
	return r
}

// Resolve maps an external id (0 when the file has none) and a source name
// to an employee. The first matching strategy wins; ties go to the employee
// listed first.
func (r *Resolver) Resolve(externalID int64, sourceName string) Resolution {
	key := cacheKey{id: externalID, name: NormalizeName(sourceName)}

	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.cache[key]; ok {
		return res
	}
	res := r.resolve(key.id, key.name)
	r.cache[key] = res
	return res
}

func (r *Resolver) resolve(externalID int64, name string) Resolution {
	var stale bool
	if externalID > 0 {
		if empID, ok := r.overrides[externalID]; ok {
			if i, known := r.byID[empID]; known {
				return r.match(i, MethodOverride, Exact)
			}
			stale = true
		}
		for i, c := range r.candidates {
			if c.emp.DeviceID > 0 && c.emp.DeviceID == externalID {
				return r.match(i, MethodDevice, Exact)
			}
		}
	}

	res := r.byName(name)
	res.StaleOverride = stale
	return res
}

func (r *Resolver) byName(name string) Resolution {
	if name == "" {
		return unresolved()
	}
	strategies := []struct {
		method     Method
		confidence Confidence
		match      func(c candidate) bool
	}{
		{MethodFullName, Exact, func(c candidate) bool { return c.full != "" && (c.full == name || c.long == name) }},
		{MethodFirstName, Partial, func(c candidate) bool { return c.first != "" && c.first == name }},
		{MethodLastName, Partial, func(c candidate) bool { return c.last != "" && c.last == name }},
		{MethodSubstring, Partial, func(c candidate) bool {
			return c.full != "" && (strings.Contains(c.full, name) || strings.Contains(name, c.full))
		}},
	}
	for _, s := range strategies {
		for i, c := range r.candidates {
			if s.match(c) {
				return r.match(i, s.method, s.confidence)
			}
		}
	}
	return unresolved()
}

func (r *Resolver) match(i int, m Method, c Confidence) Resolution {
	e := r.candidates[i].emp
	return Resolution{
		Identity:   Identity{EmployeeID: e.ID, DisplayName: e.DisplayName()},
		Method:     m,
		Confidence: c,
	}
}

func unresolved() Resolution {
	return Resolution{Method: MethodNone, Confidence: None}
}

// Suggest ranks up to n employees whose names resemble sourceName, for
// operator review of unmapped rows. It never feeds back into Resolve.
func (r *Resolver) Suggest(sourceName string, n int) []Suggestion {
	name := NormalizeName(sourceName)
	if name == "" || n <= 0 {
		return nil
	}
	names := make([]string, len(r.candidates))
	for i, c := range r.candidates {
		names[i] = c.full
	}

	type scored struct {
		idx  int
		dist int
	}
	best := make(map[int]int)
	consider := func(ranks fuzzy.Ranks) {
		for _, rank := range ranks {
			d := fuzzy.LevenshteinDistance(name, names[rank.OriginalIndex])
			if prev, ok := best[rank.OriginalIndex]; !ok || d < prev {
				best[rank.OriginalIndex] = d
			}
		}
	}
	consider(fuzzy.RankFindNormalizedFold(name, names))
	for _, token := range strings.Fields(name) {
		if len(token) > 1 {
			consider(fuzzy.RankFindNormalizedFold(token, names))
		}
	}

	ranked := make([]scored, 0, len(best))
	for idx, d := range best {
		ranked = append(ranked, scored{idx: idx, dist: d})
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].dist != ranked[b].dist {
			return ranked[a].dist < ranked[b].dist
		}
		return ranked[a].idx < ranked[b].idx
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]Suggestion, len(ranked))
	for i, s := range ranked {
		e := r.candidates[s.idx].emp
		out[i] = Suggestion{EmployeeID: e.ID, DisplayName: e.DisplayName()}
	}
	return out
}
