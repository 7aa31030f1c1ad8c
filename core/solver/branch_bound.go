package solver

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// BranchAndBoundName is the registry name of the built-in backend.
const BranchAndBoundName = "branch_and_bound"

const (
	defaultWorkers         = 8
	defaultLPBoundMaxCells = 40000
	ctxCheckInterval       = 1024
)

// Options configures the branch-and-bound backend.
type Options struct {
	// Workers is the number of concurrent search workers. Worker 0 always
	// explores in a fixed order; the others diversify using Seed.
	Workers int   `json:"workers"`
	Seed    int64 `json:"seed"`
	// LPBoundMaxCells caps the dense relaxation matrix. Negative disables
	// the relaxation bound.
	LPBoundMaxCells int `json:"lp_bound_max_cells"`
}

// BranchAndBound is an exact depth-first search with forward checking. A
// portfolio of workers shares the incumbent so each prunes with the best
// value any of them has found.
type BranchAndBound struct {
	opts Options
}

// NewBranchAndBound applies defaults and returns the backend.
func NewBranchAndBound(o Options) *BranchAndBound {
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.LPBoundMaxCells == 0 {
		o.LPBoundMaxCells = defaultLPBoundMaxCells
	}
	return &BranchAndBound{opts: o}
}

// Name implements Backend.
func (b *BranchAndBound) Name() string { return BranchAndBoundName }

// Solve implements Backend.
//
// When LPBoundMaxCells is positive, the relaxation bound is computed in a
// separate goroutine that cannot be interrupted. It may keep running after
// Solve returns, for at most one simplex over LPBoundMaxCells cells, and its
// result is then discarded.
func (b *BranchAndBound) Solve(ctx context.Context, p Problem, progress ProgressFunc) (Solution, error) {
	start := time.Now()
	if err := p.Validate(); err != nil {
		return Solution{}, err
	}
	for _, g := range p.Groups {
		if len(g) == 0 {
			return Solution{Status: StatusInfeasible, Elapsed: time.Since(start)}, nil
		}
	}
	for _, c := range p.Capacities {
		if c.Limit < 0 {
			return Solution{Status: StatusInfeasible, Elapsed: time.Since(start)}, nil
		}
	}
	if len(p.Groups) == 0 {
		return Solution{
			Status:   StatusOptimal,
			Values:   make([]bool, p.NumVars()),
			HasBound: true,
			Elapsed:  time.Since(start),
		}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s := newSearch(p, progress, start, cancel)

	if b.opts.LPBoundMaxCells > 0 {
		simplex := lpSimplex
		go func() {
			bound, err := lpRelaxationBound(p, b.opts.LPBoundMaxCells, simplex)
			if err == nil {
				s.setLPBound(bound)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < b.opts.Workers; id++ {
		w := newWorker(s, id, b.opts.Seed)
		g.Go(func() error {
			if w.run(gctx) {
				s.prove()
			}
			return nil
		})
	}
	_ = g.Wait()

	return s.solution(), nil
}

// search holds the state shared by all workers of one Solve call.
type search struct {
	p        Problem
	varGroup []int
	varCaps  [][]int
	varExcl  [][]int
	start    time.Time
	progress ProgressFunc
	cancel   context.CancelFunc

	nodes  atomic.Int64
	proven atomic.Bool
	found  atomic.Bool
	best   atomic.Int64
	lpBits atomic.Uint64
	hasLP  atomic.Bool

	mu     sync.Mutex
	values []bool
}

func newSearch(p Problem, progress ProgressFunc, start time.Time, cancel context.CancelFunc) *search {
	n := p.NumVars()
	s := &search{
		p:        p,
		varGroup: make([]int, n),
		varCaps:  make([][]int, n),
		varExcl:  make([][]int, n),
		start:    start,
		progress: progress,
		cancel:   cancel,
		values:   make([]bool, n),
	}
	for g, vars := range p.Groups {
		for _, v := range vars {
			s.varGroup[v] = g
		}
	}
	for c, cp := range p.Capacities {
		for _, v := range cp.Vars {
			s.varCaps[v] = append(s.varCaps[v], c)
		}
	}
	for _, e := range p.Exclusions {
		s.varExcl[e[0]] = append(s.varExcl[e[0]], e[1])
		s.varExcl[e[1]] = append(s.varExcl[e[1]], e[0])
	}
	return s
}

// offer records a complete assignment if it beats the incumbent.
func (s *search) offer(value int, chosen []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.found.Load() && int64(value) <= s.best.Load() {
		return
	}
	for i := range s.values {
		s.values[i] = false
	}
	for _, v := range chosen {
		s.values[v] = true
	}
	s.best.Store(int64(value))
	s.found.Store(true)
	if s.progress != nil {
		s.progress(value, time.Since(s.start))
	}
	s.checkBound()
}

func (s *search) setLPBound(bound float64) {
	s.lpBits.Store(math.Float64bits(bound))
	s.hasLP.Store(true)
	s.checkBound()
}

func (s *search) lpBound() (float64, bool) {
	if !s.hasLP.Load() {
		return 0, false
	}
	return math.Float64frombits(s.lpBits.Load()), true
}

// checkBound stops the search once the incumbent reaches the integral part
// of the relaxation bound.
func (s *search) checkBound() {
	bound, ok := s.lpBound()
	if !ok || !s.found.Load() {
		return
	}
	if float64(s.best.Load()) >= math.Floor(bound+1e-6) {
		s.prove()
	}
}

func (s *search) prove() {
	s.proven.Store(true)
	s.cancel()
}

func (s *search) solution() Solution {
	sol := Solution{Nodes: s.nodes.Load(), Elapsed: time.Since(s.start)}
	found := s.found.Load()
	proven := s.proven.Load()
	switch {
	case proven && found:
		sol.Status = StatusOptimal
	case proven:
		sol.Status = StatusInfeasible
	case found:
		sol.Status = StatusFeasible
	default:
		sol.Status = StatusUnknown
	}
	if found {
		s.mu.Lock()
		sol.Values = append([]bool(nil), s.values...)
		sol.Objective = int(s.best.Load())
		s.mu.Unlock()
	}
	if sol.Status == StatusOptimal {
		sol.Bound, sol.HasBound = float64(sol.Objective), true
	} else if sol.Status == StatusFeasible {
		sol.Bound, sol.HasBound = s.lpBound()
	}
	return sol
}

// worker runs one depth-first search over the shared problem.
type worker struct {
	s         *search
	ctx       context.Context
	blocked   []int32
	groupDone []bool
	capUsed   []int
	trail     []int
	chosen    []int
	bufs      [][]int
	groupRank []int
	varRank   []int
	nodes     int64
	flushed   int64
	stopped   bool
}

func newWorker(s *search, id int, seed int64) *worker {
	n, groups := s.p.NumVars(), len(s.p.Groups)
	w := &worker{
		s:         s,
		blocked:   make([]int32, n),
		groupDone: make([]bool, groups),
		capUsed:   make([]int, len(s.p.Capacities)),
		chosen:    make([]int, 0, groups),
		bufs:      make([][]int, groups+1),
		groupRank: identity(groups),
		varRank:   identity(n),
	}
	if id > 0 {
		rng := rand.New(rand.NewSource(seed + int64(id)))
		rng.Shuffle(groups, func(i, j int) { w.groupRank[i], w.groupRank[j] = w.groupRank[j], w.groupRank[i] })
		rng.Shuffle(n, func(i, j int) { w.varRank[i], w.varRank[j] = w.varRank[j], w.varRank[i] })
	}
	for _, cp := range s.p.Capacities {
		if cp.Limit == 0 {
			for _, v := range cp.Vars {
				w.blocked[v]++
			}
		}
	}
	return w
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// run explores the whole tree and reports whether it finished without
// being interrupted, which proves the incumbent optimal.
func (w *worker) run(ctx context.Context) bool {
	w.ctx = ctx
	if ctx.Err() != nil {
		w.stopped = true
		return false
	}
	w.dfs(0, 0)
	w.s.nodes.Add(w.nodes - w.flushed)
	return !w.stopped
}

func (w *worker) dfs(depth, value int) {
	w.nodes++
	if w.nodes%ctxCheckInterval == 0 {
		w.s.nodes.Add(w.nodes - w.flushed)
		w.flushed = w.nodes
		if w.ctx.Err() != nil {
			w.stopped = true
			return
		}
	}

	g, bound, ok := w.pick()
	if !ok {
		return
	}
	if g < 0 {
		w.s.offer(value, w.chosen)
		return
	}
	if w.s.found.Load() && int64(value+bound) <= w.s.best.Load() {
		return
	}

	for _, v := range w.candidates(depth, g) {
		mark := w.assign(v)
		w.chosen = append(w.chosen, v)
		w.dfs(depth+1, value+w.s.p.Weights[v])
		w.chosen = w.chosen[:len(w.chosen)-1]
		w.undo(v, mark)
		if w.stopped {
			return
		}
	}
}

// pick selects the open group with the fewest candidates and computes the
// optimistic bound over all open groups. ok is false when an open group has
// no candidate left. group is -1 when every group is assigned.
func (w *worker) pick() (group, bound int, ok bool) {
	group = -1
	fewest := 0
	for g, vars := range w.s.p.Groups {
		if w.groupDone[g] {
			continue
		}
		count, top := 0, 0
		for _, v := range vars {
			if w.blocked[v] > 0 {
				continue
			}
			if wt := w.s.p.Weights[v]; count == 0 || wt > top {
				top = wt
			}
			count++
		}
		if count == 0 {
			return -1, 0, false
		}
		bound += top
		if group < 0 || count < fewest || (count == fewest && w.groupRank[g] < w.groupRank[group]) {
			group, fewest = g, count
		}
	}
	return group, bound, true
}

// candidates lists the unblocked variables of group g, heaviest first.
func (w *worker) candidates(depth, g int) []int {
	buf := w.bufs[depth][:0]
	for _, v := range w.s.p.Groups[g] {
		if w.blocked[v] == 0 {
			buf = append(buf, v)
		}
	}
	weights := w.s.p.Weights
	sort.Slice(buf, func(i, j int) bool {
		a, b := buf[i], buf[j]
		if weights[a] != weights[b] {
			return weights[a] > weights[b]
		}
		return w.varRank[a] < w.varRank[b]
	})
	w.bufs[depth] = buf
	return buf
}

func (w *worker) assign(v int) int {
	mark := len(w.trail)
	w.groupDone[w.s.varGroup[v]] = true
	for _, u := range w.s.varExcl[v] {
		w.block(u)
	}
	for _, c := range w.s.varCaps[v] {
		w.capUsed[c]++
		cp := w.s.p.Capacities[c]
		if w.capUsed[c] == cp.Limit {
			for _, u := range cp.Vars {
				if u != v {
					w.block(u)
				}
			}
		}
	}
	return mark
}

func (w *worker) block(u int) {
	w.blocked[u]++
	w.trail = append(w.trail, u)
}

func (w *worker) undo(v, mark int) {
	for _, u := range w.trail[mark:] {
		w.blocked[u]--
	}
	w.trail = w.trail[:mark]
	for _, c := range w.s.varCaps[v] {
		w.capUsed[c]--
	}
	w.groupDone[w.s.varGroup[v]] = false
}
