package parallel

import "fmt"

// ScheduleCycleError reports that registered systems' order constraints and
// data conflicts form a cycle (spec.md §4.9 step 1). Frame execution does
// not attempt recovery from this — it is raised at registration/plan-build
// time only.
type ScheduleCycleError struct {
	Systems []SystemID
}

func (e *ScheduleCycleError) Error() string {
	return fmt.Sprintf("parallel: schedule cycle among systems %v", e.Systems)
}

// Wave is a conflict-free set of systems chosen for concurrent execution
// within one step of the frame plan (spec.md §3 "Wave").
type Wave struct {
	Systems []*System
}

// Plan is the compiled per-frame schedule: an ordered list of waves,
// computed deterministically from system registration order.
type Plan struct {
	Waves []Wave
}

// buildPlan topologically sorts systems (honoring user before/after
// constraints plus conflict edges ordered by insertion order) and greedily
// partitions the result into waves.
func buildPlan(systems []*System) (*Plan, error) {
	n := len(systems)
	index := make(map[SystemID]int, n)
	for i, s := range systems {
		index[s.ID] = i
	}

	// adjacency[i] lists indices that must come after i.
	adjacency := make([][]int, n)
	indegree := make([]int, n)
	addEdge := func(from, to int) {
		if from == to {
			return
		}
		for _, existing := range adjacency[from] {
			if existing == to {
				return
			}
		}
		adjacency[from] = append(adjacency[from], to)
		indegree[to]++
	}

	for i, s := range systems {
		for _, c := range s.Constraints {
			if c.Before != "" {
				if j, ok := index[c.Before]; ok {
					addEdge(i, j)
				}
			}
			if c.After != "" {
				if j, ok := index[c.After]; ok {
					addEdge(j, i)
				}
			}
		}
	}

	// Conflict edge from A to B when a conflict exists and A precedes B in
	// registration order (spec.md §4.9 step 1's insertion-order tiebreak).
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if conflicts(systems[i].Access, systems[j].Access) {
				addEdge(i, j)
			}
		}
	}

	order, err := topoSort(n, adjacency, indegree, systems)
	if err != nil {
		return nil, err
	}

	// A direct edge between two systems (whether from a user order
	// constraint or a data conflict) means one must complete before the
	// other starts, so they can never share a wave even when the DAG
	// doesn't force them adjacent in `order`.
	linked := make([][]bool, n)
	for i := range linked {
		linked[i] = make([]bool, n)
	}
	for i, nexts := range adjacency {
		for _, j := range nexts {
			linked[i][j] = true
			linked[j][i] = true
		}
	}

	return &Plan{Waves: partitionWaves(order, systems, linked)}, nil
}

// topoSort runs Kahn's algorithm, breaking ties by registration order so the
// result is deterministic (spec.md §4.9 step 2 "Determinism").
func topoSort(n int, adjacency [][]int, indegree []int, systems []*System) ([]int, error) {
	indegree = append([]int(nil), indegree...)
	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		// Pick the lowest-index ready node to keep insertion order as the
		// tiebreak among simultaneously-ready systems.
		pick := 0
		for k := 1; k < len(ready); k++ {
			if ready[k] < ready[pick] {
				pick = k
			}
		}
		cur := ready[pick]
		ready = append(ready[:pick], ready[pick+1:]...)
		order = append(order, cur)

		for _, next := range adjacency[cur] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != n {
		var remaining []SystemID
		seen := make(map[int]bool, len(order))
		for _, i := range order {
			seen[i] = true
		}
		for i := 0; i < n; i++ {
			if !seen[i] {
				remaining = append(remaining, systems[i].ID)
			}
		}
		return nil, &ScheduleCycleError{Systems: remaining}
	}
	return order, nil
}

// partitionWaves greedily walks systems in topological order, appending each
// one to the current (last) wave when it is conflict- and edge-free with
// every member already in it, else closing that wave and starting a new one
// (spec.md §4.9 step 2: "add S to the current wave iff conflict-free,
// otherwise start a new wave"). Checking only the current wave — not every
// prior wave via first-fit — keeps wave indices monotonic in topo order, so
// a system never lands in an earlier wave than something required to
// precede it.
func partitionWaves(order []int, systems []*System, linked [][]bool) []Wave {
	var waves []Wave
	var currentIndices []int
	for _, idx := range order {
		s := systems[idx]
		if len(waves) > 0 && waveAccepts(currentIndices, idx, linked) {
			last := len(waves) - 1
			waves[last].Systems = append(waves[last].Systems, s)
			currentIndices = append(currentIndices, idx)
			continue
		}
		waves = append(waves, Wave{Systems: []*System{s}})
		currentIndices = []int{idx}
	}
	return waves
}

func waveAccepts(waveIdx []int, candidate int, linked [][]bool) bool {
	for _, member := range waveIdx {
		if linked[member][candidate] {
			return false
		}
	}
	return true
}
