package policies

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"sync/atomic"

	"github.com/zeu5/soccer-push/core"
)

// DefaultResolution is the number of values per action dimension tabular
// policies choose from
const DefaultResolution = 3

type QTable struct {
	table map[string]map[string]float64

	rand *rand.Rand
}

func NewQTable(seed int64) *QTable {
	return &QTable{
		table: make(map[string]map[string]float64),
		rand:  rand.New(rand.NewSource(seed)),
	}
}

func (q *QTable) GetAll(state string) (map[string]float64, bool) {
	values, ok := q.table[state]
	return values, ok
}

func (q *QTable) Get(state, action string, def float64) float64 {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	if _, ok := q.table[state][action]; !ok {
		q.table[state][action] = def
	}
	return q.table[state][action]
}

func (q *QTable) Set(state, action string, val float64) {
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	q.table[state][action] = val
}

func (q *QTable) HasState(state string) bool {
	_, ok := q.table[state]
	return ok
}

// Max returns the best recorded action of state, or def for unseen states
func (q *QTable) Max(state string, def float64) (string, float64) {
	if _, ok := q.table[state]; !ok {
		return "", def
	}
	maxAction := ""
	maxVal := math.Inf(-1)
	for a, val := range q.table[state] {
		if val > maxVal {
			maxAction = a
			maxVal = val
		}
	}

	if maxAction == "" {
		return "", def
	}

	return maxAction, maxVal
}

func (q *QTable) Size() int {
	return len(q.table)
}

// MaxAmong picks the best of the given actions, breaking ties at random.
// Missing entries are initialized to def.
func (q *QTable) MaxAmong(state string, actions []string, def float64) (string, float64) {
	if len(actions) == 0 {
		return "", def
	}
	if _, ok := q.table[state]; !ok {
		q.table[state] = make(map[string]float64)
	}
	maxActions := make([]string, 0)
	maxVal := math.Inf(-1)
	for _, a := range actions {
		if _, ok := q.table[state][a]; !ok {
			q.table[state][a] = def
		}
		val := q.table[state][a]
		if val > maxVal {
			maxActions = make([]string, 0)
			maxVal = val
		}
		if val == maxVal {
			maxActions = append(maxActions, a)
		}
	}

	randAction := q.rand.Intn(len(maxActions))
	return maxActions[randAction], maxVal
}

type qTableEntry struct {
	State   string             `json:"state"`
	Entries map[string]float64 `json:"entries"`
}

// Read loads a table written by Record, merging it into q
func (q *QTable) Read(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var in qTableEntry
		if err := json.Unmarshal(scanner.Bytes(), &in); err != nil {
			return fmt.Errorf("error reading file contents: %w", err)
		}
		if in.Entries == nil {
			in.Entries = make(map[string]float64)
		}
		q.table[in.State] = in.Entries
	}
	return scanner.Err()
}

// Record writes one JSON line per state to path. States are sorted so
// identical tables produce identical files.
func (q *QTable) Record(path string) error {
	bs := new(bytes.Buffer)

	states := make([]string, 0, len(q.table))
	for state := range q.table {
		states = append(states, state)
	}
	sort.Strings(states)

	for _, state := range states {
		stateBS, err := json.Marshal(qTableEntry{State: state, Entries: q.table[state]})
		if err != nil {
			return fmt.Errorf("encoding state %s: %w", state, err)
		}
		bs.Write(stateBS)
		bs.WriteByte('\n')
	}
	return os.WriteFile(path, bs.Bytes(), 0644)
}

// actionGrid caches the discretization of an action space
type actionGrid struct {
	resolution int
	space      *core.ActionSpace
	actions    []core.Action
	hashes     []string
	byHash     map[string]core.Action
}

func newActionGrid(resolution int) *actionGrid {
	if resolution < 2 {
		resolution = DefaultResolution
	}
	return &actionGrid{resolution: resolution}
}

func (g *actionGrid) get(space *core.ActionSpace) ([]core.Action, []string) {
	if g.space != space {
		g.space = space
		g.actions = space.Grid(g.resolution)
		g.hashes = make([]string, len(g.actions))
		g.byHash = make(map[string]core.Action, len(g.actions))
		for i, a := range g.actions {
			g.hashes[i] = a.Hash()
			g.byHash[g.hashes[i]] = a
		}
	}
	return g.actions, g.hashes
}

func (g *actionGrid) lookup(hash string) core.Action {
	return g.byHash[hash]
}

// seedSequence hands out distinct seeds to policies built concurrently
type seedSequence struct {
	base int64
	n    atomic.Int64
}

func newSeedSequence(base int64) *seedSequence {
	return &seedSequence{base: base}
}

func (s *seedSequence) next() int64 {
	return s.base + s.n.Add(1)
}
