package simulator

import (
	"fmt"
	"os"
	"time"

	"symsched/state"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// The number of successor levels searched for a common continuation before the oracle gives up
const joinSearchDepth = 64

// A basic block of a synthetic program.
//
// The number of successors decides how a state leaves the block:
// 0 terminates the state, 1 jumps, 2 branches, and more than 2 is a switch
// that forks into nested binary branches.
type Block struct {
	Name         string        `yaml:"name"`
	Instructions uint64        `yaml:"instructions"`
	Unsafe       int           `yaml:"unsafe"`
	QueryCost    time.Duration `yaml:"query_cost"`
	Succ         []string      `yaml:"succ"`
	// States reaching the block wait for each other and are merged into one
	Merge bool `yaml:"merge"`
}

// A synthetic program whose every branch depends on symbolic input, so both sides are always feasible.
type Program struct {
	Entry  string  `yaml:"entry"`
	Blocks []Block `yaml:"blocks"`

	index map[string]*Block
}

// Parse and validate a program in YAML format
func ParseProgram(data []byte) (*Program, error) {
	p := &Program{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("Simulator: unable to parse program: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Read, parse and validate the program stored at path
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Simulator: unable to read program: %w", err)
	}
	return ParseProgram(data)
}

// Check that block names are unique and that the entry and every successor exist
func (p *Program) Validate() error {
	if len(p.Blocks) == 0 {
		return fmt.Errorf("Simulator: program has no blocks")
	}
	p.index = make(map[string]*Block, len(p.Blocks))
	for i := range p.Blocks {
		b := &p.Blocks[i]
		if b.Name == "" {
			return fmt.Errorf("Simulator: block %v has no name", i)
		}
		if _, ok := p.index[b.Name]; ok {
			return fmt.Errorf("Simulator: duplicate block %q", b.Name)
		}
		p.index[b.Name] = b
	}
	if p.Entry == "" {
		p.Entry = p.Blocks[0].Name
	}
	if _, ok := p.index[p.Entry]; !ok {
		return fmt.Errorf("Simulator: entry block %q does not exist", p.Entry)
	}
	for _, b := range p.Blocks {
		for _, succ := range b.Succ {
			if _, ok := p.index[succ]; !ok {
				return fmt.Errorf("Simulator: block %q jumps to unknown block %q", b.Name, succ)
			}
		}
	}
	return nil
}

// Returns the named block. Panics if the block does not exist, since states only reach validated blocks
func (p *Program) Block(name string) *Block {
	b, ok := p.index[name]
	if !ok {
		panic(fmt.Errorf("Simulator: unknown block %q", name))
	}
	return b
}

func (p *Program) UnsafeOperations(block string) int {
	b, ok := p.index[block]
	if !ok {
		return 0
	}
	return b.Unsafe
}

// Returns the blocks each state executes before both reach their nearest common successor.
//
// If no common successor is reachable, ok is false and the blocks within two levels of each state are returned instead.
func (p *Program) BranchBlocks(left, right state.State) ([]string, []string, bool) {
	l, r := left.Block(), right.Block()
	ld, rd := p.distances(l), p.distances(r)

	join, best := "", -1
	for _, b := range p.Blocks {
		dl, okl := ld[b.Name]
		dr, okr := rd[b.Name]
		if !okl || !okr {
			continue
		}
		if d := max(dl, dr); best == -1 || d < best {
			join, best = b.Name, d
		}
	}
	if join == "" {
		return p.successors(l, 2), p.successors(r, 2), false
	}
	return p.before(l, join), p.before(r, join), true
}

// Breadth first distances from the block, bounded by joinSearchDepth
func (p *Program) distances(from string) map[string]int {
	dist := map[string]int{from: 0}
	queue := []string{from}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		if dist[b] >= joinSearchDepth {
			continue
		}
		for _, succ := range p.Block(b).Succ {
			if _, ok := dist[succ]; !ok {
				dist[succ] = dist[b] + 1
				queue = append(queue, succ)
			}
		}
	}
	return dist
}

// The blocks reachable from the block without passing through join
func (p *Program) before(from, join string) []string {
	if from == join {
		return nil
	}
	blocks := []string{from}
	for i := 0; i < len(blocks); i++ {
		for _, succ := range p.Block(blocks[i]).Succ {
			if succ != join && !slices.Contains(blocks, succ) {
				blocks = append(blocks, succ)
			}
		}
	}
	return blocks
}

// The block and its successors up to the given number of levels
func (p *Program) successors(from string, levels int) []string {
	blocks := []string{from}
	frontier := []string{from}
	for i := 0; i < levels; i++ {
		next := []string{}
		for _, b := range frontier {
			for _, succ := range p.Block(b).Succ {
				if !slices.Contains(blocks, succ) {
					blocks = append(blocks, succ)
					next = append(next, succ)
				}
			}
		}
		frontier = next
	}
	return blocks
}

// The number of jumps on the shortest path between the blocks, -1 if to is not reachable
func (p *Program) distance(from, to string) int {
	dist := map[string]int{from: 0}
	queue := []string{from}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		if b == to {
			return dist[b]
		}
		for _, succ := range p.Block(b).Succ {
			if _, ok := dist[succ]; !ok {
				dist[succ] = dist[b] + 1
				queue = append(queue, succ)
			}
		}
	}
	return -1
}

// The number of blocks on the shortest path from the block to a block that is not covered, counting both ends.
// 0 if every reachable block is covered.
func (p *Program) distanceToUncovered(from string, covered map[string]bool) uint64 {
	dist := map[string]int{from: 0}
	queue := []string{from}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		if !covered[b] {
			return uint64(dist[b]) + 1
		}
		for _, succ := range p.Block(b).Succ {
			if _, ok := dist[succ]; !ok {
				dist[succ] = dist[b] + 1
				queue = append(queue, succ)
			}
		}
	}
	return 0
}
