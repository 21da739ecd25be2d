package scheduler

import "fmt"

// A discrete probability distribution over a set of weighted items.
//
// Items are stored in the leaves of a complete binary tree where every inner node holds the sum of its subtree.
// insert, update, remove and choose run in logarithmic time.
type discretePDF[T comparable] struct {
	index map[T]int
	items []T
	// sums[1] is the root, the leaves start at capacity
	sums   []float64
	counts []int
	free   []int

	capacity int
	size     int
}

func newDiscretePDF[T comparable]() *discretePDF[T] {
	p := &discretePDF[T]{index: make(map[T]int)}
	p.grow(8)
	return p
}

// Double the number of slots. Only called when every slot is occupied
func (p *discretePDF[T]) grow(capacity int) {
	old := p.capacity
	oldItems, oldSums, oldCounts := p.items, p.sums, p.counts

	p.capacity = capacity
	p.items = make([]T, capacity)
	p.sums = make([]float64, 2*capacity)
	p.counts = make([]int, 2*capacity)
	for slot := 0; slot < old; slot++ {
		if oldCounts[old+slot] == 1 {
			p.items[slot] = oldItems[slot]
			p.sums[capacity+slot] = oldSums[old+slot]
			p.counts[capacity+slot] = 1
		}
	}
	for i := capacity - 1; i > 0; i-- {
		p.sums[i] = p.sums[2*i] + p.sums[2*i+1]
		p.counts[i] = p.counts[2*i] + p.counts[2*i+1]
	}
	for slot := capacity - 1; slot >= old; slot-- {
		p.free = append(p.free, slot)
	}
}

func (p *discretePDF[T]) set(slot int, weight float64, count int) {
	i := p.capacity + slot
	p.sums[i] = weight
	p.counts[i] = count
	for i /= 2; i > 0; i /= 2 {
		p.sums[i] = p.sums[2*i] + p.sums[2*i+1]
		p.counts[i] = p.counts[2*i] + p.counts[2*i+1]
	}
}

func (p *discretePDF[T]) insert(item T, weight float64) {
	if _, ok := p.index[item]; ok {
		panic(fmt.Errorf("scheduler: %v inserted twice in the distribution", item))
	}
	if len(p.free) == 0 {
		p.grow(2 * p.capacity)
	}
	slot := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.index[item] = slot
	p.items[slot] = item
	p.set(slot, weight, 1)
	p.size++
}

func (p *discretePDF[T]) update(item T, weight float64) {
	slot, ok := p.index[item]
	if !ok {
		panic(fmt.Errorf("%w: %v is not in the distribution", ErrUnknownState, item))
	}
	p.set(slot, weight, 1)
}

func (p *discretePDF[T]) remove(item T) {
	slot, ok := p.index[item]
	if !ok {
		panic(fmt.Errorf("%w: %v is not in the distribution", ErrUnknownState, item))
	}
	delete(p.index, item)
	var zero T
	p.items[slot] = zero
	p.set(slot, 0, 0)
	p.free = append(p.free, slot)
	p.size--
}

// Returns the item whose cumulative weight interval contains u*total.
// u must be in [0, 1).
// If every weight is zero the items are chosen with equal probability.
func (p *discretePDF[T]) choose(u float64) T {
	if p.size == 0 {
		panic(fmt.Errorf("%w: choose from an empty distribution", ErrEmpty))
	}
	i := 1
	if p.sums[1] > 0 {
		target := u * p.sums[1]
		for i < p.capacity {
			left, right := 2*i, 2*i+1
			if (target < p.sums[left] && p.sums[left] > 0) || p.sums[right] <= 0 {
				i = left
			} else {
				target -= p.sums[left]
				i = right
			}
		}
	} else {
		target := int(u * float64(p.size))
		for i < p.capacity {
			left, right := 2*i, 2*i+1
			if (target < p.counts[left] && p.counts[left] > 0) || p.counts[right] == 0 {
				i = left
			} else {
				target -= p.counts[left]
				i = right
			}
		}
	}
	return p.items[i-p.capacity]
}

func (p *discretePDF[T]) empty() bool {
	return p.size == 0
}

func (p *discretePDF[T]) weight(item T) float64 {
	return p.sums[p.capacity+p.index[item]]
}
