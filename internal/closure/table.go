package closure

import (
	"fmt"
	"slices"
)

// Table maps keys to the proofs that produced them. It only grows; entries are
// tombstoned as Dominated rather than removed. A Table is written by a single
// Engine and is read-only once Build returns.
type Table struct {
	entries map[Key]Proof
	// superseded keeps the proofs of keys that were live when another entry
	// used them as an operand and were tombstoned later.
	superseded map[Key]Proof
}

func newTable() *Table {
	return &Table{
		entries:    make(map[Key]Proof),
		superseded: make(map[Key]Proof),
	}
}

// Len is the number of keys in the table, tombstones included.
func (t *Table) Len() int { return len(t.entries) }

// Lookup returns the proof stored under k. A Dominated proof with ok=true is a tombstone.
func (t *Table) Lookup(k Key) (Proof, bool) {
	p, ok := t.entries[k]
	return p, ok
}

// Resolve returns the proof an operand key was derived with. It panics if the
// key is unknown or is a tombstone that never carried a derivation.
func (t *Table) Resolve(k Key) Proof {
	p, ok := t.entries[k]
	if !ok {
		panic(fmt.Sprintf("closure: operand %v not in table", k))
	}
	if p.Op != Dominated {
		return p
	}
	if old, ok := t.superseded[k]; ok {
		return old
	}
	panic(fmt.Sprintf("closure: operand %v is dominated", k))
}

// tryInsert stores p under k unless k is already present.
func (t *Table) tryInsert(k Key, p Proof) bool {
	if _, exists := t.entries[k]; exists {
		return false
	}
	t.entries[k] = p
	return true
}

// dominate tombstones every other key of k.Num whose cost is weakly larger
// than k's and returns how many live entries it replaced.
func (t *Table) dominate(k Key) (replaced int) {
	for z := k.Zeros; z <= MaxCost; z++ {
		for o := k.Ones; o <= MaxCost; o++ {
			if z == k.Zeros && o == k.Ones {
				continue
			}
			sib := Key{Num: k.Num, Zeros: z, Ones: o}
			if old, ok := t.entries[sib]; ok && old.Op != Dominated {
				t.superseded[sib] = old
				replaced++
			}
			t.entries[sib] = Proof{}
		}
	}
	return replaced
}

// Keys returns every key in (Num, Zeros, Ones) order.
func (t *Table) Keys() []Key {
	keys := make([]Key, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// liveKeys returns the non-dominated keys in (Num, Zeros, Ones) order.
func (t *Table) liveKeys() []Key {
	keys := make([]Key, 0, len(t.entries))
	for k, p := range t.entries {
		if p.Op != Dominated {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys
}

func sortKeys(keys []Key) {
	slices.SortFunc(keys, func(a, b Key) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
}

// ReportOrder lists the cost pairs of a value cheapest first: ascending total
// cost, and for equal totals the pair spending more zeros first.
func ReportOrder() [][2]uint8 {
	var order [][2]uint8
	for sum := 0; sum <= 2*MaxCost; sum++ {
		for z := min(sum, MaxCost); z >= max(0, sum-MaxCost); z-- {
			order = append(order, [2]uint8{uint8(z), uint8(sum - z)})
		}
	}
	return order
}

var reportOrder = ReportOrder()

// Live returns every non-dominated key of num in report order.
func (t *Table) Live(num uint16) []Key {
	var keys []Key
	for _, c := range reportOrder {
		k := Key{Num: num, Zeros: c[0], Ones: c[1]}
		if p, ok := t.entries[k]; ok && p.Op != Dominated {
			keys = append(keys, k)
		}
	}
	return keys
}

// Best returns the first non-dominated key of num in report order.
func (t *Table) Best(num uint16) (Key, Proof, bool) {
	for _, c := range reportOrder {
		k := Key{Num: num, Zeros: c[0], Ones: c[1]}
		if p, ok := t.entries[k]; ok && p.Op != Dominated {
			return k, p, true
		}
	}
	return Key{}, Proof{}, false
}

// Clone returns an independent copy of t.
func (t *Table) Clone() *Table {
	c := newTable()
	for k, p := range t.entries {
		c.entries[k] = p
	}
	for k, p := range t.superseded {
		c.superseded[k] = p
	}
	return c
}

// Stats summarizes a table.
type Stats struct {
	Keys       int
	Live       int
	Dominated  int
	Superseded int
	Values     int
}

func (t *Table) Stats() Stats {
	s := Stats{Keys: len(t.entries), Superseded: len(t.superseded)}
	values := make(map[uint16]struct{})
	for k, p := range t.entries {
		if p.Op == Dominated {
			s.Dominated++
			continue
		}
		s.Live++
		values[k.Num] = struct{}{}
	}
	s.Values = len(values)
	return s
}
