// Package store keeps the last value of every controller on disk.
package store

import "sort"

// Values maps controller numbers to their last 7-bit value.
type Values struct {
	Controllers map[int]uint8 `json:"controllers"`
}

// Get returns the stored value of a controller.
func (v Values) Get(controller int) (uint8, bool) {
	value, ok := v.Controllers[controller]
	return value, ok
}

// Set records a value, allocating the map on first use.
func (v *Values) Set(controller int, value uint8) {
	if v.Controllers == nil {
		v.Controllers = make(map[int]uint8)
	}
	v.Controllers[controller] = value & 0x7f
}

// Sorted returns the controller numbers in ascending order.
func (v Values) Sorted() []int {
	out := make([]int, 0, len(v.Controllers))
	for c := range v.Controllers {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// Clone returns a deep copy.
func (v Values) Clone() Values {
	out := Values{Controllers: make(map[int]uint8, len(v.Controllers))}
	for c, value := range v.Controllers {
		out.Controllers[c] = value
	}
	return out
}
