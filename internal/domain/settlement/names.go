package settlement

import "strconv"

// Namer hands out settlement names that are unique within one calculation.
// Repeated bases get a numeric suffix: "bob", "bob_1", "bob_2".
type Namer struct {
	used map[string]struct{}
}

func NewNamer() *Namer {
	return &Namer{used: make(map[string]struct{})}
}

// Unique returns base, or base with the smallest free suffix.
func (n *Namer) Unique(base string) string {
	name := base
	for i := 1; ; i++ {
		if _, taken := n.used[name]; !taken {
			break
		}
		name = base + "_" + strconv.Itoa(i)
	}
	n.used[name] = struct{}{}
	return name
}
