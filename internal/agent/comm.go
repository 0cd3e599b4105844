package agent

import "fmt"

// Comm identifies this process among Size peers sharing the event ports.
type Comm struct {
	Rank int `yaml:"rank"`
	Size int `yaml:"size"`
}

func Single() Comm { return Comm{Rank: 0, Size: 1} }

func (c Comm) Validate() error {
	if c.Size < 1 || c.Rank < 0 || c.Rank >= c.Size {
		return fmt.Errorf("invalid comm: rank %d of %d", c.Rank, c.Size)
	}
	return nil
}

// Index is a contiguous run of global channel ids.
type Index struct {
	First int
	Count int
}

func (ix Index) Contains(id int) bool {
	return id >= ix.First && id < ix.First+ix.Count
}

// Split divides width channels evenly over the ranks; the first
// width%Size ranks take one extra channel.
func (c Comm) Split(width int) Index {
	n := width / c.Size
	rest := width % c.Size
	first := n * c.Rank
	if c.Rank < rest {
		first += c.Rank
		n++
	} else {
		first += rest
	}
	return Index{First: first, Count: n}
}
