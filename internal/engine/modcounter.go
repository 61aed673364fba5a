package engine

// modCounter is a modular hop counter. The same wrap-around index pattern
// recurs for the analysis cursor, the synthesis cursor, and the hybrid
// history pointer; keeping it in one place keeps the offset arithmetic
// honest.
type modCounter struct {
	idx int
	mod int
}

func newModCounter(mod int) modCounter {
	return modCounter{mod: mod}
}

// advance steps the counter by one position.
func (c *modCounter) advance() {
	c.idx++
	if c.idx >= c.mod {
		c.idx = 0
	}
}

// offset returns the index k steps from the current position. k may be
// negative as long as it does not exceed one full period.
func (c *modCounter) offset(k int) int {
	i := (c.idx + k) % c.mod
	if i < 0 {
		i += c.mod
	}
	return i
}

// position returns the current index.
func (c *modCounter) position() int {
	return c.idx
}
