package isa

import "fmt"

// Cycles is the T-state cost of an instruction. Conditional instructions
// cost Min when the branch is not taken and Max when it is.
type Cycles struct {
	Min, Max uint8
}

// Fixed returns the cost of an instruction that always takes n T-states.
func Fixed(n uint8) Cycles { return Cycles{Min: n, Max: n} }

// Variable returns the cost of a branching instruction.
func Variable(notTaken, taken uint8) Cycles { return Cycles{Min: notTaken, Max: taken} }

func (c Cycles) IsVariable() bool { return c.Min != c.Max }

// Resolve picks the cost for a branch outcome.
func (c Cycles) Resolve(taken bool) uint8 {
	if taken {
		return c.Max
	}
	return c.Min
}

func (c Cycles) String() string {
	if c.IsVariable() {
		return fmt.Sprintf("%d/%d", c.Min, c.Max)
	}
	return fmt.Sprintf("%d", c.Min)
}
