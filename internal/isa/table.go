package isa

import (
	"fmt"
	"sync"
)

// Prefix is the opcode that selects the extended table.
const Prefix byte = 0xCB

// Descriptor is one populated slot of an opcode table.
type Descriptor struct {
	Opcode   byte
	Extended bool
	Kind     Kind
	Width    uint8 // total length in bytes including prefix and operands
	Cycles   Cycles
}

// Table maps an opcode byte to its descriptor. Empty slots are nil.
type Table struct {
	extended bool
	slots    [256]*Descriptor
}

// Lookup returns the descriptor for op, if one is registered.
func (t *Table) Lookup(op byte) (*Descriptor, bool) {
	d := t.slots[op]
	return d, d != nil
}

// Len reports the number of registered opcodes.
func (t *Table) Len() int {
	n := 0
	for _, d := range t.slots {
		if d != nil {
			n++
		}
	}
	return n
}

// Builder assembles a Table. Registering the same opcode twice is a
// programming error and panics.
type Builder struct {
	t *Table
}

func NewBuilder(extended bool) *Builder {
	return &Builder{t: &Table{extended: extended}}
}

// Register adds an opcode. The width must agree with the operands of k.
func (b *Builder) Register(op byte, k Kind, width uint8, cycles Cycles) *Builder {
	if prev := b.t.slots[op]; prev != nil {
		panic(fmt.Sprintf("isa: opcode %s registered twice (%s, %s)", opName(b.t.extended, op), prev.Kind.Template(), k.Template()))
	}
	want := 1 + k.OperandSize()
	if b.t.extended {
		want++
	}
	if int(width) != want {
		panic(fmt.Sprintf("isa: opcode %s (%s) width %d, operands need %d", opName(b.t.extended, op), k.Template(), width, want))
	}
	b.t.slots[op] = &Descriptor{Opcode: op, Extended: b.t.extended, Kind: k, Width: width, Cycles: cycles}
	return b
}

// Build returns the finished table. The builder must not be used afterwards.
func (b *Builder) Build() *Table {
	t := b.t
	b.t = nil
	return t
}

func opName(extended bool, op byte) string {
	if extended {
		return fmt.Sprintf("$CB%02X", op)
	}
	return fmt.Sprintf("$%02X", op)
}

var (
	tablesOnce sync.Once
	baseTable  *Table
	extTable   *Table
)

func tables() (*Table, *Table) {
	tablesOnce.Do(func() {
		baseTable = buildBase()
		extTable = buildExtended()
	})
	return baseTable, extTable
}

// Base returns the shared table of unprefixed opcodes.
func Base() *Table {
	b, _ := tables()
	return b
}

// Extended returns the shared table of $CB-prefixed opcodes.
func Extended() *Table {
	_, e := tables()
	return e
}
