// Package savefile reads and writes the human-readable key-value records used by
// save games and replays.
//
// A record is a brace-delimited table of strings, integers, booleans and nested
// tables, e.g. {"action-train", "type", "unit-footman", "player", 0, "ticks", 30}.
package savefile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors returned while decoding records.
var (
	ErrSyntax    = errors.New("savefile: syntax error")
	ErrType      = errors.New("savefile: unexpected value type")
	ErrEndOfData = errors.New("savefile: unexpected end of record")
)

// Kind identifies the type held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindTable
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// Value is a single element of a record.
type Value struct {
	Kind  Kind
	Str   string
	Int   int
	Bool  bool
	Table Table
}

// Table is an ordered sequence of values.
type Table []Value

// Str wraps a string.
func Str(s string) Value { return Value{Kind: KindString, Str: s} }

// Int wraps an integer.
func Int(i int) Value { return Value{Kind: KindInt, Int: i} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Tab wraps a nested table.
func Tab(t Table) Value { return Value{Kind: KindTable, Table: t} }

// Add appends values and returns the extended table.
func (t Table) Add(values ...Value) Table {
	return append(t, values...)
}

// AddKey appends a key string followed by its value.
func (t Table) AddKey(key string, v Value) Table {
	return append(t, Str(key), v)
}

// String renders the table in save-file syntax.
func (t Table) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t Table) write(b *strings.Builder) {
	b.WriteByte('{')
	for i, v := range t {
		if i > 0 {
			b.WriteString(", ")
		}
		v.write(b)
	}
	b.WriteByte('}')
}

func (v Value) write(b *strings.Builder) {
	switch v.Kind {
	case KindString:
		b.WriteString(strconv.Quote(v.Str))
	case KindInt:
		b.WriteString(strconv.Itoa(v.Int))
	case KindBool:
		b.WriteString(strconv.FormatBool(v.Bool))
	case KindTable:
		v.Table.write(b)
	}
}

// String returns the value in save-file syntax.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

// Cursor reads a table front to back. Records are mostly "key, value" pairs
// interleaved with single-word flags, so callers pull one element at a time.
type Cursor struct {
	t   Table
	pos int
}

// Cursor returns a cursor positioned at the first element.
func (t Table) Cursor() *Cursor {
	return &Cursor{t: t}
}

// More reports whether unread values remain.
func (c *Cursor) More() bool {
	return c.pos < len(c.t)
}

// Pos returns the index of the next value.
func (c *Cursor) Pos() int {
	return c.pos
}

// Next returns the next raw value.
func (c *Cursor) Next() (Value, error) {
	if c.pos >= len(c.t) {
		return Value{}, fmt.Errorf("%w at index %d", ErrEndOfData, c.pos)
	}
	v := c.t[c.pos]
	c.pos++
	return v, nil
}

func (c *Cursor) expect(k Kind) (Value, error) {
	v, err := c.Next()
	if err != nil {
		return v, err
	}
	if v.Kind != k {
		return v, fmt.Errorf("%w: index %d is %s, want %s", ErrType, c.pos-1, v.Kind, k)
	}
	return v, nil
}

// String reads a string value.
func (c *Cursor) String() (string, error) {
	v, err := c.expect(KindString)
	return v.Str, err
}

// Int reads an integer value.
func (c *Cursor) Int() (int, error) {
	v, err := c.expect(KindInt)
	return v.Int, err
}

// Bool reads a boolean value.
func (c *Cursor) Bool() (bool, error) {
	v, err := c.expect(KindBool)
	return v.Bool, err
}

// Table reads a nested table.
func (c *Cursor) Table() (Table, error) {
	v, err := c.expect(KindTable)
	return v.Table, err
}

// PeekString returns the next value if it is a string, without consuming it.
func (c *Cursor) PeekString() (string, bool) {
	if c.pos >= len(c.t) || c.t[c.pos].Kind != KindString {
		return "", false
	}
	return c.t[c.pos].Str, true
}
