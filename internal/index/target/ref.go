package target

import "strings"

// Ref is a typed target reference as written in an index definition.
// It is either a SingleColumn or a MultipleColumns; no other
// implementations exist.
type Ref interface {
	isRef()
	String() string
}

// SingleColumn targets one column.
type SingleColumn struct {
	Name string
}

// MultipleColumns targets a parenthesized group of columns.
type MultipleColumns struct {
	Names []string
}

func (SingleColumn) isRef()    {}
func (MultipleColumns) isRef() {}

func (s SingleColumn) String() string { return s.Name }

func (m MultipleColumns) String() string {
	return "(" + strings.Join(m.Names, ", ") + ")"
}

// Column returns a SingleColumn reference.
func Column(name string) Ref { return SingleColumn{Name: name} }

// Columns returns a MultipleColumns reference.
func Columns(names ...string) Ref {
	return MultipleColumns{Names: append([]string(nil), names...)}
}
