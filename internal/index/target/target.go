// Package target translates secondary-index target descriptors between
// their stored string form and schema-resolved column lists.
//
// Three surface syntaxes are understood:
//
//	v                        a bare column name
//	keys(m) entries(m) ...   a single collection column read in a given mode
//	{"pk":["a"],"ck":["b"]}  a composite (local) index over several columns
//
// All functions are pure and safe for concurrent use, provided the
// ColumnResolver is safe for concurrent reads.
package target

import (
	"fmt"

	serrors "github.com/arkilian/sindex/internal/errors"
	"github.com/arkilian/sindex/pkg/types"
)

const (
	pkKey = "pk"
	ckKey = "ck"
)

// Mode is how the index engine reads the target column.
type Mode string

const (
	ModeValues  Mode = "values"
	ModeKeys    Mode = "keys"
	ModeEntries Mode = "entries"
	ModeFull    Mode = "full"
)

// ParseMode converts a mode keyword. Keywords are case sensitive.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeValues, ModeKeys, ModeEntries, ModeFull:
		return m, nil
	}
	return "", fmt.Errorf("target: unknown mode %q", s)
}

func (m Mode) String() string { return string(m) }

// ModeFromOptions reads the legacy boolean mode options of an index
// definition. Keys-and-values wins over keys, which wins over values.
func ModeFromOptions(opts map[string]string) (Mode, bool) {
	switch {
	case opts[types.IndexEntriesOptionName] == "true":
		return ModeEntries, true
	case opts[types.IndexKeysOptionName] == "true":
		return ModeKeys, true
	case opts[types.IndexValuesOptionName] == "true":
		return ModeValues, true
	}
	return "", false
}

// ApplyMode renders a bare column target in function form, e.g. keys(tags).
// Descriptors that already carry a mode or are composites are rejected.
func ApplyMode(raw string, m Mode) (string, error) {
	if _, err := ParseMode(string(m)); err != nil {
		return "", serrors.NewTargetError(serrors.CodeInvalidTarget, err.Error())
	}
	if functionForm.MatchString(raw) {
		return "", serrors.NewTargetError(serrors.CodeInvalidTarget,
			fmt.Sprintf("target %s already names a mode", raw))
	}
	if _, ok := parseJSON(raw); ok {
		return "", serrors.NewTargetError(serrors.CodeInvalidTarget,
			fmt.Sprintf("mode %s cannot apply to JSON target %s", m, raw))
	}
	return string(m) + "(" + raw + ")", nil
}

// ColumnResolver maps a column name to its catalog-owned definition.
// Implementations return an error matching errors.ErrColumnNotFound for
// unknown names.
type ColumnResolver interface {
	ResolveColumn(name string) (*types.ColumnDef, error)
}

// Description is a decoded, schema-resolved target.
type Description struct {
	// PrimaryColumns are the partition-defining columns, in descriptor order.
	PrimaryColumns []*types.ColumnDef
	// SecondaryColumns are the clustering columns, in descriptor order.
	SecondaryColumns []*types.ColumnDef
	Mode             Mode
}

// PrimaryNames returns the names of the primary columns.
func (d *Description) PrimaryNames() []string {
	return columnNames(d.PrimaryColumns)
}

// SecondaryNames returns the names of the secondary columns.
func (d *Description) SecondaryNames() []string {
	return columnNames(d.SecondaryColumns)
}

// IsLocal reports whether the description has both primary and secondary columns.
func (d *Description) IsLocal() bool {
	return len(d.PrimaryColumns) > 0 && len(d.SecondaryColumns) > 0
}

func columnNames(cols []*types.ColumnDef) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}
