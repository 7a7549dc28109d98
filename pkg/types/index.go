package types

import "time"

// Option names stored in IndexMetadata.Options.
const (
	TargetOptionName      = "target"
	CustomIndexOptionName = "class_name"
	IndexKeysOptionName   = "index_keys"
	IndexValuesOptionName = "index_values"
	// IndexEntriesOptionName marks a map index over both keys and values.
	IndexEntriesOptionName = "index_keys_and_values"
)

// IndexKind is the kind of a secondary index.
type IndexKind string

const (
	IndexKindComposites IndexKind = "composites"
	IndexKindKeys       IndexKind = "keys"
	IndexKindCustom     IndexKind = "custom"
)

// IndexMetadata is the catalog record of a secondary index.
type IndexMetadata struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Table     string            `json:"table"`
	Kind      IndexKind         `json:"kind"`
	Options   map[string]string `json:"options"`
	CreatedAt time.Time         `json:"created_at"`
}

// Target returns the raw target descriptor and whether the option is set.
func (im *IndexMetadata) Target() (string, bool) {
	if im.Options == nil {
		return "", false
	}
	t, ok := im.Options[TargetOptionName]
	return t, ok
}

// IsCustom reports whether the index is backed by a custom implementation class.
func (im *IndexMetadata) IsCustom() bool {
	if im.Kind == IndexKindCustom {
		return true
	}
	_, ok := im.Options[CustomIndexOptionName]
	return ok
}
