package target

import (
	"regexp"

	serrors "github.com/arkilian/sindex/internal/errors"
	"github.com/arkilian/sindex/pkg/types"
)

// functionForm matches keys(m), entries(m), values(m) and full(m). The inner
// group is greedy up to the last closing parenthesis and taken literally.
var functionForm = regexp.MustCompile(`^(keys|entries|values|full)\((.+)\)$`)

// decodeFunc tries one surface syntax. matched is false when the descriptor
// is not in that syntax; err is set only for a descriptor that matched.
type decodeFunc func(r ColumnResolver, descriptor string) (desc *Description, matched bool, err error)

// decoders are tried in order; the first match wins. A descriptor no decoder
// matches is a bare column name.
var decoders = []decodeFunc{
	decodeFunctionForm,
	decodeComposite,
}

// Decode parses a target descriptor and resolves its columns.
// Resolution and shape errors are returned unchanged.
func Decode(r ColumnResolver, descriptor string) (*Description, error) {
	for _, decode := range decoders {
		desc, matched, err := decode(r, descriptor)
		if err != nil {
			return nil, err
		}
		if matched {
			return desc, nil
		}
	}
	return decodeBareColumn(r, descriptor)
}

// DecodeIndex decodes the target stored in an index's options. Every failure,
// including a missing target option, is reported as a configuration error
// naming the index and the raw option value.
func DecodeIndex(r ColumnResolver, im *types.IndexMetadata) (*Description, error) {
	raw, ok := im.Target()
	if !ok {
		return nil, serrors.ConfigurationError(im.Name, raw,
			serrors.NewTargetError(serrors.CodeInvalidTarget, "missing "+types.TargetOptionName+" option"))
	}
	desc, err := Decode(r, raw)
	if err != nil {
		return nil, serrors.ConfigurationError(im.Name, raw, err)
	}
	return desc, nil
}

func decodeFunctionForm(r ColumnResolver, descriptor string) (*Description, bool, error) {
	m := functionForm.FindStringSubmatch(descriptor)
	if m == nil {
		return nil, false, nil
	}
	col, err := r.ResolveColumn(m[2])
	if err != nil {
		return nil, true, err
	}
	return &Description{
		PrimaryColumns: []*types.ColumnDef{col},
		Mode:           Mode(m[1]),
	}, true, nil
}

func decodeComposite(r ColumnResolver, descriptor string) (*Description, bool, error) {
	obj, ok := parseObject(descriptor)
	if !ok {
		return nil, false, nil
	}

	pk, pkOK := arrayField(obj, pkKey)
	ck, ckOK := arrayField(obj, ckKey)
	if !pkOK || !ckOK {
		return nil, true, serrors.MalformedComposite(serrors.MalformedCompositeMessage)
	}

	primary, err := resolveAll(r, pk)
	if err != nil {
		return nil, true, err
	}
	if len(primary) == 0 {
		return nil, true, serrors.MalformedComposite("pk field of JSON definition must not be empty")
	}
	secondary, err := resolveAll(r, ck)
	if err != nil {
		return nil, true, err
	}

	return &Description{
		PrimaryColumns:   primary,
		SecondaryColumns: secondary,
		Mode:             ModeValues,
	}, true, nil
}

func decodeBareColumn(r ColumnResolver, descriptor string) (*Description, error) {
	col, err := r.ResolveColumn(descriptor)
	if err != nil {
		return nil, err
	}
	return &Description{
		PrimaryColumns: []*types.ColumnDef{col},
		Mode:           ModeValues,
	}, nil
}

// resolveAll resolves a pk or ck array in order. A nested array is a column
// group written by Encode and contributes its members in order.
func resolveAll(r ColumnResolver, elems []interface{}) ([]*types.ColumnDef, error) {
	cols := make([]*types.ColumnDef, 0, len(elems))
	for _, e := range elems {
		if group, ok := e.([]interface{}); ok {
			for _, g := range group {
				col, err := resolveElement(r, g)
				if err != nil {
					return nil, err
				}
				cols = append(cols, col)
			}
			continue
		}
		col, err := resolveElement(r, e)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func resolveElement(r ColumnResolver, e interface{}) (*types.ColumnDef, error) {
	name, ok := scalarString(e)
	if !ok {
		return nil, serrors.MalformedComposite("column names in JSON definition must be scalars")
	}
	return r.ResolveColumn(name)
}
