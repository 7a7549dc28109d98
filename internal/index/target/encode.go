package target

import (
	"fmt"
	"unicode/utf8"

	serrors "github.com/arkilian/sindex/internal/errors"
)

// Encode renders target references in their stored form. A lone single
// column is written bare; anything else becomes a JSON object whose pk is the
// first group and whose ck holds one entry per remaining group.
func Encode(refs []Ref) (string, error) {
	if len(refs) == 0 {
		return "", serrors.NewTargetError(serrors.CodeInvalidTarget, "no targets to encode")
	}
	for i, ref := range refs {
		if err := validateRef(ref); err != nil {
			return "", serrors.NewTargetError(serrors.CodeInvalidTarget, fmt.Sprintf("target %d: %v", i, err))
		}
	}

	if single, ok := refs[0].(SingleColumn); ok && len(refs) == 1 {
		return single.Name, nil
	}

	pk := render(refs[0])
	if name, ok := pk.(string); ok {
		pk = []string{name}
	}
	obj := map[string]interface{}{pkKey: pk}

	if len(refs) > 1 {
		ck := make([]interface{}, 0, len(refs)-1)
		for _, ref := range refs[1:] {
			ck = append(ck, render(ref))
		}
		obj[ckKey] = ck
	}

	s, err := marshalCanonical(obj)
	if err != nil {
		return "", serrors.NewInternalError("failed to serialize targets", err)
	}
	return s, nil
}

// render returns the JSON value of one reference: a string for a single
// column, an array of strings for a group.
func render(ref Ref) interface{} {
	switch r := ref.(type) {
	case SingleColumn:
		return r.Name
	case MultipleColumns:
		names := make([]string, len(r.Names))
		copy(names, r.Names)
		return names
	default:
		panic(fmt.Sprintf("target: unknown reference type %T", ref))
	}
}

func validateRef(ref Ref) error {
	switch r := ref.(type) {
	case SingleColumn:
		return validateName(r.Name)
	case MultipleColumns:
		if len(r.Names) == 0 {
			return fmt.Errorf("empty column group")
		}
		for _, n := range r.Names {
			if err := validateName(n); err != nil {
				return err
			}
		}
	case nil:
		return fmt.Errorf("nil reference")
	default:
		return fmt.Errorf("unknown reference type %T", ref)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty column name")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("column name %q is not valid UTF-8", name)
	}
	return nil
}
