package target

// IsLocal reports whether descriptor is a composite target with non-empty
// pk and ck arrays. It inspects shape only and never resolves columns, so it
// works for indexes whose columns no longer exist. Malformed input is not local.
func IsLocal(descriptor string) bool {
	obj, ok := parseObject(descriptor)
	if !ok {
		return false
	}
	pk, pkOK := arrayField(obj, pkKey)
	ck, ckOK := arrayField(obj, ckKey)
	return pkOK && ckOK && len(pk) > 0 && len(ck) > 0
}

// PrimaryColumnName returns the most relevant column name of a descriptor
// without resolving it: the first ck element of a composite target, else its
// first pk element. Any other descriptor, including keys(m) and friends, is
// returned unchanged.
func PrimaryColumnName(descriptor string) string {
	obj, ok := parseObject(descriptor)
	if !ok {
		return descriptor
	}
	for _, key := range []string{ckKey, pkKey} {
		arr, isArray := arrayField(obj, key)
		if !isArray || len(arr) == 0 {
			continue
		}
		first := arr[0]
		if group, ok := first.([]interface{}); ok && len(group) > 0 {
			first = group[0]
		}
		if name, ok := scalarString(first); ok {
			return name
		}
		return descriptor
	}
	return descriptor
}
