package deps

// MergeValueDependencies adds every value dependency of src into dst.
func MergeValueDependencies(dst, src *Record) {
	if src == nil {
		return
	}
	for _, obj := range src.ValueDependencies.Values() {
		dst.ValueDependencies.Add(obj)
	}
}

// MergeKeyDependencies unions, per container, the keys of src into dst.
func MergeKeyDependencies(dst, src *Record) {
	if src == nil {
		return
	}
	src.KeyDependencies.Each(func(obj, key any) {
		dst.KeyDependencies.Add(obj, key)
	})
}

// Merge unions both kinds of dependencies of src into dst.
func Merge(dst, src *Record) {
	MergeKeyDependencies(dst, src)
	MergeValueDependencies(dst, src)
}

// Diff compares two records. added holds reads of next absent from prev,
// removed holds reads of prev absent from next. A nil record is empty.
func Diff(prev, next *Record) (added, removed []Read) {
	for _, read := range next.Reads() {
		if !prev.has(read) {
			added = append(added, read)
		}
	}
	for _, read := range prev.Reads() {
		if !next.has(read) {
			removed = append(removed, read)
		}
	}
	return added, removed
}

func (r *Record) has(read Read) bool {
	if r == nil {
		return false
	}
	if read.Keyed {
		return r.KeyDependencies.Has(read.Object, read.Key)
	}
	return r.ValueDependencies.Has(read.Object)
}
