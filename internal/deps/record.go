package deps

// Read is one captured read. Keyed is false for whole-value reads.
type Read struct {
	Object any
	Key    any
	Keyed  bool
}

// Record holds what one recording context read.
type Record struct {
	Name string

	KeyDependencies   *KeyMap
	ValueDependencies *Set

	// Traps collects reads instead of the record while non-nil.
	Traps *[]Read

	// Ignore suppresses capture while > 0.
	Ignore int
}

func NewRecord(name string) *Record {
	return &Record{
		Name:              name,
		KeyDependencies:   NewKeyMap(),
		ValueDependencies: NewSet(),
	}
}

func (r *Record) AddValue(obj any) {
	r.ValueDependencies.Add(obj)
}

func (r *Record) AddKey(obj, key any) {
	r.KeyDependencies.Add(obj, key)
}

// AddRead records a captured read.
func (r *Record) AddRead(read Read) {
	if read.Keyed {
		r.AddKey(read.Object, read.Key)
		return
	}
	r.AddValue(read.Object)
}

// IsEmpty reports whether nothing was recorded.
func (r *Record) IsEmpty() bool {
	return r == nil || (r.ValueDependencies.Len() == 0 && r.KeyDependencies.Len() == 0)
}

// Reads flattens the record, key reads first.
func (r *Record) Reads() []Read {
	if r == nil {
		return nil
	}

	reads := []Read{}
	r.KeyDependencies.Each(func(obj, key any) {
		reads = append(reads, Read{Object: obj, Key: key, Keyed: true})
	})
	for _, obj := range r.ValueDependencies.Values() {
		reads = append(reads, Read{Object: obj})
	}
	return reads
}
