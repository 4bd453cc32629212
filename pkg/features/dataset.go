package features

import "sort"

// Dataset is an ordered collection of features keyed by project name.
// Adding a feature whose key already exists replaces the earlier one in
// place, so the last row of a source wins.
type Dataset struct {
	name  string
	sr    SpatialReference
	order []string
	byKey map[string]Feature
}

// NewDataset creates an empty dataset.
func NewDataset(name string, sr SpatialReference) *Dataset {
	return &Dataset{
		name:  name,
		sr:    sr,
		byKey: make(map[string]Feature),
	}
}

// Name returns the dataset (layer) name.
func (d *Dataset) Name() string { return d.name }

// SpatialReference returns the dataset's spatial reference.
func (d *Dataset) SpatialReference() SpatialReference { return d.sr }

// Len returns the number of distinct keys.
func (d *Dataset) Len() int { return len(d.order) }

// Add inserts or replaces a feature. It reports whether the key was already present.
func (d *Dataset) Add(f Feature) bool {
	key := f.Key()
	_, exists := d.byKey[key]
	if !exists {
		d.order = append(d.order, key)
	}
	d.byKey[key] = f
	return exists
}

// Get returns the feature with the given key.
func (d *Dataset) Get(key string) (Feature, bool) {
	f, ok := d.byKey[key]
	return f, ok
}

// Has reports whether the key is present.
func (d *Dataset) Has(key string) bool {
	_, ok := d.byKey[key]
	return ok
}

// Keys returns the keys in insertion order.
func (d *Dataset) Keys() []string {
	keys := make([]string, len(d.order))
	copy(keys, d.order)
	return keys
}

// SortedKeys returns the keys in lexical order.
func (d *Dataset) SortedKeys() []string {
	keys := d.Keys()
	sort.Strings(keys)
	return keys
}

// Features returns the features in insertion order.
func (d *Dataset) Features() []Feature {
	out := make([]Feature, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, d.byKey[k])
	}
	return out
}

// Select returns a filtered view holding only the given keys, in the
// dataset's own order. Keys that are not present are ignored.
func (d *Dataset) Select(keys []string) *Dataset {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	view := NewDataset(d.name, d.sr)
	for _, k := range d.order {
		if _, ok := want[k]; ok {
			view.Add(d.byKey[k])
		}
	}
	return view
}
