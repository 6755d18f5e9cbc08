package model

// RawFields holds the field values extracted from one page or one
// repeating item, keyed by rule name. Single-valued rules store one
// element; multi-valued rules store every match in document order.
//
// Values are raw: trimming, whitespace collapsing, and URL
// canonicalization happen later, in normalization.
type RawFields map[string][]string

// First returns the first value for key, or "" when the key is absent.
func (f RawFields) First(key string) string {
	if vs := f[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// All returns every value for key. The returned slice is the map's own;
// callers must not mutate it.
func (f RawFields) All(key string) []string {
	return f[key]
}

// Has reports whether key has at least one value.
func (f RawFields) Has(key string) bool {
	return len(f[key]) > 0
}

// Set replaces the values for key. Empty values are dropped so absence
// checks stay meaningful.
func (f RawFields) Set(key string, values ...string) {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		delete(f, key)
		return
	}
	f[key] = out
}
