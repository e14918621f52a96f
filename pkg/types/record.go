package types

import "maps"

// Record is a single normalized metric: an absolute counter sample with a
// name, a value, and a set of tags. Tags always include at least
// container_id, container_name, and image_name.
type Record struct {
	Name  string            `json:"name"`
	Value float64           `json:"value"`
	Tags  map[string]string `json:"tags"`
}

// WithTag returns a copy of the record with one additional tag set.
//
// Parameters:
//   - key: Tag name to set.
//   - value: Tag value.
//
// Returns:
//   - Record: Copy of the record carrying the extra tag.
func (r Record) WithTag(key, value string) Record {
	tags := make(map[string]string, len(r.Tags)+1)
	maps.Copy(tags, r.Tags)
	tags[key] = value
	r.Tags = tags

	return r
}
