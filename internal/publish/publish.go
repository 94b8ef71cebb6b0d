// internal/publish/publish.go
package publish

import "strconv"

// Publisher is the value-publishing contract the engine depends on.
// IMPORTANT: There must be NO other version of this interface anywhere.
//
// name is the attribute key; ch is a 1-based channel or filament index,
// 0 when the attribute is not channel-scoped.
type Publisher interface {
	PublishInt(name string, ch int, v int64) error
	PublishFloat(name string, ch int, v float64) error
	PublishString(name string, ch int, v string) error
	PublishFloatArray(name string, ch int, values []float32, count int) error
}

// Key builds the canonical attribute key used by sinks and the cache.
func Key(name string, ch int) string {
	if ch <= 0 {
		return name
	}
	return name + "/ch" + strconv.Itoa(ch)
}
