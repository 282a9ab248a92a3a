package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SplitElementPath splits an array element path such as
// "activities[2].level" into its array path, index and field within the
// element. Paths without an index report ok=false.
func SplitElementPath(path string) (array string, index int, field string, ok bool) {
	open := strings.IndexByte(path, '[')
	if open <= 0 {
		return "", 0, "", false
	}
	closing := strings.IndexByte(path[open:], ']')
	if closing < 0 {
		return "", 0, "", false
	}
	closing += open

	idx, err := strconv.Atoi(path[open+1 : closing])
	if err != nil || idx < 0 {
		return "", 0, "", false
	}

	rest := path[closing+1:]
	switch {
	case rest == "":
	case strings.HasPrefix(rest, "."):
		rest = rest[1:]
		if rest == "" {
			return "", 0, "", false
		}
	default:
		return "", 0, "", false
	}
	return path[:open], idx, rest, true
}

// ElementPath builds the path of field inside the element at index.
// An empty field addresses the element itself.
func ElementPath(array string, index int, field string) string {
	p := array + "[" + strconv.Itoa(index) + "]"
	if field == "" {
		return p
	}
	return p + "." + field
}

// validateFieldPath checks the syntax of a path declared in a schema.
// Declared paths are dotted names; indices only appear at runtime.
func validateFieldPath(path string) error {
	if path == "" {
		return errors.New("empty field path")
	}
	if strings.ContainsAny(path, "[]") {
		return fmt.Errorf("field path %q must not contain an index", path)
	}
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return fmt.Errorf("field path %q has an empty segment", path)
		}
	}
	return nil
}
