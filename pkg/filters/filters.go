package filters

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// minHostnameLength prevents a short hostname from being wrongly recognized
// as a container's short ID.
const minHostnameLength = 6

// Included decides whether a container passes the include/exclude policy.
//
// Matching is prefix first: an entry "foo" matches the ID or any name that
// starts with "foo". An empty include list admits everything. A match in the
// exclude list always wins, even when the container also matches an include
// entry.
//
// Parameters:
//   - id: Container ID.
//   - names: Candidate display names for the container.
//   - include: Include-list of ID/name prefixes, nil or empty to include all.
//   - exclude: Exclude-list of ID/name prefixes, nil or empty to exclude none.
//
// Returns:
//   - bool: True if the container should be collected.
func Included(id string, names []string, include, exclude []string) bool {
	included := len(include) == 0 || nameOrIDMatches(id, names, include)
	excluded := len(exclude) > 0 && nameOrIDMatches(id, names, exclude)

	return included && !excluded
}

// SelfExcluded reports whether a container is the one dockerstats itself is
// running in, identified by the hostname being a prefix of the container ID.
// Hostnames shorter than six characters never match, guarding against short
// hostnames producing false positives.
//
// Parameters:
//   - id: Container ID.
//   - hostname: Current hostname, possibly a shortened container ID; empty
//     disables self-exclusion.
//
// Returns:
//   - bool: True if the container is this process's own container.
func SelfExcluded(id, hostname string) bool {
	return hostname != "" && len(hostname) >= minHostnameLength &&
		strings.HasPrefix(id, hostname)
}

// Describe renders a human-readable description of the configured filter
// policy for startup logging.
//
// Parameters:
//   - include: Include-list of ID/name prefixes.
//   - exclude: Exclude-list of ID/name prefixes.
//   - labels: Runtime-side label filters.
//   - images: Runtime-side image filters.
//
// Returns:
//   - string: Description of the applied filters.
func Describe(include, exclude, labels, images []string) string {
	clauses := make([]string, 0, 4)

	if len(include) > 0 {
		clauses = append(clauses, "named or identified by a prefix of "+quoteJoin(include))
	}

	if len(exclude) > 0 {
		clauses = append(clauses, "not matching "+quoteJoin(exclude))
	}

	if len(labels) > 0 {
		clauses = append(clauses, "labeled "+quoteJoin(labels))
	}

	if len(images) > 0 {
		clauses = append(clauses, "created from "+quoteJoin(images))
	}

	if len(clauses) == 0 {
		return "Watching all containers"
	}

	return "Only watching containers " + strings.Join(clauses, ", ")
}

// nameOrIDMatches reports whether the ID or any name starts with one of the
// configured prefixes.
func nameOrIDMatches(id string, names []string, items []string) bool {
	for _, item := range items {
		if strings.HasPrefix(id, item) {
			return true
		}

		for _, name := range names {
			if strings.HasPrefix(name, item) {
				logrus.WithFields(logrus.Fields{
					"name":   name,
					"prefix": item,
				}).Debug("Container name matched filter prefix")

				return true
			}
		}
	}

	return false
}

// quoteJoin renders a list as `"a" or "b"` for filter descriptions.
func quoteJoin(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, `"`+item+`"`)
	}

	return strings.Join(quoted, " or ")
}
