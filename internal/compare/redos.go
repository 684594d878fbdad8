package compare

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

// matchesTimeout bounds how long a single matches() evaluation may run
// before it is treated as a regex-denial-of-service attempt and failed
// closed. Patterns are also rejected outright when they contain nested
// quantifiers, a classic catastrophic-backtracking shape.
const matchesTimeout = 200 * time.Millisecond

var (
	compiledCache   = map[string]*regexp.Regexp{}
	compiledCacheMu sync.Mutex

	nestedQuantifier = regexp.MustCompile(`(\([^)]*[+*]\)|\([^)]*\{\d*,?\d*\})[+*]`)
)

func compareMatches(actual, expected any) bool {
	if actual == nil || expected == nil {
		return false
	}
	pattern := stringify(expected)
	re, err := compileGuarded(pattern)
	if err != nil {
		return false
	}

	subject := stringify(actual)
	result := make(chan bool, 1)
	go func() {
		defer func() {
			if recover() != nil {
				result <- false
			}
		}()
		result <- re.MatchString(subject)
	}()

	select {
	case ok := <-result:
		return ok
	case <-time.After(matchesTimeout):
		return false
	}
}

// compileGuarded rejects regex patterns with an obviously catastrophic
// backtracking shape (a quantified group itself quantified) before
// compiling, and caches successful compilations since scenario files
// reuse the same pattern across many rows in a data-driven run.
func compileGuarded(pattern string) (*regexp.Regexp, error) {
	if nestedQuantifier.MatchString(pattern) {
		return nil, fmt.Errorf("compare: pattern %q rejected: nested quantifiers", pattern)
	}
	if strings.Count(pattern, "(") > 20 {
		return nil, fmt.Errorf("compare: pattern %q rejected: too many groups", pattern)
	}

	compiledCacheMu.Lock()
	defer compiledCacheMu.Unlock()
	if re, ok := compiledCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	compiledCache[pattern] = re
	return re, nil
}
