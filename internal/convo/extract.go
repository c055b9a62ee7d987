package convo

import (
	"errors"
	"strconv"
	"strings"
)

var nameFillers = []string{
	"my name is",
	"the name is",
	"customer name is",
	"customer is",
	"name is",
	"it is",
	"it's",
}

var vehicleFillers = []string{
	"vehicle information is",
	"vehicle info is",
	"the vehicle is",
	"vehicle is",
	"it is",
	"it's",
}

var searchFillers = []string{
	"search for",
	"look for",
	"find me",
	"find",
	"product is",
	"i want",
	"i need",
	"add",
}

var affirmatives = []string{
	"yes", "yeah", "yep", "sure", "ok", "okay", "of course", "certainly", "add", "more",
}

var terminals = []string{
	"no", "nope", "done", "finish", "complete", "generate", "create bill",
}

// stripFiller removes the longest matching filler prefix, case-insensitively,
// and trims the remainder. Text with no recognized filler comes back
// unchanged apart from trimming.
func stripFiller(text string, fillers []string) string {
	t := strings.TrimSpace(text)
	lower := strings.ToLower(t)
	best := 0
	for _, f := range fillers {
		if len(f) > best && strings.HasPrefix(lower, f) {
			best = len(f)
		}
	}
	return strings.TrimSpace(t[best:])
}

var (
	errNoOrdinal    = errors.New("no ordinal in transcript")
	errOrdinalRange = errors.New("ordinal out of range")
)

// 1-based values; "first", "1st", "one" and "1" are all the same pick.
var ordinalWords = map[string]int{
	"one": 1, "first": 1, "1st": 1,
	"two": 2, "second": 2, "2nd": 2,
	"three": 3, "third": 3, "3rd": 3,
	"four": 4, "fourth": 4, "4th": 4,
	"five": 5, "fifth": 5, "5th": 5,
}

// parseOrdinal scans the transcript for the first ordinal word or digit
// literal and maps it to a zero-based index bounded by n.
func parseOrdinal(text string, n int) (int, error) {
	if n <= 0 {
		return 0, errNoOrdinal
	}
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,!?")
		v, ok := ordinalWords[tok]
		if !ok {
			iv, err := strconv.Atoi(tok)
			if err != nil {
				continue
			}
			v = iv
		}
		if v < 1 || v > n {
			return 0, errOrdinalRange
		}
		return v - 1, nil
	}
	return 0, errNoOrdinal
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
