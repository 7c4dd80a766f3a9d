package postgres

import (
	"regexp"
	"strconv"
	"testing"
)

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

func bindCount(q string) int {
	max := 0
	for _, m := range placeholderRe.FindAllStringSubmatch(q, -1) {
		n, _ := strconv.Atoi(m[1])
		if n > max {
			max = n
		}
	}
	return max
}

// The consume path hands each query a fixed argument list; a placeholder
// drifting out of step with it makes postgres reject the Bind and turns every
// classified failure into a transport error.
func TestSessionQueryBindCounts(t *testing.T) {
	cases := []struct {
		name string
		q    string
		args int
	}{
		{"consumeByID", consumeByIDQuery, 4},
		{"consumeByCode", consumeByCodeQuery, 3},
		{"classifyByID", classifyByIDQuery, 2},
		{"classifyByCode", classifyByCodeQuery, 2},
	}
	for _, c := range cases {
		if got := bindCount(c.q); got != c.args {
			t.Errorf("%s: query binds %d parameters, call passes %d", c.name, got, c.args)
		}
	}
}

// Both consume predicates must scope by kind so one flow can never consume
// another flow's session, and the classify queries must re-read under the
// same scope.
func TestSessionQueriesScopeByKind(t *testing.T) {
	for name, q := range map[string]string{
		"consumeByID":    consumeByIDQuery,
		"consumeByCode":  consumeByCodeQuery,
		"classifyByID":   classifyByIDQuery,
		"classifyByCode": classifyByCodeQuery,
	} {
		if !regexp.MustCompile(`kind\s*=\s*\$\d+`).MatchString(q) {
			t.Errorf("%s: query does not filter on kind", name)
		}
	}
}
