package access

import (
	"fmt"
	"strconv"
	"strings"
)

// AllowList authorizes callers by numeric user id.
type AllowList struct {
	ids map[int64]struct{}
}

func NewAllowList(ids ...int64) *AllowList {
	l := &AllowList{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		l.ids[id] = struct{}{}
	}
	return l
}

// ParseAllowList reads a comma separated list such as "123456789, 987654321".
// Blank entries are skipped.
func ParseAllowList(raw string) (*AllowList, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return NewAllowList(ids...), nil
}

func (l *AllowList) IsAuthorized(id int64) bool {
	if l == nil {
		return false
	}
	_, ok := l.ids[id]
	return ok
}

// IsAuthorizedString accepts ids coming from headers or flags.
func (l *AllowList) IsAuthorizedString(id string) bool {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return false
	}
	return l.IsAuthorized(n)
}

func (l *AllowList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.ids)
}
