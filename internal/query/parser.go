package query

import (
	"math"
	"strconv"
	"strings"
)

// Recognized URL parameters.
const (
	ParamWhere  = "where"
	ParamSort   = "sort"
	ParamSelect = "select"
	ParamSkip   = "skip"
	ParamLimit  = "limit"
	ParamCount  = "count"
)

// Parse decodes the raw URL parameters into a Request. A malformed where, sort
// or select document fails the whole request; skip, limit and count never fail.
func Parse(params map[string]string) (Request, error) {
	var req Request

	if raw := params[ParamWhere]; raw != "" {
		members, err := decodeObject([]byte(raw))
		if err != nil {
			return Request{}, syntaxError(ParamWhere, err)
		}
		filter, err := parseFilter(members, 0)
		if err != nil {
			return Request{}, syntaxError(ParamWhere, err)
		}
		if !filter.empty() {
			req.Filter = filter
		}
	}

	if raw := params[ParamSort]; raw != "" {
		members, err := decodeObject([]byte(raw))
		if err != nil {
			return Request{}, syntaxError(ParamSort, err)
		}
		if req.Sort, err = parseSort(members); err != nil {
			return Request{}, syntaxError(ParamSort, err)
		}
	}

	if raw := params[ParamSelect]; raw != "" {
		members, err := decodeObject([]byte(raw))
		if err != nil {
			return Request{}, syntaxError(ParamSelect, err)
		}
		if req.Projection, err = parseProjection(members); err != nil {
			return Request{}, syntaxError(ParamSelect, err)
		}
	}

	if raw, ok := params[ParamSkip]; ok {
		if n, ok := leadingInt(raw); ok && n > 0 {
			req.Skip = n
		}
	}

	if raw, ok := params[ParamLimit]; ok {
		if n, ok := leadingInt(raw); ok {
			req.Limit = &n
		}
	}

	req.Count = params[ParamCount] == "true"
	return req, nil
}

// leadingInt parses a base-10 integer prefix the way browsers' parseInt does:
// leading whitespace and sign are allowed and parsing stops at the first
// non-digit. It fails only when no digit is found.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		n = math.MaxInt
	}
	if neg {
		n = -n
	}
	return n, true
}
