package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-inner-hits/internal/errors"
	"github.com/gcbaptista/go-inner-hits/internal/tokenizer"
)

func parseError(clause, message string) error {
	return errors.NewQueryParseError(clause, message)
}

func requireField(clause, field string) error {
	if strings.TrimSpace(field) == "" {
		return parseError(clause, "field name is required")
	}
	return nil
}

// Parse decodes a JSON query such as
//
//	{"nested": {"path": "comments", "query": {"match": {"comments.message": "fox"}}}}
//
// An empty or null body parses to MatchAll.
func Parse(raw json.RawMessage) (Query, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return MatchAll{}, nil
	}

	var clause map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &clause); err != nil {
		return nil, parseError("", fmt.Sprintf("query must be an object: %v", err))
	}
	if len(clause) != 1 {
		keys := make([]string, 0, len(clause))
		for k := range clause {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, parseError("", fmt.Sprintf("query must have exactly one clause, got %v", keys))
	}

	for kind, body := range clause {
		switch kind {
		case "match_all":
			return MatchAll{}, nil
		case "match":
			return parseMatch(body)
		case "term":
			return parseTerm(body)
		case "range":
			return parseRange(body)
		case "bool":
			return parseBool(body)
		case "nested":
			return parseNested(body)
		case "has_child":
			return parseHasChild(body)
		default:
			return nil, parseError(kind, "unknown query type")
		}
	}
	return nil, parseError("", "empty query")
}

// singleField unwraps {"<field>": <body>}.
func singleField(clause string, raw json.RawMessage) (string, json.RawMessage, error) {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", nil, parseError(clause, err.Error())
	}
	if len(body) != 1 {
		return "", nil, parseError(clause, "expected exactly one field")
	}
	for field, value := range body {
		return field, value, nil
	}
	return "", nil, parseError(clause, "expected exactly one field")
}

func parseMatch(raw json.RawMessage) (Query, error) {
	field, value, err := singleField("match", raw)
	if err != nil {
		return nil, err
	}

	var text string
	opts := struct {
		Query     interface{}     `json:"query"`
		Operator  string          `json:"operator"`
		Fuzziness json.RawMessage `json:"fuzziness"`
	}{}
	if err := json.Unmarshal(value, &text); err != nil {
		if err := json.Unmarshal(value, &opts); err != nil {
			return nil, parseError("match", err.Error())
		}
		if opts.Query == nil {
			return nil, parseError("match", "[query] is required")
		}
		text = fmt.Sprint(opts.Query)
	}

	operator := strings.ToLower(opts.Operator)
	switch operator {
	case "":
		operator = "or"
	case "or", "and":
	default:
		return nil, parseError("match", fmt.Sprintf("unknown operator [%s]", opts.Operator))
	}

	fuzziness, err := parseFuzziness(opts.Fuzziness)
	if err != nil {
		return nil, err
	}

	return &Match{
		Field:     field,
		Terms:     tokenizer.UniqueTerms(text),
		Operator:  operator,
		Fuzziness: fuzziness,
	}, nil
}

func parseFuzziness(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 || n > 2 {
			return 0, parseError("match", "fuzziness must be 0, 1, 2 or AUTO")
		}
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, parseError("match", "fuzziness must be 0, 1, 2 or AUTO")
	}
	if strings.EqualFold(s, "auto") {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 2 {
		return 0, parseError("match", "fuzziness must be 0, 1, 2 or AUTO")
	}
	return n, nil
}

func parseTerm(raw json.RawMessage) (Query, error) {
	field, value, err := singleField("term", raw)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if err := json.Unmarshal(value, &v); err != nil {
		return nil, parseError("term", err.Error())
	}
	if obj, ok := v.(map[string]interface{}); ok {
		inner, has := obj["value"]
		if !has {
			return nil, parseError("term", "[value] is required")
		}
		v = inner
	}
	return &Term{Field: field, Value: v}, nil
}

func parseRange(raw json.RawMessage) (Query, error) {
	field, value, err := singleField("range", raw)
	if err != nil {
		return nil, err
	}
	var bounds struct {
		GT  interface{} `json:"gt"`
		GTE interface{} `json:"gte"`
		LT  interface{} `json:"lt"`
		LTE interface{} `json:"lte"`
	}
	if err := json.Unmarshal(value, &bounds); err != nil {
		return nil, parseError("range", err.Error())
	}
	return &Range{Field: field, GT: bounds.GT, GTE: bounds.GTE, LT: bounds.LT, LTE: bounds.LTE}, nil
}

func parseBool(raw json.RawMessage) (Query, error) {
	var body struct {
		Must               json.RawMessage `json:"must"`
		Should             json.RawMessage `json:"should"`
		Filter             json.RawMessage `json:"filter"`
		MustNot            json.RawMessage `json:"must_not"`
		MinimumShouldMatch *int            `json:"minimum_should_match"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, parseError("bool", err.Error())
	}
	q := &Bool{MinimumShouldMatch: body.MinimumShouldMatch}
	var err error
	if q.Must, err = parseClauses(body.Must); err != nil {
		return nil, err
	}
	if q.Should, err = parseClauses(body.Should); err != nil {
		return nil, err
	}
	if q.Filter, err = parseClauses(body.Filter); err != nil {
		return nil, err
	}
	if q.MustNot, err = parseClauses(body.MustNot); err != nil {
		return nil, err
	}
	return q, nil
}

// parseClauses accepts a single clause object or an array of them.
func parseClauses(raw json.RawMessage) ([]Query, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var items []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, parseError("bool", err.Error())
		}
	} else {
		items = []json.RawMessage{trimmed}
	}
	clauses := make([]Query, 0, len(items))
	for _, item := range items {
		q, err := Parse(item)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, q)
	}
	return clauses, nil
}

var validScoreModes = map[string]bool{"avg": true, "max": true, "min": true, "sum": true, "none": true}

func parseNested(raw json.RawMessage) (Query, error) {
	var body struct {
		Path      string          `json:"path"`
		Query     json.RawMessage `json:"query"`
		ScoreMode string          `json:"score_mode"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, parseError("nested", err.Error())
	}
	if body.Path == "" {
		return nil, parseError("nested", "[path] is required")
	}
	if body.ScoreMode != "" && !validScoreModes[body.ScoreMode] {
		return nil, parseError("nested", fmt.Sprintf("unknown score_mode [%s]", body.ScoreMode))
	}
	inner, err := Parse(body.Query)
	if err != nil {
		return nil, err
	}
	return &Nested{Path: body.Path, Query: inner, ScoreMode: body.ScoreMode}, nil
}

func parseHasChild(raw json.RawMessage) (Query, error) {
	var body struct {
		Type        string          `json:"type"`
		Query       json.RawMessage `json:"query"`
		ScoreMode   string          `json:"score_mode"`
		MinChildren int             `json:"min_children"`
		MaxChildren int             `json:"max_children"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, parseError("has_child", err.Error())
	}
	if body.Type == "" {
		return nil, parseError("has_child", "[type] is required")
	}
	if body.ScoreMode != "" && !validScoreModes[body.ScoreMode] {
		return nil, parseError("has_child", fmt.Sprintf("unknown score_mode [%s]", body.ScoreMode))
	}
	inner, err := Parse(body.Query)
	if err != nil {
		return nil, err
	}
	return &HasChild{
		Type:        body.Type,
		Query:       inner,
		ScoreMode:   body.ScoreMode,
		MinChildren: body.MinChildren,
		MaxChildren: body.MaxChildren,
	}, nil
}
