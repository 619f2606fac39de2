package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/PaesslerAG/jsonpath"
	"github.com/itchyny/gojq"

	clierrors "github.com/sariola/notion2prompt/internal/errors"
)

// WriteJSON marshals data as indented JSON after applying the optional
// filters: a jq program and a JSONPath expression. The jq filter runs
// first, JSONPath second.
func WriteJSON(w io.Writer, data any, jqQuery, jsonPath string) error {
	normalized, err := normalize(data)
	if err != nil {
		return err
	}

	if jqQuery != "" {
		normalized, err = applyJQ(normalized, jqQuery)
		if err != nil {
			return err
		}
	}
	if jsonPath != "" {
		normalized, err = applyJSONPath(normalized, jsonPath)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(normalized)
}

// normalize round-trips data through JSON so filters see plain
// maps and slices rather than typed structs.
func normalize(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, fmt.Errorf("failed to normalize output: %w", err)
	}
	return normalized, nil
}

func applyJQ(data any, query string) (any, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, clierrors.WrapUserError(err, "invalid --jq query", "Example: --jq '.blocks[].type'")
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, clierrors.WrapUserError(err, "invalid --jq query", "Example: --jq '.blocks[].type'")
	}

	var results []any
	iter := code.Run(data)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, clierrors.WrapUserError(err, "jq query failed", "")
		}
		results = append(results, v)
	}

	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

func applyJSONPath(data any, path string) (any, error) {
	value, err := jsonpath.Get(path, data)
	if err != nil {
		return nil, clierrors.WrapUserError(err, "invalid --jsonpath value", "Example: --jsonpath '$.blocks[0].id'")
	}
	return value, nil
}
