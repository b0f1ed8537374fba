package dispatch

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// bind resolves the statement arguments of op, in placeholder order.
func bind(op Operation, declared map[string]any, userID int64) ([]any, error) {
	args := make([]any, len(op.Params))
	for i, p := range op.Params {
		if p.Source == SourceIdentity {
			if userID <= 0 {
				return nil, fmt.Errorf("parameter %q requires an authenticated user", p.Name)
			}
			args[i] = userID
			continue
		}

		raw, ok := declared[p.Name]
		if !ok || raw == nil {
			if p.Optional {
				args[i] = nil
				continue
			}
			return nil, fmt.Errorf("missing parameter %q", p.Name)
		}

		v, err := coerce(p.Kind, raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		args[i] = v
	}
	return args, nil
}

// coerce converts a decoded JSON value (or a query-string value) to the
// Go type bound for kind. JSON bodies are decoded with UseNumber, so
// numbers usually arrive as json.Number.
func coerce(kind Kind, raw any) (any, error) {
	switch kind {
	case KindInt:
		return toInt(raw)
	case KindText:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("want %s, got %T", kind, raw)
		}
		return s, nil
	case KindDecimal:
		return toDecimal(raw)
	case KindTextList:
		return toTextList(raw)
	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
}

func toInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("want integer, got %q", v.String())
		}
		return n, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("want integer, got %q", v)
		}
		return n, nil
	case float64:
		if v != math.Trunc(v) || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("want integer, got %v", v)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("want integer, got %T", raw)
	}
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case json.Number:
		return parseDecimal(v.String())
	case string:
		return parseDecimal(strings.TrimSpace(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("want decimal, got %T", raw)
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("want decimal, got %q", s)
	}
	return d, nil
}

func toTextList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("want text list, item %d is %T", i, item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want text list, got %T", raw)
	}
}
