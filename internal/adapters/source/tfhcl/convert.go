package tfhcl

import (
	"fmt"
	"math"
	"math/big"

	jsoniter "github.com/json-iterator/go"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// convertCtyValue turns a known cty value into plain Go types. Numbers become
// int64 when exact, float64 otherwise. Collections fall back to a JSON
// round-trip, which yields the same map/slice shapes the rest of the pipeline
// expects.
func convertCtyValue(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}

	if val.Type().Equals(cty.Number) {
		bf := val.AsBigFloat()
		if i64, acc := bf.Int64(); acc == big.Exact {
			return i64, nil
		}
		f64, _ := bf.Float64()
		if !math.IsInf(f64, 0) {
			return f64, nil
		}
		return bf.Text('g', -1), nil
	}

	var goVal any
	if err := gocty.FromCtyValue(val, &goVal); err == nil {
		return goVal, nil
	}

	jsonBytes, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return nil, fmt.Errorf("marshaling %s value to intermediary JSON: %w", val.Type().FriendlyName(), err)
	}
	var out any
	if err := json.Unmarshal(jsonBytes, &out); err != nil {
		return nil, fmt.Errorf("unmarshaling intermediary JSON for %s value: %w", val.Type().FriendlyName(), err)
	}
	return out, nil
}
