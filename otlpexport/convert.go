package otlpexport

import "encoding/json"

// int64JSONFields lists the message fields whose protobuf type is a
// 64-bit integer (int64/uint64/fixed64) and which therefore render as
// JSON strings under protojson's default mapping, but which this
// exporter's JSON body must render as JSON numbers to match the
// canonical OTLP/JSON encoding collectors expect.
var int64JSONFields = map[string]bool{
	"startTimeUnixNano":    true,
	"endTimeUnixNano":      true,
	"timeUnixNano":         true,
	"observedTimeUnixNano": true,
}

// fixInt64JSONFields rewrites protojson's string-encoded 64-bit integer
// fields named in int64JSONFields into JSON numbers, recursing through
// the whole document. protojson has no option to do this itself: the
// protobuf JSON mapping specifies 64-bit integers as strings precisely
// because not every JSON consumer can represent a full 64-bit integer
// as a number without precision loss, but this module's OTLP collector
// target expects numbers for these fields.
func fixInt64JSONFields(data []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	fixed := fixValue(doc)

	return json.Marshal(fixed)
}

func fixValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			if s, ok := child.(string); ok && int64JSONFields[k] {
				var n json.Number = json.Number(s)
				if _, err := n.Float64(); err == nil {
					val[k] = n
					continue
				}
			}
			val[k] = fixValue(child)
		}
		return val
	case []any:
		for i, child := range val {
			val[i] = fixValue(child)
		}
		return val
	default:
		return v
	}
}
