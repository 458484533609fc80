// Package payload models the data values that flow into a node from an
// upstream computation.
//
// # Value Tree
//
// Payload values are loosely typed. Every decoded or normalized value is one
// of:
//
//   - nil (absent)
//   - bool, string
//   - int64 or float64 (JSON numbers; YAML may also produce int)
//   - []any (sequence)
//   - *Object (mapping with insertion-ordered keys)
//
// [Object] keeps keys in their natural order so that tables enumerate
// properties the way the upstream producer wrote them, and so that
// [Serialize] is stable across calls.
//
// # Input
//
// [Input] is the tagged payload a node receives: a [Kind] set by the
// producer, the value, and an optional element count. Producers that cannot
// tag their output use [KindUnknown]; consumers then fall back to
// structural classification.
//
// # Loading
//
// [Load] reads a payload file. JSON files are decoded with an order-preserving
// token decoder, YAML files through yaml.v3 nodes. A file holding an
// envelope ({"type": "array", "value": [...], "count": 3}) is taken as-is; any
// other document is wrapped with an inferred kind.
//
// # Domain Views
//
// [Record] and [Aggregation] are read-only views over objects that look like
// building-model elements and property aggregation results respectively.
// They never mutate the underlying tree.
package payload
