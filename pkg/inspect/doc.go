// Package inspect is the adaptive data-inspection engine behind the watch
// node and the geometry-summary node.
//
// # Overview
//
// A node receives a payload it knows nothing about in advance. Rendering it
// is a fixed pipeline:
//
//  1. [Project] maps the node's [StatusState] onto a badge and decides
//     whether a loading indicator, an error text or the data is visible.
//  2. [Classify] assigns the payload one [Shape]: absent, domain records,
//     property aggregation, plain mapping or scalar.
//  3. [Select] combines the shape with the user's display [Mode] and picks
//     a renderer.
//  4. The renderer builds a presentation-neutral [Block], bounding every
//     sequence with [Truncate].
//  5. A [Painter] turns the block into terminal text.
//
// [Render] runs steps 2 to 4.
//
// # Side Channels
//
// Two interactions run beside the render path:
//
//   - Clipboard export: [Export] serializes the full, untruncated value;
//     [CopyFlag] is the copied/idle state machine that clears itself after
//     [CopyResetDelay].
//   - Resizing: [ResizeController] turns pointer drags into bounded
//     [VisualState] updates written back through a [NodeUpdater]. Each
//     drag is a [ResizeHandle] owning the pointer subscriptions until
//     [ResizeHandle.End].
//
// # Limitations
//
// Sequences are classified by their first element only. A sequence whose
// first element is not a domain record is rendered as a plain mapping even
// if later elements are records, and vice versa. This keeps classification
// O(1) for large payloads.
//
// # Concurrency
//
// Classification, selection, rendering and painting are pure and safe for
// concurrent use. [ResizeController] and [CopyFlag] are meant to be driven
// from a single event loop.
package inspect
