// Package pkg provides the libraries behind ifcwatch, the inspector for the
// watch and geometry nodes of an IFC extraction pipeline.
//
// # Overview
//
// A watch node receives whatever the previous pipeline step produced: an
// array of IFC element records, an aggregation result, a plain object or a
// scalar. ifcwatch works out what the payload is and shows it in the most
// useful of three views (table, raw JSON, summary). The pkg directory is
// organized into three areas:
//
//  1. [inspect] and [payload] - Domain logic (classification, mode selection,
//     rendering, truncation, clipboard export, resizing, status projection)
//  2. [nodestate], [cache] and [feed] - Infrastructure (persisted node data,
//     rendered-frame caching, the HTTP feed)
//  3. [errors], [format], [clipboard], [observability] and [buildinfo] -
//     Shared helpers
//
// # Architecture
//
// The data flow for one redraw:
//
//	upstream step (file, stdin or PUT /nodes/{id}/input)
//	         ↓
//	    [payload] package (decode and normalize to an Input)
//	         ↓
//	    [inspect] package (classify → select renderer → render → truncate)
//	         ↓
//	    [inspect.Painter] (terminal or plain text)
//
// Node data (display mode, width, height, label) lives in a [nodestate.Store]
// shared by every host, so a mode picked in one terminal shows up in the feed.
//
// # Quick Start
//
//	in, _ := payload.Load("walls.json")
//	mode := inspect.ModeFromNodeData(data)
//	block := inspect.Render(in, mode, inspect.Options{})
//	fmt.Println(inspect.Painter{Width: 80}.Paint(block))
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/inspect/...            # Specific package
//
// [inspect]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/inspect
// [inspect.Painter]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/inspect#Painter
// [payload]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/payload
// [nodestate]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/nodestate
// [nodestate.Store]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/nodestate#Store
// [cache]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/cache
// [feed]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/feed
// [errors]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/errors
// [format]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/format
// [clipboard]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/clipboard
// [observability]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/ifcwatch/pkg/buildinfo
package pkg
