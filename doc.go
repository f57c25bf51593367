// Package cadview bridges a host UI and a CAD rendering engine.
//
// # Overview
//
// A Bridge owns the engine lifecycle, the loaded drawing models and one
// Surface per embedded viewport. Hosts drive it with plain calls: start the
// engine with a license, load drawings, size the viewport, feed pointer
// events and render frames that are then read from a lock-free double
// buffer.
//
// # Quick Start
//
//	import "github.com/gogpu/cadview"
//
//	b := cadview.Default()
//	if err := b.Initialize(license); err != nil {
//		log.Fatal(err)
//	}
//	defer b.Shutdown()
//
//	h, err := b.LoadFile(ctx, "plan.dxf")
//	...
//	_, _ = b.OpenSurface("main")
//	_ = b.SetSize("main", 800, 600)
//	_ = b.FitView("main")
//	_ = b.Render(ctx, "main")
//	f, _ := b.GetFrame("main")
//
// # Engines
//
// Engines register themselves with the engine package. The placeholder
// engine, linked in by this package, reads DWG headers and ASCII DXF
// geometry so the bridge works without a vendor SDK. Use WithEngine or
// WithEngineName to choose another.
//
// # Errors
//
// Failing operations return errors that match one of the Err* sentinels
// with errors.Is. The message of the most recent failure is also kept and
// returned by LastError, for hosts that cannot receive Go errors.
//
// # Concurrency
//
// All Bridge methods are safe for concurrent use. Initialize and Shutdown
// wait for in-flight operations. Renders of one surface are serialized;
// different surfaces render in parallel. GetFrame never blocks on a render.
package cadview

// Version is the current version of the library.
const Version = "0.3.0"
