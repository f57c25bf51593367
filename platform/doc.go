// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package platform adapts a cadview.Bridge to the calling convention of
// host view embeddings.
//
// A host creates one View per embedded viewport through a Factory. View
// methods take and return platform-friendly values: booleans for success,
// negative handles for failed loads, float64 pointer coordinates and
// UTF-8 strings. Failures are reported through GetLastError instead of Go
// errors.
//
// Frames reach the host either by reading GetFrame or by uploading them
// into a host texture with Present:
//
//	view := factory.Create("")
//	view.SetViewportSize(w, h)
//	if view.Render() {
//		_ = view.Present(tex) // tex implements gpucontext.TextureUpdater
//	}
package platform
