// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface defines the collaborator interfaces between the atlas
// allocator and the host renderer: backing surfaces, the provider that
// creates them and blits pixels onto them, and the image descriptor for
// source sprites.
//
// The allocator never touches pixels itself. It asks a Provider to
// create surfaces, blit sprites at the rectangles it computed, and copy
// regions between surfaces during a grow-and-repack. Backends register
// themselves with the provider registry; see backend/soft for a pure
// CPU implementation and backend/wgpu for the GPU one.
package surface
