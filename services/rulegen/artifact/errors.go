// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package artifact

import "errors"

var (
	// ErrArtifactCollision is returned when two logical artifacts
	// resolve to one output path outside an intentional merge.
	ErrArtifactCollision = errors.New("artifact paths collide")

	// ErrNoGlobalPath is returned when every fallback candidate for a
	// cross-file artifact sorts before a per-file artifact it would
	// need to reference.
	ErrNoGlobalPath = errors.New("cannot determine a valid GLOBAL output file")
)
