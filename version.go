// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package matbench

import "runtime/debug"

const modulePath = "github.com/LynnColeArt/matbench"

// develVersion is reported when no module version is recorded, as in
// `go run` or a test binary.
const develVersion = "devel"

// Version returns the matbench module version recorded in the running
// binary, whether matbench is the main module or a dependency.
func Version() string {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return develVersion
	}
	return moduleVersion(b)
}

func moduleVersion(b *debug.BuildInfo) string {
	m := &b.Main
	if m.Path != modulePath {
		m = nil
		for _, dep := range b.Deps {
			if dep.Path == modulePath {
				m = dep
				break
			}
		}
	}
	if m == nil {
		return develVersion
	}
	if m.Replace != nil {
		m = m.Replace
	}
	if m.Version == "" || m.Version == "(devel)" {
		return develVersion
	}
	return m.Version
}
