// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package traverse

import "testing"

func TestExcludeMatcher(t *testing.T) {
	root := "/project"

	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{"no patterns", nil, "/project/src/a.ts", false},
		{"glob on filename", []string{"*.test.ts"}, "/project/src/a.test.ts", true},
		{"glob misses other files", []string{"*.test.ts"}, "/project/src/a.ts", false},
		{"directory component anywhere", []string{"generated"}, "/project/src/generated/deep/g.ts", true},
		{"rooted directory pattern", []string{"dist/"}, "/project/dist/bundle.js", true},
		{"path outside root still checked", []string{"vendor"}, "/other/vendor/x.ts", true},
		{"empty patterns are dropped", []string{"", "  "}, "/project/src/a.ts", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewExcludeMatcher(root, tt.patterns)
			if got := m.Matches(tt.path); got != tt.want {
				t.Errorf("Matches(%q) with %v = %v, want %v", tt.path, tt.patterns, got, tt.want)
			}
		})
	}
}
