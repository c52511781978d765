// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"path/filepath"
	"strings"
)

// ScoreConfig holds the tunable weights for the path-risk score.
//
// The score estimates how likely a candidate path is to escape the
// project boundary or feed runaway traversal. There is no single correct
// formula; the weights are configuration with conservative defaults
// rather than constants. Raising Threshold admits deeper relative-path
// chains; raising ParentHopWeight penalizes `../` escapes harder.
type ScoreConfig struct {
	// ParentHopWeight is the cost per `..` segment in the raw candidate
	// path. Parent hops are the dominant escape mechanism, so the default
	// weighs them an order of magnitude above plain components.
	ParentHopWeight int `json:"parent_hop_weight" yaml:"parent_hop_weight"`

	// ComponentWeight is the cost per path component, penalizing
	// unbounded component growth from repeated alias expansion.
	ComponentWeight int `json:"component_weight" yaml:"component_weight"`

	// DepthWeight is the cost per level of traversal depth at which the
	// candidate was discovered.
	DepthWeight int `json:"depth_weight" yaml:"depth_weight"`

	// NodeModulesWeight is the flat cost added when the path contains a
	// node_modules component. The classifier short-circuits node_modules
	// paths to External before scoring; the weight keeps the score
	// meaningful for callers that score paths directly.
	NodeModulesWeight int `json:"node_modules_weight" yaml:"node_modules_weight"`

	// Threshold is the score above which a candidate is rejected.
	Threshold int `json:"threshold" yaml:"threshold"`
}

// DefaultScoreConfig returns the conservative default weights: roughly
// eight parent hops, or a very long component chain at depth, push a
// candidate over the threshold.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		ParentHopWeight:   15,
		ComponentWeight:   1,
		DepthWeight:       1,
		NodeModulesWeight: 120,
		Threshold:         120,
	}
}

// PathScore is the computed risk breakdown for one candidate path.
// It is derived per candidate and never stored.
type PathScore struct {
	ParentHops    int
	Components    int
	Depth         int
	InNodeModules bool
	Total         int
}

// Score computes the risk score of a raw (pre-canonical) candidate path
// discovered at the given traversal depth.
//
// The raw path is scored rather than the canonical one: `..` segments are
// exactly what the score exists to count, and canonicalization erases
// them.
func (c ScoreConfig) Score(rawPath string, depth int) PathScore {
	normalized := filepath.ToSlash(rawPath)

	var score PathScore
	score.Depth = depth

	for _, component := range strings.Split(normalized, "/") {
		switch component {
		case "", ".":
			continue
		case "..":
			score.ParentHops++
		case "node_modules":
			score.InNodeModules = true
		}
		score.Components++
	}

	score.Total = score.ParentHops*c.ParentHopWeight +
		score.Components*c.ComponentWeight +
		depth*c.DepthWeight
	if score.InNodeModules {
		score.Total += c.NodeModulesWeight
	}

	return score
}

// Exceeds reports whether the score is over the rejection threshold.
func (c ScoreConfig) Exceeds(score PathScore) bool {
	return score.Total > c.Threshold
}
