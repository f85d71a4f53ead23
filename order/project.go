// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package order

import "math"

// clamp projects s onto the box b:
//
//	𝚙𝚛𝚘𝚓 sᵢ = uᵢ    if sᵢ > uᵢ
//	𝚙𝚛𝚘𝚓 sᵢ = lᵢ    if sᵢ < lᵢ
//	𝚙𝚛𝚘𝚓 sᵢ = sᵢ    otherwise
func clamp(s []float64, b []Bound) {
	if len(s) > len(b) {
		panic("bound check error")
	}
	for i, v := range s {
		s[i] = math.Max(b[i].Lower, math.Min(b[i].Upper, v))
	}
}

// projGradNorm computes the infinity norm of the projected gradient.
// A component pushing against an active bound only counts up to the
// distance to that bound:
//
//	𝚙𝚛𝚘𝚓 gᵢ = 𝚖𝚊𝚡(sᵢ - uᵢ, gᵢ) if gᵢ < 0
//	𝚙𝚛𝚘𝚓 gᵢ = 𝚖𝚒𝚗(sᵢ - lᵢ, gᵢ) if gᵢ > 0
func projGradNorm(s, g []float64, b []Bound) float64 {
	if len(s) > len(b) || len(s) > len(g) {
		panic("bound check error")
	}
	norm := zero
	for i, x := range s {
		gi := g[i]
		if gi < zero {
			gi = math.Max(x-b[i].Upper, gi)
		} else {
			gi = math.Min(x-b[i].Lower, gi)
		}
		norm = math.Max(norm, math.Abs(gi))
	}
	return norm
}
