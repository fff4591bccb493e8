package bandit

// #region catalog
// Catalog returns the built-in arm configurations. The set is fixed at
// deployment time; deployments needing a different shape pass their own
// slice to the selector.
func Catalog() []Arm {
	return []Arm{
		// Current default blend.
		NewArm("balanced", 0.45, 0.25, 0.20, 0.10, 0.4, 0.7, 0.95),

		// Lean on meaning.
		NewArm("semantic_heavy", 0.60, 0.15, 0.15, 0.10, 0.4, 0.7, 0.95),

		// Use only the best-rated examples.
		NewArm("quality_focused", 0.35, 0.20, 0.35, 0.10, 0.3, 0.6, 0.85),

		// Prioritize recent material.
		NewArm("fresh_focused", 0.40, 0.20, 0.15, 0.25, 0.5, 0.8, 1.0),

		// Lower temperatures.
		NewArm("conservative", 0.45, 0.25, 0.20, 0.10, 0.3, 0.5, 0.7),

		// Higher temperatures.
		NewArm("creative", 0.45, 0.25, 0.20, 0.10, 0.6, 0.9, 1.2),

		// Traditional keyword matching.
		NewArm("text_heavy", 0.25, 0.45, 0.20, 0.10, 0.4, 0.7, 0.95),
	}
}

// #endregion catalog
