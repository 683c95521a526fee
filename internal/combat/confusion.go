package combat

// Confusion returns the noise added to an amount at the given sanity.
// At or above the threshold it is always 0; below it, a fresh uniform draw
// from [-r, r] where r widens as sanity falls.
func Confusion(sanity int, rules Rules, rng Rand) int {
	if sanity >= rules.ConfusionThreshold {
		return 0
	}
	r := confusionRange(sanity, rules)
	return rng.Intn(2*r+1) - r
}

func confusionRange(sanity int, rules Rules) int {
	step := max(rules.ConfusionStep, 1)
	return rules.ConfusionBase + (rules.ConfusionThreshold-max(sanity, 0))/step
}

// confused applies a fresh confusion sample to amount and floors it at zero.
func confused(amount, sanity int, rules Rules, rng Rand) int {
	return max(0, amount+Confusion(sanity, rules, rng))
}
