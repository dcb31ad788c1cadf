package service

// RequiredMintAmount is the cost of one mint in microAlgos (0.101 Algo).
const RequiredMintAmount uint64 = 101_000

// SponsorContribution returns what the fee pool pays towards a mint given
// the wallet's balance and minimum balance in microAlgos. A wallet with more
// than RequiredMintAmount of headroom gets exactly RequiredMintAmount;
// otherwise the fee pool pays |headroom - RequiredMintAmount|.
//
// The absolute value means a deeply underfunded wallet receives more than
// RequiredMintAmount. Product has not confirmed whether that is intended.
func SponsorContribution(balance, minBalance uint64) uint64 {
	delta := int64(balance) - int64(minBalance) // #nosec G115 - total Algo supply fits in int64
	required := int64(RequiredMintAmount)       // #nosec G115 - constant

	if delta > required {
		return RequiredMintAmount
	}

	shortfall := delta - required
	if shortfall < 0 {
		shortfall = -shortfall
	}
	return uint64(shortfall) // #nosec G115 - non-negative
}
