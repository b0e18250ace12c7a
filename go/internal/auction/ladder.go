package auction

// NextBid returns the minimum legal next bid. The opening bid is the item's
// base price; increments are 5 below 200 and 10 from 200 upwards.
func NextBid(currentBid, basePrice int) int {
	switch {
	case currentBid == 0:
		return basePrice
	case currentBid < 200:
		return currentBid + 5
	default:
		return currentBid + 10
	}
}
