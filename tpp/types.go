package tpp

import "errors"

// ErrBadInstance is returned when an instance file cannot be parsed
// (missing section lines, malformed numbers, out-of-range indices).
var ErrBadInstance = errors.New("tpp: malformed instance file")

// ErrUnknownSection is returned when the instance file contains a keyword
// the reader does not recognize.
var ErrUnknownSection = errors.New("tpp: unknown section keyword")

// ErrUnsupportedFormat is returned for edge weight types or formats other
// than the supported EUC_2D / EXPLICIT + UPPER_ROW combinations.
var ErrUnsupportedFormat = errors.New("tpp: unsupported instance format")

// Offer describes a single product offer at a market: a non-negative unit
// price and a positive available quantity.
type Offer struct {
	Price     int
	Quantity  int
	ProductID uint16
	MarketID  uint16
}

// hasLowerPrice orders offers by price only; used when sorting a market's
// offer list after load.
func hasLowerPrice(a, b Offer) bool {
	return a.Price < b.Price
}

// isBetterOffer orders offers the way a purchaser prefers them: lower price
// first, and on equal price the larger quantity.
func isBetterOffer(a, b Offer) bool {
	return a.Price < b.Price ||
		(a.Price == b.Price && a.Quantity > b.Quantity)
}

// sameOffer reports offer identity: the (market, product) pair.
// Price and quantity are attributes, not identity.
func sameOffer(a, b Offer) bool {
	return a.MarketID == b.MarketID && a.ProductID == b.ProductID
}
