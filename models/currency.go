package models

// Currency is one of the three wallet currencies.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyINR Currency = "INR"
	CurrencyNGN Currency = "NGN"
)
