// services/currency.go
package services

import (
	"strings"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/models"

	"github.com/shopspring/decimal"
)

// usdRates is units of each currency per 1 USD.
var usdRates = map[models.Currency]decimal.Decimal{
	models.CurrencyUSD: decimal.NewFromInt(1),
	models.CurrencyINR: decimal.NewFromInt(75),
	models.CurrencyNGN: decimal.NewFromInt(380),
}

// CurrencyConverter converts between wallet currencies using a fixed USD-pegged table.
type CurrencyConverter struct {
	rates map[models.Currency]decimal.Decimal
}

func NewCurrencyConverter() *CurrencyConverter {
	return &CurrencyConverter{rates: usdRates}
}

// ParseCurrency accepts any casing of a supported code.
func ParseCurrency(code string) (models.Currency, error) {
	c := models.Currency(strings.ToUpper(strings.TrimSpace(code)))
	if _, ok := usdRates[c]; !ok {
		return "", apperrors.New(apperrors.KindInvalidCurrency, "unsupported currency %q", code)
	}
	return c, nil
}

func (c *CurrencyConverter) rate(cur models.Currency) (decimal.Decimal, error) {
	r, ok := c.rates[cur]
	if !ok {
		return decimal.Zero, apperrors.New(apperrors.KindInvalidCurrency, "unsupported currency %q", cur)
	}
	return r, nil
}

// Convert normalises amount to USD, scales it to the target currency and rounds the
// result half away from zero to 2 places.
func (c *CurrencyConverter) Convert(amount decimal.Decimal, from, to models.Currency) (decimal.Decimal, error) {
	out, err := c.convertRaw(amount, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return out.Round(2), nil
}

// ConvertMinor converts a whole-unit balance and rounds once, half away from zero, to whole units.
func (c *CurrencyConverter) ConvertMinor(amount int64, from, to models.Currency) (int64, error) {
	out, err := c.convertRaw(decimal.NewFromInt(amount), from, to)
	if err != nil {
		return 0, err
	}
	return out.Round(0).IntPart(), nil
}

// convertRaw is the unrounded conversion shared by Convert and ConvertMinor.
func (c *CurrencyConverter) convertRaw(amount decimal.Decimal, from, to models.Currency) (decimal.Decimal, error) {
	fromRate, err := c.rate(from)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := c.rate(to)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsNegative() {
		return decimal.Zero, apperrors.Validation("amount must not be negative")
	}
	if from == to {
		return amount, nil
	}

	usd := amount
	if from != models.CurrencyUSD {
		usd = amount.Div(fromRate)
	}
	if to == models.CurrencyUSD {
		return usd, nil
	}
	return usd.Mul(toRate), nil
}
