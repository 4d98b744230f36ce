package models

import (
	"fmt"
	"strings"
)

// Currency selects the currency adapter of a lottery
type Currency string

const (
	CurrencyNative Currency = "native"
	CurrencyToken  Currency = "token"
)

// EntryPolicy decides how a payment is accepted on enter
type EntryPolicy string

const (
	// EntryExact requires payment == ticket price.
	EntryExact EntryPolicy = "exact"
	// EntryFixed pulls exactly the ticket price, the payment argument is ignored.
	EntryFixed EntryPolicy = "fixed"
	// EntryMinimum requires payment >= minimum amount and records what was paid.
	EntryMinimum EntryPolicy = "minimum"
)

// SelectionPolicy decides how a random word maps to a player index
type SelectionPolicy string

const (
	SelectionModulo    SelectionPolicy = "modulo"
	SelectionRejection SelectionPolicy = "rejection"
)

// Variant is a named preset of currency, entry and payout policy
type Variant string

const (
	VariantClassic Variant = "classic"
	VariantEther   Variant = "ether"
	VariantERC20   Variant = "erc20"
	VariantLink    Variant = "link"
)

// LotteryPolicy is the set of per-variant behaviours
type LotteryPolicy struct {
	Currency  Currency        `json:"currency"`
	Entry     EntryPolicy     `json:"entry"`
	Payout    PayoutMode      `json:"payout"`
	Selection SelectionPolicy `json:"selection"`
}

// PolicyForVariant returns the default policy of a named variant
func PolicyForVariant(v Variant) (LotteryPolicy, error) {
	switch Variant(strings.ToLower(string(v))) {
	case VariantClassic:
		return LotteryPolicy{CurrencyNative, EntryExact, PayoutPull, SelectionModulo}, nil
	case VariantEther:
		return LotteryPolicy{CurrencyNative, EntryExact, PayoutLocked, SelectionModulo}, nil
	case VariantERC20:
		return LotteryPolicy{CurrencyToken, EntryFixed, PayoutPull, SelectionModulo}, nil
	case VariantLink:
		return LotteryPolicy{CurrencyToken, EntryMinimum, PayoutImmediate, SelectionModulo}, nil
	default:
		return LotteryPolicy{}, fmt.Errorf("unknown lottery variant %q", v)
	}
}

// Validate checks that every field holds a known value
func (p LotteryPolicy) Validate() error {
	switch p.Currency {
	case CurrencyNative, CurrencyToken:
	default:
		return fmt.Errorf("unknown currency %q", p.Currency)
	}
	switch p.Entry {
	case EntryExact, EntryFixed, EntryMinimum:
	default:
		return fmt.Errorf("unknown entry policy %q", p.Entry)
	}
	switch p.Payout {
	case PayoutImmediate, PayoutPull, PayoutLocked:
	default:
		return fmt.Errorf("unknown payout mode %q", p.Payout)
	}
	switch p.Selection {
	case SelectionModulo, SelectionRejection:
	default:
		return fmt.Errorf("unknown selection policy %q", p.Selection)
	}
	return nil
}
