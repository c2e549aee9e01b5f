package coin

// Resolve prices amount. The payer always gets the better of the flat base
// rate and the highest active tier the amount qualifies for. A nil rate means
// pricing could not be loaded and falls back to one coin per currency unit.
func Resolve(amount int64, tiers []PricingTier, rate *BaseRate) Resolution {
	if rate == nil {
		return Resolution{Coins: amount, Source: SourceBaseRate, BaseRateUsed: 1}
	}

	base := max(1, max(amount, 0)/1000*rate.CoinsPer1000)

	var best *PricingTier
	for i := range tiers {
		t := &tiers[i]
		if !t.IsActive || amount < t.MinAmount {
			continue
		}
		if best == nil || t.MinAmount > best.MinAmount {
			best = t
		}
	}

	if best != nil && best.CoinsGranted > base {
		id := best.ID
		return Resolution{
			Coins:        best.CoinsGranted,
			Source:       SourceTier,
			TierID:       &id,
			BaseRateUsed: rate.CoinsPer1000,
		}
	}
	return Resolution{Coins: base, Source: SourceBaseRate, BaseRateUsed: rate.CoinsPer1000}
}

// Metadata records how a resolution was reached on the ledger row
func (r Resolution) Metadata() JSONMap {
	m := JSONMap{
		"source":         string(r.Source),
		"base_rate_used": r.BaseRateUsed,
	}
	if r.TierID != nil {
		m["tier_id"] = r.TierID.String()
	}
	return m
}
