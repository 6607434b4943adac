/*
aggregate.go - Receipt grouping per aggregation mode

PURPOSE:
  Turns a flat list of one participant's receipts within one category into
  tier-matched SalesFacts, according to the category's aggregation mode.

TWO STRATEGIES:
  PerItem:
    Group by product name. Each distinct product gets its own fact with
    quantity and revenue scoped to that product alone, tier-matched on the
    per-product quantity. Products never help each other over a threshold.

  PerCategory:
    Exactly one fact for the whole category: quantity is the receipt count,
    revenue the sum, tier-matched on the combined quantity. The distinct
    product names are recorded for the audit trail since the bonus is not
    attributable to any single product.

CONTRACT:
  The orchestrator only calls Aggregate for categories with at least one
  receipt. An unknown mode is a ConfigurationError, never an empty result -
  an empty result would silently mask misconfiguration.
*/
package bonus

// Aggregate groups receipts into SalesFacts per the category's mode and
// tier-matches each fact against the table.
func Aggregate(receipts []Receipt, mode AggregationMode, table *TierTable) ([]SalesFact, error) {
	switch mode {
	case PerItem:
		return aggregatePerItem(receipts, table), nil
	case PerCategory:
		return []SalesFact{aggregatePerCategory(receipts, table)}, nil
	default:
		return nil, &ConfigurationError{
			Problems: []string{"unsupported aggregation mode " + mode.String()},
		}
	}
}

func aggregatePerItem(receipts []Receipt, table *TierTable) []SalesFact {
	// Group by product name, preserving first-seen order for stable output.
	index := make(map[string]int)
	var facts []SalesFact

	for _, r := range receipts {
		i, seen := index[r.ProductName]
		if !seen {
			i = len(facts)
			index[r.ProductName] = i
			facts = append(facts, SalesFact{ProductName: r.ProductName})
		}
		facts[i].Quantity++
		facts[i].Revenue = facts[i].Revenue.Add(r.Price)
	}

	for i := range facts {
		facts[i].MatchedTier = table.Resolve(facts[i].Quantity)
	}
	return facts
}

func aggregatePerCategory(receipts []Receipt, table *TierTable) SalesFact {
	fact := SalesFact{}
	seen := make(map[string]bool)

	for _, r := range receipts {
		fact.Quantity++
		fact.Revenue = fact.Revenue.Add(r.Price)
		if !seen[r.ProductName] {
			seen[r.ProductName] = true
			fact.ConstituentProducts = append(fact.ConstituentProducts, r.ProductName)
		}
	}

	fact.MatchedTier = table.Resolve(fact.Quantity)
	return fact
}
