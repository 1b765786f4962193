package analyzer

import (
	"context"

	"tokenwatch/internal/domain"
	"tokenwatch/internal/holders"
)

// stakePrefixLen is the shared-prefix length used to group free
// recipients into insider networks. Stake addresses funded by the same
// wallet software in bulk tend to share a long common prefix.
const stakePrefixLen = 12

// goldFindings runs the gold-standard enrichments: holders who received
// supply without a recorded buy, and networks of such recipients sharing
// a stake prefix. Both are best-effort; missing trade data yields nil.
func (a *Analyzer) goldFindings(ctx context.Context, unit string, holderAnalysis *holders.Analysis) *domain.GoldFindings {
	if holderAnalysis == nil || len(holderAnalysis.Holders) == 0 {
		return nil
	}

	trades := a.gw.Trades(ctx, unit)
	if trades == nil {
		return nil
	}

	bought := make(map[string]struct{})
	for _, t := range trades {
		if t.Action == domain.TradeBuy {
			bought[t.StakeAddress] = struct{}{}
		}
	}

	findings := &domain.GoldFindings{}
	for _, h := range holderAnalysis.Holders {
		if _, ok := bought[h.StakeAddress]; ok {
			continue
		}
		findings.FreeRecipients = append(findings.FreeRecipients, &domain.FreeRecipient{
			StakeAddress: h.StakeAddress,
			Quantity:     h.Quantity,
			Percentage:   h.Percentage,
		})
	}

	findings.InsiderNetworks = groupByPrefix(findings.FreeRecipients)
	return findings
}

// groupByPrefix clusters free recipients by stake-address prefix. Only
// groups with more than one member are networks.
func groupByPrefix(recipients []*domain.FreeRecipient) []*domain.InsiderNetwork {
	byPrefix := make(map[string]*domain.InsiderNetwork)
	var order []string

	for _, r := range recipients {
		if len(r.StakeAddress) < stakePrefixLen {
			continue
		}
		prefix := r.StakeAddress[:stakePrefixLen]
		n, ok := byPrefix[prefix]
		if !ok {
			n = &domain.InsiderNetwork{Prefix: prefix}
			byPrefix[prefix] = n
			order = append(order, prefix)
		}
		n.Members = append(n.Members, r.StakeAddress)
		n.CombinedPct += r.Percentage
	}

	var networks []*domain.InsiderNetwork
	for _, prefix := range order {
		if n := byPrefix[prefix]; len(n.Members) > 1 {
			networks = append(networks, n)
		}
	}
	return networks
}
