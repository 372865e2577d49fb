package analysis

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/cache"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/source"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/stats"
)

// Auction status from the time window.
const (
	AuctionStatusPending = "Pending"
	AuctionStatusActive  = "Active"
	AuctionStatusEnded   = "Ended"
	AuctionStatusUnknown = "Unknown"
)

// maxBidderProfiles caps the dependent bidder lookups regardless of the
// caller's limit.
const maxBidderProfiles = 10

// Bid is one bid in an auction. Amount is a decimal string in integer
// units; bids never carry fractional values.
type Bid struct {
	Bidder    string `json:"bidder"`
	Amount    string `json:"amount"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// BidderSummary is the shallow profile fetched per distinct bidder.
type BidderSummary struct {
	Address string `json:"address"`
	Balance string `json:"balance,omitempty"`
}

// AuctionProfile is the composite view of one auction. The auction detail
// is mandatory; bids, the winning bid, and bidder summaries are
// enrichment. Bid statistics use exact integer arithmetic.
type AuctionProfile struct {
	AuctionID  string            `json:"auctionId"`
	Status     string            `json:"status"`
	Item       string            `json:"item,omitempty"`
	Seller     string            `json:"seller,omitempty"`
	StartTime  *time.Time        `json:"startTime,omitempty"`
	EndTime    *time.Time        `json:"endTime,omitempty"`
	Bids       []Bid             `json:"bids,omitempty"`
	BidStats   *stats.BigSummary `json:"bidStats,omitempty"`
	WinningBid *Bid              `json:"winningBid,omitempty"`
	Bidders    []BidderSummary   `json:"bidders,omitempty"`
	Diagnostics
}

type auctionPayload struct {
	ID        string `json:"id"`
	Item      string `json:"item"`
	Seller    string `json:"seller"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

// AuctionProfile builds the composite profile for auctionID, with up to
// limit (max 10) bidder sub-profiles fetched as dependent follow-ups.
func (a *Analyzer) AuctionProfile(ctx context.Context, auctionID string, limit int) (profile *AuctionProfile, err error) {
	auctionID = strings.TrimSpace(auctionID)
	if auctionID == "" {
		return nil, fmt.Errorf("auction id is required")
	}
	limit = normalizeLimit(limit)
	if limit > maxBidderProfiles {
		limit = maxBidderProfiles
	}

	logger, start := a.begin("auctionProfile")
	key := fmt.Sprintf("auctionProfile:%s:%d", auctionID, limit)

	if cached, hit := lookupCached[*AuctionProfile](ctx, a, cache.CategoryAuctions, key); hit {
		logger.Debug().Str("auction", auctionID).Msg("serving cached profile")
		return cached, nil
	}

	profile = &AuctionProfile{
		AuctionID:   auctionID,
		Status:      AuctionStatusUnknown,
		Diagnostics: newDiagnostics(),
	}
	defer a.finish("auctionProfile", logger, start, &profile.Diagnostics)
	defer guard(&profile.Diagnostics)

	idParams := map[string]any{"id": auctionID}
	outcomes := source.RunCalls(ctx, []source.Call{
		{Name: "auction detail", Source: a.indexer, Method: "auction", Params: idParams, Required: true},
		{Name: "bids", Source: a.indexer, Method: "auctionBids", Params: idParams},
		{Name: "winning bid", Source: a.indexer, Method: "auctionWinningBid", Params: idParams},
	})
	a.recordOutcomes(&profile.Diagnostics, outcomes)

	for _, o := range outcomes {
		if !o.OK {
			continue
		}
		switch o.Call.Name {
		case "auction detail":
			var p auctionPayload
			if !decodePayload(o.Value, &p) {
				profile.Warnings = append(profile.Warnings, "auction detail: source returned no data")
				continue
			}
			profile.Item = p.Item
			profile.Seller = p.Seller
			if p.StartTime != 0 {
				st := time.Unix(p.StartTime, 0).UTC()
				profile.StartTime = &st
			}
			if p.EndTime != 0 {
				et := time.Unix(p.EndTime, 0).UTC()
				profile.EndTime = &et
			}
			profile.Status = auctionStatus(profile.StartTime, profile.EndTime, a.now())
		case "bids":
			var bids []Bid
			if decodePayload(o.Value, &bids) {
				profile.Bids = bids
			}
		case "winning bid":
			var bid Bid
			if decodePayload(o.Value, &bid) && bid.Amount != "" {
				profile.WinningBid = &bid
			}
		}
	}

	if summary, ok := summarizeBids(profile.Bids, &profile.Diagnostics); ok {
		profile.BidStats = &summary
	}
	a.fetchBidderSummaries(ctx, profile, limit)

	a.storeCached(ctx, cache.CategoryAuctions, key, profile)
	return profile, nil
}

// auctionStatus derives Pending/Active/Ended from the auction's time
// window. Without a known end time the status stays Unknown.
func auctionStatus(start, end *time.Time, now time.Time) string {
	if end == nil {
		return AuctionStatusUnknown
	}
	if !now.Before(*end) {
		return AuctionStatusEnded
	}
	if start != nil && now.Before(*start) {
		return AuctionStatusPending
	}
	return AuctionStatusActive
}

// summarizeBids aggregates bid amounts with exact integer arithmetic.
// Unparsable amounts are skipped with a warning rather than poisoning the
// aggregate.
func summarizeBids(bids []Bid, d *Diagnostics) (stats.BigSummary, bool) {
	amounts := make([]*big.Int, 0, len(bids))
	for _, bid := range bids {
		v, ok := new(big.Int).SetString(bid.Amount, 10)
		if !ok {
			d.Warnings = append(d.Warnings,
				fmt.Sprintf("bids: unparsable amount %q from %s", bid.Amount, bid.Bidder))
			continue
		}
		amounts = append(amounts, v)
	}
	return stats.SummarizeBig(amounts)
}

// fetchBidderSummaries issues one dependent balance lookup per distinct
// bidder, up to limit. Failures are warnings: bidder profiles only enrich
// the result.
func (a *Analyzer) fetchBidderSummaries(ctx context.Context, profile *AuctionProfile, limit int) {
	seen := make(map[string]bool)
	var bidders []string
	for _, bid := range profile.Bids {
		if bid.Bidder == "" || seen[bid.Bidder] {
			continue
		}
		seen[bid.Bidder] = true
		bidders = append(bidders, bid.Bidder)
		if len(bidders) == limit {
			break
		}
	}
	if len(bidders) == 0 {
		return
	}

	calls := make([]source.Call, 0, len(bidders))
	for _, bidder := range bidders {
		calls = append(calls, source.Call{
			Name:   "bidder " + bidder,
			Source: a.rpc,
			Method: "getBalance",
			Params: map[string]any{"address": bidder},
		})
	}
	outcomes := source.RunCalls(ctx, calls)
	a.recordOutcomes(&profile.Diagnostics, outcomes)

	for i, o := range outcomes {
		summary := BidderSummary{Address: bidders[i]}
		if o.OK {
			var p balancePayload
			if decodePayload(o.Value, &p) {
				summary.Balance = p.Balance
			}
		}
		profile.Bidders = append(profile.Bidders, summary)
	}
}
