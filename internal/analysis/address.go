package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/cache"
	"github.com/aaronbassett/midnight-summit-hackathon-2025-sub001/internal/source"
)

// Address classification from code presence.
const (
	AddressTypeEOA      = "EOA"
	AddressTypeContract = "Contract"
	AddressTypeUnknown  = "Unknown"
)

// AddressProfile is the composite view of one address. Mandatory fields
// (balance, nonce, type) are best-effort; enrichment fields are omitted
// when their source failed, with a warning recorded.
type AddressProfile struct {
	Address          string          `json:"address"`
	AddressType      string          `json:"addressType"`
	Balance          string          `json:"balance,omitempty"`
	Nonce            *uint64         `json:"nonce,omitempty"`
	TransactionCount *int            `json:"transactionCount,omitempty"`
	Transactions     []TxRecord      `json:"transactions,omitempty"`
	Logs             []LogRecord     `json:"logs,omitempty"`
	Bridge           *BridgeActivity `json:"bridgeActivity,omitempty"`
	ContractVerified *bool           `json:"contractVerified,omitempty"`
	ContractSource   string          `json:"contractSource,omitempty"`
	Diagnostics
}

// BridgeActivity summarizes cross-network bridge usage for an address.
type BridgeActivity struct {
	Deposits    int    `json:"deposits"`
	Withdrawals int    `json:"withdrawals"`
	TotalVolume string `json:"totalVolume,omitempty"`
}

type balancePayload struct {
	Balance string `json:"balance"`
}

type noncePayload struct {
	Nonce uint64 `json:"nonce"`
}

type codePayload struct {
	Code string `json:"code"`
}

type txCountPayload struct {
	Count int `json:"count"`
}

type contractSourcePayload struct {
	Source   string `json:"source"`
	Verified bool   `json:"verified"`
}

// AddressProfile builds the composite profile for address. Balance, nonce
// and code are mandatory; history, logs and bridge activity are
// enrichment. When code is present, a dependent call fetches the verified
// contract source.
func (a *Analyzer) AddressProfile(ctx context.Context, address string, limit int) (profile *AddressProfile, err error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}
	limit = normalizeLimit(limit)

	logger, start := a.begin("addressProfile")
	key := fmt.Sprintf("addressProfile:%s:%d", address, limit)

	if cached, hit := lookupCached[*AddressProfile](ctx, a, cache.CategoryBalances, key); hit {
		logger.Debug().Str("address", address).Msg("serving cached profile")
		return cached, nil
	}

	// profile is a named result so a panic recovered by guard still hands
	// the caller the partially built profile with its error entry.
	profile = &AddressProfile{
		Address:     address,
		AddressType: AddressTypeUnknown,
		Diagnostics: newDiagnostics(),
	}
	defer a.finish("addressProfile", logger, start, &profile.Diagnostics)
	defer guard(&profile.Diagnostics)

	addrParams := map[string]any{"address": address}
	listParams := map[string]any{"address": address, "limit": limit}
	outcomes := source.RunCalls(ctx, []source.Call{
		{Name: "balance", Source: a.rpc, Method: "getBalance", Params: addrParams, Required: true},
		{Name: "nonce", Source: a.rpc, Method: "getNonce", Params: addrParams, Required: true},
		{Name: "code", Source: a.rpc, Method: "getCode", Params: addrParams, Required: true},
		{Name: "transaction count", Source: a.indexer, Method: "transactionCount", Params: addrParams},
		{Name: "transaction history", Source: a.indexer, Method: "transactions", Params: listParams},
		{Name: "logs", Source: a.indexer, Method: "logs", Params: listParams},
		{Name: "bridge activity", Source: a.indexer, Method: "bridgeActivity", Params: addrParams},
	})
	a.recordOutcomes(&profile.Diagnostics, outcomes)

	var code string
	codeKnown := false
	for _, o := range outcomes {
		if !o.OK {
			continue
		}
		switch o.Call.Name {
		case "balance":
			var p balancePayload
			if decodePayload(o.Value, &p) {
				profile.Balance = p.Balance
			} else {
				profile.Warnings = append(profile.Warnings, "balance: source returned no data")
			}
		case "nonce":
			var p noncePayload
			if decodePayload(o.Value, &p) {
				nonce := p.Nonce
				profile.Nonce = &nonce
			} else {
				profile.Warnings = append(profile.Warnings, "nonce: source returned no data")
			}
		case "code":
			var p codePayload
			if decodePayload(o.Value, &p) {
				code = p.Code
				codeKnown = true
			} else {
				profile.Warnings = append(profile.Warnings, "code: source returned no data")
			}
		case "transaction count":
			var p txCountPayload
			if decodePayload(o.Value, &p) {
				count := p.Count
				profile.TransactionCount = &count
			}
		case "transaction history":
			var records []TxRecord
			if decodePayload(o.Value, &records) {
				profile.Transactions = records
			}
		case "logs":
			var records []LogRecord
			if decodePayload(o.Value, &records) {
				profile.Logs = records
			}
		case "bridge activity":
			var b BridgeActivity
			if decodePayload(o.Value, &b) {
				profile.Bridge = &b
			}
		}
	}

	if codeKnown {
		if hasCode(code) {
			profile.AddressType = AddressTypeContract
			a.fetchContractSource(ctx, address, profile)
		} else {
			profile.AddressType = AddressTypeEOA
		}
	}

	a.storeCached(ctx, cache.CategoryBalances, key, profile)
	return profile, nil
}

// fetchContractSource issues the dependent follow-up call for contract
// addresses. Its failure is always a warning: it only enriches an optional
// field.
func (a *Analyzer) fetchContractSource(ctx context.Context, address string, profile *AddressProfile) {
	srcKey := "contractSource:" + address
	if cached, hit := lookupCached[*contractSourcePayload](ctx, a, cache.CategoryContracts, srcKey); hit {
		verified := cached.Verified
		profile.ContractVerified = &verified
		profile.ContractSource = cached.Source
		return
	}

	raw, err := a.indexer.Invoke(ctx, "contractSource", map[string]any{"address": address})
	if err != nil {
		profile.Warnings = append(profile.Warnings, fmt.Sprintf("contract source: %v", err))
		return
	}
	var p contractSourcePayload
	if !decodePayload(raw, &p) {
		unverified := false
		profile.ContractVerified = &unverified
		return
	}
	verified := p.Verified
	profile.ContractVerified = &verified
	profile.ContractSource = p.Source
	a.storeCached(ctx, cache.CategoryContracts, srcKey, &p)
}

func hasCode(code string) bool {
	return code != "" && code != "0x"
}
