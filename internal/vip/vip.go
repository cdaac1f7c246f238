// Package vip models the externally supplied VIP status that gates offline
// income. The engine never infers a tier on its own; it is told, or it asks a
// Checker at the moment it needs one.
package vip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Tier is a VIP membership level.
type Tier uint8

const (
	None Tier = iota
	Tier1
	Tier2
	Tier3
)

var tierNames = [...]string{"none", "tier1", "tier2", "tier3"}

// String returns the tier's wire name.
func (t Tier) String() string {
	if int(t) < len(tierNames) {
		return tierNames[t]
	}
	return "unknown"
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return t <= Tier3
}

// ParseTier parses a wire name ("tier2", "Tier2", "2", "none").
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range tierNames {
		if s == name || s == fmt.Sprint(i) {
			return Tier(i), nil
		}
	}
	if s == "" {
		return None, nil
	}
	return None, fmt.Errorf("unknown vip tier %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Checker is a trusted source of VIP status.
type Checker interface {
	Tier(ctx context.Context, accountID string) (Tier, error)
}

// Static is an in-memory Checker. Unknown accounts are None.
type Static struct {
	mu    sync.RWMutex
	tiers map[string]Tier
}

// NewStatic creates an empty static checker.
func NewStatic() *Static {
	return &Static{tiers: make(map[string]Tier)}
}

// Set records the tier for an account.
func (s *Static) Set(accountID string, t Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers[accountID] = t
}

// Tier implements Checker.
func (s *Static) Tier(_ context.Context, accountID string) (Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tiers[accountID], nil
}

// HTTPChecker asks a membership service for the account's tier.
// The service answers GET {BaseURL}/{accountID} with {"tier":"tier2"}.
type HTTPChecker struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

// NewHTTPChecker creates a checker against baseURL. Returns nil if baseURL is empty.
func NewHTTPChecker(baseURL, apiKey string) *HTTPChecker {
	if baseURL == "" {
		return nil
	}
	return &HTTPChecker{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Tier implements Checker.
func (c *HTTPChecker) Tier(ctx context.Context, accountID string) (Tier, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/"+url.PathEscape(accountID), nil)
	if err != nil {
		return None, fmt.Errorf("build vip request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return None, fmt.Errorf("vip request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return None, fmt.Errorf("read vip response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return None, nil
	}
	if resp.StatusCode != http.StatusOK {
		return None, fmt.Errorf("vip service status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var result struct {
		Tier Tier `json:"tier"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return None, fmt.Errorf("parse vip response: %w", err)
	}
	slog.Debug("vip status fetched", "account", accountID, "tier", result.Tier)
	return result.Tier, nil
}
