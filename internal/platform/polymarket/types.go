package polymarket

import (
	"encoding/json"
	"strings"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	ConditionID   string   `json:"condition_id"`
	Slug          string   `json:"slug"`
	Active        flexBool `json:"active"` // API may send bool or "true"/"false" string
	Closed        bool     `json:"closed"`
	Outcomes      string   `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string   `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.55\",\"0.45\"]"
	Volume        string   `json:"volume"`
	EndDateISO    string   `json:"end_date_iso"`
	GameStartTime string   `json:"game_start_time"`
	Description   string   `json:"description"`
	UpdatedAt     string   `json:"updated_at"`
}

// ParsedOutcomes decodes the JSON-encoded Outcomes field. Returns nil when
// the field is empty or malformed.
func (m *APIMarket) ParsedOutcomes() []string {
	if m.Outcomes == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(m.Outcomes), &out); err != nil {
		return nil
	}
	return out
}

// ParsedOutcomePrices decodes the JSON-encoded OutcomePrices field into
// decimal strings, one per outcome. Returns nil when empty or malformed.
func (m *APIMarket) ParsedOutcomePrices() []string {
	if m.OutcomePrices == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &out); err != nil {
		return nil
	}
	return out
}
