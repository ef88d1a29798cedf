package currency

import "strings"

// Spec describes one supported cryptocurrency and how its payment URI is prefixed
type Spec struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Prefix string `json:"prefix"`
	Color  string `json:"color"`
	Glow   string `json:"glow"`
}

var table = []Spec{
	{ID: "btc", Name: "Bitcoin", Symbol: "BTC", Prefix: "bitcoin:", Color: "#F7931A", Glow: "rgba(247, 147, 26, 0.5)"},
	{ID: "eth", Name: "Ethereum", Symbol: "ETH", Prefix: "ethereum:", Color: "#627EEA", Glow: "rgba(98, 126, 234, 0.5)"},
	{ID: "sol", Name: "Solana", Symbol: "SOL", Prefix: "solana:", Color: "#00FFA3", Glow: "rgba(0, 255, 163, 0.5)"},
	{ID: "usdt", Name: "Tether", Symbol: "USDT", Prefix: "tether:", Color: "#26A17B", Glow: "rgba(38, 161, 123, 0.5)"},
	{ID: "ltc", Name: "Litecoin", Symbol: "LTC", Prefix: "litecoin:", Color: "#BFBBBB", Glow: "rgba(191, 187, 187, 0.5)"},
}

// All returns the supported currencies in display order
func All() []Spec {
	out := make([]Spec, len(table))
	copy(out, table)
	return out
}

// Default returns the currency selected when nothing else is known (Bitcoin)
func Default() Spec {
	return table[0]
}

// Lookup finds a currency by its ID, ignoring case
func Lookup(id string) (Spec, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, spec := range table {
		if spec.ID == id {
			return spec, true
		}
	}
	return Spec{}, false
}

// IDs returns the currency IDs in display order
func IDs() []string {
	ids := make([]string, 0, len(table))
	for _, spec := range table {
		ids = append(ids, spec.ID)
	}
	return ids
}
