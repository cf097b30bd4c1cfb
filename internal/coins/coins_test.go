package coins

import "testing"

func TestBaseAsset(t *testing.T) {
	tests := []struct {
		pair string
		want string
	}{
		{"BTCUSDT", "BTC"},
		{"ethusdt", "ETH"},
		{"ETHBTC", "ETH"},
		{"SOLFDUSD", "SOL"},
		{"BNBBUSD", "BNB"},
		{"USDT", "USDT"},
		{"XYZ", "XYZ"},
	}
	for _, tt := range tests {
		if got := BaseAsset(tt.pair); got != tt.want {
			t.Errorf("BaseAsset(%q) = %q, want %q", tt.pair, got, tt.want)
		}
	}
}

func TestQuoteAsset(t *testing.T) {
	if got := QuoteAsset("BTCUSDT"); got != "USDT" {
		t.Errorf("QuoteAsset(BTCUSDT) = %q", got)
	}
	if got := QuoteAsset("ETHBTC"); got != "BTC" {
		t.Errorf("QuoteAsset(ETHBTC) = %q", got)
	}
}

func TestGlyph(t *testing.T) {
	tests := []struct {
		pair string
		want string
	}{
		{"BTCUSDT", "₿"},
		{"BNBUSDT", "⬡"},
		{"ARBUSDT", "ARB"},
		{"PEPEUSDT", "PEP"},
	}
	for _, tt := range tests {
		if got := Glyph(tt.pair); got != tt.want {
			t.Errorf("Glyph(%q) = %q, want %q", tt.pair, got, tt.want)
		}
	}
}

func TestResolverName_Offline(t *testing.T) {
	r := NewResolver(nil)
	tests := []struct {
		pair string
		want string
	}{
		{"BTCUSDT", "Bitcoin"},
		{"dotusdt", "Polkadot"},
		{"ARBUSDT", "ARB"},
	}
	for _, tt := range tests {
		if got := r.Name(tt.pair); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.pair, got, tt.want)
		}
	}

	var nilResolver *Resolver
	if got := nilResolver.Name("ARBUSDT"); got != "ARB" {
		t.Errorf("nil resolver Name = %q", got)
	}
}
