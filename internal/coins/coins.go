package coins

import (
	"strings"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

var pairGlyphs = map[string]string{
	"BTCUSDT":  "₿",
	"ETHUSDT":  "Ξ",
	"ADAUSDT":  "₳",
	"SOLUSDT":  "◎",
	"DOGEUSDT": "Ð",
	"XRPUSDT":  "✕",
	"TRXUSDT":  "⚡",
	"LTCUSDT":  "Ł",
	"BCHUSDT":  "₿",
	"XLMUSDT":  "✪",
	"LINKUSDT": "⬢",
}

var baseGlyphs = map[string]string{
	"BNB": "⬡", "DOT": "●", "UNI": "🦄", "AVAX": "▲", "MATIC": "⬟",
	"SAND": "🏖️", "MANA": "🌐", "FTT": "📈", "NEAR": "🌙", "ATOM": "⚛️",
	"LTC": "Ł", "BCH": "₿", "ETC": "💎", "XLM": "✪", "VET": "🔗",
	"THETA": "θ", "FIL": "📁", "ICP": "♾️", "SHIB": "🐕", "CRO": "👑",
}

var pairNames = map[string]string{
	"BTCUSDT":  "Bitcoin",
	"ETHUSDT":  "Ethereum",
	"ADAUSDT":  "Cardano",
	"SOLUSDT":  "Solana",
	"DOGEUSDT": "Dogecoin",
	"XRPUSDT":  "Ripple",
	"TRXUSDT":  "TRON",
	"LTCUSDT":  "Litecoin",
	"BCHUSDT":  "Bitcoin Cash",
	"XLMUSDT":  "Stellar",
	"LINKUSDT": "Chainlink",
}

var baseNames = map[string]string{
	"BNB": "Binance Coin", "DOT": "Polkadot", "UNI": "Uniswap",
	"AVAX": "Avalanche", "MATIC": "Polygon", "SAND": "The Sandbox",
	"MANA": "Decentraland", "FTT": "FTX Token", "NEAR": "Near Protocol",
	"ATOM": "Cosmos", "ETC": "Ethereum Classic", "VET": "VeChain",
	"THETA": "Theta Network", "FIL": "Filecoin", "ICP": "Internet Computer",
	"SHIB": "Shiba Inu", "CRO": "Cronos", "ALGO": "Algorand",
	"FLOW": "Flow", "XTZ": "Tezos", "EGLD": "MultiversX",
}

// quote assets, longest first so FDUSD wins over USD-like suffixes
var quoteAssets = []string{"FDUSD", "USDT", "USDC", "BUSD", "BTC", "ETH", "BNB"}

// BaseAsset strips the quote asset from a trading pair, BTCUSDT -> BTC
func BaseAsset(pair string) string {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	for _, q := range quoteAssets {
		if strings.HasSuffix(pair, q) && len(pair) > len(q) {
			return strings.TrimSuffix(pair, q)
		}
	}
	return pair
}

// QuoteAsset returns the quote asset of a pair, or "" when it is not a known one
func QuoteAsset(pair string) string {
	base := BaseAsset(pair)
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(pair)), base)
}

// Glyph returns a short display symbol for a pair
func Glyph(pair string) string {
	if g, ok := pairGlyphs[strings.ToUpper(pair)]; ok {
		return g
	}
	base := BaseAsset(pair)
	if g, ok := baseGlyphs[base]; ok {
		return g
	}
	if len(base) <= 3 {
		return base
	}
	return base[:3]
}

// Resolver finds the display name of a trading pair
type Resolver struct {
	client *coinpaprika.Client
	cache  *cache.Cache
}

// NewResolver creates a resolver; a nil client limits lookups to the built-in names
func NewResolver(client *coinpaprika.Client) *Resolver {
	return &Resolver{
		client: client,
		cache:  cache.New(24*time.Hour, time.Hour),
	}
}

// NewClient returns a coinpaprika client, using the pro API when a key is given
func NewClient(apiKey string) *coinpaprika.Client {
	if apiKey != "" {
		return coinpaprika.NewClient(nil, coinpaprika.WithAPIKey(apiKey))
	}
	return coinpaprika.NewClient(nil)
}

// Name returns the coin name of a pair: built-in names first, then a coinpaprika
// symbol search, then the bare base asset.
func (r *Resolver) Name(pair string) string {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if n, ok := pairNames[pair]; ok {
		return n
	}
	base := BaseAsset(pair)
	if n, ok := baseNames[base]; ok {
		return n
	}
	if r == nil || r.client == nil {
		return base
	}

	if v, found := r.cache.Get(base); found {
		return v.(string)
	}

	name := base
	if found, err := r.search(base); err != nil {
		log.Debugf("coin name lookup for %s failed: %v", base, err)
		// retry sooner than a successful lookup
		r.cache.Set(base, name, 10*time.Minute)
		return name
	} else if found != "" {
		name = found
	}
	r.cache.Set(base, name, cache.DefaultExpiration)
	return name
}

func (r *Resolver) search(symbol string) (string, error) {
	result, err := r.client.Search.Search(&coinpaprika.SearchOptions{
		Query:      symbol,
		Categories: "currencies",
		Modifier:   "symbol_search",
	})
	if err != nil {
		return "", err
	}
	for _, c := range result.Currencies {
		if c.Symbol != nil && c.Name != nil && strings.EqualFold(*c.Symbol, symbol) {
			return *c.Name, nil
		}
	}
	return "", nil
}
