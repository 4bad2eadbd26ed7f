// Package registry holds the static table mapping supported dashboard
// symbols to their CFTC futures contracts. The core treats this purely as
// a read-only lookup and fails closed for any symbol absent from it.
package registry

import "sort"

// Instrument describes one supported futures contract.
type Instrument struct {
	Symbol      string `json:"symbol"`
	FuturesCode string `json:"futures_code"`
	// MarketPattern is the SoQL LIKE pattern matched against
	// market_and_exchange_names upstream. Percent signs are wildcards for
	// contract names the CFTC has reworded over the years.
	MarketPattern string `json:"market_pattern"`
	Exchange      string `json:"exchange"`
	AssetClass    string `json:"asset_class"`
	DisplayName   string `json:"display_name"`
}

var instruments = map[string]Instrument{
	"EURUSD": {"EURUSD", "6E", "EURO FX - CHICAGO MERCANTILE EXCHANGE", "CME", "fx", "Euro / U.S. Dollar"},
	"GBPUSD": {"GBPUSD", "6B", "BRITISH POUND%- CHICAGO MERCANTILE EXCHANGE", "CME", "fx", "British Pound / U.S. Dollar"},
	"USDJPY": {"USDJPY", "6J", "JAPANESE YEN - CHICAGO MERCANTILE EXCHANGE", "CME", "fx", "U.S. Dollar / Japanese Yen"},
	"USDCHF": {"USDCHF", "6S", "SWISS FRANC - CHICAGO MERCANTILE EXCHANGE", "CME", "fx", "U.S. Dollar / Swiss Franc"},
	"USDCAD": {"USDCAD", "6C", "CANADIAN DOLLAR - CHICAGO MERCANTILE EXCHANGE", "CME", "fx", "U.S. Dollar / Canadian Dollar"},
	"AUDUSD": {"AUDUSD", "6A", "AUSTRALIAN DOLLAR - CHICAGO MERCANTILE EXCHANGE", "CME", "fx", "Australian Dollar / U.S. Dollar"},
	"NZDUSD": {"NZDUSD", "6N", "NZ DOLLAR - CHICAGO MERCANTILE EXCHANGE", "CME", "fx", "New Zealand Dollar / U.S. Dollar"},
	"DXY":    {"DXY", "DX", "U.S. DOLLAR INDEX - ICE FUTURES U.S.", "ICE", "fx", "U.S. Dollar Index"},
	"XAUUSD": {"XAUUSD", "GC", "GOLD - COMMODITY EXCHANGE INC.", "COMEX", "metals", "Gold"},
	"XAGUSD": {"XAGUSD", "SI", "SILVER - COMMODITY EXCHANGE INC.", "COMEX", "metals", "Silver"},
	"COPPER": {"COPPER", "HG", "COPPER%- COMMODITY EXCHANGE INC.", "COMEX", "metals", "Copper"},
	"USOIL":  {"USOIL", "CL", "CRUDE OIL%- NEW YORK MERCANTILE EXCHANGE", "NYMEX", "energy", "WTI Crude Oil"},
	"NATGAS": {"NATGAS", "NG", "NATURAL GAS - NEW YORK MERCANTILE EXCHANGE", "NYMEX", "energy", "Natural Gas"},
	"SPX500": {"SPX500", "ES", "E-MINI S&P 500 - CHICAGO MERCANTILE EXCHANGE", "CME", "indices", "S&P 500"},
	"NAS100": {"NAS100", "NQ", "NASDAQ MINI - CHICAGO MERCANTILE EXCHANGE", "CME", "indices", "Nasdaq 100"},
	"US30":   {"US30", "YM", "DOW JONES INDUSTRIAL AVG%- CHICAGO BOARD OF TRADE", "CBOT", "indices", "Dow Jones 30"},
	"BTCUSD": {"BTCUSD", "BTC", "BITCOIN - CHICAGO MERCANTILE EXCHANGE", "CME", "crypto", "Bitcoin"},
	"ETHUSD": {"ETHUSD", "ETH", "ETHER%- CHICAGO MERCANTILE EXCHANGE", "CME", "crypto", "Ethereum"},
	"US10Y":  {"US10Y", "ZN", "UST 10Y NOTE - CHICAGO BOARD OF TRADE", "CBOT", "bonds", "10-Year T-Note"},
}

// Lookup returns the instrument for a symbol. The second return is false
// for any symbol outside the table.
func Lookup(symbol string) (Instrument, bool) {
	ins, ok := instruments[symbol]
	return ins, ok
}

// Supported reports whether a symbol is in the table.
func Supported(symbol string) bool {
	_, ok := instruments[symbol]
	return ok
}

// Symbols returns every supported symbol in sorted order.
func Symbols() []string {
	out := make([]string, 0, len(instruments))
	for s := range instruments {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// All returns every instrument, sorted by symbol.
func All() []Instrument {
	out := make([]Instrument, 0, len(instruments))
	for _, s := range Symbols() {
		out = append(out, instruments[s])
	}
	return out
}
