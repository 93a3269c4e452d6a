// Package universe defines the named ETF pools the rotation strategy runs
// over. A pool is an ordered symbol → display-name mapping; the order is
// significant because momentum ties are broken by pool position.
package universe

// DefaultPoolKey is the pool used when a request names none.
const DefaultPoolKey = "default"

// Instrument pairs an exchange symbol with its display name.
type Instrument struct {
	Symbol string
	Name   string
}

// Pool is a named, ordered collection of instruments.
type Pool struct {
	Key         string
	Name        string
	Description string
	Instruments []Instrument
}

// Symbols returns the pool's symbols in order.
func (p Pool) Symbols() []string {
	out := make([]string, len(p.Instruments))
	for i, inst := range p.Instruments {
		out[i] = inst.Symbol
	}
	return out
}

// DisplayName returns the display name for a symbol, falling back to the
// symbol itself when unknown.
func (p Pool) DisplayName(symbol string) string {
	for _, inst := range p.Instruments {
		if inst.Symbol == symbol {
			return inst.Name
		}
	}
	return symbol
}

// Names returns the symbol → display-name map for the pool.
func (p Pool) Names() map[string]string {
	m := make(map[string]string, len(p.Instruments))
	for _, inst := range p.Instruments {
		m[inst.Symbol] = inst.Name
	}
	return m
}

var builtin = []Pool{
	{
		Key:         "default",
		Name:        "默认组合",
		Description: "A股、美股、黄金、债券等主要资产类别",
		Instruments: []Instrument{
			{"510300", "300ETF"},
			{"159915", "创业板"},
			{"513050", "中概互联网ETF"},
			{"159941", "纳指ETF"},
			{"518880", "黄金ETF"},
			{"511090", "30年国债"},
		},
	},
	{
		Key:         "scitech",
		Name:        "科创创业",
		Description: "用科创创业ETF替代创业板，聚焦科技创新企业",
		Instruments: []Instrument{
			{"510300", "300ETF"},
			{"159781", "科创创业ETF"},
			{"513050", "中概互联网ETF"},
			{"159941", "纳指ETF"},
			{"518880", "黄金ETF"},
			{"511090", "30年国债"},
		},
	},
	{
		Key:         "extended",
		Name:        "定制组合",
		Description: "默认组合基础上增加科创创业ETF和科创50ETF",
		Instruments: []Instrument{
			{"510300", "300ETF"},
			{"159915", "创业板"},
			{"513050", "中概互联网ETF"},
			{"159941", "纳指ETF"},
			{"518880", "黄金ETF"},
			{"511090", "30年国债"},
			{"159781", "科创创业ETF"},
			{"588000", "科创50ETF"},
		},
	},
	{
		Key:         "global",
		Name:        "全球股市轮动",
		Description: "覆盖中美欧日等主要市场的全球资产配置",
		Instruments: []Instrument{
			{"510300", "300ETF"},
			{"513050", "中概互联网ETF"},
			{"159941", "纳指ETF"},
			{"513520", "日经ETF"},
			{"513030", "德国ETF"},
			{"513730", "东南亚科技ETF"},
			{"159329", "沙特ETF"},
		},
	},
}

// Pools returns all built-in pools in their canonical order.
func Pools() []Pool {
	out := make([]Pool, len(builtin))
	copy(out, builtin)
	return out
}

// ByKey looks up a built-in pool by its key.
func ByKey(key string) (Pool, bool) {
	for _, p := range builtin {
		if p.Key == key {
			return p, true
		}
	}
	return Pool{}, false
}
