package yahoo

import "strings"

// LeveragedFund describes a daily-rebalanced leveraged ETF
type LeveragedFund struct {
	Factor       float64 // 음수면 인버스
	ExpenseRatio float64
	Underlying   string
}

// leveragedFunds 주요 레버리지/인버스 ETF
var leveragedFunds = map[string]LeveragedFund{
	"TQQQ": {Factor: 3, ExpenseRatio: 0.0084, Underlying: "QQQ"},
	"SQQQ": {Factor: -3, ExpenseRatio: 0.0095, Underlying: "QQQ"},
	"UPRO": {Factor: 3, ExpenseRatio: 0.0091, Underlying: "SPY"},
	"SPXU": {Factor: -3, ExpenseRatio: 0.0090, Underlying: "SPY"},
	"SSO":  {Factor: 2, ExpenseRatio: 0.0089, Underlying: "SPY"},
	"SOXL": {Factor: 3, ExpenseRatio: 0.0075, Underlying: "SOXX"},
	"SOXS": {Factor: -3, ExpenseRatio: 0.0097, Underlying: "SOXX"},
	"TNA":  {Factor: 3, ExpenseRatio: 0.0108, Underlying: "IWM"},
	"TZA":  {Factor: -3, ExpenseRatio: 0.0104, Underlying: "IWM"},
	"LABU": {Factor: 3, ExpenseRatio: 0.0093, Underlying: "XBI"},
	"TMF":  {Factor: 3, ExpenseRatio: 0.0106, Underlying: "TLT"},
	"TMV":  {Factor: -3, ExpenseRatio: 0.0096, Underlying: "TLT"},
	"NVDL": {Factor: 2, ExpenseRatio: 0.0115, Underlying: "NVDA"},
	"TSLL": {Factor: 2, ExpenseRatio: 0.0095, Underlying: "TSLA"},
	"BITX": {Factor: 2, ExpenseRatio: 0.0185, Underlying: "BTC"},
}

// defaultExpenseRatio applies to funds missing from the table
const defaultExpenseRatio = 0.0095

// LookupLeveragedFund returns the fund terms for symbol
func LookupLeveragedFund(symbol string) (LeveragedFund, bool) {
	fund, ok := leveragedFunds[strings.ToUpper(strings.TrimSpace(symbol))]
	return fund, ok
}
