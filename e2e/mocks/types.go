package mocks

// StockAPIQuote is the primary provider's quote payload. Prices are sent
// as strings the way the upstream does.
type StockAPIQuote struct {
	CompanyName       string `json:"companyName"`
	LastPrice         string `json:"lastPrice"`
	OpenPrice         string `json:"openPrice,omitempty"`
	DayHigh           string `json:"dayHigh,omitempty"`
	DayLow            string `json:"dayLow,omitempty"`
	YearHigh          string `json:"ytHighPrice,omitempty"`
	YearLow           string `json:"ytLowPrice,omitempty"`
	PreviousClose     string `json:"previousClose,omitempty"`
	BidPrice          string `json:"bidPrice,omitempty"`
	AskPrice          string `json:"askPrice,omitempty"`
	TotalTradedVolume string `json:"totalTradedVolume,omitempty"`
}

// MarketstackEOD is one end-of-day bar from Marketstack.
type MarketstackEOD struct {
	Symbol string  `json:"symbol"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type marketstackEODResponse struct {
	Data []MarketstackEOD `json:"data"`
}

type marketstackTickerResponse struct {
	Data marketstackTicker `json:"data"`
}

type marketstackTicker struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type errorResponse struct {
	Error string `json:"error"`
}
