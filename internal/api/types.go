package api

// ChartResponse from GET /v8/finance/chart/{symbol}
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *ChartError   `json:"error"`
	} `json:"chart"`
}

// ChartResult is one symbol's chart payload. Only the meta block is used.
type ChartResult struct {
	Meta ChartMeta `json:"meta"`
}

// ChartMeta carries the latest quote fields of a chart response.
type ChartMeta struct {
	Symbol             string   `json:"symbol"`
	Currency           string   `json:"currency"`
	ShortName          string   `json:"shortName"`
	LongName           string   `json:"longName"`
	InstrumentType     string   `json:"instrumentType"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
	PreviousClose      *float64 `json:"previousClose"`
	DayHigh            *float64 `json:"regularMarketDayHigh"`
	DayLow             *float64 `json:"regularMarketDayLow"`
	Volume             *float64 `json:"regularMarketVolume"`
}

// ChartError is the error block Yahoo returns for unknown symbols.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
