package dto

import "time"

// MarketObservation is one step of the simulated time series. RateA is
// the reference-exchange price and RateB the target-exchange price,
// both quoted in KRW. FXRate is the USD/KRW rate used for converting
// the KRW legs into reference currency; for the USDT pair it equals
// RateA. Observations are immutable once produced.
type MarketObservation struct {
	Timestamp time.Time `json:"timestamp"`
	RateA     float64   `json:"rate_a"`
	RateB     float64   `json:"rate_b"`
	Volume    float64   `json:"volume"`
	FXRate    float64   `json:"fx_rate"`
}

// Premium returns the kimchi premium in percent: positive when the
// target exchange trades above the reference.
func (o MarketObservation) Premium() float64 {
	return (o.RateB - o.RateA) / o.RateA * 100
}

// RefPrice returns the reference-exchange asset price in quote currency.
func (o MarketObservation) RefPrice() float64 {
	return o.RateA / o.FXRate
}

// MarketDataRequest selects the series to simulate against.
type MarketDataRequest struct {
	Pair        string    `json:"pair"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	UseRealData bool      `json:"use_real_data"`
	Seed        int64     `json:"seed"`
}

// OHLCV is a single exchange candle, timestamp in unix milliseconds.
type OHLCV struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type BinanceKlines struct {
	OpenTime         int64
	Open             float64
	High             float64
	Low              float64
	Close            float64
	Volume           float64
	CloseTime        int64
	QuoteAssetVolume float64
	NumberOfTrades   int64
}

type UpbitCandle struct {
	Market             string  `json:"market"`
	CandleDateTimeUTC  string  `json:"candle_date_time_utc"`
	OpeningPrice       float64 `json:"opening_price"`
	HighPrice          float64 `json:"high_price"`
	LowPrice           float64 `json:"low_price"`
	TradePrice         float64 `json:"trade_price"`
	Timestamp          int64   `json:"timestamp"`
	CandleAccTradeVol  float64 `json:"candle_acc_trade_volume"`
	CandleAccTradePrce float64 `json:"candle_acc_trade_price"`
}

type ExchangeRateResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}
