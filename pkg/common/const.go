package common

const (
	KEY_USD_KRW_RATE = "exchange_rate:usd_krw"
)

const (
	CURRENCY_KRW   = "KRW"
	CURRENCY_QUOTE = "USDT"
	CURRENCY_ASSET = "ASSET"
)
