package common

const (
	RedisStreamScreenerScan = "screener.scan"

	RedisStreamGroup    = "screener-group"
	RedisStreamConsumer = "screener-consumer"
)
