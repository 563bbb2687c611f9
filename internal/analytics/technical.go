package analytics

import (
	"github.com/rewired-gh/mandipulse/internal/market"
	"github.com/rewired-gh/mandipulse/internal/models"
)

// Signal labels.
const (
	SignalOverbought = "Overbought"
	SignalOversold   = "Oversold"
	SignalNeutral    = "Neutral"
	SignalStrongBuy  = "Strong Buy"
	SignalBuy        = "Buy"
	SignalStrongSell = "Strong Sell"
	SignalSell       = "Sell"
	SignalHold       = "Hold"

	TradeBuy  = "BUY"
	TradeSell = "SELL"
	TradeHold = "HOLD"
)

const (
	supportFactor    = 0.92
	resistanceFactor = 1.08
	rsiPeriod        = 14
	macdFast         = 12
	macdSlow         = 26
	macdSignalPeriod = 9
)

// TechnicalReport holds indicators for one record. Indicators that need more
// history than is recorded are left nil.
type TechnicalReport struct {
	RecordID   string   `json:"id"`
	Price      float64  `json:"price"`
	Points     int      `json:"points"`
	SMA20      *float64 `json:"sma20,omitempty"`
	SMA50      *float64 `json:"sma50,omitempty"`
	EMA12      *float64 `json:"ema12,omitempty"`
	EMA26      *float64 `json:"ema26,omitempty"`
	MACD       *float64 `json:"macd,omitempty"`
	MACDSignal *float64 `json:"macdSignal,omitempty"`
	MACDHist   *float64 `json:"macdHistogram,omitempty"`
	RSI14      *float64 `json:"rsi14,omitempty"`
	Support    float64  `json:"support"`
	Resistance float64  `json:"resistance"`
	Volume     int      `json:"volume"`
	AvgVolume  float64  `json:"avgVolume"`
	RSISignal  string   `json:"rsiSignal"`
	MACDTrend  string   `json:"macdTrend"`
	Trade      string   `json:"signal"`
}

// Technical computes indicators for r from its history, oldest point first.
func Technical(r models.PricedRecord, history []models.PricePoint) TechnicalReport {
	prices := make([]float64, len(history))
	volSum := 0.0
	for i, p := range history {
		prices[i] = p.Price
		volSum += float64(p.Volume)
	}

	rep := TechnicalReport{
		RecordID:   r.ID,
		Price:      r.CurrentPrice,
		Points:     len(history),
		SMA20:      lastSMA(prices, 20),
		SMA50:      lastSMA(prices, 50),
		EMA12:      last(EMA(prices, macdFast)),
		EMA26:      last(EMA(prices, macdSlow)),
		RSI14:      RSI(prices, rsiPeriod),
		Support:    market.Round2(r.CurrentPrice * supportFactor),
		Resistance: market.Round2(r.CurrentPrice * resistanceFactor),
		Volume:     r.Volume,
		AvgVolume:  float64(r.Volume),
	}
	if len(history) > 0 {
		rep.AvgVolume = market.Round2(volSum / float64(len(history)))
	}
	if macd, signal, ok := MACD(prices); ok {
		hist := macd - signal
		rep.MACD, rep.MACDSignal, rep.MACDHist = round(macd), round(signal), round(hist)
	}

	rep.RSISignal = SignalNeutral
	if rep.RSI14 != nil {
		rep.RSISignal = RSISignal(*rep.RSI14)
	}
	rep.MACDTrend = SignalHold
	if rep.MACD != nil {
		rep.MACDTrend = MACDSignal(*rep.MACD)
	}
	rep.Trade = TradeSignal(rep.MACDTrend)
	return rep
}

// RSISignal classifies an RSI reading.
func RSISignal(rsi float64) string {
	switch {
	case rsi > 70:
		return SignalOverbought
	case rsi < 30:
		return SignalOversold
	default:
		return SignalNeutral
	}
}

// MACDSignal classifies a MACD reading.
func MACDSignal(macd float64) string {
	switch {
	case macd > 0.5:
		return SignalStrongBuy
	case macd > 0:
		return SignalBuy
	case macd < -0.5:
		return SignalStrongSell
	case macd < 0:
		return SignalSell
	default:
		return SignalHold
	}
}

// TradeSignal folds a MACD signal into BUY, SELL or HOLD.
func TradeSignal(macdSignal string) string {
	switch macdSignal {
	case SignalStrongBuy, SignalBuy:
		return TradeBuy
	case SignalStrongSell, SignalSell:
		return TradeSell
	default:
		return TradeHold
	}
}

// EMA returns the exponential moving average series seeded with the SMA of the
// first period values. It is nil when there are fewer than period values.
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}
	k := 2.0 / (float64(period) + 1)
	sum := 0.0
	for _, p := range prices[:period] {
		sum += p
	}
	out := make([]float64, 0, len(prices)-period+1)
	out = append(out, sum/float64(period))
	for _, p := range prices[period:] {
		prev := out[len(out)-1]
		out = append(out, p*k+prev*(1-k))
	}
	return out
}

// MACD returns the latest MACD (12, 26) line and its 9-period signal line.
// ok is false until enough points exist for the signal line.
func MACD(prices []float64) (macd, signal float64, ok bool) {
	fast, slow := EMA(prices, macdFast), EMA(prices, macdSlow)
	if slow == nil {
		return 0, 0, false
	}
	// Align the fast series with the slow one; both end at the last price.
	offset := len(fast) - len(slow)
	line := make([]float64, len(slow))
	for i := range slow {
		line[i] = fast[i+offset] - slow[i]
	}
	sig := EMA(line, macdSignalPeriod)
	if sig == nil {
		return 0, 0, false
	}
	return line[len(line)-1], sig[len(sig)-1], true
}

// RSI returns the latest Wilder-smoothed RSI, or nil with fewer than period+1 prices.
func RSI(prices []float64, period int) *float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := move(prices[i-1], prices[i])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	for i := period + 1; i < len(prices); i++ {
		gain, loss := move(prices[i-1], prices[i])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	if avgLoss == 0 {
		v := 100.0
		if avgGain == 0 {
			v = 50
		}
		return &v
	}
	return round(100 - 100/(1+avgGain/avgLoss))
}

func move(from, to float64) (gain, loss float64) {
	d := to - from
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

func lastSMA(prices []float64, period int) *float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return round(sum / float64(period))
}

func last(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	return round(series[len(series)-1])
}

func round(v float64) *float64 {
	r := market.Round2(v)
	return &r
}
