// Package models defines data structures for Folio
package models

import "time"

// EODBar represents a single day's price data
type EODBar struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adjusted_close"`
	Volume   int64   `json:"volume"`
}

// DailyRange is the low/high envelope for a ticker on one day. Buy and
// sell prices must fall inside it.
type DailyRange struct {
	Ticker string  `json:"ticker"`
	Date   string  `json:"date"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
}

// Contains reports whether a price falls within the day's traded range.
func (r DailyRange) Contains(price float64) bool {
	return price >= r.Low && price <= r.High
}

// Symbol is one entry of an exchange symbol list.
type Symbol struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Type     string `json:"type"`
}

// ChatRequest is the payload for POST /api/chat. Ticker is optional and
// scopes the question to a single stock.
type ChatRequest struct {
	Email   string `json:"email"`
	Ticker  string `json:"ticker,omitempty"`
	Message string `json:"message"`
}

// ChatResponse carries the model's reply.
type ChatResponse struct {
	Reply     string    `json:"reply"`
	Timestamp time.Time `json:"timestamp"`
}
