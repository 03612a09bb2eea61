package utils

import (
	"sync"
	"time"

	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"
)

// MarketStatus annotates records with the open/closed state of their
// exchange. Calendars are loaded lazily and shared between symbols of the
// same exchange.
type MarketStatus struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	Now       func() time.Time
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketStatus(l *logger.Logger) *MarketStatus {
	return &MarketStatus{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
		Now:       time.Now,
	}
}

// -----------------------------------------------------------------------------

func (ms *MarketStatus) calendarFor(symbol string) *TradingCalendar {
	mic := MICForSymbol(symbol)

	ms.mu.RLock()
	cal, ok := ms.Calendars[mic]
	ms.mu.RUnlock()
	if ok {
		return cal
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if cal, ok := ms.Calendars[mic]; ok {
		return cal
	}

	cal = LoadCalendar(mic)
	if cal.Fallback {
		ms.Logger.Warning("No calendar for MIC '%s', using Mon-Fri 09:30-16:00 New York hours", mic)
	}
	ms.Calendars[mic] = cal
	return cal
}

// -----------------------------------------------------------------------------

// IsOpen reports whether the exchange of symbol is open right now.
func (ms *MarketStatus) IsOpen(symbol string) bool {
	return ms.calendarFor(symbol).IsOpen(ms.Now())
}

// -----------------------------------------------------------------------------

// Annotate pairs every record with its exchange and current session state.
func (ms *MarketStatus) Annotate(records []models.MStockRecord) []models.MStockListing {
	now := ms.Now()
	out := make([]models.MStockListing, 0, len(records))
	for _, r := range records {
		cal := ms.calendarFor(r.Symbol)
		out = append(out, models.MStockListing{
			MStockRecord: r,
			Exchange:     cal.MIC,
			MarketOpen:   cal.IsOpen(now),
		})
	}
	return out
}
