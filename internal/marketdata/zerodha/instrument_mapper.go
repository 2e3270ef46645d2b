package zerodha

import (
	"strings"
	"sync"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

// instrumentMapper maps trading symbols to instrument tokens for one exchange.
type instrumentMapper struct {
	symbolToToken map[string]int
	isLoaded      bool
	mu            sync.RWMutex
}

func newInstrumentMapper() *instrumentMapper {
	return &instrumentMapper{
		symbolToToken: make(map[string]int),
	}
}

// load replaces the mapping with the equity instruments in list.
func (im *instrumentMapper) load(list kiteconnect.Instruments) {
	m := make(map[string]int, len(list))
	for _, inst := range list {
		if inst.InstrumentType != "" && inst.InstrumentType != "EQ" {
			continue
		}
		m[strings.ToUpper(inst.Tradingsymbol)] = inst.InstrumentToken
	}

	im.mu.Lock()
	defer im.mu.Unlock()
	im.symbolToToken = m
	im.isLoaded = true
}

func (im *instrumentMapper) getToken(symbol string) (int, bool) {
	im.mu.RLock()
	defer im.mu.RUnlock()

	token, exists := im.symbolToToken[symbol]
	return token, exists
}

func (im *instrumentMapper) loaded() bool {
	im.mu.RLock()
	defer im.mu.RUnlock()
	return im.isLoaded
}
