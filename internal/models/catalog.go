package models

// Catalog — доступные активы рынка по символу.
type Catalog map[string]*Asset

// Lookup возвращает nil если символа нет.
func (c Catalog) Lookup(symbol string) *Asset {
	if c == nil {
		return nil
	}
	return c[symbol]
}

// PositionKey — позиции ключуются парой (адрес, рынок).
type PositionKey struct {
	Address string
	Market  string
}
