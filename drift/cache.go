package drift

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// PageKind selects the cache subdirectory of a monthly page.
type PageKind string

const (
	FundingPages PageKind = "funding"
	PricePages   PageKind = "prices"
)

// Cache stores monthly pages as JSON arrays under
// {dir}/drift/{kind}/{SYMBOL}/{SYMBOL}_{year}_{month}.json.
type Cache struct {
	dir string
	log *logrus.Logger
}

func NewCache(dir string, log *logrus.Logger) *Cache {
	return &Cache{dir: dir, log: orDiscard(log)}
}

func (c *Cache) Path(kind PageKind, symbol string, year, month int) string {
	return filepath.Join(c.dir, "drift", string(kind), symbol, fmt.Sprintf("%s_%d_%d.json", symbol, year, month))
}

// Load returns the cached page and whether it existed.
func (c *Cache) Load(kind PageKind, symbol string, year, month int) ([]Record, bool, error) {
	path := c.Path(kind, symbol, year, month)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", path, err)
	}
	c.log.WithFields(logrus.Fields{"path": path, "rows": len(recs)}).Debug("cache hit")
	return recs, true, nil
}

func (c *Cache) Store(kind PageKind, symbol string, year, month int, recs []Record) error {
	path := c.Path(kind, symbol, year, month)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
