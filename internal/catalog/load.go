// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/match-engine/pkg/types"
)

// Sell-side CSV column headers (TCGplayer collection export).
const (
	sellColID       = "TCGplayer Id"
	sellColSet      = "Set Name"
	sellColName     = "Product Name"
	sellColRarity   = "Rarity"
	sellColPrice    = "TCG Market Price"
	sellColQuantity = "Total Quantity"
)

// LoadSell reads a sell catalog from path, dispatching on extension:
// .csv for TCGplayer exports, .yaml/.yml for fixture files. Rows without
// an ID are skipped with a warning to w.
func LoadSell(path string, w io.Writer) ([]types.SellRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadSellCSV(path, w)
	case ".yaml", ".yml":
		return loadSellYAML(path)
	default:
		return nil, fmt.Errorf("unsupported sell catalog format %q: use .csv or .yaml", filepath.Ext(path))
	}
}

// LoadBuy reads a buy catalog from path, dispatching on extension:
// .json/.jsonp for buylist feeds, .yaml/.yml for fixture files.
func LoadBuy(path string, w io.Writer) ([]types.BuyRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonp":
		return LoadBuyJSON(path, w)
	case ".yaml", ".yml":
		return loadBuyYAML(path)
	default:
		return nil, fmt.Errorf("unsupported buy catalog format %q: use .json or .yaml", filepath.Ext(path))
	}
}

// LoadSellCSV parses a TCGplayer-style collection export. The required
// columns are matched by header name; extra columns are ignored.
func LoadSellCSV(path string, w io.Writer) ([]types.SellRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sell catalog: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading sell catalog header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{sellColID, sellColName} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("sell catalog missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []types.SellRecord
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading sell catalog line %d: %w", line, err)
		}

		id := field(row, sellColID)
		if id == "" {
			fmt.Fprintf(w, "warning: sell catalog line %d has no id, skipped\n", line)
			continue
		}

		rec := types.SellRecord{
			ID:      id,
			Name:    field(row, sellColName),
			SetName: field(row, sellColSet),
			Rarity:  field(row, sellColRarity),
		}
		rec.MarketPrice, _ = strconv.ParseFloat(strings.TrimPrefix(field(row, sellColPrice), "$"), 64)
		rec.Quantity, _ = strconv.Atoi(field(row, sellColQuantity))

		records = append(records, rec)
	}

	return records, nil
}

// buyFeedEntry is one compact buylist feed object. The feed uses
// single-letter keys and is loosely typed: ids, prices, and quantities
// arrive as numbers in some exports and quoted strings in others.
type buyFeedEntry struct {
	ID      flexValue `json:"i"`
	Name    string    `json:"n"`
	Edition string    `json:"e"`
	Rarity  string    `json:"r"`
	Foil    any       `json:"f"`
	Price   flexValue `json:"p"`
	Qty     flexValue `json:"q"`
}

// flexValue decodes a scalar that may arrive as a JSON number or a
// quoted string. Null and absent both read as empty.
type flexValue string

func (v *flexValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal([]byte(s), &str); err != nil {
			return fmt.Errorf("parsing feed scalar %s: %w", s, err)
		}
		*v = flexValue(str)
		return nil
	}
	*v = flexValue(s)
	return nil
}

// LoadBuyJSON parses a buylist feed: a JSON array of compact entries,
// optionally wrapped in a JSONP callback. Entries without an ID are
// skipped with a warning to w.
func LoadBuyJSON(path string, w io.Writer) ([]types.BuyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading buy catalog: %w", err)
	}

	payload := stripJSONP(string(data))

	var entries []buyFeedEntry
	if err := json.Unmarshal([]byte(payload), &entries); err != nil {
		return nil, fmt.Errorf("parsing buy catalog: %w", err)
	}

	records := make([]types.BuyRecord, 0, len(entries))
	for i, e := range entries {
		id := string(e.ID)
		if id == "" {
			fmt.Fprintf(w, "warning: buy catalog entry %d has no id, skipped\n", i)
			continue
		}
		rec := types.BuyRecord{
			ID:      id,
			Name:    strings.TrimSpace(e.Name),
			Edition: strings.TrimSpace(e.Edition),
			Rarity:  strings.TrimSpace(e.Rarity),
			Foil:    truthy(e.Foil),
		}
		rec.Price, _ = strconv.ParseFloat(string(e.Price), 64)
		rec.Quantity, _ = strconv.Atoi(string(e.Qty))
		records = append(records, rec)
	}

	return records, nil
}

// stripJSONP removes a callback wrapper like `ckCardList(...);` or a bare
// parenthesis wrapper, returning the inner JSON. Plain JSON passes through.
func stripJSONP(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		return s
	}
	s = strings.TrimSuffix(s, ";")
	if open := strings.Index(s, "("); open >= 0 && strings.HasSuffix(s, ")") {
		return s[open+1 : len(s)-1]
	}
	return s
}

// truthy interprets the feed's loosely-typed foil flag: booleans, numbers,
// and non-empty strings other than "0"/"false" all read as foil.
func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		return s != "" && s != "0" && s != "false"
	default:
		return false
	}
}

func loadSellYAML(path string) ([]types.SellRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sell catalog: %w", err)
	}
	var records []types.SellRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing sell catalog: %w", err)
	}
	return records, nil
}

func loadBuyYAML(path string) ([]types.BuyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading buy catalog: %w", err)
	}
	var records []types.BuyRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing buy catalog: %w", err)
	}
	return records, nil
}
