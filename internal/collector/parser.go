package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/storelab/replenish/internal/domain"
)

const dateLayout = "2006-01-02"

// FileKind identifies which export a CSV file carries, derived from its name.
type FileKind string

const (
	KindSales      FileKind = "sales"
	KindItems      FileKind = "items"
	KindPromotions FileKind = "promotions"
	KindUnknown    FileKind = "unknown"
)

// KindOfFile classifies an export by its filename prefix. The store system
// names its exports sales_YYYYMMDD.csv, items.csv, and promotions.csv.
func KindOfFile(name string) FileKind {
	base := strings.ToLower(name)
	switch {
	case strings.HasPrefix(base, "sales"):
		return KindSales
	case strings.HasPrefix(base, "items"):
		return KindItems
	case strings.HasPrefix(base, "promo"):
		return KindPromotions
	default:
		return KindUnknown
	}
}

// rowReader wraps header-mapped access to one CSV. The store system's export
// column order is not guaranteed, only the header names are.
type rowReader struct {
	reader *csv.Reader
	cols   map[string]int
	row    []string
	line   int
}

func newRowReader(r io.Reader, required []string) (*rowReader, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, col := range header {
		cols[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range required {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return &rowReader{reader: reader, cols: cols, line: 1}, nil
}

func (rr *rowReader) next() (bool, error) {
	row, err := rr.reader.Read()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read CSV row: %w", err)
	}
	rr.row = row
	rr.line++
	return true, nil
}

func (rr *rowReader) str(col string) string {
	if idx, ok := rr.cols[col]; ok && idx < len(rr.row) {
		return strings.TrimSpace(rr.row[idx])
	}
	return ""
}

func (rr *rowReader) intVal(col string) int {
	val := rr.str(col)
	if val == "" {
		return 0
	}
	// Handle float strings like "1.0"
	f, _ := strconv.ParseFloat(val, 64)
	return int(f)
}

func (rr *rowReader) floatVal(col string) float64 {
	val := rr.str(col)
	if val == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(val, 64)
	return f
}

func (rr *rowReader) dateVal(col string) (time.Time, error) {
	val := rr.str(col)
	d, err := time.Parse(dateLayout, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("line %d: bad date %q in column %s", rr.line, val, col)
	}
	return d, nil
}

// ParseSalesCSV reads one day's sales export. Rows with a missing item id or
// an unparseable date are skipped with a warning; a bad row must not sink the
// rest of the day's data.
func ParseSalesCSV(r io.Reader) ([]domain.SalesRecord, error) {
	rr, err := newRowReader(r, []string{"date", "item_id", "sale_qty", "stock_qty"})
	if err != nil {
		return nil, err
	}

	var records []domain.SalesRecord
	for {
		ok, err := rr.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		itemID := rr.str("item_id")
		if itemID == "" {
			log.Warn().Int("line", rr.line).Msg("sales row without item id skipped")
			continue
		}

		date, err := rr.dateVal("date")
		if err != nil {
			log.Warn().Err(err).Msg("sales row with bad date skipped")
			continue
		}

		records = append(records, domain.SalesRecord{
			Date:       date,
			ItemID:     itemID,
			SaleQty:    rr.intVal("sale_qty"),
			OrderQty:   rr.intVal("order_qty"),
			ReceiveQty: rr.intVal("receive_qty"),
			DisuseQty:  rr.intVal("disuse_qty"),
			StockQty:   rr.intVal("stock_qty"),
		})
	}

	return records, nil
}

// ParseItemsCSV reads the item master export.
func ParseItemsCSV(r io.Reader) ([]domain.Item, error) {
	rr, err := newRowReader(r, []string{"item_id", "category_code"})
	if err != nil {
		return nil, err
	}

	var items []domain.Item
	for {
		ok, err := rr.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		itemID := rr.str("item_id")
		if itemID == "" {
			log.Warn().Int("line", rr.line).Msg("item row without item id skipped")
			continue
		}

		status := domain.ItemStatus(strings.ToLower(rr.str("status")))
		if status == "" {
			status = domain.ItemActive
		}

		items = append(items, domain.Item{
			ItemID:        itemID,
			Name:          rr.str("name"),
			CategoryCode:  strings.ToUpper(rr.str("category_code")),
			ShelfLifeDays: rr.intVal("shelf_life_days"),
			OrderUnit:     rr.intVal("order_unit"),
			MaxMultiplier: rr.intVal("max_multiplier"),
			MarginRate:    rr.floatVal("margin_rate"),
			Status:        status,
		})
	}

	return items, nil
}

// ParsePromotionsCSV reads the promotion schedule export.
func ParsePromotionsCSV(r io.Reader) ([]domain.Promotion, error) {
	rr, err := newRowReader(r, []string{"item_id", "buy_qty", "get_qty", "starts_on", "ends_on"})
	if err != nil {
		return nil, err
	}

	var promos []domain.Promotion
	for {
		ok, err := rr.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		itemID := rr.str("item_id")
		if itemID == "" {
			log.Warn().Int("line", rr.line).Msg("promotion row without item id skipped")
			continue
		}

		starts, err := rr.dateVal("starts_on")
		if err != nil {
			log.Warn().Err(err).Msg("promotion row with bad start date skipped")
			continue
		}
		ends, err := rr.dateVal("ends_on")
		if err != nil {
			log.Warn().Err(err).Msg("promotion row with bad end date skipped")
			continue
		}

		promos = append(promos, domain.Promotion{
			ItemID:    itemID,
			PromoType: rr.str("promo_type"),
			BuyQty:    rr.intVal("buy_qty"),
			GetQty:    rr.intVal("get_qty"),
			StartsOn:  starts,
			EndsOn:    ends,
		})
	}

	return promos, nil
}
