package datasources

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gridrun/internal/models"
)

// ErrMalformedRow is returned for a result row that cannot become a PairRecord
var ErrMalformedRow = errors.New("malformed row")

// number accepts a JSON number or a numeric string; null decodes to zero
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}

	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	*n = number(v)
	return nil
}

// timestampLayouts are tried in order; zoneless layouts are read as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// timestamp accepts the string layouts above or unix seconds
type timestamp time.Time

func (t *timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = timestamp{}
		return nil
	}

	if len(b) > 0 && b[0] != '"' {
		secs, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("not a timestamp: %s", b)
		}
		whole := int64(secs)
		*t = timestamp(time.Unix(whole, int64((secs-float64(whole))*1e9)).UTC())
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	*t = timestamp(parsed)
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

type rowPoint struct {
	Price     number    `json:"price"`
	Timestamp timestamp `json:"timestamp"`
}

type row struct {
	PairName     string          `json:"pair_name"`
	Volume24h    number          `json:"volume_24h"`
	CurrentPrice number          `json:"current_price"`
	PriceHistory json.RawMessage `json:"price_history"`
}

func (r row) record() (models.PairRecord, error) {
	if strings.TrimSpace(r.PairName) == "" {
		return models.PairRecord{}, fmt.Errorf("%w: missing pair_name", ErrMalformedRow)
	}

	raw := bytes.TrimSpace(r.PriceHistory)
	// aggregated columns sometimes arrive as JSON text
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return models.PairRecord{}, fmt.Errorf("%w: %s: price_history: %v", ErrMalformedRow, r.PairName, err)
		}
		raw = []byte(text)
	}

	var points []rowPoint
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &points); err != nil {
			return models.PairRecord{}, fmt.Errorf("%w: %s: price_history: %v", ErrMalformedRow, r.PairName, err)
		}
	}

	history := make([]models.PricePoint, len(points))
	for i, p := range points {
		history[i] = models.PricePoint{Price: float64(p.Price), Timestamp: time.Time(p.Timestamp)}
	}

	return models.PairRecord{
		PairName:     strings.TrimSpace(r.PairName),
		Volume24h:    float64(r.Volume24h),
		CurrentPrice: float64(r.CurrentPrice),
		PriceHistory: history,
	}, nil
}

// DecodeRows converts result rows into records. Rows that fail to decode are
// logged and dropped so one bad row cannot sink the snapshot.
func DecodeRows(rows []json.RawMessage) []models.PairRecord {
	records := make([]models.PairRecord, 0, len(rows))
	for i, raw := range rows {
		var r row
		if err := json.Unmarshal(raw, &r); err != nil {
			log.Warn().Int("row", i).Err(err).Msg("Dropping undecodable row")
			continue
		}
		rec, err := r.record()
		if err != nil {
			log.Warn().Int("row", i).Err(err).Msg("Dropping undecodable row")
			continue
		}
		records = append(records, rec)
	}
	return records
}

// DecodeResult reads a result document. Accepted shapes are
// {"result":{"rows":[...]}}, {"result":[...]} and a bare array of rows.
func DecodeResult(body []byte) ([]models.PairRecord, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedRow)
	}

	if body[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		return DecodeRows(rows), nil
	}

	var doc struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}

	result := bytes.TrimSpace(doc.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, fmt.Errorf("decode result: missing result")
	}

	var rows []json.RawMessage
	if result[0] == '[' {
		if err := json.Unmarshal(result, &rows); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
	} else {
		var wrapped struct {
			Rows []json.RawMessage `json:"rows"`
		}
		if err := json.Unmarshal(result, &wrapped); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		rows = wrapped.Rows
	}
	return DecodeRows(rows), nil
}
