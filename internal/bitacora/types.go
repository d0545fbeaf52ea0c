package bitacora

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// CheckPlaceholder is shown when a movement carries no cheque reference.
const CheckPlaceholder = "---"

// Movement is one element of the service response. Every field is optional.
type Movement struct {
	Hora       *Text `json:"hora,omitempty"`
	Cajero     *Text `json:"cajero,omitempty"`
	Turno      *Text `json:"turno,omitempty"`
	Cheque     *Text `json:"cheque,omitempty"`
	Movimiento *Text `json:"movimiento,omitempty"`
}

// Text is a display string decoded from any JSON scalar. The service is not
// strict about types ("turno": 1 and "turno": "1" both occur).
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '{', '[':
		return fmt.Errorf("expected scalar, got %s", kind(data[0]))
	default:
		// numbers, true, false
		if _, err := strconv.ParseFloat(string(data), 64); err != nil && string(data) != "true" && string(data) != "false" {
			return fmt.Errorf("unexpected value %s", data)
		}
		*t = Text(data)
	}
	return nil
}

func kind(b byte) string {
	if b == '{' {
		return "object"
	}
	return "array"
}

// MovementRecord is a render-ready row. Immutable once built.
type MovementRecord struct {
	Time        string `json:"hora"`
	CashierID   string `json:"cajero"`
	Shift       string `json:"turno"`
	CheckRef    string `json:"cheque"`
	Description string `json:"movimiento"`
}

// Record maps a response element to a row. A missing or null cheque becomes
// CheckPlaceholder; any other missing field becomes "".
func (m Movement) Record() MovementRecord {
	return MovementRecord{
		Time:        orDefault(m.Hora, ""),
		CashierID:   orDefault(m.Cajero, ""),
		Shift:       orDefault(m.Turno, ""),
		CheckRef:    orDefault(m.Cheque, CheckPlaceholder),
		Description: orDefault(m.Movimiento, ""),
	}
}

// Records maps a whole response. The result is never nil so an empty day
// still replaces the previous rows.
func Records(ms []Movement) []MovementRecord {
	out := make([]MovementRecord, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Record())
	}
	return out
}

// Cells returns the row in table column order.
func (r MovementRecord) Cells() []string {
	return []string{r.Time, r.CashierID, r.Shift, r.CheckRef, r.Description}
}

// Columns are the table headers in display order.
var Columns = []string{"Hora", "Cj", "Tn", "Cheque", "Movimiento"}

func orDefault(t *Text, def string) string {
	if t == nil {
		return def
	}
	return string(*t)
}
