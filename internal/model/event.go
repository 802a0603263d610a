// Package model defines the records persisted in the JSON collections.
//
// Each record type maps 1:1 to the objects stored in its backing file, so
// the `json:"..."` tags here ARE the on-disk format. Changing a tag changes
// the file layout; keep that in mind before renaming anything.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ProductDetail is one cake ordered for an event.
//
// Field names are Portuguese because they are the wire/disk names used by
// the existing frontend: nome = name, peso = weight, descricao = description.
type ProductDetail struct {
	Nome      string `json:"nome"`
	Peso      string `json:"peso"`
	Descricao string `json:"descricao"`
}

// UnmarshalJSON accepts numbers and booleans in place of strings ("peso": 2).
// An item that is not an object is read as an item holding only a name.
func (p *ProductDetail) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var name looseString
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*p = ProductDetail{Nome: string(name)}
		return nil
	}

	var w struct {
		Nome      looseString `json:"nome"`
		Peso      looseString `json:"peso"`
		Descricao looseString `json:"descricao"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = ProductDetail{Nome: string(w.Nome), Peso: string(w.Peso), Descricao: string(w.Descricao)}
	return nil
}

// looseString decodes any JSON scalar as text. Legacy records were written
// by clients that did not agree on types, so a weight may be 2 or "2kg".
// null reads as "", objects and arrays keep their compact JSON text.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
	case 't', 'f':
		b, err := strconv.ParseBool(string(data))
		if err != nil {
			return err
		}
		*s = looseString(strconv.FormatBool(b))
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*s = looseString(buf.String())
	default:
		// Keep the number as written: 1.5 stays "1.5", not "1.500000".
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*s = looseString(n.String())
	}
	return nil
}

// Event is a scheduled order/event.
//
// CANONICAL vs LEGACY PRODUCT SHAPES:
// Older revisions stored the products of an event in three different ways:
//
//	"products":        "Cake A\nCake B"                   (flat text, one per line)
//	"produto"/"peso"/"descricao": "Cake A" / "1kg" / "..." (single item)
//	"bolosDetalhados": "[{\"nome\":\"Cake A\",...}]"      (list encoded as a string)
//
// The only persisted shape is Products as a real JSON array under
// "bolosDetalhados". UnmarshalJSON accepts all the legacy shapes and converts
// them; MarshalJSON only ever writes the canonical one, so the next save of
// the collection rewrites legacy records for good.
type Event struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"       validate:"notblank"`
	Description string          `json:"description"`
	Date        string          `json:"date"        validate:"notblank"`
	Time        string          `json:"time"        validate:"notblank"`
	Address     string          `json:"address"     validate:"notblank"`
	Status      string          `json:"status"      validate:"notblank"`
	Products    []ProductDetail `json:"bolosDetalhados"`

	// migrated is set when decoding converted a legacy product shape.
	// Unexported, so it never reaches the file.
	migrated bool
}

// Migrated reports whether this event was decoded from a legacy product
// shape and has not been written back in canonical form yet.
func (e *Event) Migrated() bool {
	return e.migrated
}

// SearchText is the text matched by the events search filter.
func (e *Event) SearchText() string {
	return e.Title + " " + e.Description + " " + e.Address
}

// eventWire is the decoding view of Event. It has the canonical fields plus
// every legacy field, with bolosDetalhados kept raw because it may hold
// either an array or a string.
type eventWire struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
	Address         string          `json:"address"`
	Status          string          `json:"status"`
	BolosDetalhados json.RawMessage `json:"bolosDetalhados"`

	LegacyProducts looseString `json:"products"`
	Produto        looseString `json:"produto"`
	Peso           looseString `json:"peso"`
	Descricao      looseString `json:"descricao"`
}

// UnmarshalJSON decodes an event in any known shape.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*e = Event{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Date:        w.Date,
		Time:        w.Time,
		Address:     w.Address,
		Status:      w.Status,
	}

	products, fromString, err := decodeDetails(w.BolosDetalhados)
	if err != nil {
		return err
	}
	e.Products = products
	e.migrated = fromString

	if len(e.Products) > 0 {
		return nil
	}

	switch {
	case strings.TrimSpace(string(w.Produto)) != "":
		e.Products = []ProductDetail{{Nome: string(w.Produto), Peso: string(w.Peso), Descricao: string(w.Descricao)}}
		e.migrated = true
	case strings.TrimSpace(string(w.LegacyProducts)) != "":
		e.Products = SplitLegacyProducts(string(w.LegacyProducts))
		e.migrated = true
	}
	return nil
}

// MarshalJSON writes the canonical shape. Products is never null so clients
// can always iterate it.
func (e Event) MarshalJSON() ([]byte, error) {
	type canonical Event
	c := canonical(e)
	if c.Products == nil {
		c.Products = []ProductDetail{}
	}
	return json.Marshal(c)
}

// SplitLegacyProducts converts the flat one-product-per-line text into
// structured items. Weight and description are left empty to be completed
// by hand later.
func SplitLegacyProducts(text string) []ProductDetail {
	var items []ProductDetail
	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		items = append(items, ProductDetail{Nome: name})
	}
	return items
}

// DecodeProductDetails reads a standalone bolosDetalhados value, accepting
// the same array and encoded-string forms as Event.
func DecodeProductDetails(raw json.RawMessage) ([]ProductDetail, error) {
	items, _, err := decodeDetails(raw)
	return items, err
}

// decodeDetails reads bolosDetalhados as an array, or as a string holding
// an encoded array (or single object). fromString is true for the latter.
// A string that is not JSON at all is read like the flat products text.
func decodeDetails(raw json.RawMessage) (items []ProductDetail, fromString bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false, nil
	}

	if raw[0] != '"' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, false, err
		}
		return items, false, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, false, err
	}
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return nil, false, nil
	}
	if !json.Valid([]byte(trimmed)) || (trimmed[0] != '[' && trimmed[0] != '{') {
		// Some clients sent plain text here.
		return SplitLegacyProducts(encoded), true, nil
	}

	if trimmed[0] == '{' {
		var item ProductDetail
		if err := json.Unmarshal([]byte(trimmed), &item); err != nil {
			return nil, false, err
		}
		return []ProductDetail{item}, true, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}
