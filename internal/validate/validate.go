package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"storefront/internal/domain"
)

// MaxCartLines bounds the work a single checkout can ask for.
const MaxCartLines = 100

var (
	reUnsafe   = regexp.MustCompile(`[^A-Za-z0-9_\-.]`)
	reFileName = regexp.MustCompile(`^[A-Za-z0-9_\-.]{1,128}$`)
	imageExts  = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
)

// Name validates a product name: trimmed, 1-80 characters.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 80 {
		return "", false
	}
	return s, true
}

// ID parses a positive integer identifier (product or variant).
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func Price(p float64) bool { return p >= 0 }

func Stock(n int) bool { return n >= 0 }

// ImageExt returns the lower-cased extension when it is an accepted image type.
func ImageExt(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext, imageExts[ext]
}

// FileName accepts a bare stored file name: no separators, no traversal.
func FileName(s string) (string, bool) {
	if !reFileName.MatchString(s) || strings.Contains(s, "..") {
		return "", false
	}
	return s, true
}

// SafeName turns free text into something usable inside a file name.
func SafeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "cliente"
	}
	if len(s) > 40 {
		s = s[:40]
	}
	return reUnsafe.ReplaceAllString(s, "_")
}

// Cart parses a checkout body of the form
// {"products":[{"id":101,"quantity":2}, ...]}. It never touches the store;
// every malformed line is reported with its 1-based position.
func Cart(body []byte) ([]domain.CartLine, error) {
	var req struct {
		Products json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.New("request body must be a JSON object")
	}
	var raw []map[string]json.RawMessage
	if len(req.Products) == 0 || json.Unmarshal(req.Products, &raw) != nil || len(raw) == 0 {
		return nil, errors.New("no valid products received for the purchase")
	}
	if len(raw) > MaxCartLines {
		return nil, fmt.Errorf("too many products in the cart (max %d)", MaxCartLines)
	}

	lines := make([]domain.CartLine, 0, len(raw))
	for i, item := range raw {
		id, ok := integer(item["id"])
		if !ok {
			return nil, fmt.Errorf("product %d: id must be an integer", i+1)
		}
		qty, ok := integer(item["quantity"])
		if !ok || qty <= 0 || qty > 1_000_000 {
			return nil, fmt.Errorf("product %d (id %d): quantity must be a positive integer", i+1, id)
		}
		lines = append(lines, domain.CartLine{VariantID: id, Quantity: int(qty)})
	}
	return lines, nil
}

// integer accepts only JSON numbers without fraction or exponent.
func integer(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	return i, err == nil
}
