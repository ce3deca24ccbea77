package timesheet

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Hours は作業時間を 1/100 時間単位の整数で保持します。
// 小数第 2 位までを正確に合計できるよう浮動小数点は使いません。
type Hours int64

// MaxHours は NUMERIC(7,2) の列に格納できる絶対値の上限です。
const MaxHours Hours = 9_999_999

// InRange は値が ±MaxHours に収まるかを返します。
func (h Hours) InRange() bool {
	return h >= -MaxHours && h <= MaxHours
}

// HoursFromFloat は小数第 2 位で四捨五入して Hours を作ります。
// 格納できない値や NaN は ErrInvalidHours です。
func HoursFromFloat(f float64) (Hours, error) {
	scaled := math.Round(f * 100)
	if math.IsNaN(scaled) || math.Abs(scaled) > float64(MaxHours) {
		return 0, fmt.Errorf("%w: %v out of range", ErrInvalidHours, f)
	}
	return Hours(scaled), nil
}

// ParseHours は "7.5" や "7.25" のような十進表記を解釈します。
// 小数第 3 位以下は四捨五入されます。
func ParseHours(raw string) (Hours, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidHours)
	}
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidHours, raw)
		}
		return HoursFromFloat(f)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHours, raw)
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHours, raw)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > int64(MaxHours)/100 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidHours, raw)
	}

	padded := frac + "000"
	cents := int64(padded[0]-'0')*10 + int64(padded[1]-'0')
	if padded[2] >= '5' {
		cents++
	}

	total := Hours(units*100 + cents)
	if neg {
		total = -total
	}
	if !total.InRange() {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidHours, raw)
	}
	return total, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Hundredths は 1/100 時間単位の値を返します。
func (h Hours) Hundredths() int64 {
	return int64(h)
}

// Float64 は時間を浮動小数点で返します。表示や集計の出力用です。
func (h Hours) Float64() float64 {
	return float64(h) / 100
}

// String は小数第 2 位までの十進表記を返します。
func (h Hours) String() string {
	v := int64(h)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON は JSON の数値として出力します。
func (h Hours) MarshalJSON() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalJSON は JSON の数値と文字列の両方を受け付けます。
func (h *Hours) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidHours, raw)
		}
		raw = unquoted
	}
	parsed, err := ParseHours(raw)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// SumHours は明細の作業時間を合計します。明細が無ければ 0 です。
func SumHours(entries []*Entry) Hours {
	var total Hours
	for _, e := range entries {
		if e == nil {
			continue
		}
		total += e.HoursWorked
	}
	return total
}
