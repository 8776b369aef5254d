package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount: денежная сумма в сотых долях валюты. Сравнение только целочисленное.
type Amount int64

const (
	amountScale     = 100
	amountFracDigit = 2
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount разбирает десятичную строку вида "1500", "1500.5", "1500.50" без float.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if intPart == "" || (hasDot && fracPart == "") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if len(fracPart) > amountFracDigit {
		return 0, fmt.Errorf("%w: at most %d fractional digits allowed", ErrInvalidAmount, amountFracDigit)
	}
	if !digitsOnly(intPart) || !digitsOnly(fracPart) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || whole > math.MaxInt64/amountScale-1 {
		return 0, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	for len(fracPart) < amountFracDigit {
		fracPart += "0"
	}
	frac, _ := strconv.ParseInt(fracPart, 10, 64)
	return Amount(whole*amountScale + frac), nil
}

func digitsOnly(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// String возвращает сумму с двумя знаками после точки
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/amountScale, v%amountScale)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON принимает число или строку, литерал разбирается как десятичный
func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		unq, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, raw)
		}
		raw = unq
	}
	v, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// NormalizeCurrency приводит код валюты к верхнему регистру и проверяет формат ISO 4217
func NormalizeCurrency(s string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(s))
	if len(c) != 3 {
		return "", errors.New("currency must be 3-letter ISO code")
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", errors.New("currency must be 3-letter ISO code")
		}
	}
	return c, nil
}
