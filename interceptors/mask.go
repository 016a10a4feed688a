package interceptors

import (
	"strings"
	"unicode"
)

// Masker hides sensitive parts of a logged argument.
type Masker interface {
	Mask(value string) string
}

// MaskerFunc adapts a function to Masker.
type MaskerFunc func(value string) string

// Mask calls f(value).
func (f MaskerFunc) Mask(value string) string {
	return f(value)
}

// Redact replaces every character with '*'.
var Redact Masker = MaskerFunc(func(value string) string {
	return stars(len(value))
})

// EmailMasker keeps the first character of the local part and the domain:
// alice@example.com becomes a***@example.com.
var EmailMasker Masker = MaskerFunc(func(value string) string {
	at := strings.LastIndex(value, "@")
	if at < 1 {
		return stars(len(value))
	}
	return value[:1] + "***" + value[at:]
})

// CardMasker keeps the last four digits of a card number and the
// separators between groups: 4111 1111 1111 1111 becomes **** **** **** 1111.
var CardMasker Masker = MaskerFunc(func(value string) string {
	return keepLastDigits(value, 4, true)
})

// PhoneMasker keeps the last four digits of a phone number.
var PhoneMasker Masker = MaskerFunc(func(value string) string {
	return keepLastDigits(value, 4, true)
})

// SSNMasker keeps the last four digits: 123-45-6789 becomes ***-**-6789.
var SSNMasker Masker = MaskerFunc(func(value string) string {
	return keepLastDigits(value, 4, true)
})

// NameMasker keeps the first letter of every word: John Smith becomes J*** S****.
var NameMasker Masker = MaskerFunc(func(value string) string {
	words := strings.Fields(value)
	for i, w := range words {
		r := []rune(w)
		words[i] = string(r[0]) + stars(len(r)-1)
	}
	return strings.Join(words, " ")
})

// keepLastDigits masks every digit except the last n. When keepLayout is
// set, non-digit characters stay in place; otherwise they are dropped.
// Values with fewer than n digits are masked completely.
func keepLastDigits(value string, n int, keepLayout bool) string {
	total := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			total++
		}
	}
	if total < n {
		return stars(len(value))
	}

	var b strings.Builder
	seen := 0
	for _, r := range value {
		switch {
		case unicode.IsDigit(r):
			seen++
			if seen > total-n {
				b.WriteRune(r)
			} else {
				b.WriteByte('*')
			}
		case keepLayout:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stars(n int) string {
	return strings.Repeat("*", n)
}
