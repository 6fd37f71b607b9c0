package models

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// 字段校验边界
const (
	PlateMinLen   = 3
	PlateMaxLen   = 10
	NameMinLen    = 2
	NameMaxLen    = 50
	MaxKM         = 9_999_999
	MaxFuelLiters = 1000
	DateLayout    = "2006-01-02"
)

// NormalizePlate 规范化车牌：去空格、转大写，长度 3..10
func NormalizePlate(plate string) (string, error) {
	p := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(plate), " ", ""))
	if n := utf8.RuneCountInString(p); n < PlateMinLen || n > PlateMaxLen {
		return "", errors.New("plate must be 3 to 10 characters")
	}
	return p, nil
}

// NormalizeName 规范化姓名：每个词首字母大写，长度 2..50，按字符而非字节计数
func NormalizeName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if c := utf8.RuneCountInString(n); c < NameMinLen || c > NameMaxLen {
		return "", errors.New("name must be 2 to 50 characters")
	}
	words := strings.Fields(strings.ToLower(n))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " "), nil
}

// ValidDate 校验日期格式 YYYY-MM-DD
func ValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// ValidKM 校验里程范围
func ValidKM(km float64) bool {
	return km >= 0 && km <= MaxKM
}

// ValidFuelLiters 校验单次加油量
func ValidFuelLiters(liters float64) bool {
	return liters > 0 && liters <= MaxFuelLiters
}
