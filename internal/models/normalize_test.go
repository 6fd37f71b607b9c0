package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePlate(t *testing.T) {
	plate, err := NormalizePlate(" ab 123 cd ")
	require.NoError(t, err)
	assert.Equal(t, "AB123CD", plate)

	_, err = NormalizePlate("ab")
	assert.Error(t, err)

	_, err = NormalizePlate("abcdefghijk")
	assert.Error(t, err)
}

func TestNormalizeName(t *testing.T) {
	name, err := NormalizeName("  mario ROSSI ")
	require.NoError(t, err)
	assert.Equal(t, "Mario Rossi", name)

	_, err = NormalizeName("x")
	assert.Error(t, err)
}

func TestNormalizeNameMultibyte(t *testing.T) {
	name, err := NormalizeName("γιώργος παπαδόπουλος")
	require.NoError(t, err)
	assert.Equal(t, "Γιώργος Παπαδόπουλος", name)

	// 双字符希腊名长度按字符计
	name, err = NormalizeName("ζω")
	require.NoError(t, err)
	assert.Equal(t, "Ζω", name)
}

func TestNormalizePlateMultibyte(t *testing.T) {
	plate, err := NormalizePlate(" κηι 1234 ")
	require.NoError(t, err)
	assert.Equal(t, "ΚΗΙ1234", plate)
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2026-08-29"))
	assert.False(t, ValidDate("29/08/2026"))
	assert.False(t, ValidDate("2026-13-01"))
	assert.False(t, ValidDate(""))
}

func TestValidKM(t *testing.T) {
	assert.True(t, ValidKM(0))
	assert.True(t, ValidKM(9_999_999))
	assert.False(t, ValidKM(-1))
	assert.False(t, ValidKM(10_000_000))
}

func TestValidFuelLiters(t *testing.T) {
	assert.True(t, ValidFuelLiters(0.5))
	assert.True(t, ValidFuelLiters(1000))
	assert.False(t, ValidFuelLiters(0))
	assert.False(t, ValidFuelLiters(1000.1))
}
