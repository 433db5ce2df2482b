package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	t.Run("lowercases and trims", func(t *testing.T) {
		assert.Equal(t, "acme corp", NormalizeText("  ACME Corp  "))
	})

	t.Run("collapses internal whitespace", func(t *testing.T) {
		assert.Equal(t, "acme corp inc", NormalizeText("Acme \t Corp\n\nInc"))
	})

	t.Run("empty stays empty", func(t *testing.T) {
		assert.Equal(t, "", NormalizeText("   "))
	})
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"formatted us number", "(555) 123-4567", "5551234567"},
		{"country code", "+1-555-123-4567", "15551234567"},
		{"dots", "555.123.4567", "5551234567"},
		{"no digits", "n/a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "john@acme.com", NormalizeEmail("  John@ACME.com "))
}

func TestNormalizeWebsite(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"full url", "https://www.acme.com/", "acme.com"},
		{"http scheme", "http://acme.com", "acme.com"},
		{"bare domain", "Acme.com", "acme.com"},
		{"www only", "www.acme.com", "acme.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeWebsite(tt.input))
		})
	}
}

func TestNormalizePostalCode(t *testing.T) {
	assert.Equal(t, "941051234", NormalizePostalCode("94105-1234"))
	assert.Equal(t, "K1A0B1", NormalizePostalCode("k1a 0b1"))
}

func TestForField(t *testing.T) {
	t.Run("routes email", func(t *testing.T) {
		assert.Equal(t, "a@x.com", ForField("email", " A@X.com "))
	})

	t.Run("routes phone", func(t *testing.T) {
		assert.Equal(t, "5551234567", ForField("phone", "(555) 123-4567"))
	})

	t.Run("routes website", func(t *testing.T) {
		assert.Equal(t, "acme.com", ForField("website", "https://www.acme.com"))
	})

	t.Run("routes postal code", func(t *testing.T) {
		assert.Equal(t, "94105", ForField("postal_code", " 94105 "))
	})

	t.Run("defaults to text", func(t *testing.T) {
		assert.Equal(t, "acme inc", ForField("company_name", " ACME  Inc "))
	})
}

func TestRegistry(t *testing.T) {
	t.Run("known normalizer", func(t *testing.T) {
		assert.Equal(t, "abc", Apply(" ABC ", "ntext"))
	})

	t.Run("unknown normalizer passes through", func(t *testing.T) {
		assert.Equal(t, " ABC ", Apply(" ABC ", "nope"))
	})

	t.Run("custom registration", func(t *testing.T) {
		Register("shout", func(s string) string { return s + "!" })
		fn, ok := Get("shout")
		assert.True(t, ok)
		assert.Equal(t, "hi!", fn("hi"))
	})
}
