package hostedpage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount float64
		digits int
		want   string
	}{
		{0, 2, "0.00"},
		{25.5, 2, "25.50"},
		{1234.5, 2, "1,234.50"},
		{1234567.891, 2, "1,234,567.89"},
		{1000, 0, "1,000"},
		{999.999, 2, "1,000.00"},
		{-1234.5, 2, "-1,234.50"},
		{500, 3, "500.000"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatAmount(c.amount, c.digits), "FormatAmount(%v, %d)", c.amount, c.digits)
	}
}

func TestRenderIncludesIntentAndSecret(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	page, err := r.Render(Params{
		MerchantReference:   "order-9",
		DisplayAmount:       "$ 1,234.50",
		NumericAmount:       1234.5,
		VerificationDetails: `{"amount":"1234.50","intent":"CHARGE"}`,
		CurrencyCode:        "AUD",
		CountryCode:         "AU",
		IntentID:            "int_render",
		ClientSecret:        "cs_render",
		ActionURL:           "https://merchant.example/checkout/p9",
		Sandbox:             true,
	})
	require.NoError(t, err)
	assert.Contains(t, page, `{"amount":"1234.50","intent":"CHARGE"}`, "verification details must land in the script verbatim")
	assert.Contains(t, page, "int_render")
	assert.Contains(t, page, "cs_render")
	assert.Contains(t, page, "$ 1,234.50")
	assert.Contains(t, page, "order-9")
	assert.Contains(t, page, `action="https://merchant.example/checkout/p9"`)
	assert.Contains(t, page, "'demo'")
	assert.NotContains(t, page, "class=\"logo\"", "no logo block without an ImgURL")
}

func TestRenderProductionEnv(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	page, err := r.Render(Params{IntentID: "i", ClientSecret: "s", Sandbox: false})
	require.NoError(t, err)
	assert.Contains(t, page, "'prod'")
	assert.NotContains(t, page, "'demo'")
}

func TestRenderEscapesMerchantData(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	page, err := r.Render(Params{
		MerchantReference: `<script>alert(1)</script>`,
		IntentID:          "i",
		ClientSecret:      "s",
	})
	require.NoError(t, err)
	assert.NotContains(t, page, "<script>alert(1)</script>")
}
