package banner

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanner(t *testing.T) {
	var sb strings.Builder
	err := Banner(BannerProps{
		ID:          "login-error",
		Type:        BannerError,
		Message:     "Invalid <email>",
		Description: "Please check your credentials",
		Dismissable: true,
		AutoDismiss: 5,
	}).Render(context.Background(), &sb)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(sb.String()))
	require.NoError(t, err)

	b := doc.Find("#login-error")
	require.Equal(t, 1, b.Length())
	role, _ := b.Attr("role")
	assert.Equal(t, "alert", role)
	dismiss, _ := b.Attr("data-auto-dismiss")
	assert.Equal(t, "5", dismiss)
	assert.Equal(t, "Invalid <email>", b.Find("p.font-medium").Text())
	assert.Equal(t, 1, b.Find("button.banner-dismiss").Length())
	assert.NotContains(t, sb.String(), "<email>")
}

func TestBannerDefaults(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, Banner(BannerProps{Message: "Signed out"}).Render(context.Background(), &sb))
	assert.Contains(t, sb.String(), `data-banner="info"`)
	assert.Contains(t, sb.String(), `role="status"`)
	assert.NotContains(t, sb.String(), "banner-dismiss")
}
