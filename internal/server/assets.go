package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helixlab/helixdash/assets"
)

const assetsMaxAge = "public, max-age=3600"

// SetupAssets serves the embedded stylesheet and script under /assets.
func SetupAssets(r *gin.Engine) error {
	f, err := assets.Assets.Open("js/app.js")
	if err != nil {
		return err
	}
	_ = f.Close()
	static := r.Group("/assets", func(c *gin.Context) {
		c.Header("Cache-Control", assetsMaxAge)
		c.Next()
	})
	static.StaticFS("/", http.FS(assets.Assets))
	return nil
}
