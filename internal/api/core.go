package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"

	"github.com/gin-gonic/gin"

	"fortuna/internal/engine"
	"fortuna/internal/mlmapi"
	"fortuna/internal/store"
)

var ctx = context.Background()

func appEngine(app *mlmapi.App) *engine.Engine {
	return engine.New(store.NewGorm(app.Db), nil)
}

func newOtp() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

// currentUser resolves the authenticated row from the jwt email set by the
// middleware. A false return means the response was already written.
func currentUser(c *gin.Context) (*mlmapi.App, mlmapi.User, bool) {
	app := c.MustGet("app").(*mlmapi.App)
	email := c.GetString("email")

	var user mlmapi.User
	res := app.Db.Where("email = ?", email).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return app, user, false
	}
	if user.Blocked {
		c.JSON(http.StatusForbidden, gin.H{"error": "account blocked"})
		return app, user, false
	}
	return app, user, true
}

// GetAppConfig serves the cached platform settings.
func GetAppConfig(c *gin.Context) {
	app := c.MustGet("app").(*mlmapi.App)
	appConfigRaw, _ := app.Rdb.Get(ctx, "app_config").Result()
	if len(appConfigRaw) > 0 {
		_ = json.Unmarshal([]byte(appConfigRaw), &mlmapi.CurrentAppConfig)
	}
	c.JSON(http.StatusOK, mlmapi.CurrentAppConfig)
}
