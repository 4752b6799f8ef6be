package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"valentine-server/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTemplateRenderer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, err := web.NewTemplateRenderer(zap.NewNop(), nil)
	require.NoError(t, err)

	router := gin.New()
	router.HTMLRender = r
	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, web.LetterPage, web.NewLetterPageData("/ws/letter"))
	})
	router.GET("/missing", func(c *gin.Context) {
		c.HTML(http.StatusNotFound, web.NotFoundPage, web.NotFoundPageData{Title: "Not found", Path: "/nope<script>"})
	})

	t.Run("Letter page", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Will you be my Valentine?")
		assert.Contains(t, body, "Keep Reading")
		assert.Contains(t, body, "Error 404")
		assert.Contains(t, body, `id="answered-no"`)
		assert.Contains(t, body, "Thank you for being honest with me.")
		assert.Contains(t, body, `id="escalated-yes" data-intent="choose_yes"`)
		assert.Contains(t, body, "yes_available")
		assert.Contains(t, body, "ws")
		assert.Contains(t, body, "letter")
	})

	t.Run("Not found page escapes path", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "/nope&lt;script&gt;")
	})
}
