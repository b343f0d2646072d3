package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newEngine mounts handlers in front of a GET and POST /t route answering
// 200 with the userID the chain left behind
func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.Use(handlers...)

	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString("userID")})
	}
	r.GET("/t", ok)
	r.POST("/t", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "bad body"})
			return
		}
		ok(c)
	})

	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newEngine()

	a := do(r, httptest.NewRequest(http.MethodGet, "/t", nil)).Header().Get("X-Request-ID")
	b := do(r, httptest.NewRequest(http.MethodGet, "/t", nil)).Header().Get("X-Request-ID")

	if len(a) != 10 || len(b) != 10 {
		t.Fatalf("unexpected request id lengths %q %q", a, b)
	}

	if a == b {
		t.Fatal("request ids repeat")
	}
}
