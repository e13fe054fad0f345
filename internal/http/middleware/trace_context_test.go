package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/detailpage-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil || seen.RequestID != "req-1" {
		t.Fatalf("request id not propagated: %+v", seen)
	}
	if seen.TraceID == "" || len(seen.TraceID) != 32 {
		t.Fatalf("trace id should be minted as 32 hex chars: %q", seen.TraceID)
	}
	if got := rec.Header().Get("X-Trace-Id"); got != seen.TraceID {
		t.Fatalf("trace header: got=%q want=%q", got, seen.TraceID)
	}
}
