package httpgin

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusport/internal/domain"
	"campusport/internal/service/watch"
)

// streamFeed drains a live booking subscription into a server-sent event
// stream. The registration is cancelled when the client disconnects, so a
// closed tab cannot leak it.
func streamFeed(c *gin.Context, sub *watch.Subscription) {
	defer sub.Cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case snap, ok := <-sub.C:
			if !ok {
				return false
			}
			if snap == nil {
				snap = []domain.Booking{}
			}
			c.SSEvent("bookings", snap)
			return true
		}
	})
}
