package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	monitor *Monitor
}

func NewHandler(monitor *Monitor) *Handler {
	return &Handler{monitor: monitor}
}

// Healthz reports liveness. The backend state is informational and never
// fails the check.
func (h *Handler) Healthz(c *gin.Context) {
	st := h.monitor.Status()
	backend := "unknown"
	if st.Checked {
		backend = "down"
		if st.Up {
			backend = "up"
		}
	}
	body := gin.H{"status": "ok", "backend": backend}
	if st.Checked {
		body["checked_at"] = st.LastCheck.UTC().Format(time.RFC3339)
		body["latency_ms"] = st.Latency.Milliseconds()
	}
	c.JSON(http.StatusOK, body)
}
