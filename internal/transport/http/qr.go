package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"live-quiz-service/internal/app"
)

const qrSize = 320

// QRHandler renders the join URL of a live room as a PNG QR code.
type QRHandler struct {
	service   *app.QuizService
	publicURL string
}

func NewQRHandler(service *app.QuizService, publicURL string) *QRHandler {
	return &QRHandler{service: service, publicURL: strings.TrimRight(publicURL, "/")}
}

// JoinURL is the QR payload: the player page with the code as a query parameter.
func (h *QRHandler) JoinURL(r *http.Request, code string) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/play?code=" + url.QueryEscape(code)
}

func (h *QRHandler) ServeQR(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	png, err := qrcode.Encode(h.JoinURL(c.Request, snap.Code), qrcode.Medium, qrSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
