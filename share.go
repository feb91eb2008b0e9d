package main

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// shareURL is the public link to a player's stats
func shareURL(base, username string) string {
	return strings.TrimRight(base, "/") + "/api/stats/" + url.PathEscape(username)
}

// handleShare renders a QR code pointing at the player's stats page
func (a *API) handleShare(publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := strings.TrimSpace(r.PathValue("username"))
		if username == "" {
			writeMessage(w, http.StatusBadRequest, errUsernameRequired.Error())
			return
		}
		if _, err := a.db.GetStats(username); err != nil {
			if errors.Is(err, ErrStatsNotFound) {
				writeMessage(w, http.StatusNotFound, "Player stats not found")
				return
			}
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}

		size := defaultQRSize
		if v := r.URL.Query().Get("size"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < minQRSize || n > maxQRSize {
				writeMessage(w, http.StatusBadRequest, "size must be between 64 and 1024")
				return
			}
			size = n
		}

		base := publicURL
		if base == "" {
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			base = scheme + "://" + r.Host
		}
		png, err := qrcode.Encode(shareURL(base, username), qrcode.Medium, size)
		if err != nil {
			a.log.Error("qr encode", "username", username, "err", err)
			writeMessage(w, http.StatusInternalServerError, "could not render code")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	}
}
