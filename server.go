package main

import (
	"net"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"wavesurvival/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // non-browser clients
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Server bundles what the HTTP routes need
type Server struct {
	Config Config
	Hub    *LeaderboardHub
	API    *API
}

// SetupRoutes configures HTTP routes
func SetupRoutes(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	api := s.API

	mux.HandleFunc("GET /api/scores", api.handleTopScores)
	mux.HandleFunc("POST /api/scores", api.handleSubmitScore)
	mux.HandleFunc("GET /api/stats", api.handleTopStats)
	mux.HandleFunc("GET /api/stats/{username}", api.handlePlayerStats)
	mux.HandleFunc("GET /api/share/{username}", api.handleShare(s.Config.PublicURL))
	mux.HandleFunc("GET /api/activity", api.handleActivity)
	mux.HandleFunc("POST /api/auth/register", api.handleRegister)
	mux.HandleFunc("POST /api/auth/login", api.handleLogin)

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		hub := s.Hub
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Warn("upgrade", "ip", ip, "err", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip, protocol.ParseEncoding(r.URL.Query().Get("enc")))
		hub.log.Debug("client connected", "conn", client.id, "ip", ip, "enc", client.enc)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	})

	if dir := s.Config.StaticDir; dir != "" {
		fs := http.FileServer(http.Dir(dir))
		mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			fs.ServeHTTP(w, r)
		}))
	}

	return mux
}
