package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/iOvergaard/Unikart/internal/ai"
	"github.com/iOvergaard/Unikart/internal/shared/logger"
	"github.com/iOvergaard/Unikart/internal/shared/types"
	"github.com/iOvergaard/Unikart/internal/simulation"
	"github.com/iOvergaard/Unikart/internal/track"
)

const (
	simHz       = 60
	broadcastHz = 30
	// maxFrameTime caps catch-up after a stall so the accumulator never
	// spirals.
	maxFrameTime = 0.25
)

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

type server struct {
	log      zerolog.Logger
	race     *simulation.Race
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	driver  string // client id currently controlling the human kart
}

func main() {
	_ = godotenv.Load()
	log := logger.New("raceserver")

	addr := getEnv("RACE_ADDR", ":9100")
	cfg := simulation.Config{
		TotalLaps:      getEnvInt("RACE_LAPS", 3),
		HumanCharacter: getEnv("RACE_CHARACTER", "sparkle"),
		Seed:           int64(getEnvInt("RACE_SEED", 0)),
	}
	level, err := ai.ParseLevel(getEnv("RACE_DIFFICULTY", "standard"))
	if err != nil {
		log.Fatal().Err(err).Msg("bad difficulty")
	}
	cfg.Difficulty = level

	def := track.DefaultDefinition()
	if path := os.Getenv("RACE_TRACK"); path != "" {
		def, err = track.LoadDefinition(path)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load track definition")
		}
	}

	race, err := simulation.New(cfg, def)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create race")
	}

	s := &server{
		log:  log,
		race: race,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}

	go s.runSimulationLoop()
	go s.runReplicationLoop()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWS)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", addr).Str("race", race.ID()).Str("track", def.Name).Msg("race server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "race": s.race.ID()})
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade error")
		return
	}

	c := &client{
		id:   "client_" + strconv.FormatInt(time.Now().UTC().UnixNano(), 10),
		conn: conn,
		send: make(chan []byte, 64),
	}
	s.register(c)
	s.log.Info().Str("client", c.id).Str("remote", r.RemoteAddr).Msg("client connected")

	snap := s.race.Snapshot()
	welcome := types.ServerEnvelope{
		Type:     "welcome",
		Tick:     snap.Tick,
		State:    &snap,
		ServerMS: time.Now().UTC().UnixMilli(),
		Message:  "connected",
	}
	if payload, err := json.Marshal(welcome); err == nil {
		select {
		case c.send <- payload:
		default:
		}
	}

	go s.writePump(c)
	s.readPump(c)
}

func (s *server) readPump(c *client) {
	defer func() {
		s.unregister(c.id)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Info().Str("client", c.id).Msg("client disconnected")
				return
			}
			s.log.Error().Str("client", c.id).Err(err).Msg("read error")
			return
		}

		var in types.ClientEnvelope
		if err := json.Unmarshal(msg, &in); err != nil {
			s.sendError(c, "bad_payload")
			continue
		}

		switch in.Type {
		case "input":
			if in.Input == nil {
				s.sendError(c, "missing_input")
				continue
			}
			// Only the first-seated client drives the human kart.
			if s.claimDriver(c.id) {
				s.race.ApplyInput(*in.Input)
			}
		case "ping":
			pong := types.ServerEnvelope{Type: "pong", ServerMS: time.Now().UTC().UnixMilli()}
			if payload, err := json.Marshal(pong); err == nil {
				select {
				case c.send <- payload:
				default:
				}
			}
		default:
			s.sendError(c, "unsupported_message_type")
		}
	}
}

func (s *server) writePump(c *client) {
	ticker := time.NewTicker(20 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				return
			}
		}
	}
}

func (s *server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
	if s.driver == "" {
		s.driver = c.id
	}
}

func (s *server) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[id]; ok {
		close(c.send)
		delete(s.clients, id)
	}
	if s.driver == id {
		// Hand the wheel to any remaining client and release the controls.
		s.driver = ""
		for next := range s.clients {
			s.driver = next
			break
		}
		s.race.ApplyInput(types.RaceInput{})
	}
}

func (s *server) claimDriver(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.driver == id
}

func (s *server) sendError(c *client, message string) {
	payload, _ := json.Marshal(types.ServerEnvelope{Type: "error", Message: message})
	select {
	case c.send <- payload:
	default:
	}
}

// runSimulationLoop steps the race at a fixed rate with an accumulator so the
// physics rate stays independent of wall-clock jitter.
func (s *server) runSimulationLoop() {
	const step = 1.0 / simHz
	ticker := time.NewTicker(time.Second / simHz)
	defer ticker.Stop()

	last := time.Now()
	acc := 0.0
	for range ticker.C {
		now := time.Now()
		elapsed := now.Sub(last).Seconds()
		last = now
		if elapsed > maxFrameTime {
			elapsed = maxFrameTime
		}
		acc += elapsed
		for acc >= step {
			s.race.Tick(step)
			acc -= step
		}
	}
}

func (s *server) runReplicationLoop() {
	ticker := time.NewTicker(time.Second / broadcastHz)
	defer ticker.Stop()

	for range ticker.C {
		state := s.race.Snapshot()
		env := types.ServerEnvelope{
			Type:     "state",
			Tick:     state.Tick,
			State:    &state,
			ServerMS: time.Now().UTC().UnixMilli(),
		}
		payload, err := json.Marshal(env)
		if err != nil {
			s.log.Error().Err(err).Msg("marshal state failed")
			continue
		}

		s.mu.RLock()
		for _, c := range s.clients {
			select {
			case c.send <- payload:
			default:
			}
		}
		s.mu.RUnlock()
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
