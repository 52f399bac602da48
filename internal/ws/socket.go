package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"quizroom/internal/game"
)

// Server speaks the realtime protocol: it decodes inbound events, applies
// the rate limiter, dispatches into the engine, and is the engine's Sender.
type Server struct {
	engine  *game.Engine
	limiter *game.RateLimiter

	mu    sync.RWMutex
	conns map[string]socketio.Conn
}

func New(limiter *game.RateLimiter) *Server {
	return &Server{
		limiter: limiter,
		conns:   make(map[string]socketio.Conn),
	}
}

// SetEngine breaks the construction cycle: the engine needs the Server as
// its Sender, the Server needs the engine for dispatch.
func (srv *Server) SetEngine(engine *game.Engine) { srv.engine = engine }

// Send implements game.Sender. Unknown destinations drop silently.
func (srv *Server) Send(connID, event string, payload any) {
	srv.mu.RLock()
	c := srv.conns[connID]
	srv.mu.RUnlock()
	if c == nil {
		return
	}
	c.Emit(event, payload)
}

// Broadcast implements game.Sender for lobby-wide advertisements.
func (srv *Server) Broadcast(event string, payload any) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	for _, c := range srv.conns {
		c.Emit(event, payload)
	}
}

// Connected implements game.Sender; the orphan sweeper keys off it.
func (srv *Server) Connected(connID string) bool {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	_, ok := srv.conns[connID]
	return ok
}

type hostJoinPayload struct {
	Quiz     game.Quiz     `json:"quiz"`
	Settings game.Settings `json:"settings"`
}

type playerJoinPayload struct {
	Pin  string `json:"pin"`
	Name string `json:"name"`
}

type changeNamePayload struct {
	NewName string `json:"newName"`
}

type submitAnswerPayload struct {
	Answer game.AnswerValue `json:"answer"`
}

type powerUpPayload struct {
	Kind game.PowerUpKind `json:"kind"`
}

// Mount attaches the Socket.IO server with all game handlers to the Gin
// engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		srv.mu.Lock()
		srv.conns[s.ID()] = s
		srv.mu.Unlock()
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", game.EvtHostJoin, func(s socketio.Conn, payload hostJoinPayload) map[string]any {
		return srv.safe(s, func() map[string]any {
			if !srv.allow(s, game.EvtHostJoin) {
				return map[string]any{"error": "rate-limited"}
			}
			sess, err := srv.engine.CreateGame(s.ID(), payload.Quiz, payload.Settings)
			if err != nil {
				return srv.err(s, err, "could not create game")
			}
			return map[string]any{"pin": sess.Pin, "gameId": sess.GameID}
		})
	})

	io.OnEvent("/", game.EvtPlayerJoin, func(s socketio.Conn, payload playerJoinPayload) map[string]any {
		return srv.safe(s, func() map[string]any {
			if !srv.allow(s, game.EvtPlayerJoin) {
				return map[string]any{"error": "rate-limited"}
			}
			if !game.ValidPinFormat(payload.Pin) {
				s.Emit(game.EvtInvalidPin, map[string]any{"message": "the PIN must be six digits"})
				return map[string]any{"error": "invalid-pin"}
			}
			p, err := srv.engine.JoinPlayer(s.ID(), payload.Pin, payload.Name)
			if err != nil {
				return srv.err(s, err, "could not join game")
			}
			return map[string]any{"playerId": p.ID, "playerName": p.Name}
		})
	})

	io.OnEvent("/", game.EvtPlayerChangeName, func(s socketio.Conn, payload changeNamePayload) map[string]any {
		return srv.safe(s, func() map[string]any {
			if err := srv.engine.RenamePlayer(s.ID(), payload.NewName); err != nil {
				if game.IsSilent(err) {
					return map[string]any{"ok": false}
				}
				s.Emit(game.EvtNameChanged, map[string]any{"success": false, "newName": payload.NewName})
				return srv.err(s, err, "could not change name")
			}
			return map[string]any{"ok": true}
		})
	})

	io.OnEvent("/", game.EvtStartGame, func(s socketio.Conn) map[string]any {
		return srv.safe(s, func() map[string]any {
			if !srv.allow(s, game.EvtStartGame) {
				return map[string]any{"error": "rate-limited"}
			}
			if err := srv.engine.Start(s.ID()); err != nil {
				if game.IsSilent(err) {
					return map[string]any{"ok": false}
				}
				return srv.err(s, err, "could not start game")
			}
			return map[string]any{"ok": true}
		})
	})

	io.OnEvent("/", game.EvtSubmitAnswer, func(s socketio.Conn, payload submitAnswerPayload) map[string]any {
		return srv.safe(s, func() map[string]any {
			if !srv.allow(s, game.EvtSubmitAnswer) {
				return map[string]any{"error": "rate-limited"}
			}
			// Rejections are emitted per answer; unknown senders get nothing.
			_ = srv.engine.SubmitAnswer(s.ID(), payload.Answer)
			return map[string]any{"ok": true}
		})
	})

	io.OnEvent("/", game.EvtNextQuestion, func(s socketio.Conn) map[string]any {
		return srv.safe(s, func() map[string]any {
			if !srv.allow(s, game.EvtNextQuestion) {
				return map[string]any{"error": "rate-limited"}
			}
			if err := srv.engine.Advance(s.ID()); err != nil && !game.IsSilent(err) {
				return srv.err(s, err, "could not advance")
			}
			return map[string]any{"ok": true}
		})
	})

	io.OnEvent("/", game.EvtPowerUp, func(s socketio.Conn, payload powerUpPayload) map[string]any {
		return srv.safe(s, func() map[string]any {
			if !srv.allow(s, game.EvtPowerUp) {
				return map[string]any{"error": "rate-limited"}
			}
			if err := srv.engine.UsePowerUp(s.ID(), payload.Kind); err != nil {
				if game.IsSilent(err) {
					return map[string]any{"ok": false}
				}
				return srv.err(s, err, "could not use power-up")
			}
			return map[string]any{"ok": true}
		})
	})

	io.OnEvent("/", game.EvtLeaveGame, func(s socketio.Conn) map[string]any {
		return srv.safe(s, func() map[string]any {
			srv.engine.Leave(s.ID())
			return map[string]any{"ok": true}
		})
	})

	io.OnEvent("/", game.EvtRestartGame, func(s socketio.Conn) map[string]any {
		return srv.safe(s, func() map[string]any {
			if err := srv.engine.Reset(s.ID()); err != nil {
				if game.IsSilent(err) {
					return map[string]any{"ok": false}
				}
				return srv.err(s, err, "could not reset game")
			}
			return map[string]any{"ok": true}
		})
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		sid := ""
		if s != nil {
			sid = s.ID()
		}
		log.Error().Str("sid", sid).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		srv.mu.Lock()
		delete(srv.conns, s.ID())
		srv.mu.Unlock()
		srv.limiter.Forget(s.ID())
		srv.engine.HandleDisconnect(s.ID())
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve stopped")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// allow applies the per-connection rate limit and tells the offender which
// event tripped it.
func (srv *Server) allow(s socketio.Conn, event string) bool {
	if srv.limiter.Allow(s.ID(), event) {
		return true
	}
	s.Emit(game.EvtRateLimited, map[string]any{
		"event":   event,
		"message": "too many " + event + " messages, slow down",
	})
	return false
}

// err emits the error on its dedicated channel when one exists, else on the
// generic error event, and returns the ack body.
func (srv *Server) err(s socketio.Conn, err error, message string) map[string]any {
	code := game.Code(err)
	payload := map[string]any{"code": code, "message": err.Error()}
	switch code {
	case "game-not-found", "name-taken", "player-limit-reached":
		s.Emit(code, payload)
	default:
		s.Emit(game.EvtError, payload)
	}
	log.Info().Str("sid", s.ID()).Str("code", code).Msg(message)
	return map[string]any{"error": code}
}

// safe runs a handler and converts a panic into a contained session fault:
// the offending session is released, the process keeps serving the rest.
func (srv *Server) safe(s socketio.Conn, fn func() map[string]any) (out map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("sid", s.ID()).Msg("handler fault")
			if m, ok := srv.engine.Member(s.ID()); ok {
				srv.engine.Terminate(m.Pin, game.ReasonInternal)
			}
			out = map[string]any{"error": "internal"}
		}
	}()
	return fn()
}
