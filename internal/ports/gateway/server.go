// Package gateway exposes the ledger runtimes over websocket and HTTP. It is
// a thin transport: clients sign transaction envelopes offline and the
// gateway routes them to the requested execution context, translating errors
// into stable symbolic codes and streaming game events back.
package gateway

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"flappy/internal/app"
	"flappy/internal/domain"
	"flappy/internal/ledger"
	"flappy/internal/ports/program"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The signature on every transaction is the real access control.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server routes client frames to the base and rollup runtimes.
type Server struct {
	programID ledger.ProgramID
	base      *ledger.Runtime
	rollup    *ledger.Runtime
	hub       *Broadcaster
	log       *logrus.Entry
}

func New(programID ledger.ProgramID, base, rollup *ledger.Runtime, log *logrus.Logger) *Server {
	return &Server{
		programID: programID,
		base:      base,
		rollup:    rollup,
		hub:       NewBroadcaster(),
		log:       log.WithField("component", "gateway"),
	}
}

// EventSink adapts the broadcaster to the program's event hook. Register the
// returned sink on the program instance so successful instructions stream to
// subscribed clients.
func (s *Server) EventSink() program.EventSink {
	return func(addr ledger.Address, ev app.Event) {
		s.hub.Publish(addr, Response{
			Type: "event",
			Event: &EventView{
				Account: addr.String(),
				Kind:    string(ev.Kind),
				Payload: ev.Payload,
			},
		})
	}
}

// Handler returns the HTTP routes served by the gateway.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/account", s.handleAccount)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleAccount serves a read-only account snapshot:
// GET /account?address=<hex>&context=base|rollup
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	rt, err := s.runtimeFor(r.URL.Query().Get("context"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	addr, err := ledger.ParseAddress(r.URL.Query().Get("address"))
	if err != nil {
		http.Error(w, "invalid address", http.StatusBadRequest)
		return
	}

	view, err := s.snapshot(rt, addr)
	if err != nil {
		http.Error(w, errorCode(err), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		s.log.WithError(err).Warn("failed to write account snapshot")
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := &client{
		server: s,
		conn:   conn,
		send:   make(chan Response, sendBuffer),
		subs:   make(map[ledger.Address]struct{}),
	}
	go c.writePump()
	c.readPump()
}

// client is one websocket connection. readPump handles request frames;
// writePump owns all writes to the connection.
type client struct {
	server *Server
	conn   *websocket.Conn
	send   chan Response
	subs   map[ledger.Address]struct{}
}

func (c *client) readPump() {
	defer func() {
		for addr := range c.subs {
			c.server.hub.Unsubscribe(addr, c.send)
		}
		close(c.send)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req Request
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.log.WithError(err).Debug("websocket read error")
			}
			return
		}
		c.send <- c.server.dispatch(c, &req)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case resp, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(resp); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch executes one request frame and returns the reply frame.
func (s *Server) dispatch(c *client, req *Request) Response {
	switch req.Type {
	case "tx":
		if req.Tx == nil {
			return errResponse("", "BadRequest", "tx frame without tx payload")
		}
		return s.submitTx(req.Tx)
	case "account":
		rt, err := s.runtimeFor(req.Context)
		if err != nil {
			return errResponse("", "BadRequest", err.Error())
		}
		addr, err := ledger.ParseAddress(req.Account)
		if err != nil {
			return errResponse("", "BadRequest", "invalid address")
		}
		view, err := s.snapshot(rt, addr)
		if err != nil {
			return errResponse("", errorCode(err), err.Error())
		}
		return Response{Type: "account", Account: view}
	case "subscribe":
		addr, err := ledger.ParseAddress(req.Account)
		if err != nil {
			return errResponse("", "BadRequest", "invalid address")
		}
		if _, ok := c.subs[addr]; !ok {
			c.subs[addr] = struct{}{}
			s.hub.Subscribe(addr, c.send)
		}
		return Response{Type: "ack"}
	case "unsubscribe":
		addr, err := ledger.ParseAddress(req.Account)
		if err != nil {
			return errResponse("", "BadRequest", "invalid address")
		}
		if _, ok := c.subs[addr]; ok {
			delete(c.subs, addr)
			s.hub.Unsubscribe(addr, c.send)
		}
		return Response{Type: "ack"}
	default:
		return errResponse("", "BadRequest", "unknown frame type")
	}
}

func (s *Server) submitTx(req *TxRequest) Response {
	rt, err := s.runtimeFor(req.Context)
	if err != nil {
		return errResponse(req.ID, "BadRequest", err.Error())
	}
	tx, err := s.decodeTx(req)
	if err != nil {
		return errResponse(req.ID, "BadRequest", err.Error())
	}

	if err := rt.Submit(tx); err != nil {
		return errResponse(tx.ID.String(), errorCode(err), err.Error())
	}
	return Response{Type: "ack", ID: tx.ID.String()}
}

func (s *Server) decodeTx(req *TxRequest) (*ledger.Transaction, error) {
	tx := &ledger.Transaction{
		Program: s.programID,
		Op:      req.Op,
		Params:  []byte(req.Params),
	}

	if req.ID == "" {
		tx.ID = uuid.New()
	} else {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, err
		}
		tx.ID = id
	}

	addr, err := ledger.ParseAddress(req.Account)
	if err != nil {
		return nil, err
	}
	tx.Account = addr

	if tx.Signer, err = hex.DecodeString(req.Signer); err != nil {
		return nil, err
	}
	if tx.Signature, err = hex.DecodeString(req.Signature); err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *Server) runtimeFor(context string) (*ledger.Runtime, error) {
	switch context {
	case "", string(ledger.Base):
		return s.base, nil
	case string(ledger.Rollup):
		return s.rollup, nil
	default:
		return nil, errUnknownContext
	}
}

func (s *Server) snapshot(rt *ledger.Runtime, addr ledger.Address) (*AccountView, error) {
	acc, ok := rt.Ledger().Account(addr)
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	var g domain.GameAccount
	if err := g.UnmarshalBinary(acc.Data); err != nil {
		return nil, err
	}
	return accountView(addr, rt.Ledger().Kind(), &g), nil
}

func errResponse(id, code, message string) Response {
	return Response{Type: "error", ID: id, Code: code, Message: message}
}
