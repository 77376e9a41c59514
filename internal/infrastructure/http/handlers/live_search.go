package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gourmetguru/api/internal/application/composer"
	"github.com/gourmetguru/api/internal/application/presentation"
	"github.com/gourmetguru/api/internal/domain/search"
	"github.com/gourmetguru/api/internal/domain/user"
	"github.com/gourmetguru/api/internal/infrastructure/http/middleware"
	"github.com/gourmetguru/api/internal/ports/inbound"
	apperrors "github.com/gourmetguru/api/pkg/errors"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Live search message types
const (
	MessageInput       = "input"
	MessageAdd         = "add"
	MessageRemove      = "remove"
	MessageDiet        = "diet"
	MessageCuisine     = "cuisine"
	MessageServings    = "servings"
	MessageSuggestions = "suggestions"
	MessageResults     = "results"
	MessageError       = "error"
)

var (
	errUnknownMessage = apperrors.NewBadRequestError("Unknown message type")
	errInvalidValue   = apperrors.NewBadRequestError("Invalid value")
)

// ClientMessage is an edit sent by the browser
type ClientMessage struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// SuggestionsMessage carries autocomplete candidates for the input buffer
type SuggestionsMessage struct {
	Type  string   `json:"type"`
	Items []string `json:"items"`
}

// ResultsMessage carries the result of the latest search
type ResultsMessage struct {
	Type    string         `json:"type"`
	Seq     uint64         `json:"seq"`
	Filters search.Filters `json:"filters"`
	Result  SearchResponse `json:"result"`
}

// ErrorMessage reports a rejected edit
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// LiveSearchHandler serves the /ws/search websocket. Each connection owns
// a composer whose filter changes drive a live search.
type LiveSearchHandler struct {
	discovery inbound.DiscoveryService
	presenter *presentation.CardPresenter
	debounce  time.Duration
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

// NewLiveSearchHandler creates the websocket handler. checkOrigin may be
// nil to accept same-origin requests only.
func NewLiveSearchHandler(
	discovery inbound.DiscoveryService,
	presenter *presentation.CardPresenter,
	debounce time.Duration,
	checkOrigin func(r *http.Request) bool,
	logger *zap.Logger,
) *LiveSearchHandler {
	return &LiveSearchHandler{
		discovery: discovery,
		presenter: presenter,
		debounce:  debounce,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		logger: logger.Named("live-search"),
	}
}

// ServeHTTP upgrades the connection and runs the session until the client
// disconnects
func (h *LiveSearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	s := &liveSession{
		conn:      conn,
		identity:  identity,
		presenter: h.presenter,
		logger:    h.logger,
	}
	s.run(ctx, h)
}

type liveSession struct {
	conn      *websocket.Conn
	identity  *user.Identity
	presenter *presentation.CardPresenter
	logger    *zap.Logger

	writeMu sync.Mutex
}

func (s *liveSession) run(ctx context.Context, h *LiveSearchHandler) {
	defer s.conn.Close()

	live := composer.NewLiveSearch(ctx, h.discovery.Search, func(d *composer.Delivery) {
		groups := s.presenter.Groups(ctx, s.identity, d.Result.Groups)
		d.Commit(func() {
			s.send(ResultsMessage{
				Type:    MessageResults,
				Seq:     d.Seq,
				Filters: d.Filters,
				Result: SearchResponse{
					Source:  d.Result.Source,
					Message: d.Result.Message,
					Groups:  groups,
				},
			})
		})
	}, h.logger)
	defer live.Close()

	comp := composer.New(ctx, h.discovery.Suggest, composer.Options{
		Debounce: h.debounce,
		OnSearch: func(f search.Filters) { live.Dispatch(f) },
		OnSuggestions: func(items []string) {
			s.send(SuggestionsMessage{Type: MessageSuggestions, Items: items})
		},
		Logger: h.logger,
	})
	defer comp.Close()

	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(done)

	comp.Start()
	s.readLoop(comp)
}

// readLoop applies client edits until the connection fails
func (s *liveSession) readLoop(comp *composer.Composer) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("Live search connection closed", zap.Error(err))
			}
			return
		}
		if err := apply(comp, msg); err != nil {
			s.send(ErrorMessage{Type: MessageError, Message: apperrors.Wrap(err, "Invalid message").Message})
		}
	}
}

func (s *liveSession) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *liveSession) send(v interface{}) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(v); err != nil {
		s.logger.Debug("Failed to write live search message", zap.Error(err))
	}
}

// apply routes one client message to the composer
func apply(comp *composer.Composer, msg ClientMessage) error {
	switch msg.Type {
	case MessageServings:
		var n int
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			return errInvalidValue
		}
		return friendly(comp.SetServings(n))
	case MessageInput, MessageAdd, MessageRemove, MessageDiet, MessageCuisine:
	default:
		return errUnknownMessage
	}

	var value string
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &value); err != nil {
			return errInvalidValue
		}
	}

	switch msg.Type {
	case MessageInput:
		comp.SetInput(value)
	case MessageAdd:
		if value == "" {
			comp.CommitInput()
		} else {
			comp.Commit(value)
		}
	case MessageRemove:
		comp.Remove(value)
	case MessageDiet:
		return friendly(comp.SetDiet(value))
	case MessageCuisine:
		return friendly(comp.SetCuisine(value))
	}
	return nil
}

func friendly(err error) error {
	if err == nil {
		return nil
	}
	return filterError(err)
}
