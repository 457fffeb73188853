package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bhasha-kb/lipiserve/internal/logger"
	"github.com/bhasha-kb/lipiserve/internal/utils"
	"github.com/bhasha-kb/lipiserve/pkg/config"
	"github.com/bhasha-kb/lipiserve/pkg/engine"
	"github.com/bhasha-kb/lipiserve/pkg/suggest"
)

// Server reads msgpack request frames from its input stream and answers on
// its output stream, synchronously and in order.
type Server struct {
	engine *engine.Engine
	dec    *msgpack.Decoder
	enc    *msgpack.Encoder
	log    *log.Logger

	cfgMu      sync.RWMutex
	cfg        *config.Config
	limits     config.ServerConfig
	configPath string
}

// New builds a server over stdin/stdout, the transport a host keyboard
// process spawns us with.
func New(eng *engine.Engine, cfg *config.Config, configPath string) *Server {
	return NewWithIO(eng, cfg, configPath, os.Stdin, os.Stdout)
}

// NewWithIO builds a server over explicit streams for tests and embedding
// hosts that pipe requests directly.
func NewWithIO(eng *engine.Engine, cfg *config.Config, configPath string, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		engine:     eng,
		dec:        msgpack.NewDecoder(r),
		enc:        msgpack.NewEncoder(w),
		log:        logger.New("ipc"),
		cfg:        cfg,
		limits:     cfg.Server,
		configPath: configPath,
	}
}

// ApplyConfig adopts reloaded server limits. Engine retuning is the
// caller's job; the two halves reload independently.
func (s *Server) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	s.cfgMu.Lock()
	s.cfg = cfg
	s.limits = cfg.Server
	s.cfgMu.Unlock()
}

func (s *Server) limitsSnapshot() config.ServerConfig {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.limits
}

// Start announces readiness and serves requests until the input stream
// closes. Stream-level decode errors are fatal; per-request problems are
// answered with RequestError frames and the loop continues.
func (s *Server) Start() error {
	s.log.Debug("Starting msgpack server")
	s.send(StatusResponse{Status: "ready", State: s.engine.State().String()})

	for {
		var raw msgpack.RawMessage
		if err := s.dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug("Input stream closed, stopping server")
				return nil
			}
			s.log.Errorf("Reading request frame: %v", err)
			return err
		}
		s.dispatch(raw)
	}
}

func (s *Server) dispatch(raw msgpack.RawMessage) {
	var env Envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		s.log.Errorf("Unmarshaling envelope: %v", err)
		s.sendError("", "malformed request envelope", 400)
		return
	}
	switch env.Op {
	case "suggest":
		s.handleSuggest(env.ID, raw)
	case "next":
		s.handleNext(env.ID, raw)
	case "commit":
		s.handleCommit(env.ID, raw)
	case "reset":
		s.engine.ResetContext()
		s.send(StatusResponse{ID: env.ID, Status: "ok"})
	case "stats":
		s.send(StatsResponse{ID: env.ID, Stats: s.engine.Stats()})
	case "abbrev":
		s.handleAbbrev(env.ID, raw)
	case "learn_clear":
		s.handleLearnOp(env.ID, s.engine.ClearLearned)
	case "prune":
		s.handleLearnOp(env.ID, s.engine.PruneLearned)
	case "config":
		s.handleConfig(env.ID, raw)
	case "health":
		s.send(StatusResponse{ID: env.ID, Status: "ok", State: s.engine.State().String()})
	default:
		s.sendError(env.ID, fmt.Sprintf("unknown op %q", env.Op), 400)
	}
}

func (s *Server) handleSuggest(id string, raw msgpack.RawMessage) {
	var req SuggestRequest
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.sendError(id, "malformed suggest request", 400)
		return
	}
	limits := s.limitsSnapshot()
	word := strings.TrimSpace(req.Word)
	if word == "" {
		s.sendError(id, "missing typed word", 400)
		return
	}
	runes := utf8.RuneCountInString(word)
	if runes < limits.MinPrefix {
		s.sendError(id, fmt.Sprintf("typed word below %d runes", limits.MinPrefix), 400)
		return
	}
	if runes > limits.MaxPrefix {
		s.sendError(id, fmt.Sprintf("typed word above %d runes", limits.MaxPrefix), 400)
		return
	}
	if limits.EnableFilter && !utils.IsValidInput(word) {
		// Number runs, symbols and key mashing stream in mid-typing;
		// answer empty instead of erroring.
		s.send(SuggestResponse{ID: id, Suggestions: []SuggestionItem{}})
		return
	}

	limit := clampLimit(req.Limit, limits.MaxLimit)
	start := time.Now()
	results := s.engine.Suggestions(word, req.Layout, limit)
	elapsed := time.Since(start).Microseconds()

	items := toItems(results)
	s.send(SuggestResponse{ID: id, Suggestions: items, Count: len(items), TimeTaken: elapsed})
}

func (s *Server) handleNext(id string, raw msgpack.RawMessage) {
	var req NextRequest
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.sendError(id, "malformed next request", 400)
		return
	}
	limit := clampLimit(req.Limit, s.limitsSnapshot().MaxLimit)
	start := time.Now()
	results := s.engine.NextWordPredictions(req.Layout, limit)
	elapsed := time.Since(start).Microseconds()

	items := toItems(results)
	s.send(SuggestResponse{ID: id, Suggestions: items, Count: len(items), TimeTaken: elapsed})
}

func (s *Server) handleCommit(id string, raw msgpack.RawMessage) {
	var req CommitRequest
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.sendError(id, "malformed commit request", 400)
		return
	}
	word := strings.TrimSpace(req.Word)
	if word == "" {
		s.sendError(id, "missing committed word", 400)
		return
	}
	if s.limitsSnapshot().EnableFilter && !utils.IsValidInput(word) {
		// Junk never reaches the context window or the learning store.
		s.send(StatusResponse{ID: id, Status: "ignored"})
		return
	}
	s.engine.CommitWord(word)
	s.send(StatusResponse{ID: id, Status: "ok"})
}

func (s *Server) handleAbbrev(id string, raw msgpack.RawMessage) {
	var req AbbrevRequest
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.sendError(id, "malformed abbrev request", 400)
		return
	}
	switch req.Action {
	case "set":
		if err := s.engine.SetAbbreviation(req.Token, req.Phrase); err != nil {
			s.sendError(id, err.Error(), 400)
			return
		}
		s.send(AbbrevResponse{ID: id, Status: "ok"})
	case "remove":
		s.engine.RemoveAbbreviation(req.Token)
		s.send(AbbrevResponse{ID: id, Status: "ok"})
	case "list":
		s.send(AbbrevResponse{ID: id, Status: "ok", Abbreviations: s.engine.Abbreviations()})
	default:
		s.sendError(id, fmt.Sprintf("unknown abbrev action %q", req.Action), 400)
	}
}

func (s *Server) handleLearnOp(id string, op func() error) {
	if err := op(); err != nil {
		code := 500
		if errors.Is(err, engine.ErrLearningDisabled) {
			code = 400
		}
		s.sendError(id, err.Error(), code)
		return
	}
	s.send(StatusResponse{ID: id, Status: "ok"})
}

func (s *Server) handleConfig(id string, raw msgpack.RawMessage) {
	var req ConfigRequest
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		s.sendError(id, "malformed config request", 400)
		return
	}
	switch req.Action {
	case "get":
		s.sendLimits(id)
	case "update":
		if s.configPath == "" {
			s.sendError(id, "no config file loaded", 400)
			return
		}
		s.cfgMu.Lock()
		err := s.cfg.Update(s.configPath, req.MaxLimit, req.MinPrefix, req.MaxPrefix, req.EnableFilter)
		if err == nil {
			s.limits = s.cfg.Server
		}
		cfg := s.cfg
		s.cfgMu.Unlock()
		if err != nil {
			s.sendError(id, err.Error(), 500)
			return
		}
		s.engine.ApplyConfig(cfg)
		s.sendLimits(id)
	default:
		s.sendError(id, fmt.Sprintf("unknown config action %q", req.Action), 400)
	}
}

func (s *Server) sendLimits(id string) {
	l := s.limitsSnapshot()
	s.send(ConfigResponse{
		ID:           id,
		Status:       "ok",
		MaxLimit:     l.MaxLimit,
		MinPrefix:    l.MinPrefix,
		MaxPrefix:    l.MaxPrefix,
		EnableFilter: l.EnableFilter,
	})
}

// toItems converts engine suggestions to wire items with 1-based ranks.
func toItems(results []suggest.Suggestion) []SuggestionItem {
	out := make([]SuggestionItem, len(results))
	for i, sg := range results {
		out[i] = SuggestionItem{
			Word:   sg.Word,
			Rank:   uint16(i + 1),
			Source: int(sg.Source),
			Script: int(sg.Script),
		}
	}
	return out
}

func clampLimit(limit, max int) int {
	if limit < 0 {
		return 0
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

func (s *Server) send(v any) {
	if err := s.enc.Encode(v); err != nil {
		s.log.Errorf("Encoding response: %v", err)
	}
}

func (s *Server) sendError(id, msg string, code int) {
	s.log.Debugf("Request error (%d): %s", code, msg)
	s.send(RequestError{ID: id, Error: msg, Code: code})
}
