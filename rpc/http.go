package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"escrowchain/core"
	"escrowchain/integrations/exports"
	"escrowchain/native/common"
	"escrowchain/observability"
	"escrowchain/observability/logging"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	visitorTTL      = 5 * time.Minute
	requestIDHeader = "X-Request-ID"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeRateLimited    = -32020
	codeNotFound       = -32022
	codeConflict       = -32024
	codeTransferFailed = -32025
)

// EventLister serves events_list and events_export.
type EventLister interface {
	List(ctx context.Context, filter exports.Filter) ([]exports.EventRecord, error)
}

// ServerConfig carries the transport settings for the RPC server.
type ServerConfig struct {
	AuthSecret         string
	AuthIssuer         string
	RateLimitPerMinute int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	// TrustedProxies lists the IPs or CIDRs whose X-Real-IP and
	// X-Forwarded-For headers are honored when keying the rate limiter.
	TrustedProxies []string
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type Server struct {
	node    *core.Node
	cfg     ServerConfig
	secret  []byte
	logger  *slog.Logger
	proxies []*net.IPNet

	mu       sync.Mutex
	events   EventLister
	visitors map[string]*visitor
	now      func() time.Time
	srv      *http.Server
}

// NewServer builds a server over node. Mutating methods are rejected unless
// an auth secret is configured.
func NewServer(node *core.Node, cfg ServerConfig) (*Server, error) {
	if node == nil {
		return nil, errors.New("rpc: node required")
	}
	if cfg.RateLimitPerMinute < 0 {
		return nil, errors.New("rpc: rate limit must not be negative")
	}
	proxies, err := parseProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	return &Server{
		node:     node,
		cfg:      cfg,
		secret:   []byte(strings.TrimSpace(cfg.AuthSecret)),
		proxies:  proxies,
		logger:   slog.Default(),
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}, nil
}

// SetEventStore installs the persistent event sink used by events_list.
func (s *Server) SetEventStore(store EventLister) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = store
}

func (s *Server) eventStore() EventLister {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// SetLogger overrides the request logger.
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	s.logger = logger
}

// Router returns the chi router serving /rpc, /healthz and /metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.With(s.rateLimit).Post("/rpc", s.handle)
	return r
}

// Handler wraps Router with OpenTelemetry HTTP instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.Router(), "escrow-rpc")
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	s.mu.Lock()
	s.srv = server
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc server listening", slog.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("rpc: shutdown: %w", err)
		}
		return nil
	}
}

type ctxKey string

const ctxKeyRequestID ctxKey = "rpc.requestId"

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimitPerMinute <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		if !s.limiterFor(s.clientID(r)).Allow() {
			observability.ModuleMetrics().RecordThrottle("rpc", "rate_limit")
			w.Header().Set("Content-Type", "application/json")
			writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limiterFor(id string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, v := range s.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(s.visitors, key)
		}
	}
	if v, ok := s.visitors[id]; ok {
		v.lastSeen = now
		return v.limiter
	}
	perSecond := float64(s.cfg.RateLimitPerMinute) / 60.0
	burst := s.cfg.RateLimitPerMinute / 6
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	s.visitors[id] = &visitor{limiter: limiter, lastSeen: now}
	return limiter
}

func parseProxies(entries []string) ([]*net.IPNet, error) {
	out := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, network, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, fmt.Errorf("rpc: trusted proxy %q: %w", entry, err)
			}
			out = append(out, network)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("rpc: trusted proxy %q is not an IP or CIDR", entry)
		}
		bits := 8 * net.IPv6len
		if v4 := ip.To4(); v4 != nil {
			ip, bits = v4, 8*net.IPv4len
		}
		out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return out, nil
}

// clientID keys the rate limiter. Forwarding headers are only read when the
// direct peer is a configured proxy; otherwise any caller could rotate them.
func (s *Server) clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !s.trustedPeer(host) {
		return host
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if parsed := net.ParseIP(strings.TrimSpace(first)); parsed != nil {
			return parsed.String()
		}
	}
	return host
}

func (s *Server) trustedPeer(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, network := range s.proxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// errorStatus maps an operation error onto its HTTP status and JSON-RPC code.
func errorStatus(err error) (int, int, string) {
	kind := common.KindOf(err)
	switch kind {
	case common.KindPrecondition:
		return http.StatusBadRequest, codeInvalidParams, kind.String()
	case common.KindAuthorization:
		return http.StatusForbidden, codeUnauthorized, kind.String()
	case common.KindState:
		return http.StatusConflict, codeConflict, kind.String()
	case common.KindNotFound:
		return http.StatusNotFound, codeNotFound, kind.String()
	case common.KindTransfer:
		return http.StatusUnprocessableEntity, codeTransferFailed, kind.String()
	default:
		return http.StatusInternalServerError, codeServerError, kind.String()
	}
}

// handle decodes one JSON-RPC request and dispatches it to the method table.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	method, ok := methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	module, _, _ := strings.Cut(req.Method, "_")

	var caller [20]byte
	if method.auth {
		caller, err = s.authenticate(r)
		if err != nil {
			s.logger.Warn("rpc auth rejected",
				slog.String("requestid", requestIDFrom(r.Context())),
				slog.String("method", req.Method),
				logging.MaskField("authorization", r.Header.Get("Authorization")),
				slog.Any("error", err))
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "unauthorized", err.Error())
			observability.ModuleMetrics().Observe(module, req.Method, http.StatusUnauthorized, time.Since(start))
			return
		}
	}

	c := &call{server: s, ctx: r.Context(), req: req, method: req.Method, module: module, caller: caller}
	result, err := method.handler(c)
	status := http.StatusOK
	if err != nil {
		var code int
		var kind string
		status, code, kind = errorStatus(err)
		s.logger.Info("rpc request failed",
			slog.String("requestid", requestIDFrom(r.Context())),
			slog.String("method", req.Method),
			slog.String("kind", kind),
			slog.Any("error", err))
		writeError(w, status, req.ID, code, kind, err.Error())
	} else {
		writeResult(w, req.ID, result)
	}
	observability.ModuleMetrics().Observe(module, req.Method, status, time.Since(start))
}
