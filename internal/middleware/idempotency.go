package middleware

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/forgo/odmapi/internal/model"
)

// IdempotencyKeyHeader carries the client-chosen key for a mutating request.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotencyStore remembers responses to keyed POST and PATCH requests so a
// retried request replays the first response instead of creating twice.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*idempotencyEntry
	ttl     time.Duration
	maxBody int64
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type idempotencyEntry struct {
	fingerprint string
	status      int
	header      http.Header
	body        []byte
	expiresAt   time.Time
	done        chan struct{}
}

func (e *idempotencyEntry) inFlight() bool {
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

// IdempotencyConfig holds configuration for the idempotency store.
type IdempotencyConfig struct {
	TTL     time.Duration // default 24h
	Cleanup time.Duration // default 1h
	MaxBody int64         // request body cap in bytes, default 1 MiB
	Now     func() time.Time
}

// NewIdempotencyStore creates a store and starts its expiry sweeper.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Hour
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = 1 << 20
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &IdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		ttl:     cfg.TTL,
		maxBody: cfg.MaxBody,
		now:     cfg.Now,
		stop:    make(chan struct{}),
	}
	go s.sweep(cfg.Cleanup)
	return s
}

// Stop ends the sweeper. It is safe to call more than once.
func (s *IdempotencyStore) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *IdempotencyStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for key, e := range s.entries {
				if !e.inFlight() && e.expiresAt.Before(now) {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}

// Len returns the number of remembered keys.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func hashParts(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter tees the response so it can be replayed.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// replay writes a remembered response. Content-Encoding is left to Compress,
// which negotiates it per request.
func replay(w http.ResponseWriter, e *idempotencyEntry) {
	for k, vs := range e.header {
		switch k {
		case "X-Request-Id", "Content-Encoding", "Content-Length":
			continue
		}
		w.Header()[k] = slices.Clone(vs)
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// plainBody returns the captured body without transfer compression. The
// capture holds gzip bytes only when Compress runs inside Idempotency.
func plainBody(header http.Header, body []byte) []byte {
	if header.Get("Content-Encoding") != "gzip" || !bytes.HasPrefix(body, []byte{0x1f, 0x8b}) {
		return bytes.Clone(body)
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return bytes.Clone(body)
	}
	defer func() { _ = zr.Close() }()
	plain, err := io.ReadAll(zr)
	if err != nil {
		return bytes.Clone(body)
	}
	return plain
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Reusing a key for a different method, path or body is a 409 conflict.
// Server errors are not remembered so the client can retry them.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idemKey := r.Header.Get(IdempotencyKeyHeader)
			if idemKey == "" || (r.Method != http.MethodPost && r.Method != http.MethodPatch) {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, store.maxBody))
			if err != nil {
				detail := "request body could not be read"
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					detail = fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)
				}
				model.NewBadRequestError(detail).WithInstance(r.URL.Path).WriteJSON(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := hashParts([]byte(ClientKey(r)), []byte(idemKey))
			fingerprint := hashParts([]byte(r.Method), []byte(r.URL.RequestURI()), body)

			for {
				store.mu.Lock()
				e, ok := store.entries[key]
				if ok && !e.inFlight() && e.expiresAt.Before(store.now()) {
					delete(store.entries, key)
					ok = false
				}
				if !ok {
					e = &idempotencyEntry{fingerprint: fingerprint, done: make(chan struct{})}
					store.entries[key] = e
					store.mu.Unlock()
					serveAndRemember(store, key, e, next, w, r)
					return
				}
				store.mu.Unlock()

				if e.fingerprint != fingerprint {
					model.NewConflictError("Idempotency-Key was already used for a different request").
						WithInstance(r.URL.Path).WriteJSON(w)
					return
				}
				if !e.inFlight() {
					replay(w, e)
					return
				}
				select {
				case <-e.done:
				case <-r.Context().Done():
					return
				}
			}
		})
	}
}

func serveAndRemember(store *IdempotencyStore, key string, e *idempotencyEntry, next http.Handler, w http.ResponseWriter, r *http.Request) {
	cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		rec := recover()
		store.mu.Lock()
		if rec != nil || cw.status >= http.StatusInternalServerError {
			delete(store.entries, key)
		} else {
			e.status = cw.status
			e.header = cw.Header().Clone()
			e.body = plainBody(e.header, cw.body.Bytes())
			e.expiresAt = store.now().Add(store.ttl)
		}
		close(e.done)
		store.mu.Unlock()
		if rec != nil {
			panic(rec)
		}
	}()
	next.ServeHTTP(cw, r)
}
