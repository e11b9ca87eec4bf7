// Package depinedtest provides an in-process fake of the rewards API for tests.
package depinedtest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

const (
	PathUserDetails   = "/api/user/details"
	PathReferralStats = "/api/referrals/stats"
	PathEpochEarnings = "/api/stats/epoch-earnings"
	PathWidgetConnect = "/api/user/widget-connect"
	PathClaimPoints   = "/api/referrals/claim_points"
)

// Server counts requests per path and serves configurable responses.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	counts        map[string]int
	tokens        map[string]int
	unclaimed     string
	claimCode     int
	claimDelay    time.Duration
	failing       map[string]bool
	claimsRunning int
	maxClaims     int
}

func NewServer() *Server {
	s := &Server{
		counts:    make(map[string]int),
		tokens:    make(map[string]int),
		unclaimed: "0",
		claimCode: 200,
		failing:   make(map[string]bool),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// SetUnclaimed sets the raw JSON value of total_unclaimed_points.
func (s *Server) SetUnclaimed(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unclaimed = v
}

func (s *Server) SetClaimCode(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimCode = code
}

// SetClaimDelay makes the claim endpoint hold each request for d.
func (s *Server) SetClaimDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimDelay = d
}

// Fail makes every request to path answer 503.
func (s *Server) Fail(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[path] = true
}

func (s *Server) Count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[path]
}

func (s *Server) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// TokenCount returns how many requests carried the given bearer token.
func (s *Server) TokenCount(token string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[token]
}

// MaxConcurrentClaims is the highest number of claim requests seen in flight at once.
func (s *Server) MaxConcurrentClaims() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxClaims
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.counts[r.URL.Path]++
	s.tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]++
	failing := s.failing[r.URL.Path]
	unclaimed := s.unclaimed
	claimCode := s.claimCode
	claimDelay := s.claimDelay
	s.mu.Unlock()

	if failing {
		writeJSON(w, http.StatusServiceUnavailable, `{"message":"unavailable"}`)
		return
	}

	switch r.URL.Path {
	case PathUserDetails:
		writeJSON(w, http.StatusOK, `{"data":{"email":"user@example.com","verified":true,"current_tier":"Gold","points_balance":1200}}`)
	case PathReferralStats:
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"data":{"total_unclaimed_points":%s}}`, unclaimed))
	case PathEpochEarnings:
		writeJSON(w, http.StatusOK, `{"data":{"epoch":"2024-12-01","earnings":42.5}}`)
	case PathWidgetConnect:
		writeJSON(w, http.StatusOK, `{"code":200,"message":"connected"}`)
	case PathClaimPoints:
		s.claimStarted()
		defer s.claimFinished()
		if claimDelay > 0 {
			select {
			case <-time.After(claimDelay):
			case <-r.Context().Done():
				return
			}
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"code":%d,"message":"claimed"}`, claimCode))
	default:
		writeJSON(w, http.StatusNotFound, `{"message":"not found"}`)
	}
}

func (s *Server) claimStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimsRunning++
	if s.claimsRunning > s.maxClaims {
		s.maxClaims = s.claimsRunning
	}
}

func (s *Server) claimFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimsRunning--
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
