package dashboard

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/chatinsight/insight-bot/internal/core/domain"
	"github.com/chatinsight/insight-bot/internal/core/llm"
	db "github.com/chatinsight/insight-bot/internal/storage"
)

const (
	topUsersLimit  = 10
	dailySeriesLen = 30
)

type overviewResponse struct {
	Totals   overviewTotals        `json:"totals"`
	TopUsers []domain.TopUser      `json:"topUsers"`
	Users    []domain.UserActivity `json:"users"`
	Daily    []domain.DailyCount   `json:"daily"`
}

type overviewTotals struct {
	Messages int64 `json:"messages"`
	Users    int64 `json:"users"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	agg, err := s.database.Aggregate(ctx, db.MessageFilter{})
	if err != nil {
		s.serverError(w, err, "aggregate failed")
		return
	}

	topUsers, err := s.database.TopUsers(ctx, topUsersLimit, db.MessageFilter{})
	if err != nil {
		s.serverError(w, err, "top users failed")
		return
	}

	users, err := s.database.UserActivities(ctx)
	if err != nil {
		s.serverError(w, err, "user activities failed")
		return
	}

	daily, err := s.database.DailyMessageCounts(ctx, dailySeriesLen)
	if err != nil {
		s.serverError(w, err, "daily counts failed")
		return
	}

	writeJSON(w, http.StatusOK, overviewResponse{
		Totals:   overviewTotals{Messages: agg.TotalMessages, Users: agg.TotalUsers},
		TopUsers: topUsers,
		Users:    users,
		Daily:    daily,
	})
}

type analyzeRequest struct {
	Username string `json:"username"`
	Provider string `json:"provider"`
}

type analyzeResponse struct {
	Analysis *domain.Analysis `json:"analysis"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	username := strings.TrimPrefix(strings.TrimSpace(req.Username), "@")
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	order, ok := resolveOrder(req.Provider)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown provider: "+req.Provider)
		return
	}

	analysis, err := s.analyzer.AnalyzeByUsername(r.Context(), username, s.analyzeLimit, order)
	if err != nil {
		s.serverError(w, err, "analyze failed")
		return
	}

	if analysis == nil {
		writeError(w, http.StatusNotFound, "user not found: "+username)
		return
	}

	s.history.Push(username, analysis)

	writeJSON(w, http.StatusOK, analyzeResponse{Analysis: analysis})
}

func resolveOrder(provider string) ([]llm.ProviderName, bool) {
	if provider == "" {
		return llm.DefaultOrder(), true
	}

	switch name := llm.ProviderName(provider); name {
	case llm.ProviderDeepSeek, llm.ProviderQwen, llm.ProviderGemini:
		return []llm.ProviderName{name}, true
	default:
		return nil, false
	}
}

type analysesResponse struct {
	Analyses []HistoryEntry `json:"analyses"`
}

func (s *Server) handleAnalyses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, analysesResponse{Analyses: s.history.Entries()})
}

type compareRequest struct {
	UsernameA string `json:"usernameA"`
	UsernameB string `json:"usernameB"`
}

type compareSide struct {
	Username string           `json:"username"`
	Analysis *domain.Analysis `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type compareResponse struct {
	A compareSide `json:"a"`
	B compareSide `json:"b"`
}

// handleCompare runs both analyses concurrently and reports per-side
// results, so one failing user does not hide the other.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	usernameA := strings.TrimPrefix(strings.TrimSpace(req.UsernameA), "@")
	usernameB := strings.TrimPrefix(strings.TrimSpace(req.UsernameB), "@")

	if usernameA == "" || usernameB == "" {
		writeError(w, http.StatusBadRequest, "both usernames are required")
		return
	}

	sides := [2]compareSide{{Username: usernameA}, {Username: usernameB}}

	var wg sync.WaitGroup

	for i, username := range []string{usernameA, usernameB} {
		wg.Add(1)

		go func(i int, username string) {
			defer wg.Done()

			analysis, err := s.analyzer.AnalyzeByUsername(r.Context(), username, s.analyzeLimit, llm.DefaultOrder())

			switch {
			case err != nil:
				sides[i].Error = err.Error()
			case analysis == nil:
				sides[i].Error = "user not found"
			default:
				sides[i].Analysis = analysis
			}
		}(i, username)
	}

	wg.Wait()

	writeJSON(w, http.StatusOK, compareResponse{A: sides[0], B: sides[1]})
}

func (s *Server) serverError(w http.ResponseWriter, err error, msg string) {
	s.logger.Error().Err(err).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
