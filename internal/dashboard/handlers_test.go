package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatinsight/insight-bot/internal/analyze"
	"github.com/chatinsight/insight-bot/internal/core/domain"
	coreerrors "github.com/chatinsight/insight-bot/internal/core/errors"
	"github.com/chatinsight/insight-bot/internal/core/llm"
	db "github.com/chatinsight/insight-bot/internal/storage"
)

type stubStore struct {
	users map[string]*domain.User
}

func (s *stubStore) UserByTGID(_ context.Context, _ int64) (*domain.User, error) {
	return nil, coreerrors.ErrUserNotFound
}

func (s *stubStore) UserByUsername(_ context.Context, username string) (*domain.User, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, coreerrors.ErrUserNotFound
	}

	return user, nil
}

func (s *stubStore) MessagesByUser(_ context.Context, _ int64, _ db.MessageFilter) ([]domain.Message, error) {
	return []domain.Message{{Text: "hello there"}}, nil
}

type stubCompleter struct {
	lastOrder []llm.ProviderName
	err       error
}

func (s *stubCompleter) Complete(_ context.Context, _ string, order []llm.ProviderName) (llm.ProviderName, string, error) {
	s.lastOrder = order

	if s.err != nil {
		return "", "", s.err
	}

	return llm.ProviderQwen, "Style: terse\nTopics: ops\nActivity: daily\nTone: dry\nTraits: none", nil
}

func newTestServer(completer analyze.Completer) *Server {
	logger := zerolog.Nop()
	store := &stubStore{users: map[string]*domain.User{
		"alice": {ID: 1, TGUserID: 11, Username: "alice"},
		"bob":   {ID: 2, TGUserID: 22, Username: "bob"},
	}}

	return &Server{
		analyzer:     analyze.New(store, completer, &logger),
		history:      NewHistory(defaultHistoryCap),
		logger:       &logger,
		analyzeLimit: 30,
	}
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestHandleAnalyze(t *testing.T) {
	t.Run("success records history", func(t *testing.T) {
		completer := &stubCompleter{}
		srv := newTestServer(completer)

		rec := postJSON(t, srv.Router(), "/api/analyze", `{"username":"@alice"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp analyzeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.Equal(t, "terse", resp.Analysis.Style)
		assert.Equal(t, llm.DefaultOrder(), completer.lastOrder)
		assert.Equal(t, 1, srv.history.Len())
	})

	t.Run("named provider narrows the order", func(t *testing.T) {
		completer := &stubCompleter{}
		srv := newTestServer(completer)

		rec := postJSON(t, srv.Router(), "/api/analyze", `{"username":"alice","provider":"gemini"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, []llm.ProviderName{llm.ProviderGemini}, completer.lastOrder)
	})

	t.Run("empty username", func(t *testing.T) {
		rec := postJSON(t, newTestServer(&stubCompleter{}).Router(), "/api/analyze", `{"username":"  @  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := postJSON(t, newTestServer(&stubCompleter{}).Router(), "/api/analyze", "{bad")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown provider", func(t *testing.T) {
		rec := postJSON(t, newTestServer(&stubCompleter{}).Router(), "/api/analyze", `{"username":"alice","provider":"gpt5"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		srv := newTestServer(&stubCompleter{})

		rec := postJSON(t, srv.Router(), "/api/analyze", `{"username":"ghost"}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Zero(t, srv.history.Len(), "failures must not enter history")
	})

	t.Run("provider chain failure", func(t *testing.T) {
		srv := newTestServer(&stubCompleter{err: coreerrors.ErrAllProvidersFailed})

		rec := postJSON(t, srv.Router(), "/api/analyze", `{"username":"alice"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleAnalyses(t *testing.T) {
	srv := newTestServer(&stubCompleter{})

	postJSON(t, srv.Router(), "/api/analyze", `{"username":"alice"}`)
	postJSON(t, srv.Router(), "/api/analyze", `{"username":"bob"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp analysesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Analyses, 2)

	assert.Equal(t, "bob", resp.Analyses[0].Username, "newest first")
	assert.Equal(t, "alice", resp.Analyses[1].Username)
}

func TestHandleCompare(t *testing.T) {
	t.Run("both sides succeed", func(t *testing.T) {
		srv := newTestServer(&stubCompleter{})

		rec := postJSON(t, srv.Router(), "/api/compare", `{"usernameA":"alice","usernameB":"bob"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp compareResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.Equal(t, "alice", resp.A.Username)
		assert.Equal(t, "bob", resp.B.Username)
		assert.NotNil(t, resp.A.Analysis)
		assert.NotNil(t, resp.B.Analysis)
		assert.Empty(t, resp.A.Error)
	})

	t.Run("partial failure surfaces per side", func(t *testing.T) {
		srv := newTestServer(&stubCompleter{})

		rec := postJSON(t, srv.Router(), "/api/compare", `{"usernameA":"alice","usernameB":"ghost"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp compareResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.NotNil(t, resp.A.Analysis)
		assert.Nil(t, resp.B.Analysis)
		assert.Equal(t, "user not found", resp.B.Error)
	})

	t.Run("missing username", func(t *testing.T) {
		rec := postJSON(t, newTestServer(&stubCompleter{}).Router(), "/api/compare", `{"usernameA":"alice"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
