package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MedAli03/atpsm-messaging/internal/client"
	response "github.com/MedAli03/atpsm-messaging/internal/lib/api/response"
	"github.com/MedAli03/atpsm-messaging/internal/messages"
)

const (
	testThreadID = int64(1)
	testSenderID = int64(10)
)

// fakeServer mimics the messaging API for one thread, with switches to fail
// the next N requests per endpoint.
type fakeServer struct {
	mu        sync.Mutex
	nextID    int64
	msgs      []messages.Message // ascending by id
	pageSize  int
	failSends int
	failLists int

	sendCalls   int
	listCalls   int
	typingCalls int
	stopCalls   int
}

func newFakeServer(pageSize int) *fakeServer {
	return &fakeServer{pageSize: pageSize}
}

func (s *fakeServer) seed(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.nextID++
		s.msgs = append(s.msgs, messages.Message{
			ID:           s.nextID,
			ThreadID:     testThreadID,
			SenderUserID: testSenderID + 1,
			Text:         "seeded",
			CreatedAt:    time.Now(),
			Attachments:  []messages.Attachment{},
		})
	}
}

func (s *fakeServer) stats() (sends, lists, typings, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendCalls, s.listCalls, s.typingCalls, s.stopCalls
}

func (s *fakeServer) start(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/threads/1/messages", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.list(w, r)
		case http.MethodPost:
			s.send(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/threads/1/read", s.read)
	mux.HandleFunc("/threads/1/typing", s.typing)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeServerError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(response.ErrorResponse{
		Error: response.ErrorBody{Code: "internal_error", Message: "internal server error"},
	})
}

func (s *fakeServer) send(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sendCalls++
	if s.failSends > 0 {
		s.failSends--
		writeServerError(w)
		return
	}

	var req messages.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.nextID++
	msg := messages.Message{
		ID:           s.nextID,
		ThreadID:     testThreadID,
		SenderUserID: testSenderID,
		Text:         req.Text,
		CreatedAt:    time.Now(),
		Attachments:  []messages.Attachment{},
	}
	s.msgs = append(s.msgs, msg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(struct {
		response.Response
		Message messages.Message `json:"message"`
	}{Response: response.OK(), Message: msg})
}

func (s *fakeServer) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if s.failLists > 0 {
		s.failLists--
		writeServerError(w)
		return
	}

	beforeID := int64(0)
	if token := r.URL.Query().Get("cursor"); token != "" {
		id, err := messages.DecodeCursor(token)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		beforeID = id
	}

	var newestFirst []messages.Message
	for i := len(s.msgs) - 1; i >= 0 && len(newestFirst) <= s.pageSize; i-- {
		if beforeID > 0 && s.msgs[i].ID >= beforeID {
			continue
		}
		newestFirst = append(newestFirst, s.msgs[i])
	}

	hasMore := len(newestFirst) > s.pageSize
	if hasMore {
		newestFirst = newestFirst[:s.pageSize]
	}

	page := messages.Page{Items: []messages.Message{}}
	for i := len(newestFirst) - 1; i >= 0; i-- {
		page.Items = append(page.Items, newestFirst[i])
	}
	if hasMore && len(page.Items) > 0 {
		page.NextCursor = messages.EncodeCursor(page.Items[0].ID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

func (s *fakeServer) read(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		response.Response
		LastReadMessageID int64 `json:"last_read_message_id"`
	}{Response: response.OK(), LastReadMessageID: s.nextID})
}

func (s *fakeServer) typing(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var req struct {
		IsTyping bool `json:"is_typing"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.IsTyping {
		s.typingCalls++
	} else {
		s.stopCalls++
	}
	w.WriteHeader(http.StatusNoContent)
}

func newCoordinator(t *testing.T, s *fakeServer) (*client.Coordinator, *fakeServer) {
	t.Helper()
	srv := s.start(t)
	api := client.New(srv.URL, testSenderID)
	return client.NewCoordinator(api, testThreadID, testSenderID), s
}

func TestCoordinator_SendSuccess(t *testing.T) {
	coord, _ := newCoordinator(t, newFakeServer(30))

	corrID := coord.Send(context.Background(), "hello", nil)
	coord.Wait()

	entries := coord.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, client.StatusSent, entries[0].Status)
	assert.Equal(t, corrID, entries[0].CorrelationID)
	assert.Equal(t, "hello", entries[0].Message.Text)
	assert.Positive(t, entries[0].Message.ID, "canonical id must replace the echo")
}

func TestCoordinator_EchoAppearsBeforeConfirmation(t *testing.T) {
	srv := newFakeServer(30)
	srv.mu.Lock() // hold the server lock so the send cannot settle yet
	coord, _ := newCoordinator(t, srv)

	corrID := coord.Send(context.Background(), "hello", nil)

	entries := coord.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, client.StatusSending, entries[0].Status)
	assert.Equal(t, corrID, entries[0].CorrelationID)
	assert.Zero(t, entries[0].Message.ID)

	srv.mu.Unlock()
	coord.Wait()

	entries = coord.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, client.StatusSent, entries[0].Status)
}

func TestCoordinator_FailedSendThenRetry(t *testing.T) {
	srv := newFakeServer(30)
	srv.failSends = 1
	coord, _ := newCoordinator(t, srv)

	corrID := coord.Send(context.Background(), "hello", nil)
	coord.Wait()

	entries := coord.Entries()
	require.Len(t, entries, 1, "a failed send leaves exactly one entry")
	assert.Equal(t, client.StatusFailed, entries[0].Status)

	require.True(t, coord.Retry(context.Background(), corrID))
	coord.Wait()

	entries = coord.Entries()
	require.Len(t, entries, 1, "retry must swap, not append")
	assert.Equal(t, client.StatusSent, entries[0].Status)
	assert.Equal(t, corrID, entries[0].CorrelationID)

	sends, _, _, _ := srv.stats()
	assert.Equal(t, 2, sends)
}

func TestCoordinator_RetryUnknownOrSettled(t *testing.T) {
	coord, _ := newCoordinator(t, newFakeServer(30))

	corrID := coord.Send(context.Background(), "hello", nil)
	coord.Wait()

	assert.False(t, coord.Retry(context.Background(), corrID), "settled sends are not retryable")
	assert.False(t, coord.Retry(context.Background(), "nope"))
}

func TestCoordinator_FailedEchoSurvivesRefresh(t *testing.T) {
	srv := newFakeServer(30)
	srv.seed(3)
	srv.failSends = 1
	coord, _ := newCoordinator(t, srv)

	coord.Send(context.Background(), "hello", nil)
	coord.Wait()

	require.NoError(t, coord.LoadNewest(context.Background()))

	entries := coord.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, client.StatusFailed, entries[0].Status, "the failed echo stays at the head")
	for _, e := range entries[1:] {
		assert.Equal(t, client.StatusSent, e.Status)
	}
}

func TestCoordinator_RefreshAfterConfirmationDoesNotDuplicate(t *testing.T) {
	srv := newFakeServer(30)
	coord, _ := newCoordinator(t, srv)

	coord.Send(context.Background(), "hello", nil)
	coord.Wait()

	require.NoError(t, coord.LoadNewest(context.Background()))

	entries := coord.Entries()
	require.Len(t, entries, 1, "the confirmed send and its server copy are the same message")
	assert.Equal(t, "hello", entries[0].Message.Text)
}

func TestCoordinator_SequentialSendsTrackedIndependently(t *testing.T) {
	srv := newFakeServer(30)
	srv.failSends = 1
	coord, _ := newCoordinator(t, srv)

	failedID := coord.Send(context.Background(), "first", nil)
	coord.Wait()
	sentID := coord.Send(context.Background(), "second", nil)
	coord.Wait()

	require.NotEqual(t, failedID, sentID)

	entries := coord.Entries()
	require.Len(t, entries, 2)

	byCorr := map[string]client.Entry{}
	for _, e := range entries {
		byCorr[e.CorrelationID] = e
	}
	assert.Equal(t, client.StatusFailed, byCorr[failedID].Status)
	assert.Equal(t, "first", byCorr[failedID].Message.Text)
	assert.Equal(t, client.StatusSent, byCorr[sentID].Status)
	assert.Equal(t, "second", byCorr[sentID].Message.Text)
}

func TestCoordinator_DiscardFailedEcho(t *testing.T) {
	srv := newFakeServer(30)
	srv.failSends = 1
	coord, _ := newCoordinator(t, srv)

	corrID := coord.Send(context.Background(), "hello", nil)
	coord.Wait()

	assert.True(t, coord.Discard(corrID))
	assert.Empty(t, coord.Entries())
	assert.False(t, coord.Discard(corrID))
}

func TestCoordinator_NavigationDoesNotCancelSend(t *testing.T) {
	coord, srv := newCoordinator(t, newFakeServer(30))

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // the view is already gone when the send dispatches

	coord.Send(ctx, "hello", nil)
	coord.Wait()

	entries := coord.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, client.StatusSent, entries[0].Status)
	sends, _, _, _ := srv.stats()
	assert.Equal(t, 1, sends)
}

func TestCoordinator_LoadOlderWalksFullHistory(t *testing.T) {
	srv := newFakeServer(10)
	srv.seed(25)
	coord, _ := newCoordinator(t, srv)

	require.NoError(t, coord.LoadNewest(context.Background()))

	for {
		more, err := coord.LoadOlder(context.Background())
		require.NoError(t, err)
		if !more {
			break
		}
	}

	entries := coord.Entries()
	require.Len(t, entries, 25)
	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i-1].Message.ID, entries[i].Message.ID, "feed must be newest-first")
	}

	// exhausted history stays exhausted without another round-trip
	_, listsBefore, _, _ := srv.stats()
	more, err := coord.LoadOlder(context.Background())
	require.NoError(t, err)
	assert.False(t, more)
	_, listsAfter, _, _ := srv.stats()
	assert.Equal(t, listsBefore, listsAfter)
}

func TestCoordinator_TypingDebounceCollapsesBursts(t *testing.T) {
	coord, srv := newCoordinator(t, newFakeServer(30))

	for i := 0; i < 5; i++ {
		coord.Typing("Amira")
		time.Sleep(20 * time.Millisecond)
	}

	time.Sleep(600 * time.Millisecond)

	_, _, typings, _ := srv.stats()
	assert.Equal(t, 1, typings, "a keystroke burst emits one signal")
}

func TestCoordinator_StopTypingClearsPresence(t *testing.T) {
	coord, srv := newCoordinator(t, newFakeServer(30))

	coord.Typing("Amira")
	coord.StopTyping()

	time.Sleep(600 * time.Millisecond)

	_, _, typings, stops := srv.stats()
	assert.Zero(t, typings, "stop before the debounce fires cancels the signal")
	assert.Equal(t, 1, stops)
}

func TestClient_ListRetriesTransientFailures(t *testing.T) {
	srv := newFakeServer(30)
	srv.seed(2)
	srv.failLists = 1
	ts := srv.start(t)
	api := client.New(ts.URL, testSenderID)

	page, err := api.ListMessages(context.Background(), testThreadID, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	_, lists, _, _ := srv.stats()
	assert.Equal(t, 2, lists)
}

func TestClient_SendIsNeverAutoRetried(t *testing.T) {
	srv := newFakeServer(30)
	srv.failSends = 1
	ts := srv.start(t)
	api := client.New(ts.URL, testSenderID)

	_, err := api.SendMessage(context.Background(), testThreadID, messages.CreateMessageRequest{Text: "hello"})
	require.Error(t, err)
	sends, _, _, _ := srv.stats()
	assert.Equal(t, 1, sends)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.True(t, apiErr.Transient())
}

func TestClient_MarkRead(t *testing.T) {
	srv := newFakeServer(30)
	srv.seed(4)
	coord, _ := newCoordinator(t, srv)

	saved, err := coord.MarkRead(context.Background(), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 4, saved)
}
