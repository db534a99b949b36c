package bot

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"voicescribe/media"
	"voicescribe/models"
	"voicescribe/store"
	"voicescribe/whapi"

	"github.com/rs/zerolog"
)

// fakeStore is an in-memory UserStore with the same visibility semantics as
// the real one: updates are immediately visible to subsequent reads.
type fakeStore struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	stats  store.Stats
	getErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[int64]*models.User{}}
}

func (s *fakeStore) Get(number int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	user, ok := s.users[number]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *fakeStore) Create(user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	copied := *user
	copied.CreatedAt = &now
	copied.UpdatedAt = &now
	s.users[user.Number] = &copied
	result := copied
	return &result, nil
}

func (s *fakeStore) Update(number int64, fields map[string]interface{}) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[number]
	if !ok {
		return nil, fmt.Errorf("update user %d: not found", number)
	}
	for key, value := range fields {
		switch key {
		case "state":
			user.State = value.(string)
		case "name":
			user.Name = value.(string)
		case "is_admin":
			user.IsAdmin = value.(bool)
		case "gpt_requests":
			user.GptRequests = value.(int)
		case "uploaded_audios":
			user.UploadedAudios = value.(int)
		case "last_transcription_text":
			user.LastTranscriptionText = value.(string)
		case "last_summary_text":
			user.LastSummaryText = value.(string)
		case "updated_at":
			t := value.(time.Time)
			user.UpdatedAt = &t
		default:
			return nil, fmt.Errorf("update user %d: unknown field %s", number, key)
		}
	}
	copied := *user
	return &copied, nil
}

func (s *fakeStore) Stats() (store.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats, nil
}

func (s *fakeStore) setGetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

func (s *fakeStore) setState(number int64, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[number]; ok {
		user.State = state
	}
}

type sentText struct {
	To     int64
	Text   string
	Markup *whapi.Markup
}

type sentDocument struct {
	To       int64
	Filename string
	Path     string
	Caption  string
}

type fakeGateway struct {
	mu        sync.Mutex
	texts     []sentText
	documents []sentDocument
	fetchData []byte
	fetchErr  error
}

func (g *fakeGateway) SendText(_ context.Context, to int64, text string, markup *whapi.Markup) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, sentText{To: to, Text: text, Markup: markup})
	return nil
}

func (g *fakeGateway) SendDocument(_ context.Context, to int64, filename, path, caption string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.documents = append(g.documents, sentDocument{To: to, Filename: filename, Path: path, Caption: caption})
	return nil
}

func (g *fakeGateway) FetchFile(_ context.Context, _ string) ([]byte, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	if g.fetchData == nil {
		return []byte("media-bytes"), nil
	}
	return g.fetchData, nil
}

func (g *fakeGateway) sentTexts() []sentText {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]sentText, len(g.texts))
	copy(out, g.texts)
	return out
}

func (g *fakeGateway) sentDocuments() []sentDocument {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]sentDocument, len(g.documents))
	copy(out, g.documents)
	return out
}

type fakeAssistant struct {
	mu              sync.Mutex
	transcribeCalls int
	transcribeFn    func(call int, path string) (string, error)
	summary         string
	summarizeErr    error
	summarizeCalls  int
	answer          string
	answerErr       error
}

func (a *fakeAssistant) Transcribe(_ context.Context, path string) (string, error) {
	a.mu.Lock()
	call := a.transcribeCalls
	a.transcribeCalls++
	fn := a.transcribeFn
	a.mu.Unlock()

	if fn != nil {
		return fn(call, path)
	}
	return fmt.Sprintf("part%d", call), nil
}

func (a *fakeAssistant) Summarize(_ context.Context, _ string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.summarizeCalls++
	if a.summarizeErr != nil {
		return "", a.summarizeErr
	}
	if a.summary == "" {
		return "summary", nil
	}
	return a.summary, nil
}

func (a *fakeAssistant) Answer(_ context.Context, _, _ string) (string, error) {
	if a.answerErr != nil {
		return "", a.answerErr
	}
	if a.answer == "" {
		return "the answer", nil
	}
	return a.answer, nil
}

func (a *fakeAssistant) summarized() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summarizeCalls
}

type fakeSegmenter struct {
	mu       sync.Mutex
	duration time.Duration
	probeErr error
	exports  []media.Span
}

func (s *fakeSegmenter) Probe(_ context.Context, _ string) (time.Duration, error) {
	if s.probeErr != nil {
		return 0, s.probeErr
	}
	return s.duration, nil
}

func (s *fakeSegmenter) Export(_ context.Context, _ string, span media.Span, dst string) error {
	s.mu.Lock()
	s.exports = append(s.exports, span)
	s.mu.Unlock()
	return os.WriteFile(dst, []byte("chunk-bytes"), 0o644)
}

type testBot struct {
	store      *fakeStore
	gateway    *fakeGateway
	ai         *fakeAssistant
	segmenter  *fakeSegmenter
	guard      *Guard
	pipeline   *Pipeline
	dispatcher *Dispatcher
	workDir    string
}

const testAdminNumber = int64(15551230000)

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	b := &testBot{
		store:     newFakeStore(),
		gateway:   &fakeGateway{},
		ai:        &fakeAssistant{},
		segmenter: &fakeSegmenter{duration: 10 * time.Minute},
		guard:     NewGuard(),
		workDir:   t.TempDir(),
	}
	log := zerolog.Nop()
	b.pipeline = NewPipeline(b.store, b.gateway, b.ai, b.segmenter, b.guard, b.workDir, log)
	b.dispatcher = NewDispatcher(b.store, b.gateway, b.ai, b.guard, b.pipeline, testAdminNumber, log)
	return b
}

func (b *testBot) addUser(t *testing.T, user models.User) *models.User {
	t.Helper()
	created, err := b.store.Create(&user)
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return created
}

func textMessage(text string) models.Message {
	return models.Message{ID: "msg-1", Kind: models.MESSAGE_KIND_TEXT, Text: text}
}

func buttonMessage(buttonID string) models.Message {
	return models.Message{ID: "msg-1", Kind: models.MESSAGE_KIND_REPLY, ButtonID: buttonID}
}

func mediaMessage(mimeType string) models.Message {
	return models.Message{
		ID:       "msg-1",
		Kind:     models.MESSAGE_KIND_MEDIA,
		Link:     "https://files.example/abc",
		FileName: "note.ogg",
		MimeType: mimeType,
	}
}

func workDirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading work dir: %v", err)
	}
	return len(entries)
}
