package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/mizuki0306/cadence/internal/modules/music/application/ports"
	"github.com/mizuki0306/cadence/internal/modules/music/domain"
)

// mockRegistry is a test double for domain.SessionRegistry.
type mockRegistry struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*domain.Session
	deleted  []snowflake.ID
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{sessions: make(map[snowflake.ID]*domain.Session)}
}

func (m *mockRegistry) Get(guildID snowflake.ID) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[guildID]
}

func (m *mockRegistry) GetOrCreate(guildID snowflake.ID) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[guildID]; ok {
		return s
	}
	s := domain.NewSession(guildID)
	m.sessions[guildID] = s
	return s
}

func (m *mockRegistry) Delete(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, guildID)
	m.deleted = append(m.deleted, guildID)
}

type startCall struct {
	guildID    snowflake.ID
	locator    string
	volume     float64
	generation uint64
}

// mockRenderer is a test double for ports.Renderer.
type mockRenderer struct {
	mu           sync.Mutex
	started      []startCall
	stopped      []snowflake.ID
	paused       []snowflake.ID
	resumed      []snowflake.ID
	volumes      []float64
	startErr     error
	stopErr      error
	pauseErr     error
	resumeErr    error
	volumeErr    error
	failLocators map[string]error
}

func newMockRenderer() *mockRenderer {
	return &mockRenderer{failLocators: make(map[string]error)}
}

func (m *mockRenderer) StartRender(_ context.Context, guildID snowflake.ID, locator string, volume float64, generation uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failLocators[locator]; ok {
		return err
	}
	if m.startErr != nil {
		return m.startErr
	}
	m.started = append(m.started, startCall{guildID, locator, volume, generation})
	return nil
}

func (m *mockRenderer) StopRender(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopErr != nil {
		return m.stopErr
	}
	m.stopped = append(m.stopped, guildID)
	return nil
}

func (m *mockRenderer) PauseRender(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.paused = append(m.paused, guildID)
	return nil
}

func (m *mockRenderer) ResumeRender(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resumeErr != nil {
		return m.resumeErr
	}
	m.resumed = append(m.resumed, guildID)
	return nil
}

func (m *mockRenderer) SetRenderVolume(_ context.Context, _ snowflake.ID, volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.volumeErr != nil {
		return m.volumeErr
	}
	m.volumes = append(m.volumes, volume)
	return nil
}

func (m *mockRenderer) startedCalls() []startCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]startCall, len(m.started))
	copy(result, m.started)
	return result
}

// mockNotifier is a test double for ports.Notifier.
type mockNotifier struct {
	mu        sync.Mutex
	said      []string
	menus     [][]string
	sayErr    error
	nextMenu  snowflake.ID
	presented int
}

func (m *mockNotifier) Say(_ snowflake.ID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sayErr != nil {
		return m.sayErr
	}
	m.said = append(m.said, text)
	return nil
}

func (m *mockNotifier) PresentCandidates(_ snowflake.ID, lines []string) (snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menus = append(m.menus, lines)
	m.presented++
	m.nextMenu++
	return m.nextMenu, nil
}

func (m *mockNotifier) saidMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.said))
	copy(result, m.said)
	return result
}

// mockLookup is a test double for ports.MediaLookup.
type mockLookup struct {
	directResults []ports.TrackInfo
	directErr     error
	searchResults []ports.TrackInfo
	searchErr     error
	lastQuery     string
	lastLimit     int
}

func (m *mockLookup) LoadDirect(_ context.Context, url string) ([]ports.TrackInfo, error) {
	m.lastQuery = url
	return m.directResults, m.directErr
}

func (m *mockLookup) Search(_ context.Context, phrase string, limit int) ([]ports.TrackInfo, error) {
	m.lastQuery = phrase
	m.lastLimit = limit
	return m.searchResults, m.searchErr
}

// mockGateway is a test double for ports.VoiceGateway.
type mockGateway struct {
	joined   []snowflake.ID
	left     []snowflake.ID
	joinErr  error
	leaveErr error
}

func (m *mockGateway) JoinChannel(_ context.Context, _ snowflake.ID, channelID snowflake.ID) error {
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joined = append(m.joined, channelID)
	return nil
}

func (m *mockGateway) LeaveChannel(_ context.Context, guildID snowflake.ID) error {
	if m.leaveErr != nil {
		return m.leaveErr
	}
	m.left = append(m.left, guildID)
	return nil
}

// mockVoiceState is a test double for ports.VoiceStateProvider.
type mockVoiceState struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceState) GetUserVoiceChannel(_ snowflake.ID, userID snowflake.ID) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

func testTrack(title string) domain.Track {
	return domain.NewTrack("https://example.com/"+title, title, 3*time.Minute)
}

// createConnectedSession stores a connected session for guildID in the registry.
func createConnectedSession(registry *mockRegistry, guildID, voiceChannelID, textChannelID snowflake.ID) *domain.Session {
	session := registry.GetOrCreate(guildID)
	session.Lock()
	session.Connect(voiceChannelID)
	session.SetTextChannelID(textChannelID)
	session.Unlock()
	return session
}
