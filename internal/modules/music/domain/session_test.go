package domain

import (
	"errors"
	"testing"

	"github.com/disgoorg/snowflake/v2"
)

const testGuildID = snowflake.ID(1)

func connectedSession() *Session {
	s := NewSession(testGuildID)
	s.Connect(snowflake.ID(10))
	return s
}

func TestNewSession(t *testing.T) {
	s := NewSession(testGuildID)

	if s.GuildID() != testGuildID {
		t.Errorf("GuildID() = %d, want %d", s.GuildID(), testGuildID)
	}
	if s.ConnState() != Disconnected {
		t.Error("expected new session to be disconnected")
	}
	if s.RenderState() != RenderIdle {
		t.Error("expected new session to be idle")
	}
	if s.Volume() != DefaultVolume {
		t.Errorf("Volume() = %v, want %v", s.Volume(), DefaultVolume)
	}
	if !s.Queue.IsEmpty() {
		t.Error("expected empty queue")
	}
}

func TestSession_Connect(t *testing.T) {
	s := NewSession(testGuildID)

	s.Connect(snowflake.ID(10))
	if s.ConnState() != Connected || s.RenderState() != RenderIdle {
		t.Fatal("expected Connected/Idle after Connect")
	}
	if s.ChannelID() != snowflake.ID(10) {
		t.Errorf("ChannelID() = %d, want 10", s.ChannelID())
	}
}

func TestSession_ConnectMovePreservesRenderState(t *testing.T) {
	s := connectedSession()
	s.Queue.Enqueue(testTrack("a"))
	if _, err := s.BeginRender(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Moving to another channel keeps the render running
	s.Connect(snowflake.ID(20))

	if s.ChannelID() != snowflake.ID(20) {
		t.Errorf("ChannelID() = %d, want 20", s.ChannelID())
	}
	if s.RenderState() != RenderPlaying {
		t.Error("move must not reset render state")
	}
	if s.Queue.IsEmpty() {
		t.Error("move must not clear the queue")
	}
}

func TestSession_BeginRender(t *testing.T) {
	tests := []struct {
		name    string
		setup   func() *Session
		wantErr error
	}{
		{
			name:  "from connected idle",
			setup: connectedSession,
		},
		{
			name: "from connected playing replaces current",
			setup: func() *Session {
				s := connectedSession()
				_, _ = s.BeginRender()
				return s
			},
		},
		{
			name:    "while disconnected",
			setup:   func() *Session { return NewSession(testGuildID) },
			wantErr: ErrNotConnected,
		},
		{
			name: "while paused replaces the paused render",
			setup: func() *Session {
				s := connectedSession()
				_, _ = s.BeginRender()
				_ = s.Pause()
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setup()
			before := s.Generation()

			gen, err := s.BeginRender()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("BeginRender() error = %v, want %v", err, tt.wantErr)
				}
				if s.Generation() != before {
					t.Error("failed BeginRender must not bump generation")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gen != before+1 {
				t.Errorf("generation = %d, want %d", gen, before+1)
			}
			if s.RenderState() != RenderPlaying {
				t.Error("expected Playing after BeginRender")
			}
		})
	}
}

func TestSession_FinishRender(t *testing.T) {
	s := connectedSession()
	gen, err := s.BeginRender()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !s.FinishRender(gen) {
		t.Fatal("expected FinishRender to accept current generation")
	}
	if s.RenderState() != RenderIdle {
		t.Error("expected Idle after FinishRender")
	}

	// A duplicate completion for the same render is stale
	if s.FinishRender(gen) {
		t.Error("expected duplicate FinishRender to be rejected")
	}
}

func TestSession_FinishRenderStaleAfterDisconnect(t *testing.T) {
	s := connectedSession()
	gen, _ := s.BeginRender()

	s.Disconnect()

	if s.FinishRender(gen) {
		t.Error("completion for a pre-disconnect render must be stale")
	}
}

func TestSession_PauseResume(t *testing.T) {
	s := NewSession(testGuildID)

	// Everything is a precondition error while disconnected
	if err := s.Pause(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Pause() disconnected error = %v, want ErrNotConnected", err)
	}
	if err := s.Resume(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Resume() disconnected error = %v, want ErrNotConnected", err)
	}

	s.Connect(snowflake.ID(10))

	// Pause from idle is rejected
	if err := s.Pause(); !errors.Is(err, ErrNotPlaying) {
		t.Errorf("Pause() idle error = %v, want ErrNotPlaying", err)
	}
	// Resume without a pause is rejected
	if err := s.Resume(); !errors.Is(err, ErrNotPaused) {
		t.Errorf("Resume() idle error = %v, want ErrNotPaused", err)
	}

	if _, err := s.BeginRender(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if s.RenderState() != RenderPaused {
		t.Error("expected Paused")
	}
	if err := s.Pause(); !errors.Is(err, ErrAlreadyPaused) {
		t.Errorf("second Pause() error = %v, want ErrAlreadyPaused", err)
	}

	if err := s.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if s.RenderState() != RenderPlaying {
		t.Error("expected Playing after Resume")
	}
}

func TestSession_SetVolume(t *testing.T) {
	tests := []struct {
		name    string
		volume  float64
		wantErr error
	}{
		{name: "zero accepted", volume: 0},
		{name: "default accepted", volume: 0.5},
		{name: "max accepted", volume: 2.0},
		{name: "above max rejected", volume: 2.5, wantErr: ErrVolumeOutOfRange},
		{name: "negative rejected", volume: -0.1, wantErr: ErrVolumeOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := connectedSession()
			err := s.SetVolume(tt.volume)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SetVolume(%v) error = %v, want %v", tt.volume, err, tt.wantErr)
				}
				if s.Volume() != DefaultVolume {
					t.Error("rejected SetVolume must not mutate the volume")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.Volume() != tt.volume {
				t.Errorf("Volume() = %v, want %v", s.Volume(), tt.volume)
			}
		})
	}

	s := NewSession(testGuildID)
	if err := s.SetVolume(0.5); !errors.Is(err, ErrNotConnected) {
		t.Errorf("SetVolume() disconnected error = %v, want ErrNotConnected", err)
	}
}

func TestSession_DisconnectClearsQueue(t *testing.T) {
	s := connectedSession()
	s.Queue.Enqueue(testTrack("a"))
	s.Queue.Enqueue(testTrack("b"))
	_, _ = s.BeginRender()

	s.Disconnect()

	if s.ConnState() != Disconnected {
		t.Error("expected Disconnected")
	}
	if s.RenderState() != RenderIdle {
		t.Error("expected Idle")
	}
	if !s.Queue.IsEmpty() {
		t.Error("disconnect must clear the queue")
	}
	if s.ChannelID() != 0 {
		t.Error("expected channel to be reset")
	}
}
