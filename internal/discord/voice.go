package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"layeh.com/gopus"

	"github.com/dgnsrekt/playvoice-go/internal/audio"
)

const (
	// voiceConnectTimeout is the maximum time to wait for voice connection readiness.
	voiceConnectTimeout = 10 * time.Second
	// voiceConnectPollInterval is the polling interval while waiting for connection.
	voiceConnectPollInterval = 100 * time.Millisecond
	// frameDuration is the duration of one Discord audio frame (20ms).
	frameDuration = 20 * time.Millisecond
	// maxOpusDataBytes is the maximum size of an encoded Opus frame.
	maxOpusDataBytes = 4000
)

var (
	// ErrNotConnected is returned when trying to send audio while not connected.
	ErrNotConnected = errors.New("not connected to voice channel")
	// ErrConnectionFailed is returned when voice connection fails.
	ErrConnectionFailed = errors.New("failed to connect to voice channel")
	// ErrUnsupportedFrame is returned for frames that are not 24kHz mono.
	ErrUnsupportedFrame = errors.New("unsupported frame format")
)

// voiceConn is the part of a discordgo voice connection the sink uses.
type voiceConn interface {
	Speaking(bool) error
	Disconnect() error
	Send() chan<- []byte
}

type discordVoice struct {
	vc *discordgo.VoiceConnection
}

func (d discordVoice) Speaking(b bool) error { return d.vc.Speaking(b) }
func (d discordVoice) Disconnect() error     { return d.vc.Disconnect() }
func (d discordVoice) Send() chan<- []byte   { return d.vc.OpusSend }

// VoiceManager owns the Discord voice connection and plays realigned
// frames into it. Frames are upsampled to 48kHz stereo, cut into 20ms
// Opus packets and paced in real time.
type VoiceManager struct {
	mu          sync.Mutex
	session     *discordgo.Session
	voice       voiceConn
	guildID     string
	channelID   string
	logger      *slog.Logger
	opusEncoder *gopus.Encoder

	// Playback state, owned by the single queue worker.
	pending  []byte
	speaking bool
	pacer    *time.Ticker
	pace     time.Duration
}

// NewVoiceManager creates a new voice manager.
func NewVoiceManager(token, guildID, channelID string, logger *slog.Logger) (*VoiceManager, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	// 48kHz stereo, voip application
	encoder, err := gopus.NewEncoder(audio.DiscordSampleRate, audio.DiscordChannels, gopus.Voip)
	if err != nil {
		return nil, err
	}

	return &VoiceManager{
		session:     session,
		guildID:     guildID,
		channelID:   channelID,
		logger:      logger,
		opusEncoder: encoder,
		pace:        frameDuration,
	}, nil
}

// Open opens the Discord session.
func (vm *VoiceManager) Open() error {
	return vm.session.Open()
}

// Close leaves the voice channel and closes the Discord session.
func (vm *VoiceManager) Close() error {
	if err := vm.Disconnect(); err != nil {
		vm.logger.Warn("voice disconnect failed", "error", err)
	}
	return vm.session.Close()
}

// Connect joins the configured voice channel and waits until it is ready.
func (vm *VoiceManager) Connect(ctx context.Context) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.voice != nil {
		return nil
	}

	vm.logger.Info("connecting to voice channel", "guild_id", vm.guildID, "channel_id", vm.channelID)

	// Muted=false, deafened=true: the bot only speaks.
	vc, err := vm.session.ChannelVoiceJoin(vm.guildID, vm.channelID, false, true)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	timeout := time.NewTimer(voiceConnectTimeout)
	defer timeout.Stop()
	poll := time.NewTicker(voiceConnectPollInterval)
	defer poll.Stop()

	for !vc.Ready {
		select {
		case <-ctx.Done():
			vc.Disconnect()
			return ctx.Err()
		case <-timeout.C:
			vc.Disconnect()
			return ErrConnectionFailed
		case <-poll.C:
		}
	}

	vm.voice = discordVoice{vc: vc}
	vm.logger.Info("connected to voice channel")
	return nil
}

// Disconnect leaves the voice channel.
func (vm *VoiceManager) Disconnect() error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.voice == nil {
		return nil
	}

	vm.logger.Info("disconnecting from voice channel")
	vm.resetPlayback(vm.voice)
	err := vm.voice.Disconnect()
	vm.voice = nil
	return err
}

// IsConnected returns whether the bot is connected to voice.
func (vm *VoiceManager) IsConnected() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.voice != nil
}

// Ready connects when not yet connected.
func (vm *VoiceManager) Ready(ctx context.Context) error {
	if vm.IsConnected() {
		return nil
	}
	return vm.Connect(ctx)
}

// WriteFrame queues one 24kHz mono frame and sends every complete 20ms
// packet it produces.
func (vm *VoiceManager) WriteFrame(ctx context.Context, f audio.Frame) error {
	if f.SampleRate != audio.StreamSampleRate || f.Layout != audio.LayoutMono {
		return fmt.Errorf("%w: %d Hz %s", ErrUnsupportedFrame, f.SampleRate, f.Layout)
	}
	vc := vm.conn()
	if vc == nil {
		return ErrNotConnected
	}

	upsampled, err := audio.ResamplePCM16(f.Bytes(), audio.StreamSampleRate, audio.DiscordSampleRate)
	if err != nil {
		return err
	}
	vm.pending = append(vm.pending, audio.MonoToStereo(upsampled)...)

	frames := audio.NewPCMFrameReader(vm.pending)
	for frames.Remaining() >= audio.DiscordFrameBytes {
		packet, err := frames.ReadFrame()
		if err != nil {
			return err
		}
		if err := vm.send(ctx, vc, packet); err != nil {
			vm.resetPlayback(vc)
			return err
		}
	}
	vm.pending = append(vm.pending[:0], frames.Rest()...)
	return nil
}

// Flush pads and sends the final partial packet, then stops speaking.
func (vm *VoiceManager) Flush(ctx context.Context) error {
	vc := vm.conn()
	if vc == nil {
		return ErrNotConnected
	}
	defer vm.resetPlayback(vc)

	if len(vm.pending) > 0 {
		packet := make([]byte, audio.DiscordFrameBytes)
		copy(packet, vm.pending)
		if err := vm.send(ctx, vc, packet); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VoiceManager) conn() voiceConn {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.voice
}

// send encodes one 48kHz stereo packet and hands it to discordgo in real time.
func (vm *VoiceManager) send(ctx context.Context, vc voiceConn, pcm []byte) error {
	if !vm.speaking {
		if err := vc.Speaking(true); err != nil {
			vm.logger.Error("failed to set speaking state", "error", err)
		}
		vm.speaking = true
		vm.pacer = time.NewTicker(vm.pace)
	} else {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-vm.pacer.C:
		}
	}

	opus, err := vm.encodeOpus(pcm)
	if err != nil {
		// A bad packet is skipped rather than ending playback.
		vm.logger.Error("opus encoding failed", "error", err)
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case vc.Send() <- opus:
		return nil
	}
}

// resetPlayback clears buffered audio and the speaking state on vc.
// It does not take vm.mu; Disconnect calls it with the lock held.
func (vm *VoiceManager) resetPlayback(vc voiceConn) {
	vm.pending = vm.pending[:0]
	if vm.pacer != nil {
		vm.pacer.Stop()
		vm.pacer = nil
	}
	if vm.speaking && vc != nil {
		if err := vc.Speaking(false); err != nil {
			vm.logger.Error("failed to clear speaking state", "error", err)
		}
	}
	vm.speaking = false
}

// encodeOpus converts one 3840-byte 48kHz stereo PCM packet to Opus.
func (vm *VoiceManager) encodeOpus(pcm []byte) ([]byte, error) {
	samples := audio.DecodeSamples(pcm)
	// frameSize is samples per channel: 960 for 20ms at 48kHz.
	return vm.opusEncoder.Encode(samples, audio.DiscordFrameSize, maxOpusDataBytes)
}
