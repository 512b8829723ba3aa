package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gen2brain/malgo"
)

// frameSamples is the PCM frame size the capture loop hands to the VAD gate
// and wake detector, matching the 32ms low-latency chunking the reference
// mic-capture adapters in this domain use at 16kHz.
const frameSamples = 512

// MicCapture owns a malgo capture device and feeds its frames into a
// RingBuffer that the processing loop drains on its own schedule, so the
// audio callback itself never blocks on VAD or wake inference. If the
// device won't honor the requested sample rate, frames are linearly
// resampled to it before being written.
type MicCapture struct {
	ctx              *malgo.AllocatedContext
	device           *malgo.Device
	ring             *RingBuffer
	sampleRate       int
	deviceSampleRate int
}

// NewMicCapture opens the default capture device at sampleRate, mono,
// signed 16-bit PCM, writing frames into ring as they arrive.
func NewMicCapture(sampleRate int, ring *RingBuffer) (*MicCapture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: init context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.PeriodSizeInFrames = frameSamples

	m := &MicCapture{ctx: ctx, ring: ring, sampleRate: sampleRate}

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, in []byte, frameCount uint32) {
			samples := bytesToInt16(in)
			if m.deviceSampleRate != 0 && m.deviceSampleRate != m.sampleRate {
				samples = resampleInt16(samples, m.deviceSampleRate, m.sampleRate)
			}
			m.ring.Write(samples)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("audio: init device: %w", err)
	}
	m.device = device
	m.deviceSampleRate = int(device.SampleRate())
	return m, nil
}

// resampleInt16 adapts Resample's float32 linear-interpolation path to the
// int16 PCM this capture adapter and RingBuffer use.
func resampleInt16(samples []int16, srcRate, dstRate int) []int16 {
	f := make([]float32, len(samples))
	for i, s := range samples {
		f[i] = float32(s)
	}
	f = Resample(f, srcRate, dstRate)
	out := make([]int16, len(f))
	for i, v := range f {
		out[i] = int16(v)
	}
	return out
}

// Start begins capture; samples flow into the ring buffer until Close.
func (m *MicCapture) Start() error {
	return m.device.Start()
}

// Close stops the device and releases the malgo context.
func (m *MicCapture) Close() {
	if m.device != nil {
		m.device.Stop()
		m.device.Uninit()
	}
	if m.ctx != nil {
		m.ctx.Uninit()
		m.ctx.Free()
	}
}

func bytesToInt16(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

// WakeEventHandler is invoked with each non-WakeNone outcome the processing
// loop observes.
type WakeEventHandler func(WakeOutcome)

// RunProcessingLoop drains ring at a fixed cadence derived from frameSamples
// and sampleRate, gates each frame through vad, runs the wake detector when
// the gate says to or while a confirmation window is open, and ticks it on
// the frames it skips so an open window can still expire on schedule. It
// returns when ctx is cancelled.
func RunProcessingLoop(ctx context.Context, ring *RingBuffer, vad *VAD, detector *WakeDetector, sampleRate int, handle WakeEventHandler) {
	period := FrameDuration(frameSamples, sampleRate)
	if period <= 0 {
		period = 32 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	frame := make([]int16, frameSamples)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n := ring.Read(frame)
			if n == 0 {
				if outcome := detector.Tick(now); outcome != WakeNone {
					handle(outcome)
				}
				continue
			}
			sample := frame[:n]
			if vad.Gate(sample) || detector.InWindow() {
				if outcome := detector.Process(sample, now); outcome != WakeNone {
					handle(outcome)
				}
			} else if outcome := detector.Tick(now); outcome != WakeNone {
				handle(outcome)
			}
		}
	}
}
