package stream

import (
	"context"
	"io"
	"net/http"
	"os/exec"
	"strconv"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/satindergrewal/nadabramha/internal/audio"
)

const streamName = "nada bramha"

// HTTPHandler serves the soundscape as a chunked MP3 stream.
// Each connection gets its own ffmpeg process encoding engine PCM to MP3.
type HTTPHandler struct {
	broadcaster *Broadcaster
	bitrate     string
}

// NewHTTPHandler creates an HTTP stream handler encoding at kbps.
func NewHTTPHandler(b *Broadcaster, kbps int) *HTTPHandler {
	if kbps <= 0 {
		kbps = 192
	}
	return &HTTPHandler{broadcaster: b, bitrate: strconv.Itoa(kbps) + "k"}
}

// ffmpegArgs reads raw engine PCM on stdin and writes MP3 on stdout.
func ffmpegArgs(bitrate string) []string {
	return []string{
		"-f", "s16le",
		"-ar", strconv.Itoa(audio.SampleRate),
		"-ac", strconv.Itoa(audio.Channels),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", bitrate,
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"-loglevel", "error",
		"pipe:1",
	}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg", ffmpegArgs(h.bitrate)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.WithError(err).Error("HTTP stream: stdin pipe")
		http.Error(w, "encoder unavailable", http.StatusServiceUnavailable)
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.WithError(err).Error("HTTP stream: stdout pipe")
		http.Error(w, "encoder unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := cmd.Start(); err != nil {
		log.WithError(err).Error("HTTP stream: ffmpeg start")
		http.Error(w, "encoder unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("ICY-Name", streamName)

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	logger := log.WithFields(log.Fields{"listener": uuid.NewString(), "remote": r.RemoteAddr})
	logger.Infof("HTTP listener connected (total: %d)", h.broadcaster.ListenerCount())
	defer func() {
		logger.WithField("dropped", listener.Dropped()).Info("HTTP listener disconnected")
	}()

	go func() {
		defer stdin.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Done():
				return
			case frame := <-listener.C:
				if _, err := stdin.Write(audio.SamplesToBytes(frame)); err != nil {
					return
				}
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				break
			}
			flusher.Flush()
		}
		if err != nil {
			if err != io.EOF {
				logger.WithError(err).Warn("HTTP stream: ffmpeg read")
			}
			break
		}
	}

	cancel()
	cmd.Wait()
}
