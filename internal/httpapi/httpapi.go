// Package httpapi exposes the Chinese synthesis pipeline over HTTP: a
// speech endpoint compatible with the common audio/speech JSON shape, a
// metadata endpoint listing available speakers/styles, and a health
// check.
package httpapi

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rorical/sbv2-onnx-server/internal/logging"
	"github.com/Rorical/sbv2-onnx-server/pkg/synth"
)

// Project is the subset of *infer.Project the metadata endpoint needs.
type Project interface {
	AvailableSpeakers() []string
	AvailableStyles() []string
	SampleRate() int
}

// Synthesizer is the subset of *synth.Synthesizer the speech endpoint
// needs, narrowed to an interface so tests can stub it out.
type Synthesizer interface {
	Synthesize(input synth.Input) (synth.Result, error)
}

// Server bundles the dependencies the HTTP routes close over.
type Server struct {
	synth   Synthesizer
	project Project
}

// NewServer wires a synthesizer and project into route handlers.
func NewServer(synthesizer Synthesizer, project Project) *Server {
	return &Server{synth: synthesizer, project: project}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	router.GET("/v1/metadata", s.handleMetadata)
	router.POST("/v1/audio/speech", s.handleSpeech)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type metadataResponse struct {
	Voices     []string `json:"voices"`
	Styles     []string `json:"styles"`
	SampleRate int      `json:"sample_rate"`
}

func (s *Server) handleMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, metadataResponse{
		Voices:     s.project.AvailableSpeakers(),
		Styles:     s.project.AvailableStyles(),
		SampleRate: s.project.SampleRate(),
	})
}

// speechRequest is the JSON body of POST /v1/audio/speech. response_format
// accepts b64_json (the default) or its alias base64. audio_format accepts
// wav (the default) or mp3, and an mp3 request is then rejected because
// no MP3 encoder is available; only WAV audio is ever returned.
type speechRequest struct {
	Model          string   `json:"model"`
	Input          string   `json:"input"`
	Voice          *string  `json:"voice"`
	Style          *string  `json:"style"`
	StyleWeight    *float32 `json:"style_weight"`
	Noise          *float32 `json:"noise"`
	NoiseW         *float32 `json:"noise_w"`
	SdpRatio       *float32 `json:"sdp_ratio"`
	Speed          *float32 `json:"speed"`
	LengthScale    *float32 `json:"length_scale"`
	ResponseFormat string   `json:"response_format"`
	AudioFormat    string   `json:"audio_format"`
	AssistText     *string  `json:"assist_text"`
	AssistWeight   *float32 `json:"assist_weight"`
}

type speechResponse struct {
	Model       string `json:"model"`
	Voice       string `json:"voice,omitempty"`
	Style       string `json:"style,omitempty"`
	AudioBase64 string `json:"audio_base64"`
	AudioFormat string `json:"audio_format"`
	SampleRate  int    `json:"sample_rate"`
	DurationMS  int64  `json:"duration_ms"`
}

func (s *Server) handleSpeech(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if req.ResponseFormat == "" {
		req.ResponseFormat = "b64_json"
	}
	if req.ResponseFormat != "b64_json" && req.ResponseFormat != "base64" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "only b64_json response_format is supported"})
		return
	}

	audioFormat := req.AudioFormat
	if audioFormat == "" {
		audioFormat = "wav"
	}
	if audioFormat != "wav" && audioFormat != "mp3" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unsupported audio_format " + audioFormat})
		return
	}

	result, err := s.synth.Synthesize(synth.Input{
		Text:         req.Input,
		Speaker:      req.Voice,
		Style:        req.Style,
		StyleWeight:  req.StyleWeight,
		SdpRatio:     req.SdpRatio,
		Noise:        req.Noise,
		NoiseW:       req.NoiseW,
		LengthScale:  req.LengthScale,
		Speed:        req.Speed,
		AssistText:   req.AssistText,
		AssistWeight: req.AssistWeight,
	})
	if err != nil {
		logging.Logger().Error().Err(err).Msg("synthesis failed")
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var payload []byte
	switch audioFormat {
	case "wav":
		payload = result.WAV
	case "mp3":
		c.JSON(http.StatusBadRequest, gin.H{"message": "mp3 encoding is not supported"})
		return
	}

	resp := speechResponse{
		Model:       req.Model,
		AudioBase64: base64.StdEncoding.EncodeToString(payload),
		AudioFormat: audioFormat,
		SampleRate:  result.SampleRate,
		DurationMS:  result.Timings.TotalMS,
	}
	if req.Voice != nil {
		resp.Voice = *req.Voice
	}
	if req.Style != nil {
		resp.Style = *req.Style
	}

	c.JSON(http.StatusOK, resp)
}
