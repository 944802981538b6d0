package server

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/command"
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/service/conversation"
	"github.com/kapu/interview-teleprompter-go/internal/util"
	apperrors "github.com/kapu/interview-teleprompter-go/pkg/errors"
)

const (
	MsgActivated         = "Live teleprompter activated successfully!"
	MsgStopped           = "Teleprompter stopped successfully"
	MsgAlreadyListening  = "Teleprompter is already listening"
	MsgMicrophoneOK      = "Microphone access granted and working"
	MsgMicrophoneFailure = "Microphone access denied or unavailable: "
)

// 1x1 transparent PNG.
var faviconPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

type startRequest struct {
	StealthMode *bool `json:"stealth_mode"`
}

type askRequest struct {
	Question string `json:"question"`
}

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

type pageData struct {
	Company     string
	Position    string
	Candidate   string
	Profile     string
	SessionID   string
	Features    []string
	Suggestions []string
}

func writeError(c *gin.Context, err error) {
	c.JSON(apperrors.StatusCode(err), gin.H{
		"success": false,
		"error":   apperrors.Message(err),
	})
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewValidationError("invalid JSON body", "body", err.Error())
	}
	return nil
}

func (s *Server) execute(c *gin.Context, key string, params map[string]any) (*domain.CommandResult, error) {
	cmdCtx := domain.NewCommandContext("http", params)
	return s.deps.Registry.Execute(c.Request.Context(), cmdCtx, key)
}

func (s *Server) handleIndex(c *gin.Context) {
	p := s.deps.Profile
	c.HTML(http.StatusOK, "index.html.tmpl", pageData{
		Company:     p.Context.Company,
		Position:    p.Context.Position,
		Candidate:   p.Context.Candidate.Name,
		Profile:     p.Name,
		SessionID:   s.deps.Session.ID(),
		Features:    p.Features,
		Suggestions: p.Context.Suggestions,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleFavicon(c *gin.Context) {
	c.Data(http.StatusOK, "image/png", faviconPNG)
}

func (s *Server) handleFeed(c *gin.Context) {
	status := s.deps.Session.Status()
	hello := &conversation.Event{Type: "status", SessionID: status.SessionID, Status: &status}
	s.deps.Hub.Serve(c.Writer, c.Request, hello)
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	stealth := true
	if req.StealthMode != nil {
		stealth = *req.StealthMode
	}

	res, err := s.execute(c, "start", map[string]any{"stealth_mode": stealth})
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.OK {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": command.MsgAlreadyRunning})
		return
	}

	p := s.deps.Profile
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": MsgActivated,
		"teleprompter": gin.H{
			"company":                      p.Context.Company,
			"stealth_mode":                 res.Data["stealth_mode"],
			"features":                     p.Features,
			"company_specific_suggestions": p.Context.Suggestions,
		},
	})
}

func (s *Server) handleStop(c *gin.Context) {
	if _, err := s.execute(c, "stop", nil); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": MsgStopped})
}

func (s *Server) handleStartListening(c *gin.Context) {
	res, err := s.execute(c, "start_listening", nil)
	if err != nil {
		writeError(c, err)
		return
	}
	if !res.OK {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": MsgAlreadyListening, "is_listening": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": command.MsgListeningStarted, "is_listening": true})
}

func (s *Server) handleStopListening(c *gin.Context) {
	if _, err := s.execute(c, "stop_listening", nil); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": command.MsgListeningStopped, "is_listening": false})
}

func (s *Server) handleStatus(c *gin.Context) {
	res, err := s.execute(c, "status", nil)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Status)
}

func (s *Server) handleConversation(c *gin.Context) {
	entries := s.deps.Session.Log().All()
	if entries == nil {
		entries = []domain.ConversationEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// handleResponse reports the latest exchange. Before the first answer the
// timestamp is the request time, which keeps pollers from caching an empty state.
func (s *Server) handleResponse(c *gin.Context) {
	current := s.deps.Session.Current()
	ts := current.Timestamp
	if ts.IsZero() {
		ts = s.deps.Clock()
	}
	c.JSON(http.StatusOK, gin.H{
		"question":  current.Question,
		"response":  current.Response,
		"timestamp": util.FormatISO(ts),
	})
}

func (s *Server) handleQR(c *gin.Context) {
	url := PairingURL(s.cfg.PublicHost, s.cfg.Port)
	uri, err := QRDataURI(url)
	if err != nil {
		s.logger.Error("Failed to render pairing QR code", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "qr_code": uri, "url": url})
}

func (s *Server) handleCheckMicrophone(c *gin.Context) {
	check := s.deps.CheckMicrophone
	if check == nil {
		check = func() (string, error) { return "", errors.New("audio capture is not configured") }
	}

	device, err := check()
	if err != nil {
		s.logger.Warn("Microphone check failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{
			"success":              false,
			"message":              MsgMicrophoneFailure + err.Error(),
			"microphone_available": false,
			"error":                err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"message":              MsgMicrophoneOK,
		"microphone_available": true,
		"device":               device,
	})
}

func (s *Server) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.NewValidationError("invalid JSON body", "body", err.Error()))
		return
	}

	res, err := s.execute(c, "ask", map[string]any{"question": req.Question})
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{"success": true}
	for k, v := range res.Data {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleListReferences(c *gin.Context) {
	papers, err := s.deps.Catalog.Papers(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[domain.PaperSummary]{Count: len(papers), Results: papers})
}

func (s *Server) handleGetReference(c *gin.Context) {
	ref, err := s.deps.Catalog.Paper(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ref)
}

func (s *Server) handleListPersonalWork(c *gin.Context) {
	works, err := s.deps.Catalog.PersonalWork(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listResponse[domain.WorkSummary]{Count: len(works), Results: works})
}

func (s *Server) handleGetPersonalWork(c *gin.Context) {
	work, err := s.deps.Catalog.Work(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, work)
}
