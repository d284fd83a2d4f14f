package manager

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aerius-tss/gg18-signer/internal/config"
	"github.com/aerius-tss/gg18-signer/internal/metrics"
	"github.com/aerius-tss/gg18-signer/internal/queue"
	"github.com/aerius-tss/gg18-signer/internal/relay"
	"github.com/aerius-tss/gg18-signer/internal/store"
)

// Server holds every collaborator the route handlers need (§9 "inject
// into handlers explicitly rather than reading from a process-global").
type Server struct {
	cfg       *config.Config
	store     store.Store
	queue     queue.Queue
	registry  *Registry
	transport *relay.MemoryTransport
}

func NewServer(cfg *config.Config, st store.Store, q queue.Queue) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		queue:     q,
		registry:  NewRegistry(cfg.PingTimeout()),
		transport: relay.NewMemoryTransport(),
	}
}

type submitSignRequest struct {
	Message string `json:"message"`
}

type submitSignResponse struct {
	RequestID string        `json:"request_id"`
	Status    store.Status  `json:"status"`
}

// PostSign implements "POST /sign" (spec.md §6, §8 scenario 5: oversize
// rejection before any DB write).
func (s *Server) PostSign(c *gin.Context) {
	if c.Request.ContentLength > s.cfg.MaxMessageSizeBytes {
		c.Status(http.StatusRequestEntityTooLarge)
		return
	}
	var req submitSignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if int64(len(req.Message)) > s.cfg.MaxMessageSizeBytes {
		c.Status(http.StatusRequestEntityTooLarge)
		return
	}

	requestID := uuid.NewString()
	sr := &store.SigningRequest{RequestID: requestID, Message: []byte(req.Message), Status: store.StatusPending}
	if err := s.store.PutSigningRequest(c.Request.Context(), sr); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if err := s.queue.Enqueue(c.Request.Context(), queue.Job{RequestID: requestID, Message: sr.Message}); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	metrics.SessionsStarted.Add(1)
	c.JSON(http.StatusCreated, submitSignResponse{RequestID: requestID, Status: store.StatusPending})
}

// GetSigningResult implements "GET /signing_result/{uuid}".
func (s *Server) GetSigningResult(c *gin.Context) {
	requestID := c.Param("uuid")
	if _, err := uuid.Parse(requestID); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	req, err := s.store.GetSigningRequest(c.Request.Context(), requestID)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, req)
}

type keyGenRequestBody struct {
	Threshold int `json:"t"`
	Parties   int `json:"n"`
}

type keyGenResponse struct {
	RequestID string   `json:"request_id"`
	Keys      []string `json:"keys"`
}

// PostKeyGenRequest implements "POST /key_gen_request". A threshold below
// 1 or not below the party count is rejected with 400.
func (s *Server) PostKeyGenRequest(c *gin.Context) {
	var body keyGenRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if body.Threshold < 1 || body.Threshold >= body.Parties {
		c.Status(http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()
	if err := s.store.PutKeyGenRequest(c.Request.Context(), &store.KeyGenRequest{
		RequestID: requestID, Threshold: body.Threshold, Parties: body.Parties, Status: store.StatusInProgress,
	}); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()
	bundles, err := SubmitKeygen(ctx, body.Threshold, body.Parties)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if err := s.store.CompleteKeyGenRequest(c.Request.Context(), requestID, bundles); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, keyGenResponse{RequestID: requestID, Keys: bundles})
}

// GetKeyGenResult implements "GET /key_gen_result/{uuid}".
func (s *Server) GetKeyGenResult(c *gin.Context) {
	requestID := c.Param("uuid")
	if _, err := uuid.Parse(requestID); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	req, err := s.store.GetKeyGenRequest(c.Request.Context(), requestID)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, req)
}

type signupSignRequest struct {
	RoomID      string `json:"room_id"`
	PartyNumber int    `json:"party_number"`
	PartyUUID   string `json:"party_uuid"`
	Size        int    `json:"size"`
}

// signupSignResponse is spec.md §3's SigningPartySignup.
type signupSignResponse struct {
	PartyOrder  int    `json:"party_order"`
	PartyUUID   string `json:"party_uuid"`
	RoomUUID    string `json:"room_uuid"`
	TotalJoined int    `json:"total_joined"`
}

// PostSignupSign implements "POST /signupsign" (§4.7, §8 scenario 3).
func (s *Server) PostSignupSign(c *gin.Context) {
	var req signupSignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	order, roomUUID, totalJoined, err := s.registry.SignupSign(req.RoomID, req.PartyNumber, req.PartyUUID, req.Size, time.Now())
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	partyUUID := req.PartyUUID
	if room, ok := s.registry.Room(req.RoomID); ok {
		if m, ok := room.Members[req.PartyNumber]; ok {
			partyUUID = m.PartyUUID
		}
	}
	c.JSON(http.StatusOK, signupSignResponse{PartyOrder: order, PartyUUID: partyUUID, RoomUUID: roomUUID, TotalJoined: totalJoined})
}

type signupKeygenRequest struct {
	RequestID string `json:"request_id"`
	PartyUUID string `json:"party_uuid"`
	Parties   int    `json:"parties"`
}

type signupKeygenResponse struct {
	Number int    `json:"number"`
	UUID   string `json:"uuid"`
}

// PostSignupKeygen implements "POST /signupkeygen".
func (s *Server) PostSignupKeygen(c *gin.Context) {
	var req signupKeygenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	number, roomUUID, err := s.registry.SignupKeygen(req.RequestID, req.PartyUUID, req.Parties)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, signupKeygenResponse{Number: number, UUID: roomUUID})
}

type relayEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// relayEnvelope mirrors relay.HTTPTransport's {Ok:...}|{Err:...} response
// contract (§4.1) so cmd/signer's HTTPTransport client can talk to these
// routes directly.
type relayEnvelope struct {
	Ok  interface{} `json:"Ok,omitempty"`
	Err string      `json:"Err,omitempty"`
}

// PostSet implements "POST /set": the signer-facing relay write.
func (s *Server) PostSet(c *gin.Context) {
	var e relayEntry
	if err := c.ShouldBindJSON(&e); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := s.transport.Set(c.Request.Context(), e.Key, []byte(e.Value)); err != nil {
		c.JSON(http.StatusOK, relayEnvelope{Err: err.Error()})
		return
	}
	c.JSON(http.StatusOK, relayEnvelope{Ok: true})
}

// PostGet implements "POST /get": the signer-facing relay read.
func (s *Server) PostGet(c *gin.Context) {
	var e relayEntry
	if err := c.ShouldBindJSON(&e); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	val, ok, err := s.transport.Get(c.Request.Context(), e.Key)
	if err != nil {
		c.JSON(http.StatusOK, relayEnvelope{Err: err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, relayEnvelope{Err: "not_found"})
		return
	}
	c.JSON(http.StatusOK, relayEnvelope{Ok: string(val)})
}

type updateSigningResultRequest struct {
	RequestID string          `json:"request_id"`
	Signature store.Signature `json:"signature"`
}

// PostUpdateSigningResult implements "POST /update_signing_result" (§8
// invariant 4 / scenario 6: idempotent, first write wins).
func (s *Server) PostUpdateSigningResult(c *gin.Context) {
	var req updateSigningResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := s.store.UpdateSigningResult(c.Request.Context(), req.RequestID, &req.Signature); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	metrics.SessionsCompleted.Add(1)
	c.Status(http.StatusOK)
}
