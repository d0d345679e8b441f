package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/cwrk-planet/signaling-service/internal/domain"
	"github.com/cwrk-planet/signaling-service/internal/service"
	httpmw "github.com/cwrk-planet/signaling-service/internal/transport/http/middleware"
	tlog "github.com/cwrk-planet/signaling-service/internal/transport/logger"
	"github.com/cwrk-planet/signaling-service/pkg/errs"
	"github.com/cwrk-planet/signaling-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds request bodies; SDP blobs are the largest thing we accept.
const maxBodyBytes = 256 << 10

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	roomSvc    *service.RoomService
	partySvc   *service.PartyService
	mailboxSvc *service.MailboxService
	store      Pinger

	validate *validator.Validate
}

func NewHandler(room *service.RoomService, party *service.PartyService, mailbox *service.MailboxService, store Pinger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{
		roomSvc:    room,
		partySvc:   party,
		mailboxSvc: mailbox,
		store:      store,
		validate:   v,
	}
}

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		tlog.L(r.Context()).Error("handler.Health.Ping:", "err", err)
		httputil.JSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false, "status": "degraded", "store": "unreachable",
		})
		return
	}
	httputil.Success(w, http.StatusOK, map[string]any{"status": "ok", "store": "ok"})
}

// POST /signaling/create-room
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if !h.decode(w, r, &req) {
		return
	}
	room, err := h.roomSvc.CreateRoom(r.Context(), h.createInput(r, req))
	if err != nil {
		h.fail(w, r, "handler.CreateRoom", err)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]any{"roomId": room.RoomID, "room": room})
}

// POST /signaling/join-room
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomIDRequest
	if !h.decode(w, r, &req) {
		return
	}
	room, err := h.roomSvc.JoinRoom(r.Context(), req.RoomID, httpmw.UserIDFromCtx(r.Context()))
	if err != nil {
		h.fail(w, r, "handler.JoinRoom", err)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]any{"room": room})
}

// POST /signaling/heartbeat
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req RoomIDRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.roomSvc.Heartbeat(r.Context(), req.RoomID); err != nil {
		h.fail(w, r, "handler.Heartbeat", err)
		return
	}
	httputil.Success(w, http.StatusOK, nil)
}

// POST /signaling/leave
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomIDRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.roomSvc.LeaveRoom(r.Context(), req.RoomID, httpmw.UserIDFromCtx(r.Context())); err != nil {
		h.fail(w, r, "handler.LeaveRoom", err)
		return
	}
	httputil.Success(w, http.StatusOK, nil)
}

// GET /signaling/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomSvc.ListActiveRooms(r.Context())
	if err != nil {
		h.fail(w, r, "handler.ListRooms", err)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// POST /signaling/offer
func (h *Handler) SendOffer(w http.ResponseWriter, r *http.Request) {
	var req OfferRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.send(w, r, domain.KindOffer, service.SendInput{
		RoomID: req.RoomID, Payload: req.Offer, Type: req.Type, FromUserID: req.FromUserID,
	})
}

// POST /signaling/answer
func (h *Handler) SendAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.send(w, r, domain.KindAnswer, service.SendInput{
		RoomID: req.RoomID, Payload: req.Answer, Type: req.Type, FromUserID: req.FromUserID,
	})
}

// GET /signaling/offer/{roomId}
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	h.take(w, r, domain.KindOffer)
}

// GET /signaling/answer/{roomId}
func (h *Handler) GetAnswer(w http.ResponseWriter, r *http.Request) {
	h.take(w, r, domain.KindAnswer)
}

// POST /signaling/create-party-room
func (h *Handler) CreatePartyRoom(w http.ResponseWriter, r *http.Request) {
	var req CreatePartyRoomRequest
	if !h.decode(w, r, &req) {
		return
	}
	room, err := h.partySvc.CreatePartyRoom(r.Context(), service.CreatePartyRoomInput{
		CreateRoomInput: h.createInput(r, req.CreateRoomRequest),
		ParentRoomID:    req.ParentRoomID,
		InvitedUsers:    req.InvitedUsers,
	})
	if err != nil {
		h.fail(w, r, "handler.CreatePartyRoom", err)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]any{"roomId": room.RoomID, "room": room})
}

// GET /signaling/party-rooms/{parentRoomId}
func (h *Handler) GetPartyRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.partySvc.GetPartyRooms(r.Context(), chi.URLParam(r, "parentRoomId"))
	if err != nil {
		h.fail(w, r, "handler.GetPartyRooms", err)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// POST /signaling/party-room/{roomId}/invite
func (h *Handler) InviteToPartyRoom(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if !h.decode(w, r, &req) {
		return
	}
	invited, err := h.partySvc.Invite(r.Context(), chi.URLParam(r, "roomId"), httpmw.UserIDFromCtx(r.Context()), req.UserIDs)
	if err != nil {
		h.fail(w, r, "handler.InviteToPartyRoom", err)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]any{"invitedUsers": invited})
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request, kind domain.MailboxKind, in service.SendInput) {
	if in.FromUserID == "" {
		in.FromUserID = httpmw.UserIDFromCtx(r.Context())
	}
	if err := h.mailboxSvc.Send(r.Context(), kind, in); err != nil {
		h.fail(w, r, "handler.Send."+string(kind), err)
		return
	}
	httputil.Success(w, http.StatusOK, nil)
}

func (h *Handler) take(w http.ResponseWriter, r *http.Request, kind domain.MailboxKind) {
	e, err := h.mailboxSvc.Take(r.Context(), kind, chi.URLParam(r, "roomId"))
	if err != nil {
		h.fail(w, r, "handler.Take."+string(kind), err)
		return
	}
	httputil.Success(w, http.StatusOK, mailboxBody(kind, e))
}

// createInput defaults the broadcaster to the authenticated caller.
func (h *Handler) createInput(r *http.Request, req CreateRoomRequest) service.CreateRoomInput {
	id := req.BroadcasterID
	if id == "" {
		id = httpmw.UserIDFromCtx(r.Context())
	}
	return service.CreateRoomInput{
		BroadcasterID:    id,
		BroadcasterName:  req.BroadcasterName,
		CustomName:       req.CustomName,
		EncryptedRoomKey: req.EncryptedRoomKey,
		KeyHash:          req.KeyHash,
	}
}

// decode reads and validates a JSON body, answering 400 itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		tlog.L(r.Context()).Debug("handler.decode:", "err", err)
		httputil.Error(w, http.StatusBadRequest, "invalid_json", "request body must be a JSON object")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid_input", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s)", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s is too long (max %s)", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

// fail maps service errors onto status codes. Internal details stay in the log.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := errs.ToHTTP(err)
	if status >= http.StatusInternalServerError {
		tlog.L(r.Context()).Error(op+":", "err", err)
		httputil.Error(w, status, errs.Code(err), "internal server error")
		return
	}

	code := errs.Code(err)
	if errors.Is(err, domain.ErrNotPartyRoom) {
		code = "not_party_room"
	}
	httputil.Error(w, status, code, err.Error())
}
