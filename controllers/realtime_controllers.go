package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/apperr"
	"github.com/yeremiapane/restaurant-ordering/gate"
	"github.com/yeremiapane/restaurant-ordering/realtime"
	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type RealtimeController struct {
	DB       *gorm.DB
	Hub      *realtime.Hub
	Carts    *services.CartService
	Sessions *services.SessionService
}

func NewRealtimeController(db *gorm.DB, hub *realtime.Hub) *RealtimeController {
	return &RealtimeController{
		DB:       db,
		Hub:      hub,
		Carts:    services.NewCartService(db, hub),
		Sessions: services.NewSessionService(db),
	}
}

// channelRequest is one inbound frame on the realtime channel. Credentials
// are never carried here; they were fixed at connect time.
type channelRequest struct {
	Action    string                    `json:"action"`
	SessionID uint                      `json:"session_id"`
	ItemID    uint                      `json:"item_id,omitempty"`
	Item      *services.AddItemInput    `json:"item,omitempty"`
	Update    *services.UpdateItemInput `json:"update,omitempty"`
}

// HandleWS upgrades the connection, authenticates it once, then serves the
// channel operations until the peer disconnects.
func (rc *RealtimeController) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := realtime.NewClient(ws)

	creds, err := rc.connectCredentials(c)
	if err != nil {
		client.SendError(err.Error())
		client.Close()
		return
	}

	defer func() {
		rc.Hub.Leave(client)
		client.Close()
	}()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var req channelRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			client.SendError("malformed message")
			continue
		}
		rc.dispatch(client, creds, req)
	}
}

// connectCredentials resolves the connect-time credential: a session token
// or a staff bearer token, both via query parameters since websocket
// clients cannot reliably set headers.
func (rc *RealtimeController) connectCredentials(c *gin.Context) (gate.Credentials, error) {
	if token := c.Query("session_token"); token != "" {
		if _, err := rc.Sessions.FindByToken(token); err != nil {
			return nil, errors.New("invalid session token")
		}
		return gate.SessionToken{Value: token}, nil
	}

	if token := c.Query("token"); token != "" {
		claims, err := utils.ParseToken(token)
		if err != nil {
			return nil, err
		}
		return gate.StaffIdentity{UserID: claims.UserID}, nil
	}

	return nil, errors.New("authentication required")
}

// dispatch runs one channel operation. Failures go back to the sender as a
// private error event and never tear the connection down; the mutation
// transaction already rolled back.
func (rc *RealtimeController) dispatch(client *realtime.Client, creds gate.Credentials, req channelRequest) {
	switch req.Action {
	case "join":
		// Enter the room before reading the snapshot: a mutation that
		// commits in between then reaches this connection as a broadcast,
		// and the post-join snapshot is never older than a missed one.
		if _, err := gate.Authorize(rc.DB, req.SessionID, creds, gate.CartRoles); err != nil {
			rc.sendOpError(client, "join", err)
			return
		}
		rc.Hub.Join(req.SessionID, client)
		cart, err := rc.Carts.GetCart(req.SessionID, creds)
		if err != nil {
			rc.Hub.Leave(client)
			rc.sendOpError(client, "join", err)
			return
		}
		if err := client.Send(realtime.EventSessionJoined, cart); err != nil {
			utils.ErrorLogger.Printf("join: push to new member failed: %v", err)
		}
	case "add_item":
		if req.Item == nil {
			client.SendError("item payload required")
			return
		}
		if _, err := rc.Carts.AddItem(req.SessionID, creds, *req.Item); err != nil {
			rc.sendOpError(client, "add_item", err)
		}
	case "update_item":
		if req.Update == nil {
			client.SendError("update payload required")
			return
		}
		if _, err := rc.Carts.UpdateItem(req.SessionID, creds, req.ItemID, *req.Update); err != nil {
			rc.sendOpError(client, "update_item", err)
		}
	case "remove_item":
		if _, err := rc.Carts.RemoveItem(req.SessionID, creds, req.ItemID); err != nil {
			rc.sendOpError(client, "remove_item", err)
		}
	case "clear_cart":
		if _, err := rc.Carts.ClearCart(req.SessionID, creds); err != nil {
			rc.sendOpError(client, "clear_cart", err)
		}
	default:
		client.SendError("unknown action")
	}
}

func (rc *RealtimeController) sendOpError(client *realtime.Client, op string, err error) {
	if apperr.IsExpected(err) {
		client.SendError(err.Error())
		return
	}
	utils.ErrorLogger.Printf("%s: %v", op, err)
	client.SendError("internal server error")
}
