package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/controllers"
	"github.com/yeremiapane/restaurant-ordering/middlewares"
	"github.com/yeremiapane/restaurant-ordering/realtime"
)

func SetupRouter(db *gorm.DB, hub *realtime.Hub) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db)
	storeCtrl := controllers.NewStoreController(db)
	tableCtrl := controllers.NewTableController(db)
	menuCtrl := controllers.NewMenuController(db)
	sessionCtrl := controllers.NewSessionController(db)
	cartCtrl := controllers.NewCartController(db, hub)
	realtimeCtrl := controllers.NewRealtimeController(db, hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Customer-facing catalog and join flow (no auth; the join response
	// hands out the session token).
	r.GET("/stores/:store_id/menu", menuCtrl.GetStoreMenu)
	r.GET("/stores/:store_id/tables", tableCtrl.GetStoreTables)
	r.POST("/stores/:store_id/tables/:table_id/join", sessionCtrl.JoinByTable)

	// Cart surface: dual credential (X-Session-Token or bearer), checked
	// by the access gate per operation rather than by a route middleware.
	r.GET("/sessions/:session_id/cart", cartCtrl.GetCart)
	r.POST("/sessions/:session_id/cart/items", cartCtrl.AddItem)
	r.PATCH("/sessions/:session_id/cart/items/:item_id", cartCtrl.UpdateItem)
	r.DELETE("/sessions/:session_id/cart/items/:item_id", cartCtrl.RemoveItem)
	r.DELETE("/sessions/:session_id/cart", cartCtrl.ClearCart)

	// Realtime channel; credentials go through the connect handshake.
	r.GET("/ws", realtimeCtrl.HandleWS)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)

	// STORES
	auth.POST("/stores", storeCtrl.CreateStore)
	auth.POST("/stores/:store_id/members", storeCtrl.AddMember)
	auth.GET("/stores/:store_id/members", storeCtrl.ListMembers)

	// TABLES
	auth.POST("/stores/:store_id/tables", tableCtrl.CreateTable)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

	// MENU
	auth.POST("/stores/:store_id/menu", menuCtrl.CreateMenuItem)
	auth.PATCH("/menu/:menu_item_id", menuCtrl.UpdateMenuItem)
	auth.DELETE("/menu/:menu_item_id", menuCtrl.DeleteMenuItem)
	auth.POST("/menu/:menu_item_id/options", menuCtrl.AddCustomizationOption)
	auth.DELETE("/menu/options/:option_id", menuCtrl.DeleteCustomizationOption)

	// SESSIONS
	auth.POST("/stores/:store_id/sessions", sessionCtrl.CreateManualSession)
	auth.GET("/stores/:store_id/sessions", sessionCtrl.ListStoreSessions)
	auth.GET("/sessions/:session_id", sessionCtrl.GetSession)
	auth.PATCH("/sessions/:session_id", sessionCtrl.UpdateSession)
	auth.POST("/sessions/:session_id/close", sessionCtrl.CloseSession)

	return r
}
