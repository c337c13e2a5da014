package handlers

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the ledger API under /api. adminOnly guards the
// listing and audit endpoints.
func RegisterRoutes(router gin.IRouter, ledger *LedgerHandler, adminAuth *AdminAuthHandler, adminOnly gin.HandlerFunc) {
	api := router.Group("/api")
	{
		// Users
		api.POST("/createUser", ledger.CreateUser)
		api.GET("/getUser/:userID", ledger.GetUser)
		api.POST("/updateUser", ledger.UpdateUser)

		// Seats
		api.POST("/initSeats", ledger.InitSeats)
		api.GET("/getSeats/:routeID", ledger.GetSeats)
		api.GET("/getSeatStats/:routeID", ledger.GetSeatStats)
		api.GET("/getAvailableSeats/:routeID", ledger.GetAvailableSeats)
		api.GET("/getBookedSeats", ledger.GetBookedSeats)
		api.POST("/reserveSeat", ledger.ReserveSeat)
		api.POST("/releaseSeat", ledger.ReleaseSeat)

		// Bookings
		api.POST("/bookSeats", ledger.BookSeats)
		api.POST("/cancelBooking", ledger.CancelBooking)
		api.GET("/getBooking/:bookingID", ledger.GetBooking)
		api.GET("/getUserBookings/:userID", ledger.GetUserBookings)

		// Routes
		api.GET("/listRoutes", ledger.ListRoutes)
		api.GET("/findRoute", ledger.FindRoute)
		api.GET("/calculateFare", ledger.CalculateFare)

		api.POST("/adminLogin", adminAuth.Login)

		admin := api.Group("")
		admin.Use(adminOnly)
		{
			admin.GET("/listUsers", ledger.ListUsers)
			admin.GET("/listBookings", ledger.ListBookings)
			admin.GET("/audit", ledger.Audit)
		}
	}
}
