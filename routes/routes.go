package routes

import (
	"net/http"

	"klord-backend/config"
	"klord-backend/controllers"
	"klord-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	r.Use(config.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Static("/uploads", "./uploads")

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	auth := api.Group("/auth")
	{
		auth.POST("/request-otp", controllers.RequestOtp)
		auth.POST("/verify-otp", controllers.VerifyOtp)
		auth.POST("/partner/request-otp", controllers.PartnerRequestOtp)
		auth.POST("/partner/verify-otp", controllers.PartnerVerifyOtp)
		auth.POST("/admin/login", controllers.AdminLogin)
		auth.POST("/staff/login", controllers.StaffLogin)
	}

	// Public surface
	api.POST("/leads/public", controllers.CreateLeadPublic)
	api.POST("/sample/certificate", controllers.SampleCertificate)
	api.GET("/posts", controllers.ListPosts)
	api.POST("/posts/:id/like", controllers.LikePost)

	// Customer routes
	customer := api.Group("", utils.AuthMiddleware(), utils.RequireType(utils.TypeCustomer))
	{
		customer.POST("/leads", controllers.CreateLead)
		customer.GET("/customer/leads", controllers.ListCustomerLeads)
		customer.GET("/customer/leads/:id", controllers.GetCustomerLead)
		customer.GET("/customer/leads/:id/steps", controllers.GetCustomerLeadSteps)
		customer.POST("/customer/amc-requests", controllers.CreateAmcRequest)
		customer.GET("/customer/amc-requests", controllers.GetCustomerAmcRequest)
		customer.GET("/customer/amc-requests/history", controllers.GetCustomerAmcHistory)
	}

	// Staff routes
	staff := api.Group("/staff", utils.AuthMiddleware(), utils.RequireType(utils.TypeStaff))
	{
		staff.GET("/my-leads", controllers.ListMyLeads)
		staff.GET("/my-leads/:id", controllers.GetMyLead)
		staff.POST("/steps/:stepId/complete", controllers.CompleteStep)
	}

	// Admin routes
	admin := api.Group("/admin", utils.AuthMiddleware(), utils.RequireType(utils.TypeAdmin))
	{
		admin.POST("/staff/register", controllers.RegisterStaff)
		admin.GET("/staff", controllers.ListStaff)

		admin.GET("/leads", controllers.ListAdminLeads)
		admin.GET("/leads/:id", controllers.GetAdminLead)
		admin.POST("/leads/:id/assign", controllers.AssignStaff)
		admin.POST("/leads/:id/unassign", controllers.UnassignStaff)
		admin.GET("/leads/:id/steps", controllers.GetAdminLeadSteps)
		admin.PATCH("/leads/:id/steps/:stepId", controllers.UpdateAdminLeadStep)
		admin.POST("/leads/:id/certificate/regenerate", controllers.RegenerateCertificate)

		admin.GET("/customers/phones", controllers.ListCustomerPhones)

		admin.GET("/amc-requests", controllers.ListAmcRequests)
		admin.PATCH("/amc-requests/:id", controllers.UpdateAmcRequest)

		admin.GET("/posts", controllers.ListAdminPosts)
		admin.POST("/posts", controllers.CreatePost)
		admin.DELETE("/posts/:id", controllers.DeletePost)
	}

	return r
}
