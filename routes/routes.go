package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	controller "benchlist/controllers"
	"benchlist/middleware"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	auth := app.Group("/api/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints, rate limited per client IP
	public := auth.Group("", middleware.AuthRateLimiter())
	public.Post("/register/company-user", controller.RegisterCompanyUser)
	public.Post("/register/admin", controller.RegisterAdmin)
	public.Post("/login", controller.Login)
	public.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints (require valid JWT)
	protected := auth.Group("", middleware.Protected())
	protected.Get("/me", controller.GetCurrentUser)
	protected.Post("/change-password", controller.ChangePassword)
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	userController := controller.NewUserController(db, logrus.WithField("component", "users"))
	companyController := controller.NewCompanyController(db, logrus.WithField("component", "companies"))
	adminRequestController := controller.NewAdminRequestController(db, logrus.WithField("component", "admin-requests"))
	employeeController := controller.NewEmployeeController(db, logrus.WithField("component", "employees"))
	benchRequestController := controller.NewBenchRequestController(db, logrus.WithField("component", "bench-requests"))
	listingController := controller.NewListingController(db, logrus.WithField("component", "listings"))
	resourceRequestController := controller.NewResourceRequestController(db, logrus.WithField("component", "resource-requests"))

	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// User routes
	users := api.Group("/users")
	users.Get("/", userController.GetUsers)
	users.Get("/:id", userController.GetUser)

	// Company routes
	companies := api.Group("/companies")
	companies.Post("/", companyController.CreateCompany)
	companies.Get("/", companyController.GetCompanies)
	companies.Get("/:id", companyController.GetCompany)
	companies.Put("/:id", companyController.UpdateCompany)
	companies.Delete("/:id", companyController.DeleteCompany)

	// Admin access request routes
	adminRequests := api.Group("/admin-requests")
	adminRequests.Get("/", adminRequestController.GetAdminRequests)
	adminRequests.Get("/pending", adminRequestController.GetPendingAdminRequests)
	adminRequests.Get("/:id", adminRequestController.GetAdminRequest)
	adminRequests.Post("/:id/respond", adminRequestController.RespondAdminRequest)

	// Employee routes
	employees := api.Group("/employees")
	employees.Post("/", employeeController.CreateEmployee)
	employees.Get("/", employeeController.GetEmployees)
	employees.Get("/available", employeeController.GetAvailableEmployees)
	employees.Get("/:id", employeeController.GetEmployee)
	employees.Put("/:id", employeeController.UpdateEmployee)
	employees.Delete("/:id", employeeController.DeleteEmployee)

	// Bench request routes
	benchRequests := api.Group("/bench-requests")
	benchRequests.Post("/", benchRequestController.CreateBenchRequest)
	benchRequests.Get("/", benchRequestController.GetBenchRequests)
	benchRequests.Get("/pending", benchRequestController.GetPendingBenchRequests)
	benchRequests.Get("/:id", benchRequestController.GetBenchRequest)
	benchRequests.Post("/:id/respond", benchRequestController.RespondBenchRequest)
	benchRequests.Post("/:id/cancel", benchRequestController.CancelBenchRequest)

	// Resource listing routes
	listings := api.Group("/resource-listings")
	listings.Post("/", listingController.CreateListing)
	listings.Get("/", listingController.GetListings)
	listings.Get("/my-listings", listingController.GetMyListings)
	listings.Get("/:id", listingController.GetListing)
	listings.Put("/:id", listingController.UpdateListing)
	listings.Post("/:id/update-status", listingController.UpdateListingStatus)
	listings.Delete("/:id", listingController.DeleteListing)

	// Resource request routes
	resourceRequests := api.Group("/resource-requests")
	resourceRequests.Post("/", resourceRequestController.CreateResourceRequest)
	resourceRequests.Get("/", resourceRequestController.GetResourceRequests)
	resourceRequests.Get("/sent", resourceRequestController.GetSentResourceRequests)
	resourceRequests.Get("/received", resourceRequestController.GetReceivedResourceRequests)
	resourceRequests.Get("/:id", resourceRequestController.GetResourceRequest)
	resourceRequests.Post("/:id/respond", resourceRequestController.RespondResourceRequest)
	resourceRequests.Post("/:id/cancel", resourceRequestController.CancelResourceRequest)
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
