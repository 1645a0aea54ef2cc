package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/cors"

	"autoservice/http-server/approval"
	getearnings "autoservice/http-server/earnings/get"
	generate_excel "autoservice/http-server/generate-report/generate-excel"
	getorders "autoservice/http-server/orders/get"
	saveorders "autoservice/http-server/orders/save"
	updateorders "autoservice/http-server/orders/update"
	getparts "autoservice/http-server/parts/get"
	saveparts "autoservice/http-server/parts/save"
	gettasks "autoservice/http-server/tasks/get"
	savetasks "autoservice/http-server/tasks/save"
	updatetasks "autoservice/http-server/tasks/update"
	"autoservice/internal/config"
	"autoservice/internal/middleware/auth"
	"autoservice/internal/service"
	generate_excel2 "autoservice/internal/service/generate-excel"
	"autoservice/internal/storage"
)

func routes(cfg config.Config, log *slog.Logger, svc *service.Service) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", approval.IdempotencyHeader},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	genService := generate_excel2.NewGenerateService(svc)
	staff := auth.RequireRole(storage.RoleMaster, storage.RoleOperator)

	router.Route("/api", func(api chi.Router) {
		api.Use(auth.JWT(cfg.JWTSecret))

		// Склад
		api.Get("/parts", getparts.LookupParts(log, svc))
		api.With(staff).Post("/parts", saveparts.CreatePart(log, svc))
		api.With(staff).Post("/parts/{id}/restock", saveparts.RestockPart(log, svc))

		// Заказы
		api.Get("/orders", getorders.GetOrders(log, svc))
		api.Get("/orders/{id}", getorders.GetOrderDetails(log, svc))
		api.Post("/orders", saveorders.CreateOrder(log, svc))
		api.Post("/orders/{id}/items", saveorders.AddItem(log, svc))
		api.Delete("/orders/{id}/items/{idx}", updateorders.RemoveItem(log, svc))
		api.Post("/orders/{id}/tasks", savetasks.Delegate(log, svc))
		api.Post("/orders/{id}/{action}", updateorders.ChangeStatus(log, svc))

		// Задачи учеников
		api.Get("/tasks", gettasks.GetTasks(log, svc))
		api.Post("/tasks/{id}/{action}", updatetasks.ChangeStatus(log, svc))
		api.Put("/tasks/{id}/payment", updatetasks.UpdatePayment(log, svc))

		// Заработок
		api.Get("/earnings/{apprenticeID}", getearnings.GetEarnings(log, svc))
		api.Get("/report/earnings/{apprenticeID}", generate_excel.GenerateEarningsExcel(log, genService))

		masterRouter := chi.NewRouter()
		masterRouter.Use(auth.RequireRole(storage.RoleMaster))
		masterRouter.Post("/orders/{id}/approve", approval.Approve(log, svc))
		masterRouter.Post("/orders/{id}/reject", approval.Reject(log, svc))
		api.Mount("/master", masterRouter)
	})

	return router
}
