package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/kinohub/cinema-scheduling/internal/clock"
	"github.com/kinohub/cinema-scheduling/internal/config"
	"github.com/kinohub/cinema-scheduling/internal/database"
	"github.com/kinohub/cinema-scheduling/internal/handler"
	appmw "github.com/kinohub/cinema-scheduling/internal/middleware"
	"github.com/kinohub/cinema-scheduling/internal/queue"
	"github.com/kinohub/cinema-scheduling/internal/repository"
	"github.com/kinohub/cinema-scheduling/internal/router"
	"github.com/kinohub/cinema-scheduling/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and availability cache disabled")
	}

	films := repository.NewFilmRepo(db)
	rooms := repository.NewRoomRepo(db)
	screenings := repository.NewScreeningRepo(db)
	reservations := repository.NewReservationRepo(db)
	customers := repository.NewCustomerRepo(db)

	clk := clock.System()
	schedSvc := service.NewSchedulingService(films, rooms, screenings, clk)
	resvSvc := service.NewReservationService(screenings, rooms, customers, reservations, clk)

	cache := handler.NewAvailabilityCache(config.LoadCacheConfig(), rdb)
	authH := handler.NewAuthHandler(cfg)
	schedH := handler.NewScheduleHandler(schedSvc, cache)
	resvH := handler.NewReservationHandler(resvSvc, schedSvc, cache)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(appmw.NewRateLimiter(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e, authH, schedH, resvH, cfg.JWTSecret)

	go queue.StartReservationConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
