package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsgo_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"golang.org/x/sync/errgroup"

	"etc_backend/internal/api"
	"etc_backend/internal/api/handler"
	"etc_backend/internal/api/middleware"
	"etc_backend/internal/config"
	"etc_backend/internal/iot"
	"etc_backend/internal/lpr"
	"etc_backend/internal/lpr/engine"
	"etc_backend/internal/repository"
	"etc_backend/internal/repository/memory"
	"etc_backend/internal/repository/postgresql"
	"etc_backend/internal/service"
)

type repositories struct {
	users    repository.UserRepository
	vehicles repository.VehicleRepository
	ledger   repository.LedgerRepository
	scans    repository.ScanRepository
	pinger   handler.Pinger
	close    func() error
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.StorageDriver == "memory" {
		log.Println("CẢNH BÁO: Đang dùng storage in-memory, dữ liệu sẽ mất khi tắt server.")
		store := memory.NewStore()
		return &repositories{
			users:    store.Users(),
			vehicles: store.Vehicles(),
			ledger:   store.Ledger(),
			scans:    store.Scans(),
			pinger:   store,
			close:    func() error { return nil },
		}, nil
	}

	db, err := postgresql.NewDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := postgresql.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("Đã kết nối database và kiểm tra schema thành công!")
	return &repositories{
		users:    postgresql.NewPgUserRepository(db),
		vehicles: postgresql.NewPgVehicleRepository(db),
		ledger:   postgresql.NewPgLedgerRepository(db),
		scans:    postgresql.NewPgScanRepository(db),
		pinger:   db,
		close:    db.Close,
	}, nil
}

func main() {
	cfg := config.Load()
	log.Println("Cấu hình đã được tải.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		log.Fatalf("Không thể khởi tạo storage: %v", err)
	}
	defer repos.close()

	awsSDKCfg, err := awsgo_config.LoadDefaultConfig(ctx, awsgo_config.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Không thể tải AWS SDK config: %v", err)
	}
	log.Println("Đã tải AWS SDK config cho region:", cfg.AWSRegion)

	var barrierPublisher service.BarrierPublisher
	if cfg.IoTMQTTEndpoint != "" {
		barrierPublisher = iotdataplane.NewFromConfig(awsSDKCfg, func(o *iotdataplane.Options) {
			endpoint := cfg.IoTMQTTEndpoint
			if !strings.HasPrefix(endpoint, "https://") && !strings.HasPrefix(endpoint, "http://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
		})
	} else {
		log.Println("CẢNH BÁO: IOT_MQTT_ENDPOINT chưa được cấu hình. Lệnh barrier sẽ không được gửi.")
	}

	reader, err := engine.SharedReader(cfg.OCREngine, cfg.AWSRegion, cfg.OCRLanguages)
	if err != nil {
		log.Fatalf("Cấu hình OCR không hợp lệ: %v", err)
	}
	if reader == nil {
		log.Println("CẢNH BÁO: Không có OCR engine, nhận diện sẽ trả kết quả mô phỏng.")
	}
	recognizer := lpr.NewRecognizer(reader, nil)

	wsManager := handler.NewWebSocketManager()

	vehicleService := service.NewVehicleService(repos.vehicles, repos.ledger, repos.scans, cfg.LowBalanceThreshold)
	accountService := service.NewAccountService(vehicleService, repos.ledger)
	scanService := service.NewScanService(vehicleService, repos.scans)
	authService := service.NewAuthService(repos.users, cfg.JWTSecret, cfg.JWTExpirationHours)
	lprService := service.NewLPRService(recognizer, vehicleService, scanService, wsManager, cfg.LowBalanceThreshold)
	laneService := service.NewLaneService(recognizer, accountService, scanService, barrierPublisher, wsManager, cfg.DefaultTollAmount)

	router := api.SetupRouter(api.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Vehicle:     handler.NewVehicleHandler(vehicleService, accountService),
		Transaction: handler.NewTransactionHandler(accountService),
		Scan:        handler.NewScanHandler(lprService, scanService, cfg.UploadFolder, cfg.MaxUploadBytes),
		Health:      handler.NewHealthHandler(repos.pinger, cfg.OCREngine),
		WebSocket:   handler.NewWebSocketHandler(wsManager),
	}, middleware.NewAuthMiddleware(authService))

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsManager.Run(gctx)
		return nil
	})

	if cfg.SQSLaneQueueURL == "" {
		log.Println("CẢNH BÁO: SQS_LANE_QUEUE_URL chưa được cấu hình. SQS Consumer sẽ không chạy.")
	} else {
		consumer := iot.NewSQSConsumer(sqs.NewFromConfig(awsSDKCfg), cfg.SQSLaneQueueURL, laneService)
		g.Go(func() error {
			return consumer.Start(gctx)
		})
	}

	g.Go(func() error {
		log.Printf("Server đang chạy trên port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Đang tắt server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server dừng với lỗi: %v", err)
	}
	log.Println("Server đã tắt.")
}
