package service

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"

	"etc_backend/internal/domain"
	"etc_backend/internal/repository/memory"
)

// fixture dựng đủ các service trên cùng một memStore
type fixture struct {
	store    *memory.Store
	vehicles *VehicleService
	accounts *AccountService
	scans    *ScanService
}

func newFixture() *fixture {
	store := memory.NewStore()
	vehicles := NewVehicleService(store.Vehicles(), store.Ledger(), store.Scans(), 50000)
	return &fixture{
		store:    store,
		vehicles: vehicles,
		accounts: NewAccountService(vehicles, store.Ledger()),
		scans:    NewScanService(vehicles, store.Scans()),
	}
}

func (f *fixture) balance(id int) float64 {
	v, err := f.store.Vehicles().FindByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return v.AccountBalance
}

func (f *fixture) mustVehicle(plate string, balance float64) *domain.Vehicle {
	v, err := f.vehicles.Create(context.Background(), domain.CreateVehicleDTO{
		LicensePlate:   plate,
		OwnerName:      "Nguyễn Văn A",
		AccountBalance: balance,
	})
	if err != nil {
		panic(err)
	}
	return v
}

type fakeRecognizer struct {
	result *domain.RecognitionResult
	err    error
	paths  []string
	images [][]byte
}

func (f *fakeRecognizer) Recognize(_ context.Context, imagePath string) (*domain.RecognitionResult, error) {
	f.paths = append(f.paths, imagePath)
	return f.result, f.err
}

func (f *fakeRecognizer) RecognizeImage(_ context.Context, data []byte) (*domain.RecognitionResult, error) {
	f.images = append(f.images, data)
	return f.result, f.err
}

type recordingNotifier struct {
	events []domain.ScanNotification
}

func (n *recordingNotifier) BroadcastScanEvent(e domain.ScanNotification) {
	n.events = append(n.events, e)
}

type fakePublisher struct {
	inputs []*iotdataplane.PublishInput
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, in *iotdataplane.PublishInput, _ ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error) {
	p.inputs = append(p.inputs, in)
	if p.err != nil {
		return nil, p.err
	}
	return &iotdataplane.PublishOutput{}, nil
}

func recognized(plates ...domain.ValidatedPlate) *domain.RecognitionResult {
	return &domain.RecognitionResult{
		Success:       true,
		LicensePlates: plates,
		RecognitionStats: domain.RecognitionStats{
			TotalCandidates:    7,
			ProcessingVersions: 5,
			ValidPlatesFound:   len(plates),
		},
		Method: "tesseract",
	}
}
