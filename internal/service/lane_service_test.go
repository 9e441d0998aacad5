package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/go-cmp/cmp"

	"etc_backend/internal/domain"
	"etc_backend/internal/lpr"
)

func laneBody(t *testing.T, event domain.LaneCameraEvent) string {
	t.Helper()
	b, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func decodeCommand(t *testing.T, p *fakePublisher, i int) (string, domain.BarrierCommandPayload) {
	t.Helper()
	var cmd domain.BarrierCommandPayload
	if err := json.Unmarshal(p.inputs[i].Payload, &cmd); err != nil {
		t.Fatal(err)
	}
	return aws.ToString(p.inputs[i].Topic), cmd
}

var laneImage = base64.StdEncoding.EncodeToString([]byte("fake-image"))

func TestLaneServiceChargesAndOpensBarrier(t *testing.T) {
	f := newFixture()
	f.mustVehicle("30G-49729", 100000)
	rec := &fakeRecognizer{result: recognized(domain.ValidatedPlate{Text: "30G-49729", Confidence: 0.9, Formatted: "30G-49729"})}
	pub := &fakePublisher{}
	notifier := &recordingNotifier{}
	svc := NewLaneService(rec, f.accounts, f.scans, pub, notifier, 35000)

	err := svc.HandleLaneEvent(context.Background(), laneBody(t, domain.LaneCameraEvent{
		EventID: "evt-1", LaneID: "LANE_03", Station: "BOT Pháp Vân", ImageBase64: laneImage,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if string(rec.images[0]) != "fake-image" {
		t.Fatalf("recognizer got %q", rec.images[0])
	}

	topic, cmd := decodeCommand(t, pub, 0)
	if topic != "etc/lanes/LANE_03/barrier" {
		t.Fatalf("topic = %q", topic)
	}
	want := domain.BarrierCommandPayload{Command: domain.BarrierOpen, RequestID: "evt-1", Plate: "30G-49729"}
	if diff := cmp.Diff(want, cmd); diff != "" {
		t.Fatalf("command mismatch (-want +got):\n%s", diff)
	}

	if got := f.balance(1); got != 65000 {
		t.Fatalf("balance = %v, want 65000", got)
	}
	if len(f.store.ScanRecords()) != 1 || f.store.ScanRecords()[0].StationLocation.String != "BOT Pháp Vân" {
		t.Fatalf("scans = %+v", f.store.ScanRecords())
	}
	if len(notifier.events) != 1 || notifier.events[0].EventType != domain.ScanEventTollPaid || *notifier.events[0].Balance != 65000 {
		t.Fatalf("notifications = %+v", notifier.events)
	}
}

func TestLaneServiceUsesEventTollAmount(t *testing.T) {
	f := newFixture()
	f.mustVehicle("30G-49729", 100000)
	rec := &fakeRecognizer{result: recognized(domain.ValidatedPlate{Text: "30G-49729", Confidence: 0.9})}
	svc := NewLaneService(rec, f.accounts, f.scans, &fakePublisher{}, nil, 35000)

	body := laneBody(t, domain.LaneCameraEvent{EventID: "evt-2", LaneID: "L1", ImageBase64: "data:image/png;base64," + laneImage, TollAmount: 52000})
	if err := svc.HandleLaneEvent(context.Background(), body); err != nil {
		t.Fatal(err)
	}
	if got := f.balance(1); got != 48000 {
		t.Fatalf("balance = %v, want 48000", got)
	}
}

func TestLaneServiceHoldsBarrier(t *testing.T) {
	tests := []struct {
		name      string
		balance   float64
		register  bool
		result    *domain.RecognitionResult
		recErr    error
		wantType  domain.ScanEventType
		wantPlate string
	}{
		{"no plate", 0, false, recognized(), nil, domain.ScanEventNoPlate, ""},
		{"unreadable image", 0, false, nil, lpr.ErrUnreadableImage, domain.ScanEventNoPlate, ""},
		{"unknown vehicle", 0, false, recognized(domain.ValidatedPlate{Text: "99Z-99999"}), nil, domain.ScanEventTollFailed, "99Z-99999"},
		{"insufficient balance", 1000, true, recognized(domain.ValidatedPlate{Text: "30G-49729"}), nil, domain.ScanEventTollFailed, "30G-49729"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.register {
				f.mustVehicle("30G-49729", tt.balance)
			}
			pub := &fakePublisher{}
			notifier := &recordingNotifier{}
			svc := NewLaneService(&fakeRecognizer{result: tt.result, err: tt.recErr}, f.accounts, f.scans, pub, notifier, 35000)

			err := svc.HandleLaneEvent(context.Background(), laneBody(t, domain.LaneCameraEvent{EventID: "e", LaneID: "L9", ImageBase64: laneImage}))
			if err != nil {
				t.Fatalf("HandleLaneEvent: %v", err)
			}
			if len(pub.inputs) != 1 {
				t.Fatalf("published %d commands, want 1", len(pub.inputs))
			}
			_, cmd := decodeCommand(t, pub, 0)
			if cmd.Command != domain.BarrierHold || cmd.Plate != tt.wantPlate || cmd.Reason == "" {
				t.Fatalf("command = %+v", cmd)
			}
			if len(notifier.events) != 1 || notifier.events[0].EventType != tt.wantType {
				t.Fatalf("notifications = %+v", notifier.events)
			}
			for _, tx := range f.store.Transactions() {
				if tx.TransactionType == domain.TransactionToll {
					t.Fatalf("no toll should be charged, got %+v", tx)
				}
			}
		})
	}
}

func TestLaneServiceRetryableErrors(t *testing.T) {
	f := newFixture()
	f.mustVehicle("30G-49729", 100000)
	good := laneBody(t, domain.LaneCameraEvent{EventID: "e", LaneID: "L1", ImageBase64: laneImage})

	tests := []struct {
		name string
		body string
		rec  *fakeRecognizer
		pub  *fakePublisher
	}{
		{"malformed json", "{not json", &fakeRecognizer{}, &fakePublisher{}},
		{"missing lane", laneBody(t, domain.LaneCameraEvent{ImageBase64: laneImage}), &fakeRecognizer{}, &fakePublisher{}},
		{"bad base64", laneBody(t, domain.LaneCameraEvent{LaneID: "L1", ImageBase64: "%%%"}), &fakeRecognizer{}, &fakePublisher{}},
		{"ocr unavailable", good, &fakeRecognizer{err: fmt.Errorf("%w: no engine", lpr.ErrOCRUnavailable)}, &fakePublisher{}},
		{"publish failure", good, &fakeRecognizer{result: recognized(domain.ValidatedPlate{Text: "30G-49729"})}, &fakePublisher{err: errors.New("iot down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewLaneService(tt.rec, f.accounts, f.scans, tt.pub, nil, 35000)
			if err := svc.HandleLaneEvent(context.Background(), tt.body); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLaneServiceRedeliveryChargesOnce(t *testing.T) {
	tests := []struct {
		name    string
		eventID string
	}{
		{"with event id", "evt-9"},
		{"without event id", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.mustVehicle("30G-49729", 100000)
			rec := &fakeRecognizer{result: recognized(domain.ValidatedPlate{Text: "30G-49729", Confidence: 0.9})}
			pub := &fakePublisher{err: errors.New("iot down")}
			notifier := &recordingNotifier{}
			svc := NewLaneService(rec, f.accounts, f.scans, pub, notifier, 35000)
			body := laneBody(t, domain.LaneCameraEvent{EventID: tt.eventID, LaneID: "LANE_01", Station: "BOT Cầu Giẽ", ImageBase64: laneImage})

			for delivery := 1; delivery <= 2; delivery++ {
				if err := svc.HandleLaneEvent(context.Background(), body); err == nil {
					t.Fatalf("delivery %d: publish failure must keep the message for retry", delivery)
				}
				if got := f.balance(1); got != 65000 {
					t.Fatalf("delivery %d: balance = %v, want 65000", delivery, got)
				}
			}

			pub.err = nil
			if err := svc.HandleLaneEvent(context.Background(), body); err != nil {
				t.Fatal(err)
			}
			if got := f.balance(1); got != 65000 {
				t.Fatalf("balance = %v, want 65000", got)
			}
			if n := len(f.store.Transactions()); n != 1 {
				t.Fatalf("transactions = %d, want 1", n)
			}
			if n := len(f.store.ScanRecords()); n != 1 {
				t.Fatalf("scan records = %d, want 1", n)
			}
			_, cmd := decodeCommand(t, pub, len(pub.inputs)-1)
			if cmd.Command != domain.BarrierOpen || cmd.RequestID == "" {
				t.Fatalf("last command = %+v", cmd)
			}
			if len(notifier.events) != 1 || notifier.events[0].EventType != domain.ScanEventTollPaid {
				t.Fatalf("notifications = %+v", notifier.events)
			}
		})
	}
}

func TestLaneServiceHoldsOnFallbackResult(t *testing.T) {
	f := newFixture()
	f.mustVehicle("30G-49729", 100000)
	pub := &fakePublisher{}
	notifier := &recordingNotifier{}
	svc := NewLaneService(lpr.NewRecognizer(nil, nil), f.accounts, f.scans, pub, notifier, 35000)

	err := svc.HandleLaneEvent(context.Background(), laneBody(t, domain.LaneCameraEvent{EventID: "evt-f", LaneID: "LANE_02", ImageBase64: laneImage}))
	if err != nil {
		t.Fatal(err)
	}
	if got := f.balance(1); got != 100000 {
		t.Fatalf("balance = %v, fallback plate must not be charged", got)
	}
	if len(f.store.Transactions()) != 0 || len(f.store.ScanRecords()) != 0 {
		t.Fatalf("transactions = %+v, scans = %+v", f.store.Transactions(), f.store.ScanRecords())
	}
	if len(pub.inputs) != 1 {
		t.Fatalf("published %d commands, want 1", len(pub.inputs))
	}
	_, cmd := decodeCommand(t, pub, 0)
	if cmd.Command != domain.BarrierHold || cmd.Plate != "" {
		t.Fatalf("command = %+v", cmd)
	}
	if len(notifier.events) != 1 || notifier.events[0].EventType != domain.ScanEventNoPlate {
		t.Fatalf("notifications = %+v", notifier.events)
	}
}

func TestDecodeImageBase64(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	enc := base64.StdEncoding.EncodeToString(raw)
	for _, in := range []string{enc, " " + enc + "\n", "data:image/png;base64," + enc} {
		got, err := DecodeImageBase64(in)
		if err != nil {
			t.Fatalf("DecodeImageBase64(%q): %v", in, err)
		}
		if diff := cmp.Diff(raw, got); diff != "" {
			t.Fatalf("decoded mismatch (-want +got):\n%s", diff)
		}
	}
	if _, err := DecodeImageBase64("not*base64"); err == nil {
		t.Fatal("expected error for invalid input")
	}
}
