package intercept

import (
	"context"
	"log"

	"github.com/neura/fraudshield/internal/application"
	appscans "github.com/neura/fraudshield/internal/application/scans"
	"github.com/neura/fraudshield/internal/domain/alerts"
	domain "github.com/neura/fraudshield/internal/domain/scans"
)

// Emitter hands alerts to the configured delivery pipeline.
type Emitter interface {
	Emit(ctx context.Context, a *alerts.Alert)
}

// Service classifies inbound messages without user action. It runs on the
// message-delivery path, so nothing here may panic or return an error to the
// caller; every failure is logged and dropped.
type Service struct {
	Scans  *appscans.Service
	Alerts Emitter
	Clock  application.Clock
}

// OnMessageReceived handles one delivery event. An event may carry several
// messages; they share no state and are processed concurrently, each as a
// detached task that no caller lifecycle can cancel.
func (s *Service) OnMessageReceived(sender string, bodies ...string) {
	for _, body := range bodies {
		go s.handle(sender, body)
	}
}

func (s *Service) handle(sender, body string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("intercept: recovered panic sender=%s err=%v", sender, r)
		}
	}()

	receivedAt := s.Clock.Now().UTC()

	result, err := s.Scans.ScanUnattended(context.Background(), domain.KindSMS, domain.RawFields{
		Text:        body,
		PhoneNumber: sender,
	})
	if err != nil {
		// Validation failure here means an empty message body; nothing to scan.
		log.Printf("intercept: scan failed sender=%s err=%v", sender, err)
		return
	}

	if !result.IsFraud {
		return
	}

	log.Printf("intercept: fraud detected sender=%s risk=%s confidence=%.2f", sender, result.RiskLevel, result.Confidence)
	s.Alerts.Emit(context.Background(), &alerts.Alert{
		Kind:                  domain.KindSMS,
		Result:                result,
		OriginatingIdentifier: sender,
		ReceivedAt:            receivedAt,
	})
}
