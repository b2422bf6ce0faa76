package grpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mr1hm/go-maintenance-alerts/internal/models"
	"github.com/mr1hm/go-maintenance-alerts/internal/store"
)

type AlertLister interface {
	List(f store.Filter) []*models.Alert
}

type SettingsProvider interface {
	Settings() models.AlertSettings
}

type Server struct {
	alerts      AlertLister
	settings    SettingsProvider
	broadcaster *Broadcaster
	now         func() time.Time
	grpcServer  *grpc.Server
}

func NewServer(alerts AlertLister, settings SettingsProvider, broadcaster *Broadcaster) *Server {
	s := &Server{
		alerts:      alerts,
		settings:    settings,
		broadcaster: broadcaster,
		now:         time.Now,
	}
	s.grpcServer = grpc.NewServer(grpc.ForceServerCodec(jsonCodec{}))
	s.grpcServer.RegisterService(&alertServiceDesc, s)
	return s
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

func (s *Server) ListAlerts(ctx context.Context, req *ListAlertsRequest) (*ListAlertsResponse, error) {
	minRank, err := parseMinSeverity(req.MinSeverity)
	if err != nil {
		return nil, err
	}

	filter := store.Filter{
		Department: req.Department,
		UnreadOnly: req.UnreadOnly,
	}
	if req.VisibleOnly {
		now := s.now()
		filter.VisibleAt = &now
	}

	settings := s.settings.Settings()
	resp := &ListAlertsResponse{Alerts: []*Alert{}}
	for _, a := range s.alerts.List(filter) {
		if a.Severity.Rank() < minRank {
			continue
		}
		resp.Alerts = append(resp.Alerts, toWire(a, &settings))
	}
	return resp, nil
}

func (s *Server) StreamAlerts(req *StreamAlertsRequest, stream grpc.ServerStream) error {
	minRank, err := parseMinSeverity(req.MinSeverity)
	if err != nil {
		return err
	}

	id, ch := s.broadcaster.Subscribe(func(a *models.Alert) bool {
		if req.Department != "" && a.Department != req.Department {
			return false
		}
		return a.Severity.Rank() >= minRank
	})
	defer s.broadcaster.Unsubscribe(id)

	slog.Info("client subscribed to alert stream", "subscriber_id", id)

	for {
		select {
		case <-stream.Context().Done():
			slog.Info("client disconnected from alert stream", "subscriber_id", id)
			return nil
		case a, ok := <-ch:
			if !ok {
				return nil
			}
			settings := s.settings.Settings()
			if err := stream.SendMsg(toWire(a, &settings)); err != nil {
				slog.Error("failed to send alert to stream", "error", err, "subscriber_id", id)
				return err
			}
		}
	}
}

func parseMinSeverity(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	sev := models.AlertSeverity(v)
	if !sev.Valid() {
		return 0, status.Errorf(codes.InvalidArgument, "unknown severity: %s", v)
	}
	return sev.Rank(), nil
}
