package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/mr1hm/go-maintenance-alerts/internal/models"
)

const (
	serviceName        = "maintalerts.v1.AlertService"
	listAlertsMethod   = "/" + serviceName + "/ListAlerts"
	streamAlertsMethod = "/" + serviceName + "/StreamAlerts"
)

type ListAlertsRequest struct {
	Department  string `json:"department,omitempty"`
	MinSeverity string `json:"min_severity,omitempty"`
	UnreadOnly  bool   `json:"unread_only,omitempty"`
	VisibleOnly bool   `json:"visible_only,omitempty"`
}

type ListAlertsResponse struct {
	Alerts []*Alert `json:"alerts"`
}

type StreamAlertsRequest struct {
	Department  string `json:"department,omitempty"`
	MinSeverity string `json:"min_severity,omitempty"`
}

// Alert is the wire form of models.Alert, with the display color resolved.
type Alert struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Trigger        string     `json:"trigger,omitempty"`
	Severity       string     `json:"severity"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Department     string     `json:"department,omitempty"`
	RelatedID      string     `json:"related_id,omitempty"`
	RelatedType    string     `json:"related_type,omitempty"`
	AssignedTo     []string   `json:"assigned_to,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Read           bool       `json:"read"`
	Dismissible    bool       `json:"dismissible"`
	Persistent     bool       `json:"persistent"`
	ActionRequired bool       `json:"action_required"`
	ShowCount      int        `json:"show_count"`
	MaxShows       int        `json:"max_shows,omitempty"`
	Color          string     `json:"color,omitempty"`
}

// alertServiceServer is the handler type checked by grpc.RegisterService.
type alertServiceServer interface {
	ListAlerts(context.Context, *ListAlertsRequest) (*ListAlertsResponse, error)
	StreamAlerts(*StreamAlertsRequest, grpc.ServerStream) error
}

var alertServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*alertServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListAlerts",
			Handler:    listAlertsHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamAlerts",
			Handler:       streamAlertsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "maintalerts/v1/alerts.proto",
}

func listAlertsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListAlertsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(alertServiceServer).ListAlerts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: listAlertsMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(alertServiceServer).ListAlerts(ctx, req.(*ListAlertsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func streamAlertsHandler(srv any, stream grpc.ServerStream) error {
	in := new(StreamAlertsRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(alertServiceServer).StreamAlerts(in, stream)
}

func toWire(a *models.Alert, settings *models.AlertSettings) *Alert {
	return &Alert{
		ID:             a.ID,
		Type:           string(a.Type),
		Trigger:        a.Trigger,
		Severity:       string(a.Severity),
		Title:          a.Title,
		Message:        a.Message,
		Department:     a.Department,
		RelatedID:      a.RelatedID,
		RelatedType:    string(a.RelatedType),
		AssignedTo:     a.AssignedTo,
		CreatedAt:      a.CreatedAt,
		ExpiresAt:      a.ExpiresAt,
		Read:           a.Read,
		Dismissible:    a.Dismissible,
		Persistent:     a.Persistent,
		ActionRequired: a.ActionRequired,
		ShowCount:      a.ShowCount,
		MaxShows:       a.MaxShows,
		Color:          a.Color(settings),
	}
}
